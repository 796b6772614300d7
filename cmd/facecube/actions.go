package main

import (
	"bufio"
	"context"
	"fmt"
	"image"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/pkg/errors"
	"github.com/urfave/cli/v2"
	"go.uber.org/multierr"
	"go.viam.com/utils"

	"go.viam.com/facecube/config"
	"go.viam.com/facecube/facecube"
	"go.viam.com/facecube/logging"
	"go.viam.com/facecube/rimage"
	"go.viam.com/facecube/rimage/depthsource"
)

// session is what every command needs: a validated config, a logger and an open source.
type session struct {
	cfg    *config.Config
	logger logging.Logger
	source depthsource.Source
}

func newSession(c *cli.Context) (*session, error) {
	logger := logging.NewLogger("facecube")
	if c.Bool(flagDebug) {
		logger = logging.NewDebugLogger("facecube")
	}

	cfg := config.Default()
	if fn := c.String(flagConfig); fn != "" {
		var err error
		if cfg, err = config.Read(fn, logger); err != nil {
			return nil, err
		}
	}
	if !c.Bool(flagDebug) {
		logger.SetLevel(cfg.Level())
	}

	files := cfg.Source.Files
	if c.Args().Present() {
		files = c.Args().Slice()
	}
	if len(files) == 0 {
		return nil, errors.New("no depth map files given in the config or as arguments")
	}
	src, err := depthsource.NewFileSource(files, logger.Sublogger("source"))
	if err != nil {
		return nil, err
	}
	return &session{
		cfg:    cfg,
		logger: logger,
		source: depthsource.NewResolutionCheckedSource(src, cfg.Source.Width, cfg.Source.Height),
	}, nil
}

func (s *session) close(ctx context.Context) error {
	// stdout cannot always be synced
	utils.UncheckedError(s.logger.Sync())
	return s.source.Close(ctx)
}

func parsePoint(in string) (image.Point, error) {
	parts := strings.Split(in, ",")
	if len(parts) != 2 {
		return image.Point{}, errors.Errorf("point %q must be X,Y", in)
	}
	x, err := strconv.Atoi(strings.TrimSpace(parts[0]))
	if err != nil {
		return image.Point{}, errors.Wrapf(err, "bad x in %q", in)
	}
	y, err := strconv.Atoi(strings.TrimSpace(parts[1]))
	if err != nil {
		return image.Point{}, errors.Wrapf(err, "bad y in %q", in)
	}
	return image.Pt(x, y), nil
}

func exportAction(c *cli.Context) (err error) {
	s, err := newSession(c)
	if err != nil {
		return err
	}
	defer func() {
		err = multierr.Combine(err, s.close(c.Context))
	}()

	p := facecube.NewPipeline(s.cfg, s.source, s.logger)
	if err := p.Step(c.Context); err != nil {
		return err
	}
	if sel := c.String(flagSelect); sel != "" {
		pt, err := parsePoint(sel)
		if err != nil {
			return err
		}
		if _, err := p.Handle(c.Context, facecube.Select{Point: pt}); err != nil {
			return err
		}
		if p.State().Selection == nil {
			return errors.Errorf("nothing to select at %v", pt)
		}
	}

	output := s.cfg.Output
	if o := c.String(flagOutput); o != "" {
		output = o
	}
	n, err := p.SaveAs(c.Context, output)
	if err != nil {
		return err
	}
	fmt.Fprintf(c.App.Writer, "wrote %d points to %s\n", n, output)
	return nil
}

func runAction(c *cli.Context) (err error) {
	s, err := newSession(c)
	if err != nil {
		return err
	}
	defer func() {
		err = multierr.Combine(err, s.close(c.Context))
	}()

	ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
	defer stop()

	var display facecube.Display
	if fn := c.String(flagPreview); fn != "" {
		display = facecube.NewFileDisplay(fn)
	}

	events := make(chan facecube.Event)
	go readEvents(ctx, bufio.NewScanner(c.App.Reader), events, s.logger)

	p := facecube.NewPipeline(s.cfg, s.source, s.logger)
	err = facecube.Run(ctx, p, events, display, s.cfg.FrameIntervalDuration())
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

// readEvents parses one command per line until the input ends, then closes events.
func readEvents(ctx context.Context, scanner *bufio.Scanner, events chan<- facecube.Event, logger logging.Logger) {
	defer close(events)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		ev, err := facecube.ParseEvent(line)
		if err != nil {
			logger.Warnw("ignoring command", "line", line, "error", err)
			continue
		}
		select {
		case events <- ev:
		case <-ctx.Done():
			return
		}
	}
	if err := scanner.Err(); err != nil {
		logger.Errorw("cannot read commands", "error", err)
	}
}

func previewAction(c *cli.Context) (err error) {
	s, err := newSession(c)
	if err != nil {
		return err
	}
	defer func() {
		err = multierr.Combine(err, s.close(c.Context))
	}()

	p := facecube.NewPipeline(s.cfg, s.source, s.logger)
	if err := p.Step(c.Context); err != nil {
		return err
	}
	return facecube.NewFileDisplay(c.String(flagOutput)).Show(c.Context, p.Preview())
}

func histogramAction(c *cli.Context) (err error) {
	s, err := newSession(c)
	if err != nil {
		return err
	}
	defer func() {
		err = multierr.Combine(err, s.close(c.Context))
	}()

	if c.String(flagOutput) == "" && !c.Bool(flagText) && !c.Bool(flagCSV) {
		return errors.Errorf("need --%s, --%s or --%s", flagOutput, flagText, flagCSV)
	}
	dm, err := s.source.NextDepth(c.Context)
	if err != nil {
		return err
	}
	if c.Bool(flagText) {
		if err := rimage.WriteTextHistogram(c.App.Writer, dm, *s.cfg.DepthModel, c.Int(flagBins), c.Int(flagWidth)); err != nil {
			return err
		}
	}
	if c.Bool(flagCSV) {
		counts, edges, err := rimage.Histogram(dm, *s.cfg.DepthModel, c.Int(flagBins))
		if err != nil {
			return err
		}
		if _, err := fmt.Fprintln(c.App.Writer, "lower,upper,count"); err != nil {
			return err
		}
		for i, n := range counts {
			if _, err := fmt.Fprintf(c.App.Writer, "%g,%g,%g\n", edges[i], edges[i+1], n); err != nil {
				return err
			}
		}
	}
	if fn := c.String(flagOutput); fn != "" {
		return rimage.WriteHistogramPlot(fn, dm, *s.cfg.DepthModel, c.Int(flagBins))
	}
	return nil
}

func regionsAction(c *cli.Context) (err error) {
	s, err := newSession(c)
	if err != nil {
		return err
	}
	defer func() {
		err = multierr.Combine(err, s.close(c.Context))
	}()

	p := facecube.NewPipeline(s.cfg, s.source, s.logger)
	if err := p.Step(c.Context); err != nil {
		return err
	}
	regions, err := p.Regions()
	if err != nil {
		return err
	}

	t := table.NewWriter()
	t.SetOutputMirror(c.App.Writer)
	t.AppendHeader(table.Row{"Label", "Select", "Cells", "Closest mm", "Mean mm", "Median mm", "Nearest"})
	for _, r := range regions {
		nearest := ""
		if r.Nearest {
			nearest = "*"
		}
		t.AppendRow(table.Row{
			r.Label,
			fmt.Sprintf("%d,%d", r.Anchor.X, r.Anchor.Y),
			r.Cells,
			fmt.Sprintf("%.1f", r.ClosestMM),
			fmt.Sprintf("%.1f", r.MeanMM),
			fmt.Sprintf("%.1f", r.MedianMM),
			nearest,
		})
	}
	t.AppendFooter(table.Row{"", "", "", fmt.Sprintf("margin %g cm", p.State().MarginCM)})
	t.Render()
	return nil
}
