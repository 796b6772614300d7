package facecube

import (
	"context"
	"image"

	"github.com/pkg/errors"

	"go.viam.com/facecube/config"
	"go.viam.com/facecube/logging"
	"go.viam.com/facecube/pointcloud"
	"go.viam.com/facecube/rimage"
	"go.viam.com/facecube/rimage/depthsource"
	"go.viam.com/facecube/rimage/transform"
	"go.viam.com/facecube/vision/segmentation"
)

// Pipeline turns depth frames into the array shown and exported: the selected region when there
// is one, otherwise every reading within the margin of the closest reading.
// A Pipeline is not safe for concurrent use.
type Pipeline struct {
	source     depthsource.Source
	model      rimage.DepthModel
	segmenter  *segmentation.DepthSegmenter
	projection transform.KinectProjection
	output     string
	back       bool
	logger     logging.Logger

	state State

	frame     *rimage.DepthMap
	metric    *rimage.MetricMap
	threshold segmentation.Threshold
	labels    *segmentation.LabelMap
	masked    *rimage.MetricMap
	segmented *rimage.MetricMap
}

// NewPipeline returns a pipeline reading from source with the settings in a validated cfg.
func NewPipeline(cfg *config.Config, source depthsource.Source, logger logging.Logger) *Pipeline {
	model := rimage.NewKinectDepthModel()
	if cfg.DepthModel != nil {
		model = *cfg.DepthModel
	}
	projection := transform.NewKinectProjection()
	if cfg.Projection != nil {
		projection = *cfg.Projection
	}
	output := cfg.Output
	if output == "" {
		output = config.DefaultOutput
	}
	return &Pipeline{
		source:     source,
		model:      model,
		segmenter:  segmentation.NewDepthSegmenter(model, logger.Sublogger("segmenter")),
		projection: projection,
		output:     output,
		back:       cfg.WithBackSurface(),
		logger:     logger,
		state:      NewState(cfg),
	}
}

// State returns the current session state.
func (p *Pipeline) State() State {
	return p.state
}

// Threshold returns the threshold computed for the last processed frame.
func (p *Pipeline) Threshold() segmentation.Threshold {
	return p.threshold
}

// Labels returns the regions of the last processed frame, or nil if it had no readings.
func (p *Pipeline) Labels() *segmentation.LabelMap {
	return p.labels
}

// Step captures a new frame when capturing (or when none has been captured yet) and reprocesses
// the held frame with the current state. Source errors are returned as is; a frame without any
// reading is not an error and leaves nothing selected.
func (p *Pipeline) Step(ctx context.Context) error {
	if p.state.Capturing || p.frame == nil {
		frame, err := p.source.NextDepth(ctx)
		if err != nil {
			return err
		}
		p.frame = frame
	}
	return p.process()
}

func (p *Pipeline) process() error {
	p.metric = p.model.ToMetric(p.frame)
	p.labels, p.segmented = nil, nil

	labels, th, err := p.segmenter.Threshold(p.metric, p.state.MarginCM)
	if err != nil {
		if errors.Is(err, segmentation.ErrDegenerateFrame) {
			p.logger.Debug("frame has no readings")
			p.threshold = segmentation.Threshold{MarginCM: p.state.MarginCM}
			p.masked = rimage.NewEmptyMetricMap(p.metric.Width(), p.metric.Height())
			return nil
		}
		return err
	}
	p.labels, p.threshold = labels, th
	p.masked = th.Apply(p.metric)

	if p.state.Selection == nil {
		return nil
	}
	p.segmented = segmentation.SegmentAt(labels, p.masked, *p.state.Selection)
	if p.segmented == nil || p.state.HoleFillWindow <= 0 {
		return nil
	}
	filled, err := p.segmented.HoleFill(p.state.HoleFillWindow)
	if err != nil {
		return errors.Wrap(err, "hole filling failed")
	}
	p.segmented = filled
	return nil
}

// Current returns the selected region if there is one, otherwise the thresholded grid. It is
// nil before the first frame.
func (p *Pipeline) Current() *rimage.MetricMap {
	if p.segmented != nil {
		return p.segmented
	}
	return p.masked
}

// Preview renders the current array for display.
func (p *Pipeline) Preview() image.Image {
	current := p.Current()
	if current == nil {
		return image.NewRGBA(image.Rectangle{})
	}
	return current.ToPrettyPicture(0, 0)
}

// Handle applies ev to the session. quit is true once the session should end. Only Save can
// fail.
func (p *Pipeline) Handle(ctx context.Context, ev Event) (quit bool, err error) {
	switch e := ev.(type) {
	case Quit:
		return true, nil
	case AdjustMargin:
		p.state = p.state.AdjustMargin(e.DeltaCM)
		p.logger.Infof("Getting closest %d cm", int(p.state.MarginCM))
	case ToggleCapture:
		p.state = p.state.ToggleCapture()
		p.logger.Debugw("toggled capture", "capturing", p.state.Capturing)
	case AdjustHoleFill:
		p.state = p.state.AdjustHoleFill(e.Delta)
		p.logger.Infof("Hole filling window set to %d", p.state.HoleFillWindow)
	case Save:
		_, err := p.Save(ctx)
		return false, err
	case Select:
		p.selectAt(e.Point)
	default:
		return false, errors.Errorf("unknown event %T", ev)
	}
	if p.frame == nil {
		return false, nil
	}
	return false, p.process()
}

func (p *Pipeline) selectAt(pt image.Point) {
	if p.labels == nil {
		p.logger.Debugw("nothing to select", "point", pt)
		p.state = p.state.ClearSelection()
		return
	}
	if _, key, ok := p.segmenter.Select(p.labels, p.masked, pt); ok {
		p.state = p.state.Select(key)
		return
	}
	p.state = p.state.ClearSelection()
}

// Save projects the current array to 3D and writes it to the configured output, adding the
// back surface when enabled and the margin is non-zero. It returns the number of points written.
func (p *Pipeline) Save(ctx context.Context) (int, error) {
	return p.SaveAs(ctx, p.output)
}

// SaveAs is Save with an explicit file name.
func (p *Pipeline) SaveAs(ctx context.Context, fn string) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	current := p.Current()
	if current == nil {
		return 0, errors.New("nothing to save before the first frame")
	}
	p.logger.Infof("Saving array as %s", fn)

	cloud, err := p.projection.SurfaceCloud(current, p.back && p.state.MarginCM != 0)
	if err != nil {
		return 0, err
	}
	if err := pointcloud.WriteToFile(cloud, fn); err != nil {
		return 0, err
	}
	return cloud.Size(), nil
}
