package facecube

import (
	"context"
	"image"
	"os"
	"path/filepath"
	"testing"
	"time"

	"go.viam.com/test"

	"go.viam.com/facecube/logging"
	"go.viam.com/facecube/pointcloud"
)

type recordingDisplay struct {
	shown []image.Image
}

func (rd *recordingDisplay) Show(ctx context.Context, img image.Image) error {
	rd.shown = append(rd.shown, img)
	return nil
}

func TestRun(t *testing.T) {
	cfg := testConfig(t, 20)
	cfg.Output = filepath.Join(t.TempDir(), "missing", "out.ply")
	logger, logs := logging.NewObservedTestLogger(t)
	p := NewPipeline(cfg, newSequenceSource(t, twoClusters), logger)

	// a failed save is logged and does not end the session
	events := make(chan Event, 2)
	events <- Save{}
	events <- Quit{}
	display := &recordingDisplay{}

	err := Run(context.Background(), p, events, display, time.Millisecond)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, logs.FilterMessage("cannot apply event").Len(), test.ShouldEqual, 1)
	test.That(t, display.shown, test.ShouldHaveLength, 1)
	test.That(t, display.shown[0].Bounds(), test.ShouldResemble, image.Rect(0, 0, 5, 3))

	closed := make(chan Event)
	close(closed)
	test.That(t, Run(context.Background(), p, closed, display, time.Millisecond), test.ShouldBeNil)
	test.That(t, display.shown, test.ShouldHaveLength, 1)
}

func TestRunSelectAndSave(t *testing.T) {
	cfg := testConfig(t, 20)
	p := NewPipeline(cfg, newSequenceSource(t, twoClusters), logging.NewTestLogger(t))

	events := make(chan Event, 3)
	events <- Select{Point: image.Pt(4, 1)}
	events <- Save{}
	events <- Quit{}
	test.That(t, Run(context.Background(), p, events, nil, time.Millisecond), test.ShouldBeNil)

	cloud, err := pointcloud.NewFromFile(cfg.Output)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, cloud.Size(), test.ShouldEqual, 8)
	for _, pt := range pointcloud.Points(cloud) {
		test.That(t, pt.Y, test.ShouldBeGreaterThan, 0)
	}
}

func TestRunCancel(t *testing.T) {
	p := NewPipeline(testConfig(t, 10), newSequenceSource(t, twoClusters), logging.NewTestLogger(t))
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	err := Run(ctx, p, make(chan Event), nil, 5*time.Millisecond)
	test.That(t, err, test.ShouldBeError, context.DeadlineExceeded)
}

func TestFileDisplay(t *testing.T) {
	fn := filepath.Join(t.TempDir(), "preview.png")
	p := NewPipeline(testConfig(t, 10), newSequenceSource(t, twoClusters), logging.NewTestLogger(t))
	display := NewFileDisplay(fn)

	test.That(t, display.Show(context.Background(), p.Preview()), test.ShouldBeNil)
	_, err := os.Stat(fn)
	test.That(t, os.IsNotExist(err), test.ShouldBeTrue)

	test.That(t, p.Step(context.Background()), test.ShouldBeNil)
	test.That(t, display.Show(context.Background(), p.Preview()), test.ShouldBeNil)
	info, err := os.Stat(fn)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, info.Size(), test.ShouldBeGreaterThan, 0)
}
