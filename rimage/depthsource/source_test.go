package depthsource

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/pkg/errors"
	"go.viam.com/test"

	"go.viam.com/facecube/logging"
	"go.viam.com/facecube/rimage"
)

func writeFrame(t *testing.T, dir, name string, width, height, fill int) string {
	t.Helper()
	dm := rimage.NewEmptyDepthMap(width, height)
	for x := 0; x < width; x++ {
		for y := 0; y < height; y++ {
			dm.Set(x, y, fill)
		}
	}
	fn := filepath.Join(dir, name)
	test.That(t, dm.WriteToFile(fn), test.ShouldBeNil)
	return fn
}

func TestFileSource(t *testing.T) {
	logger := logging.NewTestLogger(t)
	ctx := context.Background()
	dir := t.TempDir()
	a := writeFrame(t, dir, "a.dat", 4, 3, 600)
	b := writeFrame(t, dir, "b.dat.gz", 4, 3, 700)

	_, err := NewFileSource(nil, logger)
	test.That(t, err, test.ShouldNotBeNil)

	src, err := NewFileSource([]string{a, b}, logger)
	test.That(t, err, test.ShouldBeNil)

	for _, expected := range []int{600, 700, 600} {
		dm, err := src.NextDepth(ctx)
		test.That(t, err, test.ShouldBeNil)
		test.That(t, dm.GetDepth(1, 1), test.ShouldEqual, expected)
	}

	cancelled, cancel := context.WithCancel(ctx)
	cancel()
	_, err = src.NextDepth(cancelled)
	test.That(t, errors.Is(err, context.Canceled), test.ShouldBeTrue)

	test.That(t, src.Close(ctx), test.ShouldBeNil)
	_, err = src.NextDepth(ctx)
	test.That(t, errors.Is(err, ErrSensorUnavailable), test.ShouldBeTrue)
}

func TestFileSourceMissingFile(t *testing.T) {
	src, err := NewFileSource([]string{filepath.Join(t.TempDir(), "nope.dat")}, logging.NewTestLogger(t))
	test.That(t, err, test.ShouldBeNil)
	_, err = src.NextDepth(context.Background())
	test.That(t, errors.Is(err, ErrSensorUnavailable), test.ShouldBeTrue)
}

func TestStaticSource(t *testing.T) {
	ctx := context.Background()
	dm := rimage.NewEmptyDepthMap(2, 2)
	src := NewStaticSource(dm)
	got, err := src.NextDepth(ctx)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, got, test.ShouldEqual, dm)
	test.That(t, src.Close(ctx), test.ShouldBeNil)

	_, err = NewStaticSource(nil).NextDepth(ctx)
	test.That(t, errors.Is(err, ErrSensorUnavailable), test.ShouldBeTrue)
}

func TestResolutionCheckedSource(t *testing.T) {
	ctx := context.Background()

	src := NewResolutionCheckedSource(NewStaticSource(rimage.NewEmptyDepthMap(4, 3)), 4, 3)
	dm, err := src.NextDepth(ctx)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, dm.Width(), test.ShouldEqual, 4)

	src = NewResolutionCheckedSource(NewStaticSource(rimage.NewEmptyDepthMap(4, 3)), 640, 480)
	_, err = src.NextDepth(ctx)
	test.That(t, errors.Is(err, ErrSensorUnavailable), test.ShouldBeTrue)
	test.That(t, err.Error(), test.ShouldContainSubstring, "4x3")

	src = NewResolutionCheckedSource(NewStaticSource(rimage.NewEmptyDepthMap(0, 0)), 0, 0)
	_, err = src.NextDepth(ctx)
	test.That(t, errors.Is(err, ErrSensorUnavailable), test.ShouldBeTrue)

	// unchecked axes
	src = NewResolutionCheckedSource(NewStaticSource(rimage.NewEmptyDepthMap(5, 3)), 0, 3)
	_, err = src.NextDepth(ctx)
	test.That(t, err, test.ShouldBeNil)
}
