// Package depthsource provides the depth frames the facecube pipeline consumes.
package depthsource

import (
	"context"
	"sync"

	"github.com/pkg/errors"

	"go.viam.com/facecube/logging"
	"go.viam.com/facecube/rimage"
)

// ErrSensorUnavailable is returned (wrapped) when a frame cannot be captured or is malformed.
var ErrSensorUnavailable = errors.New("depth sensor unavailable")

// Source delivers raw depth frames on demand. Frames returned must not be modified by the
// caller.
type Source interface {
	NextDepth(ctx context.Context) (*rimage.DepthMap, error)
	Close(ctx context.Context) error
}

// NewFileSource returns a source that replays depth map files in order, starting over after
// the last one. Each file is read when its frame is requested.
func NewFileSource(files []string, logger logging.Logger) (Source, error) {
	if len(files) == 0 {
		return nil, errors.New("file source needs at least one depth map file")
	}
	return &fileSource{files: files, logger: logger}, nil
}

type fileSource struct {
	mu     sync.Mutex
	files  []string
	next   int
	closed bool
	logger logging.Logger
}

func (fs *fileSource) NextDepth(ctx context.Context) (*rimage.DepthMap, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	fs.mu.Lock()
	defer fs.mu.Unlock()
	if fs.closed {
		return nil, errors.Wrap(ErrSensorUnavailable, "source is closed")
	}

	fn := fs.files[fs.next]
	fs.next = (fs.next + 1) % len(fs.files)

	dm, err := rimage.ParseDepthMap(fn)
	if err != nil {
		return nil, errors.Wrapf(ErrSensorUnavailable, "cannot read %q: %v", fn, err)
	}
	fs.logger.Debugw("read depth frame", "file", fn, "width", dm.Width(), "height", dm.Height())
	return dm, nil
}

func (fs *fileSource) Close(ctx context.Context) error {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	fs.closed = true
	return nil
}

// NewStaticSource returns a source that hands out the same frame every time.
func NewStaticSource(dm *rimage.DepthMap) Source {
	return &staticSource{dm: dm}
}

type staticSource struct {
	dm *rimage.DepthMap
}

func (ss *staticSource) NextDepth(ctx context.Context) (*rimage.DepthMap, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if ss.dm == nil {
		return nil, errors.Wrap(ErrSensorUnavailable, "no frame")
	}
	return ss.dm, nil
}

func (ss *staticSource) Close(ctx context.Context) error {
	return nil
}

// NewResolutionCheckedSource wraps src and rejects frames whose size differs from
// width x height. A zero width or height disables the check on that axis.
func NewResolutionCheckedSource(src Source, width, height int) Source {
	return &checkedSource{Source: src, width: width, height: height}
}

type checkedSource struct {
	Source
	width, height int
}

func (cs *checkedSource) NextDepth(ctx context.Context) (*rimage.DepthMap, error) {
	dm, err := cs.Source.NextDepth(ctx)
	if err != nil {
		return nil, err
	}
	if !dm.HasData() {
		return nil, errors.Wrap(ErrSensorUnavailable, "empty frame")
	}
	if (cs.width > 0 && dm.Width() != cs.width) || (cs.height > 0 && dm.Height() != cs.height) {
		return nil, errors.Wrapf(ErrSensorUnavailable, "frame is %dx%d, expected %dx%d",
			dm.Width(), dm.Height(), cs.width, cs.height)
	}
	return dm, nil
}
