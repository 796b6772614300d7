// Package segmentation implements object segmentation algorithms.
package segmentation

import (
	"image"
	"math"

	"github.com/pkg/errors"

	"go.viam.com/facecube/logging"
	"go.viam.com/facecube/rimage"
)

// ErrDegenerateFrame is returned when a frame has no usable depth reading to threshold.
var ErrDegenerateFrame = errors.New("frame has no valid depth readings")

// Threshold is the distance window that keeps the nearest object. Everything with a reading no
// farther than FarthestMM passes. The depth model is monotonic, so comparing distances against
// FarthestMM keeps the same cells as comparing raw samples against FarthestRaw.
type Threshold struct {
	ClosestMM   float64
	MarginCM    float64
	FarthestMM  float64
	FarthestRaw float64
}

// Admits returns whether a distance passes the threshold.
func (th Threshold) Admits(mm float64) bool {
	return mm > 0 && mm <= th.FarthestMM
}

// Apply returns a copy of mm with every cell outside the threshold zeroed.
func (th Threshold) Apply(mm *rimage.MetricMap) *rimage.MetricMap {
	return mm.Mask(func(x, y int, v float64) bool {
		return th.Admits(v)
	})
}

// DepthSegmenter isolates the nearest object in a metric depth frame.
type DepthSegmenter struct {
	model  rimage.DepthModel
	logger logging.Logger
}

// NewDepthSegmenter returns a segmenter that uses model to express thresholds in raw units.
func NewDepthSegmenter(model rimage.DepthModel, logger logging.Logger) *DepthSegmenter {
	return &DepthSegmenter{model: model, logger: logger}
}

// Threshold keeps every reading within marginCM centimetres of the closest reading and labels
// the surviving cells into 4-connected regions. A frame without readings returns
// ErrDegenerateFrame. A negative margin is treated as zero.
func (ds *DepthSegmenter) Threshold(mm *rimage.MetricMap, marginCM float64) (*LabelMap, Threshold, error) {
	closest, ok := mm.Closest()
	if !ok {
		return nil, Threshold{}, ErrDegenerateFrame
	}
	if marginCM < 0 || math.IsNaN(marginCM) {
		marginCM = 0
	}

	farthest := closest + marginCM*10
	th := Threshold{
		ClosestMM:   closest,
		MarginCM:    marginCM,
		FarthestMM:  farthest,
		FarthestRaw: ds.model.MetricToRaw(farthest),
	}
	labels := LabelConnected(mm.Width(), mm.Height(), func(x, y int) bool {
		return th.Admits(mm.Get(x, y))
	})
	ds.logger.Debugw("thresholded frame",
		"closest_mm", th.ClosestMM, "farthest_mm", th.FarthestMM, "farthest_raw", th.FarthestRaw,
		"regions", labels.Count())
	return labels, th, nil
}

// Select picks the region under a display point. Display points are (x, y), which address
// row y and column x of the grid. ok is false when the point is outside the grid or on
// background; the returned key is the grid cell to re-resolve the selection against later
// frames.
func (ds *DepthSegmenter) Select(labels *LabelMap, mm *rimage.MetricMap, pt image.Point) (*rimage.MetricMap, image.Point, bool) {
	if labels == nil || !labels.In(pt.X, pt.Y) {
		ds.logger.Debugw("selection outside frame", "point", pt)
		return nil, image.Point{}, false
	}
	label := labels.At(pt.X, pt.Y)
	if label == 0 {
		ds.logger.Debugw("selection on background", "point", pt)
		return nil, image.Point{}, false
	}
	return SegmentCurrent(labels, mm, label), pt, true
}

// SegmentAt resolves a stored selection key against freshly computed labels and returns the
// region now covering it, or nil if the key is background or out of the grid.
func SegmentAt(labels *LabelMap, mm *rimage.MetricMap, key image.Point) *rimage.MetricMap {
	if labels == nil {
		return nil
	}
	label := labels.At(key.X, key.Y)
	if label == 0 {
		return nil
	}
	return SegmentCurrent(labels, mm, label)
}

// SegmentCurrent masks mm to the cells carrying label. Label ids are only meaningful for the
// LabelMap they came from; applying an id from an earlier frame may pick a different region.
func SegmentCurrent(labels *LabelMap, mm *rimage.MetricMap, label int) *rimage.MetricMap {
	if labels == nil || label <= 0 || label > labels.Count() || !mm.HasData() {
		return nil
	}
	if mm.Width() != labels.Width() || mm.Height() != labels.Height() {
		return nil
	}
	return mm.Mask(func(x, y int, v float64) bool {
		return labels.At(x, y) == label
	})
}
