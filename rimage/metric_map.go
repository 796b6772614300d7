package rimage

import (
	"math"

	"gonum.org/v1/gonum/mat"
)

// MetricMap holds distances in millimetres laid out like the DepthMap it came from. A zero
// cell has no reading.
type MetricMap struct {
	width  int
	height int

	// nil when the map is empty since gonum refuses zero sized matrices.
	data *mat.Dense
}

// NewEmptyMetricMap returns a zero filled metric map.
func NewEmptyMetricMap(width, height int) *MetricMap {
	if width <= 0 || height <= 0 {
		return &MetricMap{}
	}
	return &MetricMap{width: width, height: height, data: mat.NewDense(height, width, nil)}
}

// NewMetricMapFromDense wraps a matrix whose rows are image rows. The matrix is not copied.
func NewMetricMapFromDense(m *mat.Dense) *MetricMap {
	if m == nil || m.IsEmpty() {
		return &MetricMap{}
	}
	rows, cols := m.Dims()
	return &MetricMap{width: cols, height: rows, data: m}
}

// HasData returns whether the map is present and has at least one cell.
func (mm *MetricMap) HasData() bool {
	return mm != nil && mm.data != nil
}

// Width returns the number of columns.
func (mm *MetricMap) Width() int {
	return mm.width
}

// Height returns the number of rows.
func (mm *MetricMap) Height() int {
	return mm.height
}

// Get returns the distance at column x, row y.
func (mm *MetricMap) Get(x, y int) float64 {
	return mm.data.At(y, x)
}

// Set stores a distance at column x, row y.
func (mm *MetricMap) Set(x, y int, v float64) {
	mm.data.Set(y, x, v)
}

// Clone returns a deep copy.
func (mm *MetricMap) Clone() *MetricMap {
	if !mm.HasData() {
		return &MetricMap{}
	}
	return &MetricMap{width: mm.width, height: mm.height, data: mat.DenseCopyOf(mm.data)}
}

// Closest returns the smallest non-zero distance. ok is false when no cell has a reading.
func (mm *MetricMap) Closest() (closest float64, ok bool) {
	if !mm.HasData() {
		return 0, false
	}
	closest = math.Inf(1)
	for y := 0; y < mm.height; y++ {
		for x := 0; x < mm.width; x++ {
			v := mm.data.At(y, x)
			if v > 0 && v < closest {
				closest = v
				ok = true
			}
		}
	}
	if !ok {
		return 0, false
	}
	return closest, true
}

// MinMax returns the smallest and largest non-zero distances, both zero for an empty map.
func (mm *MetricMap) MinMax() (float64, float64) {
	min, ok := mm.Closest()
	if !ok {
		return 0, 0
	}
	max := mat.Max(mm.data)
	return min, max
}

// ValidCount returns the number of cells with a reading.
func (mm *MetricMap) ValidCount() int {
	if !mm.HasData() {
		return 0
	}
	n := 0
	for y := 0; y < mm.height; y++ {
		for x := 0; x < mm.width; x++ {
			if mm.data.At(y, x) > 0 {
				n++
			}
		}
	}
	return n
}

// Mask returns a copy that keeps only the cells for which keep returns true.
func (mm *MetricMap) Mask(keep func(x, y int, v float64) bool) *MetricMap {
	out := NewEmptyMetricMap(mm.width, mm.height)
	if !out.HasData() {
		return out
	}
	for y := 0; y < mm.height; y++ {
		for x := 0; x < mm.width; x++ {
			v := mm.data.At(y, x)
			if v != 0 && keep(x, y, v) {
				out.data.Set(y, x, v)
			}
		}
	}
	return out
}

// HoleFill fills small gaps with a grey closing over a size x size window. A nil map is
// returned unchanged and a non-positive size leaves the values untouched.
func (mm *MetricMap) HoleFill(size int) (*MetricMap, error) {
	if !mm.HasData() || size <= 0 {
		return mm, nil
	}
	closed, err := CloseSquare(mm.data, size)
	if err != nil {
		return nil, err
	}
	return NewMetricMapFromDense(closed), nil
}
