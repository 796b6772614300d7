package segmentation

import (
	"image"

	"go.viam.com/facecube/rimage"
)

// LabelMap assigns each cell of a grid a region id. 0 is background; regions are numbered from
// 1 in the row-major order of their first cell.
type LabelMap struct {
	width  int
	height int
	count  int
	labels []int
}

// LabelConnected labels the 4-connected regions (up, down, left, right neighbours only) of the
// cells for which in returns true.
func LabelConnected(width, height int, in func(x, y int) bool) *LabelMap {
	lm := &LabelMap{width: width, height: height, labels: make([]int, width*height)}
	seen := make([]bool, width*height)
	bounds := image.Rect(0, 0, width, height)
	queue := []image.Point{}

	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			indx := y*width + x
			if seen[indx] {
				continue
			}
			seen[indx] = true
			if !in(x, y) {
				continue
			}
			lm.count++
			queue = append(queue[:0], image.Point{x, y})
			for len(queue) != 0 {
				pt := queue[0]
				queue = queue[1:]
				lm.labels[pt.Y*width+pt.X] = lm.count
				fourPoints := []image.Point{{pt.X, pt.Y - 1}, {pt.X, pt.Y + 1}, {pt.X - 1, pt.Y}, {pt.X + 1, pt.Y}}
				for _, p := range fourPoints {
					if !p.In(bounds) {
						continue
					}
					nIndx := p.Y*width + p.X
					if seen[nIndx] {
						continue
					}
					seen[nIndx] = true
					if in(p.X, p.Y) {
						queue = append(queue, p)
					}
				}
			}
		}
	}
	return lm
}

// Width returns the number of columns.
func (lm *LabelMap) Width() int {
	return lm.width
}

// Height returns the number of rows.
func (lm *LabelMap) Height() int {
	return lm.height
}

// Count returns the number of regions.
func (lm *LabelMap) Count() int {
	return lm.count
}

// In reports whether column x, row y lies inside the map.
func (lm *LabelMap) In(x, y int) bool {
	return x >= 0 && y >= 0 && x < lm.width && y < lm.height
}

// At returns the label at column x, row y, or 0 when outside the map.
func (lm *LabelMap) At(x, y int) int {
	if !lm.In(x, y) {
		return 0
	}
	return lm.labels[y*lm.width+x]
}

// ComponentSizes returns the number of cells per label, indexed by label. Index 0 counts the
// background.
func (lm *LabelMap) ComponentSizes() []int {
	sizes := make([]int, lm.count+1)
	for _, l := range lm.labels {
		sizes[l]++
	}
	return sizes
}

// NearestLabel returns the label of the labeled cell with the smallest distance in mm, or 0
// if no labeled cell has a reading. Ties go to the first cell in row-major order.
func (lm *LabelMap) NearestLabel(mm *rimage.MetricMap) int {
	if !mm.HasData() || mm.Width() != lm.width || mm.Height() != lm.height {
		return 0
	}
	best, bestLabel := 0.0, 0
	for y := 0; y < lm.height; y++ {
		for x := 0; x < lm.width; x++ {
			l := lm.labels[y*lm.width+x]
			v := mm.Get(x, y)
			if l == 0 || v <= 0 {
				continue
			}
			if bestLabel == 0 || v < best {
				best, bestLabel = v, l
			}
		}
	}
	return bestLabel
}
