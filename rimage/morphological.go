package rimage

import (
	"math"

	"github.com/pkg/errors"
	"gonum.org/v1/gonum/mat"
)

// The square filters below are flat grey-level morphology over a size x size window. Pixels
// outside the image are read by mirroring the image about its edge (d c b a | a b c d | d c b a).
// For even sizes the window cannot be centred: erosion covers [i-size/2, i+size/2-1] and
// dilation covers the mirrored window [i-size/2+1, i+size/2], so a closing of a flat region
// lands back on the original footprint.

// ErodeSquare applies a grey erosion (minimum filter) with a square window.
func ErodeSquare(img *mat.Dense, size int) (*mat.Dense, error) {
	return squareFilter(img, size, math.Min, 0)
}

// DilateSquare applies a grey dilation (maximum filter) with a square window.
func DilateSquare(img *mat.Dense, size int) (*mat.Dense, error) {
	shift := 0
	if size%2 == 0 {
		shift = 1
	}
	return squareFilter(img, size, math.Max, shift)
}

// CloseSquare applies a grey closing, a dilation followed by an erosion, with a square window.
// It fills holes and notches narrower than the window without moving the outer boundary. A
// non-positive size returns an unchanged copy.
func CloseSquare(img *mat.Dense, size int) (*mat.Dense, error) {
	dilated, err := DilateSquare(img, size)
	if err != nil {
		return nil, err
	}
	return ErodeSquare(dilated, size)
}

func squareFilter(img *mat.Dense, size int, pick func(a, b float64) float64, shift int) (*mat.Dense, error) {
	if img == nil || img.IsEmpty() {
		return nil, errors.New("cannot filter an empty image")
	}
	out := mat.DenseCopyOf(img)
	if size <= 1 {
		return out, nil
	}
	h, w := img.Dims()
	start := -size/2 + shift

	// the window is flat so rows and columns can be filtered separately
	rowPass := mat.NewDense(h, w, nil)
	line := make([]float64, w)
	for y := 0; y < h; y++ {
		mat.Row(line, y, img)
		for x := 0; x < w; x++ {
			v := line[reflectIndex(x+start, w)]
			for k := 1; k < size; k++ {
				v = pick(v, line[reflectIndex(x+start+k, w)])
			}
			rowPass.Set(y, x, v)
		}
	}

	col := make([]float64, h)
	for x := 0; x < w; x++ {
		mat.Col(col, x, rowPass)
		for y := 0; y < h; y++ {
			v := col[reflectIndex(y+start, h)]
			for k := 1; k < size; k++ {
				v = pick(v, col[reflectIndex(y+start+k, h)])
			}
			out.Set(y, x, v)
		}
	}
	return out, nil
}

// reflectIndex maps an out of range index back into [0, n) by mirroring about the edges.
func reflectIndex(i, n int) int {
	if n == 1 {
		return 0
	}
	period := 2 * n
	i %= period
	if i < 0 {
		i += period
	}
	if i >= n {
		i = period - 1 - i
	}
	return i
}
