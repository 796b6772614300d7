package rimage

import (
	"io"
	"math"
	"sort"

	"github.com/aybabtme/uniplot/histogram"
	"github.com/pkg/errors"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
)

// Histogram counts the folded raw samples of dm into bins of equal width spanning the smallest
// to the largest sample. It returns bins counts and bins+1 edges.
func Histogram(dm *DepthMap, model DepthModel, bins int) ([]float64, []float64, error) {
	if !dm.HasData() {
		return nil, nil, errors.New("depth map is empty")
	}
	if bins <= 0 {
		return nil, nil, errors.Errorf("bins must be positive, got %d", bins)
	}

	values := foldedSamples(dm, model)
	sort.Float64s(values)
	lo, hi := values[0], values[len(values)-1]
	if lo == hi {
		lo -= 0.5
		hi += 0.5
	}

	edges := make([]float64, bins+1)
	floats.Span(edges, lo, hi)
	edges[bins] = hi
	// stat.Histogram needs every value strictly below the last divider
	dividers := make([]float64, len(edges))
	copy(dividers, edges)
	dividers[bins] = math.Nextafter(hi, math.Inf(1))

	counts := stat.Histogram(nil, dividers, values, nil)
	return counts, edges, nil
}

// WriteHistogramPlot renders the folded sample histogram of dm to fn (png, svg or pdf by
// extension).
func WriteHistogramPlot(fn string, dm *DepthMap, model DepthModel, bins int) error {
	if !dm.HasData() {
		return errors.New("depth map is empty")
	}
	h, err := plotter.NewHist(plotter.Values(foldedSamples(dm, model)), bins)
	if err != nil {
		return err
	}

	p := plot.New()
	p.Title.Text = "raw depth"
	p.X.Label.Text = "raw sample"
	p.Y.Label.Text = "count"
	p.Add(h)
	return errors.Wrapf(p.Save(6*vg.Inch, 4*vg.Inch, fn), "cannot save histogram to %q", fn)
}

// WriteTextHistogram prints the folded sample histogram of dm as text bars at most width
// characters wide.
func WriteTextHistogram(w io.Writer, dm *DepthMap, model DepthModel, bins, width int) error {
	if !dm.HasData() {
		return errors.New("depth map is empty")
	}
	if bins <= 0 || width <= 0 {
		return errors.Errorf("bins and width must be positive, got %d and %d", bins, width)
	}
	hist := histogram.Hist(bins, foldedSamples(dm, model))
	return histogram.Fprint(w, hist, histogram.Linear(width))
}

func foldedSamples(dm *DepthMap, model DepthModel) []float64 {
	values := make([]float64, 0, len(dm.data))
	for _, raw := range dm.data {
		values = append(values, float64(model.Fold(raw)))
	}
	return values
}
