package facecube

import (
	"image"

	"github.com/montanaflynn/stats"
	"github.com/pkg/errors"
)

// Region summarizes one connected region of the thresholded frame.
type Region struct {
	Label int
	// Anchor is the region's first cell in row-major order; selecting it picks the region.
	Anchor    image.Point
	Cells     int
	ClosestMM float64
	MeanMM    float64
	MedianMM  float64
	// Nearest is set on the region holding the closest reading of the frame.
	Nearest bool
}

// Regions summarizes every region of the last processed frame, ordered by label.
func (p *Pipeline) Regions() ([]Region, error) {
	if p.labels == nil {
		return nil, nil
	}
	sizes := p.labels.ComponentSizes()
	regions := make([]Region, p.labels.Count())
	distances := make([]stats.Float64Data, p.labels.Count())
	for i := range regions {
		regions[i].Label = i + 1
		distances[i] = make(stats.Float64Data, 0, sizes[i+1])
	}

	for y := 0; y < p.labels.Height(); y++ {
		for x := 0; x < p.labels.Width(); x++ {
			l := p.labels.At(x, y)
			if l == 0 {
				continue
			}
			if len(distances[l-1]) == 0 {
				regions[l-1].Anchor = image.Pt(x, y)
			}
			distances[l-1] = append(distances[l-1], p.masked.Get(x, y))
		}
	}

	nearest := p.labels.NearestLabel(p.masked)
	for i := range regions {
		d := distances[i]
		var err error
		if regions[i].ClosestMM, err = d.Min(); err != nil {
			return nil, errors.Wrapf(err, "region %d", i+1)
		}
		if regions[i].MeanMM, err = d.Mean(); err != nil {
			return nil, errors.Wrapf(err, "region %d", i+1)
		}
		if regions[i].MedianMM, err = d.Median(); err != nil {
			return nil, errors.Wrapf(err, "region %d", i+1)
		}
		regions[i].Cells = len(d)
		regions[i].Nearest = regions[i].Label == nearest
	}
	return regions, nil
}
