package rimage

import (
	"bufio"
	"image"
	"os"
	"path/filepath"
	"strings"

	"github.com/disintegration/imaging"
	"github.com/lmittmann/ppm"
	"github.com/lucasb-eyer/go-colorful"
	"go.uber.org/multierr"
)

// ToPrettyPicture colours each reading by distance, warm for near and cool for far. Cells
// without a reading stay black. hardMin and hardMax clamp the colour range when positive.
func (mm *MetricMap) ToPrettyPicture(hardMin, hardMax float64) image.Image {
	img := image.NewRGBA(image.Rect(0, 0, mm.Width(), mm.Height()))
	if !mm.HasData() {
		return img
	}

	min, max := mm.MinMax()
	if hardMin > 0 && min < hardMin {
		min = hardMin
	}
	if hardMax > 0 && max > hardMax {
		max = hardMax
	}
	span := max - min

	for y := 0; y < mm.Height(); y++ {
		for x := 0; x < mm.Width(); x++ {
			z := mm.Get(x, y)
			if z == 0 {
				continue
			}
			if z < min {
				z = min
			}
			if z > max {
				z = max
			}

			ratio := 0.0
			if span > 0 {
				ratio = (z - min) / span
			}
			hue := 30 + (200.0 * ratio)
			img.Set(x, y, colorful.Hsv(hue, 1.0, 1.0))
		}
	}
	return img
}

// WriteImageToFile writes img to fn. The format is picked from the extension; .ppm is written
// as a binary portable pixmap.
func WriteImageToFile(fn string, img image.Image) (err error) {
	if strings.ToLower(filepath.Ext(fn)) != ".ppm" {
		return imaging.Save(img, fn)
	}
	//nolint:gosec
	f, err := os.Create(fn)
	if err != nil {
		return err
	}
	defer func() {
		err = multierr.Combine(err, f.Close())
	}()
	w := bufio.NewWriter(f)
	if err := ppm.Encode(w, img); err != nil {
		return err
	}
	return w.Flush()
}
