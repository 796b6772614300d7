// Package rimage holds raw and metric depth grids and the image processing done on them.
package rimage

import (
	"bufio"
	"compress/gzip"
	"encoding/binary"
	"fmt"
	"image"
	"io"
	"os"
	"path/filepath"

	"github.com/pkg/errors"
	"go.uber.org/multierr"
	"go.viam.com/utils"
)

// maxDimension bounds the width and height accepted when reading a depth map.
const maxDimension = 100000

// DepthMap is a grid of raw sensor depth samples. Samples are addressed by (x, y) where x is
// the column and y is the row. A DepthMap handed out by a source must not be mutated; use
// Clone to get a private copy.
type DepthMap struct {
	width  int
	height int

	data []int
}

// NewEmptyDepthMap returns a zero filled depth map of the given size.
func NewEmptyDepthMap(width, height int) *DepthMap {
	if width < 0 || height < 0 {
		width, height = 0, 0
	}
	return &DepthMap{
		width:  width,
		height: height,
		data:   make([]int, width*height),
	}
}

// NewDepthMapFromRows builds a depth map from row-major samples. Every row must have the
// same length.
func NewDepthMapFromRows(rows [][]int) (*DepthMap, error) {
	if len(rows) == 0 {
		return NewEmptyDepthMap(0, 0), nil
	}
	dm := NewEmptyDepthMap(len(rows[0]), len(rows))
	for y, row := range rows {
		if len(row) != dm.width {
			return nil, errors.Errorf("row %d has %d samples, expected %d", y, len(row), dm.width)
		}
		copy(dm.data[y*dm.width:(y+1)*dm.width], row)
	}
	return dm, nil
}

// HasData returns whether the map holds at least one sample.
func (dm *DepthMap) HasData() bool {
	return dm != nil && dm.width > 0 && dm.height > 0
}

// Width returns the number of columns.
func (dm *DepthMap) Width() int {
	return dm.width
}

// Height returns the number of rows.
func (dm *DepthMap) Height() int {
	return dm.height
}

// Bounds returns the rectangle covered by the map.
func (dm *DepthMap) Bounds() image.Rectangle {
	return image.Rect(0, 0, dm.width, dm.height)
}

// GetDepth returns the sample at column x, row y.
func (dm *DepthMap) GetDepth(x, y int) int {
	return dm.data[y*dm.width+x]
}

// Set stores a sample at column x, row y.
func (dm *DepthMap) Set(x, y, val int) {
	dm.data[y*dm.width+x] = val
}

// Clone returns a deep copy.
func (dm *DepthMap) Clone() *DepthMap {
	data := make([]int, len(dm.data))
	copy(data, dm.data)
	return &DepthMap{width: dm.width, height: dm.height, data: data}
}

// MinMax returns the smallest and largest non-zero samples. Both are zero when the map has no
// non-zero sample.
func (dm *DepthMap) MinMax() (int, int) {
	min, max := 0, 0
	for _, z := range dm.data {
		if z == 0 {
			continue
		}
		if min == 0 || z < min {
			min = z
		}
		if z > max {
			max = z
		}
	}
	return min, max
}

func readNext(r io.Reader) (int64, error) {
	data := make([]byte, 8)
	x, err := io.ReadFull(r, data)
	if x == 8 {
		return int64(binary.LittleEndian.Uint64(data)), nil
	}
	return 0, fmt.Errorf("got %d bytes, and %w", x, err)
}

// ParseDepthMap reads a depth map file. Files ending in .gz are decompressed.
func ParseDepthMap(fn string) (dm *DepthMap, err error) {
	//nolint:gosec
	f, err := os.Open(fn)
	if err != nil {
		return nil, err
	}
	defer utils.UncheckedErrorFunc(f.Close)

	var r io.Reader = f
	if filepath.Ext(fn) == ".gz" {
		var gr *gzip.Reader
		gr, err = gzip.NewReader(f)
		if err != nil {
			return nil, err
		}
		defer func() {
			err = multierr.Combine(err, gr.Close())
		}()
		r = gr
	}

	return ReadDepthMap(bufio.NewReader(r))
}

// ReadDepthMap reads a depth map from the binary layout written by WriteRaw: width and height
// as little endian int64 followed by every sample, column by column.
func ReadDepthMap(r io.Reader) (*DepthMap, error) {
	rawWidth, err := readNext(r)
	if err != nil {
		return nil, err
	}
	rawHeight, err := readNext(r)
	if err != nil {
		return nil, err
	}

	if rawWidth <= 0 || rawWidth >= maxDimension || rawHeight <= 0 || rawHeight >= maxDimension {
		return nil, errors.Errorf("bad width or height for depth map %v %v", rawWidth, rawHeight)
	}

	dm := NewEmptyDepthMap(int(rawWidth), int(rawHeight))
	for x := 0; x < dm.width; x++ {
		for y := 0; y < dm.height; y++ {
			temp, err := readNext(r)
			if err != nil {
				return nil, err
			}
			dm.Set(x, y, int(temp))
		}
	}

	return dm, nil
}

// WriteToFile writes the depth map to fn, gzip compressing it when fn ends in .gz.
func (dm *DepthMap) WriteToFile(fn string) (err error) {
	//nolint:gosec
	f, err := os.Create(fn)
	if err != nil {
		return err
	}
	defer func() {
		err = multierr.Combine(err, f.Close())
	}()

	if filepath.Ext(fn) == ".gz" {
		gout := gzip.NewWriter(f)
		if err := dm.WriteRaw(gout); err != nil {
			return multierr.Combine(err, gout.Close())
		}
		if err := gout.Close(); err != nil {
			return err
		}
		return f.Sync()
	}

	if err := dm.WriteRaw(f); err != nil {
		return err
	}
	return f.Sync()
}

// WriteRaw writes the binary depth map layout to out.
func (dm *DepthMap) WriteRaw(out io.Writer) error {
	w := bufio.NewWriter(out)
	buf := make([]byte, 8)

	binary.LittleEndian.PutUint64(buf, uint64(dm.width))
	if _, err := w.Write(buf); err != nil {
		return err
	}
	binary.LittleEndian.PutUint64(buf, uint64(dm.height))
	if _, err := w.Write(buf); err != nil {
		return err
	}

	for x := 0; x < dm.width; x++ {
		for y := 0; y < dm.height; y++ {
			binary.LittleEndian.PutUint64(buf, uint64(dm.GetDepth(x, y)))
			if _, err := w.Write(buf); err != nil {
				return err
			}
		}
	}

	return w.Flush()
}
