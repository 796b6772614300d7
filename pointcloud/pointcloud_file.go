package pointcloud

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/edaniels/lidario"
	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
	"go.uber.org/multierr"
	"go.viam.com/utils"
)


// WriteToFile writes the cloud to fn in the format matching its extension: .ply (ascii),
// .pcd (ascii) or .las. A failed write may leave a partial file behind.
func WriteToFile(cloud PointCloud, fn string) error {
	switch strings.ToLower(filepath.Ext(fn)) {
	case ".ply":
		return WriteToPLYFile(cloud, fn)
	case ".pcd":
		return writeFile(fn, func(w io.Writer) error {
			return ToPCD(cloud, w)
		})
	case ".las":
		return WriteToLASFile(cloud, fn)
	default:
		return errors.Errorf("do not know how to write file %q", fn)
	}
}

// NewFromFile returns a pointcloud read in from the given file.
func NewFromFile(fn string) (PointCloud, error) {
	switch strings.ToLower(filepath.Ext(fn)) {
	case ".ply":
		//nolint:gosec
		f, err := os.Open(fn)
		if err != nil {
			return nil, err
		}
		defer utils.UncheckedErrorFunc(f.Close)
		return ReadPLY(f)
	case ".las":
		return NewFromLASFile(fn)
	default:
		return nil, errors.Errorf("do not know how to read file %q", fn)
	}
}

func writeFile(fn string, write func(w io.Writer) error) (err error) {
	//nolint:gosec
	f, err := os.Create(fn)
	if err != nil {
		return errors.Wrapf(err, "cannot create %q", fn)
	}
	defer func() {
		err = multierr.Combine(err, errors.Wrapf(f.Close(), "cannot close %q", fn))
	}()

	w := bufio.NewWriter(f)
	if err := write(w); err != nil {
		return errors.Wrapf(err, "cannot write %q", fn)
	}
	return errors.Wrapf(w.Flush(), "cannot write %q", fn)
}

// WriteToPLYFile writes the cloud out to an ascii PLY file.
func WriteToPLYFile(cloud PointCloud, fn string) error {
	return writeFile(fn, func(w io.Writer) error {
		return ToPLY(cloud, w)
	})
}

// ToPLY writes the cloud as an ascii PLY document with one float x, y, z vertex per point.
func ToPLY(cloud PointCloud, out io.Writer) error {
	_, err := fmt.Fprintf(out, "ply\n"+
		"format ascii 1.0\n"+
		"element vertex %d\n"+
		"property float x\n"+
		"property float y\n"+
		"property float z\n"+
		"end_header\n", cloud.Size())
	if err != nil {
		return err
	}

	cloud.Iterate(0, 0, func(p r3.Vector) bool {
		_, err = fmt.Fprintf(out, "%f %f %f\n", p.X, p.Y, p.Z)
		return err == nil
	})
	return err
}

// ReadPLY reads an ascii PLY document holding x, y, z vertices.
func ReadPLY(inRaw io.Reader) (PointCloud, error) {
	in := bufio.NewReader(inRaw)
	vertices := -1
	var properties []string
	lineNum := 0

	for {
		line, err := in.ReadString('\n')
		if err != nil {
			return nil, errors.Wrapf(err, "error reading header line %d", lineNum)
		}
		lineNum++
		line = strings.TrimSpace(line)
		fields := strings.Fields(line)

		switch {
		case lineNum == 1:
			if line != "ply" {
				return nil, errors.Errorf("not a ply file, first line is %q", line)
			}
			continue
		case len(fields) == 0 || fields[0] == "comment" || fields[0] == "obj_info":
			continue
		}

		switch fields[0] {
		case "format":
			if len(fields) != 3 || fields[1] != "ascii" {
				return nil, errors.Errorf("unsupported ply format %q", line)
			}
		case "element":
			if len(fields) != 3 || fields[1] != "vertex" {
				return nil, errors.Errorf("unsupported ply element %q", line)
			}
			vertices, err = strconv.Atoi(fields[2])
			if err != nil || vertices < 0 {
				return nil, errors.Errorf("invalid vertex count %q", fields[2])
			}
		case "property":
			if len(fields) != 3 {
				return nil, errors.Errorf("unsupported ply property %q", line)
			}
			properties = append(properties, fields[2])
		case "end_header":
			if vertices < 0 {
				return nil, errors.New("ply header has no vertex element")
			}
			if strings.Join(properties, " ") != "x y z" {
				return nil, errors.Errorf("unsupported ply properties %v", properties)
			}
			return readPLYVertices(in, vertices)
		default:
			return nil, errors.Errorf("unexpected ply header line %q", line)
		}
	}
}

func readPLYVertices(in *bufio.Reader, vertices int) (PointCloud, error) {
	pc := NewWithPrealloc(vertices)
	for i := 0; i < vertices; i++ {
		line, err := in.ReadString('\n')
		if err != nil && !(errors.Is(err, io.EOF) && line != "") {
			return nil, errors.Wrapf(err, "reading vertex %d", i)
		}
		tokens := strings.Fields(line)
		if len(tokens) != 3 {
			return nil, errors.Errorf("unexpected number of fields in vertex %d", i)
		}
		var point [3]float64
		for j, token := range tokens {
			point[j], err = strconv.ParseFloat(token, 64)
			if err != nil {
				return nil, errors.Errorf("invalid vertex %d field %s: %s", i, token, err)
			}
		}
		if err := pc.Set(NewVector(point[0], point[1], point[2])); err != nil {
			return nil, err
		}
	}
	return pc, nil
}

// ToPCD writes the cloud as an ascii PCD document. Positions are converted from millimetres
// to metres.
func ToPCD(cloud PointCloud, out io.Writer) error {
	_, err := fmt.Fprintf(out, "VERSION .7\n"+
		"FIELDS x y z\n"+
		"SIZE 4 4 4\n"+
		"TYPE F F F\n"+
		"COUNT 1 1 1\n"+
		"WIDTH %d\n"+
		"HEIGHT %d\n"+
		"VIEWPOINT 0 0 0 1 0 0 0\n"+
		"POINTS %d\n"+
		"DATA ascii\n",
		cloud.Size(),
		1,
		cloud.Size())
	if err != nil {
		return err
	}

	cloud.Iterate(0, 0, func(pos r3.Vector) bool {
		_, err = fmt.Fprintf(out, "%f %f %f\n", pos.X/1000., pos.Y/1000., pos.Z/1000.)
		return err == nil
	})
	return err
}

// NewFromLASFile returns a point cloud from reading a LAS file.
func NewFromLASFile(fn string) (PointCloud, error) {
	lf, err := lidario.NewLasFile(fn, "r")
	if err != nil {
		return nil, err
	}
	defer utils.UncheckedErrorFunc(lf.Close)

	pc := NewWithPrealloc(lf.Header.NumberPoints)
	for i := 0; i < lf.Header.NumberPoints; i++ {
		p, err := lf.LasPoint(i)
		if err != nil {
			return nil, err
		}
		data := p.PointData()
		if err := pc.Set(NewVector(data.X, data.Y, data.Z)); err != nil {
			return nil, err
		}
	}
	return pc, nil
}

// WriteToLASFile writes the point cloud out to a LAS file.
func WriteToLASFile(cloud PointCloud, fn string) (err error) {
	lf, err := lidario.NewLasFile(fn, "w")
	if err != nil {
		return errors.Wrapf(err, "cannot create %q", fn)
	}
	defer func() {
		err = multierr.Combine(err, lf.Close())
	}()

	if err = lf.AddHeader(lidario.LasHeader{PointFormatID: 0}); err != nil {
		return err
	}

	var lastErr error
	cloud.Iterate(0, 0, func(pos r3.Vector) bool {
		pr0 := &lidario.PointRecord0{
			X: pos.X,
			Y: pos.Y,
			Z: pos.Z,
			BitField: lidario.PointBitField{
				Value: (1) | (1 << 3) | (0 << 6) | (0 << 7),
			},
			ClassBitField: lidario.ClassificationBitField{
				Value: 0,
			},
			PointSourceID: 1,
		}
		if lerr := lf.AddLasPoint(pr0); lerr != nil {
			lastErr = lerr
			return false
		}
		return true
	})
	return lastErr
}
