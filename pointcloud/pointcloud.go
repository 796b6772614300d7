// Package pointcloud defines an ordered point cloud and the file formats it is exported to.
//
// Points keep the order they were set in and duplicates are allowed, so a cloud built from a
// depth frame always iterates row by row.
package pointcloud

import (
	"math"

	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
)

// Values outside this range lose integer precision as float64 and are rejected by Set.
const (
	maxPreciseFloat64 = float64(1 << 53)
	minPreciseFloat64 = -maxPreciseFloat64
)

// NewVector convenience method for creating a vector.
func NewVector(x, y, z float64) r3.Vector {
	return r3.Vector{X: x, Y: y, Z: z}
}

// MetaData is data about what's stored in the point cloud.
type MetaData struct {
	MinX, MaxX float64
	MinY, MaxY float64
	MinZ, MaxZ float64
}

// NewMetaData returns meta data whose bounds are ready to be merged into.
func NewMetaData() MetaData {
	return MetaData{
		MinX: math.MaxFloat64,
		MinY: math.MaxFloat64,
		MinZ: math.MaxFloat64,
		MaxX: -math.MaxFloat64,
		MaxY: -math.MaxFloat64,
		MaxZ: -math.MaxFloat64,
	}
}

// Merge grows the bounds to include v.
func (meta *MetaData) Merge(v r3.Vector) {
	meta.MinX = math.Min(meta.MinX, v.X)
	meta.MaxX = math.Max(meta.MaxX, v.X)
	meta.MinY = math.Min(meta.MinY, v.Y)
	meta.MaxY = math.Max(meta.MaxY, v.Y)
	meta.MinZ = math.Min(meta.MinZ, v.Z)
	meta.MaxZ = math.Max(meta.MaxZ, v.Z)
}

// PointCloud is an ordered sequence of points.
type PointCloud interface {
	// Size returns the number of points in the cloud.
	Size() int

	// MetaData returns the bounds of the cloud.
	MetaData() MetaData

	// Set appends the given point to the cloud.
	Set(p r3.Vector) error

	// Iterate calls fn for every point in insertion order. If fn returns false, iteration
	// stops. numBatches lets you divide up the work, 0 means don't divide; myBatch is used iff
	// numBatches > 0 and picks the points whose index modulo numBatches equals it.
	Iterate(numBatches, myBatch int, fn func(p r3.Vector) bool)
}

type orderedPointCloud struct {
	points []r3.Vector
	meta   MetaData
}

// New returns an empty PointCloud.
func New() PointCloud {
	return NewWithPrealloc(0)
}

// NewWithPrealloc returns an empty PointCloud with room for size points.
func NewWithPrealloc(size int) PointCloud {
	return &orderedPointCloud{
		points: make([]r3.Vector, 0, size),
		meta:   NewMetaData(),
	}
}

func (cloud *orderedPointCloud) Size() int {
	return len(cloud.points)
}

func (cloud *orderedPointCloud) MetaData() MetaData {
	return cloud.meta
}

// Set validates that the point can be precisely stored before appending it.
func (cloud *orderedPointCloud) Set(p r3.Vector) error {
	if err := checkPrecise("x", p.X); err != nil {
		return err
	}
	if err := checkPrecise("y", p.Y); err != nil {
		return err
	}
	if err := checkPrecise("z", p.Z); err != nil {
		return err
	}
	cloud.points = append(cloud.points, p)
	cloud.meta.Merge(p)
	return nil
}

func (cloud *orderedPointCloud) Iterate(numBatches, myBatch int, fn func(p r3.Vector) bool) {
	for i, p := range cloud.points {
		if numBatches > 0 && i%numBatches != myBatch {
			continue
		}
		if !fn(p) {
			return
		}
	}
}

func checkPrecise(component string, v float64) error {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return errors.Errorf("%s component (%v) is not finite", component, v)
	}
	if v < minPreciseFloat64 || v > maxPreciseFloat64 {
		return errors.Errorf("%s component (%v) is out of range [%v,%v]", component, v, minPreciseFloat64, maxPreciseFloat64)
	}
	return nil
}

// Points returns the points of cloud in iteration order.
func Points(cloud PointCloud) []r3.Vector {
	out := make([]r3.Vector, 0, cloud.Size())
	cloud.Iterate(0, 0, func(p r3.Vector) bool {
		out = append(out, p)
		return true
	})
	return out
}

// AppendCloud adds every point of src to the end of dst.
func AppendCloud(dst, src PointCloud) error {
	var err error
	src.Iterate(0, 0, func(p r3.Vector) bool {
		err = dst.Set(p)
		return err == nil
	})
	return err
}
