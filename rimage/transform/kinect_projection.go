// Package transform projects depth grids into 3D.
package transform

import (
	"github.com/golang/geo/r3"

	"go.viam.com/facecube/pointcloud"
	"go.viam.com/facecube/rimage"
)

// Constants of the fixed Kinect projection, in millimetres.
// from http://openkinect.org/wiki/Imaging_Information
const (
	KinectMinDistance = -100.0
	KinectScaleFactor = 0.0021
)

// KinectProjection maps grid cells with a distance to 3D points using a fixed, pre-calibrated
// linear model instead of camera intrinsics. Rows map to x and columns to y, both centred on
// the grid and scaled by (z + MinDistance). The distance itself is kept as z.
type KinectProjection struct {
	MinDistance float64 `json:"min_distance"`
	ScaleFactor float64 `json:"scale_factor"`
}

// NewKinectProjection returns the projection with the stock Kinect constants.
func NewKinectProjection() KinectProjection {
	return KinectProjection{MinDistance: KinectMinDistance, ScaleFactor: KinectScaleFactor}
}

// CellTo3DPoint projects the cell at (row, col) of a rows x cols grid at distance z.
func (kp KinectProjection) CellTo3DPoint(row, col, rows, cols int, z float64) r3.Vector {
	ratio := float64(rows) / float64(cols)
	adjusted := z + kp.MinDistance
	return r3.Vector{
		X: float64(row-rows/2) * adjusted * kp.ScaleFactor * ratio,
		Y: float64(col-cols/2) * adjusted * kp.ScaleFactor,
		Z: z,
	}
}

// Project returns one point per cell with a reading, row by row. Cells at zero are skipped.
func (kp KinectProjection) Project(mm *rimage.MetricMap) (pointcloud.PointCloud, error) {
	if !mm.HasData() {
		return pointcloud.New(), nil
	}
	rows, cols := mm.Height(), mm.Width()
	pc := pointcloud.NewWithPrealloc(mm.ValidCount())
	for i := 0; i < rows; i++ {
		for j := 0; j < cols; j++ {
			z := mm.Get(j, i)
			if z == 0 {
				continue
			}
			if err := pc.Set(kp.CellTo3DPoint(i, j, rows, cols, z)); err != nil {
				return nil, err
			}
		}
	}
	return pc, nil
}

// BackProjection returns the points closing the back of the surface. It is currently an
// unmodified copy of the front projection, not a reconstruction of the hidden side.
func (kp KinectProjection) BackProjection(mm *rimage.MetricMap) (pointcloud.PointCloud, error) {
	return kp.Project(mm)
}

// SurfaceCloud returns the front projection followed, when withBack is set, by the back
// projection.
func (kp KinectProjection) SurfaceCloud(mm *rimage.MetricMap, withBack bool) (pointcloud.PointCloud, error) {
	front, err := kp.Project(mm)
	if err != nil || !withBack {
		return front, err
	}
	back, err := kp.BackProjection(mm)
	if err != nil {
		return nil, err
	}
	if err := pointcloud.AppendCloud(front, back); err != nil {
		return nil, err
	}
	return front, nil
}
