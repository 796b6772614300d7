package rimage

import (
	"math"

	"github.com/pkg/errors"
)

// Kinect constants for the ROS depth approximation, distances in millimetres.
const (
	KinectK1              = 0.00307
	KinectK2              = 3.33
	KinectSaturationFloor = 544
	KinectRawRange        = 2047
)

// DepthModel converts raw sensor samples to metric distance using the hyperbolic model
// distance = 1000 / (-K1*raw + K2). Samples at or below SaturationFloor are unreliable (the
// sensor reads too close) and are folded up by RawRange before conversion so they land in the
// far, unmeasurable part of the curve.
type DepthModel struct {
	K1              float64 `json:"k1"`
	K2              float64 `json:"k2"`
	SaturationFloor int     `json:"saturation_floor"`
	RawRange        int     `json:"raw_range"`
}

// NewKinectDepthModel returns the model for the first generation Kinect.
func NewKinectDepthModel() DepthModel {
	return DepthModel{
		K1:              KinectK1,
		K2:              KinectK2,
		SaturationFloor: KinectSaturationFloor,
		RawRange:        KinectRawRange,
	}
}

// Validate ensures the model describes a usable curve.
func (m DepthModel) Validate() error {
	if m.K1 <= 0 || math.IsNaN(m.K1) || math.IsInf(m.K1, 0) {
		return errors.Errorf("k1 must be positive and finite, got %v", m.K1)
	}
	if m.K2 <= 0 || math.IsNaN(m.K2) || math.IsInf(m.K2, 0) {
		return errors.Errorf("k2 must be positive and finite, got %v", m.K2)
	}
	if m.SaturationFloor < 0 {
		return errors.Errorf("saturation_floor cannot be negative, got %d", m.SaturationFloor)
	}
	if m.RawRange <= 0 {
		return errors.Errorf("raw_range must be positive, got %d", m.RawRange)
	}
	if maxRaw := m.MaxValidRaw(); m.SaturationFloor >= maxRaw {
		return errors.Errorf("saturation_floor %d leaves no valid sample, the curve ends at %d", m.SaturationFloor, maxRaw)
	}
	return nil
}

// Fold remaps saturated samples. Zero is left alone since it means "no data".
func (m DepthModel) Fold(raw int) int {
	if raw != 0 && raw <= m.SaturationFloor {
		return raw + m.RawRange
	}
	return raw
}

// RawToMetric returns the distance in millimetres for a raw sample, or 0 when the sample
// carries no usable reading.
func (m DepthModel) RawToMetric(raw int) float64 {
	if raw == 0 {
		return 0
	}
	denom := -m.K1*float64(m.Fold(raw)) + m.K2
	if denom <= 0 {
		return 0
	}
	mm := 1000 / denom
	if mm <= 0 || math.IsNaN(mm) || math.IsInf(mm, 0) {
		return 0
	}
	return mm
}

// MetricToRaw is the inverse of RawToMetric for unfolded samples. Non-positive or non-finite
// distances return 0.
func (m DepthModel) MetricToRaw(mm float64) float64 {
	if mm <= 0 || math.IsNaN(mm) || math.IsInf(mm, 0) {
		return 0
	}
	return (1000/mm - m.K2) / -m.K1
}

// MaxValidRaw is the largest raw sample that still produces a reading.
func (m DepthModel) MaxValidRaw() int {
	raw := int(math.Ceil(m.K2/m.K1)) - 1
	for raw > 0 && m.RawToMetric(raw) == 0 {
		raw--
	}
	return raw
}

// ToMetric converts every sample of dm into millimetres.
func (m DepthModel) ToMetric(dm *DepthMap) *MetricMap {
	mm := NewEmptyMetricMap(dm.Width(), dm.Height())
	for y := 0; y < dm.Height(); y++ {
		for x := 0; x < dm.Width(); x++ {
			mm.Set(x, y, m.RawToMetric(dm.GetDepth(x, y)))
		}
	}
	return mm
}
