package rimage

import (
	"math"
	"testing"

	"go.viam.com/test"
)

func TestRawToMetric(t *testing.T) {
	m := NewKinectDepthModel()
	test.That(t, m.Validate(), test.ShouldBeNil)

	test.That(t, m.RawToMetric(0), test.ShouldEqual, 0)
	test.That(t, m.RawToMetric(600), test.ShouldAlmostEqual, 1000/(3.33-0.00307*600))
	test.That(t, m.RawToMetric(600), test.ShouldAlmostEqual, 672.043, 0.001)

	// saturated samples fold into the unmeasurable range
	test.That(t, m.Fold(544), test.ShouldEqual, 544+2047)
	test.That(t, m.Fold(545), test.ShouldEqual, 545)
	test.That(t, m.Fold(0), test.ShouldEqual, 0)
	test.That(t, m.RawToMetric(544), test.ShouldEqual, 0)
	test.That(t, m.RawToMetric(100), test.ShouldEqual, 0)

	// past the pole of the curve there is no reading
	test.That(t, m.RawToMetric(1085), test.ShouldEqual, 0)
	test.That(t, m.RawToMetric(2047), test.ShouldEqual, 0)
}

func TestRawToMetricMonotonic(t *testing.T) {
	m := NewKinectDepthModel()
	maxRaw := m.MaxValidRaw()
	test.That(t, maxRaw, test.ShouldEqual, 1084)

	prev := m.RawToMetric(m.SaturationFloor + 1)
	test.That(t, prev, test.ShouldBeGreaterThan, 0)
	for raw := m.SaturationFloor + 2; raw <= maxRaw; raw++ {
		cur := m.RawToMetric(raw)
		test.That(t, math.IsInf(cur, 0), test.ShouldBeFalse)
		test.That(t, cur, test.ShouldBeGreaterThan, prev)
		prev = cur
	}
}

func TestMetricToRaw(t *testing.T) {
	m := NewKinectDepthModel()
	for _, raw := range []int{545, 600, 800, 1000, 1080} {
		test.That(t, m.MetricToRaw(m.RawToMetric(raw)), test.ShouldAlmostEqual, float64(raw), 1e-6)
	}
	test.That(t, m.MetricToRaw(0), test.ShouldEqual, 0)
	test.That(t, m.MetricToRaw(-10), test.ShouldEqual, 0)
	test.That(t, m.MetricToRaw(math.NaN()), test.ShouldEqual, 0)
	test.That(t, m.MetricToRaw(math.Inf(1)), test.ShouldEqual, 0)
}

func TestDepthModelValidate(t *testing.T) {
	m := NewKinectDepthModel()
	m.K1 = 0
	test.That(t, m.Validate(), test.ShouldNotBeNil)

	m = NewKinectDepthModel()
	m.K2 = math.NaN()
	test.That(t, m.Validate(), test.ShouldNotBeNil)

	m = NewKinectDepthModel()
	m.SaturationFloor = -1
	test.That(t, m.Validate(), test.ShouldNotBeNil)

	m = NewKinectDepthModel()
	m.RawRange = 0
	test.That(t, m.Validate(), test.ShouldNotBeNil)

	m = NewKinectDepthModel()
	m.SaturationFloor = 1084
	test.That(t, m.Validate(), test.ShouldNotBeNil)
	m.SaturationFloor = 1083
	test.That(t, m.Validate(), test.ShouldBeNil)
}

func TestToMetric(t *testing.T) {
	dm, err := NewDepthMapFromRows([][]int{
		{0, 600, 544},
		{700, 0, 2047},
	})
	test.That(t, err, test.ShouldBeNil)

	m := NewKinectDepthModel()
	mm := m.ToMetric(dm)
	test.That(t, mm.Width(), test.ShouldEqual, 3)
	test.That(t, mm.Height(), test.ShouldEqual, 2)
	test.That(t, mm.Get(0, 0), test.ShouldEqual, 0)
	test.That(t, mm.Get(1, 0), test.ShouldAlmostEqual, m.RawToMetric(600))
	test.That(t, mm.Get(2, 0), test.ShouldEqual, 0)
	test.That(t, mm.Get(0, 1), test.ShouldAlmostEqual, m.RawToMetric(700))
	test.That(t, mm.Get(2, 1), test.ShouldEqual, 0)
	test.That(t, mm.ValidCount(), test.ShouldEqual, 2)

	closest, ok := mm.Closest()
	test.That(t, ok, test.ShouldBeTrue)
	test.That(t, closest, test.ShouldAlmostEqual, m.RawToMetric(600))

	empty := m.ToMetric(NewEmptyDepthMap(0, 0))
	test.That(t, empty.HasData(), test.ShouldBeFalse)
	_, ok = empty.Closest()
	test.That(t, ok, test.ShouldBeFalse)
}
