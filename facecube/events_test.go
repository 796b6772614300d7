package facecube

import (
	"image"
	"testing"

	"go.viam.com/test"

	"go.viam.com/facecube/config"
)

func TestParseEvent(t *testing.T) {
	for _, tc := range []struct {
		line string
		ev   Event
	}{
		{"q", Quit{}},
		{"  QUIT ", Quit{}},
		{"up", AdjustMargin{DeltaCM: 1}},
		{"down", AdjustMargin{DeltaCM: -1}},
		{"margin -2.5", AdjustMargin{DeltaCM: -2.5}},
		{"space", ToggleCapture{}},
		{"h", AdjustHoleFill{Delta: 1}},
		{"g", AdjustHoleFill{Delta: -1}},
		{"fill 4", AdjustHoleFill{Delta: 4}},
		{"s", Save{}},
		{"select 320 240", Select{Point: image.Pt(320, 240)}},
	} {
		t.Run(tc.line, func(t *testing.T) {
			ev, err := ParseEvent(tc.line)
			test.That(t, err, test.ShouldBeNil)
			test.That(t, ev, test.ShouldResemble, tc.ev)
		})
	}

	for _, line := range []string{"", "jump", "q now", "margin", "margin far", "fill x", "select 1", "select a 2", "select 1 b"} {
		t.Run("bad "+line, func(t *testing.T) {
			ev, err := ParseEvent(line)
			test.That(t, err, test.ShouldNotBeNil)
			test.That(t, ev, test.ShouldBeNil)
		})
	}

	test.That(t, Select{Point: image.Pt(1, 2)}.String(), test.ShouldEqual, "select 1 2")
	test.That(t, AdjustMargin{DeltaCM: -1}.String(), test.ShouldEqual, "margin -1")
}

func TestState(t *testing.T) {
	s := NewState(&config.Config{MarginCM: 10, HoleFillWindow: 2})
	test.That(t, s.Capturing, test.ShouldBeTrue)
	test.That(t, s.Selection, test.ShouldBeNil)

	test.That(t, s.AdjustMargin(-11).MarginCM, test.ShouldEqual, 0.0)
	test.That(t, s.AdjustMargin(5000).MarginCM, test.ShouldEqual, config.MaxMarginCM)
	test.That(t, s.AdjustMargin(1).MarginCM, test.ShouldEqual, 11.0)
	test.That(t, s.AdjustHoleFill(-3).HoleFillWindow, test.ShouldEqual, 0)
	test.That(t, s.AdjustHoleFill(1).HoleFillWindow, test.ShouldEqual, 3)
	test.That(t, s.ToggleCapture().Capturing, test.ShouldBeFalse)

	selected := s.Select(image.Pt(4, 5))
	test.That(t, *selected.Selection, test.ShouldResemble, image.Pt(4, 5))
	test.That(t, s.Selection, test.ShouldBeNil)
	test.That(t, selected.ClearSelection().Selection, test.ShouldBeNil)
}
