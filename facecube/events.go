package facecube

import (
	"fmt"
	"image"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// An Event is a user request applied between frames.
type Event interface {
	fmt.Stringer
	event()
}

// Quit ends the session.
type Quit struct{}

// AdjustMargin moves the distance margin by DeltaCM centimetres.
type AdjustMargin struct {
	DeltaCM float64
}

// ToggleCapture pauses or resumes reading frames from the source.
type ToggleCapture struct{}

// AdjustHoleFill moves the hole filling window by Delta cells.
type AdjustHoleFill struct {
	Delta int
}

// Save exports the current array to the configured output.
type Save struct{}

// Select tracks the region under a display point.
type Select struct {
	Point image.Point
}

func (Quit) event()           {}
func (AdjustMargin) event()   {}
func (ToggleCapture) event()  {}
func (AdjustHoleFill) event() {}
func (Save) event()           {}
func (Select) event()         {}

func (Quit) String() string {
	return "quit"
}

func (e AdjustMargin) String() string {
	return fmt.Sprintf("margin %+g", e.DeltaCM)
}

func (ToggleCapture) String() string {
	return "capture"
}

func (e AdjustHoleFill) String() string {
	return fmt.Sprintf("fill %+d", e.Delta)
}

func (Save) String() string {
	return "save"
}

func (e Select) String() string {
	return fmt.Sprintf("select %d %d", e.Point.X, e.Point.Y)
}

var simpleEvents = map[string]Event{
	"quit":    Quit{},
	"q":       Quit{},
	"esc":     Quit{},
	"up":      AdjustMargin{DeltaCM: 1},
	"down":    AdjustMargin{DeltaCM: -1},
	"capture": ToggleCapture{},
	"space":   ToggleCapture{},
	"h":       AdjustHoleFill{Delta: 1},
	"g":       AdjustHoleFill{Delta: -1},
	"save":    Save{},
	"s":       Save{},
}

// ParseEvent reads an event from a text command. Recognized commands:
//
//	quit | q
//	up | down              margin by +1 / -1 cm
//	margin <delta_cm>
//	capture | space
//	h | g                  hole filling window by +1 / -1
//	fill <delta>
//	save | s
//	select <x> <y>
func ParseEvent(line string) (Event, error) {
	fields := strings.Fields(strings.ToLower(line))
	if len(fields) == 0 {
		return nil, errors.New("empty command")
	}
	args := fields[1:]
	wantArgs := func(n int) error {
		if len(args) != n {
			return errors.Errorf("%q takes %d argument(s), got %d", fields[0], n, len(args))
		}
		return nil
	}

	if ev, ok := simpleEvents[fields[0]]; ok {
		if err := wantArgs(0); err != nil {
			return nil, err
		}
		return ev, nil
	}

	switch fields[0] {
	case "margin":
		if err := wantArgs(1); err != nil {
			return nil, err
		}
		delta, err := strconv.ParseFloat(args[0], 64)
		if err != nil {
			return nil, errors.Wrap(err, "bad margin delta")
		}
		return AdjustMargin{DeltaCM: delta}, nil
	case "fill":
		if err := wantArgs(1); err != nil {
			return nil, err
		}
		delta, err := strconv.Atoi(args[0])
		if err != nil {
			return nil, errors.Wrap(err, "bad hole fill delta")
		}
		return AdjustHoleFill{Delta: delta}, nil
	case "select":
		if err := wantArgs(2); err != nil {
			return nil, err
		}
		x, err := strconv.Atoi(args[0])
		if err != nil {
			return nil, errors.Wrap(err, "bad select x")
		}
		y, err := strconv.Atoi(args[1])
		if err != nil {
			return nil, errors.Wrap(err, "bad select y")
		}
		return Select{Point: image.Pt(x, y)}, nil
	default:
		return nil, errors.Errorf("unknown command %q", fields[0])
	}
}
