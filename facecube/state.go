// Package facecube drives a depth source through segmentation and export, one frame at a time.
package facecube

import (
	"image"

	"github.com/samber/lo"

	"go.viam.com/facecube/config"
)

// State is everything the interactive session can change between frames.
type State struct {
	MarginCM       float64
	HoleFillWindow int
	Capturing      bool
	// Selection is the grid cell (x = column, y = row) whose region is being tracked, or nil.
	Selection *image.Point
}

// NewState returns the initial state for cfg. Capturing starts on.
func NewState(cfg *config.Config) State {
	return State{
		MarginCM:       lo.Clamp(cfg.MarginCM, 0, config.MaxMarginCM),
		HoleFillWindow: max(cfg.HoleFillWindow, 0),
		Capturing:      true,
	}
}

// AdjustMargin returns s with its margin moved by delta and kept within [0, MaxMarginCM].
func (s State) AdjustMargin(delta float64) State {
	s.MarginCM = lo.Clamp(s.MarginCM+delta, 0, config.MaxMarginCM)
	return s
}

// AdjustHoleFill returns s with its hole filling window moved by delta, never below zero.
func (s State) AdjustHoleFill(delta int) State {
	s.HoleFillWindow = max(s.HoleFillWindow+delta, 0)
	return s
}

// ToggleCapture returns s with capturing flipped.
func (s State) ToggleCapture() State {
	s.Capturing = !s.Capturing
	return s
}

// Select returns s tracking the region under key.
func (s State) Select(key image.Point) State {
	s.Selection = &key
	return s
}

// ClearSelection returns s without a tracked region.
func (s State) ClearSelection() State {
	s.Selection = nil
	return s
}
