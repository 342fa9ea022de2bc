package ui

import (
	"fmt"

	"github.com/Carmen-Shannon/oxy-viewer/common"
)

// Rect is an axis-aligned rectangle in pixels, origin top-left.
type Rect struct {
	X, Y, W, H float32
}

// Contains reports whether the point lies inside r, edges included.
func (r Rect) Contains(x, y float32) bool {
	return x >= r.X && x <= r.X+r.W && y >= r.Y && y <= r.Y+r.H
}

// Slider edits a float32 owned by the caller within [Min, Max].
type Slider struct {
	Label string
	Min   float32
	Max   float32
	Value *float32

	// track is the draggable bar, laid out by the overlay.
	track Rect
}

// Track returns the slider's bar in pixels.
func (s *Slider) Track() Rect {
	return s.track
}

// Fraction returns the position of the current value within [Min, Max] as 0..1.
func (s *Slider) Fraction() float32 {
	if s.Max <= s.Min {
		return 0
	}
	return common.Clamp((*s.Value-s.Min)/(s.Max-s.Min), 0, 1)
}

// ValueAt maps a pointer x position to a value; positions outside the track clamp to the ends.
func (s *Slider) ValueAt(x float32) float32 {
	if s.track.W <= 0 {
		return s.Min
	}
	frac := common.Clamp((x-s.track.X)/s.track.W, 0, 1)
	return s.Min + frac*(s.Max-s.Min)
}

// SetFromPointer writes the value under x to the bound variable.
func (s *Slider) SetFromPointer(x float32) {
	*s.Value = s.ValueAt(x)
}

// Caption returns the label with the current value, as drawn above the track.
func (s *Slider) Caption() string {
	return fmt.Sprintf("%s %.3f", s.Label, *s.Value)
}
