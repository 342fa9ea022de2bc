// Package ui draws a small immediate-mode control panel over the scene and tracks whether the
// pointer belongs to it.
package ui

import (
	"github.com/Carmen-Shannon/oxy-viewer/common"
)

const (
	panelPadding       = 8
	trackHeight        = 12
	rowSpacing         = 6
	knobWidth          = 6
	knobOverhang       = 2
	defaultMaxVertices = 4096
)

var (
	panelColor = [4]float32{0.08, 0.08, 0.1, 0.85}
	textColor  = [4]float32{0.92, 0.92, 0.92, 1}
	trackColor = [4]float32{0.25, 0.25, 0.3, 1}
	fillColor  = [4]float32{0.26, 0.52, 0.96, 1}
	knobColor  = [4]float32{0.95, 0.95, 0.95, 1}
	hoverColor = [4]float32{0.4, 0.65, 1, 1}
)

// overlay is the implementation of the Overlay interface.
type overlay struct {
	atlas *Atlas

	title       string
	x, y, width float32
	maxVertices int

	sliders []*Slider
	panel   Rect

	pointerX, pointerY float32
	hovering           bool
	// pressedOutside is set while a press that started outside the panel is held.
	pressedOutside bool
	active         int

	vertices []Vertex
}

// Overlay is an immediate-mode panel of sliders. Pointer events are fed in the order they
// arrive; WantsPointer reports whether the last event belongs to the panel so callers can
// keep it away from the scene.
type Overlay interface {
	// AddSlider appends a slider row bound to value.
	//
	// Parameters:
	//   - label: the caption drawn above the track
	//   - value: the variable the slider edits
	//   - min: the value at the left end of the track
	//   - max: the value at the right end of the track
	AddSlider(label string, value *float32, min, max float32)

	// Sliders returns the slider rows in display order.
	Sliders() []*Slider

	// Panel returns the panel bounds in pixels.
	Panel() Rect

	// PointerDown handles a primary button press. A press on a slider track starts dragging it
	// and sets its value at once.
	PointerDown(x, y float32)

	// PointerMove handles pointer motion; a dragged slider follows the pointer.
	PointerMove(x, y float32)

	// PointerUp ends any slider drag.
	PointerUp(x, y float32)

	// WantsPointer is true while a slider is dragged, or while the pointer hovers the panel
	// unless the current press started outside it.
	WantsPointer() bool

	// Vertices builds the triangle list for the current state.
	//
	// Returns:
	//   - []Vertex: pixel-space vertices, reused by the next call
	Vertices() []Vertex

	// MaxVertices returns the vertex capacity the GPU buffer should be created with.
	MaxVertices() int

	// Atlas returns the glyph atlas the overlay draws text with.
	Atlas() *Atlas
}

var _ Overlay = &overlay{}

// NewOverlay creates an empty panel titled "Controls" at (10, 10), 200 pixels wide.
//
// Parameters:
//   - atlas: the glyph atlas used for text
//   - options: functional options overriding title, position, width or capacity
//
// Returns:
//   - Overlay: the panel
func NewOverlay(atlas *Atlas, options ...OverlayBuilderOption) Overlay {
	o := &overlay{
		atlas:       atlas,
		title:       "Controls",
		x:           10,
		y:           10,
		width:       200,
		maxVertices: defaultMaxVertices,
		active:      -1,
	}
	for _, opt := range options {
		opt(o)
	}
	o.layout()
	return o
}

func (o *overlay) AddSlider(label string, value *float32, min, max float32) {
	o.sliders = append(o.sliders, &Slider{Label: label, Min: min, Max: max, Value: value})
	o.layout()
}

func (o *overlay) Sliders() []*Slider {
	return o.sliders
}

func (o *overlay) Panel() Rect {
	return o.panel
}

func (o *overlay) PointerDown(x, y float32) {
	o.pointerX, o.pointerY = x, y
	o.hovering = o.panel.Contains(x, y)
	if !o.hovering {
		o.pressedOutside = true
		return
	}
	for i, s := range o.sliders {
		if s.track.Contains(x, y) {
			o.active = i
			s.SetFromPointer(x)
			return
		}
	}
}

func (o *overlay) PointerMove(x, y float32) {
	o.pointerX, o.pointerY = x, y
	o.hovering = o.panel.Contains(x, y)
	if o.active >= 0 {
		o.sliders[o.active].SetFromPointer(x)
	}
}

func (o *overlay) PointerUp(x, y float32) {
	o.pointerX, o.pointerY = x, y
	o.hovering = o.panel.Contains(x, y)
	o.pressedOutside = false
	o.active = -1
}

func (o *overlay) WantsPointer() bool {
	return o.active >= 0 || (o.hovering && !o.pressedOutside)
}

func (o *overlay) MaxVertices() int {
	return o.maxVertices
}

func (o *overlay) Atlas() *Atlas {
	return o.atlas
}

// layout positions the title and slider tracks and sizes the panel to fit them.
func (o *overlay) layout() {
	line := o.atlas.LineHeight()
	y := o.y + panelPadding + line + rowSpacing
	for _, s := range o.sliders {
		y += line
		s.track = Rect{X: o.x + panelPadding, Y: y, W: o.width - 2*panelPadding, H: trackHeight}
		y += trackHeight + rowSpacing
	}
	o.panel = Rect{X: o.x, Y: o.y, W: o.width, H: y - o.y + panelPadding - rowSpacing}
}

func (o *overlay) Vertices() []Vertex {
	o.vertices = o.vertices[:0]
	o.quad(o.panel, panelColor)

	line := o.atlas.LineHeight()
	o.text(o.title, o.x+panelPadding, o.y+panelPadding, textColor)

	for i, s := range o.sliders {
		o.text(s.Caption(), s.track.X, s.track.Y-line, textColor)

		o.quad(s.track, trackColor)
		fill := s.track
		fill.W *= s.Fraction()
		o.quad(fill, fillColor)

		knob := Rect{
			X: s.track.X + fill.W - knobWidth/2,
			Y: s.track.Y - knobOverhang,
			W: knobWidth,
			H: s.track.H + 2*knobOverhang,
		}
		c := knobColor
		if i == o.active || (o.active < 0 && s.track.Contains(o.pointerX, o.pointerY)) {
			c = hoverColor
		}
		o.quad(knob, c)
	}

	if len(o.vertices) > o.maxVertices {
		common.LogWarn("overlay vertices truncated", "count", len(o.vertices), "max", o.maxVertices)
		o.vertices = o.vertices[:o.maxVertices-o.maxVertices%6]
	}
	return o.vertices
}

// quad appends a solid rectangle sampling the white block of the atlas.
func (o *overlay) quad(r Rect, c [4]float32) {
	uv := o.atlas.WhiteUV()
	o.appendQuad(r.X, r.Y, r.X+r.W, r.Y+r.H, uv, uv, c)
}

// text appends one quad per glyph with the top of the line at y.
func (o *overlay) text(s string, x, y float32, c [4]float32) {
	baseline := y + o.atlas.Ascent()
	for _, r := range s {
		g, ok := o.atlas.Glyph(r)
		if !ok {
			continue
		}
		if g.Size[0] > 0 && g.Size[1] > 0 {
			x0 := x + g.Offset[0]
			y0 := baseline + g.Offset[1]
			o.appendQuad(x0, y0, x0+g.Size[0], y0+g.Size[1], g.UVMin, g.UVMax, c)
		}
		x += g.Advance
	}
}

func (o *overlay) appendQuad(x0, y0, x1, y1 float32, uvMin, uvMax [2]float32, c [4]float32) {
	tl := Vertex{Pos: [2]float32{x0, y0}, UV: [2]float32{uvMin[0], uvMin[1]}, Color: c}
	tr := Vertex{Pos: [2]float32{x1, y0}, UV: [2]float32{uvMax[0], uvMin[1]}, Color: c}
	bl := Vertex{Pos: [2]float32{x0, y1}, UV: [2]float32{uvMin[0], uvMax[1]}, Color: c}
	br := Vertex{Pos: [2]float32{x1, y1}, UV: [2]float32{uvMax[0], uvMax[1]}, Color: c}
	o.vertices = append(o.vertices, tl, tr, bl, tr, br, bl)
}
