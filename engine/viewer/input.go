package viewer

import (
	"github.com/Carmen-Shannon/oxy-viewer/common"
	"github.com/Carmen-Shannon/oxy-viewer/engine/camera"
	"github.com/Carmen-Shannon/oxy-viewer/engine/ui"
)

type pointerAction int

const (
	pointerDown pointerAction = iota
	pointerMove
	pointerUp
)

type pointerEvent struct {
	action pointerAction
	x, y   float32
}

// inputQueue collects window callbacks between two frames. The loop drains it once per frame.
type inputQueue struct {
	pointer []pointerEvent
	reset   bool

	resized       bool
	width, height int
}

func (q *inputQueue) pushPointer(action pointerAction, x, y float32) {
	q.pointer = append(q.pointer, pointerEvent{action: action, x: x, y: y})
}

func (q *inputQueue) keyDown(keyCode uint32) {
	if keyCode == common.KeyR {
		q.reset = true
	}
}

func (q *inputQueue) resize(width, height int) {
	q.resized = true
	q.width, q.height = width, height
}

// routePointer hands queued pointer events to the overlay first, then to the orbit controller
// with the overlay's capture flag. panel may be nil when the overlay is disabled.
//
// Parameters:
//   - events: pointer events in arrival order
//   - panel: the overlay, or nil
//   - orbit: the orbit controller
func routePointer(events []pointerEvent, panel ui.Overlay, orbit camera.OrbitController) {
	for _, e := range events {
		wants := false
		if panel != nil {
			switch e.action {
			case pointerDown:
				panel.PointerDown(e.x, e.y)
			case pointerMove:
				panel.PointerMove(e.x, e.y)
			case pointerUp:
				panel.PointerUp(e.x, e.y)
			}
			wants = panel.WantsPointer()
		}

		switch e.action {
		case pointerDown:
			orbit.PointerDown(e.x, e.y, wants)
		case pointerMove:
			orbit.PointerMove(e.x, e.y, wants)
		case pointerUp:
			orbit.PointerUp(e.x, e.y)
		}
	}
}
