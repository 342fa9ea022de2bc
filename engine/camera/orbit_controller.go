package camera

import (
	"sync"

	"github.com/Carmen-Shannon/oxy-viewer/common"
)

// OrbitState is the pointer-drag state of an OrbitController.
type OrbitState int

const (
	// OrbitStateIdle means no drag is in progress.
	OrbitStateIdle OrbitState = iota
	// OrbitStateDragging means a drag started outside the overlay and is updating the direction.
	OrbitStateDragging
)

func (s OrbitState) String() string {
	switch s {
	case OrbitStateIdle:
		return "idle"
	case OrbitStateDragging:
		return "dragging"
	default:
		return "unknown"
	}
}

// OrbitController turns pointer drags into changes of a shared SphericalDirection.
// Horizontal motion changes phi, vertical motion changes theta; both stay clamped to their ranges.
// Whether the overlay wants the pointer is supplied by the caller on every event.
type OrbitController interface {
	// State returns the current drag state.
	//
	// Returns:
	//   - OrbitState: idle or dragging
	State() OrbitState

	// Direction returns a copy of the controlled direction.
	//
	// Returns:
	//   - common.SphericalDirection: the current phi/theta
	Direction() common.SphericalDirection

	// Sensitivity returns the drag sensitivity in radians per pixel.
	//
	// Returns:
	//   - float32: radians per pixel
	Sensitivity() float32

	// SetSensitivity sets the drag sensitivity in radians per pixel. Non-positive values are ignored.
	//
	// Parameters:
	//   - s: radians per pixel
	SetSensitivity(s float32)

	// PointerDown starts a drag at (x, y) unless the overlay wants the pointer.
	//
	// Parameters:
	//   - x, y: pointer position in pixels
	//   - uiWantsPointer: true when the overlay captured this press
	PointerDown(x, y float32, uiWantsPointer bool)

	// PointerMove applies the motion since the last recorded position while dragging.
	// Motion is ignored when idle or while the overlay wants the pointer.
	//
	// Parameters:
	//   - x, y: pointer position in pixels
	//   - uiWantsPointer: true when the overlay is using the pointer
	PointerMove(x, y float32, uiWantsPointer bool)

	// PointerUp ends any drag. The angles keep their current values.
	//
	// Parameters:
	//   - x, y: pointer position in pixels
	PointerUp(x, y float32)

	// ApplyPointerDelta rotates the direction by a pixel delta.
	// phi += dx*s and theta -= dy*s, since screen y grows downward.
	//
	// Parameters:
	//   - dx, dy: pointer delta in pixels
	ApplyPointerDelta(dx, dy float32)

	// Reset restores the direction captured at construction and returns to idle.
	Reset()
}

type orbitControllerImpl struct {
	mu *sync.Mutex

	direction *common.SphericalDirection
	initial   common.SphericalDirection

	state        OrbitState
	lastX, lastY float32

	sensitivity float32
}

var _ OrbitController = &orbitControllerImpl{}

// NewOrbitController creates an OrbitController that writes to direction.
// The direction is clamped to its ranges immediately and its value is remembered for Reset.
//
// Parameters:
//   - direction: the shared direction the controller mutates; must not be nil
//   - options: functional options to configure the controller
//
// Returns:
//   - OrbitController: the newly created controller
func NewOrbitController(direction *common.SphericalDirection, options ...OrbitControllerOption) OrbitController {
	oc := &orbitControllerImpl{
		mu:          &sync.Mutex{},
		direction:   direction,
		state:       OrbitStateIdle,
		sensitivity: 0.01,
	}
	for _, option := range options {
		option(oc)
	}
	oc.direction.Clamp()
	oc.initial = *oc.direction
	return oc
}

func (oc *orbitControllerImpl) State() OrbitState {
	oc.mu.Lock()
	defer oc.mu.Unlock()
	return oc.state
}

func (oc *orbitControllerImpl) Direction() common.SphericalDirection {
	oc.mu.Lock()
	defer oc.mu.Unlock()
	return *oc.direction
}

func (oc *orbitControllerImpl) Sensitivity() float32 {
	oc.mu.Lock()
	defer oc.mu.Unlock()
	return oc.sensitivity
}

func (oc *orbitControllerImpl) SetSensitivity(s float32) {
	if !(s > 0) {
		return
	}
	oc.mu.Lock()
	defer oc.mu.Unlock()
	oc.sensitivity = s
}

func (oc *orbitControllerImpl) PointerDown(x, y float32, uiWantsPointer bool) {
	oc.mu.Lock()
	defer oc.mu.Unlock()
	if uiWantsPointer || oc.state == OrbitStateDragging {
		return
	}
	oc.state = OrbitStateDragging
	oc.lastX, oc.lastY = x, y
}

func (oc *orbitControllerImpl) PointerMove(x, y float32, uiWantsPointer bool) {
	oc.mu.Lock()
	defer oc.mu.Unlock()
	if oc.state != OrbitStateDragging || uiWantsPointer {
		return
	}
	dx, dy := x-oc.lastX, y-oc.lastY
	oc.lastX, oc.lastY = x, y
	oc.applyDelta(dx, dy)
}

func (oc *orbitControllerImpl) PointerUp(x, y float32) {
	oc.mu.Lock()
	defer oc.mu.Unlock()
	oc.state = OrbitStateIdle
	oc.lastX, oc.lastY = x, y
}

func (oc *orbitControllerImpl) ApplyPointerDelta(dx, dy float32) {
	oc.mu.Lock()
	defer oc.mu.Unlock()
	oc.applyDelta(dx, dy)
}

func (oc *orbitControllerImpl) Reset() {
	oc.mu.Lock()
	defer oc.mu.Unlock()
	*oc.direction = oc.initial
	oc.state = OrbitStateIdle
}

// applyDelta updates the direction from a pixel delta. Caller must hold the mutex.
func (oc *orbitControllerImpl) applyDelta(dx, dy float32) {
	oc.direction.Phi += dx * oc.sensitivity
	oc.direction.Theta -= dy * oc.sensitivity
	oc.direction.Clamp()
}
