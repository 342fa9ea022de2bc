package window

import (
	"fmt"
	"runtime"

	"github.com/cogentcore/webgpu/wgpu"
)

// Window is an on-screen surface plus the input events the viewer consumes.
// Pointer coordinates are framebuffer pixels with the origin at the top-left.
type Window interface {
	// SetUpdateCallback sets the function run once per loop iteration, after events are polled.
	SetUpdateCallback(callback func())

	// SetResizeCallback sets the function called with the new framebuffer size in pixels.
	SetResizeCallback(callback func(width, height int))

	// SetKeyDownCallback sets the callback for key press and repeat events.
	//
	// Parameters:
	//   - callback: function receiving the key code (see common.Key*)
	SetKeyDownCallback(callback func(keyCode uint32))

	// SetKeyUpCallback sets the callback for key release events.
	SetKeyUpCallback(callback func(keyCode uint32))

	// SetPointerDownCallback sets the callback for a primary button press.
	SetPointerDownCallback(callback func(x, y float32))

	// SetPointerUpCallback sets the callback for a primary button release.
	SetPointerUpCallback(callback func(x, y float32))

	// SetPointerMoveCallback sets the callback for pointer motion, pressed or not.
	SetPointerMoveCallback(callback func(x, y float32))

	// SurfaceDescriptor describes the native window to wgpu.
	//
	// Returns:
	//   - *wgpu.SurfaceDescriptor: the descriptor, or nil once the window is closed
	SurfaceDescriptor() *wgpu.SurfaceDescriptor

	// IsRunning reports whether the window is open and no close was requested.
	IsRunning() bool

	// RequestClose stops ProcessMessages after the current iteration.
	RequestClose()

	// Close destroys the native window. Calling it twice returns an error.
	//
	// Returns:
	//   - error: an error if the window is already closed
	Close() error

	// ProcessMessages polls events and runs the update callback until the window closes.
	ProcessMessages()

	// Width returns the framebuffer width in pixels.
	Width() int

	// Height returns the framebuffer height in pixels.
	Height() int
}

// platformWindow is the native half of a window.
type platformWindow interface {
	surfaceDescriptor() *wgpu.SurfaceDescriptor
	// pollEvents dispatches pending events and reports whether the window should stay open.
	pollEvents() bool
	open() bool
	requestClose()
	destroy()
}

// eventHandlers holds the registered callbacks. Every dispatch method tolerates a nil callback.
type eventHandlers struct {
	update      func()
	resize      func(width, height int)
	keyDown     func(keyCode uint32)
	keyUp       func(keyCode uint32)
	pointerDown func(x, y float32)
	pointerUp   func(x, y float32)
	pointerMove func(x, y float32)
}

func (h *eventHandlers) dispatchKey(keyCode uint32, pressed bool) {
	if pressed && h.keyDown != nil {
		h.keyDown(keyCode)
	} else if !pressed && h.keyUp != nil {
		h.keyUp(keyCode)
	}
}

func (h *eventHandlers) dispatchButton(x, y float32, pressed bool) {
	if pressed && h.pointerDown != nil {
		h.pointerDown(x, y)
	} else if !pressed && h.pointerUp != nil {
		h.pointerUp(x, y)
	}
}

func (h *eventHandlers) dispatchMove(x, y float32) {
	if h.pointerMove != nil {
		h.pointerMove(x, y)
	}
}

type engineWindow struct {
	title     string
	resizable bool

	// width and height are the framebuffer size once the native window exists.
	width, height int

	handlers eventHandlers
	native   platformWindow
}

var _ Window = &engineWindow{}

// openPlatform creates the native window for w.
var openPlatform = openGLFW

// NewWindow opens a window configured by options. Without options it is a resizable
// 1280x720 window titled "oxy-viewer".
//
// Parameters:
//   - options: functional options applied over the defaults
//
// Returns:
//   - Window: the open window
//   - error: an error for a non-positive size or when the native window cannot be created
func NewWindow(options ...WindowBuilderOption) (Window, error) {
	w := &engineWindow{title: "oxy-viewer", resizable: true, width: 1280, height: 720}
	for _, opt := range options {
		opt(w)
	}
	if w.width <= 0 || w.height <= 0 {
		return nil, fmt.Errorf("invalid window size %dx%d", w.width, w.height)
	}

	native, err := openPlatform(w)
	if err != nil {
		return nil, fmt.Errorf("open window %q: %w", w.title, err)
	}
	w.native = native
	return w, nil
}

func (w *engineWindow) SetUpdateCallback(callback func())                  { w.handlers.update = callback }
func (w *engineWindow) SetResizeCallback(callback func(width, height int)) { w.handlers.resize = callback }
func (w *engineWindow) SetKeyDownCallback(callback func(keyCode uint32))   { w.handlers.keyDown = callback }
func (w *engineWindow) SetKeyUpCallback(callback func(keyCode uint32))     { w.handlers.keyUp = callback }
func (w *engineWindow) SetPointerDownCallback(callback func(x, y float32)) { w.handlers.pointerDown = callback }
func (w *engineWindow) SetPointerUpCallback(callback func(x, y float32))   { w.handlers.pointerUp = callback }
func (w *engineWindow) SetPointerMoveCallback(callback func(x, y float32)) { w.handlers.pointerMove = callback }

func (w *engineWindow) SurfaceDescriptor() *wgpu.SurfaceDescriptor {
	if w.native == nil {
		return nil
	}
	return w.native.surfaceDescriptor()
}

func (w *engineWindow) IsRunning() bool {
	return w.native != nil && w.native.open()
}

func (w *engineWindow) RequestClose() {
	if w.native != nil {
		w.native.requestClose()
	}
}

func (w *engineWindow) Close() error {
	if w.native == nil {
		return fmt.Errorf("window %q is not open", w.title)
	}
	w.native.destroy()
	w.native = nil
	return nil
}

func (w *engineWindow) ProcessMessages() {
	for w.IsRunning() {
		if !w.native.pollEvents() {
			return
		}
		if w.handlers.update != nil {
			w.handlers.update()
		}
		runtime.Gosched()
	}
}

// resized records a framebuffer size change and forwards it.
func (w *engineWindow) resized(width, height int) {
	w.width, w.height = width, height
	if w.handlers.resize != nil {
		w.handlers.resize(width, height)
	}
}

func (w *engineWindow) Width() int  { return w.width }
func (w *engineWindow) Height() int { return w.height }
