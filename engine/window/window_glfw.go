package window

import (
	"fmt"

	"github.com/cogentcore/webgpu/wgpu"
	"github.com/cogentcore/webgpu/wgpuglfw"
	"github.com/go-gl/glfw/v3.3/glfw"
)

// glfwWindow is the GLFW implementation of platformWindow. GLFW must be driven from the
// thread that called glfw.Init; the program locks its main goroutine to that thread.
type glfwWindow struct {
	owner   *engineWindow
	handle  *glfw.Window
	closing bool
}

// openGLFW initializes GLFW and creates a window without a client API, since wgpu owns the
// surface. See https://www.glfw.org/docs/latest/window_guide.html#window_hints_ctx
func openGLFW(w *engineWindow) (platformWindow, error) {
	if err := glfw.Init(); err != nil {
		return nil, fmt.Errorf("glfw init: %w", err)
	}

	glfw.WindowHint(glfw.ClientAPI, glfw.NoAPI)
	glfw.WindowHint(glfw.Resizable, glfwBool(w.resizable))

	handle, err := glfw.CreateWindow(w.width, w.height, w.title, nil, nil)
	if err != nil {
		glfw.Terminate()
		return nil, fmt.Errorf("glfw create window: %w", err)
	}

	gw := &glfwWindow{owner: w, handle: handle}
	handle.SetKeyCallback(gw.onKey)
	handle.SetMouseButtonCallback(gw.onMouseButton)
	handle.SetCursorPosCallback(gw.onCursor)
	// framebuffer size, not window size: the surface is configured in pixels
	handle.SetFramebufferSizeCallback(func(_ *glfw.Window, width, height int) {
		w.resized(width, height)
	})

	w.width, w.height = handle.GetFramebufferSize()
	return gw, nil
}

func glfwBool(b bool) int {
	if b {
		return glfw.True
	}
	return glfw.False
}

func (gw *glfwWindow) onKey(_ *glfw.Window, key glfw.Key, _ int, action glfw.Action, _ glfw.ModifierKey) {
	if key == glfw.KeyEscape && action == glfw.Press {
		gw.requestClose()
		return
	}
	if action == glfw.Release {
		gw.owner.handlers.dispatchKey(uint32(key), false)
		return
	}
	gw.owner.handlers.dispatchKey(uint32(key), true)
}

func (gw *glfwWindow) onMouseButton(_ *glfw.Window, button glfw.MouseButton, action glfw.Action, _ glfw.ModifierKey) {
	if button != glfw.MouseButtonLeft || action == glfw.Repeat {
		return
	}
	x, y := gw.toPixels(gw.handle.GetCursorPos())
	gw.owner.handlers.dispatchButton(x, y, action == glfw.Press)
}

func (gw *glfwWindow) onCursor(_ *glfw.Window, xpos, ypos float64) {
	gw.owner.handlers.dispatchMove(gw.toPixels(xpos, ypos))
}

// toPixels scales screen coordinates to framebuffer pixels; they differ on high-DPI displays.
func (gw *glfwWindow) toPixels(xpos, ypos float64) (float32, float32) {
	sw, sh := gw.handle.GetSize()
	if sw <= 0 || sh <= 0 {
		return float32(xpos), float32(ypos)
	}
	return float32(xpos * float64(gw.owner.width) / float64(sw)),
		float32(ypos * float64(gw.owner.height) / float64(sh))
}

func (gw *glfwWindow) surfaceDescriptor() *wgpu.SurfaceDescriptor {
	return wgpuglfw.GetSurfaceDescriptor(gw.handle)
}

func (gw *glfwWindow) pollEvents() bool {
	glfw.PollEvents()
	return gw.open()
}

func (gw *glfwWindow) open() bool {
	return !gw.closing && !gw.handle.ShouldClose()
}

func (gw *glfwWindow) requestClose() {
	gw.closing = true
	gw.handle.SetShouldClose(true)
}

func (gw *glfwWindow) destroy() {
	gw.closing = true
	gw.handle.Destroy()
	glfw.Terminate()
}
