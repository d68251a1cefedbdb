package window

import (
	"fmt"
	"runtime"

	"github.com/cogentcore/webgpu/wgpu"
	"github.com/cogentcore/webgpu/wgpuglfw"
	"github.com/go-gl/glfw/v3.3/glfw"
)

// glfwWindow is the GLFW side of an engineWindow.
type glfwWindow struct {
	window  *glfw.Window
	closing bool
}

// openGLFWWindow initializes GLFW and creates a window without a client API, since wgpu owns
// presentation. Input callbacks are forwarded to owner.
//
// GLFW reference: https://www.glfw.org/docs/latest/window_guide.html
func openGLFWWindow(owner *engineWindow) (*glfwWindow, error) {
	// GLFW must run on the main thread on macOS and on one thread everywhere.
	runtime.LockOSThread()

	if err := glfw.Init(); err != nil {
		return nil, fmt.Errorf("init glfw: %w", err)
	}

	glfw.WindowHint(glfw.ClientAPI, glfw.NoAPI)
	glfw.WindowHint(glfw.Resizable, glfwBool(owner.resizable))

	win, err := glfw.CreateWindow(owner.width, owner.height, owner.title, nil, nil)
	if err != nil {
		glfw.Terminate()
		return nil, fmt.Errorf("create glfw window: %w", err)
	}
	win.SetSizeLimits(sizeLimit(owner.minWidth), sizeLimit(owner.minHeight), sizeLimit(owner.maxWidth), sizeLimit(owner.maxHeight))

	win.SetKeyCallback(func(_ *glfw.Window, key glfw.Key, _ int, action glfw.Action, _ glfw.ModifierKey) {
		owner.keyEvent(uint32(key), key == glfw.KeyEscape && action == glfw.Press, action != glfw.Release, action == glfw.Release)
	})
	win.SetScrollCallback(func(_ *glfw.Window, _, yoff float64) {
		if owner.on.scroll != nil {
			owner.on.scroll(float32(yoff))
		}
	})
	win.SetMouseButtonCallback(func(_ *glfw.Window, button glfw.MouseButton, action glfw.Action, _ glfw.ModifierKey) {
		if owner.on.mouseButton != nil {
			owner.on.mouseButton(int(button), action == glfw.Press)
		}
	})
	win.SetCursorPosCallback(func(_ *glfw.Window, x, y float64) {
		if owner.on.mouseMove != nil {
			owner.on.mouseMove(x, y)
		}
	})
	win.SetFocusCallback(func(_ *glfw.Window, focused bool) {
		if !focused {
			owner.CaptureCursor(false)
		}
	})
	// Framebuffer size is in pixels, which is what surface configuration needs.
	win.SetFramebufferSizeCallback(func(_ *glfw.Window, width, height int) {
		owner.framebufferResized(width, height)
	})

	return &glfwWindow{window: win}, nil
}

func glfwBool(v bool) int {
	if v {
		return glfw.True
	}
	return glfw.False
}

// sizeLimit maps an unset limit to GLFW's DontCare.
func sizeLimit(v int) int {
	if v <= 0 {
		return glfw.DontCare
	}
	return v
}

func (g *glfwWindow) framebufferSize() (int, int) {
	return g.window.GetFramebufferSize()
}

// surfaceDescriptor picks the native handle for the running platform.
func (g *glfwWindow) surfaceDescriptor() *wgpu.SurfaceDescriptor {
	return wgpuglfw.GetSurfaceDescriptor(g.window)
}

// setCursorCaptured switches between a disabled cursor, with raw motion where supported, and the
// normal one.
//
// Reference: https://www.glfw.org/docs/latest/input_guide.html#cursor_mode
func (g *glfwWindow) setCursorCaptured(captured bool) {
	if !captured {
		g.window.SetInputMode(glfw.CursorMode, glfw.CursorNormal)
		return
	}
	g.window.SetInputMode(glfw.CursorMode, glfw.CursorDisabled)
	if glfw.RawMouseMotionSupported() {
		g.window.SetInputMode(glfw.RawMouseMotion, glfw.True)
	}
}

func (g *glfwWindow) requestClose() {
	g.closing = true
	g.window.SetShouldClose(true)
}

func (g *glfwWindow) alive() bool {
	return !g.closing && !g.window.ShouldClose()
}

// poll handles pending events without blocking and reports whether the window should keep going.
func (g *glfwWindow) poll() bool {
	glfw.PollEvents()
	return g.alive()
}

func (g *glfwWindow) destroy() {
	g.closing = true
	g.window.Destroy()
	glfw.Terminate()
}
