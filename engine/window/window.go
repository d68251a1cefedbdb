package window

import (
	"fmt"
	"runtime"

	"github.com/cogentcore/webgpu/wgpu"
)

// Window is a desktop window that can host a WebGPU surface and reports input.
//
// Every method must be called from the goroutine that created the window, and callbacks fire on
// that goroutine from inside ProcessMessages. A nil callback unregisters the event.
type Window interface {
	// SetUpdateCallback sets the function run once per loop iteration, after events are polled.
	SetUpdateCallback(callback func())

	// SetResizeCallback sets the function run when the framebuffer size changes. Sizes are in
	// pixels and may be zero while the window is minimized.
	SetResizeCallback(callback func(width, height int))

	// SetScrollCallback sets the function run for vertical wheel motion, positive away from the user.
	SetScrollCallback(callback func(delta float32))

	// SetKeyDownCallback sets the function run on key press and key repeat.
	//
	// Parameters:
	//   - callback: receives the GLFW key code
	SetKeyDownCallback(callback func(keyCode uint32))

	// SetKeyUpCallback sets the function run on key release.
	//
	// Parameters:
	//   - callback: receives the GLFW key code
	SetKeyUpCallback(callback func(keyCode uint32))

	// SetMouseButtonCallback sets the function run when a mouse button changes state.
	//
	// Parameters:
	//   - callback: receives the button index (0 left, 1 right, 2 middle) and whether it went down
	SetMouseButtonCallback(callback func(button int, pressed bool))

	// SetMouseMoveCallback sets the function run on cursor motion. While captured the position is
	// virtual and unbounded, so only differences between calls are meaningful.
	//
	// Parameters:
	//   - callback: receives the cursor position
	SetMouseMoveCallback(callback func(x, y float64))

	// SetCaptureCallback sets the function run whenever capture changes, including the release
	// caused by Escape or by losing focus.
	SetCaptureCallback(callback func(captured bool))

	// CaptureCursor hides and locks the cursor, or gives it back.
	CaptureCursor(captured bool)

	// CursorCaptured reports whether the cursor is hidden and locked.
	CursorCaptured() bool

	SetTitle(title string)

	// SurfaceDescriptor describes the native window handle for wgpu surface creation.
	//
	// Returns:
	//   - *wgpu.SurfaceDescriptor: the descriptor, or nil once the window is gone
	SurfaceDescriptor() *wgpu.SurfaceDescriptor

	// IsRunning is false once the window was asked to close.
	IsRunning() bool

	// Close destroys the window and shuts GLFW down.
	//
	// Returns:
	//   - error: the window was never opened
	Close() error

	// ProcessMessages polls events and runs the update callback until the window stops running.
	ProcessMessages()

	// Width and Height return the framebuffer size in pixels.
	Width() int
	Height() int
}

// events are the registered callbacks.
type events struct {
	update      func()
	resize      func(width, height int)
	scroll      func(delta float32)
	keyDown     func(keyCode uint32)
	keyUp       func(keyCode uint32)
	mouseButton func(button int, pressed bool)
	mouseMove   func(x, y float64)
	capture     func(captured bool)
}

type engineWindow struct {
	title string

	// Requested client size until the window opens, the framebuffer size after.
	width, height int

	// Resize limits. Zero is unbounded.
	minWidth, minHeight int
	maxWidth, maxHeight int

	resizable     bool
	captureOnOpen bool

	native   *glfwWindow
	on       events
	captured bool
}

var _ Window = &engineWindow{}

// NewWindow opens a resizable 1280x720 window titled "voxel-go", adjusted by options.
//
// Parameters:
//   - options: window options applied over the defaults
//
// Returns:
//   - Window: the open window
//   - error: GLFW could not initialize or create the window
func NewWindow(options ...WindowBuilderOption) (Window, error) {
	w := &engineWindow{
		title:     "voxel-go",
		width:     1280,
		height:    720,
		minWidth:  320,
		minHeight: 200,
		resizable: true,
	}
	for _, opt := range options {
		opt(w)
	}

	native, err := openGLFWWindow(w)
	if err != nil {
		return nil, fmt.Errorf("open window: %w", err)
	}
	w.native = native

	// Pixel size can differ from the requested size on high-DPI displays.
	w.width, w.height = native.framebufferSize()
	if w.captureOnOpen {
		w.CaptureCursor(true)
	}
	return w, nil
}

func (w *engineWindow) SetUpdateCallback(callback func())                  { w.on.update = callback }
func (w *engineWindow) SetResizeCallback(callback func(width, height int)) { w.on.resize = callback }
func (w *engineWindow) SetScrollCallback(callback func(delta float32))     { w.on.scroll = callback }
func (w *engineWindow) SetKeyDownCallback(callback func(keyCode uint32))   { w.on.keyDown = callback }
func (w *engineWindow) SetKeyUpCallback(callback func(keyCode uint32))     { w.on.keyUp = callback }
func (w *engineWindow) SetMouseMoveCallback(callback func(x, y float64))   { w.on.mouseMove = callback }
func (w *engineWindow) SetCaptureCallback(callback func(captured bool))    { w.on.capture = callback }

func (w *engineWindow) SetMouseButtonCallback(callback func(button int, pressed bool)) {
	w.on.mouseButton = callback
}

func (w *engineWindow) CaptureCursor(captured bool) {
	if w.captured == captured || w.native == nil {
		return
	}
	w.native.setCursorCaptured(captured)
	w.captured = captured
	if w.on.capture != nil {
		w.on.capture(captured)
	}
}

func (w *engineWindow) CursorCaptured() bool { return w.captured }
func (w *engineWindow) Width() int           { return w.width }
func (w *engineWindow) Height() int          { return w.height }

func (w *engineWindow) SetTitle(title string) {
	w.title = title
	if w.native != nil {
		w.native.window.SetTitle(title)
	}
}

func (w *engineWindow) SurfaceDescriptor() *wgpu.SurfaceDescriptor {
	if w.native == nil {
		return nil
	}
	return w.native.surfaceDescriptor()
}

func (w *engineWindow) IsRunning() bool {
	return w.native != nil && w.native.alive()
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
		if !w.native.poll() {
			return
		}
		if w.on.update != nil {
			w.on.update()
		}
		runtime.Gosched()
	}
}

// framebufferResized records the new pixel size and forwards it.
func (w *engineWindow) framebufferResized(width, height int) {
	w.width, w.height = width, height
	if w.on.resize != nil {
		w.on.resize(width, height)
	}
}

// keyEvent handles Escape itself: the first press releases a captured cursor and the next one
// closes the window.
func (w *engineWindow) keyEvent(key uint32, escapePress, down, up bool) {
	if escapePress {
		if w.captured {
			w.CaptureCursor(false)
		} else if w.native != nil {
			w.native.requestClose()
		}
		return
	}
	switch {
	case down && w.on.keyDown != nil:
		w.on.keyDown(key)
	case up && w.on.keyUp != nil:
		w.on.keyUp(key)
	}
}
