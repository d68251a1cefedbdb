package engine

import (
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/Carmen-Shannon/voxel-go/common"
	"github.com/Carmen-Shannon/voxel-go/engine/camera"
	"github.com/Carmen-Shannon/voxel-go/engine/profiler"
	"github.com/Carmen-Shannon/voxel-go/engine/renderer"
	"github.com/Carmen-Shannon/voxel-go/engine/scene"
	"github.com/Carmen-Shannon/voxel-go/engine/window"
	"github.com/chewxy/math32"
)

const (
	// mouseButtonLeft is the GLFW index of the primary mouse button.
	mouseButtonLeft = 0

	defaultTickRate = 60.0

	// Scroll zoom narrows or widens the vertical field of view within [minFov, maxFov].
	zoomStep = math32.Pi / 90
	minFov   = math32.Pi / 9
	maxFov   = 2 * math32.Pi / 3
)

// Engine ties a window, the voxel renderer and a fly camera together and drives them.
//
// Run must be called on the goroutine that created the Engine; the render callback and all renderer
// work happen there. The tick callback runs on its own goroutine and may use the camera but not the
// renderer.
type Engine interface {
	Window() window.Window
	Renderer() renderer.Renderer
	Camera() camera.Camera

	// Profiler returns the frame profiler, ticked once per frame while profiling is on.
	Profiler() *profiler.Profiler

	// EnableProfiler turns on the periodic frame timing log.
	EnableProfiler()
	// DisableProfiler turns it off again.
	DisableProfiler()

	// SetTickRate changes how often the controller moves and the tick callback fires. A running
	// loop picks the new rate up on its next wakeup.
	//
	// Parameters:
	//   - fps: ticks per second, 60 when <= 0
	SetTickRate(fps float64)

	// SetTickCallback sets the function run after the controller moves on each tick.
	//
	// Parameters:
	//   - callback: receives seconds since the previous tick
	SetTickCallback(callback func(deltaTime float32))

	// SetRenderCallback sets the function run on the window goroutine before each frame is drawn.
	// Scene uploads belong here.
	//
	// Parameters:
	//   - callback: receives seconds since the previous frame
	SetRenderCallback(callback func(deltaTime float32))

	// SetRenderFrameLimit caps frames per second by sleeping out the rest of each frame.
	//
	// Parameters:
	//   - fps: the cap, 0 for none
	SetRenderFrameLimit(fps float64)

	// LoadScene replaces the rendered scene. Call it from the window goroutine.
	//
	// Parameters:
	//   - s: the scene to upload
	//
	// Returns:
	//   - error: the renderer rejected the scene; the previous one stays live
	LoadScene(s scene.Scene) error

	// Run drives frames until the window closes or Quit is called, then releases the renderer and
	// closes the window.
	//
	// Returns:
	//   - error: the window failed to close
	Run() error

	// Quit asks Run to return. Any goroutine may call it, any number of times.
	Quit()
}

type engine struct {
	window          window.Window
	windowOptions   []window.WindowBuilderOption
	renderer        renderer.Renderer
	rendererOptions []renderer.RendererBuilderOption
	camera          camera.Camera
	controller      camera.CameraController
	profiler        *profiler.Profiler
	profiling       bool

	onTick   func(deltaTime float32)
	onRender func(deltaTime float32)

	tickRate    time.Duration
	rateUpdates chan time.Duration
	frameBudget time.Duration

	running  atomic.Bool
	stop     chan struct{}
	stopOnce sync.Once
	ticker   sync.WaitGroup

	lastFrame    time.Time
	lastCursor   [2]float64
	cursorPrimed bool // false until the first cursor event after a capture change
	windowClosed bool
}

var _ Engine = &engine{}

// NewEngine builds an engine. A window or renderer not supplied through WithWindow or
// WithRenderer is created here from the window and renderer options.
//
// Parameters:
//   - options: engine options
//
// Returns:
//   - Engine: the engine, ready to Run
//   - error: the window or renderer could not be created
func NewEngine(options ...EngineBuilderOption) (Engine, error) {
	e := &engine{
		profiler:    profiler.NewProfiler(),
		tickRate:    period(defaultTickRate),
		rateUpdates: make(chan time.Duration, 1),
		stop:        make(chan struct{}),
	}
	for _, opt := range options {
		opt(e)
	}

	if e.window == nil {
		w, err := window.NewWindow(e.windowOptions...)
		if err != nil {
			return nil, fmt.Errorf("create window: %w", err)
		}
		e.window = w
	}
	if e.renderer == nil {
		r, err := renderer.NewRenderer(e.window, e.rendererOptions...)
		if err != nil {
			e.closeWindow()
			return nil, fmt.Errorf("create renderer: %w", err)
		}
		e.renderer = r
	}

	if e.controller == nil {
		e.controller = camera.NewCameraController()
	}
	e.camera = camera.NewCamera(
		camera.WithController(e.controller),
		camera.WithAspect(aspect(e.window.Width(), e.window.Height())),
	)

	e.bindInput()
	return e, nil
}

// period converts a rate in hertz to a duration. fps must be positive.
func period(fps float64) time.Duration {
	return time.Duration(float64(time.Second) / fps)
}

// aspect returns width / height, or 1 for a degenerate size.
func aspect(width, height int) float32 {
	if width <= 0 || height <= 0 {
		return 1
	}
	return float32(width) / float32(height)
}

// bindInput routes window events to the renderer and the camera controller.
func (e *engine) bindInput() {
	e.window.SetResizeCallback(func(width, height int) {
		if err := e.renderer.Resize(width, height); err != nil {
			common.Logger().Warn("resize failed", "width", width, "height", height, "error", err)
		}
		if width > 0 && height > 0 {
			e.camera.SetAspect(aspect(width, height))
		}
	})

	e.window.SetScrollCallback(func(delta float32) {
		e.camera.SetFov(max(minFov, min(maxFov, e.camera.Fov()-delta*zoomStep)))
	})

	e.window.SetKeyDownCallback(func(key uint32) { e.controller.SetKey(key, true) })
	e.window.SetKeyUpCallback(func(key uint32) { e.controller.SetKey(key, false) })

	e.window.SetMouseButtonCallback(func(button int, pressed bool) {
		if button == mouseButtonLeft && pressed && !e.window.CursorCaptured() {
			e.window.CaptureCursor(true)
		}
	})
	e.window.SetCaptureCallback(func(captured bool) {
		e.cursorPrimed = false
		e.controller.SetFocused(captured)
	})
	e.window.SetMouseMoveCallback(func(x, y float64) {
		prev := e.lastCursor
		e.lastCursor = [2]float64{x, y}
		if !e.cursorPrimed {
			e.cursorPrimed = true
			return
		}
		e.controller.Look(float32(x-prev[0]), float32(y-prev[1]))
	})

	// The window may have captured the cursor before any callback was registered.
	e.controller.SetFocused(e.window.CursorCaptured())
}

func (e *engine) Window() window.Window         { return e.window }
func (e *engine) Renderer() renderer.Renderer   { return e.renderer }
func (e *engine) Camera() camera.Camera         { return e.camera }
func (e *engine) Profiler() *profiler.Profiler  { return e.profiler }
func (e *engine) LoadScene(s scene.Scene) error { return e.renderer.UploadScene(s) }

func (e *engine) Run() error {
	e.running.Store(true)
	e.lastFrame = time.Now()

	e.ticker.Add(1)
	go e.tickLoop()

	e.window.SetUpdateCallback(func() {
		select {
		case <-e.stop:
			e.closeWindow()
		default:
			e.renderFrame(time.Now())
		}
	})
	e.window.ProcessMessages()

	e.Quit()
	e.ticker.Wait()
	e.renderer.Release()
	return e.closeWindow()
}

func (e *engine) Quit() {
	e.stopOnce.Do(func() {
		e.running.Store(false)
		close(e.stop)
	})
}

func (e *engine) closeWindow() error {
	if e.windowClosed {
		return nil
	}
	e.windowClosed = true
	return e.window.Close()
}

// tickLoop moves the controller and fires the tick callback at tickRate until stop closes.
func (e *engine) tickLoop() {
	defer e.ticker.Done()

	t := time.NewTicker(e.tickRate)
	defer t.Stop()

	last := time.Now()
	for {
		select {
		case <-e.stop:
			return
		case rate := <-e.rateUpdates:
			t.Reset(rate)
			e.tickRate = rate
		case now := <-t.C:
			dt := float32(now.Sub(last).Seconds())
			last = now

			e.controller.Tick(dt)
			if e.onTick != nil {
				e.onTick(dt)
			}
		}
	}
}

// renderFrame draws one frame on the window goroutine. A surface failure is reconciled against the
// window size and the frame is dropped; the next iteration retries.
func (e *engine) renderFrame(now time.Time) {
	dt := float32(now.Sub(e.lastFrame).Seconds())
	e.lastFrame = now

	if e.onRender != nil {
		e.onRender(dt)
	}

	e.camera.Update()
	viewProj, eye := e.camera.Frame()
	if err := e.renderer.Render(viewProj, eye); errors.Is(err, renderer.ErrSurface) {
		e.reconcileSurface()
	} else if err != nil {
		common.Logger().Warn("render failed", "error", err)
	}

	if e.profiling {
		e.profiler.Tick()
	}

	if e.frameBudget > 0 {
		if rest := e.frameBudget - time.Since(now); rest > 0 {
			time.Sleep(rest)
		}
	}
}

// reconcileSurface resizes to the window's current size, or reconfigures at the same size when it
// has not changed.
func (e *engine) reconcileSurface() {
	width, height := e.window.Width(), e.window.Height()
	if width <= 0 || height <= 0 {
		return
	}
	var err error
	if rw, rh := e.renderer.RenderTargetSize(); rw != width || rh != height {
		err = e.renderer.Resize(width, height)
		e.camera.SetAspect(aspect(width, height))
	} else {
		err = e.renderer.Reconfigure()
	}
	if err != nil {
		common.Logger().Warn("surface reconciliation failed", "width", width, "height", height, "error", err)
	}
}

func (e *engine) EnableProfiler()  { e.profiling = true }
func (e *engine) DisableProfiler() { e.profiling = false }

func (e *engine) SetTickRate(fps float64) {
	if fps <= 0 {
		fps = defaultTickRate
	}
	rate := period(fps)
	if !e.running.Load() {
		e.tickRate = rate
		return
	}
	// Keep only the newest pending rate.
	for {
		select {
		case e.rateUpdates <- rate:
			return
		default:
			select {
			case <-e.rateUpdates:
			default:
			}
		}
	}
}

func (e *engine) SetTickCallback(callback func(deltaTime float32))   { e.onTick = callback }
func (e *engine) SetRenderCallback(callback func(deltaTime float32)) { e.onRender = callback }

func (e *engine) SetRenderFrameLimit(fps float64) {
	e.frameBudget = 0
	if fps > 0 {
		e.frameBudget = period(fps)
	}
}
