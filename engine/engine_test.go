package engine

import (
	"errors"
	"testing"
	"time"

	"github.com/Carmen-Shannon/voxel-go/common"
	"github.com/Carmen-Shannon/voxel-go/engine/camera"
	"github.com/Carmen-Shannon/voxel-go/engine/renderer"
	"github.com/Carmen-Shannon/voxel-go/engine/renderer/pipeline"
	"github.com/Carmen-Shannon/voxel-go/engine/scene"
	"github.com/cogentcore/webgpu/wgpu"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeWindow drives the engine without a display. ProcessMessages runs frames update iterations.
type fakeWindow struct {
	width, height int
	frames        int
	closed        int
	captured      bool

	onUpdate      func()
	onResize      func(width, height int)
	onScroll      func(delta float32)
	onKeyDown     func(keyCode uint32)
	onKeyUp       func(keyCode uint32)
	onMouseButton func(button int, pressed bool)
	onMouseMove   func(x, y float64)
	onCapture     func(captured bool)
}

func (w *fakeWindow) SetUpdateCallback(callback func())                  { w.onUpdate = callback }
func (w *fakeWindow) SetResizeCallback(callback func(width, height int)) { w.onResize = callback }
func (w *fakeWindow) SetScrollCallback(callback func(delta float32))     { w.onScroll = callback }
func (w *fakeWindow) SetKeyDownCallback(callback func(keyCode uint32))   { w.onKeyDown = callback }
func (w *fakeWindow) SetKeyUpCallback(callback func(keyCode uint32))     { w.onKeyUp = callback }
func (w *fakeWindow) SetMouseButtonCallback(callback func(button int, pressed bool)) {
	w.onMouseButton = callback
}
func (w *fakeWindow) SetMouseMoveCallback(callback func(x, y float64)) { w.onMouseMove = callback }
func (w *fakeWindow) SetCaptureCallback(callback func(captured bool))  { w.onCapture = callback }
func (w *fakeWindow) CursorCaptured() bool                             { return w.captured }
func (w *fakeWindow) SetTitle(string)                                  {}
func (w *fakeWindow) SurfaceDescriptor() *wgpu.SurfaceDescriptor       { return nil }
func (w *fakeWindow) IsRunning() bool                                  { return w.closed == 0 }
func (w *fakeWindow) Width() int                                       { return w.width }
func (w *fakeWindow) Height() int                                      { return w.height }

func (w *fakeWindow) CaptureCursor(captured bool) {
	if w.captured == captured {
		return
	}
	w.captured = captured
	if w.onCapture != nil {
		w.onCapture(captured)
	}
}

func (w *fakeWindow) Close() error {
	w.closed++
	return nil
}

func (w *fakeWindow) ProcessMessages() {
	for i := 0; i < w.frames && w.IsRunning(); i++ {
		if w.onUpdate != nil {
			w.onUpdate()
		}
	}
}

// fakeRenderer records the calls the engine makes.
type fakeRenderer struct {
	width, height int
	renders       int
	renderErr     error
	resizes       [][2]int
	reconfigures  int
	uploads       int
	released      int
	lastViewProj  [16]float32
	lastCameraPos [3]float32
}

func (r *fakeRenderer) UploadScene(scene.Scene) error {
	r.uploads++
	return nil
}

func (r *fakeRenderer) Render(viewProj [16]float32, cameraPos [3]float32) error {
	r.renders++
	r.lastViewProj = viewProj
	r.lastCameraPos = cameraPos
	return r.renderErr
}

func (r *fakeRenderer) RenderSlices(viewProj, cameraPos []float32) error {
	return r.Render([16]float32(viewProj), [3]float32(cameraPos))
}

func (r *fakeRenderer) Resize(width, height int) error {
	r.resizes = append(r.resizes, [2]int{width, height})
	if width > 0 && height > 0 {
		r.width, r.height = width, height
	}
	return nil
}

func (r *fakeRenderer) Reconfigure() error {
	r.reconfigures++
	return nil
}

func (r *fakeRenderer) AdapterInfo() renderer.AdapterInfo      { return renderer.AdapterInfo{} }
func (r *fakeRenderer) DrawCalls() []renderer.DrawCallResource { return nil }
func (r *fakeRenderer) Generation() uint64                     { return uint64(r.uploads) }
func (r *fakeRenderer) RenderTargetSize() (int, int)           { return r.width, r.height }
func (r *fakeRenderer) SampleCount() renderer.MSAASampleCount  { return renderer.MSAA4x }
func (r *fakeRenderer) Pipeline() pipeline.Pipeline            { return nil }
func (r *fakeRenderer) Release()                               { r.released++ }

func newTestEngine(t *testing.T, opts ...EngineBuilderOption) (*engine, *fakeWindow, *fakeRenderer) {
	t.Helper()
	w := &fakeWindow{width: 800, height: 400}
	r := &fakeRenderer{width: 800, height: 400}
	opts = append([]EngineBuilderOption{WithWindow(w), WithRenderer(r)}, opts...)
	e, err := NewEngine(opts...)
	require.NoError(t, err)
	return e.(*engine), w, r
}

func TestNewEngineCameraAspect(t *testing.T) {
	e, _, _ := newTestEngine(t)
	assert.InDelta(t, 2.0, e.Camera().Aspect(), 1e-6)
	assert.NotNil(t, e.Profiler())
	assert.NotNil(t, e.Renderer())
	assert.NotNil(t, e.Window())
}

func TestResizeCallback(t *testing.T) {
	e, w, r := newTestEngine(t)

	w.onResize(600, 600)
	assert.Equal(t, [][2]int{{600, 600}}, r.resizes)
	assert.InDelta(t, 1.0, e.Camera().Aspect(), 1e-6)

	// minimized windows report zero and leave the aspect alone
	w.onResize(0, 0)
	assert.Len(t, r.resizes, 2)
	assert.InDelta(t, 1.0, e.Camera().Aspect(), 1e-6)
}

func TestClickCapturesAndFocuses(t *testing.T) {
	e, w, _ := newTestEngine(t)
	cc := e.camera.Controller()

	w.onMouseButton(1, true)
	assert.False(t, w.captured)

	w.onMouseButton(mouseButtonLeft, true)
	assert.True(t, w.captured)
	assert.True(t, cc.Focused())

	w.CaptureCursor(false)
	assert.False(t, cc.Focused())
}

func TestPreCapturedWindowFocusesController(t *testing.T) {
	w := &fakeWindow{width: 800, height: 400, captured: true}
	e, err := NewEngine(WithWindow(w), WithRenderer(&fakeRenderer{width: 800, height: 400}))
	require.NoError(t, err)
	assert.True(t, e.Camera().Controller().Focused())
}

func TestScrollZoomIsClamped(t *testing.T) {
	e, w, _ := newTestEngine(t)
	start := e.Camera().Fov()

	w.onScroll(1)
	assert.InDelta(t, start-zoomStep, e.Camera().Fov(), 1e-6)

	w.onScroll(1000)
	assert.InDelta(t, minFov, e.Camera().Fov(), 1e-6)
	w.onScroll(-1000)
	assert.InDelta(t, maxFov, e.Camera().Fov(), 1e-6)
}

func TestMouseLook(t *testing.T) {
	cc := camera.NewCameraController()
	_, w, _ := newTestEngine(t, WithCameraController(cc))

	w.onMouseMove(10, 10)
	w.onMouseMove(500, 10)
	assert.Zero(t, cc.Yaw())

	w.onMouseButton(mouseButtonLeft, true)
	// the first event after capture only primes the cursor
	w.onMouseMove(300, 300)
	assert.Zero(t, cc.Yaw())

	w.onMouseMove(400, 300)
	assert.InDelta(t, -100*camera.DefaultMouseSensitivity, cc.Yaw(), 1e-6)
	w.onMouseMove(400, 350)
	assert.InDelta(t, -50*camera.DefaultMouseSensitivity, cc.Pitch(), 1e-6)
}

func TestKeysReachController(t *testing.T) {
	cc := camera.NewCameraController(camera.WithSpeed(1))
	_, w, _ := newTestEngine(t, WithCameraController(cc))
	w.CaptureCursor(true)

	w.onKeyDown(common.KeyW)
	cc.Tick(1)
	w.onKeyUp(common.KeyW)
	cc.Tick(1)

	_, _, z := cc.Position()
	assert.InDelta(t, 1.0, z, 1e-6)
}

func TestRenderFrame(t *testing.T) {
	cc := camera.NewCameraController(camera.WithPosition(1, 2, 3))
	e, _, r := newTestEngine(t, WithCameraController(cc), WithProfiling(true))

	var callbackDt float32
	e.SetRenderCallback(func(dt float32) { callbackDt = dt })
	e.lastFrame = time.Now()
	e.renderFrame(e.lastFrame.Add(16 * time.Millisecond))

	assert.Equal(t, 1, r.renders)
	assert.InDelta(t, 0.016, callbackDt, 1e-6)
	assert.Equal(t, [3]float32{1, 2, 3}, r.lastCameraPos)
	assert.Equal(t, e.Camera().ViewProjectionMatrix(), r.lastViewProj)
}

func TestRenderFrameSurfaceError(t *testing.T) {
	e, w, r := newTestEngine(t)
	r.renderErr = renderer.ErrSurface

	e.renderFrame(time.Now())
	assert.Equal(t, 1, r.reconfigures)
	assert.Empty(t, r.resizes)

	w.width, w.height = 1024, 512
	e.renderFrame(time.Now())
	assert.Equal(t, [][2]int{{1024, 512}}, r.resizes)
	assert.Equal(t, 1, r.reconfigures)

	// other errors are only logged
	r.renderErr = errors.New("device lost")
	e.renderFrame(time.Now())
	assert.Equal(t, 1, r.reconfigures)
	assert.Len(t, r.resizes, 1)
}

func TestRunAndQuit(t *testing.T) {
	e, w, r := newTestEngine(t)
	w.frames = 10

	require.NoError(t, e.LoadScene(scene.CornellBox()))
	e.SetRenderCallback(func(float32) {
		if r.renders == 2 {
			e.Quit()
		}
	})

	require.NoError(t, e.Run())
	assert.Equal(t, 3, r.renders)
	assert.Equal(t, 1, r.released)
	assert.Equal(t, 1, w.closed)
	assert.Equal(t, 1, r.uploads)

	e.Quit()
}

func TestRunUntilWindowCloses(t *testing.T) {
	e, w, r := newTestEngine(t, WithTickRate(1000))
	w.frames = 4

	require.NoError(t, e.Run())
	assert.Equal(t, 4, r.renders)
	assert.Equal(t, 1, r.released)
	assert.Equal(t, 1, w.closed)
}

func TestFrameLimitOptions(t *testing.T) {
	e, _, _ := newTestEngine(t, WithRenderFrameLimit(50), WithTickRate(0))
	assert.Equal(t, 20*time.Millisecond, e.frameBudget)
	assert.Equal(t, time.Second/60, e.tickRate)

	e.SetRenderFrameLimit(0)
	assert.Zero(t, e.frameBudget)
	e.SetTickRate(100)
	assert.Equal(t, 10*time.Millisecond, e.tickRate)
}
