package engine

import (
	"github.com/Carmen-Shannon/voxel-go/engine/camera"
	"github.com/Carmen-Shannon/voxel-go/engine/renderer"
	"github.com/Carmen-Shannon/voxel-go/engine/window"
)

// EngineBuilderOption configures an engine before its window and renderer exist.
type EngineBuilderOption func(*engine)

// WithProfiling starts the engine with the frame profiler on or off.
//
// Parameters:
//   - enabled: whether frames are profiled
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithProfiling(enabled bool) EngineBuilderOption {
	return func(e *engine) {
		e.profiling = enabled
	}
}

// WithTickRate sets the starting tick rate in hertz; values <= 0 keep 60.
func WithTickRate(fps float64) EngineBuilderOption {
	return func(e *engine) {
		if fps > 0 {
			e.tickRate = period(fps)
		}
	}
}

// WithWindow hands the engine an existing window. WithWindowOptions is ignored when set.
//
// Parameters:
//   - w: the window to drive
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithWindow(w window.Window) EngineBuilderOption {
	return func(e *engine) {
		e.window = w
	}
}

// WithWindowOptions adds options for the window the engine creates itself.
func WithWindowOptions(options ...window.WindowBuilderOption) EngineBuilderOption {
	return func(e *engine) {
		e.windowOptions = append(e.windowOptions, options...)
	}
}

// WithRenderer hands the engine an existing renderer, which Run releases on exit.
// WithRendererOptions is ignored when set.
//
// Parameters:
//   - r: the renderer to draw with
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithRenderer(r renderer.Renderer) EngineBuilderOption {
	return func(e *engine) {
		e.renderer = r
	}
}

// WithRendererOptions adds options for the renderer the engine creates itself.
func WithRendererOptions(options ...renderer.RendererBuilderOption) EngineBuilderOption {
	return func(e *engine) {
		e.rendererOptions = append(e.rendererOptions, options...)
	}
}

// WithCameraController replaces the default fly controller, for example with one placed at a
// scene's viewpoint.
func WithCameraController(cc camera.CameraController) EngineBuilderOption {
	return func(e *engine) {
		e.controller = cc
	}
}

// WithRenderFrameLimit caps frames per second; 0 leaves the loop uncapped.
func WithRenderFrameLimit(fps float64) EngineBuilderOption {
	return func(e *engine) {
		e.frameBudget = 0
		if fps > 0 {
			e.frameBudget = period(fps)
		}
	}
}
