package renderer

import (
	"github.com/cogentcore/webgpu/wgpu"
)

// RendererBuilderOption configures a renderer before its device is created.
type RendererBuilderOption func(*renderer)

// WithPresentMode picks vsync (the default) or uncapped presentation.
func WithPresentMode(mode PresentMode) RendererBuilderOption {
	return func(r *renderer) {
		r.presentMode = mode
	}
}

// WithMSAA sets the sample count of the frame pass. MSAA4x is the default; MSAA8x and MSAA16x
// only work on adapters that support them.
//
// Parameters:
//   - count: samples per pixel, MSAAOff to render single-sampled
//
// Returns:
//   - RendererBuilderOption: option function to apply
func WithMSAA(count MSAASampleCount) RendererBuilderOption {
	return func(r *renderer) {
		r.sampleCount = count
	}
}

// WithForceSoftwareRenderer requests the fallback adapter, which needs a software Vulkan driver
// such as lavapipe or SwiftShader.
func WithForceSoftwareRenderer(force bool) RendererBuilderOption {
	return func(r *renderer) {
		r.forceFallbackAdapter = force
	}
}

// WithClearColor sets the background color. DefaultClearColor is used otherwise.
func WithClearColor(c wgpu.Color) RendererBuilderOption {
	return func(r *renderer) {
		r.clearColor = c
	}
}

// WithStagingWorkers sets how many goroutines pack voxel textures during UploadScene.
// The default is one less than the CPU count, at least 1.
//
// Parameters:
//   - n: the worker count; values below 1 keep the default
//
// Returns:
//   - RendererBuilderOption: option function to apply
func WithStagingWorkers(n int) RendererBuilderOption {
	return func(r *renderer) {
		if n > 0 {
			r.stagingWorkers = n
		}
	}
}

// withBackend supplies an already constructed backend in place of creating a device.
func withBackend(b RendererBackend) RendererBuilderOption {
	return func(r *renderer) {
		r.injectedBackend = b
	}
}
