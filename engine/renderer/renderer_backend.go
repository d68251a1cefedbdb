package renderer

import (
	"github.com/cogentcore/webgpu/wgpu"
)

// RendererBackendType names a GPU API the renderer can drive.
type RendererBackendType int

const (
	BackendTypeWGPU RendererBackendType = iota
)

// PresentMode selects how finished frames reach the display.
type PresentMode int

const (
	// PresentModeVSync waits for vertical blank. It never tears and is the default.
	PresentModeVSync PresentMode = iota
	// PresentModeUncapped presents immediately, trading tearing for latency.
	PresentModeUncapped
)

// MSAASampleCount is the number of samples per pixel in the frame pass. WebGPU guarantees 1 and 4;
// 8 and 16 depend on the adapter.
type MSAASampleCount uint32

const (
	MSAAOff MSAASampleCount = 1
	MSAA4x  MSAASampleCount = 4
	MSAA8x  MSAASampleCount = 8
	MSAA16x MSAASampleCount = 16
)

// SurfaceSource is anything that can describe a presentable surface and report its size.
// window.Window satisfies it.
type SurfaceSource interface {
	SurfaceDescriptor() *wgpu.SurfaceDescriptor
	Width() int
	Height() int
}

// AdapterInfo describes the GPU adapter selected at construction.
type AdapterInfo struct {
	Name       string
	VendorID   uint32
	DeviceID   uint32
	DeviceType string
	Driver     string
	Backend    string
}

// RendererBackend is what the renderer records frames through. Tests substitute a fake.
type RendererBackend interface {
	wgpuRendererBackend
}
