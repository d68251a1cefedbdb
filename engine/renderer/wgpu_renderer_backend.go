package renderer

import (
	"errors"
	"fmt"
	"runtime"

	"github.com/Carmen-Shannon/voxel-go/common"
	"github.com/Carmen-Shannon/voxel-go/engine/renderer/bind_group_provider"
	"github.com/Carmen-Shannon/voxel-go/engine/renderer/pipeline"
	"github.com/cogentcore/webgpu/wgpu"
)

// textureRowAlignment is the bytes-per-row alignment WebGPU requires for texture copies.
const textureRowAlignment = 256

type wgpuRendererBackend interface {
	// AdapterInfo describes the adapter picked when the backend was created.
	//
	// Returns:
	//   - AdapterInfo: the adapter identity
	AdapterInfo() AdapterInfo

	// SampleCount returns the sample count shared by the color target, depth target and pipeline.
	SampleCount() MSAASampleCount

	// RowAlignment returns the padding unit for texture upload rows, in bytes.
	RowAlignment() uint32

	// ConfigureSurface (re)configures the swapchain and rebuilds the color and depth targets at the
	// given size. The old targets are released only once the new ones exist.
	//
	// Parameters:
	//   - width: surface width in pixels
	//   - height: surface height in pixels
	//
	// Returns:
	//   - error: a target could not be created; the previous targets stay in use
	ConfigureSurface(width, height int) error

	// RenderTargetSize returns the size of the last successful ConfigureSurface.
	//
	// Returns:
	//   - int: width in pixels
	//   - int: height in pixels
	RenderTargetSize() (int, int)

	// SetPresentMode picks vsync or immediate presentation for the next ConfigureSurface.
	//
	// Parameters:
	//   - mode: the present mode
	SetPresentMode(mode PresentMode)

	// RegisterRenderPipeline compiles the pipeline's shader and creates its layouts and GPU pipeline,
	// then hands them to the pipeline.
	//
	// Parameters:
	//   - p: a pipeline with a shader set
	//
	// Returns:
	//   - error: any creation failure; nothing is leaked
	RegisterRenderPipeline(p pipeline.Pipeline) error

	// InitMeshBuffers uploads vertex and 16-bit index data into new buffers on the provider.
	//
	// Parameters:
	//   - provider: receives the buffers and index count
	//   - vertexData: interleaved vertex bytes
	//   - indexData: little-endian uint16 indices
	//   - indexCount: indices per draw
	//
	// Returns:
	//   - error: a buffer could not be created
	InitMeshBuffers(provider bind_group_provider.BindGroupProvider, vertexData, indexData []byte, indexCount int) error

	// InitBindGroup builds the provider's bind group against layout. Buffer bindings the provider lacks
	// are created as uniforms of their minimum binding size; texture and sampler bindings must already
	// be set.
	//
	// Parameters:
	//   - provider: holds the resources and receives the bind group
	//   - layout: the layout created from descriptor
	//   - descriptor: the entries to satisfy
	//
	// Returns:
	//   - error: a resource is missing or creation failed
	InitBindGroup(provider bind_group_provider.BindGroupProvider, layout *wgpu.BindGroupLayout, descriptor wgpu.BindGroupLayoutDescriptor) error

	// InitVoxelTexture creates an R8Uint 3D texture, uploads the staged voxels in one write and
	// stores the texture and its view on the provider.
	//
	// Parameters:
	//   - provider: receives the texture and view
	//   - binding: the binding the view is used at
	//   - stagingData: row-padded voxel bytes and extent
	//
	// Returns:
	//   - error: the texture or view could not be created
	InitVoxelTexture(provider bind_group_provider.BindGroupProvider, binding int, stagingData common.VoxelTextureStagingData) error

	// InitSampler creates a sampler, filling unset staging fields with nearest filtering and
	// clamp-to-edge addressing.
	//
	// Parameters:
	//   - provider: receives the sampler
	//   - binding: the binding the sampler is used at
	//   - stagingData: the sampler settings
	//
	// Returns:
	//   - error: the sampler could not be created
	InitSampler(provider bind_group_provider.BindGroupProvider, binding int, stagingData common.SamplerStagingData) error

	// WriteBuffers queues each write in order. Writes to bindings without a buffer are skipped.
	//
	// Parameters:
	//   - writes: the queued writes
	WriteBuffers(writes []bind_group_provider.BufferWrite)

	// BeginFrame acquires the swapchain texture and opens the render pass, clearing color and depth.
	// EndFrame and Present must follow.
	//
	// Parameters:
	//   - clear: the clear color
	//
	// Returns:
	//   - error: the texture could not be acquired or a frame is still open
	BeginFrame(clear wgpu.Color) error

	SetPipeline(p pipeline.Pipeline)
	SetBindGroup(group uint32, provider bind_group_provider.BindGroupProvider)
	SetMeshBuffers(provider bind_group_provider.BindGroupProvider)
	DrawIndexed(indexCount, instanceCount uint32)

	// EndFrame closes the pass and submits the recorded commands.
	//
	// Returns:
	//   - error: the command buffer could not be finished
	EndFrame() error

	// Present shows the submitted frame and drops the swapchain texture.
	Present()

	// Release frees every GPU object the backend owns, children before parents.
	Release()
}

type wgpuRendererBackendImpl struct {
	instance *wgpu.Instance
	surface  *wgpu.Surface
	adapter  *wgpu.Adapter
	device   *wgpu.Device
	queue    *wgpu.Queue

	adapterInfo   AdapterInfo
	surfaceFormat wgpu.TextureFormat
	presentMode   wgpu.PresentMode
	sampleCount   MSAASampleCount

	targets *renderTargets
	frame   *frameState
}

var _ RendererBackend = &wgpuRendererBackendImpl{}

func newWGPURendererBackend(surfaceDescriptor *wgpu.SurfaceDescriptor, forceFallbackAdapter bool, sampleCount MSAASampleCount, presentMode PresentMode) (wgpuRendererBackend, error) {
	if surfaceDescriptor == nil {
		return nil, errors.New("no surface descriptor")
	}

	// wgpu-native calls must stay on the thread that owns the surface.
	runtime.LockOSThread()

	b := &wgpuRendererBackendImpl{
		instance:    wgpu.CreateInstance(nil),
		sampleCount: sampleCount,
	}
	b.SetPresentMode(presentMode)
	b.surface = b.instance.CreateSurface(surfaceDescriptor)

	if err := b.openDevice(forceFallbackAdapter); err != nil {
		b.Release()
		return nil, err
	}

	formats := b.surface.GetCapabilities(b.adapter).Formats
	if len(formats) == 0 {
		b.Release()
		return nil, errors.New("surface reports no supported formats")
	}
	b.surfaceFormat = formats[0]
	return b, nil
}

func (b *wgpuRendererBackendImpl) openDevice(forceFallback bool) error {
	adapter, err := b.instance.RequestAdapter(&wgpu.RequestAdapterOptions{
		ForceFallbackAdapter: forceFallback,
		PowerPreference:      wgpu.PowerPreferenceHighPerformance,
		CompatibleSurface:    b.surface,
	})
	if err != nil {
		return fmt.Errorf("request adapter: %w", err)
	}
	b.adapter = adapter

	props := adapter.GetInfo()
	b.adapterInfo = AdapterInfo{
		Name:       props.Name,
		VendorID:   props.VendorId,
		DeviceID:   props.DeviceId,
		DeviceType: fmt.Sprint(props.AdapterType),
		Driver:     props.DriverDescription,
		Backend:    fmt.Sprint(props.BackendType),
	}
	common.Logger().Info("gpu adapter selected",
		"name", b.adapterInfo.Name,
		"type", b.adapterInfo.DeviceType,
		"backend", b.adapterInfo.Backend,
		"driver", b.adapterInfo.Driver)

	device, err := adapter.RequestDevice(&wgpu.DeviceDescriptor{Label: "voxel device"})
	if err != nil {
		return fmt.Errorf("request device: %w", err)
	}
	b.device = device
	b.queue = device.GetQueue()
	return nil
}

func (b *wgpuRendererBackendImpl) AdapterInfo() AdapterInfo     { return b.adapterInfo }
func (b *wgpuRendererBackendImpl) SampleCount() MSAASampleCount { return b.sampleCount }
func (b *wgpuRendererBackendImpl) RowAlignment() uint32         { return textureRowAlignment }

func (b *wgpuRendererBackendImpl) SetPresentMode(mode PresentMode) {
	if mode == PresentModeUncapped {
		b.presentMode = wgpu.PresentModeImmediate
		return
	}
	b.presentMode = wgpu.PresentModeFifo
}

func (b *wgpuRendererBackendImpl) Release() {
	b.frame.release()
	b.frame = nil
	b.targets.release()
	b.targets = nil

	if b.queue != nil {
		b.queue.Release()
	}
	if b.device != nil {
		b.device.Release()
	}
	if b.adapter != nil {
		b.adapter.Release()
	}
	if b.surface != nil {
		b.surface.Release()
	}
	if b.instance != nil {
		b.instance.Release()
	}
	b.queue, b.device, b.adapter, b.surface, b.instance = nil, nil, nil, nil, nil
}
