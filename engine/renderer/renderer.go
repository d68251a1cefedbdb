package renderer

import (
	"fmt"
	"runtime"
	"sync"

	"github.com/Carmen-Shannon/automation/tools/worker"
	"github.com/Carmen-Shannon/voxel-go/common"
	"github.com/Carmen-Shannon/voxel-go/engine/model"
	"github.com/Carmen-Shannon/voxel-go/engine/renderer/bind_group_provider"
	"github.com/Carmen-Shannon/voxel-go/engine/renderer/pipeline"
	"github.com/Carmen-Shannon/voxel-go/engine/renderer/shader"
	"github.com/Carmen-Shannon/voxel-go/engine/scene"
	"github.com/cogentcore/webgpu/wgpu"
)

// Bind group tiers, ordered by update frequency.
const (
	staticGroup = 0 // palette, rewritten per upload
	frameGroup  = 1 // view-projection and camera, rewritten per frame
	objectGroup = 2 // voxel texture and model matrix, one per draw
)

const (
	paletteBinding       = 0
	frameUniformsBinding = 0
)

const voxelPipelineKey = "voxel"

// DefaultClearColor is the pale sky blue the color target is cleared to.
var DefaultClearColor = wgpu.Color{R: 0.53, G: 0.81, B: 0.92, A: 1.0}

// renderer is the implementation of the Renderer interface.
type renderer struct {
	backendType RendererBackendType
	backend     RendererBackend
	released    bool

	// Pre-creation config collected from builder options
	forceFallbackAdapter bool
	presentMode          PresentMode
	sampleCount          MSAASampleCount
	clearColor           wgpu.Color
	stagingWorkers       int
	injectedBackend      RendererBackend

	// Static resource set, built once
	shader   shader.Shader
	pipeline pipeline.Pipeline
	cube     bind_group_provider.BindGroupProvider
	static   bind_group_provider.BindGroupProvider
	frame    bind_group_provider.BindGroupProvider

	// stagingPool runs the CPU side of UploadScene. Workers persist across uploads until Release.
	stagingPool *stagingPool

	// drawCalls is the live scene, replaced wholesale by UploadScene.
	drawCalls  []DrawCallResource
	generation uint64

	frameUniforms GPUFrameUniforms
	frameWrites   []bind_group_provider.BufferWrite // reused every Render
}

// Renderer draws a scene of voxel objects as textured unit cubes through a multisampled, depth-tested pass.
//
// Resources are bound in three tiers: a static palette group, a per-frame camera group, and one group per object
// holding its voxel texture and model matrix. A Renderer is not safe for concurrent use; NewRenderer, UploadScene,
// Resize, Render and Release must all be called from the thread that created it.
type Renderer interface {
	// UploadScene validates the scene, builds GPU resources for every object, uploads the palette, and then replaces
	// the live scene. The previous scene's resources are released after the swap. If validation or any allocation
	// fails, the previous scene stays live and every resource built by this call is released.
	//
	// Parameters:
	//   - s: the scene to upload
	//
	// Returns:
	//   - error: ErrValidation or ErrResourceCreation wrapped with details, otherwise nil
	UploadScene(s scene.Scene) error

	// Render draws one frame of the live scene and presents it.
	//
	// Parameters:
	//   - viewProj: the column-major view-projection matrix
	//   - cameraPos: the camera position in world space
	//
	// Returns:
	//   - error: ErrSurface if the next frame could not be acquired, otherwise nil
	Render(viewProj [16]float32, cameraPos [3]float32) error

	// RenderSlices is Render for callers holding slices. The view-projection must have 16 elements and the camera
	// position 3.
	//
	// Parameters:
	//   - viewProj: the column-major view-projection matrix
	//   - cameraPos: the camera position in world space
	//
	// Returns:
	//   - error: ErrValidation on a length mismatch, otherwise the result of Render
	RenderSlices(viewProj, cameraPos []float32) error

	// Resize reconfigures the surface and recreates the MSAA color and depth targets at the new size.
	// Zero-sized requests, as sent for a minimized window, are ignored. Repeating the current size is a no-op.
	//
	// Parameters:
	//   - width: the new width of the surface in pixels
	//   - height: the new height of the surface in pixels
	//
	// Returns:
	//   - error: ErrResourceCreation if a render target could not be created
	Resize(width, height int) error

	// Reconfigure configures the surface again at its current size. Callers use it after Render reports ErrSurface
	// for a lost or outdated surface whose size has not changed.
	//
	// Returns:
	//   - error: ErrSurface if no size was ever configured, ErrResourceCreation if a render target could not be created
	Reconfigure() error

	// AdapterInfo returns the identity of the GPU adapter in use.
	//
	// Returns:
	//   - AdapterInfo: the adapter name, ids, device type, driver and backend
	AdapterInfo() AdapterInfo

	// DrawCalls returns a copy of the live draw-call list in upload order.
	//
	// Returns:
	//   - []DrawCallResource: one entry per object of the live scene
	DrawCalls() []DrawCallResource

	// Generation returns the number of successful scene uploads.
	//
	// Returns:
	//   - uint64: the upload count
	Generation() uint64

	// RenderTargetSize returns the size of the current surface and render targets.
	//
	// Returns:
	//   - int: width in pixels
	//   - int: height in pixels
	RenderTargetSize() (int, int)

	// SampleCount returns the MSAA sample count of the pipeline and render targets.
	//
	// Returns:
	//   - MSAASampleCount: the sample count
	SampleCount() MSAASampleCount

	// Pipeline returns the voxel render pipeline.
	//
	// Returns:
	//   - pipeline.Pipeline: the registered pipeline
	Pipeline() pipeline.Pipeline

	// Release frees the live scene, the static resources, the render targets and the device.
	// Safe to call more than once.
	Release()
}

var _ Renderer = &renderer{}

// NewRenderer creates the device and surface for the given source, configures the surface at the source's size,
// and builds the static resource set: cube geometry, the three bind group layouts, the palette and frame uniform
// groups, and the voxel pipeline.
//
// Parameters:
//   - surface: the presentable surface, typically a window.Window
//   - options: variadic list of RendererBuilderOption functions to configure the Renderer
//
// Returns:
//   - Renderer: the created renderer with an empty scene
//   - error: ErrInitialization wrapped with details
func NewRenderer(surface SurfaceSource, options ...RendererBuilderOption) (Renderer, error) {
	r := &renderer{
		backendType:    BackendTypeWGPU,
		presentMode:    PresentModeVSync,
		sampleCount:    MSAA4x,
		clearColor:     DefaultClearColor,
		stagingWorkers: max(runtime.NumCPU()-1, 1),
	}
	for _, option := range options {
		option(r)
	}

	if r.injectedBackend != nil {
		r.backend = r.injectedBackend
	} else {
		switch r.backendType {
		case BackendTypeWGPU:
			b, err := newWGPURendererBackend(surface.SurfaceDescriptor(), r.forceFallbackAdapter, r.sampleCount, r.presentMode)
			if err != nil {
				return nil, fmt.Errorf("%w: %w", ErrInitialization, err)
			}
			r.backend = b
		default:
			return nil, fmt.Errorf("%w: unsupported backend type %d", ErrInitialization, r.backendType)
		}
	}

	if err := r.initStaticResources(surface.Width(), surface.Height()); err != nil {
		r.Release()
		return nil, fmt.Errorf("%w: %w", ErrInitialization, err)
	}

	r.stagingPool = newStagingPool(r.stagingWorkers)
	r.frameWrites = make([]bind_group_provider.BufferWrite, 1)

	return r, nil
}

func (r *renderer) initStaticResources(width, height int) error {
	if width > 0 && height > 0 {
		if err := r.backend.ConfigureSurface(width, height); err != nil {
			return fmt.Errorf("configure surface: %w", err)
		}
	}

	s, err := shader.NewShader(voxelPipelineKey, shader.VoxelSource,
		shader.WithGroupVisibility(staticGroup, wgpu.ShaderStageFragment),
		shader.WithGroupVisibility(frameGroup, wgpu.ShaderStageVertex|wgpu.ShaderStageFragment))
	if err != nil {
		return err
	}
	if err := checkShaderBindings(s); err != nil {
		return err
	}
	r.shader = s

	r.pipeline = pipeline.NewPipeline(voxelPipelineKey, pipeline.WithShader(s))
	if err := r.backend.RegisterRenderPipeline(r.pipeline); err != nil {
		return fmt.Errorf("register pipeline: %w", err)
	}

	r.cube = bind_group_provider.NewBindGroupProvider("cube")
	if err := r.backend.InitMeshBuffers(r.cube, model.CubeVertexData(), model.CubeIndexData(), model.CubeIndexCount); err != nil {
		return fmt.Errorf("cube buffers: %w", err)
	}

	r.static = bind_group_provider.NewBindGroupProvider("static_uniforms")
	if err := r.backend.InitBindGroup(r.static, r.pipeline.BindGroupLayout(staticGroup), s.BindGroupLayoutDescriptor(staticGroup)); err != nil {
		return fmt.Errorf("static bind group: %w", err)
	}

	r.frame = bind_group_provider.NewBindGroupProvider("frame_uniforms")
	if err := r.backend.InitBindGroup(r.frame, r.pipeline.BindGroupLayout(frameGroup), s.BindGroupLayoutDescriptor(frameGroup)); err != nil {
		return fmt.Errorf("frame bind group: %w", err)
	}

	return nil
}

// checkShaderBindings verifies the shader declares each resource where the renderer binds it.
func checkShaderBindings(s shader.Shader) error {
	expected := []struct {
		group, binding int
		name           string
	}{
		{staticGroup, paletteBinding, "static_uniforms"},
		{frameGroup, frameUniformsBinding, "per_frame"},
		{objectGroup, voxelTextureBinding, "voxels"},
		{objectGroup, modelBufferBinding, "model_data"},
	}
	for _, e := range expected {
		if got := s.BindGroupVarName(e.group, e.binding); got != e.name {
			return fmt.Errorf("shader %s: group %d binding %d is %q, want %q", s.Key(), e.group, e.binding, got, e.name)
		}
	}
	return nil
}

func (r *renderer) UploadScene(s scene.Scene) error {
	if err := s.Validate(); err != nil {
		return fmt.Errorf("%w: %w", ErrValidation, err)
	}

	staged := r.stageObjects(s.Objects)

	next := make([]DrawCallResource, 0, len(s.Objects))
	for i, obj := range s.Objects {
		dc, err := r.createDrawCall(obj, staged[i])
		if err != nil {
			releaseDrawCalls(next)
			return fmt.Errorf("%w: object %q: %w", ErrResourceCreation, obj.ID, err)
		}
		next = append(next, dc)
	}

	palette := PackPalette(s.Palette)
	r.backend.WriteBuffers([]bind_group_provider.BufferWrite{
		{Provider: r.static, Binding: paletteBinding, Offset: 0, Data: palette.Marshal()},
	})

	prev := r.drawCalls
	r.drawCalls = next
	r.generation++
	releaseDrawCalls(prev)

	common.Logger().Debug("scene uploaded",
		"objects", len(next),
		"palette", len(s.Palette),
		"generation", r.generation,
		"released", len(prev))
	return nil
}

// stagedObject is the CPU-side upload data for one voxel object.
type stagedObject struct {
	texture common.VoxelTextureStagingData
	model   []byte
}

// stageObjects pads voxel rows and marshals model matrices on the staging pool. Results keep the input order.
func (r *renderer) stageObjects(objects []scene.VoxelObject) []stagedObject {
	staged := make([]stagedObject, len(objects))
	alignment := r.backend.RowAlignment()

	var wg sync.WaitGroup
	for i := range objects {
		wg.Add(1)
		idx := i
		r.stagingPool.submit(worker.Task{
			ID: idx,
			Do: func() (any, error) {
				defer wg.Done()
				obj := objects[idx]
				md := GPUModelData{Model: obj.Model}
				staged[idx] = stagedObject{
					texture: stageVoxelTexture(obj, alignment),
					model:   md.Marshal(),
				}
				return nil, nil
			},
		})
	}
	wg.Wait()
	return staged
}

func (r *renderer) createDrawCall(obj scene.VoxelObject, staged stagedObject) (DrawCallResource, error) {
	provider := bind_group_provider.NewBindGroupProvider("object_"+obj.ID,
		bind_group_provider.WithIndexCount(model.CubeIndexCount))

	fail := func(step string, err error) (DrawCallResource, error) {
		provider.Release()
		return DrawCallResource{}, fmt.Errorf("%s: %w", step, err)
	}

	if err := r.backend.InitVoxelTexture(provider, voxelTextureBinding, staged.texture); err != nil {
		return fail("voxel texture", err)
	}
	// Integer textures are read with textureLoad, so the sampler is kept with the object but never bound.
	if err := r.backend.InitSampler(provider, voxelSamplerKey, common.SamplerStagingData{}); err != nil {
		return fail("sampler", err)
	}
	if err := r.backend.InitBindGroup(provider, r.pipeline.BindGroupLayout(objectGroup), r.shader.BindGroupLayoutDescriptor(objectGroup)); err != nil {
		return fail("bind group", err)
	}
	r.backend.WriteBuffers([]bind_group_provider.BufferWrite{
		{Provider: provider, Binding: modelBufferBinding, Offset: 0, Data: staged.model},
	})

	return DrawCallResource{ID: obj.ID, Dims: obj.Dims, Provider: provider}, nil
}

func (r *renderer) Render(viewProj [16]float32, cameraPos [3]float32) error {
	if w, h := r.backend.RenderTargetSize(); w <= 0 || h <= 0 {
		return fmt.Errorf("%w: surface not configured", ErrSurface)
	}

	r.frameUniforms.ViewProj = viewProj
	r.frameUniforms.CameraPosition = cameraPos
	r.frameWrites[0] = bind_group_provider.BufferWrite{
		Provider: r.frame,
		Binding:  frameUniformsBinding,
		Offset:   0,
		Data:     r.frameUniforms.Marshal(),
	}
	r.backend.WriteBuffers(r.frameWrites)

	if err := r.backend.BeginFrame(r.clearColor); err != nil {
		common.Logger().Warn("surface frame acquisition failed", "error", err)
		return fmt.Errorf("%w: %w", ErrSurface, err)
	}

	r.backend.SetPipeline(r.pipeline)
	r.backend.SetBindGroup(staticGroup, r.static)
	r.backend.SetBindGroup(frameGroup, r.frame)
	r.backend.SetMeshBuffers(r.cube)

	for _, dc := range r.drawCalls {
		r.backend.SetBindGroup(objectGroup, dc.Provider)
		r.backend.DrawIndexed(uint32(dc.Provider.IndexCount()), 1)
	}

	if err := r.backend.EndFrame(); err != nil {
		return fmt.Errorf("submit frame: %w", err)
	}
	r.backend.Present()
	return nil
}

func (r *renderer) RenderSlices(viewProj, cameraPos []float32) error {
	if len(viewProj) != 16 {
		return fmt.Errorf("%w: view-projection has %d elements, want 16", ErrValidation, len(viewProj))
	}
	if len(cameraPos) != 3 {
		return fmt.Errorf("%w: camera position has %d elements, want 3", ErrValidation, len(cameraPos))
	}
	return r.Render([16]float32(viewProj), [3]float32(cameraPos))
}

func (r *renderer) Resize(width, height int) error {
	if width <= 0 || height <= 0 {
		return nil
	}
	if w, h := r.backend.RenderTargetSize(); w == width && h == height {
		return nil
	}
	if err := r.backend.ConfigureSurface(width, height); err != nil {
		return fmt.Errorf("%w: render targets %dx%d: %w", ErrResourceCreation, width, height, err)
	}
	return nil
}

func (r *renderer) Reconfigure() error {
	w, h := r.backend.RenderTargetSize()
	if w <= 0 || h <= 0 {
		return fmt.Errorf("%w: surface not configured", ErrSurface)
	}
	if err := r.backend.ConfigureSurface(w, h); err != nil {
		return fmt.Errorf("%w: render targets %dx%d: %w", ErrResourceCreation, w, h, err)
	}
	common.Logger().Debug("surface reconfigured", "width", w, "height", h)
	return nil
}

func (r *renderer) AdapterInfo() AdapterInfo {
	return r.backend.AdapterInfo()
}

func (r *renderer) DrawCalls() []DrawCallResource {
	out := make([]DrawCallResource, len(r.drawCalls))
	copy(out, r.drawCalls)
	return out
}

func (r *renderer) Generation() uint64 {
	return r.generation
}

func (r *renderer) RenderTargetSize() (int, int) {
	return r.backend.RenderTargetSize()
}

func (r *renderer) SampleCount() MSAASampleCount {
	return r.backend.SampleCount()
}

func (r *renderer) Pipeline() pipeline.Pipeline {
	return r.pipeline
}

func (r *renderer) Release() {
	if r.released {
		return
	}
	r.released = true

	r.stagingPool.close()
	releaseDrawCalls(r.drawCalls)
	r.drawCalls = nil
	for _, p := range []bind_group_provider.BindGroupProvider{r.static, r.frame, r.cube} {
		if p != nil {
			p.Release()
		}
	}
	if r.pipeline != nil {
		r.pipeline.Release()
	}
	if r.backend != nil {
		r.backend.Release()
	}
}
