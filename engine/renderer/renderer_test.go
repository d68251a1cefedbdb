package renderer

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"runtime"
	"testing"
	"time"

	"github.com/Carmen-Shannon/voxel-go/common"
	"github.com/Carmen-Shannon/voxel-go/engine/model"
	"github.com/Carmen-Shannon/voxel-go/engine/renderer/bind_group_provider"
	"github.com/Carmen-Shannon/voxel-go/engine/renderer/pipeline"
	"github.com/Carmen-Shannon/voxel-go/engine/scene"
	"github.com/cogentcore/webgpu/wgpu"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeBackend records every call the renderer makes. It holds no GPU objects.
type fakeBackend struct {
	sampleCount   MSAASampleCount
	width, height int

	configureCalls int
	beginErr       error
	failTextureAt  int // 1-based InitVoxelTexture call to fail, 0 never fails
	textureCalls   int

	registered    pipeline.Pipeline
	textured      []bind_group_provider.BindGroupProvider
	textures      map[bind_group_provider.BindGroupProvider]common.VoxelTextureStagingData
	writes        []bind_group_provider.BufferWrite
	ops           []string
	boundObjects  []bind_group_provider.BindGroupProvider
	drawIndexes   []uint32
	drawInstances []uint32
	presented     int
	released      bool
}

var _ RendererBackend = &fakeBackend{}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{
		sampleCount: MSAA4x,
		textures:    make(map[bind_group_provider.BindGroupProvider]common.VoxelTextureStagingData),
	}
}

func (f *fakeBackend) SampleCount() MSAASampleCount { return f.sampleCount }
func (f *fakeBackend) RowAlignment() uint32         { return textureRowAlignment }
func (f *fakeBackend) RenderTargetSize() (int, int) { return f.width, f.height }
func (f *fakeBackend) SetPresentMode(PresentMode)   {}

func (f *fakeBackend) AdapterInfo() AdapterInfo {
	return AdapterInfo{Name: "Fake GPU", VendorID: 0x10de, DeviceID: 0x2684, DeviceType: "DiscreteGPU", Driver: "fake 1.0", Backend: "Vulkan"}
}

func (f *fakeBackend) ConfigureSurface(width, height int) error {
	f.configureCalls++
	f.width, f.height = width, height
	return nil
}

func (f *fakeBackend) RegisterRenderPipeline(p pipeline.Pipeline) error {
	f.registered = p
	p.SetRenderPipeline(nil, make([]*wgpu.BindGroupLayout, len(p.Shader().BindGroupLayoutDescriptors())))
	return nil
}

func (f *fakeBackend) InitMeshBuffers(provider bind_group_provider.BindGroupProvider, vertexData, indexData []byte, indexCount int) error {
	provider.SetIndexCount(indexCount)
	f.ops = append(f.ops, fmt.Sprintf("mesh:%s:%d:%d", provider.Label(), len(vertexData), len(indexData)))
	return nil
}

func (f *fakeBackend) InitBindGroup(provider bind_group_provider.BindGroupProvider, _ *wgpu.BindGroupLayout, descriptor wgpu.BindGroupLayoutDescriptor) error {
	f.ops = append(f.ops, fmt.Sprintf("bindgroup:%s:%d", provider.Label(), len(descriptor.Entries)))
	return nil
}

func (f *fakeBackend) InitVoxelTexture(provider bind_group_provider.BindGroupProvider, _ int, stagingData common.VoxelTextureStagingData) error {
	f.textureCalls++
	f.textured = append(f.textured, provider)
	if f.failTextureAt > 0 && f.textureCalls == f.failTextureAt {
		return errors.New("texture dimension exceeds device limit")
	}
	f.textures[provider] = stagingData
	return nil
}

func (f *fakeBackend) InitSampler(bind_group_provider.BindGroupProvider, int, common.SamplerStagingData) error {
	return nil
}

func (f *fakeBackend) WriteBuffers(writes []bind_group_provider.BufferWrite) {
	f.writes = append(f.writes, writes...)
}

func (f *fakeBackend) BeginFrame(wgpu.Color) error {
	if f.beginErr != nil {
		return f.beginErr
	}
	f.ops = append(f.ops, "begin")
	f.boundObjects = nil
	f.drawIndexes = nil
	f.drawInstances = nil
	return nil
}

func (f *fakeBackend) SetPipeline(p pipeline.Pipeline) {
	f.ops = append(f.ops, "pipeline:"+p.PipelineKey())
}

func (f *fakeBackend) SetBindGroup(group uint32, provider bind_group_provider.BindGroupProvider) {
	f.ops = append(f.ops, fmt.Sprintf("group%d:%s", group, provider.Label()))
	if group == objectGroup {
		f.boundObjects = append(f.boundObjects, provider)
	}
}

func (f *fakeBackend) SetMeshBuffers(provider bind_group_provider.BindGroupProvider) {
	f.ops = append(f.ops, "buffers:"+provider.Label())
}

func (f *fakeBackend) DrawIndexed(indexCount, instanceCount uint32) {
	f.ops = append(f.ops, "draw")
	f.drawIndexes = append(f.drawIndexes, indexCount)
	f.drawInstances = append(f.drawInstances, instanceCount)
}

func (f *fakeBackend) EndFrame() error {
	f.ops = append(f.ops, "end")
	return nil
}

func (f *fakeBackend) Present() {
	f.ops = append(f.ops, "present")
	f.presented++
}

func (f *fakeBackend) Release() {
	f.released = true
}

// lastWrite returns the most recent buffer write targeting the labelled provider and binding.
func (f *fakeBackend) lastWrite(label string, binding int) (bind_group_provider.BufferWrite, bool) {
	for i := len(f.writes) - 1; i >= 0; i-- {
		w := f.writes[i]
		if w.Provider.Label() == label && w.Binding == binding {
			return w, true
		}
	}
	return bind_group_provider.BufferWrite{}, false
}

type fakeSurface struct {
	w, h int
}

func (s fakeSurface) SurfaceDescriptor() *wgpu.SurfaceDescriptor { return nil }
func (s fakeSurface) Width() int                                 { return s.w }
func (s fakeSurface) Height() int                                { return s.h }

func newTestRenderer(t *testing.T, opts ...RendererBuilderOption) (Renderer, *fakeBackend) {
	t.Helper()
	fb := newFakeBackend()
	opts = append([]RendererBuilderOption{withBackend(fb), WithStagingWorkers(2)}, opts...)
	r, err := NewRenderer(fakeSurface{w: 800, h: 600}, opts...)
	require.NoError(t, err)
	t.Cleanup(r.Release)
	return r, fb
}

func testObject(id string, dims [3]uint32, fill uint8) scene.VoxelObject {
	return scene.VoxelObject{
		ID:     id,
		Dims:   dims,
		Voxels: scene.UniformVoxels(dims, fill),
		Model:  common.IdentityMatrix(),
	}
}

func testScene(ids ...string) scene.Scene {
	s := scene.Scene{Palette: []scene.RGBA{{}, {R: 255, A: 255}}}
	for _, id := range ids {
		s.Objects = append(s.Objects, testObject(id, [3]uint32{2, 3, 4}, 1))
	}
	return s
}

func TestNewRendererBuildsStaticResources(t *testing.T) {
	r, fb := newTestRenderer(t)

	assert.Equal(t, 1, fb.configureCalls)
	w, h := r.RenderTargetSize()
	assert.Equal(t, 800, w)
	assert.Equal(t, 600, h)
	assert.Equal(t, MSAA4x, r.SampleCount())

	require.NotNil(t, fb.registered)
	assert.Same(t, r.Pipeline(), fb.registered)
	assert.Equal(t, []string{
		"mesh:cube:480:72",
		"bindgroup:static_uniforms:1",
		"bindgroup:frame_uniforms:1",
	}, fb.ops)

	st := r.Pipeline().State()
	assert.True(t, st.DepthTest)
	assert.True(t, st.DepthWrite)
	assert.Equal(t, wgpu.TextureFormatDepth24PlusStencil8, st.DepthFormat)
	assert.Equal(t, wgpu.CullModeNone, st.CullMode)
	assert.Equal(t, pipeline.ReplaceBlend, *st.Blend)

	assert.Equal(t, "Fake GPU", r.AdapterInfo().Name)
	assert.Equal(t, uint64(0), r.Generation())
	assert.Empty(t, r.DrawCalls())
}

func TestRegisteredLayoutVisibilityFollowsTiers(t *testing.T) {
	_, fb := newTestRenderer(t)
	s := fb.registered.Shader()

	for _, e := range s.BindGroupLayoutDescriptor(staticGroup).Entries {
		assert.Equal(t, wgpu.ShaderStageFragment, e.Visibility)
	}
	for _, e := range s.BindGroupLayoutDescriptor(frameGroup).Entries {
		assert.Equal(t, wgpu.ShaderStageVertex|wgpu.ShaderStageFragment, e.Visibility)
	}

	draw := s.BindGroupLayoutDescriptor(objectGroup)
	require.Len(t, draw.Entries, 2)
	assert.Equal(t, wgpu.ShaderStageFragment, draw.Entries[0].Visibility)
	assert.Equal(t, wgpu.ShaderStageVertex, draw.Entries[1].Visibility)
}

func TestShaderVertexLayoutMatchesCube(t *testing.T) {
	r, _ := newTestRenderer(t)

	layouts := r.Pipeline().Shader().VertexLayouts()
	require.Len(t, layouts, 1)
	assert.Equal(t, model.VertexBufferLayout(), layouts[0])
}

func TestRenderEmptyScene(t *testing.T) {
	r, fb := newTestRenderer(t)
	fb.ops = nil

	require.NoError(t, r.Render(common.IdentityMatrix(), [3]float32{}))
	assert.Equal(t, []string{
		"begin",
		"pipeline:voxel",
		"group0:static_uniforms",
		"group1:frame_uniforms",
		"buffers:cube",
		"end",
		"present",
	}, fb.ops)
	assert.Empty(t, fb.drawIndexes)
}

func TestRenderDrawsEachObjectInUploadOrder(t *testing.T) {
	r, fb := newTestRenderer(t)
	require.NoError(t, r.UploadScene(testScene("c", "a", "b")))

	require.NoError(t, r.Render(common.IdentityMatrix(), [3]float32{1, 2, 3}))

	require.Len(t, fb.boundObjects, 3)
	assert.Equal(t, []uint32{model.CubeIndexCount, model.CubeIndexCount, model.CubeIndexCount}, fb.drawIndexes)
	assert.Equal(t, []uint32{1, 1, 1}, fb.drawInstances)

	labels := make([]string, 0, 3)
	seen := make(map[bind_group_provider.BindGroupProvider]bool)
	for _, p := range fb.boundObjects {
		labels = append(labels, p.Label())
		assert.False(t, seen[p], "tier-2 group bound twice")
		seen[p] = true
	}
	assert.Equal(t, []string{"object_c", "object_a", "object_b"}, labels)

	dcs := r.DrawCalls()
	require.Len(t, dcs, 3)
	for i, dc := range dcs {
		assert.Same(t, fb.boundObjects[i], dc.Provider)
	}
}

func TestUploadReplacesPreviousScene(t *testing.T) {
	r, fb := newTestRenderer(t)

	require.NoError(t, r.UploadScene(testScene("a1", "a2")))
	first := r.DrawCalls()
	require.NoError(t, r.UploadScene(testScene("b1")))
	assert.Equal(t, uint64(2), r.Generation())

	for _, dc := range first {
		assert.True(t, dc.Provider.Released(), dc.ID)
	}

	require.NoError(t, r.Render(common.IdentityMatrix(), [3]float32{}))
	require.Len(t, fb.boundObjects, 1)
	assert.Equal(t, "object_b1", fb.boundObjects[0].Label())
	assert.False(t, fb.boundObjects[0].Released())
	for _, dc := range first {
		assert.NotSame(t, dc.Provider, fb.boundObjects[0])
	}
}

func TestUploadValidationTouchesNothing(t *testing.T) {
	r, fb := newTestRenderer(t)
	require.NoError(t, r.UploadScene(testScene("keep")))
	writes := len(fb.writes)

	bad := testScene("x")
	bad.Objects[0].Voxels = bad.Objects[0].Voxels[:5]

	err := r.UploadScene(bad)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrValidation)
	assert.ErrorIs(t, err, scene.ErrInvalidScene)
	assert.Equal(t, 1, fb.textureCalls)
	assert.Len(t, fb.writes, writes)
	assert.Equal(t, uint64(1), r.Generation())
	require.Len(t, r.DrawCalls(), 1)
	assert.Equal(t, "keep", r.DrawCalls()[0].ID)
}

func TestUploadFailureKeepsPreviousScene(t *testing.T) {
	r, fb := newTestRenderer(t)
	require.NoError(t, r.UploadScene(testScene("old")))
	live := r.DrawCalls()

	fb.textured = nil
	fb.failTextureAt = fb.textureCalls + 2
	err := r.UploadScene(testScene("n1", "n2", "n3"))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrResourceCreation)
	assert.Contains(t, err.Error(), `"n2"`)

	// both the completed object and the failing one are released
	require.Len(t, fb.textured, 2)
	for _, p := range fb.textured {
		assert.True(t, p.Released(), p.Label())
	}

	assert.Equal(t, uint64(1), r.Generation())
	assert.Equal(t, live, r.DrawCalls())
	assert.False(t, live[0].Provider.Released())

	require.NoError(t, r.Render(common.IdentityMatrix(), [3]float32{}))
	require.Len(t, fb.boundObjects, 1)
	assert.Equal(t, "object_old", fb.boundObjects[0].Label())
}

func TestUploadWritesPaletteAndModel(t *testing.T) {
	r, fb := newTestRenderer(t)

	s := testScene()
	obj := testObject("moved", [3]uint32{1, 1, 1}, 1)
	obj.Model = scene.ScaleTranslate([3]float32{2, 2, 2}, [3]float32{5, 6, 7})
	s.Objects = append(s.Objects, obj)
	require.NoError(t, r.UploadScene(s))

	pw, ok := fb.lastWrite("static_uniforms", paletteBinding)
	require.True(t, ok)
	require.Len(t, pw.Data, GPUStaticUniformsSize)
	assert.Equal(t, uint32(0), binary.LittleEndian.Uint32(pw.Data[0:]))
	assert.Equal(t, uint32(0xFF0000FF), binary.LittleEndian.Uint32(pw.Data[4:]))
	assert.Equal(t, uint32(0), binary.LittleEndian.Uint32(pw.Data[8:]))

	mw, ok := fb.lastWrite("object_moved", modelBufferBinding)
	require.True(t, ok)
	require.Len(t, mw.Data, GPUModelDataSize)
	assert.Equal(t, float32(2), math.Float32frombits(binary.LittleEndian.Uint32(mw.Data[0:])))
	assert.Equal(t, float32(5), math.Float32frombits(binary.LittleEndian.Uint32(mw.Data[48:])))
	assert.Equal(t, float32(7), math.Float32frombits(binary.LittleEndian.Uint32(mw.Data[56:])))
}

func TestVoxelTextureRoundTrip(t *testing.T) {
	r, fb := newTestRenderer(t)

	obj := scene.VoxelObject{
		ID:     "cube",
		Dims:   [3]uint32{2, 2, 2},
		Voxels: []byte{0, 1, 2, 3, 4, 5, 6, 7},
		Model:  common.IdentityMatrix(),
	}
	require.NoError(t, r.UploadScene(scene.Scene{Palette: make([]scene.RGBA, 8), Objects: []scene.VoxelObject{obj}}))

	staged := fb.textures[r.DrawCalls()[0].Provider]
	assert.Equal(t, uint32(2), staged.Width)
	assert.Equal(t, uint32(2), staged.Height)
	assert.Equal(t, uint32(2), staged.Depth)
	assert.Equal(t, uint32(textureRowAlignment), staged.BytesPerRow)
	for z := uint32(0); z < 2; z++ {
		for y := uint32(0); y < 2; y++ {
			for x := uint32(0); x < 2; x++ {
				assert.Equal(t, byte(x+y*2+z*4), staged.TexelAt(x, y, z), "texel (%d,%d,%d)", x, y, z)
			}
		}
	}
}

func TestEndToEndSingleVoxel(t *testing.T) {
	r, fb := newTestRenderer(t)

	s := scene.Scene{
		Palette: []scene.RGBA{{R: 255, G: 0, B: 0, A: 255}},
		Objects: []scene.VoxelObject{{
			ID:     "one",
			Dims:   [3]uint32{1, 1, 1},
			Voxels: []byte{0},
			Model:  common.IdentityMatrix(),
		}},
	}
	require.NoError(t, r.UploadScene(s))
	require.NoError(t, r.Render(common.IdentityMatrix(), [3]float32{}))

	require.Len(t, fb.boundObjects, 1)
	staged := fb.textures[fb.boundObjects[0]]
	assert.Equal(t, [3]uint32{1, 1, 1}, [3]uint32{staged.Width, staged.Height, staged.Depth})
	assert.Equal(t, byte(0), staged.TexelAt(0, 0, 0))

	pw, ok := fb.lastWrite("static_uniforms", paletteBinding)
	require.True(t, ok)
	assert.Equal(t, uint32(0xFF0000FF), binary.LittleEndian.Uint32(pw.Data[0:]))

	fw, ok := fb.lastWrite("frame_uniforms", frameUniformsBinding)
	require.True(t, ok)
	identity := GPUFrameUniforms{ViewProj: common.IdentityMatrix()}
	assert.Equal(t, identity.Marshal(), fw.Data)
}

func TestResize(t *testing.T) {
	r, fb := newTestRenderer(t)

	require.NoError(t, r.Resize(1024, 768))
	w, h := r.RenderTargetSize()
	assert.Equal(t, 1024, w)
	assert.Equal(t, 768, h)
	assert.Equal(t, 2, fb.configureCalls)

	require.NoError(t, r.Resize(1024, 768))
	assert.Equal(t, 2, fb.configureCalls)

	require.NoError(t, r.Resize(0, 768))
	require.NoError(t, r.Resize(1024, 0))
	assert.Equal(t, 2, fb.configureCalls)
	w, h = r.RenderTargetSize()
	assert.Equal(t, 1024, w)
	assert.Equal(t, 768, h)

	assert.NoError(t, r.Render(common.IdentityMatrix(), [3]float32{}))
}

func TestRenderSurfaceError(t *testing.T) {
	r, fb := newTestRenderer(t)
	require.NoError(t, r.UploadScene(testScene("a")))

	fb.beginErr = errors.New("surface outdated")
	err := r.Render(common.IdentityMatrix(), [3]float32{})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrSurface)
	assert.Equal(t, 0, fb.presented)

	fb.beginErr = nil
	require.NoError(t, r.Resize(640, 480))
	require.NoError(t, r.Render(common.IdentityMatrix(), [3]float32{}))
	assert.Equal(t, 1, fb.presented)
}

func TestReconfigure(t *testing.T) {
	r, fb := newTestRenderer(t)

	require.NoError(t, r.Reconfigure())
	assert.Equal(t, 2, fb.configureCalls)
	w, h := r.RenderTargetSize()
	assert.Equal(t, 800, w)
	assert.Equal(t, 600, h)
}

func TestRenderWithoutSurfaceSize(t *testing.T) {
	fb := newFakeBackend()
	r, err := NewRenderer(fakeSurface{}, withBackend(fb))
	require.NoError(t, err)
	defer r.Release()

	assert.Equal(t, 0, fb.configureCalls)
	assert.ErrorIs(t, r.Render(common.IdentityMatrix(), [3]float32{}), ErrSurface)
	assert.ErrorIs(t, r.Reconfigure(), ErrSurface)
}

func TestRenderSlices(t *testing.T) {
	r, fb := newTestRenderer(t)

	vp := common.IdentityMatrix()
	assert.ErrorIs(t, r.RenderSlices(vp[:15], []float32{0, 0, 0}), ErrValidation)
	assert.ErrorIs(t, r.RenderSlices(vp[:], []float32{0, 0}), ErrValidation)
	assert.Equal(t, 0, fb.presented)

	require.NoError(t, r.RenderSlices(vp[:], []float32{4, 5, 6}))
	fw, ok := fb.lastWrite("frame_uniforms", frameUniformsBinding)
	require.True(t, ok)
	assert.Equal(t, float32(6), math.Float32frombits(binary.LittleEndian.Uint32(fw.Data[72:])))
}

func TestReleaseFreesEverything(t *testing.T) {
	fb := newFakeBackend()
	r, err := NewRenderer(fakeSurface{w: 10, h: 10}, withBackend(fb))
	require.NoError(t, err)
	require.NoError(t, r.UploadScene(testScene("a", "b")))
	dcs := r.DrawCalls()

	r.Release()
	assert.True(t, fb.released)
	for _, dc := range dcs {
		assert.True(t, dc.Provider.Released())
	}
	assert.Empty(t, r.DrawCalls())
	assert.NotPanics(t, r.Release)
}

func TestReleaseStopsStagingWorkers(t *testing.T) {
	before := runtime.NumGoroutine()
	for range 5 {
		r, err := NewRenderer(fakeSurface{w: 10, h: 10}, withBackend(newFakeBackend()), WithStagingWorkers(4))
		require.NoError(t, err)
		require.NoError(t, r.UploadScene(testScene("a", "b", "c")))
		r.Release()
	}

	assert.Eventually(t, func() bool {
		return runtime.NumGoroutine() <= before
	}, 2*time.Second, 10*time.Millisecond)
}
