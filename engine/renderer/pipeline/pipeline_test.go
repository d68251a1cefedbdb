package pipeline

import (
	"testing"

	"github.com/Carmen-Shannon/voxel-go/engine/renderer/shader"
	"github.com/cogentcore/webgpu/wgpu"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewPipelineDefaults(t *testing.T) {
	p := NewPipeline("voxel")

	assert.Equal(t, "voxel", p.PipelineKey())
	assert.Nil(t, p.Shader())
	assert.Nil(t, p.RenderPipeline())

	st := p.State()
	assert.True(t, st.DepthTest)
	assert.True(t, st.DepthWrite)
	assert.Equal(t, wgpu.TextureFormatDepth24PlusStencil8, st.DepthFormat)
	assert.Equal(t, wgpu.CompareFunctionLess, st.DepthCompare())
	assert.Equal(t, wgpu.ColorWriteMaskAll, st.WriteMask)
	assert.Equal(t, wgpu.PrimitiveTopologyTriangleList, st.Topology)
	assert.Equal(t, wgpu.FrontFaceCCW, st.FrontFace)
	assert.Equal(t, wgpu.CullModeNone, st.CullMode)

	require.NotNil(t, st.Blend)
	assert.Equal(t, ReplaceBlend, *st.Blend)
}

func TestDefaultBlendIsNotShared(t *testing.T) {
	a := NewPipeline("a").State().Blend
	b := NewPipeline("b").State().Blend
	a.Color.DstFactor = wgpu.BlendFactorOne

	assert.Equal(t, wgpu.BlendFactorZero, b.Color.DstFactor)
	assert.Equal(t, wgpu.BlendFactorZero, ReplaceBlend.Color.DstFactor)
}

func TestPipelineOptions(t *testing.T) {
	s, err := shader.NewShader("voxel", shader.VoxelSource)
	require.NoError(t, err)

	p := NewPipeline("custom",
		WithShader(s),
		WithDepth(false, false, wgpu.TextureFormatDepth32Float),
		WithBlend(nil),
		WithWriteMask(wgpu.ColorWriteMaskRed),
		WithPrimitive(wgpu.PrimitiveTopologyLineList, wgpu.FrontFaceCW, wgpu.CullModeBack),
	)

	assert.Same(t, s, p.Shader())
	assert.Equal(t, State{
		DepthFormat: wgpu.TextureFormatDepth32Float,
		WriteMask:   wgpu.ColorWriteMaskRed,
		Topology:    wgpu.PrimitiveTopologyLineList,
		FrontFace:   wgpu.FrontFaceCW,
		CullMode:    wgpu.CullModeBack,
	}, p.State())
	assert.Equal(t, wgpu.CompareFunctionAlways, p.State().DepthCompare())
}

func TestBindGroupLayoutLookup(t *testing.T) {
	p := NewPipeline("voxel")
	assert.Nil(t, p.BindGroupLayout(0))

	p.SetRenderPipeline(nil, make([]*wgpu.BindGroupLayout, 3))
	assert.Nil(t, p.BindGroupLayout(-1))
	assert.Nil(t, p.BindGroupLayout(2))
	assert.Nil(t, p.BindGroupLayout(3))

	assert.NotPanics(t, p.Release)
	assert.Nil(t, p.BindGroupLayout(0))
	assert.NotPanics(t, p.Release)
}
