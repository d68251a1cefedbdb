package pipeline

import (
	"github.com/Carmen-Shannon/voxel-go/engine/renderer/shader"
	"github.com/cogentcore/webgpu/wgpu"
)

// PipelineBuilderOption adjusts a pipeline before it is registered.
type PipelineBuilderOption func(*pipeline)

// WithShader sets the shader whose vertex and fragment entry points the pipeline runs.
//
// Parameters:
//   - s: the shader
//
// Returns:
//   - PipelineBuilderOption: option function to apply
func WithShader(s shader.Shader) PipelineBuilderOption {
	return func(p *pipeline) {
		p.shader = s
	}
}

// WithDepth configures the depth attachment. With test off every fragment passes.
//
// Parameters:
//   - test: compare against the depth buffer with Less
//   - write: store passing fragment depths
//   - format: the depth attachment format
//
// Returns:
//   - PipelineBuilderOption: option function to apply
func WithDepth(test, write bool, format wgpu.TextureFormat) PipelineBuilderOption {
	return func(p *pipeline) {
		p.state.DepthTest = test
		p.state.DepthWrite = write
		p.state.DepthFormat = format
	}
}

// WithBlend sets the color target blend. Nil disables blending.
func WithBlend(blend *wgpu.BlendState) PipelineBuilderOption {
	return func(p *pipeline) {
		p.state.Blend = blend
	}
}

// WithWriteMask limits which color channels the pipeline writes.
func WithWriteMask(mask wgpu.ColorWriteMask) PipelineBuilderOption {
	return func(p *pipeline) {
		p.state.WriteMask = mask
	}
}

// WithPrimitive sets how vertices assemble into primitives and which faces are dropped.
//
// Parameters:
//   - topology: the primitive topology
//   - front: the winding order treated as front facing
//   - cull: the faces to cull
//
// Returns:
//   - PipelineBuilderOption: option function to apply
func WithPrimitive(topology wgpu.PrimitiveTopology, front wgpu.FrontFace, cull wgpu.CullMode) PipelineBuilderOption {
	return func(p *pipeline) {
		p.state.Topology = topology
		p.state.FrontFace = front
		p.state.CullMode = cull
	}
}
