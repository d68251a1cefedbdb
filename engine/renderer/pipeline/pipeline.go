package pipeline

import (
	"github.com/Carmen-Shannon/voxel-go/engine/renderer/shader"
	"github.com/cogentcore/webgpu/wgpu"
)

// ReplaceBlend writes the fragment color over the target unchanged.
var ReplaceBlend = wgpu.BlendState{
	Color: wgpu.BlendComponent{SrcFactor: wgpu.BlendFactorOne, DstFactor: wgpu.BlendFactorZero, Operation: wgpu.BlendOperationAdd},
	Alpha: wgpu.BlendComponent{SrcFactor: wgpu.BlendFactorOne, DstFactor: wgpu.BlendFactorZero, Operation: wgpu.BlendOperationAdd},
}

// State is the fixed-function configuration a render pipeline is created with.
type State struct {
	DepthTest   bool
	DepthWrite  bool
	DepthFormat wgpu.TextureFormat

	// Blend is left off the color target when nil.
	Blend     *wgpu.BlendState
	WriteMask wgpu.ColorWriteMask

	Topology  wgpu.PrimitiveTopology
	FrontFace wgpu.FrontFace
	CullMode  wgpu.CullMode
}

// DepthCompare returns Less with depth testing on and Always with it off.
func (s State) DepthCompare() wgpu.CompareFunction {
	if s.DepthTest {
		return wgpu.CompareFunctionLess
	}
	return wgpu.CompareFunctionAlways
}

// Pipeline pairs a shader and its fixed-function State with the GPU objects created from them.
// The GPU side stays nil until a backend registers the pipeline.
type Pipeline interface {
	// PipelineKey returns the key used for labels and lookups.
	PipelineKey() string

	// Shader returns the shader providing both stages, or nil if none was set.
	Shader() shader.Shader

	// State returns a copy of the fixed-function configuration.
	//
	// Returns:
	//   - State: depth, blend, and primitive settings
	State() State

	// RenderPipeline returns the created GPU pipeline, or nil before registration.
	RenderPipeline() *wgpu.RenderPipeline

	// BindGroupLayout returns the layout created for a group index.
	//
	// Parameters:
	//   - group: the bind group index
	//
	// Returns:
	//   - *wgpu.BindGroupLayout: the layout, or nil when the group is out of range or unused
	BindGroupLayout(group int) *wgpu.BindGroupLayout

	// SetRenderPipeline records what a backend created for this pipeline. The pipeline takes
	// ownership of both.
	//
	// Parameters:
	//   - rp: the created render pipeline
	//   - layouts: bind group layouts indexed by group, nil for gaps
	SetRenderPipeline(rp *wgpu.RenderPipeline, layouts []*wgpu.BindGroupLayout)

	// Release frees the GPU pipeline and its layouts. Calling it twice is harmless.
	Release()
}

type pipeline struct {
	key    string
	shader shader.Shader
	state  State

	gpu     *wgpu.RenderPipeline
	layouts []*wgpu.BindGroupLayout
}

var _ Pipeline = &pipeline{}

// NewPipeline describes an opaque, depth-tested triangle-list pipeline: Less against
// Depth24PlusStencil8 with writes on, ReplaceBlend, CCW front faces and no culling.
//
// Parameters:
//   - key: the unique key for this pipeline
//   - opts: options applied over the defaults, in order
//
// Returns:
//   - Pipeline: the unregistered pipeline
func NewPipeline(key string, opts ...PipelineBuilderOption) Pipeline {
	blend := ReplaceBlend
	p := &pipeline{
		key: key,
		state: State{
			DepthTest:   true,
			DepthWrite:  true,
			DepthFormat: wgpu.TextureFormatDepth24PlusStencil8,
			Blend:       &blend,
			WriteMask:   wgpu.ColorWriteMaskAll,
			Topology:    wgpu.PrimitiveTopologyTriangleList,
			FrontFace:   wgpu.FrontFaceCCW,
			CullMode:    wgpu.CullModeNone,
		},
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

func (p *pipeline) PipelineKey() string                  { return p.key }
func (p *pipeline) Shader() shader.Shader                { return p.shader }
func (p *pipeline) State() State                         { return p.state }
func (p *pipeline) RenderPipeline() *wgpu.RenderPipeline { return p.gpu }

func (p *pipeline) BindGroupLayout(group int) *wgpu.BindGroupLayout {
	if group < 0 || group >= len(p.layouts) {
		return nil
	}
	return p.layouts[group]
}

func (p *pipeline) SetRenderPipeline(rp *wgpu.RenderPipeline, layouts []*wgpu.BindGroupLayout) {
	p.gpu = rp
	p.layouts = layouts
}

func (p *pipeline) Release() {
	if p.gpu != nil {
		p.gpu.Release()
		p.gpu = nil
	}
	for _, layout := range p.layouts {
		if layout != nil {
			layout.Release()
		}
	}
	p.layouts = nil
}
