package bind_group_provider

import (
	"slices"

	"github.com/cogentcore/webgpu/wgpu"
)

// BindGroupProvider owns the GPU objects bound at one bind group index: the bind group itself and
// the buffer, texture, view or sampler behind each binding. The static palette group, the per-frame
// group and every per-object group are each one provider.
//
// A provider also carries optional geometry (vertex buffer, index buffer, index count) for the
// shared cube. Bind group layouts are not owned here; they belong to the pipeline.
//
// The backend fills a provider, the renderer binds it, and Release frees everything it holds.
type BindGroupProvider interface {
	// Label returns the debug label used for every GPU object created for this provider.
	//
	// Returns:
	//   - string: the debug label
	Label() string

	// Bindings returns the binding indices that hold at least one resource, in ascending order.
	//
	// Returns:
	//   - []int: the occupied binding indices
	Bindings() []int

	// BindGroup returns the bind group, or nil before the backend has created it.
	//
	// Returns:
	//   - *wgpu.BindGroup: the bind group or nil
	BindGroup() *wgpu.BindGroup

	// Buffer returns the buffer at a binding, or nil.
	//
	// Parameters:
	//   - binding: the binding index
	//
	// Returns:
	//   - *wgpu.Buffer: the buffer or nil
	Buffer(binding int) *wgpu.Buffer

	// Texture returns the texture behind the view at a binding, or nil.
	Texture(binding int) *wgpu.Texture

	// TextureView returns the view at a binding, or nil.
	TextureView(binding int) *wgpu.TextureView

	// Sampler returns the sampler stored under a binding key, or nil. Samplers the shader never
	// binds can still be kept here so their lifetime follows the provider.
	Sampler(binding int) *wgpu.Sampler

	VertexBuffer() *wgpu.Buffer
	IndexBuffer() *wgpu.Buffer
	IndexCount() int

	SetBindGroup(bg *wgpu.BindGroup)
	SetBuffer(binding int, buf *wgpu.Buffer)
	SetTexture(binding int, tex *wgpu.Texture)
	SetTextureView(binding int, tv *wgpu.TextureView)
	SetSampler(binding int, s *wgpu.Sampler)
	SetVertexBuffer(buf *wgpu.Buffer)
	SetIndexBuffer(buf *wgpu.Buffer)
	SetIndexCount(count int)

	// Release frees the bind group first, then every binding's resources, then the geometry.
	// Later calls do nothing.
	Release()

	// Released reports whether Release has run. A released provider must not be bound.
	//
	// Returns:
	//   - bool: true once released
	Released() bool
}

// slot is everything stored under one binding index.
type slot struct {
	buffer  *wgpu.Buffer
	texture *wgpu.Texture
	view    *wgpu.TextureView
	sampler *wgpu.Sampler
}

func (s *slot) release() {
	if s.view != nil {
		s.view.Release()
	}
	if s.texture != nil {
		s.texture.Release()
	}
	if s.sampler != nil {
		s.sampler.Release()
	}
	if s.buffer != nil {
		s.buffer.Release()
	}
	*s = slot{}
}

type bindGroupProvider struct {
	label    string
	released bool

	bindGroup *wgpu.BindGroup
	slots     map[int]*slot

	vertexBuffer *wgpu.Buffer
	indexBuffer  *wgpu.Buffer
	indexCount   int
}

var _ BindGroupProvider = &bindGroupProvider{}

// NewBindGroupProvider creates an empty provider.
//
// Parameters:
//   - label: debug label for the provider's GPU objects
//   - options: functional options applied in order
//
// Returns:
//   - BindGroupProvider: the new provider
func NewBindGroupProvider(label string, options ...BindGroupProviderOption) BindGroupProvider {
	p := &bindGroupProvider{
		label: label,
		slots: make(map[int]*slot),
	}
	for _, opt := range options {
		opt(p)
	}
	return p
}

func (p *bindGroupProvider) at(binding int) *slot {
	s, ok := p.slots[binding]
	if !ok {
		s = &slot{}
		p.slots[binding] = s
	}
	return s
}

func (p *bindGroupProvider) get(binding int) slot {
	if s, ok := p.slots[binding]; ok {
		return *s
	}
	return slot{}
}

func (p *bindGroupProvider) Label() string { return p.label }

func (p *bindGroupProvider) Bindings() []int {
	bindings := make([]int, 0, len(p.slots))
	for b, s := range p.slots {
		if *s != (slot{}) {
			bindings = append(bindings, b)
		}
	}
	slices.Sort(bindings)
	return bindings
}

func (p *bindGroupProvider) BindGroup() *wgpu.BindGroup                { return p.bindGroup }
func (p *bindGroupProvider) Buffer(binding int) *wgpu.Buffer           { return p.get(binding).buffer }
func (p *bindGroupProvider) Texture(binding int) *wgpu.Texture         { return p.get(binding).texture }
func (p *bindGroupProvider) TextureView(binding int) *wgpu.TextureView { return p.get(binding).view }
func (p *bindGroupProvider) Sampler(binding int) *wgpu.Sampler         { return p.get(binding).sampler }
func (p *bindGroupProvider) VertexBuffer() *wgpu.Buffer                { return p.vertexBuffer }
func (p *bindGroupProvider) IndexBuffer() *wgpu.Buffer                 { return p.indexBuffer }
func (p *bindGroupProvider) IndexCount() int                           { return p.indexCount }
func (p *bindGroupProvider) Released() bool                            { return p.released }

func (p *bindGroupProvider) SetBindGroup(bg *wgpu.BindGroup)                  { p.bindGroup = bg }
func (p *bindGroupProvider) SetBuffer(binding int, buf *wgpu.Buffer)          { p.at(binding).buffer = buf }
func (p *bindGroupProvider) SetTexture(binding int, tex *wgpu.Texture)        { p.at(binding).texture = tex }
func (p *bindGroupProvider) SetTextureView(binding int, tv *wgpu.TextureView) { p.at(binding).view = tv }
func (p *bindGroupProvider) SetSampler(binding int, s *wgpu.Sampler)          { p.at(binding).sampler = s }
func (p *bindGroupProvider) SetVertexBuffer(buf *wgpu.Buffer)                 { p.vertexBuffer = buf }
func (p *bindGroupProvider) SetIndexBuffer(buf *wgpu.Buffer)                  { p.indexBuffer = buf }
func (p *bindGroupProvider) SetIndexCount(count int)                          { p.indexCount = count }

func (p *bindGroupProvider) Release() {
	if p.released {
		return
	}
	p.released = true

	if p.bindGroup != nil {
		p.bindGroup.Release()
		p.bindGroup = nil
	}
	for _, b := range p.Bindings() {
		p.slots[b].release()
	}
	clear(p.slots)
	if p.vertexBuffer != nil {
		p.vertexBuffer.Release()
		p.vertexBuffer = nil
	}
	if p.indexBuffer != nil {
		p.indexBuffer.Release()
		p.indexBuffer = nil
	}
}
