package renderer

import (
	"errors"
	"fmt"
	"slices"

	"github.com/Carmen-Shannon/voxel-go/common"
	"github.com/Carmen-Shannon/voxel-go/engine/renderer/bind_group_provider"
	"github.com/Carmen-Shannon/voxel-go/engine/renderer/pipeline"
	"github.com/Carmen-Shannon/voxel-go/engine/renderer/shader"
	"github.com/cogentcore/webgpu/wgpu"
)

func releaseLayouts(layouts []*wgpu.BindGroupLayout) {
	for _, l := range layouts {
		if l != nil {
			l.Release()
		}
	}
}

// createLayouts creates one layout per declared group, indexed by group number.
// Undeclared groups below the highest one stay nil.
func (b *wgpuRendererBackendImpl) createLayouts(descriptors map[int]wgpu.BindGroupLayoutDescriptor) ([]*wgpu.BindGroupLayout, error) {
	groups := make([]int, 0, len(descriptors))
	for g := range descriptors {
		groups = append(groups, g)
	}
	slices.Sort(groups)

	size := 0
	if len(groups) > 0 {
		size = groups[len(groups)-1] + 1
	}
	layouts := make([]*wgpu.BindGroupLayout, size)
	for _, g := range groups {
		desc := descriptors[g]
		layout, err := b.device.CreateBindGroupLayout(&desc)
		if err != nil {
			releaseLayouts(layouts)
			return nil, fmt.Errorf("bind group layout %d: %w", g, err)
		}
		layouts[g] = layout
	}
	return layouts, nil
}

func (b *wgpuRendererBackendImpl) RegisterRenderPipeline(p pipeline.Pipeline) error {
	s := p.Shader()
	if s == nil {
		return fmt.Errorf("pipeline %s has no shader", p.PipelineKey())
	}

	module, err := b.device.CreateShaderModule(s.Module())
	if err != nil {
		return fmt.Errorf("shader module %s: %w", p.PipelineKey(), err)
	}
	defer module.Release()

	layouts, err := b.createLayouts(s.BindGroupLayoutDescriptors())
	if err != nil {
		return err
	}
	pipelineLayout, err := b.device.CreatePipelineLayout(&wgpu.PipelineLayoutDescriptor{
		Label:            p.PipelineKey(),
		BindGroupLayouts: layouts,
	})
	if err != nil {
		releaseLayouts(layouts)
		return fmt.Errorf("pipeline layout %s: %w", p.PipelineKey(), err)
	}
	defer pipelineLayout.Release()

	st := p.State()
	keep := wgpu.StencilFaceState{Compare: wgpu.CompareFunctionAlways}
	rp, err := b.device.CreateRenderPipeline(&wgpu.RenderPipelineDescriptor{
		Label:  p.PipelineKey(),
		Layout: pipelineLayout,
		Vertex: wgpu.VertexState{
			Module:     module,
			EntryPoint: s.EntryPoint(shader.ShaderTypeVertex),
			Buffers:    s.VertexLayouts(),
		},
		Fragment: &wgpu.FragmentState{
			Module:     module,
			EntryPoint: s.EntryPoint(shader.ShaderTypeFragment),
			Targets: []wgpu.ColorTargetState{{
				Format:    b.surfaceFormat,
				Blend:     st.Blend,
				WriteMask: st.WriteMask,
			}},
		},
		Primitive: wgpu.PrimitiveState{
			Topology:  st.Topology,
			FrontFace: st.FrontFace,
			CullMode:  st.CullMode,
		},
		Multisample: wgpu.MultisampleState{
			Count: uint32(b.sampleCount),
			Mask:  ^uint32(0),
		},
		DepthStencil: &wgpu.DepthStencilState{
			Format:            st.DepthFormat,
			DepthWriteEnabled: st.DepthWrite,
			DepthCompare:      st.DepthCompare(),
			StencilFront:      keep,
			StencilBack:       keep,
		},
	})
	if err != nil {
		releaseLayouts(layouts)
		return fmt.Errorf("render pipeline %s: %w", p.PipelineKey(), err)
	}

	p.SetRenderPipeline(rp, layouts)
	return nil
}

// uploadBuffer creates a buffer of the given usage and queues data into it.
// The buffer is rounded up to the 4 byte multiple queue writes require.
func (b *wgpuRendererBackendImpl) uploadBuffer(label string, usage wgpu.BufferUsage, data []byte) (*wgpu.Buffer, error) {
	if rem := len(data) % 4; rem != 0 {
		data = append(slices.Clone(data), make([]byte, 4-rem)...)
	}
	buf, err := b.device.CreateBuffer(&wgpu.BufferDescriptor{
		Label: label,
		Size:  uint64(len(data)),
		Usage: usage | wgpu.BufferUsageCopyDst,
	})
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", label, err)
	}
	b.queue.WriteBuffer(buf, 0, data)
	return buf, nil
}

func (b *wgpuRendererBackendImpl) InitMeshBuffers(provider bind_group_provider.BindGroupProvider, vertexData, indexData []byte, indexCount int) error {
	if len(vertexData) > 0 {
		buf, err := b.uploadBuffer(provider.Label()+" vertices", wgpu.BufferUsageVertex, vertexData)
		if err != nil {
			return err
		}
		provider.SetVertexBuffer(buf)
	}
	if len(indexData) > 0 {
		buf, err := b.uploadBuffer(provider.Label()+" indices", wgpu.BufferUsageIndex, indexData)
		if err != nil {
			return err
		}
		provider.SetIndexBuffer(buf)
	}
	provider.SetIndexCount(indexCount)
	return nil
}

// bindGroupEntry resolves one layout entry to the provider's resource at the same binding.
func (b *wgpuRendererBackendImpl) bindGroupEntry(provider bind_group_provider.BindGroupProvider, entry wgpu.BindGroupLayoutEntry) (wgpu.BindGroupEntry, error) {
	binding := int(entry.Binding)
	out := wgpu.BindGroupEntry{Binding: entry.Binding}

	switch {
	case entry.Texture.SampleType != wgpu.TextureSampleTypeUndefined:
		out.TextureView = provider.TextureView(binding)
		if out.TextureView == nil {
			return out, fmt.Errorf("%s: binding %d has no texture view", provider.Label(), binding)
		}
	case entry.Sampler.Type != wgpu.SamplerBindingTypeUndefined:
		out.Sampler = provider.Sampler(binding)
		if out.Sampler == nil {
			return out, fmt.Errorf("%s: binding %d has no sampler", provider.Label(), binding)
		}
	default:
		buf := provider.Buffer(binding)
		if buf == nil {
			var err error
			buf, err = b.device.CreateBuffer(&wgpu.BufferDescriptor{
				Label: fmt.Sprintf("%s binding %d", provider.Label(), binding),
				Size:  entry.Buffer.MinBindingSize,
				Usage: wgpu.BufferUsageUniform | wgpu.BufferUsageCopyDst,
			})
			if err != nil {
				return out, fmt.Errorf("%s: binding %d: %w", provider.Label(), binding, err)
			}
			provider.SetBuffer(binding, buf)
		}
		out.Buffer = buf
		out.Size = wgpu.WholeSize
	}
	return out, nil
}

func (b *wgpuRendererBackendImpl) InitBindGroup(provider bind_group_provider.BindGroupProvider, layout *wgpu.BindGroupLayout, descriptor wgpu.BindGroupLayoutDescriptor) error {
	if len(descriptor.Entries) == 0 {
		return nil
	}
	if layout == nil {
		return errors.New("bind group layout is nil, register the pipeline first")
	}

	entries := make([]wgpu.BindGroupEntry, 0, len(descriptor.Entries))
	for _, le := range descriptor.Entries {
		e, err := b.bindGroupEntry(provider, le)
		if err != nil {
			return err
		}
		entries = append(entries, e)
	}

	group, err := b.device.CreateBindGroup(&wgpu.BindGroupDescriptor{
		Label:   provider.Label(),
		Layout:  layout,
		Entries: entries,
	})
	if err != nil {
		return fmt.Errorf("bind group %s: %w", provider.Label(), err)
	}
	provider.SetBindGroup(group)
	return nil
}

func (b *wgpuRendererBackendImpl) InitVoxelTexture(provider bind_group_provider.BindGroupProvider, binding int, stagingData common.VoxelTextureStagingData) error {
	extent := wgpu.Extent3D{
		Width:              stagingData.Width,
		Height:             stagingData.Height,
		DepthOrArrayLayers: stagingData.Depth,
	}
	tex, err := b.device.CreateTexture(&wgpu.TextureDescriptor{
		Label:         provider.Label() + " voxels",
		Usage:         wgpu.TextureUsageTextureBinding | wgpu.TextureUsageCopyDst,
		Dimension:     wgpu.TextureDimension3D,
		Size:          extent,
		Format:        wgpu.TextureFormatR8Uint,
		MipLevelCount: 1,
		SampleCount:   1,
	})
	if err != nil {
		return fmt.Errorf("voxel texture %s: %w", provider.Label(), err)
	}
	provider.SetTexture(binding, tex)

	b.queue.WriteTexture(
		&wgpu.ImageCopyTexture{Texture: tex, Aspect: wgpu.TextureAspectAll},
		stagingData.Voxels,
		&wgpu.TextureDataLayout{BytesPerRow: stagingData.BytesPerRow, RowsPerImage: stagingData.Height},
		&extent,
	)

	view, err := tex.CreateView(nil)
	if err != nil {
		return fmt.Errorf("voxel texture view %s: %w", provider.Label(), err)
	}
	provider.SetTextureView(binding, view)
	return nil
}

func (b *wgpuRendererBackendImpl) InitSampler(provider bind_group_provider.BindGroupProvider, binding int, stagingData common.SamplerStagingData) error {
	clamp := wgpu.AddressModeClampToEdge
	sampler, err := b.device.CreateSampler(&wgpu.SamplerDescriptor{
		Label:         provider.Label() + " sampler",
		AddressModeU:  common.Coalesce(stagingData.AddressModeU, clamp),
		AddressModeV:  common.Coalesce(stagingData.AddressModeV, clamp),
		AddressModeW:  common.Coalesce(stagingData.AddressModeW, clamp),
		MagFilter:     common.Coalesce(stagingData.MagFilter, wgpu.FilterModeNearest),
		MinFilter:     common.Coalesce(stagingData.MinFilter, wgpu.FilterModeNearest),
		MipmapFilter:  common.Coalesce(stagingData.MipmapFilter, wgpu.MipmapFilterModeNearest),
		LodMinClamp:   stagingData.LodMinClamp,
		LodMaxClamp:   common.Coalesce(stagingData.LodMaxClamp, 32),
		MaxAnisotropy: common.Coalesce(stagingData.MaxAnisotropy, 1),
	})
	if err != nil {
		return fmt.Errorf("sampler %s: %w", provider.Label(), err)
	}
	provider.SetSampler(binding, sampler)
	return nil
}

func (b *wgpuRendererBackendImpl) WriteBuffers(writes []bind_group_provider.BufferWrite) {
	for _, w := range writes {
		if buf := w.Provider.Buffer(w.Binding); buf != nil {
			b.queue.WriteBuffer(buf, w.Offset, w.Data)
		}
	}
}
