package renderer

import (
	"errors"
	"fmt"

	"github.com/Carmen-Shannon/voxel-go/engine/renderer/bind_group_provider"
	"github.com/Carmen-Shannon/voxel-go/engine/renderer/pipeline"
	"github.com/cogentcore/webgpu/wgpu"
)

// frameState holds what a frame acquires between BeginFrame and Present. pass and encoder are
// cleared by EndFrame; surface and view live until Present.
type frameState struct {
	surface *wgpu.Texture
	view    *wgpu.TextureView
	encoder *wgpu.CommandEncoder
	pass    *wgpu.RenderPassEncoder
}

func (f *frameState) release() {
	if f == nil {
		return
	}
	if f.encoder != nil {
		f.encoder.Release()
		f.encoder = nil
	}
	if f.view != nil {
		f.view.Release()
		f.view = nil
	}
	if f.surface != nil {
		f.surface.Release()
		f.surface = nil
	}
}

func (b *wgpuRendererBackendImpl) BeginFrame(clear wgpu.Color) error {
	// wgpu-native fails to acquire while the previous texture is still held.
	if b.frame != nil {
		return errors.New("previous frame surface not yet presented")
	}
	if b.targets == nil {
		return errors.New("surface not configured")
	}

	f := &frameState{}
	var err error
	if f.surface, err = b.surface.GetCurrentTexture(); err != nil {
		return fmt.Errorf("acquire surface texture: %w", err)
	}
	if f.view, err = f.surface.CreateView(nil); err != nil {
		f.release()
		return fmt.Errorf("surface view: %w", err)
	}
	if f.encoder, err = b.device.CreateCommandEncoder(nil); err != nil {
		f.release()
		return fmt.Errorf("command encoder: %w", err)
	}

	f.pass = f.encoder.BeginRenderPass(b.targets.passDescriptor(f.view, clear))
	b.frame = f
	return nil
}

func (b *wgpuRendererBackendImpl) SetPipeline(p pipeline.Pipeline) {
	b.frame.pass.SetPipeline(p.RenderPipeline())
}

func (b *wgpuRendererBackendImpl) SetBindGroup(group uint32, provider bind_group_provider.BindGroupProvider) {
	b.frame.pass.SetBindGroup(group, provider.BindGroup(), nil)
}

func (b *wgpuRendererBackendImpl) SetMeshBuffers(provider bind_group_provider.BindGroupProvider) {
	b.frame.pass.SetVertexBuffer(0, provider.VertexBuffer(), 0, wgpu.WholeSize)
	b.frame.pass.SetIndexBuffer(provider.IndexBuffer(), wgpu.IndexFormatUint16, 0, wgpu.WholeSize)
}

func (b *wgpuRendererBackendImpl) DrawIndexed(indexCount, instanceCount uint32) {
	b.frame.pass.DrawIndexed(indexCount, instanceCount, 0, 0, 0)
}

func (b *wgpuRendererBackendImpl) EndFrame() error {
	f := b.frame
	if f == nil || f.pass == nil {
		return errors.New("no frame in progress")
	}
	f.pass.End()
	f.pass.Release()
	f.pass = nil

	commands, err := f.encoder.Finish(nil)
	f.encoder.Release()
	f.encoder = nil
	if err != nil {
		f.release()
		b.frame = nil
		return fmt.Errorf("finish commands: %w", err)
	}
	b.queue.Submit(commands)
	commands.Release()
	return nil
}

func (b *wgpuRendererBackendImpl) Present() {
	if b.frame == nil {
		return
	}
	b.surface.Present()
	b.frame.release()
	b.frame = nil
}
