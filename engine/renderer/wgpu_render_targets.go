package renderer

import (
	"fmt"

	"github.com/Carmen-Shannon/voxel-go/common"
	"github.com/cogentcore/webgpu/wgpu"
)

// depthTargetFormat is the format of the frame pass depth attachment.
const depthTargetFormat = wgpu.TextureFormatDepth24PlusStencil8

// renderTargets are the size-dependent attachments of the frame pass. color is nil without MSAA,
// in which case the pass renders straight into the swapchain view.
type renderTargets struct {
	width, height int
	samples       uint32

	color     *wgpu.Texture
	colorView *wgpu.TextureView
	depth     *wgpu.Texture
	depthView *wgpu.TextureView
}

func newRenderTargets(device *wgpu.Device, format wgpu.TextureFormat, width, height int, samples uint32) (*renderTargets, error) {
	t := &renderTargets{width: width, height: height, samples: samples}

	if samples > 1 {
		tex, view, err := t.attachment(device, "msaa color", format)
		if err != nil {
			return nil, err
		}
		t.color, t.colorView = tex, view
	}

	tex, view, err := t.attachment(device, "depth", depthTargetFormat)
	if err != nil {
		t.release()
		return nil, err
	}
	t.depth, t.depthView = tex, view
	return t, nil
}

// attachment creates one render attachment at the target size and sample count.
func (t *renderTargets) attachment(device *wgpu.Device, label string, format wgpu.TextureFormat) (*wgpu.Texture, *wgpu.TextureView, error) {
	tex, err := device.CreateTexture(&wgpu.TextureDescriptor{
		Label:         label,
		Size:          wgpu.Extent3D{Width: uint32(t.width), Height: uint32(t.height), DepthOrArrayLayers: 1},
		MipLevelCount: 1,
		SampleCount:   t.samples,
		Dimension:     wgpu.TextureDimension2D,
		Format:        format,
		Usage:         wgpu.TextureUsageRenderAttachment,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("create %s texture: %w", label, err)
	}
	view, err := tex.CreateView(nil)
	if err != nil {
		tex.Release()
		return nil, nil, fmt.Errorf("create %s view: %w", label, err)
	}
	return tex, view, nil
}

// passDescriptor describes a pass that clears both attachments and lands its color in swapchain,
// either by resolving the MSAA target into it or by drawing into it directly.
func (t *renderTargets) passDescriptor(swapchain *wgpu.TextureView, clear wgpu.Color) *wgpu.RenderPassDescriptor {
	color := wgpu.RenderPassColorAttachment{
		View:       swapchain,
		LoadOp:     wgpu.LoadOpClear,
		StoreOp:    wgpu.StoreOpStore,
		ClearValue: clear,
	}
	if t.colorView != nil {
		color.View = t.colorView
		color.ResolveTarget = swapchain
		color.StoreOp = wgpu.StoreOpDiscard
	}
	return &wgpu.RenderPassDescriptor{
		Label:            "voxel pass",
		ColorAttachments: []wgpu.RenderPassColorAttachment{color},
		DepthStencilAttachment: &wgpu.RenderPassDepthStencilAttachment{
			View:            t.depthView,
			DepthLoadOp:     wgpu.LoadOpClear,
			DepthStoreOp:    wgpu.StoreOpDiscard,
			DepthClearValue: 1,
			StencilLoadOp:   wgpu.LoadOpClear,
			StencilStoreOp:  wgpu.StoreOpDiscard,
		},
	}
}

func (t *renderTargets) release() {
	if t == nil {
		return
	}
	for _, v := range []*wgpu.TextureView{t.colorView, t.depthView} {
		if v != nil {
			v.Release()
		}
	}
	for _, tex := range []*wgpu.Texture{t.color, t.depth} {
		if tex != nil {
			tex.Release()
		}
	}
	t.color, t.colorView, t.depth, t.depthView = nil, nil, nil, nil
}

func (b *wgpuRendererBackendImpl) ConfigureSurface(width, height int) error {
	err := b.swapTargets(func() (*renderTargets, error) {
		return newRenderTargets(b.device, b.surfaceFormat, width, height, uint32(b.sampleCount))
	}, func() {
		b.surface.Configure(b.adapter, b.device, &wgpu.SurfaceConfiguration{
			Usage:       wgpu.TextureUsageRenderAttachment,
			Format:      b.surfaceFormat,
			Width:       uint32(width),
			Height:      uint32(height),
			PresentMode: b.presentMode,
			AlphaMode:   wgpu.CompositeAlphaModeAuto,
		})
	})
	if err != nil {
		return err
	}

	common.Logger().Debug("render targets configured", "width", width, "height", height, "samples", b.targets.samples)
	return nil
}

// swapTargets builds the next target set before configure touches the surface. When build fails the
// surface and the current targets stay as they were.
func (b *wgpuRendererBackendImpl) swapTargets(build func() (*renderTargets, error), configure func()) error {
	targets, err := build()
	if err != nil {
		return err
	}
	configure()
	b.targets.release()
	b.targets = targets
	return nil
}

func (b *wgpuRendererBackendImpl) RenderTargetSize() (int, int) {
	if b.targets == nil {
		return 0, 0
	}
	return b.targets.width, b.targets.height
}
