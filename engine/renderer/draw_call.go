package renderer

import (
	"github.com/Carmen-Shannon/voxel-go/engine/renderer/bind_group_provider"
)

const (
	voxelTextureBinding = 0
	modelBufferBinding  = 1
	// voxelSamplerKey stores the per-object sampler on the provider. It has no slot in the bind group.
	voxelSamplerKey = 2
)

// DrawCallResource is the GPU state for one uploaded voxel object: its 3D texture and view, a sampler, the model
// matrix buffer, and the Tier-2 bind group joining them. All of it is held by Provider and released together.
type DrawCallResource struct {
	ID       string
	Dims     [3]uint32
	Provider bind_group_provider.BindGroupProvider
}

func releaseDrawCalls(drawCalls []DrawCallResource) {
	for _, dc := range drawCalls {
		if dc.Provider != nil {
			dc.Provider.Release()
		}
	}
}
