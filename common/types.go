// package common contains common types that are used throughout this engine. They are not interface-wrapped structs, just plain structs that express
// commonly used data-types.
package common

import (
	"github.com/cogentcore/webgpu/wgpu"
)

// VoxelTextureStagingData holds a voxel grid laid out for a single 3D texture upload.
// Rows may be padded past Width to satisfy the backend's bytes-per-row alignment; padding bytes are zero.
type VoxelTextureStagingData struct {
	// Voxels is the staged byte slice, Depth images of Height rows of BytesPerRow bytes each.
	Voxels []byte
	// Width, Height and Depth are the texture extent in texels (nx, ny, nz).
	Width, Height, Depth uint32
	// BytesPerRow is the stride between consecutive rows in Voxels. Always >= Width.
	BytesPerRow uint32
}

// TexelAt returns the staged byte at integer texel coordinate (x, y, z).
//
// Parameters:
//   - x, y, z: texel coordinates, each within the texture extent
//
// Returns:
//   - byte: the staged voxel value
func (s *VoxelTextureStagingData) TexelAt(x, y, z uint32) byte {
	return s.Voxels[s.Offset(x, y, z)]
}

// Offset returns the index of texel (x, y, z) in Voxels, rows padded to BytesPerRow.
func (s *VoxelTextureStagingData) Offset(x, y, z uint32) int {
	bpr := int(s.BytesPerRow)
	return (int(z)*int(s.Height)+int(y))*bpr + int(x)
}

// SamplerStagingData holds the configuration for a sampler binding pending GPU creation.
// Zero-valued fields fall back to the backend's defaults.
type SamplerStagingData struct {
	// AddressModeU, AddressModeV, AddressModeW specify the addressing mode for texture coordinates outside the [0, 1] range in each dimension (U, V, W).
	AddressModeU, AddressModeV, AddressModeW wgpu.AddressMode
	// MagFilter and MinFilter specify the filtering mode for magnification and minification.
	MagFilter, MinFilter wgpu.FilterMode
	// MipmapFilter specifies the filtering mode for mipmap level selection.
	MipmapFilter wgpu.MipmapFilterMode
	// LodMinClamp and LodMaxClamp specify the minimum and maximum level of detail (LOD) for mipmapping.
	LodMinClamp, LodMaxClamp float32
	// MaxAnisotropy specifies the maximum anisotropy level for anisotropic filtering.
	MaxAnisotropy uint16
}
