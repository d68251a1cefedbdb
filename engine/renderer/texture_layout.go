package renderer

import (
	"github.com/Carmen-Shannon/voxel-go/common"
	"github.com/Carmen-Shannon/voxel-go/engine/scene"
)

// alignedBytesPerRow rounds a row of width single-byte texels up to the given alignment.
func alignedBytesPerRow(width, alignment uint32) uint32 {
	if alignment <= 1 {
		return width
	}
	return (width + alignment - 1) / alignment * alignment
}

// stageVoxelTexture lays out an object's voxels for a single 3D texture write, padding each row to alignment.
// Voxel (x, y, z) lands at z*rowsPerImage*bytesPerRow + y*bytesPerRow + x.
//
// Parameters:
//   - obj: a validated voxel object
//   - alignment: the backend's bytes-per-row alignment
//
// Returns:
//   - common.VoxelTextureStagingData: the staged texture data
func stageVoxelTexture(obj scene.VoxelObject, alignment uint32) common.VoxelTextureStagingData {
	nx, ny, nz := obj.Dims[0], obj.Dims[1], obj.Dims[2]
	bpr := alignedBytesPerRow(nx, alignment)

	staging := common.VoxelTextureStagingData{
		Width:       nx,
		Height:      ny,
		Depth:       nz,
		BytesPerRow: bpr,
	}
	if bpr == nx {
		staging.Voxels = append([]byte(nil), obj.Voxels...)
		return staging
	}

	staging.Voxels = make([]byte, int(bpr)*int(ny)*int(nz))
	for z := uint32(0); z < nz; z++ {
		for y := uint32(0); y < ny; y++ {
			src := scene.TexelIndex(obj.Dims, 0, y, z)
			dst := staging.Offset(0, y, z)
			copy(staging.Voxels[dst:dst+int(nx)], obj.Voxels[src:src+int(nx)])
		}
	}
	return staging
}
