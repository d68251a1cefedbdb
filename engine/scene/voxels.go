package scene

import (
	"github.com/Carmen-Shannon/voxel-go/common"
)

// TexelIndex returns the position of voxel (x, y, z) in a grid of the given dimensions.
//
// Parameters:
//   - dims: the grid size (nx, ny, nz)
//   - x, y, z: the voxel coordinate
//
// Returns:
//   - int: x + nx*(y + ny*z)
func TexelIndex(dims [3]uint32, x, y, z uint32) int {
	return int(x) + int(dims[0])*(int(y)+int(dims[1])*int(z))
}

// UniformVoxels returns a grid of the given dimensions filled with one palette index.
//
// Parameters:
//   - dims: the grid size (nx, ny, nz)
//   - paletteIndex: the value of every voxel
//
// Returns:
//   - []byte: nx*ny*nz voxels
func UniformVoxels(dims [3]uint32, paletteIndex uint8) []byte {
	voxels := make([]byte, int(dims[0])*int(dims[1])*int(dims[2]))
	for i := range voxels {
		voxels[i] = paletteIndex
	}
	return voxels
}

// SphereVoxels returns a grid holding a solid sphere of the given palette index, centered in the grid with a radius of
// 90% of half the smallest dimension. Voxels outside the sphere are 0.
//
// Parameters:
//   - dims: the grid size (nx, ny, nz)
//   - paletteIndex: the value of voxels inside the sphere
//
// Returns:
//   - []byte: nx*ny*nz voxels
func SphereVoxels(dims [3]uint32, paletteIndex uint8) []byte {
	voxels := make([]byte, int(dims[0])*int(dims[1])*int(dims[2]))
	cx := float32(dims[0]-1) / 2
	cy := float32(dims[1]-1) / 2
	cz := float32(dims[2]-1) / 2
	radius := float32(min(dims[0], dims[1], dims[2])) * 0.5 * 0.9
	r2 := radius * radius

	for z := uint32(0); z < dims[2]; z++ {
		for y := uint32(0); y < dims[1]; y++ {
			for x := uint32(0); x < dims[0]; x++ {
				dx := float32(x) - cx
				dy := float32(y) - cy
				dz := float32(z) - cz
				if dx*dx+dy*dy+dz*dz <= r2 {
					voxels[TexelIndex(dims, x, y, z)] = paletteIndex
				}
			}
		}
	}
	return voxels
}

// ScaleTranslate returns a model matrix that scales the unit cube by scale and places it at translate.
//
// Parameters:
//   - scale: the per-axis scale
//   - translate: the world position of the object's center
//
// Returns:
//   - [16]float32: the column-major model matrix
func ScaleTranslate(scale, translate [3]float32) [16]float32 {
	var m [16]float32
	common.ScaleTranslate(m[:], scale[0], scale[1], scale[2], translate[0], translate[1], translate[2])
	return m
}
