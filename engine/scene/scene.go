// Package scene holds the already-parsed description of what the renderer draws: a shared palette and an ordered
// list of voxel objects. It carries no GPU state; the renderer consumes a Scene on upload and keeps nothing from it
// but its own staged copies.
package scene

import (
	"errors"
	"fmt"
)

// MaxPaletteSize is the number of palette slots available to a scene.
const MaxPaletteSize = 256

// ErrInvalidScene is returned (wrapped) by Validate for every structural violation.
var ErrInvalidScene = errors.New("invalid scene")

// RGBA is a palette color with 8 bits per channel.
type RGBA struct {
	R, G, B, A uint8
}

// VoxelObject is an axis-aligned grid of palette indices placed in the world by a model matrix.
// The grid is drawn over the unit cube centered at the origin before the model matrix is applied.
type VoxelObject struct {
	// ID identifies the object within its scene and labels its GPU resources.
	ID string
	// Dims is the grid size (nx, ny, nz) in voxels.
	Dims [3]uint32
	// Voxels holds nx*ny*nz palette indices, x varying fastest, then y, then z.
	Voxels []byte
	// Model is the column-major model-to-world matrix.
	Model [16]float32
}

// Scene is a palette shared by every object plus the objects themselves, drawn in order.
type Scene struct {
	Palette []RGBA
	Objects []VoxelObject
}

// VoxelCount returns nx*ny*nz for the object's dimensions.
//
// Returns:
//   - uint64: the expected length of Voxels
func (o *VoxelObject) VoxelCount() uint64 {
	return uint64(o.Dims[0]) * uint64(o.Dims[1]) * uint64(o.Dims[2])
}

// Validate checks the object's structural invariants: a non-empty ID, non-zero dimensions and
// exactly nx*ny*nz voxels.
//
// Returns:
//   - error: nil if valid, otherwise an error wrapping ErrInvalidScene
func (o *VoxelObject) Validate() error {
	if o.ID == "" {
		return fmt.Errorf("%w: object has an empty id", ErrInvalidScene)
	}
	if o.Dims[0] == 0 || o.Dims[1] == 0 || o.Dims[2] == 0 {
		return fmt.Errorf("%w: object %q has zero dimension %v", ErrInvalidScene, o.ID, o.Dims)
	}
	if uint64(len(o.Voxels)) != o.VoxelCount() {
		return fmt.Errorf("%w: object %q has %d voxels, dims %v require %d", ErrInvalidScene, o.ID, len(o.Voxels), o.Dims, o.VoxelCount())
	}
	return nil
}

// Validate checks the scene: at most MaxPaletteSize palette colors, every object valid and object
// IDs unique. Voxel values outside the palette are not an error; they read an unused slot.
//
// Returns:
//   - error: nil if valid, otherwise an error wrapping ErrInvalidScene
func (s *Scene) Validate() error {
	if len(s.Palette) > MaxPaletteSize {
		return fmt.Errorf("%w: palette has %d colors, max %d", ErrInvalidScene, len(s.Palette), MaxPaletteSize)
	}

	seen := make(map[string]struct{}, len(s.Objects))
	for i := range s.Objects {
		obj := &s.Objects[i]
		if err := obj.Validate(); err != nil {
			return err
		}
		if _, dup := seen[obj.ID]; dup {
			return fmt.Errorf("%w: duplicate object id %q", ErrInvalidScene, obj.ID)
		}
		seen[obj.ID] = struct{}{}
	}
	return nil
}
