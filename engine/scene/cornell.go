package scene

// Palette indices used by CornellBox. Index 0 is left as empty space.
const (
	CornellRed uint8 = iota + 1
	CornellGreen
	CornellWhite
	CornellGray
)

// CornellBox builds the classic test scene: red and green side walls, a white floor, ceiling and back wall, and a
// gray voxel sphere in the middle. The box spans [-4, 4] on every axis.
//
// Returns:
//   - Scene: the scene, ready for upload
func CornellBox() Scene {
	wallX := [3]uint32{1, 8, 8}
	wallY := [3]uint32{8, 1, 8}
	wallZ := [3]uint32{8, 8, 1}
	sphere := [3]uint32{32, 32, 32}

	return Scene{
		Palette: []RGBA{
			{0, 0, 0, 0},
			{255, 0, 0, 255},
			{0, 255, 0, 255},
			{255, 255, 255, 255},
			{128, 128, 128, 255},
		},
		Objects: []VoxelObject{
			{ID: "left_wall", Dims: wallX, Voxels: UniformVoxels(wallX, CornellRed), Model: ScaleTranslate([3]float32{1, 8, 8}, [3]float32{-4, 0, 0})},
			{ID: "right_wall", Dims: wallX, Voxels: UniformVoxels(wallX, CornellGreen), Model: ScaleTranslate([3]float32{1, 8, 8}, [3]float32{4, 0, 0})},
			{ID: "floor", Dims: wallY, Voxels: UniformVoxels(wallY, CornellWhite), Model: ScaleTranslate([3]float32{8, 1, 8}, [3]float32{0, -4, 0})},
			{ID: "ceiling", Dims: wallY, Voxels: UniformVoxels(wallY, CornellWhite), Model: ScaleTranslate([3]float32{8, 1, 8}, [3]float32{0, 4, 0})},
			{ID: "back_wall", Dims: wallZ, Voxels: UniformVoxels(wallZ, CornellWhite), Model: ScaleTranslate([3]float32{8, 8, 1}, [3]float32{0, 0, -4})},
			{ID: "sphere", Dims: sphere, Voxels: SphereVoxels(sphere, CornellGray), Model: ScaleTranslate([3]float32{3, 3, 3}, [3]float32{0, 0, 0})},
		},
	}
}
