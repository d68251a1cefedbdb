package scene

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validObject(id string) VoxelObject {
	dims := [3]uint32{2, 3, 4}
	return VoxelObject{ID: id, Dims: dims, Voxels: UniformVoxels(dims, 1)}
}

func TestSceneValidate(t *testing.T) {
	tests := []struct {
		name    string
		scene   Scene
		wantErr string
	}{
		{
			name:  "empty scene",
			scene: Scene{},
		},
		{
			name:  "full palette",
			scene: Scene{Palette: make([]RGBA, MaxPaletteSize), Objects: []VoxelObject{validObject("a")}},
		},
		{
			name:    "palette too large",
			scene:   Scene{Palette: make([]RGBA, MaxPaletteSize+1)},
			wantErr: "palette has 257 colors",
		},
		{
			name:    "empty id",
			scene:   Scene{Objects: []VoxelObject{validObject("")}},
			wantErr: "empty id",
		},
		{
			name:    "zero dimension",
			scene:   Scene{Objects: []VoxelObject{{ID: "z", Dims: [3]uint32{0, 1, 1}}}},
			wantErr: "zero dimension",
		},
		{
			name:    "voxel length mismatch",
			scene:   Scene{Objects: []VoxelObject{{ID: "m", Dims: [3]uint32{2, 2, 2}, Voxels: make([]byte, 7)}}},
			wantErr: "has 7 voxels",
		},
		{
			name:    "duplicate id",
			scene:   Scene{Objects: []VoxelObject{validObject("a"), validObject("a")}},
			wantErr: `duplicate object id "a"`,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.scene.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrInvalidScene)
			assert.True(t, strings.Contains(err.Error(), tt.wantErr), err.Error())
		})
	}
}

func TestTexelIndex(t *testing.T) {
	dims := [3]uint32{4, 3, 2}
	assert.Equal(t, 0, TexelIndex(dims, 0, 0, 0))
	assert.Equal(t, 3, TexelIndex(dims, 3, 0, 0))
	assert.Equal(t, 4, TexelIndex(dims, 0, 1, 0))
	assert.Equal(t, 12, TexelIndex(dims, 0, 0, 1))
	assert.Equal(t, 23, TexelIndex(dims, 3, 2, 1))
}

func TestSphereVoxels(t *testing.T) {
	dims := [3]uint32{9, 9, 9}
	voxels := SphereVoxels(dims, 5)
	require.Len(t, voxels, 729)

	assert.Equal(t, uint8(5), voxels[TexelIndex(dims, 4, 4, 4)])
	assert.Equal(t, uint8(0), voxels[TexelIndex(dims, 0, 0, 0)])
	assert.Equal(t, uint8(0), voxels[TexelIndex(dims, 8, 8, 8)])
	// radius 4.05 reaches the face centers but not the corners
	assert.Equal(t, uint8(5), voxels[TexelIndex(dims, 0, 4, 4)])
}

func TestScaleTranslate(t *testing.T) {
	m := ScaleTranslate([3]float32{1, 8, 8}, [3]float32{-4, 0, 0})
	assert.Equal(t, [16]float32{
		1, 0, 0, 0,
		0, 8, 0, 0,
		0, 0, 8, 0,
		-4, 0, 0, 1,
	}, m)
}

func TestCornellBox(t *testing.T) {
	s := CornellBox()
	require.NoError(t, s.Validate())
	assert.Len(t, s.Objects, 6)
	assert.Equal(t, RGBA{0, 0, 0, 0}, s.Palette[0])

	for _, obj := range s.Objects {
		var highest byte
		for _, v := range obj.Voxels {
			highest = max(highest, v)
		}
		assert.Less(t, int(highest), len(s.Palette), obj.ID)
	}
}
