package renderer

import (
	"encoding/binary"
	"math"

	"github.com/Carmen-Shannon/voxel-go/engine/scene"
)

const (
	// GPUFrameUniformsSize is the byte size of GPUFrameUniforms, matching the shader's FrameUniforms struct.
	GPUFrameUniformsSize = 80
	// GPUStaticUniformsSize is the byte size of GPUStaticUniforms, matching the shader's StaticUniforms struct.
	GPUStaticUniformsSize = scene.MaxPaletteSize * 4
	// GPUModelDataSize is the byte size of GPUModelData, matching the shader's ModelData struct.
	GPUModelDataSize = 64
)

// GPUFrameUniforms is the Tier-1 uniform block, rewritten every frame.
// Layout: 64 bytes view-projection, 12 bytes camera position, 4 bytes padding.
type GPUFrameUniforms struct {
	ViewProj       [16]float32 // offset  0: column-major view-projection matrix
	CameraPosition [3]float32  // offset 64: camera position in world space
	_              float32     // offset 76: pad to 16-byte alignment
}

// Marshal serializes the frame uniforms into an 80-byte buffer.
//
// Returns:
//   - []byte: buffer ready for GPU upload
func (u *GPUFrameUniforms) Marshal() []byte {
	buf := make([]byte, GPUFrameUniformsSize)
	putFloat32s(buf, u.ViewProj[:])
	putFloat32s(buf[64:], u.CameraPosition[:])
	return buf
}

// GPUStaticUniforms is the Tier-0 uniform block holding the packed palette.
// Unused slots are zero.
type GPUStaticUniforms struct {
	Palette [scene.MaxPaletteSize]uint32
}

// Marshal serializes the palette into a 1024-byte buffer.
//
// Returns:
//   - []byte: buffer ready for GPU upload
func (u *GPUStaticUniforms) Marshal() []byte {
	buf := make([]byte, GPUStaticUniformsSize)
	for i, c := range u.Palette {
		binary.LittleEndian.PutUint32(buf[i*4:], c)
	}
	return buf
}

// GPUModelData is the per-object uniform block in Tier 2.
type GPUModelData struct {
	Model [16]float32
}

// Marshal serializes the model matrix into a 64-byte buffer.
//
// Returns:
//   - []byte: buffer ready for GPU upload
func (m *GPUModelData) Marshal() []byte {
	buf := make([]byte, GPUModelDataSize)
	putFloat32s(buf, m.Model[:])
	return buf
}

// PackRGBA packs a color as (R<<24)|(G<<16)|(B<<8)|A.
//
// Parameters:
//   - c: the color to pack
//
// Returns:
//   - uint32: the packed color
func PackRGBA(c scene.RGBA) uint32 {
	return uint32(c.R)<<24 | uint32(c.G)<<16 | uint32(c.B)<<8 | uint32(c.A)
}

// PackPalette packs up to 256 colors into the static uniform block. Colors past the 256th are ignored.
//
// Parameters:
//   - palette: the scene palette
//
// Returns:
//   - GPUStaticUniforms: slots [0, len) hold the packed colors, the rest are 0
func PackPalette(palette []scene.RGBA) GPUStaticUniforms {
	var u GPUStaticUniforms
	for i, c := range palette {
		if i >= len(u.Palette) {
			break
		}
		u.Palette[i] = PackRGBA(c)
	}
	return u
}

func putFloat32s(buf []byte, values []float32) {
	for i, v := range values {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(v))
	}
}
