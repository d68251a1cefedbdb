package model

import "encoding/binary"

// CubeIndexCount is the number of indices drawn per cube: 6 faces of 2 triangles each.
const CubeIndexCount = 36

// CubeVertices are the 24 vertices of a unit cube centered at the origin, four per face so every
// face carries its own UVs. Faces are ordered front, back, top, bottom, right, left.
var CubeVertices = [24]GPUVertex{
	// Front face
	{Position: [3]float32{-0.5, -0.5, 0.5}, TexCoord: [2]float32{0, 0}},
	{Position: [3]float32{0.5, -0.5, 0.5}, TexCoord: [2]float32{1, 0}},
	{Position: [3]float32{0.5, 0.5, 0.5}, TexCoord: [2]float32{1, 1}},
	{Position: [3]float32{-0.5, 0.5, 0.5}, TexCoord: [2]float32{0, 1}},
	// Back face
	{Position: [3]float32{-0.5, -0.5, -0.5}, TexCoord: [2]float32{1, 0}},
	{Position: [3]float32{0.5, -0.5, -0.5}, TexCoord: [2]float32{0, 0}},
	{Position: [3]float32{0.5, 0.5, -0.5}, TexCoord: [2]float32{0, 1}},
	{Position: [3]float32{-0.5, 0.5, -0.5}, TexCoord: [2]float32{1, 1}},
	// Top face
	{Position: [3]float32{-0.5, 0.5, -0.5}, TexCoord: [2]float32{0, 0}},
	{Position: [3]float32{0.5, 0.5, -0.5}, TexCoord: [2]float32{1, 0}},
	{Position: [3]float32{0.5, 0.5, 0.5}, TexCoord: [2]float32{1, 1}},
	{Position: [3]float32{-0.5, 0.5, 0.5}, TexCoord: [2]float32{0, 1}},
	// Bottom face
	{Position: [3]float32{-0.5, -0.5, -0.5}, TexCoord: [2]float32{0, 1}},
	{Position: [3]float32{0.5, -0.5, -0.5}, TexCoord: [2]float32{1, 1}},
	{Position: [3]float32{0.5, -0.5, 0.5}, TexCoord: [2]float32{1, 0}},
	{Position: [3]float32{-0.5, -0.5, 0.5}, TexCoord: [2]float32{0, 0}},
	// Right face
	{Position: [3]float32{0.5, -0.5, -0.5}, TexCoord: [2]float32{0, 0}},
	{Position: [3]float32{0.5, 0.5, -0.5}, TexCoord: [2]float32{1, 0}},
	{Position: [3]float32{0.5, 0.5, 0.5}, TexCoord: [2]float32{1, 1}},
	{Position: [3]float32{0.5, -0.5, 0.5}, TexCoord: [2]float32{0, 1}},
	// Left face
	{Position: [3]float32{-0.5, -0.5, -0.5}, TexCoord: [2]float32{1, 0}},
	{Position: [3]float32{-0.5, 0.5, -0.5}, TexCoord: [2]float32{0, 0}},
	{Position: [3]float32{-0.5, 0.5, 0.5}, TexCoord: [2]float32{0, 1}},
	{Position: [3]float32{-0.5, -0.5, 0.5}, TexCoord: [2]float32{1, 1}},
}

// CubeIndices triangulates each face quad {i, i+1, i+2, i+3} as (i, i+1, i+2) and (i, i+2, i+3).
var CubeIndices = [CubeIndexCount]uint16{
	0, 1, 2, 0, 2, 3,
	4, 5, 6, 4, 6, 7,
	8, 9, 10, 8, 10, 11,
	12, 13, 14, 12, 14, 15,
	16, 17, 18, 16, 18, 19,
	20, 21, 22, 20, 22, 23,
}

// CubeVertexData returns the cube vertices serialized for a vertex buffer.
//
// Returns:
//   - []byte: 24 * GPUVertexSize bytes
func CubeVertexData() []byte {
	buf := make([]byte, 0, len(CubeVertices)*GPUVertexSize)
	for i := range CubeVertices {
		buf = append(buf, CubeVertices[i].Marshal()...)
	}
	return buf
}

// CubeIndexData returns the cube indices serialized as little-endian uint16 for an index buffer.
// The slice is padded to a multiple of 4 bytes as required for buffer writes.
//
// Returns:
//   - []byte: the index data
func CubeIndexData() []byte {
	size := len(CubeIndices) * 2
	buf := make([]byte, (size+3)&^3)
	for i, idx := range CubeIndices {
		binary.LittleEndian.PutUint16(buf[i*2:], idx)
	}
	return buf
}
