package common

import (
	"github.com/chewxy/math32"
)

// Matrices are 4x4, column-major, stored in flat slices of at least 16 elements. Element (row r,
// column c) lives at index c*4+r, the layout WGSL expects for mat4x4<f32>.

// IdentityMatrix returns a new identity matrix.
func IdentityMatrix() [16]float32 {
	var m [16]float32
	Identity(m[:])
	return m
}

// Identity overwrites m with the identity matrix.
func Identity(m []float32) {
	clear(m[:16])
	m[0], m[5], m[10], m[15] = 1, 1, 1, 1
}

// Mul4 stores a*b in out. out may alias a or b.
//
// Parameters:
//   - out: destination matrix
//   - a: left operand
//   - b: right operand
func Mul4(out, a, b []float32) {
	var r [16]float32
	for col := 0; col < 4; col++ {
		for row := 0; row < 4; row++ {
			var sum float32
			for k := 0; k < 4; k++ {
				sum += a[k*4+row] * b[col*4+k]
			}
			r[col*4+row] = sum
		}
	}
	copy(out, r[:])
}

// Perspective writes a right-handed projection that maps view depth -near to 0 and -far to 1,
// matching the WebGPU clip volume.
//
// Parameters:
//   - out: destination matrix
//   - fovY: vertical field of view in radians
//   - aspect: width / height
//   - near: near plane distance, > 0
//   - far: far plane distance, > near
func Perspective(out []float32, fovY, aspect, near, far float32) {
	f := 1 / math32.Tan(fovY/2)
	depth := 1 / (near - far)

	clear(out[:16])
	out[0] = f / aspect
	out[5] = f
	out[10] = far * depth
	out[11] = -1
	out[14] = near * far * depth
}

// ScaleTranslate writes a model matrix that scales by (sx, sy, sz), then translates by (tx, ty, tz).
func ScaleTranslate(out []float32, sx, sy, sz, tx, ty, tz float32) {
	Identity(out)
	out[0], out[5], out[10] = sx, sy, sz
	out[12], out[13], out[14] = tx, ty, tz
}

type vec3 [3]float32

func (a vec3) sub(b vec3) vec3    { return vec3{a[0] - b[0], a[1] - b[1], a[2] - b[2]} }
func (a vec3) dot(b vec3) float32 { return a[0]*b[0] + a[1]*b[1] + a[2]*b[2] }
func (a vec3) cross(b vec3) vec3 {
	return vec3{a[1]*b[2] - a[2]*b[1], a[2]*b[0] - a[0]*b[2], a[0]*b[1] - a[1]*b[0]}
}

// normalized returns a unit vector, or a unchanged when it has zero length.
func (a vec3) normalized() vec3 {
	l := a.dot(a)
	if l == 0 {
		return a
	}
	inv := 1 / math32.Sqrt(l)
	return vec3{a[0] * inv, a[1] * inv, a[2] * inv}
}

// LookAt writes a right-handed view matrix for an eye at (eyeX, eyeY, eyeZ) looking toward
// (centerX, centerY, centerZ). The camera looks down its -Z axis with up near (upX, upY, upZ).
func LookAt(out []float32, eyeX, eyeY, eyeZ, centerX, centerY, centerZ, upX, upY, upZ float32) {
	eye := vec3{eyeX, eyeY, eyeZ}
	back := eye.sub(vec3{centerX, centerY, centerZ}).normalized()
	right := vec3{upX, upY, upZ}.cross(back).normalized()
	up := back.cross(right)

	for i, axis := range [3]vec3{right, up, back} {
		out[i], out[4+i], out[8+i] = axis[0], axis[1], axis[2]
		out[12+i] = -axis.dot(eye)
	}
	out[3], out[7], out[11], out[15] = 0, 0, 0, 1
}

// TransformPoint returns m * (x, y, z, 1) in homogeneous coordinates.
func TransformPoint(m []float32, x, y, z float32) [4]float32 {
	var p [4]float32
	for row := range p {
		p[row] = m[row]*x + m[4+row]*y + m[8+row]*z + m[12+row]
	}
	return p
}
