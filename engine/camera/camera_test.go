package camera

import (
	"testing"

	"github.com/Carmen-Shannon/voxel-go/common"
	"github.com/chewxy/math32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const eps = 1e-5

func assertVec(t *testing.T, want, got [3]float32) {
	t.Helper()
	for i := range want {
		assert.InDelta(t, want[i], got[i], eps, "component %d", i)
	}
}

func TestControllerDefaults(t *testing.T) {
	cc := NewCameraController()

	assertVec(t, [3]float32{0, 0, 1}, cc.Direction())
	assertVec(t, [3]float32{-1, 0, 0}, cc.Right())
	assert.False(t, cc.Focused())
	assert.Equal(t, float32(DefaultSpeed), cc.Speed())
	assert.Equal(t, float32(DefaultMouseSensitivity), cc.MouseSensitivity())
	assert.Equal(t, float32(DefaultMaxPitch), cc.MaxPitch())

	tx, ty, tz := cc.Target()
	assertVec(t, [3]float32{0, 0, 1}, [3]float32{tx, ty, tz})
}

func TestControllerOptions(t *testing.T) {
	cc := NewCameraController(
		WithPosition(1, 2, 3),
		WithYaw(math32.Pi/2),
		WithPitch(10),
		WithSpeed(4),
		WithMouseSensitivity(0.01),
	)

	x, y, z := cc.Position()
	assert.Equal(t, [3]float32{1, 2, 3}, [3]float32{x, y, z})
	assert.InDelta(t, DefaultMaxPitch, cc.Pitch(), eps)
	assert.Equal(t, float32(4), cc.Speed())
	assert.Equal(t, float32(0.01), cc.MouseSensitivity())
}

func TestLookRequiresFocus(t *testing.T) {
	cc := NewCameraController()
	cc.Look(100, 100)
	assert.Zero(t, cc.Yaw())
	assert.Zero(t, cc.Pitch())

	cc.SetFocused(true)
	cc.Look(100, 50)
	assert.InDelta(t, -0.1, cc.Yaw(), eps)
	assert.InDelta(t, -0.05, cc.Pitch(), eps)
}

func TestLookClampsPitch(t *testing.T) {
	cc := NewCameraController()
	cc.SetFocused(true)

	cc.Look(0, -1e6)
	assert.InDelta(t, DefaultMaxPitch, cc.Pitch(), eps)
	cc.Look(0, 1e6)
	assert.InDelta(t, -DefaultMaxPitch, cc.Pitch(), eps)

	dir := cc.Direction()
	assert.Less(t, dir[1], float32(0))
	assert.Greater(t, dir[2], float32(0))
}

func TestTickMovement(t *testing.T) {
	tests := []struct {
		name string
		keys []uint32
		want [3]float32
	}{
		{name: "forward", keys: []uint32{common.KeyW}, want: [3]float32{0, 0, 1}},
		{name: "backward", keys: []uint32{common.KeyS}, want: [3]float32{0, 0, -1}},
		{name: "right", keys: []uint32{common.KeyD}, want: [3]float32{-1, 0, 0}},
		{name: "left", keys: []uint32{common.KeyA}, want: [3]float32{1, 0, 0}},
		{name: "up", keys: []uint32{common.KeySpace}, want: [3]float32{0, 1, 0}},
		{name: "down", keys: []uint32{common.KeyLeftShift}, want: [3]float32{0, -1, 0}},
		{name: "diagonal is normalized", keys: []uint32{common.KeyW, common.KeyA}, want: [3]float32{math32.Sqrt2 / 2, 0, math32.Sqrt2 / 2}},
		{name: "opposite keys cancel", keys: []uint32{common.KeyW, common.KeyS}, want: [3]float32{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cc := NewCameraController(WithSpeed(2))
			cc.SetFocused(true)
			for _, k := range tt.keys {
				cc.SetKey(k, true)
			}
			cc.Tick(0.5)

			x, y, z := cc.Position()
			assertVec(t, tt.want, [3]float32{x, y, z})
		})
	}
}

func TestTickIgnoresPitch(t *testing.T) {
	cc := NewCameraController(WithPitch(-1))
	cc.SetFocused(true)
	cc.SetKey(common.KeyW, true)
	cc.Tick(1)

	_, y, z := cc.Position()
	assert.InDelta(t, 0, y, eps)
	assert.InDelta(t, DefaultSpeed, z, eps)
}

func TestUnfocusClearsKeys(t *testing.T) {
	cc := NewCameraController()
	cc.SetFocused(true)
	cc.SetKey(common.KeyW, true)
	cc.SetFocused(false)
	cc.Tick(1)
	cc.SetFocused(true)
	cc.Tick(1)

	x, y, z := cc.Position()
	assert.Equal(t, [3]float32{}, [3]float32{x, y, z})

	cc.SetKey(common.KeyW, true)
	cc.SetKey(common.KeyW, false)
	cc.Tick(1)
	_, _, z = cc.Position()
	assert.Zero(t, z)
}

func TestCameraDefaults(t *testing.T) {
	c := NewCamera()
	assert.InDelta(t, math32.Pi/2, c.Fov(), eps)
	near, far := c.ClipPlanes()
	assert.Equal(t, float32(DefaultNear), near)
	assert.Equal(t, float32(DefaultFar), far)
	assert.Nil(t, c.Controller())
	assert.Equal(t, common.IdentityMatrix(), c.ViewProjectionMatrix())

	c.Update()
	assert.Equal(t, common.IdentityMatrix(), c.ViewProjectionMatrix())
}

func TestCameraUpdate(t *testing.T) {
	cc := NewCameraController(WithPosition(0, 0, -5))
	c := NewCamera(WithController(cc), WithAspect(1))
	require.NotNil(t, c.Controller())
	assert.Equal(t, [3]float32{0, 0, -5}, c.Position())

	// a point straight ahead lands in the center of clip space
	vp := c.ViewProjectionMatrix()
	p := common.TransformPoint(vp[:], 0, 0, 0)
	require.Greater(t, p[3], float32(0))
	assert.InDelta(t, 0, p[0]/p[3], eps)
	assert.InDelta(t, 0, p[1]/p[3], eps)
	depth := p[2] / p[3]
	assert.True(t, depth > 0 && depth < 1, "depth %f", depth)

	// a point behind the camera has negative w
	p = common.TransformPoint(vp[:], 0, 0, -10)
	assert.Less(t, p[3], float32(0))

	cc.SetPosition(1, 2, 3)
	assert.Equal(t, [3]float32{0, 0, -5}, c.Position())
	c.Update()
	frameVP, framePos := c.Frame()
	assert.Equal(t, [3]float32{1, 2, 3}, framePos)
	assert.Equal(t, c.ViewProjectionMatrix(), frameVP)
}

func TestClipPlanesChangeProjection(t *testing.T) {
	c := NewCamera(WithController(NewCameraController()))
	before := c.ProjectionMatrix()
	c.SetClipPlanes(1, 100)
	assert.NotEqual(t, before, c.ProjectionMatrix())

	// without a controller nothing is computed
	bare := NewCamera()
	bare.SetClipPlanes(1, 100)
	assert.Equal(t, common.IdentityMatrix(), bare.ProjectionMatrix())
}

func TestCameraAspect(t *testing.T) {
	c := NewCamera(WithController(NewCameraController()))
	c.SetAspect(2)
	proj := c.ProjectionMatrix()
	assert.InDelta(t, proj[5]/2, proj[0], eps)
}

func TestCameraOptions(t *testing.T) {
	c := NewCamera(
		WithFovDegrees(60),
		WithClipPlanes(0.5, 250),
		WithUp(0, 0, 1),
	)
	assert.InDelta(t, math32.Pi/3, c.Fov(), eps)
	near, far := c.ClipPlanes()
	assert.Equal(t, float32(0.5), near)
	assert.Equal(t, float32(250), far)
	x, y, z := c.Up()
	assert.Equal(t, [3]float32{0, 0, 1}, [3]float32{x, y, z})
}
