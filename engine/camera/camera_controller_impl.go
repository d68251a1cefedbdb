package camera

import (
	"sync"

	"github.com/Carmen-Shannon/voxel-go/common"
	"github.com/chewxy/math32"
)

const (
	// DefaultMaxPitch keeps the view direction just short of straight up or down.
	DefaultMaxPitch = math32.Pi/2 - 0.1
	// DefaultMouseSensitivity is radians per pixel of mouse movement.
	DefaultMouseSensitivity = 0.001
	// DefaultSpeed is world units per second.
	DefaultSpeed = 10.0
)

// flyControllerImpl is the implementation of CameraController.
type flyControllerImpl struct {
	mu *sync.Mutex

	position  [3]float32
	direction [3]float32
	right     [3]float32
	up        [3]float32

	yaw   float32
	pitch float32

	speed            float32
	mouseSensitivity float32
	maxPitch         float32

	focused bool
	keys    map[uint32]bool
}

// Compile-time interface compliance check
var _ CameraController = &flyControllerImpl{}

// NewCameraController creates a fly controller at the origin looking down +Z.
//
// Parameters:
//   - options: functional options to configure the controller
//
// Returns:
//   - CameraController: the newly created controller
func NewCameraController(options ...CameraControllerOption) CameraController {
	cc := &flyControllerImpl{
		mu:               &sync.Mutex{},
		up:               [3]float32{0, 1, 0},
		speed:            DefaultSpeed,
		mouseSensitivity: DefaultMouseSensitivity,
		maxPitch:         DefaultMaxPitch,
		keys:             make(map[uint32]bool),
	}

	for _, option := range options {
		option(cc)
	}

	cc.pitch = clampPitch(cc.pitch, cc.maxPitch)
	cc.updateAxes()
	return cc
}

// --- internal helpers ---

// updateAxes recomputes direction and right from yaw and pitch.
// Caller must hold the mutex.
func (cc *flyControllerImpl) updateAxes() {
	cosPitch := math32.Cos(cc.pitch)
	cc.direction = normalize([3]float32{
		cosPitch * math32.Sin(cc.yaw),
		math32.Sin(cc.pitch),
		cosPitch * math32.Cos(cc.yaw),
	})
	cc.right = normalize(cross(cc.direction, cc.up))
}

func clampPitch(pitch, limit float32) float32 {
	return max(-limit, min(limit, pitch))
}

func cross(a, b [3]float32) [3]float32 {
	return [3]float32{
		a[1]*b[2] - a[2]*b[1],
		a[2]*b[0] - a[0]*b[2],
		a[0]*b[1] - a[1]*b[0],
	}
}

func normalize(v [3]float32) [3]float32 {
	l := math32.Sqrt(v[0]*v[0] + v[1]*v[1] + v[2]*v[2])
	if l < 1e-8 {
		return [3]float32{}
	}
	return [3]float32{v[0] / l, v[1] / l, v[2] / l}
}

// --- CameraController ---

func (cc *flyControllerImpl) Position() (x, y, z float32) {
	cc.mu.Lock()
	defer cc.mu.Unlock()
	return cc.position[0], cc.position[1], cc.position[2]
}

func (cc *flyControllerImpl) Target() (x, y, z float32) {
	cc.mu.Lock()
	defer cc.mu.Unlock()
	return cc.position[0] + cc.direction[0], cc.position[1] + cc.direction[1], cc.position[2] + cc.direction[2]
}

func (cc *flyControllerImpl) Direction() [3]float32 {
	cc.mu.Lock()
	defer cc.mu.Unlock()
	return cc.direction
}

func (cc *flyControllerImpl) Right() [3]float32 {
	cc.mu.Lock()
	defer cc.mu.Unlock()
	return cc.right
}

func (cc *flyControllerImpl) SetPosition(x, y, z float32) {
	cc.mu.Lock()
	defer cc.mu.Unlock()
	cc.position = [3]float32{x, y, z}
}

func (cc *flyControllerImpl) Yaw() float32 {
	cc.mu.Lock()
	defer cc.mu.Unlock()
	return cc.yaw
}

func (cc *flyControllerImpl) Pitch() float32 {
	cc.mu.Lock()
	defer cc.mu.Unlock()
	return cc.pitch
}

func (cc *flyControllerImpl) SetOrientation(yaw, pitch float32) {
	cc.mu.Lock()
	defer cc.mu.Unlock()
	cc.yaw = yaw
	cc.pitch = clampPitch(pitch, cc.maxPitch)
	cc.updateAxes()
}

func (cc *flyControllerImpl) Look(dx, dy float32) {
	cc.mu.Lock()
	defer cc.mu.Unlock()
	if !cc.focused {
		return
	}
	cc.yaw -= dx * cc.mouseSensitivity
	cc.pitch = clampPitch(cc.pitch-dy*cc.mouseSensitivity, cc.maxPitch)
	cc.updateAxes()
}

func (cc *flyControllerImpl) SetKey(keyCode uint32, pressed bool) {
	cc.mu.Lock()
	defer cc.mu.Unlock()
	if pressed {
		cc.keys[keyCode] = true
	} else {
		delete(cc.keys, keyCode)
	}
}

func (cc *flyControllerImpl) Focused() bool {
	cc.mu.Lock()
	defer cc.mu.Unlock()
	return cc.focused
}

func (cc *flyControllerImpl) SetFocused(focused bool) {
	cc.mu.Lock()
	defer cc.mu.Unlock()
	cc.focused = focused
	if !focused {
		clear(cc.keys)
	}
}

func (cc *flyControllerImpl) Tick(dt float32) {
	cc.mu.Lock()
	defer cc.mu.Unlock()
	if !cc.focused {
		return
	}

	var motion [3]float32
	add := func(v [3]float32, sign float32) {
		motion[0] += sign * v[0]
		motion[1] += sign * v[1]
		motion[2] += sign * v[2]
	}
	// horizontal movement ignores pitch
	forward := [3]float32{cc.direction[0], 0, cc.direction[2]}
	right := [3]float32{cc.right[0], 0, cc.right[2]}

	if cc.keys[common.KeyW] {
		add(forward, 1)
	}
	if cc.keys[common.KeyS] {
		add(forward, -1)
	}
	if cc.keys[common.KeyD] {
		add(right, 1)
	}
	if cc.keys[common.KeyA] {
		add(right, -1)
	}
	if cc.keys[common.KeySpace] {
		add(cc.up, 1)
	}
	if cc.keys[common.KeyLeftShift] {
		add(cc.up, -1)
	}

	motion = normalize(motion)
	step := cc.speed * dt
	cc.position[0] += motion[0] * step
	cc.position[1] += motion[1] * step
	cc.position[2] += motion[2] * step
}

func (cc *flyControllerImpl) Speed() float32 {
	cc.mu.Lock()
	defer cc.mu.Unlock()
	return cc.speed
}

func (cc *flyControllerImpl) SetSpeed(speed float32) {
	cc.mu.Lock()
	defer cc.mu.Unlock()
	cc.speed = speed
}

func (cc *flyControllerImpl) MouseSensitivity() float32 {
	cc.mu.Lock()
	defer cc.mu.Unlock()
	return cc.mouseSensitivity
}

func (cc *flyControllerImpl) MaxPitch() float32 {
	cc.mu.Lock()
	defer cc.mu.Unlock()
	return cc.maxPitch
}
