package camera

import (
	"sync"

	"github.com/Carmen-Shannon/voxel-go/common"
	"github.com/chewxy/math32"
)

const (
	// DefaultFov is the vertical field of view in radians.
	DefaultFov = math32.Pi / 2
	// DefaultNear is the near clipping plane distance.
	DefaultNear = 0.01
	// DefaultFar is the far clipping plane distance.
	DefaultFar = 10000.0
)

// Camera turns a controller's eye and target into the per-frame inputs of the renderer:
// a column-major view-projection matrix and the eye position. Projection settings change rarely
// and are applied immediately; the view follows the controller on Update.
//
// All methods are safe to call from the tick goroutine and the render thread at once.
type Camera interface {
	// Frame returns the view-projection matrix and eye position from the same update.
	//
	// Returns:
	//   - [16]float32: column-major view-projection matrix
	//   - [3]float32: world-space eye position
	Frame() ([16]float32, [3]float32)

	// Update pulls the controller's eye and target and rebuilds the view. Without a controller it
	// does nothing.
	Update()

	// Controller returns the attached controller, or nil.
	//
	// Returns:
	//   - CameraController: the attached controller or nil
	Controller() CameraController

	// SetController attaches a controller and rebuilds the view from it.
	//
	// Parameters:
	//   - ctrl: the controller to follow
	SetController(ctrl CameraController)

	// Fov returns the vertical field of view in radians.
	Fov() float32

	// SetFov sets the vertical field of view in radians.
	//
	// Parameters:
	//   - fov: field of view in radians
	SetFov(fov float32)

	// Aspect returns the width / height ratio.
	Aspect() float32

	// SetAspect sets the width / height ratio, normally on window resize.
	//
	// Parameters:
	//   - aspect: the aspect ratio
	SetAspect(aspect float32)

	// ClipPlanes returns the near and far plane distances.
	//
	// Returns:
	//   - near: near plane distance
	//   - far: far plane distance
	ClipPlanes() (near, far float32)

	// SetClipPlanes sets the near and far plane distances.
	//
	// Parameters:
	//   - near: near plane distance
	//   - far: far plane distance
	SetClipPlanes(near, far float32)

	// Up returns the world up vector used by the view matrix.
	Up() (x, y, z float32)

	// SetUp sets the world up vector.
	SetUp(x, y, z float32)

	ViewMatrix() [16]float32
	ProjectionMatrix() [16]float32
	ViewProjectionMatrix() [16]float32
	Position() [3]float32
}

// lens holds the projection settings.
type lens struct {
	fov    float32
	aspect float32
	near   float32
	far    float32
}

type cameraImpl struct {
	mu sync.RWMutex

	lens       lens
	up         [3]float32
	controller CameraController

	position   [3]float32
	view       [16]float32
	projection [16]float32
	viewProj   [16]float32
}

var _ Camera = &cameraImpl{}

// NewCamera creates a perspective camera. Until a controller is attached every matrix is identity.
//
// Parameters:
//   - options: functional options applied in order
//
// Returns:
//   - Camera: the new camera
func NewCamera(options ...CameraBuilderOption) Camera {
	c := &cameraImpl{
		lens:       lens{fov: DefaultFov, aspect: 1, near: DefaultNear, far: DefaultFar},
		up:         [3]float32{0, 1, 0},
		view:       common.IdentityMatrix(),
		projection: common.IdentityMatrix(),
		viewProj:   common.IdentityMatrix(),
	}
	for _, option := range options {
		option(c)
	}
	if c.controller != nil {
		c.rebuildProjection()
		c.rebuildView()
	}
	return c
}

func (c *cameraImpl) Frame() ([16]float32, [3]float32) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.viewProj, c.position
}

func (c *cameraImpl) Update() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.rebuildView()
}

func (c *cameraImpl) Controller() CameraController {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.controller
}

func (c *cameraImpl) SetController(ctrl CameraController) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.controller = ctrl
	c.rebuildProjection()
	c.rebuildView()
}

func (c *cameraImpl) Fov() float32 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.lens.fov
}

func (c *cameraImpl) SetFov(fov float32) {
	c.setLens(func(l *lens) { l.fov = fov })
}

func (c *cameraImpl) Aspect() float32 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.lens.aspect
}

func (c *cameraImpl) SetAspect(aspect float32) {
	c.setLens(func(l *lens) { l.aspect = aspect })
}

func (c *cameraImpl) ClipPlanes() (near, far float32) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.lens.near, c.lens.far
}

func (c *cameraImpl) SetClipPlanes(near, far float32) {
	c.setLens(func(l *lens) { l.near, l.far = near, far })
}

func (c *cameraImpl) Up() (x, y, z float32) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.up[0], c.up[1], c.up[2]
}

func (c *cameraImpl) SetUp(x, y, z float32) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.up = [3]float32{x, y, z}
	c.rebuildView()
}

func (c *cameraImpl) ViewMatrix() [16]float32 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.view
}

func (c *cameraImpl) ProjectionMatrix() [16]float32 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.projection
}

func (c *cameraImpl) ViewProjectionMatrix() [16]float32 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.viewProj
}

func (c *cameraImpl) Position() [3]float32 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.position
}

func (c *cameraImpl) setLens(apply func(*lens)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	apply(&c.lens)
	if c.controller != nil {
		c.rebuildProjection()
	}
}

// rebuildProjection and rebuildView expect the write lock to be held.
func (c *cameraImpl) rebuildProjection() {
	common.Perspective(c.projection[:], c.lens.fov, c.lens.aspect, c.lens.near, c.lens.far)
	common.Mul4(c.viewProj[:], c.projection[:], c.view[:])
}

func (c *cameraImpl) rebuildView() {
	if c.controller == nil {
		return
	}
	px, py, pz := c.controller.Position()
	tx, ty, tz := c.controller.Target()
	c.position = [3]float32{px, py, pz}
	common.LookAt(c.view[:], px, py, pz, tx, ty, tz, c.up[0], c.up[1], c.up[2])
	common.Mul4(c.viewProj[:], c.projection[:], c.view[:])
}
