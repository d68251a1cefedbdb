package camera

import "github.com/chewxy/math32"

// CameraBuilderOption configures a camera before its first matrix update.
type CameraBuilderOption func(*cameraImpl)

// WithController attaches the controller the camera follows.
//
// Parameters:
//   - ctrl: the controller supplying position and target
//
// Returns:
//   - CameraBuilderOption: option function to apply
func WithController(ctrl CameraController) CameraBuilderOption {
	return func(c *cameraImpl) {
		c.controller = ctrl
	}
}

// WithAspect sets the initial width / height ratio, normally taken from the window.
//
// Parameters:
//   - aspect: the aspect ratio
//
// Returns:
//   - CameraBuilderOption: option function to apply
func WithAspect(aspect float32) CameraBuilderOption {
	return func(c *cameraImpl) {
		c.lens.aspect = aspect
	}
}

// WithFovDegrees sets the vertical field of view in degrees.
func WithFovDegrees(degrees float32) CameraBuilderOption {
	return func(c *cameraImpl) {
		c.lens.fov = degrees * math32.Pi / 180
	}
}

// WithClipPlanes sets the near and far plane distances. The depth buffer covers [near, far].
func WithClipPlanes(near, far float32) CameraBuilderOption {
	return func(c *cameraImpl) {
		c.lens.near = near
		c.lens.far = far
	}
}

// WithUp overrides the world up vector used to build the view matrix.
func WithUp(x, y, z float32) CameraBuilderOption {
	return func(c *cameraImpl) {
		c.up = [3]float32{x, y, z}
	}
}
