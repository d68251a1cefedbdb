package camera

// CameraControllerOption is a functional option for configuring a CameraController.
type CameraControllerOption func(*flyControllerImpl)

// WithPosition sets the initial world-space position.
//
// Parameters:
//   - x, y, z: world-space coordinates
//
// Returns:
//   - CameraControllerOption: functional option to set the position
func WithPosition(x, y, z float32) CameraControllerOption {
	return func(cc *flyControllerImpl) {
		cc.position = [3]float32{x, y, z}
	}
}

// WithYaw sets the initial horizontal angle.
//
// Parameters:
//   - yaw: horizontal angle in radians (0 = +Z axis)
//
// Returns:
//   - CameraControllerOption: functional option to set the yaw
func WithYaw(yaw float32) CameraControllerOption {
	return func(cc *flyControllerImpl) {
		cc.yaw = yaw
	}
}

// WithPitch sets the initial vertical angle. It is clamped to the pitch limit.
//
// Parameters:
//   - pitch: vertical angle in radians (0 = horizontal)
//
// Returns:
//   - CameraControllerOption: functional option to set the pitch
func WithPitch(pitch float32) CameraControllerOption {
	return func(cc *flyControllerImpl) {
		cc.pitch = pitch
	}
}

// WithSpeed sets the movement speed in world units per second.
//
// Parameters:
//   - speed: movement speed
//
// Returns:
//   - CameraControllerOption: functional option to set the speed
func WithSpeed(speed float32) CameraControllerOption {
	return func(cc *flyControllerImpl) {
		cc.speed = speed
	}
}

// WithMouseSensitivity sets the radians turned per pixel of mouse movement.
//
// Parameters:
//   - sensitivity: radians per pixel
//
// Returns:
//   - CameraControllerOption: functional option to set the sensitivity
func WithMouseSensitivity(sensitivity float32) CameraControllerOption {
	return func(cc *flyControllerImpl) {
		cc.mouseSensitivity = sensitivity
	}
}

// WithMaxPitch sets the largest allowed pitch magnitude.
//
// Parameters:
//   - limit: pitch limit in radians
//
// Returns:
//   - CameraControllerOption: functional option to set the pitch limit
func WithMaxPitch(limit float32) CameraControllerOption {
	return func(cc *flyControllerImpl) {
		cc.maxPitch = limit
	}
}
