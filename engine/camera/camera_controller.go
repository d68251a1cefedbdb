package camera

// CameraController owns the camera's positional state. Camera reads position and target from it each Update
// and computes the view/projection matrices.
//
// The controller is a first-person fly controller: yaw and pitch from mouse motion, WASD for horizontal
// movement, Space and Left Shift for vertical movement. Input only takes effect while the controller is focused.
type CameraController interface {
	// Position returns the camera's world-space position.
	//
	// Returns:
	//   - x, y, z: world-space camera position
	Position() (x, y, z float32)

	// Target returns the look-at point, one unit along the view direction.
	//
	// Returns:
	//   - x, y, z: world-space target position
	Target() (x, y, z float32)

	// Direction returns the normalized view direction derived from yaw and pitch.
	//
	// Returns:
	//   - [3]float32: the view direction
	Direction() [3]float32

	// Right returns the normalized right vector, perpendicular to the direction and world up.
	//
	// Returns:
	//   - [3]float32: the right vector
	Right() [3]float32

	// SetPosition sets the camera's world-space position directly.
	//
	// Parameters:
	//   - x, y, z: world-space coordinates
	SetPosition(x, y, z float32)

	// Yaw returns the horizontal angle in radians. Yaw 0 looks down +Z.
	//
	// Returns:
	//   - float32: yaw in radians
	Yaw() float32

	// Pitch returns the vertical angle in radians, clamped to ±MaxPitch.
	//
	// Returns:
	//   - float32: pitch in radians
	Pitch() float32

	// SetOrientation sets yaw and pitch directly. Pitch is clamped to ±MaxPitch.
	//
	// Parameters:
	//   - yaw: horizontal angle in radians
	//   - pitch: vertical angle in radians
	SetOrientation(yaw, pitch float32)

	// Look turns the camera by a mouse movement. Moving right turns right, moving down looks down.
	// Ignored while unfocused.
	//
	// Parameters:
	//   - dx, dy: cursor movement in pixels
	Look(dx, dy float32)

	// SetKey records a key press or release.
	//
	// Parameters:
	//   - keyCode: the GLFW key code
	//   - pressed: true on press, false on release
	SetKey(keyCode uint32, pressed bool)

	// Focused reports whether input currently drives the camera.
	//
	// Returns:
	//   - bool: true when focused
	Focused() bool

	// SetFocused enables or disables input. Losing focus clears held keys.
	//
	// Parameters:
	//   - focused: the new focus state
	SetFocused(focused bool)

	// Tick moves the camera along the held movement keys. The combined motion is normalized so diagonals are
	// not faster. Ignored while unfocused.
	//
	// Parameters:
	//   - dt: elapsed time in seconds
	Tick(dt float32)

	// Speed returns the movement speed in world units per second.
	//
	// Returns:
	//   - float32: the speed
	Speed() float32

	// SetSpeed sets the movement speed in world units per second.
	//
	// Parameters:
	//   - speed: the new speed
	SetSpeed(speed float32)

	// MouseSensitivity returns the radians turned per pixel of mouse movement.
	//
	// Returns:
	//   - float32: the sensitivity
	MouseSensitivity() float32

	// MaxPitch returns the largest allowed pitch magnitude in radians.
	//
	// Returns:
	//   - float32: the pitch limit
	MaxPitch() float32
}
