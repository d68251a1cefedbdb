package renderer

import "errors"

var (
	// ErrInitialization is returned when no compatible adapter is found or the device, surface, or static resources
	// cannot be created. It is fatal for the renderer instance.
	ErrInitialization = errors.New("renderer initialization failed")

	// ErrSurface is returned when the next frame cannot be acquired from the surface.
	// Callers reconcile the surface size with Resize and try again on the next frame.
	ErrSurface = errors.New("surface frame acquisition failed")

	// ErrResourceCreation is returned when the device rejects a per-object allocation during a scene upload.
	// The previously uploaded scene stays live.
	ErrResourceCreation = errors.New("gpu resource creation failed")

	// ErrValidation is returned for malformed inputs, before any GPU work is done.
	ErrValidation = errors.New("invalid renderer input")
)
