package loader

import (
	"io"

	"github.com/Carmen-Shannon/voxel-go/engine/scene"
)

// loaderBackend defines the generic interface for reading and writing scenes in one file format.
// Concrete implementations (e.g., archiveBackendImpl) handle format-specific details.
type loaderBackend interface {
	// Decode reads a complete scene from the stream.
	//
	// Parameters:
	//   - r: the reader providing the encoded scene
	//
	// Returns:
	//   - scene.Scene: the decoded scene, not yet validated
	//   - error: error if the data is malformed or truncated
	Decode(r io.Reader) (scene.Scene, error)

	// Encode writes the scene to the stream.
	//
	// Parameters:
	//   - w: the destination writer
	//   - s: the scene to encode
	//
	// Returns:
	//   - error: error if the scene cannot be represented in this format or writing fails
	Encode(w io.Writer, s scene.Scene) error
}
