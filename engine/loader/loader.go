package loader

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/Carmen-Shannon/voxel-go/common"
	"github.com/Carmen-Shannon/voxel-go/engine/scene"
	"github.com/klauspost/compress/zstd"
)

// Format identifies the scene file format and therefore the backend used to read or write it.
type Format int

const (
	// FormatArchive is the native scene archive (.vxs): palette plus any number of objects,
	// zstd-compressed voxel payloads with xxhash checksums.
	FormatArchive Format = iota
	// FormatVOPL is a single 16x16x16 VOPL v3 chunk (.vopl). It carries indices only; the palette comes from
	// WithPalette.
	FormatVOPL
)

// String returns the file extension of the format.
func (f Format) String() string {
	switch f {
	case FormatArchive:
		return ".vxs"
	case FormatVOPL:
		return ".vopl"
	default:
		return fmt.Sprintf("Format(%d)", int(f))
	}
}

var (
	// ErrUnknownFormat is returned when a path's extension matches no backend.
	ErrUnknownFormat = errors.New("unknown scene format")
	// ErrCorrupt is returned (wrapped) for malformed or truncated scene data.
	ErrCorrupt = errors.New("corrupt scene data")
	// ErrChecksum is returned (wrapped) when an archive object's voxels do not match their stored checksum.
	ErrChecksum = errors.New("voxel checksum mismatch")
)

// FormatFromPath selects a format by file extension.
//
// Parameters:
//   - path: the file path
//
// Returns:
//   - Format: the matching format
//   - error: ErrUnknownFormat if the extension is not recognised
func FormatFromPath(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".vxs":
		return FormatArchive, nil
	case ".vopl":
		return FormatVOPL, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnknownFormat, path)
	}
}

// loader is the implementation of the Loader interface.
type loader struct {
	mu sync.RWMutex

	palette          []scene.RGBA
	compressionLevel zstd.EncoderLevel

	sceneCache map[string]scene.Scene

	backends map[Format]loaderBackend
}

// Loader reads and writes voxel scenes and caches what it has read.
// The file format is chosen from the extension (.vxs archive, .vopl chunk). Loaded scenes are validated before
// they are cached, so a cached scene can go straight to the renderer.
type Loader interface {
	// Load reads a scene file and caches the result by path.
	// If the path is already cached, the cached scene is returned without touching the file.
	//
	// Parameters:
	//   - path: the file path to the scene file
	//
	// Returns:
	//   - scene.Scene: the loaded scene
	//   - error: error if reading, decoding or validation fails
	Load(path string) (scene.Scene, error)

	// LoadReader reads a scene from a stream and caches it by the given name.
	//
	// Parameters:
	//   - name: the cache key for the loaded scene
	//   - r: the reader providing the encoded scene
	//   - format: the encoding of the stream
	//
	// Returns:
	//   - scene.Scene: the loaded scene
	//   - error: error if decoding or validation fails
	LoadReader(name string, r io.Reader, format Format) (scene.Scene, error)

	// Save validates the scene and writes it to path in the format chosen by the extension.
	//
	// Parameters:
	//   - path: the destination file path
	//   - s: the scene to write
	//
	// Returns:
	//   - error: error if validation, encoding or writing fails
	Save(path string, s scene.Scene) error

	// SaveWriter validates the scene and writes it to w in the given format.
	//
	// Parameters:
	//   - w: the destination writer
	//   - s: the scene to write
	//   - format: the encoding to use
	//
	// Returns:
	//   - error: error if validation or encoding fails
	SaveWriter(w io.Writer, s scene.Scene, format Format) error

	// Get retrieves a cached scene by name.
	//
	// Parameters:
	//   - name: the cache key to look up
	//
	// Returns:
	//   - scene.Scene: the cached scene
	//   - bool: false if nothing is cached under name
	Get(name string) (scene.Scene, bool)

	// Scenes returns a copy of the scene cache.
	//
	// Returns:
	//   - map[string]scene.Scene: all cached scenes keyed by name
	Scenes() map[string]scene.Scene

	// Evict removes a scene from the cache.
	//
	// Parameters:
	//   - name: the cache key to remove
	Evict(name string)
}

var _ Loader = &loader{}

// NewLoader creates a new Loader with every format backend registered and the options applied.
//
// Parameters:
//   - options: a variadic list of LoaderBuilderOption functions to configure the Loader
//
// Returns:
//   - Loader: a new Loader
func NewLoader(options ...LoaderBuilderOption) Loader {
	l := &loader{
		compressionLevel: zstd.SpeedDefault,
		sceneCache:       make(map[string]scene.Scene),
	}

	for _, option := range options {
		option(l)
	}

	l.backends = map[Format]loaderBackend{
		FormatArchive: newArchiveBackend(l.compressionLevel),
		FormatVOPL:    newVOPLBackend(l.palette),
	}
	return l
}

func (l *loader) backend(format Format) (loaderBackend, error) {
	b, ok := l.backends[format]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownFormat, format)
	}
	return b, nil
}

func (l *loader) Load(path string) (scene.Scene, error) {
	l.mu.RLock()
	cached, ok := l.sceneCache[path]
	l.mu.RUnlock()
	if ok {
		return cached, nil
	}

	format, err := FormatFromPath(path)
	if err != nil {
		return scene.Scene{}, err
	}

	f, err := os.Open(path)
	if err != nil {
		return scene.Scene{}, fmt.Errorf("failed to open scene file: %w", err)
	}
	defer f.Close()

	return l.LoadReader(path, f, format)
}

func (l *loader) LoadReader(name string, r io.Reader, format Format) (scene.Scene, error) {
	b, err := l.backend(format)
	if err != nil {
		return scene.Scene{}, err
	}

	s, err := b.Decode(r)
	if err != nil {
		return scene.Scene{}, fmt.Errorf("failed to decode %s scene %q: %w", format, name, err)
	}
	if err := s.Validate(); err != nil {
		return scene.Scene{}, fmt.Errorf("scene %q: %w", name, err)
	}

	l.mu.Lock()
	l.sceneCache[name] = s
	l.mu.Unlock()

	common.Logger().Debug("scene loaded", "name", name, "format", format.String(), "objects", len(s.Objects))
	return s, nil
}

func (l *loader) Save(path string, s scene.Scene) error {
	format, err := FormatFromPath(path)
	if err != nil {
		return err
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create scene file: %w", err)
	}
	if err := l.SaveWriter(f, s, format); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func (l *loader) SaveWriter(w io.Writer, s scene.Scene, format Format) error {
	if err := s.Validate(); err != nil {
		return err
	}
	b, err := l.backend(format)
	if err != nil {
		return err
	}
	if err := b.Encode(w, s); err != nil {
		return fmt.Errorf("failed to encode %s scene: %w", format, err)
	}
	return nil
}

func (l *loader) Get(name string) (scene.Scene, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	s, ok := l.sceneCache[name]
	return s, ok
}

func (l *loader) Scenes() map[string]scene.Scene {
	l.mu.RLock()
	defer l.mu.RUnlock()
	cp := make(map[string]scene.Scene, len(l.sceneCache))
	for k, v := range l.sceneCache {
		cp[k] = v
	}
	return cp
}

func (l *loader) Evict(name string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.sceneCache, name)
}
