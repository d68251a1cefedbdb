package loader

import (
	"github.com/Carmen-Shannon/voxel-go/engine/scene"
	"github.com/klauspost/compress/zstd"
)

// LoaderBuilderOption is a functional option for configuring a Loader via NewLoader.
type LoaderBuilderOption func(*loader)

// WithPalette sets the palette attached to scenes decoded from formats that carry no colors (VOPL chunks).
//
// Parameters:
//   - palette: the palette to attach
//
// Returns:
//   - LoaderBuilderOption: a function that applies the palette option to a loader
func WithPalette(palette []scene.RGBA) LoaderBuilderOption {
	return func(l *loader) {
		l.palette = append([]scene.RGBA(nil), palette...)
	}
}

// WithScene is an option builder that pre-populates the scene cache.
//
// Parameters:
//   - key: the cache key for the scene
//   - s: the scene to cache
//
// Returns:
//   - LoaderBuilderOption: a function that applies the scene option to a loader
func WithScene(key string, s scene.Scene) LoaderBuilderOption {
	return func(l *loader) {
		l.sceneCache[key] = s
	}
}

// WithCompressionLevel sets the zstd level used when writing scene archives.
//
// Parameters:
//   - level: the encoder level (default zstd.SpeedDefault)
//
// Returns:
//   - LoaderBuilderOption: a function that applies the compression option to a loader
func WithCompressionLevel(level zstd.EncoderLevel) LoaderBuilderOption {
	return func(l *loader) {
		l.compressionLevel = level
	}
}
