package loader

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"fmt"
	"io"

	"github.com/Carmen-Shannon/voxel-go/engine/scene"
	xxhash "github.com/cespare/xxhash/v2"
	"github.com/klauspost/compress/zstd"
)

const (
	archiveMagic   = "VXSC"
	archiveVersion = 1

	// maxArchiveVoxels bounds a single object's decoded size.
	maxArchiveVoxels = 1 << 30
	maxObjectIDLen   = 1 << 10
)

// archiveHeader is the fixed prefix of a .vxs file. All integers are little-endian.
type archiveHeader struct {
	Magic       [4]byte
	Version     uint8
	_           uint8
	PaletteLen  uint16
	ObjectCount uint32
}

// archiveObjectHeader follows each object's id. Checksum is xxhash64 of the decoded voxels and
// PayloadLen the size of the zstd frame that follows.
type archiveObjectHeader struct {
	Dims       [3]uint32
	Model      [16]float32
	Checksum   uint64
	PayloadLen uint32
}

// archiveBackendImpl reads and writes the native scene archive.
type archiveBackendImpl struct {
	level zstd.EncoderLevel
}

var _ loaderBackend = &archiveBackendImpl{}

func newArchiveBackend(level zstd.EncoderLevel) loaderBackend {
	return &archiveBackendImpl{level: level}
}

func (b *archiveBackendImpl) Encode(w io.Writer, s scene.Scene) error {
	enc, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(b.level))
	if err != nil {
		return err
	}
	defer enc.Close()

	bw := bufio.NewWriter(w)
	hdr := archiveHeader{
		Version:     archiveVersion,
		PaletteLen:  uint16(len(s.Palette)),
		ObjectCount: uint32(len(s.Objects)),
	}
	copy(hdr.Magic[:], archiveMagic)
	if err := binary.Write(bw, binary.LittleEndian, &hdr); err != nil {
		return err
	}

	for _, c := range s.Palette {
		if _, err := bw.Write([]byte{c.R, c.G, c.B, c.A}); err != nil {
			return err
		}
	}

	var payload []byte
	for _, obj := range s.Objects {
		if len(obj.ID) > maxObjectIDLen {
			return fmt.Errorf("object id %.32q... is longer than %d bytes", obj.ID, maxObjectIDLen)
		}
		if err := binary.Write(bw, binary.LittleEndian, uint16(len(obj.ID))); err != nil {
			return err
		}
		if _, err := bw.WriteString(obj.ID); err != nil {
			return err
		}

		payload = enc.EncodeAll(obj.Voxels, payload[:0])
		oh := archiveObjectHeader{
			Dims:       obj.Dims,
			Model:      obj.Model,
			Checksum:   xxhash.Sum64(obj.Voxels),
			PayloadLen: uint32(len(payload)),
		}
		if err := binary.Write(bw, binary.LittleEndian, &oh); err != nil {
			return err
		}
		if _, err := bw.Write(payload); err != nil {
			return err
		}
	}
	return bw.Flush()
}

func (b *archiveBackendImpl) Decode(r io.Reader) (scene.Scene, error) {
	br := bufio.NewReader(r)

	var hdr archiveHeader
	if err := binary.Read(br, binary.LittleEndian, &hdr); err != nil {
		return scene.Scene{}, fmt.Errorf("%w: header: %w", ErrCorrupt, err)
	}
	if string(hdr.Magic[:]) != archiveMagic {
		return scene.Scene{}, fmt.Errorf("%w: bad magic %q", ErrCorrupt, hdr.Magic[:])
	}
	if hdr.Version != archiveVersion {
		return scene.Scene{}, fmt.Errorf("%w: unsupported version %d", ErrCorrupt, hdr.Version)
	}
	if int(hdr.PaletteLen) > scene.MaxPaletteSize {
		return scene.Scene{}, fmt.Errorf("%w: palette has %d colors", ErrCorrupt, hdr.PaletteLen)
	}

	var s scene.Scene
	if hdr.PaletteLen > 0 {
		raw := make([]byte, 4*int(hdr.PaletteLen))
		if _, err := io.ReadFull(br, raw); err != nil {
			return scene.Scene{}, fmt.Errorf("%w: palette: %w", ErrCorrupt, err)
		}
		s.Palette = make([]scene.RGBA, hdr.PaletteLen)
		for i := range s.Palette {
			s.Palette[i] = scene.RGBA{R: raw[4*i], G: raw[4*i+1], B: raw[4*i+2], A: raw[4*i+3]}
		}
	}

	dec, err := zstd.NewReader(nil, zstd.WithDecoderConcurrency(1), zstd.WithDecoderMaxMemory(maxArchiveVoxels))
	if err != nil {
		return scene.Scene{}, err
	}
	defer dec.Close()

	for i := uint32(0); i < hdr.ObjectCount; i++ {
		obj, err := decodeArchiveObject(br, dec)
		if err != nil {
			return scene.Scene{}, fmt.Errorf("object %d: %w", i, err)
		}
		s.Objects = append(s.Objects, obj)
	}
	return s, nil
}

// payloadBound is the largest compressed size the encoder can produce for n bytes: raw blocks plus
// frame and block headers.
func payloadBound(n uint64) uint64 {
	return n + n/128 + 1024
}

func decodeArchiveObject(br *bufio.Reader, dec *zstd.Decoder) (scene.VoxelObject, error) {
	var idLen uint16
	if err := binary.Read(br, binary.LittleEndian, &idLen); err != nil {
		return scene.VoxelObject{}, fmt.Errorf("%w: id length: %w", ErrCorrupt, err)
	}
	if idLen > maxObjectIDLen {
		return scene.VoxelObject{}, fmt.Errorf("%w: id length %d", ErrCorrupt, idLen)
	}
	id := make([]byte, idLen)
	if _, err := io.ReadFull(br, id); err != nil {
		return scene.VoxelObject{}, fmt.Errorf("%w: id: %w", ErrCorrupt, err)
	}

	var oh archiveObjectHeader
	if err := binary.Read(br, binary.LittleEndian, &oh); err != nil {
		return scene.VoxelObject{}, fmt.Errorf("%w: object header: %w", ErrCorrupt, err)
	}
	count := uint64(oh.Dims[0]) * uint64(oh.Dims[1]) * uint64(oh.Dims[2])
	if count > maxArchiveVoxels {
		return scene.VoxelObject{}, fmt.Errorf("%w: %d voxels exceeds limit", ErrCorrupt, count)
	}

	if uint64(oh.PayloadLen) > payloadBound(count) {
		return scene.VoxelObject{}, fmt.Errorf("%w: payload of %d bytes for %d voxels", ErrCorrupt, oh.PayloadLen, count)
	}
	payload, err := io.ReadAll(io.LimitReader(br, int64(oh.PayloadLen)))
	if err != nil {
		return scene.VoxelObject{}, fmt.Errorf("%w: payload: %w", ErrCorrupt, err)
	}
	if len(payload) != int(oh.PayloadLen) {
		return scene.VoxelObject{}, fmt.Errorf("%w: payload: %w", ErrCorrupt, io.ErrUnexpectedEOF)
	}

	if err := dec.Reset(bytes.NewReader(payload)); err != nil {
		return scene.VoxelObject{}, fmt.Errorf("%w: %w", ErrCorrupt, err)
	}
	voxels, err := io.ReadAll(io.LimitReader(dec, int64(count)+1))
	if err != nil {
		return scene.VoxelObject{}, fmt.Errorf("%w: %w", ErrCorrupt, err)
	}
	if uint64(len(voxels)) != count {
		return scene.VoxelObject{}, fmt.Errorf("%w: decoded %d voxels, dims need %d", ErrCorrupt, len(voxels), count)
	}
	if sum := xxhash.Sum64(voxels); sum != oh.Checksum {
		return scene.VoxelObject{}, fmt.Errorf("%w: object %q: got %016x, want %016x", ErrChecksum, id, sum, oh.Checksum)
	}

	return scene.VoxelObject{
		ID:     string(id),
		Dims:   oh.Dims,
		Voxels: voxels,
		Model:  oh.Model,
	}, nil
}
