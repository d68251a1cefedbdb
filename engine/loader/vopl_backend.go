package loader

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"math/bits"
	"slices"

	"github.com/Carmen-Shannon/voxel-go/common"
	"github.com/Carmen-Shannon/voxel-go/engine/scene"
	"github.com/klauspost/compress/zlib"
)

// VOPL v3 chunks are fixed 16x16x16 grids of palette indices stored in Morton order.
const (
	voplMagic   = "VOPL"
	voplVersion = 3
	voplSize    = 16
	voplVoxels  = voplSize * voplSize * voplSize

	// voplMaxPayload covers the largest stream any encoding can need: a sparse list of 65535
	// 12-bit indices with 8-bit values.
	voplMaxPayload = 1 << 18

	// VOPLObjectID is the id given to the single object decoded from a chunk.
	VOPLObjectID = "chunk"
)

// Payload encodings. The high bit of the encoding byte marks a zlib-compressed payload.
const (
	voplDense   = 0
	voplSparse  = 1
	voplSparse2 = 3

	voplZlibFlag = 0x80
)

// voplHeader follows the magic. All integers are little-endian.
type voplHeader struct {
	Version  uint8
	Encoding uint8
	BPP      uint8
	W, H, D  uint8
	Palette  uint16
	Length   uint32
}

// voplOrder maps stream position to the chunk's linear index (x fastest, then z, then y).
var voplOrder = buildVOPLOrder()

func buildVOPLOrder() []int {
	type entry struct {
		key uint32
		lin int
	}
	entries := make([]entry, 0, voplVoxels)
	lin := 0
	for y := range voplSize {
		for z := range voplSize {
			for x := range voplSize {
				entries = append(entries, entry{morton3(uint32(x), uint32(y), uint32(z)), lin})
				lin++
			}
		}
	}
	slices.SortFunc(entries, func(a, b entry) int { return int(a.key) - int(b.key) })

	order := make([]int, voplVoxels)
	for i, e := range entries {
		order[i] = e.lin
	}
	return order
}

// spread3 inserts two zero bits between each of the low 10 bits of v.
func spread3(v uint32) uint32 {
	v = (v | v<<16) & 0x030000FF
	v = (v | v<<8) & 0x0300F00F
	v = (v | v<<4) & 0x030C30C3
	v = (v | v<<2) & 0x09249249
	return v
}

func morton3(x, y, z uint32) uint32 {
	return spread3(x) | spread3(y)<<1 | spread3(z)<<2
}

// voplBackendImpl reads and writes single VOPL chunks.
type voplBackendImpl struct {
	palette []scene.RGBA
}

var _ loaderBackend = &voplBackendImpl{}

func newVOPLBackend(palette []scene.RGBA) loaderBackend {
	return &voplBackendImpl{palette: palette}
}

func (b *voplBackendImpl) Decode(r io.Reader) (scene.Scene, error) {
	var magic [4]byte
	if _, err := io.ReadFull(r, magic[:]); err != nil {
		return scene.Scene{}, fmt.Errorf("%w: magic: %w", ErrCorrupt, err)
	}
	if string(magic[:]) != voplMagic {
		return scene.Scene{}, fmt.Errorf("%w: bad magic %q", ErrCorrupt, magic[:])
	}

	var hdr voplHeader
	if err := binary.Read(r, binary.LittleEndian, &hdr); err != nil {
		return scene.Scene{}, fmt.Errorf("%w: header: %w", ErrCorrupt, err)
	}
	if hdr.Version != voplVersion {
		return scene.Scene{}, fmt.Errorf("%w: unsupported VOPL version %d", ErrCorrupt, hdr.Version)
	}
	if hdr.W != voplSize || hdr.H != voplSize || hdr.D != voplSize {
		return scene.Scene{}, fmt.Errorf("%w: chunk is %dx%dx%d, want %d^3", ErrCorrupt, hdr.W, hdr.H, hdr.D, voplSize)
	}
	if hdr.BPP < 1 || hdr.BPP > 8 {
		return scene.Scene{}, fmt.Errorf("%w: %d bits per voxel", ErrCorrupt, hdr.BPP)
	}

	if hdr.Length > voplMaxPayload {
		return scene.Scene{}, fmt.Errorf("%w: payload of %d bytes", ErrCorrupt, hdr.Length)
	}
	payload := make([]byte, hdr.Length)
	if _, err := io.ReadFull(r, payload); err != nil {
		return scene.Scene{}, fmt.Errorf("%w: payload: %w", ErrCorrupt, err)
	}
	if hdr.Encoding&voplZlibFlag != 0 {
		var err error
		if payload, err = zlibDecompress(payload); err != nil {
			return scene.Scene{}, fmt.Errorf("%w: %w", ErrCorrupt, err)
		}
	}

	stream, err := decodeVOPLStream(hdr.Encoding&^voplZlibFlag, hdr.BPP, payload)
	if err != nil {
		return scene.Scene{}, fmt.Errorf("%w: %w", ErrCorrupt, err)
	}

	dims := [3]uint32{voplSize, voplSize, voplSize}
	voxels := make([]byte, voplVoxels)
	for i, lin := range voplOrder {
		x, z, y := lin%voplSize, (lin/voplSize)%voplSize, lin/(voplSize*voplSize)
		voxels[scene.TexelIndex(dims, uint32(x), uint32(y), uint32(z))] = stream[i]
	}

	return scene.Scene{
		Palette: slices.Clone(b.palette),
		Objects: []scene.VoxelObject{{
			ID:     VOPLObjectID,
			Dims:   dims,
			Voxels: voxels,
			Model:  common.IdentityMatrix(),
		}},
	}, nil
}

// decodeVOPLStream returns the voxels in Morton stream order.
func decodeVOPLStream(encoding, bpp uint8, payload []byte) ([]byte, error) {
	stream := make([]byte, voplVoxels)
	switch encoding {
	case voplDense:
		br := &bitReader{data: payload}
		for i := range stream {
			v, err := br.readBits(bpp)
			if err != nil {
				return nil, err
			}
			stream[i] = byte(v)
		}
	case voplSparse:
		br := &bitReader{data: payload}
		count, err := br.readBits(16)
		if err != nil {
			return nil, err
		}
		for range count {
			idx, err := br.readBits(12)
			if err != nil {
				return nil, err
			}
			v, err := br.readBits(bpp)
			if err != nil {
				return nil, err
			}
			stream[idx] = byte(v)
		}
	case voplSparse2:
		const bitmapLen = voplVoxels / 8
		if len(payload) < bitmapLen {
			return nil, fmt.Errorf("sparse bitmap needs %d bytes, have %d", bitmapLen, len(payload))
		}
		bitmap := payload[:bitmapLen]
		br := &bitReader{data: payload[bitmapLen:]}
		for i := range stream {
			if bitmap[i>>3]>>(i&7)&1 == 0 {
				continue
			}
			v, err := br.readBits(bpp)
			if err != nil {
				return nil, err
			}
			stream[i] = byte(v)
		}
	default:
		return nil, fmt.Errorf("unknown VOPL encoding %d", encoding)
	}
	return stream, nil
}

// Encode writes the scene's only object as a dense chunk, zlib-compressed when that is smaller.
// The object must be 16x16x16; the palette is not stored.
func (b *voplBackendImpl) Encode(w io.Writer, s scene.Scene) error {
	if len(s.Objects) != 1 {
		return fmt.Errorf("a VOPL chunk holds exactly one object, scene has %d", len(s.Objects))
	}
	obj := s.Objects[0]
	if obj.Dims != [3]uint32{voplSize, voplSize, voplSize} {
		return fmt.Errorf("object %q is %v, a VOPL chunk is %d^3", obj.ID, obj.Dims, voplSize)
	}

	var highest byte
	for _, v := range obj.Voxels {
		highest = max(highest, v)
	}
	bpp := uint8(max(bits.Len8(highest), 1))

	bw := &bitWriter{}
	for _, lin := range voplOrder {
		x, z, y := lin%voplSize, (lin/voplSize)%voplSize, lin/(voplSize*voplSize)
		bw.writeBits(uint64(obj.Voxels[scene.TexelIndex(obj.Dims, uint32(x), uint32(y), uint32(z))]), bpp)
	}
	payload := bw.bytes()
	encoding := uint8(voplDense)
	if compressed, err := zlibCompress(payload); err == nil && len(compressed) < len(payload) {
		payload = compressed
		encoding |= voplZlibFlag
	}

	var buf bytes.Buffer
	buf.WriteString(voplMagic)
	hdr := voplHeader{
		Version:  voplVersion,
		Encoding: encoding,
		BPP:      bpp,
		W:        voplSize,
		H:        voplSize,
		D:        voplSize,
		Palette:  uint16(len(s.Palette)),
		Length:   uint32(len(payload)),
	}
	if err := binary.Write(&buf, binary.LittleEndian, &hdr); err != nil {
		return err
	}
	buf.Write(payload)
	_, err := w.Write(buf.Bytes())
	return err
}

func zlibCompress(data []byte) ([]byte, error) {
	var buf bytes.Buffer
	zw, err := zlib.NewWriterLevel(&buf, zlib.BestCompression)
	if err != nil {
		return nil, err
	}
	if _, err := zw.Write(data); err != nil {
		return nil, err
	}
	if err := zw.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func zlibDecompress(data []byte) ([]byte, error) {
	zr, err := zlib.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	defer zr.Close()
	out, err := io.ReadAll(io.LimitReader(zr, voplMaxPayload+1))
	if err != nil {
		return nil, err
	}
	if len(out) > voplMaxPayload {
		return nil, fmt.Errorf("inflated payload exceeds %d bytes", voplMaxPayload)
	}
	return out, nil
}
