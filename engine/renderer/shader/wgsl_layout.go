package shader

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/cogentcore/webgpu/wgpu"
)

// Host-shareable layout for the WGSL subset the renderer binds: 32-bit and f16 scalars, vectors,
// f32 matrices, fixed-size arrays and structs built from those.
//
// Reference: https://www.w3.org/TR/WGSL/#alignment-and-size

// wgslLayout is the byte size and alignment of a WGSL type.
type wgslLayout struct {
	size  uint64
	align uint64
}

type parsedField struct {
	name      string
	typeName  string
	location  int
	isBuiltin bool
}

type parsedStruct struct {
	name   string
	fields []parsedField
}

var scalarSizes = map[string]uint64{
	"f32": 4,
	"i32": 4,
	"u32": 4,
	"f16": 2,
}

// shorthandScalars maps the suffix of vec3f, mat4x4h and friends to the scalar it stands for.
var shorthandScalars = map[byte]string{
	'f': "f32",
	'i': "i32",
	'u': "u32",
	'h': "f16",
}

var vertexFormats = map[string][4]wgpu.VertexFormat{
	"f32": {wgpu.VertexFormatFloat32, wgpu.VertexFormatFloat32x2, wgpu.VertexFormatFloat32x3, wgpu.VertexFormatFloat32x4},
	"i32": {wgpu.VertexFormatSint32, wgpu.VertexFormatSint32x2, wgpu.VertexFormatSint32x3, wgpu.VertexFormatSint32x4},
	"u32": {wgpu.VertexFormatUint32, wgpu.VertexFormatUint32x2, wgpu.VertexFormatUint32x3, wgpu.VertexFormatUint32x4},
}

var textureSampleTypes = map[string]wgpu.TextureSampleType{
	"f32": wgpu.TextureSampleTypeFloat,
	"i32": wgpu.TextureSampleTypeSint,
	"u32": wgpu.TextureSampleTypeUint,
}

func alignTo(value, align uint64) uint64 {
	if align == 0 {
		return value
	}
	return (value + align - 1) / align * align
}

// genericScalar returns the scalar of a "<T>" or single letter suffix.
func genericScalar(suffix string) (string, bool) {
	var scalar string
	switch {
	case len(suffix) == 1:
		scalar = shorthandScalars[suffix[0]]
	case strings.HasPrefix(suffix, "<") && strings.HasSuffix(suffix, ">"):
		scalar = strings.TrimSpace(suffix[1 : len(suffix)-1])
	}
	_, ok := scalarSizes[scalar]
	return scalar, ok
}

// vectorShape splits vec3<f32> or vec3f into its component count and scalar.
func vectorShape(typeName string) (int, string, bool) {
	if len(typeName) < 5 || !strings.HasPrefix(typeName, "vec") {
		return 0, "", false
	}
	n := int(typeName[3] - '0')
	if n < 2 || n > 4 {
		return 0, "", false
	}
	scalar, ok := genericScalar(typeName[4:])
	return n, scalar, ok
}

func vectorLayout(n int, scalar string) wgslLayout {
	s := scalarSizes[scalar]
	if n == 2 {
		return wgslLayout{size: 2 * s, align: 2 * s}
	}
	return wgslLayout{size: uint64(n) * s, align: 4 * s}
}

// matrixLayout handles matCxR<f32> and matCxRf. Columns are vecR, padded to their alignment.
func matrixLayout(typeName string) (wgslLayout, bool) {
	if len(typeName) < 7 || !strings.HasPrefix(typeName, "mat") || typeName[4] != 'x' {
		return wgslLayout{}, false
	}
	cols, rows := int(typeName[3]-'0'), int(typeName[5]-'0')
	if cols < 2 || cols > 4 || rows < 2 || rows > 4 {
		return wgslLayout{}, false
	}
	scalar, ok := genericScalar(typeName[6:])
	if !ok || scalar == "i32" || scalar == "u32" {
		return wgslLayout{}, false
	}
	col := vectorLayout(rows, scalar)
	stride := alignTo(col.size, col.align)
	return wgslLayout{size: uint64(cols) * stride, align: col.align}, true
}

// typeLayout resolves a type against the scalar, vector, matrix and array rules, falling back to
// the already resolved structs. Runtime-sized arrays have no fixed size and are not resolved.
func typeLayout(typeName string, structs map[string]wgslLayout) (wgslLayout, bool) {
	if s, ok := scalarSizes[typeName]; ok {
		return wgslLayout{size: s, align: s}, true
	}
	if n, scalar, ok := vectorShape(typeName); ok {
		return vectorLayout(n, scalar), true
	}
	if layout, ok := matrixLayout(typeName); ok {
		return layout, true
	}
	if inner, ok := strings.CutPrefix(typeName, "array<"); ok && strings.HasSuffix(inner, ">") {
		parts := splitTopLevel(inner[:len(inner)-1], ',')
		if len(parts) != 2 {
			return wgslLayout{}, false
		}
		elem, ok := typeLayout(strings.TrimSpace(parts[0]), structs)
		if !ok {
			return wgslLayout{}, false
		}
		count, err := strconv.ParseUint(strings.TrimSpace(parts[1]), 10, 32)
		if err != nil {
			return wgslLayout{}, false
		}
		return wgslLayout{size: count * alignTo(elem.size, elem.align), align: elem.align}, true
	}
	layout, ok := structs[typeName]
	return layout, ok
}

// structLayout places each non-builtin member at its aligned offset and rounds the total up to
// the largest member alignment.
func structLayout(ps parsedStruct, structs map[string]wgslLayout) (wgslLayout, bool) {
	var offset uint64
	align := uint64(1)
	for _, f := range ps.fields {
		if f.isBuiltin {
			continue
		}
		member, ok := typeLayout(f.typeName, structs)
		if !ok {
			return wgslLayout{}, false
		}
		offset = alignTo(offset, member.align) + member.size
		align = max(align, member.align)
	}
	return wgslLayout{size: alignTo(offset, align), align: align}, true
}

// structLayouts resolves every struct, repeating until no struct that depends on another
// unresolved struct can make progress. Unresolvable structs are left out.
func structLayouts(structs []parsedStruct) map[string]wgslLayout {
	resolved := make(map[string]wgslLayout, len(structs))
	pending := structs
	for len(pending) > 0 {
		var next []parsedStruct
		for _, ps := range pending {
			if layout, ok := structLayout(ps, resolved); ok {
				resolved[ps.name] = layout
			} else {
				next = append(next, ps)
			}
		}
		if len(next) == len(pending) {
			break
		}
		pending = next
	}
	return resolved
}

// resourceEntry builds the bind group layout entry for one @group/@binding declaration.
//
// Parameters:
//   - binding: the @binding index
//   - visibility: stages that reference the variable
//   - addressSpace: the var<...> qualifier, empty for textures and samplers
//   - typeName: the declared type
//
// Returns:
//   - wgpu.BindGroupLayoutEntry: the entry, without MinBindingSize
//   - error: for resource kinds the renderer does not bind (depth textures, comparison samplers, storage textures)
func resourceEntry(binding uint32, visibility wgpu.ShaderStage, addressSpace, typeName string) (wgpu.BindGroupLayoutEntry, error) {
	entry := wgpu.BindGroupLayoutEntry{Binding: binding, Visibility: visibility}

	switch space, access, _ := strings.Cut(addressSpace, ","); strings.TrimSpace(space) {
	case "uniform":
		entry.Buffer.Type = wgpu.BufferBindingTypeUniform
		return entry, nil
	case "storage":
		entry.Buffer.Type = wgpu.BufferBindingTypeReadOnlyStorage
		if strings.TrimSpace(access) == "read_write" {
			entry.Buffer.Type = wgpu.BufferBindingTypeStorage
		}
		return entry, nil
	case "":
	default:
		return entry, fmt.Errorf("binding %d: unsupported address space %q", binding, addressSpace)
	}

	if typeName == "sampler" {
		entry.Sampler.Type = wgpu.SamplerBindingTypeFiltering
		return entry, nil
	}

	base, param, _ := strings.Cut(typeName, "<")
	switch base {
	case "texture_1d":
		entry.Texture.ViewDimension = wgpu.TextureViewDimension1D
	case "texture_2d":
		entry.Texture.ViewDimension = wgpu.TextureViewDimension2D
	case "texture_multisampled_2d":
		entry.Texture.ViewDimension = wgpu.TextureViewDimension2D
		entry.Texture.Multisampled = true
	case "texture_2d_array":
		entry.Texture.ViewDimension = wgpu.TextureViewDimension2DArray
	case "texture_3d":
		entry.Texture.ViewDimension = wgpu.TextureViewDimension3D
	case "texture_cube":
		entry.Texture.ViewDimension = wgpu.TextureViewDimensionCube
	default:
		return entry, fmt.Errorf("binding %d: unsupported resource type %q", binding, typeName)
	}
	sampleType, ok := textureSampleTypes[strings.TrimSpace(strings.TrimSuffix(param, ">"))]
	if !ok {
		return entry, fmt.Errorf("binding %d: texture %q has no sample type", binding, typeName)
	}
	entry.Texture.SampleType = sampleType
	return entry, nil
}

// vertexBufferLayout packs the @location members of a vertex input struct tightly in declaration
// order. Structs with builtins (stage outputs), no locations, or non-attribute types are rejected.
func vertexBufferLayout(ps parsedStruct) (wgpu.VertexBufferLayout, bool) {
	layout := wgpu.VertexBufferLayout{StepMode: wgpu.VertexStepModeVertex}
	for _, f := range ps.fields {
		if f.isBuiltin || f.location < 0 {
			return wgpu.VertexBufferLayout{}, false
		}
		n, scalar := 1, f.typeName
		if vn, vs, ok := vectorShape(f.typeName); ok {
			n, scalar = vn, vs
		}
		formats, ok := vertexFormats[scalar]
		if !ok {
			return wgpu.VertexBufferLayout{}, false
		}
		layout.Attributes = append(layout.Attributes, wgpu.VertexAttribute{
			Format:         formats[n-1],
			Offset:         layout.ArrayStride,
			ShaderLocation: uint32(f.location),
		})
		layout.ArrayStride += uint64(n) * scalarSizes[scalar]
	}
	return layout, len(layout.Attributes) > 0
}

// stripComments blanks out line comments and nested block comments, keeping newlines.
func stripComments(source string) string {
	var sb strings.Builder
	sb.Grow(len(source))
	depth := 0
	for i := 0; i < len(source); i++ {
		c := source[i]
		next := byte(0)
		if i+1 < len(source) {
			next = source[i+1]
		}
		switch {
		case c == '/' && next == '*':
			depth++
			i++
		case depth > 0 && c == '*' && next == '/':
			depth--
			i++
		case depth > 0:
			if c == '\n' {
				sb.WriteByte(c)
			}
		case c == '/' && next == '/':
			for i < len(source) && source[i] != '\n' {
				i++
			}
			if i < len(source) {
				sb.WriteByte('\n')
			}
		default:
			sb.WriteByte(c)
		}
	}
	return sb.String()
}

// splitTopLevel splits s at sep, ignoring separators nested in <...>.
func splitTopLevel(s string, sep byte) []string {
	var parts []string
	depth, start := 0, 0
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '<':
			depth++
		case '>':
			depth = max(depth-1, 0)
		case sep:
			if depth == 0 {
				parts = append(parts, s[start:i])
				start = i + 1
			}
		}
	}
	return append(parts, s[start:])
}
