package shader

import (
	_ "embed"
	"errors"
	"fmt"

	"github.com/cogentcore/webgpu/wgpu"
)

// VoxelSource is the WGSL program that draws voxel objects. It has the entry points vs_main and
// fs_main and three bind groups: 0 for the static palette, 1 for per-frame view data and 2 for the
// per-draw voxel texture and model matrix.
//
//go:embed assets/voxel.wgsl
var VoxelSource string

// ShaderType identifies a programmable pipeline stage.
type ShaderType int

const (
	ShaderTypeVertex ShaderType = iota
	ShaderTypeFragment
)

// String returns the stage's WGSL attribute name.
func (t ShaderType) String() string {
	switch t {
	case ShaderTypeVertex:
		return "vertex"
	case ShaderTypeFragment:
		return "fragment"
	}
	return fmt.Sprintf("ShaderType(%d)", int(t))
}

// Shader is a WGSL program with one vertex and one fragment entry point. The bind group layouts
// and vertex buffer layouts a pipeline needs are derived from the source, so none are written
// by hand.
type Shader interface {
	// Key labels the GPU objects created from this shader.
	Key() string

	Source() string

	// EntryPoint returns the function name for a stage, such as "vs_main".
	//
	// Parameters:
	//   - shaderType: the stage
	//
	// Returns:
	//   - string: the entry point, or "" for an unknown stage
	EntryPoint(shaderType ShaderType) string

	// BindGroupLayoutDescriptor returns the layout descriptor derived for a group.
	//
	// Parameters:
	//   - group: the group index
	//
	// Returns:
	//   - wgpu.BindGroupLayoutDescriptor: the descriptor, empty when the group is not declared
	BindGroupLayoutDescriptor(group int) wgpu.BindGroupLayoutDescriptor

	// BindGroupLayoutDescriptors returns every derived descriptor keyed by group. An entry is
	// visible to the stages whose entry points reach its variable.
	BindGroupLayoutDescriptors() map[int]wgpu.BindGroupLayoutDescriptor

	// BindGroupVarName returns the variable declared at a group and binding.
	//
	// Parameters:
	//   - group: the group index
	//   - binding: the binding index
	//
	// Returns:
	//   - string: the variable name, or "" when nothing is declared there
	BindGroupVarName(group, binding int) string

	// BindGroupFromVarName finds the binding a variable is declared at within a group.
	//
	// Parameters:
	//   - group: the group index
	//   - varName: the WGSL variable name
	//
	// Returns:
	//   - int: the binding, or -1
	//   - bool: whether the variable was found
	BindGroupFromVarName(group int, varName string) (int, bool)

	// VertexLayouts returns one buffer layout per vertex input struct, in declaration order.
	VertexLayouts() []wgpu.VertexBufferLayout

	// Module returns the descriptor for creating the GPU shader module.
	Module() *wgpu.ShaderModuleDescriptor
}

type shader struct {
	key    string
	source string
	module *wgpu.ShaderModuleDescriptor

	entryPoints   map[ShaderType]string
	groups        map[int]wgpu.BindGroupLayoutDescriptor
	varNames      map[int]map[int]string
	vertexBuffers []wgpu.VertexBufferLayout

	// required is ORed into the visibility of every entry in a group, on top of what the entry
	// points reach.
	required map[int]wgpu.ShaderStage
}

var _ Shader = &shader{}

// NewShader parses WGSL source and derives its pipeline layouts.
//
// Parameters:
//   - key: the label for GPU objects created from the shader
//   - source: WGSL with a @vertex and a @fragment entry point
//   - options: functional options applied before the layouts are derived
//
// Returns:
//   - Shader: the parsed shader
//   - error: the source is empty, lacks an entry point or declares a resource that cannot be bound
func NewShader(key string, source string, options ...ShaderBuilderOption) (Shader, error) {
	if source == "" {
		return nil, fmt.Errorf("shader %s: empty source", key)
	}

	m := parseModule(source)
	s := &shader{
		key:    key,
		source: source,
		module: &wgpu.ShaderModuleDescriptor{
			Label:          key,
			WGSLDescriptor: &wgpu.ShaderModuleWGSLDescriptor{Code: source},
		},
		entryPoints: make(map[ShaderType]string, 2),
		required:    make(map[int]wgpu.ShaderStage),
	}
	for _, option := range options {
		option(s)
	}

	var missing []error
	for _, stage := range []ShaderType{ShaderTypeVertex, ShaderTypeFragment} {
		if ep := m.entryPoint(stage); ep != "" {
			s.entryPoints[stage] = ep
		} else {
			missing = append(missing, fmt.Errorf("shader %s: missing %s entry point", key, stage))
		}
	}
	if err := errors.Join(missing...); err != nil {
		return nil, err
	}

	visibility := m.stageVisibility(s.entryPoints[ShaderTypeVertex], s.entryPoints[ShaderTypeFragment])
	groups, names, err := m.bindGroups(visibility)
	if err != nil {
		return nil, fmt.Errorf("shader %s: %w", key, err)
	}
	for group, stages := range s.required {
		desc, ok := groups[group]
		if !ok {
			return nil, fmt.Errorf("shader %s: visibility set for undeclared group %d", key, group)
		}
		for i := range desc.Entries {
			desc.Entries[i].Visibility |= stages
		}
	}
	s.groups, s.varNames = groups, names
	s.vertexBuffers = m.vertexLayouts()
	return s, nil
}

func (s *shader) Key() string                                { return s.key }
func (s *shader) Source() string                             { return s.source }
func (s *shader) Module() *wgpu.ShaderModuleDescriptor       { return s.module }
func (s *shader) EntryPoint(shaderType ShaderType) string    { return s.entryPoints[shaderType] }
func (s *shader) VertexLayouts() []wgpu.VertexBufferLayout   { return s.vertexBuffers }
func (s *shader) BindGroupVarName(group, binding int) string { return s.varNames[group][binding] }

func (s *shader) BindGroupLayoutDescriptor(group int) wgpu.BindGroupLayoutDescriptor {
	return s.groups[group]
}

func (s *shader) BindGroupLayoutDescriptors() map[int]wgpu.BindGroupLayoutDescriptor {
	return s.groups
}

func (s *shader) BindGroupFromVarName(group int, varName string) (int, bool) {
	for binding, name := range s.varNames[group] {
		if name == varName {
			return binding, true
		}
	}
	return -1, false
}
