package shader

import (
	"cmp"
	"fmt"
	"regexp"
	"slices"
	"strconv"
	"strings"

	"github.com/cogentcore/webgpu/wgpu"
)

var (
	structRe   = regexp.MustCompile(`struct\s+(\w+)\s*\{([^}]*)\}`)
	locationRe = regexp.MustCompile(`@location\((\d+)\)`)
	builtinRe  = regexp.MustCompile(`@builtin\(\w+\)`)

	// fieldRe skips leading attributes and captures a field name and its type. The type is greedy so
	// parameterized types such as array<T, N> stay whole.
	fieldRe = regexp.MustCompile(`(?:@\w+\([^)]*\)\s*)*(\w+)\s*:\s*(.+)`)

	fnRe    = regexp.MustCompile(`\bfn\s+(\w+)\s*\(`)
	identRe = regexp.MustCompile(`\b[A-Za-z_]\w*\b`)

	// resourceRe matches "@group(G) @binding(B) var<space> name: type;" with the address space
	// optional for handle types.
	resourceRe = regexp.MustCompile(`@group\((\d+)\)\s*@binding\((\d+)\)\s*var(?:<([^>]*)>)?\s+(\w+)\s*:\s*([^;]+?)\s*;`)

	stageRes = map[ShaderType]*regexp.Regexp{
		ShaderTypeVertex:   regexp.MustCompile(`(?s)@vertex\b.*?\bfn\s+(\w+)`),
		ShaderTypeFragment: regexp.MustCompile(`(?s)@fragment\b.*?\bfn\s+(\w+)`),
	}
)

// wgslModule is WGSL source with comments removed, plus its structs and function bodies.
type wgslModule struct {
	text    string
	structs []parsedStruct
	bodies  map[string]string
}

func parseModule(source string) *wgslModule {
	text := stripComments(source)
	return &wgslModule{
		text:    text,
		structs: parseStructs(text),
		bodies:  functionBodies(text),
	}
}

// entryPoint returns the name of the first function attributed with the stage, or "".
func (m *wgslModule) entryPoint(stage ShaderType) string {
	re, ok := stageRes[stage]
	if !ok {
		return ""
	}
	if match := re.FindStringSubmatch(m.text); match != nil {
		return match[1]
	}
	return ""
}

// stageVisibility reports, per identifier, the stages whose entry point reaches it directly or
// through the functions it calls.
func (m *wgslModule) stageVisibility(vertexEntry, fragmentEntry string) map[string]wgpu.ShaderStage {
	stages := make(map[string]wgpu.ShaderStage)
	walk := func(entry string, stage wgpu.ShaderStage) {
		seen := make(map[string]bool)
		pending := []string{entry}
		for len(pending) > 0 {
			fn := pending[len(pending)-1]
			pending = pending[:len(pending)-1]
			if seen[fn] {
				continue
			}
			seen[fn] = true
			for _, ident := range identRe.FindAllString(m.bodies[fn], -1) {
				stages[ident] |= stage
				if _, isFn := m.bodies[ident]; isFn {
					pending = append(pending, ident)
				}
			}
		}
	}
	if vertexEntry != "" {
		walk(vertexEntry, wgpu.ShaderStageVertex)
	}
	if fragmentEntry != "" {
		walk(fragmentEntry, wgpu.ShaderStageFragment)
	}
	return stages
}

// bindGroups builds a layout descriptor per declared group with entries sorted by binding.
// Buffer entries get their MinBindingSize from the declared type. A resource no entry point reaches
// is made visible to both stages.
//
// Returns:
//   - map[int]wgpu.BindGroupLayoutDescriptor: descriptors keyed by group
//   - map[int]map[int]string: variable names keyed by group, then binding
//   - error: a declaration that cannot be bound
func (m *wgslModule) bindGroups(visibility map[string]wgpu.ShaderStage) (map[int]wgpu.BindGroupLayoutDescriptor, map[int]map[int]string, error) {
	sizes := structLayouts(m.structs)
	entries := make(map[int][]wgpu.BindGroupLayoutEntry)
	names := make(map[int]map[int]string)

	for _, decl := range resourceRe.FindAllStringSubmatch(m.text, -1) {
		group, _ := strconv.Atoi(decl[1])
		binding, _ := strconv.Atoi(decl[2])
		space, name, typeName := strings.TrimSpace(decl[3]), decl[4], strings.TrimSpace(decl[5])

		stages := visibility[name]
		if stages == wgpu.ShaderStageNone {
			stages = wgpu.ShaderStageVertex | wgpu.ShaderStageFragment
		}
		entry, err := resourceEntry(uint32(binding), stages, space, typeName)
		if err != nil {
			return nil, nil, fmt.Errorf("group %d %s: %w", group, name, err)
		}
		if entry.Buffer.Type != wgpu.BufferBindingTypeUndefined {
			if l, ok := typeLayout(typeName, sizes); ok {
				entry.Buffer.MinBindingSize = l.size
			}
		}
		entries[group] = append(entries[group], entry)

		if names[group] == nil {
			names[group] = make(map[int]string)
		}
		names[group][binding] = name
	}

	descs := make(map[int]wgpu.BindGroupLayoutDescriptor, len(entries))
	for group, list := range entries {
		slices.SortFunc(list, func(a, b wgpu.BindGroupLayoutEntry) int { return cmp.Compare(a.Binding, b.Binding) })
		descs[group] = wgpu.BindGroupLayoutDescriptor{
			Label:   fmt.Sprintf("group %d", group),
			Entries: list,
		}
	}
	return descs, names, nil
}

// vertexLayouts returns one buffer layout per pure vertex input struct, in declaration order.
func (m *wgslModule) vertexLayouts() []wgpu.VertexBufferLayout {
	var layouts []wgpu.VertexBufferLayout
	for _, ps := range m.structs {
		if l, ok := vertexBufferLayout(ps); ok {
			layouts = append(layouts, l)
		}
	}
	return layouts
}

// functionBodies maps each function name to the text inside its outermost braces. Functions with
// unbalanced braces are left out.
func functionBodies(text string) map[string]string {
	bodies := make(map[string]string)
	for _, loc := range fnRe.FindAllStringSubmatchIndex(text, -1) {
		open := strings.IndexByte(text[loc[1]:], '{')
		if open < 0 {
			continue
		}
		start := loc[1] + open + 1
		depth := 1
		i := start
		for ; i < len(text) && depth > 0; i++ {
			switch text[i] {
			case '{':
				depth++
			case '}':
				depth--
			}
		}
		if depth == 0 {
			bodies[text[loc[2]:loc[3]]] = text[start : i-1]
		}
	}
	return bodies
}

func parseStructs(text string) []parsedStruct {
	var structs []parsedStruct
	for _, match := range structRe.FindAllStringSubmatch(text, -1) {
		structs = append(structs, parsedStruct{name: match[1], fields: parseFields(match[2])})
	}
	return structs
}

// parseFields splits a struct body at top-level commas into fields with their attributes.
func parseFields(body string) []parsedField {
	var fields []parsedField
	for _, part := range splitTopLevel(body, ',') {
		part = strings.TrimSpace(part)
		m := fieldRe.FindStringSubmatch(part)
		if m == nil {
			continue
		}
		f := parsedField{
			name:      m[1],
			typeName:  strings.TrimSpace(m[2]),
			location:  -1,
			isBuiltin: builtinRe.MatchString(part),
		}
		if loc := locationRe.FindStringSubmatch(part); loc != nil {
			f.location, _ = strconv.Atoi(loc[1])
		}
		fields = append(fields, f)
	}
	return fields
}
