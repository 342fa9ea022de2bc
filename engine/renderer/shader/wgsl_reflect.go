package shader

import (
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/cogentcore/webgpu/wgpu"
)

var (
	structDeclRegex  = regexp.MustCompile(`\bstruct\s+(\w+)\s*\{([^}]*)\}`)
	bindingDeclRegex = regexp.MustCompile(`@group\((\d+)\)\s*@binding\((\d+)\)\s*var(?:<([^>]*)>)?\s+(\w+)\s*:\s*([^;]+?)\s*;`)
	attributeRegex   = regexp.MustCompile(`@(\w+)\s*(?:\(([^)]*)\))?`)
	// stage attribute, any further attributes, then the function name
	entryDeclRegex = regexp.MustCompile(`@(vertex|fragment)\b(?:\s*@\w+(?:\([^)]*\))?)*\s*fn\s+(\w+)\s*\(`)
)

// wgslMember is one struct member or function parameter.
type wgslMember struct {
	name     string
	typeName string
	// location is the @location index, or -1.
	location int
	builtin  bool
	// align and size are explicit @align / @size overrides, 0 when absent.
	align, size uint64
}

// wgslBinding is one @group/@binding resource declaration.
type wgslBinding struct {
	group, binding int
	addressSpace   string
	name           string
	typeName       string
}

// wgslEntry is one entry point and its parameter list.
type wgslEntry struct {
	name   string
	params []wgslMember
}

// wgslModule is what the renderer needs to know about a WGSL source: struct shapes, resource
// bindings and entry points. Nothing is validated beyond that; the GPU compiler still has the
// final word.
type wgslModule struct {
	structs  map[string][]wgslMember
	bindings []wgslBinding
	entries  map[ShaderType]wgslEntry
}

// reflectWGSL scans source for structs, bindings and the first entry point of each stage.
//
// Parameters:
//   - source: WGSL source code
//
// Returns:
//   - wgslModule: the reflected declarations
func reflectWGSL(source string) wgslModule {
	src := stripComments(source)
	m := wgslModule{
		structs: make(map[string][]wgslMember),
		entries: make(map[ShaderType]wgslEntry),
	}

	for _, match := range structDeclRegex.FindAllStringSubmatch(src, -1) {
		m.structs[match[1]] = parseMembers(match[2])
	}

	for _, match := range bindingDeclRegex.FindAllStringSubmatch(src, -1) {
		group, _ := strconv.Atoi(match[1])
		binding, _ := strconv.Atoi(match[2])
		m.bindings = append(m.bindings, wgslBinding{
			group:        group,
			binding:      binding,
			addressSpace: strings.Join(strings.Fields(match[3]), ""),
			name:         match[4],
			typeName:     compactType(match[5]),
		})
	}

	for _, loc := range entryDeclRegex.FindAllStringSubmatchIndex(src, -1) {
		stage := ShaderTypeVertex
		if src[loc[2]:loc[3]] == "fragment" {
			stage = ShaderTypeFragment
		}
		if _, seen := m.entries[stage]; seen {
			continue
		}
		params, ok := enclosed(src, loc[1]-1)
		if !ok {
			continue
		}
		m.entries[stage] = wgslEntry{name: src[loc[4]:loc[5]], params: parseMembers(params)}
	}
	return m
}

// vertexLayout builds the vertex buffer layout for slot 0 from the @location inputs of the
// vertex entry point. Inputs can be entry parameters or members of a struct parameter;
// builtins are skipped. Attributes are packed in declaration order.
//
// Returns:
//   - []wgpu.VertexBufferLayout: one layout, or nil when the entry takes no vertex attributes
//   - error: an error for input types that have no vertex format
func (m wgslModule) vertexLayout() ([]wgpu.VertexBufferLayout, error) {
	entry, ok := m.entries[ShaderTypeVertex]
	if !ok {
		return nil, nil
	}

	var inputs []wgslMember
	for _, p := range entry.params {
		if members, isStruct := m.structs[p.typeName]; isStruct {
			inputs = append(inputs, members...)
			continue
		}
		inputs = append(inputs, p)
	}

	var layout wgpu.VertexBufferLayout
	layout.StepMode = wgpu.VertexStepModeVertex
	for _, in := range inputs {
		if in.builtin || in.location < 0 {
			continue
		}
		format, size, ok := vertexFormat(in.typeName)
		if !ok {
			return nil, fmt.Errorf("vertex input %s: no vertex format for %s", in.name, in.typeName)
		}
		layout.Attributes = append(layout.Attributes, wgpu.VertexAttribute{
			Format:         format,
			Offset:         layout.ArrayStride,
			ShaderLocation: uint32(in.location),
		})
		layout.ArrayStride += size
	}
	if len(layout.Attributes) == 0 {
		return nil, nil
	}
	return []wgpu.VertexBufferLayout{layout}, nil
}

// bindGroupLayouts converts the resource bindings into layout descriptors with entries sorted by
// binding. Buffer entries get MinBindingSize from the bound type.
//
// Parameters:
//   - visibility: the stage every entry is visible to
//
// Returns:
//   - map[int]wgpu.BindGroupLayoutDescriptor: descriptors keyed by group
//   - map[int]map[int]string: variable names keyed by group and binding
//   - error: an error for resource types the renderer cannot bind
func (m wgslModule) bindGroupLayouts(visibility wgpu.ShaderStage) (map[int]wgpu.BindGroupLayoutDescriptor, map[int]map[int]string, error) {
	entries := make(map[int][]wgpu.BindGroupLayoutEntry)
	names := make(map[int]map[int]string)

	for _, b := range m.bindings {
		entry, err := m.layoutEntry(b)
		if err != nil {
			return nil, nil, fmt.Errorf("binding %s (group %d, binding %d): %w", b.name, b.group, b.binding, err)
		}
		entry.Visibility = visibility
		entries[b.group] = append(entries[b.group], entry)

		if names[b.group] == nil {
			names[b.group] = make(map[int]string)
		}
		names[b.group][b.binding] = b.name
	}

	descriptors := make(map[int]wgpu.BindGroupLayoutDescriptor, len(entries))
	for group, list := range entries {
		sort.Slice(list, func(i, j int) bool { return list[i].Binding < list[j].Binding })
		descriptors[group] = wgpu.BindGroupLayoutDescriptor{Entries: list}
	}
	return descriptors, names, nil
}

func (m wgslModule) layoutEntry(b wgslBinding) (wgpu.BindGroupLayoutEntry, error) {
	entry := wgpu.BindGroupLayoutEntry{Binding: uint32(b.binding)}

	if b.addressSpace != "" {
		switch b.addressSpace {
		case "uniform":
			entry.Buffer.Type = wgpu.BufferBindingTypeUniform
		case "storage", "storage,read":
			entry.Buffer.Type = wgpu.BufferBindingTypeReadOnlyStorage
		case "storage,read_write":
			entry.Buffer.Type = wgpu.BufferBindingTypeStorage
		default:
			return entry, fmt.Errorf("unsupported address space %q", b.addressSpace)
		}
		// runtime-sized types report no size; the buffer is then sized by the caller
		if size, _, ok := m.typeLayout(b.typeName); ok {
			entry.Buffer.MinBindingSize = size
		}
		return entry, nil
	}

	base, param := splitGeneric(b.typeName)
	switch {
	case base == "sampler":
		entry.Sampler.Type = wgpu.SamplerBindingTypeFiltering
	case base == "sampler_comparison":
		entry.Sampler.Type = wgpu.SamplerBindingTypeComparison
	case strings.HasPrefix(base, "texture_depth_"):
		dim, multisampled, ok := textureDimension(strings.TrimPrefix(base, "texture_depth_"))
		if !ok {
			return entry, fmt.Errorf("unsupported texture type %s", b.typeName)
		}
		entry.Texture.SampleType = wgpu.TextureSampleTypeDepth
		entry.Texture.ViewDimension = dim
		entry.Texture.Multisampled = multisampled
	case strings.HasPrefix(base, "texture_") && !strings.HasPrefix(base, "texture_storage_"):
		dim, multisampled, ok := textureDimension(strings.TrimPrefix(base, "texture_"))
		if !ok {
			return entry, fmt.Errorf("unsupported texture type %s", b.typeName)
		}
		entry.Texture.ViewDimension = dim
		entry.Texture.Multisampled = multisampled
		switch param {
		case "f32":
			entry.Texture.SampleType = wgpu.TextureSampleTypeFloat
			if multisampled {
				entry.Texture.SampleType = wgpu.TextureSampleTypeUnfilterableFloat
			}
		case "i32":
			entry.Texture.SampleType = wgpu.TextureSampleTypeSint
		case "u32":
			entry.Texture.SampleType = wgpu.TextureSampleTypeUint
		default:
			return entry, fmt.Errorf("unsupported texel type %q", param)
		}
	default:
		return entry, fmt.Errorf("unsupported resource type %s", b.typeName)
	}
	return entry, nil
}

func textureDimension(suffix string) (wgpu.TextureViewDimension, bool, bool) {
	switch suffix {
	case "1d":
		return wgpu.TextureViewDimension1D, false, true
	case "2d":
		return wgpu.TextureViewDimension2D, false, true
	case "2d_array":
		return wgpu.TextureViewDimension2DArray, false, true
	case "3d":
		return wgpu.TextureViewDimension3D, false, true
	case "cube":
		return wgpu.TextureViewDimensionCube, false, true
	case "cube_array":
		return wgpu.TextureViewDimensionCubeArray, false, true
	case "multisampled_2d":
		return wgpu.TextureViewDimension2D, true, true
	}
	return 0, false, false
}

// parseMembers parses a comma separated member or parameter list. Commas nested inside <> or ()
// do not split.
func parseMembers(list string) []wgslMember {
	var members []wgslMember
	for _, part := range splitTopLevel(list) {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		member := wgslMember{location: -1}
		for _, attr := range attributeRegex.FindAllStringSubmatch(part, -1) {
			arg := strings.TrimSpace(attr[2])
			switch attr[1] {
			case "location":
				if n, err := strconv.Atoi(arg); err == nil {
					member.location = n
				}
			case "builtin":
				member.builtin = true
			case "align":
				member.align, _ = strconv.ParseUint(arg, 10, 64)
			case "size":
				member.size, _ = strconv.ParseUint(arg, 10, 64)
			}
		}
		decl := strings.TrimSpace(attributeRegex.ReplaceAllString(part, ""))
		name, typeName, ok := strings.Cut(decl, ":")
		if !ok {
			continue
		}
		member.name = strings.TrimSpace(name)
		member.typeName = compactType(typeName)
		members = append(members, member)
	}
	return members
}

func splitTopLevel(s string) []string {
	var parts []string
	depth, start := 0, 0
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '<', '(':
			depth++
		case '>', ')':
			if depth > 0 {
				depth--
			}
		case ',':
			if depth == 0 {
				parts = append(parts, s[start:i])
				start = i + 1
			}
		}
	}
	return append(parts, s[start:])
}

// enclosed returns the text between the parenthesis at open and its match.
func enclosed(s string, open int) (string, bool) {
	depth := 0
	for i := open; i < len(s); i++ {
		switch s[i] {
		case '(':
			depth++
		case ')':
			depth--
			if depth == 0 {
				return s[open+1 : i], true
			}
		}
	}
	return "", false
}

// compactType removes all whitespace, so "array< vec4f, 4 >" and "array<vec4f,4>" compare equal.
func compactType(t string) string {
	return strings.Join(strings.Fields(t), "")
}

// stripComments blanks out // and nested /* */ comments, keeping newlines.
func stripComments(source string) string {
	var b strings.Builder
	b.Grow(len(source))
	depth := 0
	for i := 0; i < len(source); i++ {
		switch {
		case depth == 0 && strings.HasPrefix(source[i:], "//"):
			for i < len(source) && source[i] != '\n' {
				i++
			}
			if i < len(source) {
				b.WriteByte('\n')
			}
		case strings.HasPrefix(source[i:], "/*"):
			depth++
			i++
		case depth > 0 && strings.HasPrefix(source[i:], "*/"):
			depth--
			i++
		case depth > 0:
			if source[i] == '\n' {
				b.WriteByte('\n')
			}
		default:
			b.WriteByte(source[i])
		}
	}
	return b.String()
}
