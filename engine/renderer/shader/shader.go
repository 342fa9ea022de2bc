// Package shader wraps WGSL programs and reflects the vertex and bind group layouts a render
// pipeline needs out of the source, so they are declared once, in the shader.
package shader

import (
	"errors"
	"fmt"

	"github.com/cogentcore/webgpu/wgpu"
)

// ShaderType identifies the pipeline stage a Shader is compiled for.
type ShaderType int

const (
	// ShaderTypeVertex represents a vertex shader.
	ShaderTypeVertex ShaderType = iota

	// ShaderTypeFragment represents a fragment shader.
	ShaderTypeFragment
)

func (t ShaderType) String() string {
	switch t {
	case ShaderTypeVertex:
		return "vertex"
	case ShaderTypeFragment:
		return "fragment"
	default:
		return "unknown"
	}
}

// ErrNoEntryPoint is returned when the WGSL source has no entry point for the requested stage.
var ErrNoEntryPoint = errors.New("shader has no entry point for stage")

// shader is the implementation of the Shader interface.
type shader struct {
	key        string
	source     string
	shaderType ShaderType
	entryPoint string

	vertexLayouts []wgpu.VertexBufferLayout
	bindGroups    map[int]wgpu.BindGroupLayoutDescriptor
	bindingNames  map[int]map[int]string
}

// Shader is one stage of a WGSL program. A single source may hold both the vertex and fragment
// entry points; create one Shader per stage.
type Shader interface {
	// Key returns the label the GPU module is created with.
	Key() string

	// Source returns the WGSL source code.
	Source() string

	// ShaderType returns the stage this shader was reflected for.
	ShaderType() ShaderType

	// EntryPoint returns the entry function name for this shader's stage.
	EntryPoint() string

	// VertexLayouts returns the vertex buffer layouts in slot order. Fragment shaders and vertex
	// entry points without @location inputs return nil.
	//
	// Returns:
	//   - []wgpu.VertexBufferLayout: the layouts
	VertexLayouts() []wgpu.VertexBufferLayout

	// BindGroupLayoutDescriptor returns the layout descriptor for one bind group, with every entry
	// visible to this shader's stage.
	//
	// Parameters:
	//   - group: the @group index
	//
	// Returns:
	//   - wgpu.BindGroupLayoutDescriptor: the descriptor, empty if the group is not declared
	BindGroupLayoutDescriptor(group int) wgpu.BindGroupLayoutDescriptor

	// BindGroupLayoutDescriptors returns every declared group's descriptor keyed by group index.
	BindGroupLayoutDescriptors() map[int]wgpu.BindGroupLayoutDescriptor

	// BindingName returns the WGSL variable declared at (group, binding), or "".
	BindingName(group, binding int) string
}

var _ Shader = &shader{}

// NewShader reflects WGSL source for the given stage.
//
// Parameters:
//   - key: a unique identifier used as the GPU module label
//   - shaderType: the stage to reflect
//   - source: the WGSL source code
//
// Returns:
//   - Shader: the reflected shader
//   - error: ErrNoEntryPoint if the source has no entry point for the stage, or an error for
//     vertex inputs or resources the renderer cannot describe
func NewShader(key string, shaderType ShaderType, source string) (Shader, error) {
	s := &shader{
		key:        key,
		source:     source,
		shaderType: shaderType,
	}
	if err := s.reflect(); err != nil {
		return nil, fmt.Errorf("shader %s: %w", key, err)
	}
	return s, nil
}

func (s *shader) Key() string {
	return s.key
}

func (s *shader) Source() string {
	return s.source
}

func (s *shader) ShaderType() ShaderType {
	return s.shaderType
}

func (s *shader) EntryPoint() string {
	return s.entryPoint
}

func (s *shader) VertexLayouts() []wgpu.VertexBufferLayout {
	return s.vertexLayouts
}

func (s *shader) BindGroupLayoutDescriptor(group int) wgpu.BindGroupLayoutDescriptor {
	return s.bindGroups[group]
}

func (s *shader) BindGroupLayoutDescriptors() map[int]wgpu.BindGroupLayoutDescriptor {
	return s.bindGroups
}

func (s *shader) BindingName(group, binding int) string {
	return s.bindingNames[group][binding]
}

func (s *shader) reflect() error {
	module := reflectWGSL(s.source)
	entry, ok := module.entries[s.shaderType]
	if !ok {
		return fmt.Errorf("%w %s", ErrNoEntryPoint, s.shaderType)
	}
	s.entryPoint = entry.name

	visibility := wgpu.ShaderStageFragment
	if s.shaderType == ShaderTypeVertex {
		visibility = wgpu.ShaderStageVertex
		layouts, err := module.vertexLayout()
		if err != nil {
			return err
		}
		s.vertexLayouts = layouts
	}

	groups, names, err := module.bindGroupLayouts(visibility)
	if err != nil {
		return err
	}
	s.bindGroups, s.bindingNames = groups, names
	return nil
}
