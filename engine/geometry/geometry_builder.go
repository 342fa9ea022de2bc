package geometry

import "github.com/cogentcore/webgpu/wgpu"

// GeometryBuilderOption is a functional option applied to a geometry during construction.
type GeometryBuilderOption func(*geometry)

// WithName sets the debug name used for the mesh buffers.
//
// Parameters:
//   - name: the debug name
//
// Returns:
//   - GeometryBuilderOption: option function to apply
func WithName(name string) GeometryBuilderOption {
	return func(g *geometry) {
		g.name = name
	}
}

// WithPipelineKey overrides the pipeline cache key.
//
// Parameters:
//   - key: the pipeline key
//
// Returns:
//   - GeometryBuilderOption: option function to apply
func WithPipelineKey(key string) GeometryBuilderOption {
	return func(g *geometry) {
		g.pipelineKey = key
	}
}

// WithTopology sets the primitive topology.
func WithTopology(topology wgpu.PrimitiveTopology) GeometryBuilderOption {
	return func(g *geometry) {
		g.topology = topology
	}
}

// WithCullMode sets the face culling mode.
func WithCullMode(mode wgpu.CullMode) GeometryBuilderOption {
	return func(g *geometry) {
		g.cullMode = mode
	}
}

// WithFrontFace sets the front face winding.
func WithFrontFace(frontFace wgpu.FrontFace) GeometryBuilderOption {
	return func(g *geometry) {
		g.frontFace = frontFace
	}
}
