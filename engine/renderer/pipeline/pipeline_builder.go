package pipeline

import (
	"github.com/Carmen-Shannon/oxy-viewer/engine/renderer/shader"
	"github.com/cogentcore/webgpu/wgpu"
)

// PipelineBuilderOption adjusts a pipeline description in NewPipeline.
type PipelineBuilderOption func(*pipeline)

// WithShaders sets both stages. The renderer refuses to register a pipeline missing either.
//
// Parameters:
//   - vertex: the vertex stage
//   - fragment: the fragment stage
//
// Returns:
//   - PipelineBuilderOption: option function to apply
func WithShaders(vertex, fragment shader.Shader) PipelineBuilderOption {
	return func(p *pipeline) {
		p.vertexShader, p.fragmentShader = vertex, fragment
	}
}

// WithPassTarget selects the render pass the pipeline is built for.
func WithPassTarget(target PassTarget) PipelineBuilderOption {
	return func(p *pipeline) {
		p.passTarget = target
	}
}

// WithPrimitive replaces topology, culling and winding together.
func WithPrimitive(state PrimitiveState) PipelineBuilderOption {
	return func(p *pipeline) {
		p.primitive = state
	}
}

// WithDepth sets the depth test and write flags.
func WithDepth(state DepthState) PipelineBuilderOption {
	return func(p *pipeline) {
		p.depth = state
	}
}

// WithBlend sets the color blend state; nil turns blending off. See AlphaBlend.
func WithBlend(state *wgpu.BlendState) PipelineBuilderOption {
	return func(p *pipeline) {
		p.blend = state
	}
}

// WithWriteMask limits the color channels the pipeline writes.
func WithWriteMask(mask wgpu.ColorWriteMask) PipelineBuilderOption {
	return func(p *pipeline) {
		p.writeMask = mask
	}
}
