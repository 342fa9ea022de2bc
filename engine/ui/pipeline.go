package ui

import (
	"github.com/Carmen-Shannon/oxy-viewer/engine/renderer/pipeline"
	"github.com/Carmen-Shannon/oxy-viewer/engine/renderer/shader"
	"github.com/cogentcore/webgpu/wgpu"
)

// PipelineKey is the pipeline cache key the overlay draws with.
const PipelineKey = "overlay"

// NewPipeline builds the overlay pipeline: alpha blended triangles in the overlay pass with no
// depth and no culling.
//
// Returns:
//   - pipeline.Pipeline: the unregistered pipeline
//   - error: an error if the overlay shader fails to parse
func NewPipeline() (pipeline.Pipeline, error) {
	vs, err := shader.NewShader(PipelineKey+".vs", shader.ShaderTypeVertex, ShaderSource)
	if err != nil {
		return nil, err
	}
	fs, err := shader.NewShader(PipelineKey+".fs", shader.ShaderTypeFragment, ShaderSource)
	if err != nil {
		return nil, err
	}
	return pipeline.NewPipeline(PipelineKey,
		pipeline.WithShaders(vs, fs),
		pipeline.WithPassTarget(pipeline.PassTargetOverlay),
		pipeline.WithPrimitive(pipeline.PrimitiveState{
			Topology:  wgpu.PrimitiveTopologyTriangleList,
			CullMode:  wgpu.CullModeNone,
			FrontFace: wgpu.FrontFaceCCW,
		}),
		pipeline.WithDepth(pipeline.DepthState{}),
		pipeline.WithBlend(pipeline.AlphaBlend()),
	), nil
}
