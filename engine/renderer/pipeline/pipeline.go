// Package pipeline describes render pipelines before and after the renderer creates them.
package pipeline

import (
	"github.com/Carmen-Shannon/oxy-viewer/engine/renderer/shader"
	"github.com/cogentcore/webgpu/wgpu"
)

// PassTarget identifies which render pass a pipeline draws in.
// The two passes have different attachments, so a pipeline built for one cannot be used in the other.
type PassTarget int

const (
	// PassTargetMain draws in the main pass: multisampled color plus a Depth24Plus attachment.
	PassTargetMain PassTarget = iota

	// PassTargetOverlay draws in the overlay pass: single-sampled color straight onto the surface, no depth.
	PassTargetOverlay
)

// PrimitiveState is how vertices assemble into primitives and which faces are culled.
type PrimitiveState struct {
	Topology  wgpu.PrimitiveTopology
	CullMode  wgpu.CullMode
	FrontFace wgpu.FrontFace
}

// DepthState configures the depth attachment of the main pass. Overlay pipelines have none.
type DepthState struct {
	// Test compares with Less. Without it every fragment passes.
	Test  bool
	Write bool
}

// AlphaBlend returns straight alpha blending of color that leaves destination alpha untouched,
// so the surface stays opaque under translucent overlay quads.
func AlphaBlend() *wgpu.BlendState {
	return &wgpu.BlendState{
		Color: wgpu.BlendComponent{
			SrcFactor: wgpu.BlendFactorSrcAlpha,
			DstFactor: wgpu.BlendFactorOneMinusSrcAlpha,
			Operation: wgpu.BlendOperationAdd,
		},
		Alpha: wgpu.BlendComponent{
			SrcFactor: wgpu.BlendFactorZero,
			DstFactor: wgpu.BlendFactorOne,
			Operation: wgpu.BlendOperationAdd,
		},
	}
}

type pipeline struct {
	key        string
	passTarget PassTarget

	vertexShader, fragmentShader shader.Shader

	primitive PrimitiveState
	depth     DepthState
	// blend is nil when blending is off.
	blend     *wgpu.BlendState
	writeMask wgpu.ColorWriteMask

	// set by the renderer on registration
	renderPipeline *wgpu.RenderPipeline
	layout         *wgpu.PipelineLayout
	groupLayouts   map[int]wgpu.BindGroupLayoutDescriptor
}

// Pipeline is a vertex and fragment shader pair with the fixed-function state they draw with.
// The renderer turns it into a GPU pipeline in RegisterPipelines.
type Pipeline interface {
	// PipelineKey is the name draw calls use to select this pipeline.
	PipelineKey() string

	// PassTarget returns the render pass this pipeline draws in.
	PassTarget() PassTarget

	// Shader returns the shader for a stage, or nil when it was never set.
	//
	// Parameters:
	//   - shaderType: vertex or fragment
	//
	// Returns:
	//   - shader.Shader: the shader or nil
	Shader(shaderType shader.ShaderType) shader.Shader

	// Primitive returns topology, culling and winding.
	Primitive() PrimitiveState

	// Depth returns the depth test and write flags. Ignored for the overlay pass.
	Depth() DepthState

	// Blend returns the color blend state, nil when blending is off.
	Blend() *wgpu.BlendState

	// WriteMask returns the color channels written by the pipeline.
	WriteMask() wgpu.ColorWriteMask

	// RenderPipeline returns the GPU pipeline, or nil before registration.
	RenderPipeline() *wgpu.RenderPipeline

	// BindGroupLayoutDescriptor returns the merged vertex and fragment layout of one group.
	// Bind groups drawn with this pipeline must be created from it.
	//
	// Parameters:
	//   - group: the @group index
	//
	// Returns:
	//   - wgpu.BindGroupLayoutDescriptor: the descriptor
	//   - bool: false before registration or when neither shader uses the group
	BindGroupLayoutDescriptor(group int) (wgpu.BindGroupLayoutDescriptor, bool)

	// SetRenderPipeline stores the GPU objects created for this pipeline. Called by the renderer.
	SetRenderPipeline(rp *wgpu.RenderPipeline, layout *wgpu.PipelineLayout, descriptors map[int]wgpu.BindGroupLayoutDescriptor)

	// Release frees the GPU pipeline and its layout. Safe to call more than once.
	Release()
}

var _ Pipeline = &pipeline{}

// NewPipeline describes a pipeline. Defaults: main pass, depth tested and written, no blending,
// counter-clockwise triangle list without culling, all channels written.
//
// Parameters:
//   - key: the name draw calls use to select the pipeline
//   - opts: functional options applied over the defaults
//
// Returns:
//   - Pipeline: the description, not yet registered with a renderer
func NewPipeline(key string, opts ...PipelineBuilderOption) Pipeline {
	p := &pipeline{
		key:        key,
		passTarget: PassTargetMain,
		primitive: PrimitiveState{
			Topology:  wgpu.PrimitiveTopologyTriangleList,
			CullMode:  wgpu.CullModeNone,
			FrontFace: wgpu.FrontFaceCCW,
		},
		depth:     DepthState{Test: true, Write: true},
		writeMask: wgpu.ColorWriteMaskAll,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

func (p *pipeline) PipelineKey() string            { return p.key }
func (p *pipeline) PassTarget() PassTarget         { return p.passTarget }
func (p *pipeline) Primitive() PrimitiveState      { return p.primitive }
func (p *pipeline) Depth() DepthState              { return p.depth }
func (p *pipeline) Blend() *wgpu.BlendState        { return p.blend }
func (p *pipeline) WriteMask() wgpu.ColorWriteMask { return p.writeMask }

func (p *pipeline) Shader(shaderType shader.ShaderType) shader.Shader {
	if shaderType == shader.ShaderTypeFragment {
		return p.fragmentShader
	}
	if shaderType == shader.ShaderTypeVertex {
		return p.vertexShader
	}
	return nil
}

func (p *pipeline) RenderPipeline() *wgpu.RenderPipeline {
	return p.renderPipeline
}

func (p *pipeline) BindGroupLayoutDescriptor(group int) (wgpu.BindGroupLayoutDescriptor, bool) {
	desc, ok := p.groupLayouts[group]
	return desc, ok
}

func (p *pipeline) SetRenderPipeline(rp *wgpu.RenderPipeline, layout *wgpu.PipelineLayout, descriptors map[int]wgpu.BindGroupLayoutDescriptor) {
	p.renderPipeline, p.layout, p.groupLayouts = rp, layout, descriptors
}

func (p *pipeline) Release() {
	if p.renderPipeline != nil {
		p.renderPipeline.Release()
		p.renderPipeline = nil
	}
	if p.layout != nil {
		p.layout.Release()
		p.layout = nil
	}
}
