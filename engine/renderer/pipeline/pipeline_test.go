package pipeline

import (
	"testing"

	"github.com/Carmen-Shannon/oxy-viewer/engine/renderer/shader"
	"github.com/cogentcore/webgpu/wgpu"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSource = `
@vertex fn vs_main(@location(0) p: vec3f) -> @builtin(position) vec4f { return vec4f(p, 1.0); }
@fragment fn fs_main() -> @location(0) vec4f { return vec4f(1.0); }
`

func TestNewPipelineDefaults(t *testing.T) {
	p := NewPipeline("cube")

	assert.Equal(t, "cube", p.PipelineKey())
	assert.Equal(t, PassTargetMain, p.PassTarget())
	assert.Equal(t, DepthState{Test: true, Write: true}, p.Depth())
	assert.Nil(t, p.Blend())
	assert.Equal(t, PrimitiveState{
		Topology:  wgpu.PrimitiveTopologyTriangleList,
		CullMode:  wgpu.CullModeNone,
		FrontFace: wgpu.FrontFaceCCW,
	}, p.Primitive())
	assert.Equal(t, wgpu.ColorWriteMaskAll, p.WriteMask())
	assert.Nil(t, p.RenderPipeline())
	assert.Nil(t, p.Shader(shader.ShaderTypeVertex))

	_, ok := p.BindGroupLayoutDescriptor(0)
	assert.False(t, ok)
}

func TestAlphaBlendKeepsDestinationAlpha(t *testing.T) {
	blend := AlphaBlend()

	assert.Equal(t, wgpu.BlendFactorSrcAlpha, blend.Color.SrcFactor)
	assert.Equal(t, wgpu.BlendFactorOneMinusSrcAlpha, blend.Color.DstFactor)
	assert.Equal(t, wgpu.BlendFactorZero, blend.Alpha.SrcFactor)
	assert.Equal(t, wgpu.BlendFactorOne, blend.Alpha.DstFactor)
	assert.NotSame(t, blend, AlphaBlend(), "callers may modify their copy")
}

func TestPipelineOptions(t *testing.T) {
	vs, err := shader.NewShader("t.vs", shader.ShaderTypeVertex, testSource)
	require.NoError(t, err)
	fs, err := shader.NewShader("t.fs", shader.ShaderTypeFragment, testSource)
	require.NoError(t, err)

	lines := PrimitiveState{Topology: wgpu.PrimitiveTopologyLineList, CullMode: wgpu.CullModeBack, FrontFace: wgpu.FrontFaceCW}
	p := NewPipeline("overlay",
		WithShaders(vs, fs),
		WithPassTarget(PassTargetOverlay),
		WithPrimitive(lines),
		WithDepth(DepthState{}),
		WithBlend(AlphaBlend()),
		WithWriteMask(wgpu.ColorWriteMaskRed),
	)

	assert.Equal(t, PassTargetOverlay, p.PassTarget())
	assert.Equal(t, lines, p.Primitive())
	assert.False(t, p.Depth().Test)
	assert.False(t, p.Depth().Write)
	assert.NotNil(t, p.Blend())
	assert.Equal(t, wgpu.ColorWriteMaskRed, p.WriteMask())
	assert.Same(t, vs, p.Shader(shader.ShaderTypeVertex))
	assert.Same(t, fs, p.Shader(shader.ShaderTypeFragment))

	p = NewPipeline("opaque", WithBlend(AlphaBlend()), WithBlend(nil))
	assert.Nil(t, p.Blend())
}

func TestSetRenderPipelineExposesLayouts(t *testing.T) {
	p := NewPipeline("frame")
	desc := wgpu.BindGroupLayoutDescriptor{Entries: []wgpu.BindGroupLayoutEntry{{Binding: 0}}}
	p.SetRenderPipeline(nil, nil, map[int]wgpu.BindGroupLayoutDescriptor{0: desc})

	got, ok := p.BindGroupLayoutDescriptor(0)
	require.True(t, ok)
	assert.Len(t, got.Entries, 1)
}

func TestReleaseWithoutGPUObjects(t *testing.T) {
	p := NewPipeline("empty")
	assert.NotPanics(t, func() {
		p.Release()
		p.Release()
	})
}
