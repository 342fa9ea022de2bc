package ui

import (
	"testing"

	"github.com/Carmen-Shannon/oxy-viewer/engine/renderer/pipeline"
	"github.com/Carmen-Shannon/oxy-viewer/engine/renderer/shader"
	"github.com/chewxy/math32"
	"github.com/cogentcore/webgpu/wgpu"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestAtlas(t *testing.T) *Atlas {
	t.Helper()
	a, err := NewAtlas(14)
	require.NoError(t, err)
	return a
}

func newTestOverlay(t *testing.T) (Overlay, *float32, *float32) {
	t.Helper()
	phi, theta := float32(0), math32.Pi/2
	o := NewOverlay(newTestAtlas(t))
	o.AddSlider("phi", &phi, 0, 2*math32.Pi)
	o.AddSlider("theta", &theta, -math32.Pi/2, math32.Pi/2)
	return o, &phi, &theta
}

func center(r Rect) (float32, float32) {
	return r.X + r.W/2, r.Y + r.H/2
}

func TestAtlas(t *testing.T) {
	a := newTestAtlas(t)

	assert.Greater(t, a.LineHeight(), float32(0))
	assert.Greater(t, a.Ascent(), float32(0))

	for r := rune(33); r < 127; r++ {
		g, ok := a.Glyph(r)
		require.True(t, ok, "missing glyph %q", r)
		assert.Greater(t, g.Advance, float32(0))
		assert.LessOrEqual(t, g.UVMax[0], float32(1))
		assert.LessOrEqual(t, g.UVMax[1], float32(1))
	}
	space, ok := a.Glyph(' ')
	require.True(t, ok)
	assert.Greater(t, space.Advance, float32(0))

	_, ok = a.Glyph('€')
	assert.False(t, ok)

	// the white block is opaque
	img := a.Image()
	assert.Equal(t, uint8(255), img.RGBAAt(1, 1).A)
	uv := a.WhiteUV()
	assert.Less(t, uv[0]*atlasSize, float32(whiteSize))

	data := a.StagingData()
	assert.Len(t, data.Pixels, atlasSize*atlasSize*4)
	assert.Equal(t, uint32(atlasSize), data.Width)

	assert.Greater(t, a.MeasureText("theta"), a.MeasureText("phi"))
	assert.Equal(t, float32(0), a.MeasureText(""))
}

func TestNewAtlasRejectsBadSize(t *testing.T) {
	_, err := NewAtlas(0)
	assert.Error(t, err)
	_, err = NewAtlas(200)
	assert.Error(t, err)
}

func TestOverlayLayout(t *testing.T) {
	o, _, _ := newTestOverlay(t)

	panel := o.Panel()
	assert.Equal(t, float32(10), panel.X)
	assert.Equal(t, float32(10), panel.Y)
	assert.Equal(t, float32(200), panel.W)

	sliders := o.Sliders()
	require.Len(t, sliders, 2)
	assert.Equal(t, "phi", sliders[0].Label)
	assert.Equal(t, "theta", sliders[1].Label)
	assert.Less(t, sliders[0].Track().Y, sliders[1].Track().Y)
	for _, s := range sliders {
		tr := s.Track()
		assert.True(t, panel.Contains(tr.X, tr.Y))
		assert.True(t, panel.Contains(tr.X+tr.W, tr.Y+tr.H))
	}
}

func TestSliderDragMapsToValue(t *testing.T) {
	o, phi, _ := newTestOverlay(t)
	track := o.Sliders()[0].Track()
	_, y := center(track)

	o.PointerDown(track.X+track.W/2, y)
	assert.True(t, o.WantsPointer())
	assert.InDelta(t, math32.Pi, *phi, 1e-4)

	o.PointerMove(track.X+track.W, y)
	assert.InDelta(t, 2*math32.Pi, *phi, 1e-4)

	// dragging keeps capture even past the panel edge, and the value clamps
	o.PointerMove(track.X+track.W+500, y+300)
	assert.True(t, o.WantsPointer())
	assert.InDelta(t, 2*math32.Pi, *phi, 1e-4)

	o.PointerMove(track.X-50, y)
	assert.InDelta(t, 0, *phi, 1e-4)

	o.PointerUp(track.X-50, y)
	assert.False(t, o.WantsPointer(), "released outside the panel")
}

func TestThetaSliderRange(t *testing.T) {
	o, _, theta := newTestOverlay(t)
	track := o.Sliders()[1].Track()
	_, y := center(track)

	o.PointerDown(track.X, y)
	assert.InDelta(t, -math32.Pi/2, *theta, 1e-4)
	o.PointerMove(track.X+track.W, y)
	assert.InDelta(t, math32.Pi/2, *theta, 1e-4)
	o.PointerUp(track.X+track.W, y)
}

func TestHoverWantsPointer(t *testing.T) {
	o, phi, _ := newTestOverlay(t)
	panel := o.Panel()

	o.PointerMove(panel.X+panel.W+50, panel.Y)
	assert.False(t, o.WantsPointer())

	o.PointerMove(panel.X+1, panel.Y+1)
	assert.True(t, o.WantsPointer())

	// a press on the panel background captures without touching any value
	o.PointerDown(panel.X+1, panel.Y+1)
	assert.True(t, o.WantsPointer())
	assert.Equal(t, float32(0), *phi)
	o.PointerUp(panel.X+1, panel.Y+1)
	assert.True(t, o.WantsPointer(), "still hovering")
}

func TestPressOutsidePanelDoesNotCapture(t *testing.T) {
	o, phi, _ := newTestOverlay(t)
	panel := o.Panel()
	track := o.Sliders()[0].Track()
	x, y := center(track)

	o.PointerDown(panel.X+panel.W+100, panel.Y+panel.H+100)
	assert.False(t, o.WantsPointer())

	// a drag that began outside passes over the panel without capturing or editing
	o.PointerMove(x, y)
	assert.False(t, o.WantsPointer())
	assert.Equal(t, float32(0), *phi)

	o.PointerUp(x, y)
	assert.True(t, o.WantsPointer(), "hovering after release")
}

func TestOverlayVertices(t *testing.T) {
	o, _, _ := newTestOverlay(t)
	verts := o.Vertices()
	require.NotEmpty(t, verts)
	assert.Zero(t, len(verts)%6)
	assert.LessOrEqual(t, len(verts), o.MaxVertices())

	panel := o.Panel()
	for _, v := range verts[:6] {
		assert.True(t, panel.Contains(v.Pos[0], v.Pos[1]))
		assert.Equal(t, o.Atlas().WhiteUV(), v.UV)
	}

	// the buffer is reused
	again := o.Vertices()
	assert.Equal(t, len(verts), len(again))
}

func TestOverlayVerticesTruncated(t *testing.T) {
	phi := float32(1)
	o := NewOverlay(newTestAtlas(t), WithMaxVertices(20), WithTitle("A long title that needs many quads"))
	o.AddSlider("phi", &phi, 0, 2)
	verts := o.Vertices()
	assert.Len(t, verts, 18)
}

func TestOverlayOptions(t *testing.T) {
	o := NewOverlay(newTestAtlas(t), WithPosition(40, 50), WithWidth(300), WithWidth(1))
	assert.Equal(t, Rect{X: 40, Y: 50, W: 300, H: o.Panel().H}, o.Panel())
}

func TestSlider(t *testing.T) {
	v := float32(5)
	s := &Slider{Label: "v", Min: 0, Max: 10, Value: &v, track: Rect{X: 100, W: 50, H: 10}}
	assert.InDelta(t, 0.5, s.Fraction(), 1e-6)
	assert.InDelta(t, 0, s.ValueAt(0), 1e-6)
	assert.InDelta(t, 10, s.ValueAt(1000), 1e-6)
	assert.InDelta(t, 2, s.ValueAt(110), 1e-6)
	assert.Equal(t, "v 5.000", s.Caption())

	degenerate := &Slider{Min: 1, Max: 1, Value: &v}
	assert.Equal(t, float32(0), degenerate.Fraction())
	assert.Equal(t, float32(1), degenerate.ValueAt(3))
}

func TestScreenUniform(t *testing.T) {
	u := NewScreenUniform(1280, 720)
	assert.Equal(t, 16, u.Size())
	assert.Len(t, u.Marshal(), 16)
	assert.Equal(t, [2]float32{1280, 720}, u.Resolution)
}

func TestOverlayShaderLayout(t *testing.T) {
	vs, err := shader.NewShader("overlay.vs", shader.ShaderTypeVertex, ShaderSource)
	require.NoError(t, err)
	layouts := vs.VertexLayouts()
	require.Len(t, layouts, 1)
	assert.Equal(t, uint64(VertexStride), layouts[0].ArrayStride)
	require.Len(t, layouts[0].Attributes, 3)
	assert.Equal(t, wgpu.VertexFormatFloat32x4, layouts[0].Attributes[2].Format)

	fs, err := shader.NewShader("overlay.fs", shader.ShaderTypeFragment, ShaderSource)
	require.NoError(t, err)
	entries := fs.BindGroupLayoutDescriptor(0).Entries
	require.Len(t, entries, 3)
	assert.Equal(t, uint64(16), entries[ScreenBinding].Buffer.MinBindingSize)
	assert.Equal(t, wgpu.TextureSampleTypeFloat, entries[AtlasBinding].Texture.SampleType)
	assert.Equal(t, wgpu.SamplerBindingTypeFiltering, entries[SamplerBinding].Sampler.Type)
}

func TestOverlayPipeline(t *testing.T) {
	p, err := NewPipeline()
	require.NoError(t, err)
	assert.Equal(t, PipelineKey, p.PipelineKey())
	assert.Equal(t, pipeline.PassTargetOverlay, p.PassTarget())
	assert.False(t, p.Depth().Test)
	assert.NotNil(t, p.Blend())
	assert.Equal(t, wgpu.CullModeNone, p.Primitive().CullMode)
	assert.NotNil(t, p.Shader(shader.ShaderTypeVertex))
	assert.NotNil(t, p.Shader(shader.ShaderTypeFragment))
}
