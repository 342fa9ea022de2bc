package viewer

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"testing"

	"github.com/Carmen-Shannon/oxy-viewer/common"
	"github.com/Carmen-Shannon/oxy-viewer/engine/camera"
	"github.com/Carmen-Shannon/oxy-viewer/engine/geometry"
	"github.com/Carmen-Shannon/oxy-viewer/engine/renderer/bind_group_provider"
	"github.com/Carmen-Shannon/oxy-viewer/engine/ui"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// recorder is a FrameRenderer that logs every call in order.
type recorder struct {
	calls  []string
	writes []bind_group_provider.BufferWrite

	vertexCount int

	beginErr   error
	drawErr    error
	presentErr error
}

func (r *recorder) WriteBuffers(writes []bind_group_provider.BufferWrite) error {
	for _, w := range writes {
		r.calls = append(r.calls, fmt.Sprintf("write %s/%d", w.Provider.Label(), w.Binding))
		r.writes = append(r.writes, w)
	}
	return nil
}

func (r *recorder) WriteVertexData(provider bind_group_provider.BindGroupProvider, data []byte, vertexCount int) error {
	r.calls = append(r.calls, "vertices "+provider.Label())
	r.vertexCount = vertexCount
	return nil
}

func (r *recorder) BeginFrame() error {
	if r.beginErr != nil {
		return r.beginErr
	}
	r.calls = append(r.calls, "begin")
	return nil
}

func (r *recorder) DrawCall(pipelineKey string, meshProvider bind_group_provider.BindGroupProvider, instanceCount uint32, bindGroups []bind_group_provider.BindGroupProvider) error {
	if r.drawErr != nil {
		return r.drawErr
	}
	r.calls = append(r.calls, "draw "+pipelineKey)
	return nil
}

func (r *recorder) EndFrame() error {
	r.calls = append(r.calls, "end")
	return nil
}

func (r *recorder) BeginOverlayPass() error {
	r.calls = append(r.calls, "begin overlay")
	return nil
}

func (r *recorder) EndOverlayPass() error {
	r.calls = append(r.calls, "end overlay")
	return nil
}

func (r *recorder) Present() error {
	if r.presentErr != nil {
		return r.presentErr
	}
	r.calls = append(r.calls, "present")
	return nil
}

func (r *recorder) DiscardFrame() {
	r.calls = append(r.calls, "discard")
}

func newTestFrame(t *testing.T, withOverlay bool) (*frame, *common.SphericalDirection) {
	t.Helper()
	cam, err := camera.NewCamera(camera.WithAspect(16.0 / 9.0))
	require.NoError(t, err)

	dir := common.DefaultDirection()
	f := &frame{
		camera:    cam,
		direction: &dir,
		geometries: []geometry.Geometry{
			geometry.NewGnomon(1),
			geometry.NewCube(0.5),
		},
		uniforms: bind_group_provider.NewBindGroupProvider("frame"),
		width:    1280,
		height:   720,
	}
	if withOverlay {
		atlas, err := ui.NewAtlas(14)
		require.NoError(t, err)
		panel := ui.NewOverlay(atlas)
		panel.AddSlider("phi", &dir.Phi, common.PhiMin, common.PhiMax)
		panel.AddSlider("theta", &dir.Theta, common.ThetaMin, common.ThetaMax)
		f.overlay = &overlayLayer{
			panel:    panel,
			mesh:     bind_group_provider.NewBindGroupProvider("overlay.mesh"),
			bindings: bind_group_provider.NewBindGroupProvider("overlay"),
		}
	}
	return f, &dir
}

func floats(data []byte) []float32 {
	out := make([]float32, len(data)/4)
	for i := range out {
		out[i] = math.Float32frombits(binary.LittleEndian.Uint32(data[i*4:]))
	}
	return out
}

func TestRenderFrameOrder(t *testing.T) {
	f, _ := newTestFrame(t, true)
	r := &recorder{}

	require.NoError(t, renderFrame(r, f))
	assert.Equal(t, []string{
		"write frame/1",
		"write frame/0",
		"begin",
		"draw gnomon",
		"draw cube",
		"end",
		"vertices overlay.mesh",
		"write overlay/0",
		"begin overlay",
		"draw overlay",
		"end overlay",
		"present",
	}, r.calls)
	assert.Positive(t, r.vertexCount)
	assert.Zero(t, r.vertexCount%6)
}

func TestRenderFrameWithoutOverlay(t *testing.T) {
	f, _ := newTestFrame(t, false)
	r := &recorder{}

	require.NoError(t, renderFrame(r, f))
	assert.Equal(t, []string{
		"write frame/1",
		"write frame/0",
		"begin",
		"draw gnomon",
		"draw cube",
		"end",
		"present",
	}, r.calls)
}

func TestInitialFrameUniforms(t *testing.T) {
	f, _ := newTestFrame(t, false)
	r := &recorder{}
	require.NoError(t, renderFrame(r, f))
	require.Len(t, r.writes, 2)

	// the default direction is +Z, so the model matrix is the identity
	model := floats(r.writes[0].Data)
	require.Len(t, model, 16)
	for i, v := range model {
		want := float32(0)
		if i%5 == 0 {
			want = 1
		}
		assert.InDelta(t, want, v, 1e-5, "model[%d]", i)
	}

	cam := floats(r.writes[1].Data)
	require.Len(t, cam, 32)
	view, proj := cam[:16], cam[16:]
	// the camera sits at z=5 looking at the origin
	assert.InDelta(t, -5, view[14], 1e-5)
	assert.InDelta(t, -1, proj[11], 1e-6)
}

func TestRenderFrameFollowsDirection(t *testing.T) {
	f, dir := newTestFrame(t, false)
	dir.Phi, dir.Theta = 0, 0
	r := &recorder{}
	require.NoError(t, renderFrame(r, f))

	// +Z is carried onto +X: the third column of the model matrix is (1, 0, 0)
	model := floats(r.writes[0].Data)
	assert.InDelta(t, 1, model[8], 1e-5)
	assert.InDelta(t, 0, model[9], 1e-5)
	assert.InDelta(t, 0, model[10], 1e-5)
}

func TestRenderFrameSkipsOnSurfaceFailure(t *testing.T) {
	f, _ := newTestFrame(t, true)
	r := &recorder{beginErr: fmt.Errorf("acquire: %w", common.ErrSurfaceUnavailable)}

	err := renderFrame(r, f)
	require.Error(t, err)
	assert.ErrorIs(t, err, common.ErrFrameSkipped)
	assert.ErrorIs(t, err, common.ErrSurfaceUnavailable)

	assert.Equal(t, []string{"write frame/1", "write frame/0"}, r.calls)
	assert.NotContains(t, r.calls, "present")
}

func TestRenderFrameSkipsOnDepthFailure(t *testing.T) {
	f, _ := newTestFrame(t, false)
	r := &recorder{beginErr: common.ErrDepthAttachment}

	err := renderFrame(r, f)
	assert.ErrorIs(t, err, common.ErrFrameSkipped)
	assert.ErrorIs(t, err, common.ErrDepthAttachment)
}

func TestRenderFrameDiscardsOnDrawFailure(t *testing.T) {
	f, _ := newTestFrame(t, true)
	boom := errors.New("boom")
	r := &recorder{drawErr: boom}

	err := renderFrame(r, f)
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
	assert.NotErrorIs(t, err, common.ErrFrameSkipped)
	assert.Equal(t, []string{"write frame/1", "write frame/0", "begin", "discard"}, r.calls)
}

func TestRenderFrameDiscardsOnPresentFailure(t *testing.T) {
	f, _ := newTestFrame(t, false)
	r := &recorder{presentErr: common.ErrNoActiveFrame}

	err := renderFrame(r, f)
	assert.ErrorIs(t, err, common.ErrNoActiveFrame)
	require.NotEmpty(t, r.calls)
	assert.Equal(t, "discard", r.calls[len(r.calls)-1])
}
