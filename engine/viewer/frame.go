package viewer

import (
	"fmt"

	"github.com/Carmen-Shannon/oxy-viewer/common"
	"github.com/Carmen-Shannon/oxy-viewer/engine/camera"
	"github.com/Carmen-Shannon/oxy-viewer/engine/geometry"
	"github.com/Carmen-Shannon/oxy-viewer/engine/renderer/bind_group_provider"
	"github.com/Carmen-Shannon/oxy-viewer/engine/ui"
)

// FrameRenderer is the part of the renderer one frame is submitted through.
type FrameRenderer interface {
	WriteBuffers(writes []bind_group_provider.BufferWrite) error
	WriteVertexData(provider bind_group_provider.BindGroupProvider, data []byte, vertexCount int) error
	BeginFrame() error
	DrawCall(pipelineKey string, meshProvider bind_group_provider.BindGroupProvider, instanceCount uint32, bindGroups []bind_group_provider.BindGroupProvider) error
	EndFrame() error
	BeginOverlayPass() error
	EndOverlayPass() error
	Present() error
	DiscardFrame()
}

// overlayLayer is the overlay panel and the GPU resources it draws with.
type overlayLayer struct {
	panel ui.Overlay
	// mesh holds the per-frame vertex buffer.
	mesh bind_group_provider.BindGroupProvider
	// bindings holds the screen uniform, atlas texture and sampler.
	bindings bind_group_provider.BindGroupProvider
}

// frame is everything renderFrame reads. geometries are drawn in slice order.
type frame struct {
	camera     camera.Camera
	direction  *common.SphericalDirection
	geometries []geometry.Geometry
	uniforms   bind_group_provider.BindGroupProvider
	overlay    *overlayLayer

	width, height int
}

// renderFrame submits one frame: model then camera uniforms, the main pass with every geometry,
// the overlay pass, and the present.
// A failure to begin the frame returns an error wrapping common.ErrFrameSkipped and nothing is
// drawn. Any later failure discards the frame.
//
// Parameters:
//   - r: the renderer to submit through
//   - f: the frame inputs
//
// Returns:
//   - error: nil when the frame was presented
func renderFrame(r FrameRenderer, f *frame) error {
	model := geometry.NewModelUniform(f.direction.ModelMatrix())
	if err := f.camera.Update(); err != nil {
		return fmt.Errorf("update camera: %w", err)
	}
	cam := f.camera.Uniform()
	writes := []bind_group_provider.BufferWrite{
		bind_group_provider.UniformWrite(f.uniforms, geometry.ModelBinding, model.Marshal()),
		bind_group_provider.UniformWrite(f.uniforms, geometry.CameraBinding, cam.Marshal()),
	}
	if err := r.WriteBuffers(writes); err != nil {
		return fmt.Errorf("write frame uniforms: %w", err)
	}

	if err := r.BeginFrame(); err != nil {
		return fmt.Errorf("%w: %w", common.ErrFrameSkipped, err)
	}

	if err := submitPasses(r, f); err != nil {
		r.DiscardFrame()
		return err
	}
	return nil
}

func submitPasses(r FrameRenderer, f *frame) error {
	for _, g := range f.geometries {
		if err := g.Draw(r, f.uniforms); err != nil {
			return err
		}
	}
	if err := r.EndFrame(); err != nil {
		return fmt.Errorf("end main pass: %w", err)
	}

	if f.overlay != nil {
		if err := drawOverlay(r, f.overlay, f.width, f.height); err != nil {
			return err
		}
	}

	if err := r.Present(); err != nil {
		return fmt.Errorf("present: %w", err)
	}
	return nil
}

func drawOverlay(r FrameRenderer, o *overlayLayer, width, height int) error {
	vertices := o.panel.Vertices()
	if err := r.WriteVertexData(o.mesh, common.SliceToBytes(vertices), len(vertices)); err != nil {
		return fmt.Errorf("upload overlay: %w", err)
	}
	screen := ui.NewScreenUniform(width, height)
	if err := r.WriteBuffers([]bind_group_provider.BufferWrite{
		bind_group_provider.UniformWrite(o.bindings, ui.ScreenBinding, screen.Marshal()),
	}); err != nil {
		return fmt.Errorf("write screen uniform: %w", err)
	}

	if err := r.BeginOverlayPass(); err != nil {
		return fmt.Errorf("begin overlay pass: %w", err)
	}
	if err := r.DrawCall(ui.PipelineKey, o.mesh, 1, []bind_group_provider.BindGroupProvider{o.bindings}); err != nil {
		return fmt.Errorf("draw overlay: %w", err)
	}
	if err := r.EndOverlayPass(); err != nil {
		return fmt.Errorf("end overlay pass: %w", err)
	}
	return nil
}
