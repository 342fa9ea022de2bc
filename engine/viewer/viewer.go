// Package viewer ties the window, renderer, camera, meshes and overlay into the interactive
// viewer and drives its single-threaded frame loop.
package viewer

import (
	"errors"
	"fmt"

	"github.com/Carmen-Shannon/oxy-viewer/common"
	"github.com/Carmen-Shannon/oxy-viewer/engine/camera"
	"github.com/Carmen-Shannon/oxy-viewer/engine/config"
	"github.com/Carmen-Shannon/oxy-viewer/engine/geometry"
	"github.com/Carmen-Shannon/oxy-viewer/engine/profiler"
	"github.com/Carmen-Shannon/oxy-viewer/engine/renderer"
	"github.com/Carmen-Shannon/oxy-viewer/engine/renderer/bind_group_provider"
	"github.com/Carmen-Shannon/oxy-viewer/engine/renderer/pipeline"
	"github.com/Carmen-Shannon/oxy-viewer/engine/ui"
	"github.com/Carmen-Shannon/oxy-viewer/engine/window"
	"github.com/cogentcore/webgpu/wgpu"
	"github.com/go-gl/mathgl/mgl32"
)

// ConfigSource reports configuration changes without blocking. *config.Watcher implements it.
type ConfigSource interface {
	Poll() (config.Config, bool, error)
}

// Viewer is the interactive application: a gnomon and a cube rotated by a shared spherical
// direction, orbit dragging, and an optional slider panel.
type Viewer interface {
	// Run polls window events and renders frames until the window closes.
	//
	// Returns:
	//   - error: always nil today; frame failures are logged and the loop continues
	Run() error

	// Direction returns the current model direction.
	Direction() common.SphericalDirection

	// Close releases every GPU resource in reverse creation order, then the window.
	// Safe to call more than once.
	//
	// Returns:
	//   - error: an error from closing the window
	Close() error
}

// viewer is the implementation of the Viewer interface.
type viewer struct {
	cfg config.Config

	window   window.Window
	renderer renderer.Renderer
	camera   camera.Camera
	orbit    camera.OrbitController
	profiler *profiler.Profiler
	watcher  ConfigSource

	// direction is shared by the orbit controller and the overlay sliders.
	direction common.SphericalDirection

	geometries []geometry.Geometry
	uniforms   bind_group_provider.BindGroupProvider
	overlay    *overlayLayer

	input inputQueue
	frame frame
}

var _ Viewer = &viewer{}

// NewViewer opens the window, negotiates the GPU and creates every resource the viewer draws
// with. Anything already created is released when a later step fails.
//
// Parameters:
//   - cfg: the configuration; it is validated first
//   - options: functional options
//
// Returns:
//   - Viewer: the ready viewer
//   - error: a validation, window, device or resource creation error
func NewViewer(cfg config.Config, options ...ViewerBuilderOption) (Viewer, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	v := &viewer{
		cfg:       cfg,
		direction: cfg.Scene.Direction,
	}
	for _, opt := range options {
		opt(v)
	}
	if v.profiler == nil {
		v.profiler = profiler.NewProfiler()
	}

	if err := v.setup(); err != nil {
		common.CloseLogged(v, "viewer")
		return nil, err
	}
	return v, nil
}

func (v *viewer) setup() error {
	if err := common.SetLogLevel(v.cfg.Log.Level); err != nil {
		return err
	}

	win, err := window.NewWindow(
		window.WithTitle(v.cfg.Window.Title),
		window.WithSize(v.cfg.Window.Width, v.cfg.Window.Height),
		window.WithResizable(v.cfg.Window.Resizable),
	)
	if err != nil {
		return err
	}
	v.window = win

	presentMode, err := renderer.ParsePresentMode(v.cfg.Renderer.PresentMode)
	if err != nil {
		return err
	}
	r, err := renderer.NewRenderer(renderer.BackendTypeWGPU, win,
		renderer.WithPresentMode(presentMode),
		renderer.WithMSAA(renderer.MSAASampleCount(v.cfg.Renderer.MSAA)),
		renderer.WithClearColor(clearColor(v.cfg.Renderer.ClearColor)),
		renderer.WithForceSoftwareRenderer(v.cfg.Renderer.SoftwareFallback),
	)
	if err != nil {
		return fmt.Errorf("create renderer: %w", err)
	}
	v.renderer = r

	if err := v.initCamera(); err != nil {
		return err
	}
	v.orbit = camera.NewOrbitController(&v.direction, camera.WithSensitivity(v.cfg.Orbit.Sensitivity))

	if err := v.initScene(); err != nil {
		return err
	}
	if v.cfg.Overlay.Enabled {
		if err := v.initOverlay(); err != nil {
			return err
		}
	}

	v.frame = frame{
		camera:     v.camera,
		direction:  &v.direction,
		geometries: v.geometries,
		uniforms:   v.uniforms,
		overlay:    v.overlay,
		width:      win.Width(),
		height:     win.Height(),
	}
	v.bindInput()

	common.LogInfo("viewer ready",
		"width", win.Width(),
		"height", win.Height(),
		"present_mode", presentMode.String(),
		"msaa", v.cfg.Renderer.MSAA,
		"overlay", v.overlay != nil,
	)
	return nil
}

func (v *viewer) initCamera() error {
	c := v.cfg.Camera
	aspect := float32(1)
	if v.window.Height() > 0 {
		aspect = float32(v.window.Width()) / float32(v.window.Height())
	}
	cam, err := camera.NewCamera(
		camera.WithEye(mgl32.Vec3(c.Eye)),
		camera.WithOrientation(mgl32.Quat{W: c.Orientation[0], V: mgl32.Vec3{c.Orientation[1], c.Orientation[2], c.Orientation[3]}}),
		camera.WithUp(mgl32.Vec3(c.Up)),
		camera.WithFov(c.FovRadians()),
		camera.WithAspect(aspect),
		camera.WithClipPlanes(c.Near, c.Far),
	)
	if err != nil {
		return err
	}
	v.camera = cam
	return nil
}

// initScene registers the mesh pipelines, uploads the meshes and creates the frame bind group
// holding the camera and model uniforms.
func (v *viewer) initScene() error {
	// draw order: gnomon first, then the cube
	v.geometries = []geometry.Geometry{
		geometry.NewGnomon(v.cfg.Scene.GnomonSize),
		geometry.NewCube(v.cfg.Scene.CubeHalfExtent),
	}

	pipelines := make([]pipeline.Pipeline, 0, len(v.geometries))
	for _, g := range v.geometries {
		p, err := g.Pipeline()
		if err != nil {
			return fmt.Errorf("build %s pipeline: %w", g.Name(), err)
		}
		pipelines = append(pipelines, p)
	}
	if err := v.renderer.RegisterPipelines(pipelines...); err != nil {
		return err
	}

	for _, g := range v.geometries {
		if err := g.Upload(v.renderer); err != nil {
			return err
		}
	}

	layout, ok := v.renderer.Pipeline(geometry.CubePipelineKey).BindGroupLayoutDescriptor(0)
	if !ok {
		return fmt.Errorf("%s pipeline has no group 0 layout", geometry.CubePipelineKey)
	}
	v.uniforms = bind_group_provider.NewBindGroupProvider("Frame Uniforms")
	if err := v.renderer.InitBindGroup(v.uniforms, layout, nil, nil); err != nil {
		return fmt.Errorf("create frame uniforms: %w", err)
	}
	return nil
}

// initOverlay builds the slider panel and its GPU resources.
func (v *viewer) initOverlay() error {
	atlas, err := ui.NewAtlas(v.cfg.Overlay.FontSize)
	if err != nil {
		return err
	}
	panel := ui.NewOverlay(atlas,
		ui.WithPosition(v.cfg.Overlay.X, v.cfg.Overlay.Y),
		ui.WithWidth(v.cfg.Overlay.Width),
	)
	panel.AddSlider("phi", &v.direction.Phi, common.PhiMin, common.PhiMax)
	panel.AddSlider("theta", &v.direction.Theta, common.ThetaMin, common.ThetaMax)

	p, err := ui.NewPipeline()
	if err != nil {
		return fmt.Errorf("build overlay pipeline: %w", err)
	}
	if err := v.renderer.RegisterPipelines(p); err != nil {
		return err
	}

	layer := &overlayLayer{
		panel:    panel,
		mesh:     bind_group_provider.NewBindGroupProvider("Overlay Mesh"),
		bindings: bind_group_provider.NewBindGroupProvider("Overlay"),
	}
	v.overlay = layer

	if err := v.renderer.InitMeshBuffers(layer.mesh, make([]byte, panel.MaxVertices()*ui.VertexStride), nil, 0, 0); err != nil {
		return fmt.Errorf("create overlay vertex buffer: %w", err)
	}
	if err := v.renderer.InitTextureView(layer.bindings, ui.AtlasBinding, atlas.StagingData()); err != nil {
		return fmt.Errorf("upload glyph atlas: %w", err)
	}
	sampler := common.DefaultSamplerStagingData()
	sampler.AddressModeU = wgpu.AddressModeClampToEdge
	sampler.AddressModeV = wgpu.AddressModeClampToEdge
	sampler.AddressModeW = wgpu.AddressModeClampToEdge
	if err := v.renderer.InitSampler(layer.bindings, ui.SamplerBinding, sampler); err != nil {
		return fmt.Errorf("create atlas sampler: %w", err)
	}
	layout, ok := v.renderer.Pipeline(ui.PipelineKey).BindGroupLayoutDescriptor(0)
	if !ok {
		return fmt.Errorf("%s pipeline has no group 0 layout", ui.PipelineKey)
	}
	if err := v.renderer.InitBindGroup(layer.bindings, layout, nil, nil); err != nil {
		return fmt.Errorf("create overlay bind group: %w", err)
	}
	return nil
}

func (v *viewer) bindInput() {
	v.window.SetPointerDownCallback(func(x, y float32) { v.input.pushPointer(pointerDown, x, y) })
	v.window.SetPointerMoveCallback(func(x, y float32) { v.input.pushPointer(pointerMove, x, y) })
	v.window.SetPointerUpCallback(func(x, y float32) { v.input.pushPointer(pointerUp, x, y) })
	v.window.SetKeyDownCallback(v.input.keyDown)
	v.window.SetResizeCallback(v.input.resize)
	v.window.SetUpdateCallback(v.tick)
}

func (v *viewer) Run() error {
	v.window.ProcessMessages()
	common.LogInfo("viewer stopped", "direction_phi", v.direction.Phi, "direction_theta", v.direction.Theta)
	return nil
}

func (v *viewer) Direction() common.SphericalDirection {
	return v.direction
}

// tick runs one loop iteration after the window has polled its events.
func (v *viewer) tick() {
	v.drainInput()
	v.pollConfig()

	err := renderFrame(v.renderer, &v.frame)
	switch {
	case err == nil:
	case errors.Is(err, common.ErrFrameSkipped):
		common.LogDebug("frame skipped", "err", err)
	default:
		common.LogWarn("frame abandoned", "err", err)
	}
	v.profiler.Tick(err == nil)
}

func (v *viewer) drainInput() {
	if v.input.resized {
		v.resize(v.input.width, v.input.height)
	}
	var panel ui.Overlay
	if v.overlay != nil {
		panel = v.overlay.panel
	}
	routePointer(v.input.pointer, panel, v.orbit)
	if v.input.reset {
		v.orbit.Reset()
		common.LogDebug("orientation reset")
	}
	v.input = inputQueue{pointer: v.input.pointer[:0]}
}

func (v *viewer) resize(width, height int) {
	v.renderer.Resize(width, height)
	v.frame.width, v.frame.height = width, height
	// a minimized window reports 0x0; keep the old aspect until it is restored
	if width <= 0 || height <= 0 {
		return
	}
	if err := v.camera.SetAspect(float32(width) / float32(height)); err != nil {
		common.LogWarn("keep camera aspect", "err", err)
	}
}

func (v *viewer) pollConfig() {
	if v.watcher == nil {
		return
	}
	cfg, changed, err := v.watcher.Poll()
	if err != nil {
		common.LogWarn("config reload failed, keeping current settings", "err", err)
		return
	}
	if !changed {
		return
	}
	if err := applyLive(cfg, v.orbit, v.renderer); err != nil {
		common.LogWarn("config reload failed, keeping current settings", "err", err)
		return
	}
	v.cfg.Orbit, v.cfg.Log = cfg.Orbit, cfg.Log
	v.cfg.Renderer.ClearColor = cfg.Renderer.ClearColor
	common.LogInfo("config reloaded", "sensitivity", cfg.Orbit.Sensitivity, "log_level", cfg.Log.Level)
}

func (v *viewer) Close() error {
	if v.overlay != nil {
		v.overlay.mesh.Release()
		v.overlay.bindings.Release()
		v.overlay = nil
	}
	if v.uniforms != nil {
		v.uniforms.Release()
		v.uniforms = nil
	}
	for _, g := range v.geometries {
		g.Release()
	}
	v.geometries = nil
	if v.renderer != nil {
		v.renderer.Release()
		v.renderer = nil
	}
	if v.window != nil {
		err := v.window.Close()
		v.window = nil
		return err
	}
	return nil
}

// clearColorSetter is the part of the renderer live config reloads touch.
type clearColorSetter interface {
	SetClearColor(c wgpu.Color)
}

// applyLive applies the settings that can change while running: orbit sensitivity, clear color
// and log level. Nothing is applied when the log level is invalid.
func applyLive(cfg config.Config, orbit camera.OrbitController, target clearColorSetter) error {
	if err := common.SetLogLevel(cfg.Log.Level); err != nil {
		return err
	}
	orbit.SetSensitivity(cfg.Orbit.Sensitivity)
	target.SetClearColor(clearColor(cfg.Renderer.ClearColor))
	return nil
}

func clearColor(c [4]float64) wgpu.Color {
	return wgpu.Color{R: c[0], G: c[1], B: c[2], A: c[3]}
}
