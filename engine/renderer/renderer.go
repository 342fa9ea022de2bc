package renderer

import (
	"fmt"
	"sync"

	"github.com/Carmen-Shannon/oxy-viewer/common"
	"github.com/Carmen-Shannon/oxy-viewer/engine/renderer/bind_group_provider"
	"github.com/Carmen-Shannon/oxy-viewer/engine/renderer/pipeline"
	"github.com/cogentcore/webgpu/wgpu"
)

// renderer is the implementation of the Renderer interface.
type renderer struct {
	mu *sync.Mutex

	pipelineCache map[string]pipeline.Pipeline
	// pipelineOrder records registration order so Release can run in reverse.
	pipelineOrder []string

	backendType RendererBackendType
	backend     RendererBackend
}

// SurfaceSource is the part of a window the renderer needs to create and size its surface.
type SurfaceSource interface {
	SurfaceDescriptor() *wgpu.SurfaceDescriptor
	Width() int
	Height() int
}

// Renderer defines the interface for the rendering system.
//
// This is a high-level API designed to simplify rendering tasks into a streamlined and idiomatic flow.
// The Renderer manages a cache of pipelines keyed by name and forwards GPU work to a backend,
// which allows for multiple backend API implementations to exist.
//
// A frame is driven as:
//
//	BeginFrame -> DrawCall... -> EndFrame -> BeginOverlayPass -> DrawCall... -> EndOverlayPass -> Present
//
// and abandoned with DiscardFrame at any point after BeginFrame.
type Renderer interface {
	// Pipeline retrieves the cached Pipeline associated with the given key.
	// If the Pipeline does not exist, this will return nil.
	//
	// Parameters:
	//   - key: the unique identifier for the Pipeline to retrieve
	//
	// Returns:
	//   - pipeline.Pipeline: the Pipeline associated with the key, or nil if not found
	Pipeline(key string) pipeline.Pipeline

	// Pipelines retrieves a copy of the pipeline cache.
	//
	// Returns:
	//   - map[string]pipeline.Pipeline: a map of pipeline keys to their corresponding Pipeline objects
	Pipelines() map[string]pipeline.Pipeline

	// RegisterPipelines creates the GPU render pipeline for each Pipeline via the backend,
	// then caches them by PipelineKey. Keys that are already registered are skipped.
	//
	// Parameters:
	//   - pipelines: the Pipelines to register
	//
	// Returns:
	//   - error: an error if pipeline creation fails
	RegisterPipelines(pipelines ...pipeline.Pipeline) error

	// Resize configures the underlying backend to handle a new surface size.
	// A zero size is accepted and makes every frame skip until the next non-zero resize.
	//
	// Parameters:
	//   - width: the new width of the surface in pixels
	//   - height: the new height of the surface in pixels
	Resize(width, height int)

	// SetPresentMode sets the surface present mode. It takes effect on the next Resize.
	//
	// Parameters:
	//   - mode: the PresentMode to use (VSync or Uncapped)
	SetPresentMode(mode PresentMode)

	// SetClearColor sets the color the main pass clears to.
	//
	// Parameters:
	//   - c: the clear color
	SetClearColor(c wgpu.Color)

	// InitMeshBuffers uploads a static mesh into new vertex and index buffers held by provider.
	// Index data must be padded to a multiple of 4 bytes.
	//
	// Parameters:
	//   - provider: receives the buffers
	//   - vertexData: interleaved vertices; zero-filled for meshes rewritten later
	//   - indexData: padded indices, nil for non-indexed meshes
	//   - vertexCount: vertices drawn by a non-indexed draw
	//   - indexCount: indices drawn by an indexed draw
	//
	// Returns:
	//   - error: an error for misaligned index data or a failed allocation
	InitMeshBuffers(provider bind_group_provider.BindGroupProvider, vertexData, indexData []byte, vertexCount, indexCount int) error

	// InitBindGroup creates the bind group described by descriptor on provider. Buffer entries
	// without a buffer get one sized by MinBindingSize; texture and sampler entries must already
	// be filled by InitTextureView and InitSampler.
	//
	// Parameters:
	//   - provider: owns the bind group and any buffers created
	//   - descriptor: usually a pipeline's BindGroupLayoutDescriptor
	//   - bufferUsageOverrides: extra usage flags per binding, may be nil
	//   - bufferSizeOverrides: buffer sizes per binding replacing MinBindingSize, may be nil
	//
	// Returns:
	//   - error: an error for a missing texture or sampler, or a failed allocation
	InitBindGroup(provider bind_group_provider.BindGroupProvider, descriptor wgpu.BindGroupLayoutDescriptor, bufferUsageOverrides map[int]wgpu.BufferUsage, bufferSizeOverrides map[int]uint64) error

	// InitTextureView uploads RGBA pixels into a new texture bound at bindingKey.
	//
	// Returns:
	//   - error: an error when the pixel count does not match the size
	InitTextureView(provider bind_group_provider.BindGroupProvider, bindingKey int, stagingData common.TextureStagingData) error

	// InitSampler creates the sampler bound at bindingKey. Zero fields of the staging data take
	// repeat addressing and linear filtering.
	InitSampler(provider bind_group_provider.BindGroupProvider, bindingKey int, samplerStagingData common.SamplerStagingData) error

	// WriteBuffers writes all staged buffer writes to the GPU queue in slice order.
	//
	// Parameters:
	//   - writes: a slice of BufferWrite structs describing the data to write
	//
	// Returns:
	//   - error: the first write that failed
	WriteBuffers(writes []bind_group_provider.BufferWrite) error

	// WriteVertexData replaces the contents of a mesh's vertex buffer.
	//
	// Parameters:
	//   - provider: the mesh provider created by InitMeshBuffers
	//   - data: the new vertex bytes
	//   - vertexCount: the number of vertices in data
	//
	// Returns:
	//   - error: common.ErrVertexBufferOverflow when data exceeds the buffer
	WriteVertexData(provider bind_group_provider.BindGroupProvider, data []byte, vertexCount int) error

	// BeginFrame acquires the surface texture and begins the main render pass.
	//
	// Returns:
	//   - error: common.ErrSurfaceUnavailable or common.ErrDepthAttachment when the frame cannot be drawn
	BeginFrame() error

	// DrawCall encodes a single instanced draw command within the active pass.
	//
	// Parameters:
	//   - pipelineKey: the unique identifier for the cached render Pipeline to use
	//   - meshProvider: the BindGroupProvider holding vertex and index buffers
	//   - instanceCount: the number of instances to draw
	//   - bindGroups: providers whose BindGroups are set at group 0, 1, ... on the pass
	//
	// Returns:
	//   - error: common.ErrPipelineNotFound, or a pass error from the backend
	DrawCall(pipelineKey string, meshProvider bind_group_provider.BindGroupProvider, instanceCount uint32, bindGroups []bind_group_provider.BindGroupProvider) error

	// EndFrame ends the main render pass. Does not submit; call Present.
	//
	// Returns:
	//   - error: an error if no main pass is active or encoding failed
	EndFrame() error

	// BeginOverlayPass starts a pass over the same surface texture that keeps the main pass output.
	//
	// Returns:
	//   - error: an error if the main pass has not ended
	BeginOverlayPass() error

	// EndOverlayPass ends the overlay pass.
	//
	// Returns:
	//   - error: an error if no overlay pass is active or encoding failed
	EndOverlayPass() error

	// Present submits every finished pass in order and presents the surface.
	//
	// Returns:
	//   - error: common.ErrNoActiveFrame when there is nothing to present
	Present() error

	// DiscardFrame drops the current frame without submitting it.
	DiscardFrame()

	// Release frees every cached pipeline in reverse registration order, then the backend.
	Release()
}

var _ Renderer = &renderer{}

// NewRenderer creates a new Renderer instance with the specified backend type, creating its
// surface from the given window.
//
// Parameters:
//   - backendType: the type of rendering backend to use (e.g., WGPU)
//   - source: the window the surface is created for
//   - options: variadic list of RendererBuilderOption functions to configure the Renderer
//
// Returns:
//   - Renderer: a new instance of Renderer configured with the specified backend and options
//   - error: an error if no instance, adapter, device or surface could be created
func NewRenderer(backendType RendererBackendType, source SurfaceSource, options ...RendererBuilderOption) (Renderer, error) {
	r := &renderer{
		mu:            &sync.Mutex{},
		pipelineCache: make(map[string]pipeline.Pipeline),
		backendType:   backendType,
	}

	settings := defaultRendererSettings()
	for _, opt := range options {
		opt(&settings)
	}

	descriptor := source.SurfaceDescriptor()
	if descriptor == nil {
		return nil, fmt.Errorf("%w: window has no surface descriptor", common.ErrSurfaceUnavailable)
	}

	var err error
	switch backendType {
	case BackendTypeWGPU:
		fallthrough
	default:
		r.backend, err = newWGPURendererBackend(descriptor, settings)
	}
	if err != nil {
		return nil, err
	}

	r.backend.ConfigureSurface(source.Width(), source.Height())
	common.LogDebug("renderer created", "msaa", uint32(settings.msaa), "present", settings.presentMode, "width", source.Width(), "height", source.Height())
	return r, nil
}

func (r *renderer) Resize(width, height int) {
	r.backend.ConfigureSurface(width, height)
}

func (r *renderer) SetPresentMode(mode PresentMode) {
	r.backend.SetPresentMode(mode)
}

func (r *renderer) SetClearColor(c wgpu.Color) {
	r.backend.SetClearColor(c)
}

func (r *renderer) Pipeline(key string) pipeline.Pipeline {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.pipelineCache[key]
}

func (r *renderer) Pipelines() map[string]pipeline.Pipeline {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make(map[string]pipeline.Pipeline, len(r.pipelineCache))
	for k, p := range r.pipelineCache {
		out[k] = p
	}
	return out
}

func (r *renderer) RegisterPipelines(pipelines ...pipeline.Pipeline) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, p := range pipelines {
		key := p.PipelineKey()
		if _, exists := r.pipelineCache[key]; exists {
			continue
		}
		if err := r.backend.RegisterRenderPipeline(p); err != nil {
			return fmt.Errorf("register pipeline %q: %w", key, err)
		}
		r.pipelineCache[key] = p
		r.pipelineOrder = append(r.pipelineOrder, key)
	}
	return nil
}

func (r *renderer) InitMeshBuffers(provider bind_group_provider.BindGroupProvider, vertexData, indexData []byte, vertexCount, indexCount int) error {
	return r.backend.InitMeshBuffers(provider, vertexData, indexData, vertexCount, indexCount)
}

func (r *renderer) InitBindGroup(provider bind_group_provider.BindGroupProvider, descriptor wgpu.BindGroupLayoutDescriptor, bufferUsageOverrides map[int]wgpu.BufferUsage, bufferSizeOverrides map[int]uint64) error {
	return r.backend.InitBindGroup(provider, descriptor, bufferUsageOverrides, bufferSizeOverrides)
}

func (r *renderer) InitTextureView(provider bind_group_provider.BindGroupProvider, bindingKey int, stagingData common.TextureStagingData) error {
	return r.backend.InitTextureView(provider, bindingKey, stagingData)
}

func (r *renderer) InitSampler(provider bind_group_provider.BindGroupProvider, bindingKey int, samplerStagingData common.SamplerStagingData) error {
	return r.backend.InitSampler(provider, bindingKey, samplerStagingData)
}

func (r *renderer) WriteBuffers(writes []bind_group_provider.BufferWrite) error {
	return r.backend.WriteBuffers(writes)
}

func (r *renderer) WriteVertexData(provider bind_group_provider.BindGroupProvider, data []byte, vertexCount int) error {
	return r.backend.WriteVertexData(provider, data, vertexCount)
}

func (r *renderer) BeginFrame() error {
	return r.backend.BeginFrame()
}

func (r *renderer) DrawCall(pipelineKey string, meshProvider bind_group_provider.BindGroupProvider, instanceCount uint32, bindGroups []bind_group_provider.BindGroupProvider) error {
	r.mu.Lock()
	p, exists := r.pipelineCache[pipelineKey]
	r.mu.Unlock()

	if !exists {
		return fmt.Errorf("%w: %q", common.ErrPipelineNotFound, pipelineKey)
	}

	return r.backend.DrawCall(p, meshProvider, instanceCount, bindGroups)
}

func (r *renderer) EndFrame() error {
	return r.backend.EndFrame()
}

func (r *renderer) BeginOverlayPass() error {
	return r.backend.BeginOverlayPass()
}

func (r *renderer) EndOverlayPass() error {
	return r.backend.EndOverlayPass()
}

func (r *renderer) Present() error {
	return r.backend.Present()
}

func (r *renderer) DiscardFrame() {
	r.backend.DiscardFrame()
}

func (r *renderer) Release() {
	r.mu.Lock()
	for i := len(r.pipelineOrder) - 1; i >= 0; i-- {
		if p, ok := r.pipelineCache[r.pipelineOrder[i]]; ok {
			p.Release()
		}
	}
	r.pipelineCache = make(map[string]pipeline.Pipeline)
	r.pipelineOrder = nil
	r.mu.Unlock()

	r.backend.Release()
}
