package renderer

import (
	"errors"
	"fmt"
	"runtime"
	"sort"
	"sync"

	"github.com/Carmen-Shannon/oxy-viewer/common"
	"github.com/Carmen-Shannon/oxy-viewer/engine/renderer/bind_group_provider"
	"github.com/Carmen-Shannon/oxy-viewer/engine/renderer/pipeline"
	"github.com/Carmen-Shannon/oxy-viewer/engine/renderer/shader"
	"github.com/cogentcore/webgpu/wgpu"
)

// depthFormat is the format of the main pass depth attachment.
const depthFormat = wgpu.TextureFormatDepth24Plus

type wgpuRendererBackendImpl struct {
	mu     *sync.Mutex
	device *wgpu.Device
	queue  *wgpu.Queue

	instance *wgpu.Instance
	adapter  *wgpu.Adapter
	surface  *wgpu.Surface

	surfaceFormat wgpu.TextureFormat
	width, height uint32
	// targetsDirty is set by ConfigureSurface; the depth and MSAA targets are rebuilt by the next BeginFrame.
	targetsDirty bool

	msaaTexture      *wgpu.Texture
	msaaTextureView  *wgpu.TextureView
	depthTexture     *wgpu.Texture
	depthTextureView *wgpu.TextureView

	presentMode wgpu.PresentMode
	sampleCount MSAASampleCount
	clearColor  wgpu.Color

	// Frame state shared by the main and overlay passes
	frameEncoder   *wgpu.CommandEncoder
	framePass      *wgpu.RenderPassEncoder
	framePassKind  pipeline.PassTarget
	frameSurface   *wgpu.Texture
	frameView      *wgpu.TextureView
	commandBuffers []*wgpu.CommandBuffer
}

type wgpuRendererBackend interface {
	Device() *wgpu.Device
	Queue() *wgpu.Queue
	SurfaceFormat() wgpu.TextureFormat

	// ConfigureSurface reconfigures the surface for a new size. The depth and MSAA targets are
	// recreated lazily by the next BeginFrame. A zero-sized surface (minimized window) is recorded
	// and every frame is skipped until a non-zero size arrives.
	//
	// Parameters:
	//   - width: the new width of the surface in pixels
	//   - height: the new height of the surface in pixels
	ConfigureSurface(width, height int)

	// SetPresentMode sets the surface present mode which controls how frames are delivered to the display.
	//
	// Parameters:
	//   - mode: the PresentMode to use (VSync or Uncapped)
	SetPresentMode(mode PresentMode)

	// SetClearColor sets the color the main pass clears to.
	//
	// Parameters:
	//   - c: the clear color
	SetClearColor(c wgpu.Color)

	// RegisterRenderPipeline creates the shader modules, pipeline layout and render pipeline for p.
	// Pipelines targeting the overlay pass are created single-sampled and without a depth attachment.
	//
	// Parameters:
	//   - p: the pipeline object containing the shaders and configuration for the pipeline
	//
	// Returns:
	//   - error: an error if the pipeline could not be created, otherwise nil
	RegisterRenderPipeline(p pipeline.Pipeline) error

	// InitMeshBuffers creates the vertex and index buffers for a mesh and stores them on the provider.
	//
	// Parameters:
	//   - provider: the BindGroupProvider to store the created buffers on
	//   - vertexData: the raw vertex data bytes; its length becomes the vertex buffer capacity
	//   - indexData: the raw index data bytes, nil for non-indexed meshes; length must be a multiple of 4
	//   - vertexCount: the number of vertices in vertexData
	//   - indexCount: the number of indices in indexData
	//
	// Returns:
	//   - error: an error if the buffers could not be created or initialized, otherwise nil
	InitMeshBuffers(provider bind_group_provider.BindGroupProvider, vertexData, indexData []byte, vertexCount, indexCount int) error

	// InitBindGroup creates GPU buffers and a bind group from a layout descriptor and stores them on the provider.
	//
	// Parameters:
	//   - provider: the BindGroupProvider to store the created resources on
	//   - descriptor: the BindGroupLayoutDescriptor describing the layout of the bind group
	//   - bufferUsageOverrides: additional buffer usage flags keyed by binding index (nil safe)
	//   - bufferSizeOverrides: buffer sizes to use instead of MinBindingSize keyed by binding index (nil safe)
	//
	// Returns:
	//   - error: an error if the bind group could not be initialized, otherwise nil
	InitBindGroup(provider bind_group_provider.BindGroupProvider, descriptor wgpu.BindGroupLayoutDescriptor, bufferUsageOverrides map[int]wgpu.BufferUsage, bufferSizeOverrides map[int]uint64) error

	// InitTextureView creates a GPU texture from staging data and stores it and its view on the provider.
	//
	// Parameters:
	//   - provider: the BindGroupProvider to store the created texture view on
	//   - bindingKey: the binding index for this texture
	//   - stagingData: the pixel data and dimensions for the texture
	//
	// Returns:
	//   - error: an error if the texture view could not be created or initialized, otherwise nil
	InitTextureView(provider bind_group_provider.BindGroupProvider, bindingKey int, stagingData common.TextureStagingData) error

	// InitSampler creates a GPU sampler from staging data and stores it on the provider.
	//
	// Parameters:
	//   - provider: the BindGroupProvider to store the created sampler on
	//   - bindingKey: the binding index for this sampler
	//   - samplerStagingData: the sampler configuration
	//
	// Returns:
	//   - error: an error if the sampler could not be created or initialized, otherwise nil
	InitSampler(provider bind_group_provider.BindGroupProvider, bindingKey int, samplerStagingData common.SamplerStagingData) error

	// WriteBuffers writes all staged buffer writes to the GPU queue, in slice order.
	//
	// Parameters:
	//   - writes: a slice of BufferWrite structs describing the data to write
	//
	// Returns:
	//   - error: the first failed write
	WriteBuffers(writes []bind_group_provider.BufferWrite) error

	// WriteVertexData overwrites the start of a provider's vertex buffer and sets its vertex count.
	//
	// Parameters:
	//   - provider: the mesh provider
	//   - data: the new vertex bytes
	//   - vertexCount: the number of vertices in data
	//
	// Returns:
	//   - error: ErrVertexBufferOverflow if data does not fit
	WriteVertexData(provider bind_group_provider.BindGroupProvider, data []byte, vertexCount int) error

	// BeginFrame acquires the next surface texture, creates a command encoder, and begins the main
	// render pass clearing color to the clear color and depth to 1.0.
	//
	// Returns:
	//   - error: ErrSurfaceUnavailable or ErrDepthAttachment for frame-transient failures
	BeginFrame() error

	// DrawCall encodes a single instanced draw in the active pass. Meshes with an index buffer are drawn
	// indexed, others with their vertex count.
	//
	// Parameters:
	//   - p: the cached Pipeline containing the render pipeline to use
	//   - meshProvider: the BindGroupProvider holding vertex and index buffers
	//   - instanceCount: the number of instances to draw
	//   - bindGroups: providers whose bind groups are set at group 0, 1, ... in order
	//
	// Returns:
	//   - error: ErrNoActiveFrame, or an error if the pipeline targets the other pass
	DrawCall(p pipeline.Pipeline, meshProvider bind_group_provider.BindGroupProvider, instanceCount uint32, bindGroups []bind_group_provider.BindGroupProvider) error

	// EndFrame ends the main pass and finishes its command buffer. Nothing is submitted until Present.
	//
	// Returns:
	//   - error: ErrNoActiveFrame or an encoder failure
	EndFrame() error

	// BeginOverlayPass begins a pass that loads the surface contents written by the main pass.
	//
	// Returns:
	//   - error: ErrNoActiveFrame or an encoder failure
	BeginOverlayPass() error

	// EndOverlayPass ends the overlay pass and finishes its command buffer.
	//
	// Returns:
	//   - error: ErrNoActiveFrame or an encoder failure
	EndOverlayPass() error

	// Present submits the finished command buffers in the order they were produced, then presents
	// the surface texture and releases the frame.
	//
	// Returns:
	//   - error: ErrNoActiveFrame if no frame was begun
	Present() error

	// DiscardFrame abandons the current frame, releasing anything it acquired without submitting.
	DiscardFrame()

	// Release frees the frame targets, surface, device, adapter and instance in that order.
	Release()
}

var _ RendererBackend = &wgpuRendererBackendImpl{}

func newWGPURendererBackend(surfaceDescriptor *wgpu.SurfaceDescriptor, settings rendererSettings) (wgpuRendererBackend, error) {
	runtime.LockOSThread()
	w := &wgpuRendererBackendImpl{
		mu:          &sync.Mutex{},
		instance:    wgpu.CreateInstance(nil),
		presentMode: settings.presentMode.surfaceMode(),
		sampleCount: settings.msaa,
		clearColor:  settings.clearColor,
	}
	if w.instance == nil {
		return nil, errors.New("failed to create WebGPU instance")
	}

	w.surface = w.instance.CreateSurface(surfaceDescriptor)
	if w.surface == nil {
		w.Release()
		return nil, errors.New("failed to create surface")
	}

	a, err := w.instance.RequestAdapter(&wgpu.RequestAdapterOptions{
		ForceFallbackAdapter: settings.softwareFallback,
		CompatibleSurface:    w.surface,
	})
	if err != nil {
		w.Release()
		return nil, fmt.Errorf("request adapter: %w", err)
	}
	w.adapter = a

	d, err := a.RequestDevice(&wgpu.DeviceDescriptor{
		Label: "Main Device",
	})
	if err != nil {
		w.Release()
		return nil, fmt.Errorf("request device: %w", err)
	}
	w.device = d
	w.queue = d.GetQueue()

	capabilities := w.surface.GetCapabilities(w.adapter)
	if len(capabilities.Formats) == 0 {
		w.Release()
		return nil, errors.New("surface reports no supported formats")
	}
	w.surfaceFormat = capabilities.Formats[0]

	return w, nil
}

func (b *wgpuRendererBackendImpl) ConfigureSurface(width, height int) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.width, b.height = uint32(max(width, 0)), uint32(max(height, 0))
	b.releaseTargets()
	b.targetsDirty = true
	if b.width == 0 || b.height == 0 {
		return
	}

	capabilities := b.surface.GetCapabilities(b.adapter)
	alphaMode := wgpu.CompositeAlphaModeAuto
	if len(capabilities.AlphaModes) > 0 {
		alphaMode = capabilities.AlphaModes[0]
	}
	b.surface.Configure(b.adapter, b.device, &wgpu.SurfaceConfiguration{
		Usage:       wgpu.TextureUsageRenderAttachment,
		Format:      b.surfaceFormat,
		Width:       b.width,
		Height:      b.height,
		PresentMode: b.presentMode,
		AlphaMode:   alphaMode,
	})
}

func (b *wgpuRendererBackendImpl) SetPresentMode(mode PresentMode) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.presentMode = mode.surfaceMode()
}

func (b *wgpuRendererBackendImpl) SetClearColor(c wgpu.Color) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.clearColor = c
}

func (b *wgpuRendererBackendImpl) RegisterRenderPipeline(p pipeline.Pipeline) error {
	vertexShader := p.Shader(shader.ShaderTypeVertex)
	fragmentShader := p.Shader(shader.ShaderTypeFragment)
	if vertexShader == nil || fragmentShader == nil {
		return errors.New("both vertex and fragment shaders must be set to create a render pipeline")
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	vs, err := b.compileShader(vertexShader)
	if err != nil {
		return err
	}
	defer vs.Release()
	fs, err := b.compileShader(fragmentShader)
	if err != nil {
		return err
	}
	defer fs.Release()

	merged := mergeBindGroupLayouts(vertexShader.BindGroupLayoutDescriptors(), fragmentShader.BindGroupLayoutDescriptors())
	maxGroup := -1
	for g := range merged {
		if g > maxGroup {
			maxGroup = g
		}
	}
	bindGroupLayouts := make([]*wgpu.BindGroupLayout, maxGroup+1)
	defer func() {
		// the pipeline layout keeps its own references
		for _, layout := range bindGroupLayouts {
			if layout != nil {
				layout.Release()
			}
		}
	}()
	for g := 0; g <= maxGroup; g++ {
		desc := merged[g]
		desc.Label = fmt.Sprintf("%s group %d", p.PipelineKey(), g)
		layout, layoutErr := b.device.CreateBindGroupLayout(&desc)
		if layoutErr != nil {
			return fmt.Errorf("failed to create bind group layout for group %d: %w", g, layoutErr)
		}
		bindGroupLayouts[g] = layout
	}

	pipelineLayout, err := b.device.CreatePipelineLayout(&wgpu.PipelineLayoutDescriptor{
		Label:            p.PipelineKey(),
		BindGroupLayouts: bindGroupLayouts,
	})
	if err != nil {
		return err
	}

	primitive := p.Primitive()

	descriptor := &wgpu.RenderPipelineDescriptor{
		Label:  p.PipelineKey() + " Render Pipeline",
		Layout: pipelineLayout,
		Vertex: wgpu.VertexState{
			Module:     vs,
			EntryPoint: vertexShader.EntryPoint(),
			Buffers:    vertexShader.VertexLayouts(),
		},
		Fragment: &wgpu.FragmentState{
			Module:     fs,
			EntryPoint: fragmentShader.EntryPoint(),
			Targets: []wgpu.ColorTargetState{{
				Format:    b.surfaceFormat,
				Blend:     p.Blend(),
				WriteMask: p.WriteMask(),
			}},
		},
		Primitive: wgpu.PrimitiveState{
			Topology:  primitive.Topology,
			FrontFace: primitive.FrontFace,
			CullMode:  primitive.CullMode,
		},
		Multisample: wgpu.MultisampleState{
			Count: 1,
			Mask:  0xFFFFFFFF,
		},
	}

	if p.PassTarget() == pipeline.PassTargetMain {
		descriptor.Multisample.Count = uint32(b.sampleCount)
		descriptor.DepthStencil = depthStencilState(p.Depth())
	}

	created, err := b.device.CreateRenderPipeline(descriptor)
	if err != nil {
		pipelineLayout.Release()
		return err
	}

	p.SetRenderPipeline(created, pipelineLayout, merged)
	return nil
}

func (b *wgpuRendererBackendImpl) compileShader(s shader.Shader) (*wgpu.ShaderModule, error) {
	module, err := b.device.CreateShaderModule(&wgpu.ShaderModuleDescriptor{
		Label:          s.Key(),
		WGSLDescriptor: &wgpu.ShaderModuleWGSLDescriptor{Code: s.Source()},
	})
	if err != nil {
		return nil, fmt.Errorf("compile %s (%s): %w", s.Key(), s.ShaderType(), err)
	}
	return module, nil
}

// depthStencilState maps a pipeline's depth flags onto the Depth24Plus attachment of the main
// pass. The stencil is unused.
func depthStencilState(d pipeline.DepthState) *wgpu.DepthStencilState {
	compare := wgpu.CompareFunctionAlways
	if d.Test {
		compare = wgpu.CompareFunctionLess
	}
	always := wgpu.StencilFaceState{Compare: wgpu.CompareFunctionAlways}
	return &wgpu.DepthStencilState{
		Format:            depthFormat,
		DepthWriteEnabled: d.Write,
		DepthCompare:      compare,
		StencilFront:      always,
		StencilBack:       always,
	}
}

func (b *wgpuRendererBackendImpl) InitMeshBuffers(provider bind_group_provider.BindGroupProvider, vertexData, indexData []byte, vertexCount, indexCount int) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if len(indexData)%4 != 0 {
		return fmt.Errorf("%s: index data size %d is not a multiple of 4", provider.Label(), len(indexData))
	}

	// CopyDst on both so meshes like the overlay can be rewritten in place
	if len(vertexData) > 0 {
		buf, err := b.device.CreateBufferInit(&wgpu.BufferInitDescriptor{
			Label:    provider.Label() + " vertices",
			Contents: vertexData,
			Usage:    wgpu.BufferUsageVertex | wgpu.BufferUsageCopyDst,
		})
		if err != nil {
			return fmt.Errorf("%s: vertex buffer: %w", provider.Label(), err)
		}
		provider.SetVertexBuffer(buf, uint64(len(vertexData)), vertexCount)
	}
	if len(indexData) > 0 {
		buf, err := b.device.CreateBufferInit(&wgpu.BufferInitDescriptor{
			Label:    provider.Label() + " indices",
			Contents: indexData,
			Usage:    wgpu.BufferUsageIndex | wgpu.BufferUsageCopyDst,
		})
		if err != nil {
			return fmt.Errorf("%s: index buffer: %w", provider.Label(), err)
		}
		provider.SetIndexBuffer(buf, provider.IndexFormat(), indexCount)
	}
	return nil
}

func (b *wgpuRendererBackendImpl) InitBindGroup(provider bind_group_provider.BindGroupProvider, descriptor wgpu.BindGroupLayoutDescriptor, bufferUsageOverrides map[int]wgpu.BufferUsage, bufferSizeOverrides map[int]uint64) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if len(descriptor.Entries) == 0 {
		return nil
	}

	descriptor.Label = provider.Label() + " layout"
	layout, err := b.device.CreateBindGroupLayout(&descriptor)
	if err != nil {
		return err
	}

	entries := make([]wgpu.BindGroupEntry, 0, len(descriptor.Entries))
	for _, layoutEntry := range descriptor.Entries {
		entry, entryErr := b.bindGroupEntry(provider, layoutEntry, bufferUsageOverrides, bufferSizeOverrides)
		if entryErr != nil {
			layout.Release()
			return fmt.Errorf("%s: %w", provider.Label(), entryErr)
		}
		entries = append(entries, entry)
	}

	bindGroup, err := b.device.CreateBindGroup(&wgpu.BindGroupDescriptor{
		Label:   provider.Label(),
		Layout:  layout,
		Entries: entries,
	})
	if err != nil {
		layout.Release()
		return err
	}
	provider.SetBindGroup(bindGroup, layout)
	return nil
}

// bindGroupEntry resolves one layout entry to the provider's resource. Textures and samplers
// must already exist; a missing buffer is created with the layout's MinBindingSize unless
// sizes overrides it.
func (b *wgpuRendererBackendImpl) bindGroupEntry(provider bind_group_provider.BindGroupProvider, layoutEntry wgpu.BindGroupLayoutEntry, usages map[int]wgpu.BufferUsage, sizes map[int]uint64) (wgpu.BindGroupEntry, error) {
	binding := int(layoutEntry.Binding)
	entry := wgpu.BindGroupEntry{Binding: layoutEntry.Binding}

	if layoutEntry.Texture.SampleType != wgpu.TextureSampleTypeUndefined {
		entry.TextureView = provider.TextureView(binding)
		if entry.TextureView == nil {
			return entry, fmt.Errorf("binding %d: no texture view, call InitTextureView first", binding)
		}
		return entry, nil
	}
	if layoutEntry.Sampler.Type != wgpu.SamplerBindingTypeUndefined {
		entry.Sampler = provider.Sampler(binding)
		if entry.Sampler == nil {
			return entry, fmt.Errorf("binding %d: no sampler, call InitSampler first", binding)
		}
		return entry, nil
	}

	buf := provider.Buffer(binding)
	if buf == nil {
		size, ok := sizes[binding]
		if !ok {
			size = layoutEntry.Buffer.MinBindingSize
		}
		var err error
		buf, err = b.device.CreateBuffer(&wgpu.BufferDescriptor{
			Label: fmt.Sprintf("%s binding %d", provider.Label(), binding),
			Size:  size,
			Usage: bufferUsage(layoutEntry.Buffer.Type) | usages[binding],
		})
		if err != nil {
			return entry, fmt.Errorf("binding %d: %w", binding, err)
		}
		provider.SetBuffer(binding, buf)
	}
	entry.Buffer = buf
	entry.Size = wgpu.WholeSize
	return entry, nil
}

// bufferUsage is the usage a buffer needs to be bound as t and rewritten from the CPU.
func bufferUsage(t wgpu.BufferBindingType) wgpu.BufferUsage {
	switch t {
	case wgpu.BufferBindingTypeStorage, wgpu.BufferBindingTypeReadOnlyStorage:
		return wgpu.BufferUsageStorage | wgpu.BufferUsageCopyDst
	default:
		return wgpu.BufferUsageUniform | wgpu.BufferUsageCopyDst
	}
}

func (b *wgpuRendererBackendImpl) InitTextureView(provider bind_group_provider.BindGroupProvider, bindingKey int, stagingData common.TextureStagingData) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if uint32(len(stagingData.Pixels)) != stagingData.Width*stagingData.Height*4 {
		return fmt.Errorf("%s: texture data is %d bytes, want %dx%d RGBA", provider.Label(), len(stagingData.Pixels), stagingData.Width, stagingData.Height)
	}

	extent := wgpu.Extent3D{Width: stagingData.Width, Height: stagingData.Height, DepthOrArrayLayers: 1}
	tex, err := b.device.CreateTexture(&wgpu.TextureDescriptor{
		Label:         provider.Label() + " texture",
		Usage:         wgpu.TextureUsageTextureBinding | wgpu.TextureUsageCopyDst,
		Dimension:     wgpu.TextureDimension2D,
		Size:          extent,
		Format:        common.Coalesce(stagingData.Format, wgpu.TextureFormatRGBA8Unorm),
		MipLevelCount: 1,
		SampleCount:   1,
	})
	if err != nil {
		return err
	}

	err = b.queue.WriteTexture(
		&wgpu.ImageCopyTexture{Texture: tex, Aspect: wgpu.TextureAspectAll},
		stagingData.Pixels,
		&wgpu.TextureDataLayout{BytesPerRow: stagingData.Width * 4, RowsPerImage: stagingData.Height},
		&extent,
	)
	if err != nil {
		tex.Release()
		return fmt.Errorf("%s: upload texture: %w", provider.Label(), err)
	}

	view, err := tex.CreateView(nil)
	if err != nil {
		tex.Release()
		return err
	}
	provider.SetTexture(bindingKey, tex, view)
	return nil
}

func (b *wgpuRendererBackendImpl) InitSampler(provider bind_group_provider.BindGroupProvider, bindingKey int, samplerStagingData common.SamplerStagingData) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	samp, err := b.device.CreateSampler(samplerDescriptor(provider.Label()+" sampler", samplerStagingData))
	if err != nil {
		return err
	}
	provider.SetSampler(bindingKey, samp)
	return nil
}

// samplerDescriptor copies s into a descriptor. Only the LOD ceiling and anisotropy, where zero
// is not a usable value, are defaulted.
func samplerDescriptor(label string, s common.SamplerStagingData) *wgpu.SamplerDescriptor {
	return &wgpu.SamplerDescriptor{
		Label:         label,
		AddressModeU:  s.AddressModeU,
		AddressModeV:  s.AddressModeV,
		AddressModeW:  s.AddressModeW,
		MagFilter:     s.MagFilter,
		MinFilter:     s.MinFilter,
		MipmapFilter:  s.MipmapFilter,
		LodMinClamp:   s.LodMinClamp,
		LodMaxClamp:   common.Coalesce(s.LodMaxClamp, 32),
		MaxAnisotropy: common.Coalesce(s.MaxAnisotropy, 1),
	}
}

func (b *wgpuRendererBackendImpl) WriteBuffers(writes []bind_group_provider.BufferWrite) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	for _, w := range writes {
		if len(w.Data) == 0 {
			continue
		}
		buf := w.Provider.Buffer(w.Binding)
		if buf == nil {
			return fmt.Errorf("%s: no buffer at binding %d", w.Provider.Label(), w.Binding)
		}
		if err := b.queue.WriteBuffer(buf, w.Offset, w.Data); err != nil {
			return fmt.Errorf("%s: write binding %d: %w", w.Provider.Label(), w.Binding, err)
		}
	}
	return nil
}

func (b *wgpuRendererBackendImpl) WriteVertexData(provider bind_group_provider.BindGroupProvider, data []byte, vertexCount int) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if uint64(len(data)) > provider.VertexCapacity() {
		return fmt.Errorf("%w: %s needs %d bytes, has %d", common.ErrVertexBufferOverflow, provider.Label(), len(data), provider.VertexCapacity())
	}
	if len(data) > 0 {
		if err := b.queue.WriteBuffer(provider.VertexBuffer(), 0, data); err != nil {
			return err
		}
	}
	provider.SetVertexCount(vertexCount)
	return nil
}

func (b *wgpuRendererBackendImpl) BeginFrame() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.frameSurface != nil {
		return fmt.Errorf("previous frame surface not yet presented")
	}
	if b.width == 0 || b.height == 0 {
		return fmt.Errorf("%w: surface is %dx%d", common.ErrSurfaceUnavailable, b.width, b.height)
	}
	if b.targetsDirty {
		if err := b.createTargets(); err != nil {
			return fmt.Errorf("%w: %w", common.ErrDepthAttachment, err)
		}
		b.targetsDirty = false
	}

	surfaceTexture, err := b.surface.GetCurrentTexture()
	if err != nil {
		return fmt.Errorf("%w: %w", common.ErrSurfaceUnavailable, err)
	}

	view, err := surfaceTexture.CreateView(nil)
	if err != nil {
		surfaceTexture.Release()
		return fmt.Errorf("%w: %w", common.ErrSurfaceUnavailable, err)
	}

	encoder, err := b.device.CreateCommandEncoder(&wgpu.CommandEncoderDescriptor{Label: "Main Pass Encoder"})
	if err != nil {
		view.Release()
		surfaceTexture.Release()
		return err
	}

	// With MSAA the pass draws into the multisampled texture and resolves into the surface view,
	// storing nothing else. Without it the pass draws straight to the surface view.
	colorAttachment := wgpu.RenderPassColorAttachment{
		View:       view,
		LoadOp:     wgpu.LoadOpClear,
		StoreOp:    wgpu.StoreOpStore,
		ClearValue: b.clearColor,
	}
	if b.msaaTextureView != nil {
		colorAttachment.View = b.msaaTextureView
		colorAttachment.ResolveTarget = view
		colorAttachment.StoreOp = wgpu.StoreOpDiscard
	}

	pass := encoder.BeginRenderPass(&wgpu.RenderPassDescriptor{
		Label:            "Main Pass",
		ColorAttachments: []wgpu.RenderPassColorAttachment{colorAttachment},
		DepthStencilAttachment: &wgpu.RenderPassDepthStencilAttachment{
			View:            b.depthTextureView,
			DepthLoadOp:     wgpu.LoadOpClear,
			DepthStoreOp:    wgpu.StoreOpStore,
			DepthClearValue: 1.0,
		},
	})

	b.frameEncoder = encoder
	b.framePass = pass
	b.framePassKind = pipeline.PassTargetMain
	b.frameSurface = surfaceTexture
	b.frameView = view

	return nil
}

func (b *wgpuRendererBackendImpl) DrawCall(
	p pipeline.Pipeline,
	meshProvider bind_group_provider.BindGroupProvider,
	instanceCount uint32,
	bindGroups []bind_group_provider.BindGroupProvider,
) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.framePass == nil {
		return common.ErrNoActiveFrame
	}
	if p.PassTarget() != b.framePassKind {
		return fmt.Errorf("pipeline %q does not target the active pass", p.PipelineKey())
	}
	if meshProvider.VertexBuffer() == nil {
		return fmt.Errorf("%s has no vertex buffer", meshProvider.Label())
	}

	b.framePass.SetPipeline(p.RenderPipeline())

	for i, bg := range bindGroups {
		b.framePass.SetBindGroup(uint32(i), bg.BindGroup(), nil)
	}

	b.framePass.SetVertexBuffer(0, meshProvider.VertexBuffer(), 0, wgpu.WholeSize)
	if meshProvider.IndexBuffer() != nil {
		b.framePass.SetIndexBuffer(meshProvider.IndexBuffer(), meshProvider.IndexFormat(), 0, wgpu.WholeSize)
		b.framePass.DrawIndexed(uint32(meshProvider.IndexCount()), instanceCount, 0, 0, 0)
		return nil
	}
	b.framePass.Draw(uint32(meshProvider.VertexCount()), instanceCount, 0, 0)
	return nil
}

func (b *wgpuRendererBackendImpl) EndFrame() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.finishPass(pipeline.PassTargetMain)
}

func (b *wgpuRendererBackendImpl) BeginOverlayPass() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.frameView == nil || b.framePass != nil {
		return common.ErrNoActiveFrame
	}

	encoder, err := b.device.CreateCommandEncoder(&wgpu.CommandEncoderDescriptor{Label: "Overlay Pass Encoder"})
	if err != nil {
		return err
	}
	b.frameEncoder = encoder
	b.framePass = encoder.BeginRenderPass(&wgpu.RenderPassDescriptor{
		Label: "Overlay Pass",
		ColorAttachments: []wgpu.RenderPassColorAttachment{{
			View:    b.frameView,
			LoadOp:  wgpu.LoadOpLoad,
			StoreOp: wgpu.StoreOpStore,
		}},
	})
	b.framePassKind = pipeline.PassTargetOverlay
	return nil
}

func (b *wgpuRendererBackendImpl) EndOverlayPass() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.finishPass(pipeline.PassTargetOverlay)
}

func (b *wgpuRendererBackendImpl) Present() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.frameSurface == nil || b.framePass != nil {
		return common.ErrNoActiveFrame
	}

	b.queue.Submit(b.commandBuffers...)
	b.surface.Present()
	b.releaseFrame()
	return nil
}

func (b *wgpuRendererBackendImpl) DiscardFrame() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.framePass != nil {
		b.framePass.End()
		b.framePass.Release()
		b.framePass = nil
	}
	b.releaseFrame()
}

func (b *wgpuRendererBackendImpl) Device() *wgpu.Device {
	return b.device
}

func (b *wgpuRendererBackendImpl) Queue() *wgpu.Queue {
	return b.queue
}

func (b *wgpuRendererBackendImpl) SurfaceFormat() wgpu.TextureFormat {
	return b.surfaceFormat
}

func (b *wgpuRendererBackendImpl) Release() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.framePass != nil {
		b.framePass.End()
		b.framePass.Release()
		b.framePass = nil
	}
	b.releaseFrame()
	b.releaseTargets()

	if b.surface != nil {
		b.surface.Release()
		b.surface = nil
	}
	if b.queue != nil {
		b.queue.Release()
		b.queue = nil
	}
	if b.device != nil {
		b.device.Release()
		b.device = nil
	}
	if b.adapter != nil {
		b.adapter.Release()
		b.adapter = nil
	}
	if b.instance != nil {
		b.instance.Release()
		b.instance = nil
	}
}

// finishPass ends the active pass of the given kind and queues its command buffer.
// Caller must hold the mutex.
func (b *wgpuRendererBackendImpl) finishPass(kind pipeline.PassTarget) error {
	if b.framePass == nil || b.framePassKind != kind {
		return common.ErrNoActiveFrame
	}

	b.framePass.End()
	b.framePass.Release()
	b.framePass = nil

	commandBuffer, err := b.frameEncoder.Finish(nil)
	b.frameEncoder.Release()
	b.frameEncoder = nil
	if err != nil {
		return err
	}
	b.commandBuffers = append(b.commandBuffers, commandBuffer)
	return nil
}

// releaseFrame drops every per-frame object. Caller must hold the mutex.
func (b *wgpuRendererBackendImpl) releaseFrame() {
	for _, cb := range b.commandBuffers {
		cb.Release()
	}
	b.commandBuffers = b.commandBuffers[:0]

	if b.frameEncoder != nil {
		b.frameEncoder.Release()
		b.frameEncoder = nil
	}
	if b.frameView != nil {
		b.frameView.Release()
		b.frameView = nil
	}
	if b.frameSurface != nil {
		b.frameSurface.Release()
		b.frameSurface = nil
	}
}

// createTargets builds the depth texture and, when MSAA is on, the multisampled color texture
// for the current surface size. Caller must hold the mutex.
func (b *wgpuRendererBackendImpl) createTargets() error {
	count := uint32(b.sampleCount)
	size := wgpu.Extent3D{
		Width:              b.width,
		Height:             b.height,
		DepthOrArrayLayers: 1,
	}

	if count > 1 {
		msaaTexture, err := b.device.CreateTexture(&wgpu.TextureDescriptor{
			Label:         "MSAA Texture",
			Size:          size,
			MipLevelCount: 1,
			SampleCount:   count,
			Dimension:     wgpu.TextureDimension2D,
			Format:        b.surfaceFormat,
			Usage:         wgpu.TextureUsageRenderAttachment,
		})
		if err != nil {
			return err
		}
		b.msaaTexture = msaaTexture
		b.msaaTextureView, err = msaaTexture.CreateView(nil)
		if err != nil {
			b.releaseTargets()
			return err
		}
	}

	// Depth texture sample count must match the color attachment.
	depthTexture, err := b.device.CreateTexture(&wgpu.TextureDescriptor{
		Label:         "Depth Texture",
		Size:          size,
		MipLevelCount: 1,
		SampleCount:   count,
		Dimension:     wgpu.TextureDimension2D,
		Format:        depthFormat,
		Usage:         wgpu.TextureUsageRenderAttachment,
	})
	if err != nil {
		b.releaseTargets()
		return err
	}
	b.depthTexture = depthTexture
	b.depthTextureView, err = depthTexture.CreateView(nil)
	if err != nil {
		b.releaseTargets()
		return err
	}
	return nil
}

// releaseTargets frees the depth and MSAA targets. Caller must hold the mutex.
func (b *wgpuRendererBackendImpl) releaseTargets() {
	if b.msaaTextureView != nil {
		b.msaaTextureView.Release()
		b.msaaTextureView = nil
	}
	if b.msaaTexture != nil {
		b.msaaTexture.Release()
		b.msaaTexture = nil
	}
	if b.depthTextureView != nil {
		b.depthTextureView.Release()
		b.depthTextureView = nil
	}
	if b.depthTexture != nil {
		b.depthTexture.Release()
		b.depthTexture = nil
	}
}

// mergeBindGroupLayouts unions the per-stage layouts of a pipeline. An entry declared by
// more than one stage keeps the last declaration with the visibilities OR'd. Entries come
// out sorted by binding.
//
// Parameters:
//   - stages: layouts keyed by group, one map per shader stage
//
// Returns:
//   - map[int]wgpu.BindGroupLayoutDescriptor: merged layouts keyed by group
func mergeBindGroupLayouts(stages ...map[int]wgpu.BindGroupLayoutDescriptor) map[int]wgpu.BindGroupLayoutDescriptor {
	byGroup := make(map[int]map[uint32]wgpu.BindGroupLayoutEntry)
	for _, layouts := range stages {
		for g, desc := range layouts {
			if byGroup[g] == nil {
				byGroup[g] = make(map[uint32]wgpu.BindGroupLayoutEntry)
			}
			for _, e := range desc.Entries {
				if prev, ok := byGroup[g][e.Binding]; ok {
					e.Visibility |= prev.Visibility
				}
				byGroup[g][e.Binding] = e
			}
		}
	}

	merged := make(map[int]wgpu.BindGroupLayoutDescriptor, len(byGroup))
	for g, entries := range byGroup {
		list := make([]wgpu.BindGroupLayoutEntry, 0, len(entries))
		for _, e := range entries {
			list = append(list, e)
		}
		sort.Slice(list, func(i, j int) bool { return list[i].Binding < list[j].Binding })
		merged[g] = wgpu.BindGroupLayoutDescriptor{Entries: list}
	}
	return merged
}
