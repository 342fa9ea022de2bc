// Package bind_group_provider owns the GPU resources a draw call binds: uniform buffers,
// textures and samplers of one bind group, and optionally the vertex and index buffers of a mesh.
package bind_group_provider

import (
	"github.com/cogentcore/webgpu/wgpu"
)

// slot is every GPU object held for one @binding. Only the fields matching the layout entry
// are set: a buffer, a texture with its view, or a sampler.
type slot struct {
	buffer  *wgpu.Buffer
	texture *wgpu.Texture
	view    *wgpu.TextureView
	sampler *wgpu.Sampler
}

func (s slot) release() {
	if s.view != nil {
		s.view.Release()
	}
	if s.texture != nil {
		s.texture.Release()
	}
	if s.sampler != nil {
		s.sampler.Release()
	}
	if s.buffer != nil {
		s.buffer.Release()
	}
}

// meshBuffers is the vertex source of a draw call.
type meshBuffers struct {
	vertices *wgpu.Buffer
	// capacity is the size of vertices in bytes; rewrites must fit in it.
	capacity    uint64
	vertexCount int

	indices     *wgpu.Buffer
	indexCount  int
	indexFormat wgpu.IndexFormat
}

type bindGroupProvider struct {
	label string

	group  *wgpu.BindGroup
	layout *wgpu.BindGroupLayout
	slots  map[int]slot

	mesh meshBuffers
}

// BindGroupProvider owns the GPU objects created on behalf of one bind group or mesh and
// frees them together in Release. The renderer fills it:
//
//  1. InitTextureView and InitSampler create texture and sampler bindings
//  2. InitBindGroup creates missing uniform buffers, then the bind group
//  3. InitMeshBuffers creates the vertex and index buffers of a mesh
//  4. WriteBuffers and WriteVertexData update contents each frame
type BindGroupProvider interface {
	// Release frees every GPU object, the bind group first. Safe to call more than once.
	Release()

	// Label prefixes the debug label of every GPU object created for this provider.
	Label() string

	// BindGroup returns the bind group, or nil before InitBindGroup.
	BindGroup() *wgpu.BindGroup

	// BindGroupLayout returns the layout the bind group was created with, or nil.
	BindGroupLayout() *wgpu.BindGroupLayout

	// Buffer returns the buffer at binding, or nil.
	Buffer(binding int) *wgpu.Buffer

	// TextureView returns the texture view at binding, or nil.
	TextureView(binding int) *wgpu.TextureView

	// Sampler returns the sampler at binding, or nil.
	Sampler(binding int) *wgpu.Sampler

	// VertexBuffer returns the vertex buffer, or nil when this is not a mesh.
	VertexBuffer() *wgpu.Buffer

	// VertexCount is the number of vertices a non-indexed draw reads.
	VertexCount() int

	// VertexCapacity is the size of the vertex buffer in bytes.
	VertexCapacity() uint64

	// IndexBuffer returns the index buffer, or nil for non-indexed meshes.
	IndexBuffer() *wgpu.Buffer

	// IndexCount is the number of indices an indexed draw reads.
	IndexCount() int

	// IndexFormat is Uint16 unless WithIndexFormat said otherwise.
	IndexFormat() wgpu.IndexFormat

	// SetBindGroup stores the bind group and its layout. Called by Renderer.InitBindGroup.
	SetBindGroup(bg *wgpu.BindGroup, bgl *wgpu.BindGroupLayout)

	// SetBuffer stores the buffer for binding. Called by Renderer.InitBindGroup.
	SetBuffer(binding int, buf *wgpu.Buffer)

	// SetTexture stores a texture and the view bound for it. Called by Renderer.InitTextureView.
	SetTexture(binding int, tex *wgpu.Texture, tv *wgpu.TextureView)

	// SetSampler stores the sampler for binding. Called by Renderer.InitSampler.
	SetSampler(binding int, s *wgpu.Sampler)

	// SetVertexBuffer stores the vertex buffer. Called by Renderer.InitMeshBuffers.
	//
	// Parameters:
	//   - buf: the created vertex buffer
	//   - capacity: the buffer size in bytes
	//   - count: the number of vertices initially held
	SetVertexBuffer(buf *wgpu.Buffer, capacity uint64, count int)

	// SetVertexCount updates the number of vertices drawn after a rewrite.
	SetVertexCount(count int)

	// SetIndexBuffer stores the index buffer. Called by Renderer.InitMeshBuffers.
	//
	// Parameters:
	//   - buf: the created index buffer
	//   - format: the index element type
	//   - count: the number of indices
	SetIndexBuffer(buf *wgpu.Buffer, format wgpu.IndexFormat, count int)
}

var _ BindGroupProvider = &bindGroupProvider{}

// NewBindGroupProvider creates an empty provider. GPU objects are added by the renderer.
//
// Parameters:
//   - label: debug label prefix for every GPU object created for this provider
//   - options: functional options applied in order
//
// Returns:
//   - BindGroupProvider: the empty provider
func NewBindGroupProvider(label string, options ...BindGroupProviderOption) BindGroupProvider {
	p := &bindGroupProvider{
		label: label,
		slots: make(map[int]slot),
		mesh:  meshBuffers{indexFormat: wgpu.IndexFormatUint16},
	}
	for _, opt := range options {
		opt(p)
	}
	return p
}

func (p *bindGroupProvider) Label() string                          { return p.label }
func (p *bindGroupProvider) BindGroup() *wgpu.BindGroup             { return p.group }
func (p *bindGroupProvider) BindGroupLayout() *wgpu.BindGroupLayout { return p.layout }

func (p *bindGroupProvider) Buffer(binding int) *wgpu.Buffer           { return p.slots[binding].buffer }
func (p *bindGroupProvider) TextureView(binding int) *wgpu.TextureView { return p.slots[binding].view }
func (p *bindGroupProvider) Sampler(binding int) *wgpu.Sampler         { return p.slots[binding].sampler }

func (p *bindGroupProvider) VertexBuffer() *wgpu.Buffer    { return p.mesh.vertices }
func (p *bindGroupProvider) VertexCount() int              { return p.mesh.vertexCount }
func (p *bindGroupProvider) VertexCapacity() uint64        { return p.mesh.capacity }
func (p *bindGroupProvider) IndexBuffer() *wgpu.Buffer     { return p.mesh.indices }
func (p *bindGroupProvider) IndexCount() int               { return p.mesh.indexCount }
func (p *bindGroupProvider) IndexFormat() wgpu.IndexFormat { return p.mesh.indexFormat }

func (p *bindGroupProvider) SetBindGroup(bg *wgpu.BindGroup, bgl *wgpu.BindGroupLayout) {
	p.group, p.layout = bg, bgl
}

func (p *bindGroupProvider) SetBuffer(binding int, buf *wgpu.Buffer) {
	s := p.slots[binding]
	s.buffer = buf
	p.slots[binding] = s
}

func (p *bindGroupProvider) SetTexture(binding int, tex *wgpu.Texture, tv *wgpu.TextureView) {
	s := p.slots[binding]
	s.texture, s.view = tex, tv
	p.slots[binding] = s
}

func (p *bindGroupProvider) SetSampler(binding int, sampler *wgpu.Sampler) {
	s := p.slots[binding]
	s.sampler = sampler
	p.slots[binding] = s
}

func (p *bindGroupProvider) SetVertexBuffer(buf *wgpu.Buffer, capacity uint64, count int) {
	p.mesh.vertices, p.mesh.capacity, p.mesh.vertexCount = buf, capacity, count
}

func (p *bindGroupProvider) SetVertexCount(count int) {
	p.mesh.vertexCount = count
}

func (p *bindGroupProvider) SetIndexBuffer(buf *wgpu.Buffer, format wgpu.IndexFormat, count int) {
	p.mesh.indices, p.mesh.indexFormat, p.mesh.indexCount = buf, format, count
}

func (p *bindGroupProvider) Release() {
	// the bind group references the slots, so it goes first
	if p.group != nil {
		p.group.Release()
		p.group = nil
	}
	if p.layout != nil {
		p.layout.Release()
		p.layout = nil
	}
	for binding, s := range p.slots {
		s.release()
		delete(p.slots, binding)
	}
	if p.mesh.vertices != nil {
		p.mesh.vertices.Release()
	}
	if p.mesh.indices != nil {
		p.mesh.indices.Release()
	}
	p.mesh = meshBuffers{indexFormat: p.mesh.indexFormat}
}
