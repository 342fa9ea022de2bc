// Package geometry holds the hand-built meshes the viewer draws: a gnomon (three colored axis
// lines) and a unit-style cube with per-face normals.
package geometry

import (
	_ "embed"
	"encoding/binary"
	"fmt"

	"github.com/Carmen-Shannon/oxy-viewer/common"
	"github.com/Carmen-Shannon/oxy-viewer/engine/renderer/bind_group_provider"
	"github.com/Carmen-Shannon/oxy-viewer/engine/renderer/pipeline"
	"github.com/Carmen-Shannon/oxy-viewer/engine/renderer/shader"
	"github.com/cogentcore/webgpu/wgpu"
)

//go:embed assets/gnomon.wgsl
var gnomonShaderSource string

//go:embed assets/cube.wgsl
var cubeShaderSource string

const (
	// GnomonPipelineKey is the pipeline cache key the gnomon draws with.
	GnomonPipelineKey = "gnomon"
	// CubePipelineKey is the pipeline cache key the cube draws with.
	CubePipelineKey = "cube"
)

// Pass is the part of the renderer a geometry needs to record its draw.
type Pass interface {
	DrawCall(pipelineKey string, meshProvider bind_group_provider.BindGroupProvider, instanceCount uint32, bindGroups []bind_group_provider.BindGroupProvider) error
}

// MeshUploader creates the GPU vertex and index buffers for a mesh.
type MeshUploader interface {
	InitMeshBuffers(provider bind_group_provider.BindGroupProvider, vertexData, indexData []byte, vertexCount, indexCount int) error
}

// geometry is the implementation of the Geometry interface.
type geometry struct {
	name        string
	pipelineKey string
	source      string

	vertices []Vertex
	indices  []uint16

	topology  wgpu.PrimitiveTopology
	cullMode  wgpu.CullMode
	frontFace wgpu.FrontFace

	mesh bind_group_provider.BindGroupProvider
}

// Geometry is a static mesh with the pipeline configuration needed to draw it.
type Geometry interface {
	// Name returns the debug name of the geometry.
	Name() string

	// PipelineKey returns the key of the pipeline this geometry is drawn with.
	PipelineKey() string

	// Vertices returns the interleaved vertex data.
	Vertices() []Vertex

	// Indices returns the uint16 index data, or nil for non-indexed geometry.
	Indices() []uint16

	// VertexBytes returns the vertex data as raw bytes for upload.
	VertexBytes() []byte

	// IndexBytes returns the index data as raw bytes, zero padded to a multiple of 4 bytes.
	// Returns nil for non-indexed geometry.
	IndexBytes() []byte

	// Topology returns the primitive topology.
	Topology() wgpu.PrimitiveTopology

	// CullMode returns the face culling mode.
	CullMode() wgpu.CullMode

	// FrontFace returns the front face winding.
	FrontFace() wgpu.FrontFace

	// Mesh returns the provider holding this geometry's GPU vertex and index buffers.
	Mesh() bind_group_provider.BindGroupProvider

	// Pipeline builds an unregistered render pipeline for this geometry from its embedded shader.
	//
	// Returns:
	//   - pipeline.Pipeline: the pipeline, keyed by PipelineKey
	//   - error: an error if the shader could not be parsed
	Pipeline() (pipeline.Pipeline, error)

	// Upload creates the GPU buffers for the geometry.
	//
	// Parameters:
	//   - uploader: the renderer creating the buffers
	//
	// Returns:
	//   - error: an error if buffer creation fails
	Upload(uploader MeshUploader) error

	// Draw records one draw of the geometry into the active pass: indexed when the geometry
	// has indices, otherwise over its vertex count.
	//
	// Parameters:
	//   - pass: the pass to draw into
	//   - bindGroups: providers set at group 0, 1, ...
	//
	// Returns:
	//   - error: the draw error from the pass
	Draw(pass Pass, bindGroups ...bind_group_provider.BindGroupProvider) error

	// Release frees the GPU buffers of the geometry.
	Release()
}

var _ Geometry = &geometry{}

func newGeometry(name, pipelineKey, source string, vertices []Vertex, indices []uint16, options ...GeometryBuilderOption) *geometry {
	g := &geometry{
		name:        name,
		pipelineKey: pipelineKey,
		source:      source,
		vertices:    vertices,
		indices:     indices,
		topology:    wgpu.PrimitiveTopologyTriangleList,
		cullMode:    wgpu.CullModeNone,
		frontFace:   wgpu.FrontFaceCCW,
	}
	for _, opt := range options {
		opt(g)
	}
	g.mesh = bind_group_provider.NewBindGroupProvider(g.name,
		bind_group_provider.WithIndexFormat(wgpu.IndexFormatUint16),
		bind_group_provider.WithVertexCount(len(g.vertices)),
	)
	return g
}

// NewGnomon builds the axis triad: three line segments from the origin along +X (red),
// +Y (green) and +Z (blue), each size units long. The vertex attribute is the line color.
//
// Parameters:
//   - size: the length of each axis line
//   - options: functional options overriding name or pipeline key
//
// Returns:
//   - Geometry: 6 vertices, line list, no culling
func NewGnomon(size float32, options ...GeometryBuilderOption) Geometry {
	red := [3]float32{1, 0, 0}
	green := [3]float32{0, 1, 0}
	blue := [3]float32{0, 0, 1}
	vertices := []Vertex{
		{Position: [3]float32{0, 0, 0}, Attribute: red},
		{Position: [3]float32{size, 0, 0}, Attribute: red},
		{Position: [3]float32{0, 0, 0}, Attribute: green},
		{Position: [3]float32{0, size, 0}, Attribute: green},
		{Position: [3]float32{0, 0, 0}, Attribute: blue},
		{Position: [3]float32{0, 0, size}, Attribute: blue},
	}
	opts := append([]GeometryBuilderOption{
		WithTopology(wgpu.PrimitiveTopologyLineList),
		WithCullMode(wgpu.CullModeNone),
	}, options...)
	return newGeometry("Gnomon", GnomonPipelineKey, gnomonShaderSource, vertices, nil, opts...)
}

// cubeFace describes one cube face by its outward normal and two in-plane axes with u × v = normal,
// so corners listed (-u-v, +u-v, +u+v, -u+v) wind counter-clockwise seen from outside.
type cubeFace struct {
	normal, u, v [3]float32
}

var cubeFaces = [6]cubeFace{
	{normal: [3]float32{1, 0, 0}, u: [3]float32{0, 1, 0}, v: [3]float32{0, 0, 1}},
	{normal: [3]float32{-1, 0, 0}, u: [3]float32{0, 0, 1}, v: [3]float32{0, 1, 0}},
	{normal: [3]float32{0, 1, 0}, u: [3]float32{0, 0, 1}, v: [3]float32{1, 0, 0}},
	{normal: [3]float32{0, -1, 0}, u: [3]float32{1, 0, 0}, v: [3]float32{0, 0, 1}},
	{normal: [3]float32{0, 0, 1}, u: [3]float32{1, 0, 0}, v: [3]float32{0, 1, 0}},
	{normal: [3]float32{0, 0, -1}, u: [3]float32{0, 1, 0}, v: [3]float32{1, 0, 0}},
}

// NewCube builds an axis-aligned cube centered on the origin with 4 vertices per face so each
// face carries its own outward normal as the vertex attribute.
//
// Parameters:
//   - halfExtent: half the edge length
//   - options: functional options overriding name or pipeline key
//
// Returns:
//   - Geometry: 24 vertices, 36 uint16 indices, triangle list, back-face culling
func NewCube(halfExtent float32, options ...GeometryBuilderOption) Geometry {
	vertices := make([]Vertex, 0, 24)
	indices := make([]uint16, 0, 36)
	corners := [4][2]float32{{-1, -1}, {1, -1}, {1, 1}, {-1, 1}}

	for _, f := range cubeFaces {
		base := uint16(len(vertices))
		for _, c := range corners {
			var p [3]float32
			for i := range 3 {
				p[i] = halfExtent * (f.normal[i] + c[0]*f.u[i] + c[1]*f.v[i])
			}
			vertices = append(vertices, Vertex{Position: p, Attribute: f.normal})
		}
		indices = append(indices, base, base+1, base+2, base, base+2, base+3)
	}

	opts := append([]GeometryBuilderOption{
		WithTopology(wgpu.PrimitiveTopologyTriangleList),
		WithCullMode(wgpu.CullModeBack),
	}, options...)
	return newGeometry("Cube", CubePipelineKey, cubeShaderSource, vertices, indices, opts...)
}

func (g *geometry) Name() string {
	return g.name
}

func (g *geometry) PipelineKey() string {
	return g.pipelineKey
}

func (g *geometry) Vertices() []Vertex {
	return g.vertices
}

func (g *geometry) Indices() []uint16 {
	return g.indices
}

func (g *geometry) VertexBytes() []byte {
	return common.SliceToBytes(g.vertices)
}

func (g *geometry) IndexBytes() []byte {
	return padIndexBytes(g.indices)
}

func (g *geometry) Topology() wgpu.PrimitiveTopology {
	return g.topology
}

func (g *geometry) CullMode() wgpu.CullMode {
	return g.cullMode
}

func (g *geometry) FrontFace() wgpu.FrontFace {
	return g.frontFace
}

func (g *geometry) Mesh() bind_group_provider.BindGroupProvider {
	return g.mesh
}

func (g *geometry) Pipeline() (pipeline.Pipeline, error) {
	vs, err := shader.NewShader(g.pipelineKey+".vs", shader.ShaderTypeVertex, g.source)
	if err != nil {
		return nil, err
	}
	fs, err := shader.NewShader(g.pipelineKey+".fs", shader.ShaderTypeFragment, g.source)
	if err != nil {
		return nil, err
	}
	return pipeline.NewPipeline(g.pipelineKey,
		pipeline.WithShaders(vs, fs),
		pipeline.WithPrimitive(pipeline.PrimitiveState{Topology: g.topology, CullMode: g.cullMode, FrontFace: g.frontFace}),
		pipeline.WithDepth(pipeline.DepthState{Test: true, Write: true}),
		pipeline.WithBlend(pipeline.AlphaBlend()),
	), nil
}

func (g *geometry) Upload(uploader MeshUploader) error {
	if err := uploader.InitMeshBuffers(g.mesh, g.VertexBytes(), g.IndexBytes(), len(g.vertices), len(g.indices)); err != nil {
		return fmt.Errorf("upload %s: %w", g.name, err)
	}
	return nil
}

func (g *geometry) Draw(pass Pass, bindGroups ...bind_group_provider.BindGroupProvider) error {
	if err := pass.DrawCall(g.pipelineKey, g.mesh, 1, bindGroups); err != nil {
		return fmt.Errorf("draw %s: %w", g.name, err)
	}
	return nil
}

func (g *geometry) Release() {
	g.mesh.Release()
}

// padIndexBytes encodes indices little-endian and zero pads the result to a multiple of 4 bytes,
// the copy alignment required for buffer writes.
func padIndexBytes(indices []uint16) []byte {
	if len(indices) == 0 {
		return nil
	}
	size := (len(indices)*2 + 3) &^ 3
	buf := make([]byte, size)
	for i, idx := range indices {
		binary.LittleEndian.PutUint16(buf[i*2:], idx)
	}
	return buf
}
