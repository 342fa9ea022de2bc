package ui

import (
	_ "embed"
	"encoding/binary"
	"math"
	"unsafe"
)

// ShaderSource is the WGSL program drawing overlay vertices. Group 0 holds the screen uniform
// (binding 0), the glyph atlas (binding 1) and its sampler (binding 2).
//
//go:embed assets/overlay.wgsl
var ShaderSource string

const (
	// ScreenBinding is the binding of the GPUScreenUniform.
	ScreenBinding = 0
	// AtlasBinding is the binding of the glyph atlas texture.
	AtlasBinding = 1
	// SamplerBinding is the binding of the atlas sampler.
	SamplerBinding = 2
)

// VertexStride is the size in bytes of one overlay Vertex.
const VertexStride = 32

// Vertex is one overlay vertex in pixel coordinates.
// Size: 32 bytes.
type Vertex struct {
	Pos   [2]float32 // offset  0: @location(0) pixel position, origin top-left
	UV    [2]float32 // offset  8: @location(1) atlas coordinate
	Color [4]float32 // offset 16: @location(2) straight RGBA
}

// GPUScreenUniform carries the framebuffer size used to map pixels to clip space.
// Size: 16 bytes.
type GPUScreenUniform struct {
	Resolution [2]float32 // offset 0: width, height in pixels
	_          [2]float32 // offset 8: padding to 16 bytes
}

// NewScreenUniform builds the screen uniform for a framebuffer size.
func NewScreenUniform(width, height int) GPUScreenUniform {
	return GPUScreenUniform{Resolution: [2]float32{float32(width), float32(height)}}
}

// Size returns the size of the GPUScreenUniform struct in bytes.
//
// Returns:
//   - int: the struct size in bytes (16)
func (g *GPUScreenUniform) Size() int {
	return int(unsafe.Sizeof(*g))
}

// Marshal serializes the GPUScreenUniform struct into a byte buffer suitable for GPU upload.
//
// Returns:
//   - []byte: the serialized byte buffer
func (g *GPUScreenUniform) Marshal() []byte {
	buf := make([]byte, g.Size())
	binary.LittleEndian.PutUint32(buf[0:4], math.Float32bits(g.Resolution[0]))
	binary.LittleEndian.PutUint32(buf[4:8], math.Float32bits(g.Resolution[1]))
	return buf
}
