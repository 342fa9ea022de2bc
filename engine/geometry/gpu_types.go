package geometry

import (
	"encoding/binary"
	"math"
	"unsafe"

	"github.com/go-gl/mathgl/mgl32"
)

// VertexStride is the size in bytes of one interleaved Vertex.
const VertexStride = 24

// Bindings of the frame bind group (group 0) shared by every geometry.
const (
	CameraBinding = 0
	ModelBinding  = 1
)

// Vertex is one interleaved mesh vertex. Attribute is the per-vertex color for the gnomon
// and the face normal for the cube.
// Size: 24 bytes.
type Vertex struct {
	Position  [3]float32 // offset  0: @location(0)
	Attribute [3]float32 // offset 12: @location(1)
}

// GPUModelUniform is the GPU-aligned model matrix bound at group 0, binding 1.
// Size: 64 bytes.
type GPUModelUniform struct {
	Model [16]float32 // offset 0: model matrix (mat4x4<f32>)
}

// NewModelUniform wraps a model matrix for upload.
func NewModelUniform(m mgl32.Mat4) GPUModelUniform {
	return GPUModelUniform{Model: m}
}

// Size returns the size of the GPUModelUniform struct in bytes.
//
// Returns:
//   - int: the struct size in bytes (64)
func (g *GPUModelUniform) Size() int {
	return int(unsafe.Sizeof(*g))
}

// Marshal serializes the GPUModelUniform struct into a byte buffer suitable for GPU upload.
//
// Returns:
//   - []byte: the serialized byte buffer
func (g *GPUModelUniform) Marshal() []byte {
	buf := make([]byte, g.Size())
	for i := range 16 {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(g.Model[i]))
	}
	return buf
}
