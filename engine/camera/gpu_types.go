package camera

import (
	"encoding/binary"
	"math"
	"unsafe"
)

// GPUCameraUniform mirrors the WGSL CameraUniform at group 0, binding 0:
//
//	struct CameraUniform { view: mat4x4f, proj: mat4x4f }
//
// Both matrices are column-major. Size: 128 bytes.
type GPUCameraUniform struct {
	View [16]float32
	Proj [16]float32
}

// Size is the uniform size in bytes.
func (g *GPUCameraUniform) Size() int {
	return int(unsafe.Sizeof(*g))
}

// Marshal encodes view then projection as little-endian float32s.
//
// Returns:
//   - []byte: Size() bytes ready for a queue write
func (g *GPUCameraUniform) Marshal() []byte {
	buf := make([]byte, 0, g.Size())
	for _, m := range [...]*[16]float32{&g.View, &g.Proj} {
		for _, v := range m {
			buf = binary.LittleEndian.AppendUint32(buf, math.Float32bits(v))
		}
	}
	return buf
}
