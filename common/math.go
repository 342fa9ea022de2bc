package common

import (
	"unsafe"

	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"
)

const (
	// alignEpsilon is the length below which LookAt treats the side vector as zero.
	alignEpsilon = 1e-6
	// degenerateEpsilon is the squared length below which a basis vector is treated as zero.
	degenerateEpsilon = 1e-12
)

// ForwardAxis is the canonical forward axis (+Z) that orientations are measured from.
var ForwardAxis = mgl32.Vec3{0, 0, 1}

// SliceToBytes converts any slice to a byte slice for GPU buffer uploads.
// Uses unsafe pointer operations to create a view into the original data.
// WARNING: The returned slice shares memory with the input - do not modify.
//
// Parameters:
//   - data: source slice of any type
//
// Returns:
//   - []byte: byte slice view of the input data, or nil if input is empty
func SliceToBytes[T any](data []T) []byte {
	if len(data) == 0 {
		return nil
	}
	var zero T
	size := unsafe.Sizeof(zero)
	totalBytes := int(size) * len(data)
	return unsafe.Slice((*byte)(unsafe.Pointer(&data[0])), totalBytes)
}

// StructToBytes reinterprets a pointer to a struct as a raw byte slice using unsafe.
// The returned slice has length equal to the struct's size in memory.
//
// Parameters:
//   - v: pointer to the struct to reinterpret
//
// Returns:
//   - []byte: byte slice view of the struct's memory
func StructToBytes[T any](v *T) []byte {
	size := unsafe.Sizeof(*v)
	return unsafe.Slice((*byte)(unsafe.Pointer(v)), int(size))
}

// Sph2Cart converts spherical coordinates to a Cartesian vector.
// Phi is the azimuth measured in the XY plane from +X, theta the elevation
// from that plane toward +Z, so theta = π/2 yields +Z for any phi.
//
// Parameters:
//   - phi: azimuth in radians
//   - theta: elevation in radians
//   - radius: vector length
//
// Returns:
//   - mgl32.Vec3: the Cartesian vector
func Sph2Cart(phi, theta, radius float32) mgl32.Vec3 {
	cosTheta := math32.Cos(theta)
	return mgl32.Vec3{
		radius * cosTheta * math32.Cos(phi),
		radius * cosTheta * math32.Sin(phi),
		radius * math32.Sin(theta),
	}
}

// Cart2Sph is the inverse of Sph2Cart. Phi is normalized into [0, 2π).
// The zero vector maps to (0, 0, 0); at the poles phi is whatever atan2 reports.
//
// Parameters:
//   - v: the Cartesian vector
//
// Returns:
//   - phi: azimuth in radians
//   - theta: elevation in radians
//   - radius: length of v
func Cart2Sph(v mgl32.Vec3) (phi, theta, radius float32) {
	radius = v.Len()
	if radius == 0 {
		return 0, 0, 0
	}
	theta = math32.Asin(Clamp(v[2]/radius, -1, 1))
	phi = math32.Atan2(v[1], v[0])
	if phi < 0 {
		phi += 2 * math32.Pi
	}
	return phi, theta, radius
}

// RotationAligningAxisTo returns the shortest rotation taking ForwardAxis (+Z) onto direction.
// When direction points along -Z the result is a 180° turn about +X. A zero-length
// direction yields the identity.
//
// Parameters:
//   - direction: target direction, need not be normalized
//
// Returns:
//   - mgl32.Quat: a unit quaternion
func RotationAligningAxisTo(direction mgl32.Vec3) mgl32.Quat {
	if direction.Dot(direction) < degenerateEpsilon {
		return mgl32.QuatIdent()
	}
	to := direction.Normalize()

	// sinSq is |+Z x to|^2
	sinSq := to[0]*to[0] + to[1]*to[1]
	if to[2] < 0 && sinSq < degenerateEpsilon {
		// any axis orthogonal to +Z works here
		return mgl32.Quat{W: 0, V: mgl32.Vec3{1, 0, 0}}
	}

	// r is 1 + cos(angle); near -Z it is taken from the XY part to avoid cancellation
	r := 1 + to[2]
	if to[2] < 0 {
		r = sinSq / (1 - to[2])
	}
	return mgl32.Quat{W: r, V: ForwardAxis.Cross(to)}.Normalize()
}

// LookAt builds a right-handed view matrix; the camera looks down -Z in view space.
// When target coincides with eye, or up is parallel to the view direction, the basis is
// undefined: the identity matrix is returned together with ErrDegenerateLookAt.
//
// Parameters:
//   - eye: camera position in world space
//   - target: point the camera looks at
//   - up: up hint, need not be normalized
//
// Returns:
//   - mgl32.Mat4: the view matrix (column-major)
//   - error: ErrDegenerateLookAt for an undefined basis
func LookAt(eye, target, up mgl32.Vec3) (mgl32.Mat4, error) {
	forward := target.Sub(eye)
	if forward.Dot(forward) < degenerateEpsilon || up.Dot(up) < degenerateEpsilon {
		return mgl32.Ident4(), ErrDegenerateLookAt
	}
	side := forward.Normalize().Cross(up.Normalize())
	if side.Dot(side) < alignEpsilon*alignEpsilon {
		return mgl32.Ident4(), ErrDegenerateLookAt
	}
	return mgl32.LookAtV(eye, target, up), nil
}

// Perspective creates a right-handed perspective projection for WebGPU clip space, where
// depth runs from 0 at the near plane to 1 at the far plane.
//
// Parameters:
//   - fovY: vertical field of view in radians
//   - aspect: viewport aspect ratio (width/height)
//   - near: near clipping plane distance (must be > 0)
//   - far: far clipping plane distance (must be > near)
//
// Returns:
//   - mgl32.Mat4: the projection matrix (column-major)
func Perspective(fovY, aspect, near, far float32) mgl32.Mat4 {
	f := 1.0 / math32.Tan(fovY/2.0)

	var out mgl32.Mat4
	out[0] = f / aspect
	out[5] = f
	out[10] = far / (near - far)
	out[11] = -1.0
	out[14] = (near * far) / (near - far)
	return out
}

// Compose returns a * b: b's space expressed in a's space.
func Compose(a, b mgl32.Mat4) mgl32.Mat4 {
	return a.Mul4(b)
}
