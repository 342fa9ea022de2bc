package common

import (
	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"
)

// Angle ranges for SphericalDirection.
const (
	PhiMin   float32 = 0
	PhiMax   float32 = 2 * math32.Pi
	ThetaMin float32 = -math32.Pi / 2
	ThetaMax float32 = math32.Pi / 2
)

// SphericalDirection is an azimuth/elevation pair in radians. It is the single source
// of truth for the model orientation; sliders and orbit drags both write to it.
type SphericalDirection struct {
	// Phi is the azimuth in [PhiMin, PhiMax].
	Phi float32 `toml:"phi" yaml:"phi"`
	// Theta is the elevation in [ThetaMin, ThetaMax].
	Theta float32 `toml:"theta" yaml:"theta"`
}

// DefaultDirection points along +Z, which leaves the model unrotated.
func DefaultDirection() SphericalDirection {
	return SphericalDirection{Phi: 0, Theta: math32.Pi / 2}
}

// Clamp limits both angles to their declared ranges.
func (d *SphericalDirection) Clamp() {
	d.Phi = Clamp(d.Phi, PhiMin, PhiMax)
	d.Theta = Clamp(d.Theta, ThetaMin, ThetaMax)
}

// Vector returns the unit vector the direction points along.
//
// Returns:
//   - mgl32.Vec3: Sph2Cart(phi, theta, 1)
func (d SphericalDirection) Vector() mgl32.Vec3 {
	return Sph2Cart(d.Phi, d.Theta, 1)
}

// ModelMatrix returns the rotation that aligns +Z with the direction, as a 4x4 matrix.
//
// Returns:
//   - mgl32.Mat4: the model transform (column-major)
func (d SphericalDirection) ModelMatrix() mgl32.Mat4 {
	return RotationAligningAxisTo(d.Vector()).Mat4()
}
