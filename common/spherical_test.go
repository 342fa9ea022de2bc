package common

import (
	"testing"

	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
)

func TestDefaultDirectionIsUnrotated(t *testing.T) {
	d := DefaultDirection()
	assertVec3InDelta(t, ForwardAxis, d.Vector())
	assertMat4InDelta(t, mgl32.Ident4(), d.ModelMatrix())
}

func TestSphericalDirectionClamp(t *testing.T) {
	d := SphericalDirection{Phi: 10, Theta: -3}
	d.Clamp()
	assert.Equal(t, PhiMax, d.Phi)
	assert.Equal(t, ThetaMin, d.Theta)

	d = SphericalDirection{Phi: -1, Theta: 3}
	d.Clamp()
	assert.Equal(t, PhiMin, d.Phi)
	assert.Equal(t, ThetaMax, d.Theta)
}

func TestSphericalDirectionModelMatrix(t *testing.T) {
	d := SphericalDirection{Phi: math32.Pi / 2, Theta: 0}
	m := d.ModelMatrix()
	got := m.Mul4x1(ForwardAxis.Vec4(0)).Vec3()
	assertVec3InDelta(t, mgl32.Vec3{0, 1, 0}, got)
}
