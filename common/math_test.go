package common

import (
	"testing"

	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const tol = 1e-5

func assertVec3InDelta(t *testing.T, want, got mgl32.Vec3) {
	t.Helper()
	for i := range 3 {
		assert.InDelta(t, want[i], got[i], tol, "component %d of %v", i, got)
	}
}

func assertMat4InDelta(t *testing.T, want, got mgl32.Mat4) {
	t.Helper()
	for i := range 16 {
		assert.InDelta(t, want[i], got[i], tol, "element %d", i)
	}
}

func TestSph2Cart(t *testing.T) {
	tests := []struct {
		name       string
		phi, theta float32
		radius     float32
		want       mgl32.Vec3
	}{
		{"origin azimuth", 0, 0, 1, mgl32.Vec3{1, 0, 0}},
		{"quarter azimuth", math32.Pi / 2, 0, 1, mgl32.Vec3{0, 1, 0}},
		{"north pole", 0, math32.Pi / 2, 1, mgl32.Vec3{0, 0, 1}},
		{"north pole ignores phi", 1.3, math32.Pi / 2, 1, mgl32.Vec3{0, 0, 1}},
		{"south pole", 0, -math32.Pi / 2, 1, mgl32.Vec3{0, 0, -1}},
		{"scaled", math32.Pi, 0, 3, mgl32.Vec3{-3, 0, 0}},
		{"zero radius", 0.7, 0.2, 0, mgl32.Vec3{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assertVec3InDelta(t, tt.want, Sph2Cart(tt.phi, tt.theta, tt.radius))
		})
	}
}

func TestSph2CartLength(t *testing.T) {
	for _, phi := range []float32{0, 0.5, 2, 4, 6} {
		for _, theta := range []float32{-1.5, -0.3, 0, 0.9, 1.5} {
			v := Sph2Cart(phi, theta, 2.5)
			assert.InDelta(t, 2.5, v.Len(), tol)
		}
	}
}

func TestCart2SphRoundTrip(t *testing.T) {
	for _, phi := range []float32{0.1, 1, 3, 5.5} {
		for _, theta := range []float32{-1.2, 0, 0.8} {
			gotPhi, gotTheta, r := Cart2Sph(Sph2Cart(phi, theta, 1))
			assert.InDelta(t, phi, gotPhi, 1e-4)
			assert.InDelta(t, theta, gotTheta, 1e-4)
			assert.InDelta(t, 1, r, tol)
		}
	}

	phi, theta, r := Cart2Sph(mgl32.Vec3{})
	assert.Zero(t, phi)
	assert.Zero(t, theta)
	assert.Zero(t, r)
}

func TestRotationAligningAxisTo(t *testing.T) {
	targets := []mgl32.Vec3{
		{1, 0, 0},
		{0, 1, 0},
		{0, 0, 1},
		{0, 0, -1},
		{1, 1, 1},
		{-0.3, 0.2, -0.9},
		{0, 0, 4},
	}
	for _, target := range targets {
		q := RotationAligningAxisTo(target)
		assert.InDelta(t, 1, q.Len(), tol, "not a unit quaternion for %v", target)
		assertVec3InDelta(t, target.Normalize(), q.Rotate(ForwardAxis))
	}
}

func TestRotationAligningAxisToIdentity(t *testing.T) {
	q := RotationAligningAxisTo(ForwardAxis)
	assertMat4InDelta(t, mgl32.Ident4(), q.Mat4())

	q = RotationAligningAxisTo(mgl32.Vec3{})
	assert.Equal(t, mgl32.QuatIdent(), q)
}

func TestRotationAligningAxisToOpposite(t *testing.T) {
	q := RotationAligningAxisTo(mgl32.Vec3{0, 0, -1})
	assertVec3InDelta(t, mgl32.Vec3{0, 0, -1}, q.Rotate(ForwardAxis))
	// 180 degrees about +X keeps X and flips Y
	assertVec3InDelta(t, mgl32.Vec3{1, 0, 0}, q.Rotate(mgl32.Vec3{1, 0, 0}))
	assertVec3InDelta(t, mgl32.Vec3{0, -1, 0}, q.Rotate(mgl32.Vec3{0, 1, 0}))
}

func TestRotationAligningAxisToNearOpposite(t *testing.T) {
	for _, offset := range []float32{1e-2, 1e-3, 1e-4} {
		for _, phi := range []float32{0, 1, math32.Pi, 5} {
			want := Sph2Cart(phi, -math32.Pi/2+offset, 1)
			q := RotationAligningAxisTo(want)
			assert.InDelta(t, 1, q.Len(), tol)
			assertVec3InDelta(t, want, q.Rotate(ForwardAxis))
		}
	}
}

func TestLookAt(t *testing.T) {
	eye := mgl32.Vec3{0, 0, 5}
	view, err := LookAt(eye, mgl32.Vec3{}, mgl32.Vec3{0, 1, 0})
	require.NoError(t, err)

	// eye maps to the view-space origin
	assertVec3InDelta(t, mgl32.Vec3{}, view.Mul4x1(eye.Vec4(1)).Vec3())
	// target lies on -Z at the eye distance
	assertVec3InDelta(t, mgl32.Vec3{0, 0, -5}, view.Mul4x1(mgl32.Vec4{0, 0, 0, 1}).Vec3())
	// up stays up
	assertVec3InDelta(t, mgl32.Vec3{0, 1, 0}, view.Mul4x1(mgl32.Vec4{0, 1, 0, 0}).Vec3())
}

func TestLookAtDegenerate(t *testing.T) {
	tests := []struct {
		name            string
		eye, target, up mgl32.Vec3
	}{
		{"target equals eye", mgl32.Vec3{1, 2, 3}, mgl32.Vec3{1, 2, 3}, mgl32.Vec3{0, 1, 0}},
		{"up parallel to view", mgl32.Vec3{0, 0, 5}, mgl32.Vec3{}, mgl32.Vec3{0, 0, 1}},
		{"zero up", mgl32.Vec3{0, 0, 5}, mgl32.Vec3{}, mgl32.Vec3{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			view, err := LookAt(tt.eye, tt.target, tt.up)
			assert.ErrorIs(t, err, ErrDegenerateLookAt)
			assert.Equal(t, mgl32.Ident4(), view)
		})
	}
}

func TestPerspectiveDepthRange(t *testing.T) {
	near, far := float32(0.1), float32(100)
	proj := Perspective(math32.Pi/4, 1.5, near, far)

	project := func(z float32) float32 {
		clip := proj.Mul4x1(mgl32.Vec4{0, 0, -z, 1})
		return clip[2] / clip[3]
	}
	assert.InDelta(t, 0, project(near), tol)
	assert.InDelta(t, 1, project(far), 1e-4)

	// closer points get smaller depth
	assert.Less(t, project(1), project(10))

	f := 1 / math32.Tan(math32.Pi/8)
	assert.InDelta(t, f/1.5, proj[0], tol)
	assert.InDelta(t, f, proj[5], tol)
	assert.Equal(t, float32(-1), proj[11])
}

func TestCompose(t *testing.T) {
	a := mgl32.Translate3D(1, 2, 3)
	b := mgl32.Scale3D(2, 2, 2)
	got := Compose(a, b)
	assertVec3InDelta(t, mgl32.Vec3{3, 4, 5}, got.Mul4x1(mgl32.Vec4{1, 1, 1, 1}).Vec3())
	assertMat4InDelta(t, a, Compose(a, mgl32.Ident4()))
}

func TestClamp(t *testing.T) {
	assert.Equal(t, 2, Clamp(5, 0, 2))
	assert.Equal(t, 0, Clamp(-1, 0, 2))
	assert.Equal(t, float32(1.5), Clamp(float32(1.5), 0, 2))
}

func TestCoalesce(t *testing.T) {
	assert.Equal(t, "b", Coalesce("", "b", "c"))
	assert.Equal(t, 0, Coalesce(0, 0))
}
