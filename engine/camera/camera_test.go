package camera

import (
	"encoding/binary"
	"math"
	"testing"

	"github.com/Carmen-Shannon/oxy-viewer/common"
	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const tol = 1e-5

func TestNewCameraDefaults(t *testing.T) {
	cam, err := NewCamera()
	require.NoError(t, err)

	assert.Equal(t, mgl32.Vec3{0, 0, 5}, cam.Eye())
	assert.Equal(t, mgl32.Vec3{0, 1, 0}, cam.Up())
	assert.InDelta(t, math32.Pi/4, cam.Fov(), tol)
	assert.Equal(t, float32(0.1), cam.Near())
	assert.Equal(t, float32(100), cam.Far())

	fwd := cam.Forward()
	assert.InDelta(t, 0, fwd[0], tol)
	assert.InDelta(t, 0, fwd[1], tol)
	assert.InDelta(t, -1, fwd[2], tol)
}

func TestViewMatrixMapsEyeToOrigin(t *testing.T) {
	cam, err := NewCamera()
	require.NoError(t, err)

	view := cam.ViewMatrix()
	eye := view.Mul4x1(cam.Eye().Vec4(1))
	for i := range 3 {
		assert.InDelta(t, 0, eye[i], tol)
	}

	// the origin sits five units ahead of the camera
	origin := view.Mul4x1(mgl32.Vec4{0, 0, 0, 1})
	assert.InDelta(t, -5, origin[2], tol)
}

func TestInitialFrameProjectsOriginToCenter(t *testing.T) {
	cam, err := NewCamera(WithAspect(16.0 / 9.0))
	require.NoError(t, err)

	model := common.DefaultDirection().ModelMatrix()
	mvp := common.Compose(cam.ProjectionMatrix(), common.Compose(cam.ViewMatrix(), model))
	clip := mvp.Mul4x1(mgl32.Vec4{0, 0, 0, 1})

	assert.InDelta(t, 0, clip[0]/clip[3], tol)
	assert.InDelta(t, 0, clip[1]/clip[3], tol)
	depth := clip[2] / clip[3]
	assert.Greater(t, depth, float32(0))
	assert.Less(t, depth, float32(1))
}

func TestNewCameraRejectsInvalidConfig(t *testing.T) {
	tests := []struct {
		name string
		opts []CameraBuilderOption
	}{
		{"zero fov", []CameraBuilderOption{WithFov(0)}},
		{"fov of pi", []CameraBuilderOption{WithFov(math32.Pi)}},
		{"negative aspect", []CameraBuilderOption{WithAspect(-1)}},
		{"zero near", []CameraBuilderOption{WithClipPlanes(0, 100)}},
		{"far before near", []CameraBuilderOption{WithClipPlanes(10, 1)}},
		{"nan aspect", []CameraBuilderOption{WithAspect(float32(math.NaN()))}},
		{"up along forward", []CameraBuilderOption{WithUp(mgl32.Vec3{0, 0, 1})}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cam, err := NewCamera(tt.opts...)
			assert.ErrorIs(t, err, common.ErrInvalidCamera)
			assert.Nil(t, cam)
		})
	}
}

func TestSetAspect(t *testing.T) {
	cam, err := NewCamera()
	require.NoError(t, err)

	require.NoError(t, cam.SetAspect(2))
	assert.Equal(t, float32(2), cam.Aspect())
	proj := cam.ProjectionMatrix()
	assert.InDelta(t, proj[5]/2, proj[0], tol)

	assert.ErrorIs(t, cam.SetAspect(0), common.ErrInvalidCamera)
	assert.Equal(t, float32(2), cam.Aspect())
}

func TestUpdateKeepsMatrices(t *testing.T) {
	cam, err := NewCamera()
	require.NoError(t, err)
	before := cam.ViewMatrix()
	require.NoError(t, cam.Update())
	assert.Equal(t, before, cam.ViewMatrix())
}

func TestWithOrientationIsNormalized(t *testing.T) {
	cam, err := NewCamera(WithOrientation(mgl32.Quat{W: 0, V: mgl32.Vec3{0, 3, 0}}))
	require.NoError(t, err)
	assert.InDelta(t, 1, cam.Orientation().Len(), tol)
}

func TestCameraUniformMarshal(t *testing.T) {
	cam, err := NewCamera()
	require.NoError(t, err)

	u := cam.Uniform()
	buf := u.Marshal()
	require.Len(t, buf, 128)
	assert.Equal(t, 128, u.Size())

	view := cam.ViewMatrix()
	proj := cam.ProjectionMatrix()
	assert.Equal(t, view[14], math.Float32frombits(binary.LittleEndian.Uint32(buf[14*4:])))
	assert.Equal(t, proj[11], math.Float32frombits(binary.LittleEndian.Uint32(buf[64+11*4:])))
}
