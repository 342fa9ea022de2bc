package camera

import (
	"fmt"
	"sync"

	"github.com/Carmen-Shannon/oxy-viewer/common"
	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"
)

type cameraImpl struct {
	mu *sync.Mutex

	eye         mgl32.Vec3
	orientation mgl32.Quat
	up          mgl32.Vec3

	fov    float32
	aspect float32
	near   float32
	far    float32

	viewMatrix       mgl32.Mat4
	projectionMatrix mgl32.Mat4
}

// Camera defines the interface for the viewer camera.
// The camera is a positioned, oriented object with a perspective lens. Its forward axis is
// the orientation applied to +Z; the view matrix looks from the eye along that axis.
type Camera interface {
	// Eye returns the camera's world-space position.
	//
	// Returns:
	//   - mgl32.Vec3: the eye position
	Eye() mgl32.Vec3

	// Orientation returns the camera's unit orientation quaternion.
	//
	// Returns:
	//   - mgl32.Quat: the orientation
	Orientation() mgl32.Quat

	// Forward returns the world-space direction the camera looks along.
	//
	// Returns:
	//   - mgl32.Vec3: orientation applied to +Z
	Forward() mgl32.Vec3

	// Up returns the camera's up hint.
	//
	// Returns:
	//   - mgl32.Vec3: the up vector
	Up() mgl32.Vec3

	// Fov returns the vertical field of view in radians.
	//
	// Returns:
	//   - float32: field of view in radians
	Fov() float32

	// Aspect returns the aspect ratio (width / height).
	//
	// Returns:
	//   - float32: the aspect ratio
	Aspect() float32

	// Near returns the near clipping plane distance.
	//
	// Returns:
	//   - float32: near plane distance
	Near() float32

	// Far returns the far clipping plane distance.
	//
	// Returns:
	//   - float32: far plane distance
	Far() float32

	// ViewMatrix returns the view matrix computed by the last Update.
	//
	// Returns:
	//   - mgl32.Mat4: the view matrix (column-major)
	ViewMatrix() mgl32.Mat4

	// ProjectionMatrix returns the projection matrix computed by the last Update.
	//
	// Returns:
	//   - mgl32.Mat4: the projection matrix (column-major)
	ProjectionMatrix() mgl32.Mat4

	// Uniform returns the GPU camera uniform built from the current matrices.
	//
	// Returns:
	//   - GPUCameraUniform: view and projection ready for upload
	Uniform() GPUCameraUniform

	// Update recomputes the view and projection matrices. Called once per frame.
	//
	// Returns:
	//   - error: ErrDegenerateLookAt if the basis collapsed; the view falls back to identity
	Update() error

	// SetAspect sets the aspect ratio (width / height) and recomputes the projection.
	// Non-positive ratios are rejected and the previous value is kept.
	//
	// Parameters:
	//   - ratio: the new aspect ratio
	//
	// Returns:
	//   - error: ErrInvalidCamera if ratio <= 0
	SetAspect(ratio float32) error
}

var _ Camera = &cameraImpl{}

// NewCamera creates a new Camera. Without options it sits at (0, 0, 5) facing the origin with a
// 45° field of view. The configuration is validated before the camera is returned.
//
// Parameters:
//   - options: functional options to configure the camera
//
// Returns:
//   - Camera: the newly created camera
//   - error: ErrInvalidCamera wrapped with the offending field
func NewCamera(options ...CameraBuilderOption) (Camera, error) {
	c := &cameraImpl{
		mu:          &sync.Mutex{},
		eye:         mgl32.Vec3{0, 0, 5},
		orientation: mgl32.Quat{W: 0, V: mgl32.Vec3{0, 1, 0}},
		up:          mgl32.Vec3{0, 1, 0},
		fov:         45.0 * (math32.Pi / 180.0), // radians
		aspect:      1.0,
		near:        0.1,
		far:         100.0,
	}
	for _, option := range options {
		option(c)
	}
	c.orientation = c.orientation.Normalize()

	if err := c.validate(); err != nil {
		return nil, err
	}
	if err := c.updateMatrices(); err != nil {
		return nil, fmt.Errorf("%w: %w", common.ErrInvalidCamera, err)
	}
	return c, nil
}

func (c *cameraImpl) Eye() mgl32.Vec3 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.eye
}

func (c *cameraImpl) Orientation() mgl32.Quat {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.orientation
}

func (c *cameraImpl) Forward() mgl32.Vec3 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.orientation.Rotate(common.ForwardAxis)
}

func (c *cameraImpl) Up() mgl32.Vec3 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.up
}

func (c *cameraImpl) Fov() float32 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.fov
}

func (c *cameraImpl) Aspect() float32 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.aspect
}

func (c *cameraImpl) Near() float32 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.near
}

func (c *cameraImpl) Far() float32 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.far
}

func (c *cameraImpl) ViewMatrix() mgl32.Mat4 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.viewMatrix
}

func (c *cameraImpl) ProjectionMatrix() mgl32.Mat4 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.projectionMatrix
}

func (c *cameraImpl) Uniform() GPUCameraUniform {
	c.mu.Lock()
	defer c.mu.Unlock()
	return GPUCameraUniform{
		View: c.viewMatrix,
		Proj: c.projectionMatrix,
	}
}

func (c *cameraImpl) Update() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.updateMatrices()
}

func (c *cameraImpl) SetAspect(ratio float32) error {
	if !(ratio > 0) {
		return fmt.Errorf("%w: aspect %v must be positive", common.ErrInvalidCamera, ratio)
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.aspect = ratio
	c.projectionMatrix = common.Perspective(c.fov, c.aspect, c.near, c.far)
	return nil
}

// validate checks the perspective and basis invariants. NaN fails every comparison below.
func (c *cameraImpl) validate() error {
	switch {
	case !(c.fov > 0 && c.fov < math32.Pi):
		return fmt.Errorf("%w: fov %v must be in (0, π)", common.ErrInvalidCamera, c.fov)
	case !(c.aspect > 0):
		return fmt.Errorf("%w: aspect %v must be positive", common.ErrInvalidCamera, c.aspect)
	case !(c.near > 0):
		return fmt.Errorf("%w: near %v must be positive", common.ErrInvalidCamera, c.near)
	case !(c.far > c.near):
		return fmt.Errorf("%w: far %v must exceed near %v", common.ErrInvalidCamera, c.far, c.near)
	}
	return nil
}

// updateMatrices recalculates the view and projection matrices.
// Caller must hold the mutex.
func (c *cameraImpl) updateMatrices() error {
	target := c.eye.Add(c.orientation.Rotate(common.ForwardAxis))
	view, err := common.LookAt(c.eye, target, c.up)
	c.viewMatrix = view
	c.projectionMatrix = common.Perspective(c.fov, c.aspect, c.near, c.far)
	return err
}
