package camera

import "github.com/go-gl/mathgl/mgl32"

// CameraBuilderOption adjusts a camera before NewCamera validates it.
type CameraBuilderOption func(*cameraImpl)

// WithEye places the camera in world space.
func WithEye(eye mgl32.Vec3) CameraBuilderOption {
	return func(c *cameraImpl) { c.eye = eye }
}

// WithOrientation sets the rotation applied to the forward axis. NewCamera normalizes it.
//
// Parameters:
//   - q: the orientation, need not be unit length
//
// Returns:
//   - CameraBuilderOption: option function to apply
func WithOrientation(q mgl32.Quat) CameraBuilderOption {
	return func(c *cameraImpl) { c.orientation = q }
}

// WithUp sets the up hint used to build the view basis.
func WithUp(up mgl32.Vec3) CameraBuilderOption {
	return func(c *cameraImpl) { c.up = up }
}

// WithFov sets the vertical field of view in radians, in (0, π).
func WithFov(fov float32) CameraBuilderOption {
	return func(c *cameraImpl) { c.fov = fov }
}

// WithAspect sets width over height of the viewport.
func WithAspect(aspect float32) CameraBuilderOption {
	return func(c *cameraImpl) { c.aspect = aspect }
}

// WithClipPlanes sets the near and far plane distances. NewCamera requires 0 < near < far.
//
// Parameters:
//   - near: distance to the near plane
//   - far: distance to the far plane
//
// Returns:
//   - CameraBuilderOption: option function to apply
func WithClipPlanes(near, far float32) CameraBuilderOption {
	return func(c *cameraImpl) { c.near, c.far = near, far }
}
