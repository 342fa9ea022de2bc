package common

import "errors"

var (
	// ErrInvalidCamera is returned when a camera is built with an unusable perspective or basis.
	ErrInvalidCamera = errors.New("invalid camera configuration")
	// ErrDegenerateLookAt is returned by LookAt when the view direction is zero or parallel to up.
	ErrDegenerateLookAt = errors.New("degenerate look-at basis")

	// ErrSurfaceUnavailable means no presentable surface image could be acquired this frame.
	ErrSurfaceUnavailable = errors.New("surface image unavailable")
	// ErrDepthAttachment means the depth texture for the main pass could not be created.
	ErrDepthAttachment = errors.New("depth attachment unavailable")
	// ErrFrameSkipped wraps any frame-transient failure; the loop continues with the next frame.
	ErrFrameSkipped = errors.New("frame skipped")
	// ErrNoActiveFrame is returned when a pass or draw is issued outside BeginFrame/Present.
	ErrNoActiveFrame = errors.New("no active frame")

	// ErrPipelineNotFound is returned when a draw names a pipeline that was never registered.
	ErrPipelineNotFound = errors.New("render pipeline not found")
	// ErrVertexBufferOverflow is returned when rewritten vertex data does not fit the buffer.
	ErrVertexBufferOverflow = errors.New("vertex data exceeds buffer capacity")

	// ErrInvalidConfig is returned by config validation.
	ErrInvalidConfig = errors.New("invalid configuration")
)
