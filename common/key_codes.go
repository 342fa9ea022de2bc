package common

// Key codes delivered to key callbacks. They are GLFW key values, which are ASCII for
// printable keys.
const (
	KeyR   = 82
	KeyEsc = 256
)
