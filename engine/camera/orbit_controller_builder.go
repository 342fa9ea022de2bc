package camera

// OrbitControllerOption is a functional option for configuring an OrbitController.
type OrbitControllerOption func(*orbitControllerImpl)

// WithSensitivity sets the drag sensitivity. Non-positive values keep the default.
//
// Parameters:
//   - sensitivity: radians per pixel of pointer motion
//
// Returns:
//   - OrbitControllerOption: functional option to set the sensitivity
func WithSensitivity(sensitivity float32) OrbitControllerOption {
	return func(oc *orbitControllerImpl) {
		if sensitivity > 0 {
			oc.sensitivity = sensitivity
		}
	}
}
