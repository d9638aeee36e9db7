package camera

// CameraControllerOption is a functional option for configuring a CameraController via NewCameraController.
type CameraControllerOption func(*cameraControllerImpl)

// WithRadius sets the initial orbit distance from the target.
//
// Parameters:
//   - radius: the orbit radius
//
// Returns:
//   - CameraControllerOption: a function that applies the radius option
func WithRadius(radius float32) CameraControllerOption {
	return func(cc *cameraControllerImpl) {
		cc.radius = radius
	}
}

// WithAzimuth sets the initial horizontal orbit angle in radians.
//
// Parameters:
//   - azimuth: the azimuth in radians
//
// Returns:
//   - CameraControllerOption: a function that applies the azimuth option
func WithAzimuth(azimuth float32) CameraControllerOption {
	return func(cc *cameraControllerImpl) {
		cc.azimuth = azimuth
	}
}

// WithElevation sets the initial vertical orbit angle in radians.
//
// Parameters:
//   - elevation: the elevation in radians
//
// Returns:
//   - CameraControllerOption: a function that applies the elevation option
func WithElevation(elevation float32) CameraControllerOption {
	return func(cc *cameraControllerImpl) {
		cc.elevation = elevation
	}
}

// WithTarget sets the initial look-at point.
//
// Parameters:
//   - x, y, z: world-space coordinates
//
// Returns:
//   - CameraControllerOption: a function that applies the target option
func WithTarget(x, y, z float32) CameraControllerOption {
	return func(cc *cameraControllerImpl) {
		cc.target[0], cc.target[1], cc.target[2] = x, y, z
	}
}

// WithRadiusBounds sets the zoom limits.
//
// Parameters:
//   - min: the closest allowed radius
//   - max: the furthest allowed radius
//
// Returns:
//   - CameraControllerOption: a function that applies the radius bounds option
func WithRadiusBounds(min, max float32) CameraControllerOption {
	return func(cc *cameraControllerImpl) {
		cc.minRadius = min
		cc.maxRadius = max
	}
}

// WithOrbitSpeed sets the angle in radians covered by one OrbitLeft/Right/Up/Down step.
//
// Parameters:
//   - speed: radians per step
//
// Returns:
//   - CameraControllerOption: a function that applies the orbit speed option
func WithOrbitSpeed(speed float32) CameraControllerOption {
	return func(cc *cameraControllerImpl) {
		cc.orbitSpeed = speed
	}
}

// WithMouseSensitivity sets the radians of orbit per pixel of Drag.
//
// Parameters:
//   - sensitivity: radians per pixel
//
// Returns:
//   - CameraControllerOption: a function that applies the mouse sensitivity option
func WithMouseSensitivity(sensitivity float32) CameraControllerOption {
	return func(cc *cameraControllerImpl) {
		cc.mouseSensitivity = sensitivity
	}
}

// WithZoomSpeed sets the radius change per unit of Zoom delta.
//
// Parameters:
//   - speed: radius units per zoom unit
//
// Returns:
//   - CameraControllerOption: a function that applies the zoom speed option
func WithZoomSpeed(speed float32) CameraControllerOption {
	return func(cc *cameraControllerImpl) {
		cc.zoomSpeed = speed
	}
}
