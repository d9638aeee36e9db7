package camera

import (
	"math"
	"sync"

	"github.com/Carmen-Shannon/oxy-pick/engine/picking"
	"github.com/go-gl/mathgl/mgl32"
)

// clipStandard remaps OpenGL clip depth [-1, 1] onto WebGPU's [0, 1], near plane at 0.
var clipStandard = mgl32.Mat4{
	1, 0, 0, 0,
	0, 1, 0, 0,
	0, 0, 0.5, 0,
	0, 0, 0.5, 1,
}

// clipReversed remaps OpenGL clip depth [-1, 1] onto WebGPU's [0, 1] with the near plane at 1.
var clipReversed = mgl32.Mat4{
	1, 0, 0, 0,
	0, 1, 0, 0,
	0, 0, -0.5, 0,
	0, 0, 0.5, 1,
}

type cameraImpl struct {
	mu *sync.Mutex

	up [3]float32

	fov    float32
	aspect float32
	near   float32
	far    float32

	controller CameraController
}

// Camera defines the interface for the camera system.
// The camera holds perspective settings and derives the view and projection matrices the host hands the picking
// engine each frame. Positional state lives in the attached CameraController.
type Camera interface {
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

	// SetAspect sets the aspect ratio, typically on window resize.
	//
	// Parameters:
	//   - aspect: width / height
	SetAspect(aspect float32)

	// ViewMatrix returns the world-to-eye transform built from the controller's position and target.
	// The identity matrix is returned when no controller is attached.
	//
	// Returns:
	//   - mgl32.Mat4: the view matrix
	ViewMatrix() mgl32.Mat4

	// ProjectionMatrix returns the perspective projection for the given depth convention. Under DepthStandard the
	// near plane maps to depth 0 and the far plane to 1; under DepthReversed the mapping is flipped.
	//
	// Parameters:
	//   - conv: the depth convention the host is rendering with
	//
	// Returns:
	//   - mgl32.Mat4: the projection matrix
	ProjectionMatrix(conv picking.DepthConvention) mgl32.Mat4

	// Controller returns the attached controller, or nil.
	//
	// Returns:
	//   - CameraController: the controller
	Controller() CameraController

	// SetController attaches a controller.
	//
	// Parameters:
	//   - ctrl: the controller providing position and target
	SetController(ctrl CameraController)
}

var _ Camera = &cameraImpl{}

// NewCamera creates a new Camera with default perspective settings (45° fov, 1.0 aspect, 0.1 near, 100 far).
//
// Parameters:
//   - options: functional options to configure the camera
//
// Returns:
//   - Camera: the newly created camera
func NewCamera(options ...CameraBuilderOption) Camera {
	c := &cameraImpl{
		mu:     &sync.Mutex{},
		up:     [3]float32{0, 1, 0},
		fov:    45.0 * (math.Pi / 180.0),
		aspect: 1.0,
		near:   0.1,
		far:    100.0,
	}
	for _, option := range options {
		option(c)
	}
	return c
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

func (c *cameraImpl) SetAspect(aspect float32) {
	if aspect <= 0 {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.aspect = aspect
}

func (c *cameraImpl) ViewMatrix() mgl32.Mat4 {
	c.mu.Lock()
	ctrl := c.controller
	up := mgl32.Vec3(c.up)
	c.mu.Unlock()

	if ctrl == nil {
		return mgl32.Ident4()
	}
	return mgl32.LookAtV(ctrl.Position(), ctrl.Target(), up)
}

func (c *cameraImpl) ProjectionMatrix(conv picking.DepthConvention) mgl32.Mat4 {
	c.mu.Lock()
	defer c.mu.Unlock()

	p := mgl32.Perspective(c.fov, c.aspect, c.near, c.far)
	if conv == picking.DepthReversed {
		return clipReversed.Mul4(p)
	}
	return clipStandard.Mul4(p)
}

func (c *cameraImpl) Controller() CameraController {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.controller
}

func (c *cameraImpl) SetController(ctrl CameraController) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.controller = ctrl
}
