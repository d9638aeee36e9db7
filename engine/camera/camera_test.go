package camera

import (
	"math"
	"testing"

	"github.com/Carmen-Shannon/oxy-pick/engine/picking"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
)

func depthAt(m mgl32.Mat4, eyeZ float32) float32 {
	clip := m.Mul4x1(mgl32.Vec4{0, 0, eyeZ, 1})
	return clip.Z() / clip.W()
}

func TestProjectionDepthConventions(t *testing.T) {
	c := NewCamera(WithNear(0.5), WithFar(50))

	std := c.ProjectionMatrix(picking.DepthStandard)
	assert.InDelta(t, 0, depthAt(std, -0.5), 1e-5)
	assert.InDelta(t, 1, depthAt(std, -50), 1e-4)

	rev := c.ProjectionMatrix(picking.DepthReversed)
	assert.InDelta(t, 1, depthAt(rev, -0.5), 1e-5)
	assert.InDelta(t, 0, depthAt(rev, -50), 1e-4)

	// Nearer points win under each convention's compare function.
	assert.True(t, picking.DepthStandard.Compare() == picking.CompareLess)
	assert.Less(t, depthAt(std, -2), depthAt(std, -3))
	assert.Greater(t, depthAt(rev, -2), depthAt(rev, -3))
}

func TestViewWithoutController(t *testing.T) {
	c := NewCamera()
	assert.Equal(t, mgl32.Ident4(), c.ViewMatrix())
}

func TestViewLooksAtTarget(t *testing.T) {
	ctrl := NewCameraController(WithRadius(2), WithElevation(0), WithTarget(0, 1, 0))
	c := NewCamera(WithController(ctrl))

	pos := ctrl.Position()
	assert.InDeltaSlice(t, []float32{0, 1, 2}, pos[:], 1e-5)

	eye := c.ViewMatrix().Mul4x1(mgl32.Vec4{0, 1, 0, 1})
	assert.InDelta(t, 0, eye.X(), 1e-5)
	assert.InDelta(t, 0, eye.Y(), 1e-5)
	assert.InDelta(t, -2, eye.Z(), 1e-5)
}

func TestControllerClamps(t *testing.T) {
	ctrl := NewCameraController(WithRadius(1), WithRadiusBounds(0.5, 2), WithZoomSpeed(1))
	ctrl.Zoom(10)
	assert.Equal(t, float32(0.5), ctrl.Radius())
	ctrl.Zoom(-10)
	assert.Equal(t, float32(2), ctrl.Radius())

	for range 200 {
		ctrl.OrbitUp()
	}
	assert.InDelta(t, math.Pi/2-0.1, ctrl.Elevation(), 1e-5)
}

func TestControllerDragAndOrbit(t *testing.T) {
	ctrl := NewCameraController(WithAzimuth(0), WithElevation(0), WithOrbitSpeed(0.25), WithMouseSensitivity(0.01))
	ctrl.OrbitRight()
	assert.InDelta(t, 0.25, ctrl.Azimuth(), 1e-6)
	ctrl.OrbitLeft()
	ctrl.OrbitLeft()
	assert.InDelta(t, -0.25, ctrl.Azimuth(), 1e-6)

	ctrl.Drag(25, -10)
	assert.InDelta(t, -0.5, ctrl.Azimuth(), 1e-6)
	assert.InDelta(t, -0.1, ctrl.Elevation(), 1e-6)
}

func TestSetAspectIgnoresNonPositive(t *testing.T) {
	c := NewCamera(WithAspect(2))
	c.SetAspect(0)
	assert.Equal(t, float32(2), c.Aspect())
	c.SetAspect(1.5)
	assert.Equal(t, float32(1.5), c.Aspect())
}
