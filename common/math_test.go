package common

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
)

func TestViewportContains(t *testing.T) {
	vp := Viewport{X: 10, Y: 20, Width: 100, Height: 50}

	assert.True(t, vp.Contains(Point{X: 10, Y: 20}))
	assert.True(t, vp.Contains(Point{X: 109.5, Y: 69.9}))
	assert.False(t, vp.Contains(Point{X: 110, Y: 30}))
	assert.False(t, vp.Contains(Point{X: 50, Y: 70}))
	assert.False(t, vp.Contains(Point{X: 9.99, Y: 30}))
	assert.False(t, vp.Contains(Point{X: -1, Y: -1}))
	assert.False(t, Viewport{}.Contains(Point{}))
}

func TestCursorNDC(t *testing.T) {
	vp := Viewport{Width: 200, Height: 100}

	x, y := CursorNDC(Point{X: 100, Y: 50}, vp)
	assert.InDelta(t, 0, x, 1e-6)
	assert.InDelta(t, 0, y, 1e-6)

	x, y = CursorNDC(Point{X: 0, Y: 0}, vp)
	assert.InDelta(t, -1, x, 1e-6)
	assert.InDelta(t, 1, y, 1e-6)
}

func TestPickMatrixCentersCursor(t *testing.T) {
	vp := Viewport{X: 0, Y: 0, Width: 640, Height: 480}
	cursor := Point{X: 123.5, Y: 321.25}

	m := PickMatrix(cursor, vp)
	ndcX, ndcY := CursorNDC(cursor, vp)

	center := m.Mul4x1(mgl32.Vec4{ndcX, ndcY, 0.5, 1})
	assert.InDelta(t, 0, center.X(), 1e-3)
	assert.InDelta(t, 0, center.Y(), 1e-3)
	assert.InDelta(t, 0.5, center.Z(), 1e-6, "depth must pass through untouched")

	// Half a pixel to the right of the cursor lands on the right edge of the 1x1 target.
	edge := m.Mul4x1(mgl32.Vec4{ndcX + 1.0/640, ndcY, 0, 1})
	assert.InDelta(t, 1, edge.X(), 1e-3)
}

func TestPickMatrixEmptyViewport(t *testing.T) {
	assert.Equal(t, mgl32.Ident4(), PickMatrix(Point{X: 5, Y: 5}, Viewport{}))
}

func TestCoalesce(t *testing.T) {
	assert.Equal(t, 3, Coalesce(0, 3, 4))
	assert.Equal(t, "", Coalesce("", ""))
	assert.Equal(t, Color{A: 1}, Coalesce(Color{}, Color{A: 1}))
}
