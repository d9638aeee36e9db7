package common

import (
	"github.com/go-gl/mathgl/mgl32"
)

// PickMatrix builds a clip-space transform that magnifies the one-pixel square centred on the cursor so it fills the
// whole of a 1x1 render target. Pre-multiplying a scene's projection matrix by the result means the picking pass
// rasterises exactly what the full-resolution pass would draw under the cursor, at sub-pixel precision, without
// rendering the rest of the viewport.
//
// Screen space has Y pointing down while normalized device coordinates have Y pointing up, so the cursor's
// vertical offset is flipped.
//
// Parameters:
//   - cursor: the cursor position in screen pixels
//   - vp: the viewport the scene's projection maps onto
//
// Returns:
//   - mgl32.Mat4: the pick matrix, or the identity matrix if the viewport is empty
func PickMatrix(cursor Point, vp Viewport) mgl32.Mat4 {
	if vp.Empty() {
		return mgl32.Ident4()
	}
	w := float32(vp.Width)
	h := float32(vp.Height)

	ndcX, ndcY := CursorNDC(cursor, vp)

	// Scale the pixel footprint (2/w by 2/h in NDC) up to the full [-1, 1] square,
	// then translate the cursor's NDC position to the origin.
	scale := mgl32.Scale3D(w, h, 1)
	translate := mgl32.Translate3D(-ndcX*w, -ndcY*h, 0)
	return translate.Mul4(scale)
}

// CursorNDC converts a screen-space cursor position to normalized device coordinates relative to vp.
//
// Parameters:
//   - cursor: the cursor position in screen pixels
//   - vp: the viewport the position is relative to
//
// Returns:
//   - float32: x in NDC, -1 at the left edge and +1 at the right edge
//   - float32: y in NDC, +1 at the top edge and -1 at the bottom edge
func CursorNDC(cursor Point, vp Viewport) (float32, float32) {
	if vp.Empty() {
		return 0, 0
	}
	x := 2*(cursor.X-float32(vp.X))/float32(vp.Width) - 1
	y := 1 - 2*(cursor.Y-float32(vp.Y))/float32(vp.Height)
	return x, y
}
