// package common contains plain data types shared by the picking engine and its collaborators. They are not interface-wrapped
// structs, just plain structs that express commonly used data-types.
package common

// Point is a position in screen space, measured in pixels from the top-left corner of the host window.
// Coordinates are floating point so the cursor can address a sub-pixel location.
type Point struct {
	X float32
	Y float32
}

// Viewport is a pixel rectangle of the host framebuffer, origin at the top-left corner.
type Viewport struct {
	// X and Y are the top-left corner of the rectangle in pixels.
	X, Y int32
	// Width and Height are the extent of the rectangle in pixels.
	Width, Height int32
}

// Empty reports whether the viewport covers no pixels.
//
// Returns:
//   - bool: true if either dimension is zero or negative
func (v Viewport) Empty() bool {
	return v.Width <= 0 || v.Height <= 0
}

// Contains reports whether p lies inside the viewport. The left and top edges are inclusive,
// the right and bottom edges exclusive.
//
// Parameters:
//   - p: the screen-space point to test
//
// Returns:
//   - bool: true if the point is inside the viewport
func (v Viewport) Contains(p Point) bool {
	if v.Empty() {
		return false
	}
	return p.X >= float32(v.X) && p.X < float32(v.X+v.Width) &&
		p.Y >= float32(v.Y) && p.Y < float32(v.Y+v.Height)
}

// Color is a linear RGBA color with components in the [0, 1] range.
type Color struct {
	R, G, B, A float32
}

// WithAlpha returns a copy of the color with its alpha component replaced.
//
// Parameters:
//   - a: the new alpha value
//
// Returns:
//   - Color: the modified copy
func (c Color) WithAlpha(a float32) Color {
	c.A = a
	return c
}

// Array returns the color as a [4]float32 suitable for GPU uniform upload.
func (c Color) Array() [4]float32 {
	return [4]float32{c.R, c.G, c.B, c.A}
}
