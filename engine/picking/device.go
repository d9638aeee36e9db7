package picking

import (
	"time"

	"github.com/Carmen-Shannon/oxy-pick/common"
	"github.com/Carmen-Shannon/oxy-pick/engine/manipulator"
	"github.com/go-gl/mathgl/mgl32"
)

// Target is a render target a Device can draw into: the host framebuffer or an off-screen pick target.
type Target interface {
	// Label returns a human readable name for the target, used in logs.
	Label() string
}

// Mesh is the GPU geometry of one manipulator, as uploaded by the asset collaborator.
type Mesh interface {
	// Label returns a human readable name for the mesh, used in logs.
	Label() string
}

// FillMode selects what a draw writes into the color attachment.
type FillMode int

const (
	// FillIdentity writes Fill.Value as a flat unsigned integer color with no shading or blending.
	FillIdentity FillMode = iota

	// FillTint writes Fill.Tint blended over the existing color.
	FillTint
)

// Fill describes the flat color a mesh is drawn with.
type Fill struct {
	Mode  FillMode
	Value uint16
	Tint  common.Color
}

// PassState is the subset of device state the picking and highlight passes change and restore. It is comparable,
// so a saved state can be checked against the device's state after a pass.
type PassState struct {
	Target       Target
	Viewport     common.Viewport
	Transform    mgl32.Mat4
	DepthTest    bool
	DepthWrite   bool
	DepthCompare CompareFunction
	ClearDepth   float32
	Blend        bool
}

// Device is the rendering seam the passes draw through. It is implemented by the WebGPU renderer and by test fakes.
// All methods are called from the frame thread.
type Device interface {
	// PassState returns the device's current pass state.
	//
	// Returns:
	//   - PassState: the state subsequent draws use
	PassState() PassState

	// SetPassState replaces the device's pass state.
	//
	// Parameters:
	//   - s: the new state
	//
	// Returns:
	//   - error: an error if the state cannot be applied, e.g. an unknown target
	SetPassState(s PassState) error

	// ClearPick clears the current target's color to color and its depth to depth.
	//
	// Parameters:
	//   - color: the integer color to clear to
	//   - depth: the depth value to clear to
	ClearPick(color uint16, depth float32)

	// DrawMesh draws mesh with the current pass state and the given fill.
	//
	// Parameters:
	//   - mesh: the geometry to draw
	//   - fill: the flat color to draw it with
	DrawMesh(mesh Mesh, fill Fill)
}

// Selection restricts which manipulators a Geometry enumerates.
type Selection struct {
	all bool
	id  manipulator.Identity
}

// AllManipulators selects every manipulator's geometry.
func AllManipulators() Selection {
	return Selection{all: true, id: manipulator.Sentinel}
}

// Only selects the geometry of a single manipulator. Only(manipulator.Sentinel) selects nothing.
func Only(id manipulator.Identity) Selection {
	return Selection{id: id}
}

// All reports whether the selection covers every manipulator.
func (s Selection) All() bool {
	return s.all
}

// Identity returns the single selected identity, or manipulator.Sentinel for AllManipulators.
func (s Selection) Identity() manipulator.Identity {
	return s.id
}

// Includes reports whether id is part of the selection.
func (s Selection) Includes(id manipulator.Identity) bool {
	if id == manipulator.Sentinel {
		return false
	}
	return s.all || s.id == id
}

// Geometry is the interactive-geometry draw source supplied by the asset collaborator. Meshes enumerated for
// Only(id) must be exactly the geometry of that manipulator. AllManipulators may additionally enumerate occluders,
// non-interactive geometry reported under manipulator.Sentinel; the pick pass fills them with SentinelColor so they
// hide manipulators behind them without ever resolving.
type Geometry interface {
	// Meshes calls fn for every mesh in the selection, along with the identity that owns it.
	//
	// Parameters:
	//   - sel: the manipulators to enumerate
	//   - fn: the callback invoked for each mesh
	Meshes(sel Selection, fn func(id manipulator.Identity, mesh Mesh))
}

// Transfer is the GPU staging seam for reading the single pick pixel back to the CPU without stalling.
type Transfer interface {
	// Target returns the off-screen 1x1 pick target owned by this transfer.
	//
	// Returns:
	//   - Target: the pick target, or nil if allocation failed
	Target() Target

	// CopyPixel schedules a copy of the pick target's pixel into CPU-visible staging memory. It must not block.
	//
	// Returns:
	//   - error: an error if the copy could not be scheduled
	CopyPixel() error

	// TryRead checks whether the scheduled copy has completed without blocking.
	//
	// Returns:
	//   - uint16: the pixel value, valid only when ready is true
	//   - bool: true if the copy has completed and the value was read
	//   - error: an error if the staging memory could not be mapped
	TryRead() (uint16, bool, error)

	// Release frees the GPU resources owned by the transfer.
	Release()
}

// FrameInput is everything the host supplies to the engine once per frame.
type FrameInput struct {
	// Cursor is the cursor position in screen pixels.
	Cursor common.Point

	// Viewport is the host's scene viewport.
	Viewport common.Viewport

	// View and Projection are the host's camera transforms for the frame.
	View       mgl32.Mat4
	Projection mgl32.Mat4

	// Host carries the facts the depth convention is decided from.
	Host HostInfo

	// Target is the host framebuffer to restore after off-screen passes and to draw highlights into.
	Target Target

	// Now is the frame timestamp.
	Now time.Time
}

// CursorInside reports whether the cursor lies within the frame's viewport.
func (in FrameInput) CursorInside() bool {
	return in.Viewport.Contains(in.Cursor)
}

// SceneTransform returns projection * view.
func (in FrameInput) SceneTransform() mgl32.Mat4 {
	return in.Projection.Mul4(in.View)
}
