package picking

import (
	"errors"
	"fmt"

	"github.com/Carmen-Shannon/oxy-pick/common"
	"github.com/Carmen-Shannon/oxy-pick/engine/manipulator"
)

// PickViewport is the viewport of the 1x1 pick target.
var PickViewport = common.Viewport{Width: 1, Height: 1}

// pickRenderer is the implementation of the PickRenderer interface.
type pickRenderer struct {
	geometry Geometry
}

// PickRenderer renders the interactive geometry under the cursor into the pick target, each manipulator filled with
// its encoded identity and depth tested so only the nearest surface survives.
type PickRenderer interface {
	// Render records one pick pass. The device's pass state is saved before the pass and restored after it.
	//
	// Parameters:
	//   - dev: the device to draw through
	//   - target: the 1x1 pick target
	//   - in: the frame input providing cursor, viewport and camera transforms
	//   - conv: the depth convention active for the frame
	//
	// Returns:
	//   - int: the number of meshes drawn
	//   - error: an error if the pass state could not be applied or restored
	Render(dev Device, target Target, in FrameInput, conv DepthConvention) (int, error)
}

var _ PickRenderer = &pickRenderer{}

// NewPickRenderer creates a PickRenderer that draws the interactive geometry enumerated by geometry.
//
// Parameters:
//   - geometry: the interactive-geometry-only draw source
//
// Returns:
//   - PickRenderer: the pick renderer
func NewPickRenderer(geometry Geometry) PickRenderer {
	return &pickRenderer{geometry: geometry}
}

// PickState returns the pass state the pick pass draws with.
//
// Parameters:
//   - target: the 1x1 pick target
//   - in: the frame input
//   - conv: the depth convention active for the frame
//
// Returns:
//   - PassState: the pick pass state
func PickState(target Target, in FrameInput, conv DepthConvention) PassState {
	return PassState{
		Target:       target,
		Viewport:     PickViewport,
		Transform:    common.PickMatrix(in.Cursor, in.Viewport).Mul4(in.SceneTransform()),
		DepthTest:    true,
		DepthWrite:   true,
		DepthCompare: conv.Compare(),
		ClearDepth:   conv.FarDepth(),
		Blend:        false,
	}
}

func (p *pickRenderer) Render(dev Device, target Target, in FrameInput, conv DepthConvention) (int, error) {
	if !in.CursorInside() {
		return 0, nil
	}
	saved := dev.PassState()
	if err := dev.SetPassState(PickState(target, in, conv)); err != nil {
		if restoreErr := dev.SetPassState(saved); restoreErr != nil {
			err = errors.Join(err, restoreErr)
		}
		return 0, fmt.Errorf("pick pass: %w", err)
	}

	dev.ClearPick(SentinelColor, conv.FarDepth())
	drawn := 0
	p.geometry.Meshes(AllManipulators(), func(id manipulator.Identity, mesh Mesh) {
		dev.DrawMesh(mesh, Fill{Mode: FillIdentity, Value: Encode(id)})
		drawn++
	})

	if err := dev.SetPassState(saved); err != nil {
		return drawn, fmt.Errorf("pick pass restore: %w", err)
	}
	return drawn, nil
}
