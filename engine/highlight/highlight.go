// Package highlight draws a tinted overlay over the geometry of a single manipulator.
package highlight

import (
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/Carmen-Shannon/oxy-pick/common"
	"github.com/Carmen-Shannon/oxy-pick/engine/manipulator"
	"github.com/Carmen-Shannon/oxy-pick/engine/picking"
)

// DefaultTint is the overlay color used when no tint is configured.
var DefaultTint = common.Color{R: 0.2, G: 0.8, B: 1.0, A: 0.45}

// renderer is the implementation of the Renderer interface.
type renderer struct {
	geometry  picking.Geometry
	tint      common.Color
	intensity float32
	blink     time.Duration
}

// Renderer draws the geometry of one manipulator again over the host framebuffer with alpha blending and a tint.
// The identity it highlights is chosen by the caller, so it can follow the tracker or any external selection.
type Renderer interface {
	// Render records the overlay for id. The device's pass state is saved before the pass and restored after it.
	// manipulator.Sentinel draws nothing.
	//
	// Parameters:
	//   - dev: the device to draw through
	//   - in: the frame input providing the host target, viewport and camera transforms
	//   - conv: the depth convention active for the frame
	//   - id: the manipulator to highlight
	//   - since: when id became highlighted, used by blinking
	//
	// Returns:
	//   - int: the number of meshes drawn
	//   - error: an error if the pass state could not be applied or restored
	Render(dev picking.Device, in picking.FrameInput, conv picking.DepthConvention, id manipulator.Identity, since time.Time) (int, error)

	// TintAt returns the tint used after the highlight has been active for elapsed.
	//
	// Parameters:
	//   - elapsed: how long the highlight has been active
	//
	// Returns:
	//   - common.Color: the tint, with alpha modulated by intensity and blinking
	TintAt(elapsed time.Duration) common.Color
}

var _ Renderer = &renderer{}

// NewRenderer creates a highlight Renderer drawing the geometry enumerated by geometry.
//
// Parameters:
//   - geometry: the interactive-geometry-only draw source
//   - opts: optional tint, intensity and blink configuration
//
// Returns:
//   - Renderer: the highlight renderer
func NewRenderer(geometry picking.Geometry, opts ...RendererBuilderOption) Renderer {
	r := &renderer{
		geometry:  geometry,
		tint:      DefaultTint,
		intensity: 1,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func (r *renderer) Render(dev picking.Device, in picking.FrameInput, conv picking.DepthConvention, id manipulator.Identity, since time.Time) (int, error) {
	if id.IsNone() {
		return 0, nil
	}

	saved := dev.PassState()
	overlay := saved
	overlay.Target = in.Target
	overlay.Viewport = in.Viewport
	overlay.Transform = in.SceneTransform()
	overlay.DepthTest = true
	overlay.DepthWrite = false
	overlay.DepthCompare = conv.OverlayCompare()
	overlay.Blend = true
	if err := dev.SetPassState(overlay); err != nil {
		if restoreErr := dev.SetPassState(saved); restoreErr != nil {
			err = errors.Join(err, restoreErr)
		}
		return 0, fmt.Errorf("highlight pass: %w", err)
	}

	fill := picking.Fill{Mode: picking.FillTint, Value: picking.Encode(id), Tint: r.TintAt(in.Now.Sub(since))}
	drawn := 0
	r.geometry.Meshes(picking.Only(id), func(_ manipulator.Identity, mesh picking.Mesh) {
		dev.DrawMesh(mesh, fill)
		drawn++
	})

	if err := dev.SetPassState(saved); err != nil {
		return drawn, fmt.Errorf("highlight pass restore: %w", err)
	}
	return drawn, nil
}

func (r *renderer) TintAt(elapsed time.Duration) common.Color {
	a := r.tint.A * r.intensity
	if r.blink > 0 {
		if elapsed < 0 {
			elapsed = 0
		}
		phase := float64(elapsed%r.blink) / float64(r.blink)
		a *= float32(0.5 + 0.5*math.Cos(2*math.Pi*phase))
	}
	return r.tint.WithAlpha(a)
}
