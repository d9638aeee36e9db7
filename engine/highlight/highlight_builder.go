package highlight

import (
	"time"

	"github.com/Carmen-Shannon/oxy-pick/common"
)

// RendererBuilderOption is a functional option used to configure a highlight Renderer during construction.
type RendererBuilderOption func(*renderer)

// WithTint sets the overlay color.
//
// Parameters:
//   - c: the tint, whose alpha sets the overlay opacity
//
// Returns:
//   - RendererBuilderOption: a function that sets the tint
func WithTint(c common.Color) RendererBuilderOption {
	return func(r *renderer) {
		r.tint = c
	}
}

// WithIntensity scales the tint's opacity. Values are clamped to [0, 1].
//
// Parameters:
//   - intensity: 1 for the full tint alpha, 0 for an invisible overlay
//
// Returns:
//   - RendererBuilderOption: a function that sets the intensity
func WithIntensity(intensity float32) RendererBuilderOption {
	return func(r *renderer) {
		r.intensity = min(max(intensity, 0), 1)
	}
}

// WithBlink makes the overlay pulse, starting fully opaque when the highlight begins and fading out and back in
// once per period. A zero period disables blinking.
//
// Parameters:
//   - period: the length of one pulse
//
// Returns:
//   - RendererBuilderOption: a function that sets the blink period
func WithBlink(period time.Duration) RendererBuilderOption {
	return func(r *renderer) {
		r.blink = max(period, 0)
	}
}
