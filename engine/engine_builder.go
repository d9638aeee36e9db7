package engine

import (
	"log"
	"time"

	"github.com/Carmen-Shannon/oxy-pick/engine/dispatch"
	"github.com/Carmen-Shannon/oxy-pick/engine/highlight"
	"github.com/Carmen-Shannon/oxy-pick/engine/picking"
	"github.com/Carmen-Shannon/oxy-pick/engine/profiler"
	"github.com/Carmen-Shannon/oxy-pick/engine/tracker"
)

// EngineBuilderOption is a functional option for configuring an Engine.
// Use the With* functions to create options that are applied directly to the engine instance.
type EngineBuilderOption func(*engine)

// WithLogger sets the logger used for transient frame errors, profiling output and panic recovery.
//
// Parameters:
//   - l: the logger; nil keeps log.Default()
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithLogger(l *log.Logger) EngineBuilderOption {
	return func(e *engine) {
		if l != nil {
			e.logger = l
		}
	}
}

// WithProfiling enables or disables periodic logging of picking statistics.
// Statistics are collected either way and are available from Stats.
//
// Parameters:
//   - enabled: if true, enables performance profiling output
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithProfiling(enabled bool) EngineBuilderOption {
	return func(e *engine) {
		e.profilingEnabled = enabled
	}
}

// WithProfiler sets a pre-configured profiler instead of the default one.
//
// Parameters:
//   - p: the profiler
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithProfiler(p *profiler.Profiler) EngineBuilderOption {
	return func(e *engine) {
		e.profiler = p
	}
}

// WithConventionPolicy sets how the depth convention is chosen each frame.
//
// Parameters:
//   - p: picking.ConventionAuto to detect from the host, or a forced convention
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithConventionPolicy(p picking.ConventionPolicy) EngineBuilderOption {
	return func(e *engine) {
		e.policy = p
	}
}

// WithHighlight sets the renderer used for the highlight overlay.
//
// Parameters:
//   - r: the highlight renderer
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithHighlight(r highlight.Renderer) EngineBuilderOption {
	return func(e *engine) {
		e.highlighter = r
	}
}

// WithHighlightEnabled enables or disables the highlight overlay. It is enabled by default.
//
// Parameters:
//   - enabled: if true, the tracked or overridden manipulator is highlighted each frame
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithHighlightEnabled(enabled bool) EngineBuilderOption {
	return func(e *engine) {
		e.highlightEnabled = enabled
	}
}

// WithDispatcher sets the dispatcher activation events are published to. The caller keeps ownership and must close
// it after the engine.
//
// Parameters:
//   - d: the dispatcher
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithDispatcher(d dispatch.Dispatcher) EngineBuilderOption {
	return func(e *engine) {
		e.dispatcher = d
		e.ownsDispatcher = false
	}
}

// WithClock sets the time source used when a frame input carries no timestamp.
//
// Parameters:
//   - clock: the time source
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithClock(clock func() time.Time) EngineBuilderOption {
	return func(e *engine) {
		if clock != nil {
			e.clock = clock
		}
	}
}

// WithRenderFrameLimit sets an optional frame rate cap for Run in frames per second.
// Pass 0 to uncap the loop (default).
//
// Parameters:
//   - fps: maximum frames per second (0 = uncapped)
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithRenderFrameLimit(fps float64) EngineBuilderOption {
	return func(e *engine) {
		if fps <= 0 {
			e.renderFrameLimit = 0
			return
		}
		e.renderFrameLimit = time.Duration(float64(time.Second) / fps)
	}
}

// WithActivationHistory sets how many activations History retains.
//
// Parameters:
//   - n: the number of activations to keep; 0 disables the history
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithActivationHistory(n int) EngineBuilderOption {
	return func(e *engine) {
		e.tracker = tracker.NewClickTracker(tracker.WithHistory(n))
	}
}
