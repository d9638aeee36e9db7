// Package config loads the picking engine's TOML configuration file.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"time"

	"github.com/Carmen-Shannon/oxy-pick/common"
	"github.com/Carmen-Shannon/oxy-pick/engine"
	"github.com/Carmen-Shannon/oxy-pick/engine/dispatch"
	"github.com/Carmen-Shannon/oxy-pick/engine/highlight"
	"github.com/Carmen-Shannon/oxy-pick/engine/picking"
	"github.com/Carmen-Shannon/oxy-pick/engine/profiler"
	"github.com/Carmen-Shannon/oxy-pick/engine/tracker"
	"github.com/pelletier/go-toml/v2"
)

// ErrInvalid is wrapped by every validation failure.
var ErrInvalid = errors.New("invalid configuration")

// Config is the engine configuration file.
type Config struct {
	Depth     DepthConfig     `toml:"depth"`
	Highlight HighlightConfig `toml:"highlight"`
	Profiler  ProfilerConfig  `toml:"profiler"`
	Dispatch  DispatchConfig  `toml:"dispatch"`
	Run       RunConfig       `toml:"run"`
	Window    WindowConfig    `toml:"window"`
	Renderer  RendererConfig  `toml:"renderer"`
	Host      HostConfig      `toml:"host"`
	Camera    CameraConfig    `toml:"camera"`
}

// DepthConfig selects the depth convention policy.
type DepthConfig struct {
	// Convention is "auto", "standard" or "reversed".
	Convention string `toml:"convention"`
}

// HighlightConfig configures the highlight overlay.
type HighlightConfig struct {
	Enabled       bool       `toml:"enabled"`
	Tint          [4]float32 `toml:"tint"`
	Intensity     float32    `toml:"intensity"`
	BlinkPeriodMs int        `toml:"blink_period_ms"`
}

// ProfilerConfig configures periodic statistics logging.
type ProfilerConfig struct {
	Enabled    bool `toml:"enabled"`
	IntervalMs int  `toml:"interval_ms"`
}

// DispatchConfig sizes the activation event worker pool.
type DispatchConfig struct {
	Workers       int  `toml:"workers"`
	QueueSize     int  `toml:"queue_size"`
	IdleTimeoutMs int  `toml:"idle_timeout_ms"`
	Synchronous   bool `toml:"synchronous"`
}

// RunConfig configures the frame loop.
type RunConfig struct {
	// FrameLimit caps frames per second; 0 is uncapped.
	FrameLimit float64 `toml:"frame_limit"`
	// History is how many activations the engine retains; 0 keeps none.
	History int `toml:"history"`
}

// WindowConfig configures the demo host window.
type WindowConfig struct {
	Title    string `toml:"title"`
	Width    int    `toml:"width"`
	Height   int    `toml:"height"`
	Manifest string `toml:"manifest"`
}

// RendererConfig configures the GPU renderer of the demo host.
type RendererConfig struct {
	VSync bool `toml:"vsync"`
	// MSAA is the host surface sample count, 1 or 4.
	MSAA       int        `toml:"msaa"`
	Software   bool       `toml:"software"`
	MaxDraws   int        `toml:"max_draws"`
	ClearColor [4]float32 `toml:"clear_color"`
}

// HostConfig holds the host facts the demo reports to depth convention detection.
type HostConfig struct {
	Version      int  `toml:"version"`
	ReverseZ     bool `toml:"reverse_z"`
	ModernDriver bool `toml:"modern_driver"`
}

// Info returns the host facts as picking.HostInfo.
func (h HostConfig) Info() picking.HostInfo {
	return picking.HostInfo{Version: h.Version, ReverseZ: h.ReverseZ, ModernDriver: h.ModernDriver}
}

// CameraConfig places the demo orbit camera.
type CameraConfig struct {
	// Fov is the vertical field of view in degrees.
	Fov       float32    `toml:"fov"`
	Near      float32    `toml:"near"`
	Far       float32    `toml:"far"`
	Radius    float32    `toml:"radius"`
	Azimuth   float32    `toml:"azimuth"`
	Elevation float32    `toml:"elevation"`
	Target    [3]float32 `toml:"target"`
}

// Default returns the configuration used when no file is given.
//
// Returns:
//   - Config: the defaults
func Default() Config {
	return Config{
		Depth: DepthConfig{Convention: "auto"},
		Highlight: HighlightConfig{
			Enabled:   true,
			Tint:      highlight.DefaultTint.Array(),
			Intensity: 1,
		},
		Profiler: ProfilerConfig{IntervalMs: 1000},
		Dispatch: DispatchConfig{Workers: 2, QueueSize: 64, IdleTimeoutMs: 1000},
		Run:      RunConfig{FrameLimit: 0, History: tracker.DefaultHistorySize},
		Window:   WindowConfig{Title: "manipview", Width: 1280, Height: 720},
		Renderer: RendererConfig{
			VSync:      true,
			MSAA:       4,
			MaxDraws:   1024,
			ClearColor: [4]float32{0.1, 0.1, 0.1, 1},
		},
		Host:   HostConfig{Version: 12010, ModernDriver: true},
		Camera: CameraConfig{Fov: 45, Near: 0.1, Far: 100, Radius: 6, Elevation: 0.4},
	}
}

// Load reads and validates the configuration file at path. Keys missing from the file keep their defaults, and
// unknown keys are rejected.
//
// Parameters:
//   - path: the TOML file path
//
// Returns:
//   - Config: the configuration
//   - error: a read, decode or validation error
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("load config %q: %w", path, err)
	}
	cfg, err := Decode(bytes.NewReader(data))
	if err != nil {
		return Config{}, fmt.Errorf("load config %q: %w", path, err)
	}
	return cfg, nil
}

// Decode reads and validates a configuration from r on top of Default.
//
// Parameters:
//   - r: the TOML source
//
// Returns:
//   - Config: the configuration
//   - error: a decode or validation error
func Decode(r io.Reader) (Config, error) {
	cfg := Default()
	if err := toml.NewDecoder(r).DisallowUnknownFields().Decode(&cfg); err != nil {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks value ranges.
//
// Returns:
//   - error: an error wrapping ErrInvalid, or nil
func (c Config) Validate() error {
	if _, err := picking.ParseConventionPolicy(c.Depth.Convention); err != nil {
		return fmt.Errorf("%w: depth.convention: %w", ErrInvalid, err)
	}
	for i, v := range c.Highlight.Tint {
		if v < 0 || v > 1 {
			return fmt.Errorf("%w: highlight.tint[%d] = %v is outside [0, 1]", ErrInvalid, i, v)
		}
	}
	if c.Highlight.Intensity < 0 || c.Highlight.Intensity > 1 {
		return fmt.Errorf("%w: highlight.intensity = %v is outside [0, 1]", ErrInvalid, c.Highlight.Intensity)
	}
	if c.Highlight.BlinkPeriodMs < 0 {
		return fmt.Errorf("%w: highlight.blink_period_ms must not be negative", ErrInvalid)
	}
	if c.Profiler.IntervalMs < 0 {
		return fmt.Errorf("%w: profiler.interval_ms must not be negative", ErrInvalid)
	}
	if c.Dispatch.Workers < 0 || c.Dispatch.QueueSize < 0 || c.Dispatch.IdleTimeoutMs < 0 {
		return fmt.Errorf("%w: dispatch sizes must not be negative", ErrInvalid)
	}
	if c.Run.FrameLimit < 0 {
		return fmt.Errorf("%w: run.frame_limit must not be negative", ErrInvalid)
	}
	if c.Run.History < 0 {
		return fmt.Errorf("%w: run.history must not be negative", ErrInvalid)
	}
	if c.Renderer.MSAA != 1 && c.Renderer.MSAA != 4 {
		return fmt.Errorf("%w: renderer.msaa = %d must be 1 or 4", ErrInvalid, c.Renderer.MSAA)
	}
	if c.Renderer.MaxDraws < 0 {
		return fmt.Errorf("%w: renderer.max_draws must not be negative", ErrInvalid)
	}
	for i, v := range c.Renderer.ClearColor {
		if v < 0 || v > 1 {
			return fmt.Errorf("%w: renderer.clear_color[%d] = %v is outside [0, 1]", ErrInvalid, i, v)
		}
	}
	if c.Camera.Near <= 0 || c.Camera.Far <= c.Camera.Near {
		return fmt.Errorf("%w: camera planes need 0 < near < far", ErrInvalid)
	}
	if c.Camera.Fov <= 0 || c.Camera.Fov >= 180 {
		return fmt.Errorf("%w: camera.fov = %v is outside (0, 180)", ErrInvalid, c.Camera.Fov)
	}
	return nil
}

// Policy returns the configured depth convention policy.
func (c Config) Policy() picking.ConventionPolicy {
	p, _ := picking.ParseConventionPolicy(c.Depth.Convention)
	return p
}

// Tint returns the configured highlight tint.
func (c Config) Tint() common.Color {
	t := c.Highlight.Tint
	return common.Color{R: t[0], G: t[1], B: t[2], A: t[3]}
}

// ClearColor returns the configured host clear color.
func (c Config) ClearColor() common.Color {
	v := c.Renderer.ClearColor
	return common.Color{R: v[0], G: v[1], B: v[2], A: v[3]}
}

// HighlightOptions returns the highlight renderer options described by the configuration.
func (c Config) HighlightOptions() []highlight.RendererBuilderOption {
	return []highlight.RendererBuilderOption{
		highlight.WithTint(c.Tint()),
		highlight.WithIntensity(c.Highlight.Intensity),
		highlight.WithBlink(time.Duration(c.Highlight.BlinkPeriodMs) * time.Millisecond),
	}
}

// DispatcherOptions returns the dispatcher options described by the configuration.
func (c Config) DispatcherOptions(logger *log.Logger) []dispatch.DispatcherBuilderOption {
	return []dispatch.DispatcherBuilderOption{
		dispatch.WithWorkers(c.Dispatch.Workers),
		dispatch.WithQueueSize(c.Dispatch.QueueSize),
		dispatch.WithIdleTimeout(time.Duration(c.Dispatch.IdleTimeoutMs) * time.Millisecond),
		dispatch.WithSynchronous(c.Dispatch.Synchronous),
		dispatch.WithLogger(logger),
	}
}

// EngineOptions returns the engine options described by the configuration. The highlight renderer is built over
// geometry. The engine owns neither the returned dispatcher nor its pool; the caller closes it after the engine.
//
// Parameters:
//   - geometry: the interactive geometry the highlight renderer draws
//   - logger: the logger shared by the engine, profiler and dispatcher
//
// Returns:
//   - []engine.EngineBuilderOption: the options
//   - dispatch.Dispatcher: the dispatcher the options publish to
func (c Config) EngineOptions(geometry picking.Geometry, logger *log.Logger) ([]engine.EngineBuilderOption, dispatch.Dispatcher) {
	if logger == nil {
		logger = log.Default()
	}
	d := dispatch.NewDispatcher(c.DispatcherOptions(logger)...)
	p := profiler.NewProfiler(
		profiler.WithInterval(time.Duration(c.Profiler.IntervalMs)*time.Millisecond),
		profiler.WithLogger(logger),
	)
	return []engine.EngineBuilderOption{
		engine.WithLogger(logger),
		engine.WithConventionPolicy(c.Policy()),
		engine.WithHighlight(highlight.NewRenderer(geometry, c.HighlightOptions()...)),
		engine.WithHighlightEnabled(c.Highlight.Enabled),
		engine.WithProfiler(p),
		engine.WithProfiling(c.Profiler.Enabled),
		engine.WithDispatcher(d),
		engine.WithRenderFrameLimit(c.Run.FrameLimit),
		engine.WithActivationHistory(c.Run.History),
	}, d
}
