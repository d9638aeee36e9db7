package profiler

import (
	"log"
	"time"
)

// ProfilerBuilderOption is a functional option used to configure a Profiler during construction.
type ProfilerBuilderOption func(*Profiler)

// WithInterval sets how often statistics are logged. Non-positive values are ignored.
//
// Parameters:
//   - d: the logging interval
//
// Returns:
//   - ProfilerBuilderOption: a function that sets the interval
func WithInterval(d time.Duration) ProfilerBuilderOption {
	return func(p *Profiler) {
		if d > 0 {
			p.updateInterval = d
		}
	}
}

// WithLogger sets the logger statistics are written to.
//
// Parameters:
//   - l: the logger
//
// Returns:
//   - ProfilerBuilderOption: a function that sets the logger
func WithLogger(l *log.Logger) ProfilerBuilderOption {
	return func(p *Profiler) {
		if l != nil {
			p.logger = l
		}
	}
}

// WithStart sets the time the first interval is measured from.
//
// Parameters:
//   - t: the start time
//
// Returns:
//   - ProfilerBuilderOption: a function that sets the start time
func WithStart(t time.Time) ProfilerBuilderOption {
	return func(p *Profiler) {
		p.lastTime = t
	}
}

// WithMemStats sets whether heap statistics are read and logged on each interval.
//
// Parameters:
//   - enabled: true to include heap statistics
//
// Returns:
//   - ProfilerBuilderOption: a function that toggles heap statistics
func WithMemStats(enabled bool) ProfilerBuilderOption {
	return func(p *Profiler) {
		p.readMem = enabled
	}
}
