package profiler

import (
	"log"
	"runtime"
	"time"
)

// Stats is a snapshot of picking activity since the profiler was created.
type Stats struct {
	// Frames is the number of frames the engine processed.
	Frames uint64
	// Issued is the number of pick reads scheduled.
	Issued uint64
	// Resolved is the number of pick reads collected.
	Resolved uint64
	// Backpressure is the number of frames a pick was skipped because a read was still pending.
	Backpressure uint64
	// Offscreen is the number of frames a pick was skipped because the cursor was outside the viewport.
	Offscreen uint64
	// Activations is the number of activation events published.
	Activations uint64
	// Errors is the number of transient frame errors (failed copies, failed maps, pass state failures).
	Errors uint64
	// MeanLatency is the mean time between issuing and collecting a read.
	MeanLatency time.Duration
}

// Profiler counts picking activity and periodically logs it together with frame rate and heap statistics.
// It is driven from the frame thread only.
type Profiler struct {
	stats          Stats
	latencyTotal   time.Duration
	frameCount     int
	lastTime       time.Time
	lastIssued     uint64
	lastResolved   uint64
	updateInterval time.Duration
	memStats       runtime.MemStats
	lastGCCount    uint32
	logger         *log.Logger
	readMem        bool
}

// NewProfiler creates a new Profiler. The update interval defaults to 1 second.
//
// Parameters:
//   - opts: optional interval, logger and memory statistics configuration
//
// Returns:
//   - *Profiler: the newly created profiler instance
func NewProfiler(opts ...ProfilerBuilderOption) *Profiler {
	p := &Profiler{
		lastTime:       time.Now(),
		updateInterval: time.Second,
		logger:         log.Default(),
		readMem:        true,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// RecordFrame counts a processed frame.
func (p *Profiler) RecordFrame() { p.stats.Frames++ }

// RecordIssued counts a scheduled read.
func (p *Profiler) RecordIssued() { p.stats.Issued++ }

// RecordResolved counts a collected read and its latency.
func (p *Profiler) RecordResolved(latency time.Duration) {
	p.stats.Resolved++
	p.latencyTotal += latency
	p.stats.MeanLatency = p.latencyTotal / time.Duration(p.stats.Resolved)
}

// RecordBackpressure counts a pick skipped because a read was pending.
func (p *Profiler) RecordBackpressure() { p.stats.Backpressure++ }

// RecordOffscreen counts a pick skipped because the cursor was outside the viewport.
func (p *Profiler) RecordOffscreen() { p.stats.Offscreen++ }

// RecordActivation counts a published activation event.
func (p *Profiler) RecordActivation() { p.stats.Activations++ }

// RecordError counts a transient frame error.
func (p *Profiler) RecordError() { p.stats.Errors++ }

// Snapshot returns the current statistics.
func (p *Profiler) Snapshot() Stats {
	return p.stats
}

// Tick should be called once per frame. It logs statistics when the update interval has elapsed since the last log.
//
// Parameters:
//   - now: the frame timestamp
//
// Returns:
//   - bool: true if stats were logged this tick, false otherwise
func (p *Profiler) Tick(now time.Time) bool {
	p.frameCount++
	elapsed := now.Sub(p.lastTime)
	if elapsed < p.updateInterval || elapsed <= 0 {
		return false
	}

	fps := float64(p.frameCount) / elapsed.Seconds()
	issued := p.stats.Issued - p.lastIssued
	resolved := p.stats.Resolved - p.lastResolved

	if p.readMem {
		runtime.ReadMemStats(&p.memStats)
		allocMB := float64(p.memStats.Alloc) / 1024 / 1024
		gcCount := p.memStats.NumGC
		p.logger.Printf("[Profiler] FPS: %.2f | Picks: %d issued, %d resolved | Latency: %s | Skipped: %d pending, %d offscreen | Errors: %d | Heap: %.2f MB | GC: %d",
			fps, issued, resolved, p.stats.MeanLatency, p.stats.Backpressure, p.stats.Offscreen, p.stats.Errors, allocMB, gcCount-p.lastGCCount)
		p.lastGCCount = gcCount
	} else {
		p.logger.Printf("[Profiler] FPS: %.2f | Picks: %d issued, %d resolved | Latency: %s | Skipped: %d pending, %d offscreen | Errors: %d",
			fps, issued, resolved, p.stats.MeanLatency, p.stats.Backpressure, p.stats.Offscreen, p.stats.Errors)
	}

	p.frameCount = 0
	p.lastTime = now
	p.lastIssued = p.stats.Issued
	p.lastResolved = p.stats.Resolved
	return true
}
