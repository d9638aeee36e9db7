package engine

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/Carmen-Shannon/oxy-pick/engine/dispatch"
	"github.com/Carmen-Shannon/oxy-pick/engine/highlight"
	"github.com/Carmen-Shannon/oxy-pick/engine/manipulator"
	"github.com/Carmen-Shannon/oxy-pick/engine/picking"
	"github.com/Carmen-Shannon/oxy-pick/engine/profiler"
	"github.com/Carmen-Shannon/oxy-pick/engine/tracker"
)

var (
	// ErrNoDevice is returned by NewEngine when no rendering device is supplied.
	ErrNoDevice = errors.New("no rendering device")

	// ErrNoGeometry is returned by NewEngine when no interactive geometry source is supplied.
	ErrNoGeometry = errors.New("no interactive geometry")

	// ErrNoScheduler is returned by Register when the scheduler is nil.
	ErrNoScheduler = errors.New("no frame scheduler")

	// ErrNoFrameSource is returned by Run when the frame source is nil.
	ErrNoFrameSource = errors.New("no frame source")

	// ErrClosed is returned when registering or running an engine after Close.
	ErrClosed = errors.New("engine closed")

	// ErrRenderPanic is returned by Run when a frame panicked.
	ErrRenderPanic = errors.New("render loop panicked")
)

// FrameScheduler is the host hook that calls a function once per rendered frame.
type FrameScheduler interface {
	// RegisterFrameCallback arranges for fn to be called once per frame on the host's render thread.
	//
	// Parameters:
	//   - fn: the per-frame callback
	//
	// Returns:
	//   - error: an error if the host refused the callback
	RegisterFrameCallback(fn func(in picking.FrameInput)) error
}

// FrameSource is a host that can be driven frame by frame, such as a window with its own render loop.
type FrameSource interface {
	// BeginFrame starts a host frame and returns the input for it. picking.ErrSkipFrame means there is nothing to
	// draw this frame; any other error stops the loop.
	//
	// Returns:
	//   - picking.FrameInput: the frame input
	//   - error: picking.ErrSkipFrame or a fatal error
	BeginFrame() (picking.FrameInput, error)

	// EndFrame submits and presents the host frame started by BeginFrame.
	EndFrame()
}

// engine implements the Engine interface.
// It owns the picking resources of one loaded scene and drives them from the host's frame callback.
type engine struct {
	mu sync.RWMutex

	catalog  *manipulator.Catalog
	device   picking.Device
	geometry picking.Geometry

	readback    *picking.Readback
	picker      picking.PickRenderer
	tracker     tracker.ClickTracker
	highlighter highlight.Renderer
	dispatcher  dispatch.Dispatcher

	ownsDispatcher   bool
	highlightEnabled bool
	policy           picking.ConventionPolicy
	convention       picking.DepthConvention

	override      manipulator.Identity
	overrideSince time.Time
	overrideSet   bool

	resolved picking.Resolution

	profiler         *profiler.Profiler
	profilingEnabled bool
	logger           *log.Logger
	clock            func() time.Time

	renderFrameLimit time.Duration

	closed      bool
	quitChannel chan struct{}
	quitOnce    sync.Once
}

// Engine is the manipulator resolution engine of one loaded scene. Frame is its per-frame callback: it completes the
// read issued on the previous frame, turns the resolved identity into activation events, issues the next pick pass
// and draws the highlight. Frame must only be called from one goroutine at a time; the query methods may be called
// from any goroutine.
type Engine interface {
	// Frame runs the picking work for one host frame. It is a no-op after Close or when the catalog is empty.
	//
	// Parameters:
	//   - in: the host's input for the frame
	Frame(in picking.FrameInput)

	// Catalog returns the catalog the engine resolves against.
	//
	// Returns:
	//   - *manipulator.Catalog: the catalog, possibly nil
	Catalog() *manipulator.Catalog

	// Resolved returns the identity most recently read back from the pick target and when it became resolved.
	//
	// Returns:
	//   - picking.Resolution: the current resolution, manipulator.Sentinel when nothing is under the cursor
	Resolved() picking.Resolution

	// Tracked returns the click tracker's current activation.
	//
	// Returns:
	//   - tracker.ActivationEvent: the current activation, with Identity manipulator.Sentinel when none
	Tracked() tracker.ActivationEvent

	// History returns the most recent activations, oldest first.
	//
	// Returns:
	//   - []tracker.ActivationEvent: the retained activations
	History() []tracker.ActivationEvent

	// Convention returns the depth convention used by the most recent frame.
	//
	// Returns:
	//   - picking.DepthConvention: the convention
	Convention() picking.DepthConvention

	// Subscribe registers h for every later activation event.
	//
	// Parameters:
	//   - h: the handler to call
	//
	// Returns:
	//   - func(): a function that removes the subscription
	Subscribe(h dispatch.Handler) func()

	// SetHighlight highlights id regardless of what the tracker resolves, until ClearHighlight is called.
	// manipulator.Sentinel suppresses highlighting.
	//
	// Parameters:
	//   - id: the manipulator to highlight
	SetHighlight(id manipulator.Identity)

	// ClearHighlight returns highlighting to following the tracker.
	ClearHighlight()

	// Stats returns a snapshot of picking statistics.
	//
	// Returns:
	//   - profiler.Stats: the statistics
	Stats() profiler.Stats

	// Register hands Frame to the host's frame scheduler.
	//
	// Parameters:
	//   - s: the host scheduler
	//
	// Returns:
	//   - error: ErrClosed after Close, ErrNoScheduler for a nil scheduler, or the scheduler's error
	Register(s FrameScheduler) error

	// Run drives Frame from src until ctx is done, Close is called, or src fails. A panic inside a frame is
	// recovered, logged and returned as an error wrapping ErrRenderPanic.
	//
	// Parameters:
	//   - ctx: cancels the loop
	//   - src: the host frame source
	//
	// Returns:
	//   - error: nil after Close, ctx.Err() after cancellation, or the failure that stopped the loop
	Run(ctx context.Context, src FrameSource) error

	// Close drops any in-flight read, releases the pick resources and stops event delivery. It is safe to call
	// more than once.
	Close()
}

var _ Engine = &engine{}

// NewEngine creates the picking engine for a loaded scene. Setup failures are returned as errors so the host never
// registers a frame callback for an engine that cannot pick.
//
// Parameters:
//   - catalog: the scene's manipulators; nil or empty means every frame is skipped
//   - device: the rendering device the passes draw through
//   - transfer: the staging transfer owning the pick target
//   - geometry: the interactive-geometry-only draw source
//   - options: functional options for logging, profiling, depth convention, highlighting and dispatch
//
// Returns:
//   - Engine: the newly created engine
//   - error: an error wrapping ErrNoDevice, ErrNoGeometry or picking.ErrNoTransfer
func NewEngine(catalog *manipulator.Catalog, device picking.Device, transfer picking.Transfer, geometry picking.Geometry, options ...EngineBuilderOption) (Engine, error) {
	if device == nil {
		return nil, fmt.Errorf("new engine: %w", ErrNoDevice)
	}
	if geometry == nil {
		return nil, fmt.Errorf("new engine: %w", ErrNoGeometry)
	}
	rb, err := picking.NewReadback(transfer)
	if err != nil {
		return nil, fmt.Errorf("new engine: %w", err)
	}

	e := &engine{
		catalog:          catalog,
		device:           device,
		geometry:         geometry,
		readback:         rb,
		picker:           picking.NewPickRenderer(geometry),
		tracker:          tracker.NewClickTracker(),
		highlightEnabled: true,
		policy:           picking.ConventionAuto,
		override:         manipulator.Sentinel,
		resolved:         rb.Resolved(),
		logger:           log.Default(),
		clock:            time.Now,
		quitChannel:      make(chan struct{}),
	}

	for _, opt := range options {
		opt(e)
	}

	if e.profiler == nil {
		e.profiler = profiler.NewProfiler(profiler.WithLogger(e.logger))
	}
	if e.highlighter == nil {
		e.highlighter = highlight.NewRenderer(geometry)
	}
	if e.dispatcher == nil {
		e.dispatcher = dispatch.NewDispatcher(dispatch.WithLogger(e.logger))
		e.ownsDispatcher = true
	}
	return e, nil
}

func (e *engine) Frame(in picking.FrameInput) {
	events := e.frame(in)
	// Delivered outside the lock so subscribers may query the engine.
	for _, ev := range events {
		e.dispatcher.Publish(ev)
	}
}

func (e *engine) frame(in picking.FrameInput) []tracker.ActivationEvent {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.closed || e.catalog.Len() == 0 {
		return nil
	}
	if in.Now.IsZero() {
		in.Now = e.clock()
	}
	e.profiler.RecordFrame()
	conv := e.policy.Resolve(in.Host)
	e.convention = conv

	// Picking is suspended while the cursor is outside the viewport: an in-flight read stays pending until it returns.
	var events []tracker.ActivationEvent
	if in.CursorInside() {
		events = e.resolve(in.Now)
		e.pick(in, conv)
	} else {
		e.profiler.RecordOffscreen()
	}
	e.highlight(in, conv)

	if e.profilingEnabled {
		e.profiler.Tick(in.Now)
	}
	return events
}

// resolve collects the read issued on an earlier frame and feeds the resolved identity to the tracker.
func (e *engine) resolve(now time.Time) []tracker.ActivationEvent {
	done, err := e.readback.Collect(now)
	if err != nil {
		e.logger.Printf("[Picking] %v", err)
		e.profiler.RecordError()
	}
	if done {
		e.profiler.RecordResolved(e.readback.Latency())
	}
	e.resolved = e.readback.Resolved()
	ev, ok := e.tracker.Observe(e.resolved.Identity, e.resolved.Since)
	if !ok {
		return nil
	}
	e.profiler.RecordActivation()
	return []tracker.ActivationEvent{ev}
}

// pick issues the pick pass and its readback unless a read is still in flight.
func (e *engine) pick(in picking.FrameInput, conv picking.DepthConvention) {
	if e.readback.Pending() {
		e.profiler.RecordBackpressure()
		return
	}
	if _, err := e.picker.Render(e.device, e.readback.Target(), in, conv); err != nil {
		e.logger.Printf("[Picking] %v", err)
		e.profiler.RecordError()
		return
	}
	issued, err := e.readback.Issue(in.Now)
	if err != nil {
		e.logger.Printf("[Picking] %v", err)
		e.profiler.RecordError()
		return
	}
	if issued {
		e.profiler.RecordIssued()
	}
}

// highlight draws the override if one is set, otherwise the tracked manipulator if it is actionable.
func (e *engine) highlight(in picking.FrameInput, conv picking.DepthConvention) {
	if !e.highlightEnabled {
		return
	}
	id, since := e.tracker.Current()
	if e.overrideSet {
		id, since = e.override, e.overrideSince
	} else if !e.catalog.Actionable(id) {
		return
	}
	if !e.catalog.Contains(id) {
		return
	}
	if _, err := e.highlighter.Render(e.device, in, conv, id, since); err != nil {
		e.logger.Printf("[Highlight] %v", err)
		e.profiler.RecordError()
	}
}

func (e *engine) Catalog() *manipulator.Catalog {
	return e.catalog
}

func (e *engine) Resolved() picking.Resolution {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.resolved
}

func (e *engine) Tracked() tracker.ActivationEvent {
	e.mu.RLock()
	defer e.mu.RUnlock()
	id, start := e.tracker.Current()
	return tracker.ActivationEvent{Identity: id, Start: start}
}

func (e *engine) History() []tracker.ActivationEvent {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.tracker.History()
}

func (e *engine) Convention() picking.DepthConvention {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.convention
}

func (e *engine) Subscribe(h dispatch.Handler) func() {
	return e.dispatcher.Subscribe(h)
}

func (e *engine) SetHighlight(id manipulator.Identity) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.override = id
	e.overrideSince = e.clock()
	e.overrideSet = true
}

func (e *engine) ClearHighlight() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.override = manipulator.Sentinel
	e.overrideSince = time.Time{}
	e.overrideSet = false
}

func (e *engine) Stats() profiler.Stats {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.profiler.Snapshot()
}

func (e *engine) Register(s FrameScheduler) error {
	e.mu.RLock()
	closed := e.closed
	e.mu.RUnlock()
	if closed {
		return ErrClosed
	}
	if s == nil {
		return ErrNoScheduler
	}
	if err := s.RegisterFrameCallback(e.Frame); err != nil {
		return fmt.Errorf("register frame callback: %w", err)
	}
	return nil
}

func (e *engine) Run(ctx context.Context, src FrameSource) (err error) {
	if src == nil {
		return ErrNoFrameSource
	}
	e.mu.RLock()
	closed := e.closed
	e.mu.RUnlock()
	if closed {
		return ErrClosed
	}

	// Recover from panics inside a frame so a bad frame does not take the host process down with it.
	defer func() {
		if r := recover(); r != nil {
			e.logger.Printf("[Engine] render loop recovered from panic: %v", r)
			err = fmt.Errorf("%w: %v", ErrRenderPanic, r)
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-e.quitChannel:
			return nil
		default:
		}

		frameStart := time.Now()
		in, frameErr := src.BeginFrame()
		switch {
		case errors.Is(frameErr, picking.ErrSkipFrame):
		case frameErr != nil:
			return fmt.Errorf("begin frame: %w", frameErr)
		default:
			e.Frame(in)
			src.EndFrame()
		}

		// Frame rate limiting
		if e.renderFrameLimit > 0 {
			if remaining := e.renderFrameLimit - time.Since(frameStart); remaining > 0 {
				select {
				case <-ctx.Done():
				case <-e.quitChannel:
				case <-time.After(remaining):
				}
			}
		}
	}
}

func (e *engine) Close() {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return
	}
	e.closed = true
	e.quitOnce.Do(func() {
		close(e.quitChannel)
	})
	e.readback.Release()
	e.mu.Unlock()

	if e.ownsDispatcher {
		e.dispatcher.Close()
	}
}
