package engine

import (
	"context"
	"errors"
	"io"
	"log"
	"sync"
	"testing"
	"time"

	"github.com/Carmen-Shannon/oxy-pick/common"
	"github.com/Carmen-Shannon/oxy-pick/engine/dispatch"
	"github.com/Carmen-Shannon/oxy-pick/engine/manipulator"
	"github.com/Carmen-Shannon/oxy-pick/engine/picking"
	"github.com/Carmen-Shannon/oxy-pick/engine/picking/pickingtest"
	"github.com/Carmen-Shannon/oxy-pick/engine/tracker"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	base       = time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	viewport   = common.Viewport{Width: 800, Height: 600}
	hostTarget = pickingtest.Target("host")
	onScreen   = common.Point{X: 400, Y: 300}
	offScreen  = common.Point{X: 900, Y: 300}
)

func frameAt(i int) time.Time {
	return base.Add(time.Duration(i) * 16 * time.Millisecond)
}

func input(i int, cursor common.Point, host picking.HostInfo) picking.FrameInput {
	return picking.FrameInput{
		Cursor:     cursor,
		Viewport:   viewport,
		View:       mgl32.Ident4(),
		Projection: mgl32.Ident4(),
		Host:       host,
		Target:     hostTarget,
		Now:        frameAt(i),
	}
}

// testCatalog is an AxisKnob at 0, a Toggle at 1 and a NoOp at 2.
func testCatalog(t *testing.T) *manipulator.Catalog {
	t.Helper()
	c, err := manipulator.NewCatalog([]manipulator.Descriptor{
		{Identity: 0, Kind: manipulator.KindAxisKnob, Binding: manipulator.AxisKnob{Dataref: manipulator.NamedDataref("sim/knob"), Min: 0, Max: 10, ClickDelta: 1}},
		{Identity: 1, Kind: manipulator.KindToggle, Binding: manipulator.Toggle{On: 1, Off: 0, Dataref: manipulator.NamedDataref("sim/switch")}},
		{Identity: 2, Kind: manipulator.KindNoOp},
	}, manipulator.WithScene("panel"))
	require.NoError(t, err)
	return c
}

type harness struct {
	engine   Engine
	device   *pickingtest.Device
	transfer *pickingtest.Transfer
	mu       sync.Mutex
	events   []tracker.ActivationEvent
}

func newHarness(t *testing.T, readyAfter int, hostConv picking.DepthConvention, opts ...EngineBuilderOption) *harness {
	t.Helper()
	h := &harness{
		device:   pickingtest.NewDevice(pickingtest.HostState(hostTarget, viewport, hostConv)),
		transfer: pickingtest.NewTransfer(pickingtest.Target("pick"), readyAfter),
	}
	d := dispatch.NewDispatcher(dispatch.WithSynchronous(true))
	t.Cleanup(d.Close)

	opts = append([]EngineBuilderOption{
		WithDispatcher(d),
		WithLogger(log.New(io.Discard, "", 0)),
	}, opts...)
	e, err := NewEngine(testCatalog(t), h.device, h.transfer, pickingtest.NewGeometry(3), opts...)
	require.NoError(t, err)
	t.Cleanup(e.Close)
	h.engine = e
	e.Subscribe(func(ev tracker.ActivationEvent) {
		h.mu.Lock()
		h.events = append(h.events, ev)
		h.mu.Unlock()
	})
	return h
}

func (h *harness) Events() []tracker.ActivationEvent {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]tracker.ActivationEvent(nil), h.events...)
}

func (h *harness) pickDraws() []pickingtest.Draw {
	var out []pickingtest.Draw
	for _, d := range h.device.Draws() {
		if d.Fill.Mode == picking.FillIdentity {
			out = append(out, d)
		}
	}
	return out
}

func (h *harness) highlightDraws() []pickingtest.Draw {
	var out []pickingtest.Draw
	for _, d := range h.device.Draws() {
		if d.Fill.Mode == picking.FillTint {
			out = append(out, d)
		}
	}
	return out
}

func TestNewEngineSetupFailures(t *testing.T) {
	catalog := testCatalog(t)
	dev := pickingtest.NewDevice(picking.PassState{})
	geom := pickingtest.NewGeometry(3)
	tr := pickingtest.NewTransfer(pickingtest.Target("pick"), 0)

	_, err := NewEngine(catalog, nil, tr, geom)
	assert.ErrorIs(t, err, ErrNoDevice)

	_, err = NewEngine(catalog, dev, tr, nil)
	assert.ErrorIs(t, err, ErrNoGeometry)

	_, err = NewEngine(catalog, dev, nil, geom)
	assert.ErrorIs(t, err, picking.ErrNoTransfer)

	_, err = NewEngine(catalog, dev, pickingtest.NewTransfer(nil, 0), geom)
	assert.ErrorIs(t, err, picking.ErrNoTransfer)
}

// Cursor over manipulator 1 for frames 1-5, then over empty space for frames 6-10. The pixel read on frame N is
// the one rendered on frame N-1.
func TestHoverThenLeaveScenario(t *testing.T) {
	h := newHarness(t, 0, picking.DepthStandard)

	for i := 1; i <= 10; i++ {
		if i <= 5 {
			h.transfer.SetPixel(picking.Encode(1))
		} else {
			h.transfer.SetPixel(picking.SentinelColor)
		}
		h.engine.Frame(input(i, onScreen, picking.HostInfo{}))

		switch {
		case i == 1:
			assert.True(t, h.engine.Resolved().Identity.IsNone(), "frame 1 has nothing to collect")
		case i <= 6:
			assert.Equal(t, manipulator.Identity(1), h.engine.Resolved().Identity, "frame %d", i)
		default:
			assert.True(t, h.engine.Resolved().Identity.IsNone(), "frame %d", i)
		}
	}

	assert.Equal(t, []tracker.ActivationEvent{{Identity: 1, Start: frameAt(2)}}, h.Events())
	assert.Equal(t, picking.Resolution{Identity: manipulator.Sentinel, Since: frameAt(7)}, h.engine.Resolved())
	assert.True(t, h.engine.Tracked().Identity.IsNone())

	stats := h.engine.Stats()
	assert.Equal(t, uint64(10), stats.Frames)
	assert.Equal(t, uint64(10), stats.Issued)
	assert.Equal(t, uint64(9), stats.Resolved)
	assert.Equal(t, uint64(1), stats.Activations)
	assert.Equal(t, 16*time.Millisecond, stats.MeanLatency)
}

func TestOffscreenCursorKeepsResolved(t *testing.T) {
	h := newHarness(t, 0, picking.DepthStandard)

	h.transfer.SetPixel(picking.Encode(0))
	h.engine.Frame(input(1, onScreen, picking.HostInfo{}))
	h.engine.Frame(input(2, onScreen, picking.HostInfo{}))
	require.Equal(t, manipulator.Identity(0), h.engine.Resolved().Identity)
	before := h.engine.Resolved()

	// The read issued on frame 2 stays pending and nothing new is issued while off-screen.
	h.transfer.SetPixel(picking.SentinelColor)
	for i := 3; i <= 8; i++ {
		h.engine.Frame(input(i, offScreen, picking.HostInfo{}))
		assert.Equal(t, before, h.engine.Resolved(), "frame %d", i)
	}
	assert.Equal(t, 2, h.transfer.Copies())
	assert.Equal(t, 1, h.transfer.Reads())
	assert.Equal(t, uint64(6), h.engine.Stats().Offscreen)
	assert.Len(t, h.Events(), 1)
}

func TestOffscreenFrameLeavesInFlightReadPending(t *testing.T) {
	h := newHarness(t, 0, picking.DepthStandard)

	h.transfer.SetPixel(picking.Encode(1))
	h.engine.Frame(input(1, onScreen, picking.HostInfo{}))
	before := h.engine.Resolved()
	require.True(t, before.Identity.IsNone())

	// The read issued on frame 1 already holds identity 1, but the cursor has left.
	for i := 2; i <= 4; i++ {
		h.engine.Frame(input(i, offScreen, picking.HostInfo{}))
		assert.Equal(t, before, h.engine.Resolved(), "frame %d", i)
		assert.True(t, h.engine.Tracked().Identity.IsNone(), "frame %d", i)
	}
	assert.Empty(t, h.Events())
	assert.Zero(t, h.transfer.Reads())
	assert.Equal(t, 1, h.transfer.Copies())
	assert.Equal(t, uint64(3), h.engine.Stats().Offscreen)

	h.engine.Frame(input(5, onScreen, picking.HostInfo{}))
	assert.Equal(t, picking.Resolution{Identity: 1, Since: frameAt(5)}, h.engine.Resolved())
	assert.Equal(t, []tracker.ActivationEvent{{Identity: 1, Start: frameAt(5)}}, h.Events())
	assert.Equal(t, 2, h.transfer.Copies())
}

func TestActivationHistory(t *testing.T) {
	h := newHarness(t, 0, picking.DepthStandard, WithActivationHistory(2))

	// Each pixel is resolved one frame after it is set.
	pixels := []uint16{picking.Encode(0), picking.Encode(0), picking.Encode(1), picking.SentinelColor, picking.Encode(0), picking.Encode(0)}
	for i, px := range pixels {
		h.transfer.SetPixel(px)
		h.engine.Frame(input(i+1, onScreen, picking.HostInfo{}))
	}

	assert.Len(t, h.Events(), 3)
	assert.Equal(t, []tracker.ActivationEvent{
		{Identity: 1, Start: frameAt(4)},
		{Identity: 0, Start: frameAt(6)},
	}, h.engine.History())
}

func TestStalledGPUNeverIssuesASecondRead(t *testing.T) {
	h := newHarness(t, pickingtest.Never, picking.DepthStandard)

	for i := 1; i <= 20; i++ {
		h.engine.Frame(input(i, onScreen, picking.HostInfo{}))
	}
	assert.Equal(t, 1, h.transfer.Copies())
	assert.Equal(t, 1, h.transfer.MaxInFlight())
	assert.Equal(t, uint64(19), h.engine.Stats().Backpressure)
	assert.True(t, h.engine.Resolved().Identity.IsNone())
	assert.Len(t, h.pickDraws(), 3, "one pick pass of three meshes")
}

func TestIrregularTicksKeepOneReadInFlight(t *testing.T) {
	h := newHarness(t, 3, picking.DepthStandard)

	// Bursty frame times, including repeated timestamps.
	times := []int{1, 1, 2, 9, 9, 10, 40, 41, 41, 100, 101, 102, 103}
	for _, i := range times {
		h.engine.Frame(input(i, onScreen, picking.HostInfo{}))
		assert.LessOrEqual(t, h.transfer.Copies()-h.transfer.Reads(), 1)
	}
	assert.Equal(t, 1, h.transfer.MaxInFlight())
}

func TestPickPassFollowsDepthConventionAndRestores(t *testing.T) {
	tests := []struct {
		name      string
		host      picking.HostInfo
		hostConv  picking.DepthConvention
		wantDepth float32
		wantCmp   picking.CompareFunction
	}{
		{"reversed", picking.HostInfo{Version: 12000, ModernDriver: true}, picking.DepthStandard, 0, picking.CompareGreater},
		{"standard", picking.HostInfo{Version: 11500}, picking.DepthReversed, 1, picking.CompareLess},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t, 0, tt.hostConv, WithHighlightEnabled(false))
			before := h.device.PassState()

			h.engine.Frame(input(1, onScreen, tt.host))

			clears := h.device.Clears()
			require.Len(t, clears, 1)
			assert.Equal(t, tt.wantDepth, clears[0].Depth)
			assert.Equal(t, tt.wantCmp, clears[0].State.DepthCompare)
			assert.Equal(t, before, h.device.PassState())
		})
	}
}

func TestForcedConventionOverridesHost(t *testing.T) {
	h := newHarness(t, 0, picking.DepthStandard, WithConventionPolicy(picking.ConventionForceStandard))
	h.engine.Frame(input(1, onScreen, picking.HostInfo{ReverseZ: true}))

	assert.Equal(t, picking.DepthStandard, h.engine.Convention())
	require.Len(t, h.device.Clears(), 1)
	assert.Equal(t, float32(1), h.device.Clears()[0].Depth)
}

func TestHighlightFollowsActionableTracked(t *testing.T) {
	h := newHarness(t, 0, picking.DepthStandard)

	h.transfer.SetPixel(picking.Encode(0))
	h.engine.Frame(input(1, onScreen, picking.HostInfo{}))
	assert.Empty(t, h.highlightDraws())

	h.transfer.SetPixel(picking.Encode(2))
	h.engine.Frame(input(2, onScreen, picking.HostInfo{}))
	draws := h.highlightDraws()
	require.Len(t, draws, 1)
	assert.Equal(t, pickingtest.Mesh{ID: 0}, draws[0].Mesh)

	// Identity 2 is a NoOp: resolved and tracked, but never highlighted.
	h.device.Reset()
	h.engine.Frame(input(3, onScreen, picking.HostInfo{}))
	assert.Equal(t, manipulator.Identity(2), h.engine.Tracked().Identity)
	assert.Empty(t, h.highlightDraws())
	assert.Len(t, h.Events(), 2, "NoOp manipulators still activate")
}

func TestHighlightOverride(t *testing.T) {
	h := newHarness(t, pickingtest.Never, picking.DepthStandard)

	h.engine.SetHighlight(2)
	h.engine.Frame(input(1, onScreen, picking.HostInfo{}))
	draws := h.highlightDraws()
	require.Len(t, draws, 1)
	assert.Equal(t, pickingtest.Mesh{ID: 2}, draws[0].Mesh)

	h.device.Reset()
	h.engine.SetHighlight(manipulator.Sentinel)
	h.engine.Frame(input(2, onScreen, picking.HostInfo{}))
	assert.Empty(t, h.highlightDraws())

	h.device.Reset()
	h.engine.ClearHighlight()
	h.engine.Frame(input(3, onScreen, picking.HostInfo{}))
	assert.Empty(t, h.highlightDraws())
}

func TestEmptyCatalogSkipsFrames(t *testing.T) {
	dev := pickingtest.NewDevice(picking.PassState{Target: hostTarget})
	tr := pickingtest.NewTransfer(pickingtest.Target("pick"), 0)
	e, err := NewEngine(nil, dev, tr, pickingtest.NewGeometry(0), WithLogger(log.New(io.Discard, "", 0)))
	require.NoError(t, err)
	defer e.Close()

	e.Frame(input(1, onScreen, picking.HostInfo{}))
	assert.Zero(t, tr.Copies())
	assert.Empty(t, dev.Sets())
	assert.Zero(t, e.Stats().Frames)
}

func TestTransientErrorsAreSkipped(t *testing.T) {
	h := newHarness(t, 0, picking.DepthStandard)

	h.transfer.FailCopy(errors.New("encoder lost"))
	h.engine.Frame(input(1, onScreen, picking.HostInfo{}))
	assert.Zero(t, h.transfer.Copies())

	h.transfer.FailCopy(nil)
	h.transfer.SetPixel(picking.Encode(1))
	h.engine.Frame(input(2, onScreen, picking.HostInfo{}))
	h.transfer.FailRead(errors.New("map failed"))
	h.engine.Frame(input(3, onScreen, picking.HostInfo{}))
	assert.True(t, h.engine.Resolved().Identity.IsNone())

	h.transfer.FailRead(nil)
	h.engine.Frame(input(4, onScreen, picking.HostInfo{}))
	h.engine.Frame(input(5, onScreen, picking.HostInfo{}))
	assert.Equal(t, manipulator.Identity(1), h.engine.Resolved().Identity)
	assert.Equal(t, uint64(2), h.engine.Stats().Errors)
}

func TestSubscriberMayQueryEngine(t *testing.T) {
	h := newHarness(t, 0, picking.DepthStandard)

	var seen manipulator.Identity = manipulator.Sentinel
	h.engine.Subscribe(func(ev tracker.ActivationEvent) {
		seen = h.engine.Resolved().Identity
	})
	h.transfer.SetPixel(picking.Encode(1))
	h.engine.Frame(input(1, onScreen, picking.HostInfo{}))
	h.engine.Frame(input(2, onScreen, picking.HostInfo{}))
	assert.Equal(t, manipulator.Identity(1), seen)
}

type fakeScheduler struct {
	fn  func(picking.FrameInput)
	err error
}

func (s *fakeScheduler) RegisterFrameCallback(fn func(picking.FrameInput)) error {
	if s.err != nil {
		return s.err
	}
	s.fn = fn
	return nil
}

func TestRegisterAndClose(t *testing.T) {
	h := newHarness(t, 0, picking.DepthStandard)

	assert.ErrorIs(t, h.engine.Register(nil), ErrNoScheduler)

	refused := errors.New("refused")
	assert.ErrorIs(t, h.engine.Register(&fakeScheduler{err: refused}), refused)

	s := &fakeScheduler{}
	require.NoError(t, h.engine.Register(s))
	require.NotNil(t, s.fn)
	s.fn(input(1, onScreen, picking.HostInfo{}))
	assert.Equal(t, 1, h.transfer.Copies())

	h.engine.Close()
	h.engine.Close()
	assert.True(t, h.transfer.Released())
	s.fn(input(2, onScreen, picking.HostInfo{}))
	assert.Equal(t, 1, h.transfer.Copies(), "frames after Close are ignored")
	assert.ErrorIs(t, h.engine.Register(&fakeScheduler{}), ErrClosed)
	assert.ErrorIs(t, h.engine.Run(context.Background(), &fakeSource{}), ErrClosed)
}

type fakeSource struct {
	frames  int
	ended   int
	skipAt  int
	failAt  int
	panicAt int
	onFrame func(n int)
}

func (s *fakeSource) BeginFrame() (picking.FrameInput, error) {
	s.frames++
	if s.onFrame != nil {
		s.onFrame(s.frames)
	}
	switch s.frames {
	case s.skipAt:
		return picking.FrameInput{}, picking.ErrSkipFrame
	case s.failAt:
		return picking.FrameInput{}, errors.New("surface lost")
	case s.panicAt:
		panic("device removed")
	}
	return input(s.frames, onScreen, picking.HostInfo{}), nil
}

func (s *fakeSource) EndFrame() {
	s.ended++
}

func TestRunUntilCancelled(t *testing.T) {
	h := newHarness(t, 0, picking.DepthStandard)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	src := &fakeSource{skipAt: 2, onFrame: func(n int) {
		if n == 5 {
			cancel()
		}
	}}
	err := h.engine.Run(ctx, src)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 5, src.frames)
	assert.Equal(t, 4, src.ended, "skipped frames are not ended")
}

func TestRunStopsOnSourceFailure(t *testing.T) {
	h := newHarness(t, 0, picking.DepthStandard)
	err := h.engine.Run(context.Background(), &fakeSource{failAt: 3})
	assert.ErrorContains(t, err, "surface lost")
}

func TestRunRecoversPanic(t *testing.T) {
	h := newHarness(t, 0, picking.DepthStandard)
	err := h.engine.Run(context.Background(), &fakeSource{panicAt: 2})
	assert.ErrorIs(t, err, ErrRenderPanic)
}

func TestRunStopsOnClose(t *testing.T) {
	h := newHarness(t, 0, picking.DepthStandard, WithRenderFrameLimit(1000))
	src := &fakeSource{}
	src.onFrame = func(n int) {
		if n == 3 {
			go h.engine.Close()
		}
	}
	done := make(chan error, 1)
	go func() { done <- h.engine.Run(context.Background(), src) }()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not return after Close")
	}
}

func TestRunRequiresSource(t *testing.T) {
	h := newHarness(t, 0, picking.DepthStandard)
	assert.ErrorIs(t, h.engine.Run(context.Background(), nil), ErrNoFrameSource)
}
