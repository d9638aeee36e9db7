// Package pickingtest provides tracking fakes of the picking seams for tests that run without a GPU.
package pickingtest

import (
	"fmt"
	"sync"

	"github.com/Carmen-Shannon/oxy-pick/common"
	"github.com/Carmen-Shannon/oxy-pick/engine/manipulator"
	"github.com/Carmen-Shannon/oxy-pick/engine/picking"
	"github.com/go-gl/mathgl/mgl32"
)

// Target is a named render target.
type Target string

func (t Target) Label() string { return string(t) }

// Mesh is the geometry of one manipulator.
type Mesh struct {
	ID manipulator.Identity
}

func (m Mesh) Label() string { return fmt.Sprintf("mesh-%d", m.ID) }

// Clear records a ClearPick call and the state it was issued under.
type Clear struct {
	Color uint16
	Depth float32
	State picking.PassState
}

// Draw records a DrawMesh call and the state it was issued under.
type Draw struct {
	Mesh  picking.Mesh
	Fill  picking.Fill
	State picking.PassState
}

// HostState returns a typical host pass state drawing into target under conv.
func HostState(target picking.Target, vp common.Viewport, conv picking.DepthConvention) picking.PassState {
	return picking.PassState{
		Target:       target,
		Viewport:     vp,
		Transform:    mgl32.Ident4(),
		DepthTest:    true,
		DepthWrite:   true,
		DepthCompare: conv.Compare(),
		ClearDepth:   conv.FarDepth(),
	}
}

// Device is a tracking picking.Device.
type Device struct {
	mu       sync.Mutex
	state    picking.PassState
	sets     []picking.PassState
	clears   []Clear
	draws    []Draw
	attempts []picking.PassState
	failSet  error
	failNext error
}

var _ picking.Device = &Device{}

// NewDevice creates a Device whose current state is initial.
func NewDevice(initial picking.PassState) *Device {
	return &Device{state: initial}
}

// FailSetPassState makes every later SetPassState call return err. A nil err clears the failure.
func (d *Device) FailSetPassState(err error) {
	d.mu.Lock()
	d.failSet = err
	d.mu.Unlock()
}

// FailNextSetPassState makes only the next SetPassState call return err. That call still applies its state, leaving
// the device half-configured.
func (d *Device) FailNextSetPassState(err error) {
	d.mu.Lock()
	d.failNext = err
	d.mu.Unlock()
}

func (d *Device) PassState() picking.PassState {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.state
}

func (d *Device) SetPassState(s picking.PassState) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.attempts = append(d.attempts, s)
	if d.failSet != nil {
		return d.failSet
	}
	if err := d.failNext; err != nil {
		d.failNext = nil
		d.state = s
		return err
	}
	d.state = s
	d.sets = append(d.sets, s)
	return nil
}

func (d *Device) ClearPick(color uint16, depth float32) {
	d.mu.Lock()
	d.clears = append(d.clears, Clear{Color: color, Depth: depth, State: d.state})
	d.mu.Unlock()
}

func (d *Device) DrawMesh(mesh picking.Mesh, fill picking.Fill) {
	d.mu.Lock()
	d.draws = append(d.draws, Draw{Mesh: mesh, Fill: fill, State: d.state})
	d.mu.Unlock()
}

// Sets returns every state passed to SetPassState, in order.
func (d *Device) Sets() []picking.PassState {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]picking.PassState(nil), d.sets...)
}

// Attempts returns every state passed to SetPassState, in order, including calls that failed.
func (d *Device) Attempts() []picking.PassState {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]picking.PassState(nil), d.attempts...)
}

// Clears returns every ClearPick call, in order.
func (d *Device) Clears() []Clear {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]Clear(nil), d.clears...)
}

// Draws returns every DrawMesh call, in order.
func (d *Device) Draws() []Draw {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]Draw(nil), d.draws...)
}

// Reset forgets recorded calls but keeps the current state.
func (d *Device) Reset() {
	d.mu.Lock()
	d.sets, d.clears, d.draws, d.attempts = nil, nil, nil, nil
	d.mu.Unlock()
}

// Geometry is a picking.Geometry with one Mesh per identity 0..n-1, plus optional occluders.
type Geometry struct {
	n         int
	occluders int
}

var _ picking.Geometry = Geometry{}

// NewGeometry creates a Geometry for a catalog of n manipulators.
func NewGeometry(n int) Geometry {
	return Geometry{n: n}
}

// WithOccluders returns a copy of g that also enumerates k occluders for AllManipulators.
func (g Geometry) WithOccluders(k int) Geometry {
	g.occluders = k
	return g
}

func (g Geometry) Meshes(sel picking.Selection, fn func(manipulator.Identity, picking.Mesh)) {
	for i := 0; i < g.n; i++ {
		id := manipulator.Identity(i)
		if sel.Includes(id) {
			fn(id, Mesh{ID: id})
		}
	}
	if !sel.All() {
		return
	}
	for i := 0; i < g.occluders; i++ {
		fn(manipulator.Sentinel, Occluder(i))
	}
}

// Occluder is a non-interactive mesh.
type Occluder int

func (o Occluder) Label() string { return fmt.Sprintf("occluder-%d", int(o)) }

// Never is passed as readyAfter to make a Transfer that never completes.
const Never = -1

// Transfer is a tracking picking.Transfer. The pixel value is latched when the copy is scheduled, and the copy
// completes once TryRead has been called readyAfter times since then.
type Transfer struct {
	mu         sync.Mutex
	target     picking.Target
	readyAfter int
	pixel      uint16
	latched    uint16
	inFlight   bool
	polls      int
	copies     int
	reads      int
	maxFlight  int
	copyErr    error
	readErr    error
	released   bool
}

var _ picking.Transfer = &Transfer{}

// NewTransfer creates a Transfer owning target. A readyAfter of 0 completes on the first TryRead; Never never
// completes.
func NewTransfer(target picking.Target, readyAfter int) *Transfer {
	return &Transfer{target: target, readyAfter: readyAfter, pixel: picking.SentinelColor}
}

// SetPixel sets the value the pick target holds at the next CopyPixel.
func (t *Transfer) SetPixel(v uint16) {
	t.mu.Lock()
	t.pixel = v
	t.mu.Unlock()
}

// SetReadyAfter changes how many TryRead calls a copy needs before completing.
func (t *Transfer) SetReadyAfter(n int) {
	t.mu.Lock()
	t.readyAfter = n
	t.mu.Unlock()
}

// FailCopy makes CopyPixel return err until cleared with nil.
func (t *Transfer) FailCopy(err error) {
	t.mu.Lock()
	t.copyErr = err
	t.mu.Unlock()
}

// FailRead makes TryRead return err until cleared with nil.
func (t *Transfer) FailRead(err error) {
	t.mu.Lock()
	t.readErr = err
	t.mu.Unlock()
}

func (t *Transfer) Target() picking.Target {
	return t.target
}

func (t *Transfer) CopyPixel() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.copyErr != nil {
		return t.copyErr
	}
	t.copies++
	t.latched = t.pixel
	t.inFlight = true
	t.polls = 0
	if t.copies-t.reads > t.maxFlight {
		t.maxFlight = t.copies - t.reads
	}
	return nil
}

func (t *Transfer) TryRead() (uint16, bool, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.readErr != nil {
		if t.inFlight {
			t.inFlight = false
			t.reads++
		}
		return 0, false, t.readErr
	}
	if !t.inFlight {
		return 0, false, nil
	}
	if t.readyAfter == Never || t.polls < t.readyAfter {
		t.polls++
		return 0, false, nil
	}
	t.inFlight = false
	t.reads++
	return t.latched, true, nil
}

func (t *Transfer) Release() {
	t.mu.Lock()
	t.released = true
	t.mu.Unlock()
}

// Copies returns the number of scheduled copies.
func (t *Transfer) Copies() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.copies
}

// Reads returns the number of copies that completed or failed.
func (t *Transfer) Reads() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.reads
}

// MaxInFlight returns the largest number of copies that were ever outstanding at once.
func (t *Transfer) MaxInFlight() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.maxFlight
}

// Released reports whether Release was called.
func (t *Transfer) Released() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.released
}
