// Package tracker turns the per-frame stream of resolved identities into discrete activation events.
package tracker

import (
	"time"

	"github.com/Carmen-Shannon/oxy-pick/engine/manipulator"
)

// ActivationEvent reports that a manipulator became the active target.
type ActivationEvent struct {
	// Identity is the manipulator that became active. It is never manipulator.Sentinel.
	Identity manipulator.Identity

	// Start is when the identity was first resolved. Consumers use it to measure how long it has been active.
	Start time.Time
}

// DefaultHistorySize is how many activations a ClickTracker retains unless WithHistory says otherwise.
const DefaultHistorySize = 64

// clickTracker is the implementation of the ClickTracker interface.
type clickTracker struct {
	previous    manipulator.Identity
	start       time.Time
	history     []ActivationEvent
	historySize int
}

// ClickTracker de-duplicates resolved identities frame over frame. It emits an event on each transition into a
// non-sentinel identity. A transition to the sentinel emits nothing but clears the memory, so returning to the same
// identity later fires again. Whether the manipulator is actionable is a separate question for the consumer.
type ClickTracker interface {
	// Observe feeds the identity resolved for a frame.
	//
	// Parameters:
	//   - id: the resolved identity, possibly manipulator.Sentinel
	//   - start: when id first became resolved
	//
	// Returns:
	//   - ActivationEvent: the activation, valid only when the bool is true
	//   - bool: true if id is a new non-sentinel identity
	Observe(id manipulator.Identity, start time.Time) (ActivationEvent, bool)

	// Current returns the tracked identity and when it became active, or manipulator.Sentinel and the zero time.
	//
	// Returns:
	//   - manipulator.Identity: the tracked identity
	//   - time.Time: the start of the current activation
	Current() (manipulator.Identity, time.Time)

	// Elapsed returns how long the tracked identity has been active at now, or zero when nothing is tracked.
	//
	// Parameters:
	//   - now: the time to measure to
	//
	// Returns:
	//   - time.Duration: the active duration
	Elapsed(now time.Time) time.Duration

	// History returns the retained activations, oldest first.
	//
	// Returns:
	//   - []ActivationEvent: a copy of the history
	History() []ActivationEvent

	// Reset forgets the tracked identity without emitting an event. The history is kept.
	Reset()
}

var _ ClickTracker = &clickTracker{}

// NewClickTracker creates a ClickTracker tracking nothing.
//
// Parameters:
//   - opts: optional history sizing
//
// Returns:
//   - ClickTracker: the tracker
func NewClickTracker(opts ...ClickTrackerBuilderOption) ClickTracker {
	c := &clickTracker{previous: manipulator.Sentinel, historySize: DefaultHistorySize}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *clickTracker) Observe(id manipulator.Identity, start time.Time) (ActivationEvent, bool) {
	if id == c.previous {
		return ActivationEvent{}, false
	}
	if id.IsNone() {
		c.Reset()
		return ActivationEvent{}, false
	}
	c.previous = id
	c.start = start
	ev := ActivationEvent{Identity: id, Start: start}
	c.record(ev)
	return ev, true
}

func (c *clickTracker) History() []ActivationEvent {
	return append([]ActivationEvent(nil), c.history...)
}

func (c *clickTracker) record(ev ActivationEvent) {
	if c.historySize == 0 {
		return
	}
	if len(c.history) == c.historySize {
		copy(c.history, c.history[1:])
		c.history = c.history[:len(c.history)-1]
	}
	c.history = append(c.history, ev)
}

func (c *clickTracker) Current() (manipulator.Identity, time.Time) {
	return c.previous, c.start
}

func (c *clickTracker) Elapsed(now time.Time) time.Duration {
	if c.previous.IsNone() {
		return 0
	}
	return now.Sub(c.start)
}

func (c *clickTracker) Reset() {
	c.previous = manipulator.Sentinel
	c.start = time.Time{}
}
