package tracker

import (
	"testing"
	"time"

	"github.com/Carmen-Shannon/oxy-pick/engine/manipulator"
	"github.com/stretchr/testify/assert"
)

var base = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

func at(i int) time.Time {
	return base.Add(time.Duration(i) * time.Second)
}

func TestObserveSequence(t *testing.T) {
	const (
		a = manipulator.Identity(4)
		b = manipulator.Identity(9)
	)
	none := manipulator.Sentinel
	seq := []manipulator.Identity{a, a, b, b, b, none, a}

	ct := NewClickTracker()
	var got []ActivationEvent
	for i, id := range seq {
		if ev, ok := ct.Observe(id, at(i)); ok {
			got = append(got, ev)
		}
	}

	assert.Equal(t, []ActivationEvent{
		{Identity: a, Start: at(0)},
		{Identity: b, Start: at(2)},
		{Identity: a, Start: at(6)},
	}, got)
	assert.Equal(t, got, ct.History())
}

func TestHistoryIsBounded(t *testing.T) {
	const (
		a = manipulator.Identity(4)
		b = manipulator.Identity(9)
	)
	none := manipulator.Sentinel
	seq := []manipulator.Identity{a, a, b, b, b, none, a}

	tests := []struct {
		name string
		size int
		want []ActivationEvent
	}{
		{"unbounded by sequence", 8, []ActivationEvent{{Identity: a, Start: at(0)}, {Identity: b, Start: at(2)}, {Identity: a, Start: at(6)}}},
		{"keeps newest", 2, []ActivationEvent{{Identity: b, Start: at(2)}, {Identity: a, Start: at(6)}}},
		{"disabled", 0, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ct := NewClickTracker(WithHistory(tt.size))
			for i, id := range seq {
				ct.Observe(id, at(i))
			}
			assert.Equal(t, tt.want, ct.History())
		})
	}
}

func TestHistorySurvivesResetAndIsCopied(t *testing.T) {
	ct := NewClickTracker(WithHistory(-1))
	ct.Observe(3, at(0))
	ct.Reset()
	ct.Observe(3, at(1))

	h := ct.History()
	assert.Equal(t, []ActivationEvent{{Identity: 3, Start: at(0)}, {Identity: 3, Start: at(1)}}, h)
	h[0].Identity = 99
	assert.Equal(t, manipulator.Identity(3), ct.History()[0].Identity)
}

func TestSentinelClearsWithoutEvent(t *testing.T) {
	ct := NewClickTracker()
	_, ok := ct.Observe(manipulator.Sentinel, at(0))
	assert.False(t, ok)

	_, ok = ct.Observe(1, at(1))
	assert.True(t, ok)
	id, start := ct.Current()
	assert.Equal(t, manipulator.Identity(1), id)
	assert.Equal(t, at(1), start)

	_, ok = ct.Observe(manipulator.Sentinel, at(2))
	assert.False(t, ok)
	id, start = ct.Current()
	assert.True(t, id.IsNone())
	assert.True(t, start.IsZero())
}

func TestElapsed(t *testing.T) {
	ct := NewClickTracker()
	assert.Zero(t, ct.Elapsed(at(5)))

	ct.Observe(2, at(1))
	assert.Equal(t, 4*time.Second, ct.Elapsed(at(5)))

	ct.Reset()
	assert.Zero(t, ct.Elapsed(at(5)))
	_, ok := ct.Observe(2, at(6))
	assert.True(t, ok, "reset re-arms the same identity")
}
