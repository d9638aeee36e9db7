package manipulator

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleDescriptors() []Descriptor {
	return []Descriptor{
		{Identity: 0, Kind: KindAxisKnob, Name: "hdg", Binding: AxisKnob{
			Dataref: NamedDataref("sim/cockpit2/autopilot/heading_dial_deg"), Min: 0, Max: 360, ClickDelta: 1, HoldDelta: 10,
		}},
		{Identity: 1, Kind: KindToggle, Name: "beacon", Binding: Toggle{
			On: 1, Off: 0, Dataref: NamedDataref("sim/cockpit2/switches/beacon_on"),
		}},
		{Identity: 2, Kind: KindNoOp, Name: "panel"},
	}
}

func TestNewCatalog(t *testing.T) {
	c, err := NewCatalog(sampleDescriptors(), WithScene("cockpit"))
	require.NoError(t, err)

	assert.Equal(t, 3, c.Len())
	assert.Equal(t, "cockpit", c.Scene())
	assert.Equal(t, KindToggle, c.At(1).Kind)
	assert.Equal(t, NoOp{}, c.At(2).Binding, "nil NoOp binding is normalised")

	_, ok := c.Lookup(Sentinel)
	assert.False(t, ok)
	_, ok = c.Lookup(3)
	assert.False(t, ok)
	assert.Panics(t, func() { c.At(7) })
}

func TestNewCatalogRejectsSentinel(t *testing.T) {
	descs := []Descriptor{{Identity: Sentinel, Kind: KindNoOp}}
	_, err := NewCatalog(descs)
	assert.ErrorIs(t, err, ErrSentinelIdentity)
}

func TestNewCatalogRejectsGaps(t *testing.T) {
	descs := sampleDescriptors()
	descs[1].Identity = 5
	_, err := NewCatalog(descs)
	assert.ErrorIs(t, err, ErrNotDense)
}

func TestNewCatalogRejectsKindMismatch(t *testing.T) {
	descs := sampleDescriptors()
	descs[0].Kind = KindDragAxis
	_, err := NewCatalog(descs)
	assert.ErrorIs(t, err, ErrKindMismatch)

	descs = sampleDescriptors()
	descs[1].Binding = nil
	_, err = NewCatalog(descs)
	assert.ErrorIs(t, err, ErrKindMismatch)
}

func TestCatalogActionable(t *testing.T) {
	c, err := NewCatalog(sampleDescriptors())
	require.NoError(t, err)

	assert.True(t, c.Actionable(0))
	assert.True(t, c.Actionable(1))
	assert.False(t, c.Actionable(2), "noop resolves but never acts")
	assert.False(t, c.Actionable(Sentinel))
	assert.False(t, c.Actionable(99))
}

func TestCatalogAllIsACopy(t *testing.T) {
	c, err := NewCatalog(sampleDescriptors())
	require.NoError(t, err)

	all := c.All()
	all[0].Name = "mutated"
	assert.Equal(t, "hdg", c.At(0).Name)
}

func TestCatalogRange(t *testing.T) {
	c, err := NewCatalog(sampleDescriptors())
	require.NoError(t, err)

	var seen []Identity
	c.Range(func(d Descriptor) bool {
		seen = append(seen, d.Identity)
		return d.Identity < 1
	})
	assert.Equal(t, []Identity{0, 1}, seen)
}

func TestNilCatalog(t *testing.T) {
	var c *Catalog
	assert.Equal(t, 0, c.Len())
	assert.False(t, c.Contains(0))
	assert.Nil(t, c.All())
	assert.Equal(t, "", c.Scene())
}
