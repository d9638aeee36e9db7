package manipulator

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKindRoundTrip(t *testing.T) {
	for k := KindAxisKnob; k <= KindNoOp; k++ {
		parsed, err := ParseKind(k.String())
		require.NoError(t, err)
		assert.Equal(t, k, parsed)
	}

	_, err := ParseKind("lever")
	assert.ErrorIs(t, err, ErrUnknownKind)
	assert.Equal(t, "kind(42)", Kind(42).String())
	assert.False(t, Kind(-1).Valid())
}

func TestBindingKinds(t *testing.T) {
	bindings := map[Kind]Binding{
		KindAxisKnob:                   AxisKnob{},
		KindCommand:                    CommandBinding{},
		KindCommandAxis:                CommandAxis{},
		KindCommandKnob:                CommandKnob{},
		KindCommandSwitch2Way:          CommandSwitch2Way{},
		KindCommandSwitch2WaySecondary: CommandSwitch2WaySecondary{},
		KindDragAxis:                   DragAxis{},
		KindDragRotate:                 DragRotate{},
		KindDragXY:                     DragXY{},
		KindToggle:                     Toggle{},
		KindNoOp:                       NoOp{},
	}
	require.Len(t, bindings, len(kindNames), "every kind needs a binding")
	for k, b := range bindings {
		assert.Equal(t, k, b.Kind())
	}
}

func TestReferences(t *testing.T) {
	refs, cmds := References(DragRotate{
		Dataref:     NamedDataref("sim/a"),
		LiftDataref: NamedDataref("sim/b"),
	})
	assert.Equal(t, []Dataref{NamedDataref("sim/a"), NamedDataref("sim/b")}, refs)
	assert.Empty(t, cmds)

	refs, cmds = References(CommandKnob{Positive: NamedCommand("sim/up"), Negative: NamedCommand("sim/down")})
	assert.Empty(t, refs)
	assert.Equal(t, []Command{NamedCommand("sim/up"), NamedCommand("sim/down")}, cmds)

	refs, cmds = References(DragRotate{Dataref: NamedDataref("sim/a")})
	assert.Len(t, refs, 1, "nil lift dataref is skipped")
	assert.Empty(t, cmds)

	refs, cmds = References(NoOp{})
	assert.Empty(t, refs)
	assert.Empty(t, cmds)
}
