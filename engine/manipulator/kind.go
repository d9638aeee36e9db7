package manipulator

import "fmt"

// Kind identifies the interaction model of a manipulator. The set is closed: every Binding implementation
// corresponds to exactly one Kind.
type Kind int

const (
	// KindAxisKnob is a knob that steps a dataref between a minimum and maximum on click and hold.
	KindAxisKnob Kind = iota

	// KindCommand fires a single command while held.
	KindCommand

	// KindCommandAxis fires a positive or negative command depending on drag direction along an axis.
	KindCommandAxis

	// KindCommandKnob fires a positive or negative command from a rotary knob.
	KindCommandKnob

	// KindCommandSwitch2Way fires a positive or negative command from an up/down switch.
	KindCommandSwitch2Way

	// KindCommandSwitch2WaySecondary is the left/right oriented variant of KindCommandSwitch2Way.
	KindCommandSwitch2WaySecondary

	// KindDragAxis maps a drag along a model-space axis onto a dataref range.
	KindDragAxis

	// KindDragRotate maps a drag around a pivot onto a dataref range, with an optional lift axis.
	KindDragRotate

	// KindDragXY maps a 2D screen drag onto two datarefs.
	KindDragXY

	// KindToggle flips a dataref between two values on click.
	KindToggle

	// KindNoOp occupies geometry and occludes other manipulators but drives nothing.
	KindNoOp
)

var kindNames = [...]string{
	KindAxisKnob:                   "axis_knob",
	KindCommand:                    "command",
	KindCommandAxis:                "command_axis",
	KindCommandKnob:                "command_knob",
	KindCommandSwitch2Way:          "command_switch_2way",
	KindCommandSwitch2WaySecondary: "command_switch_2way_secondary",
	KindDragAxis:                   "drag_axis",
	KindDragRotate:                 "drag_rotate",
	KindDragXY:                     "drag_xy",
	KindToggle:                     "toggle",
	KindNoOp:                       "noop",
}

// String returns the stable lowercase name of the kind as used in catalog manifests.
func (k Kind) String() string {
	if k < 0 || int(k) >= len(kindNames) {
		return fmt.Sprintf("kind(%d)", int(k))
	}
	return kindNames[k]
}

// Valid reports whether k is one of the declared kinds.
func (k Kind) Valid() bool {
	return k >= 0 && int(k) < len(kindNames)
}

// ParseKind returns the Kind whose String form is name.
//
// Parameters:
//   - name: the manifest name of the kind, e.g. "axis_knob"
//
// Returns:
//   - Kind: the matching kind
//   - error: ErrUnknownKind if no kind has that name
func ParseKind(name string) (Kind, error) {
	for k, n := range kindNames {
		if n == name {
			return Kind(k), nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownKind, name)
}
