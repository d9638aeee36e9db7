package manipulator

// Dataref is a handle to a continuous host state variable. Handles are owned by the host and only referenced here.
type Dataref interface {
	// Name returns the host path of the variable, e.g. "sim/cockpit2/autopilot/heading_dial_deg".
	Name() string
}

// Command is a handle to a host command. Handles are owned by the host and only referenced here.
type Command interface {
	// Name returns the host path of the command, e.g. "sim/autopilot/heading_up".
	Name() string
}

// NamedDataref is a Dataref identified only by its path. It is used when no host runtime is available to
// resolve live handles, e.g. in tools and tests.
type NamedDataref string

// Name returns the dataref path.
func (d NamedDataref) Name() string { return string(d) }

// NamedCommand is a Command identified only by its path.
type NamedCommand string

// Name returns the command path.
func (c NamedCommand) Name() string { return string(c) }

// Binding is the kind-specific payload of a manipulator. The set of implementations is closed; use a type switch
// over the concrete types to interpret one.
type Binding interface {
	// Kind returns the manipulator kind this binding belongs to.
	Kind() Kind

	binding()
}

// AxisKnob steps Dataref between Min and Max by ClickDelta per click and HoldDelta per second while held.
type AxisKnob struct {
	Dataref    Dataref
	Min, Max   float32
	ClickDelta float32
	HoldDelta  float32
}

// CommandBinding fires Command while the manipulator is held.
type CommandBinding struct {
	Command Command
}

// CommandAxis fires Positive when dragged along Axis and Negative when dragged against it.
type CommandAxis struct {
	Axis     [3]float32
	Positive Command
	Negative Command
}

// CommandKnob fires Positive on clockwise and Negative on counter-clockwise actuation.
type CommandKnob struct {
	Positive Command
	Negative Command
}

// CommandSwitch2Way fires Positive when flicked up and Negative when flicked down.
type CommandSwitch2Way struct {
	Positive Command
	Negative Command
}

// CommandSwitch2WaySecondary fires Positive when flicked right and Negative when flicked left.
type CommandSwitch2WaySecondary struct {
	Positive Command
	Negative Command
}

// DragAxis maps a drag along Axis onto Dataref, interpolating between V1 at the start and V2 at the end of the axis.
type DragAxis struct {
	Axis    [3]float32
	V1, V2  float32
	Dataref Dataref
}

// DragRotate maps a rotation about Pivot around Axis, between Angle1 and Angle2 degrees, onto Dataref in [V1, V2].
// When Lift is non-zero the manipulator can additionally be pulled along Axis by up to Lift units, driving
// LiftDataref in [LiftV1, LiftV2].
type DragRotate struct {
	Pivot          [3]float32
	Axis           [3]float32
	Angle1, Angle2 float32
	Lift           float32
	V1, V2         float32
	LiftV1, LiftV2 float32
	Dataref        Dataref
	LiftDataref    Dataref
}

// DragXY maps horizontal screen drag of DX pixels onto DatarefX in [V1Min, V1Max] and vertical drag of DY pixels
// onto DatarefY in [V2Min, V2Max].
type DragXY struct {
	DX, DY       float32
	V1Min, V1Max float32
	V2Min, V2Max float32
	DatarefX     Dataref
	DatarefY     Dataref
}

// Toggle flips Dataref between On and Off.
type Toggle struct {
	On, Off float32
	Dataref Dataref
}

// NoOp carries no binding.
type NoOp struct{}

func (AxisKnob) Kind() Kind                   { return KindAxisKnob }
func (CommandBinding) Kind() Kind             { return KindCommand }
func (CommandAxis) Kind() Kind                { return KindCommandAxis }
func (CommandKnob) Kind() Kind                { return KindCommandKnob }
func (CommandSwitch2Way) Kind() Kind          { return KindCommandSwitch2Way }
func (CommandSwitch2WaySecondary) Kind() Kind { return KindCommandSwitch2WaySecondary }
func (DragAxis) Kind() Kind                   { return KindDragAxis }
func (DragRotate) Kind() Kind                 { return KindDragRotate }
func (DragXY) Kind() Kind                     { return KindDragXY }
func (Toggle) Kind() Kind                     { return KindToggle }
func (NoOp) Kind() Kind                       { return KindNoOp }

func (AxisKnob) binding()                   {}
func (CommandBinding) binding()             {}
func (CommandAxis) binding()                {}
func (CommandKnob) binding()                {}
func (CommandSwitch2Way) binding()          {}
func (CommandSwitch2WaySecondary) binding() {}
func (DragAxis) binding()                   {}
func (DragRotate) binding()                 {}
func (DragXY) binding()                     {}
func (Toggle) binding()                     {}
func (NoOp) binding()                       {}

// References lists the host handles a binding drives. Nil handles are skipped.
//
// Parameters:
//   - b: the binding to inspect
//
// Returns:
//   - []Dataref: the datarefs the binding reads or writes
//   - []Command: the commands the binding fires
func References(b Binding) ([]Dataref, []Command) {
	var refs []Dataref
	var cmds []Command
	addRef := func(d Dataref) {
		if d != nil {
			refs = append(refs, d)
		}
	}
	addCmd := func(c Command) {
		if c != nil {
			cmds = append(cmds, c)
		}
	}

	switch v := b.(type) {
	case AxisKnob:
		addRef(v.Dataref)
	case CommandBinding:
		addCmd(v.Command)
	case CommandAxis:
		addCmd(v.Positive)
		addCmd(v.Negative)
	case CommandKnob:
		addCmd(v.Positive)
		addCmd(v.Negative)
	case CommandSwitch2Way:
		addCmd(v.Positive)
		addCmd(v.Negative)
	case CommandSwitch2WaySecondary:
		addCmd(v.Positive)
		addCmd(v.Negative)
	case DragAxis:
		addRef(v.Dataref)
	case DragRotate:
		addRef(v.Dataref)
		addRef(v.LiftDataref)
	case DragXY:
		addRef(v.DatarefX)
		addRef(v.DatarefY)
	case Toggle:
		addRef(v.Dataref)
	case NoOp, nil:
	}
	return refs, cmds
}
