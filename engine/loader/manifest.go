package loader

import (
	"errors"
	"fmt"

	"github.com/Carmen-Shannon/oxy-pick/engine/manipulator"
)

// ErrMissingReference is returned when a manipulator entry omits a dataref or command its kind requires.
var ErrMissingReference = errors.New("manipulator entry is missing a required reference")

// Manifest is the decoded form of a scene's manipulator manifest.
type Manifest struct {
	Scene        string          `yaml:"scene"`
	Manipulators []ManifestEntry `yaml:"manipulators"`
	Occluders    []Box           `yaml:"occluders"`
}

// ManifestEntry describes one manipulator. Which fields are read depends on Kind.
type ManifestEntry struct {
	Name   string `yaml:"name"`
	Kind   string `yaml:"kind"`
	Cursor string `yaml:"cursor,omitempty"`
	Box    *Box   `yaml:"box,omitempty"`

	Dataref     string `yaml:"dataref,omitempty"`
	LiftDataref string `yaml:"lift_dataref,omitempty"`
	DatarefX    string `yaml:"dataref_x,omitempty"`
	DatarefY    string `yaml:"dataref_y,omitempty"`
	Command     string `yaml:"command,omitempty"`
	Positive    string `yaml:"positive,omitempty"`
	Negative    string `yaml:"negative,omitempty"`

	Axis  [3]float32 `yaml:"axis,omitempty"`
	Pivot [3]float32 `yaml:"pivot,omitempty"`

	Min        float32 `yaml:"min,omitempty"`
	Max        float32 `yaml:"max,omitempty"`
	ClickDelta float32 `yaml:"click_delta,omitempty"`
	HoldDelta  float32 `yaml:"hold_delta,omitempty"`
	V1         float32 `yaml:"v1,omitempty"`
	V2         float32 `yaml:"v2,omitempty"`
	Angle1     float32 `yaml:"angle1,omitempty"`
	Angle2     float32 `yaml:"angle2,omitempty"`
	Lift       float32 `yaml:"lift,omitempty"`
	LiftV1     float32 `yaml:"lift_v1,omitempty"`
	LiftV2     float32 `yaml:"lift_v2,omitempty"`
	DX         float32 `yaml:"dx,omitempty"`
	DY         float32 `yaml:"dy,omitempty"`
	V1Min      float32 `yaml:"v1_min,omitempty"`
	V1Max      float32 `yaml:"v1_max,omitempty"`
	V2Min      float32 `yaml:"v2_min,omitempty"`
	V2Max      float32 `yaml:"v2_max,omitempty"`
	On         float32 `yaml:"on,omitempty"`
	Off        float32 `yaml:"off,omitempty"`
}

// Box is an axis aligned box in model space.
type Box struct {
	Center [3]float32 `yaml:"center"`
	Size   [3]float32 `yaml:"size"`
}

// Shape is the pickable geometry of one manipulator.
type Shape struct {
	Identity manipulator.Identity
	Box      Box
}

// Scene is a loaded manifest: the validated catalog plus the geometry the renderer uploads for it.
type Scene struct {
	Name      string
	Catalog   *manipulator.Catalog
	Shapes    []Shape
	Occluders []Box
}

// Resolver turns the dataref and command names of a manifest into host handles.
type Resolver interface {
	// Dataref returns the handle for a dataref name.
	Dataref(name string) (manipulator.Dataref, error)

	// Command returns the handle for a command name.
	Command(name string) (manipulator.Command, error)
}

// NamedResolver resolves every name to a manipulator.NamedDataref or manipulator.NamedCommand.
type NamedResolver struct{}

func (NamedResolver) Dataref(name string) (manipulator.Dataref, error) {
	return manipulator.NamedDataref(name), nil
}

func (NamedResolver) Command(name string) (manipulator.Command, error) {
	return manipulator.NamedCommand(name), nil
}

// build converts a manifest into a Scene. Identities follow manifest order.
func build(m *Manifest, res Resolver) (*Scene, error) {
	descs := make([]manipulator.Descriptor, len(m.Manipulators))
	var shapes []Shape
	for i, entry := range m.Manipulators {
		kind, err := manipulator.ParseKind(entry.Kind)
		if err != nil {
			return nil, fmt.Errorf("manipulator %d (%q): %w", i, entry.Name, err)
		}
		b, err := entry.binding(kind, res)
		if err != nil {
			return nil, fmt.Errorf("manipulator %d (%q): %w", i, entry.Name, err)
		}
		id := manipulator.Identity(i)
		descs[i] = manipulator.Descriptor{
			Identity: id,
			Kind:     kind,
			Binding:  b,
			Name:     entry.Name,
			Cursor:   entry.Cursor,
		}
		if entry.Box != nil {
			shapes = append(shapes, Shape{Identity: id, Box: *entry.Box})
		}
	}

	catalog, err := manipulator.NewCatalog(descs, manipulator.WithScene(m.Scene))
	if err != nil {
		return nil, err
	}
	return &Scene{
		Name:      m.Scene,
		Catalog:   catalog,
		Shapes:    shapes,
		Occluders: m.Occluders,
	}, nil
}

// binding builds the kind-specific payload of the entry.
func (e ManifestEntry) binding(kind manipulator.Kind, res Resolver) (manipulator.Binding, error) {
	r := refs{res: res}
	var b manipulator.Binding
	switch kind {
	case manipulator.KindAxisKnob:
		b = manipulator.AxisKnob{Dataref: r.dataref("dataref", e.Dataref), Min: e.Min, Max: e.Max, ClickDelta: e.ClickDelta, HoldDelta: e.HoldDelta}
	case manipulator.KindCommand:
		b = manipulator.CommandBinding{Command: r.command("command", e.Command)}
	case manipulator.KindCommandAxis:
		b = manipulator.CommandAxis{Axis: e.Axis, Positive: r.command("positive", e.Positive), Negative: r.command("negative", e.Negative)}
	case manipulator.KindCommandKnob:
		b = manipulator.CommandKnob{Positive: r.command("positive", e.Positive), Negative: r.command("negative", e.Negative)}
	case manipulator.KindCommandSwitch2Way:
		b = manipulator.CommandSwitch2Way{Positive: r.command("positive", e.Positive), Negative: r.command("negative", e.Negative)}
	case manipulator.KindCommandSwitch2WaySecondary:
		b = manipulator.CommandSwitch2WaySecondary{Positive: r.command("positive", e.Positive), Negative: r.command("negative", e.Negative)}
	case manipulator.KindDragAxis:
		b = manipulator.DragAxis{Axis: e.Axis, V1: e.V1, V2: e.V2, Dataref: r.dataref("dataref", e.Dataref)}
	case manipulator.KindDragRotate:
		d := manipulator.DragRotate{
			Pivot: e.Pivot, Axis: e.Axis, Angle1: e.Angle1, Angle2: e.Angle2,
			Lift: e.Lift, V1: e.V1, V2: e.V2, LiftV1: e.LiftV1, LiftV2: e.LiftV2,
			Dataref: r.dataref("dataref", e.Dataref),
		}
		if e.Lift != 0 {
			d.LiftDataref = r.dataref("lift_dataref", e.LiftDataref)
		}
		b = d
	case manipulator.KindDragXY:
		b = manipulator.DragXY{
			DX: e.DX, DY: e.DY, V1Min: e.V1Min, V1Max: e.V1Max, V2Min: e.V2Min, V2Max: e.V2Max,
			DatarefX: r.dataref("dataref_x", e.DatarefX), DatarefY: r.dataref("dataref_y", e.DatarefY),
		}
	case manipulator.KindToggle:
		b = manipulator.Toggle{On: e.On, Off: e.Off, Dataref: r.dataref("dataref", e.Dataref)}
	case manipulator.KindNoOp:
		b = manipulator.NoOp{}
	default:
		return nil, fmt.Errorf("%w: %s", manipulator.ErrUnknownKind, kind)
	}
	if r.err != nil {
		return nil, r.err
	}
	return b, nil
}

// refs resolves names and keeps the first failure.
type refs struct {
	res Resolver
	err error
}

func (r *refs) dataref(field, name string) manipulator.Dataref {
	if r.err != nil {
		return nil
	}
	if name == "" {
		r.err = fmt.Errorf("%w: %s", ErrMissingReference, field)
		return nil
	}
	d, err := r.res.Dataref(name)
	if err != nil {
		r.err = fmt.Errorf("resolve dataref %q: %w", name, err)
		return nil
	}
	return d
}

func (r *refs) command(field, name string) manipulator.Command {
	if r.err != nil {
		return nil
	}
	if name == "" {
		r.err = fmt.Errorf("%w: %s", ErrMissingReference, field)
		return nil
	}
	c, err := r.res.Command(name)
	if err != nil {
		r.err = fmt.Errorf("resolve command %q: %w", name, err)
		return nil
	}
	return c
}
