package picking

import "fmt"

// DepthConvention identifies how the host renderer maps depth values.
type DepthConvention int

const (
	// DepthStandard maps near to 0 and far to 1 and keeps fragments with a smaller depth.
	DepthStandard DepthConvention = iota

	// DepthReversed maps near to 1 and far to 0 and keeps fragments with a greater depth.
	DepthReversed
)

// ReverseZVersion is the first host version whose modern driver path renders with reversed depth.
const ReverseZVersion = 12000

func (c DepthConvention) String() string {
	switch c {
	case DepthStandard:
		return "standard"
	case DepthReversed:
		return "reversed"
	default:
		return "unknown"
	}
}

// FarDepth returns the value the depth buffer is cleared to under this convention.
func (c DepthConvention) FarDepth() float32 {
	if c == DepthReversed {
		return 0
	}
	return 1
}

// Compare returns the depth test that keeps the nearest fragment under this convention.
func (c DepthConvention) Compare() CompareFunction {
	if c == DepthReversed {
		return CompareGreater
	}
	return CompareLess
}

// OverlayCompare returns the depth test used when redrawing geometry already present in the depth buffer,
// so a surface passes against its own depth.
func (c DepthConvention) OverlayCompare() CompareFunction {
	if c == DepthReversed {
		return CompareGreaterEqual
	}
	return CompareLessEqual
}

// CompareFunction is a depth comparison. It mirrors the subset of GPU compare functions the passes use.
type CompareFunction int

const (
	CompareAlways CompareFunction = iota
	CompareLess
	CompareLessEqual
	CompareGreater
	CompareGreaterEqual
)

func (f CompareFunction) String() string {
	switch f {
	case CompareAlways:
		return "always"
	case CompareLess:
		return "less"
	case CompareLessEqual:
		return "less_equal"
	case CompareGreater:
		return "greater"
	case CompareGreaterEqual:
		return "greater_equal"
	default:
		return "unknown"
	}
}

// HostInfo carries the host runtime facts the depth convention is decided from. It is supplied every frame because
// the host may switch rendering paths at runtime.
type HostInfo struct {
	// Version is the host application version, e.g. 12010.
	Version int

	// ReverseZ is set when the host reports it is rendering with a reversed depth buffer.
	ReverseZ bool

	// ModernDriver is set when the host runs its modern graphics driver path.
	ModernDriver bool
}

// DetectConvention decides the depth convention active for a frame.
//
// Parameters:
//   - h: the host facts for the frame
//
// Returns:
//   - DepthConvention: DepthReversed if the host reports reverse-Z, or runs the modern driver on a version at or
//     above ReverseZVersion; DepthStandard otherwise
func DetectConvention(h HostInfo) DepthConvention {
	if h.ReverseZ {
		return DepthReversed
	}
	if h.ModernDriver && h.Version >= ReverseZVersion {
		return DepthReversed
	}
	return DepthStandard
}

// ConventionPolicy selects whether the convention is detected per frame or forced.
type ConventionPolicy int

const (
	// ConventionAuto detects the convention from HostInfo every frame.
	ConventionAuto ConventionPolicy = iota

	// ConventionForceStandard always uses DepthStandard.
	ConventionForceStandard

	// ConventionForceReversed always uses DepthReversed.
	ConventionForceReversed
)

// Resolve returns the convention for a frame under this policy.
//
// Parameters:
//   - h: the host facts for the frame, consulted only by ConventionAuto
//
// Returns:
//   - DepthConvention: the convention to render the frame with
func (p ConventionPolicy) Resolve(h HostInfo) DepthConvention {
	switch p {
	case ConventionForceStandard:
		return DepthStandard
	case ConventionForceReversed:
		return DepthReversed
	default:
		return DetectConvention(h)
	}
}

// ParseConventionPolicy parses "auto", "standard" or "reversed". The empty string is treated as "auto".
func ParseConventionPolicy(s string) (ConventionPolicy, error) {
	switch s {
	case "", "auto":
		return ConventionAuto, nil
	case "standard":
		return ConventionForceStandard, nil
	case "reversed":
		return ConventionForceReversed, nil
	default:
		return ConventionAuto, fmt.Errorf("%w: %q", ErrUnknownConvention, s)
	}
}
