package manipulator

import (
	"errors"
	"math"
)

// Identity is the index of a manipulator within its Catalog. It doubles as the color written into the pick target,
// so it is limited to the 16-bit range of a single-channel integer texture.
type Identity uint16

// Sentinel is the reserved identity meaning "no manipulator". It is never assigned to a descriptor.
const Sentinel Identity = math.MaxUint16

// MaxManipulators is the largest catalog size that keeps every identity clear of Sentinel.
const MaxManipulators = int(Sentinel)

// IsNone reports whether the identity is the Sentinel.
func (id Identity) IsNone() bool {
	return id == Sentinel
}

var (
	// ErrUnknownKind is returned when a kind name does not match any declared Kind.
	ErrUnknownKind = errors.New("unknown manipulator kind")

	// ErrSentinelIdentity is returned when a descriptor claims the reserved Sentinel identity.
	ErrSentinelIdentity = errors.New("manipulator identity collides with the sentinel")

	// ErrNotDense is returned when descriptor identities are not exactly 0..N-1 in order.
	ErrNotDense = errors.New("manipulator identities are not dense")

	// ErrKindMismatch is returned when a descriptor's Kind disagrees with its Binding.
	ErrKindMismatch = errors.New("manipulator kind does not match its binding")

	// ErrTooManyManipulators is returned when a catalog would exceed MaxManipulators entries.
	ErrTooManyManipulators = errors.New("too many manipulators for a 16-bit pick target")
)

// Descriptor describes one interactive element of a loaded scene.
type Descriptor struct {
	// Identity is the descriptor's position in its Catalog.
	Identity Identity

	// Kind is the interaction model. It must equal Binding.Kind().
	Kind Kind

	// Binding is the kind-specific payload.
	Binding Binding

	// Name is an optional label from the asset, used in logs.
	Name string

	// Cursor is an optional hover cursor hint from the asset, e.g. "rotate_small". Interpreting it is up to the host.
	Cursor string
}

// Actionable reports whether the descriptor drives anything. NoOp manipulators resolve like any other
// but never trigger an action.
func (d Descriptor) Actionable() bool {
	return d.Kind != KindNoOp && d.Binding != nil && d.Binding.Kind() != KindNoOp
}
