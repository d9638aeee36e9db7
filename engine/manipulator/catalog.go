package manipulator

import (
	"fmt"
)

// Catalog is the immutable, dense sequence of manipulator descriptors for one loaded scene.
// It is built once on load, shared by reference while the scene is loaded, and dropped as a whole on unload.
// Catalog methods never mutate it, so a Catalog may be read from any goroutine.
type Catalog struct {
	scene       string
	descriptors []Descriptor
}

// NewCatalog validates descs and builds a Catalog from them. Identities must be exactly 0..N-1 in order, the
// Sentinel must not appear, and every Kind must agree with its Binding. A nil Binding is normalised to the
// zero value of the declared kind's binding only for KindNoOp; any other nil Binding is rejected.
//
// Parameters:
//   - descs: the descriptors, ordered by identity
//   - opts: optional catalog configuration
//
// Returns:
//   - *Catalog: the validated catalog
//   - error: an error wrapping ErrNotDense, ErrSentinelIdentity, ErrKindMismatch or ErrTooManyManipulators
func NewCatalog(descs []Descriptor, opts ...CatalogBuilderOption) (*Catalog, error) {
	c := &Catalog{}
	for _, opt := range opts {
		opt(c)
	}

	if len(descs) > MaxManipulators {
		return nil, fmt.Errorf("%w: %d > %d", ErrTooManyManipulators, len(descs), MaxManipulators)
	}

	c.descriptors = make([]Descriptor, len(descs))
	for i, d := range descs {
		if d.Identity == Sentinel {
			return nil, fmt.Errorf("descriptor %d (%q): %w", i, d.Name, ErrSentinelIdentity)
		}
		if int(d.Identity) != i {
			return nil, fmt.Errorf("descriptor %d (%q) has identity %d: %w", i, d.Name, d.Identity, ErrNotDense)
		}
		if !d.Kind.Valid() {
			return nil, fmt.Errorf("descriptor %d (%q): %w: %d", i, d.Name, ErrUnknownKind, int(d.Kind))
		}
		if d.Binding == nil {
			if d.Kind != KindNoOp {
				return nil, fmt.Errorf("descriptor %d (%q) of kind %s has no binding: %w", i, d.Name, d.Kind, ErrKindMismatch)
			}
			d.Binding = NoOp{}
		}
		if d.Binding.Kind() != d.Kind {
			return nil, fmt.Errorf("descriptor %d (%q) declared %s but bound %s: %w", i, d.Name, d.Kind, d.Binding.Kind(), ErrKindMismatch)
		}
		c.descriptors[i] = d
	}
	return c, nil
}

// Scene returns the name of the scene this catalog was loaded from, if one was given.
func (c *Catalog) Scene() string {
	if c == nil {
		return ""
	}
	return c.scene
}

// Len returns the number of descriptors. A nil Catalog has length zero.
func (c *Catalog) Len() int {
	if c == nil {
		return 0
	}
	return len(c.descriptors)
}

// Contains reports whether id refers to a descriptor of this catalog.
func (c *Catalog) Contains(id Identity) bool {
	return id != Sentinel && int(id) < c.Len()
}

// Lookup returns the descriptor for id.
//
// Parameters:
//   - id: the identity to look up
//
// Returns:
//   - Descriptor: the descriptor, or the zero value if not found
//   - bool: false for the Sentinel or an out-of-range identity
func (c *Catalog) Lookup(id Identity) (Descriptor, bool) {
	if !c.Contains(id) {
		return Descriptor{}, false
	}
	return c.descriptors[id], true
}

// At returns the descriptor for id and panics if id is not in the catalog.
func (c *Catalog) At(id Identity) Descriptor {
	d, ok := c.Lookup(id)
	if !ok {
		panic(fmt.Sprintf("manipulator: identity %d not in catalog of %d", id, c.Len()))
	}
	return d
}

// Actionable reports whether id resolves to a descriptor that drives something. The Sentinel, unknown
// identities and NoOp descriptors are not actionable.
func (c *Catalog) Actionable(id Identity) bool {
	d, ok := c.Lookup(id)
	return ok && d.Actionable()
}

// All returns a copy of every descriptor in identity order.
func (c *Catalog) All() []Descriptor {
	if c == nil {
		return nil
	}
	out := make([]Descriptor, len(c.descriptors))
	copy(out, c.descriptors)
	return out
}

// Range calls fn for every descriptor in identity order until fn returns false.
func (c *Catalog) Range(fn func(d Descriptor) bool) {
	if c == nil {
		return
	}
	for _, d := range c.descriptors {
		if !fn(d) {
			return
		}
	}
}
