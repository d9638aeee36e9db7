package picking

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidTransition is returned when a transaction method is called from a state that does not allow it.
	ErrInvalidTransition = errors.New("invalid pick transaction transition")

	// ErrUnknownConvention is returned when a depth convention name cannot be parsed.
	ErrUnknownConvention = errors.New("unknown depth convention")

	// ErrNoTransfer is returned when a readback is built without a transfer or a pick target.
	ErrNoTransfer = errors.New("pick transfer is unavailable")

	// ErrSkipFrame is returned by frame sources that have nothing to draw this frame, e.g. a minimised window.
	ErrSkipFrame = errors.New("frame skipped")
)

// TransactionState is the state of a PickTransaction.
type TransactionState int

const (
	// TransactionIdle means no read is in flight and a new one may be issued.
	TransactionIdle TransactionState = iota

	// TransactionPending means a read was issued and its result has not arrived yet.
	TransactionPending

	// TransactionResolved means the result arrived and has not been consumed yet.
	TransactionResolved
)

func (s TransactionState) String() string {
	switch s {
	case TransactionIdle:
		return "idle"
	case TransactionPending:
		return "pending"
	case TransactionResolved:
		return "resolved"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// PickTransaction tracks the single in-flight GPU to CPU transfer. It moves Idle -> Pending -> Resolved -> Idle and
// rejects every other transition, which is what keeps at most one read in flight.
// The zero value is an Idle transaction.
type PickTransaction struct {
	state TransactionState
	value uint16
}

// State returns the current state.
func (t *PickTransaction) State() TransactionState {
	return t.state
}

// Pending reports whether a read is in flight.
func (t *PickTransaction) Pending() bool {
	return t.state == TransactionPending
}

// Issue marks a read as in flight. It is only valid from Idle.
func (t *PickTransaction) Issue() error {
	if t.state != TransactionIdle {
		return fmt.Errorf("%w: issue from %s", ErrInvalidTransition, t.state)
	}
	t.state = TransactionPending
	return nil
}

// Complete records the value of the in-flight read. It is only valid from Pending.
func (t *PickTransaction) Complete(v uint16) error {
	if t.state != TransactionPending {
		return fmt.Errorf("%w: complete from %s", ErrInvalidTransition, t.state)
	}
	t.value = v
	t.state = TransactionResolved
	return nil
}

// Consume returns the resolved value and returns the transaction to Idle. It is only valid from Resolved.
func (t *PickTransaction) Consume() (uint16, error) {
	if t.state != TransactionResolved {
		return SentinelColor, fmt.Errorf("%w: consume from %s", ErrInvalidTransition, t.state)
	}
	v := t.value
	t.value = SentinelColor
	t.state = TransactionIdle
	return v, nil
}

// Abort drops an in-flight or unconsumed read and returns the transaction to Idle.
func (t *PickTransaction) Abort() {
	t.value = SentinelColor
	t.state = TransactionIdle
}
