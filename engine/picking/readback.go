package picking

import (
	"fmt"
	"time"

	"github.com/Carmen-Shannon/oxy-pick/engine/manipulator"
)

// Resolution is the identity most recently read back from the pick target and the time it first became resolved.
type Resolution struct {
	Identity manipulator.Identity
	Since    time.Time
}

// Readback drives the one-frame-latency transfer of the pick pixel. It owns a Transfer and the PickTransaction that
// guards it: a read is issued on one frame and collected on a later one, and no new read is issued while one is in
// flight. Readback is used from the frame thread only.
type Readback struct {
	transfer Transfer
	tx       PickTransaction
	resolved Resolution
	issuedAt time.Time
	latency  time.Duration
	attempts int
}

// NewReadback creates a Readback over transfer. The resolved identity starts as manipulator.Sentinel.
//
// Parameters:
//   - transfer: the staging transfer, which must own a pick target
//
// Returns:
//   - *Readback: the readback
//   - error: an error wrapping ErrNoTransfer if transfer or its target is nil
func NewReadback(transfer Transfer) (*Readback, error) {
	if transfer == nil {
		return nil, fmt.Errorf("new readback: %w", ErrNoTransfer)
	}
	if transfer.Target() == nil {
		return nil, fmt.Errorf("new readback: transfer has no pick target: %w", ErrNoTransfer)
	}
	return &Readback{
		transfer: transfer,
		resolved: Resolution{Identity: manipulator.Sentinel},
	}, nil
}

// Target returns the pick target the pick pass renders into.
func (r *Readback) Target() Target {
	return r.transfer.Target()
}

// Pending reports whether a read is in flight.
func (r *Readback) Pending() bool {
	return r.tx.Pending()
}

// State returns the state of the underlying transaction.
func (r *Readback) State() TransactionState {
	return r.tx.State()
}

// Issue schedules a copy of the pick pixel if no read is in flight. It must be called after the pick pass has been
// recorded for the frame.
//
// Parameters:
//   - now: the frame timestamp, used to measure latency
//
// Returns:
//   - bool: true if a read was issued, false if one is already pending
//   - error: an error if the copy could not be scheduled; the transaction stays Idle
func (r *Readback) Issue(now time.Time) (bool, error) {
	if r.tx.State() != TransactionIdle {
		return false, nil
	}
	if err := r.transfer.CopyPixel(); err != nil {
		return false, fmt.Errorf("issue pick readback: %w", err)
	}
	if err := r.tx.Issue(); err != nil {
		return false, err
	}
	r.issuedAt = now
	r.attempts = 0
	return true, nil
}

// Collect completes the in-flight read if the GPU has finished it. When the decoded identity differs from the
// resolved one, the resolution is replaced and stamped with now. A transfer that is not ready yet leaves the read
// pending for a later frame. A failed map drops the read so a new one can be issued.
//
// Parameters:
//   - now: the frame timestamp
//
// Returns:
//   - bool: true if a value was read back this call
//   - error: the map failure, if any
func (r *Readback) Collect(now time.Time) (bool, error) {
	if !r.tx.Pending() {
		return false, nil
	}
	r.attempts++
	v, ready, err := r.transfer.TryRead()
	if err != nil {
		r.tx.Abort()
		return false, fmt.Errorf("collect pick readback after %d attempts: %w", r.attempts, err)
	}
	if !ready {
		return false, nil
	}
	if err := r.tx.Complete(v); err != nil {
		return false, err
	}
	v, err = r.tx.Consume()
	if err != nil {
		return false, err
	}
	r.latency = now.Sub(r.issuedAt)

	id := Decode(v)
	if id != r.resolved.Identity {
		r.resolved = Resolution{Identity: id, Since: now}
	}
	return true, nil
}

// Resolved returns the current resolution.
func (r *Readback) Resolved() Resolution {
	return r.resolved
}

// Latency returns the time between issuing and collecting the most recent completed read.
func (r *Readback) Latency() time.Duration {
	return r.latency
}

// Reset forgets the resolved identity without touching an in-flight read.
func (r *Readback) Reset() {
	r.resolved = Resolution{Identity: manipulator.Sentinel}
}

// Release drops any in-flight read and frees the transfer's GPU resources.
func (r *Readback) Release() {
	r.tx.Abort()
	r.transfer.Release()
}
