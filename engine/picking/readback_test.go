package picking_test

import (
	"errors"
	"testing"
	"time"

	"github.com/Carmen-Shannon/oxy-pick/engine/manipulator"
	"github.com/Carmen-Shannon/oxy-pick/engine/picking"
	"github.com/Carmen-Shannon/oxy-pick/engine/picking/pickingtest"
	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var t0 = time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)

func frameTime(i int) time.Time {
	return t0.Add(time.Duration(i) * 16 * time.Millisecond)
}

func TestNewReadbackRequiresTarget(t *testing.T) {
	_, err := picking.NewReadback(nil)
	assert.ErrorIs(t, err, picking.ErrNoTransfer)

	_, err = picking.NewReadback(pickingtest.NewTransfer(nil, 0))
	assert.ErrorIs(t, err, picking.ErrNoTransfer)

	rb, err := picking.NewReadback(pickingtest.NewTransfer(pickingtest.Target("pick"), 0))
	require.NoError(t, err)
	assert.Equal(t, manipulator.Sentinel, rb.Resolved().Identity)
	assert.Equal(t, picking.Target(pickingtest.Target("pick")), rb.Target())
}

func TestReadbackOneFrameLatency(t *testing.T) {
	tr := pickingtest.NewTransfer(pickingtest.Target("pick"), 0)
	rb, err := picking.NewReadback(tr)
	require.NoError(t, err)

	tr.SetPixel(3)
	issued, err := rb.Issue(frameTime(0))
	require.NoError(t, err)
	assert.True(t, issued)
	assert.True(t, rb.Pending())
	assert.Equal(t, manipulator.Sentinel, rb.Resolved().Identity, "nothing resolves on the issuing frame")

	done, err := rb.Collect(frameTime(1))
	require.NoError(t, err)
	assert.True(t, done)
	assert.False(t, rb.Pending())
	assert.Equal(t, picking.Resolution{Identity: 3, Since: frameTime(1)}, rb.Resolved())
	assert.Equal(t, 16*time.Millisecond, rb.Latency())
}

func TestReadbackNotReadyStaysPending(t *testing.T) {
	tr := pickingtest.NewTransfer(pickingtest.Target("pick"), 2)
	rb, err := picking.NewReadback(tr)
	require.NoError(t, err)

	tr.SetPixel(1)
	_, err = rb.Issue(frameTime(0))
	require.NoError(t, err)

	for i := 1; i <= 2; i++ {
		done, err := rb.Collect(frameTime(i))
		require.NoError(t, err)
		assert.False(t, done)
		assert.True(t, rb.Pending())

		issued, err := rb.Issue(frameTime(i))
		require.NoError(t, err)
		assert.False(t, issued, "no second read while one is pending")
	}

	done, err := rb.Collect(frameTime(3))
	require.NoError(t, err)
	assert.True(t, done)
	assert.Equal(t, manipulator.Identity(1), rb.Resolved().Identity)
	assert.Equal(t, 1, tr.Copies())
}

func TestReadbackSinceOnlyChangesOnNewIdentity(t *testing.T) {
	tr := pickingtest.NewTransfer(pickingtest.Target("pick"), 0)
	rb, err := picking.NewReadback(tr)
	require.NoError(t, err)

	tr.SetPixel(2)
	for i := 0; i < 4; i++ {
		_, err := rb.Collect(frameTime(i))
		require.NoError(t, err)
		_, err = rb.Issue(frameTime(i))
		require.NoError(t, err)
	}
	assert.Equal(t, picking.Resolution{Identity: 2, Since: frameTime(1)}, rb.Resolved())

	// The read issued on frame 3 still carries identity 2.
	_, err = rb.Collect(frameTime(4))
	require.NoError(t, err)
	assert.Equal(t, frameTime(1), rb.Resolved().Since)

	tr.SetPixel(picking.SentinelColor)
	_, err = rb.Issue(frameTime(4))
	require.NoError(t, err)
	_, err = rb.Collect(frameTime(5))
	require.NoError(t, err)
	assert.Equal(t, picking.Resolution{Identity: manipulator.Sentinel, Since: frameTime(5)}, rb.Resolved())
}

func TestReadbackMapFailureDropsRead(t *testing.T) {
	tr := pickingtest.NewTransfer(pickingtest.Target("pick"), 0)
	rb, err := picking.NewReadback(tr)
	require.NoError(t, err)

	mapErr := errors.New("map failed")
	_, err = rb.Issue(frameTime(0))
	require.NoError(t, err)
	tr.FailRead(mapErr)

	done, err := rb.Collect(frameTime(1))
	assert.ErrorIs(t, err, mapErr)
	assert.False(t, done)
	assert.False(t, rb.Pending())
	assert.Equal(t, manipulator.Sentinel, rb.Resolved().Identity)

	tr.FailRead(nil)
	issued, err := rb.Issue(frameTime(1))
	require.NoError(t, err)
	assert.True(t, issued)
}

func TestReadbackCopyFailureStaysIdle(t *testing.T) {
	tr := pickingtest.NewTransfer(pickingtest.Target("pick"), 0)
	rb, err := picking.NewReadback(tr)
	require.NoError(t, err)

	tr.FailCopy(errors.New("encoder lost"))
	issued, err := rb.Issue(frameTime(0))
	assert.Error(t, err)
	assert.False(t, issued)
	assert.Equal(t, picking.TransactionIdle, rb.State())
}

func TestReadbackRelease(t *testing.T) {
	tr := pickingtest.NewTransfer(pickingtest.Target("pick"), pickingtest.Never)
	rb, err := picking.NewReadback(tr)
	require.NoError(t, err)
	_, err = rb.Issue(frameTime(0))
	require.NoError(t, err)

	rb.Release()
	assert.True(t, tr.Released())
	assert.False(t, rb.Pending())
}

// Property: for any pattern of GPU completion, including a GPU that never completes, at most one copy is ever
// outstanding and Pending agrees with the transfer.
func TestReadbackAtMostOnePending(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	properties := gopter.NewProperties(parameters)

	properties.Property("at most one read in flight", prop.ForAll(
		func(ready []bool, never bool) bool {
			tr := pickingtest.NewTransfer(pickingtest.Target("pick"), pickingtest.Never)
			rb, err := picking.NewReadback(tr)
			if err != nil {
				return false
			}
			for i, r := range ready {
				if r && !never {
					tr.SetReadyAfter(0)
				} else {
					tr.SetReadyAfter(pickingtest.Never)
				}
				if _, err := rb.Collect(frameTime(i)); err != nil {
					return false
				}
				if !rb.Pending() {
					if _, err := rb.Issue(frameTime(i)); err != nil {
						return false
					}
				}
				if !rb.Pending() || tr.Copies()-tr.Reads() != 1 {
					return false
				}
			}
			if never && tr.Copies() > 1 {
				return false
			}
			return tr.MaxInFlight() <= 1
		},
		gen.SliceOf(gen.Bool()),
		gen.Bool(),
	))

	properties.TestingRun(t)
}
