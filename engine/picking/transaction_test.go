package picking

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTransactionLifecycle(t *testing.T) {
	var tx PickTransaction
	assert.Equal(t, TransactionIdle, tx.State())

	require.NoError(t, tx.Issue())
	assert.True(t, tx.Pending())

	require.NoError(t, tx.Complete(7))
	assert.Equal(t, TransactionResolved, tx.State())

	v, err := tx.Consume()
	require.NoError(t, err)
	assert.Equal(t, uint16(7), v)
	assert.Equal(t, TransactionIdle, tx.State())
}

func TestTransactionRejectsInvalidTransitions(t *testing.T) {
	var tx PickTransaction
	assert.ErrorIs(t, tx.Complete(1), ErrInvalidTransition)
	_, err := tx.Consume()
	assert.ErrorIs(t, err, ErrInvalidTransition)

	require.NoError(t, tx.Issue())
	assert.ErrorIs(t, tx.Issue(), ErrInvalidTransition, "second issue while pending")
	_, err = tx.Consume()
	assert.ErrorIs(t, err, ErrInvalidTransition)

	require.NoError(t, tx.Complete(1))
	assert.ErrorIs(t, tx.Issue(), ErrInvalidTransition, "issue before consume")
	assert.ErrorIs(t, tx.Complete(2), ErrInvalidTransition)
}

func TestTransactionAbort(t *testing.T) {
	var tx PickTransaction
	require.NoError(t, tx.Issue())
	tx.Abort()
	assert.Equal(t, TransactionIdle, tx.State())
	assert.NoError(t, tx.Issue())
}
