package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var allStatuses = []TransactionStatus{
	StatusPending, StatusProcessing, StatusCompleted, StatusFailed, StatusCancelled, StatusReversed,
}

func TestCanTransitionTo(t *testing.T) {
	allowed := map[TransactionStatus][]TransactionStatus{
		StatusPending:    {StatusProcessing, StatusFailed, StatusCancelled},
		StatusProcessing: {StatusCompleted, StatusFailed, StatusCancelled},
		StatusCompleted:  {StatusReversed},
	}
	for _, from := range allStatuses {
		for _, to := range allStatuses {
			want := false
			for _, a := range allowed[from] {
				if a == to {
					want = true
				}
			}
			assert.Equal(t, want, from.CanTransitionTo(to), "%s -> %s", from, to)
		}
	}
}

func TestNoStatusReturnsToPending(t *testing.T) {
	for _, from := range allStatuses {
		assert.False(t, from.CanTransitionTo(StatusPending), "%s -> pending", from)
		assert.False(t, from.CanTransitionTo(from), "%s -> %s", from, from)
	}
}

func TestIsFinal(t *testing.T) {
	assert.False(t, StatusPending.IsFinal())
	assert.False(t, StatusProcessing.IsFinal())
	assert.False(t, StatusCompleted.IsFinal())
	assert.True(t, StatusFailed.IsFinal())
	assert.True(t, StatusCancelled.IsFinal())
	assert.True(t, StatusReversed.IsFinal())
	assert.False(t, TransactionStatus("bogus").IsFinal())
}

func TestParseTransactionStatus(t *testing.T) {
	got, err := ParseTransactionStatus(" Completed ")
	require.NoError(t, err)
	assert.Equal(t, StatusCompleted, got)

	_, err = ParseTransactionStatus("settled")
	assert.ErrorIs(t, err, ErrInvalidStatus)
}

func TestTransitionSetsProcessedAt(t *testing.T) {
	tx, err := NewTransaction(validInput())
	require.NoError(t, err)
	at := time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)

	require.NoError(t, tx.Transition(StatusProcessing, at))
	assert.Nil(t, tx.ProcessedAt)

	require.NoError(t, tx.Transition(StatusCompleted, at))
	require.NotNil(t, tx.ProcessedAt)
	assert.Equal(t, at, *tx.ProcessedAt)
	require.NoError(t, tx.Validate())

	later := at.Add(48 * time.Hour)
	require.NoError(t, tx.Transition(StatusReversed, later))
	assert.Equal(t, at, *tx.ProcessedAt, "reversal keeps the completion time")
	assert.NoError(t, tx.Validate())
}

func TestTransitionToFailedAndCancelled(t *testing.T) {
	failed, err := NewTransaction(validInput())
	require.NoError(t, err)
	require.NoError(t, failed.Transition(StatusFailed, time.Now()))
	assert.NotNil(t, failed.ProcessedAt)
	assert.NoError(t, failed.Validate())

	cancelled, err := NewTransaction(validInput())
	require.NoError(t, err)
	require.NoError(t, cancelled.Transition(StatusCancelled, time.Now()))
	assert.Nil(t, cancelled.ProcessedAt)
	assert.NoError(t, cancelled.Validate())
}

func TestTransitionRejects(t *testing.T) {
	tx, err := NewTransaction(validInput())
	require.NoError(t, err)

	err = tx.Transition(StatusCompleted, time.Now())
	assert.ErrorIs(t, err, ErrInvalidTransition)
	assert.Equal(t, StatusPending, tx.Status, "status unchanged on rejection")

	err = tx.Transition("settled", time.Now())
	assert.ErrorIs(t, err, ErrInvalidStatus)

	require.NoError(t, tx.Transition(StatusFailed, time.Now()))
	for _, to := range allStatuses {
		assert.ErrorIs(t, tx.Transition(to, time.Now()), ErrInvalidTransition)
	}
}
