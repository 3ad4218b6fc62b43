package domain

import (
	"fmt"
	"strings"
	"time"
)

// TransactionStatus is a lifecycle state of a transaction
type TransactionStatus string

const (
	StatusPending    TransactionStatus = "pending"
	StatusProcessing TransactionStatus = "processing"
	StatusCompleted  TransactionStatus = "completed"
	StatusFailed     TransactionStatus = "failed"
	StatusCancelled  TransactionStatus = "cancelled"
	StatusReversed   TransactionStatus = "reversed"
)

// Allowed moves. Every edge points forward along
// pending -> processing -> {completed, failed, cancelled} -> reversed.
var transitions = map[TransactionStatus][]TransactionStatus{
	StatusPending:    {StatusProcessing, StatusFailed, StatusCancelled},
	StatusProcessing: {StatusCompleted, StatusFailed, StatusCancelled},
	StatusCompleted:  {StatusReversed},
}

// Valid reports whether s is a known lifecycle state
func (s TransactionStatus) Valid() bool {
	switch s {
	case StatusPending, StatusProcessing, StatusCompleted, StatusFailed, StatusCancelled, StatusReversed:
		return true
	}
	return false
}

// ParseTransactionStatus converts raw input into a TransactionStatus
func ParseTransactionStatus(s string) (TransactionStatus, error) {
	status := TransactionStatus(strings.ToLower(strings.TrimSpace(s)))
	if !status.Valid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidStatus, s)
	}
	return status, nil
}

// IsFinal reports whether no further transition can leave s
func (s TransactionStatus) IsFinal() bool {
	return s.Valid() && len(transitions[s]) == 0
}

// RequiresProcessedAt reports whether rows in s must carry processed_at
func (s TransactionStatus) RequiresProcessedAt() bool {
	return s == StatusCompleted || s == StatusFailed || s == StatusReversed
}

// CanTransitionTo reports whether s may move directly to next
func (s TransactionStatus) CanTransitionTo(next TransactionStatus) bool {
	for _, allowed := range transitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// Transition moves t to next, keeping processed_at in step with the status
func (t *Transaction) Transition(next TransactionStatus, at time.Time) error {
	if !next.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidStatus, next)
	}
	if !t.Status.CanTransitionTo(next) {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, t.Status, next)
	}
	t.Status = next
	if !next.RequiresProcessedAt() {
		t.ProcessedAt = nil
		return nil
	}
	if t.ProcessedAt == nil { // A reversal keeps the original completion time
		processedAt := at.UTC()
		t.ProcessedAt = &processedAt
	}
	return nil
}
