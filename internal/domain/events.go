package domain

import (
	"time"

	"github.com/google/uuid"
)

// TransactionBookedEvent is published after a transaction commits. Balance is
// the committed post-transaction balance.
type TransactionBookedEvent struct {
	TransactionID uuid.UUID       `json:"transaction_id"`
	AccountID     string          `json:"account_id"`
	Kind          TransactionKind `json:"kind"`
	Amount        int64           `json:"amount"`
	GoalID        *uuid.UUID      `json:"goal_id,omitempty"`
	Timestamp     time.Time       `json:"timestamp"`
}

// TransactionReversedEvent is published after a transaction deletion reverses
// its financial effect.
type TransactionReversedEvent struct {
	TransactionID uuid.UUID       `json:"transaction_id"`
	AccountID     string          `json:"account_id"`
	Kind          TransactionKind `json:"kind"`
	Amount        int64           `json:"amount"`
	Timestamp     time.Time       `json:"timestamp"`
}

// GoalCompletedEvent is published when a goal's completion is confirmed.
type GoalCompletedEvent struct {
	GoalID       uuid.UUID `json:"goal_id"`
	AccountID    string    `json:"account_id"`
	TargetAmount int64     `json:"target_amount"`
	Timestamp    time.Time `json:"timestamp"`
}

// GoalDeletedEvent is published when a goal is deleted. RefundedAmount is the
// saved amount credited back to the ledger, zero when nothing was saved.
type GoalDeletedEvent struct {
	GoalID         uuid.UUID `json:"goal_id"`
	AccountID      string    `json:"account_id"`
	RefundedAmount int64     `json:"refunded_amount"`
	Timestamp      time.Time `json:"timestamp"`
}
