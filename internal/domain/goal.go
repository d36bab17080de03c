package domain

import (
	"time"

	"github.com/google/uuid"
)

// GoalStatus tracks a goal's lifecycle. COMPLETED and FAILED are terminal.
type GoalStatus string

const (
	GoalStatusActive    GoalStatus = "active"
	GoalStatusCompleted GoalStatus = "completed"
	GoalStatusFailed    GoalStatus = "failed"
)

// Goal is a savings goal. Its saved amount changes only through reconciliation
// engine deposit, withdrawal, and refund operations, never directly, and is
// always within [0, TargetAmount].
type Goal struct {
	ID           uuid.UUID  `json:"id"`
	AccountID    string     `json:"account_id"`
	Title        string     `json:"title"`
	TargetAmount int64      `json:"target_amount"` // minor currency units, > 0
	SavedAmount  int64      `json:"saved_amount"`  // 0 <= saved <= target
	Status       GoalStatus `json:"status"`
	StartAt      time.Time  `json:"start_at"`
	EndAt        time.Time  `json:"end_at"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

// Remaining returns the amount still needed to reach the target.
func (g *Goal) Remaining() int64 {
	remaining := g.TargetAmount - g.SavedAmount
	if remaining < 0 {
		return 0
	}
	return remaining
}

// Saturated reports whether the saved amount has reached the target. A
// saturated goal is eligible for completion but is never completed
// automatically.
func (g *Goal) Saturated() bool {
	return g.SavedAmount >= g.TargetAmount
}

// CreateGoalRequest is the DTO for creating a goal. StartAt defaults to the
// current time when zero; EndAt must be strictly in the future.
type CreateGoalRequest struct {
	Title        string    `json:"title"`
	TargetAmount int64     `json:"target_amount"`
	StartAt      time.Time `json:"start_at,omitempty"`
	EndAt        time.Time `json:"end_at"`
}

// GoalDeletionResult reports the outcome of deleting a goal. RefundTransaction
// is the compensating withdrawal booked when the goal still held savings, nil
// otherwise.
type GoalDeletionResult struct {
	GoalID            uuid.UUID    `json:"goal_id"`
	RefundTransaction *Transaction `json:"refund_transaction,omitempty"`
}

// GoalHistory lists every transaction ever linked to a goal together with its
// deposit/withdrawal aggregates. History remains queryable after the goal row
// itself has been deleted; Goal is nil in that case.
type GoalHistory struct {
	Goal             *Goal         `json:"goal,omitempty"`
	Transactions     []Transaction `json:"transactions"`
	TotalDeposit     int64         `json:"total_deposit"`
	TotalWithdrawal  int64         `json:"total_withdrawal"`
	TransactionCount int64         `json:"transaction_count"`
}
