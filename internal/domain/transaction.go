/**
 * @description
 * This file defines the transaction log entity and the intent DTO the
 * reconciliation engine accepts. A transaction is immutable once committed
 * except for deletion, which reverses its financial effect.
 *
 * @notes
 * - An INCOME transaction with a populated goal id is a deposit into that
 *   goal, not ordinary income: it debits the balance and credits the goal.
 * - A transaction references at most one of category or goal, never both.
 */

package domain

import (
	"time"

	"github.com/google/uuid"
)

// TransactionKind classifies the financial effect of a transaction.
type TransactionKind string

const (
	TransactionKindIncome     TransactionKind = "income"
	TransactionKindExpense    TransactionKind = "expense"
	TransactionKindWithdrawal TransactionKind = "withdrawal"
)

// Valid reports whether the kind is one of the known transaction kinds.
func (k TransactionKind) Valid() bool {
	switch k {
	case TransactionKindIncome, TransactionKindExpense, TransactionKindWithdrawal:
		return true
	}
	return false
}

// Transaction is one booked entry in the append-mostly transaction log. This
// struct maps directly to the `transactions` table.
type Transaction struct {
	ID              uuid.UUID       `json:"id"`
	AccountID       string          `json:"account_id"`
	Kind            TransactionKind `json:"kind"`
	Amount          int64           `json:"amount"` // minor currency units, > 0
	CategoryID      *uuid.UUID      `json:"category_id,omitempty"`
	GoalID          *uuid.UUID      `json:"goal_id,omitempty"`
	Name            string          `json:"name"`
	Note            string          `json:"note,omitempty"`
	TransactionDate time.Time       `json:"transaction_date"`
	CreatedAt       time.Time       `json:"created_at"`
}

// IsDeposit reports whether the transaction is a goal deposit.
func (t *Transaction) IsDeposit() bool {
	return t.Kind == TransactionKindIncome && t.GoalID != nil
}

// TransactionIntent is the caller-supplied request to book a transaction. The
// engine validates its shape up front and re-validates its financial effect
// against authoritative state inside the serialized section.
type TransactionIntent struct {
	Kind            TransactionKind `json:"kind"`
	Amount          int64           `json:"amount"`
	CategoryID      *uuid.UUID      `json:"category_id,omitempty"`
	GoalID          *uuid.UUID      `json:"goal_id,omitempty"`
	Name            string          `json:"name"`
	Note            string          `json:"note,omitempty"`
	TransactionDate time.Time       `json:"transaction_date"`
}

// Validate checks the intent's shape: positive amount, a known kind, and a
// consistent category/goal linkage. Financial feasibility is checked later,
// against current committed state only.
func (i *TransactionIntent) Validate() error {
	if !i.Kind.Valid() {
		return ErrInvalidReference
	}
	if i.Amount <= 0 {
		return ErrInvalidAmount
	}
	if i.CategoryID != nil && i.GoalID != nil {
		return ErrInvalidReference
	}
	switch i.Kind {
	case TransactionKindWithdrawal:
		if i.GoalID == nil {
			return ErrInvalidReference
		}
	case TransactionKindExpense:
		if i.GoalID != nil || i.CategoryID == nil {
			return ErrInvalidReference
		}
	case TransactionKindIncome:
		if i.GoalID == nil && i.CategoryID == nil {
			return ErrInvalidReference
		}
	}
	return nil
}

// TransactionListOptions controls date filtering and pagination for the
// transaction log. Page is 1-based; Size is fixed per call.
type TransactionListOptions struct {
	From *time.Time
	To   *time.Time
	Page int
	Size int
}

// TransactionPage is one page of the transaction log, ordered descending by
// transaction date, together with the total count for pagination UIs.
type TransactionPage struct {
	Transactions []Transaction `json:"transactions"`
	Page         int           `json:"page"`
	Size         int           `json:"size"`
	TotalCount   int64         `json:"total_count"`
}

// MonthlySummary aggregates committed transactions within one calendar month.
// Goal deposits are excluded from monthly income: they move money between the
// ledger and a goal rather than earning it.
type MonthlySummary struct {
	AccountID      string  `json:"account_id"`
	Year           int     `json:"year"`
	Month          int     `json:"month"`
	MonthlyIncome  int64   `json:"monthly_income"`
	MonthlyExpense int64   `json:"monthly_expense"`
	SavingRate     float64 `json:"saving_rate"`
}
