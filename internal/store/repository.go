/**
 * @description
 * This file defines the `Repository` interface, the contract for all data
 * access the reconciliation engine needs. Every mutating method that touches
 * the (balance, goal, transaction log) triple is a single atomic compound
 * operation serialized per account; the interface decouples the engine from
 * the PostgreSQL implementation and lets tests substitute a stateful fake.
 *
 * @dependencies
 * - context, time: Standard Go libraries.
 * - github.com/google/uuid: For entity ids.
 * - internal/domain: For the engine's domain models.
 */

package store

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/finbook/ledger-service/internal/domain"
)

// Repository defines the set of methods for interacting with the database.
type Repository interface {
	// Account ledger
	// EnsureAccount creates the account row on first use and seeds the
	// default categories. It is idempotent.
	EnsureAccount(ctx context.Context, accountID string) error
	InitializeBalance(ctx context.Context, accountID string, amount int64) (*domain.Account, error)
	GetAccount(ctx context.Context, accountID string) (*domain.Account, error)

	// Category registry
	CreateCategory(ctx context.Context, accountID string, name string, kind domain.CategoryKind) (*domain.Category, error)
	DeleteCategory(ctx context.Context, accountID string, categoryID uuid.UUID) error
	ListCategories(ctx context.Context, accountID string) ([]domain.Category, error)

	// Goal store
	CreateGoal(ctx context.Context, goal *domain.Goal) error
	GetGoal(ctx context.Context, accountID string, goalID uuid.UUID) (*domain.Goal, error)
	ListGoals(ctx context.Context, accountID string) ([]domain.Goal, error)
	ConfirmGoalCompletion(ctx context.Context, accountID string, goalID uuid.UUID) (*domain.Goal, error)
	// DeleteGoalWithRefund atomically books a compensating withdrawal for the
	// goal's saved amount (when positive) and removes the goal. The returned
	// transaction is nil when nothing was saved.
	DeleteGoalWithRefund(ctx context.Context, accountID string, goalID uuid.UUID) (*domain.GoalDeletionResult, error)
	// FailExpiredGoals flips past-deadline active goals to failed. Invoked by
	// the external deadline watcher through the internal API surface.
	FailExpiredGoals(ctx context.Context, now time.Time) (int64, error)

	// Reconciliation engine and transaction log
	// ApplyTransaction runs the full serialized booking: lock account row,
	// lock goal row when linked, re-validate against committed state, apply
	// the balance/goal deltas, and append the log record, all in one database
	// transaction.
	ApplyTransaction(ctx context.Context, accountID string, intent domain.TransactionIntent, policy domain.OverflowPolicy) (*domain.Transaction, error)
	// ReverseTransaction deletes a booked transaction and undoes its
	// financial effect in the same database transaction.
	ReverseTransaction(ctx context.Context, accountID string, transactionID uuid.UUID) (*domain.Transaction, error)
	ListTransactions(ctx context.Context, accountID string, opts domain.TransactionListOptions) (*domain.TransactionPage, error)
	GoalHistory(ctx context.Context, accountID string, goalID uuid.UUID) (*domain.GoalHistory, error)
	MonthlySummary(ctx context.Context, accountID string, year int, month time.Month) (*domain.MonthlySummary, error)
}
