/**
 * @description
 * PostgreSQL implementation of the goal store: goal lifecycle plus the
 * atomic delete-with-refund compound operation, which credits the goal's
 * saved amount back to the ledger, books the compensating withdrawal, and
 * removes the goal in one database transaction.
 */

package store

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/finbook/ledger-service/internal/domain"
)

// CreateGoal inserts a new active goal. Date validation happens in the
// service layer before this call.
func (r *PostgresRepository) CreateGoal(ctx context.Context, goal *domain.Goal) error {
	return r.db.QueryRow(ctx, `
		INSERT INTO goals (id, account_id, title, target_amount, saved_amount, status, start_at, end_at)
		VALUES ($1, $2, $3, $4, 0, $5, $6, $7)
		RETURNING created_at, updated_at
	`,
		goal.ID, goal.AccountID, goal.Title, goal.TargetAmount,
		goal.Status, goal.StartAt, goal.EndAt,
	).Scan(&goal.CreatedAt, &goal.UpdatedAt)
}

// GetGoal returns the latest committed state of one goal.
func (r *PostgresRepository) GetGoal(ctx context.Context, accountID string, goalID uuid.UUID) (*domain.Goal, error) {
	var goal domain.Goal
	err := r.db.QueryRow(ctx, `
		SELECT id, account_id, title, target_amount, saved_amount, status, start_at, end_at, created_at, updated_at
		FROM goals
		WHERE id = $1 AND account_id = $2
	`, goalID, accountID).Scan(
		&goal.ID, &goal.AccountID, &goal.Title, &goal.TargetAmount, &goal.SavedAmount,
		&goal.Status, &goal.StartAt, &goal.EndAt, &goal.CreatedAt, &goal.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return &goal, nil
}

// ListGoals returns all goals for an account, newest first.
func (r *PostgresRepository) ListGoals(ctx context.Context, accountID string) ([]domain.Goal, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, account_id, title, target_amount, saved_amount, status, start_at, end_at, created_at, updated_at
		FROM goals
		WHERE account_id = $1
		ORDER BY created_at DESC
	`, accountID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var goals []domain.Goal
	for rows.Next() {
		var goal domain.Goal
		if err := rows.Scan(
			&goal.ID, &goal.AccountID, &goal.Title, &goal.TargetAmount, &goal.SavedAmount,
			&goal.Status, &goal.StartAt, &goal.EndAt, &goal.CreatedAt, &goal.UpdatedAt,
		); err != nil {
			return nil, err
		}
		goals = append(goals, goal)
	}
	return goals, rows.Err()
}

// ConfirmGoalCompletion transitions an eligible goal to completed. Reaching
// the target never completes a goal automatically; this explicit confirmation
// is the only path.
func (r *PostgresRepository) ConfirmGoalCompletion(ctx context.Context, accountID string, goalID uuid.UUID) (*domain.Goal, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	goal, err := lockGoal(ctx, tx, accountID, goalID)
	if err != nil {
		return nil, err
	}
	if goal.Status == domain.GoalStatusCompleted {
		return nil, domain.ErrAlreadyCompleted
	}
	if goal.Status != domain.GoalStatusActive || !goal.Saturated() {
		return nil, domain.ErrGoalNotEligible
	}

	err = tx.QueryRow(ctx, `
		UPDATE goals SET status = $2, updated_at = NOW() WHERE id = $1
		RETURNING status, updated_at
	`, goalID, domain.GoalStatusCompleted).Scan(&goal.Status, &goal.UpdatedAt)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return goal, nil
}

// DeleteGoalWithRefund removes a non-completed goal. When the goal still holds
// savings, the full saved amount is credited back to the ledger through a
// synthesized withdrawal transaction, in the same database transaction as the
// goal removal.
func (r *PostgresRepository) DeleteGoalWithRefund(ctx context.Context, accountID string, goalID uuid.UUID) (*domain.GoalDeletionResult, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	if _, _, err := lockAccount(ctx, tx, accountID); err != nil {
		return nil, err
	}
	goal, err := lockGoal(ctx, tx, accountID, goalID)
	if err != nil {
		return nil, err
	}
	if goal.Status == domain.GoalStatusCompleted {
		return nil, domain.ErrGoalCompleted
	}

	result := &domain.GoalDeletionResult{GoalID: goal.ID}
	if goal.SavedAmount > 0 {
		if err := applyBalanceDelta(ctx, tx, accountID, goal.SavedAmount); err != nil {
			return nil, err
		}
		refund := &domain.Transaction{
			ID:              uuid.New(),
			AccountID:       accountID,
			Kind:            domain.TransactionKindWithdrawal,
			Amount:          goal.SavedAmount,
			GoalID:          &goal.ID,
			Name:            "Refund: " + goal.Title,
			TransactionDate: time.Now().UTC(),
		}
		if err := insertTransaction(ctx, tx, refund); err != nil {
			return nil, err
		}
		result.RefundTransaction = refund
	}

	if _, err := tx.Exec(ctx, "DELETE FROM goals WHERE id = $1", goalID); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return result, nil
}

// FailExpiredGoals marks past-deadline active goals as failed and returns how
// many were flipped.
func (r *PostgresRepository) FailExpiredGoals(ctx context.Context, now time.Time) (int64, error) {
	result, err := r.db.Exec(ctx, `
		UPDATE goals SET status = $1, updated_at = NOW()
		WHERE status = $2 AND end_at < $3
	`, domain.GoalStatusFailed, domain.GoalStatusActive, now)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected(), nil
}
