/**
 * @description
 * PostgreSQL implementation of the reconciliation engine's booking path and
 * the transaction log queries. ApplyTransaction and ReverseTransaction are the
 * two serialized compound mutations: they lock the account row first, the goal
 * row second, re-validate against that authoritative state, and commit the
 * ledger delta, goal delta, and log change together.
 */

package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/finbook/ledger-service/internal/domain"
)

// ApplyTransaction books one transaction intent atomically.
func (r *PostgresRepository) ApplyTransaction(ctx context.Context, accountID string, intent domain.TransactionIntent, policy domain.OverflowPolicy) (*domain.Transaction, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	balance, initialized, err := lockAccount(ctx, tx, accountID)
	if err != nil {
		return nil, err
	}
	if !initialized {
		return nil, domain.ErrNotInitialized
	}

	if intent.CategoryID != nil {
		var kind domain.CategoryKind
		err := tx.QueryRow(ctx,
			"SELECT kind FROM categories WHERE id = $1 AND account_id = $2",
			*intent.CategoryID, accountID).Scan(&kind)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return nil, domain.ErrNotFound
			}
			return nil, err
		}
		if !kind.Admits(intent.Kind) {
			return nil, domain.ErrInvalidReference
		}
	}

	var goal *domain.Goal
	if intent.GoalID != nil {
		goal, err = lockGoal(ctx, tx, accountID, *intent.GoalID)
		if err != nil {
			return nil, err
		}
	}

	plan, err := domain.PlanTransaction(intent.Kind, intent.Amount, balance, goal, policy)
	if err != nil {
		return nil, err
	}

	if err := applyBalanceDelta(ctx, tx, accountID, plan.BalanceDelta); err != nil {
		return nil, err
	}
	if goal != nil {
		if err := applyGoalDelta(ctx, tx, goal.ID, plan.GoalDelta); err != nil {
			return nil, err
		}
	}

	record := &domain.Transaction{
		ID:              uuid.New(),
		AccountID:       accountID,
		Kind:            intent.Kind,
		Amount:          plan.BookedAmount,
		CategoryID:      intent.CategoryID,
		GoalID:          intent.GoalID,
		Name:            intent.Name,
		Note:            intent.Note,
		TransactionDate: normalizeTransactionDate(intent.TransactionDate),
	}
	if err := insertTransaction(ctx, tx, record); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return record, nil
}

// ReverseTransaction deletes a booked transaction and undoes its financial
// effect in the same database transaction. Goal-linked records require the
// goal row to still exist.
func (r *PostgresRepository) ReverseTransaction(ctx context.Context, accountID string, transactionID uuid.UUID) (*domain.Transaction, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	balance, _, err := lockAccount(ctx, tx, accountID)
	if err != nil {
		return nil, err
	}

	var record domain.Transaction
	err = tx.QueryRow(ctx, `
		SELECT id, account_id, kind, amount, category_id, goal_id, name, note, transaction_date, created_at
		FROM transactions
		WHERE id = $1 AND account_id = $2
		FOR UPDATE
	`, transactionID, accountID).Scan(
		&record.ID, &record.AccountID, &record.Kind, &record.Amount,
		&record.CategoryID, &record.GoalID, &record.Name, &record.Note,
		&record.TransactionDate, &record.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}

	var goal *domain.Goal
	if record.GoalID != nil {
		goal, err = lockGoal(ctx, tx, accountID, *record.GoalID)
		if err != nil && !errors.Is(err, domain.ErrNotFound) {
			return nil, err
		}
		// A missing goal row leaves goal nil; PlanReversal refuses the
		// reversal so the earlier deletion refund is never double-counted.
	}

	plan, err := domain.PlanReversal(&record, balance, goal)
	if err != nil {
		return nil, err
	}

	if err := applyBalanceDelta(ctx, tx, accountID, plan.BalanceDelta); err != nil {
		return nil, err
	}
	if goal != nil {
		if err := applyGoalDelta(ctx, tx, goal.ID, plan.GoalDelta); err != nil {
			return nil, err
		}
	}
	if _, err := tx.Exec(ctx, "DELETE FROM transactions WHERE id = $1", transactionID); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return &record, nil
}

// ListTransactions returns one page of the log, newest first, with the total
// count for pagination UIs. Reads only committed state, no locks.
func (r *PostgresRepository) ListTransactions(ctx context.Context, accountID string, opts domain.TransactionListOptions) (*domain.TransactionPage, error) {
	page, size := normalizePagination(opts.Page, opts.Size)

	where := "WHERE account_id = $1"
	args := []interface{}{accountID}
	if opts.From != nil {
		args = append(args, *opts.From)
		where += fmt.Sprintf(" AND transaction_date >= $%d", len(args))
	}
	if opts.To != nil {
		args = append(args, *opts.To)
		where += fmt.Sprintf(" AND transaction_date <= $%d", len(args))
	}

	var total int64
	if err := r.db.QueryRow(ctx, "SELECT COUNT(*) FROM transactions "+where, args...).Scan(&total); err != nil {
		return nil, err
	}

	query := fmt.Sprintf(`
		SELECT id, account_id, kind, amount, category_id, goal_id, name, note, transaction_date, created_at
		FROM transactions
		%s
		ORDER BY transaction_date DESC, created_at DESC, id DESC
		LIMIT $%d OFFSET $%d
	`, where, len(args)+1, len(args)+2)
	args = append(args, size, (page-1)*size)

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	transactions := make([]domain.Transaction, 0, size)
	for rows.Next() {
		var record domain.Transaction
		if err := rows.Scan(
			&record.ID, &record.AccountID, &record.Kind, &record.Amount,
			&record.CategoryID, &record.GoalID, &record.Name, &record.Note,
			&record.TransactionDate, &record.CreatedAt,
		); err != nil {
			return nil, err
		}
		transactions = append(transactions, record)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return &domain.TransactionPage{
		Transactions: transactions,
		Page:         page,
		Size:         size,
		TotalCount:   total,
	}, nil
}

// GoalHistory returns every transaction ever linked to a goal together with
// deposit/withdrawal aggregates. History survives goal deletion; the goal
// snapshot is nil then. Unknown goal ids with no history are NotFound.
func (r *PostgresRepository) GoalHistory(ctx context.Context, accountID string, goalID uuid.UUID) (*domain.GoalHistory, error) {
	history := &domain.GoalHistory{Transactions: []domain.Transaction{}}

	goal, err := r.GetGoal(ctx, accountID, goalID)
	if err != nil && !errors.Is(err, domain.ErrNotFound) {
		return nil, err
	}
	history.Goal = goal

	err = r.db.QueryRow(ctx, `
		SELECT
			COALESCE(SUM(amount) FILTER (WHERE kind = 'income'), 0) AS total_deposit,
			COALESCE(SUM(amount) FILTER (WHERE kind = 'withdrawal'), 0) AS total_withdrawal,
			COUNT(*) AS transaction_count
		FROM transactions
		WHERE goal_id = $1 AND account_id = $2
	`, goalID, accountID).Scan(&history.TotalDeposit, &history.TotalWithdrawal, &history.TransactionCount)
	if err != nil {
		return nil, err
	}
	if goal == nil && history.TransactionCount == 0 {
		return nil, domain.ErrNotFound
	}

	rows, err := r.db.Query(ctx, `
		SELECT id, account_id, kind, amount, category_id, goal_id, name, note, transaction_date, created_at
		FROM transactions
		WHERE goal_id = $1 AND account_id = $2
		ORDER BY transaction_date DESC, created_at DESC
	`, goalID, accountID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var record domain.Transaction
		if err := rows.Scan(
			&record.ID, &record.AccountID, &record.Kind, &record.Amount,
			&record.CategoryID, &record.GoalID, &record.Name, &record.Note,
			&record.TransactionDate, &record.CreatedAt,
		); err != nil {
			return nil, err
		}
		history.Transactions = append(history.Transactions, record)
	}
	return history, rows.Err()
}

// MonthlySummary aggregates committed transactions within one calendar month.
func (r *PostgresRepository) MonthlySummary(ctx context.Context, accountID string, year int, month time.Month) (*domain.MonthlySummary, error) {
	start, end := monthWindow(year, month)

	summary := &domain.MonthlySummary{
		AccountID: accountID,
		Year:      year,
		Month:     int(month),
	}
	err := r.db.QueryRow(ctx, `
		SELECT
			COALESCE(SUM(amount) FILTER (WHERE kind = 'income' AND goal_id IS NULL), 0) AS monthly_income,
			COALESCE(SUM(amount) FILTER (WHERE kind = 'expense'), 0) AS monthly_expense
		FROM transactions
		WHERE account_id = $1 AND transaction_date >= $2 AND transaction_date < $3
	`, accountID, start, end).Scan(&summary.MonthlyIncome, &summary.MonthlyExpense)
	if err != nil {
		return nil, err
	}

	summary.SavingRate = savingRate(summary.MonthlyIncome, summary.MonthlyExpense)
	return summary, nil
}

// normalizePagination clamps page/size to sane bounds, the same way the
// listing endpoints bound limit and offset.
func normalizePagination(page, size int) (int, int) {
	if page < 1 {
		page = 1
	}
	if size <= 0 {
		size = 20
	}
	if size > 100 {
		size = 100
	}
	return page, size
}

// monthWindow returns the [start, end) UTC bounds of a calendar month.
func monthWindow(year int, month time.Month) (time.Time, time.Time) {
	start := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	return start, start.AddDate(0, 1, 0)
}

// savingRate is (income - expense) / income, 0 when there is no income. It
// goes negative when the month spent more than it earned.
func savingRate(income, expense int64) float64 {
	if income <= 0 {
		return 0
	}
	return float64(income-expense) / float64(income)
}
