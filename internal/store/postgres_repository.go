/**
 * @description
 * This file provides the PostgreSQL implementation of the `Repository`
 * interface for accounts and categories. Compound mutations run inside pgx
 * transactions with `SELECT ... FOR UPDATE` on the account row, which is the
 * per-account serialization point: no two mutations on one account ever
 * observe the same balance snapshot.
 *
 * @dependencies
 * - context, errors, fmt, time: Standard Go libraries.
 * - github.com/jackc/pgx/v5: The PostgreSQL driver for database operations.
 * - internal/domain: Contains the domain models and typed errors.
 */

package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/finbook/ledger-service/internal/domain"
)

// PostgresRepository is a concrete implementation of the Repository interface
// for PostgreSQL.
type PostgresRepository struct {
	db *pgxpool.Pool
}

// NewPostgresRepository creates a new instance of PostgresRepository.
func NewPostgresRepository(db *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// EnsureAccount inserts the account row if it does not exist yet and seeds the
// protected default categories for it. Safe to call on every request.
func (r *PostgresRepository) EnsureAccount(ctx context.Context, accountID string) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	result, err := tx.Exec(ctx,
		"INSERT INTO accounts (id) VALUES ($1) ON CONFLICT (id) DO NOTHING", accountID)
	if err != nil {
		return err
	}
	if result.RowsAffected() == 1 {
		for _, seed := range domain.DefaultCategories {
			if _, err := tx.Exec(ctx,
				"INSERT INTO categories (id, account_id, name, kind, is_default) VALUES ($1, $2, $3, $4, TRUE)",
				uuid.New(), accountID, seed.Name, seed.Kind,
			); err != nil {
				return fmt.Errorf("seed default category %q: %w", seed.Name, err)
			}
		}
	}

	return tx.Commit(ctx)
}

// InitializeBalance sets the account balance exactly once.
func (r *PostgresRepository) InitializeBalance(ctx context.Context, accountID string, amount int64) (*domain.Account, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	var initialized bool
	err = tx.QueryRow(ctx,
		"SELECT initialized FROM accounts WHERE id = $1 FOR UPDATE", accountID).Scan(&initialized)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	if initialized {
		return nil, domain.ErrAlreadyInitialized
	}

	var account domain.Account
	err = tx.QueryRow(ctx, `
		UPDATE accounts
		SET balance = $2, initialized = TRUE, initialized_at = NOW(), updated_at = NOW()
		WHERE id = $1
		RETURNING id, balance, initialized, initialized_at, created_at, updated_at
	`, accountID, amount).Scan(
		&account.ID, &account.Balance, &account.Initialized,
		&account.InitializedAt, &account.CreatedAt, &account.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return &account, nil
}

// GetAccount returns the latest committed account state. Pure read, no lock.
func (r *PostgresRepository) GetAccount(ctx context.Context, accountID string) (*domain.Account, error) {
	var account domain.Account
	err := r.db.QueryRow(ctx, `
		SELECT id, balance, initialized, initialized_at, created_at, updated_at
		FROM accounts WHERE id = $1
	`, accountID).Scan(
		&account.ID, &account.Balance, &account.Initialized,
		&account.InitializedAt, &account.CreatedAt, &account.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return &account, nil
}

// CreateCategory inserts a user-created category. No uniqueness on name.
func (r *PostgresRepository) CreateCategory(ctx context.Context, accountID string, name string, kind domain.CategoryKind) (*domain.Category, error) {
	var category domain.Category
	err := r.db.QueryRow(ctx, `
		INSERT INTO categories (id, account_id, name, kind, is_default)
		VALUES ($1, $2, $3, $4, FALSE)
		RETURNING id, account_id, name, kind, is_default, created_at
	`, uuid.New(), accountID, name, kind).Scan(
		&category.ID, &category.AccountID, &category.Name,
		&category.Kind, &category.IsDefault, &category.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &category, nil
}

// DeleteCategory removes a user category. Seeded defaults are protected, and
// categories referenced by booked transactions are kept to preserve
// referential integrity of the log.
func (r *PostgresRepository) DeleteCategory(ctx context.Context, accountID string, categoryID uuid.UUID) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	var isDefault bool
	err = tx.QueryRow(ctx,
		"SELECT is_default FROM categories WHERE id = $1 AND account_id = $2 FOR UPDATE",
		categoryID, accountID).Scan(&isDefault)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.ErrNotFound
		}
		return err
	}
	if isDefault {
		return domain.ErrProtectedCategory
	}

	var inUse bool
	err = tx.QueryRow(ctx,
		"SELECT EXISTS (SELECT 1 FROM transactions WHERE category_id = $1)", categoryID).Scan(&inUse)
	if err != nil {
		return err
	}
	if inUse {
		return domain.ErrCategoryInUse
	}

	if _, err := tx.Exec(ctx,
		"DELETE FROM categories WHERE id = $1 AND account_id = $2", categoryID, accountID); err != nil {
		return err
	}

	return tx.Commit(ctx)
}

// ListCategories returns all categories for an account, defaults first.
func (r *PostgresRepository) ListCategories(ctx context.Context, accountID string) ([]domain.Category, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, account_id, name, kind, is_default, created_at
		FROM categories
		WHERE account_id = $1
		ORDER BY is_default DESC, created_at ASC
	`, accountID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var categories []domain.Category
	for rows.Next() {
		var category domain.Category
		if err := rows.Scan(
			&category.ID, &category.AccountID, &category.Name,
			&category.Kind, &category.IsDefault, &category.CreatedAt,
		); err != nil {
			return nil, err
		}
		categories = append(categories, category)
	}
	return categories, rows.Err()
}

// lockAccount reads the account row under FOR UPDATE inside an open
// transaction. Every compound mutation starts here.
func lockAccount(ctx context.Context, tx pgx.Tx, accountID string) (balance int64, initialized bool, err error) {
	err = tx.QueryRow(ctx,
		"SELECT balance, initialized FROM accounts WHERE id = $1 FOR UPDATE", accountID).
		Scan(&balance, &initialized)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, false, domain.ErrNotFound
	}
	return balance, initialized, err
}

// lockGoal reads a goal row under FOR UPDATE inside an open transaction. The
// account row must already be locked; locking in that fixed order keeps
// concurrent compound mutations deadlock-free.
func lockGoal(ctx context.Context, tx pgx.Tx, accountID string, goalID uuid.UUID) (*domain.Goal, error) {
	var goal domain.Goal
	err := tx.QueryRow(ctx, `
		SELECT id, account_id, title, target_amount, saved_amount, status, start_at, end_at, created_at, updated_at
		FROM goals
		WHERE id = $1 AND account_id = $2
		FOR UPDATE
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

// applyBalanceDelta adjusts the locked account row. The schema's non-negative
// check backs up the planning logic.
func applyBalanceDelta(ctx context.Context, tx pgx.Tx, accountID string, delta int64) error {
	if delta == 0 {
		return nil
	}
	_, err := tx.Exec(ctx,
		"UPDATE accounts SET balance = balance + $1, updated_at = NOW() WHERE id = $2", delta, accountID)
	return err
}

// applyGoalDelta adjusts the locked goal row's saved amount.
func applyGoalDelta(ctx context.Context, tx pgx.Tx, goalID uuid.UUID, delta int64) error {
	if delta == 0 {
		return nil
	}
	_, err := tx.Exec(ctx,
		"UPDATE goals SET saved_amount = saved_amount + $1, updated_at = NOW() WHERE id = $2", delta, goalID)
	return err
}

// insertTransaction appends one record to the transaction log.
func insertTransaction(ctx context.Context, tx pgx.Tx, record *domain.Transaction) error {
	return tx.QueryRow(ctx, `
		INSERT INTO transactions (id, account_id, kind, amount, category_id, goal_id, name, note, transaction_date)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING created_at
	`,
		record.ID, record.AccountID, record.Kind, record.Amount,
		record.CategoryID, record.GoalID, record.Name, record.Note, record.TransactionDate,
	).Scan(&record.CreatedAt)
}

// normalizeTransactionDate defaults a zero transaction date to now.
func normalizeTransactionDate(d time.Time) time.Time {
	if d.IsZero() {
		return time.Now().UTC()
	}
	return d
}
