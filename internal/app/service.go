/**
 * @description
 * This file contains the core business logic of the reconciliation engine. The
 * `Service` struct validates incoming intents, drives the serialized compound
 * mutations through the repository, and publishes events after commits.
 *
 * Key features:
 * - One authoritative validation path: callers' client-side checks are
 *   advisory only; every financial check is re-run against committed state
 *   inside the repository's serialized section.
 * - Mutations run on a context detached from the request, so a caller
 *   disconnect after validation never leaves a half-applied operation.
 * - Publishes ledger events to RabbitMQ for asynchronous consumers.
 *
 * @dependencies
 * - context, log, strings, time: Standard Go libraries.
 * - github.com/google/uuid: For entity ids.
 * - internal/domain, internal/store: For domain models and data access.
 * - pkg/rabbitmq: For event publication.
 */

package app

import (
	"context"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/finbook/ledger-service/internal/domain"
	"github.com/finbook/ledger-service/internal/store"
	"github.com/finbook/ledger-service/pkg/rabbitmq"
)

const (
	eventExchange = "finbook.events"

	routingTransactionBooked   = "ledger.transaction.booked"
	routingTransactionReversed = "ledger.transaction.reversed"
	routingGoalCompleted       = "ledger.goal.completed"
	routingGoalDeleted         = "ledger.goal.deleted"
)

// Service provides the core business logic of the reconciliation engine.
type Service struct {
	repo          store.Repository
	eventProducer rabbitmq.Publisher
	overflow      domain.OverflowPolicy
}

// NewService creates a new engine service instance. An unknown overflow policy
// falls back to the observed discard behavior.
func NewService(repo store.Repository, producer rabbitmq.Publisher, overflow domain.OverflowPolicy) *Service {
	if !overflow.Valid() {
		overflow = domain.OverflowDiscard
	}
	return &Service{
		repo:          repo,
		eventProducer: producer,
		overflow:      overflow,
	}
}

// mutationContext detaches a compound mutation from the caller's cancellation:
// once validation passed, the operation runs to completion or rolls back
// atomically, never stopping half-applied because the caller went away.
func mutationContext(ctx context.Context) context.Context {
	return context.WithoutCancel(ctx)
}

func (s *Service) publish(routingKey string, body interface{}) {
	if s.eventProducer == nil {
		return
	}
	if err := s.eventProducer.Publish(context.Background(), eventExchange, routingKey, body); err != nil {
		log.Printf("level=warn component=engine msg=\"event publish failed\" routing_key=%s err=%v", routingKey, err)
	}
}

// InitializeBalance sets the account's starting balance. Succeeds exactly once
// per account.
func (s *Service) InitializeBalance(ctx context.Context, accountID string, amount int64) (*domain.Account, error) {
	if amount <= 0 {
		return nil, domain.ErrInvalidAmount
	}
	if err := s.repo.EnsureAccount(ctx, accountID); err != nil {
		return nil, err
	}

	account, err := s.repo.InitializeBalance(mutationContext(ctx), accountID, amount)
	if err != nil {
		return nil, err
	}
	log.Printf("level=info component=engine op=initialize_balance account_id=%s balance=%d", accountID, account.Balance)
	return account, nil
}

// GetBalance returns the latest committed balance. Accounts the engine has
// never seen report a zero, uninitialized balance.
func (s *Service) GetBalance(ctx context.Context, accountID string) (*domain.BalanceResponse, error) {
	if err := s.repo.EnsureAccount(ctx, accountID); err != nil {
		return nil, err
	}
	account, err := s.repo.GetAccount(ctx, accountID)
	if err != nil {
		return nil, err
	}
	return &domain.BalanceResponse{
		AccountID:   account.ID,
		Balance:     account.Balance,
		Initialized: account.Initialized,
	}, nil
}

// CreateCategory registers a user-created classification label.
func (s *Service) CreateCategory(ctx context.Context, accountID string, req domain.CreateCategoryRequest) (*domain.Category, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" || !req.Kind.Valid() {
		return nil, domain.ErrInvalidReference
	}
	if err := s.repo.EnsureAccount(ctx, accountID); err != nil {
		return nil, err
	}
	return s.repo.CreateCategory(ctx, accountID, name, req.Kind)
}

// DeleteCategory removes a user category; defaults and categories referenced
// by booked transactions are refused.
func (s *Service) DeleteCategory(ctx context.Context, accountID string, categoryID uuid.UUID) error {
	return s.repo.DeleteCategory(mutationContext(ctx), accountID, categoryID)
}

// ListCategories returns the account's categories.
func (s *Service) ListCategories(ctx context.Context, accountID string) ([]domain.Category, error) {
	if err := s.repo.EnsureAccount(ctx, accountID); err != nil {
		return nil, err
	}
	return s.repo.ListCategories(ctx, accountID)
}

// CreateGoal opens a new active savings goal. The deadline must be strictly in
// the future and after the start date.
func (s *Service) CreateGoal(ctx context.Context, accountID string, req domain.CreateGoalRequest) (*domain.Goal, error) {
	title := strings.TrimSpace(req.Title)
	if title == "" {
		return nil, domain.ErrInvalidReference
	}
	if req.TargetAmount <= 0 {
		return nil, domain.ErrInvalidAmount
	}

	now := time.Now().UTC()
	startAt := req.StartAt
	if startAt.IsZero() {
		startAt = now
	}
	if !req.EndAt.After(now) || !req.EndAt.After(startAt) {
		return nil, domain.ErrInvalidDateRange
	}

	if err := s.repo.EnsureAccount(ctx, accountID); err != nil {
		return nil, err
	}

	goal := &domain.Goal{
		ID:           uuid.New(),
		AccountID:    accountID,
		Title:        title,
		TargetAmount: req.TargetAmount,
		Status:       domain.GoalStatusActive,
		StartAt:      startAt,
		EndAt:        req.EndAt,
	}
	if err := s.repo.CreateGoal(ctx, goal); err != nil {
		return nil, err
	}
	log.Printf("level=info component=engine op=create_goal account_id=%s goal_id=%s target=%d", accountID, goal.ID, goal.TargetAmount)
	return goal, nil
}

// ListGoals returns the account's goals.
func (s *Service) ListGoals(ctx context.Context, accountID string) ([]domain.Goal, error) {
	if err := s.repo.EnsureAccount(ctx, accountID); err != nil {
		return nil, err
	}
	return s.repo.ListGoals(ctx, accountID)
}

// ConfirmGoalCompletion transitions an eligible goal to completed. Completion
// is never automatic; reaching the target only makes the goal eligible.
func (s *Service) ConfirmGoalCompletion(ctx context.Context, accountID string, goalID uuid.UUID) (*domain.Goal, error) {
	goal, err := s.repo.ConfirmGoalCompletion(mutationContext(ctx), accountID, goalID)
	if err != nil {
		return nil, err
	}

	log.Printf("level=info component=engine op=confirm_goal account_id=%s goal_id=%s saved=%d", accountID, goalID, goal.SavedAmount)
	s.publish(routingGoalCompleted, domain.GoalCompletedEvent{
		GoalID:       goal.ID,
		AccountID:    accountID,
		TargetAmount: goal.TargetAmount,
		Timestamp:    time.Now().UTC(),
	})
	return goal, nil
}

// DeleteGoal removes a non-completed goal, refunding any saved amount back to
// the ledger through a compensating withdrawal in the same atomic step.
func (s *Service) DeleteGoal(ctx context.Context, accountID string, goalID uuid.UUID) (*domain.GoalDeletionResult, error) {
	result, err := s.repo.DeleteGoalWithRefund(mutationContext(ctx), accountID, goalID)
	if err != nil {
		return nil, err
	}

	var refunded int64
	if result.RefundTransaction != nil {
		refunded = result.RefundTransaction.Amount
	}
	log.Printf("level=info component=engine op=delete_goal account_id=%s goal_id=%s refunded=%d", accountID, goalID, refunded)
	s.publish(routingGoalDeleted, domain.GoalDeletedEvent{
		GoalID:         goalID,
		AccountID:      accountID,
		RefundedAmount: refunded,
		Timestamp:      time.Now().UTC(),
	})
	return result, nil
}

// CreateTransaction validates the intent's shape, then books it through the
// per-account serialized section.
func (s *Service) CreateTransaction(ctx context.Context, accountID string, intent domain.TransactionIntent) (*domain.Transaction, error) {
	if err := intent.Validate(); err != nil {
		return nil, err
	}
	if strings.TrimSpace(intent.Name) == "" {
		return nil, domain.ErrInvalidReference
	}
	if err := s.repo.EnsureAccount(ctx, accountID); err != nil {
		return nil, err
	}

	record, err := s.repo.ApplyTransaction(mutationContext(ctx), accountID, intent, s.overflow)
	if err != nil {
		return nil, err
	}

	log.Printf("level=info component=engine op=create_transaction account_id=%s transaction_id=%s kind=%s amount=%d", accountID, record.ID, record.Kind, record.Amount)
	s.publish(routingTransactionBooked, domain.TransactionBookedEvent{
		TransactionID: record.ID,
		AccountID:     accountID,
		Kind:          record.Kind,
		Amount:        record.Amount,
		GoalID:        record.GoalID,
		Timestamp:     time.Now().UTC(),
	})
	return record, nil
}

// DeleteTransaction removes a booked transaction, reversing its financial
// effect atomically so the replay invariant keeps holding.
func (s *Service) DeleteTransaction(ctx context.Context, accountID string, transactionID uuid.UUID) (*domain.Transaction, error) {
	record, err := s.repo.ReverseTransaction(mutationContext(ctx), accountID, transactionID)
	if err != nil {
		return nil, err
	}

	log.Printf("level=info component=engine op=delete_transaction account_id=%s transaction_id=%s kind=%s amount=%d", accountID, record.ID, record.Kind, record.Amount)
	s.publish(routingTransactionReversed, domain.TransactionReversedEvent{
		TransactionID: record.ID,
		AccountID:     accountID,
		Kind:          record.Kind,
		Amount:        record.Amount,
		Timestamp:     time.Now().UTC(),
	})
	return record, nil
}

// ListTransactions returns one page of the committed transaction log.
func (s *Service) ListTransactions(ctx context.Context, accountID string, opts domain.TransactionListOptions) (*domain.TransactionPage, error) {
	if err := s.repo.EnsureAccount(ctx, accountID); err != nil {
		return nil, err
	}
	return s.repo.ListTransactions(ctx, accountID, opts)
}

// GoalHistory returns a goal's transactions and aggregates.
func (s *Service) GoalHistory(ctx context.Context, accountID string, goalID uuid.UUID) (*domain.GoalHistory, error) {
	return s.repo.GoalHistory(ctx, accountID, goalID)
}

// MonthlySummary aggregates committed transactions over one calendar month.
func (s *Service) MonthlySummary(ctx context.Context, accountID string, year int, month time.Month) (*domain.MonthlySummary, error) {
	if month < time.January || month > time.December || year < 1 {
		return nil, domain.ErrInvalidDateRange
	}
	if err := s.repo.EnsureAccount(ctx, accountID); err != nil {
		return nil, err
	}
	return s.repo.MonthlySummary(ctx, accountID, year, month)
}

// FailExpiredGoals flips past-deadline active goals to failed. Called by the
// external deadline watcher through the internal API surface; this service
// never runs it on its own timer.
func (s *Service) FailExpiredGoals(ctx context.Context) (int64, error) {
	count, err := s.repo.FailExpiredGoals(ctx, time.Now().UTC())
	if err != nil {
		return 0, err
	}
	if count > 0 {
		log.Printf("level=info component=engine op=fail_expired_goals count=%d", count)
	}
	return count, nil
}
