package app

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/finbook/ledger-service/internal/domain"
)

// memoryRepo is a stateful, mutex-serialized stand-in for the PostgreSQL
// repository. It mirrors the store's compound-operation semantics so the
// engine's invariants can be exercised end to end without a database.
type memoryRepo struct {
	mu           sync.Mutex
	accounts     map[string]*domain.Account
	categories   map[uuid.UUID]*domain.Category
	goals        map[uuid.UUID]*domain.Goal
	transactions []*domain.Transaction
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{
		accounts:   make(map[string]*domain.Account),
		categories: make(map[uuid.UUID]*domain.Category),
		goals:      make(map[uuid.UUID]*domain.Goal),
	}
}

func (m *memoryRepo) EnsureAccount(ctx context.Context, accountID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.accounts[accountID]; ok {
		return nil
	}
	now := time.Now().UTC()
	m.accounts[accountID] = &domain.Account{ID: accountID, CreatedAt: now, UpdatedAt: now}
	for _, seed := range domain.DefaultCategories {
		id := uuid.New()
		m.categories[id] = &domain.Category{
			ID:        id,
			AccountID: accountID,
			Name:      seed.Name,
			Kind:      seed.Kind,
			IsDefault: true,
			CreatedAt: now,
		}
	}
	return nil
}

func (m *memoryRepo) InitializeBalance(ctx context.Context, accountID string, amount int64) (*domain.Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	account, ok := m.accounts[accountID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	if account.Initialized {
		return nil, domain.ErrAlreadyInitialized
	}
	now := time.Now().UTC()
	account.Balance = amount
	account.Initialized = true
	account.InitializedAt = &now
	account.UpdatedAt = now
	copied := *account
	return &copied, nil
}

func (m *memoryRepo) GetAccount(ctx context.Context, accountID string) (*domain.Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	account, ok := m.accounts[accountID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	copied := *account
	return &copied, nil
}

func (m *memoryRepo) CreateCategory(ctx context.Context, accountID string, name string, kind domain.CategoryKind) (*domain.Category, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	category := &domain.Category{
		ID:        uuid.New(),
		AccountID: accountID,
		Name:      name,
		Kind:      kind,
		CreatedAt: time.Now().UTC(),
	}
	m.categories[category.ID] = category
	copied := *category
	return &copied, nil
}

func (m *memoryRepo) DeleteCategory(ctx context.Context, accountID string, categoryID uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	category, ok := m.categories[categoryID]
	if !ok || category.AccountID != accountID {
		return domain.ErrNotFound
	}
	if category.IsDefault {
		return domain.ErrProtectedCategory
	}
	for _, tx := range m.transactions {
		if tx.CategoryID != nil && *tx.CategoryID == categoryID {
			return domain.ErrCategoryInUse
		}
	}
	delete(m.categories, categoryID)
	return nil
}

func (m *memoryRepo) ListCategories(ctx context.Context, accountID string) ([]domain.Category, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var categories []domain.Category
	for _, category := range m.categories {
		if category.AccountID == accountID {
			categories = append(categories, *category)
		}
	}
	sort.Slice(categories, func(i, j int) bool {
		if categories[i].IsDefault != categories[j].IsDefault {
			return categories[i].IsDefault
		}
		return categories[i].CreatedAt.Before(categories[j].CreatedAt)
	})
	return categories, nil
}

func (m *memoryRepo) CreateGoal(ctx context.Context, goal *domain.Goal) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := time.Now().UTC()
	goal.CreatedAt = now
	goal.UpdatedAt = now
	copied := *goal
	m.goals[goal.ID] = &copied
	return nil
}

func (m *memoryRepo) GetGoal(ctx context.Context, accountID string, goalID uuid.UUID) (*domain.Goal, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.getGoalLocked(accountID, goalID)
}

func (m *memoryRepo) getGoalLocked(accountID string, goalID uuid.UUID) (*domain.Goal, error) {
	goal, ok := m.goals[goalID]
	if !ok || goal.AccountID != accountID {
		return nil, domain.ErrNotFound
	}
	copied := *goal
	return &copied, nil
}

func (m *memoryRepo) ListGoals(ctx context.Context, accountID string) ([]domain.Goal, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var goals []domain.Goal
	for _, goal := range m.goals {
		if goal.AccountID == accountID {
			goals = append(goals, *goal)
		}
	}
	sort.Slice(goals, func(i, j int) bool { return goals[i].CreatedAt.After(goals[j].CreatedAt) })
	return goals, nil
}

func (m *memoryRepo) ConfirmGoalCompletion(ctx context.Context, accountID string, goalID uuid.UUID) (*domain.Goal, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	goal, ok := m.goals[goalID]
	if !ok || goal.AccountID != accountID {
		return nil, domain.ErrNotFound
	}
	if goal.Status == domain.GoalStatusCompleted {
		return nil, domain.ErrAlreadyCompleted
	}
	if goal.Status != domain.GoalStatusActive || !goal.Saturated() {
		return nil, domain.ErrGoalNotEligible
	}
	goal.Status = domain.GoalStatusCompleted
	goal.UpdatedAt = time.Now().UTC()
	copied := *goal
	return &copied, nil
}

func (m *memoryRepo) DeleteGoalWithRefund(ctx context.Context, accountID string, goalID uuid.UUID) (*domain.GoalDeletionResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	account, ok := m.accounts[accountID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	goal, ok := m.goals[goalID]
	if !ok || goal.AccountID != accountID {
		return nil, domain.ErrNotFound
	}
	if goal.Status == domain.GoalStatusCompleted {
		return nil, domain.ErrGoalCompleted
	}

	result := &domain.GoalDeletionResult{GoalID: goalID}
	if goal.SavedAmount > 0 {
		account.Balance += goal.SavedAmount
		refund := &domain.Transaction{
			ID:              uuid.New(),
			AccountID:       accountID,
			Kind:            domain.TransactionKindWithdrawal,
			Amount:          goal.SavedAmount,
			GoalID:          &goal.ID,
			Name:            "Refund: " + goal.Title,
			TransactionDate: time.Now().UTC(),
			CreatedAt:       time.Now().UTC(),
		}
		m.transactions = append(m.transactions, refund)
		copied := *refund
		result.RefundTransaction = &copied
	}
	delete(m.goals, goalID)
	return result, nil
}

func (m *memoryRepo) FailExpiredGoals(ctx context.Context, now time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var count int64
	for _, goal := range m.goals {
		if goal.Status == domain.GoalStatusActive && goal.EndAt.Before(now) {
			goal.Status = domain.GoalStatusFailed
			goal.UpdatedAt = now
			count++
		}
	}
	return count, nil
}

func (m *memoryRepo) ApplyTransaction(ctx context.Context, accountID string, intent domain.TransactionIntent, policy domain.OverflowPolicy) (*domain.Transaction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	account, ok := m.accounts[accountID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	if !account.Initialized {
		return nil, domain.ErrNotInitialized
	}

	if intent.CategoryID != nil {
		category, ok := m.categories[*intent.CategoryID]
		if !ok || category.AccountID != accountID {
			return nil, domain.ErrNotFound
		}
		if !category.Kind.Admits(intent.Kind) {
			return nil, domain.ErrInvalidReference
		}
	}

	var goal *domain.Goal
	if intent.GoalID != nil {
		stored, ok := m.goals[*intent.GoalID]
		if !ok || stored.AccountID != accountID {
			return nil, domain.ErrNotFound
		}
		goal = stored
	}

	plan, err := domain.PlanTransaction(intent.Kind, intent.Amount, account.Balance, goal, policy)
	if err != nil {
		return nil, err
	}

	account.Balance += plan.BalanceDelta
	if goal != nil {
		goal.SavedAmount += plan.GoalDelta
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
		TransactionDate: intent.TransactionDate,
		CreatedAt:       time.Now().UTC(),
	}
	if record.TransactionDate.IsZero() {
		record.TransactionDate = record.CreatedAt
	}
	m.transactions = append(m.transactions, record)
	copied := *record
	return &copied, nil
}

func (m *memoryRepo) ReverseTransaction(ctx context.Context, accountID string, transactionID uuid.UUID) (*domain.Transaction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	account, ok := m.accounts[accountID]
	if !ok {
		return nil, domain.ErrNotFound
	}

	index := -1
	for i, tx := range m.transactions {
		if tx.ID == transactionID && tx.AccountID == accountID {
			index = i
			break
		}
	}
	if index < 0 {
		return nil, domain.ErrNotFound
	}
	record := m.transactions[index]

	var goal *domain.Goal
	if record.GoalID != nil {
		if stored, ok := m.goals[*record.GoalID]; ok && stored.AccountID == accountID {
			goal = stored
		}
	}

	plan, err := domain.PlanReversal(record, account.Balance, goal)
	if err != nil {
		return nil, err
	}

	account.Balance += plan.BalanceDelta
	if goal != nil {
		goal.SavedAmount += plan.GoalDelta
	}
	m.transactions = append(m.transactions[:index], m.transactions[index+1:]...)
	copied := *record
	return &copied, nil
}

func (m *memoryRepo) ListTransactions(ctx context.Context, accountID string, opts domain.TransactionListOptions) (*domain.TransactionPage, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var matched []domain.Transaction
	for _, tx := range m.transactions {
		if tx.AccountID != accountID {
			continue
		}
		if opts.From != nil && tx.TransactionDate.Before(*opts.From) {
			continue
		}
		if opts.To != nil && tx.TransactionDate.After(*opts.To) {
			continue
		}
		matched = append(matched, *tx)
	}
	sort.Slice(matched, func(i, j int) bool {
		if !matched[i].TransactionDate.Equal(matched[j].TransactionDate) {
			return matched[i].TransactionDate.After(matched[j].TransactionDate)
		}
		return matched[i].CreatedAt.After(matched[j].CreatedAt)
	})

	page, size := opts.Page, opts.Size
	if page < 1 {
		page = 1
	}
	if size <= 0 {
		size = 20
	}
	total := int64(len(matched))
	start := (page - 1) * size
	if start > len(matched) {
		start = len(matched)
	}
	end := start + size
	if end > len(matched) {
		end = len(matched)
	}

	return &domain.TransactionPage{
		Transactions: matched[start:end],
		Page:         page,
		Size:         size,
		TotalCount:   total,
	}, nil
}

func (m *memoryRepo) GoalHistory(ctx context.Context, accountID string, goalID uuid.UUID) (*domain.GoalHistory, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	history := &domain.GoalHistory{Transactions: []domain.Transaction{}}
	if goal, err := m.getGoalLocked(accountID, goalID); err == nil {
		history.Goal = goal
	}

	for _, tx := range m.transactions {
		if tx.AccountID != accountID || tx.GoalID == nil || *tx.GoalID != goalID {
			continue
		}
		history.Transactions = append(history.Transactions, *tx)
		history.TransactionCount++
		switch tx.Kind {
		case domain.TransactionKindIncome:
			history.TotalDeposit += tx.Amount
		case domain.TransactionKindWithdrawal:
			history.TotalWithdrawal += tx.Amount
		}
	}
	if history.Goal == nil && history.TransactionCount == 0 {
		return nil, domain.ErrNotFound
	}
	return history, nil
}

func (m *memoryRepo) MonthlySummary(ctx context.Context, accountID string, year int, month time.Month) (*domain.MonthlySummary, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	start := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(0, 1, 0)

	summary := &domain.MonthlySummary{AccountID: accountID, Year: year, Month: int(month)}
	for _, tx := range m.transactions {
		if tx.AccountID != accountID || tx.TransactionDate.Before(start) || !tx.TransactionDate.Before(end) {
			continue
		}
		switch {
		case tx.Kind == domain.TransactionKindIncome && tx.GoalID == nil:
			summary.MonthlyIncome += tx.Amount
		case tx.Kind == domain.TransactionKindExpense:
			summary.MonthlyExpense += tx.Amount
		}
	}
	if summary.MonthlyIncome > 0 {
		summary.SavingRate = float64(summary.MonthlyIncome-summary.MonthlyExpense) / float64(summary.MonthlyIncome)
	}
	return summary, nil
}

// replayBalance recomputes the account balance from the initialization amount
// and the surviving transaction log, mirroring the engine's global invariant.
func (m *memoryRepo) replayBalance(accountID string, initialBalance int64) int64 {
	m.mu.Lock()
	defer m.mu.Unlock()

	balance := initialBalance
	for _, tx := range m.transactions {
		if tx.AccountID != accountID {
			continue
		}
		switch {
		case tx.Kind == domain.TransactionKindIncome && tx.GoalID == nil:
			balance += tx.Amount
		case tx.Kind == domain.TransactionKindIncome:
			balance -= tx.Amount
		case tx.Kind == domain.TransactionKindExpense:
			balance -= tx.Amount
		case tx.Kind == domain.TransactionKindWithdrawal:
			balance += tx.Amount
		}
	}
	return balance
}
