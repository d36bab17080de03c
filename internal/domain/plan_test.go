package domain

import (
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
)

func activeGoal(target, saved int64) *Goal {
	return &Goal{
		ID:           uuid.New(),
		AccountID:    "acct-1",
		Title:        "Laptop",
		TargetAmount: target,
		SavedAmount:  saved,
		Status:       GoalStatusActive,
		StartAt:      time.Now().UTC(),
		EndAt:        time.Now().UTC().Add(30 * 24 * time.Hour),
	}
}

func TestPlanTransaction_Expense(t *testing.T) {
	tests := []struct {
		name    string
		amount  int64
		balance int64
		wantErr error
		want    TransactionPlan
	}{
		{
			name:    "debits the balance",
			amount:  300,
			balance: 1000,
			want:    TransactionPlan{BookedAmount: 300, BalanceDelta: -300},
		},
		{
			name:    "exact balance is allowed",
			amount:  1000,
			balance: 1000,
			want:    TransactionPlan{BookedAmount: 1000, BalanceDelta: -1000},
		},
		{
			name:    "rejects overdraft",
			amount:  1,
			balance: 0,
			wantErr: ErrInsufficientBalance,
		},
		{
			name:    "rejects non-positive amount",
			amount:  0,
			balance: 1000,
			wantErr: ErrInvalidAmount,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := PlanTransaction(TransactionKindExpense, tt.amount, tt.balance, nil, OverflowDiscard)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("expected %v, got %v", tt.wantErr, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Fatalf("expected plan %+v, got %+v", tt.want, got)
			}
		})
	}
}

func TestPlanTransaction_OrdinaryIncome(t *testing.T) {
	got, err := PlanTransaction(TransactionKindIncome, 2500, 0, nil, OverflowDiscard)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := TransactionPlan{BookedAmount: 2500, BalanceDelta: 2500}
	if got != want {
		t.Fatalf("expected plan %+v, got %+v", want, got)
	}
}

func TestPlanTransaction_Deposit(t *testing.T) {
	tests := []struct {
		name    string
		amount  int64
		balance int64
		goal    *Goal
		policy  OverflowPolicy
		wantErr error
		want    TransactionPlan
	}{
		{
			name:    "moves money from balance to goal",
			amount:  400,
			balance: 1000,
			goal:    activeGoal(5000, 0),
			policy:  OverflowDiscard,
			want:    TransactionPlan{BookedAmount: 400, BalanceDelta: -400, GoalDelta: 400},
		},
		{
			name:    "clamps to the remaining amount under discard",
			amount:  6_000_000,
			balance: 10_000_000,
			goal:    activeGoal(5_000_000, 0),
			policy:  OverflowDiscard,
			want:    TransactionPlan{BookedAmount: 5_000_000, BalanceDelta: -5_000_000, GoalDelta: 5_000_000},
		},
		{
			name:    "rejects overflow under reject policy",
			amount:  600,
			balance: 1000,
			goal:    activeGoal(500, 0),
			policy:  OverflowReject,
			wantErr: ErrGoalSaturated,
		},
		{
			name:    "checks balance against the clamped amount",
			amount:  9000,
			balance: 400,
			goal:    activeGoal(500, 200),
			policy:  OverflowDiscard,
			want:    TransactionPlan{BookedAmount: 300, BalanceDelta: -300, GoalDelta: 300},
		},
		{
			name:    "insufficient balance for the clamped amount",
			amount:  9000,
			balance: 100,
			goal:    activeGoal(500, 200),
			policy:  OverflowDiscard,
			wantErr: ErrInsufficientBalance,
		},
		{
			name:    "saturated goal refuses deposits",
			amount:  1,
			balance: 1000,
			goal:    activeGoal(500, 500),
			policy:  OverflowDiscard,
			wantErr: ErrGoalSaturated,
		},
		{
			name:    "completed goal refuses deposits",
			amount:  1,
			balance: 1000,
			goal: func() *Goal {
				g := activeGoal(500, 500)
				g.Status = GoalStatusCompleted
				return g
			}(),
			policy:  OverflowDiscard,
			wantErr: ErrGoalCompleted,
		},
		{
			name:    "failed goal refuses deposits",
			amount:  1,
			balance: 1000,
			goal: func() *Goal {
				g := activeGoal(500, 100)
				g.Status = GoalStatusFailed
				return g
			}(),
			policy:  OverflowDiscard,
			wantErr: ErrGoalNotEligible,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := PlanTransaction(TransactionKindIncome, tt.amount, tt.balance, tt.goal, tt.policy)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("expected %v, got %v", tt.wantErr, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Fatalf("expected plan %+v, got %+v", tt.want, got)
			}
		})
	}
}

func TestPlanTransaction_Withdrawal(t *testing.T) {
	goal := activeGoal(5000, 2000)

	got, err := PlanTransaction(TransactionKindWithdrawal, 1500, 0, goal, OverflowDiscard)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := TransactionPlan{BookedAmount: 1500, BalanceDelta: 1500, GoalDelta: -1500}
	if got != want {
		t.Fatalf("expected plan %+v, got %+v", want, got)
	}

	if _, err := PlanTransaction(TransactionKindWithdrawal, 2001, 0, goal, OverflowDiscard); !errors.Is(err, ErrInsufficientSavings) {
		t.Fatalf("expected ErrInsufficientSavings, got %v", err)
	}

	completed := activeGoal(5000, 5000)
	completed.Status = GoalStatusCompleted
	if _, err := PlanTransaction(TransactionKindWithdrawal, 1, 0, completed, OverflowDiscard); !errors.Is(err, ErrGoalCompleted) {
		t.Fatalf("expected ErrGoalCompleted, got %v", err)
	}
}

func TestPlanReversal(t *testing.T) {
	goalID := uuid.New()
	tests := []struct {
		name    string
		tx      Transaction
		balance int64
		goal    *Goal
		wantErr error
		want    TransactionPlan
	}{
		{
			name: "expense reversal re-credits the balance",
			tx:   Transaction{Kind: TransactionKindExpense, Amount: 700},
			want: TransactionPlan{BookedAmount: 700, BalanceDelta: 700},
		},
		{
			name:    "income reversal re-debits the balance",
			tx:      Transaction{Kind: TransactionKindIncome, Amount: 700},
			balance: 700,
			want:    TransactionPlan{BookedAmount: 700, BalanceDelta: -700},
		},
		{
			name:    "income reversal refuses to overdraft",
			tx:      Transaction{Kind: TransactionKindIncome, Amount: 700},
			balance: 699,
			wantErr: ErrInsufficientBalance,
		},
		{
			name:    "deposit reversal restores balance and goal",
			tx:      Transaction{Kind: TransactionKindIncome, Amount: 300, GoalID: &goalID},
			balance: 0,
			goal:    activeGoal(5000, 300),
			want:    TransactionPlan{BookedAmount: 300, BalanceDelta: 300, GoalDelta: -300},
		},
		{
			name:    "deposit reversal requires the goal to exist",
			tx:      Transaction{Kind: TransactionKindIncome, Amount: 300, GoalID: &goalID},
			wantErr: ErrNotFound,
		},
		{
			name:    "deposit reversal refuses completed goals",
			tx:      Transaction{Kind: TransactionKindIncome, Amount: 300, GoalID: &goalID},
			balance: 0,
			goal: func() *Goal {
				g := activeGoal(5000, 5000)
				g.Status = GoalStatusCompleted
				return g
			}(),
			wantErr: ErrGoalCompleted,
		},
		{
			name:    "withdrawal reversal moves money back into the goal",
			tx:      Transaction{Kind: TransactionKindWithdrawal, Amount: 200, GoalID: &goalID},
			balance: 500,
			goal:    activeGoal(5000, 1000),
			want:    TransactionPlan{BookedAmount: 200, BalanceDelta: -200, GoalDelta: 200},
		},
		{
			name:    "withdrawal reversal refuses to overfill the goal",
			tx:      Transaction{Kind: TransactionKindWithdrawal, Amount: 200, GoalID: &goalID},
			balance: 500,
			goal:    activeGoal(1000, 900),
			wantErr: ErrGoalSaturated,
		},
		{
			name:    "withdrawal reversal requires the goal to exist",
			tx:      Transaction{Kind: TransactionKindWithdrawal, Amount: 200, GoalID: &goalID},
			balance: 500,
			wantErr: ErrNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := PlanReversal(&tt.tx, tt.balance, tt.goal)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("expected %v, got %v", tt.wantErr, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Fatalf("expected plan %+v, got %+v", tt.want, got)
			}
		})
	}
}

func TestTransactionIntentValidate(t *testing.T) {
	catID := uuid.New()
	goalID := uuid.New()

	tests := []struct {
		name    string
		intent  TransactionIntent
		wantErr error
	}{
		{
			name:   "expense with category",
			intent: TransactionIntent{Kind: TransactionKindExpense, Amount: 100, CategoryID: &catID},
		},
		{
			name:   "income deposit with goal",
			intent: TransactionIntent{Kind: TransactionKindIncome, Amount: 100, GoalID: &goalID},
		},
		{
			name:   "withdrawal with goal",
			intent: TransactionIntent{Kind: TransactionKindWithdrawal, Amount: 100, GoalID: &goalID},
		},
		{
			name:    "zero amount",
			intent:  TransactionIntent{Kind: TransactionKindExpense, Amount: 0, CategoryID: &catID},
			wantErr: ErrInvalidAmount,
		},
		{
			name:    "category and goal are mutually exclusive",
			intent:  TransactionIntent{Kind: TransactionKindIncome, Amount: 100, CategoryID: &catID, GoalID: &goalID},
			wantErr: ErrInvalidReference,
		},
		{
			name:    "ordinary income requires a category",
			intent:  TransactionIntent{Kind: TransactionKindIncome, Amount: 100},
			wantErr: ErrInvalidReference,
		},
		{
			name:    "expense cannot target a goal",
			intent:  TransactionIntent{Kind: TransactionKindExpense, Amount: 100, GoalID: &goalID},
			wantErr: ErrInvalidReference,
		},
		{
			name:    "withdrawal requires a goal",
			intent:  TransactionIntent{Kind: TransactionKindWithdrawal, Amount: 100},
			wantErr: ErrInvalidReference,
		},
		{
			name:    "unknown kind",
			intent:  TransactionIntent{Kind: "transfer", Amount: 100, CategoryID: &catID},
			wantErr: ErrInvalidReference,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.intent.Validate()
			if tt.wantErr == nil {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("expected %v, got %v", tt.wantErr, err)
			}
		})
	}
}
