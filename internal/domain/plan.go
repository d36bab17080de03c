/**
 * @description
 * This file contains the pure reconciliation arithmetic of the engine: given
 * the authoritative balance and goal state read under the per-account lock, it
 * computes the atomic multi-entity mutation a transaction implies, or the
 * typed error that rejects it. Keeping this logic free of I/O lets the store
 * apply it inside a database transaction and lets tests exercise every branch
 * directly.
 */

package domain

// OverflowPolicy controls what happens when a goal deposit exceeds the goal's
// remaining amount.
type OverflowPolicy string

const (
	// OverflowDiscard clamps the deposit to the remaining amount; the excess
	// is not booked anywhere.
	OverflowDiscard OverflowPolicy = "discard"
	// OverflowReject refuses deposits larger than the remaining amount.
	OverflowReject OverflowPolicy = "reject"
)

// Valid reports whether the policy is a known overflow policy.
func (p OverflowPolicy) Valid() bool {
	return p == OverflowDiscard || p == OverflowReject
}

// TransactionPlan is the computed effect of one transaction: the amount that
// gets booked in the log and the deltas applied to the account balance and,
// when goal-linked, the goal's saved amount. All three mutate together or not
// at all.
type TransactionPlan struct {
	BookedAmount int64
	BalanceDelta int64
	GoalDelta    int64
}

// PlanTransaction computes the plan for booking a transaction against the
// current committed balance and goal state. The goal argument must be non-nil
// exactly when the intent is goal-linked.
func PlanTransaction(kind TransactionKind, amount int64, balance int64, goal *Goal, policy OverflowPolicy) (TransactionPlan, error) {
	if amount <= 0 {
		return TransactionPlan{}, ErrInvalidAmount
	}

	switch kind {
	case TransactionKindExpense:
		if amount > balance {
			return TransactionPlan{}, ErrInsufficientBalance
		}
		return TransactionPlan{BookedAmount: amount, BalanceDelta: -amount}, nil

	case TransactionKindIncome:
		if goal == nil {
			return TransactionPlan{BookedAmount: amount, BalanceDelta: amount}, nil
		}
		return planDeposit(amount, balance, goal, policy)

	case TransactionKindWithdrawal:
		if goal == nil {
			return TransactionPlan{}, ErrInvalidReference
		}
		if goal.Status == GoalStatusCompleted {
			return TransactionPlan{}, ErrGoalCompleted
		}
		if amount > goal.SavedAmount {
			return TransactionPlan{}, ErrInsufficientSavings
		}
		return TransactionPlan{BookedAmount: amount, BalanceDelta: amount, GoalDelta: -amount}, nil
	}

	return TransactionPlan{}, ErrInvalidReference
}

// planDeposit handles INCOME with a goal id: the deposit moves money out of
// the balance into the goal, clamped to the goal's remaining amount.
func planDeposit(amount, balance int64, goal *Goal, policy OverflowPolicy) (TransactionPlan, error) {
	switch goal.Status {
	case GoalStatusCompleted:
		return TransactionPlan{}, ErrGoalCompleted
	case GoalStatusFailed:
		return TransactionPlan{}, ErrGoalNotEligible
	}
	if goal.Saturated() {
		return TransactionPlan{}, ErrGoalSaturated
	}

	remaining := goal.Remaining()
	if policy == OverflowReject && amount > remaining {
		return TransactionPlan{}, ErrGoalSaturated
	}

	actual := amount
	if actual > remaining {
		actual = remaining
	}
	if actual > balance {
		return TransactionPlan{}, ErrInsufficientBalance
	}
	return TransactionPlan{BookedAmount: actual, BalanceDelta: -actual, GoalDelta: actual}, nil
}

// PlanReversal computes the plan that undoes a previously booked transaction,
// so that deleting it preserves the replay invariant. Goal-linked transactions
// require the goal row to still exist; reversals that would push the goal or
// the balance outside their bounds are refused with the same typed errors as
// forward bookings.
func PlanReversal(tx *Transaction, balance int64, goal *Goal) (TransactionPlan, error) {
	switch tx.Kind {
	case TransactionKindExpense:
		return TransactionPlan{BookedAmount: tx.Amount, BalanceDelta: tx.Amount}, nil

	case TransactionKindIncome:
		if tx.GoalID == nil {
			if tx.Amount > balance {
				return TransactionPlan{}, ErrInsufficientBalance
			}
			return TransactionPlan{BookedAmount: tx.Amount, BalanceDelta: -tx.Amount}, nil
		}
		// Deposit reversal: money flows back from the goal to the ledger.
		if goal == nil {
			return TransactionPlan{}, ErrNotFound
		}
		if goal.Status == GoalStatusCompleted {
			return TransactionPlan{}, ErrGoalCompleted
		}
		if tx.Amount > goal.SavedAmount {
			return TransactionPlan{}, ErrInsufficientSavings
		}
		return TransactionPlan{BookedAmount: tx.Amount, BalanceDelta: tx.Amount, GoalDelta: -tx.Amount}, nil

	case TransactionKindWithdrawal:
		if goal == nil {
			return TransactionPlan{}, ErrNotFound
		}
		if goal.Status == GoalStatusCompleted {
			return TransactionPlan{}, ErrGoalCompleted
		}
		if tx.Amount > balance {
			return TransactionPlan{}, ErrInsufficientBalance
		}
		if goal.SavedAmount+tx.Amount > goal.TargetAmount {
			return TransactionPlan{}, ErrGoalSaturated
		}
		return TransactionPlan{BookedAmount: tx.Amount, BalanceDelta: -tx.Amount, GoalDelta: tx.Amount}, nil
	}

	return TransactionPlan{}, ErrInvalidReference
}
