/**
 * @description
 * This file defines the typed domain errors the engine can return. All of them
 * are resolved synchronously inside the serialized mutation; none are retried
 * automatically. The API layer maps each kind to an HTTP status code with
 * errors.Is.
 */

package domain

import "errors"

var (
	// ErrAlreadyInitialized is returned when initializeBalance is called on an
	// account whose balance has already been set.
	ErrAlreadyInitialized = errors.New("account balance already initialized")

	// ErrNotInitialized is returned when a mutating ledger operation is
	// attempted before the account balance has been initialized.
	ErrNotInitialized = errors.New("account balance not initialized")

	// ErrInsufficientBalance is returned when a debit would make the account
	// balance negative.
	ErrInsufficientBalance = errors.New("insufficient balance")

	// ErrInsufficientSavings is returned when a goal withdrawal exceeds the
	// goal's saved amount.
	ErrInsufficientSavings = errors.New("insufficient goal savings")

	// ErrGoalNotEligible is returned when confirmCompletion is called on a goal
	// that has not reached its target, or when a deposit targets a failed goal.
	ErrGoalNotEligible = errors.New("goal is not eligible")

	// ErrGoalCompleted is returned when an operation targets a goal that has
	// already been confirmed complete.
	ErrGoalCompleted = errors.New("goal already completed")

	// ErrAlreadyCompleted is returned when confirmCompletion is called twice.
	ErrAlreadyCompleted = errors.New("goal completion already confirmed")

	// ErrGoalSaturated is returned when a deposit targets a goal whose saved
	// amount has already reached its target, or, under the reject overflow
	// policy, when the deposit exceeds the goal's remaining amount.
	ErrGoalSaturated = errors.New("goal already saturated")

	// ErrProtectedCategory is returned when deleting a seeded default category.
	ErrProtectedCategory = errors.New("default categories cannot be deleted")

	// ErrCategoryInUse is returned when deleting a category that booked
	// transactions still reference.
	ErrCategoryInUse = errors.New("category is referenced by transactions")

	// ErrInvalidAmount is returned for any amount <= 0.
	ErrInvalidAmount = errors.New("amount must be positive")

	// ErrInvalidDateRange is returned when a goal deadline is not strictly in
	// the future, or precedes the goal's start date.
	ErrInvalidDateRange = errors.New("invalid date range")

	// ErrInvalidReference is returned when a transaction intent carries an
	// inconsistent category/goal linkage, such as both set, both absent for an
	// ordinary income/expense, or a category whose kind does not admit the
	// transaction kind.
	ErrInvalidReference = errors.New("invalid category or goal reference")

	// ErrNotFound is returned for unknown account, category, goal, or
	// transaction ids.
	ErrNotFound = errors.New("not found")
)
