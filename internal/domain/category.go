package domain

import (
	"time"

	"github.com/google/uuid"
)

// CategoryKind classifies which transaction kinds a category may label.
type CategoryKind string

const (
	CategoryKindIncome  CategoryKind = "income"
	CategoryKindExpense CategoryKind = "expense"
	CategoryKindBoth    CategoryKind = "both"
)

// Valid reports whether the kind is one of the known classification values.
func (k CategoryKind) Valid() bool {
	switch k {
	case CategoryKindIncome, CategoryKindExpense, CategoryKindBoth:
		return true
	}
	return false
}

// Admits reports whether a category of this kind may label a transaction of
// the given kind. Withdrawals never carry a category.
func (k CategoryKind) Admits(tk TransactionKind) bool {
	switch tk {
	case TransactionKindIncome:
		return k == CategoryKindIncome || k == CategoryKindBoth
	case TransactionKindExpense:
		return k == CategoryKindExpense || k == CategoryKindBoth
	}
	return false
}

// Category is a classification label for transactions. A fixed set of defaults
// is seeded per account and can never be deleted. User-created category names
// carry no uniqueness constraint.
type Category struct {
	ID        uuid.UUID    `json:"id"`
	AccountID string       `json:"account_id"`
	Name      string       `json:"name"`
	Kind      CategoryKind `json:"kind"`
	IsDefault bool         `json:"is_default"`
	CreatedAt time.Time    `json:"created_at"`
}

// DefaultCategorySeed describes one seeded default category.
type DefaultCategorySeed struct {
	Name string
	Kind CategoryKind
}

// DefaultCategories is the fixed set seeded for every new account.
var DefaultCategories = []DefaultCategorySeed{
	{Name: "Salary", Kind: CategoryKindIncome},
	{Name: "Gifts", Kind: CategoryKindBoth},
	{Name: "Groceries", Kind: CategoryKindExpense},
	{Name: "Transport", Kind: CategoryKindExpense},
	{Name: "Dining", Kind: CategoryKindExpense},
	{Name: "Utilities", Kind: CategoryKindExpense},
	{Name: "Entertainment", Kind: CategoryKindExpense},
	{Name: "Other", Kind: CategoryKindBoth},
}

// CreateCategoryRequest is the DTO for creating a user category.
type CreateCategoryRequest struct {
	Name string       `json:"name"`
	Kind CategoryKind `json:"kind"`
}
