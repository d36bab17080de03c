/**
 * @description
 * This file defines the account ledger entity. Each account owns a single
 * balance scalar in minor currency units. Accounts are created implicitly on
 * first use and their balance may be initialized exactly once.
 *
 * @notes
 * - The account id is an opaque string supplied by the external auth layer;
 *   this service never interprets it.
 * - Amounts are stored as `int64` in the smallest currency unit, which avoids
 *   floating-point inaccuracies with financial data.
 */

package domain

import "time"

// Account represents a user's ledger: one balance scalar plus its
// initialization lifecycle. This struct maps directly to the `accounts` table.
type Account struct {
	ID            string     `json:"id"`
	Balance       int64      `json:"balance"` // minor currency units
	Initialized   bool       `json:"initialized"`
	InitializedAt *time.Time `json:"initialized_at,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
}

// InitializeBalanceRequest is the DTO for the one-time balance initialization.
type InitializeBalanceRequest struct {
	Amount int64 `json:"amount"` // minor currency units
}

// BalanceResponse is returned by balance queries. It always reflects the
// latest committed state, never an in-flight mutation.
type BalanceResponse struct {
	AccountID   string `json:"account_id"`
	Balance     int64  `json:"balance"`
	Initialized bool   `json:"initialized"`
}
