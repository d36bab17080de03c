/**
 * @description
 * This file contains HTTP handlers for transaction endpoints: booking,
 * deletion (which reverses the financial effect), windowed listing, and the
 * monthly summary report.
 *
 * @dependencies
 * - encoding/json, log, net/http, strconv, time: Standard Go libraries.
 * - github.com/go-chi/chi/v5: For route parameters.
 * - internal/domain: For models and custom errors.
 */

package api

import (
	"encoding/json"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/finbook/ledger-service/internal/domain"
)

// CreateTransactionHandler books an income, expense, or goal withdrawal.
func (h *LedgerHandlers) CreateTransactionHandler(w http.ResponseWriter, r *http.Request) {
	accountID, ok := GetAccountID(r.Context())
	if !ok {
		h.writeError(w, http.StatusUnauthorized, "Could not get account ID from context")
		return
	}

	var intent domain.TransactionIntent
	if err := json.NewDecoder(r.Body).Decode(&intent); err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	tx, err := h.service.CreateTransaction(r.Context(), accountID, intent)
	if err != nil {
		log.Printf("level=warn component=api endpoint=create_transaction outcome=failed account_id=%s kind=%s amount=%d err=%v", accountID, intent.Kind, intent.Amount, err)
		h.writeDomainError(w, err)
		return
	}
	h.writeJSON(w, http.StatusCreated, tx)
}

// DeleteTransactionHandler removes a transaction and reverses its effect on
// the balance and any linked goal in the same operation.
func (h *LedgerHandlers) DeleteTransactionHandler(w http.ResponseWriter, r *http.Request) {
	accountID, ok := GetAccountID(r.Context())
	if !ok {
		h.writeError(w, http.StatusUnauthorized, "Could not get account ID from context")
		return
	}

	transactionID, err := uuid.Parse(chi.URLParam(r, "transactionID"))
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid transaction ID format")
		return
	}

	reversed, err := h.service.DeleteTransaction(r.Context(), accountID, transactionID)
	if err != nil {
		log.Printf("level=warn component=api endpoint=delete_transaction outcome=failed account_id=%s transaction_id=%s err=%v", accountID, transactionID, err)
		h.writeDomainError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, reversed)
}

// ListTransactionsHandler returns a date-windowed, paginated transaction list,
// newest first.
func (h *LedgerHandlers) ListTransactionsHandler(w http.ResponseWriter, r *http.Request) {
	accountID, ok := GetAccountID(r.Context())
	if !ok {
		h.writeError(w, http.StatusUnauthorized, "Could not get account ID from context")
		return
	}

	opts := domain.TransactionListOptions{}

	if raw := r.URL.Query().Get("from"); raw != "" {
		from, err := parseDateParam(raw)
		if err != nil {
			h.writeError(w, http.StatusBadRequest, "Invalid from date")
			return
		}
		opts.From = &from
	}
	if raw := r.URL.Query().Get("to"); raw != "" {
		to, err := parseDateParam(raw)
		if err != nil {
			h.writeError(w, http.StatusBadRequest, "Invalid to date")
			return
		}
		opts.To = &to
	}
	if opts.From != nil && opts.To != nil && opts.To.Before(*opts.From) {
		h.writeDomainError(w, domain.ErrInvalidDateRange)
		return
	}

	if raw := r.URL.Query().Get("page"); raw != "" {
		page, err := strconv.Atoi(raw)
		if err != nil {
			h.writeError(w, http.StatusBadRequest, "Invalid page")
			return
		}
		opts.Page = page
	}
	if raw := r.URL.Query().Get("size"); raw != "" {
		size, err := strconv.Atoi(raw)
		if err != nil {
			h.writeError(w, http.StatusBadRequest, "Invalid size")
			return
		}
		opts.Size = size
	}

	page, err := h.service.ListTransactions(r.Context(), accountID, opts)
	if err != nil {
		log.Printf("level=error component=api endpoint=list_transactions outcome=failed account_id=%s err=%v", accountID, err)
		h.writeDomainError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, page)
}

// MonthlySummaryHandler reports aggregate income, expense, and saving rate for
// one calendar month. Defaults to the current month when no query is given.
func (h *LedgerHandlers) MonthlySummaryHandler(w http.ResponseWriter, r *http.Request) {
	accountID, ok := GetAccountID(r.Context())
	if !ok {
		h.writeError(w, http.StatusUnauthorized, "Could not get account ID from context")
		return
	}

	now := time.Now().UTC()
	year, month := now.Year(), now.Month()

	if raw := r.URL.Query().Get("year"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			h.writeError(w, http.StatusBadRequest, "Invalid year")
			return
		}
		year = parsed
	}
	if raw := r.URL.Query().Get("month"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 || parsed > 12 {
			h.writeError(w, http.StatusBadRequest, "Invalid month")
			return
		}
		month = time.Month(parsed)
	}

	summary, err := h.service.MonthlySummary(r.Context(), accountID, year, month)
	if err != nil {
		log.Printf("level=error component=api endpoint=monthly_summary outcome=failed account_id=%s err=%v", accountID, err)
		h.writeDomainError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, summary)
}

// parseDateParam accepts RFC 3339 timestamps or plain dates.
func parseDateParam(raw string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02", raw)
}
