/**
 * @description
 * This file contains the HTTP handlers for the ledger's balance and category
 * endpoints, plus the response helpers shared by the rest of the API package.
 * Handlers are responsible for parsing incoming requests, calling the
 * appropriate methods on the application service, and writing the HTTP
 * response. They act as the bridge between the web layer and the business
 * logic layer.
 *
 * @dependencies
 * - encoding/json, log, net/http: Standard Go libraries.
 * - github.com/go-chi/chi/v5: For route parameters.
 * - internal/app, internal/domain: For service logic, models, and custom errors.
 */

package api

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/finbook/ledger-service/internal/app"
	"github.com/finbook/ledger-service/internal/domain"
)

// LedgerHandlers holds the application service that handlers will use.
type LedgerHandlers struct {
	service *app.Service
}

// NewLedgerHandlers creates a new instance of LedgerHandlers.
func NewLedgerHandlers(service *app.Service) *LedgerHandlers {
	return &LedgerHandlers{service: service}
}

// InitializeBalanceHandler handles the one-time opening balance declaration.
func (h *LedgerHandlers) InitializeBalanceHandler(w http.ResponseWriter, r *http.Request) {
	accountID, ok := GetAccountID(r.Context())
	if !ok {
		h.writeError(w, http.StatusUnauthorized, "Could not get account ID from context")
		return
	}

	var req domain.InitializeBalanceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	account, err := h.service.InitializeBalance(r.Context(), accountID, req.Amount)
	if err != nil {
		log.Printf("level=warn component=api endpoint=initialize_balance outcome=failed account_id=%s err=%v", accountID, err)
		h.writeDomainError(w, err)
		return
	}
	h.writeJSON(w, http.StatusCreated, account)
}

// GetBalanceHandler reports the committed balance and initialization state.
func (h *LedgerHandlers) GetBalanceHandler(w http.ResponseWriter, r *http.Request) {
	accountID, ok := GetAccountID(r.Context())
	if !ok {
		h.writeError(w, http.StatusUnauthorized, "Could not get account ID from context")
		return
	}

	balance, err := h.service.GetBalance(r.Context(), accountID)
	if err != nil {
		log.Printf("level=error component=api endpoint=get_balance outcome=failed account_id=%s err=%v", accountID, err)
		h.writeDomainError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, balance)
}

// CreateCategoryHandler registers a user-defined category.
func (h *LedgerHandlers) CreateCategoryHandler(w http.ResponseWriter, r *http.Request) {
	accountID, ok := GetAccountID(r.Context())
	if !ok {
		h.writeError(w, http.StatusUnauthorized, "Could not get account ID from context")
		return
	}

	var req domain.CreateCategoryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	category, err := h.service.CreateCategory(r.Context(), accountID, req)
	if err != nil {
		log.Printf("level=warn component=api endpoint=create_category outcome=failed account_id=%s err=%v", accountID, err)
		h.writeDomainError(w, err)
		return
	}
	h.writeJSON(w, http.StatusCreated, category)
}

// ListCategoriesHandler returns the account's categories, defaults first.
func (h *LedgerHandlers) ListCategoriesHandler(w http.ResponseWriter, r *http.Request) {
	accountID, ok := GetAccountID(r.Context())
	if !ok {
		h.writeError(w, http.StatusUnauthorized, "Could not get account ID from context")
		return
	}

	categories, err := h.service.ListCategories(r.Context(), accountID)
	if err != nil {
		log.Printf("level=error component=api endpoint=list_categories outcome=failed account_id=%s err=%v", accountID, err)
		h.writeDomainError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]interface{}{"categories": categories})
}

// DeleteCategoryHandler removes a user category. Defaults and categories still
// referenced by transactions are refused.
func (h *LedgerHandlers) DeleteCategoryHandler(w http.ResponseWriter, r *http.Request) {
	accountID, ok := GetAccountID(r.Context())
	if !ok {
		h.writeError(w, http.StatusUnauthorized, "Could not get account ID from context")
		return
	}

	categoryID, err := uuid.Parse(chi.URLParam(r, "categoryID"))
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid category ID format")
		return
	}

	if err := h.service.DeleteCategory(r.Context(), accountID, categoryID); err != nil {
		log.Printf("level=warn component=api endpoint=delete_category outcome=failed account_id=%s category_id=%s err=%v", accountID, categoryID, err)
		h.writeDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// writeJSON is a helper for writing JSON responses.
func (h *LedgerHandlers) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.Printf("level=error component=api msg=\"failed to encode response\" err=%v", err)
	}
}

// writeError is a helper for writing JSON error responses.
func (h *LedgerHandlers) writeError(w http.ResponseWriter, status int, message string) {
	h.writeJSON(w, status, map[string]string{"error": message})
}

// writeDomainError maps the engine's sentinel errors onto HTTP status codes.
func (h *LedgerHandlers) writeDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		h.writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, domain.ErrInsufficientBalance),
		errors.Is(err, domain.ErrInsufficientSavings):
		h.writeError(w, http.StatusPaymentRequired, err.Error())
	case errors.Is(err, domain.ErrAlreadyInitialized),
		errors.Is(err, domain.ErrNotInitialized),
		errors.Is(err, domain.ErrGoalNotEligible),
		errors.Is(err, domain.ErrGoalCompleted),
		errors.Is(err, domain.ErrGoalSaturated),
		errors.Is(err, domain.ErrAlreadyCompleted),
		errors.Is(err, domain.ErrProtectedCategory),
		errors.Is(err, domain.ErrCategoryInUse):
		h.writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, domain.ErrInvalidAmount),
		errors.Is(err, domain.ErrInvalidDateRange),
		errors.Is(err, domain.ErrInvalidReference):
		h.writeError(w, http.StatusBadRequest, err.Error())
	default:
		h.writeError(w, http.StatusInternalServerError, "Internal server error")
	}
}
