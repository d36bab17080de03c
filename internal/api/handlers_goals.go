/**
 * @description
 * This file contains HTTP handlers for savings goal endpoints: creation,
 * listing, completion confirmation, deletion with refund, and per-goal
 * history.
 *
 * @dependencies
 * - encoding/json, log, net/http: Standard Go libraries.
 * - github.com/go-chi/chi/v5: For route parameters.
 * - internal/domain: For models and custom errors.
 */

package api

import (
	"encoding/json"
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/finbook/ledger-service/internal/domain"
)

// CreateGoalHandler handles requests to open a new savings goal.
func (h *LedgerHandlers) CreateGoalHandler(w http.ResponseWriter, r *http.Request) {
	accountID, ok := GetAccountID(r.Context())
	if !ok {
		h.writeError(w, http.StatusUnauthorized, "Could not get account ID from context")
		return
	}

	var req domain.CreateGoalRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	goal, err := h.service.CreateGoal(r.Context(), accountID, req)
	if err != nil {
		log.Printf("level=warn component=api endpoint=create_goal outcome=failed account_id=%s err=%v", accountID, err)
		h.writeDomainError(w, err)
		return
	}
	h.writeJSON(w, http.StatusCreated, goal)
}

// ListGoalsHandler returns the account's goals, newest first.
func (h *LedgerHandlers) ListGoalsHandler(w http.ResponseWriter, r *http.Request) {
	accountID, ok := GetAccountID(r.Context())
	if !ok {
		h.writeError(w, http.StatusUnauthorized, "Could not get account ID from context")
		return
	}

	goals, err := h.service.ListGoals(r.Context(), accountID)
	if err != nil {
		log.Printf("level=error component=api endpoint=list_goals outcome=failed account_id=%s err=%v", accountID, err)
		h.writeDomainError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]interface{}{"goals": goals})
}

// ConfirmGoalCompletionHandler marks a saturated goal as completed.
func (h *LedgerHandlers) ConfirmGoalCompletionHandler(w http.ResponseWriter, r *http.Request) {
	accountID, ok := GetAccountID(r.Context())
	if !ok {
		h.writeError(w, http.StatusUnauthorized, "Could not get account ID from context")
		return
	}

	goalID, err := uuid.Parse(chi.URLParam(r, "goalID"))
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid goal ID format")
		return
	}

	goal, err := h.service.ConfirmGoalCompletion(r.Context(), accountID, goalID)
	if err != nil {
		log.Printf("level=warn component=api endpoint=confirm_goal outcome=failed account_id=%s goal_id=%s err=%v", accountID, goalID, err)
		h.writeDomainError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, goal)
}

// DeleteGoalHandler deletes a non-completed goal, refunding any held savings
// back to the balance in the same operation.
func (h *LedgerHandlers) DeleteGoalHandler(w http.ResponseWriter, r *http.Request) {
	accountID, ok := GetAccountID(r.Context())
	if !ok {
		h.writeError(w, http.StatusUnauthorized, "Could not get account ID from context")
		return
	}

	goalID, err := uuid.Parse(chi.URLParam(r, "goalID"))
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid goal ID format")
		return
	}

	result, err := h.service.DeleteGoal(r.Context(), accountID, goalID)
	if err != nil {
		log.Printf("level=warn component=api endpoint=delete_goal outcome=failed account_id=%s goal_id=%s err=%v", accountID, goalID, err)
		h.writeDomainError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, result)
}

// GoalHistoryHandler returns a goal's transaction history and aggregates. The
// history remains available after the goal itself has been deleted.
func (h *LedgerHandlers) GoalHistoryHandler(w http.ResponseWriter, r *http.Request) {
	accountID, ok := GetAccountID(r.Context())
	if !ok {
		h.writeError(w, http.StatusUnauthorized, "Could not get account ID from context")
		return
	}

	goalID, err := uuid.Parse(chi.URLParam(r, "goalID"))
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid goal ID format")
		return
	}

	history, err := h.service.GoalHistory(r.Context(), accountID, goalID)
	if err != nil {
		log.Printf("level=warn component=api endpoint=goal_history outcome=failed account_id=%s goal_id=%s err=%v", accountID, goalID, err)
		h.writeDomainError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, history)
}

// FailExpiredGoalsHandler is the internal endpoint the deadline scheduler
// calls to sweep past-deadline active goals into FAILED.
func (h *LedgerHandlers) FailExpiredGoalsHandler(w http.ResponseWriter, r *http.Request) {
	failed, err := h.service.FailExpiredGoals(r.Context())
	if err != nil {
		log.Printf("level=error component=api endpoint=fail_expired_goals outcome=failed err=%v", err)
		h.writeError(w, http.StatusInternalServerError, "Failed to sweep expired goals")
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]int64{"failed_goals": failed})
}
