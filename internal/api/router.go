/**
 * @description
 * This file sets up the HTTP router for the ledger service. It defines the API
 * endpoints, associates them with their corresponding handlers, and applies
 * authentication and rate limiting middleware.
 *
 * @dependencies
 * - net/http: Standard Go library for HTTP functionality.
 * - github.com/go-chi/chi/v5: A lightweight and idiomatic router for Go.
 */

package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/finbook/ledger-service/internal/app"
)

// RouterConfig carries the API-layer wiring the router needs.
type RouterConfig struct {
	GatewayJWTSecret string
	InternalAPIKey   string
	RateLimiter      app.RateLimiter
	MutationLimit    int
	MutationWindow   time.Duration
}

// LedgerRoutes creates and returns the router for the ledger service.
func LedgerRoutes(h *LedgerHandlers, cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	// Add standard middleware for logging, panic recovery, and timeouts.
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))

	// Health check endpoint
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("healthy"))
	})

	// Group routes that require gateway authentication.
	r.Group(func(r chi.Router) {
		r.Use(GatewayAuthMiddleware(cfg.GatewayJWTSecret))

		// Read endpoints.
		r.Get("/balance", h.GetBalanceHandler)
		r.Get("/categories", h.ListCategoriesHandler)
		r.Get("/goals", h.ListGoalsHandler)
		r.Get("/goals/{goalID}/history", h.GoalHistoryHandler)
		r.Get("/transactions", h.ListTransactionsHandler)
		r.Get("/reports/monthly", h.MonthlySummaryHandler)

		// Mutating endpoints, rate limited per account.
		r.Group(func(r chi.Router) {
			r.Use(RateLimitMiddleware(cfg.RateLimiter, cfg.MutationLimit, cfg.MutationWindow))

			r.Post("/balance/initialize", h.InitializeBalanceHandler)
			r.Post("/categories", h.CreateCategoryHandler)
			r.Delete("/categories/{categoryID}", h.DeleteCategoryHandler)
			r.Post("/goals", h.CreateGoalHandler)
			r.Post("/goals/{goalID}/confirm", h.ConfirmGoalCompletionHandler)
			r.Delete("/goals/{goalID}", h.DeleteGoalHandler)
			r.Post("/transactions", h.CreateTransactionHandler)
			r.Delete("/transactions/{transactionID}", h.DeleteTransactionHandler)
		})
	})

	// Internal service-to-service endpoints.
	r.Group(func(r chi.Router) {
		r.Use(InternalAPIKeyMiddleware(cfg.InternalAPIKey))

		r.Post("/internal/goals/fail-expired", h.FailExpiredGoalsHandler)
	})

	return r
}
