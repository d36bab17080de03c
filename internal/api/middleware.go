/**
 * @description
 * This file contains custom middleware for the HTTP router: gateway JWT
 * authentication, the internal API key guard for service-to-service endpoints,
 * and the per-account rate limit applied to mutating routes.
 *
 * @dependencies
 * - context, net/http, strings: Standard Go libraries.
 * - github.com/golang-jwt/jwt/v5: HMAC token verification.
 */

package api

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/finbook/ledger-service/internal/app"
)

// AccountIDContextKey is a custom type for the context key to avoid collisions.
type AccountIDContextKey string

const accountIDKey AccountIDContextKey = "accountID"

// GatewayAuthMiddleware creates a middleware that validates the HMAC-signed
// JWT minted by the API gateway. The token's `sub` claim carries the opaque
// account id; the engine trusts it and performs no further identity checks.
func GatewayAuthMiddleware(secret string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				http.Error(w, "Authorization header required", http.StatusUnauthorized)
				return
			}

			// Extract the token from "Bearer <token>"
			tokenString := strings.TrimPrefix(authHeader, "Bearer ")
			if tokenString == authHeader {
				http.Error(w, "Invalid Authorization header format", http.StatusUnauthorized)
				return
			}

			token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
				if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
					return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
				}
				return []byte(secret), nil
			})
			if err != nil || !token.Valid {
				http.Error(w, "Invalid token", http.StatusUnauthorized)
				return
			}

			claims, ok := token.Claims.(jwt.MapClaims)
			if !ok {
				http.Error(w, "Invalid token claims", http.StatusUnauthorized)
				return
			}
			accountID, ok := claims["sub"].(string)
			if !ok || accountID == "" {
				http.Error(w, "Account ID not found in token", http.StatusUnauthorized)
				return
			}

			ctx := context.WithValue(r.Context(), accountIDKey, accountID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// InternalAPIKeyMiddleware guards service-to-service endpoints with a shared
// key carried in the X-Internal-Api-Key header. An unset key disables the
// internal surface entirely.
func InternalAPIKeyMiddleware(apiKey string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if apiKey == "" {
				http.Error(w, "Internal API disabled", http.StatusServiceUnavailable)
				return
			}
			if r.Header.Get("X-Internal-Api-Key") != apiKey {
				http.Error(w, "Unauthorized", http.StatusUnauthorized)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RateLimitMiddleware applies a fixed-window per-account limit to mutating
// endpoints. Limiter failures fail open: a Redis outage must not take the
// ledger down with it.
func RateLimitMiddleware(limiter app.RateLimiter, limit int, window time.Duration) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if limiter == nil || limit <= 0 {
				next.ServeHTTP(w, r)
				return
			}
			accountID, ok := GetAccountID(r.Context())
			if !ok {
				http.Error(w, "Could not get account ID from context", http.StatusUnauthorized)
				return
			}

			count, retryAfter, err := limiter.ConsumeRateLimit(r.Context(), "mutation", accountID, limit, window)
			if err != nil {
				log.Printf("level=warn component=api msg=\"rate limiter unavailable, allowing request\" account_id=%s err=%v", accountID, err)
				next.ServeHTTP(w, r)
				return
			}
			if count > limit {
				if retryAfter > 0 {
					w.Header().Set("Retry-After", strconv.Itoa(retryAfter))
				}
				http.Error(w, "Too many requests", http.StatusTooManyRequests)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// GetAccountID retrieves the authenticated account ID from the request context.
// Handlers should use this function rather than reading claims directly.
func GetAccountID(ctx context.Context) (string, bool) {
	accountID, ok := ctx.Value(accountIDKey).(string)
	return accountID, ok
}
