package auth

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"restaurant-orders/internal/domain"
	"restaurant-orders/internal/httpx"
	"restaurant-orders/internal/logger"
)

type ctxKey int

const callerKey ctxKey = iota

// CallerFrom returns the authenticated caller, or nil for anonymous requests.
func CallerFrom(ctx context.Context) *domain.Caller {
	c, _ := ctx.Value(callerKey).(*domain.Caller)
	return c
}

// WithCaller is used by tests to simulate an authenticated request.
func WithCaller(ctx context.Context, c *domain.Caller) context.Context {
	return context.WithValue(ctx, callerKey, c)
}

// CallerSource resolves a token subject to a live caller. Inactive or
// removed accounts resolve to ErrNotFound.
type CallerSource interface {
	CallerByID(ctx context.Context, id int64) (domain.Caller, error)
}

type Middleware struct {
	tokens *TokenManager
	users  CallerSource
	log    *logger.Logger
}

func NewMiddleware(tokens *TokenManager, users CallerSource, log *logger.Logger) *Middleware {
	return &Middleware{tokens: tokens, users: users, log: log}
}

// Authenticate resolves an Authorization: Bearer header when present.
// A missing header leaves the request anonymous; a bad token is rejected
// outright so a caller never silently degrades to anonymous.
func (m *Middleware) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		if header == "" {
			next.ServeHTTP(w, r)
			return
		}

		raw, ok := strings.CutPrefix(header, "Bearer ")
		if !ok {
			httpx.WriteProblem(w, http.StatusUnauthorized, "unauthorized", "malformed Authorization header")
			return
		}

		userID, err := m.tokens.Parse(strings.TrimSpace(raw), TokenAccess)
		if err != nil {
			httpx.WriteProblem(w, http.StatusUnauthorized, "unauthorized", "invalid or expired token")
			return
		}

		caller, err := m.users.CallerByID(r.Context(), userID)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				httpx.WriteProblem(w, http.StatusUnauthorized, "unauthorized", "account not found or inactive")
				return
			}
			m.log.Error("auth_lookup_failed", err, map[string]any{
				"request_id": httpx.RequestIDFrom(r.Context()),
				"user_id":    userID,
			})
			httpx.WriteProblem(w, http.StatusInternalServerError, "internal_error", "internal server error")
			return
		}

		next.ServeHTTP(w, r.WithContext(WithCaller(r.Context(), &caller)))
	})
}

// Require rejects anonymous requests before the handler runs.
func Require(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if CallerFrom(r.Context()) == nil {
			httpx.WriteProblem(w, http.StatusUnauthorized, "unauthorized", "authentication required")
			return
		}
		next(w, r)
	}
}
