package http

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"todo-api/internal/domain"
	obsmw "todo-api/internal/observability/middleware"
	"todo-api/internal/service"
	"todo-api/internal/store"
)

type userKey struct{}

// SessionGate resolves a bearer token to a live user before any protected
// handler runs. Failures short-circuit with 401; the next handler is never
// called without an authenticated user in context.
type SessionGate struct {
	Tokens service.TokenService
	Store  *store.Store
}

func (g *SessionGate) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw := bearerToken(r)
		if raw == "" {
			writeError(w, http.StatusUnauthorized, "unauthorized", "not authorized, no token")
			return
		}

		userID, err := g.Tokens.Verify(raw)
		if err != nil {
			slog.Warn("token verification failed", "error", err,
				"request_id", obsmw.RequestIDFromContext(r.Context()))
			writeError(w, http.StatusUnauthorized, "unauthorized", "not authorized, token failed")
			return
		}

		user, err := g.Store.Users().GetByID(r.Context(), userID)
		if err != nil {
			writeError(w, http.StatusUnauthorized, "unauthorized", "not authorized, token failed")
			return
		}

		next.ServeHTTP(w, r.WithContext(contextWithUser(r.Context(), user)))
	})
}

// bearerToken prefers the Authorization header; the cookie set on login is
// the secondary transport.
func bearerToken(r *http.Request) string {
	raw := r.Header.Get("Authorization")
	if strings.HasPrefix(strings.ToLower(raw), "bearer ") {
		return strings.TrimSpace(raw[len("Bearer "):])
	}
	if c, err := r.Cookie(tokenCookieName); err == nil {
		return c.Value
	}
	return ""
}

func contextWithUser(ctx context.Context, user *domain.User) context.Context {
	return context.WithValue(ctx, userKey{}, user)
}

func CurrentUser(ctx context.Context) (*domain.User, bool) {
	u, ok := ctx.Value(userKey{}).(*domain.User)
	return u, ok
}
