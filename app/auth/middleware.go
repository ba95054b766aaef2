package auth

import (
	"context"
	"net/http"
	"strings"

	"github.com/oakline/storefront/app/api"
)

type contextKey struct{}

var principalKey contextKey

// FromContext returns the principal the auth middleware resolved.
func FromContext(ctx context.Context) (Principal, bool) {
	p, ok := ctx.Value(principalKey).(Principal)
	return p, ok
}

// WithPrincipal attaches a principal to the context. Exported for handler
// tests that bypass the middleware.
func WithPrincipal(ctx context.Context, p Principal) context.Context {
	return context.WithValue(ctx, principalKey, p)
}

func bearerToken(r *http.Request) string {
	h := r.Header.Get("Authorization")
	if strings.HasPrefix(h, "Bearer ") {
		return strings.TrimSpace(strings.TrimPrefix(h, "Bearer "))
	}
	return ""
}

// RequireAuth rejects requests without a valid token and stores the
// principal in the request context.
func RequireAuth(tm *TokenManager, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		token := bearerToken(r)
		if token == "" {
			api.Error(w, http.StatusUnauthorized, "login required")
			return
		}
		principal, err := tm.Verify(token)
		if err != nil {
			api.Error(w, http.StatusUnauthorized, "invalid or expired token")
			return
		}
		next(w, r.WithContext(WithPrincipal(r.Context(), principal)))
	}
}

// RequireAdmin additionally rejects non-admin principals.
func RequireAdmin(tm *TokenManager, next http.HandlerFunc) http.HandlerFunc {
	return RequireAuth(tm, func(w http.ResponseWriter, r *http.Request) {
		principal, _ := FromContext(r.Context())
		if !principal.IsAdmin() {
			api.Error(w, http.StatusForbidden, "admin access required")
			return
		}
		next(w, r)
	})
}
