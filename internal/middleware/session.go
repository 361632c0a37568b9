// Package middleware provides HTTP middleware for session handling.
package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/groundcrewhq/groundcrew/internal/identity"
)

// ContextKey is the type for context keys in this package.
type ContextKey string

// SessionUserKey is the context key for the authenticated operator.
const SessionUserKey ContextKey = "session_user"

// Verifier resolves a session token to its user.
type Verifier interface {
	Verify(ctx context.Context, token string) (*identity.User, error)
}

// UserFromContext retrieves the authenticated operator from the request
// context. Returns nil if no session was attached.
func UserFromContext(ctx context.Context) *identity.User {
	if v := ctx.Value(SessionUserKey); v != nil {
		if user, ok := v.(*identity.User); ok {
			return user
		}
	}
	return nil
}

// RequireSession verifies the bearer token on every request and attaches
// the resolved user to the context. Requests without a valid session get
// a 401. There is no fallback to ambient state; the context is the only
// carrier of the session.
func RequireSession(verifier Verifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := bearerToken(r)
			if token == "" {
				unauthorized(w)
				return
			}

			user, err := verifier.Verify(r.Context(), token)
			if err != nil {
				unauthorized(w)
				return
			}

			ctx := context.WithValue(r.Context(), SessionUserKey, user)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireRole allows only sessions whose user holds one of the given
// roles. Must be mounted inside RequireSession.
func RequireRole(roles ...string) func(http.Handler) http.Handler {
	allowed := make(map[string]bool, len(roles))
	for _, role := range roles {
		allowed[role] = true
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user := UserFromContext(r.Context())
			if user == nil {
				unauthorized(w)
				return
			}
			if !allowed[user.Role] {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusForbidden)
				_, _ = w.Write([]byte(`{"error":"insufficient role"}`))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func bearerToken(r *http.Request) string {
	auth := r.Header.Get("Authorization")
	if strings.HasPrefix(auth, "Bearer ") {
		return strings.TrimSpace(strings.TrimPrefix(auth, "Bearer "))
	}
	return ""
}

func unauthorized(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	_, _ = w.Write([]byte(`{"error":"missing or invalid session"}`))
}
