package api

import (
	"context"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/groundcrewhq/groundcrew/internal/identity"
	"github.com/groundcrewhq/groundcrew/internal/models"
)

// Authenticator is the slice of the identity client the auth endpoints
// use. All session logic lives with the provider; these handlers only
// relay.
type Authenticator interface {
	Login(ctx context.Context, email, password string) (*identity.Session, error)
	Logout(ctx context.Context, token string) error
	ResetPassword(ctx context.Context, email string) error
}

// AuthHandler relays credential operations to the identity provider.
type AuthHandler struct {
	Identity Authenticator
	Log      *zap.Logger
}

// Login exchanges credentials for a session token.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}

	email := strings.TrimSpace(strings.ToLower(req.Email))
	if !models.ValidEmail(email) {
		sendJSON(w, http.StatusBadRequest, errorResponse{Error: "that email address is not valid"})
		return
	}
	if req.Password == "" {
		sendJSON(w, http.StatusBadRequest, errorResponse{Error: "password is required"})
		return
	}

	session, err := h.Identity.Login(r.Context(), email, req.Password)
	if err != nil {
		h.Log.Info("login rejected", zap.String("email", email))
		sendJSON(w, http.StatusUnauthorized, errorResponse{Error: err.Error()})
		return
	}
	sendJSON(w, http.StatusOK, session)
}

// Logout revokes the caller's session token.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	auth := r.Header.Get("Authorization")
	token := strings.TrimSpace(strings.TrimPrefix(auth, "Bearer "))
	if token == "" || token == auth {
		sendJSON(w, http.StatusBadRequest, errorResponse{Error: "missing session token"})
		return
	}

	if err := h.Identity.Logout(r.Context(), token); err != nil {
		sendJSON(w, http.StatusUnauthorized, errorResponse{Error: "session could not be revoked"})
		return
	}
	sendJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

// ResetPassword asks the provider to send a reset email. The response
// does not reveal whether the address exists.
func (h *AuthHandler) ResetPassword(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email string `json:"email"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}

	email := strings.TrimSpace(strings.ToLower(req.Email))
	if !models.ValidEmail(email) {
		sendJSON(w, http.StatusBadRequest, errorResponse{Error: "that email address is not valid"})
		return
	}

	if err := h.Identity.ResetPassword(r.Context(), email); err != nil {
		h.Log.Warn("password reset relay failed", zap.Error(err))
	}
	sendJSON(w, http.StatusOK, map[string]bool{"ok": true})
}
