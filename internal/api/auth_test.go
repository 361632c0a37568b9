package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/groundcrewhq/groundcrew/internal/identity"
)

type fakeAuthenticator struct {
	session   *identity.Session
	loginErr  error
	resetErr  error
	logoutErr error
	resets    []string
}

func (f *fakeAuthenticator) Login(_ context.Context, email, password string) (*identity.Session, error) {
	if f.loginErr != nil {
		return nil, f.loginErr
	}
	return f.session, nil
}

func (f *fakeAuthenticator) Logout(_ context.Context, token string) error {
	return f.logoutErr
}

func (f *fakeAuthenticator) ResetPassword(_ context.Context, email string) error {
	f.resets = append(f.resets, email)
	return f.resetErr
}

func postJSON(t *testing.T, handler http.HandlerFunc, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	payload, err := json.Marshal(body)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	handler(rec, req)
	return rec
}

func TestAuthLoginSuccess(t *testing.T) {
	handler := &AuthHandler{
		Identity: &fakeAuthenticator{session: &identity.Session{
			Token: "tok-123",
			User:  identity.User{ID: "u-1", Email: "ops@groundcrew.example", Role: "admin"},
		}},
		Log: zap.NewNop(),
	}

	rec := postJSON(t, handler.Login, "/api/auth/login", map[string]string{
		"email":    "Ops@Groundcrew.example",
		"password": "hunter2",
	})
	require.Equal(t, http.StatusOK, rec.Code)

	var session identity.Session
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&session))
	require.Equal(t, "tok-123", session.Token)
}

func TestAuthLoginValidation(t *testing.T) {
	handler := &AuthHandler{Identity: &fakeAuthenticator{}, Log: zap.NewNop()}

	rec := postJSON(t, handler.Login, "/api/auth/login", map[string]string{
		"email": "not-an-email", "password": "x",
	})
	require.Equal(t, http.StatusBadRequest, rec.Code)

	rec = postJSON(t, handler.Login, "/api/auth/login", map[string]string{
		"email": "ops@groundcrew.example",
	})
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAuthLoginSurfacesFriendlyError(t *testing.T) {
	handler := &AuthHandler{
		Identity: &fakeAuthenticator{loginErr: errors.New("incorrect email or password")},
		Log:      zap.NewNop(),
	}

	rec := postJSON(t, handler.Login, "/api/auth/login", map[string]string{
		"email": "ops@groundcrew.example", "password": "nope",
	})
	require.Equal(t, http.StatusUnauthorized, rec.Code)

	var resp errorResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	require.Equal(t, "incorrect email or password", resp.Error)
}

func TestAuthResetPasswordNeverLeaksExistence(t *testing.T) {
	auth := &fakeAuthenticator{resetErr: errors.New("no account exists for that email address")}
	handler := &AuthHandler{Identity: auth, Log: zap.NewNop()}

	rec := postJSON(t, handler.ResetPassword, "/api/auth/reset-password", map[string]string{
		"email": "unknown@groundcrew.example",
	})
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, []string{"unknown@groundcrew.example"}, auth.resets)
}

func TestAuthLogoutRequiresToken(t *testing.T) {
	handler := &AuthHandler{Identity: &fakeAuthenticator{}, Log: zap.NewNop()}

	req := httptest.NewRequest(http.MethodPost, "/api/auth/logout", nil)
	rec := httptest.NewRecorder()
	handler.Logout(rec, req)
	require.Equal(t, http.StatusBadRequest, rec.Code)

	req = httptest.NewRequest(http.MethodPost, "/api/auth/logout", nil)
	req.Header.Set("Authorization", "Bearer tok-123")
	rec = httptest.NewRecorder()
	handler.Logout(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
}
