package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/groundcrewhq/groundcrew/internal/identity"
)

// staticVerifier accepts any non-empty token as the same admin user.
type staticVerifier struct{}

func (staticVerifier) Verify(_ context.Context, token string) (*identity.User, error) {
	if token == "" {
		return nil, identity.ErrUnauthorized
	}
	return &identity.User{ID: "u-1", Email: "ops@groundcrew.example", Role: "admin"}, nil
}

func TestHealthEndpoint(t *testing.T) {
	router := NewRouter(Deps{Verifier: staticVerifier{}, Log: zap.NewNop()})

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var resp HealthResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	require.Equal(t, "ok", resp.Status)
}

func TestProtectedRoutesRequireSession(t *testing.T) {
	router := NewRouter(Deps{Verifier: staticVerifier{}, Log: zap.NewNop()})

	for _, path := range []string{"/api/staff", "/api/tasks", "/api/coverage", "/api/analytics/summary"} {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		require.Equal(t, http.StatusUnauthorized, rec.Code, "path %s", path)
	}
}

// staffVerifier resolves every token to a plain staff user.
type staffVerifier struct{}

func (staffVerifier) Verify(_ context.Context, token string) (*identity.User, error) {
	if token == "" {
		return nil, identity.ErrUnauthorized
	}
	return &identity.User{ID: "u-2", Email: "crew@groundcrew.example", Role: "staff"}, nil
}

func TestDeleteRoutesNeedElevatedRole(t *testing.T) {
	router := NewRouter(Deps{Verifier: staffVerifier{}, Log: zap.NewNop()})

	req := httptest.NewRequest(http.MethodDelete, "/api/teams/t-1", nil)
	req.Header.Set("Authorization", "Bearer tok")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusForbidden, rec.Code)
}

func TestPublicIssueReportingSkipsAuth(t *testing.T) {
	router := NewRouter(Deps{Verifier: staticVerifier{}, Log: zap.NewNop()})

	// No token at all: the request reaches validation, not a 401.
	body := `{"zone":"","category":"","severity":"low","description":""}`
	req := httptest.NewRequest(http.MethodPost, "/api/issues", bytes.NewBufferString(body))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
}
