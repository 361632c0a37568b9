package identity

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestClientLogin(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/v1/sessions", r.URL.Path)

		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		require.Equal(t, "ops@groundcrew.example", body["email"])

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(Session{
			Token: "tok-123",
			User:  User{ID: "u-1", Email: "ops@groundcrew.example", Role: "admin"},
		})
	}))
	defer server.Close()

	client := NewClient(server.URL, "api-key")
	session, err := client.Login(context.Background(), "ops@groundcrew.example", "hunter2")
	require.NoError(t, err)
	require.Equal(t, "tok-123", session.Token)
	require.Equal(t, "admin", session.User.Role)
}

func TestClientLoginMapsProviderErrors(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		json.NewEncoder(w).Encode(map[string]string{"error": "auth/wrong-password: credential mismatch"})
	}))
	defer server.Close()

	client := NewClient(server.URL, "api-key")
	_, err := client.Login(context.Background(), "ops@groundcrew.example", "nope")
	require.EqualError(t, err, "incorrect email or password")
}

func TestClientVerify(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/v1/sessions/me", r.URL.Path)
		if r.Header.Get("X-Session-Token") != "tok-123" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(User{ID: "u-1", Email: "ops@groundcrew.example"})
	}))
	defer server.Close()

	client := NewClient(server.URL, "api-key")

	user, err := client.Verify(context.Background(), "tok-123")
	require.NoError(t, err)
	require.Equal(t, "u-1", user.ID)

	_, err = client.Verify(context.Background(), "expired")
	require.ErrorIs(t, err, ErrUnauthorized)
}

func TestFriendlyError(t *testing.T) {
	cases := map[string]string{
		"auth/user-not-found":                       "no account exists for that email address",
		"FirebaseError: auth/wrong-password":        "incorrect email or password",
		"auth/too-many-requests: quota":             "too many attempts, try again in a few minutes",
		"auth/user-disabled":                        "this account has been disabled",
		"auth/invalid-email":                        "that email address is not valid",
		"auth/network-request-failed":               "could not reach the sign-in service, check your connection",
		"something entirely unexpected went wrong!": "sign-in failed, try again",
	}
	for raw, want := range cases {
		require.EqualError(t, FriendlyError(raw), want, "raw=%q", raw)
	}
}
