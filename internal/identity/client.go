// Package identity wraps the managed identity provider the admin console
// delegates authentication to. The application never handles credentials
// or issues tokens itself; it forwards login attempts and verifies the
// session tokens the provider mints.
package identity

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
)

// ErrUnauthorized is returned when the provider rejects a token or
// credential outright.
var ErrUnauthorized = errors.New("identity: unauthorized")

// User is the provider's view of an authenticated operator.
type User struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name"`
	Role  string `json:"role"`
}

// Session pairs a provider token with the user it belongs to.
type Session struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
	User      User      `json:"user"`
}

// Client talks to the identity provider's HTTP API.
type Client struct {
	httpClient *resty.Client
}

// NewClient creates an identity client for the given provider endpoint.
func NewClient(baseURL, apiKey string) *Client {
	httpClient := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(10 * time.Second).
		SetRetryCount(2).
		SetRetryWaitTime(500 * time.Millisecond).
		SetHeader("Content-Type", "application/json").
		SetHeader("Accept", "application/json").
		SetAuthToken(apiKey)
	return &Client{httpClient: httpClient}
}

type providerError struct {
	Error string `json:"error"`
}

// Login exchanges credentials for a session.
func (c *Client) Login(ctx context.Context, email, password string) (*Session, error) {
	var session Session
	var provErr providerError
	resp, err := c.httpClient.R().
		SetContext(ctx).
		SetBody(map[string]string{"email": email, "password": password}).
		SetResult(&session).
		SetError(&provErr).
		Post("/v1/sessions")
	if err != nil {
		return nil, fmt.Errorf("failed to reach identity provider: %w", err)
	}
	if resp.IsError() {
		return nil, FriendlyError(provErr.Error)
	}
	return &session, nil
}

// Logout revokes a session token.
func (c *Client) Logout(ctx context.Context, token string) error {
	resp, err := c.httpClient.R().
		SetContext(ctx).
		SetBody(map[string]string{"token": token}).
		Delete("/v1/sessions")
	if err != nil {
		return fmt.Errorf("failed to reach identity provider: %w", err)
	}
	if resp.IsError() {
		return ErrUnauthorized
	}
	return nil
}

// ResetPassword asks the provider to send a reset email. The provider
// answers success even for unknown addresses.
func (c *Client) ResetPassword(ctx context.Context, email string) error {
	var provErr providerError
	resp, err := c.httpClient.R().
		SetContext(ctx).
		SetBody(map[string]string{"email": email}).
		SetError(&provErr).
		Post("/v1/password-resets")
	if err != nil {
		return fmt.Errorf("failed to reach identity provider: %w", err)
	}
	if resp.IsError() {
		return FriendlyError(provErr.Error)
	}
	return nil
}

// Verify resolves a session token to its user. Invalid or expired tokens
// return ErrUnauthorized.
func (c *Client) Verify(ctx context.Context, token string) (*User, error) {
	var user User
	resp, err := c.httpClient.R().
		SetContext(ctx).
		SetHeader("X-Session-Token", token).
		SetResult(&user).
		Get("/v1/sessions/me")
	if err != nil {
		return nil, fmt.Errorf("failed to reach identity provider: %w", err)
	}
	if resp.IsError() {
		return nil, ErrUnauthorized
	}
	return &user, nil
}

// FriendlyError maps the provider's raw error strings to messages fit for
// the operator. The provider exposes no typed codes, so matching is by
// substring.
func FriendlyError(raw string) error {
	lowered := strings.ToLower(raw)
	switch {
	case strings.Contains(lowered, "user-not-found"), strings.Contains(lowered, "no user record"):
		return errors.New("no account exists for that email address")
	case strings.Contains(lowered, "wrong-password"), strings.Contains(lowered, "invalid-credential"):
		return errors.New("incorrect email or password")
	case strings.Contains(lowered, "too-many-requests"):
		return errors.New("too many attempts, try again in a few minutes")
	case strings.Contains(lowered, "user-disabled"):
		return errors.New("this account has been disabled")
	case strings.Contains(lowered, "invalid-email"):
		return errors.New("that email address is not valid")
	case strings.Contains(lowered, "network"):
		return errors.New("could not reach the sign-in service, check your connection")
	default:
		return errors.New("sign-in failed, try again")
	}
}
