package remote

import (
	"context"
	"fmt"
	"net/http"

	"github.com/artpar/newsdemo/domain/auth"
	"github.com/artpar/newsdemo/pkg/apierr"
	"github.com/artpar/newsdemo/ports"
)

// AuthClient performs account and session calls.
//
// API Contract:
//
//	POST /auth/signup  {"email", "password", "name"} -> User
//	POST /auth/login   {"email", "password"}         -> User
//	POST /auth/logout                                 -> 204
//	GET  /auth/me                                     -> User | null
type AuthClient struct {
	client *Client
}

// NewAuthClient creates an auth client.
func NewAuthClient(client *Client) *AuthClient {
	return &AuthClient{client: client}
}

// Signup creates an account and starts a session.
func (a *AuthClient) Signup(ctx context.Context, req auth.SignupRequest) (auth.User, error) {
	var u auth.User
	if err := a.client.Request(ctx, http.MethodPost, "/auth/signup", req, &u); err != nil {
		return auth.User{}, fmt.Errorf("signup: %w", err)
	}
	return u, nil
}

// Login starts a session for existing credentials.
func (a *AuthClient) Login(ctx context.Context, req auth.LoginRequest) (auth.User, error) {
	var u auth.User
	if err := a.client.Request(ctx, http.MethodPost, "/auth/login", req, &u); err != nil {
		return auth.User{}, fmt.Errorf("login: %w", err)
	}
	return u, nil
}

// Logout ends the current session.
func (a *AuthClient) Logout(ctx context.Context) error {
	if err := a.client.Request(ctx, http.MethodPost, "/auth/logout", nil, nil); err != nil {
		return fmt.Errorf("logout: %w", err)
	}
	return nil
}

// CurrentUser resolves the session. A null body or a 401 is Anonymous.
func (a *AuthClient) CurrentUser(ctx context.Context) (auth.Session, error) {
	var u *auth.User
	if err := a.client.Request(ctx, http.MethodGet, "/auth/me", nil, &u); err != nil {
		if apierr.IsUnauthorized(err) {
			return auth.Anonymous{}, nil
		}
		return nil, fmt.Errorf("current user: %w", err)
	}

	if u == nil || u.Email == "" {
		return auth.Anonymous{}, nil
	}
	return auth.Authenticated{User: *u}, nil
}

// Ensure interface compliance.
var _ ports.AuthAPI = (*AuthClient)(nil)
