package app

import (
	"context"

	"github.com/artpar/newsdemo/app/query"
	"github.com/artpar/newsdemo/domain/auth"
	"github.com/artpar/newsdemo/pkg/apierr"
	"github.com/artpar/newsdemo/ports"
	"github.com/rs/zerolog"
)

// Cache keys for session reads. Every auth mutation invalidates KeyAuth.
var (
	KeyAuth   = query.Key{"auth"}
	KeyAuthMe = query.Key{"auth", "me"}
)

// AuthQueries exposes the session read and the account mutations.
type AuthQueries struct {
	me     *query.Query[auth.Session]
	signup *query.Mutation[auth.SignupRequest, auth.User]
	login  *query.Mutation[auth.LoginRequest, auth.User]
	logout *query.Mutation[struct{}, struct{}]
}

// NewAuthQueries creates the auth hooks.
func NewAuthQueries(api ports.AuthAPI, cache *query.Client, logger zerolog.Logger) *AuthQueries {
	signup := func(ctx context.Context, req auth.SignupRequest) (auth.User, error) {
		if v := auth.ValidateSignup(req); !v.Valid {
			return auth.User{}, &apierr.ValidationError{Fields: v.Errors}
		}
		u, err := api.Signup(ctx, req)
		if err != nil {
			return auth.User{}, err
		}
		logger.Info().Str("email", u.Email).Msg("signed up")
		return u, nil
	}

	login := func(ctx context.Context, req auth.LoginRequest) (auth.User, error) {
		if v := auth.ValidateLogin(req); !v.Valid {
			return auth.User{}, &apierr.ValidationError{Fields: v.Errors}
		}
		u, err := api.Login(ctx, req)
		if err != nil {
			return auth.User{}, err
		}
		logger.Info().Str("email", u.Email).Msg("logged in")
		return u, nil
	}

	logout := func(ctx context.Context, _ struct{}) (struct{}, error) {
		if err := api.Logout(ctx); err != nil {
			return struct{}{}, err
		}
		logger.Info().Msg("logged out")
		return struct{}{}, nil
	}

	return &AuthQueries{
		me:     query.NewQuery(cache, KeyAuthMe, api.CurrentUser),
		signup: query.NewMutation(cache, "auth.signup", signup, KeyAuth),
		login:  query.NewMutation(cache, "auth.login", login, KeyAuth),
		logout: query.NewMutation(cache, "auth.logout", logout, KeyAuth),
	}
}

// CurrentUser reads the session. Unauthenticated resolves to auth.Anonymous.
func (a *AuthQueries) CurrentUser() *query.Query[auth.Session] {
	return a.me
}

// IsAuthenticated resolves the session and reports whether it has a user.
// A failed session read counts as not authenticated.
func (a *AuthQueries) IsAuthenticated(ctx context.Context) (authenticated, isLoading bool) {
	r := a.me.Use(ctx)
	return auth.IsAuthenticated(r.Data), r.IsLoading
}

// Signup creates an account. Invalid requests fail with *apierr.ValidationError
// before any request is sent.
func (a *AuthQueries) Signup() *query.Mutation[auth.SignupRequest, auth.User] {
	return a.signup
}

// Login starts a session.
func (a *AuthQueries) Login() *query.Mutation[auth.LoginRequest, auth.User] {
	return a.login
}

// Logout ends the session.
func (a *AuthQueries) Logout() *query.Mutation[struct{}, struct{}] {
	return a.logout
}
