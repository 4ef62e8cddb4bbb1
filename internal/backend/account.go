package backend

import (
	"context"
	"net/http"

	"github.com/listenupapp/readtrack/internal/domain"
	domainerrors "github.com/listenupapp/readtrack/internal/errors"
	"github.com/listenupapp/readtrack/internal/session"
)

// Stats returns the user's reading statistics.
func (c *Client) Stats(ctx context.Context, sess *session.Session) (*domain.AggregateStats, error) {
	var raw rawStats
	err := c.do(ctx, call{
		op:     "stats",
		method: http.MethodGet,
		path:   "/api/me/stats",
		sess:   sess,
		out:    &raw,
	})
	if err != nil {
		return nil, err
	}
	return raw.toDomain(), nil
}

// Me returns the user a bearer token belongs to.
func (c *Client) Me(ctx context.Context, token string) (*domain.User, error) {
	var raw rawUser
	err := c.do(ctx, call{
		op:     "me",
		method: http.MethodGet,
		path:   "/api/auth/me",
		token:  token,
		out:    &raw,
	})
	if err != nil {
		return nil, err
	}
	user := raw.toDomain()
	return &user, nil
}

// Login exchanges credentials for a bearer token.
func (c *Client) Login(ctx context.Context, email, password string) (*domain.AuthResult, error) {
	return c.authenticate(ctx, "login", "/api/auth/login", loginRequest{Email: email, Password: password})
}

// Register creates an account and returns its first bearer token.
func (c *Client) Register(ctx context.Context, email, password, name string) (*domain.AuthResult, error) {
	return c.authenticate(ctx, "register", "/api/auth/register", registerRequest{Email: email, Password: password, Name: name})
}

func (c *Client) authenticate(ctx context.Context, op, path string, body any) (*domain.AuthResult, error) {
	var raw rawAuth
	err := c.do(ctx, call{
		op:     op,
		method: http.MethodPost,
		path:   path,
		body:   body,
		out:    &raw,
	})
	if err != nil {
		return nil, err
	}
	if raw.Token == "" {
		return nil, wrapError(op, http.StatusOK, domainerrors.Internal("backend issued no token"))
	}
	return &domain.AuthResult{Token: raw.Token, User: raw.User.toDomain()}, nil
}

// UpdateName changes the display name of the session's user.
func (c *Client) UpdateName(ctx context.Context, sess *session.Session, name string) error {
	return c.do(ctx, call{
		op:     "updateName",
		method: http.MethodPatch,
		path:   "/api/me/profile",
		sess:   sess,
		body:   profileRequest{Name: name},
	})
}

// ChangePassword sets a new password for the session's user.
func (c *Client) ChangePassword(ctx context.Context, sess *session.Session, password string) error {
	return c.do(ctx, call{
		op:     "changePassword",
		method: http.MethodPatch,
		path:   "/api/me/password",
		sess:   sess,
		body:   passwordRequest{Password: password},
	})
}
