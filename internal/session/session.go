// Package session carries the signed-in user's identity through the core.
// Every core operation takes a *Session explicitly; none of them look it up
// from ambient state.
package session

import (
	"context"
	"strconv"

	"github.com/listenupapp/readtrack/internal/domain"
	domainerrors "github.com/listenupapp/readtrack/internal/errors"
)

// Session is an authenticated user plus the bearer token the backend issued.
type Session struct {
	UserID int64
	Email  string
	Name   string
	Token  string
}

// FromUser builds a session for the given identity and token.
func FromUser(user *domain.User, token string) *Session {
	return &Session{
		UserID: user.ID,
		Email:  user.Email,
		Name:   user.Name,
		Token:  token,
	}
}

// Authenticated is true iff both the token and the user id are present.
// It is safe to call on a nil session.
func (s *Session) Authenticated() bool {
	return s != nil && s.Token != "" && s.UserID != 0
}

// Key identifies the session's user for per-user state.
func (s *Session) Key() string {
	return strconv.FormatInt(s.UserID, 10)
}

// Require returns an AuthRequired error unless s is authenticated.
func Require(s *Session) error {
	if !s.Authenticated() {
		return domainerrors.AuthRequired("sign in to continue")
	}
	return nil
}

// ctxKey is the type for context keys to avoid collisions.
type ctxKey string

const sessionKey ctxKey = "session"

// WithSession stores the session in ctx. Only the intent API uses this; core
// operations receive the session as a parameter.
func WithSession(ctx context.Context, s *Session) context.Context {
	return context.WithValue(ctx, sessionKey, s)
}

// FromContext returns the session stored by WithSession, or nil.
func FromContext(ctx context.Context) *Session {
	s, _ := ctx.Value(sessionKey).(*Session)
	return s
}
