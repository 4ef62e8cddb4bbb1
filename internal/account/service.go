// Package account signs users in against the backend and edits their profile.
// Credentials are only passed through; nothing here stores them.
package account

import (
	"context"
	"log/slog"
	"strings"

	"github.com/listenupapp/readtrack/internal/domain"
	"github.com/listenupapp/readtrack/internal/session"
	"github.com/listenupapp/readtrack/internal/validation"
)

// DefaultName is used when a registration does not give one.
const DefaultName = "User"

// Identity is the backend's account API.
type Identity interface {
	Login(ctx context.Context, email, password string) (*domain.AuthResult, error)
	Register(ctx context.Context, email, password, name string) (*domain.AuthResult, error)
	UpdateName(ctx context.Context, sess *session.Session, name string) error
	ChangePassword(ctx context.Context, sess *session.Session, password string) error
}

// Sessions forgets resolved sessions whose identity changed.
// *session.Resolver implements it.
type Sessions interface {
	Invalidate(token string)
}

// Service runs the account intents.
type Service struct {
	identity  Identity
	sessions  Sessions
	validator *validation.Validator
	logger    *slog.Logger
}

// NewService creates an account service. sessions may be nil.
func NewService(identity Identity, sessions Sessions, v *validation.Validator, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	if v == nil {
		v = validation.New()
	}
	return &Service{
		identity:  identity,
		sessions:  sessions,
		validator: v,
		logger:    logger,
	}
}

type loginInput struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"notblank"`
}

type registerInput struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"notblank"`
	Name     string `json:"name" validate:"notblank"`
}

type nameInput struct {
	Name string `json:"name" validate:"notblank"`
}

type passwordInput struct {
	Password string `json:"password" validate:"notblank"`
}

// Login signs in with email and password and returns the new session.
func (s *Service) Login(ctx context.Context, email, password string) (*session.Session, error) {
	in := loginInput{Email: strings.TrimSpace(email), Password: password}
	if err := s.validator.Validate(in); err != nil {
		return nil, err
	}

	res, err := s.identity.Login(ctx, in.Email, in.Password)
	if err != nil {
		return nil, err
	}

	s.logger.Info("user signed in", "user_id", res.User.ID)
	return session.FromUser(&res.User, res.Token), nil
}

// Register creates an account and returns its session. A blank name becomes
// DefaultName.
func (s *Service) Register(ctx context.Context, email, password, name string) (*session.Session, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		name = DefaultName
	}
	in := registerInput{Email: strings.TrimSpace(email), Password: password, Name: name}
	if err := s.validator.Validate(in); err != nil {
		return nil, err
	}

	res, err := s.identity.Register(ctx, in.Email, in.Password, in.Name)
	if err != nil {
		return nil, err
	}

	s.logger.Info("user registered", "user_id", res.User.ID)
	return session.FromUser(&res.User, res.Token), nil
}

// Me returns the session's user.
func (s *Service) Me(sess *session.Session) (*domain.User, error) {
	if err := session.Require(sess); err != nil {
		return nil, err
	}
	return &domain.User{ID: sess.UserID, Email: sess.Email, Name: sess.Name}, nil
}

// UpdateName changes the user's display name and returns the updated user.
// The token's cached session is dropped so later requests see the new name.
func (s *Service) UpdateName(ctx context.Context, sess *session.Session, name string) (*domain.User, error) {
	if err := session.Require(sess); err != nil {
		return nil, err
	}
	in := nameInput{Name: strings.TrimSpace(name)}
	if err := s.validator.Validate(in); err != nil {
		return nil, err
	}

	if err := s.identity.UpdateName(ctx, sess, in.Name); err != nil {
		return nil, err
	}
	if s.sessions != nil {
		s.sessions.Invalidate(sess.Token)
	}

	s.logger.Info("profile updated", "user_id", sess.UserID)
	return &domain.User{ID: sess.UserID, Email: sess.Email, Name: in.Name}, nil
}

// ChangePassword sets a new password. The password is sent as given.
func (s *Service) ChangePassword(ctx context.Context, sess *session.Session, password string) error {
	if err := session.Require(sess); err != nil {
		return err
	}
	if err := s.validator.Validate(passwordInput{Password: password}); err != nil {
		return err
	}

	if err := s.identity.ChangePassword(ctx, sess, password); err != nil {
		return err
	}

	s.logger.Info("password changed", "user_id", sess.UserID)
	return nil
}
