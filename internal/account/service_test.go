package account

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/listenupapp/readtrack/internal/domain"
	domainerrors "github.com/listenupapp/readtrack/internal/errors"
	"github.com/listenupapp/readtrack/internal/session"
)

type fakeIdentity struct {
	calls       int
	err         error
	gotEmail    string
	gotName     string
	gotPassword string
}

func (f *fakeIdentity) result(email, name string) (*domain.AuthResult, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return &domain.AuthResult{
		Token: "tok-new",
		User:  domain.User{ID: 3, Email: email, Name: name},
	}, nil
}

func (f *fakeIdentity) Login(_ context.Context, email, password string) (*domain.AuthResult, error) {
	f.gotEmail, f.gotPassword = email, password
	return f.result(email, "Anna")
}

func (f *fakeIdentity) Register(_ context.Context, email, password, name string) (*domain.AuthResult, error) {
	f.gotEmail, f.gotPassword, f.gotName = email, password, name
	return f.result(email, name)
}

func (f *fakeIdentity) UpdateName(_ context.Context, _ *session.Session, name string) error {
	f.calls++
	f.gotName = name
	return f.err
}

func (f *fakeIdentity) ChangePassword(_ context.Context, _ *session.Session, password string) error {
	f.calls++
	f.gotPassword = password
	return f.err
}

type fakeSessions struct {
	invalidated []string
}

func (s *fakeSessions) Invalidate(token string) {
	s.invalidated = append(s.invalidated, token)
}

var testSession = &session.Session{UserID: 3, Email: "anna@example.com", Name: "Anna", Token: "tok-3"}

func newTestService() (*Service, *fakeIdentity, *fakeSessions) {
	identity := &fakeIdentity{}
	sessions := &fakeSessions{}
	return NewService(identity, sessions, nil, nil), identity, sessions
}

func TestLogin(t *testing.T) {
	svc, identity, _ := newTestService()

	sess, err := svc.Login(context.Background(), "  anna@example.com ", "secret")
	require.NoError(t, err)
	assert.Equal(t, "anna@example.com", identity.gotEmail)
	assert.Equal(t, "secret", identity.gotPassword)
	assert.Equal(t, "tok-new", sess.Token)
	assert.Equal(t, int64(3), sess.UserID)
	assert.True(t, sess.Authenticated())
}

func TestLogin_Validation(t *testing.T) {
	tests := []struct {
		name     string
		email    string
		password string
		field    string
	}{
		{"missing email", "", "secret", "email"},
		{"malformed email", "anna", "secret", "email"},
		{"blank password", "anna@example.com", "  ", "password"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, identity, _ := newTestService()

			_, err := svc.Login(context.Background(), tt.email, tt.password)
			assert.ErrorIs(t, err, domainerrors.ErrValidation)
			assert.Equal(t, tt.field, domainerrors.FieldOf(err))
			assert.Zero(t, identity.calls)
		})
	}
}

func TestLogin_RejectedCredentials(t *testing.T) {
	svc, identity, _ := newTestService()
	identity.err = domainerrors.AuthRequired("invalid credentials")

	_, err := svc.Login(context.Background(), "anna@example.com", "wrong")
	assert.ErrorIs(t, err, domainerrors.ErrAuthRequired)
}

func TestRegister_DefaultsName(t *testing.T) {
	svc, identity, _ := newTestService()

	sess, err := svc.Register(context.Background(), "new@example.com", "secret", "  ")
	require.NoError(t, err)
	assert.Equal(t, DefaultName, identity.gotName)
	assert.Equal(t, DefaultName, sess.Name)
}

func TestRegister_ConflictSurfaces(t *testing.T) {
	svc, identity, _ := newTestService()
	identity.err = domainerrors.Conflict("email already registered")

	_, err := svc.Register(context.Background(), "anna@example.com", "secret", "Anna")
	assert.ErrorIs(t, err, domainerrors.ErrConflict)
}

func TestMe(t *testing.T) {
	svc, _, _ := newTestService()

	user, err := svc.Me(testSession)
	require.NoError(t, err)
	assert.Equal(t, &domain.User{ID: 3, Email: "anna@example.com", Name: "Anna"}, user)

	_, err = svc.Me(nil)
	assert.ErrorIs(t, err, domainerrors.ErrAuthRequired)
}

func TestUpdateName(t *testing.T) {
	svc, identity, sessions := newTestService()

	user, err := svc.UpdateName(context.Background(), testSession, "  Anya ")
	require.NoError(t, err)
	assert.Equal(t, "Anya", identity.gotName)
	assert.Equal(t, "Anya", user.Name)
	assert.Equal(t, []string{"tok-3"}, sessions.invalidated)
}

func TestUpdateName_FailureKeepsSession(t *testing.T) {
	svc, identity, sessions := newTestService()
	identity.err = domainerrors.Transientf("backend unavailable")

	_, err := svc.UpdateName(context.Background(), testSession, "Anya")
	assert.True(t, domainerrors.IsRetryable(err))
	assert.Empty(t, sessions.invalidated)
}

func TestAccountEdits_Validation(t *testing.T) {
	svc, identity, _ := newTestService()

	_, err := svc.UpdateName(context.Background(), testSession, " ")
	assert.Equal(t, "name", domainerrors.FieldOf(err))

	err = svc.ChangePassword(context.Background(), testSession, "")
	assert.Equal(t, "password", domainerrors.FieldOf(err))

	assert.Zero(t, identity.calls)
}

func TestAccountEdits_RequireSession(t *testing.T) {
	svc, identity, _ := newTestService()

	_, err := svc.UpdateName(context.Background(), &session.Session{}, "Anya")
	assert.ErrorIs(t, err, domainerrors.ErrAuthRequired)

	err = svc.ChangePassword(context.Background(), nil, "secret")
	assert.ErrorIs(t, err, domainerrors.ErrAuthRequired)

	assert.Zero(t, identity.calls)
}

func TestChangePassword(t *testing.T) {
	svc, identity, _ := newTestService()

	require.NoError(t, svc.ChangePassword(context.Background(), testSession, "n3w pass"))
	assert.Equal(t, "n3w pass", identity.gotPassword)
}
