package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/listenupapp/readtrack/internal/domain"
	"github.com/listenupapp/readtrack/internal/session"
)

func (s *Server) registerAccountRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "login",
		Method:      http.MethodPost,
		Path:        "/api/v1/auth/login",
		Summary:     "Sign in",
		Description: "Exchanges email and password for a bearer token",
		Tags:        []string{"Account"},
	}, s.handleLogin)

	huma.Register(s.api, huma.Operation{
		OperationID:   "register",
		Method:        http.MethodPost,
		Path:          "/api/v1/auth/register",
		Summary:       "Create account",
		Description:   "Creates an account and returns its bearer token",
		Tags:          []string{"Account"},
		DefaultStatus: http.StatusCreated,
	}, s.handleRegister)

	huma.Register(s.api, huma.Operation{
		OperationID: "getMe",
		Method:      http.MethodGet,
		Path:        "/api/v1/me",
		Summary:     "Get current user",
		Description: "Returns the user the bearer token belongs to",
		Tags:        []string{"Account"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleGetMe)

	huma.Register(s.api, huma.Operation{
		OperationID: "updateProfile",
		Method:      http.MethodPatch,
		Path:        "/api/v1/me/profile",
		Summary:     "Update profile",
		Description: "Changes the caller's display name",
		Tags:        []string{"Account"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleUpdateProfile)

	huma.Register(s.api, huma.Operation{
		OperationID: "changePassword",
		Method:      http.MethodPatch,
		Path:        "/api/v1/me/password",
		Summary:     "Change password",
		Tags:        []string{"Account"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleChangePassword)
}

// === DTOs ===

// UserResponse is a user in API responses.
type UserResponse struct {
	ID    int64  `json:"id" doc:"User ID"`
	Email string `json:"email" doc:"Email address"`
	Name  string `json:"name" doc:"Display name"`
}

// AuthResponse is returned by login and registration.
type AuthResponse struct {
	Token string       `json:"token" doc:"Bearer token for later requests"`
	User  UserResponse `json:"user"`
}

// LoginRequest is the request body for signing in.
type LoginRequest struct {
	Email    string `json:"email,omitempty" doc:"Email address"`
	Password string `json:"password,omitempty" doc:"Password"`
}

// LoginInput wraps the login request for Huma.
type LoginInput struct {
	Body LoginRequest
}

// RegisterRequest is the request body for creating an account.
type RegisterRequest struct {
	Email    string `json:"email,omitempty" doc:"Email address"`
	Password string `json:"password,omitempty" doc:"Password"`
	Name     string `json:"name,omitempty" doc:"Display name, defaults to User"`
}

// RegisterInput wraps the registration request for Huma.
type RegisterInput struct {
	Body RegisterRequest
}

// UpdateProfileRequest is the request body for changing the display name.
type UpdateProfileRequest struct {
	Name string `json:"name,omitempty" doc:"New display name"`
}

// UpdateProfileInput wraps the profile request for Huma.
type UpdateProfileInput struct {
	Body UpdateProfileRequest
}

// ChangePasswordRequest is the request body for changing the password.
type ChangePasswordRequest struct {
	Password string `json:"password,omitempty" doc:"New password"`
}

// ChangePasswordInput wraps the password request for Huma.
type ChangePasswordInput struct {
	Body ChangePasswordRequest
}

// PasswordChangedResponse confirms a password change.
type PasswordChangedResponse struct {
	Changed bool `json:"changed"`
}

// AuthOutput wraps the auth response for Huma.
type AuthOutput struct {
	Body AuthResponse
}

// UserOutput wraps a user for Huma.
type UserOutput struct {
	Body UserResponse
}

// PasswordChangedOutput wraps the password confirmation for Huma.
type PasswordChangedOutput struct {
	Body PasswordChangedResponse
}

// === Handlers ===

func (s *Server) handleLogin(ctx context.Context, input *LoginInput) (*AuthOutput, error) {
	sess, err := s.services.Accounts.Login(ctx, input.Body.Email, input.Body.Password)
	if err != nil {
		return nil, err
	}
	return &AuthOutput{Body: toAuthResponse(sess)}, nil
}

func (s *Server) handleRegister(ctx context.Context, input *RegisterInput) (*AuthOutput, error) {
	sess, err := s.services.Accounts.Register(ctx, input.Body.Email, input.Body.Password, input.Body.Name)
	if err != nil {
		return nil, err
	}
	return &AuthOutput{Body: toAuthResponse(sess)}, nil
}

func (s *Server) handleGetMe(ctx context.Context, _ *struct{}) (*UserOutput, error) {
	user, err := s.services.Accounts.Me(currentSession(ctx))
	if err != nil {
		return nil, err
	}
	return &UserOutput{Body: toUserResponse(user)}, nil
}

func (s *Server) handleUpdateProfile(ctx context.Context, input *UpdateProfileInput) (*UserOutput, error) {
	user, err := s.services.Accounts.UpdateName(ctx, currentSession(ctx), input.Body.Name)
	if err != nil {
		return nil, err
	}
	return &UserOutput{Body: toUserResponse(user)}, nil
}

func (s *Server) handleChangePassword(ctx context.Context, input *ChangePasswordInput) (*PasswordChangedOutput, error) {
	if err := s.services.Accounts.ChangePassword(ctx, currentSession(ctx), input.Body.Password); err != nil {
		return nil, err
	}
	return &PasswordChangedOutput{Body: PasswordChangedResponse{Changed: true}}, nil
}

func toUserResponse(u *domain.User) UserResponse {
	return UserResponse{ID: u.ID, Email: u.Email, Name: u.Name}
}

func toAuthResponse(sess *session.Session) AuthResponse {
	return AuthResponse{
		Token: sess.Token,
		User:  UserResponse{ID: sess.UserID, Email: sess.Email, Name: sess.Name},
	}
}
