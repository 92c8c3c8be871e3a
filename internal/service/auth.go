// Package service holds the business rules of foodgram.
//
// Services sit between the HTTP handlers (and the CLI) and the repositories:
//
//	Handler (HTTP) / CLI → Service (rules, orchestration) → Repository (SQL)
//
// They take and return domain types from internal/model, never HTTP types,
// and report rejections as *apperror.AppError so every caller maps them the
// same way. Repositories are injected as interfaces; tests use fakes.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/sakif/foodgram/internal/apperror"
	"github.com/sakif/foodgram/internal/auth"
	"github.com/sakif/foodgram/internal/model"
	"github.com/sakif/foodgram/internal/repository"
	"github.com/sakif/foodgram/internal/validation"
)

// AuthService registers accounts and turns credentials into tokens.
//
//	AuthHandler → AuthService → UserRepository
//	                          ↘ TokenService (JWT), PasswordService (bcrypt)
type AuthService struct {
	users     repository.UserRepository
	tokens    *auth.TokenService
	passwords *auth.PasswordService
	logger    *slog.Logger
}

func NewAuthService(
	users repository.UserRepository,
	tokens *auth.TokenService,
	passwords *auth.PasswordService,
	logger *slog.Logger,
) *AuthService {
	return &AuthService{
		users:     users,
		tokens:    tokens,
		passwords: passwords,
		logger:    logger,
	}
}

// AuthResult bundles the user and the issued JWT so the handler can set the
// cookie and respond in one step.
type AuthResult struct {
	User  *model.User
	Token string
}

// RegisterInput is the sign-up form.
type RegisterInput struct {
	Email     string `json:"email" validate:"required,email,max=254"`
	Username  string `json:"username" validate:"required,username,max=150"`
	FirstName string `json:"first_name" validate:"required,max=150"`
	LastName  string `json:"last_name" validate:"required,max=150"`
	Password  string `json:"password" validate:"required,min=8,max=72"`
}

// SetPasswordInput changes the caller's password.
type SetPasswordInput struct {
	CurrentPassword string `json:"current_password" validate:"required"`
	NewPassword     string `json:"new_password" validate:"required,min=8,max=72"`
}

func badCredentials() *apperror.AppError {
	return apperror.Unauthorized("invalid email or password")
}

// Register creates a password account. Emails are stored lower-cased so
// login is case-insensitive.
func (s *AuthService) Register(ctx context.Context, in RegisterInput) (*model.User, error) {
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
	in.Username = strings.TrimSpace(in.Username)
	in.FirstName = strings.TrimSpace(in.FirstName)
	in.LastName = strings.TrimSpace(in.LastName)

	if err := validation.ValidateStruct(&in); err != nil {
		return nil, err
	}
	if len(in.Password) > auth.MaxPasswordBytes {
		return nil, apperror.ValidationFailed("password",
			fmt.Sprintf("password must be %d bytes or fewer", auth.MaxPasswordBytes))
	}

	hash, err := s.passwords.Hash(in.Password)
	if err != nil {
		return nil, fmt.Errorf("service/auth: %w", err)
	}

	user := &model.User{
		Email:        in.Email,
		Username:     in.Username,
		FirstName:    in.FirstName,
		LastName:     in.LastName,
		PasswordHash: hash,
	}
	if err := s.users.CreateUser(ctx, user); err != nil {
		if errors.Is(err, apperror.ErrConflict) {
			return nil, err
		}
		s.logger.Error("failed to create user",
			slog.String("username", in.Username),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("service/auth: creating user: %w", err)
	}

	s.logger.Info("user registered",
		slog.String("userID", user.ID),
		slog.String("username", user.Username),
	)
	return user, nil
}

// Login checks an email and password and issues a token.
//
// Unknown emails and GitHub-only accounts still pay for one bcrypt
// comparison, and every failure returns the same error, so neither the
// response nor its timing tells a caller which emails are registered.
func (s *AuthService) Login(ctx context.Context, email, password string) (*AuthResult, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || password == "" {
		return nil, badCredentials()
	}

	user, err := s.users.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			s.passwords.VerifyNothing(password)
			return nil, badCredentials()
		}
		return nil, fmt.Errorf("service/auth: looking up %s: %w", email, err)
	}
	if user.PasswordHash == "" {
		s.passwords.VerifyNothing(password)
		return nil, badCredentials()
	}

	if err := s.passwords.Verify(user.PasswordHash, password); err != nil {
		if errors.Is(err, auth.ErrInvalidPassword) {
			s.logger.Info("login rejected", slog.String("userID", user.ID))
			return nil, badCredentials()
		}
		return nil, fmt.Errorf("service/auth: %w", err)
	}

	return s.issue(user, "password")
}

// SetPassword replaces the caller's password after checking the current one.
func (s *AuthService) SetPassword(ctx context.Context, userID string, in SetPasswordInput) error {
	if err := validation.ValidateStruct(&in); err != nil {
		return err
	}
	if len(in.NewPassword) > auth.MaxPasswordBytes {
		return apperror.ValidationFailed("new_password",
			fmt.Sprintf("password must be %d bytes or fewer", auth.MaxPasswordBytes))
	}

	user, err := s.users.GetUserByID(ctx, userID)
	if err != nil {
		return fmt.Errorf("service/auth: fetching user %s: %w", userID, err)
	}
	if user.PasswordHash == "" {
		return apperror.ValidationFailed("current_password", "account has no password, sign in with GitHub")
	}
	if err := s.passwords.Verify(user.PasswordHash, in.CurrentPassword); err != nil {
		if errors.Is(err, auth.ErrInvalidPassword) {
			return apperror.ValidationFailed("current_password", "current password is incorrect")
		}
		return fmt.Errorf("service/auth: %w", err)
	}

	hash, err := s.passwords.Hash(in.NewPassword)
	if err != nil {
		return fmt.Errorf("service/auth: %w", err)
	}
	if err := s.users.UpdatePassword(ctx, userID, hash); err != nil {
		return fmt.Errorf("service/auth: updating password: %w", err)
	}

	s.logger.Info("password changed", slog.String("userID", userID))
	return nil
}

// LoginOrRegisterGitHub handles the GitHub OAuth callback: upsert the user
// keyed by GitHub ID, then issue a token.
//
// On first login the GitHub login becomes the username. If a password
// account already holds that username the GitHub ID is appended; if it holds
// the email, the new account is created without one. Existing accounts are
// never merged by email.
func (s *AuthService) LoginOrRegisterGitHub(ctx context.Context, ghUser *auth.GitHubUser) (*AuthResult, error) {
	if ghUser == nil {
		return nil, fmt.Errorf("service/auth: GitHub user must not be nil")
	}

	first, last, _ := strings.Cut(strings.TrimSpace(ghUser.Name), " ")
	user := &model.User{
		GitHubID:  ghUser.ID,
		Username:  ghUser.Login,
		Email:     strings.ToLower(ghUser.Email),
		FirstName: first,
		LastName:  strings.TrimSpace(last),
	}

	err := s.users.Upsert(ctx, user)
	for attempt := 0; err != nil && attempt < 2; attempt++ {
		var appErr *apperror.AppError
		if !errors.As(err, &appErr) || !errors.Is(err, apperror.ErrConflict) {
			break
		}
		switch appErr.Field {
		case "username":
			user.Username = fmt.Sprintf("%s-%d", ghUser.Login, ghUser.ID)
		case "email":
			user.Email = ""
		default:
			return nil, err
		}
		err = s.users.Upsert(ctx, user)
	}
	if err != nil {
		return nil, fmt.Errorf("service/auth: upserting user (githubID=%d): %w", ghUser.ID, err)
	}

	return s.issue(user, "github")
}

func (s *AuthService) issue(user *model.User, method string) (*AuthResult, error) {
	token, err := s.tokens.Generate(user.ID)
	if err != nil {
		return nil, fmt.Errorf("service/auth: generating token for user %s: %w", user.ID, err)
	}

	s.logger.Info("user authenticated",
		slog.String("userID", user.ID),
		slog.String("username", user.Username),
		slog.String("method", method),
	)
	return &AuthResult{User: user, Token: token}, nil
}

// GetUserByID returns the account behind a validated token.
func (s *AuthService) GetUserByID(ctx context.Context, id string) (*model.User, error) {
	if id == "" {
		return nil, fmt.Errorf("service/auth: user ID must not be empty")
	}

	user, err := s.users.GetUserByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("service/auth: fetching user %s: %w", id, err)
	}
	return user, nil
}

// ValidateToken returns the user ID a JWT was issued for.
func (s *AuthService) ValidateToken(tokenStr string) (string, error) {
	userID, err := s.tokens.Validate(tokenStr)
	if err != nil {
		return "", fmt.Errorf("service/auth: %w", err)
	}
	return userID, nil
}

// TokenTTL is how long issued tokens (and the auth cookie) stay valid.
func (s *AuthService) TokenTTL() time.Duration {
	return s.tokens.TTL()
}
