// Package service implements the application's account and scan flows on
// top of the repository and auth primitives.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/plantscan/plantscan/internal/auth"
	"github.com/plantscan/plantscan/internal/model"
	"github.com/plantscan/plantscan/internal/repository"
)

// Common errors for auth flows.
var (
	// ErrEmailTaken indicates a signup against an already registered email.
	ErrEmailTaken = errors.New("email already registered")
	// ErrInvalidCredentials covers both unknown email and wrong password.
	// The two cases are never distinguished, to avoid user enumeration.
	ErrInvalidCredentials = errors.New("invalid credentials")
)

// UserStore is the subset of the repository the auth flows need.
type UserStore interface {
	CreateUser(ctx context.Context, user *model.User) error
	GetUserByEmail(ctx context.Context, email string) (*model.User, error)
}

// AuthService composes the credential store, password hasher, token
// issuer and federated identity verifier into the account flows.
type AuthService struct {
	users  UserStore
	tokens *auth.TokenManager
	google auth.GoogleVerifier
	logger *slog.Logger
}

// NewAuthService creates an AuthService.
func NewAuthService(users UserStore, tokens *auth.TokenManager, google auth.GoogleVerifier, logger *slog.Logger) *AuthService {
	return &AuthService{
		users:  users,
		tokens: tokens,
		google: google,
		logger: logger,
	}
}

// Signup registers a new account. Fails with ErrEmailTaken when the email
// is already registered, including the race where a concurrent signup wins
// the insert.
func (s *AuthService) Signup(ctx context.Context, email, name, password string) (*model.User, error) {
	_, err := s.users.GetUserByEmail(ctx, email)
	if err == nil {
		return nil, ErrEmailTaken
	}
	if !errors.Is(err, repository.ErrUserNotFound) {
		return nil, fmt.Errorf("failed to check existing user: %w", err)
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &model.User{
		ID:           uuid.New().String(),
		Email:        email,
		Name:         name,
		PasswordHash: hash,
		CreatedAt:    time.Now().UTC(),
	}

	if err := s.users.CreateUser(ctx, user); err != nil {
		if errors.Is(err, repository.ErrEmailExists) {
			return nil, ErrEmailTaken
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	s.logger.Info("user registered", "user_id", user.ID)
	return user, nil
}

// Login verifies credentials and issues a bearer token. Unknown email and
// wrong password both yield ErrInvalidCredentials.
func (s *AuthService) Login(ctx context.Context, email, password string) (string, error) {
	user, err := s.users.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return "", ErrInvalidCredentials
		}
		return "", fmt.Errorf("failed to look up user: %w", err)
	}

	ok, err := auth.VerifyPassword(password, user.PasswordHash)
	if err != nil {
		// A malformed stored hash is a server-side defect, not a
		// credential failure.
		return "", fmt.Errorf("failed to verify password: %w", err)
	}
	if !ok {
		return "", ErrInvalidCredentials
	}

	token, err := s.tokens.Issue(user.Email)
	if err != nil {
		return "", fmt.Errorf("failed to issue token: %w", err)
	}

	return token, nil
}

// GoogleLogin validates a Google-issued ID token and issues one of our own
// bearer tokens. A first-seen verified email creates the account with a
// random, never-displayed password.
func (s *AuthService) GoogleLogin(ctx context.Context, providerToken string) (string, error) {
	email, name, err := s.google.Verify(ctx, providerToken)
	if err != nil {
		return "", auth.ErrInvalidGoogleToken
	}

	user, err := s.users.GetUserByEmail(ctx, email)
	if errors.Is(err, repository.ErrUserNotFound) {
		user, err = s.createFederatedUser(ctx, email, name)
	}
	if err != nil {
		return "", err
	}

	token, err := s.tokens.Issue(user.Email)
	if err != nil {
		return "", fmt.Errorf("failed to issue token: %w", err)
	}

	return token, nil
}

func (s *AuthService) createFederatedUser(ctx context.Context, email, name string) (*model.User, error) {
	password, err := auth.RandomPassword()
	if err != nil {
		return nil, err
	}
	hash, err := auth.HashPassword(password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash generated password: %w", err)
	}

	user := &model.User{
		ID:           uuid.New().String(),
		Email:        email,
		Name:         name,
		PasswordHash: hash,
		CreatedAt:    time.Now().UTC(),
	}

	if err := s.users.CreateUser(ctx, user); err != nil {
		// Concurrent first logins with the same email: reuse the row
		// the winner inserted.
		if errors.Is(err, repository.ErrEmailExists) {
			return s.users.GetUserByEmail(ctx, email)
		}
		return nil, fmt.Errorf("failed to create federated user: %w", err)
	}

	s.logger.Info("federated user registered", "user_id", user.ID)
	return user, nil
}

// CurrentUser resolves a bearer token to its account. Every failure mode
// (bad token, expired, unknown subject) reports auth.ErrInvalidToken.
func (s *AuthService) CurrentUser(ctx context.Context, tokenString string) (*model.User, error) {
	email, err := s.tokens.Verify(tokenString)
	if err != nil {
		return nil, auth.ErrInvalidToken
	}

	user, err := s.users.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, auth.ErrInvalidToken
		}
		return nil, fmt.Errorf("failed to look up user: %w", err)
	}

	return user, nil
}
