// Package dto provides Data Transfer Objects for API requests and responses.
package dto

import (
	"github.com/plantscan/plantscan/internal/model"
)

// SignupRequest represents the request body for account creation.
type SignupRequest struct {
	Email    string `json:"email"`
	Name     string `json:"name"`
	Password string `json:"password"`
}

// LoginRequest represents the request body for password login.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// GoogleLoginRequest carries the provider-issued ID token.
type GoogleLoginRequest struct {
	Token string `json:"token"`
}

// UserResponse is the public view of an account. It never carries the
// password hash.
type UserResponse struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name"`
}

// TokenResponse is returned by both login flows.
type TokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

// ErrorResponse is the API's error shape.
type ErrorResponse struct {
	Detail string `json:"detail"`
}

// ToUserResponse converts a User model to its public view.
func ToUserResponse(user *model.User) *UserResponse {
	return &UserResponse{
		ID:    user.ID,
		Email: user.Email,
		Name:  user.Name,
	}
}

// NewTokenResponse wraps a bearer token for the wire.
func NewTokenResponse(token string) *TokenResponse {
	return &TokenResponse{
		AccessToken: token,
		TokenType:   "bearer",
	}
}
