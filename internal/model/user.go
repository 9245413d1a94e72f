// Package model defines domain entities for the application.
package model

import "time"

// User represents an account holder. Exactly one row exists per email.
// Federated-login users get a randomly generated password, so PasswordHash
// is never empty regardless of how the account was created.
type User struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	Name         string    `json:"name"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
}
