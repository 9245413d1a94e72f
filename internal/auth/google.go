package auth

import (
	"context"
	"errors"

	"google.golang.org/api/idtoken"
)

// ErrInvalidGoogleToken covers every provider-token failure: bad signature,
// wrong audience, expired, or malformed.
var ErrInvalidGoogleToken = errors.New("invalid Google token")

// defaultGoogleName is used when the verified token carries no name claim.
const defaultGoogleName = "Google User"

// GoogleVerifier validates a Google-issued ID token and extracts the
// verified identity.
type GoogleVerifier interface {
	Verify(ctx context.Context, token string) (email, name string, err error)
}

// googleVerifier validates tokens against Google's published signing keys
// with the configured OAuth client ID as the expected audience.
type googleVerifier struct {
	clientID string
}

// NewGoogleVerifier creates a GoogleVerifier for the given client ID.
func NewGoogleVerifier(clientID string) GoogleVerifier {
	return &googleVerifier{clientID: clientID}
}

func (v *googleVerifier) Verify(ctx context.Context, token string) (string, string, error) {
	payload, err := idtoken.Validate(ctx, token, v.clientID)
	if err != nil {
		return "", "", ErrInvalidGoogleToken
	}

	email, _ := payload.Claims["email"].(string)
	if email == "" {
		return "", "", ErrInvalidGoogleToken
	}

	name, _ := payload.Claims["name"].(string)
	if name == "" {
		name = defaultGoogleName
	}

	return email, name, nil
}
