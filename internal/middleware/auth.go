package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/plantscan/plantscan/internal/auth"
	"github.com/plantscan/plantscan/internal/model"
)

// unauthorizedBody matches the fixed wire format for credential failures.
const unauthorizedBody = `{"detail":"Could not validate credentials"}`

// UserResolver resolves a bearer token to its account. Implemented by
// service.AuthService.
type UserResolver interface {
	CurrentUser(ctx context.Context, token string) (*model.User, error)
}

// AuthConfig holds dependencies for the auth middleware.
type AuthConfig struct {
	Logger *slog.Logger
	Users  UserResolver
}

// RequireAuth returns a middleware that rejects requests without a valid
// bearer token. The 401 response advertises the bearer challenge scheme
// and never says which check failed.
func RequireAuth(cfg AuthConfig) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, ok := bearerToken(r)
			if !ok {
				writeUnauthorized(w)
				return
			}

			user, err := cfg.Users.CurrentUser(r.Context(), token)
			if err != nil {
				cfg.Logger.Warn("rejected bearer token",
					"request_id", GetRequestID(r.Context()),
					"path", r.URL.Path,
				)
				writeUnauthorized(w)
				return
			}

			next.ServeHTTP(w, r.WithContext(auth.ContextWithUser(r.Context(), user)))
		})
	}
}

// OptionalAuth attaches the authenticated user to the context when a valid
// bearer token is present, and passes the request through anonymously
// otherwise. Used on endpoints whose contract does not require auth but
// which personalize behavior for signed-in callers.
func OptionalAuth(cfg AuthConfig) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if token, ok := bearerToken(r); ok {
				if user, err := cfg.Users.CurrentUser(r.Context(), token); err == nil {
					r = r.WithContext(auth.ContextWithUser(r.Context(), user))
				}
			}

			next.ServeHTTP(w, r)
		})
	}
}

// bearerToken extracts the token from an "Authorization: Bearer <token>"
// header. The scheme comparison is case-insensitive.
func bearerToken(r *http.Request) (string, bool) {
	header := r.Header.Get("Authorization")
	if header == "" {
		return "", false
	}

	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return "", false
	}

	token := strings.TrimSpace(parts[1])
	return token, token != ""
}

func writeUnauthorized(w http.ResponseWriter) {
	w.Header().Set("WWW-Authenticate", "Bearer")
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	w.Write([]byte(unauthorizedBody))
}
