package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/plantscan/plantscan/internal/auth"
	"github.com/plantscan/plantscan/internal/model"
)

// fakeResolver accepts a single token value.
type fakeResolver struct {
	token string
	user  *model.User
}

func (f *fakeResolver) CurrentUser(ctx context.Context, token string) (*model.User, error) {
	if token != f.token {
		return nil, errors.New("invalid token")
	}
	return f.user, nil
}

func testAuthConfig() AuthConfig {
	return AuthConfig{
		Logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
		Users: &fakeResolver{
			token: "good-token",
			user:  &model.User{ID: "u1", Email: "a@x.com", Name: "A"},
		},
	}
}

// echoUser writes the authenticated user's email, or "anonymous".
func echoUser(w http.ResponseWriter, r *http.Request) {
	if user := auth.UserFromContext(r.Context()); user != nil {
		w.Write([]byte(user.Email))
		return
	}
	w.Write([]byte("anonymous"))
}

func TestRequireAuth_ValidToken(t *testing.T) {
	handler := RequireAuth(testAuthConfig())(http.HandlerFunc(echoUser))

	req := httptest.NewRequest(http.MethodGet, "/api/auth/me", nil)
	req.Header.Set("Authorization", "Bearer good-token")
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if rec.Body.String() != "a@x.com" {
		t.Errorf("expected user email in body, got %q", rec.Body.String())
	}
}

func TestRequireAuth_Failures(t *testing.T) {
	cases := []struct {
		name   string
		header string
	}{
		{"missing header", ""},
		{"wrong scheme", "Basic Zm9vOmJhcg=="},
		{"empty token", "Bearer "},
		{"invalid token", "Bearer forged"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			handler := RequireAuth(testAuthConfig())(http.HandlerFunc(echoUser))

			req := httptest.NewRequest(http.MethodGet, "/api/auth/me", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			rec := httptest.NewRecorder()

			handler.ServeHTTP(rec, req)

			if rec.Code != http.StatusUnauthorized {
				t.Fatalf("expected 401, got %d", rec.Code)
			}
			if got := rec.Header().Get("WWW-Authenticate"); got != "Bearer" {
				t.Errorf("expected WWW-Authenticate: Bearer, got %q", got)
			}

			var body map[string]string
			if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
				t.Fatalf("failed to decode body: %v", err)
			}
			if body["detail"] != "Could not validate credentials" {
				t.Errorf("unexpected detail: %q", body["detail"])
			}
		})
	}
}

func TestRequireAuth_CaseInsensitiveScheme(t *testing.T) {
	handler := RequireAuth(testAuthConfig())(http.HandlerFunc(echoUser))

	req := httptest.NewRequest(http.MethodGet, "/api/auth/me", nil)
	req.Header.Set("Authorization", "bearer good-token")
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("expected 200 for lowercase scheme, got %d", rec.Code)
	}
}

func TestOptionalAuth_AttachesUserWhenValid(t *testing.T) {
	handler := OptionalAuth(testAuthConfig())(http.HandlerFunc(echoUser))

	req := httptest.NewRequest(http.MethodPost, "/predict-image", nil)
	req.Header.Set("Authorization", "Bearer good-token")
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	if rec.Body.String() != "a@x.com" {
		t.Errorf("expected authenticated user, got %q", rec.Body.String())
	}
}

func TestOptionalAuth_PassesThroughAnonymously(t *testing.T) {
	for _, header := range []string{"", "Bearer forged"} {
		handler := OptionalAuth(testAuthConfig())(http.HandlerFunc(echoUser))

		req := httptest.NewRequest(http.MethodPost, "/predict-image", nil)
		if header != "" {
			req.Header.Set("Authorization", header)
		}
		rec := httptest.NewRecorder()

		handler.ServeHTTP(rec, req)

		if rec.Code != http.StatusOK {
			t.Fatalf("optional auth must not reject, got %d", rec.Code)
		}
		if rec.Body.String() != "anonymous" {
			t.Errorf("expected anonymous, got %q", rec.Body.String())
		}
	}
}
