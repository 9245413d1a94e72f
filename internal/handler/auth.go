package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/plantscan/plantscan/internal/auth"
	"github.com/plantscan/plantscan/internal/handler/dto"
	"github.com/plantscan/plantscan/internal/service"
)

// AuthHandler handles the account endpoints.
type AuthHandler struct {
	svc    *service.AuthService
	logger *slog.Logger
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(svc *service.AuthService, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{
		svc:    svc,
		logger: logger,
	}
}

// Signup handles POST /api/auth/signup.
func (h *AuthHandler) Signup(w http.ResponseWriter, r *http.Request) {
	var req dto.SignupRequest
	if err := decodeJSON(r, &req); err != nil {
		writeDetail(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.Email == "" || req.Name == "" || req.Password == "" {
		writeDetail(w, http.StatusBadRequest, "email, name and password are required")
		return
	}

	user, err := h.svc.Signup(r.Context(), req.Email, req.Name, req.Password)
	if err != nil {
		// The original API reports the duplicate-email conflict as a 400.
		if errors.Is(err, service.ErrEmailTaken) {
			writeDetail(w, http.StatusBadRequest, "Email already registered")
			return
		}
		h.internalError(w, r, err)
		return
	}

	h.logger.Info("signup", "user_id", user.ID)
	writeJSON(w, http.StatusCreated, dto.ToUserResponse(user))
}

// Login handles POST /api/auth/login.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req dto.LoginRequest
	if err := decodeJSON(r, &req); err != nil {
		writeDetail(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.Email == "" || req.Password == "" {
		writeDetail(w, http.StatusBadRequest, "email and password are required")
		return
	}

	token, err := h.svc.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, service.ErrInvalidCredentials) {
			writeDetail(w, http.StatusUnauthorized, "Invalid credentials")
			return
		}
		h.internalError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, dto.NewTokenResponse(token))
}

// GoogleLogin handles POST /api/auth/google.
func (h *AuthHandler) GoogleLogin(w http.ResponseWriter, r *http.Request) {
	var req dto.GoogleLoginRequest
	if err := decodeJSON(r, &req); err != nil {
		writeDetail(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.Token == "" {
		writeDetail(w, http.StatusBadRequest, "token is required")
		return
	}

	token, err := h.svc.GoogleLogin(r.Context(), req.Token)
	if err != nil {
		if errors.Is(err, auth.ErrInvalidGoogleToken) {
			writeDetail(w, http.StatusUnauthorized, "Invalid Google token")
			return
		}
		h.internalError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, dto.NewTokenResponse(token))
}

// Me handles GET /api/auth/me. Runs behind the auth middleware, which has
// already resolved the bearer token to a user.
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	user := auth.MustUserFromContext(r.Context())
	writeJSON(w, http.StatusOK, dto.ToUserResponse(user))
}

func (h *AuthHandler) internalError(w http.ResponseWriter, r *http.Request, err error) {
	h.logger.Error("internal error",
		"path", r.URL.Path,
		"error", err,
	)
	writeDetail(w, http.StatusInternalServerError, "Internal server error")
}
