package handler

import (
	"context"
	"net/http"
	"time"
)

// HealthChecker defines an interface for checking dependency health.
type HealthChecker interface {
	Ping(ctx context.Context) error
}

// ModelStatus reports whether the classifier loaded successfully.
type ModelStatus interface {
	Ready() bool
}

// HealthHandler manages health check endpoints.
type HealthHandler struct {
	db    HealthChecker
	model ModelStatus
}

// NewHealthHandler creates a new HealthHandler.
func NewHealthHandler(db HealthChecker, model ModelStatus) *HealthHandler {
	return &HealthHandler{
		db:    db,
		model: model,
	}
}

// HealthResponse represents the health check response.
type HealthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks,omitempty"`
}

// Healthz is a liveness probe endpoint. It returns 200 if the server is
// running, with no dependency checks.
//
// GET /healthz
func (h *HealthHandler) Healthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, HealthResponse{Status: "ok"})
}

// Readyz is a readiness probe endpoint. Database failure makes the probe
// fail; a missing model only degrades the report, since the service still
// serves auth traffic and explicit model errors.
//
// GET /readyz
func (h *HealthHandler) Readyz(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	checks := make(map[string]string)
	healthy := true

	if h.db != nil {
		if err := h.db.Ping(ctx); err != nil {
			checks["postgres"] = "error: " + err.Error()
			healthy = false
		} else {
			checks["postgres"] = "ok"
		}
	} else {
		checks["postgres"] = "not configured"
	}

	status := "ok"
	if h.model != nil && h.model.Ready() {
		checks["model"] = "ok"
	} else {
		checks["model"] = "not loaded"
		status = "degraded"
	}

	statusCode := http.StatusOK
	if !healthy {
		status = "unhealthy"
		statusCode = http.StatusServiceUnavailable
	}

	writeJSON(w, statusCode, HealthResponse{Status: status, Checks: checks})
}
