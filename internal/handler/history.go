package handler

import (
	"log/slog"
	"net/http"

	"github.com/plantscan/plantscan/internal/auth"
	"github.com/plantscan/plantscan/internal/handler/dto"
	"github.com/plantscan/plantscan/internal/service"
)

// HistoryHandler serves a user's scan history.
type HistoryHandler struct {
	scans  *service.ScanService
	logger *slog.Logger
}

// NewHistoryHandler creates a new HistoryHandler.
func NewHistoryHandler(scans *service.ScanService, logger *slog.Logger) *HistoryHandler {
	return &HistoryHandler{
		scans:  scans,
		logger: logger,
	}
}

// List handles GET /api/history. Runs behind the auth middleware.
func (h *HistoryHandler) List(w http.ResponseWriter, r *http.Request) {
	user := auth.MustUserFromContext(r.Context())

	scans, err := h.scans.History(r.Context(), user.ID)
	if err != nil {
		h.logger.Error("failed to load history", "user_id", user.ID, "error", err)
		writeDetail(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	writeJSON(w, http.StatusOK, dto.ToScanResponses(scans))
}
