package handler

import (
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/plantscan/plantscan/internal/auth"
	"github.com/plantscan/plantscan/internal/classifier"
	"github.com/plantscan/plantscan/internal/handler/dto"
	"github.com/plantscan/plantscan/internal/service"
)

// PredictHandler handles image classification requests.
type PredictHandler struct {
	clf    *classifier.Classifier
	scans  *service.ScanService
	logger *slog.Logger
}

// NewPredictHandler creates a new PredictHandler.
func NewPredictHandler(clf *classifier.Classifier, scans *service.ScanService, logger *slog.Logger) *PredictHandler {
	return &PredictHandler{
		clf:    clf,
		scans:  scans,
		logger: logger,
	}
}

// Predict handles POST /predict-image. The endpoint is public; when the
// caller presents a valid bearer token the result is also recorded in
// their scan history.
func (h *PredictHandler) Predict(w http.ResponseWriter, r *http.Request) {
	file, _, err := r.FormFile("file")
	if err != nil {
		writeDetail(w, http.StatusBadRequest, "No file uploaded")
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		writeDetail(w, http.StatusBadRequest, "Failed to read uploaded file")
		return
	}

	result, err := h.clf.Predict(r.Context(), data)
	if err != nil {
		switch {
		case errors.Is(err, classifier.ErrModelNotLoaded):
			// Soft error: a 200 with an error field, not an HTTP
			// failure. Clients poll this shape.
			writeJSON(w, http.StatusOK, dto.ModelErrorResponse{Error: "Model not loaded"})
		case errors.Is(err, classifier.ErrBadImage):
			writeDetail(w, http.StatusBadRequest, "Invalid image file")
		default:
			h.logger.Error("prediction failed",
				"path", r.URL.Path,
				"error", err,
			)
			writeDetail(w, http.StatusInternalServerError, "Prediction failed")
		}
		return
	}

	if user := auth.UserFromContext(r.Context()); user != nil {
		// History is best effort; a storage hiccup must not fail the
		// prediction the user already paid for.
		if _, err := h.scans.Record(r.Context(), user.ID, result.Predictions); err != nil {
			h.logger.Error("failed to record scan", "user_id", user.ID, "error", err)
		}
	}

	writeJSON(w, http.StatusOK, dto.ToPredictResponse(result))
}
