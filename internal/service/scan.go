package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/plantscan/plantscan/internal/classifier"
	"github.com/plantscan/plantscan/internal/model"
)

// historyLimit caps how many scans a single history request returns.
const historyLimit = 100

// ScanStore is the subset of the repository the scan flows need.
type ScanStore interface {
	CreateScan(ctx context.Context, scan *model.Scan) error
	ListScansByUser(ctx context.Context, userID string, limit int) ([]*model.Scan, error)
}

// ScanService records classifications for authenticated users and serves
// their history.
type ScanService struct {
	scans  ScanStore
	logger *slog.Logger
}

// NewScanService creates a ScanService.
func NewScanService(scans ScanStore, logger *slog.Logger) *ScanService {
	return &ScanService{scans: scans, logger: logger}
}

// Record stores one classification result for a user. The top-1 class
// becomes the scan's headline; the full ranking is kept alongside.
// Scan IDs are ULIDs, so history order survives identical timestamps.
func (s *ScanService) Record(ctx context.Context, userID string, predictions []classifier.Prediction) (*model.Scan, error) {
	if len(predictions) == 0 {
		return nil, errors.New("no predictions to record")
	}

	labels := make([]string, len(predictions))
	confidences := make([]float64, len(predictions))
	for i, p := range predictions {
		labels[i] = p.Class
		confidences[i] = p.Confidence
	}

	scan := &model.Scan{
		ID:          ulid.Make().String(),
		UserID:      userID,
		PlantName:   predictions[0].Class,
		Confidence:  predictions[0].Confidence,
		Labels:      labels,
		Confidences: confidences,
		ScannedAt:   time.Now().UTC(),
	}

	if err := s.scans.CreateScan(ctx, scan); err != nil {
		return nil, fmt.Errorf("failed to record scan: %w", err)
	}

	s.logger.Debug("scan recorded", "scan_id", scan.ID, "user_id", userID, "plant", scan.PlantName)
	return scan, nil
}

// History returns the user's scans, newest first.
func (s *ScanService) History(ctx context.Context, userID string) ([]*model.Scan, error) {
	scans, err := s.scans.ListScansByUser(ctx, userID, historyLimit)
	if err != nil {
		return nil, fmt.Errorf("failed to list scans: %w", err)
	}
	return scans, nil
}
