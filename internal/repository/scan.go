package repository

import (
	"context"
	"fmt"

	"github.com/lib/pq"

	"github.com/plantscan/plantscan/internal/model"
)

// CreateScan inserts a scan history record.
func (r *Repository) CreateScan(ctx context.Context, scan *model.Scan) error {
	query := `
		INSERT INTO scans (id, user_id, plant_name, confidence, labels, confidences, scanned_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	_, err := r.pool.Exec(ctx, query,
		scan.ID,
		scan.UserID,
		scan.PlantName,
		scan.Confidence,
		pq.Array(scan.Labels),
		pq.Array(scan.Confidences),
		scan.ScannedAt,
	)

	if err != nil {
		return fmt.Errorf("failed to create scan: %w", err)
	}

	return nil
}

// ListScansByUser returns a user's scans, newest first.
func (r *Repository) ListScansByUser(ctx context.Context, userID string, limit int) ([]*model.Scan, error) {
	query := `
		SELECT id, user_id, plant_name, confidence, labels, confidences, scanned_at
		FROM scans
		WHERE user_id = $1
		ORDER BY scanned_at DESC, id DESC
		LIMIT $2
	`

	rows, err := r.pool.Query(ctx, query, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list scans: %w", err)
	}
	defer rows.Close()

	var scans []*model.Scan
	for rows.Next() {
		var scan model.Scan
		err := rows.Scan(
			&scan.ID,
			&scan.UserID,
			&scan.PlantName,
			&scan.Confidence,
			pq.Array(&scan.Labels),
			pq.Array(&scan.Confidences),
			&scan.ScannedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan history row: %w", err)
		}
		scans = append(scans, &scan)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating scans: %w", err)
	}

	return scans, nil
}
