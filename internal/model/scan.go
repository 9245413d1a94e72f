package model

import "time"

// Scan records one classification performed by an authenticated user.
// PlantName and Confidence hold the top-1 prediction; Labels and
// Confidences keep the full top-5 in descending probability order.
type Scan struct {
	ID          string    `json:"id"`
	UserID      string    `json:"-"`
	PlantName   string    `json:"plant_name"`
	Confidence  float64   `json:"confidence"`
	Labels      []string  `json:"labels,omitempty"`
	Confidences []float64 `json:"confidences,omitempty"`
	ScannedAt   time.Time `json:"scanned_at"`
}
