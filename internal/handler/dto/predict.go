package dto

import (
	"time"

	"github.com/plantscan/plantscan/internal/classifier"
	"github.com/plantscan/plantscan/internal/model"
)

// PredictionItem is one ranked class in a prediction response.
type PredictionItem struct {
	Class      string  `json:"class"`
	Confidence float64 `json:"confidence"`
}

// PredictDebug exposes input-tensor statistics for diagnostic visibility.
type PredictDebug struct {
	TensorMin  float64 `json:"tensor_min"`
	TensorMax  float64 `json:"tensor_max"`
	TensorMean float64 `json:"tensor_mean"`
}

// PredictResponse is the successful classification payload.
type PredictResponse struct {
	Predictions []PredictionItem `json:"predictions"`
	Debug       PredictDebug     `json:"debug"`
}

// ModelErrorResponse reports a degraded classifier. Deliberately returned
// with a 200 status: the request was handled, the model is the problem.
type ModelErrorResponse struct {
	Error string `json:"error"`
}

// ScanResponse is one entry in the scan history listing.
type ScanResponse struct {
	ID         string    `json:"id"`
	PlantName  string    `json:"plant_name"`
	Confidence float64   `json:"confidence"`
	ScannedAt  time.Time `json:"scanned_at"`
}

// ToPredictResponse converts a classifier result to the wire format.
func ToPredictResponse(result *classifier.Result) *PredictResponse {
	predictions := make([]PredictionItem, len(result.Predictions))
	for i, p := range result.Predictions {
		predictions[i] = PredictionItem{Class: p.Class, Confidence: p.Confidence}
	}

	return &PredictResponse{
		Predictions: predictions,
		Debug: PredictDebug{
			TensorMin:  result.Stats.Min,
			TensorMax:  result.Stats.Max,
			TensorMean: result.Stats.Mean,
		},
	}
}

// ToScanResponses converts scan history records to the wire format.
func ToScanResponses(scans []*model.Scan) []ScanResponse {
	responses := make([]ScanResponse, len(scans))
	for i, scan := range scans {
		responses[i] = ScanResponse{
			ID:         scan.ID,
			PlantName:  scan.PlantName,
			Confidence: scan.Confidence,
			ScannedAt:  scan.ScannedAt,
		}
	}
	return responses
}
