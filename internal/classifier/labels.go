package classifier

import (
	"encoding/json"
	"fmt"
	"os"
)

// classCount is fixed by the pretrained PlantVillage weights.
const classCount = 38

// LoadLabels reads the class-label manifest shipped alongside the weight
// file. The manifest is a JSON array whose ordering is index-aligned with
// the network's output logits; it is the external contract between the
// weight file and this service and is never re-sorted.
func LoadLabels(path string) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read label manifest: %w", err)
	}

	var labels []string
	if err := json.Unmarshal(data, &labels); err != nil {
		return nil, fmt.Errorf("failed to parse label manifest: %w", err)
	}

	if len(labels) != classCount {
		return nil, fmt.Errorf("label manifest has %d entries, want %d", len(labels), classCount)
	}

	for i, label := range labels {
		if label == "" {
			return nil, fmt.Errorf("label manifest entry %d is empty", i)
		}
	}

	return labels, nil
}
