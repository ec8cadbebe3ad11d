package domain

import (
	"encoding/json"
	"fmt"
)

// TopK is the number of predictions returned by a classification.
const TopK = 5

// Prediction is a single (label, confidence%) pair.
type Prediction struct {
	Label string  `json:"label"`
	Score float64 `json:"score"`
}

// MarshalJSON encodes a prediction as a two element array, the shape the
// frontend charts consume.
func (p Prediction) MarshalJSON() ([]byte, error) {
	return json.Marshal([]any{p.Label, p.Score})
}

func (p *Prediction) UnmarshalJSON(data []byte) error {
	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	if len(raw) != 2 {
		return fmt.Errorf("prediction must have 2 elements, got %d", len(raw))
	}
	if err := json.Unmarshal(raw[0], &p.Label); err != nil {
		return fmt.Errorf("prediction label: %w", err)
	}
	if err := json.Unmarshal(raw[1], &p.Score); err != nil {
		return fmt.Errorf("prediction score: %w", err)
	}
	return nil
}

type Classification []Prediction
