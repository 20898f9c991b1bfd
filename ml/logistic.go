package ml

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
)

// LogisticRegression is a fitted binary logistic model:
// P(churn) = sigmoid(w·x + b).
type LogisticRegression struct {
	columns      []string
	coefficients []float64
	intercept    float64
}

type logisticArtifact struct {
	Type         string    `json:"type"`
	Features     []string  `json:"features,omitempty"`
	Coefficients []float64 `json:"coefficients"`
	Intercept    float64   `json:"intercept"`
}

func NewLogisticRegression(columns []string, coefficients []float64, intercept float64) (*LogisticRegression, error) {
	if len(coefficients) == 0 {
		return nil, errors.New("coefficients empty")
	}
	if columns != nil && len(columns) != len(coefficients) {
		return nil, fmt.Errorf("%d features but %d coefficients", len(columns), len(coefficients))
	}
	for i, c := range coefficients {
		if math.IsNaN(c) || math.IsInf(c, 0) {
			return nil, fmt.Errorf("coefficient %d is not finite", i)
		}
	}
	if math.IsNaN(intercept) || math.IsInf(intercept, 0) {
		return nil, errors.New("intercept is not finite")
	}
	return &LogisticRegression{
		columns:      append([]string(nil), columns...),
		coefficients: append([]float64(nil), coefficients...),
		intercept:    intercept,
	}, nil
}

func (m *LogisticRegression) Features() []string {
	if len(m.columns) == 0 {
		return nil
	}
	return append([]string(nil), m.columns...)
}

func (m *LogisticRegression) NumFeatures() int { return len(m.coefficients) }

func (m *LogisticRegression) decision(features []float64) (float64, error) {
	if len(features) != len(m.coefficients) {
		return 0, fmt.Errorf("expected %d features, got %d", len(m.coefficients), len(features))
	}
	z := m.intercept
	for i, v := range features {
		z += m.coefficients[i] * v
	}
	return z, nil
}

func (m *LogisticRegression) Predict(features []float64) (int, error) {
	z, err := m.decision(features)
	if err != nil {
		return 0, err
	}
	if z > 0 {
		return Churn, nil
	}
	return NoChurn, nil
}

func (m *LogisticRegression) PredictProba(features []float64) ([]float64, error) {
	z, err := m.decision(features)
	if err != nil {
		return nil, err
	}
	p := sigmoid(z)
	return []float64{1 - p, p}, nil
}

func (m *LogisticRegression) decode(payload []byte) error {
	var a logisticArtifact
	if err := json.Unmarshal(payload, &a); err != nil {
		return err
	}
	loaded, err := NewLogisticRegression(a.Features, a.Coefficients, a.Intercept)
	if err != nil {
		return err
	}
	*m = *loaded
	return nil
}

// sigmoid avoids overflow in exp for large |z|.
func sigmoid(z float64) float64 {
	if z >= 0 {
		return 1 / (1 + math.Exp(-z))
	}
	e := math.Exp(z)
	return e / (1 + e)
}
