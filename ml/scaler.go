package ml

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
)

const (
	ScalerStandard = "standard"
	ScalerMinMax   = "minmax"
)

// Scaler applies a transformation fitted at training time to named columns.
// It never refits.
type Scaler struct {
	kind     string
	columns  []string
	center   []float64
	scale    []float64
	position map[string]int
}

type scalerArtifact struct {
	Kind     string    `json:"kind"`
	Features []string  `json:"features"`
	Mean     []float64 `json:"mean,omitempty"`
	Scale    []float64 `json:"scale,omitempty"`
	Min      []float64 `json:"data_min,omitempty"`
	Max      []float64 `json:"data_max,omitempty"`
}

// NewStandardScaler builds (x-mean)/scale for each column.
func NewStandardScaler(columns []string, mean, scale []float64) (*Scaler, error) {
	return newScaler(ScalerStandard, columns, mean, scale)
}

// NewMinMaxScaler builds (x-min)/(max-min) for each column.
func NewMinMaxScaler(columns []string, mins, maxs []float64) (*Scaler, error) {
	if len(mins) != len(maxs) {
		return nil, errors.New("data_min/data_max length mismatch")
	}
	ranges := make([]float64, len(mins))
	for i := range mins {
		ranges[i] = maxs[i] - mins[i]
	}
	return newScaler(ScalerMinMax, columns, mins, ranges)
}

func newScaler(kind string, columns []string, center, scale []float64) (*Scaler, error) {
	if len(columns) == 0 {
		return nil, errors.New("scaler has no features")
	}
	if len(center) != len(columns) || len(scale) != len(columns) {
		return nil, fmt.Errorf("scaler parameters do not match %d features", len(columns))
	}
	s := &Scaler{
		kind:     kind,
		columns:  append([]string(nil), columns...),
		center:   append([]float64(nil), center...),
		scale:    append([]float64(nil), scale...),
		position: make(map[string]int, len(columns)),
	}
	for i, col := range columns {
		if _, dup := s.position[col]; dup {
			return nil, fmt.Errorf("duplicate scaler feature %q", col)
		}
		if math.IsNaN(center[i]) || math.IsInf(center[i], 0) || math.IsNaN(scale[i]) || math.IsInf(scale[i], 0) {
			return nil, fmt.Errorf("scaler parameters for %q are not finite", col)
		}
		// zero-variance columns pass through centered, as sklearn does
		if s.scale[i] == 0 {
			s.scale[i] = 1
		}
		s.position[col] = i
	}
	return s, nil
}

func (s *Scaler) Kind() string { return s.kind }

func (s *Scaler) Features() []string { return append([]string(nil), s.columns...) }

// TransformValue scales one value of a named column.
func (s *Scaler) TransformValue(column string, value float64) (float64, error) {
	i, ok := s.position[column]
	if !ok {
		return 0, fmt.Errorf("scaler was not fit on %q", column)
	}
	return (value - s.center[i]) / s.scale[i], nil
}

// Transform rescales, in place, every scaler column found in the named row.
// Every fitted column must be present.
func (s *Scaler) Transform(columns []string, values []float64) error {
	if len(columns) != len(values) {
		return errors.New("columns/values length mismatch")
	}
	index := make(map[string]int, len(columns))
	for i, col := range columns {
		index[col] = i
	}
	for j, col := range s.columns {
		i, ok := index[col]
		if !ok {
			return fmt.Errorf("column %q missing from row", col)
		}
		values[i] = (values[i] - s.center[j]) / s.scale[j]
	}
	return nil
}

func DecodeScaler(payload []byte) (*Scaler, error) {
	var a scalerArtifact
	if err := json.Unmarshal(payload, &a); err != nil {
		return nil, err
	}
	switch a.Kind {
	case ScalerStandard, "":
		return NewStandardScaler(a.Features, a.Mean, a.Scale)
	case ScalerMinMax:
		return NewMinMaxScaler(a.Features, a.Min, a.Max)
	default:
		return nil, fmt.Errorf("unsupported scaler kind %q", a.Kind)
	}
}
