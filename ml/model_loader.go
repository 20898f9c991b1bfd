package ml

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
)

const (
	TypeLogisticRegression = "logistic_regression"
	TypeDecisionTree       = "decision_tree"
)

var errUnsupportedModel = errors.New("unsupported model type")

type modelHeader struct {
	Type string `json:"type"`
}

// LoadModel reads a classifier artifact. An empty modelType takes the type
// recorded in the file.
func LoadModel(modelType, path string) (Classifier, error) {
	payload, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return DecodeModel(modelType, payload)
}

func DecodeModel(modelType string, payload []byte) (Classifier, error) {
	var header modelHeader
	if err := json.Unmarshal(payload, &header); err != nil {
		return nil, err
	}
	if modelType == "" {
		modelType = header.Type
	}
	if header.Type != "" && header.Type != modelType {
		return nil, fmt.Errorf("artifact holds %q, configured for %q", header.Type, modelType)
	}

	switch modelType {
	case TypeLogisticRegression:
		model := &LogisticRegression{}
		if err := model.decode(payload); err != nil {
			return nil, err
		}
		return model, nil
	case TypeDecisionTree:
		model := &DecisionTree{}
		if err := model.decode(payload); err != nil {
			return nil, err
		}
		return model, nil
	case "":
		return nil, errors.New("model type not recorded in artifact")
	default:
		return nil, fmt.Errorf("%w: %s", errUnsupportedModel, modelType)
	}
}

// ModelType names the artifact type of a loaded classifier.
func ModelType(model Classifier) string {
	switch model.(type) {
	case *LogisticRegression:
		return TypeLogisticRegression
	case *DecisionTree:
		return TypeDecisionTree
	}
	return "unknown"
}
