package ml

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
)

// DecisionTree is a binary classification tree stored as a flat node array.
// Leaves carry the class counts that reached them during fitting.
type DecisionTree struct {
	columns []string
	nodes   []TreeNode
}

type TreeNode struct {
	FeatureIdx int       `json:"feature_idx"`
	Threshold  float64   `json:"threshold"`
	LeftChild  int       `json:"left_child"`
	RightChild int       `json:"right_child"`
	ClassLabel int       `json:"class_label"`
	IsLeaf     bool      `json:"is_leaf"`
	Value      []float64 `json:"value,omitempty"`
}

type treeArtifact struct {
	Type     string     `json:"type"`
	Features []string   `json:"features,omitempty"`
	Nodes    []TreeNode `json:"nodes"`
}

func (dt *DecisionTree) Features() []string {
	if len(dt.columns) == 0 {
		return nil
	}
	return append([]string(nil), dt.columns...)
}

// NumFeatures is the column count when recorded, otherwise one past the
// highest feature index any split uses.
func (dt *DecisionTree) NumFeatures() int {
	if len(dt.columns) > 0 {
		return len(dt.columns)
	}
	n := 0
	for _, node := range dt.nodes {
		if !node.IsLeaf && node.FeatureIdx+1 > n {
			n = node.FeatureIdx + 1
		}
	}
	return n
}

func (dt *DecisionTree) leaf(features []float64) (TreeNode, error) {
	if len(dt.nodes) == 0 {
		return TreeNode{}, errors.New("model not loaded")
	}
	if n := dt.NumFeatures(); len(dt.columns) > 0 && len(features) != n {
		return TreeNode{}, fmt.Errorf("expected %d features, got %d", n, len(features))
	}
	idx := 0
	for steps := 0; steps <= len(dt.nodes); steps++ {
		node := dt.nodes[idx]
		if node.IsLeaf {
			return node, nil
		}
		if node.FeatureIdx < 0 || node.FeatureIdx >= len(features) {
			return TreeNode{}, errors.New("feature index out of range")
		}
		if features[node.FeatureIdx] <= node.Threshold {
			idx = node.LeftChild
		} else {
			idx = node.RightChild
		}
		if idx < 0 || idx >= len(dt.nodes) {
			return TreeNode{}, errors.New("invalid tree state")
		}
	}
	return TreeNode{}, errors.New("tree contains a cycle")
}

func (dt *DecisionTree) Predict(features []float64) (int, error) {
	node, err := dt.leaf(features)
	if err != nil {
		return 0, err
	}
	return node.ClassLabel, nil
}

func (dt *DecisionTree) PredictProba(features []float64) ([]float64, error) {
	node, err := dt.leaf(features)
	if err != nil {
		return nil, err
	}
	return leafProba(node), nil
}

func leafProba(node TreeNode) []float64 {
	proba := make([]float64, numClasses)
	total := 0.0
	for i := 0; i < numClasses && i < len(node.Value); i++ {
		total += node.Value[i]
	}
	if total <= 0 {
		proba[node.ClassLabel] = 1
		return proba
	}
	proba[0] = node.Value[0] / total
	proba[1] = 1 - proba[0]
	return proba
}

func (dt *DecisionTree) decode(payload []byte) error {
	var a treeArtifact
	if err := json.Unmarshal(payload, &a); err != nil {
		return err
	}
	if len(a.Nodes) == 0 {
		return errors.New("tree has no nodes")
	}
	for i, node := range a.Nodes {
		if node.IsLeaf {
			if node.ClassLabel != NoChurn && node.ClassLabel != Churn {
				return fmt.Errorf("node %d: label %d is not binary", i, node.ClassLabel)
			}
			for _, v := range node.Value {
				if v < 0 || math.IsNaN(v) {
					return fmt.Errorf("node %d: invalid class count", i)
				}
			}
			continue
		}
		if node.LeftChild < 0 || node.LeftChild >= len(a.Nodes) ||
			node.RightChild < 0 || node.RightChild >= len(a.Nodes) {
			return fmt.Errorf("node %d: child out of range", i)
		}
	}
	dt.columns = a.Features
	dt.nodes = a.Nodes
	return nil
}
