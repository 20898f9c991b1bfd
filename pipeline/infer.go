package pipeline

import (
	"fmt"
	"math"

	"churnguard/ml"
)

const probabilityTolerance = 1e-9

// Result 分类结果：标签与两类概率 [不流失, 流失]
type Result struct {
	Label         int        `json:"label"`
	Probabilities [2]float64 `json:"probabilities"`
}

// ChurnProbability 流失概率
func (r Result) ChurnProbability() float64 {
	return r.Probabilities[ml.Churn]
}

// Confidence 预测标签对应的概率
func (r Result) Confidence() float64 {
	return r.Probabilities[r.Label]
}

// Infer 调用一次 Predict 取标签，调用一次 PredictProba 取概率分布
func Infer(model ml.Classifier, v Vector) (Result, error) {
	label, err := model.Predict(v.Values)
	if err != nil {
		return Result{}, err
	}
	if label != ml.NoChurn && label != ml.Churn {
		return Result{}, fmt.Errorf("classifier returned label %d", label)
	}

	proba, err := model.PredictProba(v.Values)
	if err != nil {
		return Result{}, err
	}
	if len(proba) != 2 {
		return Result{}, fmt.Errorf("classifier returned %d class probabilities", len(proba))
	}
	result := Result{Label: label, Probabilities: [2]float64{proba[0], proba[1]}}
	if err := result.Check(); err != nil {
		return Result{}, err
	}
	return result, nil
}

// Check 校验标签为 0 或 1，概率均在 [0,1] 且和为 1
func (r Result) Check() error {
	if r.Label != ml.NoChurn && r.Label != ml.Churn {
		return fmt.Errorf("classifier returned label %d", r.Label)
	}
	sum := 0.0
	for i, p := range r.Probabilities {
		if math.IsNaN(p) || p < 0 || p > 1 {
			return fmt.Errorf("class %d probability %v outside [0,1]", i, p)
		}
		sum += p
	}
	if math.Abs(sum-1) > probabilityTolerance {
		return fmt.Errorf("class probabilities sum to %v", sum)
	}
	return nil
}
