// Package render 把分类结果转换为页面展示用的结论
package render

import (
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"churnguard/ml"
	"churnguard/pipeline"
)

// 页面文案
const (
	PageTitle    = "Customer Churn Prediction App"
	PageIntro    = "This app predicts customer churn and identifies the key risk factors based on a Logistic Regression model with 71% Recall."
	FormHeader   = "Enter Customer Details"
	SubmitLabel  = "Predict Churn"
	ResultHeader = "Prediction Result"
)

// DeltaColor 指标变化的配色：inverse 表示数值越高越差
type DeltaColor string

const (
	DeltaNormal  DeltaColor = "normal"
	DeltaInverse DeltaColor = "inverse"
)

// View 结论视图
type View struct {
	Label          int        `json:"label"`
	Churn          bool       `json:"churn"`
	Metric         string     `json:"metric"`
	Value          string     `json:"value"`
	Probability    float64    `json:"probability"`
	Delta          string     `json:"delta"`
	DeltaColor     DeltaColor `json:"delta_color"`
	Headline       string     `json:"headline"`
	Recommendation string     `json:"recommendation"`
}

var printer = message.NewPrinter(language.English)

// Percent 保留一位小数的百分比，例如 0.734 → "73.4%"
func Percent(p float64) string {
	return printer.Sprintf("%.1f%%", p*100)
}

// Verdict 根据分类器标签生成结论，不做额外阈值判断
func Verdict(result pipeline.Result) View {
	if result.Label == ml.Churn {
		p := result.Probabilities[ml.Churn]
		return View{
			Label:          ml.Churn,
			Churn:          true,
			Metric:         "Churn Risk",
			Value:          Percent(p),
			Probability:    p,
			Delta:          "High Risk",
			DeltaColor:     DeltaInverse,
			Headline:       "Prediction: Customer is LIKELY to Churn.",
			Recommendation: "This customer is at high risk. Consider offering a retention incentive, a loyalty discount, or a contract upgrade.",
		}
	}
	p := result.Probabilities[ml.NoChurn]
	return View{
		Label:          ml.NoChurn,
		Metric:         "Loyalty Score",
		Value:          Percent(p),
		Probability:    p,
		Delta:          "Low Risk",
		DeltaColor:     DeltaNormal,
		Headline:       "Prediction: Customer is UNLIKELY to Churn.",
		Recommendation: "This customer appears loyal. Ensure continued good service.",
	}
}
