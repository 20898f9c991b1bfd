package ml

// Classifier is a trained binary churn model. Label 1 is churn.
// Implementations are immutable after load and safe for concurrent use.
type Classifier interface {
	Predict(features []float64) (int, error)
	PredictProba(features []float64) ([]float64, error)
	// Features returns the column names the model was fit on, or nil when
	// the artifact does not record them.
	Features() []string
	NumFeatures() int
}

// Class labels.
const (
	NoChurn = 0
	Churn   = 1
)

const numClasses = 2
