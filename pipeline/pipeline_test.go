package pipeline

import (
	"errors"
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"churnguard/customer"
	"churnguard/ml"
)

func loadFixture(t *testing.T) *ml.Artifacts {
	t.Helper()
	artifacts, err := ml.LoadArtifacts(ml.DefaultPaths("../ml/testdata"))
	require.NoError(t, err)
	return artifacts
}

func highRiskRecord() customer.Record {
	return customer.Record{
		Gender:           customer.FixedGender,
		SeniorCitizen:    customer.FixedSeniorCitizen,
		Partner:          "No",
		Dependents:       "No",
		Tenure:           0,
		PhoneService:     "Yes",
		MultipleLines:    "No",
		InternetService:  "Fiber optic",
		OnlineSecurity:   "No",
		OnlineBackup:     "No",
		DeviceProtection: "No",
		TechSupport:      "No",
		StreamingTV:      "No",
		StreamingMovies:  "No",
		Contract:         "Month-to-month",
		PaperlessBilling: "Yes",
		PaymentMethod:    "Electronic check",
		MonthlyCharges:   150,
		TotalCharges:     0,
	}
}

func loyalRecord() customer.Record {
	r := customer.Record{
		Gender:           customer.FixedGender,
		SeniorCitizen:    customer.FixedSeniorCitizen,
		Partner:          "Yes",
		Dependents:       "Yes",
		Tenure:           72,
		PhoneService:     "Yes",
		MultipleLines:    "No",
		InternetService:  "No",
		Contract:         "Two year",
		PaperlessBilling: "No",
		PaymentMethod:    "Credit card (automatic)",
		MonthlyCharges:   20,
		TotalCharges:     1400,
	}
	return r.WithInternetAddOns(customer.NoInternetService)
}

func TestContractRecoversReferenceLevels(t *testing.T) {
	artifacts := loadFixture(t)
	report := CheckContract(customer.Schema, artifacts.Columns)

	require.True(t, report.OK(), report.Err())
	assert.Empty(t, report.Inferred)
	assert.Empty(t, report.UnusedFields)

	want := map[string]string{
		customer.FieldGender:          "Female",
		customer.FieldPartner:         "No",
		customer.FieldMultipleLines:   "No",
		customer.FieldInternetService: "DSL",
		customer.FieldTechSupport:     "No",
		customer.FieldContract:        "Month-to-month",
		customer.FieldPaymentMethod:   "Bank transfer (automatic)",
	}
	for field, level := range want {
		assert.Equal(t, level, report.References[field], field)
	}
}

func TestContractReportsMismatches(t *testing.T) {
	columns := []string{
		"SeniorCitizen", "tenure", "MonthlyCharges", "TotalCharges",
		"Contract_One year",
		"Churn_Score",
	}
	report := CheckContract(customer.Schema, columns)

	assert.False(t, report.OK())
	assert.Equal(t, []string{"Churn_Score"}, report.UnknownColumns)
	// Two contract levels have no column; only one of them can be the reference.
	assert.Equal(t, []string{"Contract_Two year"}, report.MissingIndicators)
	assert.Equal(t, "Month-to-month", report.References[customer.FieldContract])
	assert.Contains(t, report.Inferred, customer.FieldContract)
	assert.Contains(t, report.UnusedFields, customer.FieldPaymentMethod)
	assert.Error(t, report.Err())
}

func TestEncoderExpandsExplicitIndicators(t *testing.T) {
	artifacts := loadFixture(t)
	encoder, _ := NewEncoder(customer.Schema, artifacts.Columns)

	row, err := encoder.Expand(highRiskRecord())
	require.NoError(t, err)

	ones := map[string]bool{}
	for i, col := range row.Columns {
		if i < 4 {
			continue
		}
		if row.Values[i] == 1 {
			ones[col] = true
		} else {
			assert.Zero(t, row.Values[i], col)
		}
	}
	want := map[string]bool{
		"gender_Male":                    true,
		"PhoneService_Yes":               true,
		"InternetService_Fiber optic":    true,
		"PaperlessBilling_Yes":           true,
		"PaymentMethod_Electronic check": true,
	}
	if diff := cmp.Diff(want, ones); diff != "" {
		t.Errorf("indicator mismatch (-want +got):\n%s", diff)
	}
}

func TestEncoderRejectsUnexpectedLevel(t *testing.T) {
	artifacts := loadFixture(t)
	encoder, _ := NewEncoder(customer.Schema, artifacts.Columns)

	r := highRiskRecord()
	r.Contract = "Three year"
	_, err := encoder.Expand(r)
	assert.Error(t, err)
}

func TestAlign(t *testing.T) {
	row := Vector{
		Columns: []string{"b", "extra", "a"},
		Values:  []float64{2, 9, 1},
	}
	got, report := Align(row, []string{"a", "b", "c"})

	assert.Equal(t, []string{"a", "b", "c"}, got.Columns)
	assert.Equal(t, []float64{1, 2, 0}, got.Values)
	assert.Equal(t, []string{"c"}, report.Filled)
	assert.Equal(t, []string{"extra"}, report.Dropped)
}

func TestScaleLeavesInputUntouched(t *testing.T) {
	scaler, err := ml.NewStandardScaler([]string{"tenure"}, []float64{10}, []float64{5})
	require.NoError(t, err)

	in := Vector{Columns: []string{"tenure", "PhoneService_Yes"}, Values: []float64{20, 1}}
	out, err := Scale(in, scaler)
	require.NoError(t, err)

	assert.Equal(t, []float64{20, 1}, in.Values)
	assert.Equal(t, []float64{2, 1}, out.Values)
}

func TestRunHighRiskScenario(t *testing.T) {
	artifacts := loadFixture(t)
	p, err := New(artifacts, Options{Strict: true})
	require.NoError(t, err)

	pred, err := p.Run(highRiskRecord())
	require.NoError(t, err)

	assert.Equal(t, artifacts.Columns, pred.Scaled.Columns)
	assert.Empty(t, pred.Alignment.Filled)
	assert.Empty(t, pred.Alignment.Dropped)

	tenure, _ := pred.Encoded.Value("tenure")
	assert.Zero(t, tenure)
	scaledTenure, _ := pred.Scaled.Value("tenure")
	assert.InDelta(t, (0-32.421786)/24.543513, scaledTenure, 1e-9)
	scaledMonthly, _ := pred.Scaled.Value("MonthlyCharges")
	assert.InDelta(t, (150-64.798208)/30.083834, scaledMonthly, 1e-9)
	fiber, _ := pred.Scaled.Value("InternetService_Fiber optic")
	assert.Equal(t, 1.0, fiber)

	assert.Equal(t, ml.Churn, pred.Result.Label)
	assert.InDelta(t, 0.89, pred.Result.ChurnProbability(), 0.01)
	assert.InDelta(t, 1.0, pred.Result.Probabilities[0]+pred.Result.Probabilities[1], 1e-9)
	assert.Equal(t, artifacts.Version, pred.Version)
}

func TestRunLoyalCustomer(t *testing.T) {
	p, err := New(loadFixture(t), Options{Strict: true})
	require.NoError(t, err)

	pred, err := p.Run(loyalRecord())
	require.NoError(t, err)

	assert.Equal(t, ml.NoChurn, pred.Result.Label)
	assert.Greater(t, pred.Result.Confidence(), 0.99)
	for _, addOn := range customer.InternetAddOns {
		v, ok := pred.Encoded.Value(customer.IndicatorColumn(addOn, customer.NoInternetService))
		require.True(t, ok)
		assert.Equal(t, 1.0, v, addOn)
	}
}

func TestRunIsDeterministic(t *testing.T) {
	p, err := New(loadFixture(t), Options{Strict: true})
	require.NoError(t, err)

	first, err := p.Run(highRiskRecord())
	require.NoError(t, err)
	second, err := p.Run(highRiskRecord())
	require.NoError(t, err)

	if diff := cmp.Diff(first, second); diff != "" {
		t.Errorf("second run differs (-first +second):\n%s", diff)
	}
}

func TestRunRejectsInvalidRecord(t *testing.T) {
	p, err := New(loadFixture(t), Options{Strict: true})
	require.NoError(t, err)

	r := highRiskRecord()
	r.Tenure = 80
	r.MonthlyCharges = math.NaN()
	_, err = p.Run(r)
	require.Error(t, err)
	assert.Equal(t, StageValidate, Stage(err))

	var invalid *InvalidRecordError
	require.True(t, errors.As(err, &invalid))
	assert.Len(t, invalid.Issues, 2)
}

func TestStrictModeRejectsContractViolation(t *testing.T) {
	artifacts := loadFixture(t)
	broken := *artifacts
	broken.Columns = append(append([]string(nil), artifacts.Columns...), "Region_North")

	_, err := New(&broken, Options{Strict: true})
	assert.Error(t, err)
}

func TestLenientModeZeroFills(t *testing.T) {
	artifacts := loadFixture(t)
	lenient := *artifacts
	lenient.Columns = append(append([]string(nil), artifacts.Columns...), "Region_North")

	p, err := New(&lenient, Options{})
	require.NoError(t, err)
	assert.Equal(t, []string{"Region_North"}, p.Contract().UnknownColumns)

	aligned, report, err := p.Encode(highRiskRecord())
	require.NoError(t, err)
	assert.Equal(t, []string{"Region_North"}, report.Filled)
	v, ok := aligned.Value("Region_North")
	require.True(t, ok)
	assert.Zero(t, v)
}

type fixedClassifier struct {
	label int
	proba []float64
}

func (f fixedClassifier) Predict([]float64) (int, error)            { return f.label, nil }
func (f fixedClassifier) PredictProba([]float64) ([]float64, error) { return f.proba, nil }
func (f fixedClassifier) Features() []string                        { return nil }
func (f fixedClassifier) NumFeatures() int                          { return 0 }

func TestInferRejectsMalformedOutput(t *testing.T) {
	tests := []struct {
		name  string
		model fixedClassifier
	}{
		{"label out of range", fixedClassifier{label: 2, proba: []float64{0.5, 0.5}}},
		{"wrong class count", fixedClassifier{label: 1, proba: []float64{1}}},
		{"negative probability", fixedClassifier{label: 1, proba: []float64{-0.1, 1.1}}},
		{"nan probability", fixedClassifier{label: 0, proba: []float64{math.NaN(), 0.5}}},
		{"does not sum to one", fixedClassifier{label: 0, proba: []float64{0.6, 0.6}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Infer(tt.model, Vector{})
			assert.Error(t, err)
		})
	}
}

func TestInferAcceptsValidOutput(t *testing.T) {
	got, err := Infer(fixedClassifier{label: 1, proba: []float64{0.25, 0.75}}, Vector{})
	require.NoError(t, err)
	assert.Equal(t, Result{Label: 1, Probabilities: [2]float64{0.25, 0.75}}, got)
	assert.Equal(t, 0.75, got.ChurnProbability())
	assert.Equal(t, 0.75, got.Confidence())
}

func TestResultCheck(t *testing.T) {
	assert.NoError(t, Result{Label: 0, Probabilities: [2]float64{0.9, 0.1}}.Check())
	assert.Error(t, Result{Label: -1, Probabilities: [2]float64{0.9, 0.1}}.Check())
	assert.Error(t, Result{Label: 1, Probabilities: [2]float64{math.NaN(), 0.1}}.Check())
	assert.Error(t, Result{Label: 1}.Check())
}

func TestRunColumnsMatchForEveryLevel(t *testing.T) {
	artifacts := loadFixture(t)
	p, err := New(artifacts, Options{Strict: true})
	require.NoError(t, err)

	for _, field := range customer.Schema {
		if field.Kind != customer.Categorical {
			continue
		}
		for _, level := range field.Levels {
			r, ok := highRiskRecord().With(field.Name, level)
			require.True(t, ok, field.Name)
			pred, err := p.Run(r)
			require.NoError(t, err, "%s=%s", field.Name, level)
			assert.Equal(t, artifacts.Columns, pred.Scaled.Columns, "%s=%s", field.Name, level)
			assert.Empty(t, pred.Alignment.Filled)
		}
	}
}
