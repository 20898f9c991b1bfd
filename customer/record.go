package customer

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Frozen modeling decision: these two fields were uninformative during
// training and are never collected from the user.
const (
	FixedGender        = "Male"
	FixedSeniorCitizen = 0
)

// Record is one submitted form: the 19 raw attributes the classifier was
// trained on, before any encoding.
type Record struct {
	Gender           string  `json:"gender"`
	SeniorCitizen    int     `json:"SeniorCitizen"`
	Partner          string  `json:"Partner"`
	Dependents       string  `json:"Dependents"`
	Tenure           int     `json:"tenure"`
	PhoneService     string  `json:"PhoneService"`
	MultipleLines    string  `json:"MultipleLines"`
	InternetService  string  `json:"InternetService"`
	OnlineSecurity   string  `json:"OnlineSecurity"`
	OnlineBackup     string  `json:"OnlineBackup"`
	DeviceProtection string  `json:"DeviceProtection"`
	TechSupport      string  `json:"TechSupport"`
	StreamingTV      string  `json:"StreamingTV"`
	StreamingMovies  string  `json:"StreamingMovies"`
	Contract         string  `json:"Contract"`
	PaperlessBilling string  `json:"PaperlessBilling"`
	PaymentMethod    string  `json:"PaymentMethod"`
	MonthlyCharges   float64 `json:"MonthlyCharges"`
	TotalCharges     float64 `json:"TotalCharges"`
}

// Categorical returns the value of a categorical field by its column name.
func (r Record) Categorical(field string) (string, bool) {
	switch field {
	case FieldGender:
		return r.Gender, true
	case FieldPartner:
		return r.Partner, true
	case FieldDependents:
		return r.Dependents, true
	case FieldPhoneService:
		return r.PhoneService, true
	case FieldMultipleLines:
		return r.MultipleLines, true
	case FieldInternetService:
		return r.InternetService, true
	case FieldOnlineSecurity:
		return r.OnlineSecurity, true
	case FieldOnlineBackup:
		return r.OnlineBackup, true
	case FieldDeviceProtection:
		return r.DeviceProtection, true
	case FieldTechSupport:
		return r.TechSupport, true
	case FieldStreamingTV:
		return r.StreamingTV, true
	case FieldStreamingMovies:
		return r.StreamingMovies, true
	case FieldContract:
		return r.Contract, true
	case FieldPaperlessBilling:
		return r.PaperlessBilling, true
	case FieldPaymentMethod:
		return r.PaymentMethod, true
	}
	return "", false
}

// Numeric returns the value of a numeric field by its column name.
func (r Record) Numeric(field string) (float64, bool) {
	switch field {
	case FieldSeniorCitizen:
		return float64(r.SeniorCitizen), true
	case FieldTenure:
		return float64(r.Tenure), true
	case FieldMonthlyCharges:
		return r.MonthlyCharges, true
	case FieldTotalCharges:
		return r.TotalCharges, true
	}
	return 0, false
}

// With returns a copy with one categorical field replaced. Unknown
// field names leave the record unchanged and report false.
func (r Record) With(field, value string) (Record, bool) {
	switch field {
	case FieldGender:
		r.Gender = value
	case FieldPartner:
		r.Partner = value
	case FieldDependents:
		r.Dependents = value
	case FieldPhoneService:
		r.PhoneService = value
	case FieldMultipleLines:
		r.MultipleLines = value
	case FieldInternetService:
		r.InternetService = value
	case FieldOnlineSecurity:
		r.OnlineSecurity = value
	case FieldOnlineBackup:
		r.OnlineBackup = value
	case FieldDeviceProtection:
		r.DeviceProtection = value
	case FieldTechSupport:
		r.TechSupport = value
	case FieldStreamingTV:
		r.StreamingTV = value
	case FieldStreamingMovies:
		r.StreamingMovies = value
	case FieldContract:
		r.Contract = value
	case FieldPaperlessBilling:
		r.PaperlessBilling = value
	case FieldPaymentMethod:
		r.PaymentMethod = value
	default:
		return r, false
	}
	return r, true
}

// WithNumeric is With for numeric fields. Integer fields truncate.
func (r Record) WithNumeric(field string, value float64) (Record, bool) {
	switch field {
	case FieldSeniorCitizen:
		r.SeniorCitizen = int(value)
	case FieldTenure:
		r.Tenure = int(value)
	case FieldMonthlyCharges:
		r.MonthlyCharges = value
	case FieldTotalCharges:
		r.TotalCharges = value
	default:
		return r, false
	}
	return r, true
}

// WithInternetAddOns returns a copy with all six internet-dependent
// services set to value.
func (r Record) WithInternetAddOns(value string) Record {
	r.OnlineSecurity = value
	r.OnlineBackup = value
	r.DeviceProtection = value
	r.TechSupport = value
	r.StreamingTV = value
	r.StreamingMovies = value
	return r
}

// Canonical is the stable byte form used for hashing and audit storage.
// Field order is the struct order, so equal records encode identically.
func (r Record) Canonical() []byte {
	data, err := json.Marshal(r)
	if err != nil {
		// Record has no types json cannot encode.
		panic(fmt.Sprintf("customer: marshal record: %v", err))
	}
	return data
}

func (r Record) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "tenure=%d monthly=%.2f total=%.2f", r.Tenure, r.MonthlyCharges, r.TotalCharges)
	fmt.Fprintf(&b, " internet=%q contract=%q payment=%q", r.InternetService, r.Contract, r.PaymentMethod)
	return b.String()
}
