package customer

import "sort"

// Column names, exactly as produced at training time.
const (
	FieldGender           = "gender"
	FieldSeniorCitizen    = "SeniorCitizen"
	FieldPartner          = "Partner"
	FieldDependents       = "Dependents"
	FieldTenure           = "tenure"
	FieldPhoneService     = "PhoneService"
	FieldMultipleLines    = "MultipleLines"
	FieldInternetService  = "InternetService"
	FieldOnlineSecurity   = "OnlineSecurity"
	FieldOnlineBackup     = "OnlineBackup"
	FieldDeviceProtection = "DeviceProtection"
	FieldTechSupport      = "TechSupport"
	FieldStreamingTV      = "StreamingTV"
	FieldStreamingMovies  = "StreamingMovies"
	FieldContract         = "Contract"
	FieldPaperlessBilling = "PaperlessBilling"
	FieldPaymentMethod    = "PaymentMethod"
	FieldMonthlyCharges   = "MonthlyCharges"
	FieldTotalCharges     = "TotalCharges"
)

// Sentinel category values.
const (
	Yes               = "Yes"
	No                = "No"
	NoPhoneService    = "No phone service"
	NoInternetService = "No internet service"
	InternetDSL       = "DSL"
	InternetFiber     = "Fiber optic"
	InternetNone      = "No"
)

type Kind int

const (
	Numeric Kind = iota
	Categorical
)

func (k Kind) String() string {
	if k == Categorical {
		return "categorical"
	}
	return "numeric"
}

// Field describes one raw input attribute. Levels lists every value the
// training data contained for a categorical field.
type Field struct {
	Name   string
	Kind   Kind
	Levels []string
	Min    float64
	Max    float64
}

var (
	yesNo        = []string{Yes, No}
	addOnLevels  = []string{No, Yes, NoInternetService}
	lineLevels   = []string{No, Yes, NoPhoneService}
	netLevels    = []string{InternetDSL, InternetFiber, InternetNone}
	contractOpts = []string{"Month-to-month", "One year", "Two year"}
	paymentOpts  = []string{"Electronic check", "Mailed check", "Bank transfer (automatic)", "Credit card (automatic)"}
)

// InternetAddOns are the services only offered with an internet plan.
var InternetAddOns = []string{
	FieldOnlineSecurity,
	FieldOnlineBackup,
	FieldDeviceProtection,
	FieldTechSupport,
	FieldStreamingTV,
	FieldStreamingMovies,
}

// ScaledColumns are rescaled by the fitted scaler after alignment.
var ScaledColumns = []string{FieldTenure, FieldMonthlyCharges, FieldTotalCharges}

// Schema is the fixed enumeration of raw fields and their allowed values,
// in the order the training frame was built.
var Schema = []Field{
	{Name: FieldGender, Kind: Categorical, Levels: []string{"Female", "Male"}},
	{Name: FieldSeniorCitizen, Kind: Numeric, Min: 0, Max: 1},
	{Name: FieldPartner, Kind: Categorical, Levels: yesNo},
	{Name: FieldDependents, Kind: Categorical, Levels: yesNo},
	{Name: FieldTenure, Kind: Numeric, Min: 0, Max: 72},
	{Name: FieldPhoneService, Kind: Categorical, Levels: yesNo},
	{Name: FieldMultipleLines, Kind: Categorical, Levels: lineLevels},
	{Name: FieldInternetService, Kind: Categorical, Levels: netLevels},
	{Name: FieldOnlineSecurity, Kind: Categorical, Levels: addOnLevels},
	{Name: FieldOnlineBackup, Kind: Categorical, Levels: addOnLevels},
	{Name: FieldDeviceProtection, Kind: Categorical, Levels: addOnLevels},
	{Name: FieldTechSupport, Kind: Categorical, Levels: addOnLevels},
	{Name: FieldStreamingTV, Kind: Categorical, Levels: addOnLevels},
	{Name: FieldStreamingMovies, Kind: Categorical, Levels: addOnLevels},
	{Name: FieldContract, Kind: Categorical, Levels: contractOpts},
	{Name: FieldPaperlessBilling, Kind: Categorical, Levels: yesNo},
	{Name: FieldPaymentMethod, Kind: Categorical, Levels: paymentOpts},
	{Name: FieldMonthlyCharges, Kind: Numeric, Min: 0, Max: 150},
	{Name: FieldTotalCharges, Kind: Numeric, Min: 0, Max: 10000},
}

// Lookup finds a field by name.
func Lookup(name string) (Field, bool) {
	for _, f := range Schema {
		if f.Name == name {
			return f, true
		}
	}
	return Field{}, false
}

// HasLevel reports whether value is one of the field's levels.
func (f Field) HasLevel(value string) bool {
	for _, l := range f.Levels {
		if l == value {
			return true
		}
	}
	return false
}

// SortedLevels returns the levels in lexicographic order, the order
// pandas assigns to object categories before dropping the first.
func (f Field) SortedLevels() []string {
	levels := append([]string(nil), f.Levels...)
	sort.Strings(levels)
	return levels
}

// IndicatorColumn names the indicator column for one level.
func IndicatorColumn(field, level string) string {
	return field + "_" + level
}
