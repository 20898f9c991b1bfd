// Package form describes the customer details form and turns a submission
// into a customer.Record.
package form

import (
	"strconv"

	"churnguard/customer"
)

type Control string

const (
	Slider Control = "slider"
	Radio  Control = "radio"
	Select Control = "select"
)

// Spec is one input control on the page.
type Spec struct {
	Name    string
	Label   string
	Control Control
	Options []string
	Min     float64
	Max     float64
	Step    float64
	Integer bool
	Default string
	// NeedsInternet marks the add-on selects hidden when InternetService is "No".
	NeedsInternet bool
}

// Group is a titled box of controls laid out in columns.
type Group struct {
	Title   string
	Columns [][]Spec
}

var yesNo = []string{customer.Yes, customer.No}

func slider(name, label string, min, max, step float64, integer bool, def string) Spec {
	return Spec{Name: name, Label: label, Control: Slider, Min: min, Max: max, Step: step, Integer: integer, Default: def}
}

func radio(name, label string) Spec {
	return Spec{Name: name, Label: label, Control: Radio, Options: yesNo, Default: customer.Yes}
}

func selectOf(name, label string) Spec {
	field, _ := customer.Lookup(name)
	return Spec{Name: name, Label: label, Control: Select, Options: field.Levels, Default: field.Levels[0]}
}

func addOn(name, label string) Spec {
	s := selectOf(name, label)
	s.NeedsInternet = true
	return s
}

var groups = []Group{
	{
		Title: "Account Info",
		Columns: [][]Spec{
			{
				slider(customer.FieldTenure, "Tenure (months)", 0, 72, 1, true, "12"),
				radio(customer.FieldPartner, "Partner"),
			},
			{
				slider(customer.FieldMonthlyCharges, "Monthly Charges ($)", 0, 150, 0.01, false, "70.00"),
				radio(customer.FieldDependents, "Dependents"),
			},
			{
				slider(customer.FieldTotalCharges, "Total Charges ($)", 0, 10000, 0.01, false, "1500.00"),
				radio(customer.FieldPaperlessBilling, "Paperless Billing"),
			},
		},
	},
	{
		Title: "Service Details",
		Columns: [][]Spec{
			{
				radio(customer.FieldPhoneService, "Phone Service"),
				selectOf(customer.FieldMultipleLines, "Multiple Lines"),
			},
			{
				selectOf(customer.FieldInternetService, "Internet Service"),
				addOn(customer.FieldOnlineSecurity, "Online Security"),
				addOn(customer.FieldOnlineBackup, "Online Backup"),
			},
			{
				addOn(customer.FieldDeviceProtection, "Device Protection"),
				addOn(customer.FieldTechSupport, "Tech Support"),
				addOn(customer.FieldStreamingTV, "Streaming TV"),
				addOn(customer.FieldStreamingMovies, "Streaming Movies"),
			},
		},
	},
	{
		Title: "Contract & Payment",
		Columns: [][]Spec{
			{selectOf(customer.FieldContract, "Contract")},
			{selectOf(customer.FieldPaymentMethod, "Payment Method")},
		},
	},
}

// Groups returns the form layout in display order.
func Groups() []Group {
	return groups
}

// Specs returns every control, flattened in display order.
func Specs() []Spec {
	var specs []Spec
	for _, g := range groups {
		for _, col := range g.Columns {
			specs = append(specs, col...)
		}
	}
	return specs
}

// Defaults is the record an untouched form submits.
func Defaults() customer.Record {
	r := customer.Record{
		Gender:        customer.FixedGender,
		SeniorCitizen: customer.FixedSeniorCitizen,
	}
	for _, s := range Specs() {
		// Defaults are literals above; a parse failure is a programming error.
		if err := assign(&r, s, s.Default); err != nil {
			panic("form: bad default for " + s.Name + ": " + err.Error())
		}
	}
	return r
}

// Values renders a record as the string each control should display.
func Values(r customer.Record) map[string]string {
	out := make(map[string]string, len(customer.Schema))
	for _, s := range Specs() {
		if s.Control == Slider {
			v, _ := r.Numeric(s.Name)
			if s.Integer {
				out[s.Name] = strconv.Itoa(int(v))
			} else {
				out[s.Name] = strconv.FormatFloat(v, 'f', 2, 64)
			}
			continue
		}
		out[s.Name], _ = r.Categorical(s.Name)
	}
	return out
}
