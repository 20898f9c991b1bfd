package form

import (
	"fmt"
	"net/url"
	"sort"
	"strconv"
	"strings"

	"churnguard/customer"
	"churnguard/pipeline"
)

// FieldError is one rejected control.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationError lists every control that failed, in display order.
type ValidationError struct {
	Errors []FieldError
}

func (e *ValidationError) Error() string {
	parts := make([]string, len(e.Errors))
	for i, fe := range e.Errors {
		parts[i] = fe.Field + ": " + fe.Message
	}
	return "invalid form: " + strings.Join(parts, "; ")
}

// Fields maps each rejected field to its message.
func (e *ValidationError) Fields() map[string]string {
	out := make(map[string]string, len(e.Errors))
	for _, fe := range e.Errors {
		out[fe.Field] = fe.Message
	}
	return out
}

var validator = pipeline.NewRecordValidator(customer.Schema)

// ApplyInternetCascade forces every internet add-on to "No internet service"
// when the customer has no internet plan. Other records pass through.
func ApplyInternetCascade(r customer.Record) customer.Record {
	if r.InternetService != customer.InternetNone {
		return r
	}
	return r.WithInternetAddOns(customer.NoInternetService)
}

// Collect builds a record from a submitted form. Gender and SeniorCitizen
// are always the fixed constants, whatever the client sent.
func Collect(values url.Values) (customer.Record, error) {
	r := customer.Record{}
	noInternet := strings.TrimSpace(values.Get(customer.FieldInternetService)) == customer.InternetNone

	var errs []FieldError
	for _, s := range Specs() {
		// Hidden add-ons are overwritten by the cascade, whatever was sent.
		if s.NeedsInternet && noInternet {
			continue
		}
		raw := strings.TrimSpace(values.Get(s.Name))
		if raw == "" {
			errs = append(errs, FieldError{Field: s.Name, Message: "is required"})
			continue
		}
		if err := assign(&r, s, raw); err != nil {
			errs = append(errs, FieldError{Field: s.Name, Message: err.Error()})
		}
	}
	if len(errs) > 0 {
		return customer.Record{}, &ValidationError{Errors: errs}
	}
	return CollectRecord(r)
}

// CollectRecord finishes a record decoded from JSON: it injects the fixed
// constants, applies the internet cascade and validates every field.
func CollectRecord(partial customer.Record) (customer.Record, error) {
	r := partial
	r.Gender = customer.FixedGender
	r.SeniorCitizen = customer.FixedSeniorCitizen
	r = ApplyInternetCascade(r)

	issues := validator.Validate(r)
	if len(issues) == 0 {
		return r, nil
	}
	errs := make([]FieldError, 0, len(issues))
	for _, issue := range issues {
		errs = append(errs, FieldError{Field: issue.Field, Message: issue.Message})
	}
	sortByDisplayOrder(errs)
	return customer.Record{}, &ValidationError{Errors: errs}
}

func assign(r *customer.Record, s Spec, raw string) error {
	if s.Control != Slider {
		if !contains(s.Options, raw) {
			return fmt.Errorf("%q is not one of %s", raw, strings.Join(s.Options, ", "))
		}
		next, ok := r.With(s.Name, raw)
		if !ok {
			return fmt.Errorf("unknown field %s", s.Name)
		}
		*r = next
		return nil
	}

	var value float64
	if s.Integer {
		n, err := strconv.Atoi(raw)
		if err != nil {
			return fmt.Errorf("%q is not a whole number", raw)
		}
		value = float64(n)
	} else {
		f, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return fmt.Errorf("%q is not a number", raw)
		}
		value = f
	}
	next, ok := r.WithNumeric(s.Name, value)
	if !ok {
		return fmt.Errorf("unknown field %s", s.Name)
	}
	*r = next
	return nil
}

func contains(options []string, v string) bool {
	for _, o := range options {
		if o == v {
			return true
		}
	}
	return false
}

func sortByDisplayOrder(errs []FieldError) {
	order := make(map[string]int)
	for i, s := range Specs() {
		order[s.Name] = i
	}
	sort.SliceStable(errs, func(i, j int) bool {
		return order[errs[i].Field] < order[errs[j].Field]
	})
}
