package pipeline

import (
	"fmt"
	"sort"
	"strings"

	"churnguard/customer"
)

// ContractReport describes how the raw schema maps onto the canonical
// column list. Any UnknownColumns or MissingIndicators would be zero-filled
// on every request.
type ContractReport struct {
	// References maps each categorical field to its dropped level. An empty
	// value means every level has its own column.
	References map[string]string `json:"references"`
	// Inferred lists fields whose reference level could not be read off
	// the column list and fell back to the first sorted level.
	Inferred []string `json:"inferred,omitempty"`
	// UnusedFields are raw fields with no column in the list.
	UnusedFields []string `json:"unused_fields,omitempty"`
	// UnknownColumns are canonical columns no field can produce.
	UnknownColumns []string `json:"unknown_columns,omitempty"`
	// MissingIndicators are non-reference levels without a column.
	MissingIndicators []string `json:"missing_indicators,omitempty"`
}

// OK reports whether every canonical column is produced and every
// produced indicator is canonical.
func (r ContractReport) OK() bool {
	return len(r.UnknownColumns) == 0 && len(r.MissingIndicators) == 0
}

// Err describes every violation, or returns nil when the report is OK.
func (r ContractReport) Err() error {
	if r.OK() {
		return nil
	}
	var parts []string
	if len(r.UnknownColumns) > 0 {
		parts = append(parts, "columns no field produces: "+strings.Join(r.UnknownColumns, ", "))
	}
	if len(r.MissingIndicators) > 0 {
		parts = append(parts, "indicators missing from column list: "+strings.Join(r.MissingIndicators, ", "))
	}
	return fmt.Errorf("column contract violated: %s", strings.Join(parts, "; "))
}

// CheckContract matches the schema against the canonical columns.
func CheckContract(schema []customer.Field, columns []string) ContractReport {
	_, report := buildEncoder(schema, columns)
	return report
}

func buildEncoder(schema []customer.Field, columns []string) (*Encoder, ContractReport) {
	canonical := make(map[string]bool, len(columns))
	for _, col := range columns {
		canonical[col] = false
	}
	claim := func(col string) bool {
		if _, ok := canonical[col]; ok {
			canonical[col] = true
			return true
		}
		return false
	}

	report := ContractReport{References: make(map[string]string)}
	enc := &Encoder{}

	for _, field := range schema {
		if field.Kind == customer.Numeric {
			if !claim(field.Name) {
				report.UnusedFields = append(report.UnusedFields, field.Name)
			}
			enc.fields = append(enc.fields, encodedField{name: field.Name, kind: customer.Numeric})
			continue
		}

		var present, absent []string
		for _, level := range field.SortedLevels() {
			if claim(customer.IndicatorColumn(field.Name, level)) {
				present = append(present, level)
			} else {
				absent = append(absent, level)
			}
		}

		var reference string
		switch {
		case len(present) == 0:
			reference = field.SortedLevels()[0]
			report.UnusedFields = append(report.UnusedFields, field.Name)
			report.Inferred = append(report.Inferred, field.Name)
		case len(absent) == 1:
			reference = absent[0]
		case len(absent) > 1:
			reference = absent[0]
			report.Inferred = append(report.Inferred, field.Name)
			for _, level := range absent[1:] {
				report.MissingIndicators = append(report.MissingIndicators, customer.IndicatorColumn(field.Name, level))
			}
		}
		report.References[field.Name] = reference

		ef := encodedField{name: field.Name, kind: customer.Categorical, reference: reference}
		for _, level := range field.SortedLevels() {
			if level == reference {
				continue
			}
			ef.indicators = append(ef.indicators, indicator{
				level:  level,
				column: customer.IndicatorColumn(field.Name, level),
			})
		}
		enc.fields = append(enc.fields, ef)
	}

	for _, col := range columns {
		if !canonical[col] {
			report.UnknownColumns = append(report.UnknownColumns, col)
		}
	}
	sort.Strings(report.MissingIndicators)
	return enc, report
}
