package pipeline

import (
	"fmt"
	"math"
	"strings"

	"churnguard/customer"
)

// ValidationRule 输入校验规则
type ValidationRule interface {
	Check(customer.Record) *Issue
	Name() string
}

// Issue 校验问题
type Issue struct {
	Field   string `json:"field"`
	Rule    string `json:"rule"`
	Message string `json:"message"`
}

// InvalidRecordError 记录未通过校验
type InvalidRecordError struct {
	Issues []Issue
}

// Error 拼接全部问题
func (e *InvalidRecordError) Error() string {
	parts := make([]string, len(e.Issues))
	for i, issue := range e.Issues {
		parts[i] = issue.Field + ": " + issue.Message
	}
	return "invalid record: " + strings.Join(parts, "; ")
}

// RecordValidator 记录校验器
type RecordValidator struct {
	rules []ValidationRule
}

// NewRecordValidator 创建校验器，每个字段一条默认规则
func NewRecordValidator(schema []customer.Field) *RecordValidator {
	v := &RecordValidator{rules: make([]ValidationRule, 0, len(schema))}
	for _, field := range schema {
		switch field.Kind {
		case customer.Numeric:
			v.AddRule(NewRangeRule(field))
		case customer.Categorical:
			v.AddRule(NewLevelRule(field))
		}
	}
	return v
}

// AddRule 添加规则
func (v *RecordValidator) AddRule(rule ValidationRule) {
	v.rules = append(v.rules, rule)
}

// Validate 运行全部规则，返回所有问题
func (v *RecordValidator) Validate(record customer.Record) []Issue {
	var issues []Issue
	for _, rule := range v.rules {
		if issue := rule.Check(record); issue != nil {
			issues = append(issues, *issue)
		}
	}
	return issues
}

// RangeRule 数值范围规则
type RangeRule struct {
	field customer.Field
}

// NewRangeRule 按字段的 [Min, Max] 创建范围规则
func NewRangeRule(field customer.Field) *RangeRule {
	return &RangeRule{field: field}
}

// Name 规则名
func (r *RangeRule) Name() string {
	return "range"
}

// Check 数值非有限或越界时返回问题
func (r *RangeRule) Check(record customer.Record) *Issue {
	value, ok := record.Numeric(r.field.Name)
	if !ok {
		return &Issue{Field: r.field.Name, Rule: r.Name(), Message: "not a numeric field"}
	}
	if math.IsNaN(value) || math.IsInf(value, 0) {
		return &Issue{Field: r.field.Name, Rule: r.Name(), Message: "must be a finite number"}
	}
	if value < r.field.Min || value > r.field.Max {
		return &Issue{
			Field:   r.field.Name,
			Rule:    r.Name(),
			Message: fmt.Sprintf("%g is outside [%g, %g]", value, r.field.Min, r.field.Max),
		}
	}
	return nil
}

// LevelRule 分类取值规则
type LevelRule struct {
	field customer.Field
}

// NewLevelRule 按字段的取值列表创建规则
func NewLevelRule(field customer.Field) *LevelRule {
	return &LevelRule{field: field}
}

// Name 规则名
func (r *LevelRule) Name() string {
	return "level"
}

// Check 取值不在列表中时返回问题
func (r *LevelRule) Check(record customer.Record) *Issue {
	value, ok := record.Categorical(r.field.Name)
	if !ok {
		return &Issue{Field: r.field.Name, Rule: r.Name(), Message: "not a categorical field"}
	}
	if !r.field.HasLevel(value) {
		return &Issue{
			Field:   r.field.Name,
			Rule:    r.Name(),
			Message: fmt.Sprintf("%q is not one of %s", value, strings.Join(r.field.Levels, ", ")),
		}
	}
	return nil
}
