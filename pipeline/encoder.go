package pipeline

import (
	"fmt"

	"churnguard/customer"
)

// Encoder 把原始记录展开为数值列：数值字段按名透传，分类字段按
// <字段>_<取值> 生成指示列，参考取值不生成列。
type Encoder struct {
	fields []encodedField
}

type encodedField struct {
	name       string
	kind       customer.Kind
	reference  string
	indicators []indicator
}

type indicator struct {
	level  string
	column string
}

// NewEncoder 根据列清单构建编码器，同时返回契约报告
func NewEncoder(schema []customer.Field, columns []string) (*Encoder, ContractReport) {
	return buildEncoder(schema, columns)
}

// Columns 编码器输出的全部列名（对齐前）
func (e *Encoder) Columns() []string {
	var cols []string
	for _, f := range e.fields {
		if f.kind == customer.Numeric {
			cols = append(cols, f.name)
			continue
		}
		for _, ind := range f.indicators {
			cols = append(cols, ind.column)
		}
	}
	return cols
}

// Expand 展开单条记录。输出顺序固定，与记录内容无关。
func (e *Encoder) Expand(record customer.Record) (Vector, error) {
	var v Vector
	for _, f := range e.fields {
		if f.kind == customer.Numeric {
			value, ok := record.Numeric(f.name)
			if !ok {
				return Vector{}, fmt.Errorf("unknown numeric field %q", f.name)
			}
			v.append(f.name, value)
			continue
		}

		value, ok := record.Categorical(f.name)
		if !ok {
			return Vector{}, fmt.Errorf("unknown categorical field %q", f.name)
		}
		matched := value == f.reference
		for _, ind := range f.indicators {
			bit := 0.0
			if ind.level == value {
				bit = 1
				matched = true
			}
			v.append(ind.column, bit)
		}
		if !matched {
			return Vector{}, fmt.Errorf("%s: unexpected value %q", f.name, value)
		}
	}
	return v, nil
}
