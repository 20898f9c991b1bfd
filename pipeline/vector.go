package pipeline

import "churnguard/ml"

// Vector 带列名的单行数值
type Vector struct {
	Columns []string  `json:"columns"`
	Values  []float64 `json:"values"`
}

func (v *Vector) append(column string, value float64) {
	v.Columns = append(v.Columns, column)
	v.Values = append(v.Values, value)
}

// Value 按列名取值
func (v Vector) Value(column string) (float64, bool) {
	for i, c := range v.Columns {
		if c == column {
			return v.Values[i], true
		}
	}
	return 0, false
}

// Clone 深拷贝
func (v Vector) Clone() Vector {
	return Vector{
		Columns: append([]string(nil), v.Columns...),
		Values:  append([]float64(nil), v.Values...),
	}
}

// AlignReport 对齐结果：补零的列和丢弃的列
type AlignReport struct {
	Filled  []string `json:"filled,omitempty"`
	Dropped []string `json:"dropped,omitempty"`
}

// Align 按规范列清单重排：缺失列补 0，多余列丢弃，顺序与清单一致。
func Align(row Vector, columns []string) (Vector, AlignReport) {
	index := make(map[string]int, len(row.Columns))
	for i, c := range row.Columns {
		index[c] = i
	}

	var report AlignReport
	used := make(map[string]struct{}, len(columns))
	out := Vector{
		Columns: append([]string(nil), columns...),
		Values:  make([]float64, len(columns)),
	}
	for i, col := range columns {
		j, ok := index[col]
		if !ok {
			report.Filled = append(report.Filled, col)
			continue
		}
		out.Values[i] = row.Values[j]
		used[col] = struct{}{}
	}
	for _, c := range row.Columns {
		if _, ok := used[c]; !ok {
			report.Dropped = append(report.Dropped, c)
		}
	}
	return out, report
}

// Scale 在对齐后的副本上应用已拟合的缩放器，原向量不变。
func Scale(v Vector, scaler *ml.Scaler) (Vector, error) {
	out := v.Clone()
	if err := scaler.Transform(out.Columns, out.Values); err != nil {
		return Vector{}, err
	}
	return out, nil
}
