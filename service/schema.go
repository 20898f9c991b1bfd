package service

import (
	"time"

	"churnguard/customer"
	"churnguard/ml"
	"churnguard/pipeline"
)

// FieldInfo 单个原始字段的描述
type FieldInfo struct {
	Name      string   `json:"name"`
	Kind      string   `json:"kind"`
	Levels    []string `json:"levels,omitempty"`
	Reference string   `json:"reference,omitempty"`
	Min       *float64 `json:"min,omitempty"`
	Max       *float64 `json:"max,omitempty"`
}

// SchemaInfo 当前制品的输入契约
type SchemaInfo struct {
	Version   string                  `json:"version"`
	ModelType string                  `json:"model_type"`
	LoadedAt  time.Time               `json:"loaded_at"`
	Columns   []string                `json:"columns"`
	Scaled    []string                `json:"scaled"`
	Fields    []FieldInfo             `json:"fields"`
	Contract  pipeline.ContractReport `json:"contract"`
}

// Schema 描述当前流水线期望的输入
func (s *PredictionService) Schema() SchemaInfo {
	p := s.current.Load()
	artifacts := p.Artifacts()
	contract := p.Contract()

	fields := make([]FieldInfo, 0, len(customer.Schema))
	for _, f := range customer.Schema {
		info := FieldInfo{Name: f.Name, Kind: f.Kind.String()}
		if f.Kind == customer.Categorical {
			info.Levels = f.Levels
			info.Reference = contract.References[f.Name]
		} else {
			lo, hi := f.Min, f.Max
			info.Min, info.Max = &lo, &hi
		}
		fields = append(fields, info)
	}

	return SchemaInfo{
		Version:   artifacts.Version,
		ModelType: ml.ModelType(artifacts.Model),
		LoadedAt:  artifacts.LoadedAt,
		Columns:   artifacts.Columns,
		Scaled:    artifacts.Scaler.Features(),
		Fields:    fields,
		Contract:  contract,
	}
}
