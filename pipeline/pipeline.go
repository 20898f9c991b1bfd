// Package pipeline 把一条客户记录转换为分类器需要的特征向量并完成推理。
//
// 顺序固定：校验 → 展开 → 对齐 → 缩放 → 推理。Pipeline 构建后只读，
// 可被并发请求共享，Run 不保留任何调用间状态。
package pipeline

import (
	"errors"
	"fmt"

	"churnguard/customer"
	"churnguard/ml"
)

// 阶段名称
const (
	StageValidate = "validate"
	StageExpand   = "expand"
	StageScale    = "scale"
	StageInfer    = "infer"
)

// StageError 带阶段信息的错误
type StageError struct {
	Stage string
	Err   error
}

// Error 前缀为阶段名
func (e *StageError) Error() string { return e.Stage + ": " + e.Err.Error() }

// Unwrap 返回原始错误
func (e *StageError) Unwrap() error { return e.Err }

// Stage 返回错误所在阶段，非流水线错误返回空串
func Stage(err error) string {
	var se *StageError
	if errors.As(err, &se) {
		return se.Stage
	}
	return ""
}

// Options 构建选项
type Options struct {
	// Strict 时列契约不满足直接返回错误；否则保留补零语义
	Strict bool
}

// Prediction 单次预测的完整输出
type Prediction struct {
	Encoded   Vector      `json:"encoded"`
	Scaled    Vector      `json:"scaled"`
	Alignment AlignReport `json:"alignment"`
	Result    Result      `json:"result"`
	Version   string      `json:"version"`
}

// Pipeline 特征流水线
type Pipeline struct {
	artifacts *ml.Artifacts
	encoder   *Encoder
	validator *RecordValidator
	contract  ContractReport
}

// New 基于已加载的制品创建流水线
func New(artifacts *ml.Artifacts, opts Options) (*Pipeline, error) {
	if artifacts == nil {
		return nil, errors.New("artifacts are required")
	}
	encoder, report := NewEncoder(customer.Schema, artifacts.Columns)
	if opts.Strict {
		if err := report.Err(); err != nil {
			return nil, err
		}
	}
	return &Pipeline{
		artifacts: artifacts,
		encoder:   encoder,
		validator: NewRecordValidator(customer.Schema),
		contract:  report,
	}, nil
}

// Artifacts 流水线使用的制品
func (p *Pipeline) Artifacts() *ml.Artifacts { return p.artifacts }

// Contract 构建时的列契约报告
func (p *Pipeline) Contract() ContractReport { return p.contract }

// Version 制品版本
func (p *Pipeline) Version() string { return p.artifacts.Version }

// Encode 校验、展开并对齐，不缩放
func (p *Pipeline) Encode(record customer.Record) (Vector, AlignReport, error) {
	if issues := p.validator.Validate(record); len(issues) > 0 {
		return Vector{}, AlignReport{}, &StageError{Stage: StageValidate, Err: &InvalidRecordError{Issues: issues}}
	}
	row, err := p.encoder.Expand(record)
	if err != nil {
		return Vector{}, AlignReport{}, &StageError{Stage: StageExpand, Err: err}
	}
	aligned, report := Align(row, p.artifacts.Columns)
	return aligned, report, nil
}

// Run 执行完整流水线
func (p *Pipeline) Run(record customer.Record) (*Prediction, error) {
	aligned, report, err := p.Encode(record)
	if err != nil {
		return nil, err
	}
	scaled, err := Scale(aligned, p.artifacts.Scaler)
	if err != nil {
		return nil, &StageError{Stage: StageScale, Err: err}
	}
	result, err := Infer(p.artifacts.Model, scaled)
	if err != nil {
		return nil, &StageError{Stage: StageInfer, Err: fmt.Errorf("classifier: %w", err)}
	}
	return &Prediction{
		Encoded:   aligned,
		Scaled:    scaled,
		Alignment: report,
		Result:    result,
		Version:   p.artifacts.Version,
	}, nil
}
