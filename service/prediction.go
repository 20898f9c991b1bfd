// Package service 编排一次预测：流水线、缓存、审计日志与指标。
package service

import (
	"context"
	"errors"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"churnguard/cache"
	"churnguard/customer"
	"churnguard/db"
	"churnguard/logging"
	"churnguard/ml"
	"churnguard/monitoring"
	"churnguard/pipeline"
	"churnguard/render"
)

// Options 服务依赖；Cache、Store、Metrics 均可为空
type Options struct {
	Strict  bool
	Cache   cache.Cache
	Store   *db.PredictionStore
	Metrics *monitoring.Metrics
	Logger  *zap.Logger
}

// Outcome 一次预测的结果
type Outcome struct {
	ID         string               `json:"id"`
	Record     customer.Record      `json:"record"`
	Prediction *pipeline.Prediction `json:"prediction"`
	Verdict    render.View          `json:"verdict"`
	Cached     bool                 `json:"cached"`
}

// PredictionService 预测服务。流水线指针可在重新加载时原子替换，
// 进行中的请求继续使用开始时拿到的流水线。
type PredictionService struct {
	current atomic.Pointer[pipeline.Pipeline]

	strict  bool
	cache   cache.Cache
	store   *db.PredictionStore
	metrics *monitoring.Metrics
	logger  *zap.Logger
}

// ErrAuditDisabled 未启用审计日志
var ErrAuditDisabled = errors.New("prediction audit log is disabled")

// New 基于首次加载的制品创建服务
func New(artifacts *ml.Artifacts, opts Options) (*PredictionService, error) {
	s := &PredictionService{
		strict:  opts.Strict,
		cache:   opts.Cache,
		store:   opts.Store,
		metrics: opts.Metrics,
		logger:  opts.Logger,
	}
	if s.cache == nil {
		s.cache = cache.Noop{}
	}
	if s.logger == nil {
		s.logger = zap.NewNop()
	}
	if err := s.install(artifacts); err != nil {
		return nil, err
	}
	return s, nil
}

// Reload 用新制品替换当前流水线，可直接作为 ml.ReloadFunc 使用。
// 构建失败时旧流水线继续服务。
func (s *PredictionService) Reload(artifacts *ml.Artifacts) error {
	err := s.install(artifacts)
	s.metrics.ObserveReload(err)
	return err
}

func (s *PredictionService) install(artifacts *ml.Artifacts) error {
	p, err := pipeline.New(artifacts, pipeline.Options{Strict: s.strict})
	if err != nil {
		return err
	}
	if report := p.Contract(); !report.OK() {
		s.logger.Warn("column contract mismatch, missing indicators will be zero-filled",
			zap.Strings("unknown_columns", report.UnknownColumns),
			zap.Strings("missing_indicators", report.MissingIndicators))
	}
	if inferred := p.Contract().Inferred; len(inferred) > 0 {
		s.logger.Info("reference level inferred from sorted order", zap.Strings("fields", inferred))
	}

	s.current.Store(p)
	s.metrics.SetArtifactVersion(artifacts.Version)
	s.logger.Info("artifacts active",
		zap.String("version", artifacts.Version),
		zap.String("model_type", ml.ModelType(artifacts.Model)),
		zap.Int("columns", len(artifacts.Columns)))

	if s.store != nil {
		load := db.ArtifactLoad{
			Version:   artifacts.Version,
			ModelType: ml.ModelType(artifacts.Model),
			Columns:   len(artifacts.Columns),
			LoadedAt:  artifacts.LoadedAt,
		}
		if err := s.store.LogArtifactLoad(load); err != nil {
			s.logger.Warn("artifact load not audited", zap.Error(err))
		}
	}
	return nil
}

// Pipeline 当前流水线
func (s *PredictionService) Pipeline() *pipeline.Pipeline {
	return s.current.Load()
}

// Predict 对一条已收集的记录执行预测
func (s *PredictionService) Predict(ctx context.Context, record customer.Record) (*Outcome, error) {
	start := time.Now()
	p := s.current.Load()
	logger := logging.For(ctx, s.logger)

	key := cache.Key(p.Version(), record)
	prediction, hit := s.cache.Get(ctx, key)
	s.metrics.ObserveCache(hit)

	if !hit {
		var err error
		prediction, err = p.Run(record)
		if err != nil {
			s.metrics.ObserveError(pipeline.Stage(err))
			logger.Warn("prediction failed", zap.String("stage", pipeline.Stage(err)), zap.Error(err))
			return nil, err
		}
		if len(prediction.Alignment.Filled) > 0 || len(prediction.Alignment.Dropped) > 0 {
			logger.Debug("vector aligned",
				zap.Strings("filled", prediction.Alignment.Filled),
				zap.Strings("dropped", prediction.Alignment.Dropped))
		}
		if err := s.cache.Set(ctx, key, prediction); err != nil {
			logger.Debug("prediction not cached", zap.Error(err))
		}
	}

	outcome := &Outcome{
		ID:         uuid.NewString(),
		Record:     record,
		Prediction: prediction,
		Verdict:    render.Verdict(prediction.Result),
		Cached:     hit,
	}
	elapsed := time.Since(start)
	s.metrics.ObservePrediction(prediction.Result.Label, elapsed)
	s.audit(ctx, outcome, logger)

	logger.Info("prediction served",
		zap.String("id", outcome.ID),
		zap.Int("label", prediction.Result.Label),
		zap.Float64("churn_probability", prediction.Result.ChurnProbability()),
		zap.Bool("cached", hit),
		zap.Duration("elapsed", elapsed))
	return outcome, nil
}

func (s *PredictionService) audit(ctx context.Context, o *Outcome, logger *zap.Logger) {
	if s.store == nil {
		return
	}
	err := s.store.SavePrediction(db.PredictionRecord{
		ID:               o.ID,
		RequestID:        logging.RequestID(ctx),
		Record:           string(o.Record.Canonical()),
		Label:            o.Prediction.Result.Label,
		ChurnProbability: o.Prediction.Result.ChurnProbability(),
		Confidence:       o.Prediction.Result.Confidence(),
		ModelVersion:     o.Prediction.Version,
		Cached:           o.Cached,
	})
	if err != nil {
		logger.Warn("prediction not audited", zap.String("id", o.ID), zap.Error(err))
	}
}

// Recent 最近的审计记录
func (s *PredictionService) Recent(limit int) ([]db.PredictionRecord, error) {
	if s.store == nil {
		return nil, ErrAuditDisabled
	}
	return s.store.RecentPredictions(limit)
}

// Close 释放缓存与审计库
func (s *PredictionService) Close() error {
	return errors.Join(s.cache.Close(), s.store.Close())
}
