package service

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"churnguard/cache"
	"churnguard/config"
	"churnguard/db"
	"churnguard/ml"
	"churnguard/monitoring"
)

// Open 按配置加载制品并装配缓存、审计库和指标。制品加载失败时返回
// *ml.ArtifactError，调用方应在提供任何页面之前退出。
func Open(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*PredictionService, error) {
	artifacts, err := ml.LoadArtifacts(cfg.ArtifactPaths())
	if err != nil {
		return nil, err
	}

	opts := Options{Strict: cfg.Artifacts.StrictSchema, Logger: logger}
	if cfg.Metrics.Enabled {
		opts.Metrics = monitoring.NewMetrics()
	}

	switch cfg.Cache.Backend {
	case config.CacheLRU:
		lru, err := cache.NewLRU(cfg.Cache.Size)
		if err != nil {
			return nil, fmt.Errorf("cache: %w", err)
		}
		opts.Cache = lru
	case config.CacheRedis:
		rc := cache.NewRedis(cfg.Cache.RedisAddr, cfg.Cache.TTL)
		if err := rc.Ping(ctx); err != nil {
			// Lookups against a down server are misses, so keep serving.
			logger.Warn("redis cache unreachable", zap.String("addr", cfg.Cache.RedisAddr), zap.Error(err))
		}
		opts.Cache = rc
	}

	if cfg.Audit.Enabled {
		store, err := db.Open(cfg.Audit.Path)
		if err != nil {
			if opts.Cache != nil {
				opts.Cache.Close()
			}
			return nil, fmt.Errorf("audit: %w", err)
		}
		opts.Store = store
	}

	svc, err := New(artifacts, opts)
	if err != nil {
		if opts.Cache != nil {
			opts.Cache.Close()
		}
		opts.Store.Close()
		return nil, err
	}
	return svc, nil
}

// Metrics 服务使用的指标，未启用时为 nil
func (s *PredictionService) Metrics() *monitoring.Metrics {
	return s.metrics
}

// Watch 启动制品目录监听，变更后调用 Reload
func (s *PredictionService) Watch(ctx context.Context, paths ml.Paths) (*ml.Watcher, error) {
	w, err := ml.NewWatcher(paths, s.Reload, s.logger)
	if err != nil {
		return nil, err
	}
	if err := w.Start(ctx); err != nil {
		return nil, err
	}
	return w, nil
}
