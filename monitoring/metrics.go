package monitoring

import (
	"net/http"
	"runtime"
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "churnguard"

// Metrics 预测服务指标，注册在独立的 Registry 上
type Metrics struct {
	registry *prometheus.Registry

	predictions   *prometheus.CounterVec
	errors        *prometheus.CounterVec
	duration      prometheus.Histogram
	cache         *prometheus.CounterVec
	reloads       *prometheus.CounterVec
	artifactInfo  *prometheus.GaugeVec
	infoLock      sync.Mutex
	activeVersion string

	startTime time.Time
}

// NewMetrics 创建并注册全部指标
func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		predictions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "predictions_total",
			Help:      "Predictions served, by predicted label.",
		}, []string{"label"}),
		errors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "prediction_errors_total",
			Help:      "Failed predictions, by pipeline stage.",
		}, []string{"stage"}),
		duration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "prediction_duration_seconds",
			Help:      "Time from submitted record to classifier result.",
			Buckets:   []float64{.0001, .0005, .001, .005, .01, .05, .1, .5},
		}),
		cache: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_requests_total",
			Help:      "Prediction cache lookups, by result.",
		}, []string{"result"}),
		reloads: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "artifact_reloads_total",
			Help:      "Artifact bundle reloads, by outcome.",
		}, []string{"result"}),
		artifactInfo: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "artifact_info",
			Help:      "Set to 1 for the artifact version currently serving.",
		}, []string{"version"}),
		startTime: time.Now(),
	}

	m.registry.MustRegister(
		m.predictions,
		m.errors,
		m.duration,
		m.cache,
		m.reloads,
		m.artifactInfo,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// Registry 返回底层 Registry
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler Prometheus 抓取端点
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// ObservePrediction 记录一次成功预测
func (m *Metrics) ObservePrediction(label int, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.predictions.WithLabelValues(strconv.Itoa(label)).Inc()
	m.duration.Observe(elapsed.Seconds())
}

// ObserveError 记录一次失败
func (m *Metrics) ObserveError(stage string) {
	if m == nil {
		return
	}
	if stage == "" {
		stage = "unknown"
	}
	m.errors.WithLabelValues(stage).Inc()
}

// ObserveCache 记录缓存命中或未命中
func (m *Metrics) ObserveCache(hit bool) {
	if m == nil {
		return
	}
	result := "miss"
	if hit {
		result = "hit"
	}
	m.cache.WithLabelValues(result).Inc()
}

// ObserveReload 记录制品重新加载结果
func (m *Metrics) ObserveReload(err error) {
	if m == nil {
		return
	}
	result := "ok"
	if err != nil {
		result = "failed"
	}
	m.reloads.WithLabelValues(result).Inc()
}

// SetArtifactVersion 切换当前制品版本
func (m *Metrics) SetArtifactVersion(version string) {
	if m == nil {
		return
	}
	m.infoLock.Lock()
	defer m.infoLock.Unlock()

	if m.activeVersion != "" {
		m.artifactInfo.DeleteLabelValues(m.activeVersion)
	}
	m.artifactInfo.WithLabelValues(version).Set(1)
	m.activeVersion = version
}

// GetUptime 获取运行时间
func (m *Metrics) GetUptime() time.Duration {
	return time.Since(m.startTime)
}

// GetSystemStats 获取系统统计
func (m *Metrics) GetSystemStats() map[string]interface{} {
	var ms runtime.MemStats
	runtime.ReadMemStats(&ms)

	return map[string]interface{}{
		"uptime":     m.GetUptime().String(),
		"goroutines": runtime.NumGoroutine(),
		"memory": map[string]interface{}{
			"alloc":      ms.Alloc,
			"sys":        ms.Sys,
			"heap_inuse": ms.HeapInuse,
			"gc_count":   ms.NumGC,
		},
		"num_cpu": runtime.NumCPU(),
	}
}
