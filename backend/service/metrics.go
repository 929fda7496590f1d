package service

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/AnTengye/clausewise/backend/model"
)

const metricsNamespace = "clausewise"

var latencyBuckets = []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10, 30}

// Metrics owns a private registry so tests can build as many as they like.
// It satisfies analyzer.Recorder.
type Metrics struct {
	registry *prometheus.Registry

	stageDuration  *prometheus.HistogramVec
	fallbacks      *prometheus.CounterVec
	backendCalls   *prometheus.CounterVec
	backendLatency *prometheus.HistogramVec
	cacheLookups   *prometheus.CounterVec
	cacheWrites    *prometheus.CounterVec
	analyses       *prometheus.CounterVec
	httpRequests   *prometheus.CounterVec
	httpLatency    *prometheus.HistogramVec
}

func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{Namespace: metricsNamespace}),
		prometheus.NewGoCollector(),
	)
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,
		stageDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: metricsNamespace,
			Name:      "stage_duration_seconds",
			Help:      "Duration of each analysis stage.",
			Buckets:   latencyBuckets,
		}, []string{"stage", "path"}),
		fallbacks: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "stage_fallbacks_total",
			Help:      "Stages that finished on the rule-based path.",
		}, []string{"stage"}),
		backendCalls: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "backend_calls_total",
			Help:      "Backend calls by stage and outcome.",
		}, []string{"stage", "outcome"}),
		backendLatency: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: metricsNamespace,
			Name:      "backend_call_duration_seconds",
			Help:      "Latency of backend calls.",
			Buckets:   latencyBuckets,
		}, []string{"stage"}),
		cacheLookups: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "cache_lookups_total",
			Help:      "Analysis cache lookups by result.",
		}, []string{"result"}),
		cacheWrites: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "cache_writes_total",
			Help:      "Analysis cache writes by result.",
		}, []string{"result"}),
		analyses: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "analyses_total",
			Help:      "Completed analyses by tier.",
		}, []string{"tier"}),
		httpRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by method, route and status.",
		}, []string{"method", "route", "status"}),
		httpLatency: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: metricsNamespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by method and route.",
			Buckets:   latencyBuckets,
		}, []string{"method", "route"}),
	}
}

// Handler serves the registry in the exposition format
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Metrics) ObserveStage(stage string, path model.Path, d time.Duration) {
	m.stageDuration.WithLabelValues(stage, string(path)).Observe(d.Seconds())
	if path == model.PathFallback {
		m.fallbacks.WithLabelValues(stage).Inc()
	}
}

func (m *Metrics) ObserveBackendCall(stage string, err error, d time.Duration) {
	outcome := "success"
	if err != nil {
		outcome = "error"
	}
	m.backendCalls.WithLabelValues(stage, outcome).Inc()
	m.backendLatency.WithLabelValues(stage).Observe(d.Seconds())
}

func (m *Metrics) ObserveCache(hit bool) {
	result := "miss"
	if hit {
		result = "hit"
	}
	m.cacheLookups.WithLabelValues(result).Inc()
}

// Cache write results
const (
	CacheWriteStored  = "stored"
	CacheWriteSkipped = "skipped"
	CacheWriteFailed  = "failed"
)

func (m *Metrics) ObserveCacheWrite(result string) {
	m.cacheWrites.WithLabelValues(result).Inc()
}

func (m *Metrics) ObserveAnalysis(tier model.Tier) {
	m.analyses.WithLabelValues(string(tier)).Inc()
}

func (m *Metrics) ObserveHTTP(method, route string, status int, d time.Duration) {
	m.httpRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.httpLatency.WithLabelValues(method, route).Observe(d.Seconds())
}
