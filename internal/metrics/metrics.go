// Package metrics provides the centralized Prometheus registry for the
// insight service.
package metrics

import (
	"net/http"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Global registry instance
var (
	registry *prometheus.Registry
	once     sync.Once
)

// Counter metrics
var (
	InsightBatchesTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "thymos",
		Name:      "insight_batches_total",
		Help:      "Total number of insight batches generated, by strategy",
	}, []string{"strategy"})
	RemoteFallbacksTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "thymos",
		Name:      "remote_fallbacks_total",
		Help:      "Total number of remote generation failures recovered by the rule-based strategy",
	})
	InsightPersistenceFailuresTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "thymos",
		Name:      "insight_persistence_failures_total",
		Help:      "Total number of best-effort insight writes that failed",
	})
	InsightsPrunedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "thymos",
		Name:      "insights_pruned_total",
		Help:      "Total number of insights removed by the retention sweep",
	})
	HTTPRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "thymos",
		Name:      "http_requests_total",
		Help:      "Total number of API requests, by route and status code",
	}, []string{"route", "status"})
)

// Gauge metrics
var (
	StreamSubscribers = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "thymos",
		Name:      "stream_subscribers",
		Help:      "Number of connected insight stream subscribers",
	})
)

// Histogram metrics
var (
	InsightGenerationDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "thymos",
		Name:      "insight_generation_duration_seconds",
		Help:      "Duration of insight generation in seconds, by strategy",
		Buckets:   prometheus.DefBuckets,
	}, []string{"strategy"})
	TradeQueryDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: "thymos",
		Name:      "trade_query_duration_seconds",
		Help:      "Duration of owner trade loads in seconds",
		Buckets:   prometheus.DefBuckets,
	})
)

// InitRegistry initializes the global Prometheus registry.
func InitRegistry() *prometheus.Registry {
	once.Do(func() {
		registry = prometheus.NewRegistry()

		registry.MustRegister(InsightBatchesTotal)
		registry.MustRegister(RemoteFallbacksTotal)
		registry.MustRegister(InsightPersistenceFailuresTotal)
		registry.MustRegister(InsightsPrunedTotal)
		registry.MustRegister(HTTPRequestsTotal)

		registry.MustRegister(StreamSubscribers)

		registry.MustRegister(InsightGenerationDuration)
		registry.MustRegister(TradeQueryDuration)
	})
	return registry
}

// GetRegistry returns the global Prometheus registry.
func GetRegistry() *prometheus.Registry {
	if registry == nil {
		return InitRegistry()
	}
	return registry
}

// Handler returns the Prometheus HTTP handler.
func Handler() http.Handler {
	return promhttp.HandlerFor(GetRegistry(), promhttp.HandlerOpts{})
}
