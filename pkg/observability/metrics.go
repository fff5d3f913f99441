// Package observability provides metrics and tracing for the MCP client.
package observability

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MetricsConfig configures the metrics provider
type MetricsConfig struct {
	// Namespace is the Prometheus namespace (default: mcp_client)
	Namespace string

	// Subsystem is the Prometheus subsystem
	Subsystem string

	// HistogramBuckets are custom latency buckets in seconds
	HistogramBuckets []float64

	// ConstLabels are added to all metrics
	ConstLabels prometheus.Labels

	// Registry lets callers supply their own registry; the default
	// registry is used when nil.
	Registry *prometheus.Registry
}

// MetricsProvider records client-side metrics
type MetricsProvider interface {
	// RecordRequest records one request round trip by method and outcome
	RecordRequest(method, status string, duration time.Duration)

	// RecordNotification records one outgoing notification
	RecordNotification(method, status string)

	// RecordToolCall records one tool invocation by tool name and outcome
	RecordToolCall(tool, status string, duration time.Duration)

	// RecordSessionState tracks the number of open sessions
	RecordSessionState(delta int)

	// Handler returns an http.Handler serving the metrics endpoint
	Handler() http.Handler
}

// PrometheusMetricsProvider implements MetricsProvider using Prometheus
type PrometheusMetricsProvider struct {
	registry *prometheus.Registry

	requestDuration   *prometheus.HistogramVec
	requestTotal      *prometheus.CounterVec
	notificationTotal *prometheus.CounterVec
	toolCallDuration  *prometheus.HistogramVec
	toolCallTotal     *prometheus.CounterVec
	activeSessions    prometheus.Gauge
}

// NewMetricsProvider creates a Prometheus-backed metrics provider
func NewMetricsProvider(config MetricsConfig) (*PrometheusMetricsProvider, error) {
	if config.Namespace == "" {
		config.Namespace = "mcp_client"
	}
	if len(config.HistogramBuckets) == 0 {
		config.HistogramBuckets = []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10, 30}
	}
	registry := config.Registry
	if registry == nil {
		registry = prometheus.NewRegistry()
	}

	p := &PrometheusMetricsProvider{
		registry: registry,
		requestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "request_duration_seconds",
			Help:        "Duration of MCP request round trips",
			Buckets:     config.HistogramBuckets,
			ConstLabels: config.ConstLabels,
		}, []string{"method", "status"}),
		requestTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "requests_total",
			Help:        "Total MCP requests by method and outcome",
			ConstLabels: config.ConstLabels,
		}, []string{"method", "status"}),
		notificationTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "notifications_total",
			Help:        "Total outgoing MCP notifications",
			ConstLabels: config.ConstLabels,
		}, []string{"method", "status"}),
		toolCallDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "tool_call_duration_seconds",
			Help:        "Duration of tool invocations",
			Buckets:     config.HistogramBuckets,
			ConstLabels: config.ConstLabels,
		}, []string{"tool", "status"}),
		toolCallTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "tool_calls_total",
			Help:        "Total tool invocations by tool and outcome",
			ConstLabels: config.ConstLabels,
		}, []string{"tool", "status"}),
		activeSessions: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "active_sessions",
			Help:        "Number of currently open server sessions",
			ConstLabels: config.ConstLabels,
		}),
	}

	collectors := []prometheus.Collector{
		p.requestDuration,
		p.requestTotal,
		p.notificationTotal,
		p.toolCallDuration,
		p.toolCallTotal,
		p.activeSessions,
	}
	for _, c := range collectors {
		if err := registry.Register(c); err != nil {
			return nil, err
		}
	}

	return p, nil
}

// RecordRequest records one request round trip
func (p *PrometheusMetricsProvider) RecordRequest(method, status string, duration time.Duration) {
	p.requestTotal.WithLabelValues(method, status).Inc()
	p.requestDuration.WithLabelValues(method, status).Observe(duration.Seconds())
}

// RecordNotification records one outgoing notification
func (p *PrometheusMetricsProvider) RecordNotification(method, status string) {
	p.notificationTotal.WithLabelValues(method, status).Inc()
}

// RecordToolCall records one tool invocation
func (p *PrometheusMetricsProvider) RecordToolCall(tool, status string, duration time.Duration) {
	p.toolCallTotal.WithLabelValues(tool, status).Inc()
	p.toolCallDuration.WithLabelValues(tool, status).Observe(duration.Seconds())
}

// RecordSessionState tracks the number of open sessions
func (p *PrometheusMetricsProvider) RecordSessionState(delta int) {
	p.activeSessions.Add(float64(delta))
}

// Handler returns an http.Handler serving the metrics endpoint
func (p *PrometheusMetricsProvider) Handler() http.Handler {
	return promhttp.HandlerFor(p.registry, promhttp.HandlerOpts{})
}
