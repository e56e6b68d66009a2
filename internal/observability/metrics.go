package observability

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds every Prometheus collector the gateway exposes at /metrics.
//
// Usage:
//
//	m := observability.NewMetrics()
//	m.SessionsOpened.WithLabelValues("B").Inc()
//	defer m.SessionDuration.WithLabelValues("B").Observe(time.Since(start).Seconds())
type Metrics struct {
	registry *prometheus.Registry

	// SessionsOpened counts relay sessions opened, labeled by persona role.
	SessionsOpened *prometheus.CounterVec

	// SessionsClosed counts relay sessions closed, labeled by role and the
	// reason the relay's pumps stopped (client_dropped, upstream_dropped,
	// normal).
	SessionsClosed *prometheus.CounterVec

	// SessionDuration observes the wall-clock lifetime of a relay session.
	SessionDuration *prometheus.HistogramVec

	// ToolExecutions counts tool invocations, labeled by tool name and
	// outcome (ok, bad_arguments, unauthenticated, backend_timeout,
	// backend_http_error, internal).
	ToolExecutions *prometheus.CounterVec

	// ToolExecutionDuration observes tool handler latency, labeled by tool
	// name.
	ToolExecutionDuration *prometheus.HistogramVec

	// HandoffEvents counts agent.handoff events emitted, labeled by the
	// target role.
	HandoffEvents *prometheus.CounterVec

	// BackendRequestDuration observes account-backend HTTP call latency,
	// labeled by method and path template.
	BackendRequestDuration *prometheus.HistogramVec

	// BackendRequestsTotal counts account-backend HTTP calls, labeled by
	// method, path template, and outcome.
	BackendRequestsTotal *prometheus.CounterVec

	// EmbeddingRequestDuration observes embedding-service call latency.
	EmbeddingRequestDuration prometheus.Histogram

	// EmbeddingBatchSize observes the number of chunks embedded per batch.
	EmbeddingBatchSize prometheus.Histogram

	// RAGSearchDuration observes end-to-end search_knowledge_base latency.
	RAGSearchDuration prometheus.Histogram

	// RAGSearchResults observes the number of chunks returned per search.
	RAGSearchResults prometheus.Histogram

	// ErrorsTotal counts gateway errors, labeled by error kind (the
	// ConfigInvalid/UpstreamDropped/... taxonomy).
	ErrorsTotal *prometheus.CounterVec

	// HTTPRequestDuration observes HTTP handler latency, labeled by route
	// and status class.
	HTTPRequestDuration *prometheus.HistogramVec

	// HTTPRequestsTotal counts HTTP requests, labeled by route and status
	// class.
	HTTPRequestsTotal *prometheus.CounterVec
}

// NewMetrics constructs a Metrics with its own registry so repeated calls in
// tests don't collide on prometheus' default global registry.
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,

		SessionsOpened: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "voicegate_sessions_opened_total",
			Help: "Total relay sessions opened, by persona role.",
		}, []string{"role"}),

		SessionsClosed: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "voicegate_sessions_closed_total",
			Help: "Total relay sessions closed, by persona role and close reason.",
		}, []string{"role", "reason"}),

		SessionDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "voicegate_session_duration_seconds",
			Help:    "Relay session lifetime in seconds, by persona role.",
			Buckets: []float64{1, 5, 15, 30, 60, 120, 300, 600, 1800},
		}, []string{"role"}),

		ToolExecutions: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "voicegate_tool_executions_total",
			Help: "Total tool invocations, by tool name and outcome.",
		}, []string{"tool", "outcome"}),

		ToolExecutionDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "voicegate_tool_execution_duration_seconds",
			Help:    "Tool handler latency in seconds, by tool name.",
			Buckets: prometheus.DefBuckets,
		}, []string{"tool"}),

		HandoffEvents: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "voicegate_handoff_events_total",
			Help: "Total agent.handoff events emitted, by target role.",
		}, []string{"target_role"}),

		BackendRequestDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "voicegate_backend_request_duration_seconds",
			Help:    "Account backend HTTP call latency in seconds, by method and path.",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "path"}),

		BackendRequestsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "voicegate_backend_requests_total",
			Help: "Account backend HTTP calls, by method, path, and outcome.",
		}, []string{"method", "path", "outcome"}),

		EmbeddingRequestDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "voicegate_embedding_request_duration_seconds",
			Help:    "Embedding service call latency in seconds.",
			Buckets: prometheus.DefBuckets,
		}),

		EmbeddingBatchSize: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "voicegate_embedding_batch_size",
			Help:    "Number of chunks embedded per embedding service call.",
			Buckets: []float64{1, 5, 10, 25, 50},
		}),

		RAGSearchDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "voicegate_rag_search_duration_seconds",
			Help:    "search_knowledge_base end-to-end latency in seconds.",
			Buckets: prometheus.DefBuckets,
		}),

		RAGSearchResults: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "voicegate_rag_search_results",
			Help:    "Number of chunks returned per search_knowledge_base call.",
			Buckets: []float64{0, 1, 2, 3, 5, 10},
		}),

		ErrorsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "voicegate_errors_total",
			Help: "Total gateway errors, by error kind.",
		}, []string{"kind"}),

		HTTPRequestDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "voicegate_http_request_duration_seconds",
			Help:    "HTTP handler latency in seconds, by route and status class.",
			Buckets: prometheus.DefBuckets,
		}, []string{"route", "status_class"}),

		HTTPRequestsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "voicegate_http_requests_total",
			Help: "Total HTTP requests, by route and status class.",
		}, []string{"route", "status_class"}),
	}
}

// Handler returns the http.Handler that serves this Metrics' collectors in
// the Prometheus exposition format, for mounting at /metrics.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
