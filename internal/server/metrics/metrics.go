// Package metrics collects the Prometheus metrics of the session server.
package metrics

import (
	"context"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type label string

// LabelPath is the context key of the route label.
const LabelPath label = "path"

// Middleware instruments HTTP handlers.
type Middleware struct {
	buckets  []float64
	registry prometheus.Registerer
}

// New returns a Middleware registering its collectors in registry.
func New(registry prometheus.Registerer) *Middleware {
	return &Middleware{
		// Uploads are parsed inline, so the top bucket is 20.48s.
		buckets:  prometheus.ExponentialBuckets(0.005, 2, 13),
		registry: registry,
	}
}

// Monitor wraps handler to count requests and observe their latency and size.
func (m *Middleware) Monitor(handlerName string, handler http.Handler) http.HandlerFunc {
	reg := prometheus.WrapRegistererWith(prometheus.Labels{"handler": handlerName}, m.registry)
	labels := []string{"method", "code", string(LabelPath)}

	requestsTotal := promauto.With(reg).NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Tracks the number of HTTP requests.",
		}, labels,
	)
	requestDuration := promauto.With(reg).NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Tracks the latencies for HTTP requests.",
			Buckets: m.buckets,
		},
		labels,
	)
	requestSize := promauto.With(reg).NewSummaryVec(
		prometheus.SummaryOpts{
			Name: "http_request_size_bytes",
			Help: "Tracks the size of HTTP requests.",
		},
		labels,
	)

	opt := promhttp.WithLabelFromCtx(string(LabelPath), pathLabelFromCtx)
	base := promhttp.InstrumentHandlerCounter(
		requestsTotal,
		promhttp.InstrumentHandlerDuration(
			requestDuration,
			promhttp.InstrumentHandlerRequestSize(requestSize, handler, opt),
			opt,
		),
		opt,
	)

	return func(w http.ResponseWriter, r *http.Request) {
		ApplyLabels(r, r.Pattern)
		base.ServeHTTP(w, r)
	}
}

func pathLabelFromCtx(ctx context.Context) string {
	if path, ok := ctx.Value(LabelPath).(string); ok && path != "" {
		return path
	}
	return "unknown"
}

// ApplyLabels sets the route label of r.
// The route pattern is used instead of the path to keep session ids out of the label values.
func ApplyLabels(r *http.Request, route string) {
	ctx := context.WithValue(r.Context(), LabelPath, route)
	*r = *r.WithContext(ctx)
}

// Sessions tracks the donation flows driven by the server.
type Sessions struct {
	started  *prometheus.CounterVec
	finished *prometheus.CounterVec
	active   prometheus.Gauge
}

// NewSessions registers the session collectors in registry.
func NewSessions(registry prometheus.Registerer) *Sessions {
	return &Sessions{
		started: promauto.With(registry).NewCounterVec(
			prometheus.CounterOpts{
				Name: "ddp_sessions_started_total",
				Help: "Tracks the number of donation sessions started per platform.",
			}, []string{"platform"},
		),
		finished: promauto.With(registry).NewCounterVec(
			prometheus.CounterOpts{
				Name: "ddp_sessions_finished_total",
				Help: "Tracks the number of donation sessions which reached the end, per platform.",
			}, []string{"platform"},
		),
		active: promauto.With(registry).NewGauge(
			prometheus.GaugeOpts{
				Name: "ddp_sessions_active",
				Help: "Number of sessions held by the server.",
			},
		),
	}
}

// Started records a new session of platform.
func (s *Sessions) Started(platform string) {
	s.started.WithLabelValues(platform).Inc()
	s.active.Inc()
}

// Finished records a session of platform reaching the end.
func (s *Sessions) Finished(platform string) {
	s.finished.WithLabelValues(platform).Inc()
}

// Evicted records a session leaving the server.
func (s *Sessions) Evicted() {
	s.active.Dec()
}
