// Package metrics provides Prometheus instrumentation for the
// reputation engine.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// PredictionsEvaluated counts evaluated predictions by kind and outcome.
	PredictionsEvaluated = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "sfx_predictions_evaluated_total",
		Help: "Predictions evaluated, by kind and outcome",
	}, []string{"kind", "outcome"})

	// PredictionsSkipped counts predictions skipped during a tick.
	PredictionsSkipped = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "sfx_predictions_skipped_total",
		Help: "Predictions skipped during evaluation, by reason",
	}, []string{"reason"})

	// TickDuration tracks how long each scheduled job takes.
	TickDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "sfx_tick_duration_seconds",
		Help:    "Scheduled job tick duration in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"job"})

	// TickFailures counts ticks that ended in an error or panic.
	TickFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "sfx_tick_failures_total",
		Help: "Scheduled job ticks that failed",
	}, []string{"job"})

	// SnapshotsWritten counts leaderboard snapshot rows appended.
	SnapshotsWritten = promauto.NewCounter(prometheus.CounterOpts{
		Name: "sfx_reputation_snapshots_total",
		Help: "Reputation snapshot rows written",
	})

	// ManipulationFlags counts manipulation-scan findings by type.
	ManipulationFlags = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "sfx_manipulation_flags_total",
		Help: "Manipulation scan findings, by type",
	}, []string{"type"})

	// HTTPRequestsTotal counts HTTP requests by method, path, and status.
	HTTPRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "sfx_http_requests_total",
		Help: "Total HTTP requests",
	}, []string{"method", "path", "status"})

	// HTTPRequestDuration tracks request duration by method and path.
	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "sfx_http_request_duration_seconds",
		Help:    "HTTP request duration in seconds",
		Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0},
	}, []string{"method", "path"})
)

// Handler returns the Prometheus metrics HTTP handler.
func Handler() http.Handler {
	return promhttp.Handler()
}

// Middleware returns an HTTP middleware that records request metrics.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		wrapped := &statusWriter{ResponseWriter: w, status: 200}
		next.ServeHTTP(wrapped, r)
		duration := time.Since(start).Seconds()

		path := r.URL.Path
		HTTPRequestsTotal.WithLabelValues(r.Method, path, strconv.Itoa(wrapped.status)).Inc()
		HTTPRequestDuration.WithLabelValues(r.Method, path).Observe(duration)
	})
}

// statusWriter wraps http.ResponseWriter to capture the status code.
type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}
