// Package telemetry exposes Prometheus collectors for the metrics engine
// and the HTTP layer.
package telemetry

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Outcomes of a metrics computation.
const (
	OutcomeOK          = "ok"
	OutcomeDegraded    = "degraded"
	OutcomeUnavailable = "unavailable"
	OutcomeInvalid     = "invalid"
)

// Recorder groups the collectors. A nil *Recorder is valid and records
// nothing.
type Recorder struct {
	registry     *prometheus.Registry
	computations *prometheus.CounterVec
	fetchErrors  *prometheus.CounterVec
	duration     prometheus.Histogram
	httpRequests *prometheus.CounterVec
}

// New registers every collector on a fresh registry.
func New() *Recorder {
	reg := prometheus.NewRegistry()
	f := promauto.With(reg)
	return &Recorder{
		registry: reg,
		computations: f.NewCounterVec(prometheus.CounterOpts{
			Name: "taxilog_metrics_computations_total",
			Help: "Metrics computations by outcome",
		}, []string{"outcome"}),
		fetchErrors: f.NewCounterVec(prometheus.CounterOpts{
			Name: "taxilog_record_fetch_errors_total",
			Help: "Record collection fetches that failed and were substituted with an empty set",
		}, []string{"collection"}),
		duration: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "taxilog_metrics_computation_seconds",
			Help:    "Time spent fetching and aggregating one metrics request",
			Buckets: prometheus.DefBuckets,
		}),
		httpRequests: f.NewCounterVec(prometheus.CounterOpts{
			Name: "taxilog_http_requests_total",
			Help: "HTTP requests by path and status",
		}, []string{"path", "status"}),
	}
}

func (r *Recorder) ObserveComputation(outcome string, d time.Duration) {
	if r == nil {
		return
	}
	r.computations.WithLabelValues(outcome).Inc()
	r.duration.Observe(d.Seconds())
}

func (r *Recorder) FetchFailed(collection string) {
	if r == nil {
		return
	}
	r.fetchErrors.WithLabelValues(collection).Inc()
}

func (r *Recorder) ObserveHTTP(path string, status int) {
	if r == nil {
		return
	}
	r.httpRequests.WithLabelValues(path, strconv.Itoa(status)).Inc()
}

// Handler serves the registry in the Prometheus text format.
func (r *Recorder) Handler() http.Handler {
	if r == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{})
}

// Gatherer exposes the registry for tests.
func (r *Recorder) Gatherer() prometheus.Gatherer {
	return r.registry
}
