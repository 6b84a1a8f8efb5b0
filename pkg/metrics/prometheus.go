package metrics

import (
	"github.com/prometheus/client_golang/prometheus"

	"Signalist/internal/domain/models"
)

// Recorder implements domain.repository.Metrics using Prometheus.
type Recorder struct {
	upstreamCalls  *prometheus.CounterVec
	upstreamErrors *prometheus.CounterVec
	latency        *prometheus.HistogramVec
	degraded       *prometheus.CounterVec
}

// New creates a Prometheus metrics recorder registered on the default registry.
func New() *Recorder {
	return NewWithRegisterer(prometheus.DefaultRegisterer)
}

// NewWithRegisterer creates a recorder registered on reg. A nil reg skips registration.
func NewWithRegisterer(reg prometheus.Registerer) *Recorder {
	r := &Recorder{
		upstreamCalls: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "signalist_upstream_calls_total",
				Help: "Total number of provider calls",
			},
			[]string{"endpoint"},
		),
		upstreamErrors: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "signalist_upstream_errors_total",
				Help: "Total number of failed provider calls",
			},
			[]string{"endpoint"},
		),
		latency: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "signalist_upstream_duration_seconds",
				Help:    "Duration of provider calls in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"endpoint"},
		),
		degraded: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "signalist_degraded_results_total",
				Help: "Results returned in degraded state",
			},
			[]string{"operation", "reason"},
		),
	}
	if reg != nil {
		reg.MustRegister(r.upstreamCalls, r.upstreamErrors, r.latency, r.degraded)
	}
	return r
}

// RecordUpstreamCall records one provider call and its latency.
func (r *Recorder) RecordUpstreamCall(endpoint string, seconds float64) {
	r.upstreamCalls.WithLabelValues(endpoint).Inc()
	r.latency.WithLabelValues(endpoint).Observe(seconds)
}

// RecordUpstreamError records a failed provider call.
func (r *Recorder) RecordUpstreamError(endpoint string) {
	r.upstreamErrors.WithLabelValues(endpoint).Inc()
}

// RecordDegraded records a degraded resolver result.
func (r *Recorder) RecordDegraded(operation string, reason models.Reason) {
	r.degraded.WithLabelValues(operation, string(reason)).Inc()
}

// Nop discards all metrics.
type Nop struct{}

func (Nop) RecordUpstreamCall(string, float64)   {}
func (Nop) RecordUpstreamError(string)           {}
func (Nop) RecordDegraded(string, models.Reason) {}
