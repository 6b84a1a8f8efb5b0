package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	once sync.Once

	EndpointLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "signalist",
			Subsystem: "api",
			Name:      "latency_seconds",
			Help:      "Latency of market data endpoints",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"endpoint"},
	)

	EndpointResults = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "signalist",
			Subsystem: "api",
			Name:      "results_total",
			Help:      "Results by endpoint and status",
		},
		[]string{"endpoint", "status"},
	)

	RateLimited = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "signalist",
			Subsystem: "api",
			Name:      "rate_limited_total",
			Help:      "Requests rejected by the per-client rate limit",
		},
	)
)

func Register() {
	once.Do(func() {
		prometheus.MustRegister(EndpointLatency, EndpointResults, RateLimited)
	})
}
