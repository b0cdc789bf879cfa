package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the relay collectors. Each instance registers on its own
// registerer so tests can use a fresh registry.
type Metrics struct {
	HTTPRequestsTotal *prometheus.CounterVec
	GenerateDuration  *prometheus.HistogramVec
	GenerateErrors    *prometheus.CounterVec
	BreakerState      *prometheus.GaugeVec
	RateLimitedTotal  prometheus.Counter
}

func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		HTTPRequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "voxsearch_http_requests_total",
				Help: "Total number of relay HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		GenerateDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "voxsearch_generate_duration_seconds",
				Help:    "Latency of upstream text generation",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"provider"},
		),
		GenerateErrors: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "voxsearch_generate_errors_total",
				Help: "Failed upstream text generations",
			},
			[]string{"provider"},
		),
		BreakerState: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "voxsearch_breaker_state",
				Help: "Circuit breaker state (0 closed, 1 half-open, 2 open)",
			},
			[]string{"name"},
		),
		RateLimitedTotal: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "voxsearch_rate_limited_total",
				Help: "Requests rejected by the rate limiter",
			},
		),
	}
}

// ObserveBreaker records a breaker state transition.
func (m *Metrics) ObserveBreaker(name string, state int) {
	m.BreakerState.WithLabelValues(name).Set(float64(state))
}
