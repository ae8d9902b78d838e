package metrics

import "github.com/prometheus/client_golang/prometheus"

// Search Prometheus metrics.
var (
	SearchRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "detdex",
			Name:      "search_requests_total",
			Help:      "Total number of search subsystem requests",
		},
		[]string{"operation"},
	)

	SearchErrorsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "detdex",
			Name:      "search_errors_total",
			Help:      "Total search subsystem errors",
		},
		[]string{"operation", "error_type"},
	)

	BackendRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "detdex",
			Name:      "backend_request_duration_seconds",
			Help:      "Search backend call duration in seconds",
			Buckets:   []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2, 5},
		},
		[]string{"operation"},
	)

	ResultCacheTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "detdex",
			Name:      "result_cache_total",
			Help:      "Result cache hits and misses",
		},
		[]string{"result"}, // "hit" / "miss"
	)

	SuggestionLatencyBreachesTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "detdex",
			Name:      "suggestion_latency_breaches_total",
			Help:      "Suggestion calls exceeding the latency budget",
		},
	)

	BreakerState = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: "detdex",
			Name:      "circuit_breaker_open",
			Help:      "Circuit breaker state (0 closed, 1 open)",
		},
		[]string{"breaker"},
	)
)

var searchMetricsRegistered bool

// RegisterSearchMetrics registers Prometheus search metrics. Must be called once from main.
func RegisterSearchMetrics() {
	if searchMetricsRegistered {
		return
	}
	prometheus.MustRegister(SearchRequestsTotal)
	prometheus.MustRegister(SearchErrorsTotal)
	prometheus.MustRegister(BackendRequestDuration)
	prometheus.MustRegister(ResultCacheTotal)
	prometheus.MustRegister(SuggestionLatencyBreachesTotal)
	prometheus.MustRegister(BreakerState)
	searchMetricsRegistered = true
}
