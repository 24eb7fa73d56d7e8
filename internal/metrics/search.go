package metrics

import "github.com/prometheus/client_golang/prometheus"

// Search pipeline Prometheus metrics.
var (
	SearchRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "ragsearch",
			Name:      "search_requests_total",
			Help:      "Total number of search requests by final method",
		},
		[]string{"method", "status"}, // status: "success" / "error"
	)

	SearchFallbacksTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "ragsearch",
			Name:      "search_fallbacks_total",
			Help:      "Lexical fallbacks by reason",
		},
		[]string{"reason"}, // "embedding" / "vector_search"
	)

	SearchStageDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "ragsearch",
			Name:      "stage_duration_seconds",
			Help:      "Search pipeline stage duration in seconds",
			Buckets:   []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
		[]string{"stage"}, // "embedding" / "vector_search" / "text_search" / "rerank"
	)

	RerankFailuresTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "ragsearch",
			Name:      "rerank_failures_total",
			Help:      "Rerank failures that kept the original candidate order",
		},
		[]string{"reason"}, // "provider" / "invalid_response"
	)
)

var searchMetricsRegistered bool

// RegisterSearchMetrics registers Prometheus search pipeline metrics. Must be called once from main.
func RegisterSearchMetrics() {
	if searchMetricsRegistered {
		return
	}
	prometheus.MustRegister(SearchRequestsTotal)
	prometheus.MustRegister(SearchFallbacksTotal)
	prometheus.MustRegister(SearchStageDuration)
	prometheus.MustRegister(RerankFailuresTotal)
	searchMetricsRegistered = true
}
