package metrics

import "github.com/prometheus/client_golang/prometheus"

// Gateway and synthesis Prometheus metrics.
var (
	GenerationRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "arcano",
			Name:      "generation_requests_total",
			Help:      "Total number of generation requests",
		},
		[]string{"model", "category", "status"},
	)

	GenerationRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "arcano",
			Name:      "generation_request_duration_seconds",
			Help:      "Generation request duration in seconds",
			Buckets:   []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		},
		[]string{"model", "category"},
	)

	ResponseCacheTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "arcano",
			Name:      "response_cache_total",
			Help:      "Gateway response cache hits and misses",
		},
		[]string{"result"}, // "hit" / "miss"
	)

	SynthesisRunsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "arcano",
			Name:      "synthesis_runs_total",
			Help:      "Study guide synthesis runs by outcome",
		},
		[]string{"outcome"}, // "ai" / "fallback" / "cached" / "error"
	)
)

var registered bool

// Register registers all metrics with the default registry. Must be called
// once from main.
func Register() {
	if registered {
		return
	}
	prometheus.MustRegister(GenerationRequestsTotal)
	prometheus.MustRegister(GenerationRequestDuration)
	prometheus.MustRegister(ResponseCacheTotal)
	prometheus.MustRegister(SynthesisRunsTotal)
	registered = true
}
