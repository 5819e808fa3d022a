package metrics

import "github.com/prometheus/client_golang/prometheus"

// Generation Prometheus metrics.
var (
	GenerationRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "generation_requests_total",
			Help:      "Total number of text generation requests",
		},
		[]string{"provider", "model", "status"},
	)

	GenerationRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: Namespace,
			Name:      "generation_request_duration_seconds",
			Help:      "Text generation request duration in seconds",
			Buckets:   []float64{0.25, 0.5, 1, 2.5, 5, 10, 20, 40, 80},
		},
		[]string{"provider", "model"},
	)

	GenerationTokensTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "generation_tokens_total",
			Help:      "Total generation tokens consumed",
		},
		[]string{"provider", "model", "type"}, // "prompt" / "completion"
	)

	GenerationErrorsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "generation_errors_total",
			Help:      "Total text generation errors",
		},
		[]string{"provider", "model", "error_type"},
	)
)

var generationGroup = newGroup(
	GenerationRequestsTotal,
	GenerationRequestDuration,
	GenerationTokensTotal,
	GenerationErrorsTotal,
)

// RegisterGenerationMetrics registers the answer generation collectors.
func RegisterGenerationMetrics() { generationGroup.register() }
