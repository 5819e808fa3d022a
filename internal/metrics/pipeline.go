package metrics

import "github.com/prometheus/client_golang/prometheus"

// Retrieval, confidence and index metrics.
var (
	RetrievalDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: Namespace,
			Name:      "retrieval_duration_seconds",
			Help:      "Hybrid retrieval duration in seconds",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		},
		[]string{"mode"},
	)

	RetrievalOutcomesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "retrieval_outcomes_total",
			Help:      "Retrievals by outcome",
		},
		[]string{"outcome"}, // matched / no_facet_match / no_semantic_match
	)

	RetrievalCandidates = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: Namespace,
			Name:      "retrieval_candidates",
			Help:      "Size of the facet allow-list handed to vector search",
			Buckets:   prometheus.ExponentialBuckets(1, 4, 7),
		},
	)

	HallucinationRisk = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: Namespace,
			Name:      "hallucination_risk",
			Help:      "Hallucination risk of scored answers",
			Buckets:   prometheus.LinearBuckets(0.1, 0.1, 10),
		},
	)

	ConfidenceWarningsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "confidence_warnings_total",
			Help:      "Answers whose hallucination risk exceeded the threshold",
		},
	)

	IndexGeneration = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: Namespace,
			Name:      "index_generation",
			Help:      "Currently published index generation",
		},
	)

	IndexDocuments = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: Namespace,
			Name:      "index_documents",
			Help:      "Documents in the published index generation",
		},
	)

	IndexExcluded = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: Namespace,
			Name:      "index_excluded_documents",
			Help:      "Documents excluded from the published generation by provider failures",
		},
	)

	IndexRebuildDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: Namespace,
			Name:      "index_rebuild_duration_seconds",
			Help:      "Index rebuild duration in seconds",
			Buckets:   []float64{0.1, 0.5, 1, 5, 15, 60, 300, 900},
		},
		[]string{"status"},
	)
)

var pipelineGroup = newGroup(
	RetrievalDuration,
	RetrievalOutcomesTotal,
	RetrievalCandidates,
	HallucinationRisk,
	ConfidenceWarningsTotal,
	IndexGeneration,
	IndexDocuments,
	IndexExcluded,
	IndexRebuildDuration,
)

// RegisterPipelineMetrics registers retrieval, confidence and index collectors.
func RegisterPipelineMetrics() { pipelineGroup.register() }
