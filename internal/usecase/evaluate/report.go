package evaluate

import "time"

// Search types recorded per case.
const (
	SearchExact    = "exact"
	SearchSemantic = "semantic"
)

// Report captures one evaluation run.
type Report struct {
	RunID       string       `json:"run_id"`
	TestSetName string       `json:"test_set_name"`
	Mode        string       `json:"mode"`
	GeneratedAt time.Time    `json:"generated_at"`
	Duration    float64      `json:"duration_seconds"`
	Summary     Summary      `json:"summary"`
	Cases       []CaseResult `json:"cases"`
}

// CaseResult holds the pipeline output and metrics for one case.
type CaseResult struct {
	ID             string   `json:"id"`
	Question       string   `json:"question"`
	QuestionType   string   `json:"question_type"`
	SearchType     string   `json:"search_type"`
	ExpectedAnswer string   `json:"expected_answer"`
	Answer         string   `json:"answer"`
	Outcome        string   `json:"outcome,omitempty"`
	ContextIDs     []string `json:"context_ids"`

	F1                float64 `json:"f1"`
	ExactMatch        float64 `json:"exact_match"`
	ContextPrecision  float64 `json:"context_precision"`
	ContextRecall     float64 `json:"context_recall"`
	Faithfulness      float64 `json:"faithfulness"`
	ContextOverlap    float64 `json:"context_overlap"`
	HallucinationRisk float64 `json:"hallucination_risk"`
	OverallConfidence float64 `json:"overall_confidence"`

	AnswerRelevancy *float64 `json:"answer_relevancy,omitempty"`
	ContextMRR      *float64 `json:"context_mrr,omitempty"`

	OverThreshold bool      `json:"over_threshold"`
	Latency       float64   `json:"latency_seconds"`
	Timestamp     time.Time `json:"timestamp"`
	Error         string    `json:"error,omitempty"`
}

// Failed reports whether the pipeline errored on this case.
func (c *CaseResult) Failed() bool { return c.Error != "" }

// Metric returns a named metric value; ok is false when the case lacks it.
func (c *CaseResult) Metric(name string) (float64, bool) {
	switch name {
	case MetricF1:
		return c.F1, true
	case MetricExactMatch:
		return c.ExactMatch, true
	case MetricContextPrecision:
		return c.ContextPrecision, true
	case MetricContextRecall:
		return c.ContextRecall, true
	case MetricFaithfulness:
		return c.Faithfulness, true
	case MetricContextOverlap:
		return c.ContextOverlap, true
	case MetricHallucinationRisk:
		return c.HallucinationRisk, true
	case MetricConfidence:
		return c.OverallConfidence, true
	case MetricAnswerRelevancy:
		if c.AnswerRelevancy != nil {
			return *c.AnswerRelevancy, true
		}
	case MetricContextMRR:
		if c.ContextMRR != nil {
			return *c.ContextMRR, true
		}
	}
	return 0, false
}
