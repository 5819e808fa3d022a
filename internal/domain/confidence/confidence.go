// Package confidence describes how well an answer is grounded in its context.
package confidence

// DefaultRiskThreshold is the hallucination risk above which answers carry a warning.
const DefaultRiskThreshold = 0.3

// Report holds the grounding signals for one answer. All values lie in [0, 1].
// HallucinationRisk is a heuristic score, not a calibrated probability.
type Report struct {
	Faithfulness      float64 `json:"faithfulness"`
	ContextOverlap    float64 `json:"context_overlap"`
	HallucinationRisk float64 `json:"hallucination_risk"`
	OverallConfidence float64 `json:"overall_confidence"`
}

// MaxRisk is the report for an answer nothing can ground.
func MaxRisk(faithfulness, overlap float64) Report {
	return Report{
		Faithfulness:      faithfulness,
		ContextOverlap:    overlap,
		HallucinationRisk: 1,
		OverallConfidence: 0,
	}
}

// Blend combines the two signals by arithmetic mean.
func Blend(faithfulness, overlap float64) Report {
	risk := clamp01(1 - (faithfulness+overlap)/2)
	return Report{
		Faithfulness:      clamp01(faithfulness),
		ContextOverlap:    clamp01(overlap),
		HallucinationRisk: risk,
		OverallConfidence: 1 - risk,
	}
}

// Exceeds reports whether the risk is strictly above threshold.
func (r Report) Exceeds(threshold float64) bool {
	return r.HallucinationRisk > threshold
}

// Warning is surfaced alongside an answer whose risk exceeds the threshold.
type Warning struct {
	Risk      float64 `json:"risk"`
	Threshold float64 `json:"threshold"`
	Message   string  `json:"message"`
}

func clamp01(v float64) float64 {
	switch {
	case v < 0:
		return 0
	case v > 1:
		return 1
	}
	return v
}
