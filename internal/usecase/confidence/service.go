// Package confidence scores how well a generated answer is grounded in the
// context it was produced from.
package confidence

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/kailas-cloud/pokerag/internal/domain/answer"
	"github.com/kailas-cloud/pokerag/internal/domain/confidence"
	"github.com/kailas-cloud/pokerag/internal/metrics"
	"github.com/kailas-cloud/pokerag/internal/text"
)

// Service computes confidence reports and threshold warnings.
type Service struct {
	threshold float64
	logger    *zap.Logger
}

// New creates a scorer. A threshold outside (0, 1) selects the default.
func New(threshold float64, logger *zap.Logger) *Service {
	if threshold <= 0 || threshold >= 1 {
		threshold = confidence.DefaultRiskThreshold
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{threshold: threshold, logger: logger}
}

// Threshold returns the configured risk threshold.
func (s *Service) Threshold() float64 { return s.threshold }

// Score computes the report for a, using only its text and its own context.
func (s *Service) Score(a *answer.Answer) confidence.Report {
	return Score(a.Text(), a.ContextText())
}

// Assess scores a and returns a warning when the risk exceeds the threshold.
func (s *Service) Assess(a *answer.Answer) (confidence.Report, *confidence.Warning) {
	r := s.Score(a)
	metrics.HallucinationRisk.Observe(r.HallucinationRisk)
	if !r.Exceeds(s.threshold) {
		return r, nil
	}

	metrics.ConfidenceWarningsTotal.Inc()
	s.logger.Warn("hallucination risk above threshold",
		zap.Float64("risk", r.HallucinationRisk),
		zap.Float64("threshold", s.threshold),
		zap.Float64("faithfulness", r.Faithfulness),
		zap.Float64("context_overlap", r.ContextOverlap),
		zap.Int("context_docs", len(a.Context())),
	)
	return r, &confidence.Warning{
		Risk:      r.HallucinationRisk,
		Threshold: s.threshold,
		Message: fmt.Sprintf("hallucination risk %.0f%% exceeds the %.0f%% threshold; verify this answer against the sources",
			r.HallucinationRisk*100, s.threshold*100),
	}
}

// Score computes the report for answerText against contextText.
// An empty answer or an empty context yields maximal risk.
func Score(answerText, contextText string) confidence.Report {
	answerWords := text.Words(answerText)
	if len(answerWords) == 0 {
		return confidence.MaxRisk(0, 0)
	}
	contextWords := text.Words(contextText)
	if len(contextWords) == 0 {
		return confidence.MaxRisk(0, 0)
	}
	return confidence.Blend(Faithfulness(answerWords, contextWords), Overlap(answerText, contextText))
}

// Overlap is the fraction of distinct answer content words found in the context.
func Overlap(answerText, contextText string) float64 {
	words := text.DistinctContentWords(answerText)
	if len(words) == 0 {
		return 0
	}
	ctx := text.DistinctContentWords(contextText)
	grounded := 0
	for w := range words {
		if _, ok := ctx[w]; ok {
			grounded++
		}
	}
	return float64(grounded) / float64(len(words))
}

// Faithfulness is the longest common token subsequence of answer and context
// relative to the answer length.
func Faithfulness(answerWords, contextWords []string) float64 {
	if len(answerWords) == 0 {
		return 0
	}
	return float64(text.LCSLength(answerWords, contextWords)) / float64(len(answerWords))
}
