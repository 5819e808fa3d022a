package evaluate

import (
	"github.com/kailas-cloud/pokerag/internal/domain/answer"
	"github.com/kailas-cloud/pokerag/internal/text"
)

// DefaultRelevanceThreshold is the share of expected-answer content words a
// context document must contain to count as relevant.
const DefaultRelevanceThreshold = 0.3

// Metric names used in summaries.
const (
	MetricF1                = "f1"
	MetricExactMatch        = "exact_match"
	MetricContextPrecision  = "context_precision"
	MetricContextRecall     = "context_recall"
	MetricFaithfulness      = "faithfulness"
	MetricContextOverlap    = "context_overlap"
	MetricHallucinationRisk = "hallucination_risk"
	MetricConfidence        = "overall_confidence"
	MetricAnswerRelevancy   = "answer_relevancy"
	MetricContextMRR        = "context_mrr"
)

// ExactMatch reports normalized equality as 0 or 1.
func ExactMatch(prediction, reference string) float64 {
	if text.ExactMatch(prediction, reference) {
		return 1
	}
	return 0
}

// Relevant reports whether doc covers enough of the expected answer.
func Relevant(doc, expected string, threshold float64) bool {
	want := text.DistinctContentWords(expected)
	if len(want) == 0 {
		return false
	}
	return coverage(want, text.DistinctContentWords(doc)) >= threshold
}

// ContextPrecisionRecall measures the retrieved context against the expected answer.
// Precision is the share of context documents that are relevant. Recall is the
// share of expected-answer content words present anywhere in the context.
func ContextPrecisionRecall(docs []answer.ContextDoc, expected string, threshold float64) (precision, recall float64) {
	if len(docs) == 0 {
		return 0, 0
	}
	relevant := 0
	all := make(map[string]struct{})
	for _, d := range docs {
		if Relevant(d.Text, expected, threshold) {
			relevant++
		}
		for w := range text.DistinctContentWords(d.Text) {
			all[w] = struct{}{}
		}
	}
	precision = float64(relevant) / float64(len(docs))

	want := text.DistinctContentWords(expected)
	if len(want) == 0 {
		return precision, 0
	}
	return precision, coverage(want, all)
}

// ContextMRR is the reciprocal rank of the first relevant context document.
func ContextMRR(docs []answer.ContextDoc, expected string, threshold float64) float64 {
	for i, d := range docs {
		if Relevant(d.Text, expected, threshold) {
			return 1 / float64(i+1)
		}
	}
	return 0
}

// AnswerRelevancy is the token F1 between the answer and the question.
func AnswerRelevancy(answerText, question string) float64 {
	if answerText == "" {
		return 0
	}
	return text.TokenF1(answerText, question)
}

func coverage(want, have map[string]struct{}) float64 {
	hit := 0
	for w := range want {
		if _, ok := have[w]; ok {
			hit++
		}
	}
	return float64(hit) / float64(len(want))
}
