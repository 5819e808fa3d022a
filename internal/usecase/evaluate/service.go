// Package evaluate runs test sets through the question pipeline and scores
// the answers against reference answers.
package evaluate

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/kailas-cloud/pokerag/internal/domain/confidence"
	"github.com/kailas-cloud/pokerag/internal/domain/search/mode"
	"github.com/kailas-cloud/pokerag/internal/text"
	"github.com/kailas-cloud/pokerag/internal/usecase/ask"
)

// ProgressFunc is called after each finished case.
type ProgressFunc func(done, total int)

// Options controls an evaluation run.
type Options struct {
	// Workers bounds concurrent cases. Values below 1 mean sequential.
	Workers int
	// Mode overrides the test set mode when set.
	Mode               string
	RiskThreshold      float64
	RelevanceThreshold float64
	// Ragas adds answer relevancy and context MRR per case.
	Ragas bool
}

// Service evaluates test sets.
type Service struct {
	asker  Asker
	sinks  []Sink
	opts   Options
	logger *zap.Logger
	now    func() time.Time
}

// New creates an evaluation service. Reports are handed to every sink in order.
func New(asker Asker, opts Options, logger *zap.Logger, sinks ...Sink) *Service {
	if opts.Workers < 1 {
		opts.Workers = 1
	}
	if opts.RiskThreshold <= 0 || opts.RiskThreshold >= 1 {
		opts.RiskThreshold = confidence.DefaultRiskThreshold
	}
	if opts.RelevanceThreshold <= 0 {
		opts.RelevanceThreshold = DefaultRelevanceThreshold
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{asker: asker, sinks: sinks, opts: opts, logger: logger, now: time.Now}
}

// Run evaluates every case and writes the report to the sinks. A failing case
// is recorded on its result and does not stop the run. Results keep input order.
func (s *Service) Run(ctx context.Context, set *TestSet, progress ProgressFunc) (*Report, error) {
	if set == nil {
		return nil, fmt.Errorf("test set is nil")
	}
	if err := set.Validate(); err != nil {
		return nil, err
	}

	runMode := s.opts.Mode
	if runMode == "" {
		runMode = set.Mode
	}
	if m, ok := mode.Parse(runMode); ok {
		runMode = string(m)
	} else {
		return nil, fmt.Errorf("unknown mode %q", runMode)
	}

	start := s.now()
	results := make([]CaseResult, len(set.Cases))

	var mu sync.Mutex
	done := 0
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.opts.Workers)
	for i, tc := range set.Cases {
		g.Go(func() error {
			results[i] = s.evaluateCase(gctx, tc, runMode)
			if progress != nil {
				mu.Lock()
				done++
				progress(done, len(set.Cases))
				mu.Unlock()
			}
			return nil
		})
	}
	_ = g.Wait()
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("evaluation interrupted: %w", err)
	}

	report := &Report{
		RunID:       uuid.NewString(),
		TestSetName: set.Name,
		Mode:        runMode,
		GeneratedAt: start,
		Duration:    s.now().Sub(start).Seconds(),
		Cases:       results,
	}
	report.Summary = Summarize(results, s.opts.RiskThreshold, s.opts.Ragas)

	s.logger.Info("evaluation completed",
		zap.String("run_id", report.RunID),
		zap.String("test_set", set.Name),
		zap.Int("cases", report.Summary.Cases),
		zap.Int("failed", report.Summary.Failed),
		zap.Int("over_threshold", report.Summary.OverThreshold),
	)

	for _, sink := range s.sinks {
		if err := sink.Write(ctx, report); err != nil {
			return report, fmt.Errorf("write report: %w", err)
		}
	}
	return report, nil
}

func (s *Service) evaluateCase(ctx context.Context, tc Case, runMode string) CaseResult {
	res := CaseResult{
		ID:             tc.ID,
		Question:       tc.Question,
		QuestionType:   tc.QuestionType,
		ExpectedAnswer: tc.ExpectedAnswer,
		Timestamp:      s.now(),
	}

	start := time.Now()
	resp, err := s.asker.Ask(ctx, ask.Question{Text: tc.Question, Filters: tc.Filters, Mode: runMode})
	res.Latency = time.Since(start).Seconds()
	if err != nil {
		res.Error = err.Error()
		res.SearchType = SearchSemantic
		if res.QuestionType == "" {
			res.QuestionType = res.SearchType
		}
		s.logger.Warn("evaluation case failed", zap.String("case", tc.ID), zap.Error(err))
		return res
	}

	filters := resp.Retrieval.Result.Filters()
	res.SearchType = SearchSemantic
	if !filters.IsEmpty() {
		res.SearchType = SearchExact
	}
	if res.QuestionType == "" {
		res.QuestionType = res.SearchType
	}
	res.Outcome = string(resp.Retrieval.Result.Outcome())

	a := resp.Answer
	docs := a.Context()
	res.Answer = a.Text()
	res.ContextIDs = make([]string, len(docs))
	for i, d := range docs {
		res.ContextIDs[i] = d.ID
	}

	res.F1 = text.TokenF1(a.Text(), tc.ExpectedAnswer)
	res.ExactMatch = ExactMatch(a.Text(), tc.ExpectedAnswer)
	res.ContextPrecision, res.ContextRecall = ContextPrecisionRecall(docs, tc.ExpectedAnswer, s.opts.RelevanceThreshold)
	res.Faithfulness = resp.Confidence.Faithfulness
	res.ContextOverlap = resp.Confidence.ContextOverlap
	res.HallucinationRisk = resp.Confidence.HallucinationRisk
	res.OverallConfidence = resp.Confidence.OverallConfidence
	res.OverThreshold = resp.Confidence.Exceeds(s.opts.RiskThreshold)

	if s.opts.Ragas {
		relevancy := AnswerRelevancy(a.Text(), tc.Question)
		mrr := ContextMRR(docs, tc.ExpectedAnswer, s.opts.RelevanceThreshold)
		res.AnswerRelevancy, res.ContextMRR = &relevancy, &mrr
	}
	return res
}
