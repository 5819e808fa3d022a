// Package ask runs the interactive question pipeline: retrieve, synthesize, score.
package ask

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/kailas-cloud/pokerag/internal/domain"
	"github.com/kailas-cloud/pokerag/internal/domain/answer"
	"github.com/kailas-cloud/pokerag/internal/domain/confidence"
	"github.com/kailas-cloud/pokerag/internal/domain/search/mode"
	"github.com/kailas-cloud/pokerag/internal/domain/search/request"
	"github.com/kailas-cloud/pokerag/internal/usecase/search"
)

// Question is a caller's raw input.
type Question struct {
	Text    string
	Filters map[string][]string
	Mode    string
	TopK    int
}

// Response is everything produced for one question.
type Response struct {
	Answer     answer.Answer
	Retrieval  search.Retrieval
	Confidence confidence.Report
	// Warning is non-nil when the hallucination risk exceeds the threshold.
	Warning *confidence.Warning
}

// Service wires the pipeline stages together.
type Service struct {
	limits    request.Limits
	retriever Retriever
	synth     Synthesizer
	scorer    Scorer
	logger    *zap.Logger
}

// New creates an ask service.
func New(limits request.Limits, retriever Retriever, synth Synthesizer, scorer Scorer, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{limits: limits, retriever: retriever, synth: synth, scorer: scorer, logger: logger}
}

// Request validates q into a retrieval request.
func (s *Service) Request(q Question) (request.Request, error) {
	m, ok := mode.Parse(q.Mode)
	if !ok {
		return request.Request{}, fmt.Errorf("%w: unknown mode %q", domain.ErrInvalidRequest, q.Mode)
	}
	filters, err := search.ParseFilters(q.Filters)
	if err != nil {
		return request.Request{}, err
	}
	req, err := s.limits.New(q.Text, m, filters, q.TopK)
	if err != nil {
		return request.Request{}, fmt.Errorf("%w: %v", domain.ErrInvalidRequest, err)
	}
	return req, nil
}

// Retrieve runs retrieval only.
func (s *Service) Retrieve(ctx context.Context, q Question) (search.Retrieval, error) {
	req, err := s.Request(q)
	if err != nil {
		return search.Retrieval{}, err
	}
	return s.retriever.Retrieve(ctx, &req)
}

// Ask answers q. An empty retrieval still reaches the generator, and the
// resulting answer carries maximal risk and a warning.
func (s *Service) Ask(ctx context.Context, q Question) (Response, error) {
	req, err := s.Request(q)
	if err != nil {
		return Response{}, err
	}

	ret, err := s.retriever.Retrieve(ctx, &req)
	if err != nil {
		return Response{}, fmt.Errorf("retrieve: %w", err)
	}

	a, err := s.synth.Synthesize(ctx, req.Query(), req.Mode(), ContextDocs(ret))
	if err != nil {
		return Response{Retrieval: ret}, fmt.Errorf("synthesize: %w", err)
	}

	report, warning := s.scorer.Assess(&a)
	s.logger.Info("question answered",
		zap.String("mode", string(req.Mode())),
		zap.String("outcome", string(ret.Result.Outcome())),
		zap.Int("context_docs", len(a.Context())),
		zap.Float64("risk", report.HallucinationRisk),
		zap.Bool("warning", warning != nil),
	)
	return Response{Answer: a, Retrieval: ret, Confidence: report, Warning: warning}, nil
}

// ContextDocs converts a retrieval into rank-ordered context documents.
func ContextDocs(ret search.Retrieval) []answer.ContextDoc {
	hits := ret.Result.Hits()
	out := make([]answer.ContextDoc, 0, len(ret.Documents))
	for i, d := range ret.Documents {
		cd := answer.ContextDoc{ID: d.ID(), Title: d.Title(), Text: d.Body()}
		if i < len(hits) {
			cd.Score = hits[i].Score()
		}
		out = append(out, cd)
	}
	return out
}
