// Package search implements hybrid retrieval: facet filtering to an
// allow-list followed by cosine ranking inside it.
package search

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/pokerag/internal/domain"
	"github.com/kailas-cloud/pokerag/internal/domain/document"
	"github.com/kailas-cloud/pokerag/internal/domain/search/filter"
	"github.com/kailas-cloud/pokerag/internal/domain/search/request"
	"github.com/kailas-cloud/pokerag/internal/domain/search/result"
	"github.com/kailas-cloud/pokerag/internal/metrics"
)

// Retrieval is a result together with the documents behind its hits, taken
// from the same generation.
type Retrieval struct {
	Result    result.Result
	Documents []document.Document
	// Usage is the embedding token count spent on the query.
	Usage int
}

// Service handles hybrid retrieval against the published generation.
type Service struct {
	indexes      GenerationSource
	embed        domain.SpacedEmbedder
	keywordHints bool
	logger       *zap.Logger
}

// New creates a search service. keywordHints enables facet hints derived from
// the question when no explicit filter is given.
func New(indexes GenerationSource, embed domain.SpacedEmbedder, keywordHints bool, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{indexes: indexes, embed: embed, keywordHints: keywordHints, logger: logger}
}

// Retrieve resolves facet constraints to an allow-list, embeds the query and
// ranks the allowed documents. Constraints that match nothing yield an empty
// result with outcome NoFacetMatch and never fall back to unfiltered search.
func (s *Service) Retrieve(ctx context.Context, req *request.Request) (Retrieval, error) {
	start := time.Now()
	defer func() {
		metrics.RetrievalDuration.WithLabelValues(string(req.Mode())).Observe(time.Since(start).Seconds())
	}()

	gen, err := s.indexes.Current()
	if err != nil {
		return Retrieval{}, fmt.Errorf("resolve index: %w", err)
	}

	filters := req.Filters()
	ids, restricted := gen.Facets.Resolve(filters)

	if filters.IsEmpty() && s.keywordHints {
		if hinted := Hints(req.Query()); !hinted.IsEmpty() {
			// hints are best effort: an empty allow-list degrades to unfiltered search
			if hintedIDs, _ := gen.Facets.Resolve(hinted); len(hintedIDs) > 0 {
				filters, ids, restricted = hinted, hintedIDs, true
			} else {
				s.logger.Debug("keyword hints matched no documents", zap.Any("hints", hinted.Raw()))
			}
		}
	}

	candidates := gen.Len()
	if restricted {
		candidates = len(ids)
	}
	metrics.RetrievalCandidates.Observe(float64(candidates))

	if restricted && len(ids) == 0 {
		return s.finish(result.New(nil, 0, filters, gen.ID), nil, 0), nil
	}

	if space := s.embed.Space(); space != gen.Space {
		return Retrieval{}, domain.NewSpaceMismatch(gen.Space, space)
	}
	emb, err := s.embed.Embed(ctx, req.Query())
	if err != nil {
		return Retrieval{}, fmt.Errorf("vectorize query: %w", err)
	}

	var allowed map[string]struct{}
	if restricted {
		allowed = ids
	}
	hits, err := gen.Vectors.Search(emb.Embedding, req.TopK(), allowed)
	if err != nil {
		return Retrieval{}, fmt.Errorf("search vectors: %w", err)
	}

	docs := make([]document.Document, 0, len(hits))
	for _, h := range hits {
		d, ok := gen.Doc(h.ID())
		if !ok {
			return Retrieval{}, fmt.Errorf("hit %s missing from generation %d: %w", h.ID(), gen.ID, domain.ErrDocumentNotFound)
		}
		docs = append(docs, d)
	}
	return s.finish(result.New(hits, candidates, filters, gen.ID), docs, emb.TotalTokens), nil
}

func (s *Service) finish(res result.Result, docs []document.Document, usage int) Retrieval {
	metrics.RetrievalOutcomesTotal.WithLabelValues(string(res.Outcome())).Inc()
	s.logger.Debug("retrieval completed",
		zap.Uint64("generation", res.Generation()),
		zap.String("outcome", string(res.Outcome())),
		zap.Int("candidates", res.Candidates()),
		zap.Int("hits", len(res.Hits())),
		zap.String("filter_source", string(res.Filters().Source())),
	)
	return Retrieval{Result: res, Documents: docs, Usage: usage}
}

// ParseFilters validates an explicit facet filter map.
func ParseFilters(raw map[string][]string) (filter.Expression, error) {
	return filter.New(raw, filter.SourceExplicit)
}
