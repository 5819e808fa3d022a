// Package index rebuilds the facet and embedding indexes from the document
// store and publishes them as atomically swapped generations.
package index

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/pokerag/internal/domain"
	"github.com/kailas-cloud/pokerag/internal/domain/batch"
	"github.com/kailas-cloud/pokerag/internal/domain/document"
	"github.com/kailas-cloud/pokerag/internal/metrics"
	"github.com/kailas-cloud/pokerag/internal/repository/facetindex"
	"github.com/kailas-cloud/pokerag/internal/repository/vectorindex"
)

// ProgressFunc is called after each document is processed.
type ProgressFunc func(done, total int)

// BuildReport describes one rebuild attempt.
type BuildReport struct {
	Generation uint64
	Documents  int
	Embedded   int
	Reused     int
	Results    []batch.Result
	Summary    batch.Summary
	Duration   time.Duration
}

// Stats describes the published generation.
type Stats struct {
	Generation uint64
	Documents  int
	Excluded   []string
	Space      domain.EmbeddingSpace
	BuiltAt    time.Time
	Facets     facetindex.Stats
}

// Service owns the current generation. Rebuilds are serialised.
type Service struct {
	store    DocumentStore
	embedder domain.SpacedEmbedder
	logger   *zap.Logger
	now      func() time.Time

	buildMu sync.Mutex
	current atomic.Pointer[Generation]
}

// New creates an index service with no published generation.
func New(store DocumentStore, embedder domain.SpacedEmbedder, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{store: store, embedder: embedder, logger: logger, now: time.Now}
}

// Current returns the published generation or domain.ErrIndexNotReady.
func (s *Service) Current() (*Generation, error) {
	g := s.current.Load()
	if g == nil {
		return nil, domain.ErrIndexNotReady
	}
	return g, nil
}

// Rebuild builds a new generation from the whole store and publishes it.
// On error the previously published generation stays current.
func (s *Service) Rebuild(ctx context.Context, progress ProgressFunc) (BuildReport, error) {
	s.buildMu.Lock()
	defer s.buildMu.Unlock()

	start := s.now()
	report, gen, err := s.build(ctx, progress)
	report.Duration = s.now().Sub(start)

	if err != nil {
		metrics.IndexRebuildDuration.WithLabelValues("error").Observe(report.Duration.Seconds())
		s.logger.Error("index rebuild aborted",
			zap.Int("documents", report.Documents),
			zap.Int("excluded", report.Summary.Excluded),
			zap.Duration("duration", report.Duration),
			zap.Error(err),
		)
		return report, err
	}

	s.current.Store(gen)
	report.Generation = gen.ID

	metrics.IndexRebuildDuration.WithLabelValues("ok").Observe(report.Duration.Seconds())
	metrics.IndexGeneration.Set(float64(gen.ID))
	metrics.IndexDocuments.Set(float64(gen.Len()))
	metrics.IndexExcluded.Set(float64(len(gen.Excluded)))

	s.logger.Info("index generation published",
		zap.Uint64("generation", gen.ID),
		zap.Int("documents", gen.Len()),
		zap.Int("excluded", len(gen.Excluded)),
		zap.Int("embedded", report.Embedded),
		zap.Int("reused", report.Reused),
		zap.Duration("duration", report.Duration),
	)
	return report, nil
}

// RetryExcluded retries documents left out by provider failures. Rebuilds
// are wholesale, so this is a full rebuild.
func (s *Service) RetryExcluded(ctx context.Context) (BuildReport, error) {
	return s.Rebuild(ctx, nil)
}

// Stats summarises the published generation.
func (s *Service) Stats() (Stats, error) {
	g, err := s.Current()
	if err != nil {
		return Stats{}, err
	}
	return Stats{
		Generation: g.ID,
		Documents:  g.Len(),
		Excluded:   g.ExcludedIDs(),
		Space:      g.Space,
		BuiltAt:    g.BuiltAt,
		Facets:     g.Facets.Stats(),
	}, nil
}

func (s *Service) build(ctx context.Context, progress ProgressFunc) (BuildReport, *Generation, error) {
	var report BuildReport

	docs, err := s.store.List(ctx)
	if err != nil {
		return report, nil, fmt.Errorf("list documents: %w", err)
	}
	report.Documents = len(docs)

	space := s.embedder.Space()
	vectors := vectorindex.New(space)
	indexed := make([]document.Document, 0, len(docs))
	byID := make(map[string]document.Document, len(docs))
	var excluded []batch.Result

	for i := range docs {
		if err := ctx.Err(); err != nil {
			return report, nil, fmt.Errorf("rebuild canceled: %w", err)
		}
		doc, reused, err := s.ensureEmbedding(ctx, docs[i], space)
		if err == nil {
			err = vectors.Add(doc.ID(), doc.Vector())
		}

		switch {
		case err == nil:
			report.Results = append(report.Results, batch.NewOK(doc.ID()))
			indexed = append(indexed, doc)
			byID[doc.ID()] = doc
			if reused {
				report.Reused++
			} else {
				report.Embedded++
			}
		case domain.IsRetryable(err), errors.Is(err, domain.ErrInvalidVector):
			r := batch.NewError(docs[i].ID(), err)
			report.Results = append(report.Results, r)
			excluded = append(excluded, r)
			s.logger.Warn("document excluded from index",
				zap.String("id", docs[i].ID()),
				zap.String("status", string(r.Status())),
				zap.Error(err),
			)
		default:
			report.Summary = batch.Summarize(report.Results)
			return report, nil, fmt.Errorf("index document %s: %w", docs[i].ID(), err)
		}

		if progress != nil {
			progress(i+1, len(docs))
		}
	}

	report.Summary = batch.Summarize(report.Results)
	if len(docs) > 0 && len(indexed) == 0 && report.Summary.Excluded > 0 {
		return report, nil, fmt.Errorf("all %d documents excluded: %w", len(docs), domain.ErrProviderUnavailable)
	}

	facets, err := facetindex.Build(indexed)
	if err != nil {
		return report, nil, fmt.Errorf("build facet index: %w", err)
	}

	var next uint64 = 1
	if prev := s.current.Load(); prev != nil {
		next = prev.ID + 1
	}
	return report, &Generation{
		ID:       next,
		Space:    space,
		Facets:   facets,
		Vectors:  vectors,
		BuiltAt:  s.now(),
		Excluded: excluded,
		docs:     byID,
	}, nil
}

// ensureEmbedding reuses a stored vector from the same space or embeds the
// document and writes the vector back to the store.
func (s *Service) ensureEmbedding(
	ctx context.Context, doc document.Document, space domain.EmbeddingSpace,
) (document.Document, bool, error) {
	if doc.HasEmbeddingIn(space) {
		return doc, true, nil
	}

	res, err := s.embedder.Embed(ctx, doc.EmbeddingText())
	if err != nil {
		return doc, false, fmt.Errorf("embed: %w", err)
	}
	embedded, err := doc.WithEmbedding(res.Embedding, space)
	if err != nil {
		return doc, false, err
	}
	if _, err := s.store.Put(ctx, &embedded); err != nil {
		return doc, false, fmt.Errorf("store embedding: %w", err)
	}
	return embedded, false, nil
}
