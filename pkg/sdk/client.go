package pokerag

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"go.etcd.io/bbolt"
	"go.uber.org/zap"

	dbBolt "github.com/kailas-cloud/pokerag/internal/db/bolt"
	"github.com/kailas-cloud/pokerag/internal/domain"
	"github.com/kailas-cloud/pokerag/internal/domain/answer"
	"github.com/kailas-cloud/pokerag/internal/domain/confidence"
	"github.com/kailas-cloud/pokerag/internal/domain/search/mode"
	"github.com/kailas-cloud/pokerag/internal/domain/search/request"
	documentrepo "github.com/kailas-cloud/pokerag/internal/repository/document"
	askuc "github.com/kailas-cloud/pokerag/internal/usecase/ask"
	confidenceuc "github.com/kailas-cloud/pokerag/internal/usecase/confidence"
	embeddinguc "github.com/kailas-cloud/pokerag/internal/usecase/embedding"
	healthuc "github.com/kailas-cloud/pokerag/internal/usecase/health"
	indexuc "github.com/kailas-cloud/pokerag/internal/usecase/index"
	ingestuc "github.com/kailas-cloud/pokerag/internal/usecase/ingest"
	searchuc "github.com/kailas-cloud/pokerag/internal/usecase/search"
	"github.com/kailas-cloud/pokerag/internal/usecase/synthesize"
)

const (
	defaultTopKNormal  = 2
	defaultTopKEngaged = 4
	maxTopK            = 10
	defaultRisk        = 0.3
)

// Internal interfaces for substitution in tests.
type ingestUseCase interface {
	Ingest(ctx context.Context, src ingestuc.Source, progress ingestuc.ProgressFunc) (ingestuc.Report, error)
}

type indexUseCase interface {
	Rebuild(ctx context.Context, progress indexuc.ProgressFunc) (indexuc.BuildReport, error)
	Stats() (indexuc.Stats, error)
}

type askUseCase interface {
	Ask(ctx context.Context, q askuc.Question) (askuc.Response, error)
	Retrieve(ctx context.Context, q askuc.Question) (searchuc.Retrieval, error)
}

type scoreUseCase interface {
	Assess(a *answer.Answer) (confidence.Report, *confidence.Warning)
}

// Client is the pokerag SDK entry point. It is safe for concurrent use;
// a Rebuild publishes a new index generation without blocking readers.
type Client struct {
	handle    *bbolt.DB
	ingestSvc ingestUseCase
	indexSvc  indexUseCase
	askSvc    askUseCase
	scoreSvc  scoreUseCase
	healthSvc healthUseCase
	obs       *observer
}

// New opens the document store and wires the pipeline. The index starts
// unpublished: call Rebuild before Ask or Retrieve.
func New(_ context.Context, opts ...Option) (*Client, error) {
	cfg := &clientConfig{
		topKNormal:    defaultTopKNormal,
		topKEngaged:   defaultTopKEngaged,
		budgetTokens:  synthesize.DefaultBudgetTokens,
		riskThreshold: defaultRisk,
	}
	for _, o := range opts {
		o.apply(cfg)
	}

	if cfg.storePath == "" {
		return nil, errors.New("pokerag: store path required (use WithStorePath)")
	}
	if cfg.embedder == nil {
		return nil, errors.New("pokerag: embedder required (use WithEmbedder)")
	}
	if cfg.space.Provider == "" || cfg.space.Model == "" {
		return nil, errors.New("pokerag: embedding space needs provider and model")
	}
	if cfg.riskThreshold <= 0 || cfg.riskThreshold >= 1 {
		cfg.riskThreshold = defaultRisk
	}

	obs, err := newObserver(cfg.logger, cfg.metricsReg)
	if err != nil {
		return nil, err
	}

	handle, err := dbBolt.Open(cfg.storePath, cfg.openTimeout)
	if err != nil {
		return nil, fmt.Errorf("pokerag: %w", err)
	}
	docs, err := documentrepo.New(handle)
	if err != nil {
		_ = handle.Close()
		return nil, fmt.Errorf("pokerag: %w", err)
	}
	return wireClient(handle, docs, cfg, obs), nil
}

func wireClient(handle *bbolt.DB, docs *documentrepo.Repo, cfg *clientConfig, obs *observer) *Client {
	logger := zap.NewNop()

	space := domain.EmbeddingSpace{
		Provider:   cfg.space.Provider,
		Model:      cfg.space.Model,
		Dimensions: cfg.space.Dimensions,
	}
	embedder := embeddinguc.NewInstrumentedEmbedder(
		domain.NewSpaceEmbedder(&embedderAdapter{inner: cfg.embedder}, space), logger)

	var gen synthesize.Generator = noopGenerator{}
	var genHealth healthuc.ProviderChecker
	if cfg.generator != nil {
		ga := &generatorAdapter{inner: cfg.generator}
		gen, genHealth = ga, ga
	}

	limits := request.Limits{Normal: cfg.topKNormal, Engaged: cfg.topKEngaged, Max: maxTopK}
	synthCfg := synthesize.DefaultConfig()
	synthCfg.Budget.Tokens = cfg.budgetTokens

	indexSvc := indexuc.New(docs, embedder, logger)
	searchSvc := searchuc.New(indexSvc, embedder, cfg.keywordHints, logger)
	scoreSvc := confidenceuc.New(cfg.riskThreshold, logger)
	askSvc := askuc.New(limits, searchSvc, synthesize.New(gen, synthCfg, logger), scoreSvc, logger)

	deps := healthuc.Deps{Store: docs, Embedding: embedder, Index: indexSvc}
	if genHealth != nil {
		deps.Generation = genHealth
	}

	return &Client{
		handle:    handle,
		ingestSvc: ingestuc.New(docs, logger),
		indexSvc:  indexSvc,
		askSvc:    askSvc,
		scoreSvc:  scoreSvc,
		healthSvc: healthuc.New(deps),
		obs:       obs,
	}
}

// Close releases the document store.
func (c *Client) Close() error {
	if c.handle == nil {
		return nil
	}
	return c.handle.Close()
}

// Ingest loads raw records into the document store. New documents become
// searchable after the next Rebuild.
func (c *Client) Ingest(ctx context.Context, src Source) (_ IngestReport, err error) {
	start := time.Now()
	defer func() { c.obs.observe("ingest", start, err) }()

	r, err := c.ingestSvc.Ingest(ctx, ingestuc.Source{Records: src.Records, Enrichment: src.Enrichment}, nil)
	if err != nil {
		return IngestReport{}, fmt.Errorf("ingest: %w", err)
	}
	return toIngestReport(&r), nil
}

// Rebuild embeds documents lacking a vector in the configured space and
// publishes a new index generation.
func (c *Client) Rebuild(ctx context.Context) (_ RebuildReport, err error) {
	start := time.Now()
	defer func() { c.obs.observe("rebuild", start, err) }()

	r, err := c.indexSvc.Rebuild(ctx, nil)
	if err != nil {
		return toRebuildReport(&r), fmt.Errorf("rebuild: %w", err)
	}
	return toRebuildReport(&r), nil
}

// Retrieve runs hybrid search without generating an answer.
func (c *Client) Retrieve(ctx context.Context, q Question) (_ Retrieval, err error) {
	start := time.Now()
	defer func() { c.obs.observe("retrieve", start, err) }()

	ret, err := c.askSvc.Retrieve(ctx, q.toInternal())
	if err != nil {
		return Retrieval{}, fmt.Errorf("retrieve: %w", err)
	}
	return toRetrieval(&ret), nil
}

// Ask retrieves context, generates an answer and scores its confidence.
func (c *Client) Ask(ctx context.Context, q Question) (_ Answer, err error) {
	start := time.Now()
	defer func() { c.obs.observe("ask", start, err) }()

	resp, err := c.askSvc.Ask(ctx, q.toInternal())
	if err != nil {
		return Answer{}, fmt.Errorf("ask: %w", err)
	}
	return toAnswer(&resp), nil
}

// Score rates an externally produced answer against the given contexts.
// An empty answer is not an error: it scores as maximal risk with a warning.
func (c *Client) Score(answerText string, contexts []string) (Confidence, *Warning, error) {
	a := answer.New(answerText, contextDocs(contexts), nil, mode.Normal)
	r, w := c.scoreSvc.Assess(&a)
	return toConfidence(r), toWarning(w), nil
}

// Stats describes the published index generation.
func (c *Client) Stats() (Stats, error) {
	s, err := c.indexSvc.Stats()
	if err != nil {
		return Stats{}, fmt.Errorf("stats: %w", err)
	}
	return toStats(&s), nil
}

func contextID(i int) string { return "context-" + strconv.Itoa(i+1) }
