package main

import (
	"context"
	"fmt"
	"time"

	"go.etcd.io/bbolt"
	"go.uber.org/zap"

	"github.com/kailas-cloud/pokerag/internal/config"
	"github.com/kailas-cloud/pokerag/internal/db"
	dbBolt "github.com/kailas-cloud/pokerag/internal/db/bolt"
	dbRedis "github.com/kailas-cloud/pokerag/internal/db/redis"
	"github.com/kailas-cloud/pokerag/internal/domain"
	"github.com/kailas-cloud/pokerag/internal/domain/search/request"
	"github.com/kailas-cloud/pokerag/internal/metrics"
	documentrepo "github.com/kailas-cloud/pokerag/internal/repository/document"
	"github.com/kailas-cloud/pokerag/internal/repository/embcache"
	"github.com/kailas-cloud/pokerag/internal/resilience"
	geminiTransport "github.com/kailas-cloud/pokerag/internal/transport/gemini"
	openaiTransport "github.com/kailas-cloud/pokerag/internal/transport/openai"
	askuc "github.com/kailas-cloud/pokerag/internal/usecase/ask"
	confidenceuc "github.com/kailas-cloud/pokerag/internal/usecase/confidence"
	embeddinguc "github.com/kailas-cloud/pokerag/internal/usecase/embedding"
	healthuc "github.com/kailas-cloud/pokerag/internal/usecase/health"
	indexuc "github.com/kailas-cloud/pokerag/internal/usecase/index"
	searchuc "github.com/kailas-cloud/pokerag/internal/usecase/search"
	"github.com/kailas-cloud/pokerag/internal/usecase/synthesize"
)

// app is the composition root shared by every command.
type app struct {
	cfg    config.Config
	logger *zap.Logger

	handle *bbolt.DB
	docs   *documentrepo.Repo
	cache  db.Store

	embedder  *embeddinguc.InstrumentedEmbedder
	generator synthesize.Generator

	index  *indexuc.Service
	search *searchuc.Service
	scorer *confidenceuc.Service
	ask    *askuc.Service
	health *healthuc.Service
}

// openStore opens only the document store. Ingest needs nothing else.
func openStore(cfg *config.Config, logger *zap.Logger) (*app, error) {
	handle, err := dbBolt.Open(cfg.Store.Path, time.Duration(cfg.Store.OpenTimeoutSec)*time.Second)
	if err != nil {
		return nil, err
	}
	docs, err := documentrepo.New(handle)
	if err != nil {
		_ = handle.Close()
		return nil, err
	}
	logger.Info("Opened document store", zap.String("path", cfg.Store.Path))
	return &app{cfg: *cfg, logger: logger, handle: handle, docs: docs}, nil
}

// buildApp wires the full pipeline. The index starts unpublished; call rebuild.
func buildApp(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*app, error) {
	metrics.RegisterEmbeddingMetrics()
	metrics.RegisterGenerationMetrics()
	metrics.RegisterPipelineMetrics()

	a, err := openStore(cfg, logger)
	if err != nil {
		return nil, err
	}

	if err := a.openCache(ctx); err != nil {
		a.Close()
		return nil, err
	}

	if err := a.buildProviders(ctx); err != nil {
		a.Close()
		return nil, err
	}

	limits := request.Limits{
		Normal:  cfg.Retrieval.DefaultTopKNormal,
		Engaged: cfg.Retrieval.DefaultTopKEngaged,
		Max:     cfg.Retrieval.MaxTopK,
	}
	synthCfg := synthesize.Config{
		Budget:           synthesize.Budget{Tokens: cfg.Prompt.BudgetTokens, Chars: cfg.Prompt.BudgetChars},
		MaxTokensNormal:  cfg.Generation.MaxTokensNormal,
		MaxTokensEngaged: cfg.Generation.MaxTokensEngaged,
		Temperature:      cfg.Generation.Temperature,
	}

	a.index = indexuc.New(a.docs, a.embedder, logger.Named("index"))
	a.search = searchuc.New(a.index, a.embedder, cfg.Retrieval.KeywordHints, logger.Named("search"))
	a.scorer = confidenceuc.New(cfg.Confidence.RiskThreshold, logger.Named("confidence"))
	a.ask = askuc.New(limits, a.search, synthesize.New(a.generator, synthCfg, logger.Named("synthesize")),
		a.scorer, logger.Named("ask"))

	deps := healthuc.Deps{Store: a.docs, Embedding: a.embedder, Index: a.index}
	// Pass a nil interface, not a typed nil, when no cache is configured.
	if a.cache != nil {
		deps.Cache = a.cache
	}
	if hc, ok := a.generator.(healthuc.ProviderChecker); ok {
		deps.Generation = hc
	}
	a.health = healthuc.New(deps)
	return a, nil
}

func (a *app) openCache(ctx context.Context) error {
	var (
		store db.Store
		err   error
	)
	switch a.cfg.Cache.Driver {
	case config.CacheNone:
		return nil
	case config.CacheBolt:
		store, err = dbBolt.NewStore(a.handle, a.cfg.Cache.Bucket)
	case config.CacheRedis:
		store, err = dbRedis.NewStore(dbRedis.Config{
			Addrs:     a.cfg.Cache.Addrs,
			Password:  a.cfg.Cache.Password,
			KeyPrefix: a.cfg.Cache.KeyPrefix,
		})
	default:
		return fmt.Errorf("unknown cache driver %q", a.cfg.Cache.Driver)
	}
	if err != nil {
		return fmt.Errorf("create embedding cache: %w", err)
	}

	timeout := time.Duration(a.cfg.Cache.ReadinessTimeout) * time.Second
	if err := store.WaitForReady(ctx, timeout); err != nil {
		store.Close()
		return fmt.Errorf("embedding cache not ready: %w", err)
	}
	a.cache = store
	a.logger.Info("Embedding cache ready", zap.String("driver", a.cfg.Cache.Driver))
	return nil
}

func (a *app) buildProviders(ctx context.Context) error {
	embCfg := a.cfg.Embedding
	genCfg := a.cfg.Generation
	embExec := resilience.NewExecutor(a.resiliencePolicy(a.cfg.EmbeddingTimeout()), a.logger.Named("resilience"))
	genExec := resilience.NewExecutor(a.resiliencePolicy(a.cfg.GenerationTimeout()), a.logger.Named("resilience"))

	var raw domain.Embedder
	switch embCfg.Provider {
	case config.ProviderGemini:
		e, err := geminiTransport.NewEmbedder(ctx, &geminiTransport.Config{
			APIKey:     embCfg.APIKey,
			BaseURL:    embCfg.BaseURL,
			Model:      embCfg.Model,
			Dimensions: embCfg.Dimensions,
			Executor:   embExec,
			Logger:     a.logger,
		})
		if err != nil {
			return fmt.Errorf("create gemini embedder: %w", err)
		}
		raw = e
	default:
		raw = openaiTransport.NewEmbedder(&openaiTransport.Config{
			APIKey:     embCfg.APIKey,
			BaseURL:    embCfg.BaseURL,
			Model:      embCfg.Model,
			Dimensions: embCfg.Dimensions,
			Provider:   embCfg.Provider,
			Executor:   embExec,
			Logger:     a.logger,
		})
	}

	space := domain.EmbeddingSpace{Provider: embCfg.Provider, Model: embCfg.Model, Dimensions: embCfg.Dimensions}
	var spaced domain.SpacedEmbedder = domain.NewSpaceEmbedder(raw, space)
	if a.cache != nil {
		spaced = embcache.New(spaced, a.cache, a.cfg.CacheTTL(), metrics.EmbeddingCacheTotal, a.logger)
	}
	a.embedder = embeddinguc.NewInstrumentedEmbedder(spaced, a.logger)

	switch genCfg.Provider {
	case config.ProviderGemini:
		g, err := geminiTransport.NewGenerator(ctx, &geminiTransport.Config{
			APIKey:   genCfg.APIKey,
			BaseURL:  genCfg.BaseURL,
			Model:    genCfg.Model,
			Executor: genExec,
			Logger:   a.logger,
		})
		if err != nil {
			return fmt.Errorf("create gemini generator: %w", err)
		}
		a.generator = g
	default:
		a.generator = openaiTransport.NewGenerator(&openaiTransport.Config{
			APIKey:   genCfg.APIKey,
			BaseURL:  genCfg.BaseURL,
			Model:    genCfg.Model,
			Provider: genCfg.Provider,
			Executor: genExec,
			Logger:   a.logger,
		})
	}

	a.logger.Info("Providers created",
		zap.String("embedding", space.String()),
		zap.String("generation", genCfg.Provider+"/"+genCfg.Model),
	)
	return nil
}

func (a *app) resiliencePolicy(attempt time.Duration) resilience.Config {
	r := a.cfg.Resilience
	p := resilience.DefaultConfig()
	p.RetryMaxAttempts = r.RetryMaxAttempts
	p.RetryInitialBackoff = time.Duration(r.RetryInitialBackoffMS) * time.Millisecond
	p.RetryMaxBackoff = time.Duration(r.RetryMaxBackoffMS) * time.Millisecond
	if r.BreakerEnabled != nil {
		p.BreakerEnabled = *r.BreakerEnabled
	}
	p.BreakerMinRequests = uint32(r.BreakerMinRequests) //nolint:gosec // validated positive
	p.BreakerFailureRatio = r.BreakerFailureRatio
	p.BreakerOpenTimeout = time.Duration(r.BreakerOpenSec) * time.Second
	p.AttemptTimeout = attempt
	p.RateLimitPerSec = r.RateLimitPerSec
	p.RateLimitBurst = r.RateLimitBurst
	return p
}

// rebuild publishes the first generation. Stored embeddings in the current
// space are reused, so only new or re-spaced documents reach the provider.
func (a *app) rebuild(ctx context.Context, progress indexuc.ProgressFunc) (indexuc.BuildReport, error) {
	report, err := a.index.Rebuild(ctx, progress)
	if err != nil {
		return report, fmt.Errorf("rebuild index: %w", err)
	}
	return report, nil
}

// Close releases the cache and the document store.
func (a *app) Close() {
	if a.cache != nil {
		a.cache.Close()
	}
	if a.handle != nil {
		if err := a.handle.Close(); err != nil {
			a.logger.Warn("close document store", zap.Error(err))
		}
	}
}
