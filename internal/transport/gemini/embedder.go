package gemini

import (
	"context"
	"fmt"
	"math"
	"time"

	"go.uber.org/zap"
	"google.golang.org/genai"

	"github.com/kailas-cloud/pokerag/internal/domain"
	"github.com/kailas-cloud/pokerag/internal/metrics"
	"github.com/kailas-cloud/pokerag/internal/resilience"
)

// Embedder calls Models.EmbedContent.
type Embedder struct {
	client     *genai.Client
	model      string
	dimensions int
	exec       *resilience.Executor
	logger     *zap.Logger
}

// NewEmbedder creates a Gemini embedding provider.
func NewEmbedder(ctx context.Context, cfg *Config) (*Embedder, error) {
	client, err := newClient(ctx, cfg)
	if err != nil {
		return nil, err
	}
	return &Embedder{
		client:     client,
		model:      cfg.Model,
		dimensions: cfg.Dimensions,
		exec:       cfg.Executor,
		logger:     loggerOrNop(cfg.Logger),
	}, nil
}

// Embed implements domain.Embedder. The Gemini API reports no token usage for embeddings.
func (e *Embedder) Embed(ctx context.Context, text string) (domain.EmbeddingResult, error) {
	var ecfg *genai.EmbedContentConfig
	if e.dimensions > 0 && e.dimensions <= math.MaxInt32 {
		dims := int32(e.dimensions) // #nosec G115 -- bounded above
		ecfg = &genai.EmbedContentConfig{OutputDimensionality: &dims}
	}

	var vec []float32
	start := time.Now()
	err := run(ctx, e.exec, providerName+".embed", func(ctx context.Context) error {
		resp, err := e.client.Models.EmbedContent(ctx, e.model, genai.Text(text), ecfg)
		if err != nil {
			return mapError("embedding", err, domain.ErrConfigurationMismatch)
		}
		if resp == nil || len(resp.Embeddings) == 0 || resp.Embeddings[0] == nil {
			return fmt.Errorf("empty embedding response: %w", domain.ErrProviderUnavailable)
		}
		vec = resp.Embeddings[0].Values
		return nil
	})
	duration := time.Since(start)

	if err != nil {
		metrics.EmbeddingRequestsTotal.WithLabelValues(providerName, e.model, "error").Inc()
		metrics.EmbeddingErrorsTotal.WithLabelValues(providerName, e.model, errorType(err)).Inc()
		e.logger.Debug("embedding failed", zap.String("provider", providerName), zap.Error(err))
		return domain.EmbeddingResult{}, err
	}

	metrics.EmbeddingRequestsTotal.WithLabelValues(providerName, e.model, "success").Inc()
	metrics.EmbeddingRequestDuration.WithLabelValues(providerName, e.model).Observe(duration.Seconds())
	return domain.EmbeddingResult{Embedding: vec}, nil
}
