package openai

import (
	"context"
	"fmt"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/kailas-cloud/pokerag/internal/domain"
	"github.com/kailas-cloud/pokerag/internal/metrics"
	"github.com/kailas-cloud/pokerag/internal/resilience"
)

// Embedder is an embedding provider using the OpenAI-compatible API.
type Embedder struct {
	client     *openai.Client
	model      openai.EmbeddingModel
	dimensions int
	user       string
	provider   string
	exec       *resilience.Executor
	logger     *zap.Logger
}

// NewEmbedder creates an OpenAI-compatible embedding provider.
func NewEmbedder(cfg *Config) *Embedder {
	return &Embedder{
		client:     newClient(cfg),
		model:      openai.EmbeddingModel(cfg.Model),
		dimensions: cfg.Dimensions,
		user:       cfg.User,
		provider:   cfg.Provider,
		exec:       cfg.Executor,
		logger:     loggerOrNop(cfg.Logger),
	}
}

// Embed implements domain.Embedder. Blank text is rejected before any call.
func (e *Embedder) Embed(ctx context.Context, text string) (domain.EmbeddingResult, error) {
	if strings.TrimSpace(text) == "" {
		return domain.EmbeddingResult{}, fmt.Errorf("embed blank text: %w", domain.ErrInvalidRequest)
	}

	req := openai.EmbeddingRequest{
		Input:          []string{text},
		Model:          e.model,
		EncodingFormat: openai.EmbeddingEncodingFormatFloat,
		User:           e.user,
	}
	if e.dimensions > 0 {
		req.Dimensions = e.dimensions
	}

	var resp openai.EmbeddingResponse
	start := time.Now()
	err := run(ctx, e.exec, e.provider+".embed", func(ctx context.Context) error {
		r, err := e.client.CreateEmbeddings(ctx, req)
		if err != nil {
			return parseAPIError("embedding", err, domain.ErrConfigurationMismatch)
		}
		if len(r.Data) == 0 || len(r.Data[0].Embedding) == 0 {
			return fmt.Errorf("empty embedding response: %w", domain.ErrProviderUnavailable)
		}
		resp = r
		return nil
	})
	e.record(time.Since(start), resp.Usage, err)
	if err != nil {
		return domain.EmbeddingResult{}, err
	}

	return domain.EmbeddingResult{
		Embedding:    resp.Data[0].Embedding,
		PromptTokens: resp.Usage.PromptTokens,
		TotalTokens:  resp.Usage.TotalTokens,
	}, nil
}

func (e *Embedder) record(d time.Duration, usage openai.Usage, err error) {
	model := string(e.model)
	if err != nil {
		metrics.EmbeddingRequestsTotal.WithLabelValues(e.provider, model, "error").Inc()
		metrics.EmbeddingErrorsTotal.WithLabelValues(e.provider, model, errorType(err)).Inc()
		e.logger.Debug("embedding failed",
			zap.String("provider", e.provider),
			zap.Duration("latency", d),
			zap.Error(err),
		)
		return
	}
	metrics.EmbeddingRequestsTotal.WithLabelValues(e.provider, model, "success").Inc()
	metrics.EmbeddingRequestDuration.WithLabelValues(e.provider, model).Observe(d.Seconds())
	if usage.TotalTokens > 0 {
		metrics.EmbeddingTokensTotal.WithLabelValues(e.provider, model, "prompt").Add(float64(usage.PromptTokens))
		metrics.EmbeddingTokensTotal.WithLabelValues(e.provider, model, "total").Add(float64(usage.TotalTokens))
	}
}

// HealthCheck verifies API availability.
func (e *Embedder) HealthCheck(ctx context.Context) error {
	return probe(ctx, e.client)
}
