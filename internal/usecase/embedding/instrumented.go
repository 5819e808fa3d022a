// Package embedding holds the outermost embedder decorator used by index
// builds and query retrieval.
package embedding

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/pokerag/internal/domain"
)

// InstrumentedEmbedder wraps a SpacedEmbedder with vector validation and logging.
// Transport metrics (requests, duration, tokens) are recorded in the transports.
type InstrumentedEmbedder struct {
	inner  domain.SpacedEmbedder
	logger *zap.Logger
}

// NewInstrumentedEmbedder wraps an embedder with validation and observability.
func NewInstrumentedEmbedder(inner domain.SpacedEmbedder, logger *zap.Logger) *InstrumentedEmbedder {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &InstrumentedEmbedder{inner: inner, logger: logger}
}

// Space returns the inner embedder's space.
func (p *InstrumentedEmbedder) Space() domain.EmbeddingSpace { return p.inner.Space() }

// Embed delegates to the inner embedder and rejects NaN, Inf or empty vectors.
func (p *InstrumentedEmbedder) Embed(ctx context.Context, text string) (domain.EmbeddingResult, error) {
	space := p.inner.Space()
	start := time.Now()

	result, err := p.inner.Embed(ctx, text)

	duration := time.Since(start)

	if err != nil {
		p.logger.Error("Embedding request failed",
			zap.String("space", space.String()),
			zap.Duration("duration", duration),
			zap.Bool("retryable", domain.IsRetryable(err)),
			zap.Error(err),
		)
		return domain.EmbeddingResult{}, fmt.Errorf("embed: %w", err)
	}
	if err := domain.ValidateVector(result.Embedding); err != nil {
		p.logger.Error("Embedding provider returned an invalid vector",
			zap.String("space", space.String()),
			zap.Error(err),
		)
		return domain.EmbeddingResult{}, fmt.Errorf("embed: %w", err)
	}

	p.logger.Debug("Embedding request completed",
		zap.String("space", space.String()),
		zap.Duration("duration", duration),
		zap.Int("dimensions", len(result.Embedding)),
		zap.Int("prompt_tokens", result.PromptTokens),
		zap.Int("total_tokens", result.TotalTokens),
	)

	return result, nil
}

// HealthCheck delegates to the inner embedder when it supports health checks.
func (p *InstrumentedEmbedder) HealthCheck(ctx context.Context) error {
	if hc, ok := p.inner.(domain.HealthChecker); ok {
		return hc.HealthCheck(ctx)
	}
	return nil
}
