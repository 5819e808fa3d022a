package pokerag

import (
	"context"
	"fmt"

	"github.com/kailas-cloud/pokerag/internal/domain"
)

// embedderAdapter bridges the public Embedder to the domain contract.
type embedderAdapter struct {
	inner Embedder
}

func (a *embedderAdapter) Embed(ctx context.Context, text string) (domain.EmbeddingResult, error) {
	r, err := a.inner.Embed(ctx, text)
	if err != nil {
		return domain.EmbeddingResult{}, err
	}
	return domain.EmbeddingResult{
		Embedding:    r.Embedding,
		PromptTokens: r.PromptTokens,
		TotalTokens:  r.TotalTokens,
	}, nil
}

// HealthCheck forwards to the inner embedder when it exposes one.
func (a *embedderAdapter) HealthCheck(ctx context.Context) error {
	if hc, ok := a.inner.(interface{ HealthCheck(context.Context) error }); ok {
		return hc.HealthCheck(ctx)
	}
	return nil
}

// generatorAdapter bridges the public Generator to the domain contract.
type generatorAdapter struct {
	inner Generator
}

func (a *generatorAdapter) Generate(ctx context.Context, req domain.GenerationRequest) (domain.GenerationResult, error) {
	r, err := a.inner.Generate(ctx, GenerationRequest{
		Prompt:      req.Prompt,
		MaxTokens:   req.MaxTokens,
		Temperature: req.Temperature,
	})
	if err != nil {
		return domain.GenerationResult{}, err
	}
	return domain.GenerationResult{
		Text:             r.Text,
		PromptTokens:     r.PromptTokens,
		CompletionTokens: r.CompletionTokens,
	}, nil
}

func (a *generatorAdapter) HealthCheck(ctx context.Context) error {
	if hc, ok := a.inner.(interface{ HealthCheck(context.Context) error }); ok {
		return hc.HealthCheck(ctx)
	}
	return nil
}

// noopGenerator fails every call. Used when no Generator is configured.
type noopGenerator struct{}

func (noopGenerator) Generate(_ context.Context, _ domain.GenerationRequest) (domain.GenerationResult, error) {
	return domain.GenerationResult{}, errNoGenerator
}

var errNoGenerator = fmt.Errorf("pokerag: no generator configured (use WithGenerator): %w", domain.ErrProviderUnavailable)
