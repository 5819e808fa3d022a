package domain

import (
	"context"
	"fmt"
	"math"
)

// Embedder is the shared text vectorization contract between layers.
type Embedder interface {
	Embed(ctx context.Context, text string) (EmbeddingResult, error)
}

// SpacedEmbedder reports the embedding space its vectors live in.
type SpacedEmbedder interface {
	Embedder
	Space() EmbeddingSpace
}

// HealthChecker verifies provider availability.
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

// EmbeddingResult carries the embedding vector and token usage through the decorator chain.
type EmbeddingResult struct {
	Embedding    []float32
	PromptTokens int
	TotalTokens  int
}

// EmbeddingSpace identifies the provider/model/dimension triple that produced a vector.
// Vectors from different spaces are not comparable.
type EmbeddingSpace struct {
	Provider   string `json:"provider"`
	Model      string `json:"model"`
	Dimensions int    `json:"dimensions"`
}

func (s EmbeddingSpace) String() string {
	return fmt.Sprintf("%s/%s@%d", s.Provider, s.Model, s.Dimensions)
}

// IsZero reports whether the space is unset.
func (s EmbeddingSpace) IsZero() bool { return s == EmbeddingSpace{} }

// ValidateVector rejects empty vectors and vectors with NaN or Inf components.
func ValidateVector(v []float32) error {
	if len(v) == 0 {
		return fmt.Errorf("empty vector: %w", ErrInvalidVector)
	}
	for i, f := range v {
		x := float64(f)
		if math.IsNaN(x) || math.IsInf(x, 0) {
			return fmt.Errorf("component %d is %v: %w", i, f, ErrInvalidVector)
		}
	}
	return nil
}

// SpaceEmbedder pins a plain Embedder to a declared space.
type SpaceEmbedder struct {
	inner Embedder
	space EmbeddingSpace
}

// NewSpaceEmbedder wraps inner with a fixed embedding space.
func NewSpaceEmbedder(inner Embedder, space EmbeddingSpace) *SpaceEmbedder {
	return &SpaceEmbedder{inner: inner, space: space}
}

// Embed delegates to the inner embedder and enforces the declared dimension.
func (e *SpaceEmbedder) Embed(ctx context.Context, text string) (EmbeddingResult, error) {
	res, err := e.inner.Embed(ctx, text)
	if err != nil {
		return EmbeddingResult{}, err
	}
	if e.space.Dimensions > 0 && len(res.Embedding) != e.space.Dimensions {
		return EmbeddingResult{}, NewDimensionMismatch(e.space.Dimensions, len(res.Embedding))
	}
	return res, nil
}

// Space returns the declared embedding space.
func (e *SpaceEmbedder) Space() EmbeddingSpace { return e.space }

// HealthCheck delegates to the inner embedder when it supports health checks.
func (e *SpaceEmbedder) HealthCheck(ctx context.Context) error {
	if hc, ok := e.inner.(HealthChecker); ok {
		return hc.HealthCheck(ctx)
	}
	return nil
}
