package domain

import (
	"context"
	"errors"
	"math"
	"testing"
)

type stubEmbedder struct {
	result EmbeddingResult
	err    error
	got    string
}

func (s *stubEmbedder) Embed(_ context.Context, text string) (EmbeddingResult, error) {
	s.got = text
	return s.result, s.err
}

func TestValidateVector(t *testing.T) {
	tests := []struct {
		name    string
		vec     []float32
		wantErr bool
	}{
		{"valid", []float32{0.1, -0.2, 0.3}, false},
		{"empty", nil, true},
		{"nan", []float32{0.1, float32(math.NaN())}, true},
		{"pos inf", []float32{float32(math.Inf(1))}, true},
		{"neg inf", []float32{0, float32(math.Inf(-1))}, true},
		{"zero vector", []float32{0, 0}, false},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := ValidateVector(tc.vec)
			if tc.wantErr && !errors.Is(err, ErrInvalidVector) {
				t.Fatalf("expected ErrInvalidVector, got %v", err)
			}
			if !tc.wantErr && err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
		})
	}
}

func TestSpaceEmbedder_EnforcesDimension(t *testing.T) {
	inner := &stubEmbedder{result: EmbeddingResult{Embedding: []float32{0.1, 0.2}}}
	emb := NewSpaceEmbedder(inner, EmbeddingSpace{Provider: "p", Model: "m", Dimensions: 3})

	_, err := emb.Embed(context.Background(), "hello")
	if !errors.Is(err, ErrConfigurationMismatch) {
		t.Fatalf("expected ErrConfigurationMismatch, got %v", err)
	}
	var dme *DimensionMismatchError
	if !errors.As(err, &dme) {
		t.Fatalf("expected DimensionMismatchError, got %T", err)
	}
	if dme.Expected != 3 || dme.Got != 2 {
		t.Errorf("unexpected dims: %+v", dme)
	}
}

func TestSpaceEmbedder_PassesThrough(t *testing.T) {
	inner := &stubEmbedder{result: EmbeddingResult{Embedding: []float32{1, 0, 0}, TotalTokens: 4}}
	space := EmbeddingSpace{Provider: "p", Model: "m", Dimensions: 3}
	emb := NewSpaceEmbedder(inner, space)

	res, err := emb.Embed(context.Background(), "hello")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if inner.got != "hello" {
		t.Errorf("expected text forwarded, got %q", inner.got)
	}
	if res.TotalTokens != 4 {
		t.Errorf("expected 4 tokens, got %d", res.TotalTokens)
	}
	if emb.Space() != space {
		t.Errorf("unexpected space %v", emb.Space())
	}
}

func TestSpaceEmbedder_ErrorPropagation(t *testing.T) {
	inner := &stubEmbedder{err: ErrProviderUnavailable}
	emb := NewSpaceEmbedder(inner, EmbeddingSpace{Dimensions: 3})

	_, err := emb.Embed(context.Background(), "hello")
	if !errors.Is(err, ErrProviderUnavailable) {
		t.Fatalf("expected ErrProviderUnavailable, got %v", err)
	}
}

func TestErrors_Taxonomy(t *testing.T) {
	if !errors.Is(ErrInvalidFacetConstraint, ErrConfigurationMismatch) {
		t.Error("facet constraint errors must be configuration mismatches")
	}
	if !IsRetryable(ErrProviderTimeout) || !IsRetryable(ErrProviderUnavailable) {
		t.Error("provider failures must be retryable")
	}
	if IsRetryable(ErrConfigurationMismatch) || IsRetryable(ErrGenerationFailure) {
		t.Error("mismatch and generation failures must not be retryable")
	}

	a := EmbeddingSpace{Provider: "openai", Model: "a", Dimensions: 3}
	b := EmbeddingSpace{Provider: "gemini", Model: "b", Dimensions: 3}
	err := NewSpaceMismatch(a, b)
	if !errors.Is(err, ErrConfigurationMismatch) {
		t.Errorf("space mismatch must unwrap to ErrConfigurationMismatch")
	}
}
