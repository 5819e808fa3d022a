package embedding

import (
	"context"
	"errors"
	"math"
	"testing"

	"go.uber.org/zap"

	"github.com/kailas-cloud/pokerag/internal/domain"
)

var testSpace = domain.EmbeddingSpace{Provider: "test", Model: "test-model", Dimensions: 3}

type mockEmbedder struct {
	result    domain.EmbeddingResult
	err       error
	healthErr error
}

func (m *mockEmbedder) Space() domain.EmbeddingSpace { return testSpace }

func (m *mockEmbedder) Embed(_ context.Context, _ string) (domain.EmbeddingResult, error) {
	return m.result, m.err
}

func (m *mockEmbedder) HealthCheck(_ context.Context) error { return m.healthErr }

type plainMockEmbedder struct{}

func (plainMockEmbedder) Space() domain.EmbeddingSpace { return testSpace }

func (plainMockEmbedder) Embed(_ context.Context, _ string) (domain.EmbeddingResult, error) {
	return domain.EmbeddingResult{Embedding: []float32{1, 0, 0}}, nil
}

func TestInstrumentedEmbedder_Success(t *testing.T) {
	inner := &mockEmbedder{result: domain.EmbeddingResult{
		Embedding: []float32{0.1, 0.2, 0.3},
	}}
	p := NewInstrumentedEmbedder(inner, zap.NewNop())

	result, err := p.Embed(context.Background(), "hello")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(result.Embedding) != 3 {
		t.Errorf("expected 3 dims, got %d", len(result.Embedding))
	}
	if p.Space() != testSpace {
		t.Errorf("expected space %s, got %s", testSpace, p.Space())
	}
}

func TestInstrumentedEmbedder_WithUsage(t *testing.T) {
	inner := &mockEmbedder{result: domain.EmbeddingResult{
		Embedding:    []float32{0.1, 0.2, 0.3},
		PromptTokens: 5,
		TotalTokens:  5,
	}}
	p := NewInstrumentedEmbedder(inner, nil)

	result, err := p.Embed(context.Background(), "hello")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.PromptTokens != 5 || result.TotalTokens != 5 {
		t.Errorf("expected usage 5/5, got %d/%d", result.PromptTokens, result.TotalTokens)
	}
}

func TestInstrumentedEmbedder_Error(t *testing.T) {
	inner := &mockEmbedder{err: domain.ErrProviderUnavailable}
	p := NewInstrumentedEmbedder(inner, zap.NewNop())

	_, err := p.Embed(context.Background(), "hello")
	if !errors.Is(err, domain.ErrProviderUnavailable) {
		t.Fatalf("expected ErrProviderUnavailable, got %v", err)
	}
}

func TestInstrumentedEmbedder_RejectsInvalidVectors(t *testing.T) {
	nan := float32(math.NaN())
	for name, v := range map[string][]float32{
		"empty": nil,
		"nan":   {0.1, nan, 0.3},
		"inf":   {float32(math.Inf(1)), 0, 0},
	} {
		t.Run(name, func(t *testing.T) {
			p := NewInstrumentedEmbedder(&mockEmbedder{result: domain.EmbeddingResult{Embedding: v}}, nil)
			_, err := p.Embed(context.Background(), "hello")
			if !errors.Is(err, domain.ErrInvalidVector) {
				t.Fatalf("expected ErrInvalidVector, got %v", err)
			}
		})
	}
}

func TestInstrumentedEmbedder_HealthCheck(t *testing.T) {
	down := errors.New("down")
	p := NewInstrumentedEmbedder(&mockEmbedder{healthErr: down}, nil)
	if err := p.HealthCheck(context.Background()); !errors.Is(err, down) {
		t.Errorf("expected delegated error, got %v", err)
	}

	plain := NewInstrumentedEmbedder(plainMockEmbedder{}, nil)
	if err := plain.HealthCheck(context.Background()); err != nil {
		t.Errorf("embedder without health check should report ok, got %v", err)
	}
}
