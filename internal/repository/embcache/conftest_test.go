package embcache

import (
	"context"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/pokerag/internal/db"
	"github.com/kailas-cloud/pokerag/internal/domain"
)

var testSpace = domain.EmbeddingSpace{Provider: "openai", Model: "text-embedding-3-small", Dimensions: 3}

type mockEmbedder struct {
	result domain.EmbeddingResult
	err    error
	space  domain.EmbeddingSpace
	calls  int
}

func (m *mockEmbedder) Embed(_ context.Context, _ string) (domain.EmbeddingResult, error) {
	m.calls++
	return m.result, m.err
}

func (m *mockEmbedder) Space() domain.EmbeddingSpace { return m.space }

// mockKVStore implements the consumer interface for tests.
type mockKVStore struct {
	getFn        func(ctx context.Context, key string) ([]byte, error)
	setFn        func(ctx context.Context, key string, value []byte) error
	setWithTTLFn func(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

func (m *mockKVStore) Get(ctx context.Context, key string) ([]byte, error) {
	if m.getFn != nil {
		return m.getFn(ctx, key)
	}
	return nil, db.ErrKeyNotFound
}

func (m *mockKVStore) Set(ctx context.Context, key string, value []byte) error {
	if m.setFn != nil {
		return m.setFn(ctx, key, value)
	}
	return nil
}

func (m *mockKVStore) SetWithTTL(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if m.setWithTTLFn != nil {
		return m.setWithTTLFn(ctx, key, value, ttl)
	}
	return nil
}

func newTestCachedEmbedder(t *testing.T, inner *mockEmbedder, ttl time.Duration) (*CachedEmbedder, *mockKVStore) {
	t.Helper()
	if inner.space.IsZero() {
		inner.space = testSpace
	}
	ms := &mockKVStore{}
	ce := New(inner, ms, ttl, nil, zap.NewNop())
	return ce, ms
}
