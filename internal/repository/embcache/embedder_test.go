package embcache

import (
	"context"
	"errors"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"go.uber.org/zap"

	"github.com/kailas-cloud/pokerag/internal/db"
	"github.com/kailas-cloud/pokerag/internal/domain"
)

func TestEmbed_CacheMiss(t *testing.T) {
	inner := &mockEmbedder{result: domain.EmbeddingResult{
		Embedding:    []float32{0.1, 0.2, 0.3},
		PromptTokens: 10,
		TotalTokens:  10,
	}}
	ce, ms := newTestCachedEmbedder(t, inner, 0)
	ctx := context.Background()

	var setKey string
	ms.setFn = func(_ context.Context, key string, _ []byte) error {
		setKey = key
		return nil
	}

	result, err := ce.Embed(ctx, "test text")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(result.Embedding) != 3 || result.Embedding[0] != 0.1 {
		t.Fatalf("unexpected vector: %v", result.Embedding)
	}
	if result.TotalTokens != 10 {
		t.Fatalf("expected TotalTokens=10, got %d", result.TotalTokens)
	}
	if !strings.HasPrefix(setKey, cacheKeyPrefix) {
		t.Fatalf("expected SET with prefixed key, got %q", setKey)
	}
}

func TestEmbed_CacheMissWithTTL(t *testing.T) {
	inner := &mockEmbedder{result: domain.EmbeddingResult{Embedding: []float32{0.1, 0.2, 0.3}}}
	ce, ms := newTestCachedEmbedder(t, inner, time.Hour)

	var gotTTL time.Duration
	ms.setWithTTLFn = func(_ context.Context, _ string, _ []byte, ttl time.Duration) error {
		gotTTL = ttl
		return nil
	}
	ms.setFn = func(_ context.Context, _ string, _ []byte) error {
		t.Error("plain SET must not be used when a ttl is configured")
		return nil
	}

	if _, err := ce.Embed(context.Background(), "x"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if gotTTL != time.Hour {
		t.Errorf("ttl = %v", gotTTL)
	}
}

func TestEmbed_CacheHit(t *testing.T) {
	inner := &mockEmbedder{result: domain.EmbeddingResult{Embedding: []float32{0.1, 0.2, 0.3}}}
	ce, ms := newTestCachedEmbedder(t, inner, 0)

	cached := vectorToCacheBytes([]float32{0.4, 0.5, 0.6})
	ms.getFn = func(_ context.Context, _ string) ([]byte, error) {
		return cached, nil
	}

	result, err := ce.Embed(context.Background(), "test text")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(result.Embedding) != 3 || result.Embedding[0] != 0.4 {
		t.Fatalf("expected cached vector, got: %v", result.Embedding)
	}
	if result.TotalTokens != 0 {
		t.Fatalf("expected TotalTokens=0 on cache hit, got %d", result.TotalTokens)
	}
	if inner.calls != 0 {
		t.Fatalf("expected no inner calls, got %d", inner.calls)
	}
}

func TestEmbed_CachedWrongDimensionsIsMiss(t *testing.T) {
	inner := &mockEmbedder{result: domain.EmbeddingResult{Embedding: []float32{0.1, 0.2, 0.3}}}
	ce, ms := newTestCachedEmbedder(t, inner, 0)

	ms.getFn = func(_ context.Context, _ string) ([]byte, error) {
		return vectorToCacheBytes([]float32{0.4, 0.5}), nil
	}

	result, err := ce.Embed(context.Background(), "test text")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if inner.calls != 1 || result.Embedding[0] != 0.1 {
		t.Fatalf("expected fallback to inner embedder, calls=%d", inner.calls)
	}
}

func TestEmbed_StoreErrorFallsThrough(t *testing.T) {
	inner := &mockEmbedder{result: domain.EmbeddingResult{Embedding: []float32{0.1, 0.2, 0.3}}}
	ce, ms := newTestCachedEmbedder(t, inner, 0)

	ms.getFn = func(_ context.Context, _ string) ([]byte, error) {
		return nil, &db.Error{Op: db.OpGet, Err: errors.New("connection reset")}
	}
	ms.setFn = func(_ context.Context, _ string, _ []byte) error {
		return errors.New("connection reset")
	}

	if _, err := ce.Embed(context.Background(), "x"); err != nil {
		t.Fatalf("cache failures must not fail embedding: %v", err)
	}
}

func TestEmbed_InnerError(t *testing.T) {
	inner := &mockEmbedder{err: domain.ErrProviderUnavailable}
	ce, _ := newTestCachedEmbedder(t, inner, 0)

	_, err := ce.Embed(context.Background(), "test text")
	if !errors.Is(err, domain.ErrProviderUnavailable) {
		t.Fatalf("expected ErrProviderUnavailable, got %v", err)
	}
}

func TestCacheKey_DependsOnSpace(t *testing.T) {
	a, _ := newTestCachedEmbedder(t, &mockEmbedder{}, 0)
	other := testSpace
	other.Model = "text-embedding-3-large"
	b, _ := newTestCachedEmbedder(t, &mockEmbedder{space: other}, 0)

	if a.cacheKey("pikachu") == b.cacheKey("pikachu") {
		t.Fatal("keys of different spaces must differ")
	}
	if a.cacheKey("pikachu") != a.cacheKey("pikachu") {
		t.Fatal("keys must be stable")
	}
	if a.Space() != testSpace {
		t.Errorf("space = %v", a.Space())
	}
}

func TestEmbed_CountsHitsAndMisses(t *testing.T) {
	counter := prometheus.NewCounterVec(prometheus.CounterOpts{Name: "test_cache_total"}, []string{"result"})
	inner := &mockEmbedder{result: domain.EmbeddingResult{Embedding: []float32{0.1, 0.2, 0.3}}, space: testSpace}
	ms := &mockKVStore{}
	ce := New(inner, ms, 0, counter, zap.NewNop())

	_, _ = ce.Embed(context.Background(), "a")
	ms.getFn = func(_ context.Context, _ string) ([]byte, error) {
		return vectorToCacheBytes([]float32{1, 2, 3}), nil
	}
	_, _ = ce.Embed(context.Background(), "a")

	if got := testutil.ToFloat64(counter.WithLabelValues("miss")); got != 1 {
		t.Errorf("miss = %v", got)
	}
	if got := testutil.ToFloat64(counter.WithLabelValues("hit")); got != 1 {
		t.Errorf("hit = %v", got)
	}
}

func TestCacheKey_Layout(t *testing.T) {
	sp := domain.EmbeddingSpace{Provider: "OpenAI", Model: "org:model", Dimensions: 3}
	ce, _ := newTestCachedEmbedder(t, &mockEmbedder{space: sp}, 0)

	key := ce.cacheKey("pikachu")
	want := cacheKeyPrefix + "openai:org_model:3:"
	if !strings.HasPrefix(key, want) {
		t.Fatalf("key = %q, want prefix %q", key, want)
	}
	if len(key) != len(want)+64 {
		t.Errorf("digest length = %d", len(key)-len(want))
	}
}

// blockingEmbedder holds every call until release is closed.
type blockingEmbedder struct {
	calls   atomic.Int32
	started chan struct{}
	release chan struct{}
	once    sync.Once
}

func (b *blockingEmbedder) Embed(_ context.Context, _ string) (domain.EmbeddingResult, error) {
	b.calls.Add(1)
	b.once.Do(func() { close(b.started) })
	<-b.release
	return domain.EmbeddingResult{Embedding: []float32{1, 2, 3}, TotalTokens: 7}, nil
}

func (b *blockingEmbedder) Space() domain.EmbeddingSpace { return testSpace }

// memKV remembers writes so late callers hit the cache.
type memKV struct {
	mu   sync.Mutex
	data map[string][]byte
}

func (m *memKV) Get(_ context.Context, key string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.data[key]
	if !ok {
		return nil, db.ErrKeyNotFound
	}
	return v, nil
}

func (m *memKV) Set(_ context.Context, key string, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = value
	return nil
}

func (m *memKV) SetWithTTL(ctx context.Context, key string, value []byte, _ time.Duration) error {
	return m.Set(ctx, key, value)
}

func TestEmbed_ConcurrentMissesShareOneCall(t *testing.T) {
	inner := &blockingEmbedder{started: make(chan struct{}), release: make(chan struct{})}
	ce := New(inner, &memKV{data: map[string][]byte{}}, 0, nil, zap.NewNop())

	const callers = 4
	results := make([]domain.EmbeddingResult, callers)
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		results[0], _ = ce.Embed(context.Background(), "which pokemon is yellow")
	}()
	<-inner.started
	for i := 1; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], _ = ce.Embed(context.Background(), "which pokemon is yellow")
		}(i)
	}
	time.Sleep(50 * time.Millisecond)
	close(inner.release)
	wg.Wait()

	if n := inner.calls.Load(); n != 1 {
		t.Fatalf("provider calls = %d, want 1", n)
	}
	var tokens int
	for i, r := range results {
		if len(r.Embedding) != 3 {
			t.Errorf("caller %d got %v", i, r.Embedding)
		}
		tokens += r.TotalTokens
	}
	if tokens != 7 {
		t.Errorf("tokens across callers = %d, want 7 (reported once)", tokens)
	}
}
