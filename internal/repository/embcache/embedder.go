// Package embcache decorates an embedder with a key-value cache. Index
// rebuilds in a new space and repeated eval questions are served from it
// instead of the provider.
package embcache

import (
	"context"
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/kailas-cloud/pokerag/internal/db"
	"github.com/kailas-cloud/pokerag/internal/domain"
)

// cacheKeyPrefix versions the key layout:
// emb:v1:<provider>:<model>:<dims>:<sha256(text)>.
const cacheKeyPrefix = "emb:v1:"

// store is the consumer interface for the embedding cache (ISP).
type store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	SetWithTTL(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

// CachedEmbedder caches embeddings per space and text. Concurrent misses
// for the same key share one provider call.
type CachedEmbedder struct {
	inner      domain.SpacedEmbedder
	store      store
	ttl        time.Duration
	cacheTotal *prometheus.CounterVec
	logger     *zap.Logger

	spaceKey string
	flight   singleflight.Group
}

// Compile-time check: CachedEmbedder keeps the space of the embedder it wraps.
var _ domain.SpacedEmbedder = (*CachedEmbedder)(nil)

// New creates a caching decorator. A zero ttl stores entries without expiry.
// cacheTotal takes label "result": hit, miss or shared. It may be nil.
func New(
	inner domain.SpacedEmbedder,
	s store,
	ttl time.Duration,
	cacheTotal *prometheus.CounterVec,
	logger *zap.Logger,
) *CachedEmbedder {
	if logger == nil {
		logger = zap.NewNop()
	}
	sp := inner.Space()
	return &CachedEmbedder{
		inner:      inner,
		store:      s,
		ttl:        ttl,
		cacheTotal: cacheTotal,
		logger:     logger,
		spaceKey:   keyPart(sp.Provider) + ":" + keyPart(sp.Model) + ":" + strconv.Itoa(sp.Dimensions),
	}
}

// Space returns the space of the wrapped embedder.
func (c *CachedEmbedder) Space() domain.EmbeddingSpace { return c.inner.Space() }

// HealthCheck delegates to the wrapped embedder when it supports health checks.
func (c *CachedEmbedder) HealthCheck(ctx context.Context) error {
	if hc, ok := c.inner.(domain.HealthChecker); ok {
		return hc.HealthCheck(ctx)
	}
	return nil
}

// Embed returns a cached embedding or calls the inner embedder. Hits and
// callers that joined another caller's provider request report zero tokens.
// A joined call fails if the leading caller's context is cancelled.
func (c *CachedEmbedder) Embed(ctx context.Context, text string) (domain.EmbeddingResult, error) {
	key := c.cacheKey(text)

	if vec, ok := c.getFromCache(ctx, key); ok {
		c.incCache("hit")
		return domain.EmbeddingResult{Embedding: vec}, nil
	}

	led := false
	v, err, _ := c.flight.Do(key, func() (any, error) {
		led = true
		res, err := c.inner.Embed(ctx, text)
		if err != nil {
			return domain.EmbeddingResult{}, err
		}
		c.putToCache(ctx, key, res.Embedding)
		return res, nil
	})
	if err != nil {
		c.incCache("miss")
		return domain.EmbeddingResult{}, fmt.Errorf("embed text: %w", err)
	}

	res := v.(domain.EmbeddingResult) //nolint:forcetypeassert // only EmbeddingResult is stored
	if !led {
		c.incCache("shared")
		return domain.EmbeddingResult{Embedding: res.Embedding}, nil
	}
	c.incCache("miss")
	return res, nil
}

func (c *CachedEmbedder) incCache(result string) {
	if c.cacheTotal != nil {
		c.cacheTotal.WithLabelValues(result).Inc()
	}
}

func (c *CachedEmbedder) cacheKey(text string) string {
	sum := sha256.Sum256([]byte(text))
	return cacheKeyPrefix + c.spaceKey + ":" + hex.EncodeToString(sum[:])
}

// keyPart keeps key segments free of the ':' separator.
func keyPart(s string) string {
	return strings.ReplaceAll(strings.ToLower(s), ":", "_")
}

func (c *CachedEmbedder) getFromCache(ctx context.Context, key string) ([]float32, bool) {
	data, err := c.store.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, db.ErrKeyNotFound) {
			c.logger.Warn("Failed to get cached embedding", zap.String("key", key), zap.Error(err))
		}
		return nil, false
	}
	if len(data) == 0 {
		return nil, false
	}

	vec, err := bytesToVector(data)
	if err == nil {
		if dims := c.inner.Space().Dimensions; dims > 0 && len(vec) != dims {
			err = domain.NewDimensionMismatch(dims, len(vec))
		}
	}
	if err != nil {
		c.logger.Warn("Failed to parse cached embedding", zap.String("key", key), zap.Error(err))
		return nil, false
	}

	return vec, true
}

func (c *CachedEmbedder) putToCache(ctx context.Context, key string, vec []float32) {
	data := vectorToCacheBytes(vec)
	var err error
	if c.ttl > 0 {
		err = c.store.SetWithTTL(ctx, key, data, c.ttl)
	} else {
		err = c.store.Set(ctx, key, data)
	}
	if err != nil {
		c.logger.Warn("Failed to cache embedding", zap.String("key", key), zap.Error(err))
	}
}

func vectorToCacheBytes(v []float32) []byte {
	buf := make([]byte, len(v)*4)
	for i, f := range v {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
	return buf
}

func bytesToVector(data []byte) ([]float32, error) {
	if len(data)%4 != 0 {
		return nil, fmt.Errorf("invalid embedding cache data: len=%d (not multiple of 4)", len(data))
	}
	vec := make([]float32, len(data)/4)
	for i := range vec {
		vec[i] = math.Float32frombits(binary.LittleEndian.Uint32(data[i*4:]))
	}
	return vec, nil
}
