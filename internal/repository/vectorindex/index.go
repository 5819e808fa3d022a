// Package vectorindex holds document embeddings and answers brute-force
// cosine nearest-neighbour queries restricted to an allow-list.
package vectorindex

import (
	"fmt"
	"math"
	"sort"

	"github.com/kailas-cloud/pokerag/internal/domain"
	"github.com/kailas-cloud/pokerag/internal/domain/search/result"
)

// Index stores one unit-normalised vector per document id.
// Add is not safe for concurrent use; once built, Search is.
type Index struct {
	space domain.EmbeddingSpace
	ids   []string
	vecs  [][]float32
	pos   map[string]int
}

// New creates an empty index for the given embedding space.
func New(space domain.EmbeddingSpace) *Index {
	return &Index{space: space, pos: make(map[string]int)}
}

// Space returns the embedding space every stored vector belongs to.
func (ix *Index) Space() domain.EmbeddingSpace { return ix.space }

// Len returns the number of stored vectors.
func (ix *Index) Len() int { return len(ix.ids) }

// Contains reports whether id has a vector.
func (ix *Index) Contains(id string) bool {
	_, ok := ix.pos[id]
	return ok
}

// Add stores v under id. Empty, zero, NaN or Inf vectors and wrong
// dimensions are rejected.
func (ix *Index) Add(id string, v []float32) error {
	if _, dup := ix.pos[id]; dup {
		return fmt.Errorf("add %s: %w", id, domain.ErrDuplicateDocument)
	}
	unit, err := ix.normalize(v)
	if err != nil {
		return fmt.Errorf("add %s: %w", id, err)
	}
	ix.pos[id] = len(ix.ids)
	ix.ids = append(ix.ids, id)
	ix.vecs = append(ix.vecs, unit)
	return nil
}

// Search returns up to k hits ordered by descending cosine similarity, ties
// broken by ascending id. A nil allowed set searches everything; a non-nil
// empty set returns no hits.
func (ix *Index) Search(query []float32, k int, allowed map[string]struct{}) ([]result.Hit, error) {
	if k <= 0 {
		return nil, nil
	}
	if allowed != nil && len(allowed) == 0 {
		return nil, nil
	}
	q, err := ix.normalize(query)
	if err != nil {
		return nil, fmt.Errorf("query: %w", err)
	}

	hits := make([]result.Hit, 0, min(len(ix.ids), max(k, len(allowed))))
	for i, id := range ix.ids {
		if allowed != nil {
			if _, ok := allowed[id]; !ok {
				continue
			}
		}
		hits = append(hits, result.NewHit(id, dot(q, ix.vecs[i])))
	}

	sort.Slice(hits, func(a, b int) bool {
		if hits[a].Score() != hits[b].Score() {
			return hits[a].Score() > hits[b].Score()
		}
		return hits[a].ID() < hits[b].ID()
	})
	if len(hits) > k {
		hits = hits[:k]
	}
	return hits, nil
}

func (ix *Index) normalize(v []float32) ([]float32, error) {
	if err := domain.ValidateVector(v); err != nil {
		return nil, err
	}
	if ix.space.Dimensions > 0 && len(v) != ix.space.Dimensions {
		return nil, domain.NewDimensionMismatch(ix.space.Dimensions, len(v))
	}
	var sum float64
	for _, f := range v {
		sum += float64(f) * float64(f)
	}
	norm := math.Sqrt(sum)
	if norm == 0 || math.IsInf(norm, 0) {
		return nil, fmt.Errorf("vector norm is %v: %w", norm, domain.ErrInvalidVector)
	}
	out := make([]float32, len(v))
	for i, f := range v {
		out[i] = float32(float64(f) / norm)
	}
	return out, nil
}

func dot(a, b []float32) float64 {
	var s float64
	for i := range a {
		s += float64(a[i]) * float64(b[i])
	}
	// rounding can push unit-vector products just past the bounds
	return math.Max(-1, math.Min(1, s))
}
