// Package facetindex builds per-facet inverted indexes over the document corpus.
package facetindex

import (
	"fmt"
	"slices"
	"sort"

	"github.com/kailas-cloud/pokerag/internal/domain"
	"github.com/kailas-cloud/pokerag/internal/domain/document"
	"github.com/kailas-cloud/pokerag/internal/domain/facet"
	"github.com/kailas-cloud/pokerag/internal/domain/search/filter"
)

// IDSet is a set of document ids.
type IDSet map[string]struct{}

// Sorted returns the ids in ascending order.
func (s IDSet) Sorted() []string {
	out := make([]string, 0, len(s))
	for id := range s {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

// Index maps (facet, value) to document ids. Immutable once built.
type Index struct {
	buckets map[facet.Name]map[string]IDSet
	all     IDSet
}

// Build indexes every document. A duplicate id fails the build.
func Build(docs []document.Document) (*Index, error) {
	ix := &Index{
		buckets: make(map[facet.Name]map[string]IDSet, len(facet.Indexed())),
		all:     make(IDSet, len(docs)),
	}
	for _, n := range facet.Indexed() {
		ix.buckets[n] = make(map[string]IDSet)
	}

	for i := range docs {
		id := docs[i].ID()
		if _, dup := ix.all[id]; dup {
			return nil, fmt.Errorf("index %s: %w", id, domain.ErrDuplicateDocument)
		}
		ix.all[id] = struct{}{}

		facets := docs[i].Facets()
		for _, n := range facet.Indexed() {
			for _, v := range facets.Values(n) {
				b := ix.buckets[n][v]
				if b == nil {
					b = make(IDSet)
					ix.buckets[n][v] = b
				}
				b[id] = struct{}{}
			}
		}
	}
	return ix, nil
}

// Len returns the number of indexed documents.
func (ix *Index) Len() int { return len(ix.all) }

// Contains reports whether id is indexed.
func (ix *Index) Contains(id string) bool {
	_, ok := ix.all[id]
	return ok
}

// Bucket returns the ids holding value v for facet n, sorted.
func (ix *Index) Bucket(n facet.Name, v string) []string {
	return ix.buckets[n][v].Sorted()
}

// Resolve turns a filter into an allow-list. restricted is false for an empty
// filter, meaning every document is allowed and ids is nil.
func (ix *Index) Resolve(expr filter.Expression) (ids IDSet, restricted bool) {
	if expr.IsEmpty() {
		return nil, false
	}

	var allowed IDSet
	for _, c := range expr.Conditions() {
		union := make(IDSet)
		for _, v := range c.Values() {
			for id := range ix.buckets[c.Name()][v] {
				union[id] = struct{}{}
			}
		}
		if allowed == nil {
			allowed = union
		} else {
			for id := range allowed {
				if _, ok := union[id]; !ok {
					delete(allowed, id)
				}
			}
		}
		if len(allowed) == 0 {
			return IDSet{}, true
		}
	}
	return allowed, true
}

// Entry is one bucket of a snapshot.
type Entry struct {
	Facet facet.Name
	Value string
	IDs   []string
}

// Snapshot returns every non-empty bucket ordered by facet, value, then id.
func (ix *Index) Snapshot() []Entry {
	var out []Entry
	for _, n := range facet.Indexed() {
		values := make([]string, 0, len(ix.buckets[n]))
		for v := range ix.buckets[n] {
			values = append(values, v)
		}
		sort.Strings(values)
		for _, v := range values {
			out = append(out, Entry{Facet: n, Value: v, IDs: ix.buckets[n][v].Sorted()})
		}
	}
	return out
}

// Equal reports whether both indexes hold identical buckets.
func (ix *Index) Equal(other *Index) bool {
	if ix == nil || other == nil {
		return ix == other
	}
	a, b := ix.Snapshot(), other.Snapshot()
	return slices.EqualFunc(a, b, func(x, y Entry) bool {
		return x.Facet == y.Facet && x.Value == y.Value && slices.Equal(x.IDs, y.IDs)
	})
}

// Stats maps facet to value to bucket size.
type Stats map[facet.Name]map[string]int

// Stats returns bucket sizes for every facet.
func (ix *Index) Stats() Stats {
	out := make(Stats, len(ix.buckets))
	for n, values := range ix.buckets {
		counts := make(map[string]int, len(values))
		for v, ids := range values {
			counts[v] = len(ids)
		}
		out[n] = counts
	}
	return out
}
