package index

import (
	"time"

	"github.com/kailas-cloud/pokerag/internal/domain"
	"github.com/kailas-cloud/pokerag/internal/domain/batch"
	"github.com/kailas-cloud/pokerag/internal/domain/document"
	"github.com/kailas-cloud/pokerag/internal/repository/facetindex"
	"github.com/kailas-cloud/pokerag/internal/repository/vectorindex"
)

// Generation is one immutable, published snapshot of both indexes.
// Readers resolve it once per request and never see a partial build.
type Generation struct {
	ID       uint64
	Space    domain.EmbeddingSpace
	Facets   *facetindex.Index
	Vectors  *vectorindex.Index
	BuiltAt  time.Time
	Excluded []batch.Result

	docs map[string]document.Document
}

// Doc returns an indexed document by id.
func (g *Generation) Doc(id string) (document.Document, bool) {
	d, ok := g.docs[id]
	return d, ok
}

// Len returns the number of indexed documents.
func (g *Generation) Len() int { return len(g.docs) }

// ExcludedIDs returns the ids left out of this generation.
func (g *Generation) ExcludedIDs() []string {
	out := make([]string, len(g.Excluded))
	for i, r := range g.Excluded {
		out[i] = r.ID()
	}
	return out
}
