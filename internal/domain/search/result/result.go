package result

import "github.com/kailas-cloud/pokerag/internal/domain/search/filter"

// Outcome distinguishes why a retrieval returned what it did.
type Outcome string

// Retrieval outcomes. Empty outcomes are valid results, not errors.
const (
	Matched         Outcome = "matched"
	NoFacetMatch    Outcome = "no_facet_match"
	NoSemanticMatch Outcome = "no_semantic_match"
)

// Hit is a single ranked document.
type Hit struct {
	id    string
	score float64
}

// NewHit creates a ranked hit.
func NewHit(id string, score float64) Hit { return Hit{id: id, score: score} }

// ID returns the document identifier.
func (h Hit) ID() string { return h.id }

// Score returns the cosine similarity in [-1, 1].
func (h Hit) Score() float64 { return h.score }

// Result is an ordered retrieval result: descending score, ties by id.
type Result struct {
	hits       []Hit
	outcome    Outcome
	candidates int
	filters    filter.Expression
	generation uint64
}

// New creates a retrieval result. The outcome is derived from hits and candidates.
func New(hits []Hit, candidates int, filters filter.Expression, generation uint64) Result {
	outcome := Matched
	switch {
	case candidates == 0 && !filters.IsEmpty():
		outcome = NoFacetMatch
	case len(hits) == 0:
		outcome = NoSemanticMatch
	}
	return Result{
		hits:       hits,
		outcome:    outcome,
		candidates: candidates,
		filters:    filters,
		generation: generation,
	}
}

// Hits returns the ranked hits.
func (r *Result) Hits() []Hit { return r.hits }

// Outcome returns the retrieval outcome.
func (r *Result) Outcome() Outcome { return r.outcome }

// IsEmpty reports whether nothing was retrieved.
func (r *Result) IsEmpty() bool { return len(r.hits) == 0 }

// Candidates returns the size of the facet allow-list searched.
func (r *Result) Candidates() int { return r.candidates }

// Filters returns the constraints that were applied.
func (r *Result) Filters() filter.Expression { return r.filters }

// Generation returns the index generation that served the query.
func (r *Result) Generation() uint64 { return r.generation }

// IDs returns hit ids in rank order.
func (r *Result) IDs() []string {
	ids := make([]string, len(r.hits))
	for i, h := range r.hits {
		ids[i] = h.id
	}
	return ids
}
