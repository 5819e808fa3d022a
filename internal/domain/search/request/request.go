package request

import (
	"fmt"
	"strings"

	"github.com/kailas-cloud/pokerag/internal/domain/search/filter"
	"github.com/kailas-cloud/pokerag/internal/domain/search/mode"
)

// Query parameter limits.
const (
	// MaxQueryLength is the maximum allowed question length.
	MaxQueryLength     = 4096
	DefaultTopKNormal  = 2
	DefaultTopKEngaged = 4
	MinTopK            = 1
	MaxTopK            = 10
)

// Limits carries the per-mode topK defaults and the clamp ceiling.
type Limits struct {
	Normal  int
	Engaged int
	Max     int
}

// DefaultLimits returns the built-in topK limits.
func DefaultLimits() Limits {
	return Limits{Normal: DefaultTopKNormal, Engaged: DefaultTopKEngaged, Max: MaxTopK}
}

// Request is a validated retrieval query.
type Request struct {
	query    string
	respMode mode.Mode
	filters  filter.Expression
	topK     int
	explicit bool
}

// New validates a query with the default limits.
func New(query string, m mode.Mode, filters filter.Expression, topK int) (Request, error) {
	return DefaultLimits().New(query, m, filters, topK)
}

// New validates and normalizes retrieval parameters.
// topK == 0 selects the mode default; any other value is clamped to [MinTopK, Max].
func (l Limits) New(query string, m mode.Mode, filters filter.Expression, topK int) (Request, error) {
	l = l.normalize()
	query = strings.TrimSpace(query)
	if query == "" {
		return Request{}, fmt.Errorf("query is required")
	}
	if len(query) > MaxQueryLength {
		return Request{}, fmt.Errorf("query too long (max %d chars)", MaxQueryLength)
	}
	if m == "" {
		m = mode.Normal
	}
	if !m.IsValid() {
		return Request{}, fmt.Errorf("invalid response mode: %q", m)
	}

	explicit := topK != 0
	switch {
	case topK == 0 && m == mode.Engaged:
		topK = l.Engaged
	case topK == 0:
		topK = l.Normal
	}
	if topK < MinTopK {
		topK = MinTopK
	}
	if topK > l.Max {
		topK = l.Max
	}

	return Request{
		query:    query,
		respMode: m,
		filters:  filters,
		topK:     topK,
		explicit: explicit,
	}, nil
}

func (l Limits) normalize() Limits {
	if l.Max < MinTopK || l.Max > MaxTopK {
		l.Max = MaxTopK
	}
	if l.Normal < MinTopK || l.Normal > l.Max {
		l.Normal = min(DefaultTopKNormal, l.Max)
	}
	if l.Engaged < MinTopK || l.Engaged > l.Max {
		l.Engaged = min(DefaultTopKEngaged, l.Max)
	}
	return l
}

// Query returns the question text.
func (r *Request) Query() string { return r.query }

// Mode returns the response mode.
func (r *Request) Mode() mode.Mode { return r.respMode }

// Filters returns the facet constraints.
func (r *Request) Filters() filter.Expression { return r.filters }

// TopK returns the number of documents to retrieve.
func (r *Request) TopK() int { return r.topK }

// TopKExplicit reports whether the caller overrode the mode default.
func (r *Request) TopKExplicit() bool { return r.explicit }

// WithFilters returns a copy with the given constraints.
func (r *Request) WithFilters(f filter.Expression) Request {
	c := *r
	c.filters = f
	return c
}
