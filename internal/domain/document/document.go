package document

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/kailas-cloud/pokerag/internal/domain"
	"github.com/kailas-cloud/pokerag/internal/domain/facet"
)

var idRegex = regexp.MustCompile(`^[a-z0-9_-]+$`)

// MaxBodySize is the maximum document body size in bytes.
const MaxBodySize = 163840 // 160KB

// Document is the document aggregate. The embedding is set once and never replaced.
type Document struct {
	id     string
	title  string
	body   string
	facets facet.Set
	vector []float32
	space  domain.EmbeddingSpace
}

// New validates and creates a Document without an embedding.
// ID: ^[a-z0-9_-]+$, 1-256 chars. Title and body are required.
func New(id, title, body string, facets facet.Set) (Document, error) {
	if id == "" {
		return Document{}, fmt.Errorf("document ID is required")
	}
	if len(id) > 256 {
		return Document{}, fmt.Errorf("document ID too long (max 256)")
	}
	if !idRegex.MatchString(id) {
		return Document{}, fmt.Errorf("document ID must be lowercase alphanumeric with underscores and hyphens")
	}
	if strings.TrimSpace(title) == "" {
		return Document{}, fmt.Errorf("title is required")
	}
	if strings.TrimSpace(body) == "" {
		return Document{}, fmt.Errorf("body text is required")
	}
	if len(body) > MaxBodySize {
		return Document{}, fmt.Errorf("body too large (max %d bytes)", MaxBodySize)
	}
	if facets == nil {
		facets = facet.Set{}
	}

	return Document{
		id:     id,
		title:  title,
		body:   body,
		facets: facets.Clone(),
	}, nil
}

// Reconstruct creates a Document without validation (storage hydration).
func Reconstruct(id, title, body string, facets facet.Set, vector []float32, space domain.EmbeddingSpace) Document {
	return Document{id: id, title: title, body: body, facets: facets, vector: vector, space: space}
}

// ID returns the document identifier.
func (d *Document) ID() string { return d.id }

// Title returns the display title.
func (d *Document) Title() string { return d.title }

// Body returns the document body text.
func (d *Document) Body() string { return d.body }

// Facets returns the categorical metadata.
func (d *Document) Facets() facet.Set { return d.facets }

// Vector returns the embedding vector, nil until embedded.
func (d *Document) Vector() []float32 { return d.vector }

// Space returns the embedding space of Vector.
func (d *Document) Space() domain.EmbeddingSpace { return d.space }

// EmbeddingText is the text sent to the embedding provider.
func (d *Document) EmbeddingText() string {
	return d.title + "\n" + d.body
}

// HasEmbeddingIn reports whether the stored vector was produced in space s.
func (d *Document) HasEmbeddingIn(s domain.EmbeddingSpace) bool {
	return len(d.vector) > 0 && d.space == s
}

// WithEmbedding returns a copy carrying vector v from space s.
// Fails when v is invalid or its length disagrees with the space dimension.
func (d *Document) WithEmbedding(v []float32, s domain.EmbeddingSpace) (Document, error) {
	if err := domain.ValidateVector(v); err != nil {
		return Document{}, fmt.Errorf("document %s: %w", d.id, err)
	}
	if s.Dimensions > 0 && len(v) != s.Dimensions {
		return Document{}, domain.NewDimensionMismatch(s.Dimensions, len(v))
	}
	return Document{
		id: d.id, title: d.title, body: d.body, facets: d.facets,
		vector: v, space: s,
	}, nil
}

// IDFromName derives a document ID from a display name. Separators collapse into a single hyphen.
func IDFromName(name string) string {
	var b strings.Builder
	hyphen := func() {
		if s := b.String(); len(s) > 0 && s[len(s)-1] != '-' {
			b.WriteByte('-')
		}
	}
	for _, r := range strings.ToLower(strings.TrimSpace(name)) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '_':
			b.WriteRune(r)
		case r == '-', r == ' ', r == '.', r == '\'', r == ':':
			hyphen()
		case r == 'é' || r == 'è' || r == 'ê':
			b.WriteRune('e')
		case r == '♀':
			hyphen()
			b.WriteByte('f')
		case r == '♂':
			hyphen()
			b.WriteByte('m')
		}
	}
	return strings.Trim(b.String(), "-")
}
