package index

import (
	"context"

	"github.com/kailas-cloud/pokerag/internal/domain/document"
)

// DocumentStore is the source of truth every generation is rebuilt from.
type DocumentStore interface {
	List(ctx context.Context) ([]document.Document, error)
	Put(ctx context.Context, doc *document.Document) (bool, error)
}
