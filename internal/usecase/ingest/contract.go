package ingest

import (
	"context"

	"github.com/kailas-cloud/pokerag/internal/domain/document"
)

// DocumentStore persists documents.
type DocumentStore interface {
	Put(ctx context.Context, doc *document.Document) (created bool, err error)
}
