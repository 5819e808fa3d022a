// Package document persists the document corpus in a bbolt bucket.
package document

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"go.etcd.io/bbolt"

	"github.com/kailas-cloud/pokerag/internal/domain"
	domdoc "github.com/kailas-cloud/pokerag/internal/domain/document"
)

var bucketDocuments = []byte("documents")

// Repo implements the document store on a shared bbolt handle.
type Repo struct {
	handle *bbolt.DB
}

// New creates a document repository, creating its bucket if needed.
func New(handle *bbolt.DB) (*Repo, error) {
	if handle == nil {
		return nil, errors.New("bolt handle is required")
	}
	err := handle.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(bucketDocuments)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("create documents bucket: %w", err)
	}
	return &Repo{handle: handle}, nil
}

// Put creates or replaces a document. Returns true if created.
func (r *Repo) Put(_ context.Context, doc *domdoc.Document) (bool, error) {
	data, err := json.Marshal(toRecord(doc))
	if err != nil {
		return false, fmt.Errorf("marshal document %s: %w", doc.ID(), err)
	}

	var created bool
	err = r.handle.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket(bucketDocuments)
		key := []byte(doc.ID())
		created = b.Get(key) == nil
		return b.Put(key, data)
	})
	if err != nil {
		return false, fmt.Errorf("put document %s: %w", doc.ID(), err)
	}
	return created, nil
}

// PutBatch writes all documents in one transaction. Returns the number created.
func (r *Repo) PutBatch(_ context.Context, docs []domdoc.Document) (int, error) {
	encoded := make([][]byte, len(docs))
	for i := range docs {
		data, err := json.Marshal(toRecord(&docs[i]))
		if err != nil {
			return 0, fmt.Errorf("marshal document %s: %w", docs[i].ID(), err)
		}
		encoded[i] = data
	}

	created := 0
	err := r.handle.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket(bucketDocuments)
		for i := range docs {
			key := []byte(docs[i].ID())
			if b.Get(key) == nil {
				created++
			}
			if err := b.Put(key, encoded[i]); err != nil {
				return fmt.Errorf("put %s: %w", docs[i].ID(), err)
			}
		}
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("put batch: %w", err)
	}
	return created, nil
}

// Get returns a document by ID.
func (r *Repo) Get(_ context.Context, id string) (domdoc.Document, error) {
	var rec record
	err := r.handle.View(func(tx *bbolt.Tx) error {
		data := tx.Bucket(bucketDocuments).Get([]byte(id))
		if data == nil {
			return domain.ErrDocumentNotFound
		}
		return json.Unmarshal(data, &rec)
	})
	if err != nil {
		if errors.Is(err, domain.ErrDocumentNotFound) {
			return domdoc.Document{}, err
		}
		return domdoc.Document{}, fmt.Errorf("get document %s: %w", id, err)
	}
	return fromRecord(id, rec)
}

// Delete removes a document by ID.
func (r *Repo) Delete(_ context.Context, id string) error {
	err := r.handle.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket(bucketDocuments)
		if b.Get([]byte(id)) == nil {
			return domain.ErrDocumentNotFound
		}
		return b.Delete([]byte(id))
	})
	if err != nil && !errors.Is(err, domain.ErrDocumentNotFound) {
		return fmt.Errorf("delete document %s: %w", id, err)
	}
	return err
}

// List returns every stored document ordered by ID.
func (r *Repo) List(_ context.Context) ([]domdoc.Document, error) {
	var docs []domdoc.Document
	err := r.handle.View(func(tx *bbolt.Tx) error {
		return tx.Bucket(bucketDocuments).ForEach(func(k, v []byte) error {
			var rec record
			if err := json.Unmarshal(v, &rec); err != nil {
				return fmt.Errorf("decode %s: %w", k, err)
			}
			doc, err := fromRecord(string(k), rec)
			if err != nil {
				return err
			}
			docs = append(docs, doc)
			return nil
		})
	})
	if err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}
	return docs, nil
}

// Count returns the number of stored documents.
func (r *Repo) Count(_ context.Context) (int, error) {
	var n int
	err := r.handle.View(func(tx *bbolt.Tx) error {
		n = tx.Bucket(bucketDocuments).Stats().KeyN
		return nil
	})
	return n, err
}

// Ping verifies the bucket is readable.
func (r *Repo) Ping(_ context.Context) error {
	return r.handle.View(func(tx *bbolt.Tx) error {
		if tx.Bucket(bucketDocuments) == nil {
			return errors.New("documents bucket missing")
		}
		return nil
	})
}
