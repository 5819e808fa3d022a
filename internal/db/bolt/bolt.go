// Package bolt provides a bbolt-backed db.Store for single-node deployments.
package bolt

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.etcd.io/bbolt"

	"github.com/kailas-cloud/pokerag/internal/db"
)

// Compile-time check: Store implements db.Store.
var _ db.Store = (*Store)(nil)

// DefaultBucket holds cache entries when no bucket is configured.
const DefaultBucket = "kv"

// Open opens (or creates) the bbolt file at path, creating parent directories.
// timeout bounds the wait for the file lock; zero selects one second.
func Open(path string, timeout time.Duration) (*bbolt.DB, error) {
	if timeout <= 0 {
		timeout = time.Second
	}
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return nil, fmt.Errorf("create data dir: %w", err)
		}
	}
	handle, err := bbolt.Open(path, 0o600, &bbolt.Options{Timeout: timeout})
	if err != nil {
		return nil, fmt.Errorf("open bolt db: %w", err)
	}
	return handle, nil
}

// Store implements db.KVStore on a single bucket of a shared bbolt handle.
// Values are prefixed with an 8-byte big-endian expiry (unix nanos, 0 = none).
type Store struct {
	handle *bbolt.DB
	bucket []byte
	now    func() time.Time
}

// NewStore creates the bucket if needed. The handle stays owned by the caller.
func NewStore(handle *bbolt.DB, bucket string) (*Store, error) {
	if handle == nil {
		return nil, errors.New("bolt handle is required")
	}
	if bucket == "" {
		bucket = DefaultBucket
	}
	name := []byte(bucket)
	err := handle.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(name)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("create bucket %s: %w", bucket, err)
	}
	return &Store{handle: handle, bucket: name, now: time.Now}, nil
}

// Ping reports whether the underlying file is still open.
func (s *Store) Ping(_ context.Context) error {
	return s.handle.View(func(tx *bbolt.Tx) error {
		if tx.Bucket(s.bucket) == nil {
			return &db.Error{Op: db.OpPing, Err: fmt.Errorf("bucket %s missing", s.bucket)}
		}
		return nil
	})
}

// Close is a no-op: the handle is shared with other repositories.
func (s *Store) Close() {}

// WaitForReady returns immediately; a local file is ready once opened.
func (s *Store) WaitForReady(ctx context.Context, _ time.Duration) error {
	return s.Ping(ctx)
}

// Get returns the value for key, or db.ErrKeyNotFound if missing or expired.
func (s *Store) Get(_ context.Context, key string) ([]byte, error) {
	var out []byte
	err := s.handle.View(func(tx *bbolt.Tx) error {
		raw := tx.Bucket(s.bucket).Get([]byte(key))
		if len(raw) < 8 {
			return db.ErrKeyNotFound
		}
		if exp := int64(binary.BigEndian.Uint64(raw[:8])); exp != 0 && s.now().UnixNano() >= exp {
			return db.ErrKeyNotFound
		}
		out = append([]byte(nil), raw[8:]...)
		return nil
	})
	if err != nil {
		if errors.Is(err, db.ErrKeyNotFound) {
			return nil, err
		}
		return nil, &db.Error{Op: db.OpGet, Err: err}
	}
	return out, nil
}

// Set stores value without expiry.
func (s *Store) Set(ctx context.Context, key string, value []byte) error {
	return s.put(key, value, 0)
}

// SetWithTTL stores value that expires after ttl.
func (s *Store) SetWithTTL(_ context.Context, key string, value []byte, ttl time.Duration) error {
	var exp int64
	if ttl > 0 {
		exp = s.now().Add(ttl).UnixNano()
	}
	return s.put(key, value, exp)
}

// Del removes key. Missing keys are not an error.
func (s *Store) Del(_ context.Context, key string) error {
	err := s.handle.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket(s.bucket).Delete([]byte(key))
	})
	if err != nil {
		return &db.Error{Op: db.OpDel, Err: err}
	}
	return nil
}

func (s *Store) put(key string, value []byte, exp int64) error {
	buf := make([]byte, 8+len(value))
	binary.BigEndian.PutUint64(buf[:8], uint64(exp))
	copy(buf[8:], value)
	err := s.handle.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket(s.bucket).Put([]byte(key), buf)
	})
	if err != nil {
		return &db.Error{Op: db.OpSet, Err: err}
	}
	return nil
}
