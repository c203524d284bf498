package cachedstore

import (
	"context"

	"github.com/discochess/insight/internal/store"
)

// Compile-time check that Store implements store.Store.
var _ store.Store = (*Store)(nil)

// Store wraps another Store with a read-through, write-through cache.
type Store struct {
	underlying store.Store
	backend    Backend
}

// New creates a cached store wrapping underlying.
func New(underlying store.Store, backend Backend) *Store {
	return &Store{
		underlying: underlying,
		backend:    backend,
	}
}

// Get serves key from the cache, falling back to the underlying store.
func (s *Store) Get(ctx context.Context, key string) ([]byte, error) {
	if data, ok := s.backend.Get(key); ok {
		return data, nil
	}
	data, err := s.underlying.Get(ctx, key)
	if err != nil {
		return nil, err
	}
	s.backend.Set(key, data)
	return data, nil
}

// Put writes to the underlying store, then caches data.
func (s *Store) Put(ctx context.Context, key string, data []byte) error {
	if err := s.underlying.Put(ctx, key, data); err != nil {
		s.backend.Remove(key)
		return err
	}
	s.backend.Set(key, data)
	return nil
}

// Delete removes key from both layers.
func (s *Store) Delete(ctx context.Context, key string) error {
	s.backend.Remove(key)
	return s.underlying.Delete(ctx, key)
}

// Keys always lists the underlying store.
func (s *Store) Keys(ctx context.Context) ([]string, error) {
	return s.underlying.Keys(ctx)
}

// Close closes the underlying store.
func (s *Store) Close() error {
	return s.underlying.Close()
}

// Stats returns cache statistics.
func (s *Store) Stats() Stats {
	return s.backend.Stats()
}
