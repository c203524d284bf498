// Package lru implements a least-recently-used eviction strategy.
package lru

import (
	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/discochess/insight/internal/cachestrategy"
)

// Compile-time check that Strategy implements cachestrategy.Strategy.
var _ cachestrategy.Strategy[string, []byte] = (*Strategy[string, []byte])(nil)

// Strategy implements LRU eviction. It is safe for concurrent use.
type Strategy[K comparable, V any] struct {
	cache *lru.Cache[K, V]
}

// New creates an LRU strategy holding at most capacity entries.
func New[K comparable, V any](capacity int) (*Strategy[K, V], error) {
	c, err := lru.New[K, V](capacity)
	if err != nil {
		return nil, err
	}
	return &Strategy[K, V]{cache: c}, nil
}

// Get retrieves a value and marks it recently used.
func (s *Strategy[K, V]) Get(key K) (V, bool) {
	return s.cache.Get(key)
}

// Add stores a value.
func (s *Strategy[K, V]) Add(key K, value V) bool {
	return s.cache.Add(key, value)
}

// Remove drops key.
func (s *Strategy[K, V]) Remove(key K) bool {
	return s.cache.Remove(key)
}

// Len returns the number of entries.
func (s *Strategy[K, V]) Len() int {
	return s.cache.Len()
}
