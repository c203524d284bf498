// Package cachestrategy defines the eviction strategy shared by the
// in-process caches (store blobs and engine evaluations).
package cachestrategy

// Strategy is a bounded key/value cache with an eviction policy.
type Strategy[K comparable, V any] interface {
	Get(key K) (V, bool)
	// Add stores value and reports whether an entry was evicted.
	Add(key K, value V) bool
	Remove(key K) bool
	Len() int
}
