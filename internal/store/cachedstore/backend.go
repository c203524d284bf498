// Package cachedstore keeps recently used blobs of a slower store (S3,
// GCS) in memory.
package cachedstore

// Backend holds cached blobs.
type Backend interface {
	// Get retrieves a cached blob. Returns nil, false if not found.
	Get(key string) ([]byte, bool)

	// Set stores a blob.
	Set(key string, data []byte)

	// Remove drops a blob.
	Remove(key string)

	// Stats returns cache statistics.
	Stats() Stats
}

// Stats contains cache statistics.
type Stats struct {
	Hits   int64
	Misses int64
	Size   int
}

// HitRate returns the cache hit rate as a percentage.
func (s Stats) HitRate() float64 {
	total := s.Hits + s.Misses
	if total == 0 {
		return 0
	}
	return float64(s.Hits) / float64(total) * 100
}
