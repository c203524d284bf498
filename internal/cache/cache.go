// Package cache persists analyzed games in month buckets so a later run
// only re-analyzes what is missing or was analyzed too shallowly.
//
// Layout in the store:
//
//	algoVersion                  decimal algorithm version
//	months                       JSON list of bucket keys
//	2024-03%blitz%hikaru         encoded {games, sfDepth} bucket
//
// Buckets are encoded with the configured codec. A version mismatch on Load
// removes every bucket, indexed or not.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"sort"
	"strconv"
	"sync"

	"go.uber.org/zap"

	"github.com/discochess/insight/internal/codec"
	"github.com/discochess/insight/internal/codec/noopcodec"
	"github.com/discochess/insight/internal/game"
	"github.com/discochess/insight/internal/stats"
	"github.com/discochess/insight/internal/store"
)

// AlgorithmVersion tags cached results. Bump it whenever scoring or
// classification changes incompatibly.
const AlgorithmVersion = 3

const (
	monthsKey  = "months"
	versionKey = "algoVersion"
)

// Bucket is the cached state of one month of one time class for one user.
type Bucket struct {
	Games []game.Game `json:"games"`
	// Depth is the lowest search depth among Games.
	Depth int `json:"sfDepth"`
}

// Stale reports whether the bucket was analyzed below depth.
func (b Bucket) Stale(depth int) bool { return b.Depth < depth }

// Info summarizes a bucket.
type Info struct {
	Games int
	Depth int
}

// Manager reads and writes buckets. Writers are serialized.
type Manager struct {
	store     store.Store
	codec     codec.Codec
	version   int
	logger    *zap.Logger
	collector stats.Collector

	mu sync.Mutex
}

// Option configures a Manager.
type Option func(*Manager)

// WithCodec sets the bucket codec. The default stores buckets uncompressed.
func WithCodec(c codec.Codec) Option {
	return func(m *Manager) {
		if c != nil {
			m.codec = c
		}
	}
}

// WithVersion overrides AlgorithmVersion.
func WithVersion(v int) Option {
	return func(m *Manager) { m.version = v }
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(m *Manager) {
		if l != nil {
			m.logger = l
		}
	}
}

// WithCollector sets the stats collector.
func WithCollector(c stats.Collector) Option {
	return func(m *Manager) { m.collector = stats.OrNoop(c) }
}

// New creates a manager over st.
func New(st store.Store, opts ...Option) *Manager {
	m := &Manager{
		store:     st,
		codec:     noopcodec.New(),
		version:   AlgorithmVersion,
		logger:    zap.NewNop(),
		collector: stats.NewNoop(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Version returns the algorithm version the manager writes.
func (m *Manager) Version() int { return m.version }

// Load checks the stored algorithm version. When it differs from the
// manager's, every bucket and the month index are deleted and the new
// version is stored. It reports whether the cache was wiped.
func (m *Manager) Load(ctx context.Context) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	stored, err := m.storedVersion(ctx)
	if err != nil {
		return false, err
	}
	if stored == m.version {
		return false, nil
	}

	keys, err := m.allBuckets(ctx)
	if err != nil {
		return false, err
	}
	if stored < 0 && len(keys) == 0 {
		if err := m.store.Put(ctx, versionKey, []byte(strconv.Itoa(m.version))); err != nil {
			return false, fmt.Errorf("cache: storing version: %w", err)
		}
		return false, nil
	}
	for _, k := range keys {
		if err := m.store.Delete(ctx, k); err != nil {
			return false, fmt.Errorf("cache: deleting bucket %q: %w", k, err)
		}
	}
	if err := m.store.Delete(ctx, monthsKey); err != nil {
		return false, fmt.Errorf("cache: deleting month index: %w", err)
	}
	if err := m.store.Put(ctx, versionKey, []byte(strconv.Itoa(m.version))); err != nil {
		return false, fmt.Errorf("cache: storing version: %w", err)
	}

	m.collector.IncCounter(stats.MetricCacheInvalidations, 1)
	m.logger.Info("result cache invalidated",
		zap.Int("stored_version", stored),
		zap.Int("version", m.version),
		zap.Int("buckets", len(keys)),
	)
	return true, nil
}

// allBuckets returns the indexed bucket keys plus any stored key shaped
// like a bucket that the index lost.
func (m *Manager) allBuckets(ctx context.Context) ([]string, error) {
	keys, err := m.months(ctx)
	if err != nil {
		return nil, err
	}
	stored, err := m.store.Keys(ctx)
	if err != nil {
		return nil, fmt.Errorf("cache: listing keys: %w", err)
	}
	for _, k := range stored {
		if _, err := ParseBucketKey(k); err == nil && !slices.Contains(keys, k) {
			keys = append(keys, k)
		}
	}
	return keys, nil
}

// storedVersion returns the stored version, or -1 when none is stored or
// it cannot be read.
func (m *Manager) storedVersion(ctx context.Context) (int, error) {
	data, err := m.store.Get(ctx, versionKey)
	if errors.Is(err, store.ErrNotFound) {
		return -1, nil
	}
	if err != nil {
		return 0, fmt.Errorf("cache: reading version: %w", err)
	}
	v, err := strconv.Atoi(string(data))
	if err != nil {
		return -1, nil
	}
	return v, nil
}

// Keys returns every indexed bucket key.
func (m *Manager) Keys(ctx context.Context) ([]string, error) {
	return m.months(ctx)
}

// Get returns the buckets of username keyed by bucket key. An empty
// username returns every bucket.
func (m *Manager) Get(ctx context.Context, username string) (map[string]Bucket, error) {
	keys, err := m.months(ctx)
	if err != nil {
		return nil, err
	}
	out := make(map[string]Bucket)
	for _, k := range keys {
		if username != "" {
			id, err := ParseBucketKey(k)
			if err != nil || id.Username != username {
				continue
			}
		}
		b, err := m.bucket(ctx, k)
		if err != nil {
			return nil, err
		}
		out[k] = b
	}
	return out, nil
}

// Put adds games to their buckets for username. Games already cached are
// replaced by URL. It returns a summary of every bucket touched.
func (m *Manager) Put(ctx context.Context, games []game.Game, username string) (map[string]Info, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	fresh := make(map[string][]game.Game)
	for i := range games {
		k := BucketKey(&games[i], username)
		fresh[k] = append(fresh[k], games[i])
	}

	keys, err := m.months(ctx)
	if err != nil {
		return nil, err
	}

	summary := make(map[string]Info, len(fresh))
	for k, add := range fresh {
		old, err := m.bucket(ctx, k)
		if err != nil {
			return nil, err
		}
		b := Merge(old, add)
		data, err := m.encode(b)
		if err != nil {
			return nil, err
		}
		if err := m.store.Put(ctx, k, data); err != nil {
			m.collector.IncCounter(stats.MetricCacheWriteErrors, 1)
			return nil, fmt.Errorf("cache: writing bucket %q: %w", k, err)
		}
		summary[k] = Info{Games: len(b.Games), Depth: b.Depth}
		if !slices.Contains(keys, k) {
			keys = append(keys, k)
		}
	}

	if err := m.writeMonths(ctx, keys); err != nil {
		return nil, err
	}
	return summary, nil
}

// Delete removes one bucket and its index entry. It returns the URLs of the
// games the bucket held so callers can drop them from memory.
func (m *Manager) Delete(ctx context.Context, key string) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	b, err := m.bucket(ctx, key)
	if err != nil {
		return nil, err
	}
	if err := m.store.Delete(ctx, key); err != nil {
		return nil, fmt.Errorf("cache: deleting bucket %q: %w", key, err)
	}

	keys, err := m.months(ctx)
	if err != nil {
		return nil, err
	}
	keys = slices.DeleteFunc(keys, func(k string) bool { return k == key })
	if err := m.writeMonths(ctx, keys); err != nil {
		return nil, err
	}

	urls := make([]string, 0, len(b.Games))
	for _, g := range b.Games {
		urls = append(urls, g.URL)
	}
	return urls, nil
}

// Merge combines a cached bucket with freshly analyzed games. A fresh game
// replaces a cached one with the same URL. The depth is recomputed.
func Merge(old Bucket, fresh []game.Game) Bucket {
	replaced := make(map[string]bool, len(fresh))
	for _, g := range fresh {
		replaced[g.URL] = true
	}

	games := make([]game.Game, 0, len(old.Games)+len(fresh))
	for _, g := range old.Games {
		if !replaced[g.URL] {
			games = append(games, g)
		}
	}
	games = append(games, fresh...)
	sort.SliceStable(games, func(i, j int) bool { return games[i].EndTime.Before(games[j].EndTime) })

	return Bucket{Games: games, Depth: minDepth(games)}
}

// Purge returns games without the ones whose URL is in urls.
func Purge(games []game.Game, urls []string) []game.Game {
	drop := make(map[string]bool, len(urls))
	for _, u := range urls {
		drop[u] = true
	}
	out := make([]game.Game, 0, len(games))
	for _, g := range games {
		if !drop[g.URL] {
			out = append(out, g)
		}
	}
	return out
}

func minDepth(games []game.Game) int {
	if len(games) == 0 {
		return 0
	}
	d := games[0].Depth
	for _, g := range games[1:] {
		d = min(d, g.Depth)
	}
	return d
}

func (m *Manager) months(ctx context.Context) ([]string, error) {
	data, err := m.store.Get(ctx, monthsKey)
	if errors.Is(err, store.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("cache: reading month index: %w", err)
	}
	var keys []string
	if err := json.Unmarshal(data, &keys); err != nil {
		m.logger.Warn("month index unreadable, ignoring", zap.Error(err))
		return nil, nil
	}
	return keys, nil
}

func (m *Manager) writeMonths(ctx context.Context, keys []string) error {
	sort.Strings(keys)
	data, err := json.Marshal(keys)
	if err != nil {
		return fmt.Errorf("cache: encoding month index: %w", err)
	}
	if err := m.store.Put(ctx, monthsKey, data); err != nil {
		m.collector.IncCounter(stats.MetricCacheWriteErrors, 1)
		return fmt.Errorf("cache: writing month index: %w", err)
	}
	return nil
}

// bucket returns the stored bucket at key. A missing or unreadable bucket
// is returned empty.
func (m *Manager) bucket(ctx context.Context, key string) (Bucket, error) {
	data, err := m.store.Get(ctx, key)
	if errors.Is(err, store.ErrNotFound) {
		return Bucket{}, nil
	}
	if err != nil {
		return Bucket{}, fmt.Errorf("cache: reading bucket %q: %w", key, err)
	}
	raw, err := m.codec.Decode(data)
	if err != nil {
		m.logger.Warn("bucket undecodable, ignoring", zap.String("bucket", key), zap.Error(err))
		return Bucket{}, nil
	}
	var b Bucket
	if err := json.Unmarshal(raw, &b); err != nil {
		m.logger.Warn("bucket unreadable, ignoring", zap.String("bucket", key), zap.Error(err))
		return Bucket{}, nil
	}
	return b, nil
}

func (m *Manager) encode(b Bucket) ([]byte, error) {
	raw, err := json.Marshal(b)
	if err != nil {
		return nil, fmt.Errorf("cache: encoding bucket: %w", err)
	}
	return m.codec.Encode(raw)
}
