// Package querycache stores query answers per block and deduplicates
// identical executions that are in flight at the same time.
//
// The block cache keeps the answers of the most recent blocks, newest first.
// Only answers for blocks at or above the newest cached block are stored, so
// a query against an old block never evicts a recent one. The herd cache is
// a single flight group keyed by the query fingerprint: concurrent callers
// with the same key wait for one execution and share its answer.
package querycache

import (
	"log/slog"
	"sync"

	"golang.org/x/sync/singleflight"

	"github.com/hanpama/blockql/internal/blockptr"
)

// Key fingerprints a query at a block.
type Key [32]byte

type blockEntry[T Cloner[T]] struct {
	block   blockptr.Ptr
	answers map[Key]*Shared[T]
}

// Cache is the block cache plus the herd cache. It is safe for concurrent use.
type Cache[T Cloner[T]] struct {
	cfg     Config
	logger  *slog.Logger
	metrics *Metrics

	mu     sync.RWMutex
	blocks []*blockEntry[T] // newest first

	herd singleflight.Group
}

type Option func(*options)

type options struct {
	logger  *slog.Logger
	metrics *Metrics
}

func WithLogger(l *slog.Logger) Option { return func(o *options) { o.logger = l } }

func WithMetrics(m *Metrics) Option { return func(o *options) { o.metrics = m } }

func New[T Cloner[T]](cfg Config, opts ...Option) *Cache[T] {
	o := options{}
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = slog.Default()
	}
	if o.metrics == nil {
		o.metrics = NewMetrics(nil)
	}
	if cfg.Blocks < 0 {
		cfg.Blocks = 0
	}
	return &Cache[T]{cfg: cfg, logger: o.logger, metrics: o.metrics}
}

// Enabled reports whether answers for schemaID go through the cache.
func (c *Cache[T]) Enabled(schemaID string) bool {
	return c != nil && c.cfg.Caches(schemaID)
}

// Run answers a query through the cache.
//
// Answers bypass the cache when the schema is not enabled, when no block is
// given, or when the block is the NumberMax sentinel. Otherwise the block
// cache is consulted, then the herd cache. exec runs at most once per key
// among concurrent callers; its answer is stored in the block cache when ok
// accepts it.
func (c *Cache[T]) Run(schemaID string, block *blockptr.Ptr, key func() Key, exec func() T, ok func(T) bool) MaybeCached[T] {
	if block == nil || block.IsSentinel() || !c.Enabled(schemaID) {
		return NotCached(exec())
	}
	k := key()
	if s, hit := c.Lookup(*block, k); hit {
		c.metrics.Hits.Inc()
		return Cached(s)
	}
	c.metrics.Misses.Inc()

	v, _, shared := c.herd.Do(string(k[:]), func() (any, error) {
		if s, hit := c.Lookup(*block, k); hit {
			return s, nil
		}
		s := NewShared(exec())
		if ok(s.value) {
			c.Insert(*block, k, s)
		}
		return s, nil
	})
	if shared {
		c.metrics.HerdShared.Inc()
	}
	return Cached(v.(*Shared[T]))
}

// Lookup scans the cached blocks from newest to oldest.
func (c *Cache[T]) Lookup(block blockptr.Ptr, key Key) (*Shared[T], bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	for _, e := range c.blocks {
		if e.block == block {
			s, ok := e.answers[key]
			return s, ok
		}
	}
	return nil, false
}

// Insert stores an answer for block. A block not yet cached is added only
// when it is not older than the newest cached block; the oldest block is
// evicted when the cache is full. It reports whether the answer was stored.
func (c *Cache[T]) Insert(block blockptr.Ptr, key Key, s *Shared[T]) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, e := range c.blocks {
		if e.block == block {
			e.answers[key] = s
			c.metrics.Inserts.Inc()
			return true
		}
	}
	if c.cfg.Blocks == 0 {
		return false
	}
	if len(c.blocks) > 0 && block.Number < c.blocks[0].block.Number {
		c.metrics.RejectedInserts.Inc()
		return false
	}
	if len(c.blocks) == c.cfg.Blocks {
		evicted := c.blocks[len(c.blocks)-1]
		c.blocks = c.blocks[:len(c.blocks)-1]
		c.metrics.Evictions.Inc()
		c.logger.Debug("query cache evicted block", "block", evicted.block.Number, "answers", len(evicted.answers))
	}
	entry := &blockEntry[T]{block: block, answers: map[Key]*Shared[T]{key: s}}
	c.blocks = append([]*blockEntry[T]{entry}, c.blocks...)
	c.metrics.Inserts.Inc()
	c.metrics.Blocks.Set(float64(len(c.blocks)))
	return true
}

// Blocks returns the cached block numbers, newest first.
func (c *Cache[T]) Blocks() []uint64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]uint64, len(c.blocks))
	for i, e := range c.blocks {
		out[i] = e.block.Number
	}
	return out
}
