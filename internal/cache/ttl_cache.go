// Package cache provides the time-bounded memoization layer shared by the
// GLPI-facing services. A TTLCache is created once per service instance and
// injected into every component that needs it; there is no package-level
// cache.
//
// Entries are addressed by (key, subkey). An entry is readable while
// now-storedAt < ttl; expired entries behave as absent and are purged lazily
// on the next access. The cache is a pure optimization: no method returns an
// error and a corrupted slot is dropped and treated as a miss.
//
// An optional shared Store (e.g. Redis) can be attached with WithShared so
// that several replicas reuse each other's results through Remember.
package cache

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog/log"
)

var cacheLookups = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "glpi_cache_lookups_total",
		Help: "TTL cache lookups by result (hit, miss, shared_hit).",
	},
	[]string{"result"},
)

func init() {
	prometheus.MustRegister(cacheLookups)
}

type entry struct {
	data     any
	storedAt time.Time
	ttl      time.Duration
}

func (e *entry) fresh(now time.Time) bool {
	return e != nil && now.Sub(e.storedAt) < e.ttl
}

// Option configures a TTLCache.
type Option func(*TTLCache)

// WithClock replaces time.Now, mainly for tests.
func WithClock(now func() time.Time) Option {
	return func(c *TTLCache) {
		if now != nil {
			c.now = now
		}
	}
}

// WithShared attaches a second-tier store consulted by Remember.
func WithShared(s Store) Option {
	return func(c *TTLCache) { c.shared = s }
}

// TTLCache is a concurrency-safe key/subkey store with per-entry TTL.
type TTLCache struct {
	mu     sync.RWMutex
	slots  map[string]map[string]*entry
	now    func() time.Time
	shared Store

	hits   atomic.Int64
	misses atomic.Int64
}

// New returns an empty cache.
func New(opts ...Option) *TTLCache {
	c := &TTLCache{
		slots: make(map[string]map[string]*entry),
		now:   time.Now,
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// Get returns the value stored at (key, subkey) when present and fresh.
func (c *TTLCache) Get(key, subkey string) (any, bool) {
	now := c.now()

	c.mu.RLock()
	e, found := c.slots[key][subkey]
	if found && e.fresh(now) {
		data := e.data
		c.mu.RUnlock()
		c.hit()
		return data, true
	}
	c.mu.RUnlock()

	if found {
		c.purge(key, subkey, now)
	}
	c.miss()
	return nil, false
}

// Set stores data at (key, subkey), replacing any previous entry.
// A non-positive ttl stores nothing.
func (c *TTLCache) Set(key string, data any, ttl time.Duration, subkey string) {
	if ttl <= 0 {
		return
	}
	e := &entry{data: data, storedAt: c.now(), ttl: ttl}

	c.mu.Lock()
	defer c.mu.Unlock()
	slot := c.slots[key]
	if slot == nil {
		slot = make(map[string]*entry)
		c.slots[key] = slot
	}
	slot[subkey] = e
}

// IsValid applies the same freshness rule as Get without returning data.
func (c *TTLCache) IsValid(key, subkey string) bool {
	now := c.now()
	c.mu.RLock()
	e, found := c.slots[key][subkey]
	ok := found && e.fresh(now)
	c.mu.RUnlock()
	if found && !ok {
		c.purge(key, subkey, now)
	}
	return ok
}

// Invalidate drops the entry at (key, subkey).
func (c *TTLCache) Invalidate(key, subkey string) {
	c.mu.Lock()
	if slot := c.slots[key]; slot != nil {
		delete(slot, subkey)
		if len(slot) == 0 {
			delete(c.slots, key)
		}
	}
	c.mu.Unlock()

	c.sharedDo(func(ctx context.Context, s Store) error {
		return s.Delete(ctx, sharedKey(key, subkey))
	})
}

// InvalidateKey drops every subkey stored under key.
func (c *TTLCache) InvalidateKey(key string) {
	c.mu.Lock()
	delete(c.slots, key)
	c.mu.Unlock()

	c.sharedDo(func(ctx context.Context, s Store) error {
		return s.DeletePrefix(ctx, sharedKey(key, ""))
	})
}

// Clear drops every entry.
func (c *TTLCache) Clear() {
	c.mu.Lock()
	c.slots = make(map[string]map[string]*entry)
	c.mu.Unlock()

	c.sharedDo(func(ctx context.Context, s Store) error {
		return s.DeletePrefix(ctx, "")
	})
}

// Stats reports the number of stored (possibly expired) entries and the
// hit/miss counters since construction.
func (c *TTLCache) Stats() (entries int, hits, misses int64) {
	c.mu.RLock()
	for _, slot := range c.slots {
		entries += len(slot)
	}
	c.mu.RUnlock()
	return entries, c.hits.Load(), c.misses.Load()
}

// purge removes (key, subkey) if it is still stale or corrupted at now.
func (c *TTLCache) purge(key, subkey string, now time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	slot := c.slots[key]
	if slot == nil {
		delete(c.slots, key)
		return
	}
	if e, ok := slot[subkey]; ok && !e.fresh(now) {
		delete(slot, subkey)
	}
	if len(slot) == 0 {
		delete(c.slots, key)
	}
}

// sharedDo runs a best-effort maintenance call against the shared tier.
func (c *TTLCache) sharedDo(fn func(context.Context, Store) error) {
	if c.shared == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := fn(ctx, c.shared); err != nil {
		log.Warn().Err(err).Msg("shared cache maintenance failed")
	}
}

func (c *TTLCache) hit() {
	c.hits.Add(1)
	cacheLookups.WithLabelValues("hit").Inc()
}

func (c *TTLCache) miss() {
	c.misses.Add(1)
	cacheLookups.WithLabelValues("miss").Inc()
}
