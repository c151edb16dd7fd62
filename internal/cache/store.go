package cache

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"
)

// Store is a second cache tier shared between replicas. Values are opaque to
// the store; implementations serialize them as they see fit.
//
// Load reports the remaining lifetime of the value it found; a non-positive
// remaining means the store does not know it.
type Store interface {
	Load(ctx context.Context, key string, dst any) (found bool, remaining time.Duration, err error)
	Save(ctx context.Context, key string, v any, ttl time.Duration) error
	Delete(ctx context.Context, keys ...string) error
	DeletePrefix(ctx context.Context, prefix string) error
}

// sharedKey flattens (key, subkey) into the shared keyspace. An empty subkey
// yields a prefix that matches every subkey of key.
func sharedKey(key, subkey string) string {
	return key + "|" + subkey
}

// Remember returns the fresh value at (key, subkey), consulting the shared
// tier on a local miss and calling compute when neither tier has it.
//
// compute reports whether its result may be cached; degraded results (for
// example a dashboard with failed counts) are returned but not stored.
// A cached value of the wrong type is dropped and recomputed.
func Remember[T any](ctx context.Context, c *TTLCache, key, subkey string, ttl time.Duration, compute func(context.Context) (T, bool)) T {
	if v, ok := c.Get(key, subkey); ok {
		if typed, ok := v.(T); ok {
			return typed
		}
		log.Warn().Str("key", key).Str("subkey", subkey).Msg("cache slot held unexpected type; recomputing")
		c.dropLocal(key, subkey)
	}

	if c.shared != nil {
		var typed T
		found, remaining, err := c.shared.Load(ctx, sharedKey(key, subkey), &typed)
		switch {
		case err != nil:
			log.Warn().Err(err).Str("key", key).Msg("shared cache load failed")
		case found:
			cacheLookups.WithLabelValues("shared_hit").Inc()
			// The local copy expires with the shared one, not a full ttl later.
			local := ttl
			if remaining > 0 && remaining < ttl {
				local = remaining
			}
			c.Set(key, typed, local, subkey)
			return typed
		}
	}

	v, cacheable := compute(ctx)
	if !cacheable {
		return v
	}
	c.Set(key, v, ttl, subkey)
	if c.shared != nil {
		if err := c.shared.Save(ctx, sharedKey(key, subkey), v, ttl); err != nil {
			log.Warn().Err(err).Str("key", key).Msg("shared cache save failed")
		}
	}
	return v
}

// dropLocal removes (key, subkey) from memory only.
func (c *TTLCache) dropLocal(key, subkey string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if slot := c.slots[key]; slot != nil {
		delete(slot, subkey)
		if len(slot) == 0 {
			delete(c.slots, key)
		}
	}
}
