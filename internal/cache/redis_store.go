package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

// DefaultRedisPrefix namespaces every key this service writes.
const DefaultRedisPrefix = "glpi-dash:"

// RedisOptions configures NewRedisStore.
type RedisOptions struct {
	Addr     string
	Password string
	DB       int
	Prefix   string
}

// RedisStore is a Store backed by Redis. Values are JSON encoded.
type RedisStore struct {
	client *redis.Client
	prefix string
}

// NewRedisStore connects to Redis. An unreachable server is logged, not
// fatal: the in-process tier keeps serving and shared lookups fail softly.
func NewRedisStore(opts RedisOptions) *RedisStore {
	prefix := opts.Prefix
	if prefix == "" {
		prefix = DefaultRedisPrefix
	}
	client := redis.NewClient(&redis.Options{
		Addr:     opts.Addr,
		Password: opts.Password,
		DB:       opts.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		log.Warn().Err(err).Str("addr", opts.Addr).Msg("unable to reach redis")
	} else {
		log.Info().Str("addr", opts.Addr).Msg("connected to redis")
	}

	return &RedisStore{client: client, prefix: prefix}
}

// Load decodes the value at key into dst and reports its remaining TTL. A
// missing key is (false, 0, nil).
func (s *RedisStore) Load(ctx context.Context, key string, dst any) (bool, time.Duration, error) {
	full := s.prefix + key
	pipe := s.client.Pipeline()
	get := pipe.Get(ctx, full)
	pttl := pipe.PTTL(ctx, full)
	if _, err := pipe.Exec(ctx); err != nil && !errors.Is(err, redis.Nil) {
		return false, 0, err
	}

	raw, err := get.Bytes()
	if errors.Is(err, redis.Nil) {
		return false, 0, nil
	}
	if err != nil {
		return false, 0, err
	}
	// PTTL answers -2 when the key expired between the two commands and -1
	// when it has no expiry.
	remaining := pttl.Val()
	if remaining == -2 {
		return false, 0, nil
	}
	if remaining < 0 {
		remaining = 0
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		// Undecodable payloads are dropped, like a corrupted local slot.
		_ = s.client.Del(ctx, full).Err()
		return false, 0, fmt.Errorf("decode %s: %w", key, err)
	}
	return true, remaining, nil
}

// Save stores v under key for ttl.
func (s *RedisStore) Save(ctx context.Context, key string, v any, ttl time.Duration) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	return s.client.Set(ctx, s.prefix+key, raw, ttl).Err()
}

// Delete removes the given keys.
func (s *RedisStore) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	full := make([]string, len(keys))
	for i, k := range keys {
		full[i] = s.prefix + k
	}
	return s.client.Del(ctx, full...).Err()
}

// DeletePrefix removes every key starting with prefix. An empty prefix
// removes everything this store owns.
func (s *RedisStore) DeletePrefix(ctx context.Context, prefix string) error {
	iter := s.client.Scan(ctx, 0, s.prefix+prefix+"*", 200).Iterator()
	batch := make([]string, 0, 200)
	for iter.Next(ctx) {
		batch = append(batch, iter.Val())
		if len(batch) == cap(batch) {
			if err := s.client.Del(ctx, batch...).Err(); err != nil {
				return err
			}
			batch = batch[:0]
		}
	}
	if err := iter.Err(); err != nil {
		return err
	}
	if len(batch) > 0 {
		return s.client.Del(ctx, batch...).Err()
	}
	return nil
}

// Ping verifies connectivity.
func (s *RedisStore) Ping(ctx context.Context) error {
	if s == nil || s.client == nil {
		return errors.New("redis client not configured")
	}
	return s.client.Ping(ctx).Err()
}

// Close releases the client.
func (s *RedisStore) Close() error {
	if s == nil || s.client == nil {
		return nil
	}
	return s.client.Close()
}
