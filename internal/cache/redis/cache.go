// Package redis provides a Redis-backed result cache with the same TTL
// contract as the in-process cache, for deployments where extraction
// results should survive restarts or be shared between replicas.
package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/briannabogos1157/threadtwin/internal/dupe"
)

// Envelope kinds stored alongside the payload so Get can rebuild the
// concrete type.
const (
	kindProduct    = "product"
	kindComparison = "comparison"
)

const opTimeout = 2 * time.Second

type envelope struct {
	Kind    string          `json:"kind"`
	Payload json.RawMessage `json:"payload"`
}

// Cache implements dupe.Cache over a Redis client. Expiry is delegated to
// Redis key TTLs; hit/miss counters are process-local.
type Cache struct {
	client     *redis.Client
	prefix     string
	defaultTTL time.Duration

	hits   atomic.Uint64
	misses atomic.Uint64
	sets   atomic.Uint64
}

// New builds a Cache on top of an existing Redis client.
func New(client *redis.Client, prefix string, defaultTTL time.Duration) *Cache {
	if prefix == "" {
		prefix = "threadtwin:results"
	}
	return &Cache{
		client:     client,
		prefix:     prefix,
		defaultTTL: defaultTTL,
	}
}

// Get fetches and decodes the value stored under key. Any transport or
// decode failure is reported as a miss; the caller re-runs the pipeline.
func (c *Cache) Get(key string) (any, bool) {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	raw, err := c.client.Get(ctx, c.namespaced(key)).Bytes()
	if err != nil {
		c.misses.Add(1)
		return nil, false
	}

	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		c.misses.Add(1)
		return nil, false
	}

	value, err := decodePayload(env)
	if err != nil {
		c.misses.Add(1)
		return nil, false
	}
	c.hits.Add(1)
	return value, true
}

// Put stores value under key with the given TTL (default TTL when
// non-positive). Unknown value types are dropped silently so the cache
// stays a best-effort layer.
func (c *Cache) Put(key string, value any, ttl time.Duration) {
	if ttl <= 0 {
		ttl = c.defaultTTL
	}

	env, err := encodePayload(value)
	if err != nil {
		return
	}
	raw, err := json.Marshal(env)
	if err != nil {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()
	if err := c.client.Set(ctx, c.namespaced(key), raw, ttl).Err(); err != nil {
		return
	}
	c.sets.Add(1)
}

// Keys counts live entries under this cache's prefix.
func (c *Cache) Keys() int {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	count := 0
	iter := c.client.Scan(ctx, 0, c.prefix+":*", 0).Iterator()
	for iter.Next(ctx) {
		count++
	}
	return count
}

// Stats returns the process-local hit/miss counters. Expirations happen
// inside Redis and are not observable here.
func (c *Cache) Stats() dupe.CacheStats {
	return dupe.CacheStats{
		Hits:   c.hits.Load(),
		Misses: c.misses.Load(),
		Sets:   c.sets.Load(),
	}
}

func (c *Cache) namespaced(key string) string {
	return c.prefix + ":" + key
}

func encodePayload(value any) (envelope, error) {
	var kind string
	switch value.(type) {
	case dupe.ProductAttributes:
		kind = kindProduct
	case dupe.Comparison:
		kind = kindComparison
	default:
		return envelope{}, fmt.Errorf("uncacheable type %T", value)
	}
	payload, err := json.Marshal(value)
	if err != nil {
		return envelope{}, fmt.Errorf("marshal payload: %w", err)
	}
	return envelope{Kind: kind, Payload: payload}, nil
}

func decodePayload(env envelope) (any, error) {
	switch env.Kind {
	case kindProduct:
		var p dupe.ProductAttributes
		if err := json.Unmarshal(env.Payload, &p); err != nil {
			return nil, fmt.Errorf("unmarshal product: %w", err)
		}
		return p, nil
	case kindComparison:
		var cmp dupe.Comparison
		if err := json.Unmarshal(env.Payload, &cmp); err != nil {
			return nil, fmt.Errorf("unmarshal comparison: %w", err)
		}
		return cmp, nil
	default:
		return nil, fmt.Errorf("unknown payload kind %q", env.Kind)
	}
}
