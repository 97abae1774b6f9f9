// Package cache implements a Redis-backed query-result cache. Entries are
// opaque JSON payloads keyed by a hash of the search window; a circuit
// breaker keeps a dead Redis from slowing every query, and singleflight
// collapses concurrent misses for the same key.
package cache

import (
	"context"
	"crypto/sha256"
	"fmt"
	"log/slog"
	"sync/atomic"

	"golang.org/x/sync/singleflight"

	"github.com/searchlite/searchlite/pkg/config"
	"github.com/searchlite/searchlite/pkg/logger"
	pkgredis "github.com/searchlite/searchlite/pkg/redis"
	"github.com/searchlite/searchlite/pkg/resilience"
)

const keyPrefix = "search:"

// QueryCache caches serialized search responses in Redis.
type QueryCache struct {
	client  *pkgredis.Client
	cfg     config.RedisConfig
	breaker *resilience.CircuitBreaker
	group   singleflight.Group
	logger  *slog.Logger
	hits    atomic.Int64
	misses  atomic.Int64
}

// New creates a QueryCache on top of an established Redis client.
func New(client *pkgredis.Client, cfg config.RedisConfig) *QueryCache {
	return &QueryCache{
		client:  client,
		cfg:     cfg,
		breaker: resilience.NewCircuitBreaker("query-cache", resilience.CircuitBreakerConfig{}),
		logger:  logger.WithComponent("query-cache"),
	}
}

// Get returns the cached payload for the given search window, if present.
func (c *QueryCache) Get(ctx context.Context, query string, offset, limit int) ([]byte, bool) {
	key := buildKey(query, offset, limit)
	var data string
	err := c.breaker.Execute(func() error {
		var getErr error
		data, getErr = c.client.Get(ctx, key)
		if pkgredis.IsNilError(getErr) {
			data = ""
			return nil
		}
		return getErr
	})
	if err != nil {
		c.logger.Error("cache get failed", "key", key, "error", err)
		c.misses.Add(1)
		return nil, false
	}
	if data == "" {
		c.misses.Add(1)
		return nil, false
	}
	c.hits.Add(1)
	c.logger.Debug("cache hit", "query", query, "key", key)
	return []byte(data), true
}

// Set stores a payload for the given search window with the configured TTL.
func (c *QueryCache) Set(ctx context.Context, query string, offset, limit int, payload []byte) {
	key := buildKey(query, offset, limit)
	err := c.breaker.Execute(func() error {
		return c.client.Set(ctx, key, payload, c.cfg.CacheTTL)
	})
	if err != nil {
		c.logger.Error("cache set failed", "key", key, "error", err)
	}
}

// GetOrCompute returns the cached payload or computes, stores, and returns
// it. Concurrent callers for the same key share a single computation.
func (c *QueryCache) GetOrCompute(
	ctx context.Context,
	query string,
	offset, limit int,
	computeFn func() ([]byte, error),
) (payload []byte, cached bool, err error) {
	if data, ok := c.Get(ctx, query, offset, limit); ok {
		return data, true, nil
	}
	key := buildKey(query, offset, limit)
	val, err, _ := c.group.Do(key, func() (interface{}, error) {
		if data, ok := c.Get(ctx, query, offset, limit); ok {
			return data, nil
		}
		data, err := computeFn()
		if err != nil {
			return nil, err
		}
		c.Set(ctx, query, offset, limit, data)
		return data, nil
	})
	if err != nil {
		return nil, false, err
	}
	return val.([]byte), false, nil
}

// Invalidate drops every cached search response. Called after any index
// mutation, since stale rankings must not outlive the postings that
// produced them.
func (c *QueryCache) Invalidate(ctx context.Context) error {
	var deleted int64
	err := c.breaker.Execute(func() error {
		var flushErr error
		deleted, flushErr = c.client.FlushByPattern(ctx, keyPrefix+"*")
		return flushErr
	})
	if err != nil {
		return fmt.Errorf("invalidating cache: %w", err)
	}
	c.logger.Debug("cache invalidated", "keys_deleted", deleted)
	return nil
}

// Stats returns lifetime hit and miss counts.
func (c *QueryCache) Stats() (hits, misses int64) {
	return c.hits.Load(), c.misses.Load()
}

// BreakerState returns the cache circuit breaker's current state.
func (c *QueryCache) BreakerState() resilience.State {
	return c.breaker.GetState()
}

func buildKey(query string, offset, limit int) string {
	raw := fmt.Sprintf("%s|offset=%d|limit=%d", query, offset, limit)
	hash := sha256.Sum256([]byte(raw))
	return fmt.Sprintf("%s%x", keyPrefix, hash[:16])
}
