// Package redis wraps go-redis/v9 for the query cache: pooled connection
// setup, string get/set with TTL, and glob-pattern invalidation.
package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/searchlite/searchlite/pkg/config"
)

const dialTimeout = 5 * time.Second

// Client is a thin veneer over *redis.Client. It exists so the rest of
// the codebase depends on the handful of operations the cache needs
// instead of the full go-redis surface.
type Client struct {
	conn *redis.Client
}

// NewClient connects to Redis and fails fast if the server does not
// answer a PING within the dial timeout.
func NewClient(cfg config.RedisConfig) (*Client, error) {
	conn := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
		PoolSize: cfg.PoolSize,
	})

	ctx, cancel := context.WithTimeout(context.Background(), dialTimeout)
	defer cancel()
	if err := conn.Ping(ctx).Err(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("connecting to redis at %s: %w", cfg.Addr, err)
	}
	return &Client{conn: conn}, nil
}

// Get fetches the string stored under key. A missing key yields an error
// that IsNilError recognizes.
func (c *Client) Get(ctx context.Context, key string) (string, error) {
	return c.conn.Get(ctx, key).Result()
}

// Set stores value under key for the given TTL.
func (c *Client) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	return c.conn.Set(ctx, key, value, ttl).Err()
}

// FlushByPattern removes every key matching the glob pattern, batching
// deletes so large invalidations do not issue one DEL per key. Returns
// the number of keys removed.
func (c *Client) FlushByPattern(ctx context.Context, pattern string) (int64, error) {
	const batchSize = 128

	var removed int64
	batch := make([]string, 0, batchSize)
	flush := func() error {
		if len(batch) == 0 {
			return nil
		}
		n, err := c.conn.Del(ctx, batch...).Result()
		removed += n
		batch = batch[:0]
		return err
	}

	iter := c.conn.Scan(ctx, 0, pattern, batchSize).Iterator()
	for iter.Next(ctx) {
		batch = append(batch, iter.Val())
		if len(batch) == batchSize {
			if err := flush(); err != nil {
				return removed, fmt.Errorf("deleting keys for pattern %s: %w", pattern, err)
			}
		}
	}
	if err := iter.Err(); err != nil {
		return removed, fmt.Errorf("scanning pattern %s: %w", pattern, err)
	}
	if err := flush(); err != nil {
		return removed, fmt.Errorf("deleting keys for pattern %s: %w", pattern, err)
	}
	return removed, nil
}

// IsNilError reports whether err means "key not found".
func IsNilError(err error) bool {
	return err == redis.Nil
}

// Ping checks connectivity, for health reporting.
func (c *Client) Ping(ctx context.Context) error {
	return c.conn.Ping(ctx).Err()
}

// Close releases the connection pool.
func (c *Client) Close() error {
	return c.conn.Close()
}
