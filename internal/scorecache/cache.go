// Package scorecache stores qualitative scoring results in Redis so repeated
// evaluations of the same utterance do not hit the chat provider again.
package scorecache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/MrWong99/pronuncia/internal/scoring"
)

// keyPrefix namespaces cache entries in a shared Redis.
const keyPrefix = "pronuncia:score:"

// Client is the subset of go-redis used by [Cache]. *redis.Client and
// *redis.ClusterClient satisfy it.
type Client interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value any, expiration time.Duration) *redis.StatusCmd
	Ping(ctx context.Context) *redis.StatusCmd
}

// Cache implements [scoring.Cache] on top of Redis.
type Cache struct {
	client Client
	ttl    time.Duration
}

var _ scoring.Cache = (*Cache)(nil)

// New returns a Cache storing entries for ttl. A zero ttl keeps entries until
// Redis evicts them.
func New(client Client, ttl time.Duration) *Cache {
	return &Cache{client: client, ttl: ttl}
}

// Dial connects to the Redis server at addr and verifies the connection.
func Dial(ctx context.Context, addr, password string, db int, ttl time.Duration) (*Cache, *redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, nil, fmt.Errorf("scorecache: connect to %s: %w", addr, err)
	}
	return New(client, ttl), client, nil
}

// Get implements [scoring.Cache]. A missing key is reported as (zero, false, nil).
func (c *Cache) Get(ctx context.Context, key string) (scoring.Result, bool, error) {
	raw, err := c.client.Get(ctx, keyPrefix+key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return scoring.Result{}, false, nil
		}
		return scoring.Result{}, false, fmt.Errorf("scorecache: get: %w", err)
	}
	var res scoring.Result
	if err := json.Unmarshal(raw, &res); err != nil {
		return scoring.Result{}, false, fmt.Errorf("scorecache: decode %q: %w", key, err)
	}
	return res, true, nil
}

// Set implements [scoring.Cache].
func (c *Cache) Set(ctx context.Context, key string, res scoring.Result) error {
	raw, err := json.Marshal(res)
	if err != nil {
		return fmt.Errorf("scorecache: encode: %w", err)
	}
	if err := c.client.Set(ctx, keyPrefix+key, raw, c.ttl).Err(); err != nil {
		return fmt.Errorf("scorecache: set: %w", err)
	}
	return nil
}

// Ping reports whether Redis is reachable.
func (c *Cache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}
