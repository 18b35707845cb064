package utils

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// ResultCache stores opaque payloads in redis under a namespaced key with a TTL.
// A nil client turns every call into a miss, so callers can run without redis.
type ResultCache struct {
	rdb    *redis.Client
	prefix string
	ttl    time.Duration
}

func NewResultCache(rdb *redis.Client, prefix string, ttl time.Duration) *ResultCache {
	if ttl <= 0 {
		ttl = 15 * time.Minute
	}
	return &ResultCache{rdb: rdb, prefix: prefix, ttl: ttl}
}

func (c *ResultCache) key(k string) string {
	return fmt.Sprintf("%s:%s", c.prefix, k)
}

// Get returns the payload stored under k.
func (c *ResultCache) Get(ctx context.Context, k string) ([]byte, bool, error) {
	if c == nil || c.rdb == nil {
		return nil, false, nil
	}
	b, err := c.rdb.Get(ctx, c.key(k)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return b, true, nil
}

// Set stores payload under k for the cache TTL.
func (c *ResultCache) Set(ctx context.Context, k string, payload []byte) error {
	if c == nil || c.rdb == nil {
		return nil
	}
	return c.rdb.Set(ctx, c.key(k), payload, c.ttl).Err()
}
