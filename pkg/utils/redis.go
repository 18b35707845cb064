package utils

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// RedisConfig controls the redis client shared by the run cap and the result cache.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int

	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	PoolSize     int
	PingTimeout  time.Duration
}

func (c RedisConfig) withDefaults() RedisConfig {
	out := c
	if out.DialTimeout <= 0 {
		out.DialTimeout = 3 * time.Second
	}
	if out.ReadTimeout <= 0 {
		out.ReadTimeout = 2 * time.Second
	}
	// cached results are whole output files
	if out.WriteTimeout <= 0 {
		out.WriteTimeout = 5 * time.Second
	}
	if out.PoolSize <= 0 {
		out.PoolSize = 10
	}
	if out.PingTimeout <= 0 {
		out.PingTimeout = 2 * time.Second
	}
	return out
}

// OpenRedis initializes a Redis client and validates connectivity via PING.
func OpenRedis(ctx context.Context, cfg RedisConfig) (*redis.Client, error) {
	cfg = cfg.withDefaults()
	if cfg.Addr == "" {
		return nil, errors.New("redis addr is required")
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:         cfg.Addr,
		Password:     cfg.Password,
		DB:           cfg.DB,
		DialTimeout:  cfg.DialTimeout,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		PoolSize:     cfg.PoolSize,
	})

	pingCtx, cancel := context.WithTimeout(ctx, cfg.PingTimeout)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}
	return rdb, nil
}

// slotAcquireScript keeps one sorted-set member per running holder, scored by
// its expiry in unix ms. Expired holders are dropped before counting.
//
// KEYS[1] = slot set, ARGV[1] = limit, ARGV[2] = now ms, ARGV[3] = ttl ms, ARGV[4] = token
var slotAcquireScript = redis.NewScript(`
redis.call('ZREMRANGEBYSCORE', KEYS[1], '-inf', ARGV[2])
if redis.call('ZCARD', KEYS[1]) >= tonumber(ARGV[1]) then
  return 0
end
local expires = tonumber(ARGV[2]) + tonumber(ARGV[3])
redis.call('ZADD', KEYS[1], expires, ARGV[4])
redis.call('PEXPIRE', KEYS[1], ARGV[3])
return 1
`)

// AcquireSlot takes one of limit slots under key for at most ttl. It returns
// the token to pass to ReleaseSlot, or ok=false when every slot is held. A holder
// that dies without releasing frees its slot once ttl passes.
func AcquireSlot(ctx context.Context, rdb *redis.Client, key string, limit int, ttl time.Duration) (token string, ok bool, err error) {
	switch {
	case rdb == nil:
		return "", false, errors.New("redis client is nil")
	case key == "":
		return "", false, errors.New("key is required")
	case limit <= 0:
		return "", false, errors.New("limit must be > 0")
	case ttl <= 0:
		return "", false, errors.New("ttl must be > 0")
	}

	token = uuid.NewString()
	now := strconv.FormatInt(time.Now().UnixMilli(), 10)
	res, err := slotAcquireScript.Run(ctx, rdb, []string{key}, limit, now, ttl.Milliseconds(), token).Int()
	if err != nil {
		return "", false, err
	}
	if res != 1 {
		return "", false, nil
	}
	return token, true, nil
}

// ReleaseSlot gives back the slot held by token. Releasing twice is a no-op.
func ReleaseSlot(ctx context.Context, rdb *redis.Client, key, token string) error {
	if rdb == nil {
		return errors.New("redis client is nil")
	}
	if key == "" || token == "" {
		return errors.New("key and token are required")
	}
	return rdb.ZRem(ctx, key, token).Err()
}
