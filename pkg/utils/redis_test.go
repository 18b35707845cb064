package utils

import (
	"context"
	"testing"
	"time"
)

func TestRedisConfig_Defaults(t *testing.T) {
	c := RedisConfig{Addr: "localhost:6379"}.withDefaults()
	if c.PoolSize != 10 || c.WriteTimeout != 5*time.Second || c.PingTimeout != 2*time.Second {
		t.Fatalf("unexpected defaults: %+v", c)
	}
	if _, err := OpenRedis(context.Background(), RedisConfig{}); err == nil {
		t.Fatalf("expected addr required")
	}
}

func TestAcquireSlot_ValidatesInput(t *testing.T) {
	ctx := context.Background()
	if _, _, err := AcquireSlot(ctx, nil, "k", 1, time.Second); err == nil {
		t.Fatalf("expected error for nil client")
	}
	if err := ReleaseSlot(ctx, nil, "k", "t"); err == nil {
		t.Fatalf("expected error for nil client")
	}
	if slotAcquireScript == nil {
		t.Fatalf("expected script to be initialized")
	}
}

func TestResultCache_NilClientIsMiss(t *testing.T) {
	c := NewResultCache(nil, "reconcile", 0)
	if c.ttl != 15*time.Minute {
		t.Fatalf("expected default ttl, got %v", c.ttl)
	}
	if c.key("abc") != "reconcile:abc" {
		t.Fatalf("unexpected key %q", c.key("abc"))
	}
	if err := c.Set(context.Background(), "abc", []byte("x")); err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if _, ok, err := c.Get(context.Background(), "abc"); ok || err != nil {
		t.Fatalf("expected miss, got ok=%v err=%v", ok, err)
	}
}
