// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package cache

import (
	"context"
	"errors"
	"testing"
	"time"
)

func newTestMemoryCache(t *testing.T, ttl time.Duration) *MemoryCache {
	t.Helper()
	c := NewMemoryCache(MemoryCacheOptions{DefaultTTL: ttl})
	t.Cleanup(func() { _ = c.Close() })
	return c
}

func TestMemoryCache_SetGet(t *testing.T) {
	c := newTestMemoryCache(t, time.Minute)
	ctx := context.Background()

	if err := c.Set(ctx, "key", []byte("value"), 0); err != nil {
		t.Fatalf("Set: %v", err)
	}

	got, err := c.Get(ctx, "key")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if string(got) != "value" {
		t.Errorf("Get = %q, want %q", got, "value")
	}

	// Mutating the returned slice must not affect the stored value.
	got[0] = 'X'
	again, _ := c.Get(ctx, "key")
	if string(again) != "value" {
		t.Errorf("stored value mutated to %q", again)
	}
}

func TestMemoryCache_Miss(t *testing.T) {
	c := newTestMemoryCache(t, time.Minute)

	_, err := c.Get(context.Background(), "missing")
	if !errors.Is(err, ErrCacheMiss) {
		t.Errorf("Get error = %v, want ErrCacheMiss", err)
	}
}

func TestMemoryCache_Expiry(t *testing.T) {
	c := newTestMemoryCache(t, time.Minute)
	ctx := context.Background()

	if err := c.Set(ctx, "short", []byte("v"), 10*time.Millisecond); err != nil {
		t.Fatalf("Set: %v", err)
	}
	time.Sleep(20 * time.Millisecond)

	if _, err := c.Get(ctx, "short"); !errors.Is(err, ErrCacheMiss) {
		t.Errorf("Get after expiry error = %v, want ErrCacheMiss", err)
	}
	if got := c.Len(); got != 0 {
		t.Errorf("Len after expired Get = %d, want 0", got)
	}
}

func TestMemoryCache_Delete(t *testing.T) {
	c := newTestMemoryCache(t, time.Minute)
	ctx := context.Background()

	_ = c.Set(ctx, "blog:singleton", []byte("1"), 0)
	if err := c.Delete(ctx, "blog:singleton"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := c.Get(ctx, "blog:singleton"); !errors.Is(err, ErrCacheMiss) {
		t.Errorf("Get after Delete error = %v, want ErrCacheMiss", err)
	}
	if err := c.Delete(ctx, "never-set"); err != nil {
		t.Errorf("Delete of a missing key: %v", err)
	}
}

func TestMemoryCache_EvictsSoonestExpiry(t *testing.T) {
	c := NewMemoryCache(MemoryCacheOptions{DefaultTTL: time.Hour, MaxItems: 2})
	t.Cleanup(func() { _ = c.Close() })
	ctx := context.Background()

	_ = c.Set(ctx, "long", []byte("1"), time.Hour)
	_ = c.Set(ctx, "short", []byte("2"), time.Minute)
	_ = c.Set(ctx, "new", []byte("3"), time.Hour)

	if got := c.Len(); got != 2 {
		t.Fatalf("Len = %d, want 2", got)
	}
	if _, err := c.Get(ctx, "short"); !errors.Is(err, ErrCacheMiss) {
		t.Error("the soonest-expiring key should be evicted")
	}
	for _, k := range []string{"long", "new"} {
		if _, err := c.Get(ctx, k); err != nil {
			t.Errorf("Get(%q): %v", k, err)
		}
	}

	// Overwriting an existing key never evicts.
	_ = c.Set(ctx, "new", []byte("4"), time.Hour)
	if got := c.Len(); got != 2 {
		t.Errorf("Len after overwrite = %d, want 2", got)
	}
}

func TestMemoryCache_Sweeper(t *testing.T) {
	c := NewMemoryCache(MemoryCacheOptions{DefaultTTL: time.Minute, CleanupInterval: 5 * time.Millisecond})
	t.Cleanup(func() { _ = c.Close() })

	_ = c.Set(context.Background(), "k", []byte("v"), time.Millisecond)
	deadline := time.Now().Add(time.Second)
	for c.Len() != 0 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	if got := c.Len(); got != 0 {
		t.Errorf("Len = %d, want the sweeper to drop the expired key", got)
	}
}

func TestMemoryCache_Stats(t *testing.T) {
	c := newTestMemoryCache(t, time.Minute)
	ctx := context.Background()

	_ = c.Set(ctx, "k", []byte("v"), 0)
	_, _ = c.Get(ctx, "k")
	_, _ = c.Get(ctx, "missing")

	if stats := c.Stats(); stats != (Stats{Hits: 1, Misses: 1}) {
		t.Errorf("stats = %+v, want 1 hit and 1 miss", stats)
	}
}

func TestMemoryCache_Closed(t *testing.T) {
	c := NewMemoryCache(MemoryCacheOptions{DefaultTTL: time.Minute, CleanupInterval: time.Millisecond})
	_ = c.Close()
	_ = c.Close()

	if err := c.Set(context.Background(), "k", []byte("v"), 0); !errors.Is(err, ErrCacheClosed) {
		t.Errorf("Set after Close error = %v, want ErrCacheClosed", err)
	}
}

func TestNew_FallsBackToMemory(t *testing.T) {
	cfg := DefaultConfig()
	cfg.RedisURL = "redis://127.0.0.1:1/0"

	c, backend := New(cfg)
	defer func() { _ = c.Close() }()

	if backend != BackendMemory {
		t.Errorf("backend = %q, want %q", backend, BackendMemory)
	}
	if _, ok := c.(*MemoryCache); !ok {
		t.Errorf("cache type = %T, want *MemoryCache", c)
	}
}
