// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package cache

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"
)

// skipIfNoRedis skips the test if Redis is not configured.
func skipIfNoRedis(t *testing.T) string {
	url := os.Getenv("OBLOG_TEST_REDIS_URL")
	if url == "" {
		t.Skip("Skipping Redis tests: OBLOG_TEST_REDIS_URL not set")
	}
	return url
}

func TestRedisCache_Basic(t *testing.T) {
	url := skipIfNoRedis(t)

	c, err := NewRedisCacheFromURL(url, "oblog-test:", time.Minute)
	if err != nil {
		t.Fatalf("failed to create Redis cache: %v", err)
	}
	defer func() { _ = c.Close() }()

	ctx := context.Background()

	if err := c.Set(ctx, "key", []byte("value"), time.Minute); err != nil {
		t.Fatalf("Set failed: %v", err)
	}

	got, err := c.Get(ctx, "key")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if string(got) != "value" {
		t.Errorf("Get returned %q, want %q", got, "value")
	}

	if err := c.Delete(ctx, "key"); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if _, err := c.Get(ctx, "key"); !errors.Is(err, ErrCacheMiss) {
		t.Errorf("Get after delete error = %v, want ErrCacheMiss", err)
	}
	if stats := c.Stats(); stats != (Stats{Hits: 1, Misses: 1}) {
		t.Errorf("stats = %+v, want 1 hit and 1 miss", stats)
	}
}

func TestNewRedisCacheFromURL_Errors(t *testing.T) {
	for _, url := range []string{"", "not a url", "redis://127.0.0.1:1/0"} {
		if _, err := NewRedisCacheFromURL(url, "oblog-test:", time.Minute); err == nil {
			t.Errorf("NewRedisCacheFromURL(%q) succeeded, want error", url)
		}
	}
}
