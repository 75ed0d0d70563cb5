// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package cache

import (
	"context"
	"sync"
	"sync/atomic"
	"time"
)

// MemoryCache is the single-process backend used when no Redis URL is set.
type MemoryCache struct {
	mu         sync.Mutex
	items      map[string]memoryItem
	defaultTTL time.Duration
	maxItems   int
	stop       chan struct{}
	closed     bool

	hits   atomic.Int64
	misses atomic.Int64
}

type memoryItem struct {
	value     []byte
	expiresAt time.Time
}

func (it memoryItem) expired(now time.Time) bool {
	return !it.expiresAt.IsZero() && now.After(it.expiresAt)
}

// MemoryCacheOptions configures the memory cache.
type MemoryCacheOptions struct {
	DefaultTTL time.Duration
	// MaxItems bounds the number of keys; 0 means unbounded. When full the
	// entry closest to expiry is evicted.
	MaxItems int
	// CleanupInterval sweeps expired keys; 0 disables the sweeper.
	CleanupInterval time.Duration
}

// NewMemoryCache creates a memory cache and starts its sweeper.
func NewMemoryCache(opts MemoryCacheOptions) *MemoryCache {
	c := &MemoryCache{
		items:      make(map[string]memoryItem),
		defaultTTL: opts.DefaultTTL,
		maxItems:   opts.MaxItems,
		stop:       make(chan struct{}),
	}
	if opts.CleanupInterval > 0 {
		go c.sweep(opts.CleanupInterval)
	}
	return c
}

// Get returns a copy of the value stored under key.
func (c *MemoryCache) Get(_ context.Context, key string) ([]byte, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return nil, ErrCacheClosed
	}
	it, ok := c.items[key]
	if !ok || it.expired(time.Now()) {
		if ok {
			delete(c.items, key)
		}
		c.misses.Add(1)
		return nil, ErrCacheMiss
	}
	c.hits.Add(1)
	return append([]byte(nil), it.value...), nil
}

// Set stores a copy of value.
func (c *MemoryCache) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	if ttl == 0 {
		ttl = c.defaultTTL
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return ErrCacheClosed
	}
	if _, exists := c.items[key]; !exists && c.maxItems > 0 && len(c.items) >= c.maxItems {
		c.evictOne()
	}

	it := memoryItem{value: append([]byte(nil), value...)}
	if ttl > 0 {
		it.expiresAt = time.Now().Add(ttl)
	}
	c.items[key] = it
	return nil
}

// Delete removes key. A missing key is not an error.
func (c *MemoryCache) Delete(_ context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return ErrCacheClosed
	}
	delete(c.items, key)
	return nil
}

// Close stops the sweeper and drops every key.
func (c *MemoryCache) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return nil
	}
	c.closed = true
	c.items = nil
	close(c.stop)
	return nil
}

// Stats implements Cacher.
func (c *MemoryCache) Stats() Stats {
	return Stats{Hits: c.hits.Load(), Misses: c.misses.Load()}
}

// Len reports the number of stored keys, expired ones included.
func (c *MemoryCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.items)
}

// evictOne drops the expired or soonest-expiring key. Called with mu held.
func (c *MemoryCache) evictOne() {
	var (
		victim  string
		soonest time.Time
	)
	for k, it := range c.items {
		if victim == "" || (!it.expiresAt.IsZero() && (soonest.IsZero() || it.expiresAt.Before(soonest))) {
			victim, soonest = k, it.expiresAt
		}
	}
	delete(c.items, victim)
}

func (c *MemoryCache) sweep(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-c.stop:
			return
		case now := <-ticker.C:
			c.mu.Lock()
			for k, it := range c.items {
				if it.expired(now) {
					delete(c.items, k)
				}
			}
			c.mu.Unlock()
		}
	}
}

var _ Cacher = (*MemoryCache)(nil)
