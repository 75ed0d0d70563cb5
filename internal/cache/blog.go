// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package cache

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/olegiv/oblog-go/internal/store"
)

const blogKey = "blog:singleton"

// BlogCache caches the singleton blog row, which every page reads.
type BlogCache struct {
	backend Cacher
	queries *store.Queries
	ttl     time.Duration
}

// NewBlogCache creates a blog cache on top of backend.
func NewBlogCache(backend Cacher, queries *store.Queries, ttl time.Duration) *BlogCache {
	return &BlogCache{backend: backend, queries: queries, ttl: ttl}
}

// Get returns the blog, loading it from the database on a miss.
// sql.ErrNoRows is returned while no blog is installed; that result is not cached.
func (c *BlogCache) Get(ctx context.Context) (store.Blog, error) {
	if data, err := c.backend.Get(ctx, blogKey); err == nil {
		var blog store.Blog
		if err := json.Unmarshal(data, &blog); err == nil {
			return blog, nil
		}
	}

	blog, err := c.queries.GetBlog(ctx)
	if err != nil {
		return store.Blog{}, err
	}

	if data, err := json.Marshal(blog); err == nil {
		if err := c.backend.Set(ctx, blogKey, data, c.ttl); err != nil {
			slog.Warn("failed to cache blog", "error", err)
		}
	}
	return blog, nil
}

// Invalidate drops the cached blog after an install or update.
func (c *BlogCache) Invalidate(ctx context.Context) {
	if err := c.backend.Delete(ctx, blogKey); err != nil {
		slog.Warn("failed to invalidate blog cache", "error", err)
	}
}
