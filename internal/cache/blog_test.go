// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package cache

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/olegiv/oblog-go/internal/store"
	"github.com/olegiv/oblog-go/internal/testutil"
)

func TestBlogCache(t *testing.T) {
	db, cleanup := testutil.TestDB(t)
	defer cleanup()

	ctx := context.Background()
	q := store.New(db)
	backend := newTestMemoryCache(t, time.Minute)
	bc := NewBlogCache(backend, q, time.Minute)

	if _, err := bc.Get(ctx); !errors.Is(err, sql.ErrNoRows) {
		t.Fatalf("Get before install error = %v, want sql.ErrNoRows", err)
	}
	if _, err := backend.Get(ctx, blogKey); !errors.Is(err, ErrCacheMiss) {
		t.Error("missing blog should not be cached")
	}

	author := testutil.CreateUser(t, q, "author", testutil.UserOpts{Staff: true})
	blog := testutil.CreateBlog(t, q, author)

	got, err := bc.Get(ctx)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.ID != blog.ID {
		t.Errorf("ID = %d, want %d", got.ID, blog.ID)
	}

	if _, err := q.UpdateBlog(ctx, store.UpdateBlogParams{
		ID:             blog.ID,
		Title:          "Django renamed",
		TagLine:        "Django renamed",
		EntriesPerPage: 3,
		Recents:        5,
		RecentComments: 5,
		UpdatedAt:      time.Now().UTC(),
	}); err != nil {
		t.Fatalf("UpdateBlog: %v", err)
	}

	cached, _ := bc.Get(ctx)
	if cached.Title != blog.Title {
		t.Errorf("cached Title = %q, want stale %q", cached.Title, blog.Title)
	}

	bc.Invalidate(ctx)
	fresh, err := bc.Get(ctx)
	if err != nil {
		t.Fatalf("Get after invalidate: %v", err)
	}
	if fresh.Title != "Django renamed" {
		t.Errorf("Title = %q, want %q", fresh.Title, "Django renamed")
	}
}
