// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package testutil provides shared test helpers: a migrated temporary
// database, quiet loggers and row fixtures.
package testutil

import (
	"context"
	"database/sql"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/olegiv/oblog-go/internal/auth"
	"github.com/olegiv/oblog-go/internal/model"
	"github.com/olegiv/oblog-go/internal/store"
	"github.com/olegiv/oblog-go/internal/util"
)

// TestPassword is the raw password given to fixture users.
const TestPassword = "secret1"

// TestLogger creates a test logger that only outputs warnings and errors.
func TestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelWarn,
	}))
}

// TestDB creates a temporary test database with migrations applied.
// Returns the database and a cleanup function that should be deferred.
func TestDB(t *testing.T) (*sql.DB, func()) {
	t.Helper()

	f, err := os.CreateTemp(t.TempDir(), "oblog-test-*.db")
	if err != nil {
		t.Fatalf("creating temp file: %v", err)
	}
	dbPath := f.Name()
	_ = f.Close()

	db, err := store.NewDB(dbPath)
	if err != nil {
		t.Fatalf("NewDB: %v", err)
	}

	if err := store.Migrate(context.Background(), db); err != nil {
		_ = db.Close()
		t.Fatalf("Migrate: %v", err)
	}

	return db, func() { _ = db.Close() }
}

// UserOpts customizes CreateUser.
type UserOpts struct {
	Email       string
	Staff       bool
	Superuser   bool
	Inactive    bool
	Permissions []string
}

// CreateUser inserts a user whose password is TestPassword.
func CreateUser(t *testing.T, q *store.Queries, username string, opts UserOpts) store.User {
	t.Helper()
	ctx := context.Background()

	hash, err := auth.HashPassword(TestPassword)
	if err != nil {
		t.Fatalf("HashPassword: %v", err)
	}

	email := opts.Email
	if email == "" {
		email = username + "@example.com"
	}

	user, err := q.CreateUser(ctx, store.CreateUserParams{
		Username:     username,
		Email:        email,
		FirstName:    "Test",
		LastName:     "User",
		PasswordHash: hash,
		IsStaff:      opts.Staff,
		IsSuperuser:  opts.Superuser,
		IsActive:     !opts.Inactive,
		DateJoined:   time.Now().UTC(),
	})
	if err != nil {
		t.Fatalf("CreateUser(%s): %v", username, err)
	}

	for _, perm := range opts.Permissions {
		if err := q.GrantPermission(ctx, store.GrantPermissionParams{UserID: user.ID, Codename: perm}); err != nil {
			t.Fatalf("GrantPermission(%s): %v", perm, err)
		}
	}
	return user
}

// CreateBlog installs the singleton blog owned by author.
func CreateBlog(t *testing.T, q *store.Queries, author store.User) store.Blog {
	t.Helper()
	now := time.Now().UTC()
	blog, err := q.CreateBlog(context.Background(), store.CreateBlogParams{
		Title:          "Django blog",
		TagLine:        "Django blog",
		EntriesPerPage: model.DefaultEntriesPerPage,
		Recents:        model.DefaultRecents,
		RecentComments: model.DefaultRecentComments,
		AuthorID:       author.ID,
		CreatedAt:      now,
		UpdatedAt:      now,
	})
	if err != nil {
		t.Fatalf("CreateBlog: %v", err)
	}
	return blog
}

// EntryOpts customizes CreateEntry.
type EntryOpts struct {
	Text        string
	Unpublished bool
	// PublishedAt defaults to one hour before now.
	PublishedAt time.Time
	CreatedAt   time.Time
	NoComments  bool
}

// CreateEntry inserts an entry with a slug derived from the title.
func CreateEntry(t *testing.T, q *store.Queries, blog store.Blog, author store.User, title, slug string, opts EntryOpts) store.Entry {
	t.Helper()
	now := time.Now().UTC()

	published := opts.PublishedAt
	if published.IsZero() {
		published = now.Add(-time.Hour)
	}
	created := opts.CreatedAt
	if created.IsZero() {
		created = now
	}

	entry, err := q.CreateEntry(context.Background(), store.CreateEntryParams{
		BlogID:            util.NullID(blog.ID),
		Title:             title,
		Slug:              slug,
		Text:              opts.Text,
		PublishedDate:     util.NullTime(published),
		IsPublished:       !opts.Unpublished,
		IsCommentsAllowed: !opts.NoComments,
		CreatedBy:         util.NullID(author.ID),
		CreatedDate:       created.UTC(),
		UpdatedAt:         now,
	})
	if err != nil {
		t.Fatalf("CreateEntry(%s): %v", title, err)
	}
	return entry
}
