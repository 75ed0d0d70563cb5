// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/olegiv/oblog-go/internal/store"
	"github.com/olegiv/oblog-go/internal/testutil"
	"github.com/olegiv/oblog-go/internal/util"
	"github.com/olegiv/oblog-go/internal/validation"
)

type entryFixture struct {
	db     *sql.DB
	q      *store.Queries
	svc    *EntryService
	author store.User
	blog   store.Blog
}

func newEntryFixture(t *testing.T) entryFixture {
	t.Helper()
	db, q := setupDB(t)
	author := testutil.CreateUser(t, q, "writer", testutil.UserOpts{Staff: true})
	blog := testutil.CreateBlog(t, q, author)
	return entryFixture{
		db:     db,
		q:      q,
		svc:    NewEntryService(db, NewSearchService(db, nil), nil),
		author: author,
		blog:   blog,
	}
}

func (f entryFixture) input(title string) EntryInput {
	return EntryInput{
		BlogID:            sql.NullInt64{Int64: f.blog.ID, Valid: true},
		Title:             title,
		Text:              "Some *markdown* text.",
		PublishedDate:     sql.NullTime{Time: now().Add(-time.Minute), Valid: true},
		IsPublished:       true,
		IsCommentsAllowed: true,
		CreatedBy:         sql.NullInt64{Int64: f.author.ID, Valid: true},
	}
}

func TestEntryService_CreateDerivesSlug(t *testing.T) {
	f := newEntryFixture(t)
	ctx := context.Background()

	long := "Django " + strings.Repeat("word ", 20)
	tests := []struct {
		name  string
		title string
		slug  string
		want  string
	}{
		{"derived", "Django Tips & Tricks", "", "django-tips-tricks"},
		{"provided kept", "Django whatever", "My-Custom_slug", "My-Custom_slug"},
		{"truncated", long, "", util.SlugifyMax(long, util.SlugMaxLength)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := f.input(tt.title)
			in.Slug = tt.slug
			e, err := f.svc.Create(ctx, in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, e.Slug)
			assert.LessOrEqual(t, len([]rune(e.Slug)), util.SlugMaxLength)
		})
	}
}

func TestEntryService_TitleMustStartWithPrefix(t *testing.T) {
	f := newEntryFixture(t)

	_, err := f.svc.Create(context.Background(), f.input("Flask tips"))
	var verrs validation.Errors
	require.True(t, errors.As(err, &verrs))
	assert.Equal(t, "Must start with Django", verrs["title"])

	n, err := f.q.CountEntries(context.Background())
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestEntryService_UpdateKeepsCreatedDate(t *testing.T) {
	f := newEntryFixture(t)
	ctx := context.Background()

	e, err := f.svc.Create(ctx, f.input("Django first"))
	require.NoError(t, err)

	in := InputFromEntry(e)
	in.Title = "Django first, revised"
	in.Slug = ""
	updated, err := f.svc.Update(ctx, e.ID, in)
	require.NoError(t, err)
	assert.Equal(t, "django-first-revised", updated.Slug)
	assert.True(t, e.CreatedDate.Equal(updated.CreatedDate))

	_, err = f.svc.Update(ctx, 9999, in)
	assert.ErrorIs(t, err, sql.ErrNoRows)
}

func TestEntryService_GetByDateSlug(t *testing.T) {
	f := newEntryFixture(t)
	ctx := context.Background()
	day := time.Date(2024, 3, 5, 10, 0, 0, 0, time.UTC)

	testutil.CreateEntry(t, f.q, f.blog, f.author, "Django one", "one", testutil.EntryOpts{CreatedAt: day})
	testutil.CreateEntry(t, f.q, f.blog, f.author, "Django hidden", "hidden", testutil.EntryOpts{CreatedAt: day, Unpublished: true})
	testutil.CreateEntry(t, f.q, f.blog, f.author, "Django twin", "twin", testutil.EntryOpts{CreatedAt: day})
	testutil.CreateEntry(t, f.q, f.blog, f.author, "Django twin", "twin", testutil.EntryOpts{CreatedAt: day.Add(time.Hour)})
	testutil.CreateEntry(t, f.q, f.blog, f.author, "Django future", "future", testutil.EntryOpts{
		CreatedAt:   day,
		PublishedAt: time.Now().Add(48 * time.Hour),
	})

	e, err := f.svc.GetByDateSlug(ctx, 2024, 3, 5, "one")
	require.NoError(t, err)
	assert.Equal(t, "Django one", e.Title)
	assert.Equal(t, "/2024/03/05/one/", EntryURL(e))

	// The detail page only checks the published flag.
	_, err = f.svc.GetByDateSlug(ctx, 2024, 3, 5, "future")
	assert.NoError(t, err)

	for _, tc := range []struct {
		name             string
		year, month, day int
		slug             string
	}{
		{"wrong day", 2024, 3, 6, "one"},
		{"unpublished", 2024, 3, 5, "hidden"},
		{"ambiguous", 2024, 3, 5, "twin"},
		{"invalid date", 2024, 2, 31, "one"},
		{"unknown slug", 2024, 3, 5, "nope"},
	} {
		t.Run(tc.name, func(t *testing.T) {
			_, err := f.svc.GetByDateSlug(ctx, tc.year, tc.month, tc.day, tc.slug)
			assert.ErrorIs(t, err, ErrNotFound)
		})
	}
}

func TestEntryService_ListVisible(t *testing.T) {
	f := newEntryFixture(t)
	ctx := context.Background()
	base := time.Now().UTC().Add(-24 * time.Hour)

	for i := 0; i < 5; i++ {
		testutil.CreateEntry(t, f.q, f.blog, f.author, fmt.Sprintf("Django %d", i), fmt.Sprintf("e%d", i),
			testutil.EntryOpts{CreatedAt: base.Add(time.Duration(i) * time.Minute)})
	}
	testutil.CreateEntry(t, f.q, f.blog, f.author, "Django draft", "draft", testutil.EntryOpts{Unpublished: true})
	testutil.CreateEntry(t, f.q, f.blog, f.author, "Django later", "later", testutil.EntryOpts{PublishedAt: time.Now().Add(time.Hour)})

	page, err := f.svc.ListVisible(ctx, 1, 2)
	require.NoError(t, err)
	assert.Equal(t, int64(5), page.Total)
	assert.Equal(t, 3, page.Pages())
	require.Len(t, page.Items, 2)
	assert.Equal(t, "e4", page.Items[0].Slug)
	assert.Equal(t, "e3", page.Items[1].Slug)
	assert.False(t, page.HasPrev())
	assert.True(t, page.HasNext())

	page, err = f.svc.ListVisible(ctx, 3, 2)
	require.NoError(t, err)
	require.Len(t, page.Items, 1)
	assert.Equal(t, "e0", page.Items[0].Slug)

	_, err = f.svc.ListVisible(ctx, 4, 2)
	assert.ErrorIs(t, err, ErrPageOutOfRange)
	_, err = f.svc.ListVisible(ctx, 0, 2)
	assert.ErrorIs(t, err, ErrPageOutOfRange)
}

func TestEntryService_ListVisibleByAuthor(t *testing.T) {
	f := newEntryFixture(t)
	ctx := context.Background()
	other := testutil.CreateUser(t, f.q, "other", testutil.UserOpts{Staff: true})

	testutil.CreateEntry(t, f.q, f.blog, f.author, "Django mine", "mine", testutil.EntryOpts{})
	testutil.CreateEntry(t, f.q, f.blog, f.author, "Django draft", "draft", testutil.EntryOpts{Unpublished: true})
	testutil.CreateEntry(t, f.q, f.blog, other, "Django theirs", "theirs", testutil.EntryOpts{})

	page, err := f.svc.ListVisibleByAuthor(ctx, f.author.ID, 1, 10)
	require.NoError(t, err)
	require.Len(t, page.Items, 1)
	assert.Equal(t, "mine", page.Items[0].Slug)

	page, err = f.svc.ListVisibleByAuthor(ctx, 9999, 1, 10)
	require.NoError(t, err)
	assert.Empty(t, page.Items)
}

func TestEntryService_DeleteRemovesFromIndex(t *testing.T) {
	f := newEntryFixture(t)
	ctx := context.Background()
	search := NewSearchService(f.db, nil)

	e, err := f.svc.Create(ctx, f.input("Django searchable"))
	require.NoError(t, err)

	res, err := search.Search(ctx, "searchable", 1, 0)
	require.NoError(t, err)
	assert.Equal(t, int64(1), res.Total)

	require.NoError(t, f.svc.Delete(ctx, e.ID))

	res, err = search.Search(ctx, "searchable", 1, 0)
	require.NoError(t, err)
	assert.Zero(t, res.Total)
}

func TestEntryWritePolicy(t *testing.T) {
	owner := store.User{ID: 1}
	stranger := store.User{ID: 2}
	mine := store.Entry{ID: 10, CreatedBy: sql.NullInt64{Int64: 1, Valid: true}}
	orphan := store.Entry{ID: 11}
	entries := []store.Entry{mine, orphan}

	var policy EntryWritePolicy

	got, err := policy.Authorize(owner, "PUT", entries)
	require.NoError(t, err)
	assert.Equal(t, []store.Entry{mine}, got)

	_, err = policy.Authorize(stranger, "DELETE", entries)
	assert.ErrorIs(t, err, ErrNotAuthorized)

	got, err = policy.Authorize(stranger, "GET", entries)
	require.NoError(t, err)
	assert.Len(t, got, 2)
}
