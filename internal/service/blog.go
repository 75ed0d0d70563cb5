// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/olegiv/oblog-go/internal/cache"
	"github.com/olegiv/oblog-go/internal/model"
	"github.com/olegiv/oblog-go/internal/store"
	"github.com/olegiv/oblog-go/internal/validation"
)

// BlogService manages the singleton blog.
type BlogService struct {
	db      *sql.DB
	queries *store.Queries
	cache   *cache.BlogCache
}

// NewBlogService creates a blog service. blogCache may be nil.
func NewBlogService(db *sql.DB, blogCache *cache.BlogCache) *BlogService {
	return &BlogService{
		db:      db,
		queries: store.New(db),
		cache:   blogCache,
	}
}

// Get returns the installed blog, or sql.ErrNoRows when there is none.
func (s *BlogService) Get(ctx context.Context) (store.Blog, error) {
	if s.cache != nil {
		return s.cache.Get(ctx)
	}
	return s.queries.GetBlog(ctx)
}

// GetByID returns the blog with id.
func (s *BlogService) GetByID(ctx context.Context, id int64) (store.Blog, error) {
	return s.queries.GetBlogByID(ctx, id)
}

// ForAuthor returns the blog owned by userID, if any.
func (s *BlogService) ForAuthor(ctx context.Context, userID int64) (store.Blog, error) {
	return s.queries.GetBlogByAuthor(ctx, userID)
}

// State reports where the installation is in its lifecycle.
func (s *BlogService) State(ctx context.Context) (model.BlogState, error) {
	if _, err := s.Get(ctx); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.BlogUninstalled, nil
		}
		return model.BlogUninstalled, err
	}

	n, err := s.queries.CountEntries(ctx)
	if err != nil {
		return model.BlogUninstalled, err
	}
	if n == 0 {
		return model.BlogEmpty, nil
	}
	return model.BlogPopulated, nil
}

// applyBlogDefaults fills unset counters with the model defaults.
func applyBlogDefaults(form *validation.BlogForm) {
	if form.EntriesPerPage == 0 {
		form.EntriesPerPage = model.DefaultEntriesPerPage
	}
	if form.Recents == 0 {
		form.Recents = model.DefaultRecents
	}
	if form.RecentComments == 0 {
		form.RecentComments = model.DefaultRecentComments
	}
}

// Install creates the blog owned by authorID. The existence check and the
// insert share one transaction, and the schema admits a single row, so a
// concurrent second install fails with ErrBlogExists.
func (s *BlogService) Install(ctx context.Context, authorID int64, form validation.BlogForm) (store.Blog, error) {
	applyBlogDefaults(&form)
	if err := form.Validate(); err != nil {
		return store.Blog{}, err
	}

	var blog store.Blog
	err := store.InTx(ctx, s.db, func(q *store.Queries) error {
		n, err := q.CountBlogs(ctx)
		if err != nil {
			return err
		}
		if n > 0 {
			return ErrBlogExists
		}

		t := now()
		blog, err = q.CreateBlog(ctx, store.CreateBlogParams{
			Title:          form.Title,
			TagLine:        form.TagLine,
			EntriesPerPage: int64(form.EntriesPerPage),
			Recents:        int64(form.Recents),
			RecentComments: int64(form.RecentComments),
			AuthorID:       authorID,
			CreatedAt:      t,
			UpdatedAt:      t,
		})
		if isUniqueViolation(err) {
			return ErrBlogExists
		}
		return err
	})
	if err != nil {
		return store.Blog{}, err
	}

	s.invalidate(ctx)
	return blog, nil
}

// Update edits the existing blog.
func (s *BlogService) Update(ctx context.Context, id int64, form validation.BlogForm) (store.Blog, error) {
	applyBlogDefaults(&form)
	if err := form.Validate(); err != nil {
		return store.Blog{}, err
	}

	blog, err := s.queries.UpdateBlog(ctx, store.UpdateBlogParams{
		Title:          form.Title,
		TagLine:        form.TagLine,
		EntriesPerPage: int64(form.EntriesPerPage),
		Recents:        int64(form.Recents),
		RecentComments: int64(form.RecentComments),
		UpdatedAt:      now(),
		ID:             id,
	})
	if err != nil {
		return store.Blog{}, fmt.Errorf("updating blog %d: %w", id, err)
	}

	s.invalidate(ctx)
	return blog, nil
}

func (s *BlogService) invalidate(ctx context.Context) {
	if s.cache != nil {
		s.cache.Invalidate(ctx)
	}
}

// isUniqueViolation reports whether err is a SQLite UNIQUE constraint failure.
func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}
