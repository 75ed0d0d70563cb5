// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package service

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/olegiv/oblog-go/internal/metrics"
	"github.com/olegiv/oblog-go/internal/store"
	"github.com/olegiv/oblog-go/internal/util"
	"github.com/olegiv/oblog-go/internal/validation"
)

// EntryInput carries the writable fields of an entry.
type EntryInput struct {
	BlogID            sql.NullInt64
	Title             string
	Slug              string
	Text              string
	Summary           string
	PublishedDate     sql.NullTime
	IsPublished       bool
	IsCommentsAllowed bool
	MetaKeywords      string
	MetaDescription   string
	CreatedBy         sql.NullInt64
}

// InputFromEntry returns the writable fields of e, for partial updates.
func InputFromEntry(e store.Entry) EntryInput {
	return EntryInput{
		BlogID:            e.BlogID,
		Title:             e.Title,
		Slug:              e.Slug,
		Text:              e.Text,
		Summary:           e.Summary,
		PublishedDate:     e.PublishedDate,
		IsPublished:       e.IsPublished,
		IsCommentsAllowed: e.IsCommentsAllowed,
		MetaKeywords:      e.MetaKeywords,
		MetaDescription:   e.MetaDescription,
		CreatedBy:         e.CreatedBy,
	}
}

func (in EntryInput) validate() error {
	form := validation.EntryForm{
		Title:             in.Title,
		Slug:              in.Slug,
		Text:              in.Text,
		Summary:           in.Summary,
		MetaKeywords:      in.MetaKeywords,
		MetaDescription:   in.MetaDescription,
		IsCommentsAllowed: in.IsCommentsAllowed,
		CreatedBy:         in.CreatedBy.Int64,
	}
	return form.Validate()
}

// slug returns the provided slug, or one derived from the title.
func (in EntryInput) slug() string {
	if in.Slug != "" {
		return in.Slug
	}
	return util.SlugifyMax(in.Title, util.SlugMaxLength)
}

// EntryService writes and reads blog entries and keeps the search index in step.
type EntryService struct {
	db      *sql.DB
	queries *store.Queries
	search  *SearchService
	metrics *metrics.Metrics
}

// NewEntryService creates an entry service. search and m may be nil.
func NewEntryService(db *sql.DB, search *SearchService, m *metrics.Metrics) *EntryService {
	return &EntryService{
		db:      db,
		queries: store.New(db),
		search:  search,
		metrics: m,
	}
}

// EntryURL is the public address of an entry: /yyyy/mm/dd/slug/ from its
// creation date.
func EntryURL(e store.Entry) string {
	d := e.CreatedDate.UTC()
	return fmt.Sprintf("/%04d/%02d/%02d/%s/", d.Year(), int(d.Month()), d.Day(), e.Slug)
}

// Create validates and stores a new entry.
func (s *EntryService) Create(ctx context.Context, in EntryInput) (store.Entry, error) {
	if err := in.validate(); err != nil {
		return store.Entry{}, err
	}

	t := now()
	entry, err := s.queries.CreateEntry(ctx, store.CreateEntryParams{
		BlogID:            in.BlogID,
		Title:             in.Title,
		Slug:              in.slug(),
		Text:              in.Text,
		Summary:           in.Summary,
		PublishedDate:     in.PublishedDate,
		IsPublished:       in.IsPublished,
		IsCommentsAllowed: in.IsCommentsAllowed,
		MetaKeywords:      in.MetaKeywords,
		MetaDescription:   in.MetaDescription,
		CreatedBy:         in.CreatedBy,
		CreatedDate:       t,
		UpdatedAt:         t,
	})
	if err != nil {
		return store.Entry{}, fmt.Errorf("creating entry: %w", err)
	}

	s.index(ctx, entry)
	s.metrics.EntryCreated()
	slog.Info("entry created", "entry_id", entry.ID, "slug", entry.Slug)
	return entry, nil
}

// Update validates and replaces the writable fields of entry id.
// The creation date never changes.
func (s *EntryService) Update(ctx context.Context, id int64, in EntryInput) (store.Entry, error) {
	if err := in.validate(); err != nil {
		return store.Entry{}, err
	}

	entry, err := s.queries.UpdateEntry(ctx, store.UpdateEntryParams{
		BlogID:            in.BlogID,
		Title:             in.Title,
		Slug:              in.slug(),
		Text:              in.Text,
		Summary:           in.Summary,
		PublishedDate:     in.PublishedDate,
		IsPublished:       in.IsPublished,
		IsCommentsAllowed: in.IsCommentsAllowed,
		MetaKeywords:      in.MetaKeywords,
		MetaDescription:   in.MetaDescription,
		CreatedBy:         in.CreatedBy,
		UpdatedAt:         now(),
		ID:                id,
	})
	if err != nil {
		return store.Entry{}, fmt.Errorf("updating entry %d: %w", id, err)
	}

	s.index(ctx, entry)
	return entry, nil
}

// Delete removes entry id and its comments.
func (s *EntryService) Delete(ctx context.Context, id int64) error {
	if err := s.queries.DeleteEntry(ctx, id); err != nil {
		return fmt.Errorf("deleting entry %d: %w", id, err)
	}
	if s.search != nil {
		if err := s.search.Remove(ctx, id); err != nil {
			slog.Warn("failed to remove entry from search index", "entry_id", id, "error", err)
		}
	}
	return nil
}

// index refreshes the search document. Index failures are logged, not
// returned; the periodic reindex repairs them.
func (s *EntryService) index(ctx context.Context, e store.Entry) {
	if s.search == nil {
		return
	}
	if err := s.search.Index(ctx, e); err != nil {
		slog.Warn("failed to index entry", "entry_id", e.ID, "error", err)
	}
}

// GetByID returns any entry, visible or not.
func (s *EntryService) GetByID(ctx context.Context, id int64) (store.Entry, error) {
	return s.queries.GetEntryByID(ctx, id)
}

// GetByDateSlug finds the entry created on the given UTC day with slug.
// No match, several matches and an unpublished match all give ErrNotFound.
func (s *EntryService) GetByDateSlug(ctx context.Context, year, month, day int, slug string) (store.Entry, error) {
	start := time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
	if start.Year() != year || int(start.Month()) != month || start.Day() != day {
		return store.Entry{}, ErrNotFound
	}

	entries, err := s.queries.ListEntriesByDateSlug(ctx, store.ListEntriesByDateSlugParams{
		Slug:  slug,
		Start: start,
		End:   start.AddDate(0, 0, 1),
	})
	if err != nil {
		return store.Entry{}, fmt.Errorf("looking up entry %q: %w", slug, err)
	}
	if len(entries) != 1 || !entries[0].IsPublished {
		return store.Entry{}, ErrNotFound
	}
	return entries[0], nil
}

// ListVisible returns page of the visible entries, newest first.
func (s *EntryService) ListVisible(ctx context.Context, page, perPage int) (Page[store.Entry], error) {
	t := now()
	total, err := s.queries.CountVisibleEntries(ctx, t)
	if err != nil {
		return Page[store.Entry]{}, fmt.Errorf("counting entries: %w", err)
	}
	if err := checkPage(page, perPage, total); err != nil {
		return Page[store.Entry]{}, err
	}

	items, err := s.queries.ListVisibleEntries(ctx, store.ListVisibleEntriesParams{
		Now:    t,
		Limit:  int64(perPage),
		Offset: int64((page - 1) * perPage),
	})
	if err != nil {
		return Page[store.Entry]{}, fmt.Errorf("listing entries: %w", err)
	}
	return Page[store.Entry]{Items: items, Total: total, Number: page, PerPage: perPage}, nil
}

// ListVisibleByAuthor returns page of authorID's visible entries, newest first.
func (s *EntryService) ListVisibleByAuthor(ctx context.Context, authorID int64, page, perPage int) (Page[store.Entry], error) {
	t := now()
	total, err := s.queries.CountVisibleEntriesByAuthor(ctx, store.CountVisibleEntriesByAuthorParams{
		CreatedBy: authorID,
		Now:       t,
	})
	if err != nil {
		return Page[store.Entry]{}, fmt.Errorf("counting entries by author: %w", err)
	}
	if err := checkPage(page, perPage, total); err != nil {
		return Page[store.Entry]{}, err
	}

	items, err := s.queries.ListVisibleEntriesByAuthor(ctx, store.ListVisibleEntriesByAuthorParams{
		CreatedBy: authorID,
		Now:       t,
		Limit:     int64(perPage),
		Offset:    int64((page - 1) * perPage),
	})
	if err != nil {
		return Page[store.Entry]{}, fmt.Errorf("listing entries by author: %w", err)
	}
	return Page[store.Entry]{Items: items, Total: total, Number: page, PerPage: perPage}, nil
}

// List returns entries in the "all" mode, narrowed by f, with the total match count.
func (s *EntryService) List(ctx context.Context, f store.EntryFilter) ([]store.Entry, int64, error) {
	return s.queries.ListEntries(ctx, f)
}

// Recent returns the n newest visible entries.
func (s *EntryService) Recent(ctx context.Context, n int) ([]store.Entry, error) {
	return s.queries.ListVisibleEntries(ctx, store.ListVisibleEntriesParams{
		Now:   now(),
		Limit: int64(n),
	})
}

// AllVisible returns every visible entry in id order.
func (s *EntryService) AllVisible(ctx context.Context) ([]store.Entry, error) {
	return s.queries.ListAllVisibleEntries(ctx, now())
}

// CommentCount counts the entry's comments that are not spam.
func (s *EntryService) CommentCount(ctx context.Context, entryID int64) (int64, error) {
	return s.queries.CountCommentsForEntry(ctx, entryID)
}
