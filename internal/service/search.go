// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package service

import (
	"bytes"
	"context"
	"database/sql"
	"fmt"
	"html"
	"log/slog"
	"regexp"
	"strings"

	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
	gmhtml "github.com/yuin/goldmark/renderer/html"

	"github.com/olegiv/oblog-go/internal/metrics"
	"github.com/olegiv/oblog-go/internal/store"
)

// SearchPerPage is the number of search hits per page.
const SearchPerPage = 20

var queryCleaner = regexp.MustCompile(`[^\p{L}\p{N}\s_-]`)

// SearchService maintains the entries_fts index and queries it.
type SearchService struct {
	db      *sql.DB
	queries *store.Queries
	metrics *metrics.Metrics
	md      goldmark.Markdown
	strip   *bluemonday.Policy
}

// SearchResult is one page of search hits, in rank order.
type SearchResult struct {
	Entries []store.Entry
	Total   int64
	Page    int
	Pages   int
}

// NewSearchService creates a search service. m may be nil.
func NewSearchService(db *sql.DB, m *metrics.Metrics) *SearchService {
	return &SearchService{
		db:      db,
		queries: store.New(db),
		metrics: m,
		// Raw HTML passes through to the strict policy, which keeps its text.
		md:    goldmark.New(goldmark.WithRendererOptions(gmhtml.WithUnsafe())),
		strip: bluemonday.StrictPolicy(),
	}
}

// Document renders the indexed text of an entry: title, summary and body,
// converted from Markdown and stripped of markup.
func (s *SearchService) Document(e store.Entry) string {
	var buf bytes.Buffer
	for _, part := range []string{e.Title, e.Summary, e.Text} {
		if part == "" {
			continue
		}
		if err := s.md.Convert([]byte(part), &buf); err != nil {
			buf.WriteString(part)
		}
		buf.WriteByte('\n')
	}
	text := html.UnescapeString(s.strip.Sanitize(buf.String()))
	return strings.Join(strings.Fields(text), " ")
}

// isVisible reports whether e belongs in the public listings right now.
func isVisible(e store.Entry) bool {
	return e.IsPublished && e.PublishedDate.Valid && !e.PublishedDate.Time.After(now())
}

// Index upserts e when it is visible and drops it from the index otherwise.
// FTS5 statements stay as direct SQL; MATCH and bm25 have no typed query.
func (s *SearchService) Index(ctx context.Context, e store.Entry) error {
	if err := s.Remove(ctx, e.ID); err != nil {
		return err
	}
	if !isVisible(e) {
		return nil
	}

	//goland:noinspection SqlResolve
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO entries_fts(rowid, title, document, published_date) VALUES (?, ?, ?, ?)`,
		e.ID, e.Title, s.Document(e), e.PublishedDate.Time)
	if err != nil {
		return fmt.Errorf("indexing entry %d: %w", e.ID, err)
	}
	return nil
}

// Remove deletes the entry from the index. Missing rows are not an error.
func (s *SearchService) Remove(ctx context.Context, id int64) error {
	//goland:noinspection SqlResolve
	if _, err := s.db.ExecContext(ctx, `DELETE FROM entries_fts WHERE rowid = ?`, id); err != nil {
		return fmt.Errorf("removing entry %d from index: %w", id, err)
	}
	return nil
}

// Reindex rebuilds the index from the currently visible entries and
// returns how many were indexed.
func (s *SearchService) Reindex(ctx context.Context) (int, error) {
	entries, err := s.queries.ListAllVisibleEntries(ctx, now())
	if err != nil {
		return 0, fmt.Errorf("listing visible entries: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer func() { _ = tx.Rollback() }()

	//goland:noinspection SqlResolve
	if _, err := tx.ExecContext(ctx, `DELETE FROM entries_fts`); err != nil {
		return 0, fmt.Errorf("clearing index: %w", err)
	}
	for _, e := range entries {
		//goland:noinspection SqlResolve
		_, err := tx.ExecContext(ctx,
			`INSERT INTO entries_fts(rowid, title, document, published_date) VALUES (?, ?, ?, ?)`,
			e.ID, e.Title, s.Document(e), e.PublishedDate.Time)
		if err != nil {
			return 0, fmt.Errorf("indexing entry %d: %w", e.ID, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return 0, err
	}

	slog.Info("search index rebuilt", "entries", len(entries))
	return len(entries), nil
}

// escapeQuery turns free text into quoted FTS5 prefix terms, all of which
// must match.
func escapeQuery(query string) string {
	words := strings.Fields(queryCleaner.ReplaceAllString(query, " "))
	if len(words) == 0 {
		return ""
	}
	terms := make([]string, 0, len(words))
	for _, w := range words {
		terms = append(terms, `"`+w+`"*`)
	}
	return strings.Join(terms, " ")
}

// Search returns page (1-indexed) of the entries matching query, best
// match first. An empty query or a missing index yields no hits. Page 1 is
// always valid; any other page outside the result gives ErrPageOutOfRange.
func (s *SearchService) Search(ctx context.Context, query string, page, perPage int) (SearchResult, error) {
	if perPage <= 0 {
		perPage = SearchPerPage
	}
	if page < 1 {
		return SearchResult{}, ErrPageOutOfRange
	}
	s.metrics.SearchPerformed()

	res := SearchResult{Entries: []store.Entry{}, Page: page, Pages: 1}

	match := escapeQuery(query)
	var total int64
	if match != "" {
		//goland:noinspection SqlResolve
		err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM entries_fts WHERE entries_fts MATCH ?`, match).Scan(&total)
		if err != nil && !strings.Contains(err.Error(), "no such table") {
			return SearchResult{}, fmt.Errorf("counting search hits: %w", err)
		}
	}

	res.Total = total
	res.Pages = Page[struct{}]{Total: total, PerPage: perPage}.Pages()
	if page > res.Pages {
		return SearchResult{}, ErrPageOutOfRange
	}
	if total == 0 {
		return res, nil
	}

	//goland:noinspection SqlResolve,SqlSignature
	rows, err := s.db.QueryContext(ctx, `
		SELECT rowid FROM entries_fts
		WHERE entries_fts MATCH ?
		ORDER BY bm25(entries_fts), rowid DESC
		LIMIT ? OFFSET ?`,
		match, perPage, (page-1)*perPage)
	if err != nil {
		return SearchResult{}, fmt.Errorf("searching: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return SearchResult{}, err
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return SearchResult{}, err
	}

	byID, err := s.queries.GetEntriesByIDs(ctx, ids)
	if err != nil {
		return SearchResult{}, fmt.Errorf("loading search hits: %w", err)
	}
	for _, id := range ids {
		if e, ok := byID[id]; ok {
			res.Entries = append(res.Entries, e)
		}
	}
	return res, nil
}
