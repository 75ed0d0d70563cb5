// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package store

import (
	"context"
	"database/sql"
	"time"
)

const entryColumns = `id, blog_id, title, slug, text, summary, published_date, is_published,
	is_comments_allowed, meta_keywords, meta_description, created_by, created_date, updated_at`

func scanEntry(row interface{ Scan(...any) error }) (Entry, error) {
	var i Entry
	err := row.Scan(
		&i.ID,
		&i.BlogID,
		&i.Title,
		&i.Slug,
		&i.Text,
		&i.Summary,
		&i.PublishedDate,
		&i.IsPublished,
		&i.IsCommentsAllowed,
		&i.MetaKeywords,
		&i.MetaDescription,
		&i.CreatedBy,
		&i.CreatedDate,
		&i.UpdatedAt,
	)
	return i, err
}

func scanEntries(rows *sql.Rows) ([]Entry, error) {
	defer func() { _ = rows.Close() }()
	var items []Entry
	for rows.Next() {
		i, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const createEntry = `-- name: CreateEntry :one
INSERT INTO entries (blog_id, title, slug, text, summary, published_date, is_published,
	is_comments_allowed, meta_keywords, meta_description, created_by, created_date, updated_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
RETURNING ` + entryColumns

type CreateEntryParams struct {
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
	CreatedDate       time.Time
	UpdatedAt         time.Time
}

func (q *Queries) CreateEntry(ctx context.Context, arg CreateEntryParams) (Entry, error) {
	row := q.db.QueryRowContext(ctx, createEntry,
		arg.BlogID,
		arg.Title,
		arg.Slug,
		arg.Text,
		arg.Summary,
		arg.PublishedDate,
		arg.IsPublished,
		arg.IsCommentsAllowed,
		arg.MetaKeywords,
		arg.MetaDescription,
		arg.CreatedBy,
		arg.CreatedDate,
		arg.UpdatedAt,
	)
	return scanEntry(row)
}

// created_date is immutable once the row exists.
const updateEntry = `-- name: UpdateEntry :one
UPDATE entries SET blog_id = ?, title = ?, slug = ?, text = ?, summary = ?, published_date = ?,
	is_published = ?, is_comments_allowed = ?, meta_keywords = ?, meta_description = ?,
	created_by = ?, updated_at = ?
WHERE id = ?
RETURNING ` + entryColumns

type UpdateEntryParams struct {
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
	UpdatedAt         time.Time
	ID                int64
}

func (q *Queries) UpdateEntry(ctx context.Context, arg UpdateEntryParams) (Entry, error) {
	row := q.db.QueryRowContext(ctx, updateEntry,
		arg.BlogID,
		arg.Title,
		arg.Slug,
		arg.Text,
		arg.Summary,
		arg.PublishedDate,
		arg.IsPublished,
		arg.IsCommentsAllowed,
		arg.MetaKeywords,
		arg.MetaDescription,
		arg.CreatedBy,
		arg.UpdatedAt,
		arg.ID,
	)
	return scanEntry(row)
}

const deleteEntry = `-- name: DeleteEntry :exec
DELETE FROM entries WHERE id = ?`

func (q *Queries) DeleteEntry(ctx context.Context, id int64) error {
	_, err := q.db.ExecContext(ctx, deleteEntry, id)
	return err
}

const getEntryByID = `-- name: GetEntryByID :one
SELECT ` + entryColumns + ` FROM entries WHERE id = ?`

func (q *Queries) GetEntryByID(ctx context.Context, id int64) (Entry, error) {
	return scanEntry(q.db.QueryRowContext(ctx, getEntryByID, id))
}

const countEntries = `-- name: CountEntries :one
SELECT COUNT(*) FROM entries`

func (q *Queries) CountEntries(ctx context.Context) (int64, error) {
	var count int64
	err := q.db.QueryRowContext(ctx, countEntries).Scan(&count)
	return count, err
}

const listEntriesByDateSlug = `-- name: ListEntriesByDateSlug :many
SELECT ` + entryColumns + ` FROM entries
WHERE slug = ? AND created_date >= ? AND created_date < ?
ORDER BY created_date DESC`

type ListEntriesByDateSlugParams struct {
	Slug  string
	Start time.Time
	End   time.Time
}

// ListEntriesByDateSlug returns every entry, visible or not, created within [Start, End) with the slug.
func (q *Queries) ListEntriesByDateSlug(ctx context.Context, arg ListEntriesByDateSlugParams) ([]Entry, error) {
	rows, err := q.db.QueryContext(ctx, listEntriesByDateSlug, arg.Slug, arg.Start, arg.End)
	if err != nil {
		return nil, err
	}
	return scanEntries(rows)
}

const visibleEntryCondition = `is_published = 1 AND published_date IS NOT NULL AND published_date <= ?`

const listVisibleEntries = `-- name: ListVisibleEntries :many
SELECT ` + entryColumns + ` FROM entries
WHERE ` + visibleEntryCondition + `
ORDER BY created_date DESC, id DESC
LIMIT ? OFFSET ?`

type ListVisibleEntriesParams struct {
	Now    time.Time
	Limit  int64
	Offset int64
}

func (q *Queries) ListVisibleEntries(ctx context.Context, arg ListVisibleEntriesParams) ([]Entry, error) {
	rows, err := q.db.QueryContext(ctx, listVisibleEntries, arg.Now, arg.Limit, arg.Offset)
	if err != nil {
		return nil, err
	}
	return scanEntries(rows)
}

const countVisibleEntries = `-- name: CountVisibleEntries :one
SELECT COUNT(*) FROM entries WHERE ` + visibleEntryCondition

func (q *Queries) CountVisibleEntries(ctx context.Context, now time.Time) (int64, error) {
	var count int64
	err := q.db.QueryRowContext(ctx, countVisibleEntries, now).Scan(&count)
	return count, err
}

const listVisibleEntriesByAuthor = `-- name: ListVisibleEntriesByAuthor :many
SELECT ` + entryColumns + ` FROM entries
WHERE created_by = ? AND ` + visibleEntryCondition + `
ORDER BY created_date DESC, id DESC
LIMIT ? OFFSET ?`

type ListVisibleEntriesByAuthorParams struct {
	CreatedBy int64
	Now       time.Time
	Limit     int64
	Offset    int64
}

func (q *Queries) ListVisibleEntriesByAuthor(ctx context.Context, arg ListVisibleEntriesByAuthorParams) ([]Entry, error) {
	rows, err := q.db.QueryContext(ctx, listVisibleEntriesByAuthor, arg.CreatedBy, arg.Now, arg.Limit, arg.Offset)
	if err != nil {
		return nil, err
	}
	return scanEntries(rows)
}

const countVisibleEntriesByAuthor = `-- name: CountVisibleEntriesByAuthor :one
SELECT COUNT(*) FROM entries WHERE created_by = ? AND ` + visibleEntryCondition

type CountVisibleEntriesByAuthorParams struct {
	CreatedBy int64
	Now       time.Time
}

func (q *Queries) CountVisibleEntriesByAuthor(ctx context.Context, arg CountVisibleEntriesByAuthorParams) (int64, error) {
	var count int64
	err := q.db.QueryRowContext(ctx, countVisibleEntriesByAuthor, arg.CreatedBy, arg.Now).Scan(&count)
	return count, err
}

const listAllVisibleEntries = `-- name: ListAllVisibleEntries :many
SELECT ` + entryColumns + ` FROM entries
WHERE ` + visibleEntryCondition + `
ORDER BY id`

func (q *Queries) ListAllVisibleEntries(ctx context.Context, now time.Time) ([]Entry, error) {
	rows, err := q.db.QueryContext(ctx, listAllVisibleEntries, now)
	if err != nil {
		return nil, err
	}
	return scanEntries(rows)
}
