// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package store

import (
	"context"
	"time"
)

const blogColumns = `id, title, tag_line, entries_per_page, recents, recent_comments, author_id, created_at, updated_at`

func scanBlog(row interface{ Scan(...any) error }) (Blog, error) {
	var i Blog
	err := row.Scan(
		&i.ID,
		&i.Title,
		&i.TagLine,
		&i.EntriesPerPage,
		&i.Recents,
		&i.RecentComments,
		&i.AuthorID,
		&i.CreatedAt,
		&i.UpdatedAt,
	)
	return i, err
}

const countBlogs = `-- name: CountBlogs :one
SELECT COUNT(*) FROM blogs`

func (q *Queries) CountBlogs(ctx context.Context) (int64, error) {
	var count int64
	err := q.db.QueryRowContext(ctx, countBlogs).Scan(&count)
	return count, err
}

const getBlog = `-- name: GetBlog :one
SELECT ` + blogColumns + ` FROM blogs ORDER BY title LIMIT 1`

// GetBlog returns the installed blog, or sql.ErrNoRows when none exists.
func (q *Queries) GetBlog(ctx context.Context) (Blog, error) {
	return scanBlog(q.db.QueryRowContext(ctx, getBlog))
}

const getBlogByID = `-- name: GetBlogByID :one
SELECT ` + blogColumns + ` FROM blogs WHERE id = ?`

func (q *Queries) GetBlogByID(ctx context.Context, id int64) (Blog, error) {
	return scanBlog(q.db.QueryRowContext(ctx, getBlogByID, id))
}

const getBlogByAuthor = `-- name: GetBlogByAuthor :one
SELECT ` + blogColumns + ` FROM blogs WHERE author_id = ?`

func (q *Queries) GetBlogByAuthor(ctx context.Context, authorID int64) (Blog, error) {
	return scanBlog(q.db.QueryRowContext(ctx, getBlogByAuthor, authorID))
}

const createBlog = `-- name: CreateBlog :one
INSERT INTO blogs (title, tag_line, entries_per_page, recents, recent_comments, author_id, created_at, updated_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?)
RETURNING ` + blogColumns

type CreateBlogParams struct {
	Title          string
	TagLine        string
	EntriesPerPage int64
	Recents        int64
	RecentComments int64
	AuthorID       int64
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

func (q *Queries) CreateBlog(ctx context.Context, arg CreateBlogParams) (Blog, error) {
	row := q.db.QueryRowContext(ctx, createBlog,
		arg.Title,
		arg.TagLine,
		arg.EntriesPerPage,
		arg.Recents,
		arg.RecentComments,
		arg.AuthorID,
		arg.CreatedAt,
		arg.UpdatedAt,
	)
	return scanBlog(row)
}

const updateBlog = `-- name: UpdateBlog :one
UPDATE blogs SET title = ?, tag_line = ?, entries_per_page = ?, recents = ?, recent_comments = ?, updated_at = ?
WHERE id = ?
RETURNING ` + blogColumns

type UpdateBlogParams struct {
	Title          string
	TagLine        string
	EntriesPerPage int64
	Recents        int64
	RecentComments int64
	UpdatedAt      time.Time
	ID             int64
}

func (q *Queries) UpdateBlog(ctx context.Context, arg UpdateBlogParams) (Blog, error) {
	row := q.db.QueryRowContext(ctx, updateBlog,
		arg.Title,
		arg.TagLine,
		arg.EntriesPerPage,
		arg.Recents,
		arg.RecentComments,
		arg.UpdatedAt,
		arg.ID,
	)
	return scanBlog(row)
}
