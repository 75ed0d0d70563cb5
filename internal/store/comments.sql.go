// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package store

import (
	"context"
	"database/sql"
	"time"
)

const commentColumns = `id, entry_id, text, user_name, user_email, user_url, author_id, status, user_agent, created_date`

func scanComment(row interface{ Scan(...any) error }) (Comment, error) {
	var i Comment
	err := row.Scan(
		&i.ID,
		&i.EntryID,
		&i.Text,
		&i.UserName,
		&i.UserEmail,
		&i.UserUrl,
		&i.AuthorID,
		&i.Status,
		&i.UserAgent,
		&i.CreatedDate,
	)
	return i, err
}

func scanComments(rows *sql.Rows) ([]Comment, error) {
	defer func() { _ = rows.Close() }()
	var items []Comment
	for rows.Next() {
		i, err := scanComment(rows)
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

const createComment = `-- name: CreateComment :one
INSERT INTO comments (entry_id, text, user_name, user_email, user_url, author_id, status, user_agent, created_date)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
RETURNING ` + commentColumns

type CreateCommentParams struct {
	EntryID     int64
	Text        string
	UserName    string
	UserEmail   string
	UserUrl     string
	AuthorID    sql.NullInt64
	Status      string
	UserAgent   string
	CreatedDate time.Time
}

func (q *Queries) CreateComment(ctx context.Context, arg CreateCommentParams) (Comment, error) {
	row := q.db.QueryRowContext(ctx, createComment,
		arg.EntryID,
		arg.Text,
		arg.UserName,
		arg.UserEmail,
		arg.UserUrl,
		arg.AuthorID,
		arg.Status,
		arg.UserAgent,
		arg.CreatedDate,
	)
	return scanComment(row)
}

const getCommentByID = `-- name: GetCommentByID :one
SELECT ` + commentColumns + ` FROM comments WHERE id = ?`

func (q *Queries) GetCommentByID(ctx context.Context, id int64) (Comment, error) {
	return scanComment(q.db.QueryRowContext(ctx, getCommentByID, id))
}

const updateCommentStatus = `-- name: UpdateCommentStatus :exec
UPDATE comments SET status = ? WHERE id = ?`

type UpdateCommentStatusParams struct {
	Status string
	ID     int64
}

func (q *Queries) UpdateCommentStatus(ctx context.Context, arg UpdateCommentStatusParams) error {
	_, err := q.db.ExecContext(ctx, updateCommentStatus, arg.Status, arg.ID)
	return err
}

const listCommentsForEntry = `-- name: ListCommentsForEntry :many
SELECT ` + commentColumns + ` FROM comments
WHERE entry_id = ? AND status != 'rejected'
ORDER BY created_date, id`

// ListCommentsForEntry returns the entry's non-spam comments, oldest first.
func (q *Queries) ListCommentsForEntry(ctx context.Context, entryID int64) ([]Comment, error) {
	rows, err := q.db.QueryContext(ctx, listCommentsForEntry, entryID)
	if err != nil {
		return nil, err
	}
	return scanComments(rows)
}

const listApprovedCommentsForEntry = `-- name: ListApprovedCommentsForEntry :many
SELECT ` + commentColumns + ` FROM comments
WHERE entry_id = ? AND status = 'approved'
ORDER BY created_date, id`

func (q *Queries) ListApprovedCommentsForEntry(ctx context.Context, entryID int64) ([]Comment, error) {
	rows, err := q.db.QueryContext(ctx, listApprovedCommentsForEntry, entryID)
	if err != nil {
		return nil, err
	}
	return scanComments(rows)
}

const countCommentsForEntry = `-- name: CountCommentsForEntry :one
SELECT COUNT(*) FROM comments WHERE entry_id = ? AND status != 'rejected'`

func (q *Queries) CountCommentsForEntry(ctx context.Context, entryID int64) (int64, error) {
	var count int64
	err := q.db.QueryRowContext(ctx, countCommentsForEntry, entryID).Scan(&count)
	return count, err
}

const listRecentComments = `-- name: ListRecentComments :many
SELECT ` + commentColumns + ` FROM comments
WHERE status = 'approved'
ORDER BY created_date DESC, id DESC
LIMIT ?`

func (q *Queries) ListRecentComments(ctx context.Context, limit int64) ([]Comment, error) {
	rows, err := q.db.QueryContext(ctx, listRecentComments, limit)
	if err != nil {
		return nil, err
	}
	return scanComments(rows)
}
