// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package store

import (
	"context"
	"database/sql"
	"time"
)

const apiKeyColumns = `id, user_id, key_prefix, key_hash, last_used_at, created_at`

func scanAPIKey(row interface{ Scan(...any) error }) (ApiKey, error) {
	var i ApiKey
	err := row.Scan(
		&i.ID,
		&i.UserID,
		&i.KeyPrefix,
		&i.KeyHash,
		&i.LastUsedAt,
		&i.CreatedAt,
	)
	return i, err
}

const createAPIKey = `-- name: CreateAPIKey :one
INSERT INTO api_keys (user_id, key_prefix, key_hash, created_at)
VALUES (?, ?, ?, ?)
RETURNING ` + apiKeyColumns

type CreateAPIKeyParams struct {
	UserID    int64
	KeyPrefix string
	KeyHash   string
	CreatedAt time.Time
}

func (q *Queries) CreateAPIKey(ctx context.Context, arg CreateAPIKeyParams) (ApiKey, error) {
	row := q.db.QueryRowContext(ctx, createAPIKey, arg.UserID, arg.KeyPrefix, arg.KeyHash, arg.CreatedAt)
	return scanAPIKey(row)
}

const getAPIKeyByUserID = `-- name: GetAPIKeyByUserID :one
SELECT ` + apiKeyColumns + ` FROM api_keys WHERE user_id = ?`

func (q *Queries) GetAPIKeyByUserID(ctx context.Context, userID int64) (ApiKey, error) {
	return scanAPIKey(q.db.QueryRowContext(ctx, getAPIKeyByUserID, userID))
}

const getAPIKeyByHash = `-- name: GetAPIKeyByHash :one
SELECT ` + apiKeyColumns + ` FROM api_keys WHERE key_hash = ?`

func (q *Queries) GetAPIKeyByHash(ctx context.Context, keyHash string) (ApiKey, error) {
	return scanAPIKey(q.db.QueryRowContext(ctx, getAPIKeyByHash, keyHash))
}

const updateAPIKeyLastUsed = `-- name: UpdateAPIKeyLastUsed :exec
UPDATE api_keys SET last_used_at = ? WHERE id = ?`

type UpdateAPIKeyLastUsedParams struct {
	LastUsedAt sql.NullTime
	ID         int64
}

func (q *Queries) UpdateAPIKeyLastUsed(ctx context.Context, arg UpdateAPIKeyLastUsedParams) error {
	_, err := q.db.ExecContext(ctx, updateAPIKeyLastUsed, arg.LastUsedAt, arg.ID)
	return err
}
