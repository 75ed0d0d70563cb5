// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package store

import (
	"context"
	"database/sql"
	"time"
)

const profileColumns = `id, user_id, date_of_birth, photo, created_at, updated_at`

func scanProfile(row interface{ Scan(...any) error }) (Profile, error) {
	var i Profile
	err := row.Scan(
		&i.ID,
		&i.UserID,
		&i.DateOfBirth,
		&i.Photo,
		&i.CreatedAt,
		&i.UpdatedAt,
	)
	return i, err
}

const ensureProfile = `-- name: EnsureProfile :exec
INSERT INTO profiles (user_id, created_at, updated_at) VALUES (?1, ?2, ?2)
ON CONFLICT (user_id) DO NOTHING`

type EnsureProfileParams struct {
	UserID int64
	Now    time.Time
}

// EnsureProfile inserts an empty profile for the user unless one exists.
func (q *Queries) EnsureProfile(ctx context.Context, arg EnsureProfileParams) error {
	_, err := q.db.ExecContext(ctx, ensureProfile, arg.UserID, arg.Now)
	return err
}

const getProfileByUserID = `-- name: GetProfileByUserID :one
SELECT ` + profileColumns + ` FROM profiles WHERE user_id = ?`

func (q *Queries) GetProfileByUserID(ctx context.Context, userID int64) (Profile, error) {
	return scanProfile(q.db.QueryRowContext(ctx, getProfileByUserID, userID))
}

const updateProfileDateOfBirth = `-- name: UpdateProfileDateOfBirth :one
UPDATE profiles SET date_of_birth = ?, updated_at = ? WHERE user_id = ?
RETURNING ` + profileColumns

type UpdateProfileDateOfBirthParams struct {
	DateOfBirth sql.NullTime
	UpdatedAt   time.Time
	UserID      int64
}

func (q *Queries) UpdateProfileDateOfBirth(ctx context.Context, arg UpdateProfileDateOfBirthParams) (Profile, error) {
	row := q.db.QueryRowContext(ctx, updateProfileDateOfBirth, arg.DateOfBirth, arg.UpdatedAt, arg.UserID)
	return scanProfile(row)
}

const updateProfilePhoto = `-- name: UpdateProfilePhoto :one
UPDATE profiles SET photo = ?, updated_at = ? WHERE user_id = ?
RETURNING ` + profileColumns

type UpdateProfilePhotoParams struct {
	Photo     sql.NullString
	UpdatedAt time.Time
	UserID    int64
}

func (q *Queries) UpdateProfilePhoto(ctx context.Context, arg UpdateProfilePhotoParams) (Profile, error) {
	row := q.db.QueryRowContext(ctx, updateProfilePhoto, arg.Photo, arg.UpdatedAt, arg.UserID)
	return scanProfile(row)
}

const getSocialAccount = `-- name: GetSocialAccount :one
SELECT id, user_id, provider, uid, extra_data, created_at
FROM social_accounts WHERE provider = ? AND uid = ?`

type GetSocialAccountParams struct {
	Provider string
	Uid      string
}

func (q *Queries) GetSocialAccount(ctx context.Context, arg GetSocialAccountParams) (SocialAccount, error) {
	row := q.db.QueryRowContext(ctx, getSocialAccount, arg.Provider, arg.Uid)
	var i SocialAccount
	err := row.Scan(&i.ID, &i.UserID, &i.Provider, &i.Uid, &i.ExtraData, &i.CreatedAt)
	return i, err
}

const getSocialAccountByUser = `-- name: GetSocialAccountByUser :one
SELECT id, user_id, provider, uid, extra_data, created_at
FROM social_accounts WHERE user_id = ? AND provider = ?
ORDER BY id LIMIT 1`

type GetSocialAccountByUserParams struct {
	UserID   int64
	Provider string
}

func (q *Queries) GetSocialAccountByUser(ctx context.Context, arg GetSocialAccountByUserParams) (SocialAccount, error) {
	row := q.db.QueryRowContext(ctx, getSocialAccountByUser, arg.UserID, arg.Provider)
	var i SocialAccount
	err := row.Scan(&i.ID, &i.UserID, &i.Provider, &i.Uid, &i.ExtraData, &i.CreatedAt)
	return i, err
}

const createSocialAccount = `-- name: CreateSocialAccount :one
INSERT INTO social_accounts (user_id, provider, uid, extra_data, created_at)
VALUES (?, ?, ?, ?, ?)
RETURNING id, user_id, provider, uid, extra_data, created_at`

type CreateSocialAccountParams struct {
	UserID    int64
	Provider  string
	Uid       string
	ExtraData string
	CreatedAt time.Time
}

func (q *Queries) CreateSocialAccount(ctx context.Context, arg CreateSocialAccountParams) (SocialAccount, error) {
	row := q.db.QueryRowContext(ctx, createSocialAccount,
		arg.UserID,
		arg.Provider,
		arg.Uid,
		arg.ExtraData,
		arg.CreatedAt,
	)
	var i SocialAccount
	err := row.Scan(&i.ID, &i.UserID, &i.Provider, &i.Uid, &i.ExtraData, &i.CreatedAt)
	return i, err
}
