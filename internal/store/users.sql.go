// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package store

import (
	"context"
	"database/sql"
	"time"
)

const userColumns = `id, username, email, first_name, last_name, name, password_hash,
	is_staff, is_superuser, is_active, date_joined, last_login`

func scanUser(row interface{ Scan(...any) error }) (User, error) {
	var i User
	err := row.Scan(
		&i.ID,
		&i.Username,
		&i.Email,
		&i.FirstName,
		&i.LastName,
		&i.Name,
		&i.PasswordHash,
		&i.IsStaff,
		&i.IsSuperuser,
		&i.IsActive,
		&i.DateJoined,
		&i.LastLogin,
	)
	return i, err
}

func scanUsers(rows *sql.Rows) ([]User, error) {
	defer func() { _ = rows.Close() }()
	var items []User
	for rows.Next() {
		i, err := scanUser(rows)
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

const createUser = `-- name: CreateUser :one
INSERT INTO users (username, email, first_name, last_name, name, password_hash, is_staff, is_superuser, is_active, date_joined)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
RETURNING ` + userColumns

type CreateUserParams struct {
	Username     string
	Email        string
	FirstName    string
	LastName     string
	Name         string
	PasswordHash string
	IsStaff      bool
	IsSuperuser  bool
	IsActive     bool
	DateJoined   time.Time
}

func (q *Queries) CreateUser(ctx context.Context, arg CreateUserParams) (User, error) {
	row := q.db.QueryRowContext(ctx, createUser,
		arg.Username,
		arg.Email,
		arg.FirstName,
		arg.LastName,
		arg.Name,
		arg.PasswordHash,
		arg.IsStaff,
		arg.IsSuperuser,
		arg.IsActive,
		arg.DateJoined,
	)
	return scanUser(row)
}

const getUserByID = `-- name: GetUserByID :one
SELECT ` + userColumns + ` FROM users WHERE id = ?`

func (q *Queries) GetUserByID(ctx context.Context, id int64) (User, error) {
	return scanUser(q.db.QueryRowContext(ctx, getUserByID, id))
}

const getUserByUsername = `-- name: GetUserByUsername :one
SELECT ` + userColumns + ` FROM users WHERE username = ?`

func (q *Queries) GetUserByUsername(ctx context.Context, username string) (User, error) {
	return scanUser(q.db.QueryRowContext(ctx, getUserByUsername, username))
}

const countUsersByUsername = `-- name: CountUsersByUsername :one
SELECT COUNT(*) FROM users WHERE username = ?`

func (q *Queries) CountUsersByUsername(ctx context.Context, username string) (int64, error) {
	var count int64
	err := q.db.QueryRowContext(ctx, countUsersByUsername, username).Scan(&count)
	return count, err
}

const countUsersByEmail = `-- name: CountUsersByEmail :one
SELECT COUNT(*) FROM users WHERE email = ?`

func (q *Queries) CountUsersByEmail(ctx context.Context, email string) (int64, error) {
	var count int64
	err := q.db.QueryRowContext(ctx, countUsersByEmail, email).Scan(&count)
	return count, err
}

const updateUser = `-- name: UpdateUser :one
UPDATE users SET email = ?, first_name = ?, last_name = ?, name = ?
WHERE id = ?
RETURNING ` + userColumns

type UpdateUserParams struct {
	Email     string
	FirstName string
	LastName  string
	Name      string
	ID        int64
}

func (q *Queries) UpdateUser(ctx context.Context, arg UpdateUserParams) (User, error) {
	row := q.db.QueryRowContext(ctx, updateUser,
		arg.Email,
		arg.FirstName,
		arg.LastName,
		arg.Name,
		arg.ID,
	)
	return scanUser(row)
}

const updateUserPassword = `-- name: UpdateUserPassword :exec
UPDATE users SET password_hash = ? WHERE id = ?`

type UpdateUserPasswordParams struct {
	PasswordHash string
	ID           int64
}

func (q *Queries) UpdateUserPassword(ctx context.Context, arg UpdateUserPasswordParams) error {
	_, err := q.db.ExecContext(ctx, updateUserPassword, arg.PasswordHash, arg.ID)
	return err
}

const updateUserLastLogin = `-- name: UpdateUserLastLogin :exec
UPDATE users SET last_login = ? WHERE id = ?`

type UpdateUserLastLoginParams struct {
	LastLogin sql.NullTime
	ID        int64
}

func (q *Queries) UpdateUserLastLogin(ctx context.Context, arg UpdateUserLastLoginParams) error {
	_, err := q.db.ExecContext(ctx, updateUserLastLogin, arg.LastLogin, arg.ID)
	return err
}

const listUsers = `-- name: ListUsers :many
SELECT ` + userColumns + ` FROM users
WHERE (?1 = '' OR username = ?1)
ORDER BY username
LIMIT ?2 OFFSET ?3`

type ListUsersParams struct {
	Username string
	Limit    int64
	Offset   int64
}

// ListUsers lists users ordered by username. An empty Username matches everyone.
func (q *Queries) ListUsers(ctx context.Context, arg ListUsersParams) ([]User, error) {
	rows, err := q.db.QueryContext(ctx, listUsers, arg.Username, arg.Limit, arg.Offset)
	if err != nil {
		return nil, err
	}
	return scanUsers(rows)
}

const countUsers = `-- name: CountUsers :one
SELECT COUNT(*) FROM users WHERE (?1 = '' OR username = ?1)`

func (q *Queries) CountUsers(ctx context.Context, username string) (int64, error) {
	var count int64
	err := q.db.QueryRowContext(ctx, countUsers, username).Scan(&count)
	return count, err
}

const listStaffUsers = `-- name: ListStaffUsers :many
SELECT ` + userColumns + ` FROM users
WHERE is_staff = 1 AND is_active = 1
ORDER BY username`

func (q *Queries) ListStaffUsers(ctx context.Context) ([]User, error) {
	rows, err := q.db.QueryContext(ctx, listStaffUsers)
	if err != nil {
		return nil, err
	}
	return scanUsers(rows)
}

const grantPermission = `-- name: GrantPermission :exec
INSERT INTO user_permissions (user_id, codename) VALUES (?, ?)
ON CONFLICT (user_id, codename) DO NOTHING`

type GrantPermissionParams struct {
	UserID   int64
	Codename string
}

func (q *Queries) GrantPermission(ctx context.Context, arg GrantPermissionParams) error {
	_, err := q.db.ExecContext(ctx, grantPermission, arg.UserID, arg.Codename)
	return err
}

const listUserPermissions = `-- name: ListUserPermissions :many
SELECT codename FROM user_permissions WHERE user_id = ? ORDER BY codename`

func (q *Queries) ListUserPermissions(ctx context.Context, userID int64) ([]string, error) {
	rows, err := q.db.QueryContext(ctx, listUserPermissions, userID)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	var items []string
	for rows.Next() {
		var codename string
		if err := rows.Scan(&codename); err != nil {
			return nil, err
		}
		items = append(items, codename)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}
