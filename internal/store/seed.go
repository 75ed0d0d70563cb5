// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/olegiv/oblog-go/internal/auth"
)

// Default admin credentials
const (
	DefaultAdminUsername = "admin"
	DefaultAdminEmail    = "admin@example.com"
	DefaultAdminPassword = "changeme"
)

// AdminPermissions are granted to the seeded administrator.
var AdminPermissions = []string{
	"blog.add_blog",
	"blog.update_blog",
	"blog.view_blog",
}

// Seed creates the default administrator when enabled and no such user exists.
func Seed(ctx context.Context, db *sql.DB, enabled bool) error {
	if !enabled {
		return nil
	}

	queries := New(db)

	_, err := queries.GetUserByUsername(ctx, DefaultAdminUsername)
	if err == nil {
		slog.Info("admin user already exists, skipping seed")
		return nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("checking for admin user: %w", err)
	}

	passwordHash, err := auth.HashPassword(DefaultAdminPassword)
	if err != nil {
		return fmt.Errorf("hashing password: %w", err)
	}

	var user User
	err = InTx(ctx, db, func(q *Queries) error {
		now := time.Now().UTC()
		user, err = q.CreateUser(ctx, CreateUserParams{
			Username:     DefaultAdminUsername,
			Email:        DefaultAdminEmail,
			Name:         "Administrator",
			PasswordHash: passwordHash,
			IsStaff:      true,
			IsSuperuser:  true,
			IsActive:     true,
			DateJoined:   now,
		})
		if err != nil {
			return fmt.Errorf("creating admin user: %w", err)
		}
		for _, codename := range AdminPermissions {
			if err := q.GrantPermission(ctx, GrantPermissionParams{UserID: user.ID, Codename: codename}); err != nil {
				return fmt.Errorf("granting %s: %w", codename, err)
			}
		}
		return q.EnsureProfile(ctx, EnsureProfileParams{UserID: user.ID, Now: now})
	})
	if err != nil {
		return err
	}

	slog.Warn("created default admin user, change its password",
		"id", user.ID,
		"username", user.Username,
	)

	return nil
}
