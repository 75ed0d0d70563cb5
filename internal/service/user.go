// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package service

import (
	"context"
	"crypto/subtle"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"

	"github.com/olegiv/oblog-go/internal/auth"
	"github.com/olegiv/oblog-go/internal/model"
	"github.com/olegiv/oblog-go/internal/store"
	"github.com/olegiv/oblog-go/internal/validation"
)

// FullName joins the first and last names.
func FullName(u store.User) string {
	return strings.TrimSpace(u.FirstName + " " + u.LastName)
}

// DisplayName is the full name, or the username when there is none.
func DisplayName(u store.User) string {
	if n := FullName(u); n != "" {
		return n
	}
	return u.Username
}

// NewUser holds the fields for creating an account.
type NewUser struct {
	Username    string
	Email       string
	FirstName   string
	LastName    string
	Name        string
	RawPassword string
	IsStaff     bool
}

// UserUpdate holds the editable profile fields of an account.
type UserUpdate struct {
	Email     string
	FirstName string
	LastName  string
	Name      string
}

// UserService manages accounts, credentials and permissions.
type UserService struct {
	db      *sql.DB
	queries *store.Queries
}

// NewUserService creates a user service.
func NewUserService(db *sql.DB) *UserService {
	return &UserService{db: db, queries: store.New(db)}
}

// Create validates the password, rejects a taken email or username, and
// stores the user with an API key and an empty profile in one transaction.
// It returns the raw API key, which is not recoverable later.
func (s *UserService) Create(ctx context.Context, in NewUser) (store.User, string, error) {
	if err := validation.ValidatePassword(in.RawPassword); err != nil {
		return store.User{}, "", err
	}

	hash, err := auth.HashPassword(in.RawPassword)
	if err != nil {
		return store.User{}, "", fmt.Errorf("hashing password: %w", err)
	}
	return s.create(ctx, in, hash)
}

// create stores a user with passwordHash, which may be auth.UnusablePassword.
func (s *UserService) create(ctx context.Context, in NewUser, passwordHash string) (store.User, string, error) {
	rawKey, prefix, err := model.GenerateAPIKey()
	if err != nil {
		return store.User{}, "", fmt.Errorf("generating api key: %w", err)
	}

	name := in.Name
	if name == "" {
		name = strings.TrimSpace(in.FirstName + " " + in.LastName)
	}

	var user store.User
	err = store.InTx(ctx, s.db, func(q *store.Queries) error {
		if err := checkUnique(ctx, q, in.Email, in.Username); err != nil {
			return err
		}

		t := now()
		user, err = q.CreateUser(ctx, store.CreateUserParams{
			Username:     in.Username,
			Email:        in.Email,
			FirstName:    in.FirstName,
			LastName:     in.LastName,
			Name:         name,
			PasswordHash: passwordHash,
			IsStaff:      in.IsStaff,
			IsActive:     true,
			DateJoined:   t,
		})
		if isUniqueViolation(err) {
			return validation.DuplicateUsername()
		}
		if err != nil {
			return err
		}

		if _, err := q.CreateAPIKey(ctx, store.CreateAPIKeyParams{
			UserID:    user.ID,
			KeyPrefix: prefix,
			KeyHash:   model.HashAPIKey(rawKey),
			CreatedAt: t,
		}); err != nil {
			return fmt.Errorf("creating api key: %w", err)
		}

		return q.EnsureProfile(ctx, store.EnsureProfileParams{UserID: user.ID, Now: t})
	})
	if err != nil {
		return store.User{}, "", err
	}

	slog.Info("user created", "user_id", user.ID, "username", user.Username)
	return user, rawKey, nil
}

// checkUnique reports the first conflict, email before username. An empty
// email never conflicts.
func checkUnique(ctx context.Context, q *store.Queries, email, username string) error {
	if email != "" {
		n, err := q.CountUsersByEmail(ctx, email)
		if err != nil {
			return err
		}
		if n > 0 {
			return validation.DuplicateEmail()
		}
	}

	n, err := q.CountUsersByUsername(ctx, username)
	if err != nil {
		return err
	}
	if n > 0 {
		return validation.DuplicateUsername()
	}
	return nil
}

// Authenticate checks a username and password. Unknown users and wrong
// passwords give ErrInvalidCredentials; a correct password on a disabled
// account gives ErrInactiveUser along with the user.
func (s *UserService) Authenticate(ctx context.Context, username, password string) (store.User, error) {
	user, err := s.queries.GetUserByUsername(ctx, username)
	if errors.Is(err, sql.ErrNoRows) {
		return store.User{}, ErrInvalidCredentials
	}
	if err != nil {
		return store.User{}, fmt.Errorf("looking up user: %w", err)
	}

	ok, err := auth.CheckPassword(password, user.PasswordHash)
	if err != nil {
		slog.Warn("malformed password hash", "user_id", user.ID, "error", err)
		return store.User{}, ErrInvalidCredentials
	}
	if !ok {
		return store.User{}, ErrInvalidCredentials
	}
	if !user.IsActive {
		return user, ErrInactiveUser
	}

	if auth.NeedsRehash(user.PasswordHash) {
		if err := s.setPasswordHash(ctx, user.ID, password); err != nil {
			slog.Warn("failed to rehash password", "user_id", user.ID, "error", err)
		}
	}
	return user, nil
}

// AuthenticateAPIKey checks a username and raw API key pair.
func (s *UserService) AuthenticateAPIKey(ctx context.Context, username, rawKey string) (store.User, error) {
	user, err := s.queries.GetUserByUsername(ctx, username)
	if errors.Is(err, sql.ErrNoRows) {
		return store.User{}, ErrInvalidCredentials
	}
	if err != nil {
		return store.User{}, fmt.Errorf("looking up user: %w", err)
	}

	key, err := s.queries.GetAPIKeyByUserID(ctx, user.ID)
	if errors.Is(err, sql.ErrNoRows) {
		return store.User{}, ErrInvalidCredentials
	}
	if err != nil {
		return store.User{}, fmt.Errorf("looking up api key: %w", err)
	}
	if subtle.ConstantTimeCompare([]byte(key.KeyHash), []byte(model.HashAPIKey(rawKey))) != 1 {
		return store.User{}, ErrInvalidCredentials
	}
	if !user.IsActive {
		return user, ErrInactiveUser
	}

	if err := s.queries.UpdateAPIKeyLastUsed(ctx, store.UpdateAPIKeyLastUsedParams{
		LastUsedAt: sql.NullTime{Time: now(), Valid: true},
		ID:         key.ID,
	}); err != nil {
		slog.Warn("failed to record api key use", "user_id", user.ID, "error", err)
	}
	return user, nil
}

// GetByID returns the user with id.
func (s *UserService) GetByID(ctx context.Context, id int64) (store.User, error) {
	return s.queries.GetUserByID(ctx, id)
}

// GetByUsername returns the user with the exact username.
func (s *UserService) GetByUsername(ctx context.Context, username string) (store.User, error) {
	return s.queries.GetUserByUsername(ctx, username)
}

// List returns users ordered by username, optionally restricted to one
// username, with the total match count.
func (s *UserService) List(ctx context.Context, username string, limit, offset int) ([]store.User, int64, error) {
	total, err := s.queries.CountUsers(ctx, username)
	if err != nil {
		return nil, 0, fmt.Errorf("counting users: %w", err)
	}
	users, err := s.queries.ListUsers(ctx, store.ListUsersParams{
		Username: username,
		Limit:    int64(limit),
		Offset:   int64(offset),
	})
	if err != nil {
		return nil, 0, fmt.Errorf("listing users: %w", err)
	}
	return users, total, nil
}

// ListStaff returns the active staff users, the possible entry authors.
func (s *UserService) ListStaff(ctx context.Context) ([]store.User, error) {
	return s.queries.ListStaffUsers(ctx)
}

// Update replaces the editable profile fields of user id. Changing the
// email to one another user holds gives the duplicate email error.
func (s *UserService) Update(ctx context.Context, id int64, in UserUpdate) (store.User, error) {
	current, err := s.queries.GetUserByID(ctx, id)
	if err != nil {
		return store.User{}, err
	}
	if in.Email != "" && !strings.EqualFold(in.Email, current.Email) {
		n, err := s.queries.CountUsersByEmail(ctx, in.Email)
		if err != nil {
			return store.User{}, fmt.Errorf("checking email: %w", err)
		}
		if n > 0 {
			return store.User{}, validation.DuplicateEmail()
		}
	}

	user, err := s.queries.UpdateUser(ctx, store.UpdateUserParams{
		Email:     in.Email,
		FirstName: in.FirstName,
		LastName:  in.LastName,
		Name:      in.Name,
		ID:        id,
	})
	if err != nil {
		return store.User{}, fmt.Errorf("updating user %d: %w", id, err)
	}
	return user, nil
}

// SetPassword validates raw and stores it as the new password of user id.
func (s *UserService) SetPassword(ctx context.Context, id int64, raw string) error {
	if err := validation.ValidatePassword(raw); err != nil {
		return err
	}
	return s.setPasswordHash(ctx, id, raw)
}

func (s *UserService) setPasswordHash(ctx context.Context, id int64, raw string) error {
	hash, err := auth.HashPassword(raw)
	if err != nil {
		return fmt.Errorf("hashing password: %w", err)
	}
	return s.queries.UpdateUserPassword(ctx, store.UpdateUserPasswordParams{PasswordHash: hash, ID: id})
}

// UpdateLastLogin stamps the user's last login time.
func (s *UserService) UpdateLastLogin(ctx context.Context, id int64) error {
	return s.queries.UpdateUserLastLogin(ctx, store.UpdateUserLastLoginParams{
		LastLogin: sql.NullTime{Time: now(), Valid: true},
		ID:        id,
	})
}

// HasPermission reports whether user holds codename. Superusers hold
// every permission; inactive users hold none.
func (s *UserService) HasPermission(ctx context.Context, user store.User, codename string) (bool, error) {
	if !user.IsActive {
		return false, nil
	}
	if user.IsSuperuser {
		return true, nil
	}
	perms, err := s.queries.ListUserPermissions(ctx, user.ID)
	if err != nil {
		return false, fmt.Errorf("listing permissions: %w", err)
	}
	return slices.Contains(perms, codename), nil
}

// Grant gives user id the permission codename.
func (s *UserService) Grant(ctx context.Context, id int64, codename string) error {
	return s.queries.GrantPermission(ctx, store.GrantPermissionParams{UserID: id, Codename: codename})
}
