// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package store

import (
	"database/sql"
	"time"
)

type User struct {
	ID           int64        `json:"id"`
	Username     string       `json:"username"`
	Email        string       `json:"email"`
	FirstName    string       `json:"first_name"`
	LastName     string       `json:"last_name"`
	Name         string       `json:"name"`
	PasswordHash string       `json:"-"`
	IsStaff      bool         `json:"is_staff"`
	IsSuperuser  bool         `json:"is_superuser"`
	IsActive     bool         `json:"is_active"`
	DateJoined   time.Time    `json:"date_joined"`
	LastLogin    sql.NullTime `json:"last_login"`
}

type Profile struct {
	ID          int64          `json:"id"`
	UserID      int64          `json:"user_id"`
	DateOfBirth sql.NullTime   `json:"date_of_birth"`
	Photo       sql.NullString `json:"photo"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
}

type SocialAccount struct {
	ID        int64     `json:"id"`
	UserID    int64     `json:"user_id"`
	Provider  string    `json:"provider"`
	Uid       string    `json:"uid"`
	ExtraData string    `json:"extra_data"`
	CreatedAt time.Time `json:"created_at"`
}

type ApiKey struct {
	ID         int64        `json:"id"`
	UserID     int64        `json:"user_id"`
	KeyPrefix  string       `json:"key_prefix"`
	KeyHash    string       `json:"key_hash"`
	LastUsedAt sql.NullTime `json:"last_used_at"`
	CreatedAt  time.Time    `json:"created_at"`
}

type Blog struct {
	ID             int64     `json:"id"`
	Title          string    `json:"title"`
	TagLine        string    `json:"tag_line"`
	EntriesPerPage int64     `json:"entries_per_page"`
	Recents        int64     `json:"recents"`
	RecentComments int64     `json:"recent_comments"`
	AuthorID       int64     `json:"author_id"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

type Entry struct {
	ID                int64         `json:"id"`
	BlogID            sql.NullInt64 `json:"blog_id"`
	Title             string        `json:"title"`
	Slug              string        `json:"slug"`
	Text              string        `json:"text"`
	Summary           string        `json:"summary"`
	PublishedDate     sql.NullTime  `json:"published_date"`
	IsPublished       bool          `json:"is_published"`
	IsCommentsAllowed bool          `json:"is_comments_allowed"`
	MetaKeywords      string        `json:"meta_keywords"`
	MetaDescription   string        `json:"meta_description"`
	CreatedBy         sql.NullInt64 `json:"created_by"`
	CreatedDate       time.Time     `json:"created_date"`
	UpdatedAt         time.Time     `json:"updated_at"`
}

type Comment struct {
	ID          int64         `json:"id"`
	EntryID     int64         `json:"entry_id"`
	Text        string        `json:"text"`
	UserName    string        `json:"user_name"`
	UserEmail   string        `json:"user_email"`
	UserUrl     string        `json:"user_url"`
	AuthorID    sql.NullInt64 `json:"author_id"`
	Status      string        `json:"status"`
	UserAgent   string        `json:"user_agent"`
	CreatedDate time.Time     `json:"created_date"`
}

type Event struct {
	ID        int64     `json:"id"`
	Level     string    `json:"level"`
	Category  string    `json:"category"`
	Message   string    `json:"message"`
	Metadata  string    `json:"metadata"`
	CreatedAt time.Time `json:"created_at"`
}
