// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package service implements the blog's business operations on top of the
// store: installing the blog, writing entries and comments, managing
// accounts and profiles, and searching.
package service

import (
	"errors"
	"time"
)

// Sentinel errors returned by services. Handlers translate them to
// responses with errors.Is.
var (
	ErrBlogExists         = errors.New("blog already exists")
	ErrNotAuthorized      = errors.New("not authorized")
	ErrPageOutOfRange     = errors.New("page out of range")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrInactiveUser       = errors.New("user is inactive")
	ErrSocialLogin        = errors.New("social login failed")
	ErrNotFound           = errors.New("not found")
)

// User-facing messages for the sentinel errors.
const (
	MsgBlogExists         = "Only one blog object allowed."
	MsgNotAuthorized      = "Authorization error"
	MsgPageOutOfRange     = "Sorry, no results on that page."
	MsgInvalidCredentials = "Invalid username or password."
	MsgSocialLogin        = "Can't login."
)

// now returns the current time in UTC; stored times are always UTC so they
// compare correctly as SQLite text.
var now = func() time.Time {
	return time.Now().UTC()
}

// Page is one page of a paginated listing.
type Page[T any] struct {
	Items   []T
	Total   int64
	Number  int
	PerPage int
}

// Pages returns the number of pages, at least 1.
func (p Page[T]) Pages() int {
	if p.PerPage <= 0 || p.Total == 0 {
		return 1
	}
	return int((p.Total + int64(p.PerPage) - 1) / int64(p.PerPage))
}

// HasPrev reports whether a previous page exists.
func (p Page[T]) HasPrev() bool {
	return p.Number > 1
}

// HasNext reports whether a next page exists.
func (p Page[T]) HasNext() bool {
	return p.Number < p.Pages()
}

// checkPage returns ErrPageOutOfRange unless page is within the pages
// needed for total items. Page 1 always exists.
func checkPage(page, perPage int, total int64) error {
	if page < 1 || page > (Page[struct{}]{Total: total, PerPage: perPage}).Pages() {
		return ErrPageOutOfRange
	}
	return nil
}
