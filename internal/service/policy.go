// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package service

import (
	"net/http"

	"github.com/olegiv/oblog-go/internal/store"
)

// EntryWritePolicy restricts entry writes to the entries' authors.
type EntryWritePolicy struct{}

// Authorize returns the entries the user may act on with method. PUT and
// DELETE keep only the user's own entries and fail with ErrNotAuthorized
// when none remain; other methods pass every entry through.
func (EntryWritePolicy) Authorize(user store.User, method string, entries []store.Entry) ([]store.Entry, error) {
	switch method {
	case http.MethodPut, http.MethodDelete:
	default:
		return entries, nil
	}

	allowed := make([]store.Entry, 0, len(entries))
	for _, e := range entries {
		if e.CreatedBy.Valid && e.CreatedBy.Int64 == user.ID {
			allowed = append(allowed, e)
		}
	}
	if len(allowed) == 0 {
		return nil, ErrNotAuthorized
	}
	return allowed, nil
}
