// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package storage persists uploaded files, either on local disk or in an
// S3-compatible bucket, behind one interface.
package storage

import (
	"context"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Storage stores and addresses uploaded objects by key.
type Storage interface {
	Put(ctx context.Context, key, contentType string, data []byte) error
	Delete(ctx context.Context, key string) error
	// URL returns the public URL for key.
	URL(key string) string
}

// PhotoKey builds users/2006/01/02/<uuid><ext> for an upload at t.
func PhotoKey(t time.Time, ext string) string {
	return path.Join("users", t.UTC().Format("2006/01/02"), uuid.NewString()+ext)
}

// ThumbnailKey derives the thumbnail key stored next to an original.
func ThumbnailKey(key string) string {
	ext := path.Ext(key)
	return strings.TrimSuffix(key, ext) + "_thumb" + ext
}

func joinURL(base, key string) string {
	return strings.TrimRight(base, "/") + "/" + strings.TrimLeft(key, "/")
}
