// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package storage

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

// ErrInvalidKey is returned for keys that would leave the storage root.
var ErrInvalidKey = errors.New("storage: invalid key")

// Local stores objects under a directory served at baseURL.
type Local struct {
	dir     string
	baseURL string
}

// NewLocal creates a local disk storage rooted at dir.
func NewLocal(dir, baseURL string) *Local {
	return &Local{dir: dir, baseURL: baseURL}
}

// Dir returns the root directory, for serving files.
func (l *Local) Dir() string {
	return l.dir
}

// Put writes data to the file named by key.
func (l *Local) Put(_ context.Context, key, _ string, data []byte) error {
	target, err := l.path(key)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(target), 0o750); err != nil {
		return fmt.Errorf("creating directory: %w", err)
	}

	if err := os.WriteFile(target, data, 0o640); err != nil {
		return fmt.Errorf("writing %s: %w", key, err)
	}
	return nil
}

// Delete removes the file named by key. A missing file is not an error.
func (l *Local) Delete(_ context.Context, key string) error {
	target, err := l.path(key)
	if err != nil {
		return err
	}

	if err := os.Remove(target); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return nil
}

func (l *Local) path(key string) (string, error) {
	rel := filepath.FromSlash(key)
	if !filepath.IsLocal(rel) {
		return "", fmt.Errorf("%w: %q", ErrInvalidKey, key)
	}
	return filepath.Join(l.dir, rel), nil
}

// URL returns baseURL joined with key.
func (l *Local) URL(key string) string {
	return joinURL(l.baseURL, key)
}

var _ Storage = (*Local)(nil)
