// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package model

// Blog defaults applied when a field is left empty on install.
const (
	DefaultEntriesPerPage = 10
	DefaultRecents        = 5
	DefaultRecentComments = 5
)

// BlogState is where the installation is in its lifecycle.
type BlogState int

const (
	// BlogUninstalled means no blog row exists.
	BlogUninstalled BlogState = iota
	// BlogEmpty means the blog exists but has no entries.
	BlogEmpty
	// BlogPopulated means the blog exists and has at least one entry.
	BlogPopulated
)

func (s BlogState) String() string {
	switch s {
	case BlogUninstalled:
		return "uninstalled"
	case BlogEmpty:
		return "installed-empty"
	case BlogPopulated:
		return "installed-populated"
	default:
		return "unknown"
	}
}

// Installed reports whether a blog row exists.
func (s BlogState) Installed() bool {
	return s != BlogUninstalled
}
