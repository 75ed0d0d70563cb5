// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package model

// CommentStatus is the moderation state of a comment.
type CommentStatus string

// Comment moderation states.
const (
	CommentPending  CommentStatus = "pending"
	CommentApproved CommentStatus = "approved"
	CommentRejected CommentStatus = "rejected"
)

// Valid reports whether s is a known status.
func (s CommentStatus) Valid() bool {
	switch s {
	case CommentPending, CommentApproved, CommentRejected:
		return true
	default:
		return false
	}
}

// IsPublic mirrors the legacy tri-state public flag: nil while pending.
func (s CommentStatus) IsPublic() *bool {
	var v bool
	switch s {
	case CommentApproved:
		v = true
	case CommentRejected:
		v = false
	default:
		return nil
	}
	return &v
}

// IsSpam reports whether the comment was rejected.
func (s CommentStatus) IsSpam() bool {
	return s == CommentRejected
}

// CommentUserAgentMaxLength bounds the stored user agent.
const CommentUserAgentMaxLength = 200
