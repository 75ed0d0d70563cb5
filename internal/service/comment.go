// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/mileusna/useragent"

	"github.com/olegiv/oblog-go/internal/config"
	"github.com/olegiv/oblog-go/internal/metrics"
	"github.com/olegiv/oblog-go/internal/model"
	"github.com/olegiv/oblog-go/internal/store"
	"github.com/olegiv/oblog-go/internal/util"
	"github.com/olegiv/oblog-go/internal/validation"
)

// ErrCommentsClosed is returned when commenting on an entry that disallows it.
var ErrCommentsClosed = errors.New("comments are closed")

// ModerationPolicy picks the initial status of a new comment.
type ModerationPolicy interface {
	Status(userAgent string) model.CommentStatus
}

// AutoApprove publishes every comment immediately.
type AutoApprove struct{}

// Status implements ModerationPolicy.
func (AutoApprove) Status(string) model.CommentStatus {
	return model.CommentApproved
}

// HoldBots publishes comments from browsers and holds those from crawlers
// or clients without a user agent for review.
type HoldBots struct{}

// Status implements ModerationPolicy.
func (HoldBots) Status(userAgent string) model.CommentStatus {
	if strings.TrimSpace(userAgent) == "" || useragent.Parse(userAgent).Bot {
		return model.CommentPending
	}
	return model.CommentApproved
}

// PolicyByName maps an OBLOG_COMMENT_POLICY value to its policy.
func PolicyByName(name string) ModerationPolicy {
	if name == config.CommentPolicyHoldBots {
		return HoldBots{}
	}
	return AutoApprove{}
}

// CommentInput is a comment submission.
type CommentInput struct {
	Form      validation.CommentForm
	AuthorID  sql.NullInt64
	UserAgent string
}

// CommentService stores comments through the moderation policy.
type CommentService struct {
	queries *store.Queries
	policy  ModerationPolicy
	metrics *metrics.Metrics
}

// NewCommentService creates a comment service. A nil policy auto-approves.
func NewCommentService(db *sql.DB, policy ModerationPolicy, m *metrics.Metrics) *CommentService {
	if policy == nil {
		policy = AutoApprove{}
	}
	return &CommentService{
		queries: store.New(db),
		policy:  policy,
		metrics: m,
	}
}

// Create validates in and attaches it to entry.
func (s *CommentService) Create(ctx context.Context, entry store.Entry, in CommentInput) (store.Comment, error) {
	if !entry.IsCommentsAllowed {
		return store.Comment{}, ErrCommentsClosed
	}
	if err := in.Form.Validate(); err != nil {
		return store.Comment{}, err
	}

	ua := util.Truncate(in.UserAgent, model.CommentUserAgentMaxLength)
	status := s.policy.Status(in.UserAgent)

	comment, err := s.queries.CreateComment(ctx, store.CreateCommentParams{
		EntryID:     entry.ID,
		Text:        in.Form.Text,
		UserName:    in.Form.Name,
		UserEmail:   in.Form.Email,
		UserUrl:     in.Form.URL,
		AuthorID:    in.AuthorID,
		Status:      string(status),
		UserAgent:   ua,
		CreatedDate: now(),
	})
	if err != nil {
		return store.Comment{}, fmt.Errorf("creating comment on entry %d: %w", entry.ID, err)
	}

	s.metrics.CommentCreated(string(status))
	if status == model.CommentPending {
		slog.Info("comment held for moderation", "comment_id", comment.ID, "entry_id", entry.ID)
	}
	return comment, nil
}

// ForEntry returns the entry's comments that are not spam, oldest first.
func (s *CommentService) ForEntry(ctx context.Context, entryID int64) ([]store.Comment, error) {
	return s.queries.ListCommentsForEntry(ctx, entryID)
}

// Public returns the entry's approved comments.
func (s *CommentService) Public(ctx context.Context, entryID int64) ([]store.Comment, error) {
	return s.queries.ListApprovedCommentsForEntry(ctx, entryID)
}

// Recent returns the n newest approved comments across the blog.
func (s *CommentService) Recent(ctx context.Context, n int) ([]store.Comment, error) {
	return s.queries.ListRecentComments(ctx, int64(n))
}

// Moderate changes a comment's status.
func (s *CommentService) Moderate(ctx context.Context, id int64, status model.CommentStatus) error {
	if !status.Valid() {
		return fmt.Errorf("unknown comment status %q", status)
	}
	return s.queries.UpdateCommentStatus(ctx, store.UpdateCommentStatusParams{Status: string(status), ID: id})
}
