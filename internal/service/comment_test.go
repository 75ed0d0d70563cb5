// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package service

import (
	"context"
	"errors"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/olegiv/oblog-go/internal/model"
	"github.com/olegiv/oblog-go/internal/testutil"
	"github.com/olegiv/oblog-go/internal/validation"
)

const (
	browserUA = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"
	botUA     = "Mozilla/5.0 (compatible; Googlebot/2.1; +http://www.google.com/bot.html)"
)

func TestModerationPolicies(t *testing.T) {
	tests := []struct {
		name   string
		policy ModerationPolicy
		ua     string
		want   model.CommentStatus
	}{
		{"auto approve browser", AutoApprove{}, browserUA, model.CommentApproved},
		{"auto approve bot", AutoApprove{}, botUA, model.CommentApproved},
		{"hold bots browser", HoldBots{}, browserUA, model.CommentApproved},
		{"hold bots bot", HoldBots{}, botUA, model.CommentPending},
		{"hold bots empty", HoldBots{}, "", model.CommentPending},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.policy.Status(tt.ua))
		})
	}

	assert.IsType(t, HoldBots{}, PolicyByName("hold_bots"))
	assert.IsType(t, AutoApprove{}, PolicyByName("auto_approve"))
}

func TestCommentService_Create(t *testing.T) {
	db, q := setupDB(t)
	ctx := context.Background()
	author := testutil.CreateUser(t, q, "writer", testutil.UserOpts{})
	blog := testutil.CreateBlog(t, q, author)
	entry := testutil.CreateEntry(t, q, blog, author, "Django post", "post", testutil.EntryOpts{})
	closed := testutil.CreateEntry(t, q, blog, author, "Django closed", "closed", testutil.EntryOpts{NoComments: true})
	svc := NewCommentService(db, HoldBots{}, nil)

	form := validation.CommentForm{Text: "Nice post", Name: "Reader", Email: "reader@example.com"}

	c, err := svc.Create(ctx, entry, CommentInput{Form: form, UserAgent: browserUA})
	require.NoError(t, err)
	assert.Equal(t, string(model.CommentApproved), c.Status)

	held, err := svc.Create(ctx, entry, CommentInput{Form: form, UserAgent: botUA + strings.Repeat("x", 300)})
	require.NoError(t, err)
	assert.Equal(t, string(model.CommentPending), held.Status)
	assert.Len(t, held.UserAgent, model.CommentUserAgentMaxLength)

	other := testutil.CreateEntry(t, q, blog, author, "Django other", "other", testutil.EntryOpts{})
	wide, err := svc.Create(ctx, other, CommentInput{Form: form, UserAgent: strings.Repeat("é", 300)})
	require.NoError(t, err)
	assert.True(t, utf8.ValidString(wide.UserAgent))
	assert.Equal(t, model.CommentUserAgentMaxLength, utf8.RuneCountInString(wide.UserAgent))

	_, err = svc.Create(ctx, closed, CommentInput{Form: form})
	assert.ErrorIs(t, err, ErrCommentsClosed)

	_, err = svc.Create(ctx, entry, CommentInput{Form: validation.CommentForm{Name: "x", Email: "bad"}})
	var verrs validation.Errors
	require.True(t, errors.As(err, &verrs))
	assert.Contains(t, verrs, "comment")
	assert.Contains(t, verrs, "email")

	all, err := svc.ForEntry(ctx, entry.ID)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	public, err := svc.Public(ctx, entry.ID)
	require.NoError(t, err)
	assert.Len(t, public, 1)

	require.NoError(t, svc.Moderate(ctx, c.ID, model.CommentRejected))
	all, err = svc.ForEntry(ctx, entry.ID)
	require.NoError(t, err)
	assert.Len(t, all, 1)

	n, err := NewEntryService(db, nil, nil).CommentCount(ctx, entry.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	assert.Error(t, svc.Moderate(ctx, c.ID, model.CommentStatus("bogus")))
}
