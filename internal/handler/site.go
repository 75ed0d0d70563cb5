// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"net/http"

	"github.com/alexedwards/scs/v2"

	"github.com/olegiv/oblog-go/internal/middleware"
	"github.com/olegiv/oblog-go/internal/render"
	"github.com/olegiv/oblog-go/internal/service"
	"github.com/olegiv/oblog-go/internal/store"
)

// site carries what every page handler needs to render the layout.
type site struct {
	renderer       *render.Renderer
	sessionManager *scs.SessionManager
	blogs          *service.BlogService
}

// templateData fills the layout fields: the signed-in user and the blog.
func (s site) templateData(r *http.Request, title string, data any) render.TemplateData {
	td := render.TemplateData{
		Title: title,
		Data:  data,
		User:  middleware.GetUser(r),
	}
	blog, err := s.blogs.Get(r.Context())
	switch {
	case err == nil:
		td.Blog = &blog
		if td.Title == "" {
			td.Title = blog.Title
		}
	case !errors.Is(err, sql.ErrNoRows):
		slog.Warn("failed to load blog for layout", "error", err)
	}
	return td
}

// Sidebar lists the latest entries and comments next to the content.
type Sidebar struct {
	Entries  []store.Entry
	Comments []store.Comment
}

// sidebar loads the blog's "recent" boxes. Failures leave them empty.
func sidebar(ctx context.Context, blog store.Blog, entries *service.EntryService, comments *service.CommentService) Sidebar {
	var sb Sidebar
	var err error
	if sb.Entries, err = entries.Recent(ctx, int(blog.Recents)); err != nil {
		slog.Warn("failed to load recent entries", "error", err)
	}
	if sb.Comments, err = comments.Recent(ctx, int(blog.RecentComments)); err != nil {
		slog.Warn("failed to load recent comments", "error", err)
	}
	return sb
}
