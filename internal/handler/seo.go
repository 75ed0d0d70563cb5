// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"log/slog"
	"net/http"

	"github.com/olegiv/oblog-go/internal/seo"
	"github.com/olegiv/oblog-go/internal/service"
)

// SEOHandler serves sitemap.xml and robots.txt.
type SEOHandler struct {
	entries *service.EntryService
	users   *service.UserService
	siteURL string
	// disallowAll hides the whole site from crawlers.
	disallowAll bool
}

// NewSEOHandler creates the handler. An empty siteURL is taken from each
// request.
func NewSEOHandler(entries *service.EntryService, users *service.UserService, siteURL string, disallowAll bool) *SEOHandler {
	return &SEOHandler{entries: entries, users: users, siteURL: siteURL, disallowAll: disallowAll}
}

// Sitemap lists the index, every visible entry and the author pages.
func (h *SEOHandler) Sitemap(w http.ResponseWriter, r *http.Request) {
	entries, err := h.entries.AllVisible(r.Context())
	if err != nil {
		slog.Error("failed to list entries for sitemap", "error", err)
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	staff, err := h.users.ListStaff(r.Context())
	if err != nil {
		slog.Error("failed to list authors for sitemap", "error", err)
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	items := make([]seo.SitemapEntry, 0, len(entries))
	for _, e := range entries {
		items = append(items, seo.SitemapEntry{Path: service.EntryURL(e), UpdatedAt: e.UpdatedAt})
	}
	authors := make([]string, 0, len(staff))
	for _, u := range staff {
		authors = append(authors, u.Username)
	}

	data, err := seo.GenerateSitemap(h.baseURL(r), items, authors)
	if err != nil {
		slog.Error("failed to build sitemap", "error", err)
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/xml; charset=utf-8")
	_, _ = w.Write(data)
}

// Robots writes robots.txt.
func (h *SEOHandler) Robots(w http.ResponseWriter, r *http.Request) {
	content := seo.NewRobotsBuilder(seo.RobotsConfig{
		SiteURL:     h.baseURL(r),
		DisallowAll: h.disallowAll,
	}).Build()

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte(content))
}

func (h *SEOHandler) baseURL(r *http.Request) string {
	if h.siteURL != "" {
		return h.siteURL
	}
	scheme := "http"
	if r.TLS != nil || r.Header.Get("X-Forwarded-Proto") == "https" {
		scheme = "https"
	}
	return scheme + "://" + r.Host
}
