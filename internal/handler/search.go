// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"net/http"
	"net/url"
	"strings"

	"github.com/alexedwards/scs/v2"

	"github.com/olegiv/oblog-go/internal/render"
	"github.com/olegiv/oblog-go/internal/service"
)

// SearchHandler serves the HTML search page.
type SearchHandler struct {
	site
	search *service.SearchService
}

// NewSearchHandler creates a new SearchHandler.
func NewSearchHandler(renderer *render.Renderer, sm *scs.SessionManager, blogs *service.BlogService, search *service.SearchService) *SearchHandler {
	return &SearchHandler{
		site:   site{renderer: renderer, sessionManager: sm, blogs: blogs},
		search: search,
	}
}

// SearchData is the data for the search page.
type SearchData struct {
	Query      string
	Result     service.SearchResult
	Pagination Pagination
}

// Search handles GET /search/?q=&page=.
func (h *SearchHandler) Search(w http.ResponseWriter, r *http.Request) {
	query := strings.TrimSpace(r.URL.Query().Get("q"))
	page, ok := pageParam(r)
	if !ok {
		notFound(w)
		return
	}

	result, err := h.search.Search(r.Context(), query, page, service.SearchPerPage)
	if err != nil {
		handleLookupError(w, err, "search results", "query", query, "page", page)
		return
	}

	data := SearchData{
		Query:      query,
		Result:     result,
		Pagination: BuildPagination(result.Page, result.Total, service.SearchPerPage, r.URL.Path, url.Values{"q": {query}}),
	}
	renderPage(w, r, h.renderer, http.StatusOK, "search", h.templateData(r, "Search", data))
}
