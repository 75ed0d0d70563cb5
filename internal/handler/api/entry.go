// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package api

import (
	"database/sql"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/olegiv/oblog-go/internal/middleware"
	"github.com/olegiv/oblog-go/internal/service"
	"github.com/olegiv/oblog-go/internal/store"
	"github.com/olegiv/oblog-go/internal/util"
	"github.com/olegiv/oblog-go/internal/validation"
)

// ListEntries handles GET /api/v1/entry/.
// Filters: user or user__id (author id), user__username, and
// published_date with the exact, lt, lte, gt and gte operators.
func (h *Handler) ListEntries(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	var author sql.NullInt64

	for _, param := range []string{"user", "user__id"} {
		v := q.Get(param)
		if v == "" {
			continue
		}
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			WriteBadRequest(w, CodeInvalidFilter, (&filterError{param: param, value: v}).Error())
			return
		}
		author = util.NullID(id)
	}

	if username := q.Get("user__username"); username != "" {
		user, err := h.users.GetByUsername(r.Context(), username)
		if isNotFound(err) {
			h.writeEntryList(w, r, nil, 0)
			return
		}
		if err != nil {
			writeServiceError(w, err, "failed to look up entry author", "username", username)
			return
		}
		if author.Valid && author.Int64 != user.ID {
			h.writeEntryList(w, r, nil, 0)
			return
		}
		author = util.NullID(user.ID)
	}

	h.listEntries(w, r, author)
}

// ListAuthorEntries handles GET /api/v1/entry-author/{username}/.
func (h *Handler) ListAuthorEntries(w http.ResponseWriter, r *http.Request) {
	username := chi.URLParam(r, "username")
	user, err := h.users.GetByUsername(r.Context(), username)
	if err != nil {
		writeServiceError(w, err, "failed to look up entry author", "username", username)
		return
	}
	h.listEntries(w, r, util.NullID(user.ID))
}

func (h *Handler) listEntries(w http.ResponseWriter, r *http.Request, author sql.NullInt64) {
	limit, offset, err := parseLimitOffset(r)
	if err != nil {
		WriteBadRequest(w, CodeBadRequest, err.Error())
		return
	}
	conds, err := parseDateFilters(r.URL.Query(), "published_date", false)
	if err != nil {
		WriteBadRequest(w, CodeInvalidFilter, err.Error())
		return
	}

	entries, total, err := h.entries.List(r.Context(), store.EntryFilter{
		CreatedBy:     author,
		PublishedDate: conds,
		Limit:         int64(limit),
		Offset:        int64(offset),
	})
	if err != nil {
		writeServiceError(w, err, "failed to list entries")
		return
	}
	h.writeEntryList(w, r, entries, total)
}

func (h *Handler) writeEntryList(w http.ResponseWriter, r *http.Request, entries []store.Entry, total int64) {
	limit, offset, err := parseLimitOffset(r)
	if err != nil {
		WriteBadRequest(w, CodeBadRequest, err.Error())
		return
	}
	WriteJSON(w, http.StatusOK, PaginatedResponse{
		Pagination: buildPageMeta(r, limit, offset, total),
		Objects:    entryResponses(entries),
	})
}

func (h *Handler) requireEntry(w http.ResponseWriter, r *http.Request) (store.Entry, bool) {
	return requireEntityByID(w, r, "entry", func(id int64) (store.Entry, error) {
		return h.entries.GetByID(r.Context(), id)
	})
}

// authorizeWrite applies the entry write policy for the request method.
func (h *Handler) authorizeWrite(w http.ResponseWriter, r *http.Request, entry store.Entry) bool {
	user := middleware.GetUser(r)
	if user == nil {
		WriteBadRequest(w, CodeAuthorizationError, service.MsgNotAuthorized)
		return false
	}
	if _, err := h.policy.Authorize(*user, r.Method, []store.Entry{entry}); err != nil {
		slog.Warn("entry write refused", "entry_id", entry.ID, "user_id", user.ID, "method", r.Method)
		writeServiceError(w, err, "entry authorization failed")
		return false
	}
	return true
}

// GetEntry handles GET /api/v1/entry/{id}/.
func (h *Handler) GetEntry(w http.ResponseWriter, r *http.Request) {
	entry, ok := h.requireEntry(w, r)
	if !ok {
		return
	}
	WriteJSON(w, http.StatusOK, entryResponse(entry))
}

// UpdateEntry handles PUT /api/v1/entry/{id}/. Only the entry's author may
// update it. Absent fields keep their value; a missing author or blog
// defaults to the requesting user and their blog.
func (h *Handler) UpdateEntry(w http.ResponseWriter, r *http.Request) {
	entry, ok := h.requireEntry(w, r)
	if !ok {
		return
	}
	if !h.authorizeWrite(w, r, entry) {
		return
	}
	user := middleware.GetUser(r)

	in, err := readFields(w, r)
	if err != nil {
		WriteBadRequest(w, CodeBadRequest, err.Error())
		return
	}

	input, errs := entryInput(service.InputFromEntry(entry), in)
	if len(errs) > 0 {
		WriteValidationError(w, errs)
		return
	}

	if !input.CreatedBy.Valid {
		input.CreatedBy = util.NullID(user.ID)
	}
	if !input.BlogID.Valid {
		blog, err := h.blogs.ForAuthor(r.Context(), user.ID)
		switch {
		case err == nil:
			input.BlogID = util.NullID(blog.ID)
		case !isNotFound(err):
			writeServiceError(w, err, "failed to look up blog", "user_id", user.ID)
			return
		}
	}

	updated, err := h.entries.Update(r.Context(), entry.ID, input)
	if err != nil {
		writeServiceError(w, err, "failed to update entry", "entry_id", entry.ID)
		return
	}

	slog.Info("entry updated via API", "entry_id", updated.ID, "user_id", user.ID)
	WriteJSON(w, http.StatusOK, entryResponse(updated))
}

// entryInput overlays the request fields on base.
func entryInput(base service.EntryInput, in fields) (service.EntryInput, validation.Errors) {
	errs := validation.Errors{}

	text := map[string]*string{
		"title":            &base.Title,
		"slug":             &base.Slug,
		"text":             &base.Text,
		"summary":          &base.Summary,
		"meta_keywords":    &base.MetaKeywords,
		"meta_description": &base.MetaDescription,
	}
	for key, dst := range text {
		if in.has(key) {
			*dst = strings.TrimSpace(in[key])
		}
	}

	flags := map[string]*bool{
		"is_published":        &base.IsPublished,
		"is_comments_allowed": &base.IsCommentsAllowed,
	}
	for key, dst := range flags {
		v, err := in.bool(key, *dst)
		if err != nil {
			errs.Add(key, "Enter a valid boolean.")
			continue
		}
		*dst = v
	}

	if in.has("published_date") {
		base.PublishedDate = sql.NullTime{}
		if v := in["published_date"]; v != "" {
			t, ok := parseFilterDate(v)
			if !ok {
				errs.Add("published_date", "Enter a valid date/time.")
			}
			base.PublishedDate = sql.NullTime{Time: t, Valid: ok}
		}
	}
	return base, errs
}

// DeleteEntry handles DELETE /api/v1/entry/{id}/. Only the entry's author
// may delete it.
func (h *Handler) DeleteEntry(w http.ResponseWriter, r *http.Request) {
	entry, ok := h.requireEntry(w, r)
	if !ok {
		return
	}
	if !h.authorizeWrite(w, r, entry) {
		return
	}

	if err := h.entries.Delete(r.Context(), entry.ID); err != nil {
		writeServiceError(w, err, "failed to delete entry", "entry_id", entry.ID)
		return
	}

	slog.Info("entry deleted via API", "entry_id", entry.ID, "user_id", middleware.GetUserID(r))
	w.WriteHeader(http.StatusNoContent)
}

// SearchEntries handles GET /api/v1/all_entries/search/ and
// GET /api/v1/entry/search/. Results come 20 per page; a malformed page
// or one past the end is a 404.
func (h *Handler) SearchEntries(w http.ResponseWriter, r *http.Request) {
	page := 1
	if v := r.URL.Query().Get("page"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			WriteNotFound(w, service.MsgPageOutOfRange)
			return
		}
		page = n
	}

	query := r.URL.Query().Get("q")
	result, err := h.search.Search(r.Context(), query, page, service.SearchPerPage)
	if err != nil {
		writeServiceError(w, err, "search failed", "query", query, "page", page)
		return
	}

	WriteJSON(w, http.StatusOK, ObjectsResponse{Objects: entryResponses(result.Entries)})
}
