// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/alexedwards/scs/v2"
	"github.com/go-chi/chi/v5"

	"github.com/olegiv/oblog-go/internal/middleware"
	"github.com/olegiv/oblog-go/internal/model"
	"github.com/olegiv/oblog-go/internal/render"
	"github.com/olegiv/oblog-go/internal/service"
	"github.com/olegiv/oblog-go/internal/store"
	"github.com/olegiv/oblog-go/internal/validation"
)

// BlogHandler serves the index and the blog install/update pages.
type BlogHandler struct {
	site
	entries  *service.EntryService
	comments *service.CommentService
}

// NewBlogHandler creates a new BlogHandler.
func NewBlogHandler(renderer *render.Renderer, sm *scs.SessionManager, blogs *service.BlogService, entries *service.EntryService, comments *service.CommentService) *BlogHandler {
	return &BlogHandler{
		site:     site{renderer: renderer, sessionManager: sm, blogs: blogs},
		entries:  entries,
		comments: comments,
	}
}

// IndexData is the data for the entry index.
type IndexData struct {
	Entries    []store.Entry
	Pagination Pagination
	Sidebar    Sidebar
}

// BlogFormData is the data for the install, create and update pages.
type BlogFormData struct {
	Form   validation.BlogForm
	Errors validation.Errors
	Action string
	Blog   *store.Blog
}

// BlogDetailsData is the data for the blog details page.
type BlogDetailsData struct {
	Blog   store.Blog
	Author store.User
}

func detailsURL(id int64) string {
	return fmt.Sprintf("/details/%d/", id)
}

func updateURL(id int64) string {
	return fmt.Sprintf("/update/%d/", id)
}

func defaultBlogForm() validation.BlogForm {
	return validation.BlogForm{
		EntriesPerPage: model.DefaultEntriesPerPage,
		Recents:        model.DefaultRecents,
		RecentComments: model.DefaultRecentComments,
	}
}

// Index handles GET / - the paginated list of visible entries.
func (h *BlogHandler) Index(w http.ResponseWriter, r *http.Request) {
	state, err := h.blogs.State(r.Context())
	if err != nil {
		logAndInternalError(w, "failed to determine blog state", "error", err)
		return
	}
	switch state {
	case model.BlogUninstalled:
		http.Redirect(w, r, RouteInstall, http.StatusFound)
		return
	case model.BlogEmpty:
		if canWrite(r) {
			http.Redirect(w, r, RouteNewEntry, http.StatusFound)
			return
		}
	}

	blog, err := h.blogs.Get(r.Context())
	if err != nil {
		logAndInternalError(w, "failed to load blog", "error", err)
		return
	}

	page, ok := pageParam(r)
	if !ok {
		notFound(w)
		return
	}

	result, err := h.entries.ListVisible(r.Context(), page, int(blog.EntriesPerPage))
	if err != nil {
		handleLookupError(w, err, "entries", "page", page)
		return
	}
	// Entries exist but none is published yet.
	if result.Total == 0 && canWrite(r) {
		http.Redirect(w, r, RouteNewEntry, http.StatusFound)
		return
	}

	data := IndexData{
		Entries:    result.Items,
		Pagination: BuildPagination(result.Number, result.Total, result.PerPage, RouteRoot, nil),
		Sidebar:    sidebar(r.Context(), blog, h.entries, h.comments),
	}
	renderPage(w, r, h.renderer, http.StatusOK, "index", h.templateData(r, blog.Title, data))
}

// canWrite reports whether the empty index may send the visitor on to the
// new entry page. Signed-in users who are not staff would only be bounced
// back, so they see the empty list.
func canWrite(r *http.Request) bool {
	user := middleware.GetUser(r)
	return user == nil || user.IsStaff
}

// Install handles GET /install - the first-run page.
func (h *BlogHandler) Install(w http.ResponseWriter, r *http.Request) {
	state, err := h.blogs.State(r.Context())
	if err != nil {
		logAndInternalError(w, "failed to determine blog state", "error", err)
		return
	}
	if state.Installed() {
		http.Redirect(w, r, RouteRoot, http.StatusFound)
		return
	}

	data := BlogFormData{Form: defaultBlogForm(), Action: RouteCreate}
	renderPage(w, r, h.renderer, http.StatusOK, "install", h.templateData(r, "Install", data))
}

// CreateForm handles GET /create.
func (h *BlogHandler) CreateForm(w http.ResponseWriter, r *http.Request) {
	blog, err := h.blogs.Get(r.Context())
	if err == nil {
		http.Redirect(w, r, detailsURL(blog.ID), http.StatusFound)
		return
	}
	if !isNotFound(err) {
		logAndInternalError(w, "failed to load blog", "error", err)
		return
	}

	data := BlogFormData{Form: defaultBlogForm(), Action: RouteCreate}
	renderPage(w, r, h.renderer, http.StatusOK, "blog_form", h.templateData(r, "Create blog", data))
}

// Create handles POST /create - installs the blog.
func (h *BlogHandler) Create(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUser(r)

	form, errs := parseBlogForm(r)
	if len(errs) > 0 {
		h.renderBlogForm(w, r, "Create blog", BlogFormData{Form: form, Errors: errs, Action: RouteCreate})
		return
	}

	blog, err := h.blogs.Install(r.Context(), user.ID, form)
	if err != nil {
		var verrs validation.Errors
		switch {
		case errors.As(err, &verrs):
			errs.Merge(verrs)
		case errors.Is(err, service.ErrBlogExists):
			errs.Add(validation.NonFieldKey, service.MsgBlogExists)
		default:
			logAndInternalError(w, "failed to install blog", "error", err)
			return
		}
		h.renderBlogForm(w, r, "Create blog", BlogFormData{Form: form, Errors: errs, Action: RouteCreate})
		return
	}

	slog.Info("blog installed", "blog_id", blog.ID, "author_id", user.ID)
	flashSuccess(w, r, h.renderer, detailsURL(blog.ID), "created")
}

// UpdateForm handles GET /update/{id}/.
func (h *BlogHandler) UpdateForm(w http.ResponseWriter, r *http.Request) {
	blog, ok := h.blogFromPath(w, r)
	if !ok {
		return
	}

	data := BlogFormData{
		Form: validation.BlogForm{
			Title:          blog.Title,
			TagLine:        blog.TagLine,
			EntriesPerPage: int(blog.EntriesPerPage),
			Recents:        int(blog.Recents),
			RecentComments: int(blog.RecentComments),
		},
		Action: updateURL(blog.ID),
		Blog:   &blog,
	}
	renderPage(w, r, h.renderer, http.StatusOK, "blog_form", h.templateData(r, "Update blog", data))
}

// Update handles POST /update/{id}/.
func (h *BlogHandler) Update(w http.ResponseWriter, r *http.Request) {
	blog, ok := h.blogFromPath(w, r)
	if !ok {
		return
	}

	form, errs := parseBlogForm(r)
	data := BlogFormData{Form: form, Errors: errs, Action: updateURL(blog.ID), Blog: &blog}
	if len(errs) > 0 {
		h.renderBlogForm(w, r, "Update blog", data)
		return
	}

	if _, err := h.blogs.Update(r.Context(), blog.ID, form); err != nil {
		if errs.Merge(err) {
			h.renderBlogForm(w, r, "Update blog", data)
			return
		}
		logAndInternalError(w, "failed to update blog", "blog_id", blog.ID, "error", err)
		return
	}

	flashSuccess(w, r, h.renderer, detailsURL(blog.ID), "updated")
}

// Details handles GET /details/{id}/.
func (h *BlogHandler) Details(w http.ResponseWriter, r *http.Request) {
	blog, ok := h.blogFromPath(w, r)
	if !ok {
		return
	}

	data := BlogDetailsData{Blog: blog}
	if user := middleware.GetUser(r); user != nil && user.ID == blog.AuthorID {
		data.Author = *user
	}
	renderPage(w, r, h.renderer, http.StatusOK, "blog_details", h.templateData(r, blog.Title, data))
}

// blogFromPath loads the blog named by the {id} path parameter, writing a
// 404 when it does not exist.
func (h *BlogHandler) blogFromPath(w http.ResponseWriter, r *http.Request) (store.Blog, bool) {
	id, ok := idParam(chi.URLParam(r, "id"))
	if !ok {
		notFound(w)
		return store.Blog{}, false
	}
	blog, err := h.blogs.GetByID(r.Context(), id)
	if err != nil {
		handleLookupError(w, err, "blog", "blog_id", id)
		return store.Blog{}, false
	}
	return blog, true
}

func (h *BlogHandler) renderBlogForm(w http.ResponseWriter, r *http.Request, title string, data BlogFormData) {
	renderPage(w, r, h.renderer, http.StatusOK, "blog_form", h.templateData(r, title, data))
}

// parseBlogForm reads the blog form fields. Empty counters are left zero
// so the service applies its defaults.
func parseBlogForm(r *http.Request) (validation.BlogForm, validation.Errors) {
	errs := validation.Errors{}
	if err := r.ParseForm(); err != nil {
		errs.Add(validation.NonFieldKey, "Invalid form data.")
		return validation.BlogForm{}, errs
	}

	form := validation.BlogForm{
		Title:   strings.TrimSpace(r.PostFormValue("title")),
		TagLine: strings.TrimSpace(r.PostFormValue("tag_line")),
	}
	counters := []struct {
		field string
		dst   *int
	}{
		{"entries_per_page", &form.EntriesPerPage},
		{"recents", &form.Recents},
		{"recent_comments", &form.RecentComments},
	}
	for _, c := range counters {
		raw := strings.TrimSpace(r.PostFormValue(c.field))
		if raw == "" {
			continue
		}
		n, err := strconv.Atoi(raw)
		if err != nil {
			errs.Add(c.field, "Enter a whole number.")
			continue
		}
		*c.dst = n
	}
	return form, errs
}
