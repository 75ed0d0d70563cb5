// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/alexedwards/scs/v2"
	"github.com/go-chi/chi/v5"

	"github.com/olegiv/oblog-go/internal/middleware"
	"github.com/olegiv/oblog-go/internal/model"
	"github.com/olegiv/oblog-go/internal/render"
	"github.com/olegiv/oblog-go/internal/service"
	"github.com/olegiv/oblog-go/internal/session"
	"github.com/olegiv/oblog-go/internal/store"
	"github.com/olegiv/oblog-go/internal/util"
	"github.com/olegiv/oblog-go/internal/validation"
)

// Entry page messages.
const (
	MsgEntryCreated    = "Entry was created"
	MsgCommentsClosed  = "Comments are closed for this entry."
	MsgCommentHeld     = "Your comment is awaiting moderation."
	MsgInvalidAuthor   = "Select a valid choice. That choice is not one of the available choices."
	MsgInvalidFormData = "Invalid form data."
)

// EntryHandler serves entry pages, the comment form and author listings.
type EntryHandler struct {
	site
	entries  *service.EntryService
	comments *service.CommentService
	users    *service.UserService
}

// NewEntryHandler creates a new EntryHandler.
func NewEntryHandler(renderer *render.Renderer, sm *scs.SessionManager, blogs *service.BlogService, entries *service.EntryService, comments *service.CommentService, users *service.UserService) *EntryHandler {
	return &EntryHandler{
		site:     site{renderer: renderer, sessionManager: sm, blogs: blogs},
		entries:  entries,
		comments: comments,
		users:    users,
	}
}

// EntryFormData is the data for the new entry page.
type EntryFormData struct {
	Form          validation.EntryForm
	Errors        validation.Errors
	Authors       []store.User
	PublishedDate time.Time
}

// EntryDetailData is the data for an entry page.
type EntryDetailData struct {
	Entry    store.Entry
	Author   *store.User
	Comments []store.Comment
	Form     validation.CommentForm
	Errors   validation.Errors
	Sidebar  Sidebar
}

// AuthorData is the data for an author's entry listing.
type AuthorData struct {
	Author     store.User
	Entries    []store.Entry
	Pagination Pagination
}

// NewForm handles GET /entry/new/.
func (h *EntryHandler) NewForm(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUser(r)

	authors, err := h.users.ListStaff(r.Context())
	if err != nil {
		logAndInternalError(w, "failed to list staff users", "error", err)
		return
	}

	data := EntryFormData{
		Form: validation.EntryForm{
			IsCommentsAllowed: true,
			CreatedBy:         user.ID,
		},
		Authors:       authors,
		PublishedDate: time.Now().UTC(),
	}
	renderPage(w, r, h.renderer, http.StatusOK, "entry_form", h.templateData(r, "New entry", data))
}

// Create handles POST /entry/new/.
func (h *EntryHandler) Create(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUser(r)

	authors, err := h.users.ListStaff(r.Context())
	if err != nil {
		logAndInternalError(w, "failed to list staff users", "error", err)
		return
	}

	form, errs := parseEntryForm(r)
	if form.CreatedBy == 0 {
		form.CreatedBy = user.ID
	}
	if !containsUser(authors, form.CreatedBy) {
		errs.Add("created_by", MsgInvalidAuthor)
	}
	errs.Merge(form.Validate())

	data := EntryFormData{Form: form, Errors: errs, Authors: authors, PublishedDate: time.Now().UTC()}
	if len(errs) > 0 {
		renderPage(w, r, h.renderer, http.StatusOK, "entry_form", h.templateData(r, "New entry", data))
		return
	}

	blog, err := h.blogs.ForAuthor(r.Context(), user.ID)
	if isNotFound(err) {
		blog, err = h.blogs.Get(r.Context())
	}
	var blogID sql.NullInt64
	switch {
	case err == nil:
		blogID = util.NullID(blog.ID)
	case !isNotFound(err):
		logAndInternalError(w, "failed to load blog", "error", err)
		return
	}

	entry, err := h.entries.Create(r.Context(), service.EntryInput{
		BlogID:            blogID,
		Title:             form.Title,
		Slug:              form.Slug,
		Text:              form.Text,
		Summary:           form.Summary,
		PublishedDate:     util.NullTime(time.Now()),
		IsPublished:       true,
		IsCommentsAllowed: form.IsCommentsAllowed,
		MetaKeywords:      form.MetaKeywords,
		MetaDescription:   form.MetaDescription,
		CreatedBy:         util.NullID(form.CreatedBy),
	})
	if err != nil {
		if errs.Merge(err) {
			renderPage(w, r, h.renderer, http.StatusOK, "entry_form", h.templateData(r, "New entry", data))
			return
		}
		logAndInternalError(w, "failed to create entry", "error", err)
		return
	}

	flashSuccess(w, r, h.renderer, service.EntryURL(entry), MsgEntryCreated)
}

// Detail handles GET /{year}/{month}/{day}/{slug}/.
func (h *EntryHandler) Detail(w http.ResponseWriter, r *http.Request) {
	entry, ok := h.entryFromPath(w, r)
	if !ok {
		return
	}

	var form validation.CommentForm
	if user := middleware.GetUser(r); user != nil {
		form.Name = service.DisplayName(*user)
		form.Email = user.Email
	} else {
		c := session.RecalledCommenter(r.Context(), h.sessionManager)
		form.Name, form.Email, form.URL = c.Name, c.Email, c.URL
	}

	h.renderEntry(w, r, http.StatusOK, entry, form, nil)
}

// Comment handles POST /{year}/{month}/{day}/{slug}/ - a new comment.
func (h *EntryHandler) Comment(w http.ResponseWriter, r *http.Request) {
	entry, ok := h.entryFromPath(w, r)
	if !ok {
		return
	}
	if !entry.IsCommentsAllowed {
		http.Error(w, MsgCommentsClosed, http.StatusForbidden)
		return
	}
	if err := r.ParseForm(); err != nil {
		http.Error(w, MsgInvalidFormData, http.StatusBadRequest)
		return
	}

	form := validation.CommentForm{
		Text:  strings.TrimSpace(r.PostFormValue("comment")),
		Name:  strings.TrimSpace(r.PostFormValue("name")),
		Email: strings.TrimSpace(r.PostFormValue("email")),
		URL:   strings.TrimSpace(r.PostFormValue("url")),
	}
	in := service.CommentInput{Form: form, UserAgent: r.UserAgent()}
	if user := middleware.GetUser(r); user != nil {
		in.AuthorID = util.NullID(user.ID)
	}

	comment, err := h.comments.Create(r.Context(), entry, in)
	if err != nil {
		var verrs validation.Errors
		switch {
		case errors.As(err, &verrs):
			h.renderEntry(w, r, http.StatusOK, entry, form, verrs)
		case errors.Is(err, service.ErrCommentsClosed):
			http.Error(w, MsgCommentsClosed, http.StatusForbidden)
		default:
			logAndInternalError(w, "failed to create comment", "entry_id", entry.ID, "error", err)
		}
		return
	}

	session.RememberCommenter(r.Context(), h.sessionManager, session.Commenter{
		Name:  form.Name,
		Email: form.Email,
		URL:   form.URL,
	})
	if model.CommentStatus(comment.Status) == model.CommentPending {
		h.renderer.SetFlash(r, MsgCommentHeld, session.FlashInfo)
	}
	http.Redirect(w, r, fmt.Sprintf("%s#comment-%d", service.EntryURL(entry), comment.ID), http.StatusSeeOther)
}

// Author handles GET /author/{username}/.
func (h *EntryHandler) Author(w http.ResponseWriter, r *http.Request) {
	username := chi.URLParam(r, "username")
	author, err := h.users.GetByUsername(r.Context(), username)
	if err != nil {
		handleLookupError(w, err, "author", "username", username)
		return
	}

	perPage := model.DefaultEntriesPerPage
	if blog, err := h.blogs.Get(r.Context()); err == nil {
		perPage = int(blog.EntriesPerPage)
	}

	page, ok := pageParam(r)
	if !ok {
		notFound(w)
		return
	}
	result, err := h.entries.ListVisibleByAuthor(r.Context(), author.ID, page, perPage)
	if err != nil {
		handleLookupError(w, err, "author entries", "username", username)
		return
	}

	data := AuthorData{
		Author:     author,
		Entries:    result.Items,
		Pagination: BuildPagination(result.Number, result.Total, result.PerPage, r.URL.Path, nil),
	}
	renderPage(w, r, h.renderer, http.StatusOK, "author", h.templateData(r, service.DisplayName(author), data))
}

// entryFromPath resolves the dated slug in the path. An uninstalled blog
// redirects to the install page; anything not found is a 404.
func (h *EntryHandler) entryFromPath(w http.ResponseWriter, r *http.Request) (store.Entry, bool) {
	state, err := h.blogs.State(r.Context())
	if err != nil {
		logAndInternalError(w, "failed to determine blog state", "error", err)
		return store.Entry{}, false
	}
	if !state.Installed() {
		http.Redirect(w, r, RouteInstall, http.StatusFound)
		return store.Entry{}, false
	}

	year, errY := strconv.Atoi(chi.URLParam(r, "year"))
	month, errM := strconv.Atoi(chi.URLParam(r, "month"))
	day, errD := strconv.Atoi(chi.URLParam(r, "day"))
	if errY != nil || errM != nil || errD != nil {
		notFound(w)
		return store.Entry{}, false
	}

	slug := chi.URLParam(r, "slug")
	entry, err := h.entries.GetByDateSlug(r.Context(), year, month, day, slug)
	if err != nil {
		handleLookupError(w, err, "entry", "slug", slug)
		return store.Entry{}, false
	}
	return entry, true
}

func (h *EntryHandler) renderEntry(w http.ResponseWriter, r *http.Request, status int, entry store.Entry, form validation.CommentForm, errs validation.Errors) {
	comments, err := h.comments.ForEntry(r.Context(), entry.ID)
	if err != nil {
		logAndInternalError(w, "failed to load comments", "entry_id", entry.ID, "error", err)
		return
	}

	data := EntryDetailData{
		Entry:    entry,
		Comments: comments,
		Form:     form,
		Errors:   errs,
	}
	if entry.CreatedBy.Valid {
		if author, err := h.users.GetByID(r.Context(), entry.CreatedBy.Int64); err == nil {
			data.Author = &author
		} else if !isNotFound(err) {
			slog.Warn("failed to load entry author", "entry_id", entry.ID, "error", err)
		}
	}

	td := h.templateData(r, entry.Title, data)
	if td.Blog != nil {
		data.Sidebar = sidebar(r.Context(), *td.Blog, h.entries, h.comments)
		td.Data = data
	}
	renderPage(w, r, h.renderer, status, "entry_detail", td)
}

// parseEntryForm reads the entry form fields.
func parseEntryForm(r *http.Request) (validation.EntryForm, validation.Errors) {
	errs := validation.Errors{}
	if err := r.ParseForm(); err != nil {
		errs.Add(validation.NonFieldKey, MsgInvalidFormData)
		return validation.EntryForm{}, errs
	}

	form := validation.EntryForm{
		Title:             strings.TrimSpace(r.PostFormValue("title")),
		Slug:              strings.TrimSpace(r.PostFormValue("slug")),
		Text:              r.PostFormValue("text"),
		Summary:           r.PostFormValue("summary"),
		MetaKeywords:      strings.TrimSpace(r.PostFormValue("meta_keywords")),
		MetaDescription:   strings.TrimSpace(r.PostFormValue("meta_description")),
		IsCommentsAllowed: checkbox(r.PostFormValue("is_comments_allowed")),
	}
	if raw := strings.TrimSpace(r.PostFormValue("created_by")); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			errs.Add("created_by", MsgInvalidAuthor)
		} else {
			form.CreatedBy = id
		}
	}
	return form, errs
}

// checkbox interprets an HTML checkbox value.
func checkbox(v string) bool {
	switch strings.ToLower(v) {
	case "on", "true", "1", "yes":
		return true
	default:
		return false
	}
}

func containsUser(users []store.User, id int64) bool {
	for _, u := range users {
		if u.ID == id {
			return true
		}
	}
	return false
}
