// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package api provides the REST API handlers for the blog.
package api

import (
	"database/sql"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/alexedwards/scs/v2"
	"github.com/go-chi/chi/v5"

	"github.com/olegiv/oblog-go/internal/middleware"
	"github.com/olegiv/oblog-go/internal/service"
	"github.com/olegiv/oblog-go/internal/validation"
)

// Prefix is the mount point of the v1 API.
const Prefix = "/api/v1"

// Error codes written by the API in addition to the validation codes.
const (
	CodeBadRequest         = "bad_request"
	CodeNotFound           = "not_found"
	CodeValidationError    = "validation_error"
	CodeAuthorizationError = "authorization_error"
	CodeInvalidCredentials = "invalid_credentials"
	CodeInvalidFilter      = "invalid_filter"
	CodeLocked             = "account_locked"
)

// Handler holds shared dependencies for all API handlers.
type Handler struct {
	sessionManager  *scs.SessionManager
	blogs           *service.BlogService
	entries         *service.EntryService
	users           *service.UserService
	profiles        *service.ProfileService
	social          *service.SocialService
	search          *service.SearchService
	events          *service.EventService
	loginProtection *middleware.LoginProtection
	policy          service.EntryWritePolicy
}

// Config holds the services the API handlers are built on. Events,
// LoginProtection and Social may be nil.
type Config struct {
	SessionManager  *scs.SessionManager
	Blogs           *service.BlogService
	Entries         *service.EntryService
	Users           *service.UserService
	Profiles        *service.ProfileService
	Social          *service.SocialService
	Search          *service.SearchService
	Events          *service.EventService
	LoginProtection *middleware.LoginProtection
}

// NewHandler creates a new API handler.
func NewHandler(cfg Config) *Handler {
	return &Handler{
		sessionManager:  cfg.SessionManager,
		blogs:           cfg.Blogs,
		entries:         cfg.Entries,
		users:           cfg.Users,
		profiles:        cfg.Profiles,
		social:          cfg.Social,
		search:          cfg.Search,
		events:          cfg.Events,
		loginProtection: cfg.LoginProtection,
	}
}

// ErrorResponse is the standard API error response.
type ErrorResponse = middleware.APIError

// WriteJSON writes a JSON response with the given status code.
func WriteJSON(w http.ResponseWriter, statusCode int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Debug("failed to encode api response", "error", err)
	}
}

// WriteError writes an error JSON response. An empty code or message
// becomes the generic not_provided error.
func WriteError(w http.ResponseWriter, statusCode int, code, message string, details map[string]string) {
	middleware.WriteAPIError(w, statusCode, code, message, details)
}

// WriteBadRequest writes a 400 Bad Request response.
func WriteBadRequest(w http.ResponseWriter, code, message string) {
	WriteError(w, http.StatusBadRequest, code, message, nil)
}

// WriteNotFound writes a 404 Not Found response.
func WriteNotFound(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusNotFound, CodeNotFound, message, nil)
}

// WriteInternalError writes a 500 Internal Server Error response.
func WriteInternalError(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusInternalServerError, middleware.CodeInternalError, message, nil)
}

// WriteValidationError writes a 400 response with field errors. Form-level
// errors are reported under "__all__".
func WriteValidationError(w http.ResponseWriter, errs validation.Errors) {
	details := make(map[string]string, len(errs))
	for field, msg := range errs {
		if field == validation.NonFieldKey {
			field = "__all__"
		}
		details[field] = msg
	}
	WriteError(w, http.StatusBadRequest, CodeValidationError, "Validation failed", details)
}

// writeServiceError maps an error from a service call to a response.
// Unknown errors are logged and reported as 500.
func writeServiceError(w http.ResponseWriter, err error, msg string, args ...any) {
	var (
		coded  *validation.CodedError
		field  *validation.FieldError
		form   *validation.FormError
		fields validation.Errors
	)
	switch {
	case errors.As(err, &coded):
		WriteBadRequest(w, coded.Code, coded.Message)
	case errors.As(err, &fields):
		WriteValidationError(w, fields)
	case errors.As(err, &field):
		WriteValidationError(w, validation.Errors{field.Field: field.Message})
	case errors.As(err, &form):
		WriteValidationError(w, validation.Errors{validation.NonFieldKey: form.Message})
	case errors.Is(err, service.ErrNotAuthorized):
		WriteBadRequest(w, CodeAuthorizationError, service.MsgNotAuthorized)
	case errors.Is(err, service.ErrPageOutOfRange):
		WriteNotFound(w, service.MsgPageOutOfRange)
	case isNotFound(err):
		WriteNotFound(w, "")
	default:
		slog.Error(msg, append(args, "error", err)...)
		WriteInternalError(w, "")
	}
}

func isNotFound(err error) bool {
	return errors.Is(err, sql.ErrNoRows) || errors.Is(err, service.ErrNotFound)
}

// EntityFetcher is a function that fetches an entity by ID.
type EntityFetcher[T any] func(id int64) (T, error)

// requireEntityByID parses the "id" URL parameter and fetches the entity.
// It returns false after writing the response when the id is malformed or
// the lookup fails.
func requireEntityByID[T any](w http.ResponseWriter, r *http.Request, entityName string, fetch EntityFetcher[T]) (T, bool) {
	var zero T

	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		WriteNotFound(w, "")
		return zero, false
	}

	entity, err := fetch(id)
	if err != nil {
		writeServiceError(w, err, "failed to retrieve "+entityName, entityName+"_id", id)
		return zero, false
	}
	return entity, true
}
