// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// ListUsers handles GET /api/v1/users/ with an optional exact username
// filter.
func (h *Handler) ListUsers(w http.ResponseWriter, r *http.Request) {
	limit, offset, err := parseLimitOffset(r)
	if err != nil {
		WriteBadRequest(w, CodeBadRequest, err.Error())
		return
	}

	users, total, err := h.users.List(r.Context(), r.URL.Query().Get("username"), limit, offset)
	if err != nil {
		writeServiceError(w, err, "failed to list users")
		return
	}

	objects := make([]UserResponse, 0, len(users))
	for _, u := range users {
		objects = append(objects, h.userResponse(r.Context(), u))
	}

	WriteJSON(w, http.StatusOK, ListResponse{
		Meta:    buildMeta(r, limit, offset, total),
		Objects: objects,
	})
}

// GetUser handles GET /api/v1/users/{username}/.
func (h *Handler) GetUser(w http.ResponseWriter, r *http.Request) {
	username := chi.URLParam(r, "username")
	user, err := h.users.GetByUsername(r.Context(), username)
	if err != nil {
		writeServiceError(w, err, "failed to get user", "username", username)
		return
	}
	WriteJSON(w, http.StatusOK, h.userResponse(r.Context(), user))
}
