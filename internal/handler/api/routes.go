// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/olegiv/oblog-go/internal/middleware"
)

// ResourceInfo describes one resource in the API index.
type ResourceInfo struct {
	ListEndpoint string   `json:"list_endpoint"`
	Methods      []string `json:"allowed_methods"`
	Auth         string   `json:"authentication"`
}

// resourceIndex lists the resources mounted by Routes.
var resourceIndex = map[string]ResourceInfo{
	ResourceUserProfile: {ListEndpoint: Prefix + "/user_profile/", Methods: []string{"get", "put", "patch"}, Auth: "basic"},
	ResourceCreateUser:  {ListEndpoint: Prefix + "/create_user/", Methods: []string{"post"}, Auth: "none"},
	ResourceUsers:       {ListEndpoint: Prefix + "/users/", Methods: []string{"get"}, Auth: "none"},
	ResourceEntry:       {ListEndpoint: Prefix + "/entry/", Methods: []string{"get", "put", "delete"}, Auth: "basic"},
	ResourceEntryAuthor: {ListEndpoint: Prefix + "/entry-author/", Methods: []string{"get"}, Auth: "basic"},
	ResourceAllEntries:  {ListEndpoint: Prefix + "/all_entries/search/", Methods: []string{"get"}, Auth: "none"},
}

// Index handles GET /api/v1/ and lists the available resources.
func (h *Handler) Index(w http.ResponseWriter, _ *http.Request) {
	WriteJSON(w, http.StatusOK, resourceIndex)
}

// Routes registers the v1 resources on r, which is expected to be mounted
// at Prefix.
func (h *Handler) Routes(r chi.Router) {
	r.Get("/", h.Index)

	// Public endpoints
	r.Post("/user_profile/login/", h.Login)
	r.Get("/user_profile/logout/", h.Logout)
	r.Post("/create_user/", h.CreateUser)
	r.Post("/create_user/facebook_login/", h.FacebookLogin)
	r.Get("/users/", h.ListUsers)
	r.Get("/users/{username}/", h.GetUser)
	r.Get("/all_entries/search/", h.SearchEntries)

	// Protected endpoints (HTTP Basic, API key or session)
	r.Group(func(r chi.Router) {
		r.Use(middleware.BasicAuth(h.users))

		r.Get("/user_profile/", h.ListUserProfiles)
		r.Get("/user_profile/{id}/", h.GetUserProfile)
		r.Put("/user_profile/{id}/", h.UpdateUserProfile)
		r.Patch("/user_profile/{id}/", h.UpdateUserProfile)
		r.Put("/user_profile/{id}/photo/", h.UploadPhoto)

		r.Get("/entry/", h.ListEntries)
		r.Get("/entry/search/", h.SearchEntries)
		r.Get("/entry/{id}/", h.GetEntry)
		r.Put("/entry/{id}/", h.UpdateEntry)
		r.Delete("/entry/{id}/", h.DeleteEntry)

		r.Get("/entry-author/{username}/", h.ListAuthorEntries)
	})
}
