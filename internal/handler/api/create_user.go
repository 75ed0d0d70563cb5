// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package api

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/olegiv/oblog-go/internal/model"
	"github.com/olegiv/oblog-go/internal/service"
	"github.com/olegiv/oblog-go/internal/session"
	"github.com/olegiv/oblog-go/internal/validation"
)

// MsgFacebookTokenRequired is the error for a facebook login without a token.
const MsgFacebookTokenRequired = "Must provide access_token when login with facebook."

// FacebookLoginResponse is returned by a successful facebook login.
type FacebookLoginResponse struct {
	Success  bool   `json:"success"`
	UserID   int64  `json:"user_id"`
	Username string `json:"username"`
}

// CreateUser handles POST /api/v1/create_user/.
// Missing fields are reported first, then an invalid password, then a
// taken email or username. raw_password is never echoed back.
func (h *Handler) CreateUser(w http.ResponseWriter, r *http.Request) {
	in, err := readFields(w, r)
	if err != nil {
		WriteBadRequest(w, CodeBadRequest, err.Error())
		return
	}
	for k, v := range in {
		if k != "raw_password" {
			in[k] = strings.TrimSpace(v)
		}
	}

	if err := validation.RequireUserFields(in); err != nil {
		writeServiceError(w, err, "invalid user fields")
		return
	}

	user, key, err := h.users.Create(r.Context(), service.NewUser{
		Username:    in["username"],
		Email:       in["email"],
		FirstName:   in["first_name"],
		LastName:    in["last_name"],
		Name:        in["name"],
		RawPassword: in["raw_password"],
	})
	if err != nil {
		writeServiceError(w, err, "failed to create user", "username", in["username"])
		return
	}

	profile, err := h.profileFor(r.Context(), user)
	if err != nil {
		writeServiceError(w, err, "failed to load profile", "user_id", user.ID)
		return
	}

	slog.Info("user registered via API", "user_id", user.ID, "username", user.Username)
	WriteJSON(w, http.StatusCreated, CreatedUserResponse{
		UserProfileResponse: h.userProfileResponse(r.Context(), user, profile),
		Key:                 key,
	})
}

// FacebookLogin handles POST /api/v1/create_user/facebook_login/.
// Every failure after the token check answers the same missing_key error.
func (h *Handler) FacebookLogin(w http.ResponseWriter, r *http.Request) {
	in, err := readFields(w, r)
	if err != nil {
		WriteBadRequest(w, CodeBadRequest, err.Error())
		return
	}

	token := strings.TrimSpace(in["access_token"])
	if token == "" {
		WriteBadRequest(w, validation.CodeMissingKey, MsgFacebookTokenRequired)
		return
	}
	if h.social == nil {
		WriteBadRequest(w, validation.CodeMissingKey, service.MsgSocialLogin)
		return
	}

	user, err := h.social.FacebookLogin(r.Context(), token)
	if err != nil {
		slog.Info("facebook login rejected", "error", err)
		WriteBadRequest(w, validation.CodeMissingKey, service.MsgSocialLogin)
		return
	}

	if err := session.SignIn(r.Context(), h.sessionManager, user.ID); err != nil {
		slog.Error("session renewal error", "error", err, "user_id", user.ID)
		WriteBadRequest(w, validation.CodeMissingKey, service.MsgSocialLogin)
		return
	}
	if err := h.users.UpdateLastLogin(r.Context(), user.ID); err != nil {
		slog.Error("failed to update last login time", "error", err, "user_id", user.ID)
	}

	h.logAuth(r, model.EventLevelInfo, "User logged in with facebook", map[string]any{"user_id": user.ID, "via": "api"})
	WriteJSON(w, http.StatusOK, FacebookLoginResponse{
		Success:  true,
		UserID:   user.ID,
		Username: user.Username,
	})
}
