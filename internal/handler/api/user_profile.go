// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package api

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/olegiv/oblog-go/internal/imaging"
	"github.com/olegiv/oblog-go/internal/middleware"
	"github.com/olegiv/oblog-go/internal/model"
	"github.com/olegiv/oblog-go/internal/service"
	"github.com/olegiv/oblog-go/internal/session"
	"github.com/olegiv/oblog-go/internal/store"
	"github.com/olegiv/oblog-go/internal/validation"
)

// ProfilesJoinedSince is the earliest date_joined listed by user_profile.
var ProfilesJoinedSince = time.Date(2016, time.January, 1, 0, 0, 0, 0, time.UTC)

// maxPhotoBody caps the multipart request carrying a photo: the image limit
// plus room for the form framing.
const maxPhotoBody = model.MaxPhotoSize + 1<<20

// MsgPhotoTooLarge rejects photos over model.MaxPhotoSize.
var MsgPhotoTooLarge = fmt.Sprintf("The photo must be %d MB or smaller.", model.MaxPhotoSize>>20)

// LoginResponse is returned by a successful user_profile login.
type LoginResponse struct {
	Username string `json:"username"`
	FullName string `json:"full_name"`
	Email    string `json:"email"`
	IsSuper  bool   `json:"is_super"`
}

// SuccessResponse reports the outcome of an action.
type SuccessResponse struct {
	Success bool `json:"success"`
}

// profileForm holds the user_profile fields a client may change.
type profileForm struct {
	Email     string `form:"email" validate:"omitempty,email,max=254"`
	FirstName string `form:"first_name" validate:"max=150"`
	LastName  string `form:"last_name" validate:"max=150"`
	Name      string `form:"name" validate:"max=255"`
}

// ListUserProfiles handles GET /api/v1/user_profile/.
// The list only ever holds the requesting user, and only when they joined
// on or after ProfilesJoinedSince and match the username and date_joined
// filters.
func (h *Handler) ListUserProfiles(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUser(r)
	limit, offset, err := parseLimitOffset(r)
	if err != nil {
		WriteBadRequest(w, CodeBadRequest, err.Error())
		return
	}

	q := r.URL.Query()
	conds, err := parseDateFilters(q, "date_joined", true)
	if err != nil {
		WriteBadRequest(w, CodeInvalidFilter, err.Error())
		return
	}
	conds = append(conds, store.DateCondition{Op: store.OpGte, Value: ProfilesJoinedSince})

	matched := matchDate(user.DateJoined, conds)
	if username, ok := q["username"]; ok && username[0] != user.Username {
		matched = false
	}

	objects := []UserProfileResponse{}
	var total int64
	if matched {
		total = 1
		if offset == 0 {
			profile, err := h.profileFor(r.Context(), *user)
			if err != nil {
				writeServiceError(w, err, "failed to load profile", "user_id", user.ID)
				return
			}
			objects = append(objects, h.userProfileResponse(r.Context(), *user, profile))
		}
	}

	WriteJSON(w, http.StatusOK, ListResponse{
		Meta:    buildMeta(r, limit, offset, total),
		Objects: objects,
	})
}

// requireSelf returns the requesting user when the "id" URL parameter is
// their own id. Any other id is reported as not found.
func (h *Handler) requireSelf(w http.ResponseWriter, r *http.Request) (store.User, bool) {
	user := middleware.GetUser(r)
	return requireEntityByID(w, r, "user profile", func(id int64) (store.User, error) {
		if user == nil || id != user.ID {
			return store.User{}, service.ErrNotFound
		}
		return *user, nil
	})
}

// GetUserProfile handles GET /api/v1/user_profile/{id}/.
func (h *Handler) GetUserProfile(w http.ResponseWriter, r *http.Request) {
	user, ok := h.requireSelf(w, r)
	if !ok {
		return
	}
	profile, err := h.profileFor(r.Context(), user)
	if err != nil {
		writeServiceError(w, err, "failed to load profile", "user_id", user.ID)
		return
	}
	WriteJSON(w, http.StatusOK, h.userProfileResponse(r.Context(), user, profile))
}

// UpdateUserProfile handles PATCH and PUT /api/v1/user_profile/{id}/.
// Absent fields keep their value. A password is validated before it is
// set, and date_of_birth may be cleared with null or "".
func (h *Handler) UpdateUserProfile(w http.ResponseWriter, r *http.Request) {
	user, ok := h.requireSelf(w, r)
	if !ok {
		return
	}

	in, err := readFields(w, r)
	if err != nil {
		WriteBadRequest(w, CodeBadRequest, err.Error())
		return
	}

	form := profileForm{Email: user.Email, FirstName: user.FirstName, LastName: user.LastName, Name: user.Name}
	if in.has("email") {
		form.Email = strings.TrimSpace(in["email"])
	}
	if in.has("first_name") {
		form.FirstName = strings.TrimSpace(in["first_name"])
	}
	if in.has("last_name") {
		form.LastName = strings.TrimSpace(in["last_name"])
	}
	if in.has("name") {
		form.Name = strings.TrimSpace(in["name"])
	}

	errs := validation.Errors{}
	errs.Merge(validation.Struct(form))

	var dob *time.Time
	if v := in["date_of_birth"]; v != "" {
		t, err := time.Parse(dateLayout, v)
		if err != nil {
			errs.Add("date_of_birth", "Enter a valid date.")
		}
		dob = &t
	}
	if len(errs) > 0 {
		WriteValidationError(w, errs)
		return
	}

	password, setPassword := in["password"]
	if setPassword {
		if err := validation.ValidatePassword(password); err != nil {
			writeServiceError(w, err, "invalid password")
			return
		}
	}

	updated, err := h.users.Update(r.Context(), user.ID, service.UserUpdate{
		Email:     form.Email,
		FirstName: form.FirstName,
		LastName:  form.LastName,
		Name:      form.Name,
	})
	if err != nil {
		writeServiceError(w, err, "failed to update user", "user_id", user.ID)
		return
	}
	if setPassword {
		if err := h.users.SetPassword(r.Context(), user.ID, password); err != nil {
			writeServiceError(w, err, "failed to set password", "user_id", user.ID)
			return
		}
	}

	var profile store.Profile
	if in.has("date_of_birth") && h.profiles != nil {
		profile, err = h.profiles.SetDateOfBirth(r.Context(), user.ID, dob)
	} else {
		profile, err = h.profileFor(r.Context(), updated)
	}
	if err != nil {
		writeServiceError(w, err, "failed to update profile", "user_id", user.ID)
		return
	}

	slog.Info("user profile updated via API", "user_id", user.ID)
	WriteJSON(w, http.StatusOK, h.userProfileResponse(r.Context(), updated, profile))
}

// UploadPhoto handles PUT /api/v1/user_profile/{id}/photo/ with a
// multipart "photo" file.
func (h *Handler) UploadPhoto(w http.ResponseWriter, r *http.Request) {
	user, ok := h.requireSelf(w, r)
	if !ok {
		return
	}
	if h.profiles == nil {
		WriteError(w, http.StatusServiceUnavailable, "", "Photo uploads are disabled.", nil)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxPhotoBody)
	if err := r.ParseMultipartForm(maxPhotoBody); err != nil {
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) {
			WriteValidationError(w, validation.Errors{"photo": MsgPhotoTooLarge})
			return
		}
		WriteBadRequest(w, CodeBadRequest, "Failed to parse form")
		return
	}

	file, _, err := r.FormFile("photo")
	if err != nil {
		WriteValidationError(w, validation.Errors{"photo": "No file was submitted."})
		return
	}
	defer func() { _ = file.Close() }()

	profile, err := h.profiles.SetPhoto(r.Context(), user.ID, file)
	switch {
	case errors.Is(err, imaging.ErrUnsupportedFormat):
		WriteValidationError(w, validation.Errors{"photo": "Upload a valid image. The file you uploaded was either not an image or a corrupted image."})
		return
	case errors.Is(err, imaging.ErrTooLarge):
		WriteValidationError(w, validation.Errors{"photo": MsgPhotoTooLarge})
		return
	case err != nil:
		writeServiceError(w, err, "failed to store photo", "user_id", user.ID)
		return
	}

	slog.Info("profile photo updated", "user_id", user.ID, "key", profile.Photo.String)
	WriteJSON(w, http.StatusOK, h.userProfileResponse(r.Context(), user, profile))
}

// Login handles POST /api/v1/user_profile/login/ with username and
// password as JSON or form fields. An inactive account answers
// {"success": false}; wrong credentials answer 401.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	in, err := readFields(w, r)
	if err != nil {
		WriteBadRequest(w, CodeBadRequest, err.Error())
		return
	}
	username := strings.TrimSpace(in["username"])
	password := in["password"]
	meta := map[string]any{"username": username, "ip": middleware.GetClientIP(r), "via": "api"}

	if h.loginProtection != nil {
		if locked, remaining := h.loginProtection.IsAccountLocked(username); locked {
			h.logAuth(r, model.EventLevelWarning, "Login attempt on locked account", meta)
			WriteError(w, http.StatusTooManyRequests, CodeLocked,
				fmt.Sprintf("Account temporarily locked. Try again in %d seconds.", int(remaining.Seconds())), nil)
			return
		}
	}

	user, err := h.users.Authenticate(r.Context(), username, password)
	switch {
	case err == nil:
	case errors.Is(err, service.ErrInactiveUser):
		h.logAuth(r, model.EventLevelWarning, "Login failed: inactive account", meta)
		WriteJSON(w, http.StatusOK, SuccessResponse{Success: false})
		return
	case errors.Is(err, service.ErrInvalidCredentials):
		h.logAuth(r, model.EventLevelWarning, "Login failed: invalid credentials", meta)
		if h.loginProtection != nil {
			h.loginProtection.RecordFailedAttempt(username)
		}
		WriteError(w, http.StatusUnauthorized, CodeInvalidCredentials, service.MsgInvalidCredentials, nil)
		return
	default:
		writeServiceError(w, err, "api login failed", "username", username)
		return
	}

	if h.loginProtection != nil {
		h.loginProtection.RecordSuccessfulLogin(username)
	}
	if err := h.users.UpdateLastLogin(r.Context(), user.ID); err != nil {
		slog.Error("failed to update last login time", "error", err, "user_id", user.ID)
	}
	if err := session.SignIn(r.Context(), h.sessionManager, user.ID); err != nil {
		writeServiceError(w, err, "session renewal error", "user_id", user.ID)
		return
	}

	slog.Info("user logged in via API", "user_id", user.ID, "username", user.Username)
	h.logAuth(r, model.EventLevelInfo, "User logged in", meta)
	WriteJSON(w, http.StatusOK, LoginResponse{
		Username: user.Username,
		FullName: service.FullName(user),
		Email:    user.Email,
		IsSuper:  user.IsSuperuser,
	})
}

// Logout handles GET /api/v1/user_profile/logout/.
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r)
	signedIn, err := session.SignOut(r.Context(), h.sessionManager)
	if err != nil {
		writeServiceError(w, err, "session destroy error")
		return
	}
	if signedIn {
		slog.Info("user logged out via API", "user_id", userID)
		h.logAuth(r, model.EventLevelInfo, "User logged out", map[string]any{"user_id": userID, "via": "api"})
	}
	WriteJSON(w, http.StatusOK, SuccessResponse{Success: signedIn})
}

func (h *Handler) logAuth(r *http.Request, level, message string, meta map[string]any) {
	if h.events == nil {
		return
	}
	if err := h.events.LogAuthEvent(r.Context(), level, message, meta); err != nil {
		slog.Warn("failed to record auth event", "error", err)
	}
}
