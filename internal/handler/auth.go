// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/alexedwards/scs/v2"

	"github.com/olegiv/oblog-go/internal/middleware"
	"github.com/olegiv/oblog-go/internal/model"
	"github.com/olegiv/oblog-go/internal/render"
	"github.com/olegiv/oblog-go/internal/service"
	"github.com/olegiv/oblog-go/internal/session"
)

// Login page messages.
const (
	MsgCredentialsRequired = "Username and password are required."
	MsgAccountInactive     = "This account is inactive."
	MsgLoggedOut           = "You have been logged out."
)

// AuthHandler handles the session login and logout routes.
type AuthHandler struct {
	site
	users           *service.UserService
	events          *service.EventService
	loginProtection *middleware.LoginProtection
}

// NewAuthHandler creates a new AuthHandler. lp may be nil.
func NewAuthHandler(renderer *render.Renderer, sm *scs.SessionManager, blogs *service.BlogService, users *service.UserService, events *service.EventService, lp *middleware.LoginProtection) *AuthHandler {
	return &AuthHandler{
		site:            site{renderer: renderer, sessionManager: sm, blogs: blogs},
		users:           users,
		events:          events,
		loginProtection: lp,
	}
}

// LoginData is the data for the login page.
type LoginData struct {
	Username string
	Next     string
	Error    string
}

// LoginForm handles GET /login. Signed-in users go straight to next.
func (h *AuthHandler) LoginForm(w http.ResponseWriter, r *http.Request) {
	next := safeNext(r.URL.Query().Get("next"), RouteRoot)
	if middleware.GetUser(r) != nil {
		http.Redirect(w, r, next, http.StatusSeeOther)
		return
	}
	h.renderLogin(w, r, http.StatusOK, LoginData{Next: next})
}

// Login handles POST /login.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		h.renderLogin(w, r, http.StatusBadRequest, LoginData{Error: MsgInvalidFormData})
		return
	}

	username := strings.TrimSpace(r.PostFormValue("username"))
	password := r.PostFormValue("password")
	data := LoginData{Username: username, Next: safeNext(r.PostFormValue("next"), RouteRoot)}

	if username == "" || password == "" {
		data.Error = MsgCredentialsRequired
		h.renderLogin(w, r, http.StatusOK, data)
		return
	}

	meta := map[string]any{"username": username, "ip": middleware.GetClientIP(r)}

	if h.loginProtection != nil {
		if locked, remaining := h.loginProtection.IsAccountLocked(username); locked {
			h.logAuth(r, model.EventLevelWarning, "Login attempt on locked account", meta)
			data.Error = fmt.Sprintf("Account temporarily locked. Try again in %s.", formatDuration(remaining))
			h.renderLogin(w, r, http.StatusTooManyRequests, data)
			return
		}
	}

	user, err := h.users.Authenticate(r.Context(), username, password)
	switch {
	case err == nil:
	case errors.Is(err, service.ErrInactiveUser):
		h.logAuth(r, model.EventLevelWarning, "Login failed: inactive account", meta)
		data.Error = MsgAccountInactive
		h.renderLogin(w, r, http.StatusOK, data)
		return
	case errors.Is(err, service.ErrInvalidCredentials):
		slog.Debug("invalid login attempt", "username", username)
		h.logAuth(r, model.EventLevelWarning, "Login failed: invalid credentials", meta)
		data.Error = service.MsgInvalidCredentials
		if h.loginProtection != nil {
			if locked, lockDuration := h.loginProtection.RecordFailedAttempt(username); locked {
				h.logAuth(r, model.EventLevelWarning, "Account locked due to failed attempts", meta)
				data.Error = fmt.Sprintf("Too many failed attempts. Account locked for %s.", formatDuration(lockDuration))
				h.renderLogin(w, r, http.StatusTooManyRequests, data)
				return
			}
			if remaining := h.loginProtection.RemainingAttempts(username); remaining > 0 && remaining <= 3 {
				data.Error = fmt.Sprintf("%s %d attempts remaining.", service.MsgInvalidCredentials, remaining)
			}
		}
		h.renderLogin(w, r, http.StatusOK, data)
		return
	default:
		logAndInternalError(w, "login failed", "error", err)
		return
	}

	if h.loginProtection != nil {
		h.loginProtection.RecordSuccessfulLogin(username)
	}
	if err := h.users.UpdateLastLogin(r.Context(), user.ID); err != nil {
		slog.Error("failed to update last login time", "error", err, "user_id", user.ID)
	}
	if err := session.SignIn(r.Context(), h.sessionManager, user.ID); err != nil {
		logAndInternalError(w, "session renewal error", "error", err)
		return
	}

	slog.Info("user logged in", "user_id", user.ID, "username", user.Username)
	h.logAuth(r, model.EventLevelInfo, "User logged in", meta)
	flashSuccess(w, r, h.renderer, data.Next, "Welcome back, "+service.DisplayName(user)+".")
}

// Logout handles POST /logout.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r)
	if _, err := session.SignOut(r.Context(), h.sessionManager); err != nil {
		logAndInternalError(w, "session destroy error", "error", err)
		return
	}
	if userID != 0 {
		slog.Info("user logged out", "user_id", userID)
		h.logAuth(r, model.EventLevelInfo, "User logged out", map[string]any{"user_id": userID})
	}
	flashAndRedirect(w, r, h.renderer, RouteRoot, MsgLoggedOut, session.FlashInfo)
}

func (h *AuthHandler) renderLogin(w http.ResponseWriter, r *http.Request, status int, data LoginData) {
	renderPage(w, r, h.renderer, status, "login", h.templateData(r, "Log in", data))
}

func (h *AuthHandler) logAuth(r *http.Request, level, message string, meta map[string]any) {
	if h.events == nil {
		return
	}
	if err := h.events.LogAuthEvent(r.Context(), level, message, meta); err != nil {
		slog.Warn("failed to record auth event", "error", err)
	}
}

// formatDuration formats a duration in a human-readable way.
func formatDuration(d time.Duration) string {
	if d < time.Minute {
		return fmt.Sprintf("%d seconds", int(d.Seconds()))
	}
	minutes := int(d.Minutes())
	if minutes == 1 {
		return "1 minute"
	}
	return fmt.Sprintf("%d minutes", minutes)
}
