// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package middleware

import (
	"log/slog"
	"net/http"
	"net/url"

	"github.com/alexedwards/scs/v2"

	"github.com/olegiv/oblog-go/internal/model"
	"github.com/olegiv/oblog-go/internal/service"
	"github.com/olegiv/oblog-go/internal/session"
)

// LoginURL is where anonymous visitors are sent by the guards.
const LoginURL = "/login"

// redirectToLogin sends the visitor to the login page, remembering the
// page they asked for.
func redirectToLogin(w http.ResponseWriter, r *http.Request) {
	http.Redirect(w, r, LoginURL+"?next="+url.QueryEscape(r.URL.RequestURI()), http.StatusFound)
}

// RequireLogin redirects anonymous visitors to the login page.
// Use after LoadUser.
func RequireLogin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if GetUser(r) == nil {
			redirectToLogin(w, r)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// denyAccess flashes the permission error and sends a signed-in user to the
// index.
func denyAccess(w http.ResponseWriter, r *http.Request, sm *scs.SessionManager) {
	session.SetFlash(r.Context(), sm, model.MsgPermissionDenied, session.FlashError)
	http.Redirect(w, r, "/", http.StatusFound)
}

// RequireStaff lets only staff members through. Anonymous visitors go to
// the login page; signed-in users who are not staff get an error flash and
// land on the index.
func RequireStaff(sm *scs.SessionManager) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user := GetUser(r)
			if user == nil {
				redirectToLogin(w, r)
				return
			}
			if !user.IsStaff {
				slog.Warn("staff access denied", "method", r.Method, "path", r.URL.Path, "user_id", user.ID)
				denyAccess(w, r, sm)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequirePermission lets through users holding every codename. Anonymous
// visitors go to the login page; signed-in users without the permission
// get an error flash and land on the index.
func RequirePermission(sm *scs.SessionManager, users *service.UserService, codenames ...string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user := GetUser(r)
			if user == nil {
				redirectToLogin(w, r)
				return
			}

			for _, codename := range codenames {
				ok, err := users.HasPermission(r.Context(), *user, codename)
				if err != nil {
					slog.Error("permission check failed", "user_id", user.ID, "permission", codename, "error", err)
					http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
					return
				}
				if !ok {
					slog.Warn("access denied",
						"method", r.Method,
						"path", r.URL.Path,
						"user_id", user.ID,
						"permission", codename,
					)
					denyAccess(w, r, sm)
					return
				}
			}

			next.ServeHTTP(w, r)
		})
	}
}
