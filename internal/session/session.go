// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package session configures the scs session manager and names the keys
// the blog keeps in a session.
package session

import (
	"context"
	"database/sql"
	"net/http"
	"time"

	"github.com/alexedwards/scs/sqlite3store"
	"github.com/alexedwards/scs/v2"
)

// Session keys.
const (
	KeyUserID    = "user_id"
	KeyFlash     = "flash"
	KeyFlashType = "flash_type"

	// Remembered commenter details, used to pre-fill the comment form.
	KeyCommentName  = "comment_name"
	KeyCommentEmail = "comment_email"
	KeyCommentURL   = "comment_url"
)

// New creates a new session manager configured with SQLite store.
func New(db *sql.DB, isDev bool) *scs.SessionManager {
	sm := scs.New()
	sm.Store = sqlite3store.New(db)

	sm.Lifetime = 24 * time.Hour
	sm.Cookie.Name = "oblog_session"
	sm.Cookie.HttpOnly = true
	sm.Cookie.SameSite = http.SameSiteLaxMode
	sm.Cookie.Secure = !isDev

	if !isDev {
		sm.Cookie.Name = "__Host-oblog_session"
		sm.Cookie.Path = "/"
	}

	return sm
}

// Commenter is what a visitor typed into the comment form last time.
type Commenter struct {
	Name  string
	Email string
	URL   string
}

// RememberCommenter stores the commenter's details in the session.
func RememberCommenter(ctx context.Context, sm *scs.SessionManager, c Commenter) {
	sm.Put(ctx, KeyCommentName, c.Name)
	sm.Put(ctx, KeyCommentEmail, c.Email)
	sm.Put(ctx, KeyCommentURL, c.URL)
}

// RecalledCommenter returns the details stored by RememberCommenter.
func RecalledCommenter(ctx context.Context, sm *scs.SessionManager) Commenter {
	return Commenter{
		Name:  sm.GetString(ctx, KeyCommentName),
		Email: sm.GetString(ctx, KeyCommentEmail),
		URL:   sm.GetString(ctx, KeyCommentURL),
	}
}

// Flash types.
const (
	FlashSuccess = "success"
	FlashError   = "error"
	FlashInfo    = "info"
)

// SetFlash queues a one-shot message for the next rendered page.
func SetFlash(ctx context.Context, sm *scs.SessionManager, message, flashType string) {
	sm.Put(ctx, KeyFlash, message)
	sm.Put(ctx, KeyFlashType, flashType)
}

// PopFlash returns and clears the queued message. The type defaults to info.
func PopFlash(ctx context.Context, sm *scs.SessionManager) (message, flashType string) {
	message = sm.PopString(ctx, KeyFlash)
	if message == "" {
		return "", ""
	}
	flashType = sm.PopString(ctx, KeyFlashType)
	if flashType == "" {
		flashType = FlashInfo
	}
	return message, flashType
}

// SignIn renews the session token and binds the session to userID.
func SignIn(ctx context.Context, sm *scs.SessionManager, userID int64) error {
	if err := sm.RenewToken(ctx); err != nil {
		return err
	}
	sm.Put(ctx, KeyUserID, userID)
	return nil
}

// SignOut destroys the session. It reports whether a user was signed in.
func SignOut(ctx context.Context, sm *scs.SessionManager) (bool, error) {
	signedIn := sm.GetInt64(ctx, KeyUserID) != 0
	if err := sm.Destroy(ctx); err != nil {
		return signedIn, err
	}
	return signedIn, nil
}
