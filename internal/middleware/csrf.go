// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package middleware

import (
	"log/slog"
	"net/http"
	"net/url"
	"strconv"

	"filippo.io/csrf/gorilla"
)

// MsgCSRFFailed is the body of a rejected cross-site form post.
const MsgCSRFFailed = "CSRF verification failed. Request aborted."

// CSRFOptions configures cross-site protection for the HTML forms. The
// check relies on Fetch metadata, so there is no token cookie.
type CSRFOptions struct {
	Key []byte
	// SiteURL is the public address. Its host is trusted when it differs
	// from the Host header, e.g. behind a proxy.
	SiteURL string
	// Port is trusted on localhost and 127.0.0.1 in development.
	Port          int
	IsDevelopment bool
	ErrorHandler  http.Handler
}

// CSRF protects state-changing form posts from cross-site submission.
func CSRF(opts CSRFOptions) func(http.Handler) http.Handler {
	onFail := opts.ErrorHandler
	if onFail == nil {
		onFail = http.HandlerFunc(rejectCSRF)
	}
	options := []csrf.Option{csrf.ErrorHandler(onFail)}
	if origins := trustedOrigins(opts); len(origins) > 0 {
		options = append(options, csrf.TrustedOrigins(origins))
	}
	return csrf.Protect(opts.Key, options...)
}

// trustedOrigins lists hosts as host[:port], without a scheme.
func trustedOrigins(opts CSRFOptions) []string {
	var origins []string
	if u, err := url.Parse(opts.SiteURL); err == nil && u.Host != "" {
		origins = append(origins, u.Host)
	}
	if opts.IsDevelopment && opts.Port > 0 {
		port := strconv.Itoa(opts.Port)
		origins = append(origins, "localhost:"+port, "127.0.0.1:"+port)
	}
	return origins
}

func rejectCSRF(w http.ResponseWriter, r *http.Request) {
	reason := "unknown"
	if err := csrf.FailureReason(r); err != nil {
		reason = err.Error()
	}
	slog.Warn("cross-site form post rejected",
		"reason", reason,
		"method", r.Method,
		"path", r.URL.Path,
		"origin", r.Header.Get("Origin"),
		"sec_fetch_site", r.Header.Get("Sec-Fetch-Site"),
	)
	http.Error(w, MsgCSRFFailed, http.StatusForbidden)
}
