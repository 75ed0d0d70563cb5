// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package middleware

import (
	"net/http"
	"strings"
)

// pageCSP allows the blog's own scripts and styles plus remote avatars
// from gravatar and the facebook graph.
var pageCSP = []string{
	"default-src 'self'",
	"script-src 'self'",
	"style-src 'self' 'unsafe-inline'",
	"img-src 'self' data: https:",
	"font-src 'self' data:",
	"connect-src 'self'",
	"frame-src 'none'",
	"object-src 'none'",
	"base-uri 'self'",
	"form-action 'self'",
	"frame-ancestors 'self'",
}

// apiCSP is sent with JSON responses, which never load subresources.
const apiCSP = "default-src 'none'; frame-ancestors 'none'"

const permissionsPolicy = "accelerometer=(), camera=(), geolocation=(), gyroscope=(), " +
	"microphone=(), payment=(), usb=(), interest-cohort=(), browsing-topics=()"

const hstsValue = "max-age=31536000; includeSubDomains"

type header struct{ name, value string }

// SecurityHeaders sets the browser hardening headers. Responses under
// /api/ get a locked-down policy. HSTS and the strict script policy are
// production only; development allows inline scripts for live reload.
func SecurityHeaders(isDev bool) func(http.Handler) http.Handler {
	page := securityHeaderSet(isDev, contentPolicy(isDev), "SAMEORIGIN")
	api := securityHeaderSet(isDev, apiCSP, "DENY")

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			set := page
			if strings.HasPrefix(r.URL.Path, "/api/") {
				set = api
			}
			h := w.Header()
			for _, hdr := range set {
				h.Set(hdr.name, hdr.value)
			}
			next.ServeHTTP(w, r)
		})
	}
}

func contentPolicy(isDev bool) string {
	directives := pageCSP
	if isDev {
		directives = append([]string(nil), pageCSP...)
		directives[1] = "script-src 'self' 'unsafe-inline'"
	}
	return strings.Join(directives, "; ")
}

func securityHeaderSet(isDev bool, csp, frameOptions string) []header {
	set := []header{
		{"Content-Security-Policy", csp},
		{"X-Frame-Options", frameOptions},
		{"X-Content-Type-Options", "nosniff"},
		{"Referrer-Policy", "strict-origin-when-cross-origin"},
		{"Permissions-Policy", permissionsPolicy},
	}
	if !isDev {
		set = append(set, header{"Strict-Transport-Security", hstsValue})
	}
	return set
}
