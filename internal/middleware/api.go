// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package middleware

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"sync"

	"golang.org/x/time/rate"

	"github.com/olegiv/oblog-go/internal/service"
	"github.com/olegiv/oblog-go/internal/store"
)

// Error codes shared by the REST API.
const (
	CodeUnauthorized  = "unauthorized"
	CodeRateLimited   = "rate_limit_exceeded"
	CodeInternalError = "internal_error"
)

// APIError represents a JSON error response for the API.
type APIError struct {
	Error struct {
		Code    string            `json:"code"`
		Message string            `json:"message"`
		Details map[string]string `json:"details,omitempty"`
	} `json:"error"`
}

// WriteAPIError writes a JSON error response. An empty code or message
// falls back to the generic "not_provided" error.
func WriteAPIError(w http.ResponseWriter, statusCode int, code, message string, details map[string]string) {
	if code == "" {
		code = "not_provided"
	}
	if message == "" {
		message = "No error message was provided"
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	apiErr := APIError{}
	apiErr.Error.Code = code
	apiErr.Error.Message = message
	apiErr.Error.Details = details

	_ = json.NewEncoder(w).Encode(apiErr)
}

// credentials extracts the user from the Authorization header. Both HTTP
// Basic and "ApiKey <username>:<key>" are understood. ok is false when the
// header is absent or unparseable.
func credentials(r *http.Request) (scheme, username, secret string, ok bool) {
	if u, p, basic := r.BasicAuth(); basic {
		return "basic", u, p, true
	}

	header := r.Header.Get("Authorization")
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "apikey") {
		return "", "", "", false
	}
	username, secret, found := strings.Cut(strings.TrimSpace(parts[1]), ":")
	if !found || username == "" || secret == "" {
		return "", "", "", false
	}
	return "apikey", username, secret, true
}

// authenticate resolves the request's credentials to an active user.
func authenticate(r *http.Request, users *service.UserService) (store.User, bool, error) {
	scheme, username, secret, ok := credentials(r)
	if !ok {
		return store.User{}, false, nil
	}

	var (
		user store.User
		err  error
	)
	if scheme == "apikey" {
		user, err = users.AuthenticateAPIKey(r.Context(), username, secret)
	} else {
		user, err = users.Authenticate(r.Context(), username, secret)
	}
	switch {
	case err == nil:
		return user, true, nil
	case errors.Is(err, service.ErrInvalidCredentials), errors.Is(err, service.ErrInactiveUser):
		return store.User{}, false, nil
	default:
		return store.User{}, false, err
	}
}

// BasicAuth creates middleware that requires API credentials. A user already
// signed in through the session is accepted as well. Failures get a 401
// JSON error with a Basic challenge.
func BasicAuth(users *service.UserService) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if GetUser(r) != nil {
				next.ServeHTTP(w, r)
				return
			}

			user, ok, err := authenticate(r, users)
			if err != nil {
				slog.Error("failed to authenticate api request", "error", err)
				WriteAPIError(w, http.StatusInternalServerError, CodeInternalError, "Failed to authenticate", nil)
				return
			}
			if !ok {
				slog.Debug("api authentication failed", "path", r.URL.Path)
				w.Header().Set("WWW-Authenticate", `Basic realm="oblog"`)
				WriteAPIError(w, http.StatusUnauthorized, CodeUnauthorized, "Authentication required", nil)
				return
			}

			next.ServeHTTP(w, WithUser(r, user))
		})
	}
}

// OptionalBasicAuth attaches the user when valid credentials are present
// and lets every request through.
func OptionalBasicAuth(users *service.UserService) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if GetUser(r) != nil {
				next.ServeHTTP(w, r)
				return
			}
			user, ok, err := authenticate(r, users)
			if err != nil {
				slog.Warn("optional api authentication failed", "error", err)
			}
			if ok {
				r = WithUser(r, user)
			}
			next.ServeHTTP(w, r)
		})
	}
}

// limiterCache is a generic rate limiter cache with double-check locking.
type limiterCache[K comparable] struct {
	limiters map[K]*rate.Limiter
	mu       sync.RWMutex
	rate     rate.Limit
	burst    int
}

// newLimiterCache creates a new limiter cache.
func newLimiterCache[K comparable](rps float64, burst int) *limiterCache[K] {
	return &limiterCache[K]{
		limiters: make(map[K]*rate.Limiter),
		rate:     rate.Limit(rps),
		burst:    burst,
	}
}

// get returns the rate limiter for a specific key, creating one if needed.
func (lc *limiterCache[K]) get(key K) *rate.Limiter {
	lc.mu.RLock()
	limiter, exists := lc.limiters[key]
	lc.mu.RUnlock()

	if exists {
		return limiter
	}

	lc.mu.Lock()
	defer lc.mu.Unlock()

	// Double-check after acquiring write lock
	if limiter, exists = lc.limiters[key]; exists {
		return limiter
	}

	limiter = rate.NewLimiter(lc.rate, lc.burst)
	lc.limiters[key] = limiter
	return limiter
}

// clearIfExceeds clears all entries if the cache exceeds maxSize.
// Returns true if the cache was cleared.
func (lc *limiterCache[K]) clearIfExceeds(maxSize int) bool {
	lc.mu.Lock()
	defer lc.mu.Unlock()

	if len(lc.limiters) > maxSize {
		lc.limiters = make(map[K]*rate.Limiter)
		return true
	}
	return false
}

// GlobalRateLimiter limits requests per authenticated user, falling back to
// the client IP for anonymous requests.
type GlobalRateLimiter struct {
	cache *limiterCache[string]
}

// NewGlobalRateLimiter creates a new global rate limiter.
func NewGlobalRateLimiter(rps float64, burst int) *GlobalRateLimiter {
	return &GlobalRateLimiter{
		cache: newLimiterCache[string](rps, burst),
	}
}

func (rl *GlobalRateLimiter) allow(r *http.Request) (string, bool) {
	key := "ip:" + GetClientIP(r)
	if user := GetUser(r); user != nil {
		key = "user:" + user.Username
	}
	return key, rl.cache.get(key).Allow()
}

// GetClientIP returns the client address, preferring the first
// X-Forwarded-For hop, then X-Real-IP, then the connection address.
func GetClientIP(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		first, _, _ := strings.Cut(fwd, ",")
		if ip := strings.TrimSpace(first); ip != "" {
			return ip
		}
	}
	if ip := strings.TrimSpace(r.Header.Get("X-Real-IP")); ip != "" {
		return ip
	}
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}

// Prune drops every limiter once more than maxSize keys are tracked.
func (rl *GlobalRateLimiter) Prune(maxSize int) {
	if rl.cache.clearIfExceeds(maxSize) {
		slog.Info("cleared api rate limiters due to size")
	}
}

// Middleware returns the rate limiting middleware for API routes (returns JSON errors).
func (rl *GlobalRateLimiter) Middleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if key, ok := rl.allow(r); !ok {
				slog.Warn("api rate limit exceeded", "key", key, "path", r.URL.Path)
				WriteAPIError(w, http.StatusTooManyRequests, CodeRateLimited, "Rate limit exceeded. Please slow down.", nil)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// HTMLMiddleware returns the rate limiting middleware for public routes (returns plain text errors).
// This is suitable for the comment form and other public HTML form endpoints.
func (rl *GlobalRateLimiter) HTMLMiddleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodPost {
				next.ServeHTTP(w, r)
				return
			}
			if key, ok := rl.allow(r); !ok {
				slog.Warn("public rate limit exceeded", "key", key, "path", r.URL.Path)
				http.Error(w, "Too many requests. Please wait a moment and try again.", http.StatusTooManyRequests)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
