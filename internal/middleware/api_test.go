// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/olegiv/oblog-go/internal/service"
	"github.com/olegiv/oblog-go/internal/store"
	"github.com/olegiv/oblog-go/internal/testutil"
)

// simpleOKHandler returns an http.Handler that writes 200 OK.
var simpleOKHandler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
})

// setupUsers creates a user service over a fresh database with one active
// user "alice" and returns alice's raw API key.
func setupUsers(t *testing.T) (*service.UserService, *store.Queries, string) {
	t.Helper()

	db, cleanup := testutil.TestDB(t)
	t.Cleanup(cleanup)

	users := service.NewUserService(db)
	_, rawKey, err := users.Create(context.Background(), service.NewUser{
		Username:    "alice",
		Email:       "alice@example.com",
		FirstName:   "Alice",
		LastName:    "Liddell",
		RawPassword: testutil.TestPassword,
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	return users, store.New(db), rawKey
}

// captureUser serves the request through mw and returns the recorder and
// the user the inner handler saw.
func captureUser(mw func(http.Handler) http.Handler, req *http.Request) (*httptest.ResponseRecorder, *store.User) {
	var seen *store.User
	handler := mw(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = GetUser(r)
		w.WriteHeader(http.StatusOK)
	}))
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)
	return w, seen
}

func TestWriteAPIError(t *testing.T) {
	w := httptest.NewRecorder()
	WriteAPIError(w, http.StatusBadRequest, "missing_key", "Must provide email when creating a user.", map[string]string{"email": "required"})

	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want %d", w.Code, http.StatusBadRequest)
	}
	if ct := w.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("Content-Type = %q, want application/json", ct)
	}

	var got APIError
	if err := json.NewDecoder(w.Body).Decode(&got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.Error.Code != "missing_key" {
		t.Errorf("code = %q, want missing_key", got.Error.Code)
	}
	if got.Error.Details["email"] != "required" {
		t.Errorf("details = %v", got.Error.Details)
	}
}

func TestWriteAPIError_Defaults(t *testing.T) {
	w := httptest.NewRecorder()
	WriteAPIError(w, http.StatusBadRequest, "", "", nil)

	var got APIError
	if err := json.NewDecoder(w.Body).Decode(&got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.Error.Code != "not_provided" {
		t.Errorf("code = %q, want not_provided", got.Error.Code)
	}
	if got.Error.Message != "No error message was provided" {
		t.Errorf("message = %q", got.Error.Message)
	}
}

func TestCredentials(t *testing.T) {
	tests := []struct {
		name       string
		header     string
		wantScheme string
		wantUser   string
		wantOK     bool
	}{
		{"missing", "", "", "", false},
		{"bearer is not accepted", "Bearer abc", "", "", false},
		{"api key", "ApiKey alice:abc123", "apikey", "alice", true},
		{"api key case insensitive", "apikey alice:abc123", "apikey", "alice", true},
		{"api key without colon", "ApiKey alice", "", "", false},
		{"api key without secret", "ApiKey alice:", "", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/v1/entry/", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			scheme, user, _, ok := credentials(req)
			if ok != tt.wantOK || scheme != tt.wantScheme || user != tt.wantUser {
				t.Errorf("credentials() = (%q, %q, %v), want (%q, %q, %v)",
					scheme, user, ok, tt.wantScheme, tt.wantUser, tt.wantOK)
			}
		})
	}

	req := httptest.NewRequest(http.MethodGet, "/api/v1/entry/", nil)
	req.SetBasicAuth("bob", "pw")
	if scheme, user, secret, ok := credentials(req); !ok || scheme != "basic" || user != "bob" || secret != "pw" {
		t.Errorf("basic credentials() = (%q, %q, %q, %v)", scheme, user, secret, ok)
	}
}

func TestBasicAuth_MissingCredentials(t *testing.T) {
	users, _, _ := setupUsers(t)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/entry/", nil)
	w, seen := captureUser(BasicAuth(users), req)

	if w.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want %d", w.Code, http.StatusUnauthorized)
	}
	if seen != nil {
		t.Error("inner handler should not run")
	}
	if w.Header().Get("WWW-Authenticate") == "" {
		t.Error("expected a WWW-Authenticate challenge")
	}
}

func TestBasicAuth_ValidPassword(t *testing.T) {
	users, _, _ := setupUsers(t)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/entry/", nil)
	req.SetBasicAuth("alice", testutil.TestPassword)
	w, seen := captureUser(BasicAuth(users), req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
	}
	if seen == nil || seen.Username != "alice" {
		t.Errorf("user = %v, want alice", seen)
	}
}

func TestBasicAuth_WrongPassword(t *testing.T) {
	users, _, _ := setupUsers(t)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/entry/", nil)
	req.SetBasicAuth("alice", "wrong-password")
	w, _ := captureUser(BasicAuth(users), req)

	if w.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want %d", w.Code, http.StatusUnauthorized)
	}
}

func TestBasicAuth_APIKey(t *testing.T) {
	users, _, rawKey := setupUsers(t)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/entry/", nil)
	req.Header.Set("Authorization", "ApiKey alice:"+rawKey)
	w, seen := captureUser(BasicAuth(users), req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
	}
	if seen == nil || seen.Username != "alice" {
		t.Errorf("user = %v, want alice", seen)
	}

	req = httptest.NewRequest(http.MethodGet, "/api/v1/entry/", nil)
	req.Header.Set("Authorization", "ApiKey alice:not-the-key")
	w, _ = captureUser(BasicAuth(users), req)
	if w.Code != http.StatusUnauthorized {
		t.Errorf("wrong key status = %d, want %d", w.Code, http.StatusUnauthorized)
	}
}

func TestBasicAuth_InactiveUser(t *testing.T) {
	users, q, _ := setupUsers(t)
	testutil.CreateUser(t, q, "carol", testutil.UserOpts{Inactive: true})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/entry/", nil)
	req.SetBasicAuth("carol", testutil.TestPassword)
	w, _ := captureUser(BasicAuth(users), req)

	if w.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want %d", w.Code, http.StatusUnauthorized)
	}
}

func TestBasicAuth_SessionUserPassesThrough(t *testing.T) {
	users, q, _ := setupUsers(t)
	bob := testutil.CreateUser(t, q, "bob", testutil.UserOpts{})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/entry/", nil)
	req = WithUser(req, bob)
	w, seen := captureUser(BasicAuth(users), req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
	}
	if seen == nil || seen.ID != bob.ID {
		t.Errorf("user = %v, want bob", seen)
	}
}

func TestOptionalBasicAuth(t *testing.T) {
	users, _, _ := setupUsers(t)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/all_entries/search/", nil)
	w, seen := captureUser(OptionalBasicAuth(users), req)
	if w.Code != http.StatusOK || seen != nil {
		t.Errorf("anonymous: status = %d, user = %v", w.Code, seen)
	}

	req = httptest.NewRequest(http.MethodGet, "/api/v1/all_entries/search/", nil)
	req.SetBasicAuth("alice", "wrong-password")
	w, seen = captureUser(OptionalBasicAuth(users), req)
	if w.Code != http.StatusOK || seen != nil {
		t.Errorf("bad credentials: status = %d, user = %v", w.Code, seen)
	}

	req = httptest.NewRequest(http.MethodGet, "/api/v1/all_entries/search/", nil)
	req.SetBasicAuth("alice", testutil.TestPassword)
	_, seen = captureUser(OptionalBasicAuth(users), req)
	if seen == nil || seen.Username != "alice" {
		t.Errorf("valid credentials: user = %v, want alice", seen)
	}
}

func TestGlobalRateLimiter_PerUser(t *testing.T) {
	rl := NewGlobalRateLimiter(1, 1)
	handler := rl.Middleware()(simpleOKHandler)

	send := func(u store.User) int {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/entry/", nil)
		req.RemoteAddr = "192.168.1.1:12345"
		req = WithUser(req, u)
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, req)
		return w.Code
	}

	alice := store.User{ID: 1, Username: "alice"}
	bob := store.User{ID: 2, Username: "bob"}

	if code := send(alice); code != http.StatusOK {
		t.Errorf("alice first: %d", code)
	}
	if code := send(alice); code != http.StatusTooManyRequests {
		t.Errorf("alice second: %d, want 429", code)
	}
	if code := send(bob); code != http.StatusOK {
		t.Errorf("bob from same IP: %d, want 200", code)
	}
}

func TestGlobalRateLimiter_Prune(t *testing.T) {
	rl := NewGlobalRateLimiter(1, 1)
	rl.cache.get("a")
	rl.cache.get("b")

	rl.Prune(5)
	if len(rl.cache.limiters) != 2 {
		t.Errorf("limiters = %d, want 2", len(rl.cache.limiters))
	}
	rl.Prune(1)
	if len(rl.cache.limiters) != 0 {
		t.Errorf("limiters = %d, want 0", len(rl.cache.limiters))
	}
}

func TestGlobalRateLimiter(t *testing.T) {
	rl := NewGlobalRateLimiter(2, 2)
	handler := rl.Middleware()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	// First few requests should succeed
	for i := 0; i < 2; i++ {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/entry/", nil)
		req.RemoteAddr = "192.168.1.1:12345"
		w := httptest.NewRecorder()

		handler.ServeHTTP(w, req)

		if w.Code != http.StatusOK {
			t.Errorf("request %d: expected status %d, got %d", i, http.StatusOK, w.Code)
		}
	}

	// Next request should be rate limited
	req := httptest.NewRequest(http.MethodGet, "/api/v1/entry/", nil)
	req.RemoteAddr = "192.168.1.1:12345"
	w := httptest.NewRecorder()

	handler.ServeHTTP(w, req)

	if w.Code != http.StatusTooManyRequests {
		t.Errorf("expected status %d, got %d", http.StatusTooManyRequests, w.Code)
	}
}

func TestGlobalRateLimiter_DifferentIPs(t *testing.T) {
	rl := NewGlobalRateLimiter(1, 1)
	handler := rl.Middleware()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	// First IP exhausts its limit
	req := httptest.NewRequest(http.MethodGet, "/api/v1/entry/", nil)
	req.RemoteAddr = "192.168.1.1:12345"
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	// Second IP should still be able to make requests
	req = httptest.NewRequest(http.MethodGet, "/api/v1/entry/", nil)
	req.RemoteAddr = "192.168.1.2:12345"
	w = httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("second IP: expected status %d, got %d", http.StatusOK, w.Code)
	}
}

func TestGetClientIP(t *testing.T) {
	tests := []struct {
		name    string
		headers map[string]string
		want    string
	}{
		{"connection address", nil, "192.168.1.1"},
		{"forwarded", map[string]string{"X-Forwarded-For": "10.0.0.1"}, "10.0.0.1"},
		{"forwarded chain", map[string]string{"X-Forwarded-For": " 10.0.0.1 , 10.0.0.2"}, "10.0.0.1"},
		{"real ip", map[string]string{"X-Real-IP": "10.0.0.5"}, "10.0.0.5"},
		{"forwarded wins", map[string]string{"X-Forwarded-For": "10.0.0.1", "X-Real-IP": "10.0.0.5"}, "10.0.0.1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/v1/entry/", nil)
			req.RemoteAddr = "192.168.1.1:12345"
			for k, v := range tt.headers {
				req.Header.Set(k, v)
			}
			if got := GetClientIP(req); got != tt.want {
				t.Errorf("GetClientIP() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestGlobalRateLimiter_ProxiedClients(t *testing.T) {
	rl := NewGlobalRateLimiter(1, 1)
	handler := rl.Middleware()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	send := func(client string) int {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/entry/", nil)
		req.RemoteAddr = "127.0.0.1:12345"
		req.Header.Set("X-Forwarded-For", client)
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, req)
		return w.Code
	}

	if code := send("10.0.0.2"); code != http.StatusOK {
		t.Errorf("first request: status %d", code)
	}
	if code := send("10.0.0.2"); code != http.StatusTooManyRequests {
		t.Errorf("repeat from same client: status %d, want 429", code)
	}
	// Same proxy, different client.
	if code := send("10.0.0.3"); code != http.StatusOK {
		t.Errorf("other client: status %d", code)
	}
}

func TestGlobalRateLimiter_HTMLMiddleware(t *testing.T) {
	rl := NewGlobalRateLimiter(2, 2)
	handler := rl.HTMLMiddleware()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	// First few requests should succeed
	for i := 0; i < 2; i++ {
		req := httptest.NewRequest(http.MethodPost, "/2026/01/02/django-post/", nil)
		req.RemoteAddr = "192.168.1.100:12345"
		w := httptest.NewRecorder()

		handler.ServeHTTP(w, req)

		if w.Code != http.StatusOK {
			t.Errorf("request %d: expected status %d, got %d", i, http.StatusOK, w.Code)
		}
	}

	// Next request should be rate limited with text response (not JSON)
	req := httptest.NewRequest(http.MethodPost, "/2026/01/02/django-post/", nil)
	req.RemoteAddr = "192.168.1.100:12345"
	w := httptest.NewRecorder()

	handler.ServeHTTP(w, req)

	if w.Code != http.StatusTooManyRequests {
		t.Errorf("expected status %d, got %d", http.StatusTooManyRequests, w.Code)
	}

	// Verify response is plain text, not JSON
	body := w.Body.String()
	if body == "" {
		t.Error("expected non-empty response body")
	}
	// Should not be JSON (which starts with {)
	if body != "" && body[0] == '{' {
		t.Error("expected plain text response, got JSON")
	}
}

func TestGlobalRateLimiter_HTMLMiddleware_DifferentIPs(t *testing.T) {
	rl := NewGlobalRateLimiter(1, 1)
	handler := rl.HTMLMiddleware()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	// First IP exhausts its limit
	req := httptest.NewRequest(http.MethodPost, "/2026/01/02/django-post/", nil)
	req.RemoteAddr = "192.168.1.1:12345"
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	// Second IP should still be able to make requests
	req = httptest.NewRequest(http.MethodPost, "/2026/01/02/django-post/", nil)
	req.RemoteAddr = "192.168.1.2:12345"
	w = httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("second IP: expected status %d, got %d", http.StatusOK, w.Code)
	}
}

func TestGlobalRateLimiter_HTMLMiddlewareIgnoresGET(t *testing.T) {
	rl := NewGlobalRateLimiter(1, 1)
	handler := rl.HTMLMiddleware()(simpleOKHandler)

	for i := 0; i < 3; i++ {
		req := httptest.NewRequest(http.MethodGet, "/2026/01/02/django-post/", nil)
		req.RemoteAddr = "192.168.1.1:12345"
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, req)
		if w.Code != http.StatusOK {
			t.Errorf("GET %d: status = %d, want 200", i, w.Code)
		}
	}
}
