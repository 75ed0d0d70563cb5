// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package api

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/alexedwards/scs/v2"
	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"

	"github.com/olegiv/oblog-go/internal/middleware"
	"github.com/olegiv/oblog-go/internal/service"
	"github.com/olegiv/oblog-go/internal/storage"
	"github.com/olegiv/oblog-go/internal/store"
	"github.com/olegiv/oblog-go/internal/testutil"
)

// testAPI serves the v1 routes over a migrated test database.
type testAPI struct {
	q       *store.Queries
	users   *service.UserService
	entries *service.EntryService
	blogs   *service.BlogService
	search  *service.SearchService
	router  http.Handler
	cookies map[string]*http.Cookie
}

// newTestAPI builds the API. graphURL may be empty when no test needs
// facebook logins.
func newTestAPI(t *testing.T, graphURL string) *testAPI {
	t.Helper()

	db, cleanup := testutil.TestDB(t)
	t.Cleanup(cleanup)

	sm := scs.New()
	sm.Lifetime = time.Hour

	users := service.NewUserService(db)
	search := service.NewSearchService(db, nil)
	a := &testAPI{
		q:       store.New(db),
		users:   users,
		entries: service.NewEntryService(db, search, nil),
		blogs:   service.NewBlogService(db, nil),
		search:  search,
		cookies: map[string]*http.Cookie{},
	}

	h := NewHandler(Config{
		SessionManager:  sm,
		Blogs:           a.blogs,
		Entries:         a.entries,
		Users:           users,
		Profiles:        service.NewProfileService(db, storage.NewLocal(t.TempDir(), "/media")),
		Social:          service.NewSocialService(db, users, graphURL),
		Search:          search,
		Events:          service.NewEventService(db),
		LoginProtection: middleware.NewLoginProtection(middleware.DefaultLoginProtectionConfig()),
	})

	r := chi.NewRouter()
	r.Use(sm.LoadAndSave)
	r.Use(middleware.LoadUser(sm, users))
	r.Route(Prefix, h.Routes)
	a.router = r
	return a
}

// do sends a request, replaying cookies set by earlier responses. A
// non-nil user is sent as HTTP Basic credentials with testutil.TestPassword.
func (a *testAPI) do(t *testing.T, method, path, body string, user *store.User) *httptest.ResponseRecorder {
	t.Helper()

	var rd io.Reader
	if body != "" {
		rd = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, Prefix+path, rd)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if user != nil {
		req.SetBasicAuth(user.Username, testutil.TestPassword)
	}
	for _, c := range a.cookies {
		req.AddCookie(c)
	}

	w := httptest.NewRecorder()
	a.router.ServeHTTP(w, req)
	for _, c := range w.Result().Cookies() {
		a.cookies[c.Name] = c
	}
	return w
}

// serve sends a prepared request with the stored cookies.
func (a *testAPI) serve(req *http.Request) *httptest.ResponseRecorder {
	for _, c := range a.cookies {
		req.AddCookie(c)
	}
	w := httptest.NewRecorder()
	a.router.ServeHTTP(w, req)
	return w
}

func (a *testAPI) get(t *testing.T, path string, user *store.User) *httptest.ResponseRecorder {
	t.Helper()
	return a.do(t, http.MethodGet, path, "", user)
}

// decode unmarshals the response body into T.
func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v), "body: %s", w.Body.String())
	return v
}

// assertStatusCode checks that the response has the expected status code.
func assertStatusCode(t *testing.T, w *httptest.ResponseRecorder, expected int) {
	t.Helper()
	if w.Code != expected {
		t.Errorf("expected status %d, got %d (body: %s)", expected, w.Code, w.Body.String())
	}
}

// assertErrorResponse unmarshals and validates an error response.
func assertErrorResponse(t *testing.T, w *httptest.ResponseRecorder, expectedCode, expectedMessage string) ErrorResponse {
	t.Helper()
	resp := decode[ErrorResponse](t, w)
	if resp.Error.Code != expectedCode {
		t.Errorf("expected code %q, got %q", expectedCode, resp.Error.Code)
	}
	if expectedMessage != "" && resp.Error.Message != expectedMessage {
		t.Errorf("expected message %q, got %q", expectedMessage, resp.Error.Message)
	}
	return resp
}

// entryList is the decoded entry list envelope.
type entryList struct {
	Pagination PageMeta        `json:"pagination"`
	Objects    []EntryResponse `json:"objects"`
}
