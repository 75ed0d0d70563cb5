// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"context"
	"database/sql"
	"io/fs"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/alexedwards/scs/v2"
	"github.com/go-chi/chi/v5"

	"github.com/olegiv/oblog-go/internal/middleware"
	"github.com/olegiv/oblog-go/internal/model"
	"github.com/olegiv/oblog-go/internal/render"
	"github.com/olegiv/oblog-go/internal/service"
	"github.com/olegiv/oblog-go/internal/session"
	"github.com/olegiv/oblog-go/internal/store"
	"github.com/olegiv/oblog-go/internal/testutil"
	"github.com/olegiv/oblog-go/web"
)

const entryPattern = "/{year:[0-9]{4}}/{month:[0-9]{2}}/{day:[0-9]{2}}/{slug}/"

// testApp wires the HTML handlers against a migrated test database.
type testApp struct {
	db       *sql.DB
	q        *store.Queries
	sm       *scs.SessionManager
	blogs    *service.BlogService
	entries  *service.EntryService
	comments *service.CommentService
	users    *service.UserService
	search   *service.SearchService
	router   http.Handler
}

func newTestApp(t *testing.T) *testApp {
	t.Helper()

	db, cleanup := testutil.TestDB(t)
	t.Cleanup(cleanup)

	sm := testSessionManager(t)
	templatesFS, err := fs.Sub(web.Templates, "templates")
	if err != nil {
		t.Fatalf("fs.Sub: %v", err)
	}
	renderer, err := render.New(render.Config{TemplatesFS: templatesFS, SessionManager: sm, IsDev: true})
	if err != nil {
		t.Fatalf("render.New: %v", err)
	}

	search := service.NewSearchService(db, nil)
	app := &testApp{
		db:       db,
		q:        store.New(db),
		sm:       sm,
		blogs:    service.NewBlogService(db, nil),
		entries:  service.NewEntryService(db, search, nil),
		comments: service.NewCommentService(db, nil, nil),
		users:    service.NewUserService(db),
		search:   search,
	}

	blogH := NewBlogHandler(renderer, sm, app.blogs, app.entries, app.comments)
	entryH := NewEntryHandler(renderer, sm, app.blogs, app.entries, app.comments, app.users)
	searchH := NewSearchHandler(renderer, sm, app.blogs, search)
	authH := NewAuthHandler(renderer, sm, app.blogs, app.users, service.NewEventService(db), middleware.NewLoginProtection(middleware.DefaultLoginProtectionConfig()))
	healthH := NewHealthHandler(db, "")

	r := chi.NewRouter()
	r.Use(sm.LoadAndSave)
	r.Use(middleware.LoadUser(sm, app.users))

	// Signs the client in without going through the login form.
	r.Get("/test/login/{id}", func(w http.ResponseWriter, r *http.Request) {
		id, _ := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
		if err := session.SignIn(r.Context(), sm, id); err != nil {
			t.Errorf("SignIn: %v", err)
		}
		w.WriteHeader(http.StatusNoContent)
	})

	r.Get("/health", healthH.Health)
	r.Get("/", blogH.Index)
	r.Get("/search/", searchH.Search)
	r.Get("/author/{username}/", entryH.Author)
	r.Get("/login", authH.LoginForm)
	r.Post("/login", authH.Login)
	r.Post("/logout", authH.Logout)

	r.Get(entryPattern, entryH.Detail)
	r.Post(entryPattern, entryH.Comment)

	r.Group(func(r chi.Router) {
		r.Use(middleware.RequireLogin)
		r.Get("/install", blogH.Install)

		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireStaff(sm))
			r.Get("/create", blogH.CreateForm)
			r.Post("/create", blogH.Create)
			r.Get("/entry/new/", entryH.NewForm)
			r.Post("/entry/new/", entryH.Create)
		})
		canUpdate := middleware.RequirePermission(sm, app.users, model.PermUpdateBlog)
		r.With(canUpdate).Get("/update/{id}/", blogH.UpdateForm)
		r.With(canUpdate).Post("/update/{id}/", blogH.Update)
		r.With(middleware.RequirePermission(sm, app.users, model.PermViewBlog)).Get("/details/{id}/", blogH.Details)
	})

	app.router = r
	return app
}

// client returns a cookie-keeping client for the app.
func (a *testApp) client(t *testing.T) *testClient {
	return &testClient{t: t, h: a.router, cookies: map[string]*http.Cookie{}}
}

// staff creates a staff user holding the blog permissions.
func (a *testApp) staff(t *testing.T, username string) store.User {
	t.Helper()
	return testutil.CreateUser(t, a.q, username, testutil.UserOpts{
		Staff:       true,
		Permissions: []string{model.PermAddBlog, model.PermUpdateBlog, model.PermViewBlog},
	})
}

// testClient replays the session cookie across requests.
type testClient struct {
	t       *testing.T
	h       http.Handler
	cookies map[string]*http.Cookie
}

func (c *testClient) do(req *http.Request) *httptest.ResponseRecorder {
	c.t.Helper()
	for _, ck := range c.cookies {
		req.AddCookie(ck)
	}
	w := httptest.NewRecorder()
	c.h.ServeHTTP(w, req)
	for _, ck := range w.Result().Cookies() {
		if ck.MaxAge < 0 || (!ck.Expires.IsZero() && ck.Expires.Before(time.Now())) {
			delete(c.cookies, ck.Name)
			continue
		}
		c.cookies[ck.Name] = ck
	}
	return w
}

func (c *testClient) get(path string) *httptest.ResponseRecorder {
	c.t.Helper()
	return c.do(httptest.NewRequest(http.MethodGet, path, nil))
}

func (c *testClient) post(path string, form url.Values) *httptest.ResponseRecorder {
	c.t.Helper()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return c.do(req)
}

// loginAs signs the client in as user.
func (c *testClient) loginAs(user store.User) {
	c.t.Helper()
	if w := c.get("/test/login/" + strconv.FormatInt(user.ID, 10)); w.Code != http.StatusNoContent {
		c.t.Fatalf("test login: status %d", w.Code)
	}
}

// testSessionManager creates a session manager for testing.
func testSessionManager(t *testing.T) *scs.SessionManager {
	t.Helper()
	sm := scs.New()
	sm.Lifetime = 24 * time.Hour
	return sm
}

// requestWithURLParams adds chi URL parameters to a request.
func requestWithURLParams(r *http.Request, params map[string]string) *http.Request {
	rctx := chi.NewRouteContext()
	for key, value := range params {
		rctx.URLParams.Add(key, value)
	}
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}

// assertStatus checks if the response status code matches the expected value.
func assertStatus(t *testing.T, got, want int) {
	t.Helper()
	if got != want {
		t.Errorf("status = %d; want %d", got, want)
	}
}

// assertRedirect checks the status and Location of a redirect.
func assertRedirect(t *testing.T, w *httptest.ResponseRecorder, status int, location string) {
	t.Helper()
	assertStatus(t, w.Code, status)
	if got := w.Header().Get("Location"); got != location {
		t.Errorf("Location = %q; want %q", got, location)
	}
}
