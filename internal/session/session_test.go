// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package session

import (
	"net/http"
	"testing"

	"github.com/alexedwards/scs/v2"

	"github.com/olegiv/oblog-go/internal/testutil"
)

func TestNew_DevMode(t *testing.T) {
	db, cleanup := testutil.TestDB(t)
	defer cleanup()

	sm := New(db, true)

	if sm.Cookie.Secure {
		t.Error("expected Cookie.Secure = false in dev mode")
	}
	if sm.Cookie.Name != "oblog_session" {
		t.Errorf("Cookie.Name = %q, want %q", sm.Cookie.Name, "oblog_session")
	}
	if !sm.Cookie.HttpOnly {
		t.Error("expected Cookie.HttpOnly = true")
	}
	if sm.Cookie.SameSite != http.SameSiteLaxMode {
		t.Errorf("Cookie.SameSite = %v, want Lax", sm.Cookie.SameSite)
	}
}

func TestNew_ProductionMode(t *testing.T) {
	db, cleanup := testutil.TestDB(t)
	defer cleanup()

	sm := New(db, false)

	if !sm.Cookie.Secure {
		t.Error("expected Cookie.Secure = true in production mode")
	}
	if sm.Cookie.Name != "__Host-oblog_session" {
		t.Errorf("Cookie.Name = %q, want __Host- prefix", sm.Cookie.Name)
	}
}

func TestCommenterRoundTrip(t *testing.T) {
	sm := scs.New()
	ctx, err := sm.Load(t.Context(), "")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if got := RecalledCommenter(ctx, sm); got != (Commenter{}) {
		t.Errorf("empty session commenter = %+v", got)
	}

	want := Commenter{Name: "Bob", Email: "bob@example.com", URL: "https://bob.example.com"}
	RememberCommenter(ctx, sm, want)

	if got := RecalledCommenter(ctx, sm); got != want {
		t.Errorf("RecalledCommenter = %+v, want %+v", got, want)
	}
}

func TestFlash(t *testing.T) {
	sm := scs.New()
	ctx, err := sm.Load(t.Context(), "")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if msg, _ := PopFlash(ctx, sm); msg != "" {
		t.Errorf("PopFlash on empty session = %q", msg)
	}

	SetFlash(ctx, sm, "created", FlashSuccess)
	msg, typ := PopFlash(ctx, sm)
	if msg != "created" || typ != FlashSuccess {
		t.Errorf("PopFlash = (%q, %q), want (created, success)", msg, typ)
	}
	if msg, _ := PopFlash(ctx, sm); msg != "" {
		t.Errorf("second PopFlash = %q, want empty", msg)
	}
}

func TestSignInSignOut(t *testing.T) {
	sm := scs.New()
	ctx, err := sm.Load(t.Context(), "")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if err := SignIn(ctx, sm, 42); err != nil {
		t.Fatalf("SignIn: %v", err)
	}
	if got := sm.GetInt64(ctx, KeyUserID); got != 42 {
		t.Errorf("user id = %d, want 42", got)
	}

	signedIn, err := SignOut(ctx, sm)
	if err != nil {
		t.Fatalf("SignOut: %v", err)
	}
	if !signedIn {
		t.Error("SignOut reported no user")
	}
	if got := sm.GetInt64(ctx, KeyUserID); got != 0 {
		t.Errorf("user id after SignOut = %d", got)
	}

	if signedIn, _ := SignOut(ctx, sm); signedIn {
		t.Error("second SignOut reported a user")
	}
}
