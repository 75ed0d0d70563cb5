// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package middleware

import (
	"testing"
	"time"
)

// fakeClock is advanced by hand.
type fakeClock struct{ t time.Time }

func (c *fakeClock) now() time.Time { return c.t }

func (c *fakeClock) advance(d time.Duration) { c.t = c.t.Add(d) }

func newTestLoginProtection(maxAttempts int) (*LoginProtection, *fakeClock) {
	lp := NewLoginProtection(LoginProtectionConfig{
		MaxFailedAttempts: maxAttempts,
		LockoutDuration:   time.Minute,
		AttemptWindow:     10 * time.Minute,
	})
	clock := &fakeClock{t: time.Date(2016, 5, 1, 12, 0, 0, 0, time.UTC)}
	lp.now = clock.now
	return lp, clock
}

func TestNewLoginProtectionDefaults(t *testing.T) {
	lp := NewLoginProtection(LoginProtectionConfig{})
	if lp.cfg != DefaultLoginProtectionConfig() {
		t.Errorf("cfg = %+v, want defaults", lp.cfg)
	}
}

func TestLoginProtectionLocksAfterLimit(t *testing.T) {
	lp, clock := newTestLoginProtection(3)

	for i := range 2 {
		if locked, _ := lp.RecordFailedAttempt("alice"); locked {
			t.Fatalf("locked after %d failures", i+1)
		}
	}
	if got := lp.RemainingAttempts("alice"); got != 1 {
		t.Errorf("RemainingAttempts = %d, want 1", got)
	}

	locked, d := lp.RecordFailedAttempt("alice")
	if !locked || d != time.Minute {
		t.Fatalf("third failure: locked=%v d=%v, want true 1m", locked, d)
	}
	if locked, left := lp.IsAccountLocked("alice"); !locked || left != time.Minute {
		t.Errorf("IsAccountLocked = %v %v", locked, left)
	}
	if locked, _ := lp.IsAccountLocked("bob"); locked {
		t.Error("bob should not be locked")
	}

	clock.advance(time.Minute)
	if locked, _ := lp.IsAccountLocked("alice"); locked {
		t.Error("lock should expire")
	}
}

func TestLoginProtectionLockoutDoubles(t *testing.T) {
	lp, clock := newTestLoginProtection(1)

	want := []time.Duration{time.Minute, 2 * time.Minute, 4 * time.Minute}
	for i, w := range want {
		_, d := lp.RecordFailedAttempt("alice")
		if d != w {
			t.Errorf("lockout %d = %v, want %v", i+1, d, w)
		}
		clock.advance(d)
	}
}

func TestLoginProtectionLockoutCapped(t *testing.T) {
	lp, _ := newTestLoginProtection(1)
	lp.accounts["alice"] = &loginAttempt{lockouts: 20}

	if _, d := lp.RecordFailedAttempt("alice"); d != maxLockout {
		t.Errorf("lockout = %v, want %v", d, maxLockout)
	}
}

func TestLoginProtectionWindowResets(t *testing.T) {
	lp, clock := newTestLoginProtection(3)

	lp.RecordFailedAttempt("alice")
	lp.RecordFailedAttempt("alice")
	clock.advance(11 * time.Minute)

	if got := lp.RemainingAttempts("alice"); got != 3 {
		t.Errorf("RemainingAttempts after window = %d, want 3", got)
	}
	if locked, _ := lp.RecordFailedAttempt("alice"); locked {
		t.Error("old failures should not count")
	}
}

func TestLoginProtectionSuccessClears(t *testing.T) {
	lp, _ := newTestLoginProtection(3)

	lp.RecordFailedAttempt("alice")
	lp.RecordFailedAttempt("alice")
	lp.RecordSuccessfulLogin("alice")

	if got := lp.RemainingAttempts("alice"); got != 3 {
		t.Errorf("RemainingAttempts = %d, want 3", got)
	}
}

func TestLoginProtectionPrune(t *testing.T) {
	lp, clock := newTestLoginProtection(2)

	lp.RecordFailedAttempt("alice")
	lp.RecordFailedAttempt("bob")
	lp.RecordFailedAttempt("bob") // locked for a minute

	if n := lp.Prune(); n != 0 {
		t.Errorf("Prune() = %d, want 0 while failures are recent", n)
	}

	clock.advance(11 * time.Minute)
	if n := lp.Prune(); n != 2 {
		t.Errorf("Prune() = %d, want 2", n)
	}
	if len(lp.accounts) != 0 {
		t.Errorf("%d accounts left", len(lp.accounts))
	}
}
