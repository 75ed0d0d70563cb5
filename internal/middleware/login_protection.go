// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package middleware

import (
	"log/slog"
	"sync"
	"time"
)

// maxLockout caps the doubling lockout.
const maxLockout = 24 * time.Hour

// LoginProtectionConfig holds the account lockout thresholds.
type LoginProtectionConfig struct {
	// MaxFailedAttempts within AttemptWindow locks the username.
	MaxFailedAttempts int
	// LockoutDuration is the first lockout; each later one doubles it.
	LockoutDuration time.Duration
	AttemptWindow   time.Duration
}

// DefaultLoginProtectionConfig locks a username for 15 minutes after five
// failures in 15 minutes.
func DefaultLoginProtectionConfig() LoginProtectionConfig {
	return LoginProtectionConfig{
		MaxFailedAttempts: 5,
		LockoutDuration:   15 * time.Minute,
		AttemptWindow:     15 * time.Minute,
	}
}

// LoginProtection tracks failed logins per username, for both the login
// page and the user_profile login endpoint. Per-IP throttling is done by
// GlobalRateLimiter in front of those routes.
type LoginProtection struct {
	cfg LoginProtectionConfig
	now func() time.Time

	mu       sync.Mutex
	accounts map[string]*loginAttempt
}

type loginAttempt struct {
	count       int
	firstFailed time.Time
	lockedUntil time.Time
	lockouts    int
}

// NewLoginProtection fills zero config fields from
// DefaultLoginProtectionConfig.
func NewLoginProtection(cfg LoginProtectionConfig) *LoginProtection {
	def := DefaultLoginProtectionConfig()
	if cfg.MaxFailedAttempts <= 0 {
		cfg.MaxFailedAttempts = def.MaxFailedAttempts
	}
	if cfg.LockoutDuration <= 0 {
		cfg.LockoutDuration = def.LockoutDuration
	}
	if cfg.AttemptWindow <= 0 {
		cfg.AttemptWindow = def.AttemptWindow
	}
	return &LoginProtection{
		cfg:      cfg,
		now:      time.Now,
		accounts: make(map[string]*loginAttempt),
	}
}

// IsAccountLocked reports whether username is locked and for how long.
func (lp *LoginProtection) IsAccountLocked(username string) (bool, time.Duration) {
	lp.mu.Lock()
	defer lp.mu.Unlock()

	a, ok := lp.accounts[username]
	if !ok {
		return false, 0
	}
	if left := a.lockedUntil.Sub(lp.now()); left > 0 {
		return true, left
	}
	return false, 0
}

// RecordFailedAttempt counts a failure for username. When the failure
// reaches the limit the account is locked and the lock duration returned.
func (lp *LoginProtection) RecordFailedAttempt(username string) (bool, time.Duration) {
	lp.mu.Lock()
	defer lp.mu.Unlock()

	now := lp.now()
	a, ok := lp.accounts[username]
	if !ok {
		a = &loginAttempt{}
		lp.accounts[username] = a
	}
	if a.count == 0 || now.Sub(a.firstFailed) > lp.cfg.AttemptWindow {
		a.count = 0
		a.firstFailed = now
	}
	a.count++

	if a.count < lp.cfg.MaxFailedAttempts {
		return false, 0
	}

	d := lp.cfg.LockoutDuration << a.lockouts
	if d <= 0 || d > maxLockout {
		d = maxLockout
	}
	a.lockedUntil = now.Add(d)
	a.lockouts++
	a.count = 0

	slog.Warn("account locked after failed logins", "username", username, "lockouts", a.lockouts, "duration", d)
	return true, d
}

// RecordSuccessfulLogin forgets the failures of username.
func (lp *LoginProtection) RecordSuccessfulLogin(username string) {
	lp.mu.Lock()
	delete(lp.accounts, username)
	lp.mu.Unlock()
}

// RemainingAttempts returns how many failures username has left before
// the next lockout.
func (lp *LoginProtection) RemainingAttempts(username string) int {
	lp.mu.Lock()
	defer lp.mu.Unlock()

	a, ok := lp.accounts[username]
	if !ok || lp.now().Sub(a.firstFailed) > lp.cfg.AttemptWindow {
		return lp.cfg.MaxFailedAttempts
	}
	return max(lp.cfg.MaxFailedAttempts-a.count, 0)
}

// Prune forgets usernames whose lock has expired and whose failures are
// older than the attempt window. It returns how many were dropped.
func (lp *LoginProtection) Prune() int {
	lp.mu.Lock()
	defer lp.mu.Unlock()

	now := lp.now()
	n := 0
	for username, a := range lp.accounts {
		if now.After(a.lockedUntil) && now.Sub(a.firstFailed) > lp.cfg.AttemptWindow {
			delete(lp.accounts, username)
			n++
		}
	}
	return n
}
