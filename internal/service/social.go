// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"golang.org/x/oauth2"

	"github.com/olegiv/oblog-go/internal/auth"
	"github.com/olegiv/oblog-go/internal/store"
	"github.com/olegiv/oblog-go/internal/util"
)

const facebookFields = "id,name,email,first_name,last_name"

// maxUsernameAttempts bounds the numeric suffixes tried for a new username.
const maxUsernameAttempts = 100

// facebookIdentity is the subset of the Graph /me response we use.
type facebookIdentity struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Email     string `json:"email"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
}

// SocialService signs users in with a facebook access token.
type SocialService struct {
	queries  *store.Queries
	users    *UserService
	graphURL string
}

// NewSocialService creates a social login service against the Graph API
// at graphURL.
func NewSocialService(db *sql.DB, users *UserService, graphURL string) *SocialService {
	return &SocialService{
		queries:  store.New(db),
		users:    users,
		graphURL: strings.TrimRight(graphURL, "/"),
	}
}

// errEmailInUse refuses a facebook identity whose email belongs to a local
// account it is not linked to. The Graph fields carry no verification flag,
// so a matching address does not prove ownership of the account.
var errEmailInUse = errors.New("email belongs to an unlinked account")

// FacebookLogin resolves the token's facebook identity to a local user.
// It reuses the linked account or creates a new user. Every failure is
// reported as ErrSocialLogin.
func (s *SocialService) FacebookLogin(ctx context.Context, accessToken string) (store.User, error) {
	ident, raw, err := s.fetchIdentity(ctx, accessToken)
	if err != nil {
		slog.Warn("facebook login failed", "error", err)
		return store.User{}, fmt.Errorf("%w: %v", ErrSocialLogin, err)
	}

	user, err := s.resolve(ctx, ident, raw)
	if err != nil {
		slog.Warn("facebook login failed", "facebook_id", ident.ID, "error", err)
		return store.User{}, fmt.Errorf("%w: %v", ErrSocialLogin, err)
	}
	if !user.IsActive {
		return store.User{}, fmt.Errorf("%w: user %d is inactive", ErrSocialLogin, user.ID)
	}
	return user, nil
}

func (s *SocialService) fetchIdentity(ctx context.Context, accessToken string) (facebookIdentity, string, error) {
	client := oauth2.NewClient(ctx, oauth2.StaticTokenSource(&oauth2.Token{AccessToken: accessToken}))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.graphURL+"/me?fields="+facebookFields, nil)
	if err != nil {
		return facebookIdentity{}, "", err
	}
	resp, err := client.Do(req)
	if err != nil {
		return facebookIdentity{}, "", fmt.Errorf("calling graph api: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return facebookIdentity{}, "", fmt.Errorf("reading graph response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return facebookIdentity{}, "", fmt.Errorf("graph api returned %d", resp.StatusCode)
	}

	var ident facebookIdentity
	if err := json.Unmarshal(body, &ident); err != nil {
		return facebookIdentity{}, "", fmt.Errorf("decoding graph response: %w", err)
	}
	if ident.ID == "" {
		return facebookIdentity{}, "", errors.New("graph response has no id")
	}
	return ident, string(body), nil
}

func (s *SocialService) resolve(ctx context.Context, ident facebookIdentity, raw string) (store.User, error) {
	acct, err := s.queries.GetSocialAccount(ctx, store.GetSocialAccountParams{Provider: ProviderFacebook, Uid: ident.ID})
	if err == nil {
		return s.queries.GetUserByID(ctx, acct.UserID)
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return store.User{}, err
	}

	if ident.Email != "" {
		n, err := s.queries.CountUsersByEmail(ctx, ident.Email)
		if err != nil {
			return store.User{}, err
		}
		if n > 0 {
			return store.User{}, errEmailInUse
		}
	}
	user, err := s.createUser(ctx, ident)
	if err != nil {
		return store.User{}, err
	}

	if _, err := s.queries.CreateSocialAccount(ctx, store.CreateSocialAccountParams{
		UserID:    user.ID,
		Provider:  ProviderFacebook,
		Uid:       ident.ID,
		ExtraData: raw,
		CreatedAt: now(),
	}); err != nil {
		return store.User{}, fmt.Errorf("linking facebook account: %w", err)
	}
	return user, nil
}

func (s *SocialService) createUser(ctx context.Context, ident facebookIdentity) (store.User, error) {
	base := strings.ReplaceAll(util.Slugify(ident.Name), "-", "")
	if base == "" {
		base = "fb" + ident.ID
	}

	username := base
	for i := 1; ; i++ {
		n, err := s.queries.CountUsersByUsername(ctx, username)
		if err != nil {
			return store.User{}, err
		}
		if n == 0 {
			break
		}
		if i >= maxUsernameAttempts {
			return store.User{}, fmt.Errorf("no free username for %q", base)
		}
		username = fmt.Sprintf("%s%d", base, i)
	}

	user, _, err := s.users.create(ctx, NewUser{
		Username:  username,
		Email:     ident.Email,
		FirstName: ident.FirstName,
		LastName:  ident.LastName,
		Name:      ident.Name,
	}, auth.UnusablePassword)
	return user, err
}
