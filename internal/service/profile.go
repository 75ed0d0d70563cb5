// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package service

import (
	"context"
	"crypto/md5"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/olegiv/oblog-go/internal/imaging"
	"github.com/olegiv/oblog-go/internal/model"
	"github.com/olegiv/oblog-go/internal/storage"
	"github.com/olegiv/oblog-go/internal/store"
	"github.com/olegiv/oblog-go/internal/util"
)

// ProviderFacebook names facebook social accounts.
const ProviderFacebook = "facebook"

const (
	facebookPictureURL = "https://graph.facebook.com/%s/picture?type=large"
	gravatarURL        = "https://www.gravatar.com/avatar/%s?s=40"
)

// ProfileService manages the one-to-one profile of each user.
type ProfileService struct {
	queries   *store.Queries
	storage   storage.Storage
	processor *imaging.Processor
}

// NewProfileService creates a profile service. files may be nil when photo
// uploads are disabled.
func NewProfileService(db *sql.DB, files storage.Storage) *ProfileService {
	return &ProfileService{
		queries:   store.New(db),
		storage:   files,
		processor: imaging.NewProcessor(model.PhotoThumbnail),
	}
}

// Ensure returns the user's profile, creating an empty one if needed.
func (s *ProfileService) Ensure(ctx context.Context, userID int64) (store.Profile, error) {
	if err := s.queries.EnsureProfile(ctx, store.EnsureProfileParams{UserID: userID, Now: now()}); err != nil {
		return store.Profile{}, fmt.Errorf("ensuring profile for user %d: %w", userID, err)
	}
	return s.queries.GetProfileByUserID(ctx, userID)
}

// SetDateOfBirth stores dob, or clears it when dob is nil.
func (s *ProfileService) SetDateOfBirth(ctx context.Context, userID int64, dob *time.Time) (store.Profile, error) {
	if _, err := s.Ensure(ctx, userID); err != nil {
		return store.Profile{}, err
	}
	var v sql.NullTime
	if dob != nil {
		v = util.NullTime(*dob)
	}
	return s.queries.UpdateProfileDateOfBirth(ctx, store.UpdateProfileDateOfBirthParams{
		DateOfBirth: v,
		UpdatedAt:   now(),
		UserID:      userID,
	})
}

// SetPhoto processes an uploaded image, stores it with its thumbnail and
// replaces the previous photo.
func (s *ProfileService) SetPhoto(ctx context.Context, userID int64, r io.Reader) (store.Profile, error) {
	if s.storage == nil {
		return store.Profile{}, errors.New("photo storage is not configured")
	}

	prev, err := s.Ensure(ctx, userID)
	if err != nil {
		return store.Profile{}, err
	}

	res, err := s.processor.Process(r)
	if err != nil {
		return store.Profile{}, err
	}

	key := storage.PhotoKey(now(), res.Ext)
	if err := s.storage.Put(ctx, key, res.Original.MimeType, res.Original.Data); err != nil {
		return store.Profile{}, fmt.Errorf("storing photo: %w", err)
	}
	if err := s.storage.Put(ctx, storage.ThumbnailKey(key), res.Thumbnail.MimeType, res.Thumbnail.Data); err != nil {
		return store.Profile{}, fmt.Errorf("storing thumbnail: %w", err)
	}

	profile, err := s.queries.UpdateProfilePhoto(ctx, store.UpdateProfilePhotoParams{
		Photo:     util.NullString(key),
		UpdatedAt: now(),
		UserID:    userID,
	})
	if err != nil {
		return store.Profile{}, fmt.Errorf("saving photo for user %d: %w", userID, err)
	}

	if prev.Photo.Valid && prev.Photo.String != "" {
		s.deletePhoto(ctx, prev.Photo.String)
	}
	return profile, nil
}

func (s *ProfileService) deletePhoto(ctx context.Context, key string) {
	for _, k := range []string{key, storage.ThumbnailKey(key)} {
		if err := s.storage.Delete(ctx, k); err != nil {
			slog.Warn("failed to delete old photo", "key", k, "error", err)
		}
	}
}

// ImageURL is the user's avatar: the facebook picture when the account is
// linked, else the uploaded photo thumbnail, else a gravatar.
func (s *ProfileService) ImageURL(ctx context.Context, user store.User) string {
	acct, err := s.queries.GetSocialAccountByUser(ctx, store.GetSocialAccountByUserParams{
		UserID:   user.ID,
		Provider: ProviderFacebook,
	})
	if err == nil {
		return fmt.Sprintf(facebookPictureURL, acct.Uid)
	}

	if s.storage != nil {
		profile, err := s.queries.GetProfileByUserID(ctx, user.ID)
		if err == nil && profile.Photo.Valid && profile.Photo.String != "" {
			return s.storage.URL(storage.ThumbnailKey(profile.Photo.String))
		}
	}

	return GravatarURL(user.Email)
}

// GravatarURL builds the 40px gravatar address for email.
func GravatarURL(email string) string {
	sum := md5.Sum([]byte(strings.ToLower(strings.TrimSpace(email))))
	return fmt.Sprintf(gravatarURL, hex.EncodeToString(sum[:]))
}
