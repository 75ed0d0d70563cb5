// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package api

import (
	"context"
	"fmt"
	"time"

	"github.com/olegiv/oblog-go/internal/service"
	"github.com/olegiv/oblog-go/internal/store"
)

// Resource names under Prefix.
const (
	ResourceUserProfile = "user_profile"
	ResourceCreateUser  = "create_user"
	ResourceUsers       = "users"
	ResourceEntry       = "entry"
	ResourceEntryAuthor = "entry-author"
	ResourceAllEntries  = "all_entries"
)

// dateLayout is the wire format of dates without a time.
const dateLayout = "2006-01-02"

func resourceURI(resource string, id any) string {
	return fmt.Sprintf("%s/%s/%v/", Prefix, resource, id)
}

// UserProfileResponse is the user_profile representation. Account flags
// and the password hash are never exposed.
type UserProfileResponse struct {
	ID              int64   `json:"id"`
	Username        string  `json:"username"`
	Email           string  `json:"email"`
	FirstName       string  `json:"first_name"`
	LastName        string  `json:"last_name"`
	Name            string  `json:"name"`
	DateOfBirth     *string `json:"date_of_birth"`
	ProfileImageURL string  `json:"profile_image_url"`
	ResourceURI     string  `json:"resource_uri"`
}

// CreatedUserResponse is the create_user response, which carries the raw
// API key once.
type CreatedUserResponse struct {
	UserProfileResponse
	Key string `json:"key"`
}

// UserResponse is the public users representation.
type UserResponse struct {
	ID              int64  `json:"id"`
	Username        string `json:"username"`
	Name            string `json:"name"`
	FirstName       string `json:"first_name"`
	LastName        string `json:"last_name"`
	ProfileImageURL string `json:"profile_image_url"`
	ResourceURI     string `json:"resource_uri"`
}

// EntryResponse is the entry representation. User links to the author's
// user_profile resource.
type EntryResponse struct {
	ID                int64      `json:"id"`
	Blog              *int64     `json:"blog"`
	Title             string     `json:"title"`
	Slug              string     `json:"slug"`
	Text              string     `json:"text"`
	Summary           string     `json:"summary"`
	PublishedDate     *time.Time `json:"published_date"`
	IsPublished       bool       `json:"is_published"`
	IsCommentsAllowed bool       `json:"is_comments_allowed"`
	MetaKeywords      string     `json:"meta_keywords"`
	MetaDescription   string     `json:"meta_description"`
	User              *string    `json:"user"`
	CreatedDate       time.Time  `json:"created_date"`
	URL               string     `json:"url"`
	ResourceURI       string     `json:"resource_uri"`
}

func (h *Handler) imageURL(ctx context.Context, u store.User) string {
	if h.profiles == nil {
		return service.GravatarURL(u.Email)
	}
	return h.profiles.ImageURL(ctx, u)
}

func (h *Handler) userProfileResponse(ctx context.Context, u store.User, p store.Profile) UserProfileResponse {
	resp := UserProfileResponse{
		ID:              u.ID,
		Username:        u.Username,
		Email:           u.Email,
		FirstName:       u.FirstName,
		LastName:        u.LastName,
		Name:            u.Name,
		ProfileImageURL: h.imageURL(ctx, u),
		ResourceURI:     resourceURI(ResourceUserProfile, u.ID),
	}
	if p.DateOfBirth.Valid {
		dob := p.DateOfBirth.Time.Format(dateLayout)
		resp.DateOfBirth = &dob
	}
	return resp
}

// profileFor loads the profile for the representation. A missing profile
// leaves the profile fields empty.
func (h *Handler) profileFor(ctx context.Context, u store.User) (store.Profile, error) {
	if h.profiles == nil {
		return store.Profile{}, nil
	}
	return h.profiles.Ensure(ctx, u.ID)
}

func (h *Handler) userResponse(ctx context.Context, u store.User) UserResponse {
	return UserResponse{
		ID:              u.ID,
		Username:        u.Username,
		Name:            u.Name,
		FirstName:       u.FirstName,
		LastName:        u.LastName,
		ProfileImageURL: h.imageURL(ctx, u),
		ResourceURI:     resourceURI(ResourceUsers, u.Username),
	}
}

func entryResponse(e store.Entry) EntryResponse {
	resp := EntryResponse{
		ID:                e.ID,
		Title:             e.Title,
		Slug:              e.Slug,
		Text:              e.Text,
		Summary:           e.Summary,
		IsPublished:       e.IsPublished,
		IsCommentsAllowed: e.IsCommentsAllowed,
		MetaKeywords:      e.MetaKeywords,
		MetaDescription:   e.MetaDescription,
		CreatedDate:       e.CreatedDate,
		URL:               service.EntryURL(e),
		ResourceURI:       resourceURI(ResourceEntry, e.ID),
	}
	if e.BlogID.Valid {
		resp.Blog = &e.BlogID.Int64
	}
	if e.PublishedDate.Valid {
		resp.PublishedDate = &e.PublishedDate.Time
	}
	if e.CreatedBy.Valid {
		uri := resourceURI(ResourceUserProfile, e.CreatedBy.Int64)
		resp.User = &uri
	}
	return resp
}

func entryResponses(entries []store.Entry) []EntryResponse {
	out := make([]EntryResponse, 0, len(entries))
	for _, e := range entries {
		out = append(out, entryResponse(e))
	}
	return out
}
