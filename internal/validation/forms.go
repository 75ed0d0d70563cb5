// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package validation

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
)

// CommentForm is the comment submission on an entry detail page.
type CommentForm struct {
	Text  string `form:"comment" validate:"required"`
	Name  string `form:"name" validate:"required,max=100"`
	Email string `form:"email" validate:"required,email"`
	URL   string `form:"url" validate:"omitempty,url"`
}

// EntryForm is the create/update form for entries.
type EntryForm struct {
	Title             string `form:"title" validate:"required,max=200"`
	Slug              string `form:"slug" validate:"omitempty,max=50"`
	Text              string `form:"text"`
	Summary           string `form:"summary"`
	MetaKeywords      string `form:"meta_keywords" validate:"max=255"`
	MetaDescription   string `form:"meta_description" validate:"max=255"`
	IsCommentsAllowed bool   `form:"is_comments_allowed"`
	CreatedBy         int64  `form:"created_by" validate:"gte=0"`
}

// BlogForm is the install/update form for the singleton blog.
type BlogForm struct {
	Title          string `form:"title" validate:"required,max=200"`
	TagLine        string `form:"tag_line" validate:"required,max=200"`
	EntriesPerPage int    `form:"entries_per_page" validate:"gte=1"`
	Recents        int    `form:"recents" validate:"gte=1"`
	RecentComments int    `form:"recent_comments" validate:"gte=1"`
}

var (
	validate     *validator.Validate
	validateOnce sync.Once
)

func instance() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
		validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name := strings.SplitN(fld.Tag.Get("form"), ",", 2)[0]
			if name == "-" {
				return ""
			}
			return name
		})
	})
	return validate
}

// Struct validates v by its struct tags and translates failures into Errors.
func Struct(v any) error {
	err := instance().Struct(v)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}

	out := Errors{}
	for _, fe := range verrs {
		out.Add(fe.Field(), message(fe))
	}
	return out
}

// Validate runs the struct tags and the title rules for the entry form.
func (f EntryForm) Validate() error {
	errs := Errors{}
	errs.Merge(Struct(f))
	errs.Merge(ValidateTitle("title", f.Title))
	return errs.Err()
}

// Validate runs the struct tags and the blog title rules.
func (f BlogForm) Validate() error {
	errs := Errors{}
	errs.Merge(Struct(f))
	if len(errs) > 0 {
		return errs
	}
	errs.Merge(ValidateBlogForm(f.Title, f.TagLine))
	return errs.Err()
}

// Validate runs the struct tags for the comment form.
func (f CommentForm) Validate() error {
	return Struct(f)
}

func message(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "This field is required."
	case "max":
		return fmt.Sprintf("Ensure this value has at most %s characters.", fe.Param())
	case "gte":
		return fmt.Sprintf("Ensure this value is greater than or equal to %s.", fe.Param())
	case "email":
		return "Enter a valid email address."
	case "url":
		return "Enter a valid URL."
	default:
		return "Invalid value."
	}
}
