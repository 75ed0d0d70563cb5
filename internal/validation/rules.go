// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package validation

import (
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"
)

// TitlePrefix is the literal every blog and entry title must start with.
const TitlePrefix = "Django"

// MinPasswordLength is the shortest accepted raw password.
const MinPasswordLength = 6

// RequiredUserFields are checked in order when creating a user.
var RequiredUserFields = []string{"username", "email", "first_name", "last_name", "raw_password"}

// ValidateTitle checks that value starts with TitlePrefix.
func ValidateTitle(field, value string) error {
	if !strings.HasPrefix(value, TitlePrefix) {
		return &FieldError{Field: field, Message: "Must start with " + TitlePrefix}
	}
	return nil
}

// ValidateBlogForm runs the title rules on both fields, then requires the
// tag line to equal the title.
func ValidateBlogForm(title, tagLine string) error {
	errs := Errors{}
	errs.Merge(ValidateTitle("title", title))
	errs.Merge(ValidateTitle("tag_line", tagLine))
	if len(errs) > 0 {
		return errs
	}
	if tagLine != title {
		return &FormError{Message: "The title should same the tag line."}
	}
	return nil
}

// ValidatePassword enforces the minimum length in characters, then rejects
// whitespace.
func ValidatePassword(raw string) error {
	if utf8.RuneCountInString(raw) < MinPasswordLength {
		return &CodedError{
			Code:    CodeInvalidPassword,
			Message: fmt.Sprintf("Your password should contain at least %d", MinPasswordLength),
		}
	}
	if strings.IndexFunc(raw, unicode.IsSpace) >= 0 {
		return &CodedError{Code: CodeInvalidPassword, Message: "Your password should no spaces."}
	}
	return nil
}

// RequireUserFields reports the first of RequiredUserFields that is
// missing or empty in data.
func RequireUserFields(data map[string]string) error {
	for _, f := range RequiredUserFields {
		if strings.TrimSpace(data[f]) == "" {
			return MissingKey(f)
		}
	}
	return nil
}

// MissingKey builds the missing_key error for a user creation field.
func MissingKey(field string) *CodedError {
	return &CodedError{
		Code:    CodeMissingKey,
		Message: fmt.Sprintf("Must provide %s when creating a user.", field),
	}
}

// DuplicateEmail is returned when the email already belongs to a user.
func DuplicateEmail() *CodedError {
	return &CodedError{Code: CodeDuplicateException, Message: "That email is already used."}
}

// DuplicateUsername is returned when the username is taken.
func DuplicateUsername() *CodedError {
	return &CodedError{Code: CodeDuplicateException, Message: "That username is already used."}
}
