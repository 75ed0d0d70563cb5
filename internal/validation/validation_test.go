// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package validation

import (
	"errors"
	"strings"
	"testing"
)

func TestValidateTitle(t *testing.T) {
	tests := []struct {
		value   string
		wantErr bool
	}{
		{"Django tips", false},
		{"Django", false},
		{"django tips", true},
		{"Tips on Django", true},
		{"", true},
	}

	for _, tt := range tests {
		t.Run(tt.value, func(t *testing.T) {
			err := ValidateTitle("title", tt.value)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ValidateTitle(%q) error = %v, wantErr %v", tt.value, err, tt.wantErr)
			}
			if err == nil {
				return
			}
			var fe *FieldError
			if !errors.As(err, &fe) {
				t.Fatalf("error type = %T, want *FieldError", err)
			}
			if fe.Field != "title" || fe.Message != "Must start with Django" {
				t.Errorf("got %q/%q", fe.Field, fe.Message)
			}
		})
	}
}

func TestValidateBlogForm(t *testing.T) {
	if err := ValidateBlogForm("Django blog", "Django blog"); err != nil {
		t.Fatalf("valid form error: %v", err)
	}

	err := ValidateBlogForm("Django blog", "Django other")
	var fe *FormError
	if !errors.As(err, &fe) {
		t.Fatalf("error = %v, want *FormError", err)
	}
	if fe.Message != "The title should same the tag line." {
		t.Errorf("message = %q", fe.Message)
	}

	err = ValidateBlogForm("Blog", "Blog")
	var errs Errors
	if !errors.As(err, &errs) {
		t.Fatalf("error = %v, want Errors", err)
	}
	if _, ok := errs["title"]; !ok {
		t.Error("missing title error")
	}
	if _, ok := errs["tag_line"]; !ok {
		t.Error("missing tag_line error")
	}
}

func TestValidatePassword(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		wantMsg string
	}{
		{"valid", "secret1", ""},
		{"exactly six", "abcdef", ""},
		{"too short", "abc", "Your password should contain at least 6"},
		{"short with space", "a b", "Your password should contain at least 6"},
		{"space", "abc def", "Your password should no spaces."},
		{"tab", "abc\tdef", "Your password should no spaces."},
		{"three accented chars", "ééé", "Your password should contain at least 6"},
		{"five chars with umlaut", "pässw", "Your password should contain at least 6"},
		{"six multi-byte chars", "пароль", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidatePassword(tt.raw)
			if tt.wantMsg == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			var ce *CodedError
			if !errors.As(err, &ce) {
				t.Fatalf("error = %v, want *CodedError", err)
			}
			if ce.Code != CodeInvalidPassword {
				t.Errorf("code = %q, want %q", ce.Code, CodeInvalidPassword)
			}
			if ce.Message != tt.wantMsg {
				t.Errorf("message = %q, want %q", ce.Message, tt.wantMsg)
			}
		})
	}
}

func TestRequireUserFields(t *testing.T) {
	full := map[string]string{
		"username":     "alice",
		"email":        "alice@example.com",
		"first_name":   "Alice",
		"last_name":    "Smith",
		"raw_password": "secret1",
	}
	if err := RequireUserFields(full); err != nil {
		t.Fatalf("full payload error: %v", err)
	}

	for _, field := range RequiredUserFields {
		t.Run(field, func(t *testing.T) {
			data := make(map[string]string, len(full))
			for k, v := range full {
				data[k] = v
			}
			delete(data, field)

			var ce *CodedError
			if !errors.As(RequireUserFields(data), &ce) {
				t.Fatal("want *CodedError")
			}
			if ce.Code != CodeMissingKey {
				t.Errorf("code = %q, want %q", ce.Code, CodeMissingKey)
			}
			want := "Must provide " + field + " when creating a user."
			if ce.Message != want {
				t.Errorf("message = %q, want %q", ce.Message, want)
			}
		})
	}
}

func TestRequireUserFields_FirstMissingWins(t *testing.T) {
	var ce *CodedError
	if !errors.As(RequireUserFields(map[string]string{"username": "bob"}), &ce) {
		t.Fatal("want *CodedError")
	}
	if !strings.Contains(ce.Message, "email") {
		t.Errorf("message = %q, want it to name email", ce.Message)
	}
}

func TestCommentForm(t *testing.T) {
	valid := CommentForm{Text: "Nice post", Name: "Bob", Email: "bob@example.com"}
	if err := valid.Validate(); err != nil {
		t.Fatalf("valid comment error: %v", err)
	}

	bad := CommentForm{Name: strings.Repeat("x", 101), Email: "not-an-email", URL: "nope"}
	var errs Errors
	if !errors.As(bad.Validate(), &errs) {
		t.Fatal("want Errors")
	}
	for _, field := range []string{"comment", "name", "email", "url"} {
		if _, ok := errs[field]; !ok {
			t.Errorf("missing error for %q in %v", field, errs)
		}
	}
}

func TestEntryForm(t *testing.T) {
	if err := (EntryForm{Title: "Django rocks"}).Validate(); err != nil {
		t.Fatalf("valid entry error: %v", err)
	}

	var errs Errors
	if !errors.As((EntryForm{Title: "Flask rocks"}).Validate(), &errs) {
		t.Fatal("want Errors")
	}
	if errs["title"] != "Must start with Django" {
		t.Errorf("title error = %q", errs["title"])
	}
}

func TestBlogForm(t *testing.T) {
	form := BlogForm{Title: "Django blog", TagLine: "Django blog", EntriesPerPage: 10, Recents: 5, RecentComments: 5}
	if err := form.Validate(); err != nil {
		t.Fatalf("valid blog error: %v", err)
	}

	form.EntriesPerPage = 0
	var errs Errors
	if !errors.As(form.Validate(), &errs) {
		t.Fatal("want Errors")
	}
	if _, ok := errs["entries_per_page"]; !ok {
		t.Errorf("missing entries_per_page error in %v", errs)
	}

	form.EntriesPerPage = 10
	form.TagLine = "Django other"
	errs = nil
	if !errors.As(form.Validate(), &errs) {
		t.Fatal("want Errors")
	}
	if errs[NonFieldKey] != "The title should same the tag line." {
		t.Errorf("non-field error = %q", errs[NonFieldKey])
	}
}

func TestErrors_Error(t *testing.T) {
	errs := Errors{"b": "second", "a": "first", NonFieldKey: "form"}
	if got, want := errs.Error(), "form; a: first; b: second"; got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
	if (Errors{}).Err() != nil {
		t.Error("empty Errors.Err() should be nil")
	}
}
