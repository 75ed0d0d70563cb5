// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package util

import (
	"strings"
	"testing"
)

func TestSlugify(t *testing.T) {
	tests := map[string]string{
		"Django Tips & Tricks":   "django-tips-tricks",
		"Django 1.9 released!":   "django-19-released",
		"  Django  --  news  ":   "django-news",
		"snake_case stays":       "snake_case-stays",
		"_leading and trailing_": "leading-and-trailing",
		"Café résumé":            "cafe-resume",
		"Über München":           "uber-munchen",
		"Привет мир":             "privet-mir",
		"!@#$%^&*()":             "",
		"":                       "",
		"DjangoCon EU, Budapest": "djangocon-eu-budapest",
	}

	for in, want := range tests {
		if got := Slugify(in); got != want {
			t.Errorf("Slugify(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestSlugifyMax(t *testing.T) {
	tests := []struct {
		input string
		n     int
		want  string
	}{
		{"Django Tips", SlugMaxLength, "django-tips"},
		{strings.Repeat("a", 80), SlugMaxLength, strings.Repeat("a", 50)},
		{"Django abcdef", 7, "django-"},
		{"Django Tips", 0, "django-tips"},
	}

	for _, tt := range tests {
		if got := SlugifyMax(tt.input, tt.n); got != tt.want {
			t.Errorf("SlugifyMax(%q, %d) = %q, want %q", tt.input, tt.n, got, tt.want)
		}
	}
}
