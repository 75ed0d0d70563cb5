// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package util

import (
	"regexp"
	"strings"
	"unicode"

	"github.com/mozillazg/go-unidecode"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// SlugMaxLength is the longest slug stored for an entry.
const SlugMaxLength = 50

var (
	slugDrop = regexp.MustCompile(`[^\w\s-]`)
	slugSep  = regexp.MustCompile(`[-\s]+`)
)

// Slugify derives a URL slug from a title: word characters are kept
// lowercased, and runs of spaces and hyphens become one hyphen. Accents
// are stripped and other scripts transliterated first, so "Привет мир"
// gives "privet-mir".
func Slugify(s string) string {
	s = unidecode.Unidecode(stripMarks(s))
	s = slugDrop.ReplaceAllString(strings.ToLower(s), "")
	s = slugSep.ReplaceAllString(strings.TrimSpace(s), "-")
	return strings.Trim(s, "-_")
}

// SlugifyMax is Slugify cut to n characters; n <= 0 means no limit.
func SlugifyMax(s string, n int) string {
	slug := Slugify(s)
	if n > 0 && len(slug) > n {
		slug = slug[:n]
	}
	return slug
}

func stripMarks(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		return s
	}
	return out
}
