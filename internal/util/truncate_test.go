// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package util

import (
	"testing"
	"unicode/utf8"
)

func TestTruncate(t *testing.T) {
	tests := []struct {
		input string
		n     int
		want  string
	}{
		{"Mozilla/5.0", 7, "Mozilla"},
		{"short", 10, "short"},
		{"héllo wörld", 4, "héll"},
		{"日本語のブラウザ", 3, "日本語"},
		{"anything", 0, ""},
		{"unlimited", -1, "unlimited"},
	}

	for _, tt := range tests {
		got := Truncate(tt.input, tt.n)
		if got != tt.want {
			t.Errorf("Truncate(%q, %d) = %q, want %q", tt.input, tt.n, got, tt.want)
		}
		if !utf8.ValidString(got) {
			t.Errorf("Truncate(%q, %d) returned invalid UTF-8", tt.input, tt.n)
		}
	}
}
