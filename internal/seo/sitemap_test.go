// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package seo

import (
	"encoding/xml"
	"strings"
	"testing"
	"time"
)

func TestNewSitemapBuilder(t *testing.T) {
	builder := NewSitemapBuilder("https://example.com/")
	if builder.siteURL != "https://example.com" {
		t.Errorf("siteURL = %q, want %q", builder.siteURL, "https://example.com")
	}
	if len(builder.urls) != 0 {
		t.Errorf("urls length = %d, want 0", len(builder.urls))
	}
}

func TestSitemapBuilderAddHomepage(t *testing.T) {
	builder := NewSitemapBuilder("https://example.com")
	builder.AddHomepage(time.Time{})

	if len(builder.urls) != 1 {
		t.Fatalf("urls length = %d, want 1", len(builder.urls))
	}

	url := builder.urls[0]
	if url.Loc != "https://example.com/" {
		t.Errorf("Loc = %q, want %q", url.Loc, "https://example.com/")
	}
	if url.Priority != "1.0" {
		t.Errorf("Priority = %q, want %q", url.Priority, "1.0")
	}
	if url.LastMod != "" {
		t.Errorf("LastMod = %q, want empty", url.LastMod)
	}
}

func TestSitemapBuilderAddEntry(t *testing.T) {
	builder := NewSitemapBuilder("https://example.com")
	updatedAt := time.Date(2025, 1, 15, 10, 0, 0, 0, time.FixedZone("CET", 3600))

	builder.AddEntry(SitemapEntry{Path: "/2025/01/15/django-tips/", UpdatedAt: updatedAt})

	url := builder.urls[0]
	if url.Loc != "https://example.com/2025/01/15/django-tips/" {
		t.Errorf("Loc = %q", url.Loc)
	}
	if url.LastMod != "2025-01-15T09:00:00Z" {
		t.Errorf("LastMod = %q, want %q", url.LastMod, "2025-01-15T09:00:00Z")
	}
	if url.ChangeFreq != ChangeFreqWeekly {
		t.Errorf("ChangeFreq = %q, want %q", url.ChangeFreq, ChangeFreqWeekly)
	}
}

func TestSitemapBuilderAddAuthor(t *testing.T) {
	builder := NewSitemapBuilder("https://example.com")
	builder.AddAuthor("alice")

	if got := builder.urls[0].Loc; got != "https://example.com/author/alice/" {
		t.Errorf("Loc = %q", got)
	}
}

func TestGenerateSitemap(t *testing.T) {
	older := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	newer := time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC)

	data, err := GenerateSitemap("https://example.com", []SitemapEntry{
		{Path: "/2025/01/01/first/", UpdatedAt: older},
		{Path: "/2025/02/01/second/", UpdatedAt: newer},
	}, []string{"alice"})
	if err != nil {
		t.Fatalf("GenerateSitemap() error = %v", err)
	}

	if !strings.HasPrefix(string(data), xml.Header) {
		t.Error("sitemap should start with the XML header")
	}

	var sm Sitemap
	if err := xml.Unmarshal(data, &sm); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if sm.XMLNS != XMLNamespace {
		t.Errorf("XMLNS = %q, want %q", sm.XMLNS, XMLNamespace)
	}
	if len(sm.URLs) != 4 {
		t.Fatalf("urls = %d, want 4", len(sm.URLs))
	}
	if sm.URLs[0].LastMod != "2025-02-01T00:00:00Z" {
		t.Errorf("homepage LastMod = %q, want newest entry", sm.URLs[0].LastMod)
	}
	if sm.URLs[3].Loc != "https://example.com/author/alice/" {
		t.Errorf("last url = %q, want author page", sm.URLs[3].Loc)
	}
}

func TestGenerateSitemapEmpty(t *testing.T) {
	data, err := GenerateSitemap("https://example.com", nil, nil)
	if err != nil {
		t.Fatalf("GenerateSitemap() error = %v", err)
	}
	if strings.Count(string(data), "<url>") != 1 {
		t.Errorf("empty blog should list only the homepage:\n%s", data)
	}
}
