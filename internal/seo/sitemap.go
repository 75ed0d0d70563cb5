// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package seo builds sitemap.xml and robots.txt for the blog.
package seo

import (
	"encoding/xml"
	"strings"
	"time"
)

// XMLNamespace is the sitemap XML namespace.
const XMLNamespace = "http://www.sitemaps.org/schemas/sitemap/0.9"

// ChangeFreq represents the change frequency of a URL.
type ChangeFreq string

// Valid change frequency values.
const (
	ChangeFreqAlways  ChangeFreq = "always"
	ChangeFreqHourly  ChangeFreq = "hourly"
	ChangeFreqDaily   ChangeFreq = "daily"
	ChangeFreqWeekly  ChangeFreq = "weekly"
	ChangeFreqMonthly ChangeFreq = "monthly"
	ChangeFreqYearly  ChangeFreq = "yearly"
	ChangeFreqNever   ChangeFreq = "never"
)

// SitemapURL represents a single URL entry in the sitemap.
type SitemapURL struct {
	Loc        string     `xml:"loc"`
	LastMod    string     `xml:"lastmod,omitempty"`
	ChangeFreq ChangeFreq `xml:"changefreq,omitempty"`
	Priority   string     `xml:"priority,omitempty"`
}

// Sitemap represents the complete sitemap document.
type Sitemap struct {
	XMLName xml.Name     `xml:"urlset"`
	XMLNS   string       `xml:"xmlns,attr"`
	URLs    []SitemapURL `xml:"url"`
}

// SitemapEntry is a published entry: its path and last change.
type SitemapEntry struct {
	Path      string
	UpdatedAt time.Time
}

// SitemapBuilder builds sitemap XML for the index, entries and author pages.
type SitemapBuilder struct {
	siteURL string
	urls    []SitemapURL
}

// NewSitemapBuilder creates a new sitemap builder. A trailing slash on
// siteURL is dropped.
func NewSitemapBuilder(siteURL string) *SitemapBuilder {
	return &SitemapBuilder{
		siteURL: strings.TrimSuffix(siteURL, "/"),
		urls:    make([]SitemapURL, 0),
	}
}

// AddHomepage adds the entry index. lastMod is the newest entry change
// and may be zero.
func (b *SitemapBuilder) AddHomepage(lastMod time.Time) {
	b.urls = append(b.urls, SitemapURL{
		Loc:        b.siteURL + "/",
		LastMod:    formatLastMod(lastMod),
		ChangeFreq: ChangeFreqDaily,
		Priority:   "1.0",
	})
}

// AddEntry adds an entry detail page.
func (b *SitemapBuilder) AddEntry(e SitemapEntry) {
	b.urls = append(b.urls, SitemapURL{
		Loc:        b.siteURL + e.Path,
		LastMod:    formatLastMod(e.UpdatedAt),
		ChangeFreq: ChangeFreqWeekly,
		Priority:   "0.8",
	})
}

// AddAuthor adds the archive page of username.
func (b *SitemapBuilder) AddAuthor(username string) {
	b.urls = append(b.urls, SitemapURL{
		Loc:        b.siteURL + "/author/" + username + "/",
		ChangeFreq: ChangeFreqWeekly,
		Priority:   "0.5",
	})
}

// Build generates the sitemap XML.
func (b *SitemapBuilder) Build() ([]byte, error) {
	sitemap := Sitemap{
		XMLNS: XMLNamespace,
		URLs:  b.urls,
	}

	output := []byte(xml.Header)
	xmlBytes, err := xml.MarshalIndent(sitemap, "", "  ")
	if err != nil {
		return nil, err
	}

	return append(output, xmlBytes...), nil
}

// GenerateSitemap builds the sitemap for the given entries and authors.
// The homepage carries the newest entry change.
func GenerateSitemap(siteURL string, entries []SitemapEntry, authors []string) ([]byte, error) {
	var newest time.Time
	for _, e := range entries {
		if e.UpdatedAt.After(newest) {
			newest = e.UpdatedAt
		}
	}

	builder := NewSitemapBuilder(siteURL)
	builder.AddHomepage(newest)
	for _, e := range entries {
		builder.AddEntry(e)
	}
	for _, a := range authors {
		builder.AddAuthor(a)
	}
	return builder.Build()
}

func formatLastMod(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}
