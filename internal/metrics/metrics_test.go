// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestMetrics_Counters(t *testing.T) {
	m := New()

	m.EntryCreated()
	m.EntryCreated()
	m.CommentCreated("approved")
	m.SearchPerformed()
	m.ObserveRequest(http.MethodGet, "/", http.StatusOK, 5*time.Millisecond)

	if got := testutil.ToFloat64(m.entriesCreated); got != 2 {
		t.Errorf("entries created = %v, want 2", got)
	}
	if got := testutil.ToFloat64(m.commentsCreated.WithLabelValues("approved")); got != 1 {
		t.Errorf("comments created = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.requests.WithLabelValues("GET", "/", "200")); got != 1 {
		t.Errorf("requests = %v, want 1", got)
	}
}

func TestMetrics_NilSafe(t *testing.T) {
	var m *Metrics
	m.EntryCreated()
	m.CommentCreated("pending")
	m.SearchPerformed()
	m.ObserveRequest(http.MethodGet, "/", http.StatusOK, time.Millisecond)
}

func TestMetrics_Handler(t *testing.T) {
	m := New()
	m.EntryCreated()

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	body, _ := io.ReadAll(rec.Body)
	if !strings.Contains(string(body), "oblog_entries_created_total 1") {
		t.Error("exposition missing oblog_entries_created_total")
	}
}

func TestMetrics_WatchCache(t *testing.T) {
	m := New()
	hits, misses := int64(3), int64(1)
	m.WatchCache("memory", func() (int64, int64) { return hits, misses })

	hits = 5
	w := httptest.NewRecorder()
	m.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	body := w.Body.String()

	for _, want := range []string{
		`oblog_cache_hits_total{backend="memory"} 5`,
		`oblog_cache_misses_total{backend="memory"} 1`,
	} {
		if !strings.Contains(body, want) {
			t.Errorf("metrics output missing %q", want)
		}
	}
}
