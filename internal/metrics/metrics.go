// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package metrics exposes Prometheus collectors for HTTP traffic and blog
// activity. All methods are safe to call on a nil *Metrics.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the collectors and the registry they are registered on.
type Metrics struct {
	registry        *prometheus.Registry
	requests        *prometheus.CounterVec
	duration        *prometheus.HistogramVec
	entriesCreated  prometheus.Counter
	commentsCreated *prometheus.CounterVec
	searches        prometheus.Counter
}

// New creates the collectors on a fresh registry, together with the Go
// runtime and process collectors.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		requests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "oblog_http_requests_total",
				Help: "HTTP requests by method, route pattern and status code.",
			},
			[]string{"method", "route", "status"},
		),
		duration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "oblog_http_request_duration_seconds",
				Help:    "HTTP request latency by route pattern.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"route"},
		),
		entriesCreated: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "oblog_entries_created_total",
				Help: "Number of blog entries created.",
			},
		),
		commentsCreated: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "oblog_comments_created_total",
				Help: "Number of comments created by moderation status.",
			},
			[]string{"status"},
		),
		searches: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "oblog_search_queries_total",
				Help: "Number of full-text search queries.",
			},
		),
	}

	m.registry.MustRegister(
		m.requests,
		m.duration,
		m.entriesCreated,
		m.commentsCreated,
		m.searches,
		prometheus.NewGoCollector(),
		prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}),
	)
	return m
}

// WatchCache exports the hit and miss counts reported by stats, labelled
// with the cache backend name.
func (m *Metrics) WatchCache(backend string, stats func() (hits, misses int64)) {
	if m == nil {
		return
	}
	labels := prometheus.Labels{"backend": backend}
	m.registry.MustRegister(
		prometheus.NewCounterFunc(prometheus.CounterOpts{
			Name:        "oblog_cache_hits_total",
			Help:        "Cache lookups that found a value.",
			ConstLabels: labels,
		}, func() float64 {
			hits, _ := stats()
			return float64(hits)
		}),
		prometheus.NewCounterFunc(prometheus.CounterOpts{
			Name:        "oblog_cache_misses_total",
			Help:        "Cache lookups that found nothing.",
			ConstLabels: labels,
		}, func() float64 {
			_, misses := stats()
			return float64(misses)
		}),
	)
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// ObserveRequest records one finished HTTP request.
func (m *Metrics) ObserveRequest(method, route string, status int, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.requests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.duration.WithLabelValues(route).Observe(elapsed.Seconds())
}

// EntryCreated counts a new entry.
func (m *Metrics) EntryCreated() {
	if m == nil {
		return
	}
	m.entriesCreated.Inc()
}

// CommentCreated counts a new comment with its moderation status.
func (m *Metrics) CommentCreated(status string) {
	if m == nil {
		return
	}
	m.commentsCreated.WithLabelValues(status).Inc()
}

// SearchPerformed counts a search query.
func (m *Metrics) SearchPerformed() {
	if m == nil {
		return
	}
	m.searches.Inc()
}
