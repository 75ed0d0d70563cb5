// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package api

import (
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/olegiv/oblog-go/internal/store"
)

// Paging limits for list endpoints.
const (
	DefaultLimit = 20
	MaxLimit     = 100
)

// Meta describes one page of a list response.
type Meta struct {
	Limit      int     `json:"limit"`
	Offset     int     `json:"offset"`
	TotalCount int64   `json:"total_count"`
	Next       *string `json:"next"`
	Previous   *string `json:"previous"`
}

// ListResponse is the standard list envelope.
type ListResponse struct {
	Meta    Meta `json:"meta"`
	Objects any  `json:"objects"`
}

// PageMeta is Meta plus the 1-based page number.
type PageMeta struct {
	Meta
	PageNumber int `json:"page_number"`
}

// PaginatedResponse is the entry list envelope, which reports its meta
// under "pagination".
type PaginatedResponse struct {
	Pagination PageMeta `json:"pagination"`
	Objects    any      `json:"objects"`
}

// ObjectsResponse is the bare envelope of search results.
type ObjectsResponse struct {
	Objects any `json:"objects"`
}

// parseLimitOffset reads limit and offset from the query. limit=0 means
// the maximum.
func parseLimitOffset(r *http.Request) (limit, offset int, err error) {
	q := r.URL.Query()

	limit = DefaultLimit
	if v := q.Get("limit"); v != "" {
		limit, err = strconv.Atoi(v)
		if err != nil || limit < 0 {
			return 0, 0, &paramError{name: "limit", value: v}
		}
	}
	if limit == 0 || limit > MaxLimit {
		limit = MaxLimit
	}

	if v := q.Get("offset"); v != "" {
		offset, err = strconv.Atoi(v)
		if err != nil || offset < 0 {
			return 0, 0, &paramError{name: "offset", value: v}
		}
	}
	return limit, offset, nil
}

// buildMeta computes the page meta with next/previous links that keep the
// request's other query parameters.
func buildMeta(r *http.Request, limit, offset int, total int64) Meta {
	m := Meta{Limit: limit, Offset: offset, TotalCount: total}

	link := func(off int) *string {
		q := r.URL.Query()
		q.Set("limit", strconv.Itoa(limit))
		q.Set("offset", strconv.Itoa(off))
		s := r.URL.Path + "?" + q.Encode()
		return &s
	}

	if int64(offset+limit) < total {
		m.Next = link(offset + limit)
	}
	if offset > 0 {
		m.Previous = link(max(offset-limit, 0))
	}
	return m
}

func buildPageMeta(r *http.Request, limit, offset int, total int64) PageMeta {
	return PageMeta{Meta: buildMeta(r, limit, offset, total), PageNumber: offset/limit + 1}
}

// paramError is a malformed paging parameter.
type paramError struct {
	name  string
	value string
}

func (e *paramError) Error() string {
	return fmt.Sprintf("Invalid %s '%s' provided. Please provide a positive integer.", e.name, e.value)
}

// filterError is a malformed filter query parameter.
type filterError struct {
	param string
	value string
}

func (e *filterError) Error() string {
	return fmt.Sprintf("Invalid value %q for filter %q.", e.value, e.param)
}

// dateLayouts are the accepted date filter formats.
var dateLayouts = []string{time.RFC3339, "2006-01-02T15:04:05", "2006-01-02"}

func parseFilterDate(s string) (time.Time, bool) {
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), true
		}
	}
	return time.Time{}, false
}

// parseDateFilters reads field, field__<op> and, when allowRange is set,
// field__range=a,b from q. Unknown operators are ignored.
func parseDateFilters(q url.Values, field string, allowRange bool) ([]store.DateCondition, error) {
	var conds []store.DateCondition

	for param, values := range q {
		name, op, found := strings.Cut(param, "__")
		if name != field || len(values) == 0 {
			continue
		}
		if !found {
			op = store.OpExact
		}
		value := values[0]

		if op == "range" {
			if !allowRange {
				continue
			}
			lo, hi, ok := strings.Cut(value, ",")
			from, ok1 := parseFilterDate(strings.TrimSpace(lo))
			to, ok2 := parseFilterDate(strings.TrimSpace(hi))
			if !ok || !ok1 || !ok2 {
				return nil, &filterError{param: param, value: value}
			}
			conds = append(conds,
				store.DateCondition{Op: store.OpGte, Value: from},
				store.DateCondition{Op: store.OpLte, Value: to},
			)
			continue
		}

		switch op {
		case store.OpExact, store.OpLt, store.OpLte, store.OpGt, store.OpGte:
		default:
			continue
		}
		t, ok := parseFilterDate(value)
		if !ok {
			return nil, &filterError{param: param, value: value}
		}
		conds = append(conds, store.DateCondition{Op: op, Value: t})
	}
	return conds, nil
}

// matchDate reports whether t satisfies every condition.
func matchDate(t time.Time, conds []store.DateCondition) bool {
	for _, c := range conds {
		var ok bool
		switch c.Op {
		case store.OpExact:
			ok = t.Equal(c.Value)
		case store.OpLt:
			ok = t.Before(c.Value)
		case store.OpLte:
			ok = !t.After(c.Value)
		case store.OpGt:
			ok = t.After(c.Value)
		case store.OpGte:
			ok = !t.Before(c.Value)
		}
		if !ok {
			return false
		}
	}
	return true
}
