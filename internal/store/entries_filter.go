// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package store

import (
	"context"
	"database/sql"
	"strings"
	"time"
)

// Date comparison operators accepted by EntryFilter.
const (
	OpExact = "exact"
	OpLt    = "lt"
	OpLte   = "lte"
	OpGt    = "gt"
	OpGte   = "gte"
)

var dateOperators = map[string]string{
	OpExact: "=",
	OpLt:    "<",
	OpLte:   "<=",
	OpGt:    ">",
	OpGte:   ">=",
}

// DateCondition compares a date column against Value with Op.
type DateCondition struct {
	Op    string
	Value time.Time
}

// EntryFilter narrows ListEntries. Zero values disable a filter.
type EntryFilter struct {
	CreatedBy     sql.NullInt64
	PublishedDate []DateCondition
	Limit         int64
	Offset        int64
}

// where renders the filter as a WHERE clause.
// The conditions are composed at runtime, so this stays hand-written SQL.
func (f EntryFilter) where() (string, []any) {
	var conds []string
	var args []any

	if f.CreatedBy.Valid {
		conds = append(conds, "created_by = ?")
		args = append(args, f.CreatedBy.Int64)
	}
	for _, c := range f.PublishedDate {
		op, ok := dateOperators[c.Op]
		if !ok {
			continue
		}
		conds = append(conds, "published_date "+op+" ?")
		args = append(args, c.Value)
	}

	if len(conds) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

// ListEntries returns entries in the "all" mode, newest first, plus the total matching count.
func (q *Queries) ListEntries(ctx context.Context, f EntryFilter) ([]Entry, int64, error) {
	where, args := f.where()

	var total int64
	if err := q.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM entries"+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	limit := f.Limit
	if limit <= 0 {
		limit = -1
	}
	query := "SELECT " + entryColumns + " FROM entries" + where + " ORDER BY created_date DESC, id DESC LIMIT ? OFFSET ?"
	rows, err := q.db.QueryContext(ctx, query, append(args, limit, f.Offset)...)
	if err != nil {
		return nil, 0, err
	}
	entries, err := scanEntries(rows)
	if err != nil {
		return nil, 0, err
	}
	return entries, total, nil
}

// GetEntriesByIDs loads the given entries keyed by id. Missing ids are absent from the map.
func (q *Queries) GetEntriesByIDs(ctx context.Context, ids []int64) (map[int64]Entry, error) {
	result := make(map[int64]Entry, len(ids))
	if len(ids) == 0 {
		return result, nil
	}

	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(ids)), ",")
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}

	rows, err := q.db.QueryContext(ctx, "SELECT "+entryColumns+" FROM entries WHERE id IN ("+placeholders+")", args...)
	if err != nil {
		return nil, err
	}
	entries, err := scanEntries(rows)
	if err != nil {
		return nil, err
	}
	for _, e := range entries {
		result[e.ID] = e
	}
	return result, nil
}
