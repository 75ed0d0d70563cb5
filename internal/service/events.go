// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/olegiv/oblog-go/internal/model"
	"github.com/olegiv/oblog-go/internal/store"
)

// EventRetention is how long audit events are kept.
const EventRetention = 90 * 24 * time.Hour

// EventService records audit events: sign-ins, lockouts, reindex runs and
// warnings forwarded by the log handler.
type EventService struct {
	queries *store.Queries
}

// NewEventService creates a new EventService.
func NewEventService(db *sql.DB) *EventService {
	return &EventService{queries: store.New(db)}
}

// LogEvent stores an event. Metadata that cannot be encoded is recorded
// as an empty object.
func (s *EventService) LogEvent(ctx context.Context, level, category, message string, metadata map[string]any) error {
	encoded := "{}"
	if len(metadata) > 0 {
		if b, err := json.Marshal(metadata); err == nil {
			encoded = string(b)
		} else {
			slog.Warn("event metadata not encodable", "message", message, "error", err)
		}
	}

	_, err := s.queries.CreateEvent(ctx, store.CreateEventParams{
		Level:     level,
		Category:  category,
		Message:   message,
		Metadata:  encoded,
		CreatedAt: now(),
	})
	if err != nil {
		return fmt.Errorf("recording event %q: %w", message, err)
	}
	return nil
}

// LogAuthEvent records a sign-in related event.
func (s *EventService) LogAuthEvent(ctx context.Context, level, message string, metadata map[string]any) error {
	return s.LogEvent(ctx, level, model.EventCategoryAuth, message, metadata)
}

// Recent returns up to limit events, newest first.
func (s *EventService) Recent(ctx context.Context, limit int) ([]store.Event, error) {
	return s.queries.ListRecentEvents(ctx, int64(limit))
}

// Prune deletes events older than retention and returns how many went.
func (s *EventService) Prune(ctx context.Context, retention time.Duration) (int64, error) {
	n, err := s.queries.DeleteEventsBefore(ctx, now().Add(-retention))
	if err != nil {
		return 0, fmt.Errorf("pruning events: %w", err)
	}
	return n, nil
}
