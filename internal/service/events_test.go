// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/olegiv/oblog-go/internal/model"
)

func TestEventService_LogAndRecent(t *testing.T) {
	db, _ := setupDB(t)
	svc := NewEventService(db)
	ctx := t.Context()

	start := time.Date(2016, 5, 1, 10, 0, 0, 0, time.UTC)
	freezeTime(t, start)
	require.NoError(t, svc.LogAuthEvent(ctx, model.EventLevelInfo, "User logged in", map[string]any{"username": "alice"}))
	freezeTime(t, start.Add(time.Minute))
	require.NoError(t, svc.LogEvent(ctx, model.EventLevelInfo, model.EventCategorySearch, "Search index rebuilt", nil))

	events, err := svc.Recent(ctx, 10)
	require.NoError(t, err)
	require.Len(t, events, 2)

	assert.Equal(t, "Search index rebuilt", events[0].Message)
	assert.Equal(t, "{}", events[0].Metadata)
	assert.Equal(t, model.EventCategoryAuth, events[1].Category)
	assert.JSONEq(t, `{"username":"alice"}`, events[1].Metadata)

	events, err = svc.Recent(ctx, 1)
	require.NoError(t, err)
	assert.Len(t, events, 1)
}

func TestEventService_Prune(t *testing.T) {
	db, _ := setupDB(t)
	svc := NewEventService(db)
	ctx := t.Context()

	start := time.Date(2016, 1, 1, 0, 0, 0, 0, time.UTC)
	freezeTime(t, start)
	require.NoError(t, svc.LogAuthEvent(ctx, model.EventLevelWarning, "Login failed: invalid credentials", nil))
	freezeTime(t, start.Add(80*24*time.Hour))
	require.NoError(t, svc.LogAuthEvent(ctx, model.EventLevelInfo, "User logged in", nil))

	freezeTime(t, start.Add(EventRetention+time.Hour))
	n, err := svc.Prune(ctx, EventRetention)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	events, err := svc.Recent(ctx, 10)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, "User logged in", events[0].Message)
}
