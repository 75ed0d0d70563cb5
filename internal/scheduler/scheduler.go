// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package scheduler runs periodic maintenance jobs on a cron schedule.
package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/olegiv/oblog-go/internal/model"
)

// DefaultJobTimeout bounds a single job run.
const DefaultJobTimeout = 5 * time.Minute

// JobFunc is the body of a scheduled job.
type JobFunc func(ctx context.Context) error

// Reindexer rebuilds the entry search index.
type Reindexer interface {
	Reindex(ctx context.Context) (int, error)
}

// EventLogger records job outcomes in the event log.
type EventLogger interface {
	LogEvent(ctx context.Context, level, category, message string, metadata map[string]any) error
}

// Scheduler handles scheduled jobs like rebuilding the search index.
type Scheduler struct {
	cron    *cron.Cron
	logger  *slog.Logger
	timeout time.Duration
	jobs    map[string]cron.EntryID
}

// New creates a new scheduler instance.
func New(logger *slog.Logger) *Scheduler {
	return &Scheduler{
		cron:    cron.New(),
		logger:  logger,
		timeout: DefaultJobTimeout,
		jobs:    make(map[string]cron.EntryID),
	}
}

// AddJob registers fn under name with a standard cron spec or a
// descriptor such as "@every 15m".
func (s *Scheduler) AddJob(name, spec string, fn JobFunc) error {
	if _, exists := s.jobs[name]; exists {
		return fmt.Errorf("job %q already registered", name)
	}
	id, err := s.cron.AddFunc(spec, func() { s.run(name, fn) })
	if err != nil {
		return fmt.Errorf("scheduling %s: %w", name, err)
	}
	s.jobs[name] = id
	return nil
}

// NextRun reports when the named job runs next. It is zero until the
// scheduler has started.
func (s *Scheduler) NextRun(name string) time.Time {
	id, ok := s.jobs[name]
	if !ok {
		return time.Time{}
	}
	return s.cron.Entry(id).Next
}

// Start begins running registered jobs.
func (s *Scheduler) Start() {
	s.cron.Start()
	s.logger.Info("scheduler started", "jobs", len(s.jobs))
}

// Stop gracefully stops the scheduler, waiting for running jobs.
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	s.logger.Info("scheduler stopped")
}

func (s *Scheduler) run(name string, fn JobFunc) {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	start := time.Now()
	if err := fn(ctx); err != nil {
		s.logger.Error("scheduled job failed", "job", name, "error", err)
		return
	}
	s.logger.Debug("scheduled job finished", "job", name, "duration", time.Since(start))
}

// ReindexJob rebuilds the search index and records the result. events
// may be nil.
func ReindexJob(search Reindexer, events EventLogger) JobFunc {
	return func(ctx context.Context) error {
		n, err := search.Reindex(ctx)
		if err != nil {
			return fmt.Errorf("reindexing entries: %w", err)
		}
		if events != nil {
			_ = events.LogEvent(ctx, model.EventLevelInfo, model.EventCategorySearch, "Search index rebuilt", map[string]any{
				"entries": n,
			})
		}
		return nil
	}
}
