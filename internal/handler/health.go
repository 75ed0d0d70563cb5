// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"runtime"
	"syscall"
	"time"

	"github.com/olegiv/oblog-go/internal/middleware"
)

// Health check states.
const (
	healthOK          = "ok"
	healthDegraded    = "degraded"
	healthUnavailable = "unavailable"
)

// HealthHandler handles health check requests.
type HealthHandler struct {
	db        *sql.DB
	mediaDir  string
	startTime time.Time
}

// NewHealthHandler creates a new health handler. mediaDir is checked for
// free space when photos are stored locally; pass "" otherwise.
func NewHealthHandler(db *sql.DB, mediaDir string) *HealthHandler {
	return &HealthHandler{
		db:        db,
		mediaDir:  mediaDir,
		startTime: time.Now(),
	}
}

// HealthStatus is the health response. Only staff users see the details.
type HealthStatus struct {
	Status string           `json:"status"`
	Uptime string           `json:"uptime,omitempty"`
	Checks map[string]Check `json:"checks,omitempty"`
	System *SystemInfo      `json:"system,omitempty"`
}

// Check represents a single health check result.
type Check struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
	Latency string `json:"latency,omitempty"`
}

// SystemInfo contains system-level information.
type SystemInfo struct {
	GoVersion    string `json:"go_version"`
	NumGoroutine int    `json:"num_goroutines"`
	NumCPU       int    `json:"num_cpus"`
	MemAlloc     string `json:"mem_alloc"`
	MemSys       string `json:"mem_sys"`
}

// Health handles GET /health. The database must answer a ping for the
// service to report "ok"; a full media disk only degrades it.
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	dbCheck := h.checkDatabase(r.Context())
	diskCheck := h.checkDiskSpace()

	status := HealthStatus{Status: healthOK}
	code := http.StatusOK
	switch {
	case dbCheck.Status != healthOK:
		status.Status = healthUnavailable
		code = http.StatusServiceUnavailable
	case diskCheck.Status != healthOK:
		status.Status = healthDegraded
	}

	if user := middleware.GetUser(r); user != nil && user.IsStaff {
		status.Uptime = time.Since(h.startTime).Round(time.Second).String()
		status.Checks = map[string]Check{
			"database": dbCheck,
			"disk":     diskCheck,
		}
		if r.URL.Query().Get("verbose") == "true" {
			status.System = systemInfo()
		}
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(status)
}

// checkDatabase verifies database connectivity.
func (h *HealthHandler) checkDatabase(ctx context.Context) Check {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	start := time.Now()
	err := h.db.PingContext(ctx)
	latency := time.Since(start)

	if err != nil {
		return Check{
			Status:  healthUnavailable,
			Message: err.Error(),
			Latency: latency.String(),
		}
	}
	return Check{
		Status:  healthOK,
		Message: "Connected",
		Latency: latency.String(),
	}
}

// checkDiskSpace checks available disk space in the media directory.
func (h *HealthHandler) checkDiskSpace() Check {
	if h.mediaDir == "" {
		return Check{Status: healthOK, Message: "Remote storage"}
	}
	if _, err := os.Stat(h.mediaDir); os.IsNotExist(err) {
		return Check{Status: healthOK, Message: "Media directory does not exist yet"}
	}

	var stat syscall.Statfs_t
	if err := syscall.Statfs(h.mediaDir, &stat); err != nil {
		return Check{
			Status:  healthDegraded,
			Message: "Failed to check disk space: " + err.Error(),
		}
	}

	availableBytes := stat.Bavail * uint64(stat.Bsize)
	available := formatBytes(availableBytes)

	const minSpace = 100 * 1024 * 1024
	if availableBytes < minSpace {
		return Check{
			Status:  healthDegraded,
			Message: "Low disk space: " + available + " available",
		}
	}
	return Check{
		Status:  healthOK,
		Message: available + " available",
	}
}

func systemInfo() *SystemInfo {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)

	return &SystemInfo{
		GoVersion:    runtime.Version(),
		NumGoroutine: runtime.NumGoroutine(),
		NumCPU:       runtime.NumCPU(),
		MemAlloc:     formatBytes(m.Alloc),
		MemSys:       formatBytes(m.Sys),
	}
}

// formatBytes converts bytes to a human-readable string.
func formatBytes(bytes uint64) string {
	const (
		KB = 1024
		MB = KB * 1024
		GB = MB * 1024
	)

	switch {
	case bytes >= GB:
		return fmt.Sprintf("%.2f GB", float64(bytes)/GB)
	case bytes >= MB:
		return fmt.Sprintf("%.2f MB", float64(bytes)/MB)
	case bytes >= KB:
		return fmt.Sprintf("%.2f KB", float64(bytes)/KB)
	default:
		return fmt.Sprintf("%d B", bytes)
	}
}
