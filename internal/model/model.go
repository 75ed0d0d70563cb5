// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package model defines domain constants and value types shared by the
// store, service and handler layers: blog defaults, lifecycle states,
// comment moderation status, permissions and API keys.
package model
