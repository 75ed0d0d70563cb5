// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package model

// Blog permission codenames.
const (
	PermAddBlog    = "blog.add_blog"
	PermUpdateBlog = "blog.update_blog"
	PermViewBlog   = "blog.view_blog"
)

// MsgPermissionDenied is flashed when an authenticated user lacks a permission.
const MsgPermissionDenied = "You do not have the permission required to perform the requested operation."
