// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package model

// Profile photo formats accepted for upload.
const (
	MimeTypeJPEG = "image/jpeg"
	MimeTypePNG  = "image/png"
	MimeTypeGIF  = "image/gif"
	MimeTypeWebP = "image/webp"
)

// MaxPhotoSize bounds profile photo uploads.
const MaxPhotoSize = 5 << 20

// Thumbnail describes a resized rendition of an uploaded photo.
type Thumbnail struct {
	Width, Height int
	// Quality is the JPEG quality, 1 to 100.
	Quality int
	// Crop fills the box and trims the overflow instead of fitting inside it.
	Crop bool
}

// PhotoThumbnail is the square avatar rendered next to comments and profiles.
var PhotoThumbnail = Thumbnail{Width: 200, Height: 200, Quality: 85, Crop: true}
