// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package storage

import (
	"context"
	"os"
	"path/filepath"
	"regexp"
	"testing"
	"time"
)

func TestPhotoKey(t *testing.T) {
	at := time.Date(2024, 3, 9, 23, 0, 0, 0, time.UTC)
	key := PhotoKey(at, ".jpg")

	re := regexp.MustCompile(`^users/2024/03/09/[0-9a-f-]{36}\.jpg$`)
	if !re.MatchString(key) {
		t.Errorf("PhotoKey = %q, does not match %s", key, re)
	}
	if PhotoKey(at, ".jpg") == key {
		t.Error("PhotoKey returned the same key twice")
	}
}

func TestThumbnailKey(t *testing.T) {
	if got := ThumbnailKey("users/2024/03/09/abc.png"); got != "users/2024/03/09/abc_thumb.png" {
		t.Errorf("ThumbnailKey = %q", got)
	}
}

func TestLocal_PutDelete(t *testing.T) {
	dir := t.TempDir()
	l := NewLocal(dir, "/media/")
	ctx := context.Background()

	key := "users/2024/03/09/photo.jpg"
	if err := l.Put(ctx, key, "image/jpeg", []byte("data")); err != nil {
		t.Fatalf("Put: %v", err)
	}

	got, err := os.ReadFile(filepath.Join(dir, "users", "2024", "03", "09", "photo.jpg"))
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if string(got) != "data" {
		t.Errorf("content = %q, want %q", got, "data")
	}

	if u := l.URL(key); u != "/media/users/2024/03/09/photo.jpg" {
		t.Errorf("URL = %q", u)
	}

	if err := l.Delete(ctx, key); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if err := l.Delete(ctx, key); err != nil {
		t.Errorf("second Delete: %v", err)
	}
}

func TestLocal_RejectsTraversal(t *testing.T) {
	l := NewLocal(t.TempDir(), "/media/")

	if err := l.Put(context.Background(), "../../etc/passwd", "text/plain", []byte("x")); err == nil {
		t.Error("expected traversal error")
	}
}

func TestNewS3_PublicURL(t *testing.T) {
	s, err := NewS3(context.Background(), S3Config{
		Endpoint:  "http://localhost:9000",
		Region:    "us-east-1",
		Bucket:    "photos",
		AccessKey: "key",
		SecretKey: "secret",
	})
	if err != nil {
		t.Fatalf("NewS3: %v", err)
	}

	if got := s.URL("users/a.jpg"); got != "http://localhost:9000/photos/users/a.jpg" {
		t.Errorf("URL = %q", got)
	}
}
