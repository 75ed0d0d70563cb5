// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package model

import (
	"crypto/hmac"
	"crypto/sha1" //nolint:gosec // key derivation only; the stored form is SHA-256
	"crypto/sha256"
	"encoding/hex"

	"github.com/google/uuid"
)

// APIKeyPrefixLength is how many leading characters of a key are stored
// in clear, to find the row before comparing hashes.
const APIKeyPrefixLength = 8

// GenerateAPIKey returns a fresh 40 character hex key for the
// "Authorization: ApiKey user:key" scheme, derived from a random UUID,
// along with its stored prefix. The raw key is shown to the user once.
func GenerateAPIKey() (rawKey, prefix string, err error) {
	id, err := uuid.NewRandom()
	if err != nil {
		return "", "", err
	}
	mac := hmac.New(sha1.New, id[:])
	rawKey = hex.EncodeToString(mac.Sum(nil))
	return rawKey, rawKey[:APIKeyPrefixLength], nil
}

// HashAPIKey is the form a key is stored in.
func HashAPIKey(key string) string {
	sum := sha256.Sum256([]byte(key))
	return hex.EncodeToString(sum[:])
}
