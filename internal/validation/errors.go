// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package validation holds the field, form and coded validation rules
// applied to blogs, entries, comments and user accounts before they are
// persisted.
package validation

import (
	"fmt"
	"sort"
	"strings"
)

// Error codes returned to API clients.
const (
	CodeInvalidPassword    = "invalid_password"
	CodeMissingKey         = "missing_key"
	CodeDuplicateException = "duplicate_exception"
)

// FieldError reports an invalid value for a single named field.
type FieldError struct {
	Field   string
	Message string
}

func (e *FieldError) Error() string {
	return e.Field + ": " + e.Message
}

// FormError is a non-field error spanning several fields.
type FormError struct {
	Message string
}

func (e *FormError) Error() string {
	return e.Message
}

// CodedError carries a machine-readable code alongside its message.
type CodedError struct {
	Code    string
	Message string
}

func (e *CodedError) Error() string {
	return e.Code + ": " + e.Message
}

// Errors maps field names to messages. The empty key holds form-level errors.
type Errors map[string]string

// NonFieldKey is the Errors key used for form-level messages.
const NonFieldKey = ""

func (e Errors) Error() string {
	keys := make([]string, 0, len(e))
	for k := range e {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		if k == NonFieldKey {
			parts = append(parts, e[k])
			continue
		}
		parts = append(parts, fmt.Sprintf("%s: %s", k, e[k]))
	}
	return strings.Join(parts, "; ")
}

// Add records msg for field unless the field already has an error.
func (e Errors) Add(field, msg string) {
	if _, ok := e[field]; !ok {
		e[field] = msg
	}
}

// Merge folds a FieldError or FormError into e. Other errors are ignored
// and reported back as false.
func (e Errors) Merge(err error) bool {
	switch v := err.(type) {
	case nil:
		return true
	case *FieldError:
		e.Add(v.Field, v.Message)
	case *FormError:
		e.Add(NonFieldKey, v.Message)
	case Errors:
		for k, m := range v {
			e.Add(k, m)
		}
	default:
		return false
	}
	return true
}

// Err returns e as an error, or nil when it is empty.
func (e Errors) Err() error {
	if len(e) == 0 {
		return nil
	}
	return e
}
