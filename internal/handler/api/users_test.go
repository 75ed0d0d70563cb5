// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package api

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/olegiv/oblog-go/internal/testutil"
)

type userList struct {
	Meta    Meta           `json:"meta"`
	Objects []UserResponse `json:"objects"`
}

func TestListUsers(t *testing.T) {
	a := newTestAPI(t, "")
	for _, name := range []string{"carol", "alice", "bob"} {
		testutil.CreateUser(t, a.q, name, testutil.UserOpts{})
	}

	w := a.get(t, "/users/?limit=2", nil)
	assertStatusCode(t, w, http.StatusOK)
	list := decode[userList](t, w)
	require.Len(t, list.Objects, 2)
	assert.Equal(t, "alice", list.Objects[0].Username)
	assert.Equal(t, "/api/v1/users/alice/", list.Objects[0].ResourceURI)
	assert.Equal(t, int64(3), list.Meta.TotalCount)
	require.NotNil(t, list.Meta.Next)
	assert.Nil(t, list.Meta.Previous)
	assert.NotContains(t, w.Body.String(), "email")

	w = a.get(t, "/users/?username=bob", nil)
	list = decode[userList](t, w)
	require.Len(t, list.Objects, 1)
	assert.Equal(t, "bob", list.Objects[0].Username)
}

func TestGetUserByUsername(t *testing.T) {
	a := newTestAPI(t, "")
	alice := testutil.CreateUser(t, a.q, "alice", testutil.UserOpts{})

	w := a.get(t, "/users/alice/", nil)
	assertStatusCode(t, w, http.StatusOK)
	got := decode[UserResponse](t, w)
	assert.Equal(t, alice.ID, got.ID)
	assert.Equal(t, "Test", got.FirstName)
	assert.Contains(t, got.ProfileImageURL, "gravatar.com")

	w = a.get(t, "/users/nobody/", nil)
	assertStatusCode(t, w, http.StatusNotFound)
	assertErrorResponse(t, w, CodeNotFound, "")
}

func TestUsersIsReadOnly(t *testing.T) {
	a := newTestAPI(t, "")
	testutil.CreateUser(t, a.q, "alice", testutil.UserOpts{})

	w := a.do(t, http.MethodDelete, "/users/alice/", "", nil)
	assertStatusCode(t, w, http.StatusMethodNotAllowed)
}
