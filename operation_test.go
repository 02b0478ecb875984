// Copyright 2025 The Rivaas Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

//go:build !integration

package evolve

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rivaas.dev/evolve/schema"
)

type testUserModel struct {
	Name string `json:"name"`
}

func TestOperation_FluentConfiguration(t *testing.T) {
	t.Parallel()

	op := NewRouter().POST("/users", createUserForTest).
		SetName("createUser").
		SetSummary("Create a user").
		SetDescription("Creates a user from the request body.").
		SetStatus(http.StatusCreated).
		SetDeprecated(true).
		SetTags("users", "write").
		SetRequest(schema.Of[testUserModel]()).
		SetResponse(schema.Of[testUserModel]())

	assert.Equal(t, "createUser", op.Name())
	assert.Equal(t, "Create a user", op.Summary())
	assert.Equal(t, "Creates a user from the request body.", op.Description())
	assert.Equal(t, http.StatusCreated, op.Status())
	assert.True(t, op.Deprecated())
	assert.Equal(t, []string{"users", "write"}, op.Tags())
	assert.Equal(t, schema.Of[testUserModel](), op.Request())
	assert.Equal(t, schema.Of[testUserModel](), op.Response())
}

func TestOperation_DeletedMarker(t *testing.T) {
	t.Parallel()

	op := testOp("/users", []string{"GET"}, "listUsers")
	assert.False(t, op.Deleted())

	op.markDeleted()
	assert.True(t, op.Deleted())
	assert.Empty(t, op.Tags())

	// Replacing tags must not lose the marker.
	op.SetTags("users")
	assert.True(t, op.Deleted())
	assert.Equal(t, []string{"users"}, op.Tags())

	// Marking again is a no-op, not a second marker.
	op.markDeleted()
	op.unmarkDeleted()
	assert.False(t, op.Deleted())
	assert.Equal(t, []string{"users"}, op.Tags())
}

func TestOperation_Callback(t *testing.T) {
	t.Parallel()

	op := testOp("/subscriptions", []string{"POST"}, "subscribe")
	cb := op.Callback("post", "{$callback_url}/events")

	assert.Equal(t, []string{"POST"}, cb.Methods())
	assert.Equal(t, "{$callback_url}/events", cb.Path())
	require.Len(t, op.Callbacks(), 1)
	assert.Same(t, cb, op.Callbacks()[0])
}

func TestOperation_Clone(t *testing.T) {
	t.Parallel()

	op := testOp("/users", []string{"GET", "HEAD"}, "listUsers")
	op.SetSummary("List users").
		SetTags("users").
		SetResponse(schema.Of[testUserModel]())
	op.Callback("POST", "{$callback_url}/events")

	dup := op.clone()

	assert.Equal(t, op.Path(), dup.Path())
	assert.Equal(t, op.Methods(), dup.Methods())
	assert.Equal(t, op.Summary(), dup.Summary())
	// Annotations are shared between versions until rewriting replaces them.
	assert.Equal(t, op.Response(), dup.Response())

	// The copy is independent of the original.
	dup.SetSummary("changed").SetTags("changed")
	dup.markDeleted()
	assert.Equal(t, "List users", op.Summary())
	assert.Equal(t, []string{"users"}, op.Tags())
	assert.False(t, op.Deleted())

	require.Len(t, dup.Callbacks(), 1)
	assert.NotSame(t, op.Callbacks()[0], dup.Callbacks()[0])
	assert.Equal(t, op.Callbacks()[0].Path(), dup.Callbacks()[0].Path())
}
