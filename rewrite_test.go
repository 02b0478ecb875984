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
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rivaas.dev/evolve/schema"
)

type (
	profileLatest   struct{ Bio string }
	profileV2021    struct{ Biography string }
	invoiceLatest   struct{ Total int }
	unversionedNote struct{ Text string }
)

func newRewriteRegistry(t *testing.T) *schema.Registry {
	t.Helper()
	reg := schema.MustNewRegistry("example.com/api/schemas/latest")
	require.NoError(t, schema.RegisterAs[profileLatest](reg, reg.TemplatePackage(), "Profile"))
	require.NoError(t, schema.RegisterAs[profileV2021](reg, reg.VersionPackage("v2021_01_01"), "Profile"))
	require.NoError(t, schema.RegisterAs[invoiceLatest](reg, reg.TemplatePackage(), "Invoice"))
	return reg
}

func TestRewriter_ResolvesAnnotations(t *testing.T) {
	t.Parallel()

	reg := newRewriteRegistry(t)
	target := reg.VersionPackage("v2021_01_01")

	tests := []struct {
		name       string
		annotation any
		want       any
	}{
		{
			name:       "registered type resolves to the version definition",
			annotation: schema.Of[profileLatest](),
			want:       schema.Of[profileV2021](),
		},
		{
			name:       "missing version definition falls back to the template",
			annotation: schema.Of[invoiceLatest](),
			want:       schema.Of[invoiceLatest](),
		},
		{
			name:       "unregistered types pass through",
			annotation: schema.Of[unversionedNote](),
			want:       schema.Of[unversionedNote](),
		},
		{
			name:       "slice element is rewritten",
			annotation: schema.Of[[]profileLatest](),
			want:       schema.Of[[]profileV2021](),
		},
		{
			name:       "pointer element is rewritten",
			annotation: schema.Of[*profileLatest](),
			want:       schema.Of[*profileV2021](),
		},
		{
			name:       "map value is rewritten",
			annotation: schema.Of[map[string]profileLatest](),
			want:       schema.Of[map[string]profileV2021](),
		},
		{
			name:       "array element is rewritten",
			annotation: schema.Of[[3]profileLatest](),
			want:       schema.Of[[3]profileV2021](),
		},
		{
			name:       "plain values pass through",
			annotation: 42,
			want:       42,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			rw := newRewriter(reg)
			got, err := rw.rewrite(tt.annotation, target, false)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestRewriter_RebuildsContainers(t *testing.T) {
	t.Parallel()

	reg := newRewriteRegistry(t)
	target := reg.VersionPackage("v2021_01_01")

	t.Run("map annotation", func(t *testing.T) {
		t.Parallel()

		got, err := newRewriter(reg).rewrite(map[string]any{"profile": schema.Of[profileLatest]()}, target, false)
		require.NoError(t, err)
		assert.Equal(t, map[string]any{"profile": schema.Of[profileV2021]()}, got)
	})

	t.Run("slice annotation", func(t *testing.T) {
		t.Parallel()

		got, err := newRewriter(reg).rewrite([]any{schema.Of[profileLatest](), "unrelated"}, target, false)
		require.NoError(t, err)
		assert.Equal(t, []any{schema.Of[profileV2021](), "unrelated"}, got)
	})

	t.Run("union members", func(t *testing.T) {
		t.Parallel()

		got, err := newRewriter(reg).rewrite(schema.OneOf(schema.Of[profileLatest](), schema.Of[invoiceLatest]()), target, false)
		require.NoError(t, err)
		union, ok := got.(*schema.Union)
		require.True(t, ok)
		assert.Equal(t, []any{schema.Of[profileV2021](), schema.Of[invoiceLatest]()}, union.Members())
	})
}

func TestRewriter_SharedAnnotationsKeepIdentity(t *testing.T) {
	t.Parallel()

	reg := newRewriteRegistry(t)
	target := reg.VersionPackage("v2021_01_01")

	provider := NewProvider("profile", func(context.Context, *Request) (any, error) {
		return nil, nil
	}, NewParam("id", InPath, schema.Of[profileLatest]()))
	dep := Depends(provider)

	opA := testOp("/profiles/:id", []string{"GET"}, "getProfile")
	opA.AddDependency(dep)
	opB := testOp("/profiles/:id/avatar", []string{"GET"}, "getAvatar")
	opB.AddDependency(dep)

	rw := newRewriter(reg)
	require.NoError(t, rw.rewriteOperations([]*Operation{opA, opB}, target, false))

	// One shared dependency must stay one shared dependency after
	// rewriting, so caching by provider still works per version.
	assert.Same(t, opA.Dependencies()[0], opB.Dependencies()[0])
	assert.NotSame(t, dep, opA.Dependencies()[0])

	rebuilt := opA.Dependencies()[0]
	assert.Equal(t, "profile", rebuilt.Provider().Name())
	assert.NotNil(t, rebuilt.Provider().Func())
	require.Len(t, rebuilt.Provider().Params(), 1)
	assert.Equal(t, schema.Of[profileV2021](), rebuilt.Provider().Params()[0].Annotation())

	// A fresh run memoizes independently.
	other := newRewriter(reg)
	again, err := other.rewrite(dep, target, false)
	require.NoError(t, err)
	assert.NotSame(t, rebuilt, again)
}

func TestRewriter_RewritesOperationSurfaces(t *testing.T) {
	t.Parallel()

	reg := newRewriteRegistry(t)
	target := reg.VersionPackage("v2021_01_01")

	op := testOp("/profiles", []string{"POST"}, "createProfile")
	op.SetRequest(schema.Of[profileLatest]()).
		SetResponse(schema.Of[[]profileLatest]()).
		AddParam(NewParam("expand", InQuery, schema.Of[profileLatest]()).WithDefault("none"))
	op.Callback("POST", "{$callback_url}/profile-events").SetResponse(schema.Of[profileLatest]())

	rw := newRewriter(reg)
	require.NoError(t, rw.rewriteOperations([]*Operation{op}, target, false))

	assert.Equal(t, schema.Of[profileV2021](), op.Request())
	assert.Equal(t, schema.Of[[]profileV2021](), op.Response())

	param := op.Params()[0]
	assert.Equal(t, schema.Of[profileV2021](), param.Annotation())
	def, ok := param.Default()
	require.True(t, ok)
	assert.Equal(t, "none", def)

	assert.Equal(t, schema.Of[profileV2021](), op.Callbacks()[0].Response())
}

func TestRewriter_Idempotent(t *testing.T) {
	t.Parallel()

	reg := newRewriteRegistry(t)
	target := reg.VersionPackage("v2021_01_01")

	op := testOp("/profiles", []string{"GET"}, "listProfiles")
	op.SetResponse(schema.Of[profileLatest]())

	rw := newRewriter(reg)
	require.NoError(t, rw.rewriteOperations([]*Operation{op}, target, false))
	first := op.Response()
	require.NoError(t, rw.rewriteOperations([]*Operation{op}, target, false))
	assert.Equal(t, first, op.Response())
}

func TestRewriter_EnforceTemplate(t *testing.T) {
	t.Parallel()

	reg := newRewriteRegistry(t)

	op := testOp("/profiles", []string{"GET"}, "listProfiles")
	op.SetResponse(schema.Of[profileV2021]())

	rw := newRewriter(reg)
	err := rw.rewriteOperations([]*Operation{op}, reg.TemplatePackage(), true)
	require.ErrorIs(t, err, schema.ErrNotInTemplate)
	assert.ErrorContains(t, err, "route [GET] /profiles")
	assert.ErrorContains(t, err, "annotate routes with the latest schemas")

	// Without enforcement the same annotation is legal.
	require.NoError(t, newRewriter(reg).rewriteOperations([]*Operation{op}, reg.TemplatePackage(), false))
}
