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

package evolve_test

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"rivaas.dev/errors"
	"rivaas.dev/router/version"

	"rivaas.dev/evolve"
	"rivaas.dev/evolve/change"
	"rivaas.dev/evolve/schema"
)

type user struct {
	Name string `json:"name"`
}

type legacyUser struct {
	FullName string `json:"full_name"`
}

var (
	newestDate = change.MustParseDate("2024-06-01")
	oldestDate = change.MustParseDate("2019-03-20")
)

func createUser(_ context.Context, req *evolve.Request) (any, error) {
	body, err := evolve.Body[user](req)
	if err != nil {
		return nil, err
	}
	return *body, nil
}

func getUser(_ context.Context, req *evolve.Request) (any, error) {
	return user{Name: "user-" + req.Params["id"]}, nil
}

func listTeams(context.Context, *evolve.Request) (any, error) {
	return []string{"platform", "payments"}, nil
}

// newUserAPI wires a two-version users API: in 2024-06-01 the user's
// full_name field became name and the /teams listing was introduced.
// 2019-03-20 clients keep speaking the old shape.
func newUserAPI(t *testing.T, opts ...evolve.Option) *evolve.Generated {
	t.Helper()

	reg := schema.MustNewRegistry("example.com/directory/schemas/latest")
	require.NoError(t, schema.RegisterAs[user](reg, reg.TemplatePackage(), "User"))
	require.NoError(t, schema.RegisterAs[legacyUser](reg, reg.VersionPackage("v2019_03_20"), "User"))
	require.NoError(t, reg.DeclarePackage(reg.VersionPackage("v2024_06_01")))

	r := evolve.NewRouter()
	r.POST("/users", createUser).
		SetStatus(http.StatusCreated).
		SetRequest(schema.Of[user]()).
		SetResponse(schema.Of[user]())
	r.GET("/users/:id", getUser).
		SetResponse(schema.Of[user]())
	r.GET("/teams", listTeams)

	bundle, err := change.NewBundle(
		change.NewVersion(newestDate, change.NewChange(
			"RenameFullName", "full_name became name; the /teams listing was added.",
			change.RequestToNextVersion(schema.Of[user](), func(info *change.RequestInfo) error {
				if v, ok := info.Body["full_name"]; ok {
					info.Body["name"] = v
					delete(info.Body, "full_name")
				}
				return nil
			}),
			change.ResponseToPreviousVersion(schema.Of[user](), func(info *change.ResponseInfo) error {
				if v, ok := info.Body["name"]; ok {
					info.Body["full_name"] = v
					delete(info.Body, "name")
				}
				return nil
			}),
			change.Endpoint("/teams", http.MethodGet).DidntExist(),
		)),
		change.NewVersion(oldestDate),
	)
	require.NoError(t, err)

	g, err := evolve.Generate(r, bundle, reg, opts...)
	require.NoError(t, err)
	return g
}

func doRequest(t *testing.T, h http.Handler, method, target, body string, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()

	var rd io.Reader
	if body != "" {
		rd = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, rd)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func TestIntegration_VersionRouting(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	t.Parallel()

	g := newUserAPI(t)
	r, err := g.Router()
	require.NoError(t, err)

	t.Run("header selects an old version", func(t *testing.T) {
		t.Parallel()

		w := doRequest(t, r, http.MethodPost, "/users", `{"full_name":"Ada Lovelace"}`,
			map[string]string{evolve.VersionHeader: "2019-03-20"})

		require.Equal(t, http.StatusCreated, w.Code)
		assert.JSONEq(t, `{"full_name":"Ada Lovelace"}`, w.Body.String())
		assert.Equal(t, "2019-03-20", w.Header().Get(evolve.VersionHeader))
	})

	t.Run("missing version serves the newest", func(t *testing.T) {
		t.Parallel()

		w := doRequest(t, r, http.MethodPost, "/users", `{"name":"Ada Lovelace"}`, nil)

		require.Equal(t, http.StatusCreated, w.Code)
		assert.JSONEq(t, `{"name":"Ada Lovelace"}`, w.Body.String())
		assert.Equal(t, "2024-06-01", w.Header().Get(evolve.VersionHeader))
	})

	t.Run("query parameter is the fallback detector", func(t *testing.T) {
		t.Parallel()

		w := doRequest(t, r, http.MethodPost, "/users?version=2019-03-20",
			`{"full_name":"Grace Hopper"}`, nil)

		require.Equal(t, http.StatusCreated, w.Code)
		assert.JSONEq(t, `{"full_name":"Grace Hopper"}`, w.Body.String())
	})

	t.Run("unknown versions fall back to the newest", func(t *testing.T) {
		t.Parallel()

		w := doRequest(t, r, http.MethodPost, "/users", `{"name":"Ada Lovelace"}`,
			map[string]string{evolve.VersionHeader: "2030-01-01"})

		require.Equal(t, http.StatusCreated, w.Code)
		assert.JSONEq(t, `{"name":"Ada Lovelace"}`, w.Body.String())
		assert.Equal(t, "2024-06-01", w.Header().Get(evolve.VersionHeader))
	})
}

func TestIntegration_PathParameters(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	t.Parallel()

	g := newUserAPI(t)
	r, err := g.Router()
	require.NoError(t, err)

	w := doRequest(t, r, http.MethodGet, "/users/42", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"name":"user-42"}`, w.Body.String())

	w = doRequest(t, r, http.MethodGet, "/users/42", "",
		map[string]string{evolve.VersionHeader: "2019-03-20"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"full_name":"user-42"}`, w.Body.String())
}

func TestIntegration_RoutesAddedLater(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	t.Parallel()

	g := newUserAPI(t)
	r, err := g.Router()
	require.NoError(t, err)

	w := doRequest(t, r, http.MethodGet, "/teams", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `["platform","payments"]`, w.Body.String())

	// The route didn't exist in 2019; that version keeps returning 404.
	w = doRequest(t, r, http.MethodGet, "/teams", "",
		map[string]string{evolve.VersionHeader: "2019-03-20"})
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestIntegration_ErrorResponses(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	t.Parallel()

	t.Run("undecodable body", func(t *testing.T) {
		t.Parallel()

		g := newUserAPI(t)
		r, err := g.Router()
		require.NoError(t, err)

		w := doRequest(t, r, http.MethodPost, "/users", `{oops`, nil)

		require.Equal(t, http.StatusBadRequest, w.Code)
		assert.Contains(t, w.Header().Get("Content-Type"), "application/json")
		assert.Contains(t, w.Body.String(), `"error"`)
	})

	t.Run("handler errors pass through the formatter", func(t *testing.T) {
		t.Parallel()

		reg := schema.MustNewRegistry("example.com/accounts/schemas/latest")
		require.NoError(t, reg.DeclarePackage(reg.VersionPackage("v2024_06_01")))

		r := evolve.NewRouter()
		r.GET("/accounts/:id", func(context.Context, *evolve.Request) (any, error) {
			return nil, errors.WithStatus(fmt.Errorf("account suspended"), http.StatusForbidden)
		})

		bundle, err := change.NewBundle(change.NewVersion(newestDate))
		require.NoError(t, err)
		g, err := evolve.Generate(r, bundle, reg)
		require.NoError(t, err)
		mounted, err := g.Router()
		require.NoError(t, err)

		w := doRequest(t, mounted, http.MethodGet, "/accounts/7", "", nil)

		require.Equal(t, http.StatusForbidden, w.Code)
		assert.JSONEq(t, `{"error":"account suspended"}`, w.Body.String())
	})
}

func TestIntegration_DeprecationHeaders(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	t.Parallel()

	g := newUserAPI(t)
	r, err := g.Router(evolve.WithVersionLifecycle(oldestDate,
		version.Deprecated(),
		version.MigrationDocs("https://example.com/upgrade-to-2024"),
	))
	require.NoError(t, err)

	w := doRequest(t, r, http.MethodGet, "/users/1", "",
		map[string]string{evolve.VersionHeader: "2019-03-20"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "true", w.Header().Get("Deprecation"))
	assert.Contains(t, w.Header().Get("Link"), `rel="deprecation"`)

	w = doRequest(t, r, http.MethodGet, "/users/1", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, w.Header().Get("Deprecation"))
}
