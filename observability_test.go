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

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rivaas.dev/evolve/schema"
)

func TestMigrationMetrics_NilReceiver(t *testing.T) {
	t.Parallel()

	var m *migrationMetrics
	assert.NotPanics(t, func() {
		m.recordRequestSteps("2021-01-01", "/users", 2)
		m.recordResponseSteps("2021-01-01", "/users", 2)
		m.recordFailure("2021-01-01", "/users", "decode")
		m.setGeneratedRoutes("2021-01-01", 3)
	})
}

func TestMigrationMetrics_Record(t *testing.T) {
	t.Parallel()

	reg := prometheus.NewRegistry()
	m := newMigrationMetrics(reg)

	m.recordRequestSteps("2000-01-01", "/users", 2)
	m.recordRequestSteps("2000-01-01", "/users", 0) // zero steps leave no sample
	m.recordResponseSteps("2000-01-01", "/users", 1)
	m.recordFailure("2000-01-01", "/users", "decode")
	m.setGeneratedRoutes("2000-01-01", 4)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.requestSteps.WithLabelValues("2000-01-01", "/users")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.responseSteps.WithLabelValues("2000-01-01", "/users")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.failures.WithLabelValues("2000-01-01", "/users", "decode")))
	assert.Equal(t, 4.0, testutil.ToFloat64(m.routes.WithLabelValues("2000-01-01")))
}

func TestMigrationMetrics_RegisterTwice(t *testing.T) {
	t.Parallel()

	reg := prometheus.NewRegistry()
	first := newMigrationMetrics(reg)
	second := newMigrationMetrics(reg)

	// The second registration reuses the first collectors instead of
	// panicking on the duplicate.
	first.recordFailure("2021-01-01", "/users", "handler")
	assert.Equal(t, 1.0, testutil.ToFloat64(second.failures.WithLabelValues("2021-01-01", "/users", "handler")))
}

func TestServe_RecordsMetrics(t *testing.T) {
	t.Parallel()

	promReg := prometheus.NewRegistry()
	reg := genRegistry(t)
	r := NewRouter()
	r.POST("/users", genCreateUser).
		SetRequest(schema.Of[genUser]()).
		SetResponse(schema.Of[genUser]())

	generated, err := Generate(r, twoVersionBundle(t, renameUserField()), reg, WithMetrics(promReg))
	require.NoError(t, err)

	m := generated.cfg.metrics
	assert.Equal(t, 1.0, testutil.ToFloat64(m.routes.WithLabelValues("2021-01-01")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.routes.WithLabelValues("2000-01-01")))

	oldest, _ := generated.Collection(date2000)
	op := oldest.Find("POST", "/users")

	_, err = op.serve(context.Background(), generated.cfg, jsonInput("POST", `{"full_name":"Ada"}`))
	require.NoError(t, err)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.requestSteps.WithLabelValues("2000-01-01", "/users")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.responseSteps.WithLabelValues("2000-01-01", "/users")))

	_, err = op.serve(context.Background(), generated.cfg, jsonInput("POST", `{broken`))
	require.ErrorIs(t, err, ErrDecodeBody)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.failures.WithLabelValues("2000-01-01", "/users", "decode")))
}
