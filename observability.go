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

package evolve

import (
	"context"
	"errors"

	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// migrationMetrics holds the Prometheus instruments recorded at request time
// and at generation time. All methods are safe on a nil receiver so call
// sites never need to check whether metrics are enabled.
type migrationMetrics struct {
	requestSteps  *prometheus.CounterVec
	responseSteps *prometheus.CounterVec
	failures      *prometheus.CounterVec
	routes        *prometheus.GaugeVec
}

func newMigrationMetrics(reg prometheus.Registerer) *migrationMetrics {
	return &migrationMetrics{
		requestSteps: registerCounterVec(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "evolve_request_migration_steps_total",
			Help: "Request body migration steps applied, by API version and route.",
		}, []string{"version", "route"})),
		responseSteps: registerCounterVec(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "evolve_response_migration_steps_total",
			Help: "Response body migration steps applied, by API version and route.",
		}, []string{"version", "route"})),
		failures: registerCounterVec(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "evolve_migration_failures_total",
			Help: "Failed request handling attempts, by API version, route and stage.",
		}, []string{"version", "route", "stage"})),
		routes: registerGaugeVec(reg, prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "evolve_generated_routes",
			Help: "Routes produced per generated API version.",
		}, []string{"version"})),
	}
}

// registerCounterVec registers c, reusing an identical collector if one is
// already registered with reg.
func registerCounterVec(reg prometheus.Registerer, c *prometheus.CounterVec) *prometheus.CounterVec {
	if err := reg.Register(c); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			return are.ExistingCollector.(*prometheus.CounterVec)
		}
		panic(err)
	}
	return c
}

func registerGaugeVec(reg prometheus.Registerer, g *prometheus.GaugeVec) *prometheus.GaugeVec {
	if err := reg.Register(g); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			return are.ExistingCollector.(*prometheus.GaugeVec)
		}
		panic(err)
	}
	return g
}

func (m *migrationMetrics) recordRequestSteps(version, route string, n int) {
	if m == nil || n == 0 {
		return
	}
	m.requestSteps.WithLabelValues(version, route).Add(float64(n))
}

func (m *migrationMetrics) recordResponseSteps(version, route string, n int) {
	if m == nil || n == 0 {
		return
	}
	m.responseSteps.WithLabelValues(version, route).Add(float64(n))
}

func (m *migrationMetrics) recordFailure(version, route, stage string) {
	if m == nil {
		return
	}
	m.failures.WithLabelValues(version, route, stage).Inc()
}

func (m *migrationMetrics) setGeneratedRoutes(version string, n int) {
	if m == nil {
		return
	}
	m.routes.WithLabelValues(version).Set(float64(n))
}

// startSpan opens a span around one versioned request, tagged with the API
// version and route. With the default no-op tracer this is free.
func (cfg *config) startSpan(ctx context.Context, op *Operation) (context.Context, trace.Span) {
	return cfg.tracer.Start(ctx, "evolve.serve",
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(
			attribute.String("api.version", op.chain.version.String()),
			attribute.String("http.route", op.path),
		),
	)
}
