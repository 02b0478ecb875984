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
	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"

	"rivaas.dev/errors"
	"rivaas.dev/logging"
	"rivaas.dev/validation"
)

// instrumentationName identifies this module in telemetry output.
const instrumentationName = "rivaas.dev/evolve"

// Option configures version generation and the request-time behavior of the
// generated collections.
type Option func(*config)

// config carries the cross-cutting collaborators of a generation run. The
// zero-ish defaults keep the library silent: no-op logger, no-op tracer, no
// metrics, no validation, plain-JSON error responses.
type config struct {
	logger    logger
	formatter errors.Formatter
	validator *validation.Validator
	metrics   *migrationMetrics
	tracer    trace.Tracer
}

func newConfig(opts ...Option) *config {
	cfg := &config{
		logger:    noopLogger{},
		formatter: errors.NewSimple(),
		tracer:    noop.NewTracerProvider().Tracer(instrumentationName),
	}
	for _, opt := range opts {
		opt(cfg)
	}
	return cfg
}

// WithLogger sets the structured logger used for generation progress and
// request-time migration failures. The default logger discards everything.
//
// Example:
//
//	log, _ := logging.New(logging.WithServiceName("orders-api"))
//	generated, err := evolve.Generate(r, bundle, reg, evolve.WithLogger(log))
func WithLogger(logger *logging.Logger) Option {
	return func(cfg *config) {
		if logger != nil {
			cfg.logger = logger
		}
	}
}

// WithErrorFormatter sets the formatter that renders request-time errors as
// HTTP responses. Defaults to errors.NewSimple.
//
// Example:
//
//	evolve.WithErrorFormatter(errors.NewRFC9457("https://api.example.com/problems"))
func WithErrorFormatter(f errors.Formatter) Option {
	return func(cfg *config) {
		if f != nil {
			cfg.formatter = f
		}
	}
}

// WithValidator validates every migrated request body against the newest
// schema before the handler runs. Validation failures are rendered as
// 422 Unprocessable Entity. Disabled by default.
func WithValidator(v *validation.Validator) Option {
	return func(cfg *config) {
		cfg.validator = v
	}
}

// WithMetrics registers migration counters with the given Prometheus
// registerer and enables recording. A nil registerer uses
// prometheus.DefaultRegisterer. Disabled by default.
func WithMetrics(reg prometheus.Registerer) Option {
	return func(cfg *config) {
		if reg == nil {
			reg = prometheus.DefaultRegisterer
		}
		cfg.metrics = newMigrationMetrics(reg)
	}
}

// WithTracerProvider enables request-time migration spans through the given
// OpenTelemetry tracer provider. The default provider is a no-op.
func WithTracerProvider(provider trace.TracerProvider) Option {
	return func(cfg *config) {
		if provider != nil {
			cfg.tracer = provider.Tracer(instrumentationName)
		}
	}
}

// logger is the logging surface this package calls. Both *logging.Logger
// and noopLogger satisfy it.
type logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// noopLogger discards all log messages. It backs the default configuration
// so library code can log unconditionally.
type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}
