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
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"reflect"
	"slices"

	"go.opentelemetry.io/otel/attribute"

	"rivaas.dev/binding"
	"rivaas.dev/errors"

	"rivaas.dev/evolve/change"
)

// migrationChain is the per-route, per-version migration plan computed at
// generation time: the request instructions that lift a caller-version body
// to the newest shape (oldest first) and the response instructions that
// lower the newest shape back down (newest first).
type migrationChain struct {
	version      change.Date
	decodeTarget reflect.Type
	requests     []*change.RequestInstruction
	responses    []*change.ResponseInstruction
}

// callInput is the transport-independent view of one incoming request.
// The mount adapter fills it from router.Context; tests can fill it
// directly.
type callInput struct {
	method  string
	body    []byte
	headers http.Header
	query   url.Values
	params  map[string]string
	raw     *http.Request
	writer  http.ResponseWriter
}

// callResult is what the adapter writes back to the client: the migrated
// status, headers and body of the caller's version.
type callResult struct {
	status  int
	headers http.Header
	body    any
}

// serve runs the full versioned request flow for op: decode, lift the body
// through the request migrations, invoke the handler against the newest
// shape, then lower the response through the response migrations.
func (op *Operation) serve(ctx context.Context, cfg *config, in *callInput) (*callResult, error) {
	chain := op.chain
	if chain == nil {
		return nil, &InternalError{Op: op, Reason: "route has no migration chain; only routes produced by Generate can serve"}
	}
	handler, ok := op.handler.(HandlerFunc)
	if !ok {
		return nil, &InternalError{Op: op, Reason: fmt.Sprintf("route handler is %T after wiring", op.handler)}
	}

	ctx, span := cfg.startSpan(ctx, op)
	defer span.End()
	ctx = WithVersion(ctx, chain.version)

	info, steps, err := op.migrateRequest(cfg, chain, in)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	req := &Request{
		Headers: info.Headers,
		Query:   info.Query,
		Params:  in.params,
		Raw:     in.raw,
		version: chain.version,
		writer:  in.writer,
	}
	if err := op.decodeBody(ctx, cfg, chain, info, req); err != nil {
		span.RecordError(err)
		return nil, err
	}
	if err := resolveDependencies(ctx, op, req); err != nil {
		cfg.metrics.recordFailure(chain.version.String(), op.path, "dependency")
		span.RecordError(err)
		return nil, err
	}

	result, err := handler(ctx, req)
	if err != nil {
		cfg.metrics.recordFailure(chain.version.String(), op.path, "handler")
		span.RecordError(err)
		return nil, err
	}

	out, rsteps, err := op.migrateResponse(cfg, chain, in, result)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	span.SetAttributes(
		attribute.Int("evolve.request_steps", steps),
		attribute.Int("evolve.response_steps", rsteps),
	)
	return out, nil
}

// migrateRequest decodes the raw body into the migration representation and
// applies the request chain, oldest version first.
func (op *Operation) migrateRequest(cfg *config, chain *migrationChain, in *callInput) (*change.RequestInfo, int, error) {
	info := &change.RequestInfo{Body: map[string]any{}, Headers: in.headers, Query: in.query}
	if len(in.body) > 0 {
		var body map[string]any
		if err := binding.JSONTo(in.body, &body); err != nil {
			cfg.metrics.recordFailure(chain.version.String(), op.path, "decode")
			return nil, 0, errors.WithStatus(
				fmt.Errorf("%w: %v", ErrDecodeBody, err), http.StatusBadRequest)
		}
		info.Body = body
	}

	steps := 0
	for _, ins := range chain.requests {
		if !appliesToMethod(ins.Path(), ins.Methods(), in.method) {
			continue
		}
		if err := ins.Apply(info); err != nil {
			cfg.metrics.recordFailure(chain.version.String(), op.path, "request-migration")
			cfg.logger.Error("request migration failed",
				"version", chain.version.String(), "route", op.path, "error", err)
			return nil, 0, fmt.Errorf("request migration from version %s: %w: %w", chain.version, ErrMigrationFailed, err)
		}
		steps++
	}
	cfg.metrics.recordRequestSteps(chain.version.String(), op.path, steps)
	return info, steps, nil
}

// decodeBody binds the migrated body into the newest body type (or its
// internal representation) and validates it when a validator is configured.
// Routes without a request annotation hand the migrated map to the handler
// as-is.
func (op *Operation) decodeBody(ctx context.Context, cfg *config, chain *migrationChain, info *change.RequestInfo, req *Request) error {
	if chain.decodeTarget == nil {
		if len(info.Body) > 0 {
			req.Body = info.Body
		}
		return nil
	}

	ptr := reflect.New(chain.decodeTarget)
	if len(info.Body) > 0 {
		data, err := json.Marshal(info.Body)
		if err != nil {
			return &InternalError{Op: op, Reason: fmt.Sprintf("migrated body is not serializable: %v", err)}
		}
		if err := binding.JSONTo(data, ptr.Interface()); err != nil {
			cfg.metrics.recordFailure(chain.version.String(), op.path, "bind")
			return errors.WithStatus(
				fmt.Errorf("%w: migrated body does not bind to the newest schema: %v", ErrDecodeBody, err),
				http.StatusUnprocessableEntity)
		}
	}
	if cfg.validator != nil {
		if err := cfg.validator.Validate(ctx, ptr.Interface()); err != nil {
			cfg.metrics.recordFailure(chain.version.String(), op.path, "validate")
			return errors.WithStatus(err, http.StatusUnprocessableEntity)
		}
	}
	req.Body = ptr.Interface()
	return nil
}

// migrateResponse renders the handler result into the migration
// representation, applies the response chain newest version first, and
// returns what the adapter should write.
func (op *Operation) migrateResponse(cfg *config, chain *migrationChain, in *callInput, result any) (*callResult, int, error) {
	out := &callResult{status: op.Status(), headers: http.Header{}}
	if override, ok := result.(*Response); ok && override != nil {
		if override.Status != 0 {
			out.status = override.Status
		}
		if override.Headers != nil {
			out.headers = override.Headers.Clone()
		}
		result = override.Body
	}

	info := &change.ResponseInfo{Status: out.status, Headers: out.headers}
	var raw any
	if result != nil {
		body, rendered, err := renderBody(result)
		if err != nil {
			cfg.metrics.recordFailure(chain.version.String(), op.path, "encode")
			return nil, 0, &InternalError{Op: op, Reason: fmt.Sprintf("response is not serializable: %v", err)}
		}
		info.Body = body
		raw = rendered
	}

	steps := 0
	for _, ins := range chain.responses {
		if !appliesToMethod(ins.Path(), ins.Methods(), in.method) {
			continue
		}
		if err := ins.Apply(info); err != nil {
			cfg.metrics.recordFailure(chain.version.String(), op.path, "response-migration")
			cfg.logger.Error("response migration failed",
				"version", chain.version.String(), "route", op.path, "error", err)
			return nil, 0, fmt.Errorf("response migration to version %s: %w: %w", chain.version, ErrMigrationFailed, err)
		}
		steps++
	}
	cfg.metrics.recordResponseSteps(chain.version.String(), op.path, steps)

	out.status = info.Status
	out.headers = info.Headers
	switch {
	case info.Body != nil:
		out.body = info.Body
	case raw != nil:
		out.body = raw
	}
	return out, steps, nil
}

// renderBody converts a handler result into the map representation that
// migrations operate on. Results that do not encode to a JSON object
// (arrays, scalars) pass through migrations untouched.
func renderBody(result any) (map[string]any, any, error) {
	if m, ok := result.(map[string]any); ok {
		return m, nil, nil
	}
	data, err := json.Marshal(result)
	if err != nil {
		return nil, nil, err
	}
	var m map[string]any
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, json.RawMessage(data), nil
	}
	return m, nil, nil
}

// appliesToMethod reports whether a path-targeted instruction covers the
// request method. Schema-targeted instructions (empty path) always apply.
func appliesToMethod(path string, methods []string, method string) bool {
	if path == "" {
		return true
	}
	return slices.Contains(methods, method)
}

// resolveDependencies runs the operation's dependency providers and stores
// their values on the request. Providers sharing a name resolve once unless
// the dependency opted out of caching.
func resolveDependencies(ctx context.Context, op *Operation, req *Request) error {
	if len(op.dependencies) == 0 {
		return nil
	}
	req.deps = make(map[string]any, len(op.dependencies))
	cache := make(map[string]any, len(op.dependencies))
	for _, dep := range op.dependencies {
		p := dep.Provider()
		if p == nil || p.Func() == nil {
			continue
		}
		if dep.Cached() {
			if v, ok := cache[p.Name()]; ok {
				req.deps[p.Name()] = v
				continue
			}
		}
		v, err := p.Func()(ctx, req)
		if err != nil {
			return fmt.Errorf("resolving dependency %q: %w", p.Name(), err)
		}
		req.deps[p.Name()] = v
		if dep.Cached() {
			cache[p.Name()] = v
		}
	}
	return nil
}
