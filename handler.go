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
	"fmt"
	"net/http"
	"net/url"

	"rivaas.dev/binding"

	"rivaas.dev/evolve/change"
)

// HandlerFunc is the signature of a versioned endpoint handler. A handler
// is written once, against the latest schemas; generated versions migrate
// request bodies forward before the handler runs and response bodies
// backward after it returns.
//
// The returned value is the response model, rendered and migrated down to
// the caller's version. Returning *Response instead overrides the status
// code and headers. Returning an error skips response migration and is
// formatted by the configured error formatter.
type HandlerFunc func(ctx context.Context, req *Request) (any, error)

// Request is the request view a handler receives. Body, Headers and Query
// have already been migrated to the latest version's shape, regardless of
// which version the client spoke.
type Request struct {
	// Body is the decoded request body, a pointer to the latest body type
	// (or its registered internal representation). It is nil for bodyless
	// requests.
	Body any

	// Headers are the request headers after request migrations ran.
	Headers http.Header

	// Query are the query parameters after request migrations ran.
	Query url.Values

	// Params are the path parameters of the matched route.
	Params map[string]string

	// Raw is the underlying HTTP request. Migrations never touch it.
	Raw *http.Request

	version change.Date
	deps    map[string]any
	writer  http.ResponseWriter
}

// Version returns the API version the client requested.
func (r *Request) Version() change.Date {
	return r.version
}

// ResponseWriter exposes the underlying response writer for handlers that
// need to stream or hijack. Handlers that write through it directly must
// return a nil body, and the response bypasses response migrations.
func (r *Request) ResponseWriter() http.ResponseWriter {
	return r.writer
}

// Dependency returns the resolved value of the named dependency provider.
func (r *Request) Dependency(name string) (any, bool) {
	v, ok := r.deps[name]
	return v, ok
}

// Bind decodes the request's path parameters, query parameters and headers
// into dst using the binding struct tags (path, query, header). The body is
// not bound here; Body already carries the decoded newest shape.
//
// Example:
//
//	var p struct {
//	    ID    int    `path:"id"`
//	    Limit int    `query:"limit" default:"20"`
//	    Trace string `header:"X-Trace-Id"`
//	}
//	if err := req.Bind(&p); err != nil { ... }
func (r *Request) Bind(dst any) error {
	if err := binding.PathTo(r.Params, dst); err != nil {
		return err
	}
	if err := binding.QueryTo(r.Query, dst); err != nil {
		return err
	}
	return binding.HeaderTo(r.Headers, dst)
}

// Body returns the request body as *T. It fails when the route's body type
// is not T, which indicates a mismatch between the operation's request
// annotation and the handler.
func Body[T any](r *Request) (*T, error) {
	v, ok := r.Body.(*T)
	if !ok {
		return nil, fmt.Errorf("request body is %T, not %T", r.Body, (*T)(nil))
	}
	return v, nil
}

// Response overrides the status code and headers of a handler response.
// Return it from a HandlerFunc instead of a plain model when a non-default
// status or extra headers are needed.
type Response struct {
	Status  int
	Headers http.Header
	Body    any
}

type versionContextKey struct{}

// WithVersion returns a context carrying an API version. The migration
// wrapper installs the served version before invoking the handler, so code
// below the handler can read it with VersionFromContext without threading
// *Request through. Background jobs calling handlers directly can set it
// themselves.
func WithVersion(ctx context.Context, d change.Date) context.Context {
	return context.WithValue(ctx, versionContextKey{}, d)
}

// VersionFromContext returns the API version carried by ctx, if any.
func VersionFromContext(ctx context.Context) (change.Date, bool) {
	d, ok := ctx.Value(versionContextKey{}).(change.Date)
	return d, ok
}
