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

package change

import (
	"net/http"
	"net/url"
	"reflect"
	"strings"
)

// RequestInfo is the mutable view of an incoming request that request
// migrations operate on. Body is the decoded JSON object of the request,
// or an empty map for bodyless requests.
type RequestInfo struct {
	Body    map[string]any
	Headers http.Header
	Query   url.Values
}

// ResponseInfo is the mutable view of an outgoing response that response
// migrations operate on. Body is the response model rendered as a JSON
// object, or nil for empty responses. Status and Headers are written to
// the client after all migrations ran.
type ResponseInfo struct {
	Body    map[string]any
	Status  int
	Headers http.Header
}

// RequestMigration converts a request body from the shape of one version to
// the shape of the next newer version. It must be pure apart from mutating
// info.
type RequestMigration func(info *RequestInfo) error

// ResponseMigration converts a response body from the shape of one version
// to the shape of the previous, older version. It must be pure apart from
// mutating info.
type ResponseMigration func(info *ResponseInfo) error

// RequestInstruction is a finished request migration, built with
// RequestToNextVersion or RequestToNextVersionForPath.
type RequestInstruction struct {
	target  reflect.Type
	path    string
	methods []string
	fn      RequestMigration
}

// RequestToNextVersion migrates requests of every endpoint whose request
// body model is target, typically written as schema.Of[T]() for the latest
// body type.
func RequestToNextVersion(target reflect.Type, fn RequestMigration) Instruction {
	return &RequestInstruction{target: target, fn: fn}
}

// RequestToNextVersionForPath migrates requests of the endpoint registered
// under path with the given methods, regardless of its body model. Use it
// for bodyless endpoints or endpoints that share a body model with routes
// that must not be migrated.
func RequestToNextVersionForPath(path string, methods []string, fn RequestMigration) Instruction {
	return &RequestInstruction{path: path, methods: normalizeMethods(methods), fn: fn}
}

func (i *RequestInstruction) addTo(c *Change) {
	c.requests = append(c.requests, i)
}

// Target returns the body model the migration is keyed on, or nil for
// path-targeted migrations.
func (i *RequestInstruction) Target() reflect.Type {
	return i.target
}

// Path returns the endpoint path for path-targeted migrations, or "".
func (i *RequestInstruction) Path() string {
	return i.path
}

// Methods returns the methods for path-targeted migrations.
func (i *RequestInstruction) Methods() []string {
	return i.methods
}

// Apply runs the migration against info.
func (i *RequestInstruction) Apply(info *RequestInfo) error {
	return i.fn(info)
}

func (i *RequestInstruction) validate() error {
	if i.fn == nil {
		return ErrNilMigration
	}
	if i.path == "" && i.target == nil {
		return ErrNilMigrationTarget
	}
	if i.path != "" && len(i.methods) == 0 {
		return ErrNoEndpointMethods
	}
	return nil
}

// ResponseInstruction is a finished response migration, built with
// ResponseToPreviousVersion or ResponseToPreviousVersionForPath.
type ResponseInstruction struct {
	target  reflect.Type
	path    string
	methods []string
	fn      ResponseMigration
}

// ResponseToPreviousVersion migrates responses of every endpoint whose
// response model is target, typically written as schema.Of[T]() for the
// latest response type.
func ResponseToPreviousVersion(target reflect.Type, fn ResponseMigration) Instruction {
	return &ResponseInstruction{target: target, fn: fn}
}

// ResponseToPreviousVersionForPath migrates responses of the endpoint
// registered under path with the given methods, regardless of its response
// model.
func ResponseToPreviousVersionForPath(path string, methods []string, fn ResponseMigration) Instruction {
	return &ResponseInstruction{path: path, methods: normalizeMethods(methods), fn: fn}
}

func (i *ResponseInstruction) addTo(c *Change) {
	c.responses = append(c.responses, i)
}

// Target returns the response model the migration is keyed on, or nil for
// path-targeted migrations.
func (i *ResponseInstruction) Target() reflect.Type {
	return i.target
}

// Path returns the endpoint path for path-targeted migrations, or "".
func (i *ResponseInstruction) Path() string {
	return i.path
}

// Methods returns the methods for path-targeted migrations.
func (i *ResponseInstruction) Methods() []string {
	return i.methods
}

// Apply runs the migration against info.
func (i *ResponseInstruction) Apply(info *ResponseInfo) error {
	return i.fn(info)
}

func (i *ResponseInstruction) validate() error {
	if i.fn == nil {
		return ErrNilMigration
	}
	if i.path == "" && i.target == nil {
		return ErrNilMigrationTarget
	}
	if i.path != "" && len(i.methods) == 0 {
		return ErrNoEndpointMethods
	}
	return nil
}

func normalizeMethods(methods []string) []string {
	normalized := make([]string, len(methods))
	for i, m := range methods {
		normalized[i] = strings.ToUpper(strings.TrimSpace(m))
	}
	return normalized
}
