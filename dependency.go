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
	"slices"
)

// ParamIn says where an endpoint parameter is read from.
type ParamIn string

const (
	// InPath reads the parameter from the route path.
	InPath ParamIn = "path"

	// InQuery reads the parameter from the query string.
	InQuery ParamIn = "query"

	// InHeader reads the parameter from a request header.
	InHeader ParamIn = "header"
)

// Param declares one endpoint parameter. Its annotation participates in
// per-version schema rewriting like request and response annotations do.
type Param struct {
	name       string
	in         ParamIn
	annotation any
	def        any
	hasDefault bool
}

// NewParam declares a required parameter with a schema annotation.
func NewParam(name string, in ParamIn, annotation any) *Param {
	return &Param{name: name, in: in, annotation: annotation}
}

// WithDefault returns a copy of the parameter that is optional and falls
// back to def. Defaults participate in per-version rewriting.
func (p *Param) WithDefault(def any) *Param {
	dup := *p
	dup.def = def
	dup.hasDefault = true
	return &dup
}

// Name returns the parameter name.
func (p *Param) Name() string {
	return p.name
}

// In returns where the parameter is read from.
func (p *Param) In() ParamIn {
	return p.in
}

// Annotation returns the schema annotation of the parameter.
func (p *Param) Annotation() any {
	return p.annotation
}

// Default returns the default value and whether one is set.
func (p *Param) Default() (any, bool) {
	return p.def, p.hasDefault
}

// ProviderFunc computes a dependency value for a request.
type ProviderFunc func(ctx context.Context, req *Request) (any, error)

// Provider is a named dependency provider: a function plus the declared
// parameters it consumes. Version generation rewrites the parameter
// annotations per version while reusing the function itself.
type Provider struct {
	name   string
	fn     ProviderFunc
	params []*Param
}

// NewProvider builds a provider. The name keys the resolved value on the
// request and the per-request cache.
func NewProvider(name string, fn ProviderFunc, params ...*Param) *Provider {
	return &Provider{name: name, fn: fn, params: slices.Clone(params)}
}

// Name returns the provider name.
func (p *Provider) Name() string {
	return p.name
}

// Func returns the provider function.
func (p *Provider) Func() ProviderFunc {
	return p.fn
}

// Params returns the declared provider parameters.
// The returned slice must not be modified.
func (p *Provider) Params() []*Param {
	return p.params
}

// Dependency attaches a provider to an operation. Values are cached per
// request by provider name unless WithoutCache is used, so several
// operations or providers sharing a provider see one value.
type Dependency struct {
	provider *Provider
	useCache bool
}

// Depends declares a cached dependency on a provider.
func Depends(p *Provider) *Dependency {
	return &Dependency{provider: p, useCache: true}
}

// WithoutCache returns a copy of the dependency that bypasses the
// per-request cache.
func (d *Dependency) WithoutCache() *Dependency {
	return &Dependency{provider: d.provider, useCache: false}
}

// Provider returns the dependency's provider.
func (d *Dependency) Provider() *Provider {
	return d.provider
}

// Cached reports whether the dependency uses the per-request cache.
func (d *Dependency) Cached() bool {
	return d.useCache
}
