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
	"slices"
	"sync"
)

// deletedRouteTag is the reserved tag that marks an operation as deleted in
// the version currently being generated. Operations carrying it are
// stripped from the finished version collections.
const deletedRouteTag = "_evolve:deleted"

// Operation describes one versioned route: its path, methods and handler
// plus the metadata and schema annotations that version generation rewrites
// per version. Operations are built through Router registration and
// configured fluently:
//
//	r.POST("/users", createUser).
//	    SetStatus(http.StatusCreated).
//	    SetRequest(schema.Of[UserCreate]()).
//	    SetResponse(schema.Of[User]()).
//	    SetSummary("Create a user")
type Operation struct {
	mu sync.Mutex

	id          int
	path        string
	methods     []string
	handler     any
	handlerName string

	name        string
	summary     string
	description string
	status      int
	deprecated  bool
	tags        []string

	request      any
	response     any
	params       []*Param
	dependencies []*Dependency
	callbacks    []*Operation

	chain *migrationChain
}

// Path returns the route path.
func (op *Operation) Path() string {
	op.mu.Lock()
	defer op.mu.Unlock()
	return op.path
}

// SetPath sets the route path and returns the operation. Registration fixes
// the path of the newest version; older versions change it through
// change.Endpoint(...).Had(change.Path(...)).
func (op *Operation) SetPath(path string) *Operation {
	op.mu.Lock()
	defer op.mu.Unlock()
	op.path = path
	return op
}

// Methods returns the HTTP methods of the route, upper-cased.
// The returned slice must not be modified.
func (op *Operation) Methods() []string {
	op.mu.Lock()
	defer op.mu.Unlock()
	return op.methods
}

// HandlerName returns the name of the registered handler function, as used
// by change.Endpoint(...).ForHandler.
func (op *Operation) HandlerName() string {
	return op.handlerName
}

// Name returns the operation name.
func (op *Operation) Name() string {
	op.mu.Lock()
	defer op.mu.Unlock()
	return op.name
}

// SetName sets the operation name and returns the operation.
func (op *Operation) SetName(name string) *Operation {
	op.mu.Lock()
	defer op.mu.Unlock()
	op.name = name
	return op
}

// Summary returns the one-line summary used in documentation.
func (op *Operation) Summary() string {
	op.mu.Lock()
	defer op.mu.Unlock()
	return op.summary
}

// SetSummary sets the documentation summary and returns the operation.
func (op *Operation) SetSummary(summary string) *Operation {
	op.mu.Lock()
	defer op.mu.Unlock()
	op.summary = summary
	return op
}

// Description returns the long-form description used in documentation.
func (op *Operation) Description() string {
	op.mu.Lock()
	defer op.mu.Unlock()
	return op.description
}

// SetDescription sets the documentation description and returns the operation.
func (op *Operation) SetDescription(description string) *Operation {
	op.mu.Lock()
	defer op.mu.Unlock()
	op.description = description
	return op
}

// Status returns the success status code of the operation.
func (op *Operation) Status() int {
	op.mu.Lock()
	defer op.mu.Unlock()
	return op.status
}

// SetStatus sets the success status code and returns the operation.
func (op *Operation) SetStatus(code int) *Operation {
	op.mu.Lock()
	defer op.mu.Unlock()
	op.status = code
	return op
}

// Deprecated reports whether the operation is marked deprecated.
func (op *Operation) Deprecated() bool {
	op.mu.Lock()
	defer op.mu.Unlock()
	return op.deprecated
}

// SetDeprecated sets the deprecation flag and returns the operation.
func (op *Operation) SetDeprecated(deprecated bool) *Operation {
	op.mu.Lock()
	defer op.mu.Unlock()
	op.deprecated = deprecated
	return op
}

// Tags returns the documentation tags.
// The returned slice must not be modified.
func (op *Operation) Tags() []string {
	op.mu.Lock()
	defer op.mu.Unlock()
	return op.visibleTags()
}

// SetTags replaces the documentation tags and returns the operation.
// The reserved deleted marker, if present, survives the replacement.
func (op *Operation) SetTags(tags ...string) *Operation {
	op.mu.Lock()
	defer op.mu.Unlock()
	deleted := op.deletedLocked()
	op.tags = slices.Clone(tags)
	if deleted {
		op.tags = append(op.tags, deletedRouteTag)
	}
	return op
}

// Request returns the request body annotation, or nil for bodyless routes.
func (op *Operation) Request() any {
	op.mu.Lock()
	defer op.mu.Unlock()
	return op.request
}

// SetRequest sets the request body annotation, typically schema.Of[T](),
// and returns the operation.
func (op *Operation) SetRequest(annotation any) *Operation {
	op.mu.Lock()
	defer op.mu.Unlock()
	op.request = annotation
	return op
}

// Response returns the response model annotation.
func (op *Operation) Response() any {
	op.mu.Lock()
	defer op.mu.Unlock()
	return op.response
}

// SetResponse sets the response model annotation, typically schema.Of[T](),
// and returns the operation.
func (op *Operation) SetResponse(annotation any) *Operation {
	op.mu.Lock()
	defer op.mu.Unlock()
	op.response = annotation
	return op
}

// Params returns the declared endpoint parameters.
// The returned slice must not be modified.
func (op *Operation) Params() []*Param {
	op.mu.Lock()
	defer op.mu.Unlock()
	return op.params
}

// AddParam declares an endpoint parameter and returns the operation.
func (op *Operation) AddParam(p *Param) *Operation {
	op.mu.Lock()
	defer op.mu.Unlock()
	op.params = append(op.params, p)
	return op
}

// Dependencies returns the declared dependencies.
// The returned slice must not be modified.
func (op *Operation) Dependencies() []*Dependency {
	op.mu.Lock()
	defer op.mu.Unlock()
	return op.dependencies
}

// AddDependency declares a dependency resolved before the handler runs and
// returns the operation.
func (op *Operation) AddDependency(d *Dependency) *Operation {
	op.mu.Lock()
	defer op.mu.Unlock()
	op.dependencies = append(op.dependencies, d)
	return op
}

// Callbacks returns the callback operations declared on this operation.
// The returned slice must not be modified.
func (op *Operation) Callbacks() []*Operation {
	op.mu.Lock()
	defer op.mu.Unlock()
	return op.callbacks
}

// Callback declares a documentation-only callback operation: an outgoing
// request this endpoint makes to a caller-supplied URL. Callback schema
// annotations are rewritten per version like any other annotation.
func (op *Operation) Callback(method, path string) *Operation {
	cb := &Operation{
		path:    path,
		methods: []string{normalizeMethod(method)},
		status:  defaultStatus,
	}
	op.mu.Lock()
	defer op.mu.Unlock()
	op.callbacks = append(op.callbacks, cb)
	return cb
}

// Deleted reports whether the operation carries the deleted marker.
func (op *Operation) Deleted() bool {
	op.mu.Lock()
	defer op.mu.Unlock()
	return op.deletedLocked()
}

func (op *Operation) deletedLocked() bool {
	return slices.Contains(op.tags, deletedRouteTag)
}

func (op *Operation) markDeleted() {
	op.mu.Lock()
	defer op.mu.Unlock()
	if !op.deletedLocked() {
		op.tags = append(op.tags, deletedRouteTag)
	}
}

func (op *Operation) unmarkDeleted() {
	op.mu.Lock()
	defer op.mu.Unlock()
	if i := slices.Index(op.tags, deletedRouteTag); i >= 0 {
		op.tags = slices.Delete(op.tags, i, i+1)
	}
}

// setWrapped installs the normalized handler and the migration chain that
// together serve this route at its version.
func (op *Operation) setWrapped(h HandlerFunc, chain *migrationChain) {
	op.mu.Lock()
	defer op.mu.Unlock()
	op.handler = h
	op.chain = chain
}

// visibleTags returns the tags without the reserved deleted marker.
func (op *Operation) visibleTags() []string {
	if !slices.Contains(op.tags, deletedRouteTag) {
		return op.tags
	}
	visible := make([]string, 0, len(op.tags)-1)
	for _, t := range op.tags {
		if t != deletedRouteTag {
			visible = append(visible, t)
		}
	}
	return visible
}

// clone returns a deep copy of the operation. Annotations are shared:
// rewriting replaces them wholesale and never mutates them in place.
func (op *Operation) clone() *Operation {
	op.mu.Lock()
	defer op.mu.Unlock()
	dup := &Operation{
		id:           op.id,
		path:         op.path,
		methods:      slices.Clone(op.methods),
		handler:      op.handler,
		handlerName:  op.handlerName,
		name:         op.name,
		summary:      op.summary,
		description:  op.description,
		status:       op.status,
		deprecated:   op.deprecated,
		tags:         slices.Clone(op.tags),
		request:      op.request,
		response:     op.response,
		params:       slices.Clone(op.params),
		dependencies: slices.Clone(op.dependencies),
		chain:        op.chain,
	}
	if len(op.callbacks) > 0 {
		dup.callbacks = make([]*Operation, len(op.callbacks))
		for i, cb := range op.callbacks {
			dup.callbacks[i] = cb.clone()
		}
	}
	return dup
}

func cloneOperations(ops []*Operation) []*Operation {
	dup := make([]*Operation, len(ops))
	for i, op := range ops {
		dup[i] = op.clone()
	}
	return dup
}
