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
	"fmt"
	"net/http"
	"reflect"
	"runtime"
	"strings"
	"sync"
)

// defaultStatus is the success status of operations that never call SetStatus.
const defaultStatus = http.StatusOK

// Router collects the latest version of an API: every operation, registered
// once, with latest schemas and latest handlers. It is the input to
// Generate, never something requests are served from directly.
type Router struct {
	mu  sync.Mutex
	ops []*Operation
}

// NewRouter returns an empty authoring router.
func NewRouter() *Router {
	return &Router{}
}

// GET registers a GET operation.
func (r *Router) GET(path string, handler any) *Operation {
	return r.Match([]string{http.MethodGet}, path, handler)
}

// POST registers a POST operation.
func (r *Router) POST(path string, handler any) *Operation {
	return r.Match([]string{http.MethodPost}, path, handler)
}

// PUT registers a PUT operation.
func (r *Router) PUT(path string, handler any) *Operation {
	return r.Match([]string{http.MethodPut}, path, handler)
}

// PATCH registers a PATCH operation.
func (r *Router) PATCH(path string, handler any) *Operation {
	return r.Match([]string{http.MethodPatch}, path, handler)
}

// DELETE registers a DELETE operation.
func (r *Router) DELETE(path string, handler any) *Operation {
	return r.Match([]string{http.MethodDelete}, path, handler)
}

// HEAD registers a HEAD operation.
func (r *Router) HEAD(path string, handler any) *Operation {
	return r.Match([]string{http.MethodHead}, path, handler)
}

// OPTIONS registers an OPTIONS operation.
func (r *Router) OPTIONS(path string, handler any) *Operation {
	return r.Match([]string{http.MethodOptions}, path, handler)
}

// Match registers an operation answering several methods under one path
// with one handler.
func (r *Router) Match(methods []string, path string, handler any) *Operation {
	normalized := make([]string, len(methods))
	for i, m := range methods {
		normalized[i] = normalizeMethod(m)
	}
	op := &Operation{
		path:        path,
		methods:     normalized,
		handler:     handler,
		handlerName: handlerFuncName(handler),
		status:      defaultStatus,
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	op.id = len(r.ops)
	r.ops = append(r.ops, op)
	return op
}

// Operations returns the registered operations in registration order.
// The returned slice must not be modified.
func (r *Router) Operations() []*Operation {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.ops
}

// OnlyExistsInOlderVersions marks the route registered with handler as
// deleted in the latest version. Such a route must be restored by a
// change.Endpoint(...).Existed() instruction in some version change, or
// generation fails.
//
// The handler must already be registered; marking twice is an error.
func (r *Router) OnlyExistsInOlderVersions(handler any) error {
	op := r.findByHandler(handler)
	if op == nil {
		return fmt.Errorf("%w: %q; is it registered on this router?",
			ErrHandlerNotFound, handlerFuncName(handler))
	}
	if op.Deleted() {
		return fmt.Errorf("%w: %q cannot be deleted again",
			ErrAlreadyDeleted, op.HandlerName())
	}
	op.markDeleted()
	return nil
}

func (r *Router) findByHandler(handler any) *Operation {
	ptr := handlerPointer(handler)
	if ptr == 0 {
		return nil
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, op := range r.ops {
		if handlerPointer(op.handler) == ptr {
			return op
		}
	}
	return nil
}

// deletedOperations returns the operations currently carrying the deleted
// marker, in registration order.
func (r *Router) deletedOperations() []*Operation {
	r.mu.Lock()
	defer r.mu.Unlock()
	var deleted []*Operation
	for _, op := range r.ops {
		if op.Deleted() {
			deleted = append(deleted, op)
		}
	}
	return deleted
}

func normalizeMethod(m string) string {
	return strings.ToUpper(strings.TrimSpace(m))
}

// handlerFuncName returns the bare function name of a handler, the name
// change.Endpoint(...).ForHandler matches against.
func handlerFuncName(handler any) string {
	if handler == nil {
		return "nil"
	}
	fn := runtime.FuncForPC(handlerPointer(handler))
	if fn == nil {
		return "unknown"
	}
	name := fn.Name()
	if i := strings.LastIndex(name, "."); i >= 0 {
		name = name[i+1:]
	}
	// Method values carry a "-fm" suffix.
	return strings.TrimSuffix(name, "-fm")
}

func handlerPointer(handler any) uintptr {
	if handler == nil {
		return 0
	}
	v := reflect.ValueOf(handler)
	if v.Kind() != reflect.Func {
		return 0
	}
	return v.Pointer()
}
