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
	"strings"
)

// findOperations returns the operations that an endpoint instruction
// covers: same path, method set contained in the queried methods, matching
// deleted state, and, when handlerName is non-empty, a matching handler
// name.
func findOperations(ops []*Operation, path string, methods []string, handlerName string, deleted bool) []*Operation {
	query := make(map[string]struct{}, len(methods))
	for _, m := range methods {
		query[m] = struct{}{}
	}

	var found []*Operation
	for _, op := range ops {
		if op.path != path || op.Deleted() != deleted {
			continue
		}
		if handlerName != "" && op.handlerName != handlerName {
			continue
		}
		if !coveredBy(op.methods, query) {
			continue
		}
		found = append(found, op)
	}
	return found
}

// coveredBy reports whether every method of a route is in the query set.
func coveredBy(methods []string, query map[string]struct{}) bool {
	for _, m := range methods {
		if _, ok := query[m]; !ok {
			return false
		}
	}
	return true
}

// validateNoDuplicates fails when two operations share a path and an exact
// method set, since such operations cannot be told apart by an endpoint
// instruction without a handler name.
func validateNoDuplicates(ops []*Operation) error {
	seen := make(map[routeIdentity]*Operation, len(ops))
	for _, op := range ops {
		id := identityOf(op)
		if prior, ok := seen[id]; ok {
			return &RouteConflictError{First: prior, Second: op}
		}
		seen[id] = op
	}
	return nil
}

type routeIdentity struct {
	path    string
	methods string
}

func identityOf(op *Operation) routeIdentity {
	methods := slices.Clone(op.methods)
	slices.Sort(methods)
	return routeIdentity{path: op.path, methods: strings.Join(methods, ",")}
}

// methodUnion returns the union of the method sets of ops, sorted.
func methodUnion(ops []*Operation) []string {
	set := make(map[string]struct{})
	for _, op := range ops {
		for _, m := range op.methods {
			set[m] = struct{}{}
		}
	}
	union := make([]string, 0, len(set))
	for m := range set {
		union = append(union, m)
	}
	slices.Sort(union)
	return union
}

// handlerNames returns the handler names of ops, in order.
func handlerNames(ops []*Operation) []string {
	names := make([]string, len(ops))
	for i, op := range ops {
		names[i] = op.handlerName
	}
	return names
}
