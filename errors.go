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
	"errors"
	"fmt"
	"strings"
)

// Static errors raised during version generation. Generation fails fast:
// the first error aborts the run and no partial result is returned.
// These errors should be wrapped with fmt.Errorf and %w when context is needed.
var (
	// ErrHandlerNotFound indicates that no registered route uses the given handler.
	ErrHandlerNotFound = errors.New("no route registered for handler")

	// ErrAlreadyDeleted indicates that a route was marked as deleted twice.
	ErrAlreadyDeleted = errors.New("route is already marked as deleted")

	// ErrAlreadyExisted indicates that a restore instruction targeted a route
	// that is still active in a newer version.
	ErrAlreadyExisted = errors.New("route already exists in a newer version")

	// ErrRouteConflict indicates that two routes share a path and method set.
	ErrRouteConflict = errors.New("two routes share a path and methods")

	// ErrEndpointUnmatched indicates that an endpoint instruction covered
	// methods no route carries.
	ErrEndpointUnmatched = errors.New("endpoint instruction matched no routes")

	// ErrAttributeUnchanged indicates that an endpoint "had" instruction set
	// an attribute to the value it already has.
	ErrAttributeUnchanged = errors.New("endpoint attribute is already identical")

	// ErrNeverRestored indicates that a route marked with
	// OnlyExistsInOlderVersions was not restored by any version change.
	ErrNeverRestored = errors.New("deleted route was never restored")

	// ErrInvalidHandler indicates that a versioned route was registered with
	// something other than an evolve.HandlerFunc.
	ErrInvalidHandler = errors.New("versioned endpoints must be registered with an evolve handler")

	// ErrRouteOrderChanged indicates that the operations of a generated
	// version no longer line up with the latest operations.
	ErrRouteOrderChanged = errors.New("route order changed between versions")

	// ErrNoOperations indicates that generation was asked to version an
	// empty router.
	ErrNoOperations = errors.New("router has no operations")

	// ErrDecodeBody indicates that a request body could not be decoded.
	ErrDecodeBody = errors.New("cannot decode request body")

	// ErrMigrationFailed indicates that a request or response migration
	// returned an error at request time.
	ErrMigrationFailed = errors.New("migration failed")

	// ErrInternal indicates a broken internal invariant. Seeing it means a
	// bug in this package, not in the caller's configuration.
	ErrInternal = errors.New("internal invariant violated")
)

// RouteConflictError reports two operations that are indistinguishable by
// path and method set. Use change.Endpoint(...).ForHandler to tell such
// routes apart in version changes.
type RouteConflictError struct {
	First  *Operation
	Second *Operation
}

func (e *RouteConflictError) Error() string {
	return fmt.Sprintf("%v: %q and %q both register [%s] %s",
		ErrRouteConflict, e.First.HandlerName(), e.Second.HandlerName(),
		strings.Join(e.First.Methods(), ","), e.First.Path())
}

func (e *RouteConflictError) Unwrap() error {
	return ErrRouteConflict
}

// InternalError reports a broken internal invariant together with the
// operation it was detected on.
type InternalError struct {
	Op     *Operation
	Reason string
}

func (e *InternalError) Error() string {
	if e.Op == nil {
		return fmt.Sprintf("%v: %s", ErrInternal, e.Reason)
	}
	return fmt.Sprintf("%v: %s (route [%s] %s)",
		ErrInternal, e.Reason, strings.Join(e.Op.Methods(), ","), e.Op.Path())
}

func (e *InternalError) Unwrap() error {
	return ErrInternal
}
