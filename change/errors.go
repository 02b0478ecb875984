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

import "errors"

// Static errors for bundle and instruction validation.
// These errors should be wrapped with fmt.Errorf and %w when context is needed.
var (
	// ErrInvalidDate indicates that a version date is not a real calendar date.
	ErrInvalidDate = errors.New("invalid version date")

	// ErrEmptyBundle indicates that a bundle was built without any versions.
	ErrEmptyBundle = errors.New("version bundle needs at least one version")

	// ErrUnorderedVersions indicates that bundle versions are not ordered newest to oldest.
	ErrUnorderedVersions = errors.New("bundle versions must be ordered newest to oldest")

	// ErrDuplicateVersion indicates that two bundle versions share a date.
	ErrDuplicateVersion = errors.New("duplicate version date in bundle")

	// ErrNilVersion indicates that a nil version was passed to a bundle.
	ErrNilVersion = errors.New("bundle version cannot be nil")

	// ErrEmptyChangeName indicates that a version change has no name.
	ErrEmptyChangeName = errors.New("version change name cannot be empty")

	// ErrEmptyChangeDescription indicates that a version change has no description.
	ErrEmptyChangeDescription = errors.New("version change description cannot be empty")

	// ErrEmptyEndpointPath indicates that an endpoint instruction has no path.
	ErrEmptyEndpointPath = errors.New("endpoint path cannot be empty")

	// ErrNoEndpointMethods indicates that an endpoint instruction lists no methods.
	ErrNoEndpointMethods = errors.New("endpoint instruction needs at least one method")

	// ErrNoEndpointAttrs indicates that an endpoint "had" instruction changes no attributes.
	ErrNoEndpointAttrs = errors.New(`endpoint "had" instruction needs at least one attribute`)

	// ErrNilMigration indicates that a migration instruction has a nil function.
	ErrNilMigration = errors.New("migration function cannot be nil")

	// ErrNilMigrationTarget indicates that a schema-targeted migration has a nil target type.
	ErrNilMigrationTarget = errors.New("migration target type cannot be nil")
)
