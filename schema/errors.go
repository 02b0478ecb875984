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

package schema

import "errors"

// Static errors for registry configuration and lookup.
// These errors should be wrapped with fmt.Errorf and %w when context is needed.
var (
	// ErrTemplateNotPackage indicates that the template path is not a package path.
	ErrTemplateNotPackage = errors.New("template must be a package path")

	// ErrTemplateNotLatest indicates that the template package is not named "latest".
	ErrTemplateNotLatest = errors.New(`template package must be named "latest"`)

	// ErrOutsideSchemaTree indicates that a package path is not a sibling of the template package.
	ErrOutsideSchemaTree = errors.New("package is outside the versioned schema tree")

	// ErrPackageNotDeclared indicates that a versioned schema package was never declared.
	ErrPackageNotDeclared = errors.New("versioned schema package does not exist")

	// ErrTypeAlreadyRegistered indicates that a type or type name was registered twice.
	ErrTypeAlreadyRegistered = errors.New("type already registered")

	// ErrUnnamedType indicates an attempt to register an unnamed type.
	ErrUnnamedType = errors.New("schema types must be named types")

	// ErrNotInTemplate indicates that a versioned type has no definition in the template package.
	ErrNotInTemplate = errors.New("type is not defined in the template package")

	// ErrInternalUnregistered indicates an internal representation for a type
	// that is not registered in the template package.
	ErrInternalUnregistered = errors.New("internal representation target is not a template type")
)
