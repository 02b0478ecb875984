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

// Package schema maps request and response types across API versions.
//
// An application authors its schema types once, in a package named "latest"
// (the template package). Versions that changed a type declare their own
// sibling package, named after the version date ("v2021_01_01"), holding a
// type of the same name. The Registry records which type lives where and
// resolves "the 2021-01-01 shape of User" during version generation.
//
// # Layout Contract
//
// All versioned schema packages share one parent:
//
//	example.com/petstore/schemas/latest       ← template, authored by hand
//	example.com/petstore/schemas/v2021_01_01  ← only the types that differ
//	example.com/petstore/schemas/v2000_01_01
//
// A version package only declares the types that changed in that version;
// every other lookup falls back to the template definition. A version with
// no changed types still has to be declared, either by registering a type
// in it or with DeclarePackage, so that a typo in a version date fails
// generation instead of silently resolving to the template.
//
// # Registering Types
//
//	reg := schema.MustNewRegistry("example.com/petstore/schemas/latest")
//	schema.MustRegister[latest.User](reg)
//	schema.MustRegister[v2000.User](reg)  // same type name, older package
//
// Register infers the package path and type name through reflection.
// RegisterAs places a type explicitly, for types whose Go package does not
// follow the layout contract (generated code, test fixtures).
//
// # Annotations
//
// Handlers and operations refer to schema types through reflect.Type
// annotations, written as schema.Of[T](). Of is also how migrations name
// their target types.
package schema
