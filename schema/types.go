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

import (
	"reflect"
	"slices"
)

// Of returns the reflect.Type of T. It is the canonical way to write a
// schema annotation:
//
//	op.SetResponse(schema.Of[User]())
func Of[T any]() reflect.Type {
	return reflect.TypeOf((*T)(nil)).Elem()
}

// Register places T into the registry using T's own package path and type
// name. T's package must follow the versioned schema layout (a "latest"
// template package or a "v2021_01_01" sibling).
func Register[T any](r *Registry) error {
	t := Of[T]()
	if t.PkgPath() == "" || t.Name() == "" {
		return ErrUnnamedType
	}
	return r.RegisterType(t.PkgPath(), t.Name(), t)
}

// MustRegister is like Register but panics on error.
func MustRegister[T any](r *Registry) {
	if err := Register[T](r); err != nil {
		panic(err)
	}
}

// RegisterAs places T into the registry under an explicit package path and
// name, for types whose Go package does not follow the schema layout.
func RegisterAs[T any](r *Registry, pkgPath, name string) error {
	return r.RegisterType(pkgPath, name, Of[T]())
}

// MustRegisterAs is like RegisterAs but panics on error.
func MustRegisterAs[T any](r *Registry, pkgPath, name string) {
	if err := RegisterAs[T](r, pkgPath, name); err != nil {
		panic(err)
	}
}

// RegisterInternal records Internal as the internal representation of the
// template type Public. Public must already be registered in the template
// package.
func RegisterInternal[Public, Internal any](r *Registry) error {
	return r.SetInternal(Of[Public](), Of[Internal]())
}

// MustRegisterInternal is like RegisterInternal but panics on error.
func MustRegisterInternal[Public, Internal any](r *Registry) {
	if err := RegisterInternal[Public, Internal](r); err != nil {
		panic(err)
	}
}

// Union is an annotation naming several alternative schema types, the
// equivalent of a oneOf in a document schema. Version resolution rewrites
// each member independently.
type Union struct {
	members []any
}

// OneOf builds a Union annotation from its member annotations.
func OneOf(members ...any) *Union {
	return &Union{members: slices.Clone(members)}
}

// Members returns the member annotations.
// The returned slice must not be modified.
func (u *Union) Members() []any {
	return u.members
}
