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
	"fmt"
	"path"
	"reflect"
	"strings"
	"sync"
)

type typeKey struct {
	pkg  string
	name string
}

// Registry records where each versioned schema type is defined and resolves
// types across versions. It is safe for concurrent use; registration
// typically happens during program start, resolution during generation.
type Registry struct {
	template string
	root     string

	mu       sync.RWMutex
	packages map[string]struct{}
	byKey    map[typeKey]reflect.Type
	index    map[reflect.Type]typeKey
	internal map[reflect.Type]reflect.Type
}

// NewRegistry builds a registry rooted at the given template package path.
// The path must be a real package path whose last element is "latest":
//
//	reg, err := schema.NewRegistry("example.com/petstore/schemas/latest")
func NewRegistry(templatePkg string) (*Registry, error) {
	if !strings.Contains(templatePkg, "/") {
		return nil, fmt.Errorf("%w: %q", ErrTemplateNotPackage, templatePkg)
	}
	if path.Base(templatePkg) != "latest" {
		return nil, fmt.Errorf("%w: got %q", ErrTemplateNotLatest, templatePkg)
	}
	r := &Registry{
		template: templatePkg,
		root:     path.Dir(templatePkg),
		packages: map[string]struct{}{templatePkg: {}},
		byKey:    make(map[typeKey]reflect.Type),
		index:    make(map[reflect.Type]typeKey),
		internal: make(map[reflect.Type]reflect.Type),
	}
	return r, nil
}

// MustNewRegistry is like NewRegistry but panics on error.
func MustNewRegistry(templatePkg string) *Registry {
	r, err := NewRegistry(templatePkg)
	if err != nil {
		panic(err)
	}
	return r
}

// TemplatePackage returns the template ("latest") package path.
func (r *Registry) TemplatePackage() string {
	return r.template
}

// Root returns the common parent of all versioned schema packages.
func (r *Registry) Root() string {
	return r.root
}

// VersionPackage returns the package path of the version directory named
// dirName, for example VersionPackage("v2021_01_01").
func (r *Registry) VersionPackage(dirName string) string {
	return r.root + "/" + dirName
}

// DeclarePackage declares a versioned schema package that has no changed
// types of its own. Declaring is what makes a version date resolvable;
// registering a type in a package declares it implicitly.
func (r *Registry) DeclarePackage(pkgPath string) error {
	if err := r.validatePackage(pkgPath); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.packages[pkgPath] = struct{}{}
	return nil
}

// MustDeclarePackage is DeclarePackage that panics on error, for
// registration blocks in package init or main.
func (r *Registry) MustDeclarePackage(pkgPath string) {
	if err := r.DeclarePackage(pkgPath); err != nil {
		panic(err)
	}
}

// Declared reports whether pkgPath was declared, directly or by type
// registration.
func (r *Registry) Declared(pkgPath string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.packages[pkgPath]
	return ok
}

// RegisterType places a named type into a versioned schema package under an
// explicit name. Most callers should use the generic Register or RegisterAs
// instead.
func (r *Registry) RegisterType(pkgPath, name string, t reflect.Type) error {
	if t == nil || t.Name() == "" {
		return fmt.Errorf("%w: %v", ErrUnnamedType, t)
	}
	if name == "" {
		return fmt.Errorf("%w: empty name for %v", ErrUnnamedType, t)
	}
	if err := r.validatePackage(pkgPath); err != nil {
		return err
	}
	key := typeKey{pkg: pkgPath, name: name}

	r.mu.Lock()
	defer r.mu.Unlock()
	if existing, ok := r.byKey[key]; ok {
		return fmt.Errorf("%w: %q in %q is already %v", ErrTypeAlreadyRegistered, name, pkgPath, existing)
	}
	if prior, ok := r.index[t]; ok {
		return fmt.Errorf("%w: %v is already registered as %q in %q", ErrTypeAlreadyRegistered, t, prior.name, prior.pkg)
	}
	r.byKey[key] = t
	r.index[t] = key
	r.packages[pkgPath] = struct{}{}
	return nil
}

// DefiningPackage returns the schema package a type was registered in.
// The second result is false for types the registry does not know, which
// generation treats as unversioned.
func (r *Registry) DefiningPackage(t reflect.Type) (string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	key, ok := r.index[t]
	if !ok {
		return "", false
	}
	return key.pkg, true
}

// Resolve returns the definition of t in targetPkg.
//
// Types the registry does not know are returned unchanged: they are not
// versioned. A registered type resolves to the same-named type in
// targetPkg when one was registered there, and otherwise falls back to the
// template definition. Resolving against an undeclared package, or a type
// that exists only in an old version package and not in the template, is
// an error.
func (r *Registry) Resolve(t reflect.Type, targetPkg string) (reflect.Type, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	key, ok := r.index[t]
	if !ok {
		return t, nil
	}
	if key.pkg == targetPkg {
		return t, nil
	}
	if _, declared := r.packages[targetPkg]; !declared {
		return nil, fmt.Errorf("%w: %q", ErrPackageNotDeclared, targetPkg)
	}
	if found, ok := r.byKey[typeKey{pkg: targetPkg, name: key.name}]; ok {
		return found, nil
	}
	if tmpl, ok := r.byKey[typeKey{pkg: r.template, name: key.name}]; ok {
		return tmpl, nil
	}
	return nil, fmt.Errorf("%w: %q is defined in %q but not in %q",
		ErrNotInTemplate, key.name, key.pkg, r.template)
}

// SetInternal records an internal representation for a template type.
// Generated handlers decode migrated request bodies into the internal type
// instead of the public one, so that old request shapes that no longer
// satisfy the public type's validation can still be expressed.
func (r *Registry) SetInternal(public, internal reflect.Type) error {
	if public == nil || internal == nil || internal.Name() == "" {
		return fmt.Errorf("%w: %v", ErrUnnamedType, internal)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	key, ok := r.index[public]
	if !ok || key.pkg != r.template {
		return fmt.Errorf("%w: %v", ErrInternalUnregistered, public)
	}
	r.internal[public] = internal
	return nil
}

// InternalOr returns the internal representation of t, or t itself when
// none was registered.
func (r *Registry) InternalOr(t reflect.Type) reflect.Type {
	if t == nil {
		return nil
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	if internal, ok := r.internal[t]; ok {
		return internal
	}
	return t
}

func (r *Registry) validatePackage(pkgPath string) error {
	if pkgPath == r.template {
		return nil
	}
	rest, ok := strings.CutPrefix(pkgPath, r.root+"/")
	if !ok || rest == "" || strings.Contains(rest, "/") {
		return fmt.Errorf("%w: %q is not under %q", ErrOutsideSchemaTree, pkgPath, r.root)
	}
	if rest != "latest" && !isVersionDir(rest) {
		return fmt.Errorf("%w: %q is not a version directory name", ErrOutsideSchemaTree, rest)
	}
	return nil
}

// isVersionDir reports whether s has the "v2021_01_01" shape.
func isVersionDir(s string) bool {
	if len(s) != 11 || s[0] != 'v' || s[5] != '_' || s[8] != '_' {
		return false
	}
	for _, i := range []int{1, 2, 3, 4, 6, 7, 9, 10} {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}
