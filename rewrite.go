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
	"reflect"
	"strings"

	"rivaas.dev/evolve/schema"
)

// rewriter resolves every schema annotation of an operation to the types of
// one target version package. A rewriter lives for exactly one generation
// run; its memo is never shared across runs.
//
// The memo is not an optimization. Rewriting the same annotation twice must
// yield the same value, not two equal copies, so that annotation identity
// comparisons keep working inside a generated version.
type rewriter struct {
	reg  *schema.Registry
	memo map[rewriteKey]any
}

type rewriteKey struct {
	annotation any
	pkg        string
}

func newRewriter(reg *schema.Registry) *rewriter {
	return &rewriter{reg: reg, memo: make(map[rewriteKey]any)}
}

// rewriteOperations rewrites all annotated surfaces of ops to pkg.
// enforceTemplate additionally requires every versioned annotation to be
// defined in the template package; generation turns it on for the newest
// version, where the authored latest router is rewritten for the first
// time.
func (rw *rewriter) rewriteOperations(ops []*Operation, pkg string, enforceTemplate bool) error {
	for _, op := range ops {
		if err := rw.rewriteOperation(op, pkg, enforceTemplate); err != nil {
			return fmt.Errorf("route [%s] %s: %w", strings.Join(op.methods, ","), op.path, err)
		}
	}
	return nil
}

func (rw *rewriter) rewriteOperation(op *Operation, pkg string, enforce bool) error {
	if op.response != nil {
		response, err := rw.rewrite(op.response, pkg, enforce)
		if err != nil {
			return err
		}
		op.response = response
	}
	if op.request != nil {
		request, err := rw.rewrite(op.request, pkg, enforce)
		if err != nil {
			return err
		}
		op.request = request
	}
	for i, p := range op.params {
		rebuilt, err := rw.rewriteParam(p, pkg, enforce)
		if err != nil {
			return err
		}
		op.params[i] = rebuilt
	}
	for i, d := range op.dependencies {
		rebuilt, err := rw.rewrite(d, pkg, enforce)
		if err != nil {
			return err
		}
		op.dependencies[i] = rebuilt.(*Dependency)
	}
	for _, cb := range op.callbacks {
		if err := rw.rewriteOperation(cb, pkg, enforce); err != nil {
			return err
		}
	}
	return nil
}

// rewrite resolves one annotation to pkg. Containers are rebuilt with each
// element rewritten; everything else goes through the memoized leaf path.
func (rw *rewriter) rewrite(annotation any, pkg string, enforce bool) (any, error) {
	switch v := annotation.(type) {
	case nil:
		return nil, nil
	case map[string]any:
		rebuilt := make(map[string]any, len(v))
		for key, value := range v {
			rewritten, err := rw.rewrite(value, pkg, enforce)
			if err != nil {
				return nil, err
			}
			rebuilt[key] = rewritten
		}
		return rebuilt, nil
	case []any:
		rebuilt := make([]any, len(v))
		for i, value := range v {
			rewritten, err := rw.rewrite(value, pkg, enforce)
			if err != nil {
				return nil, err
			}
			rebuilt[i] = rewritten
		}
		return rebuilt, nil
	default:
		return rw.rewriteLeaf(annotation, pkg, enforce)
	}
}

func (rw *rewriter) rewriteLeaf(annotation any, pkg string, enforce bool) (any, error) {
	key := rewriteKey{annotation: annotation, pkg: pkg}
	memoizable := reflect.TypeOf(annotation).Comparable()
	if memoizable {
		if cached, ok := rw.memo[key]; ok {
			return cached, nil
		}
	}

	rewritten, err := rw.rewriteLeafUncached(annotation, pkg, enforce)
	if err != nil {
		return nil, err
	}
	if memoizable {
		rw.memo[key] = rewritten
	}
	return rewritten, nil
}

func (rw *rewriter) rewriteLeafUncached(annotation any, pkg string, enforce bool) (any, error) {
	switch v := annotation.(type) {
	case reflect.Type:
		return rw.rewriteType(v, pkg, enforce)
	case *Dependency:
		provider, err := rw.rewriteProvider(v.provider, pkg, enforce)
		if err != nil {
			return nil, err
		}
		return &Dependency{provider: provider, useCache: v.useCache}, nil
	case *Provider:
		return rw.rewriteProvider(v, pkg, enforce)
	case *schema.Union:
		members := v.Members()
		rebuilt := make([]any, len(members))
		for i, m := range members {
			rewritten, err := rw.rewrite(m, pkg, enforce)
			if err != nil {
				return nil, err
			}
			rebuilt[i] = rewritten
		}
		return schema.OneOf(rebuilt...), nil
	default:
		// Plain values: defaults, markers, anything that is not a schema
		// reference. They mean the same thing in every version.
		return annotation, nil
	}
}

// rewriteType resolves a reflect.Type annotation. Named registered types go
// through the registry; composite types are rebuilt around their rewritten
// element types; everything else is not versioned and passes through.
func (rw *rewriter) rewriteType(t reflect.Type, pkg string, enforce bool) (reflect.Type, error) {
	if t == nil {
		return nil, nil
	}
	if _, registered := rw.reg.DefiningPackage(t); registered {
		return rw.resolveNamed(t, pkg, enforce)
	}
	switch t.Kind() {
	case reflect.Slice:
		elem, err := rw.rewriteType(t.Elem(), pkg, enforce)
		if err != nil {
			return nil, err
		}
		return reflect.SliceOf(elem), nil
	case reflect.Array:
		elem, err := rw.rewriteType(t.Elem(), pkg, enforce)
		if err != nil {
			return nil, err
		}
		return reflect.ArrayOf(t.Len(), elem), nil
	case reflect.Map:
		key, err := rw.rewriteType(t.Key(), pkg, enforce)
		if err != nil {
			return nil, err
		}
		elem, err := rw.rewriteType(t.Elem(), pkg, enforce)
		if err != nil {
			return nil, err
		}
		return reflect.MapOf(key, elem), nil
	case reflect.Pointer:
		elem, err := rw.rewriteType(t.Elem(), pkg, enforce)
		if err != nil {
			return nil, err
		}
		return reflect.PointerTo(elem), nil
	default:
		// Interfaces, unregistered named types, and primitives are
		// semantically opaque: they mean the same thing in every version.
		return t, nil
	}
}

func (rw *rewriter) resolveNamed(t reflect.Type, pkg string, enforce bool) (reflect.Type, error) {
	if enforce {
		if def, ok := rw.reg.DefiningPackage(t); ok && def != rw.reg.TemplatePackage() {
			return nil, fmt.Errorf(
				"%w: %v is defined in %q even though it must come from %q; annotate routes with the latest schemas",
				schema.ErrNotInTemplate, t, def, rw.reg.TemplatePackage())
		}
	}
	return rw.reg.Resolve(t, pkg)
}

func (rw *rewriter) rewriteParam(p *Param, pkg string, enforce bool) (*Param, error) {
	annotation, err := rw.rewrite(p.annotation, pkg, enforce)
	if err != nil {
		return nil, err
	}
	rebuilt := &Param{name: p.name, in: p.in, annotation: annotation}
	if p.hasDefault {
		def, err := rw.rewrite(p.def, pkg, enforce)
		if err != nil {
			return nil, err
		}
		rebuilt.def = def
		rebuilt.hasDefault = true
	}
	return rebuilt, nil
}

// rewriteProvider rebuilds a provider with rewritten parameter annotations
// and defaults. The function value, name, and parameter order are kept
// exactly as declared.
func (rw *rewriter) rewriteProvider(p *Provider, pkg string, enforce bool) (*Provider, error) {
	if p == nil {
		return nil, nil
	}
	params := make([]*Param, len(p.params))
	for i, param := range p.params {
		rebuilt, err := rw.rewriteParam(param, pkg, enforce)
		if err != nil {
			return nil, err
		}
		params[i] = rebuilt
	}
	return &Provider{name: p.name, fn: p.fn, params: params}, nil
}
