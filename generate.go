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
	"context"
	"fmt"
	"reflect"
	"slices"
	"strings"

	"rivaas.dev/evolve/change"
	"rivaas.dev/evolve/schema"
)

// Generate synthesizes one route collection per bundle version from the
// newest-version router. Walking the bundle newest to oldest, it rewrites
// every schema annotation into the matching version package, snapshots the
// collection, then applies that version's change instructions to derive the
// next older surface. Each generated route is wired with the migration chain
// that lifts caller-version requests to the newest shape and lowers newest
// responses back.
//
// Generation is all-or-nothing: any structural conflict, unmatched
// instruction, redundant instruction or consistency-check failure returns an
// error and no collections.
//
// Example:
//
//	generated, err := evolve.Generate(r, bundle, reg,
//	    evolve.WithLogger(log),
//	    evolve.WithMetrics(nil),
//	)
func Generate(r *Router, bundle *change.Bundle, reg *schema.Registry, opts ...Option) (*Generated, error) {
	if r == nil {
		return nil, fmt.Errorf("evolve: router must not be nil")
	}
	if bundle == nil {
		return nil, fmt.Errorf("evolve: bundle must not be nil")
	}
	if reg == nil {
		return nil, fmt.Errorf("evolve: schema registry must not be nil")
	}
	t := &transformer{
		router: r,
		bundle: bundle,
		reg:    reg,
		rw:     newRewriter(reg),
		cfg:    newConfig(opts...),
	}
	return t.transform()
}

// transformer carries the state of one generation run.
type transformer struct {
	router *Router
	bundle *change.Bundle
	reg    *schema.Registry
	rw     *rewriter
	cfg    *config

	// neverRestored tracks routes marked with OnlyExistsInOlderVersions
	// until an Existed instruction claims them. Anything left at the end of
	// the version walk is a configuration error.
	neverRestored []*Operation
}

func (t *transformer) transform() (*Generated, error) {
	latest := t.router.Operations()
	if len(latest) == 0 {
		return nil, ErrNoOperations
	}
	t.neverRestored = t.router.deletedOperations()

	versions := t.bundle.Versions()
	t.cfg.logger.Info("generating versioned routes",
		"versions", len(versions), "routes", len(latest))

	working := cloneOperations(latest)
	collections := make([]*Collection, 0, len(versions))
	byDate := make(map[change.Date]*Collection, len(versions))

	for i, ver := range versions {
		pkg := t.reg.VersionPackage(ver.Date().DirName())
		if !t.reg.Declared(pkg) {
			return nil, fmt.Errorf(
				"schema package %q for version %s does not exist; register its types or declare it with DeclarePackage: %w",
				pkg, ver.Date(), schema.ErrPackageNotDeclared,
			)
		}
		// The newest version must be annotated with the template schemas;
		// older versions may reference whatever their package defines.
		if err := t.rw.rewriteOperations(working, pkg, i == 0); err != nil {
			return nil, fmt.Errorf("version %s: %w", ver.Date(), err)
		}

		col := &Collection{date: ver.Date(), ops: working}
		collections = append(collections, col)
		byDate[col.date] = col
		t.cfg.logger.Debug("built route collection",
			"version", col.date.String(), "routes", len(working))

		working = cloneOperations(working)
		if err := t.applyVersionChanges(working, ver); err != nil {
			return nil, err
		}
	}

	if len(t.neverRestored) > 0 {
		return nil, neverRestoredError(t.neverRestored)
	}
	if err := t.wireMigrations(latest, collections); err != nil {
		return nil, err
	}

	for _, col := range collections {
		col.ops = activeOperations(col.ops)
		t.cfg.metrics.setGeneratedRoutes(col.date.String(), len(col.ops))
	}
	t.cfg.logger.Info("generated versioned routes", "versions", len(collections))
	return &Generated{
		bundle:      t.bundle,
		collections: collections,
		byDate:      byDate,
		cfg:         t.cfg,
	}, nil
}

// wireMigrations attaches a handler and migration chain to every operation
// of every collection. Operations correspond across collections by
// registration position; the identity check guards that assumption.
func (t *transformer) wireMigrations(latest []*Operation, collections []*Collection) error {
	for idx, latestOp := range latest {
		handler, err := normalizeHandler(latestOp)
		if err != nil {
			return err
		}

		var decodeTarget reflect.Type
		if bodyType, ok := latestOp.request.(reflect.Type); ok {
			decodeTarget = t.reg.InternalOr(bodyType)
		}
		responseKey, _ := latestOp.response.(reflect.Type)

		for _, col := range collections {
			op := col.ops[idx]
			if op.id != latestOp.id {
				return fmt.Errorf(
					"route at position %d of version %s is %q, expected %q: %w",
					idx, col.date, describeOperation(op), describeOperation(latestOp), ErrRouteOrderChanged,
				)
			}
			if op.chain != nil {
				return &InternalError{Op: op, Reason: "route already carries a migration chain"}
			}
			reqKey, err := t.requestMatchKey(op)
			if err != nil {
				return fmt.Errorf("version %s: route %s: %w", col.date, describeOperation(op), err)
			}
			op.setWrapped(handler, t.buildChain(col.date, op, reqKey, responseKey, decodeTarget))
		}
	}
	return nil
}

// requestMatchKey maps the operation's version-specific request annotation
// back to its template definition. Request migrations declare their target
// as a template type, so matching happens in template terms.
func (t *transformer) requestMatchKey(op *Operation) (reflect.Type, error) {
	ann, err := t.rw.rewrite(op.request, t.reg.TemplatePackage(), false)
	if err != nil {
		return nil, err
	}
	key, _ := ann.(reflect.Type)
	return key, nil
}

// buildChain collects the data migrations that apply to op when it serves
// version date. Request migrations run oldest to newest, lifting the body to
// the latest shape; response migrations run newest to oldest, lowering it
// back. Within a version, instructions keep their declaration order.
func (t *transformer) buildChain(date change.Date, op *Operation, reqKey, respKey, decodeTarget reflect.Type) *migrationChain {
	chain := &migrationChain{version: date, decodeTarget: decodeTarget}
	newer := t.bundle.VersionsAfter(date)

	for _, ver := range newer {
		for _, vc := range ver.Changes() {
			for _, ins := range vc.RequestInstructions() {
				if matchesRequest(ins, op, reqKey) {
					chain.requests = append(chain.requests, ins)
				}
			}
		}
	}
	for i := len(newer) - 1; i >= 0; i-- {
		for _, vc := range newer[i].Changes() {
			for _, ins := range vc.ResponseInstructions() {
				if matchesResponse(ins, op, respKey) {
					chain.responses = append(chain.responses, ins)
				}
			}
		}
	}
	return chain
}

// matchesRequest reports whether a request migration applies to op. Typed
// instructions match the operation's template request schema; path
// instructions match the served path, with the method filter applied per
// request at serve time.
func matchesRequest(ins *change.RequestInstruction, op *Operation, reqKey reflect.Type) bool {
	if ins.Target() != nil {
		return reqKey != nil && ins.Target() == reqKey
	}
	return ins.Path() == op.path
}

// matchesResponse reports whether a response migration applies to op. Typed
// instructions match the newest response annotation.
func matchesResponse(ins *change.ResponseInstruction, op *Operation, respKey reflect.Type) bool {
	if ins.Target() != nil {
		return respKey != nil && ins.Target() == respKey
	}
	return ins.Path() == op.path
}

// normalizeHandler checks that the registered handler is invocable as a
// HandlerFunc. Raw http.Handler values and arbitrary functions cannot be
// versioned: the wrapper needs the context-aware request/response signature.
func normalizeHandler(op *Operation) (HandlerFunc, error) {
	switch h := op.handler.(type) {
	case HandlerFunc:
		return h, nil
	case func(context.Context, *Request) (any, error):
		return h, nil
	case nil:
		return nil, fmt.Errorf("route %s has no handler: %w", describeOperation(op), ErrInvalidHandler)
	default:
		return nil, fmt.Errorf(
			"every versioned endpoint must be an evolve.HandlerFunc; handler %q of route %s is %T: %w",
			op.handlerName, describeOperation(op), op.handler, ErrInvalidHandler,
		)
	}
}

func neverRestoredError(ops []*Operation) error {
	descs := make([]string, len(ops))
	for i, op := range ops {
		descs[i] = fmt.Sprintf("%s (%s)", describeOperation(op), op.handlerName)
	}
	return fmt.Errorf(
		"every route marked with OnlyExistsInOlderVersions must be restored in an older version with change.Endpoint(...).Existed, or be deleted from the router altogether; never restored: %s: %w",
		strings.Join(descs, ", "), ErrNeverRestored,
	)
}

// describeOperation renders "[GET,HEAD] /users" for error messages.
func describeOperation(op *Operation) string {
	return fmt.Sprintf("\"[%s] %s\"", strings.Join(op.methods, ","), op.path)
}

// activeOperations filters out operations still marked as deleted.
func activeOperations(ops []*Operation) []*Operation {
	out := make([]*Operation, 0, len(ops))
	for _, op := range ops {
		if !op.Deleted() {
			out = append(out, op)
		}
	}
	return out
}

// Generated holds the synthesized per-version route collections, newest
// first, ready to be mounted on a rivaas router or served directly.
type Generated struct {
	bundle      *change.Bundle
	collections []*Collection
	byDate      map[change.Date]*Collection
	cfg         *config
}

// Collections returns every generated collection, newest version first.
// The returned slice must not be modified.
func (g *Generated) Collections() []*Collection {
	return g.collections
}

// Collection returns the route collection serving the given version date.
func (g *Generated) Collection(date change.Date) (*Collection, bool) {
	col, ok := g.byDate[date]
	return col, ok
}

// Versions returns the version dates, newest first.
func (g *Generated) Versions() []change.Date {
	return g.bundle.Dates()
}

// Collection is the complete route surface of one API version.
type Collection struct {
	date change.Date
	ops  []*Operation
}

// Date returns the version this collection serves.
func (c *Collection) Date() change.Date {
	return c.date
}

// Operations returns the routes of this version.
// The returned slice must not be modified.
func (c *Collection) Operations() []*Operation {
	return c.ops
}

// Find returns the operation serving method on path, or nil.
func (c *Collection) Find(method, path string) *Operation {
	method = normalizeMethod(method)
	for _, op := range c.ops {
		if op.Path() == path && slices.Contains(op.Methods(), method) {
			return op
		}
	}
	return nil
}
