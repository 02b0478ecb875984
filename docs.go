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

	"rivaas.dev/openapi"

	"rivaas.dev/evolve/change"
)

// DocOperations describes this collection's routes as openapi operations.
// Schema annotations are the version-specific types, so each version
// documents the shapes it actually speaks.
func (c *Collection) DocOperations() []openapi.Operation {
	ops := make([]openapi.Operation, 0, len(c.ops))
	for _, op := range c.ops {
		for _, method := range op.Methods() {
			ops = append(ops, docOperation(method, op))
		}
	}
	return ops
}

// Doc generates the OpenAPI document of one version. Callers can override
// the default title and add servers, tags or security schemes through
// openapi options.
//
// Example:
//
//	result, err := g.Doc(ctx, date, openapi.WithTitle("Orders API", date.String()))
//	os.WriteFile("openapi.json", result.JSON, 0o644)
func (g *Generated) Doc(ctx context.Context, date change.Date, opts ...openapi.Option) (*openapi.Result, error) {
	col, ok := g.byDate[date]
	if !ok {
		return nil, fmt.Errorf("no generated collection for version %s", date)
	}
	defaults := []openapi.Option{openapi.WithTitle("API", date.String())}
	api, err := openapi.New(append(defaults, opts...)...)
	if err != nil {
		return nil, err
	}
	return api.Generate(ctx, col.DocOperations()...)
}

func docOperation(method string, op *Operation) openapi.Operation {
	var opts []openapi.OperationOption
	if summary := op.Summary(); summary != "" {
		opts = append(opts, openapi.WithSummary(summary))
	}
	if desc := op.Description(); desc != "" {
		opts = append(opts, openapi.WithDescription(desc))
	}
	if name := op.Name(); name != "" {
		opts = append(opts, openapi.WithOperationID(name))
	}
	if tags := op.Tags(); len(tags) > 0 {
		opts = append(opts, openapi.WithTags(tags...))
	}
	if op.Deprecated() {
		opts = append(opts, openapi.WithDeprecated())
	}
	if instance, ok := materialize(op.Request()); ok {
		opts = append(opts, openapi.WithRequest(instance))
	}
	if instance, ok := materialize(op.Response()); ok {
		opts = append(opts, openapi.WithResponse(op.Status(), instance))
	}
	return openapi.Op(method, op.Path(), opts...)
}

// materialize turns a reflect.Type annotation into the zero-value instance
// the openapi builder expects. Non-type annotations have no schema to
// document.
func materialize(annotation any) (any, bool) {
	t, ok := annotation.(reflect.Type)
	if !ok || t == nil {
		return nil, false
	}
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	return reflect.New(t).Elem().Interface(), true
}
