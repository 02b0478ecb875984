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
	"sort"
	"strings"

	"rivaas.dev/evolve/change"
)

// applyVersionChanges applies every endpoint instruction carried by ver to
// ops, mutating the slice elements in place. ops represents the surface of
// the version directly older than ver, so instructions are interpreted
// newest-to-oldest: DidntExist hides a route, Existed brings a marked route
// back, Had rewrites route attributes.
func (t *transformer) applyVersionChanges(ops []*Operation, ver *change.Version) error {
	for _, vc := range ver.Changes() {
		for _, ins := range vc.EndpointInstructions() {
			if err := t.applyEndpointInstruction(ops, vc, ins); err != nil {
				return fmt.Errorf("version %s: %w", ver.Date(), err)
			}
		}
	}
	return nil
}

// applyEndpointInstruction dispatches a single instruction and verifies that
// every method it names was actually covered by a matching route.
func (t *transformer) applyEndpointInstruction(ops []*Operation, vc *change.Change, ins *change.EndpointInstruction) error {
	covered := make(map[string]struct{})

	var err error
	switch ins.Kind() {
	case change.KindDidntExist:
		err = t.deleteEndpoint(ops, vc, ins, covered)
	case change.KindExisted:
		err = t.restoreEndpoint(ops, vc, ins, covered)
	case change.KindHad:
		err = t.alterEndpoint(ops, vc, ins, covered)
	default:
		return &InternalError{Reason: fmt.Sprintf("unknown endpoint instruction kind %d", ins.Kind())}
	}
	if err != nil {
		return err
	}

	if missing := uncoveredMethods(ins.Methods(), covered); len(missing) > 0 {
		return unmatchedError(ins, vc, missing)
	}
	return nil
}

// deleteEndpoint handles DidntExist: the matched routes become invisible in
// this and all older versions until an Existed instruction restores them.
func (t *transformer) deleteEndpoint(ops []*Operation, vc *change.Change, ins *change.EndpointInstruction, covered map[string]struct{}) error {
	deleted := findOperations(ops, ins.Path(), ins.Methods(), ins.HandlerName(), true)
	if len(deleted) > 0 {
		return fmt.Errorf(
			"endpoint \"[%s] %s\" you tried to delete in %q was already deleted in a newer version; "+
				"if the route was registered twice, use change.Endpoint(...).ForHandler to tell the copies apart "+
				"(deleted handlers: %s): %w",
			strings.Join(methodUnion(deleted), ","), ins.Path(), vc.Name(),
			strings.Join(handlerNames(deleted), ", "), ErrAlreadyDeleted,
		)
	}

	active := findOperations(ops, ins.Path(), ins.Methods(), ins.HandlerName(), false)
	for _, op := range active {
		markCovered(covered, op.methods)
		op.markDeleted()
	}
	return nil
}

// restoreEndpoint handles Existed: a route marked with
// OnlyExistsInOlderVersions reappears from this version backwards.
func (t *transformer) restoreEndpoint(ops []*Operation, vc *change.Change, ins *change.EndpointInstruction, covered map[string]struct{}) error {
	active := findOperations(ops, ins.Path(), ins.Methods(), ins.HandlerName(), false)
	if len(active) > 0 {
		return fmt.Errorf(
			"endpoint \"[%s] %s\" you tried to restore in %q already exists in a newer version "+
				"(active handlers: %s): %w",
			strings.Join(methodUnion(active), ","), ins.Path(), vc.Name(),
			strings.Join(handlerNames(active), ", "), ErrAlreadyExisted,
		)
	}

	deleted := findOperations(ops, ins.Path(), ins.Methods(), ins.HandlerName(), true)
	if err := validateNoDuplicates(deleted); err != nil {
		return fmt.Errorf(
			"endpoint \"[%s] %s\" you tried to restore in %q matches several deleted routes; "+
				"use change.Endpoint(...).ForHandler to tell them apart: %w",
			strings.Join(ins.Methods(), ","), ins.Path(), vc.Name(), err,
		)
	}

	for _, op := range deleted {
		markCovered(covered, op.methods)
		op.unmarkDeleted()
		if err := t.consumeRestored(op, vc, ins); err != nil {
			return err
		}
	}
	return nil
}

// consumeRestored crosses the restored route off the never-restored ledger
// that transform seeds from the latest router's deleted routes.
func (t *transformer) consumeRestored(op *Operation, vc *change.Change, ins *change.EndpointInstruction) error {
	matches := findOperations(t.neverRestored, op.path, op.methods, op.handlerName, true)
	switch len(matches) {
	case 0:
		return nil
	case 1:
		t.neverRestored = removeOperation(t.neverRestored, matches[0])
		return nil
	default:
		return fmt.Errorf(
			"endpoint \"[%s] %s\" you tried to restore in %q maps onto %d routes that share a path and "+
				"handler name; rename the handler functions so each route can be tracked separately: %w",
			strings.Join(ins.Methods(), ","), ins.Path(), vc.Name(), len(matches), ErrRouteConflict,
		)
	}
}

// alterEndpoint handles Had: each attribute must genuinely change value,
// otherwise the instruction is redundant and generation fails.
func (t *transformer) alterEndpoint(ops []*Operation, vc *change.Change, ins *change.EndpointInstruction, covered map[string]struct{}) error {
	active := findOperations(ops, ins.Path(), ins.Methods(), ins.HandlerName(), false)
	for _, op := range active {
		markCovered(covered, op.methods)
		for _, attr := range ins.Attrs() {
			if err := applyEndpointAttr(op, vc, attr); err != nil {
				return err
			}
		}
	}
	return nil
}

// applyEndpointAttr sets one attribute on op, rejecting no-op assignments.
func applyEndpointAttr(op *Operation, vc *change.Change, attr change.EndpointAttr) error {
	current, err := endpointAttrValue(op, attr.Field())
	if err != nil {
		return err
	}
	if attrEqual(current, attr.Value()) {
		return fmt.Errorf(
			"attribute %q of endpoint \"[%s] %s\" was expected to be different in %q, but it was the same; "+
				"the instruction has no effect and must be removed: %w",
			attr.Field(), strings.Join(op.methods, ","), op.path, vc.Name(), ErrAttributeUnchanged,
		)
	}
	return setEndpointAttr(op, attr.Field(), attr.Value())
}

// endpointAttrValue reads the current value of a changeable route attribute.
func endpointAttrValue(op *Operation, field string) (any, error) {
	op.mu.Lock()
	defer op.mu.Unlock()
	switch field {
	case "path":
		return op.path, nil
	case "name":
		return op.name, nil
	case "summary":
		return op.summary, nil
	case "description":
		return op.description, nil
	case "status":
		return op.status, nil
	case "deprecated":
		return op.deprecated, nil
	case "tags":
		return op.visibleTags(), nil
	case "response":
		return op.response, nil
	default:
		return nil, &InternalError{Op: op, Reason: fmt.Sprintf("unknown endpoint attribute %q", field)}
	}
}

// setEndpointAttr writes one changeable route attribute. The value types are
// fixed by the change.EndpointAttr constructors.
func setEndpointAttr(op *Operation, field string, value any) error {
	switch field {
	case "path":
		op.SetPath(value.(string))
	case "name":
		op.SetName(value.(string))
	case "summary":
		op.SetSummary(value.(string))
	case "description":
		op.SetDescription(value.(string))
	case "status":
		op.SetStatus(value.(int))
	case "deprecated":
		op.SetDeprecated(value.(bool))
	case "tags":
		op.SetTags(value.([]string)...)
	case "response":
		op.SetResponse(value)
	default:
		return &InternalError{Op: op, Reason: fmt.Sprintf("unknown endpoint attribute %q", field)}
	}
	return nil
}

// attrEqual reports whether an attribute assignment would be a no-op.
// reflect.DeepEqual covers strings, ints, bools, tag slices, and annotation
// values alike; reflect.Type annotations compare by identity underneath.
func attrEqual(current, next any) bool {
	return reflect.DeepEqual(current, next)
}

// markCovered records the methods of a matched route.
func markCovered(covered map[string]struct{}, methods []string) {
	for _, m := range methods {
		covered[m] = struct{}{}
	}
}

// uncoveredMethods returns the instruction methods no matched route served,
// sorted for stable error output.
func uncoveredMethods(requested []string, covered map[string]struct{}) []string {
	var missing []string
	for _, m := range requested {
		if _, ok := covered[m]; !ok {
			missing = append(missing, m)
		}
	}
	sort.Strings(missing)
	return missing
}

// unmatchedError explains an instruction that had nothing to act on, with a
// kind-specific reason.
func unmatchedError(ins *change.EndpointInstruction, vc *change.Change, missing []string) error {
	var reason string
	switch ins.Kind() {
	case change.KindDidntExist:
		reason = "doesn't exist in a newer version"
	case change.KindExisted:
		reason = "wasn't among the deleted routes"
	default:
		reason = "doesn't exist"
	}
	return fmt.Errorf(
		"endpoint \"[%s] %s\" referenced in %q %s: %w",
		strings.Join(missing, ","), ins.Path(), vc.Name(), reason, ErrEndpointUnmatched,
	)
}

// removeOperation returns ops without the given element, preserving order.
func removeOperation(ops []*Operation, target *Operation) []*Operation {
	out := ops[:0]
	for _, op := range ops {
		if op != target {
			out = append(out, op)
		}
	}
	return out
}
