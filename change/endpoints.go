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

import "slices"

// EndpointKind discriminates the three structural endpoint instructions.
type EndpointKind uint8

const (
	// KindDidntExist marks an endpoint as absent in this version and all
	// older versions.
	KindDidntExist EndpointKind = iota + 1

	// KindExisted restores an endpoint that only exists in this version
	// and older versions.
	KindExisted

	// KindHad rewrites endpoint metadata for this version and older
	// versions.
	KindHad
)

// String returns the builder call the kind corresponds to.
func (k EndpointKind) String() string {
	switch k {
	case KindDidntExist:
		return "DidntExist"
	case KindExisted:
		return "Existed"
	case KindHad:
		return "Had"
	default:
		return "Unknown"
	}
}

// EndpointTarget selects the endpoint an instruction applies to.
// Build one with Endpoint, optionally narrow it with ForHandler, then
// finish it with DidntExist, Existed or Had.
type EndpointTarget struct {
	path        string
	methods     []string
	handlerName string
}

// Endpoint starts an endpoint instruction for the route registered under
// path with the given methods. Methods are matched as a set: the
// instruction covers every route whose method set is a subset of methods.
//
// Example:
//
//	change.Endpoint("/users", "GET", "HEAD").DidntExist()
func Endpoint(path string, methods ...string) *EndpointTarget {
	return &EndpointTarget{path: path, methods: normalizeMethods(methods)}
}

// ForHandler narrows the target to routes registered with the named handler
// function. Use it when two routes share a path and methods and only the
// handler name tells them apart.
func (t *EndpointTarget) ForHandler(name string) *EndpointTarget {
	t.handlerName = name
	return t
}

// DidntExist declares that the endpoint did not exist in this version or
// any older version. Applying it deletes the endpoint from the generated
// routes of this version and below.
func (t *EndpointTarget) DidntExist() Instruction {
	return &EndpointInstruction{kind: KindDidntExist, target: *t}
}

// Existed declares that an endpoint previously marked with
// OnlyExistsInOlderVersions existed in this version and all older versions.
// Applying it restores the endpoint in the generated routes of this version
// and below.
func (t *EndpointTarget) Existed() Instruction {
	return &EndpointInstruction{kind: KindExisted, target: *t}
}

// Had declares that the endpoint had different metadata in this version and
// all older versions. Every attribute must actually differ from the newer
// value; an attribute that is already the same is a configuration error.
func (t *EndpointTarget) Had(attrs ...EndpointAttr) Instruction {
	return &EndpointInstruction{kind: KindHad, target: *t, attrs: slices.Clone(attrs)}
}

// EndpointInstruction is a finished structural endpoint instruction.
type EndpointInstruction struct {
	kind   EndpointKind
	target EndpointTarget
	attrs  []EndpointAttr
}

func (i *EndpointInstruction) addTo(c *Change) {
	c.endpoints = append(c.endpoints, i)
}

// Kind returns which of the three instructions this is.
func (i *EndpointInstruction) Kind() EndpointKind {
	return i.kind
}

// Path returns the endpoint path the instruction targets.
func (i *EndpointInstruction) Path() string {
	return i.target.path
}

// Methods returns the HTTP methods the instruction targets, upper-cased.
// The returned slice must not be modified.
func (i *EndpointInstruction) Methods() []string {
	return i.target.methods
}

// HandlerName returns the handler-name narrowing, or "" when unset.
func (i *EndpointInstruction) HandlerName() string {
	return i.target.handlerName
}

// Attrs returns the attribute rewrites of a Had instruction.
func (i *EndpointInstruction) Attrs() []EndpointAttr {
	return i.attrs
}

func (i *EndpointInstruction) validate() error {
	if i.target.path == "" {
		return ErrEmptyEndpointPath
	}
	if len(i.target.methods) == 0 {
		return ErrNoEndpointMethods
	}
	if i.kind == KindHad && len(i.attrs) == 0 {
		return ErrNoEndpointAttrs
	}
	return nil
}

// EndpointAttr is one metadata attribute rewritten by an Endpoint(...).Had
// instruction, built with Path, Name, Summary, Description, Status,
// Deprecated, Tags or Response.
type EndpointAttr struct {
	field string
	value any
}

// Field returns the attribute name, for example "status".
func (a EndpointAttr) Field() string {
	return a.field
}

// Value returns the older value of the attribute.
func (a EndpointAttr) Value() any {
	return a.value
}

// Path declares that the endpoint was registered under a different path.
func Path(path string) EndpointAttr {
	return EndpointAttr{field: "path", value: path}
}

// Name declares that the endpoint had a different name.
func Name(name string) EndpointAttr {
	return EndpointAttr{field: "name", value: name}
}

// Summary declares that the endpoint had a different summary.
func Summary(summary string) EndpointAttr {
	return EndpointAttr{field: "summary", value: summary}
}

// Description declares that the endpoint had a different description.
func Description(description string) EndpointAttr {
	return EndpointAttr{field: "description", value: description}
}

// Status declares that the endpoint responded with a different success
// status code.
func Status(code int) EndpointAttr {
	return EndpointAttr{field: "status", value: code}
}

// Deprecated declares that the endpoint had a different deprecation state.
func Deprecated(deprecated bool) EndpointAttr {
	return EndpointAttr{field: "deprecated", value: deprecated}
}

// Tags declares that the endpoint carried different documentation tags.
func Tags(tags ...string) EndpointAttr {
	return EndpointAttr{field: "tags", value: slices.Clone(tags)}
}

// Response declares that the endpoint returned a different response model.
// The value is a schema annotation, typically schema.Of[T]().
func Response(annotation any) EndpointAttr {
	return EndpointAttr{field: "response", value: annotation}
}
