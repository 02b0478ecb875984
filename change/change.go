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

import "fmt"

// Instruction is one declarative piece of a version change: an endpoint
// instruction or a data migration. Instructions are built with the Endpoint
// builder and the RequestToNextVersion / ResponseToPreviousVersion family
// and passed to NewChange.
type Instruction interface {
	addTo(c *Change)
}

// Change is a named version change: the full difference between one version
// and the version immediately before it. The name appears in every error
// raised while applying the change, so it should identify the change the way
// a commit subject would, for example "RemoveAddressFromUsers".
type Change struct {
	name        string
	description string
	endpoints   []*EndpointInstruction
	requests    []*RequestInstruction
	responses   []*ResponseInstruction
}

// NewChange builds a version change from its name, a human description of
// why the API changed, and any number of instructions.
func NewChange(name, description string, instructions ...Instruction) *Change {
	c := &Change{name: name, description: description}
	for _, ins := range instructions {
		if ins != nil {
			ins.addTo(c)
		}
	}
	return c
}

// Name returns the change name.
func (c *Change) Name() string {
	return c.name
}

// Description returns the human description of the change.
func (c *Change) Description() string {
	return c.description
}

// EndpointInstructions returns the structural endpoint instructions of the
// change in declaration order.
func (c *Change) EndpointInstructions() []*EndpointInstruction {
	return c.endpoints
}

// RequestInstructions returns the request migrations of the change.
func (c *Change) RequestInstructions() []*RequestInstruction {
	return c.requests
}

// ResponseInstructions returns the response migrations of the change.
func (c *Change) ResponseInstructions() []*ResponseInstruction {
	return c.responses
}

func (c *Change) validate() error {
	if c.name == "" {
		return ErrEmptyChangeName
	}
	if c.description == "" {
		return wrapChange(c.name, ErrEmptyChangeDescription)
	}
	for _, ins := range c.endpoints {
		if err := ins.validate(); err != nil {
			return wrapChange(c.name, err)
		}
	}
	for _, ins := range c.requests {
		if err := ins.validate(); err != nil {
			return wrapChange(c.name, err)
		}
	}
	for _, ins := range c.responses {
		if err := ins.validate(); err != nil {
			return wrapChange(c.name, err)
		}
	}
	return nil
}

func wrapChange(name string, err error) error {
	return fmt.Errorf("change %q: %w", name, err)
}
