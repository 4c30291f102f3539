// Package capability defines the closed interface between agents and the
// actions they can take, plus a registry for looking capabilities up by name.
package capability

import (
	"context"
	"encoding/json"
	"fmt"
)

// Property describes a single argument in a capability schema.
type Property struct {
	Type        string `json:"type"`
	Description string `json:"description,omitempty"`
	// Items is set when Type is "array".
	Items *Property `json:"items,omitempty"`
	// Enum restricts string arguments to a fixed set of values.
	Enum []string `json:"enum,omitempty"`
}

// Schema describes the JSON object a capability accepts as arguments.
type Schema struct {
	Properties map[string]Property
	Required   []string
}

// Capability is an action an agent can invoke during its reasoning loop.
// Implementations must be safe for concurrent use: fan-out executes several
// invocations of the same capability in parallel.
type Capability interface {
	// Name is the identifier the model uses to invoke the capability.
	Name() string
	// Description tells the model what the capability does.
	Description() string
	// Schema declares the accepted arguments.
	Schema() Schema
	// Invoke executes the capability with raw JSON arguments and returns the
	// textual result folded back into the conversation.
	Invoke(ctx context.Context, args json.RawMessage) (string, error)
}

// InvokeFunc is the signature of a capability's execution function.
type InvokeFunc func(ctx context.Context, args json.RawMessage) (string, error)

type funcCapability struct {
	name        string
	description string
	schema      Schema
	fn          InvokeFunc
}

// New adapts a plain function into a Capability.
func New(name, description string, schema Schema, fn InvokeFunc) Capability {
	return &funcCapability{name: name, description: description, schema: schema, fn: fn}
}

func (c *funcCapability) Name() string        { return c.name }
func (c *funcCapability) Description() string { return c.description }
func (c *funcCapability) Schema() Schema      { return c.schema }

func (c *funcCapability) Invoke(ctx context.Context, args json.RawMessage) (string, error) {
	return c.fn(ctx, args)
}

// DecodeArgs unmarshals a raw argument payload into v.
func DecodeArgs(args json.RawMessage, v any) error {
	if len(args) == 0 {
		args = json.RawMessage("{}")
	}
	if err := json.Unmarshal(args, v); err != nil {
		return fmt.Errorf("decode arguments: %w", err)
	}
	return nil
}
