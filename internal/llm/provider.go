// Package llm abstracts the completion providers behind a single interface.
// Agents express requests in terms of the shared message model; each provider
// translates to its SDK's native tool-calling shape.
package llm

import (
	"context"
	"encoding/json"

	"github.com/mpellerin/tally/pkg/models"
)

// ToolDef declares one invocable tool to the model.
type ToolDef struct {
	Name        string
	Description string
	// Properties is a JSON schema property map.
	Properties map[string]interface{}
	Required   []string
}

// Request is a single completion request over an agent's history.
type Request struct {
	// System is the standing instruction block.
	System string
	// Messages is the conversation so far, oldest first.
	Messages []models.Message
	// Tools lists the capabilities the model may invoke.
	Tools []ToolDef
	// MaxTokens caps the reply length. Zero means the provider default.
	MaxTokens int
}

// Completion is a model reply: free text, tool calls, or both.
type Completion struct {
	Text      string
	ToolCalls []models.ToolCall
}

// Empty reports whether the completion carries neither text nor tool calls.
func (c *Completion) Empty() bool {
	return c.Text == "" && len(c.ToolCalls) == 0
}

// Provider generates completions.
type Provider interface {
	// Complete runs one completion over the request.
	Complete(ctx context.Context, req Request) (*Completion, error)
	// CompleteStructured forces the model to answer by invoking the given
	// tool and returns the raw argument payload it produced.
	CompleteStructured(ctx context.Context, req Request, tool ToolDef) (json.RawMessage, error)
}
