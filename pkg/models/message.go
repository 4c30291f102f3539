// Package models defines the shared data types passed between tally components:
// conversation messages, delegated tasks, todo plans and revision verdicts.
package models

import "encoding/json"

// Role identifies the author of a conversation message.
type Role string

const (
	// RoleSystem is the agent's standing instructions.
	RoleSystem Role = "system"
	// RoleHuman is input from the user (or synthesized on the user's behalf).
	RoleHuman Role = "human"
	// RoleAssistant is model output, possibly carrying tool calls.
	RoleAssistant Role = "assistant"
	// RoleTool is the result of a tool call, correlated by ToolCallID.
	RoleTool Role = "tool"
)

// ToolCall is a capability invocation requested by the model.
type ToolCall struct {
	// ID correlates the call with its eventual result message.
	ID string `json:"id"`
	// Name is the capability name.
	Name string `json:"name"`
	// Args is the raw JSON argument payload.
	Args json.RawMessage `json:"args"`
}

// Message is one entry in an agent's conversation history.
type Message struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
	// ToolCalls is set on assistant messages that request capability execution.
	ToolCalls []ToolCall `json:"tool_calls,omitempty"`
	// ToolCallID is set on tool messages and names the call this result answers.
	ToolCallID string `json:"tool_call_id,omitempty"`
	// IsError marks a tool message as a recoverable execution failure.
	IsError bool `json:"is_error,omitempty"`
}

// SystemMessage builds a system message.
func SystemMessage(content string) Message {
	return Message{Role: RoleSystem, Content: content}
}

// HumanMessage builds a human message.
func HumanMessage(content string) Message {
	return Message{Role: RoleHuman, Content: content}
}

// AssistantMessage builds an assistant message without tool calls.
func AssistantMessage(content string) Message {
	return Message{Role: RoleAssistant, Content: content}
}

// ToolResultMessage builds a tool message answering the given call.
func ToolResultMessage(callID, content string, isError bool) Message {
	return Message{Role: RoleTool, Content: content, ToolCallID: callID, IsError: isError}
}

// HasToolCalls reports whether the message requests capability execution.
func (m Message) HasToolCalls() bool {
	return len(m.ToolCalls) > 0
}
