// Package llmtest provides a deterministic scripted Provider for tests.
package llmtest

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/mpellerin/tally/internal/llm"
	"github.com/mpellerin/tally/pkg/models"
)

// Step is one scripted provider response.
type Step struct {
	// Completion is returned by Complete.
	Completion *llm.Completion
	// Structured is returned by CompleteStructured.
	Structured json.RawMessage
	// Err is returned instead of a result when set.
	Err error
}

// Text builds a plain-text completion step.
func Text(s string) Step {
	return Step{Completion: &llm.Completion{Text: s}}
}

// Calls builds a tool-calling completion step.
func Calls(text string, calls ...models.ToolCall) Step {
	return Step{Completion: &llm.Completion{Text: text, ToolCalls: calls}}
}

// Call builds a tool call with JSON arguments.
func Call(id, name, args string) models.ToolCall {
	return models.ToolCall{ID: id, Name: name, Args: json.RawMessage(args)}
}

// Structured builds a structured-output step.
func Structured(payload string) Step {
	return Step{Structured: json.RawMessage(payload)}
}

// Fail builds an error step.
func Fail(err error) Step {
	return Step{Err: err}
}

// Scripted replays a fixed sequence of steps and records every request it
// receives, in order.
type Scripted struct {
	mu    sync.Mutex
	steps []Step
	next  int

	// Requests holds each request seen, in call order.
	Requests []llm.Request
}

// NewScripted creates a scripted provider.
func NewScripted(steps ...Step) *Scripted {
	return &Scripted{steps: steps}
}

func (s *Scripted) pop(req llm.Request) (Step, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Requests = append(s.Requests, req)
	if s.next >= len(s.steps) {
		return Step{}, fmt.Errorf("scripted provider exhausted after %d steps", len(s.steps))
	}
	step := s.steps[s.next]
	s.next++
	return step, nil
}

// Complete implements llm.Provider.
func (s *Scripted) Complete(ctx context.Context, req llm.Request) (*llm.Completion, error) {
	step, err := s.pop(req)
	if err != nil {
		return nil, err
	}
	if step.Err != nil {
		return nil, step.Err
	}
	if step.Completion == nil {
		return &llm.Completion{}, nil
	}
	return step.Completion, nil
}

// CompleteStructured implements llm.Provider.
func (s *Scripted) CompleteStructured(ctx context.Context, req llm.Request, tool llm.ToolDef) (json.RawMessage, error) {
	step, err := s.pop(req)
	if err != nil {
		return nil, err
	}
	if step.Err != nil {
		return nil, step.Err
	}
	return step.Structured, nil
}

// Remaining returns the number of unplayed steps.
func (s *Scripted) Remaining() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.steps) - s.next
}

var _ llm.Provider = (*Scripted)(nil)
