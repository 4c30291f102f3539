package agent

import (
	"errors"
	"fmt"
)

// ErrEmptyCompletion indicates the model returned nothing across all retry
// attempts. This is a hard failure: the run cannot make progress.
var ErrEmptyCompletion = errors.New("empty completion after retries")

// UnknownAgentError indicates a delegation aimed at an unregistered agent.
// The node folds it into history as an error tool result so the model can
// correct itself.
type UnknownAgentError struct {
	Name string
}

// Error implements the error interface.
func (e *UnknownAgentError) Error() string {
	return fmt.Sprintf("unknown agent: %s", e.Name)
}

// ValidationLoopError indicates the revisor rejected the agent's delegations
// more times in a row than the configured bound allows.
type ValidationLoopError struct {
	Agent      string
	Rejections int
}

// Error implements the error interface.
func (e *ValidationLoopError) Error() string {
	return fmt.Sprintf("agent %s: %d consecutive validation rejections", e.Agent, e.Rejections)
}
