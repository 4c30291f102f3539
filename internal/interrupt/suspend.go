// Package interrupt implements suspension and resumption of sensitive
// capability calls. A gated capability does not execute: it raises a Suspend
// that halts the run until a human submits a decision for it.
package interrupt

import (
	"encoding/json"
	"errors"
	"fmt"
)

// Suspend describes one halted capability call awaiting a decision.
type Suspend struct {
	// ID uniquely identifies the interrupt for resume decisions.
	ID string `json:"id"`
	// Capability is the name of the gated capability.
	Capability string `json:"capability"`
	// Description is a human-readable summary of the proposed action.
	Description string `json:"description"`
	// Action is the structured argument payload the capability would run with.
	Action json.RawMessage `json:"action"`
	// ToolCallID correlates the suspend with the originating tool call.
	ToolCallID string `json:"tool_call_id,omitempty"`
	// Agent is the name of the agent whose call was suspended.
	Agent string `json:"agent,omitempty"`
}

// SuspendError carries a Suspend up through the execution stack. It is a
// control-flow signal, not a failure: callers must propagate it instead of
// folding it into conversation history the way capability errors are.
type SuspendError struct {
	Suspend Suspend
}

// Error implements the error interface.
func (e *SuspendError) Error() string {
	return fmt.Sprintf("suspended: %s awaiting approval (interrupt %s)", e.Suspend.Capability, e.Suspend.ID)
}

// AsSuspend extracts a Suspend from err if it is a suspension signal.
func AsSuspend(err error) (*Suspend, bool) {
	var se *SuspendError
	if errors.As(err, &se) {
		return &se.Suspend, true
	}
	return nil, false
}

// DecisionType is the kind of resume decision taken on a pending interrupt.
type DecisionType string

const (
	// DecisionApprove executes the suspended call with its original arguments.
	DecisionApprove DecisionType = "approve"
	// DecisionEdit executes the suspended call with field overrides applied.
	DecisionEdit DecisionType = "edit"
	// DecisionReject skips execution and injects the rationale as the result.
	DecisionReject DecisionType = "reject"
)

// Valid returns true if the type is a known decision type.
func (t DecisionType) Valid() bool {
	switch t {
	case DecisionApprove, DecisionEdit, DecisionReject:
		return true
	}
	return false
}

// Decision resolves one pending interrupt.
type Decision struct {
	Type DecisionType `json:"type"`
	// Edits holds field overrides for edit decisions. Fields not present keep
	// their original values.
	Edits json.RawMessage `json:"edits,omitempty"`
	// Reason is the rationale for reject decisions.
	Reason string `json:"reason,omitempty"`
}

// ApplyEdits overlays override fields onto the original action payload.
func ApplyEdits(action, edits json.RawMessage) (json.RawMessage, error) {
	merged := map[string]any{}
	if len(action) > 0 {
		if err := json.Unmarshal(action, &merged); err != nil {
			return nil, fmt.Errorf("decode action: %w", err)
		}
	}
	overrides := map[string]any{}
	if len(edits) > 0 {
		if err := json.Unmarshal(edits, &overrides); err != nil {
			return nil, fmt.Errorf("decode edits: %w", err)
		}
	}
	for k, v := range overrides {
		merged[k] = v
	}
	out, err := json.Marshal(merged)
	if err != nil {
		return nil, fmt.Errorf("encode merged action: %w", err)
	}
	return out, nil
}
