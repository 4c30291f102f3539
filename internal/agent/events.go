// Package agent implements the reasoning nodes of the orchestration tree:
// the step loop each agent runs, delegation routing with parallel fan-out,
// structural revision of outgoing instruction batches, and suspend/resume of
// sensitive capability calls.
package agent

import "time"

// EventType represents the type of agent event.
type EventType string

const (
	// EventReasoning indicates the model produced intermediate text.
	EventReasoning EventType = "reasoning"
	// EventAnswer indicates an agent produced its final answer.
	EventAnswer EventType = "answer"
	// EventCapabilityCall indicates a capability is about to execute.
	EventCapabilityCall EventType = "capability_call"
	// EventCapabilityResult indicates a capability finished.
	EventCapabilityResult EventType = "capability_result"
	// EventDispatchStarted indicates an instruction was handed to a subagent.
	EventDispatchStarted EventType = "dispatch_started"
	// EventDispatchCompleted indicates a subagent returned its answer.
	EventDispatchCompleted EventType = "dispatch_completed"
	// EventValidationRejected indicates the revisor bounced an instruction batch.
	EventValidationRejected EventType = "validation_rejected"
	// EventInterruptRaised indicates a sensitive call suspended for approval.
	EventInterruptRaised EventType = "interrupt_raised"
	// EventResumed indicates a suspended call was resolved and the run continued.
	EventResumed EventType = "resumed"
	// EventEmptyRetry indicates an empty completion triggered a retry.
	EventEmptyRetry EventType = "empty_retry"
)

// Event is emitted by a node as it executes. Events feed the debug log, the
// CLI printer and the websocket stream.
type Event struct {
	// Type is the kind of event.
	Type EventType
	// Agent is the name of the emitting agent.
	Agent string
	// Capability is the related capability name, if applicable.
	Capability string
	// Instruction is the related delegated instruction, if applicable.
	Instruction string
	// Content provides additional context about the event.
	Content string
	// InterruptID is the related interrupt id, if applicable.
	InterruptID string
	// Timestamp is when the event occurred.
	Timestamp time.Time
}
