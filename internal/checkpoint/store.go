// Package checkpoint persists the state of suspended runs keyed by thread id,
// so a run interrupted for human approval can continue in a later process.
package checkpoint

import (
	"context"
	"errors"
	"time"

	"github.com/mpellerin/tally/internal/interrupt"
	"github.com/mpellerin/tally/pkg/models"
)

// ErrNotFound indicates no checkpoint exists for the requested thread.
var ErrNotFound = errors.New("checkpoint not found")

// Result is one completed tool call result held by a frame.
type Result struct {
	Content string `json:"content"`
	IsError bool   `json:"is_error,omitempty"`
}

// Frame captures one agent's in-flight turn. A checkpoint holds the chain of
// frames from the root agent down to the agent whose capability call was
// suspended; the innermost frame is last.
type Frame struct {
	// Agent is the registered name of the agent this frame belongs to.
	Agent string `json:"agent"`
	// ParentCallID is the tool call in the parent frame awaiting this frame's
	// answer. Empty for the root frame.
	ParentCallID string `json:"parent_call_id,omitempty"`
	// Messages is the agent's full conversation history.
	Messages []models.Message `json:"messages"`
	// Completed maps tool call ids to results already obtained in the current
	// turn. Partially completed fan-outs keep their finished units here.
	Completed map[string]Result `json:"completed,omitempty"`
	// Pending lists the suspended capability calls of the current turn.
	Pending []interrupt.Suspend `json:"pending,omitempty"`
}

// Checkpoint is the full persisted state of a suspended run.
type Checkpoint struct {
	ThreadID string `json:"thread_id"`
	// Frames is the active agent chain, outermost first.
	Frames []Frame `json:"frames"`
	// Todos is the plan the run was executing, if any.
	Todos []models.Todo `json:"todos,omitempty"`
	// UpdatedAt is when the checkpoint was last written.
	UpdatedAt time.Time `json:"updated_at"`
}

// DialogStack returns the active agent names, outermost first.
func (c *Checkpoint) DialogStack() []string {
	stack := make([]string, 0, len(c.Frames))
	for _, f := range c.Frames {
		stack = append(stack, f.Agent)
	}
	return stack
}

// Suspends returns every pending interrupt across all frames, outermost
// frame first.
func (c *Checkpoint) Suspends() []interrupt.Suspend {
	var out []interrupt.Suspend
	for _, f := range c.Frames {
		out = append(out, f.Pending...)
	}
	return out
}

// Store persists checkpoints.
type Store interface {
	// Save writes or replaces the checkpoint for its thread.
	Save(ctx context.Context, cp *Checkpoint) error
	// Load returns the checkpoint for a thread, or ErrNotFound.
	Load(ctx context.Context, threadID string) (*Checkpoint, error)
	// Delete removes a thread's checkpoint. Deleting a missing thread is not
	// an error.
	Delete(ctx context.Context, threadID string) error
	// List returns the thread ids with saved checkpoints, most recent first.
	List(ctx context.Context) ([]string, error)
}
