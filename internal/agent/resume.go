package agent

import (
	"context"
	"fmt"

	"github.com/mpellerin/tally/internal/checkpoint"
	"github.com/mpellerin/tally/internal/interrupt"
	"github.com/mpellerin/tally/pkg/models"
)

// Resume continues a suspended run from its checkpointed frames. Decisions
// are keyed by interrupt id and settle on every suspended frame first, so a
// decision for one interrupt takes effect even while a sibling frame stays
// pending. Resolution then starts at the innermost frame: that agent's loop
// runs to its answer, the answer folds into the parent frame, repeating up to
// the root. A frame still missing decisions halts resolution there.
func (n *Node) Resume(ctx context.Context, frames []checkpoint.Frame, decisions map[string]interrupt.Decision) (*Outcome, error) {
	if len(frames) == 0 {
		return nil, fmt.Errorf("nothing to resume: no frames")
	}
	index := n.index()

	for i := range frames {
		if len(frames[i].Pending) == 0 {
			continue
		}
		node, ok := index[frames[i].Agent]
		if !ok {
			return nil, fmt.Errorf("checkpoint names unknown agent %q", frames[i].Agent)
		}
		if err := node.settlePending(ctx, &frames[i], decisions); err != nil {
			return nil, err
		}
	}

	for {
		leaf := frames[len(frames)-1]
		if len(leaf.Pending) > 0 {
			return &Outcome{Frames: frames}, nil
		}
		node, ok := index[leaf.Agent]
		if !ok {
			return nil, fmt.Errorf("checkpoint names unknown agent %q", leaf.Agent)
		}

		outcome, err := node.continueFrame(ctx, leaf)
		if err != nil {
			return nil, err
		}

		if outcome.Suspended() {
			// Newly suspended: splice the fresh frames back in.
			outcome.Frames[0].ParentCallID = leaf.ParentCallID
			kept := frames[: len(frames)-1 : len(frames)-1]
			return &Outcome{Frames: append(kept, outcome.Frames...)}, nil
		}

		if len(frames) == 1 {
			return outcome, nil
		}

		parent, err := parentFrame(frames[:len(frames)-1], leaf.ParentCallID)
		if err != nil {
			return nil, err
		}
		if parent.Completed == nil {
			parent.Completed = make(map[string]checkpoint.Result)
		}
		parent.Completed[leaf.ParentCallID] = checkpoint.Result{Content: outcome.Answer}
		frames = frames[:len(frames)-1]
	}
}

// parentFrame finds the frame whose turn issued the given delegation call.
func parentFrame(frames []checkpoint.Frame, callID string) (*checkpoint.Frame, error) {
	for i := len(frames) - 1; i >= 0; i-- {
		for _, msg := range frames[i].Messages {
			for _, tc := range msg.ToolCalls {
				if tc.ID == callID {
					return &frames[i], nil
				}
			}
		}
	}
	return nil, fmt.Errorf("no frame issued delegation call %s", callID)
}

// settlePending applies available decisions to a frame's pending interrupts,
// recording each outcome in Completed. Interrupts without a decision stay
// pending; the frame is updated in place so settled results survive further
// suspension.
func (n *Node) settlePending(ctx context.Context, frame *checkpoint.Frame, decisions map[string]interrupt.Decision) error {
	if frame.Completed == nil {
		frame.Completed = make(map[string]checkpoint.Result)
	}

	var still []interrupt.Suspend
	for _, s := range frame.Pending {
		decision, ok := decisions[s.ID]
		if !ok {
			still = append(still, s)
			continue
		}
		result, err := n.applyDecision(ctx, s, decision)
		if err != nil {
			return err
		}
		frame.Completed[s.ToolCallID] = result
		n.emit(Event{Type: EventResumed, Capability: s.Capability, InterruptID: s.ID, Content: string(decision.Type)})
	}
	frame.Pending = still
	return nil
}

// continueFrame folds a fully settled frame's results into its history and
// continues the reasoning loop exactly where it stopped.
func (n *Node) continueFrame(ctx context.Context, frame checkpoint.Frame) (*Outcome, error) {
	last := lastToolCallMessage(frame.Messages)
	if last == nil {
		return nil, fmt.Errorf("agent %s: checkpoint frame has no tool-calling turn", n.cfg.Name)
	}

	messages := frame.Messages
	for _, tc := range last.ToolCalls {
		result, ok := frame.Completed[tc.ID]
		if !ok {
			result = checkpoint.Result{Content: "Error: result lost across suspension", IsError: true}
		}
		messages = append(messages, models.ToolResultMessage(tc.ID, result.Content, result.IsError))
	}

	return n.loop(ctx, messages)
}

// applyDecision turns a decision into the suspended call's result. Approve
// and edit execute the capability (stripped of its gate); reject injects the
// rationale without executing anything.
func (n *Node) applyDecision(ctx context.Context, s interrupt.Suspend, decision interrupt.Decision) (checkpoint.Result, error) {
	switch decision.Type {
	case interrupt.DecisionReject:
		reason := decision.Reason
		if reason == "" {
			reason = "no reason given"
		}
		return checkpoint.Result{Content: fmt.Sprintf("Action not executed. Rejected by operator: %s", reason)}, nil

	case interrupt.DecisionApprove, interrupt.DecisionEdit:
		args := s.Action
		if decision.Type == interrupt.DecisionEdit {
			merged, err := interrupt.ApplyEdits(s.Action, decision.Edits)
			if err != nil {
				return checkpoint.Result{}, fmt.Errorf("interrupt %s: %w", s.ID, err)
			}
			args = merged
		}

		c, err := n.registry.Get(s.Capability)
		if err != nil {
			return checkpoint.Result{Content: fmt.Sprintf("Error: %v", err), IsError: true}, nil
		}
		out, err := interrupt.Inner(c).Invoke(ctx, args)
		if err != nil {
			return checkpoint.Result{Content: fmt.Sprintf("Error: %v", err), IsError: true}, nil
		}
		return checkpoint.Result{Content: out}, nil

	default:
		return checkpoint.Result{}, fmt.Errorf("interrupt %s: invalid decision type %q", s.ID, decision.Type)
	}
}

// lastToolCallMessage returns the most recent assistant turn that issued tool
// calls.
func lastToolCallMessage(messages []models.Message) *models.Message {
	for i := len(messages) - 1; i >= 0; i-- {
		if messages[i].Role == models.RoleAssistant && messages[i].HasToolCalls() {
			return &messages[i]
		}
	}
	return nil
}

// index maps agent names to nodes across the whole tree rooted at n.
func (n *Node) index() map[string]*Node {
	out := map[string]*Node{n.cfg.Name: n}
	for _, sub := range n.subagents {
		for name, node := range sub.index() {
			out[name] = node
		}
	}
	return out
}
