package agent

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/mpellerin/tally/internal/capability"
	"github.com/mpellerin/tally/internal/checkpoint"
	"github.com/mpellerin/tally/internal/interrupt"
	"github.com/mpellerin/tally/internal/llm"
	"github.com/mpellerin/tally/internal/revisor"
	"github.com/mpellerin/tally/pkg/models"
)

const defaultMaxIterations = 20
const maxEmptyAttempts = 3

const emptyCorrective = "Your last response was empty. Reply with your answer, or invoke a tool to make progress."

// Config contains configuration for an agent node.
type Config struct {
	// Name is the agent's registered name.
	Name string
	// Purpose is a one-line description used when declaring the agent as a
	// delegation target to its parent.
	Purpose string
	// SystemPrompt is the agent's standing instruction block.
	SystemPrompt string
	// Provider generates the agent's completions.
	Provider llm.Provider
	// Capabilities are the directly invocable actions.
	Capabilities []capability.Capability
	// Subagents are the delegation targets.
	Subagents []*Node
	// Revisor reviews outgoing instruction batches, when set.
	Revisor *revisor.Revisor
	// MaxIterations caps reasoning steps per run (0 = default).
	MaxIterations int
	// MaxRejections bounds consecutive revisor rejections (0 = default).
	MaxRejections int
	// OnEvent receives execution events, when set.
	OnEvent func(Event)
}

// Node is one agent in the orchestration tree. It owns a capability registry
// and a roster of subagents, and runs the reasoning loop over both.
type Node struct {
	cfg       Config
	registry  *capability.Registry
	subagents map[string]*Node
	tools     []llm.ToolDef
}

// New creates a node from its configuration.
func New(cfg Config) *Node {
	if cfg.MaxIterations <= 0 {
		cfg.MaxIterations = defaultMaxIterations
	}
	if cfg.MaxRejections <= 0 {
		cfg.MaxRejections = revisor.DefaultMaxRejections
	}

	n := &Node{
		cfg:       cfg,
		registry:  capability.NewRegistry(cfg.Capabilities...),
		subagents: make(map[string]*Node, len(cfg.Subagents)),
	}
	for _, sub := range cfg.Subagents {
		n.subagents[sub.Name()] = sub
	}
	n.tools = append(capabilityToolDefs(n.registry), delegationToolDefs(cfg.Subagents)...)
	return n
}

// Name returns the agent's registered name.
func (n *Node) Name() string { return n.cfg.Name }

// Purpose returns the agent's one-line description.
func (n *Node) Purpose() string { return n.cfg.Purpose }

// Subagent returns a registered subagent by name.
func (n *Node) Subagent(name string) (*Node, bool) {
	sub, ok := n.subagents[name]
	return sub, ok
}

// Outcome is the result of driving a node until it answers or suspends.
type Outcome struct {
	// Answer is the final answer, when the run completed.
	Answer string
	// Frames is the suspended frame chain (this node first), when the run
	// halted for approval.
	Frames []checkpoint.Frame
}

// Suspended reports whether the run halted awaiting decisions.
func (o *Outcome) Suspended() bool { return len(o.Frames) > 0 }

// Run executes the node on a fresh, isolated history seeded with the
// instruction.
func (n *Node) Run(ctx context.Context, instruction string) (*Outcome, error) {
	return n.loop(ctx, n.seed(instruction))
}

// seed builds a fresh history: the system prompt exactly once, then the
// instruction.
func (n *Node) seed(instruction string) []models.Message {
	var messages []models.Message
	if n.cfg.SystemPrompt != "" {
		messages = append(messages, models.SystemMessage(n.cfg.SystemPrompt))
	}
	return append(messages, models.HumanMessage(instruction))
}

func (n *Node) emit(event Event) {
	if n.cfg.OnEvent == nil {
		return
	}
	event.Agent = n.cfg.Name
	event.Timestamp = time.Now()
	n.cfg.OnEvent(event)
}

// loop is the step cycle: reason, route, execute, fold, repeat. It returns
// either a final answer or a suspended frame chain.
func (n *Node) loop(ctx context.Context, messages []models.Message) (*Outcome, error) {
	rejections := 0

	for iter := 0; iter < n.cfg.MaxIterations; iter++ {
		completion, err := n.complete(ctx, messages)
		if err != nil {
			return nil, err
		}

		assistant := models.Message{
			Role:      models.RoleAssistant,
			Content:   completion.Text,
			ToolCalls: completion.ToolCalls,
		}
		messages = append(messages, assistant)

		if len(completion.ToolCalls) == 0 {
			n.emit(Event{Type: EventAnswer, Content: completion.Text})
			return &Outcome{Answer: completion.Text}, nil
		}
		if completion.Text != "" {
			n.emit(Event{Type: EventReasoning, Content: completion.Text})
		}

		// Structural revision of outgoing delegations. A rejected batch never
		// executes: the trailing assistant message is replaced by a synthetic
		// human message and the step repeats.
		if n.cfg.Revisor != nil {
			monitored := monitoredInstructions(completion.ToolCalls, n.cfg.Revisor.Monitors)
			if len(monitored) > 0 {
				verdict := n.cfg.Revisor.Review(ctx, monitored)
				if !verdict.Approved() {
					rejections++
					if rejections >= n.cfg.MaxRejections {
						return nil, &ValidationLoopError{Agent: n.cfg.Name, Rejections: rejections}
					}
					rejection := revisor.RejectionMessage(verdict)
					n.emit(Event{Type: EventValidationRejected, Content: rejection})
					messages = messages[:len(messages)-1]
					messages = append(messages, models.HumanMessage(rejection))
					continue
				}
				rejections = 0
			}
		}

		// Fan-out expansion rewrites the trailing assistant message so later
		// tool results correlate one-to-one with its calls.
		calls := expandBatch(completion.ToolCalls)
		messages[len(messages)-1].ToolCalls = calls

		results, pending, childFrames, err := n.execute(ctx, calls)
		if err != nil {
			return nil, err
		}

		if len(pending) > 0 || len(childFrames) > 0 {
			frame := checkpoint.Frame{
				Agent:     n.cfg.Name,
				Messages:  messages,
				Completed: results,
				Pending:   pending,
			}
			return &Outcome{Frames: append([]checkpoint.Frame{frame}, childFrames...)}, nil
		}

		// Fold results in call order, never completion order.
		for _, tc := range calls {
			res := results[tc.ID]
			messages = append(messages, models.ToolResultMessage(tc.ID, res.Content, res.IsError))
		}
	}

	return nil, fmt.Errorf("agent %s: max iterations (%d) reached", n.cfg.Name, n.cfg.MaxIterations)
}

// complete calls the provider, retrying empty completions. A corrective
// message is injected before the final attempt; a third empty reply is a hard
// failure.
func (n *Node) complete(ctx context.Context, messages []models.Message) (*llm.Completion, error) {
	attempt := messages

	for i := 1; i <= maxEmptyAttempts; i++ {
		completion, err := n.cfg.Provider.Complete(ctx, llm.Request{
			Messages: attempt,
			Tools:    n.tools,
		})
		if err != nil {
			return nil, fmt.Errorf("agent %s: %w", n.cfg.Name, err)
		}
		if !completion.Empty() {
			return completion, nil
		}

		n.emit(Event{Type: EventEmptyRetry, Content: fmt.Sprintf("attempt %d returned nothing", i)})
		if i == maxEmptyAttempts-1 {
			injected := make([]models.Message, len(messages), len(messages)+1)
			copy(injected, messages)
			attempt = append(injected, models.HumanMessage(emptyCorrective))
		}
	}

	return nil, fmt.Errorf("agent %s: %w", n.cfg.Name, ErrEmptyCompletion)
}

// unit is the outcome of executing one tool call.
type unit struct {
	result  *checkpoint.Result
	suspend *interrupt.Suspend
	frames  []checkpoint.Frame
	err     error
}

// execute runs every call concurrently: direct capabilities through the
// registry, delegations through isolated subagent runs. Recoverable failures
// become error results; suspensions are collected; hard failures abort.
func (n *Node) execute(ctx context.Context, calls []models.ToolCall) (map[string]checkpoint.Result, []interrupt.Suspend, []checkpoint.Frame, error) {
	units := make([]unit, len(calls))

	var wg sync.WaitGroup
	for i, tc := range calls {
		wg.Add(1)
		go func(i int, tc models.ToolCall) {
			defer wg.Done()
			units[i] = n.executeOne(ctx, tc)
		}(i, tc)
	}
	wg.Wait()

	results := make(map[string]checkpoint.Result)
	var pending []interrupt.Suspend
	var childFrames []checkpoint.Frame
	for i, u := range units {
		if u.err != nil {
			return nil, nil, nil, u.err
		}
		if u.suspend != nil {
			pending = append(pending, *u.suspend)
		}
		if len(u.frames) > 0 {
			childFrames = append(childFrames, u.frames...)
		}
		if u.result != nil {
			results[calls[i].ID] = *u.result
		}
	}
	return results, pending, childFrames, nil
}

func (n *Node) executeOne(ctx context.Context, tc models.ToolCall) unit {
	if target, ok := delegationTarget(tc.Name); ok {
		return n.delegate(ctx, tc, target)
	}

	c, err := n.registry.Get(tc.Name)
	if err != nil {
		return unit{result: &checkpoint.Result{Content: fmt.Sprintf("Error: %v", err), IsError: true}}
	}

	n.emit(Event{Type: EventCapabilityCall, Capability: tc.Name, Content: string(tc.Args)})
	out, err := c.Invoke(ctx, tc.Args)
	if err != nil {
		if s, ok := interrupt.AsSuspend(err); ok {
			s.ToolCallID = tc.ID
			s.Agent = n.cfg.Name
			n.emit(Event{Type: EventInterruptRaised, Capability: tc.Name, InterruptID: s.ID, Content: s.Description})
			return unit{suspend: s}
		}
		wrapped := capability.WrapError(tc.Name, err)
		n.emit(Event{Type: EventCapabilityResult, Capability: tc.Name, Content: wrapped.Error()})
		return unit{result: &checkpoint.Result{Content: fmt.Sprintf("Error: %v", wrapped), IsError: true}}
	}

	n.emit(Event{Type: EventCapabilityResult, Capability: tc.Name, Content: out})
	return unit{result: &checkpoint.Result{Content: out}}
}

// delegate runs one instruction on a subagent. The subagent sees only the
// instruction; only its final answer comes back.
func (n *Node) delegate(ctx context.Context, tc models.ToolCall, target string) unit {
	sub, ok := n.subagents[target]
	if !ok {
		err := &UnknownAgentError{Name: target}
		return unit{result: &checkpoint.Result{Content: fmt.Sprintf("Error: %v", err), IsError: true}}
	}

	var args delegationArgs
	if err := capability.DecodeArgs(tc.Args, &args); err != nil || args.Instruction == "" {
		return unit{result: &checkpoint.Result{Content: "Error: delegation carries no instruction", IsError: true}}
	}

	n.emit(Event{Type: EventDispatchStarted, Instruction: args.Instruction, Content: target})
	outcome, err := sub.Run(ctx, args.Instruction)
	if err != nil {
		return unit{err: err}
	}
	if outcome.Suspended() {
		frames := outcome.Frames
		frames[0].ParentCallID = tc.ID
		return unit{frames: frames}
	}

	n.emit(Event{Type: EventDispatchCompleted, Instruction: args.Instruction, Content: outcome.Answer})
	return unit{result: &checkpoint.Result{Content: outcome.Answer}}
}
