// Package orchestrator assembles the billing reconciliation agent tree and
// drives whole conversation threads through it: planning, execution,
// suspension on sensitive actions and resumption after human decisions.
package orchestrator

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/mpellerin/tally/internal/agent"
	"github.com/mpellerin/tally/internal/checkpoint"
	"github.com/mpellerin/tally/internal/interrupt"
	"github.com/mpellerin/tally/internal/reflexion"
	"github.com/mpellerin/tally/internal/session"
	"github.com/mpellerin/tally/pkg/models"
)

// Result is the outcome of invoking or resuming a thread.
type Result struct {
	// ThreadID identifies the conversation thread.
	ThreadID string
	// Answer is the final answer, when the run completed.
	Answer string
	// Suspended is true when the run halted on pending interrupts.
	Suspended bool
	// Pending lists the interrupts awaiting decisions.
	Pending []interrupt.Suspend
	// Todos is the plan the run executed, when planning was enabled.
	Todos []models.Todo
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithPlanner enables a reflexion planning pass before execution.
func WithPlanner(planner *reflexion.Loop) Option {
	return func(o *Orchestrator) { o.planner = planner }
}

// WithLogger sets the debug logger.
func WithLogger(logger *DebugLogger) Option {
	return func(o *Orchestrator) { o.logger = logger }
}

// Orchestrator runs conversation threads against the agent tree and persists
// suspended runs across process boundaries.
type Orchestrator struct {
	root     *agent.Node
	store    checkpoint.Store
	sessions *session.Manager
	planner  *reflexion.Loop
	logger   *DebugLogger
}

// New creates an orchestrator over a built agent tree and checkpoint store.
func New(root *agent.Node, store checkpoint.Store, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		root:     root,
		store:    store,
		sessions: session.NewManager(store),
		logger:   NopLogger(),
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Sessions exposes the thread manager.
func (o *Orchestrator) Sessions() *session.Manager { return o.sessions }

// Invoke starts a new thread on the given request. When a sensitive
// capability suspends the run, the thread state is checkpointed and the
// pending interrupts are returned for human decisions.
func (o *Orchestrator) Invoke(ctx context.Context, request string) (*Result, error) {
	threadID := uuid.New().String()
	if err := o.sessions.Acquire(threadID); err != nil {
		return nil, err
	}
	defer o.sessions.Release(threadID)

	o.logger.Log("invoke thread %s: %s", threadID, truncate(request, 200))

	instruction := request
	var todos []models.Todo
	if o.planner != nil {
		planned, err := o.planner.Run(ctx, request)
		if err != nil {
			return nil, fmt.Errorf("planning: %w", err)
		}
		todos = planned.Todos
		instruction = renderPlan(request, todos)
		o.logger.Log("thread %s planned %d steps (%d critiques)", threadID, len(todos), planned.Critiques)
	}

	outcome, err := o.root.Run(ctx, instruction)
	if err != nil {
		return nil, err
	}
	return o.settle(ctx, threadID, todos, outcome)
}

// Resume continues a suspended thread with decisions keyed by interrupt id.
// Interrupts without decisions stay pending; the thread remains suspended
// until every one is resolved.
func (o *Orchestrator) Resume(ctx context.Context, threadID string, decisions map[string]interrupt.Decision) (*Result, error) {
	if err := o.sessions.Acquire(threadID); err != nil {
		return nil, err
	}
	defer o.sessions.Release(threadID)

	cp, err := o.store.Load(ctx, threadID)
	if err != nil {
		return nil, fmt.Errorf("thread %s: %w", threadID, err)
	}
	o.logger.Log("resume thread %s with %d decisions (stack: %s)",
		threadID, len(decisions), strings.Join(cp.DialogStack(), " > "))

	outcome, err := o.root.Resume(ctx, cp.Frames, decisions)
	if err != nil {
		return nil, err
	}
	return o.settle(ctx, threadID, cp.Todos, outcome)
}

// settle persists or clears the thread checkpoint according to the outcome.
func (o *Orchestrator) settle(ctx context.Context, threadID string, todos []models.Todo, outcome *agent.Outcome) (*Result, error) {
	if outcome.Suspended() {
		cp := &checkpoint.Checkpoint{
			ThreadID:  threadID,
			Frames:    outcome.Frames,
			Todos:     todos,
			UpdatedAt: time.Now(),
		}
		if err := o.store.Save(ctx, cp); err != nil {
			return nil, fmt.Errorf("checkpoint thread %s: %w", threadID, err)
		}
		pending := cp.Suspends()
		o.logger.Log("thread %s suspended on %d interrupts", threadID, len(pending))
		return &Result{ThreadID: threadID, Suspended: true, Pending: pending, Todos: todos}, nil
	}

	if err := o.store.Delete(ctx, threadID); err != nil {
		return nil, fmt.Errorf("clear thread %s: %w", threadID, err)
	}
	o.logger.Log("thread %s completed", threadID)
	return &Result{ThreadID: threadID, Answer: outcome.Answer, Todos: todos}, nil
}

// renderPlan seeds the root instruction with the settled todo list.
func renderPlan(request string, todos []models.Todo) string {
	if len(todos) == 0 {
		return request
	}
	var b strings.Builder
	b.WriteString(request)
	b.WriteString("\n\nFollow this plan:\n")
	for i, todo := range todos {
		fmt.Fprintf(&b, "%d. %s\n", i+1, todo.Content)
	}
	return b.String()
}
