package agent

import (
	"context"
	"fmt"
	"sync"
)

// DispatchResult pairs one dispatched instruction with the subagent's final
// answer. Intermediate subagent context never crosses this boundary.
type DispatchResult struct {
	Instruction string
	Result      string
}

// Dispatcher fans instruction batches out to named agents.
type Dispatcher struct {
	mu     sync.RWMutex
	agents map[string]*Node
}

// NewDispatcher creates a dispatcher over the given agents.
func NewDispatcher(agents ...*Node) *Dispatcher {
	d := &Dispatcher{agents: make(map[string]*Node, len(agents))}
	for _, a := range agents {
		d.agents[a.Name()] = a
	}
	return d
}

// Register adds an agent to the roster.
func (d *Dispatcher) Register(node *Node) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.agents[node.Name()] = node
}

// Dispatch runs every instruction on the named agent in parallel, each on an
// isolated history, and returns results in instruction order regardless of
// completion order.
func (d *Dispatcher) Dispatch(ctx context.Context, agentName string, instructions []string) ([]DispatchResult, error) {
	d.mu.RLock()
	node, ok := d.agents[agentName]
	d.mu.RUnlock()
	if !ok {
		return nil, &UnknownAgentError{Name: agentName}
	}

	results := make([]DispatchResult, len(instructions))
	errs := make([]error, len(instructions))

	var wg sync.WaitGroup
	for i, instruction := range instructions {
		wg.Add(1)
		go func(i int, instruction string) {
			defer wg.Done()
			outcome, err := node.Run(ctx, instruction)
			if err != nil {
				errs[i] = err
				return
			}
			if outcome.Suspended() {
				errs[i] = fmt.Errorf("agent %s suspended awaiting approval; dispatch cannot carry interrupts", agentName)
				return
			}
			results[i] = DispatchResult{Instruction: instruction, Result: outcome.Answer}
		}(i, instruction)
	}
	wg.Wait()

	for _, err := range errs {
		if err != nil {
			return nil, err
		}
	}
	return results, nil
}
