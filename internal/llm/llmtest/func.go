package llmtest

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/mpellerin/tally/internal/llm"
)

// Func answers requests through callbacks. Unlike Scripted it keys replies on
// request content, which keeps parallel fan-out tests deterministic.
type Func struct {
	CompleteFn   func(ctx context.Context, req llm.Request) (*llm.Completion, error)
	StructuredFn func(ctx context.Context, req llm.Request, tool llm.ToolDef) (json.RawMessage, error)

	mu sync.Mutex
	// Requests holds each request seen, in call order.
	Requests []llm.Request
}

func (f *Func) record(req llm.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Requests = append(f.Requests, req)
}

// Seen returns a copy of the recorded requests.
func (f *Func) Seen() []llm.Request {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]llm.Request, len(f.Requests))
	copy(out, f.Requests)
	return out
}

// Complete implements llm.Provider.
func (f *Func) Complete(ctx context.Context, req llm.Request) (*llm.Completion, error) {
	f.record(req)
	return f.CompleteFn(ctx, req)
}

// CompleteStructured implements llm.Provider.
func (f *Func) CompleteStructured(ctx context.Context, req llm.Request, tool llm.ToolDef) (json.RawMessage, error) {
	f.record(req)
	return f.StructuredFn(ctx, req, tool)
}

var _ llm.Provider = (*Func)(nil)
