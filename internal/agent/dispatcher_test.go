package agent

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestDispatchPreservesInstructionOrder(t *testing.T) {
	// The first instruction completes last.
	node, _ := echoAgent("query", map[string]time.Duration{
		"slow": 40 * time.Millisecond,
	})
	d := NewDispatcher(node)

	results, err := d.Dispatch(context.Background(), "query", []string{"slow", "fast", "faster"})
	if err != nil {
		t.Fatalf("Dispatch failed: %v", err)
	}
	want := []string{"slow", "fast", "faster"}
	if len(results) != len(want) {
		t.Fatalf("got %d results, want %d", len(results), len(want))
	}
	for i, w := range want {
		if results[i].Instruction != w {
			t.Errorf("result %d instruction = %q, want %q", i, results[i].Instruction, w)
		}
		if results[i].Result != "done: "+w {
			t.Errorf("result %d = %q, want %q", i, results[i].Result, "done: "+w)
		}
	}
}

func TestDispatchUnknownAgent(t *testing.T) {
	node, _ := echoAgent("query", nil)
	d := NewDispatcher(node)

	_, err := d.Dispatch(context.Background(), "invoicing", []string{"anything"})
	var unknown *UnknownAgentError
	if !errors.As(err, &unknown) {
		t.Fatalf("err = %v, want UnknownAgentError", err)
	}
	if unknown.Name != "invoicing" {
		t.Errorf("unknown agent name = %q, want invoicing", unknown.Name)
	}
}

func TestDispatchRegister(t *testing.T) {
	d := NewDispatcher()
	node, _ := echoAgent("validation", nil)
	d.Register(node)

	results, err := d.Dispatch(context.Background(), "validation", []string{"check ts-2001"})
	if err != nil {
		t.Fatalf("Dispatch failed: %v", err)
	}
	if len(results) != 1 || results[0].Result != "done: check ts-2001" {
		t.Errorf("results = %+v", results)
	}
}
