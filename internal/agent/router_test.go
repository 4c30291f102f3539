package agent

import (
	"encoding/json"
	"testing"

	"github.com/mpellerin/tally/internal/llm"
	"github.com/mpellerin/tally/internal/llm/llmtest"
	"github.com/mpellerin/tally/pkg/models"
)

func TestDelegationTarget(t *testing.T) {
	cases := []struct {
		name   string
		target string
		ok     bool
	}{
		{"transfer_to_query", "query", true},
		{"transfer_to_emailing", "emailing", true},
		{"delegate_tasks", "", false},
		{"search_workers", "", false},
	}
	for _, tc := range cases {
		target, ok := delegationTarget(tc.name)
		if target != tc.target || ok != tc.ok {
			t.Errorf("delegationTarget(%q) = %q, %v; want %q, %v",
				tc.name, target, ok, tc.target, tc.ok)
		}
	}
}

func TestExpandBatchRewritesCalls(t *testing.T) {
	calls := []models.ToolCall{
		llmtest.Call("c1", "search_workers", `{"name":"Didier"}`),
		llmtest.Call("b1", "delegate_tasks", `{"agent":"query","instructions":["first","second"]}`),
		llmtest.Call("c2", "transfer_to_emailing", `{"instruction":"draft it"}`),
	}

	expanded := expandBatch(calls)
	if len(expanded) != 4 {
		t.Fatalf("got %d calls, want 4", len(expanded))
	}
	if expanded[0].ID != "c1" || expanded[0].Name != "search_workers" {
		t.Errorf("non-batch call altered: %+v", expanded[0])
	}
	if expanded[1].ID != "b1__0" || expanded[1].Name != "transfer_to_query" {
		t.Errorf("first expansion = %+v", expanded[1])
	}
	if expanded[2].ID != "b1__1" || expanded[2].Name != "transfer_to_query" {
		t.Errorf("second expansion = %+v", expanded[2])
	}
	var args delegationArgs
	if err := json.Unmarshal(expanded[2].Args, &args); err != nil || args.Instruction != "second" {
		t.Errorf("expanded args = %s, want instruction %q", expanded[2].Args, "second")
	}
	if expanded[3].ID != "c2" || expanded[3].Name != "transfer_to_emailing" {
		t.Errorf("direct delegation altered: %+v", expanded[3])
	}
}

func TestExpandBatchPassesMalformedThrough(t *testing.T) {
	cases := []string{
		`not json`,
		`{"agent":"","instructions":["x"]}`,
		`{"agent":"query","instructions":[]}`,
	}
	for _, args := range cases {
		calls := []models.ToolCall{llmtest.Call("b1", "delegate_tasks", args)}
		expanded := expandBatch(calls)
		if len(expanded) != 1 || expanded[0].Name != "delegate_tasks" || expanded[0].ID != "b1" {
			t.Errorf("malformed batch %q rewritten: %+v", args, expanded)
		}
	}
}

func TestMonitoredInstructions(t *testing.T) {
	monitors := func(agent string) bool { return agent == "query" }

	calls := []models.ToolCall{
		llmtest.Call("b1", "delegate_tasks", `{"agent":"query","instructions":["one","two"]}`),
		llmtest.Call("b2", "delegate_tasks", `{"agent":"emailing","instructions":["skip me"]}`),
		llmtest.Call("c1", "transfer_to_query", `{"instruction":"three"}`),
		llmtest.Call("c2", "transfer_to_emailing", `{"instruction":"skip me too"}`),
		llmtest.Call("c3", "search_workers", `{"name":"Jon"}`),
	}

	got := monitoredInstructions(calls, monitors)
	want := []string{"one", "two", "three"}
	if len(got) != len(want) {
		t.Fatalf("got %d instructions %v, want %v", len(got), got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("instruction %d = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestDelegationToolDefs(t *testing.T) {
	query, _ := echoAgent("query", nil)
	emailing, _ := echoAgent("emailing", nil)

	defs := delegationToolDefs([]*Node{query, emailing})
	if len(defs) != 3 {
		t.Fatalf("got %d tool defs, want 3", len(defs))
	}
	byName := make(map[string]llm.ToolDef, len(defs))
	for _, d := range defs {
		byName[d.Name] = d
	}
	for _, name := range []string{"transfer_to_query", "transfer_to_emailing"} {
		d, ok := byName[name]
		if !ok {
			t.Fatalf("missing tool def %q", name)
		}
		if len(d.Required) != 1 || d.Required[0] != "instruction" {
			t.Errorf("%s required = %v, want [instruction]", name, d.Required)
		}
	}

	batch, ok := byName["delegate_tasks"]
	if !ok {
		t.Fatal("missing delegate_tasks tool def")
	}
	agentProp, ok := batch.Properties["agent"].(map[string]interface{})
	if !ok {
		t.Fatal("delegate_tasks agent property missing")
	}
	enum, ok := agentProp["enum"].([]string)
	if !ok || len(enum) != 2 || enum[0] != "query" || enum[1] != "emailing" {
		t.Errorf("agent enum = %v, want the subagent names in order", agentProp["enum"])
	}

	if defs := delegationToolDefs(nil); defs != nil {
		t.Errorf("leaf agent declares delegation tools: %v", defs)
	}
}
