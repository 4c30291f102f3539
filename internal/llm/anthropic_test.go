package llm

import (
	"encoding/json"
	"testing"

	"github.com/mpellerin/tally/pkg/models"
)

func TestConvertAnthropicMessages(t *testing.T) {
	msgs := []models.Message{
		models.SystemMessage("you reconcile timesheets"),
		models.HumanMessage("check Elodie's report"),
		{
			Role:    models.RoleAssistant,
			Content: "looking it up",
			ToolCalls: []models.ToolCall{
				{ID: "call_1", Name: "get_worker", Args: json.RawMessage(`{"name":"LEGUAY"}`)},
				{ID: "call_2", Name: "get_times_report", Args: json.RawMessage(`{"worker_id":"w1"}`)},
			},
		},
		models.ToolResultMessage("call_1", "found worker w1", false),
		models.ToolResultMessage("call_2", "22 days", false),
		models.AssistantMessage("all good"),
	}

	out, system := convertAnthropicMessages(msgs)

	if len(system) != 1 {
		t.Fatalf("expected 1 system block, got %d", len(system))
	}
	if system[0].Text != "you reconcile timesheets" {
		t.Errorf("unexpected system text %q", system[0].Text)
	}

	// human, assistant w/ tool use, merged tool results, assistant
	if len(out) != 4 {
		t.Fatalf("expected 4 messages, got %d", len(out))
	}

	// Both tool results must land in a single user message.
	if len(out[2].Content) != 2 {
		t.Errorf("expected 2 tool result blocks in one message, got %d", len(out[2].Content))
	}
}

func TestConvertAnthropicTools(t *testing.T) {
	tools := convertAnthropicTools([]ToolDef{{
		Name:        "get_worker",
		Description: "look up a worker by name",
		Properties: map[string]interface{}{
			"name": map[string]interface{}{"type": "string"},
		},
		Required: []string{"name"},
	}})

	if len(tools) != 1 {
		t.Fatalf("expected 1 tool, got %d", len(tools))
	}
	if tools[0].OfTool == nil {
		t.Fatal("tool has nil OfTool")
	}
	if tools[0].OfTool.Name != "get_worker" {
		t.Errorf("unexpected tool name %q", tools[0].OfTool.Name)
	}
	if len(tools[0].OfTool.InputSchema.Required) != 1 {
		t.Errorf("expected 1 required field, got %v", tools[0].OfTool.InputSchema.Required)
	}
}

func TestTokenTracker(t *testing.T) {
	tracker := NewTokenTracker()
	tracker.Add(100, 40)
	tracker.Add(50, 10)

	in, out := tracker.Total()
	if in != 150 || out != 50 {
		t.Errorf("expected 150/50, got %d/%d", in, out)
	}
	if tracker.Calls() != 2 {
		t.Errorf("expected 2 calls, got %d", tracker.Calls())
	}

	tracker.Reset()
	if in, out := tracker.Total(); in != 0 || out != 0 {
		t.Errorf("reset should zero totals, got %d/%d", in, out)
	}
}

func TestCompletionEmpty(t *testing.T) {
	if !(&Completion{}).Empty() {
		t.Error("zero completion should be empty")
	}
	if (&Completion{Text: "hi"}).Empty() {
		t.Error("text completion should not be empty")
	}
	if (&Completion{ToolCalls: []models.ToolCall{{ID: "x"}}}).Empty() {
		t.Error("tool-calling completion should not be empty")
	}
}
