package revisor

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/mpellerin/tally/internal/llm/llmtest"
	"github.com/mpellerin/tally/pkg/models"
)

var batch = []string{
	"How many days did Elodie LEGUAY declare on Project Modernisation in September 2025?",
	"How many days did Didier GEIG declare on Project Modernisation in September 2025?",
}

func TestReviewApprovedEchoesBatch(t *testing.T) {
	provider := llmtest.NewScripted(
		llmtest.Structured(`{"revision_status":"approved","validated_tasks":["rewritten one"]}`),
	)
	r := New(provider, "")

	verdict := r.Review(context.Background(), batch)
	if !verdict.Approved() {
		t.Fatalf("expected approval, got %+v", verdict)
	}
	if len(verdict.ValidatedTasks) != len(batch) {
		t.Fatalf("expected %d validated tasks, got %d", len(batch), len(verdict.ValidatedTasks))
	}
	for i, inst := range batch {
		if verdict.ValidatedTasks[i] != inst {
			t.Errorf("approval must echo instruction %d verbatim, got %q", i, verdict.ValidatedTasks[i])
		}
	}
}

func TestReviewRejected(t *testing.T) {
	provider := llmtest.NewScripted(
		llmtest.Structured(`{
			"revision_status": "rejected",
			"errors": [{
				"task_index": 0,
				"task": "check the data",
				"violation": "specificity",
				"details": "no concrete target named",
				"suggestion": "Name the worker and the reporting month."
			}]
		}`),
	)
	r := New(provider, "query")

	verdict := r.Review(context.Background(), []string{"check the data"})
	if verdict.Approved() {
		t.Fatal("expected rejection")
	}
	if len(verdict.Violations) != 1 {
		t.Fatalf("expected 1 violation, got %d", len(verdict.Violations))
	}
	v := verdict.Violations[0]
	if v.Kind != models.ViolationSpecificity || v.TaskIndex != 0 {
		t.Errorf("unexpected violation: %+v", v)
	}

	msg := RejectionMessage(verdict)
	for _, want := range []string{"rejected", "specificity", "Name the worker"} {
		if !strings.Contains(msg, want) {
			t.Errorf("rejection message missing %q:\n%s", want, msg)
		}
	}
}

func TestReviewClassifierFailureRejectsAll(t *testing.T) {
	cases := map[string]llmtest.Step{
		"call error":     llmtest.Fail(errors.New("model unavailable")),
		"invalid json":   llmtest.Structured(`not json`),
		"unknown status": llmtest.Structured(`{"revision_status":"maybe"}`),
		"empty reject":   llmtest.Structured(`{"revision_status":"rejected"}`),
	}

	for name, step := range cases {
		t.Run(name, func(t *testing.T) {
			r := New(llmtest.NewScripted(step), "query")
			verdict := r.Review(context.Background(), batch)
			if verdict.Approved() {
				t.Fatal("classifier failure must reject")
			}
			if len(verdict.Violations) != len(batch) {
				t.Fatalf("expected a violation per instruction, got %d", len(verdict.Violations))
			}
			for _, v := range verdict.Violations {
				if v.Kind != models.ViolationQuestionFormat {
					t.Errorf("violation kind = %q, want question_format", v.Kind)
				}
				if !strings.HasPrefix(v.Details, "unreviewable batch:") {
					t.Errorf("details = %q, want the unreviewable-batch marker", v.Details)
				}
			}
		})
	}
}

func TestReviewRubricSpellsOutChecks(t *testing.T) {
	provider := llmtest.NewScripted(
		llmtest.Structured(`{"revision_status":"approved"}`),
	)
	r := New(provider, "query")
	r.Review(context.Background(), batch)

	if len(provider.Requests) != 1 {
		t.Fatalf("classifier saw %d requests, want 1", len(provider.Requests))
	}
	rubric := provider.Requests[0].System
	wants := []string{
		`no "verify", "confirm", "check" or "validate"`,
		"no expected value embedded",
		"exactly one entity and exactly one metric",
		"days OR cost, never both",
		"first AND last name",
		"ONLY when the metric is temporal",
		"Static attributes",
	}
	for _, want := range wants {
		if !strings.Contains(rubric, want) {
			t.Errorf("rubric missing criterion %q", want)
		}
	}
}

func TestReviewEmptyBatch(t *testing.T) {
	r := New(llmtest.NewScripted(), "query")
	if verdict := r.Review(context.Background(), nil); !verdict.Approved() {
		t.Errorf("empty batch should pass without a classifier call: %+v", verdict)
	}
}

func TestMonitors(t *testing.T) {
	r := New(llmtest.NewScripted(), "")
	if !r.Monitors("query") {
		t.Error("default monitored agent should be query")
	}
	if r.Monitors("emailing") {
		t.Error("unmonitored agent should not be reviewed")
	}
}
