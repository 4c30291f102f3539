// Package revisor reviews delegated instructions against a structural rubric
// before they are dispatched. It judges form, not answers: a well-shaped batch
// passes even when the underlying request is misguided.
package revisor

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/mpellerin/tally/internal/llm"
	"github.com/mpellerin/tally/pkg/models"
)

// DefaultMonitored is the agent whose dispatches are reviewed by default.
const DefaultMonitored = "query"

// DefaultMaxRejections bounds consecutive rejected reasoning attempts before
// the run fails hard.
const DefaultMaxRejections = 5

const classifierPrompt = `You are a strict reviewer of instructions about to be dispatched to a data-retrieval agent.
Judge STRUCTURE only. Do not judge whether the request itself makes business sense.

Apply exactly these checks to every instruction:

1. question_format: the instruction must be an open request for information. Verification phrasing fails: no "verify", "confirm", "check" or "validate", and no expected value embedded in the question. "Verify Elodie worked 22 days" fails; "How many days did Elodie LEGUAY work in September 2025?" passes.
2. atomicity: exactly one entity and exactly one metric per instruction. One worker, and days OR cost, never both. Bundled lookups must be split.
3. context_completeness: the instruction must be answerable without seeing any other instruction. Workers need first AND last name, in any order. A month and year is required ONLY when the metric is temporal (days worked, hours, costs, timesheets). Static attributes (email, phone, job title, department, resource id) need no time period.
4. specificity: the instruction must name a concrete metric ("days", "cost", "hours", "rate"). Vague phrasing like "check the data" or "how much" without a metric fails.
5. independence: the instruction must not depend on the result of a sibling instruction in the same batch.

If every instruction passes, set revision_status to "approved" and echo the batch verbatim in validated_tasks.
If any instruction fails, set revision_status to "rejected" and report every failure in errors.`

// verdictTool is the structured-output schema the classifier must answer with.
var verdictTool = llm.ToolDef{
	Name:        "submit_revision",
	Description: "Submit the structural review verdict for the instruction batch.",
	Properties: map[string]interface{}{
		"revision_status": map[string]interface{}{
			"type": "string",
			"enum": []string{"approved", "rejected"},
		},
		"validated_tasks": map[string]interface{}{
			"type":        "array",
			"items":       map[string]interface{}{"type": "string"},
			"description": "The instructions echoed verbatim, when approved",
		},
		"errors": map[string]interface{}{
			"type": "array",
			"items": map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"task_index": map[string]interface{}{"type": "integer"},
					"task":       map[string]interface{}{"type": "string"},
					"violation": map[string]interface{}{
						"type": "string",
						"enum": []string{"question_format", "atomicity", "context_completeness", "specificity", "independence"},
					},
					"details":    map[string]interface{}{"type": "string"},
					"suggestion": map[string]interface{}{"type": "string"},
				},
				"required": []string{"task_index", "task", "violation", "details", "suggestion"},
			},
		},
	},
	Required: []string{"revision_status"},
}

// Revisor validates instruction batches with a classifier model call.
type Revisor struct {
	provider  llm.Provider
	monitored string
}

// New creates a revisor reviewing dispatches to the monitored agent. An empty
// monitored name falls back to DefaultMonitored.
func New(provider llm.Provider, monitored string) *Revisor {
	if monitored == "" {
		monitored = DefaultMonitored
	}
	return &Revisor{provider: provider, monitored: monitored}
}

// Monitors reports whether dispatches to the named agent are reviewed.
func (r *Revisor) Monitors(agent string) bool {
	return agent == r.monitored
}

// Review classifies a batch of instructions. A classifier failure of any kind
// rejects the whole batch: an unreviewable batch never passes through.
func (r *Revisor) Review(ctx context.Context, instructions []string) *models.Verdict {
	if len(instructions) == 0 {
		return &models.Verdict{Status: models.VerdictApproved}
	}

	var batch strings.Builder
	batch.WriteString("Review this instruction batch:\n")
	for i, inst := range instructions {
		fmt.Fprintf(&batch, "%d. %s\n", i, inst)
	}

	raw, err := r.provider.CompleteStructured(ctx, llm.Request{
		System:   classifierPrompt,
		Messages: []models.Message{models.HumanMessage(batch.String())},
	}, verdictTool)
	if err != nil {
		return rejectAll(instructions, fmt.Sprintf("classifier call failed: %v", err))
	}

	var verdict models.Verdict
	if err := json.Unmarshal(raw, &verdict); err != nil {
		return rejectAll(instructions, fmt.Sprintf("classifier produced invalid verdict: %v", err))
	}

	switch verdict.Status {
	case models.VerdictApproved:
		// Approval passes the batch through untouched regardless of what the
		// classifier echoed back.
		verdict.ValidatedTasks = instructions
		verdict.Violations = nil
		return &verdict
	case models.VerdictRejected:
		if len(verdict.Violations) == 0 {
			return rejectAll(instructions, "classifier rejected the batch without naming violations")
		}
		return &verdict
	default:
		return rejectAll(instructions, fmt.Sprintf("classifier returned unknown status %q", verdict.Status))
	}
}

// rejectAll builds a rejected verdict covering every instruction. It marks an
// unreviewable batch, not a rubric failure: the kind stays within the closed
// violation set and the details carry the real cause.
func rejectAll(instructions []string, detail string) *models.Verdict {
	verdict := &models.Verdict{Status: models.VerdictRejected}
	for i, inst := range instructions {
		verdict.Violations = append(verdict.Violations, models.Violation{
			TaskIndex:  i,
			Task:       inst,
			Kind:       models.ViolationQuestionFormat,
			Details:    "unreviewable batch: " + detail,
			Suggestion: "Rephrase the instruction and resubmit the batch.",
		})
	}
	return verdict
}

// RejectionMessage renders a rejected verdict as the synthetic human message
// injected into the delegating agent's history.
func RejectionMessage(verdict *models.Verdict) string {
	var b strings.Builder
	b.WriteString("Your delegated instructions were rejected by structural review. Rewrite them and try again.\n\nViolations:\n")
	for _, v := range verdict.Violations {
		fmt.Fprintf(&b, "- instruction %d (%s): %s\n  problem: %s\n  suggestion: %s\n",
			v.TaskIndex, v.Kind, v.Task, v.Details, v.Suggestion)
	}
	return b.String()
}
