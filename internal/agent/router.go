package agent

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/mpellerin/tally/internal/capability"
	"github.com/mpellerin/tally/internal/llm"
	"github.com/mpellerin/tally/pkg/models"
)

// delegatePrefix names the per-agent delegation tools: transfer_to_<agent>.
const delegatePrefix = "transfer_to_"

// batchTool is the parallel fan-out tool delegating several instructions to
// one subagent in a single call.
const batchTool = "delegate_tasks"

// delegationArgs is the payload of a transfer_to_<agent> call.
type delegationArgs struct {
	Instruction string `json:"instruction"`
}

// batchArgs is the payload of a delegate_tasks call.
type batchArgs struct {
	Agent        string   `json:"agent"`
	Instructions []string `json:"instructions"`
}

// delegationTarget extracts the subagent name from a delegation call name.
func delegationTarget(name string) (string, bool) {
	if strings.HasPrefix(name, delegatePrefix) {
		return strings.TrimPrefix(name, delegatePrefix), true
	}
	return "", false
}

// expandBatch rewrites delegate_tasks calls into one transfer call per
// instruction, with correlation ids derived from the parent call id
// (parent__0, parent__1, ...). Results are later reassembled by these ids, so
// completion order never matters. Malformed batch calls pass through
// untouched and fail at execution.
func expandBatch(calls []models.ToolCall) []models.ToolCall {
	expanded := make([]models.ToolCall, 0, len(calls))
	for _, tc := range calls {
		if tc.Name != batchTool {
			expanded = append(expanded, tc)
			continue
		}
		var args batchArgs
		if err := json.Unmarshal(tc.Args, &args); err != nil || args.Agent == "" || len(args.Instructions) == 0 {
			expanded = append(expanded, tc)
			continue
		}
		for i, instruction := range args.Instructions {
			payload, _ := json.Marshal(delegationArgs{Instruction: instruction})
			expanded = append(expanded, models.ToolCall{
				ID:   fmt.Sprintf("%s__%d", tc.ID, i),
				Name: delegatePrefix + args.Agent,
				Args: payload,
			})
		}
	}
	return expanded
}

// monitoredInstructions collects, in call order, every instruction the calls
// aim at an agent the given predicate monitors.
func monitoredInstructions(calls []models.ToolCall, monitors func(string) bool) []string {
	var out []string
	for _, tc := range calls {
		if tc.Name == batchTool {
			var args batchArgs
			if err := json.Unmarshal(tc.Args, &args); err == nil && monitors(args.Agent) {
				out = append(out, args.Instructions...)
			}
			continue
		}
		if target, ok := delegationTarget(tc.Name); ok && monitors(target) {
			var args delegationArgs
			if err := json.Unmarshal(tc.Args, &args); err == nil && args.Instruction != "" {
				out = append(out, args.Instruction)
			}
		}
	}
	return out
}

// capabilityToolDefs converts registered capabilities into provider tool
// declarations.
func capabilityToolDefs(reg *capability.Registry) []llm.ToolDef {
	caps := reg.All()
	defs := make([]llm.ToolDef, 0, len(caps))
	for _, c := range caps {
		defs = append(defs, llm.ToolDef{
			Name:        c.Name(),
			Description: c.Description(),
			Properties:  schemaProperties(c.Schema()),
			Required:    c.Schema().Required,
		})
	}
	return defs
}

func schemaProperties(s capability.Schema) map[string]interface{} {
	props := make(map[string]interface{}, len(s.Properties))
	for name, p := range s.Properties {
		props[name] = propertySchema(p)
	}
	return props
}

func propertySchema(p capability.Property) map[string]interface{} {
	out := map[string]interface{}{"type": p.Type}
	if p.Description != "" {
		out["description"] = p.Description
	}
	if len(p.Enum) > 0 {
		out["enum"] = p.Enum
	}
	if p.Items != nil {
		out["items"] = propertySchema(*p.Items)
	}
	return out
}

// delegationToolDefs declares one transfer tool per subagent plus the batch
// fan-out tool.
func delegationToolDefs(subagents []*Node) []llm.ToolDef {
	if len(subagents) == 0 {
		return nil
	}

	defs := make([]llm.ToolDef, 0, len(subagents)+1)
	names := make([]string, 0, len(subagents))
	for _, sub := range subagents {
		names = append(names, sub.Name())
		defs = append(defs, llm.ToolDef{
			Name:        delegatePrefix + sub.Name(),
			Description: fmt.Sprintf("Delegate one instruction to the %s agent: %s", sub.Name(), sub.Purpose()),
			Properties: map[string]interface{}{
				"instruction": map[string]interface{}{
					"type":        "string",
					"description": "A self-contained instruction for the agent",
				},
			},
			Required: []string{"instruction"},
		})
	}

	defs = append(defs, llm.ToolDef{
		Name:        batchTool,
		Description: "Delegate several independent instructions to one agent. The instructions run in parallel, each in isolation.",
		Properties: map[string]interface{}{
			"agent": map[string]interface{}{
				"type":        "string",
				"description": "Target agent name",
				"enum":        names,
			},
			"instructions": map[string]interface{}{
				"type":        "array",
				"items":       map[string]interface{}{"type": "string"},
				"description": "Independent, self-contained instructions",
			},
		},
		Required: []string{"agent", "instructions"},
	})
	return defs
}
