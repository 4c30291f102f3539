// Package reflexion implements the plan refinement loop: a planner drafts an
// approach, a critic challenges it, and the settled plan is transformed into
// an executable todo list. The critic also answers planner questions, which
// do not count against the critique budget.
package reflexion

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/mpellerin/tally/internal/llm"
	"github.com/mpellerin/tally/pkg/models"
)

// ApprovalSentinel is the critic's exact reply when the plan needs no changes.
const ApprovalSentinel = "000-NO_CRITIQUE-000"

// QuestionMarker starts a planner clarification request instead of a plan.
const QuestionMarker = "QUESTION:"

// AnswerPrefix starts the critic's reply to a planner question.
const AnswerPrefix = "ANSWER:"

// DefaultMaxCritiques bounds the number of critique rounds before the plan is
// accepted as-is.
const DefaultMaxCritiques = 3

const plannerPrompt = `You are a planner for a billing reconciliation team.
Produce a short, ordered plan for the given request: which records to read, what to compare, and which follow-up actions to take.

If you are missing information you genuinely cannot plan without, reply with a single line starting with "` + QuestionMarker + `" followed by your question, and nothing else.
Otherwise reply with the plan only.`

const criticPrompt = `You are a critic reviewing a reconciliation plan. Look for missing verification steps, actions taken before their preconditions, and steps that do not serve the request.

If the plan needs no changes, reply with exactly:
` + ApprovalSentinel + `

Otherwise reply with your critique only.`

const answerPrompt = `You are assisting a planner who asked a clarification question. Answer it concisely from the request context so planning can continue. Start your reply with "` + AnswerPrefix + `".`

const transformPrompt = `Convert the final plan into an ordered todo list. Each todo is one concrete action phrased so an agent can execute it without seeing the plan.`

var todosTool = llm.ToolDef{
	Name:        "write_todos",
	Description: "Record the ordered todo list derived from the plan.",
	Properties: map[string]interface{}{
		"todos": map[string]interface{}{
			"type":        "array",
			"items":       map[string]interface{}{"type": "string"},
			"description": "Ordered, self-contained action steps",
		},
	},
	Required: []string{"todos"},
}

// Result is the outcome of one planning run.
type Result struct {
	// Plan is the settled plan text.
	Plan string
	// Todos is the executable form of the plan, first step in progress.
	Todos []models.Todo
	// Critiques is the number of critique rounds consumed.
	Critiques int
	// Approved is true when the critic accepted the plan, false when the
	// critique budget forced acceptance.
	Approved bool
}

// Loop runs the planner/critic refinement cycle.
type Loop struct {
	provider     llm.Provider
	maxCritiques int
}

// New creates a reflexion loop. maxCritiques <= 0 uses DefaultMaxCritiques.
func New(provider llm.Provider, maxCritiques int) *Loop {
	if maxCritiques <= 0 {
		maxCritiques = DefaultMaxCritiques
	}
	return &Loop{provider: provider, maxCritiques: maxCritiques}
}

// Run plans the given request and returns the settled plan and its todos.
func (l *Loop) Run(ctx context.Context, request string) (*Result, error) {
	history := []models.Message{models.HumanMessage(request)}
	result := &Result{}

	for {
		completion, err := l.provider.Complete(ctx, llm.Request{
			System:   plannerPrompt,
			Messages: history,
		})
		if err != nil {
			return nil, fmt.Errorf("planner: %w", err)
		}
		output := strings.TrimSpace(completion.Text)
		history = append(history, models.AssistantMessage(output))

		if strings.HasPrefix(output, QuestionMarker) {
			// Clarification round, does not consume the critique budget.
			answer, err := l.answer(ctx, request, output)
			if err != nil {
				return nil, err
			}
			history = append(history, models.HumanMessage(answer))
			continue
		}
		result.Plan = output

		if result.Critiques >= l.maxCritiques {
			break
		}

		critique, err := l.critique(ctx, request, result.Plan)
		if err != nil {
			return nil, err
		}
		if critique == ApprovalSentinel {
			result.Approved = true
			break
		}
		result.Critiques++
		history = append(history, models.HumanMessage("Critique of your plan:\n"+critique))
	}

	todos, err := l.transform(ctx, result.Plan)
	if err != nil {
		return nil, err
	}
	result.Todos = todos
	return result, nil
}

func (l *Loop) critique(ctx context.Context, request, plan string) (string, error) {
	completion, err := l.provider.Complete(ctx, llm.Request{
		System: criticPrompt,
		Messages: []models.Message{
			models.HumanMessage(fmt.Sprintf("Request:\n%s\n\nPlan:\n%s", request, plan)),
		},
	})
	if err != nil {
		return "", fmt.Errorf("critic: %w", err)
	}
	return strings.TrimSpace(completion.Text), nil
}

func (l *Loop) answer(ctx context.Context, request, question string) (string, error) {
	completion, err := l.provider.Complete(ctx, llm.Request{
		System: answerPrompt,
		Messages: []models.Message{
			models.HumanMessage(fmt.Sprintf("Request:\n%s\n\n%s", request, question)),
		},
	})
	if err != nil {
		return "", fmt.Errorf("critic answer: %w", err)
	}
	answer := strings.TrimSpace(completion.Text)
	if !strings.HasPrefix(answer, AnswerPrefix) {
		answer = AnswerPrefix + " " + answer
	}
	return answer, nil
}

func (l *Loop) transform(ctx context.Context, plan string) ([]models.Todo, error) {
	raw, err := l.provider.CompleteStructured(ctx, llm.Request{
		System:   transformPrompt,
		Messages: []models.Message{models.HumanMessage(plan)},
	}, todosTool)
	if err != nil {
		return nil, fmt.Errorf("transform: %w", err)
	}

	var out struct {
		Todos []string `json:"todos"`
	}
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("transform: decode todos: %w", err)
	}
	if len(out.Todos) == 0 {
		return nil, fmt.Errorf("transform produced no todos")
	}
	return models.NewPlan(out.Todos), nil
}
