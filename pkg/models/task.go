package models

// Task is a single unit of delegated work: one instruction aimed at one agent.
type Task struct {
	// Agent is the registered name of the target agent.
	Agent string `json:"agent"`
	// Instruction is the self-contained request the agent will execute.
	Instruction string `json:"instruction"`
}

// TodoStatus represents the lifecycle state of a todo item.
type TodoStatus string

const (
	// TodoPending means the item has not been started.
	TodoPending TodoStatus = "pending"
	// TodoInProgress means the item is being worked on.
	TodoInProgress TodoStatus = "in_progress"
	// TodoCompleted means the item is finished.
	TodoCompleted TodoStatus = "completed"
)

// Valid returns true if the status is a known todo status.
func (s TodoStatus) Valid() bool {
	switch s {
	case TodoPending, TodoInProgress, TodoCompleted:
		return true
	}
	return false
}

// Todo is one step of an executable plan produced by the planning loop.
type Todo struct {
	Content string     `json:"content"`
	Status  TodoStatus `json:"status"`
}

// NewPlan converts ordered step descriptions into a todo list with the first
// step already in progress.
func NewPlan(steps []string) []Todo {
	todos := make([]Todo, 0, len(steps))
	for i, step := range steps {
		status := TodoPending
		if i == 0 {
			status = TodoInProgress
		}
		todos = append(todos, Todo{Content: step, Status: status})
	}
	return todos
}
