package models

// VerdictStatus is the outcome of a structural revision pass.
type VerdictStatus string

const (
	// VerdictApproved means every reviewed instruction passed the rubric.
	VerdictApproved VerdictStatus = "approved"
	// VerdictRejected means at least one instruction violated the rubric.
	VerdictRejected VerdictStatus = "rejected"
)

// ViolationKind is one of the fixed structural checks applied to delegated
// instructions before they are dispatched.
type ViolationKind string

const (
	// ViolationQuestionFormat flags instructions not phrased as answerable requests.
	ViolationQuestionFormat ViolationKind = "question_format"
	// ViolationAtomicity flags instructions bundling several lookups into one.
	ViolationAtomicity ViolationKind = "atomicity"
	// ViolationContextCompleteness flags instructions missing identifying context.
	ViolationContextCompleteness ViolationKind = "context_completeness"
	// ViolationSpecificity flags vague instructions with no concrete target.
	ViolationSpecificity ViolationKind = "specificity"
	// ViolationIndependence flags instructions that depend on sibling results.
	ViolationIndependence ViolationKind = "independence"
)

// Valid returns true if the kind is one of the known rubric checks.
func (k ViolationKind) Valid() bool {
	switch k {
	case ViolationQuestionFormat, ViolationAtomicity, ViolationContextCompleteness,
		ViolationSpecificity, ViolationIndependence:
		return true
	}
	return false
}

// Violation describes one rubric failure for one instruction in a batch.
type Violation struct {
	// TaskIndex is the zero-based position of the instruction in the batch.
	TaskIndex int `json:"task_index"`
	// Task is the offending instruction, echoed back verbatim.
	Task string `json:"task"`
	// Kind names the rubric check that failed.
	Kind ViolationKind `json:"violation"`
	// Details explains what is structurally wrong.
	Details string `json:"details"`
	// Suggestion proposes a rewrite that would pass.
	Suggestion string `json:"suggestion"`
}

// Verdict is the classifier's decision over a batch of delegated instructions.
type Verdict struct {
	Status VerdictStatus `json:"revision_status"`
	// ValidatedTasks echoes the batch verbatim when approved.
	ValidatedTasks []string `json:"validated_tasks,omitempty"`
	// Violations lists per-instruction failures when rejected.
	Violations []Violation `json:"errors,omitempty"`
}

// Approved reports whether the batch may be dispatched as-is.
func (v *Verdict) Approved() bool {
	return v.Status == VerdictApproved
}
