package provision

// StepStatus represents the state of a step as observed by its check
// or as recorded by the pipeline.
type StepStatus string

const (
	// StatusSatisfied indicates the step's desired state is already met.
	StatusSatisfied StepStatus = "satisfied"
	// StatusNeedsApply indicates the step needs to be applied.
	StatusNeedsApply StepStatus = "needs-apply"
	// StatusApplied indicates the step ran its action successfully.
	StatusApplied StepStatus = "applied"
	// StatusUnknown indicates the step's state could not be determined.
	StatusUnknown StepStatus = "unknown"
	// StatusFailed indicates the step failed during check or apply.
	StatusFailed StepStatus = "failed"
	// StatusSkipped indicates the step did not run (precondition absent, earlier failure).
	StatusSkipped StepStatus = "skipped"
	// StatusDeclined indicates the operator answered no at the confirmation gate.
	StatusDeclined StepStatus = "declined"
)

// String returns the string representation of the status.
func (s StepStatus) String() string {
	return string(s)
}

// NeedsAction returns true if this status requires execution or operator attention.
func (s StepStatus) NeedsAction() bool {
	switch s {
	case StatusNeedsApply, StatusUnknown, StatusFailed:
		return true
	case StatusSatisfied, StatusApplied, StatusSkipped, StatusDeclined:
		return false
	}
	return false
}

// IsTerminal returns true if this status represents a final state.
func (s StepStatus) IsTerminal() bool {
	switch s {
	case StatusSatisfied, StatusApplied, StatusFailed, StatusSkipped, StatusDeclined:
		return true
	case StatusNeedsApply, StatusUnknown:
		return false
	}
	return false
}

// Converged returns true if the system is in the step's desired state.
func (s StepStatus) Converged() bool {
	return s == StatusSatisfied || s == StatusApplied
}
