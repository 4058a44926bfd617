package execution

import (
	"errors"
	"fmt"

	"github.com/felixgeelhaar/archstrap/internal/domain/provision"
)

// Registry and lookup errors.
var (
	ErrDuplicateStep = errors.New("step already registered")
	ErrUnknownStep   = errors.New("unknown step")
)

// ErrAborted wraps the StepError of the required step that stopped a run.
var ErrAborted = errors.New("pipeline aborted")

// Phase names where a step can fail.
const (
	PhaseCheck = "check"
	PhaseApply = "apply"
)

// StepError describes a failed step and how to retry it.
type StepError struct {
	StepID provision.StepID
	Phase  string
	Err    error
}

// Error returns the formatted error message.
func (e *StepError) Error() string {
	return fmt.Sprintf("step %s failed during %s: %v", e.StepID, e.Phase, e.Err)
}

// Unwrap returns the underlying error.
func (e *StepError) Unwrap() error {
	return e.Err
}

// Suggestion tells the operator how to retry the step by hand.
func (e *StepError) Suggestion() string {
	return fmt.Sprintf("fix the cause above, then re-run this step manually with: archstrap step %s", e.StepID)
}
