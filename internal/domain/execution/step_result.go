// Package execution runs registered provisioning steps in order.
package execution

import (
	"time"

	"github.com/felixgeelhaar/archstrap/internal/domain/provision"
)

// StepResult captures the outcome of a single step.
type StepResult struct {
	stepID   provision.StepID
	status   provision.StepStatus
	err      error
	duration time.Duration
	notes    []string
}

// NewStepResult creates a new StepResult.
func NewStepResult(stepID provision.StepID, status provision.StepStatus, err error) StepResult {
	return StepResult{
		stepID: stepID,
		status: status,
		err:    err,
	}
}

// StepID returns the ID of the step.
func (r StepResult) StepID() provision.StepID {
	return r.stepID
}

// Status returns the final status of the step.
func (r StepResult) Status() provision.StepStatus {
	return r.status
}

// Error returns any error that occurred.
func (r StepResult) Error() error {
	return r.err
}

// Duration returns how long the step took.
func (r StepResult) Duration() time.Duration {
	return r.duration
}

// Notes returns notices the step raised, such as a pending reboot.
func (r StepResult) Notes() []string {
	return r.notes
}

// Success returns true if the system is in the step's desired state.
func (r StepResult) Success() bool {
	return r.status.Converged()
}

// Skipped returns true if the step did not run.
func (r StepResult) Skipped() bool {
	return r.status == provision.StatusSkipped || r.status == provision.StatusDeclined
}

// WithDuration returns a new StepResult with duration set.
func (r StepResult) WithDuration(d time.Duration) StepResult {
	r.duration = d
	return r
}

// WithNotes returns a new StepResult with notes set.
func (r StepResult) WithNotes(notes []string) StepResult {
	r.notes = notes
	return r
}
