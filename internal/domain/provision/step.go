// Package provision defines the provisioning step model: what a step is,
// how its state is reported, and the read-only context it runs in.
package provision

// Step represents an idempotent unit of provisioning.
// Check must be free of side effects; Apply must be safe to repeat.
type Step interface {
	// ID returns the unique identifier for this step.
	ID() StepID

	// Description returns a short human label used in progress output.
	Description() string

	// Check determines the current status of this step.
	// Returns StatusSatisfied if nothing needs doing, StatusNeedsApply if
	// Apply should run, or StatusSkipped if a precondition is absent.
	Check(ctx RunContext) (StepStatus, error)

	// Apply executes the step's changes.
	Apply(ctx RunContext) error
}
