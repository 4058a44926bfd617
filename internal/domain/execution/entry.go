package execution

import "github.com/felixgeelhaar/archstrap/internal/domain/provision"

// Entry is a registered step together with its run policy.
// Entries are immutable after registration.
type Entry struct {
	step     provision.Step
	confirm  bool
	optional bool
}

// EntryOption configures an Entry at registration time.
type EntryOption func(*Entry)

// RequireConfirmation makes the step ask the gate before applying.
func RequireConfirmation() EntryOption {
	return func(e *Entry) {
		e.confirm = true
	}
}

// ContinueOnFailure reports a failure of the step without aborting the run.
func ContinueOnFailure() EntryOption {
	return func(e *Entry) {
		e.optional = true
	}
}

// When applies opt only if cond is true.
func When(cond bool, opt EntryOption) EntryOption {
	return func(e *Entry) {
		if cond {
			opt(e)
		}
	}
}

// NewEntry creates an Entry for step.
func NewEntry(step provision.Step, opts ...EntryOption) Entry {
	e := Entry{step: step}
	for _, opt := range opts {
		opt(&e)
	}
	return e
}

// Step returns the registered step.
func (e Entry) Step() provision.Step {
	return e.step
}

// ID returns the step ID.
func (e Entry) ID() provision.StepID {
	return e.step.ID()
}

// Description returns the step label.
func (e Entry) Description() string {
	return e.step.Description()
}

// RequiresConfirmation returns true if the gate is consulted before Apply.
func (e Entry) RequiresConfirmation() bool {
	return e.confirm
}

// Optional returns true if a failure does not abort the pipeline.
func (e Entry) Optional() bool {
	return e.optional
}
