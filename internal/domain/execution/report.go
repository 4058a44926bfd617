package execution

import (
	"github.com/felixgeelhaar/archstrap/internal/domain/provision"
)

// Report is the outcome of a pipeline run.
type Report struct {
	Results       []StepResult
	Interrupted   bool
	LastCompleted provision.StepID
	err           error
}

// Err returns the error that stopped the run: ErrAborted wrapping the
// first failed required step, or the cancellation cause when the run was
// interrupted.
func (r Report) Err() error {
	return r.err
}

// Success returns true when no required step failed and the run was not interrupted.
// Failed optional steps still count as a (partial) success.
func (r Report) Success() bool {
	return r.err == nil
}

// Counts returns the number of results per status.
func (r Report) Counts() map[provision.StepStatus]int {
	counts := make(map[provision.StepStatus]int)
	for _, res := range r.Results {
		counts[res.Status()]++
	}
	return counts
}

// Notices returns every notice raised during the run, in step order.
func (r Report) Notices() []string {
	var notices []string
	for _, res := range r.Results {
		notices = append(notices, res.Notes()...)
	}
	return notices
}

// Failures returns the results of failed steps.
func (r Report) Failures() []StepResult {
	var failed []StepResult
	for _, res := range r.Results {
		if res.Status() == provision.StatusFailed {
			failed = append(failed, res)
		}
	}
	return failed
}

// Result returns the result for id, if the step was reached.
func (r Report) Result(id string) (StepResult, bool) {
	for _, res := range r.Results {
		if res.StepID().String() == id {
			return res, true
		}
	}
	return StepResult{}, false
}
