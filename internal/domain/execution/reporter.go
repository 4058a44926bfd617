package execution

// Reporter receives progress callbacks as the pipeline moves through steps.
type Reporter interface {
	StepStarted(index, total int, entry Entry)
	StepFinished(index, total int, entry Entry, result StepResult)
}

// NopReporter discards progress callbacks.
type NopReporter struct{}

// StepStarted does nothing.
func (NopReporter) StepStarted(int, int, Entry) {}

// StepFinished does nothing.
func (NopReporter) StepFinished(int, int, Entry, StepResult) {}
