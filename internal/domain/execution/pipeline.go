package execution

import (
	"context"
	"fmt"
	"time"

	"github.com/felixgeelhaar/archstrap/internal/domain/confirm"
	"github.com/felixgeelhaar/archstrap/internal/domain/provision"
	"github.com/felixgeelhaar/archstrap/internal/ports"
)

// Pipeline owns the ordered step registry and runs it.
// Registration order is execution order.
type Pipeline struct {
	entries     []Entry
	index       map[string]int
	gate        confirm.Gate
	reporter    Reporter
	logger      ports.Logger
	interactive bool
	progress    *Progress
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithGate sets the confirmation gate (default: confirm.AlwaysYes).
func WithGate(gate confirm.Gate) Option {
	return func(p *Pipeline) {
		p.gate = gate
	}
}

// WithReporter sets the progress reporter.
func WithReporter(r Reporter) Option {
	return func(p *Pipeline) {
		p.reporter = r
	}
}

// WithLogger sets the logger.
func WithLogger(l ports.Logger) Option {
	return func(p *Pipeline) {
		p.logger = l
	}
}

// WithInteractive makes every step ask the gate, not only those
// registered with RequireConfirmation.
func WithInteractive(interactive bool) Option {
	return func(p *Pipeline) {
		p.interactive = interactive
	}
}

// New creates an empty Pipeline.
func New(opts ...Option) *Pipeline {
	p := &Pipeline{
		index:    make(map[string]int),
		gate:     confirm.AlwaysYes{},
		reporter: NopReporter{},
	}
	for _, opt := range opts {
		opt(p)
	}
	p.progress = NewProgress(0)
	return p
}

// Register appends step to the pipeline.
func (p *Pipeline) Register(step provision.Step, opts ...EntryOption) error {
	id := step.ID().String()
	if _, ok := p.index[id]; ok {
		return fmt.Errorf("%w: %s", ErrDuplicateStep, id)
	}
	p.index[id] = len(p.entries)
	p.entries = append(p.entries, NewEntry(step, opts...))
	return nil
}

// Entries returns the registered entries in execution order.
func (p *Pipeline) Entries() []Entry {
	out := make([]Entry, len(p.entries))
	copy(out, p.entries)
	return out
}

// Len returns the number of registered steps.
func (p *Pipeline) Len() int {
	return len(p.entries)
}

// Lookup returns the entry registered under id.
func (p *Pipeline) Lookup(id string) (Entry, bool) {
	i, ok := p.index[id]
	if !ok {
		return Entry{}, false
	}
	return p.entries[i], true
}

// Describe returns the progress label for the 1-based index.
func (p *Pipeline) Describe(index int) string {
	if index < 1 || index > len(p.entries) {
		return ""
	}
	return fmt.Sprintf("[%d/%d] %s", index, len(p.entries), p.entries[index-1].Description())
}

// Progress returns the progress of the current or last run.
func (p *Pipeline) Progress() Progress {
	return *p.progress
}

// Run executes every registered step in order.
//
// Every step the pipeline reaches consumes one progress slot, whether it is
// applied, already satisfied, skipped, declined or failed. A failed required
// step aborts the run; the remaining steps are recorded as skipped without
// being reached. A failed optional step is reported and the run continues.
// Cancelling ctx stops the run before the next step; a step that fails
// while ctx is cancelled marks the report interrupted.
func (p *Pipeline) Run(ctx context.Context, exec provision.ExecutionContext) Report {
	return p.run(ctx, exec, p.entries)
}

// RunStep executes a single registered step through the same gate and
// policy as a full run.
func (p *Pipeline) RunStep(ctx context.Context, exec provision.ExecutionContext, id string) (Report, error) {
	entry, ok := p.Lookup(id)
	if !ok {
		return Report{}, fmt.Errorf("%w: %s", ErrUnknownStep, id)
	}
	return p.run(ctx, exec, []Entry{entry}), nil
}

func (p *Pipeline) run(ctx context.Context, exec provision.ExecutionContext, entries []Entry) Report {
	p.progress = NewProgress(len(entries))
	report := Report{Results: make([]StepResult, 0, len(entries))}
	logger := p.log()

	var aborted bool
	for _, entry := range entries {
		if aborted {
			report.Results = append(report.Results, NewStepResult(entry.ID(), provision.StatusSkipped, nil))
			continue
		}

		if err := ctx.Err(); err != nil {
			report.Interrupted = true
			report.err = fmt.Errorf("interrupted before %s: %w", entry.ID(), err)
			logger.Warn(ctx, "pipeline interrupted",
				ports.F("last_completed", report.LastCompleted.String()),
				ports.F("next", entry.ID().String()))
			break
		}

		index, total := p.progress.Advance()
		p.reporter.StepStarted(index, total, entry)

		result := p.runEntry(ctx, exec, entry)
		report.Results = append(report.Results, result)

		p.reporter.StepFinished(index, total, entry, result)

		if err := ctx.Err(); err != nil && !result.Success() {
			report.Interrupted = true
			report.err = fmt.Errorf("interrupted during %s: %w", entry.ID(), err)
			logger.Warn(ctx, "pipeline interrupted",
				ports.F("last_completed", report.LastCompleted.String()),
				ports.F("step", entry.ID().String()))
			break
		}

		switch {
		case result.Status() == provision.StatusFailed && !entry.Optional():
			aborted = true
			report.err = fmt.Errorf("%w: %w", ErrAborted, result.Error())
			logger.Error(ctx, "required step failed, aborting",
				ports.F("step", entry.ID().String()),
				ports.F("error", result.Error()))
		case result.Status() == provision.StatusFailed:
			logger.Warn(ctx, "optional step failed, continuing",
				ports.F("step", entry.ID().String()),
				ports.F("error", result.Error()))
		default:
			report.LastCompleted = entry.ID()
			logger.Info(ctx, "step completed",
				ports.F("step", entry.ID().String()),
				ports.F("status", result.Status().String()),
				ports.F("progress", fmt.Sprintf("%d/%d", index, total)))
		}
	}

	return report
}

// runEntry checks, confirms and applies a single entry.
// The check runs first so an already-converged step never prompts.
func (p *Pipeline) runEntry(ctx context.Context, exec provision.ExecutionContext, entry Entry) StepResult {
	step := entry.Step()
	id := step.ID()
	logger := p.log().With(ports.F("step", id.String()))
	notes := &provision.Notes{}
	rc := provision.NewRunContext(ctx, exec).WithLogger(logger).WithNotes(notes)

	start := time.Now()
	finish := func(status provision.StepStatus, err error) StepResult {
		return NewStepResult(id, status, err).
			WithDuration(time.Since(start)).
			WithNotes(notes.Items())
	}

	status, err := step.Check(rc)
	if err != nil {
		return finish(provision.StatusFailed, &StepError{StepID: id, Phase: PhaseCheck, Err: err})
	}

	switch status {
	case provision.StatusSatisfied:
		logger.Debug(ctx, "already satisfied")
		return finish(provision.StatusSatisfied, nil)
	case provision.StatusSkipped:
		return finish(provision.StatusSkipped, nil)
	case provision.StatusNeedsApply, provision.StatusUnknown:
	default:
		return finish(provision.StatusFailed, &StepError{
			StepID: id,
			Phase:  PhaseCheck,
			Err:    fmt.Errorf("unexpected check status %q", status),
		})
	}

	if entry.RequiresConfirmation() || p.interactive {
		if !p.gate.Confirm(fmt.Sprintf("Run %s (%s)?", step.Description(), id)) {
			logger.Info(ctx, "declined by operator")
			return finish(provision.StatusDeclined, nil)
		}
	}

	if err := step.Apply(rc); err != nil {
		return finish(provision.StatusFailed, &StepError{StepID: id, Phase: PhaseApply, Err: err})
	}
	return finish(provision.StatusApplied, nil)
}

func (p *Pipeline) log() ports.Logger {
	if p.logger != nil {
		return p.logger
	}
	return provision.NewRunContext(context.Background(), provision.ExecutionContext{}).Logger()
}
