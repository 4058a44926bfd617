package command

import (
	"context"
	"time"

	"github.com/felixgeelhaar/archstrap/internal/ports"
)

// TranscriptRunner writes one record per invocation of the wrapped runner.
type TranscriptRunner struct {
	next   ports.CommandRunner
	log    ports.Logger
	runID  string
	dryRun bool
}

// NewTranscriptRunner wraps next, recording every invocation on log.
func NewTranscriptRunner(next ports.CommandRunner, log ports.Logger, runID string, dryRun bool) *TranscriptRunner {
	return &TranscriptRunner{
		next:   next,
		log:    log,
		runID:  runID,
		dryRun: dryRun,
	}
}

// Run executes a command as the elevated identity.
func (t *TranscriptRunner) Run(ctx context.Context, command string, args ...string) (ports.CommandResult, error) {
	return t.Exec(ctx, ports.NewInvocation(command, args...))
}

// Exec executes inv through the wrapped runner and records the outcome.
func (t *TranscriptRunner) Exec(ctx context.Context, inv ports.Invocation) (ports.CommandResult, error) {
	start := time.Now()
	result, err := t.next.Exec(ctx, inv)

	fields := []ports.Field{
		ports.F("run_id", t.runID),
		ports.F("command", inv.String()),
		ports.F("user", inv.User),
		ports.F("dir", inv.Dir),
		ports.F("exit_code", result.ExitCode),
		ports.F("dry_run", t.dryRun),
		ports.F("duration", time.Since(start).String()),
	}

	if err != nil {
		t.log.Error(ctx, "exec", append(fields, ports.F("error", err.Error()))...)
		return result, err
	}
	if !result.Success() {
		t.log.Warn(ctx, "exec", fields...)
		return result, nil
	}
	t.log.Info(ctx, "exec", fields...)
	return result, nil
}

// Ensure TranscriptRunner implements ports.CommandRunner.
var _ ports.CommandRunner = (*TranscriptRunner)(nil)
