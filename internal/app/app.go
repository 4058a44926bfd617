// Package app wires archstrap together: it resolves who the run is for,
// builds the adapters for a real or simulated run and registers the
// provisioning steps in order.
package app

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/felixgeelhaar/archstrap/internal/adapters/command"
	"github.com/felixgeelhaar/archstrap/internal/adapters/filesystem"
	"github.com/felixgeelhaar/archstrap/internal/adapters/logging"
	sysadapter "github.com/felixgeelhaar/archstrap/internal/adapters/system"
	"github.com/felixgeelhaar/archstrap/internal/domain/config"
	"github.com/felixgeelhaar/archstrap/internal/domain/confirm"
	"github.com/felixgeelhaar/archstrap/internal/domain/execution"
	"github.com/felixgeelhaar/archstrap/internal/domain/keepalive"
	"github.com/felixgeelhaar/archstrap/internal/domain/provision"
	"github.com/felixgeelhaar/archstrap/internal/ports"
	"github.com/google/uuid"
)

const keepaliveStopTimeout = 5 * time.Second

// Settings configure an App.
type Settings struct {
	Options  config.Options
	Catalog  *config.Catalog
	Exec     provision.ExecutionContext
	Logger   ports.Logger
	Reporter execution.Reporter
	Gate     confirm.Gate
	// Stdout receives command output when Options.Verbose is set.
	Stdout io.Writer
}

// App is one archstrap invocation.
type App struct {
	opts       config.Options
	exec       provision.ExecutionContext
	runID      string
	logger     ports.Logger
	transcript *logging.Transcript
	runner     ports.CommandRunner
	dryRunner  *command.DryRunner
	dryFS      *filesystem.DryRunFileSystem
	pipeline   *execution.Pipeline
	keepalive  *keepalive.Keepalive
}

// New builds the adapters and the pipeline. The transcript is opened here
// and closed by Close.
func New(s Settings) (*App, error) {
	if s.Catalog == nil {
		return nil, fmt.Errorf("catalog is required")
	}
	console := s.Logger
	if console == nil {
		console = logging.NewNopLogger()
	}

	transcript, err := logging.OpenTranscript(s.Options.TranscriptPath)
	if err != nil {
		return nil, err
	}

	runID := uuid.NewString()
	logger := logging.NewTee(console, transcript).With(ports.F("run_id", runID))

	a := &App{
		opts:       s.Options,
		exec:       s.Exec,
		runID:      runID,
		logger:     logger,
		transcript: transcript,
	}

	deps := a.buildDependencies(s.Catalog, s.Stdout)

	gate := s.Gate
	if gate == nil {
		gate = confirm.AlwaysYes{}
	}
	reporter := s.Reporter
	if reporter == nil {
		reporter = execution.NopReporter{}
	}

	a.pipeline, err = BuildPipeline(s.Catalog, deps, runID,
		execution.WithGate(gate),
		execution.WithReporter(reporter),
		execution.WithLogger(logger),
		execution.WithInteractive(s.Options.Interactive),
	)
	if err != nil {
		_ = transcript.Close()
		return nil, err
	}

	if s.Exec.Elevated && !s.Exec.DryRun {
		a.keepalive, err = keepalive.New(a.runner, s.Exec.Target.Name,
			keepalive.WithInterval(s.Catalog.KeepaliveInterval()),
			keepalive.WithLogger(logger),
			keepalive.WithNonInteractive(s.Options.Unattended),
		)
		if err != nil {
			_ = transcript.Close()
			return nil, err
		}
	}

	logger.Info(context.Background(), "run started",
		ports.F("user", s.Exec.Target.Name),
		ports.F("dry_run", s.Exec.DryRun),
		ports.F("steps", a.pipeline.Len()),
	)
	return a, nil
}

func (a *App) buildDependencies(cat *config.Catalog, stdout io.Writer) Dependencies {
	var realOpts []command.RealRunnerOption
	if a.opts.Verbose && stdout != nil {
		realOpts = append(realOpts, command.WithTee(stdout))
	}
	realRunner := command.NewRealRunner(realOpts...)

	var base ports.CommandRunner = realRunner
	var fs ports.FileSystem = filesystem.NewRealFileSystem()
	if a.exec.DryRun {
		dryOpts := []command.DryRunnerOption{command.WithDryRunLogger(a.logger)}
		if !a.opts.Simulated {
			dryOpts = append(dryOpts, command.WithProbeRunner(realRunner))
		}
		a.dryRunner = command.NewDryRunner(dryOpts...)
		base = a.dryRunner
		a.dryFS = filesystem.NewDryRunFileSystem(fs, a.logger)
		fs = a.dryFS
	}

	a.runner = command.NewTranscriptRunner(base, a.transcript, a.runID, a.exec.DryRun)

	return Dependencies{
		Runner:   a.runner,
		FS:       fs,
		Pacman:   sysadapter.NewPacman(a.runner),
		AUR:      sysadapter.NewAURHelper(cat.AURHelper(), a.runner),
		Dotfiles: sysadapter.NewChezmoi(a.runner),
		Git:      sysadapter.NewGit(a.runner),
		Services: sysadapter.NewSystemctl(a.runner),
		Sessions: sysadapter.NewLoginctl(a.runner),
		Accounts: sysadapter.NewAccounts(a.runner),
		Hardware: sysadapter.NewPCIProbe(a.runner),
		Binaries: sysadapter.NewPathResolver(),
	}
}

// RunID identifies this invocation in the transcript.
func (a *App) RunID() string {
	return a.runID
}

// TranscriptPath returns where the transcript is written.
func (a *App) TranscriptPath() string {
	return a.transcript.Path()
}

// Pipeline returns the registered pipeline.
func (a *App) Pipeline() *execution.Pipeline {
	return a.pipeline
}

// DryRunLines returns the commands a dry run would have executed.
func (a *App) DryRunLines() []string {
	if a.dryRunner == nil {
		return nil
	}
	return a.dryRunner.Lines()
}

// DryRunFileOperations returns the file changes a dry run would have made.
func (a *App) DryRunFileOperations() []string {
	if a.dryFS == nil {
		return nil
	}
	return a.dryFS.Operations()
}

// Run authenticates the target user's sudo session, keeps it alive and runs
// every step.
func (a *App) Run(ctx context.Context) execution.Report {
	stop := a.startKeepalive(ctx)
	defer stop()

	report := a.pipeline.Run(ctx, a.exec)
	a.logFinished(ctx, report)
	return report
}

// RunStep runs a single step by ID through the same gate and policy.
func (a *App) RunStep(ctx context.Context, id string) (execution.Report, error) {
	if _, ok := a.pipeline.Lookup(id); !ok {
		ids := make([]string, 0, a.pipeline.Len())
		for _, e := range a.pipeline.Entries() {
			ids = append(ids, e.ID().String())
		}
		return execution.Report{}, config.NewUnknownStepError(id, ids)
	}

	stop := a.startKeepalive(ctx)
	defer stop()

	report, err := a.pipeline.RunStep(ctx, a.exec, id)
	if err != nil {
		return report, err
	}
	a.logFinished(ctx, report)
	return report, nil
}

// Close flushes and closes the transcript.
func (a *App) Close() error {
	return a.transcript.Close()
}

// startKeepalive authenticates and starts the refresh loop. A failure is
// logged and the run continues; the steps that need the grant fail on
// their own.
func (a *App) startKeepalive(ctx context.Context) func() {
	if a.keepalive == nil {
		return func() {}
	}
	if err := a.keepalive.Start(ctx); err != nil {
		a.logger.Warn(ctx, "sudo keepalive not running", ports.F("error", err.Error()))
		return func() {}
	}
	return func() {
		stopCtx, cancel := context.WithTimeout(context.Background(), keepaliveStopTimeout)
		defer cancel()
		if err := a.keepalive.Stop(stopCtx); err != nil {
			a.logger.Warn(ctx, "sudo keepalive did not stop", ports.F("error", err.Error()))
		}
	}
}

func (a *App) logFinished(ctx context.Context, report execution.Report) {
	counts := report.Counts()
	fields := []ports.Field{
		ports.F("success", report.Success()),
		ports.F("applied", counts[provision.StatusApplied]),
		ports.F("satisfied", counts[provision.StatusSatisfied]),
		ports.F("skipped", counts[provision.StatusSkipped]),
		ports.F("declined", counts[provision.StatusDeclined]),
		ports.F("failed", counts[provision.StatusFailed]),
	}
	if report.Interrupted {
		fields = append(fields, ports.F("last_completed", report.LastCompleted.String()))
	}
	a.logger.Info(ctx, "run finished", fields...)
}
