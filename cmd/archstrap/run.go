package main

import (
	"context"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/felixgeelhaar/archstrap/internal/app"
	"github.com/felixgeelhaar/archstrap/internal/domain/config"
	"github.com/felixgeelhaar/archstrap/internal/domain/confirm"
	"github.com/felixgeelhaar/archstrap/internal/domain/execution"
	"github.com/felixgeelhaar/archstrap/internal/ui"
	"github.com/spf13/cobra"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run every provisioning step in order",
	Long: `Run executes the whole catalog in a fixed order.

Each step checks the system first and only acts when something is missing.
A failed required step stops the run; optional steps (snapshot, mirrors,
NVIDIA, gaming, AUR packages) are reported and the run continues.

Use --dry-run to record what would happen without changing anything.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return runProvisioning(cmd, "")
	},
}

// identity is replaced in tests.
var identity = app.SystemIdentity()

// stdin is where the confirmation gate reads answers.
var stdin io.Reader = os.Stdin

func init() {
	rootCmd.AddCommand(runCmd)
}

// runProvisioning runs the whole pipeline, or only stepID when it is set.
func runProvisioning(cmd *cobra.Command, stepID string) error {
	opts, err := resolveOptions(cmd)
	if err != nil {
		return err
	}

	exec, err := app.ResolveExecutionContext(opts, identity)
	if err != nil {
		return err
	}

	cat, err := config.Load(opts.ConfigPath)
	if err != nil {
		return err
	}
	opts.ApplyTo(cat)

	out := cmd.OutOrStdout()
	printer := ui.NewPrinter(out)

	a, err := app.New(app.Settings{
		Options:  opts,
		Catalog:  cat,
		Exec:     exec,
		Logger:   newConsoleLogger(cmd.ErrOrStderr(), opts),
		Reporter: printer,
		Gate:     confirm.ForMode(exec.Unattended, stdin, out),
		Stdout:   out,
	})
	if err != nil {
		return err
	}
	defer func() { _ = a.Close() }()

	ctx, cancel := signal.NotifyContext(commandContext(cmd), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	var report execution.Report
	if stepID == "" {
		report = a.Run(ctx)
	} else {
		report, err = a.RunStep(ctx, stepID)
		if err != nil {
			return err
		}
	}

	printer.Summary(report, ui.SummaryInfo{
		RunID:          a.RunID(),
		TranscriptPath: a.TranscriptPath(),
		DryRun:         exec.DryRun,
		Commands:       a.DryRunLines(),
		FileOperations: a.DryRunFileOperations(),
	})

	if !report.Success() {
		return errRunFailed
	}
	return nil
}

func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
