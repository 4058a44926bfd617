package main

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/felixgeelhaar/archstrap/internal/adapters/logging"
	"github.com/felixgeelhaar/archstrap/internal/domain/config"
	"github.com/felixgeelhaar/archstrap/internal/ports"
	"github.com/spf13/cobra"
)

var (
	// Global flags
	cfgFile        string
	envFile        string
	transcriptPath string
	verbose        bool
	logFormat      string
	userFlag       string
	dotfilesRepo   string
	dryRun         bool
	unattended     bool
	interactive    bool
)

// getenv is replaced in tests.
var getenv = os.Getenv

// errRunFailed is returned after the summary already explained the failure.
var errRunFailed = errors.New("run failed")

var rootCmd = &cobra.Command{
	Use:   "archstrap",
	Short: "Provision an Arch Linux workstation",
	Long: `archstrap turns a fresh Arch Linux install into a working desktop.

It runs a fixed sequence of idempotent steps as root on behalf of an
unprivileged user: system upgrade, packages, login shell, AUR helper,
desktop, optional NVIDIA and gaming setup, services, dotfiles and editor.
Every step checks before it acts, so re-running is safe.`,
	SilenceErrors: true, // We handle error formatting ourselves
	SilenceUsage:  true, // Don't show usage on error
}

// Execute runs the root command.
func Execute() error {
	err := rootCmd.Execute()
	if err != nil && !errors.Is(err, errRunFailed) {
		printError(err)
	}
	return err
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.StringVar(&cfgFile, "config", "", "catalog file overriding the built-in catalog (.yaml or .toml)")
	flags.StringVar(&envFile, "env-file", "", "environment file (default: "+config.DefaultEnvFile+")")
	flags.StringVar(&transcriptPath, "transcript", "", "transcript file (default: $XDG_STATE_HOME/archstrap/transcript.log)")
	flags.BoolVarP(&verbose, "verbose", "v", false, "verbose output, including command output")
	flags.StringVar(&logFormat, "log-format", "text", "log format on stderr (text, json)")
	flags.StringVar(&userFlag, "user", "", "target user (default: $SUDO_USER)")
	flags.StringVar(&dotfilesRepo, "dotfiles-repo", "", "chezmoi dotfiles repository")
	flags.BoolVar(&dryRun, "dry-run", false, "record what would be done without changing anything")
	flags.BoolVarP(&unattended, "unattended", "y", false, "answer yes to every confirmation")
	flags.BoolVar(&interactive, "interactive", false, "confirm every step, not just the flagged ones")

	registerFlagCompletions()

	rootCmd.AddCommand(versionCmd)
}

// resolveOptions merges the environment with the flags the operator set.
// The env file is loaded first and never overrides variables already set.
func resolveOptions(cmd *cobra.Command) (config.Options, error) {
	flags := cmd.Flags()

	if err := config.LoadEnvFile(envFile, flags.Changed("env-file")); err != nil {
		return config.Options{}, err
	}

	opts := config.FromEnv(getenv)
	if flags.Changed("user") {
		opts.User = userFlag
	}
	if flags.Changed("dotfiles-repo") {
		opts.DotfilesRepo = dotfilesRepo
	}
	if flags.Changed("dry-run") {
		opts.DryRun = dryRun
	}
	if flags.Changed("unattended") {
		opts.Unattended = unattended
	}
	opts.Interactive = interactive
	opts.Verbose = verbose
	opts.ConfigPath = cfgFile
	opts.EnvFile = envFile
	opts.TranscriptPath = transcriptPath
	opts.LogFormat = logFormat

	if opts.LogFormat != "text" && opts.LogFormat != "json" {
		return config.Options{}, fmt.Errorf("invalid --log-format %q: expected text or json", opts.LogFormat)
	}
	return opts.Normalize(), nil
}

// newConsoleLogger builds the stderr logger for opts.
func newConsoleLogger(w io.Writer, opts config.Options) *logging.ConsoleLogger {
	logOpts := []logging.ConsoleLoggerOption{logging.WithOutput(w)}
	if opts.LogFormat == "json" {
		logOpts = append(logOpts, logging.WithJSONFormat(true))
	} else {
		logOpts = append(logOpts, logging.WithTimestamp(false))
	}
	if opts.Verbose {
		logOpts = append(logOpts, logging.WithLevel(ports.LevelDebug))
	} else {
		logOpts = append(logOpts, logging.WithLevel(ports.LevelWarn))
	}
	return logging.NewConsoleLogger(logOpts...)
}

// formatError returns a user-friendly error message.
// With verbose=false: shows only the user message and suggestion.
// With verbose=true: also shows the underlying technical error.
func formatError(err error) string {
	var userErr *config.UserError
	if errors.As(err, &userErr) {
		msg := userErr.Message
		if userErr.Context != "" {
			msg += fmt.Sprintf(" (at %s)", userErr.Context)
		}
		if userErr.Suggestion != "" {
			msg += fmt.Sprintf("\n\nSuggestion: %s", userErr.Suggestion)
		}
		if verbose && userErr.Underlying != nil {
			msg += fmt.Sprintf("\n\nTechnical details: %v", userErr.Underlying)
		}
		return msg
	}
	var list *config.ErrorList
	if errors.As(err, &list) {
		return list.Format()
	}
	return err.Error()
}

// printError prints an error message to stderr with proper formatting.
func printError(err error) {
	printErrorTo(os.Stderr, err)
}

// printErrorTo prints an error message to the given writer.
func printErrorTo(w io.Writer, err error) {
	_, _ = fmt.Fprintf(w, "Error: %s\n", formatError(err))
}

// registerFlagCompletions sets up custom completions for global flags.
func registerFlagCompletions() {
	_ = rootCmd.RegisterFlagCompletionFunc("config", func(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
		return []string{"yaml", "yml", "toml"}, cobra.ShellCompDirectiveFilterFileExt
	})

	_ = rootCmd.RegisterFlagCompletionFunc("log-format", func(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
		return []string{
			"text\tHuman-readable lines",
			"json\tOne JSON object per line",
		}, cobra.ShellCompDirectiveNoFileComp
	})
}
