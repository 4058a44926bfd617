package command

import (
	"context"
	"sync"

	"github.com/felixgeelhaar/archstrap/internal/ports"
)

// DryRunner records invocations instead of executing them.
//
// Read-only probes (see IsProbe) are forwarded to the probe runner when one
// is configured so checks still observe the real system. Everything else
// succeeds with exit code 0 and empty output.
type DryRunner struct {
	mu     sync.Mutex
	probe  ports.CommandRunner
	logger ports.Logger
	lines  []string
}

// DryRunnerOption configures a DryRunner.
type DryRunnerOption func(*DryRunner)

// WithProbeRunner answers read-only probes with runner.
func WithProbeRunner(runner ports.CommandRunner) DryRunnerOption {
	return func(d *DryRunner) {
		d.probe = runner
	}
}

// WithDryRunLogger announces each simulated command on logger.
func WithDryRunLogger(logger ports.Logger) DryRunnerOption {
	return func(d *DryRunner) {
		d.logger = logger
	}
}

// NewDryRunner creates a new DryRunner.
func NewDryRunner(opts ...DryRunnerOption) *DryRunner {
	d := &DryRunner{}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Run simulates a command as the elevated identity.
func (d *DryRunner) Run(ctx context.Context, command string, args ...string) (ports.CommandResult, error) {
	return d.Exec(ctx, ports.NewInvocation(command, args...))
}

// Exec simulates an invocation.
func (d *DryRunner) Exec(ctx context.Context, inv ports.Invocation) (ports.CommandResult, error) {
	if d.probe != nil && IsProbe(inv) {
		return d.probe.Exec(ctx, inv)
	}

	line := inv.String()
	d.mu.Lock()
	d.lines = append(d.lines, line)
	d.mu.Unlock()

	if d.logger != nil {
		d.logger.Info(ctx, "dry-run", ports.F("command", line))
	}
	return ports.CommandResult{ExitCode: 0}, nil
}

// Lines returns every simulated command line in order.
func (d *DryRunner) Lines() []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]string, len(d.lines))
	copy(out, d.lines)
	return out
}

// IsProbe reports whether inv only reads system state.
func IsProbe(inv ports.Invocation) bool {
	args := inv.Args
	first := ""
	if len(args) > 0 {
		first = args[0]
	}

	switch inv.Command {
	case "getent", "lspci", "id", "checkupdates":
		return true
	case "pacman":
		return first == "-Q" || first == "-Qi" || first == "-Qq"
	case "systemctl":
		return first == "is-enabled" || first == "is-active"
	case "loginctl":
		return first == "show-user"
	case "yay", "paru":
		return first == "-Q" || first == "-Qq"
	}
	return false
}

// Ensure DryRunner implements ports.CommandRunner.
var _ ports.CommandRunner = (*DryRunner)(nil)
