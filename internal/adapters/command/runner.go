// Package command provides command execution adapters.
package command

import (
	"context"
	"errors"
	"io"
	"os/exec"
	"strings"
	"sync"

	"github.com/felixgeelhaar/archstrap/internal/ports"
)

// RealRunner executes actual commands on the host.
type RealRunner struct {
	tee io.Writer
}

// RealRunnerOption configures a RealRunner.
type RealRunnerOption func(*RealRunner)

// WithTee copies the output of every command to w while it runs.
// Writes to w are serialized; stdout and stderr are copied concurrently.
func WithTee(w io.Writer) RealRunnerOption {
	return func(r *RealRunner) {
		r.tee = &lockedWriter{w: w}
	}
}

type lockedWriter struct {
	mu sync.Mutex
	w  io.Writer
}

func (l *lockedWriter) Write(p []byte) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.w.Write(p)
}

// NewRealRunner creates a new RealRunner.
func NewRealRunner(opts ...RealRunnerOption) *RealRunner {
	r := &RealRunner{}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run executes a command as the elevated identity.
func (r *RealRunner) Run(ctx context.Context, command string, args ...string) (ports.CommandResult, error) {
	return r.Exec(ctx, ports.NewInvocation(command, args...))
}

// Exec executes an invocation and returns the result.
// A non-zero exit status is reported in the result, not as an error.
func (r *RealRunner) Exec(ctx context.Context, inv ports.Invocation) (ports.CommandResult, error) {
	argv := inv.Argv()
	cmd := exec.CommandContext(ctx, argv[0], argv[1:]...)
	cmd.Dir = inv.Dir

	var stdout, stderr strings.Builder
	if r.tee != nil {
		cmd.Stdout = io.MultiWriter(&stdout, r.tee)
		cmd.Stderr = io.MultiWriter(&stderr, r.tee)
	} else {
		cmd.Stdout = &stdout
		cmd.Stderr = &stderr
	}

	err := cmd.Run()

	result := ports.CommandResult{
		ExitCode: 0,
		Stdout:   stdout.String(),
		Stderr:   stderr.String(),
	}

	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) && ctx.Err() == nil {
			result.ExitCode = exitErr.ExitCode()
			return result, nil
		}
		return result, err
	}

	return result, nil
}

// Ensure RealRunner implements ports.CommandRunner.
var _ ports.CommandRunner = (*RealRunner)(nil)
