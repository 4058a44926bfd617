// Package commandutil holds the helpers shared by everything that shells
// out through a ports.CommandRunner.
package commandutil

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"

	"github.com/felixgeelhaar/archstrap/internal/ports"
)

// ExitError reports a command that ran but exited non-zero.
type ExitError struct {
	Command  string
	ExitCode int
	Stderr   string
}

func (e *ExitError) Error() string {
	msg := fmt.Sprintf("%s: exit status %d", e.Command, e.ExitCode)
	if e.Stderr != "" {
		msg += ": " + e.Stderr
	}
	return msg
}

// NewExitError builds an ExitError for inv from its result.
func NewExitError(inv ports.Invocation, result ports.CommandResult) *ExitError {
	return &ExitError{
		Command:  inv.String(),
		ExitCode: result.ExitCode,
		Stderr:   LastLine(result.Stderr),
	}
}

// Run executes inv and converts a non-zero exit into an *ExitError. Errors
// from the runner itself are wrapped with the command line.
func Run(ctx context.Context, runner ports.CommandRunner, inv ports.Invocation) (ports.CommandResult, error) {
	result, err := runner.Exec(ctx, inv)
	if err != nil {
		return result, fmt.Errorf("%s: %w", inv.String(), err)
	}
	if !result.Success() {
		return result, NewExitError(inv, result)
	}
	return result, nil
}

// LastLine returns the last non-empty line of s, which is where pacman,
// git and makepkg put their error summary.
func LastLine(s string) string {
	lines := strings.Split(strings.TrimSpace(s), "\n")
	for i := len(lines) - 1; i >= 0; i-- {
		if l := strings.TrimSpace(lines[i]); l != "" {
			return l
		}
	}
	return ""
}

// IsCommandNotFound reports whether an error indicates a missing executable.
func IsCommandNotFound(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, exec.ErrNotFound) {
		return true
	}
	var pathErr *os.PathError
	return errors.As(err, &pathErr) && errors.Is(pathErr.Err, os.ErrNotExist)
}
