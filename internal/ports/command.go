// Package ports defines interfaces for external dependencies.
package ports

import (
	"context"
	"strings"
)

// CommandResult represents the result of executing a shell command.
type CommandResult struct {
	ExitCode int
	Stdout   string
	Stderr   string
}

// Success returns true if the command exited with code 0.
func (r CommandResult) Success() bool {
	return r.ExitCode == 0
}

// Invocation describes a single command to execute.
// An empty User runs the command as the elevated identity.
type Invocation struct {
	Command string
	Args    []string
	User    string
	Dir     string
}

// NewInvocation creates an Invocation for the elevated identity.
func NewInvocation(command string, args ...string) Invocation {
	return Invocation{Command: command, Args: args}
}

// AsUser returns a copy of the invocation that runs as the given user.
func (i Invocation) AsUser(user string) Invocation {
	i.User = user
	return i
}

// InDir returns a copy of the invocation that runs in the given directory.
func (i Invocation) InDir(dir string) Invocation {
	i.Dir = dir
	return i
}

// Argv returns the fully resolved argument vector, including the
// impersonation prefix when the invocation targets another user.
func (i Invocation) Argv() []string {
	argv := make([]string, 0, len(i.Args)+6)
	if i.User != "" {
		argv = append(argv, "sudo", "-u", i.User, "-H", "--")
	}
	argv = append(argv, i.Command)
	return append(argv, i.Args...)
}

// String returns the command line as it would be typed in a shell.
func (i Invocation) String() string {
	argv := i.Argv()
	quoted := make([]string, len(argv))
	for n, a := range argv {
		quoted[n] = quoteArg(a)
	}
	line := strings.Join(quoted, " ")
	if i.Dir != "" {
		line = "(cd " + quoteArg(i.Dir) + " && " + line + ")"
	}
	return line
}

func quoteArg(a string) string {
	if a == "" {
		return "''"
	}
	if strings.ContainsAny(a, " \t\n'\"$`\\*?;&|<>()") {
		return "'" + strings.ReplaceAll(a, "'", `'\''`) + "'"
	}
	return a
}

// CommandCall records a command invocation.
type CommandCall struct {
	Command string
	Args    []string
	User    string
	Dir     string
}

// CommandRunner executes shell commands.
type CommandRunner interface {
	// Run executes a command as the elevated identity.
	Run(ctx context.Context, command string, args ...string) (CommandResult, error)

	// Exec executes a fully described invocation.
	Exec(ctx context.Context, inv Invocation) (CommandResult, error)
}
