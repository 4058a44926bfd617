package commandutil

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"testing"

	"github.com/felixgeelhaar/archstrap/internal/ports"
	"github.com/felixgeelhaar/archstrap/internal/testutil/mocks"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRun(t *testing.T) {
	t.Parallel()

	runner := mocks.NewCommandRunner()
	runner.AddResult("makepkg", []string{"-si", "--noconfirm"}, ports.CommandResult{
		ExitCode: 4,
		Stderr:   "==> ERROR: A failure occurred in build().\n    Aborting...\n",
	})
	runner.AddResult("git", []string{"--version"}, ports.CommandResult{Stdout: "git version 2.47.0\n"})
	runner.AddError("chown", []string{"alice:", "/tmp/x"}, errors.New("fork/exec: resource temporarily unavailable"))
	ctx := context.Background()

	result, err := Run(ctx, runner, ports.NewInvocation("git", "--version"))
	require.NoError(t, err)
	assert.Equal(t, "git version 2.47.0\n", result.Stdout)

	_, err = Run(ctx, runner, ports.NewInvocation("makepkg", "-si", "--noconfirm").AsUser("alice"))
	var exitErr *ExitError
	require.ErrorAs(t, err, &exitErr)
	assert.Equal(t, 4, exitErr.ExitCode)
	assert.Equal(t, "Aborting...", exitErr.Stderr)
	assert.Equal(t, "sudo -u alice -H -- makepkg -si --noconfirm: exit status 4: Aborting...", err.Error())

	_, err = Run(ctx, runner, ports.NewInvocation("chown", "alice:", "/tmp/x"))
	require.ErrorContains(t, err, "chown alice: /tmp/x: fork/exec")
}

func TestLastLine(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "", LastLine(""))
	assert.Equal(t, "only", LastLine("only\n"))
	assert.Equal(t, "second", LastLine("first\nsecond\n\n  \n"))
}

func TestIsCommandNotFound(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"exec not found", exec.ErrNotFound, true},
		{"exec error", &exec.Error{Name: "reflector", Err: exec.ErrNotFound}, true},
		{"wrapped", fmt.Errorf("run: %w", exec.ErrNotFound), true},
		{"path error", &os.PathError{Op: "fork/exec", Path: "/usr/bin/snapper", Err: os.ErrNotExist}, true},
		{"other", errors.New("boom"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, IsCommandNotFound(tt.err))
		})
	}
}
