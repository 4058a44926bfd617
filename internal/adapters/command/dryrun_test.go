package command

import (
	"context"
	"testing"

	"github.com/felixgeelhaar/archstrap/internal/ports"
	"github.com/felixgeelhaar/archstrap/internal/testutil/mocks"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDryRunner_RecordsVerbatim(t *testing.T) {
	t.Parallel()

	dry := NewDryRunner()
	ctx := context.Background()

	result, err := dry.Run(ctx, "pacman", "-S", "--needed", "--noconfirm", "git")
	require.NoError(t, err)
	assert.True(t, result.Success())

	_, err = dry.Exec(ctx, ports.NewInvocation("makepkg", "-si", "--noconfirm").AsUser("alice").InDir("/tmp/yay-build"))
	require.NoError(t, err)

	assert.Equal(t, []string{
		"pacman -S --needed --noconfirm git",
		"(cd /tmp/yay-build && sudo -u alice -H -- makepkg -si --noconfirm)",
	}, dry.Lines())
}

func TestDryRunner_ForwardsProbes(t *testing.T) {
	t.Parallel()

	probe := mocks.NewCommandRunner()
	probe.AddResult("systemctl", []string{"is-enabled", "sddm"}, ports.CommandResult{Stdout: "enabled\n"})

	dry := NewDryRunner(WithProbeRunner(probe))
	ctx := context.Background()

	result, err := dry.Run(ctx, "systemctl", "is-enabled", "sddm")
	require.NoError(t, err)
	assert.Equal(t, "enabled\n", result.Stdout)

	_, err = dry.Run(ctx, "systemctl", "enable", "sddm")
	require.NoError(t, err)

	assert.Equal(t, []string{"systemctl is-enabled sddm"}, probe.Lines(), "mutations never reach the probe runner")
	assert.Equal(t, []string{"systemctl enable sddm"}, dry.Lines())
}

func TestDryRunner_WithoutProbeSimulatesEverything(t *testing.T) {
	t.Parallel()

	dry := NewDryRunner()
	result, err := dry.Run(context.Background(), "pacman", "-Q", "git")
	require.NoError(t, err)
	assert.Equal(t, 0, result.ExitCode)
	assert.Equal(t, []string{"pacman -Q git"}, dry.Lines())
}

func TestIsProbe(t *testing.T) {
	t.Parallel()

	tests := []struct {
		inv  ports.Invocation
		want bool
	}{
		{ports.NewInvocation("getent", "passwd", "alice"), true},
		{ports.NewInvocation("lspci"), true},
		{ports.NewInvocation("pacman", "-Q", "git"), true},
		{ports.NewInvocation("pacman", "-Syu", "--noconfirm"), false},
		{ports.NewInvocation("systemctl", "is-enabled", "sddm"), true},
		{ports.NewInvocation("systemctl", "enable", "sddm"), false},
		{ports.NewInvocation("loginctl", "show-user", "alice", "--property=Linger"), true},
		{ports.NewInvocation("loginctl", "enable-linger", "alice"), false},
		{ports.NewInvocation("yay", "-Q", "spotify").AsUser("alice"), true},
		{ports.NewInvocation("chsh", "-s", "/usr/bin/zsh", "alice"), false},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, IsProbe(tt.inv), tt.inv.String())
	}
}
