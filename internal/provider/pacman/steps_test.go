package pacman_test

import (
	"context"
	"errors"
	"testing"

	"github.com/felixgeelhaar/archstrap/internal/domain/provision"
	"github.com/felixgeelhaar/archstrap/internal/ports"
	"github.com/felixgeelhaar/archstrap/internal/provider/pacman"
	"github.com/felixgeelhaar/archstrap/internal/testutil/mocks"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const stockConf = `#
# /etc/pacman.conf
#
[options]
HoldPkg     = pacman glibc
Architecture = auto
Color
ILoveCandy
ParallelDownloads = 5
SigLevel    = Required DatabaseOptional

[core]
Include = /etc/pacman.d/mirrorlist

[extra]
Include = /etc/pacman.d/mirrorlist

#[multilib]
#Include = /etc/pacman.d/mirrorlist
`

func runContext() provision.RunContext {
	return provision.NewRunContext(context.Background(), provision.ExecutionContext{
		Elevated: true,
		Target:   provision.TargetUser{Name: "alice", Home: "/home/alice"},
	})
}

func TestPackageSetStep_ID(t *testing.T) {
	t.Parallel()

	step := pacman.NewPackageSetStep("essentials", []string{"git"}, mocks.NewSystem().Pacman)
	assert.Equal(t, "pacman:set:essentials", step.ID().String())
	assert.Equal(t, "Install essentials packages", step.Description())

	step = pacman.NewPackageSetStep("desktop", nil, mocks.NewSystem().Pacman, pacman.WithDescription("Install Hyprland desktop"))
	assert.Equal(t, "Install Hyprland desktop", step.Description())
}

func TestPackageSetStep_InstallsOnlyMissing(t *testing.T) {
	t.Parallel()

	sys := mocks.NewSystem()
	sys.Pacman.MarkInstalled("git", "zsh")
	step := pacman.NewPackageSetStep("essentials", []string{"git", "zsh", "neovim", "chezmoi"}, sys.Pacman)

	status, err := step.Check(runContext())
	require.NoError(t, err)
	assert.Equal(t, provision.StatusNeedsApply, status)

	require.NoError(t, step.Apply(runContext()))
	assert.Equal(t, []string{"pacman install neovim chezmoi"}, sys.Journal.Entries())

	status, err = step.Check(runContext())
	require.NoError(t, err)
	assert.Equal(t, provision.StatusSatisfied, status)
}

func TestPackageSetStep_Satisfied(t *testing.T) {
	t.Parallel()

	sys := mocks.NewSystem()
	sys.Pacman.MarkInstalled("git")
	step := pacman.NewPackageSetStep("essentials", []string{"git"}, sys.Pacman)

	status, err := step.Check(runContext())
	require.NoError(t, err)
	assert.Equal(t, provision.StatusSatisfied, status)

	require.NoError(t, step.Apply(runContext()))
	assert.Zero(t, sys.Journal.Len())
}

func TestPackageSetStep_EmptySet(t *testing.T) {
	t.Parallel()

	step := pacman.NewPackageSetStep("desktop", nil, mocks.NewSystem().Pacman)

	status, err := step.Check(runContext())
	require.NoError(t, err)
	assert.Equal(t, provision.StatusSatisfied, status)
}

func TestPackageSetStep_Disabled(t *testing.T) {
	t.Parallel()

	sys := mocks.NewSystem()
	step := pacman.NewPackageSetStep("gaming", []string{"steam"}, sys.Pacman, pacman.WhenEnabled(false))

	status, err := step.Check(runContext())
	require.NoError(t, err)
	assert.Equal(t, provision.StatusSkipped, status)
}

func TestPackageSetStep_InstallError(t *testing.T) {
	t.Parallel()

	sys := mocks.NewSystem()
	sys.Pacman.InstallErr = errors.New("target not found: hyprlandd")
	step := pacman.NewPackageSetStep("desktop", []string{"hyprlandd"}, sys.Pacman)

	err := step.Apply(runContext())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "target not found")
}

func TestMultilibEnabled(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		conf string
		want bool
	}{
		{name: "commented out", conf: stockConf, want: false},
		{name: "enabled", conf: stockConf + "\n[multilib]\nInclude = /etc/pacman.d/mirrorlist\n", want: true},
		{name: "server line", conf: "[multilib]\nServer = https://mirror.example/$repo/os/$arch\n", want: true},
		{name: "empty section", conf: "[multilib]\n", want: false},
		{name: "empty file", conf: "", want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, err := pacman.MultilibEnabled([]byte(tt.conf))
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestMultilibStep_Disabled(t *testing.T) {
	t.Parallel()

	sys := mocks.NewSystem()
	step := pacman.NewMultilibStep(false, sys.FS, mocks.NewCommandRunner())
	assert.Equal(t, "pacman:multilib", step.ID().String())

	status, err := step.Check(runContext())
	require.NoError(t, err)
	assert.Equal(t, provision.StatusSkipped, status)
}

func TestMultilibStep_MissingConf(t *testing.T) {
	t.Parallel()

	step := pacman.NewMultilibStep(true, mocks.NewFileSystem(), mocks.NewCommandRunner())

	status, err := step.Check(runContext())
	require.Error(t, err)
	assert.Equal(t, provision.StatusUnknown, status)
}

func TestMultilibStep_Apply(t *testing.T) {
	t.Parallel()

	fs := mocks.NewFileSystem()
	fs.AddFile(pacman.ConfPath, stockConf)
	runner := mocks.NewCommandRunner()
	runner.AddResult("pacman", []string{"-Sy"}, ports.CommandResult{})
	step := pacman.NewMultilibStep(true, fs, runner)

	status, err := step.Check(runContext())
	require.NoError(t, err)
	assert.Equal(t, provision.StatusNeedsApply, status)

	require.NoError(t, step.Apply(runContext()))
	assert.Equal(t, []string{"pacman -Sy"}, runner.Lines())
	assert.Contains(t, fs.Content(pacman.ConfPath), "# >>> archstrap multilib >>>\n[multilib]\nInclude = /etc/pacman.d/mirrorlist\n")
	assert.Contains(t, fs.Content(pacman.ConfPath), "#[multilib]", "operator content is kept")

	status, err = step.Check(runContext())
	require.NoError(t, err)
	assert.Equal(t, provision.StatusSatisfied, status)
}

func TestMultilibStep_ApplySyncFailure(t *testing.T) {
	t.Parallel()

	fs := mocks.NewFileSystem()
	fs.AddFile(pacman.ConfPath, stockConf)
	runner := mocks.NewCommandRunner()
	runner.AddResult("pacman", []string{"-Sy"}, ports.CommandResult{ExitCode: 1, Stderr: "error: failed to synchronize all databases"})
	step := pacman.NewMultilibStep(true, fs, runner)

	err := step.Apply(runContext())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "pacman -Sy")
}
