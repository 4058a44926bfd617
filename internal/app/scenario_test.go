package app_test

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/felixgeelhaar/archstrap/internal/adapters/command"
	"github.com/felixgeelhaar/archstrap/internal/adapters/logging"
	"github.com/felixgeelhaar/archstrap/internal/app"
	"github.com/felixgeelhaar/archstrap/internal/domain/config"
	"github.com/felixgeelhaar/archstrap/internal/domain/execution"
	"github.com/felixgeelhaar/archstrap/internal/domain/provision"
	"github.com/felixgeelhaar/archstrap/internal/ports"
	"github.com/felixgeelhaar/archstrap/internal/provider/nvidia"
	"github.com/felixgeelhaar/archstrap/internal/provider/pacman"
	"github.com/felixgeelhaar/archstrap/internal/provider/system"
	"github.com/felixgeelhaar/archstrap/internal/testutil"
	"github.com/felixgeelhaar/archstrap/internal/testutil/mocks"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var stepOrder = []string{
	"system:snapshot",
	"system:mirrors",
	"system:upgrade",
	"pacman:set:essentials",
	"shell:login",
	"aur:helper",
	"pacman:set:desktop",
	"nvidia:driver",
	"pacman:multilib",
	"pacman:set:gaming",
	"aur:packages",
	"services:enable",
	"services:linger",
	"dotfiles:sync",
	"nvim:bootstrap",
}

// hookRunner lets the fake system react to commands the way the real one
// would, e.g. makepkg putting the helper on PATH.
type hookRunner struct {
	next   ports.CommandRunner
	onExec func(inv ports.Invocation)
}

func (h *hookRunner) Run(ctx context.Context, command string, args ...string) (ports.CommandResult, error) {
	return h.Exec(ctx, ports.NewInvocation(command, args...))
}

func (h *hookRunner) Exec(ctx context.Context, inv ports.Invocation) (ports.CommandResult, error) {
	result, err := h.next.Exec(ctx, inv)
	if err == nil && result.Success() && h.onExec != nil {
		h.onExec(inv)
	}
	return result, err
}

// scriptedGate answers by step ID and records every prompt.
type scriptedGate struct {
	deny    map[string]bool
	prompts []string
}

func (g *scriptedGate) Confirm(prompt string) bool {
	g.prompts = append(g.prompts, prompt)
	for id := range g.deny {
		if strings.Contains(prompt, "("+id+")") {
			return false
		}
	}
	return true
}

type fixture struct {
	sys        *mocks.System
	runner     *mocks.CommandRunner
	transcript *bytes.Buffer
	console    *bytes.Buffer
	catalog    *config.Catalog
	deps       app.Dependencies
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	cat, err := config.Default()
	require.NoError(t, err)
	cat.Gaming.Enabled = true
	cat.Snapshot.Enabled = true
	cat.Mirrors.Enabled = true
	cat.Dotfiles.Repo = "https://github.com/alice/dotfiles.git"

	sys := mocks.NewSystem()
	sys.Hardware.NVIDIA = true
	sys.Binaries.Add("snapper", "/usr/bin/snapper")
	sys.Binaries.Add("reflector", "/usr/bin/reflector")
	sys.FS.AddFile(nvidia.MkinitcpioPath, "MODULES=()\nHOOKS=(base udev autodetect modconf block filesystems fsck)\n")
	sys.FS.AddFile(pacman.ConfPath, "[options]\nColor\n\n[core]\nInclude = /etc/pacman.d/mirrorlist\n")

	runner := mocks.NewCommandRunner()
	runner.SetFallback(ports.CommandResult{})

	hooked := &hookRunner{next: runner, onExec: func(inv ports.Invocation) {
		switch inv.Command {
		case "makepkg":
			sys.Binaries.Add("yay", "/usr/bin/yay")
		case "reflector":
			sys.FS.AddFile(system.MirrorlistPath, "# Arch Linux mirrorlist generated by Reflector\n")
		}
	}}

	transcript := &bytes.Buffer{}
	transcriptLog := logging.NewConsoleLogger(logging.WithOutput(transcript), logging.WithJSONFormat(true))
	recorded := command.NewTranscriptRunner(hooked, transcriptLog, "test-run", false)

	return &fixture{
		sys:        sys,
		runner:     runner,
		transcript: transcript,
		console:    &bytes.Buffer{},
		catalog:    cat,
		deps: app.Dependencies{
			Runner:   recorded,
			FS:       sys.FS,
			Pacman:   sys.Pacman,
			AUR:      sys.AUR,
			Dotfiles: sys.Dotfiles,
			Git:      sys.Git,
			Services: sys.Services,
			Sessions: sys.Sessions,
			Accounts: sys.Accounts,
			Hardware: sys.Hardware,
			Binaries: sys.Binaries,
		},
	}
}

func (f *fixture) pipeline(t *testing.T, opts ...execution.Option) *execution.Pipeline {
	t.Helper()
	logger := logging.NewConsoleLogger(logging.WithOutput(f.console), logging.WithTimestamp(false))
	p, err := app.BuildPipeline(f.catalog, f.deps, "test-run", append([]execution.Option{execution.WithLogger(logger)}, opts...)...)
	require.NoError(t, err)
	return p
}

func execContext() provision.ExecutionContext {
	return provision.ExecutionContext{
		Elevated:   true,
		Target:     provision.TargetUser{Name: "alice", Home: "/home/alice", UID: 1000, GID: 1000},
		Unattended: true,
	}
}

func resultIDs(report execution.Report) []string {
	ids := make([]string, len(report.Results))
	for i, r := range report.Results {
		ids[i] = r.StepID().String()
	}
	return ids
}

func TestBuildPipeline_Order(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	p := f.pipeline(t)

	ids := make([]string, 0, p.Len())
	for _, e := range p.Entries() {
		ids = append(ids, e.ID().String())
	}
	assert.Equal(t, stepOrder, ids)

	policy := map[string][2]bool{}
	for _, e := range p.Entries() {
		policy[e.ID().String()] = [2]bool{e.Optional(), e.RequiresConfirmation()}
	}
	assert.Equal(t, [2]bool{true, false}, policy["system:snapshot"])
	assert.Equal(t, [2]bool{true, false}, policy["system:mirrors"])
	assert.Equal(t, [2]bool{false, false}, policy["system:upgrade"])
	assert.Equal(t, [2]bool{true, true}, policy["nvidia:driver"])
	assert.Equal(t, [2]bool{true, true}, policy["pacman:set:gaming"])
	assert.Equal(t, [2]bool{true, false}, policy["aur:packages"])
	assert.Equal(t, [2]bool{false, false}, policy["dotfiles:sync"])
}

// Scenario A: fresh system, unattended, everything enabled.
func TestScenario_FreshSystemUnattended(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	p := f.pipeline(t)

	report := p.Run(context.Background(), execContext())

	require.True(t, report.Success(), "run failed: %v", report.Err())
	assert.Equal(t, stepOrder, resultIDs(report))
	for _, r := range report.Results {
		assert.Equal(t, provision.StatusApplied, r.Status(), r.StepID().String())
	}
	assert.Equal(t, len(stepOrder), p.Progress().Current())
	assert.Equal(t, len(stepOrder), p.Progress().Total())

	calls := f.runner.Calls()
	records := testutil.ParseJSONLines(t, f.transcript.Bytes())
	require.Len(t, records, len(calls), "one transcript record per external command")
	for i, rec := range records {
		assert.Equal(t, "test-run", rec["run_id"])
		assert.Contains(t, rec["command"], calls[i].Command)
	}

	assert.Equal(t, "/usr/bin/zsh", mustShell(t, f.sys))
	assert.True(t, f.sys.Pacman.IsInstalled("hyprland"))
	assert.True(t, f.sys.Pacman.IsInstalled("steam"))
	assert.Contains(t, report.Notices(), "reboot required to load the NVIDIA kernel modules")
}

// Re-running on the converged system mutates nothing.
func TestScenario_SecondRunIsNoOp(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	f.catalog.Snapshot.Enabled = false

	first := f.pipeline(t).Run(context.Background(), execContext())
	require.True(t, first.Success(), "first run failed: %v", first.Err())

	journal := f.sys.Journal.Len()
	calls := len(f.runner.Calls())

	second := f.pipeline(t).Run(context.Background(), execContext())
	require.True(t, second.Success())

	assert.Equal(t, journal, f.sys.Journal.Len(), "second run must not change the system")
	assert.Equal(t, calls, len(f.runner.Calls()), "second run must not issue commands")
	for _, r := range second.Results {
		assert.Contains(t, []provision.StepStatus{provision.StatusSatisfied, provision.StatusSkipped}, r.Status(), r.StepID().String())
	}
}

// Scenario B: the login shell is already right.
func TestScenario_ShellAlreadySet(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	f.sys.Accounts.SetShell("alice", "/usr/bin/zsh")
	p := f.pipeline(t)

	report := p.Run(context.Background(), execContext())
	require.True(t, report.Success())

	res, ok := report.Result("shell:login")
	require.True(t, ok)
	assert.Equal(t, provision.StatusSatisfied, res.Status())
	assert.Zero(t, f.sys.Accounts.Calls)
	for _, c := range f.runner.Calls() {
		assert.NotEqual(t, "chsh", c.Command)
	}
	assert.Equal(t, len(stepOrder), p.Progress().Current(), "a satisfied step still advances progress")
}

// Scenario C: the dotfiles remote cannot be reached.
func TestScenario_DotfilesRemoteUnreachable(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	f.sys.Dotfiles.RemoteErr = assert.AnError

	report := f.pipeline(t).Run(context.Background(), execContext())
	require.True(t, report.Success())

	res, ok := report.Result("dotfiles:sync")
	require.True(t, ok)
	assert.Equal(t, provision.StatusApplied, res.Status())
	assert.Contains(t, f.sys.Journal.Entries(), "chezmoi init as alice")
	assert.Contains(t, f.console.String(), "[WARN] dotfiles repository could not be applied")

	next, ok := report.Result("nvim:bootstrap")
	require.True(t, ok, "the pipeline continues after the fallback")
	assert.Equal(t, provision.StatusApplied, next.Status())
}

// Scenario D: the operator declines the NVIDIA prompt in interactive mode.
func TestScenario_InteractiveDecline(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	gate := &scriptedGate{deny: map[string]bool{"nvidia:driver": true}}
	p := f.pipeline(t, execution.WithGate(gate), execution.WithInteractive(true))

	exec := execContext()
	exec.Unattended = false
	report := p.Run(context.Background(), exec)
	require.True(t, report.Success())

	res, ok := report.Result("nvidia:driver")
	require.True(t, ok)
	assert.Equal(t, provision.StatusDeclined, res.Status())
	assert.False(t, f.sys.Pacman.IsInstalled("nvidia-dkms"))
	for _, c := range f.runner.Calls() {
		assert.NotEqual(t, "mkinitcpio", c.Command)
	}
	assert.Equal(t, "MODULES=()\nHOOKS=(base udev autodetect modconf block filesystems fsck)\n", f.sys.FS.Content(nvidia.MkinitcpioPath))

	gaming, ok := report.Result("pacman:set:gaming")
	require.True(t, ok)
	assert.Equal(t, provision.StatusApplied, gaming.Status())
	assert.Len(t, gate.prompts, len(stepOrder), "interactive mode asks before every step that needs work")
}

func TestScenario_RequiredFailureAborts(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	f.sys.Pacman.InstallErr = assert.AnError

	p := f.pipeline(t)
	report := p.Run(context.Background(), execContext())

	require.False(t, report.Success())
	var stepErr *execution.StepError
	require.ErrorAs(t, report.Err(), &stepErr)
	assert.Equal(t, "pacman:set:essentials", stepErr.StepID.String())
	assert.Contains(t, stepErr.Suggestion(), "archstrap step pacman:set:essentials")

	assert.Len(t, report.Results, len(stepOrder))
	res, _ := report.Result("nvim:bootstrap")
	assert.Equal(t, provision.StatusSkipped, res.Status())
	assert.Equal(t, 4, p.Progress().Current())
}

func TestScenario_SingleStep(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	p := f.pipeline(t)

	report, err := p.RunStep(context.Background(), execContext(), "shell:login")
	require.NoError(t, err)
	require.Len(t, report.Results, 1)
	assert.Equal(t, provision.StatusApplied, report.Results[0].Status())
	assert.Equal(t, []string{"chsh -s /usr/bin/zsh alice"}, f.sys.Journal.Entries())
}

func mustShell(t *testing.T, sys *mocks.System) string {
	t.Helper()
	shell, err := sys.Accounts.LoginShell(context.Background(), "alice")
	require.NoError(t, err)
	return shell
}
