package main

import (
	"bytes"
	"errors"
	"os/user"
	"path/filepath"
	"strings"
	"testing"

	"github.com/felixgeelhaar/archstrap/internal/domain/config"
	"github.com/felixgeelhaar/archstrap/internal/testutil"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeIdentity struct {
	euid int
}

func (f fakeIdentity) Euid() int { return f.euid }

func (f fakeIdentity) Current() (*user.User, error) {
	return &user.User{Username: "runner", Uid: "1001", Gid: "1001", HomeDir: "/home/runner"}, nil
}

func (f fakeIdentity) Lookup(name string) (*user.User, error) {
	return nil, user.UnknownUserError(name)
}

// execute runs the root command with args against a fake environment.
// Commands share package-level flag state, so callers must not run in parallel.
func execute(t *testing.T, env map[string]string, args ...string) (string, error) {
	t.Helper()

	resetFlags(rootCmd)
	oldGetenv, oldIdentity, oldStdin := getenv, identity, stdin
	t.Cleanup(func() {
		getenv, identity, stdin = oldGetenv, oldIdentity, oldStdin
		resetFlags(rootCmd)
	})
	getenv = func(key string) string { return env[key] }
	identity = fakeIdentity{euid: 1000}
	stdin = strings.NewReader("")

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return out.String(), err
}

func resetFlags(cmd *cobra.Command) {
	reset := func(f *pflag.Flag) {
		_ = f.Value.Set(f.DefValue)
		f.Changed = false
	}
	cmd.PersistentFlags().VisitAll(reset)
	for _, sub := range cmd.Commands() {
		sub.Flags().VisitAll(reset)
	}
}

func TestRootCmd_Subcommands(t *testing.T) {
	t.Parallel()

	names := make([]string, 0)
	for _, c := range rootCmd.Commands() {
		names = append(names, c.Name())
	}
	assert.Subset(t, names, []string{"run", "step", "steps", "version"})
}

func TestRootCmd_Flags(t *testing.T) {
	t.Parallel()

	flags := rootCmd.PersistentFlags()
	for _, name := range []string{"dry-run", "user", "dotfiles-repo", "unattended", "interactive", "config", "env-file", "transcript", "verbose", "log-format"} {
		assert.NotNil(t, flags.Lookup(name), name)
	}
	assert.Equal(t, "y", flags.Lookup("unattended").Shorthand)
	assert.Equal(t, "v", flags.Lookup("verbose").Shorthand)
}

func TestFormatError_UserError(t *testing.T) {
	t.Parallel()

	msg := formatError(config.NewNotElevatedError())
	assert.Contains(t, msg, "archstrap must run as root")
	assert.Contains(t, msg, "Suggestion: Re-run with sudo")
}

func TestFormatError_ConfigContext(t *testing.T) {
	t.Parallel()

	msg := formatError(config.NewConfigNotFoundError("/etc/archstrap.yaml"))
	assert.Contains(t, msg, "catalog file not found (at /etc/archstrap.yaml)")
}

func TestFormatError_PlainError(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "boom", formatError(errors.New("boom")))
}

func TestPrintErrorTo(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	printErrorTo(&buf, errors.New("boom"))
	assert.Equal(t, "Error: boom\n", buf.String())
}

func TestVersionCmd(t *testing.T) {
	out, err := execute(t, nil, "version")
	require.NoError(t, err)
	assert.Contains(t, out, "archstrap dev")
	assert.Contains(t, out, "commit: none")
}

func TestStepsCmd_ListsCatalogInOrder(t *testing.T) {
	out, err := execute(t, nil, "steps")
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 16)
	assert.Contains(t, lines[0], "POLICY")
	assert.Contains(t, lines[1], "system:snapshot")
	assert.Contains(t, lines[1], "optional")
	assert.Contains(t, lines[3], "system:upgrade")
	assert.Contains(t, lines[3], "required")
	assert.Contains(t, lines[8], "nvidia:driver")
	assert.Contains(t, lines[8], "optional, confirm")
	assert.Contains(t, lines[15], "nvim:bootstrap")
}

func TestCatalogStepIDs(t *testing.T) {
	t.Parallel()

	ids, err := catalogStepIDs()
	require.NoError(t, err)
	assert.Len(t, ids, 15)
	assert.Equal(t, "system:snapshot", ids[0])
	assert.Contains(t, ids, "shell:login")
}

func TestResolveOptions_FlagsOverrideEnvironment(t *testing.T) {
	env := map[string]string{
		config.EnvUser:         "alice",
		config.EnvDotfilesRepo: "https://github.com/alice/dotfiles.git",
		config.EnvUnattended:   "1",
	}

	resetFlags(rootCmd)
	oldGetenv := getenv
	t.Cleanup(func() {
		getenv = oldGetenv
		resetFlags(rootCmd)
	})
	getenv = func(key string) string { return env[key] }

	require.NoError(t, rootCmd.ParseFlags([]string{"--user", "bob", "--unattended=false", "--log-format", "json"}))

	opts, err := resolveOptions(rootCmd)
	require.NoError(t, err)
	assert.Equal(t, "bob", opts.User)
	assert.Equal(t, "https://github.com/alice/dotfiles.git", opts.DotfilesRepo)
	assert.False(t, opts.Unattended)
	assert.Equal(t, "json", opts.LogFormat)
}

func TestRun_NotElevated(t *testing.T) {
	_, err := execute(t, nil, "run", "--user", "alice", "--transcript", filepath.Join(t.TempDir(), "t.log"))
	require.Error(t, err)
	assert.ErrorIs(t, err, config.ErrNotElevated)
}

func TestRun_InvalidLogFormat(t *testing.T) {
	_, err := execute(t, nil, "run", "--dry-run", "--log-format", "xml")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid --log-format")
}

func TestRun_SimulatedDryRun(t *testing.T) {
	transcript := filepath.Join(t.TempDir(), "transcript.log")
	env := map[string]string{config.EnvTest: "1", config.EnvUser: "ci"}

	out, err := execute(t, env, "run", "--transcript", transcript)
	require.NoError(t, err, out)

	assert.Contains(t, out, "[1/15]")
	assert.Contains(t, out, "[15/15]")
	assert.Contains(t, out, "Dry run summary")
	assert.Contains(t, out, "Commands that would run")
	assert.Contains(t, out, "Transcript: "+transcript)

	records := testutil.ReadTranscript(t, transcript)
	messages := testutil.Messages(records)
	assert.Contains(t, messages, "run started")
	assert.Contains(t, messages, "run finished")
	for _, r := range records {
		assert.NotEmpty(t, r["run_id"])
	}
}

func TestSteps_WithConfigOverride(t *testing.T) {
	path := testutil.WriteTempFile(t, t.TempDir(), "catalog.yaml",
		testutil.NewCatalogBuilder().WithShell("/usr/bin/fish").ToYAML())

	out, err := execute(t, nil, "steps", "--config", path)
	require.NoError(t, err)
	assert.Contains(t, out, "Set login shell to /usr/bin/fish")
}

func TestStep_UnknownID(t *testing.T) {
	env := map[string]string{config.EnvTest: "1", config.EnvUser: "ci"}

	_, err := execute(t, env, "step", "bogus:step", "--transcript", filepath.Join(t.TempDir(), "t.log"))
	require.Error(t, err)
	assert.True(t, config.IsUserError(err, config.ErrCodeUnknownStep))
	assert.Contains(t, formatError(err), "shell:login")
}
