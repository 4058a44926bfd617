package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func envMap(m map[string]string) func(string) string {
	return func(k string) string { return m[k] }
}

func TestFromEnv(t *testing.T) {
	t.Parallel()

	opts := FromEnv(envMap(map[string]string{
		EnvSudoUser:     "alice",
		EnvDotfilesRepo: "https://github.com/alice/dotfiles.git",
		EnvUnattended:   "yes",
	}))

	assert.Equal(t, "alice", opts.TargetUserName())
	assert.True(t, opts.Unattended)
	assert.False(t, opts.DryRun)
	assert.False(t, opts.Simulated)
	assert.Equal(t, "text", opts.LogFormat)

	cat := &Catalog{}
	opts.ApplyTo(cat)
	assert.Equal(t, "https://github.com/alice/dotfiles.git", cat.Dotfiles.Repo)
}

func TestFromEnv_ExplicitUserWins(t *testing.T) {
	t.Parallel()

	opts := FromEnv(envMap(map[string]string{EnvSudoUser: "alice", EnvUser: "bob"}))
	assert.Equal(t, "bob", opts.TargetUserName())
}

func TestFromEnv_TestAndCIForceDryRun(t *testing.T) {
	t.Parallel()

	for _, key := range []string{EnvTest, EnvCI} {
		opts := FromEnv(envMap(map[string]string{key: "true"}))
		assert.True(t, opts.Simulated, key)
		assert.True(t, opts.DryRun, key)
	}

	opts := FromEnv(envMap(map[string]string{EnvCI: "false", EnvDryRun: "0"}))
	assert.False(t, opts.DryRun)
}

func TestEnvBool(t *testing.T) {
	t.Parallel()

	for _, v := range []string{"1", "true", "TRUE", "yes", "Y", "on"} {
		assert.True(t, envBool(v), v)
	}
	for _, v := range []string{"", "0", "false", "no", "nope"} {
		assert.False(t, envBool(v), v)
	}
}

func TestLoadEnvFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "archstrap.env")
	require.NoError(t, os.WriteFile(path, []byte("ARCHSTRAP_TEST_ENVFILE_REPO=https://example.com/dots.git\nARCHSTRAP_TEST_ENVFILE_KEEP=from-file\n"), 0o600))

	t.Setenv("ARCHSTRAP_TEST_ENVFILE_KEEP", "from-env")

	require.NoError(t, LoadEnvFile(path, true))
	assert.Equal(t, "https://example.com/dots.git", os.Getenv("ARCHSTRAP_TEST_ENVFILE_REPO"))
	assert.Equal(t, "from-env", os.Getenv("ARCHSTRAP_TEST_ENVFILE_KEEP"), "existing variables are not overridden")
	require.NoError(t, os.Unsetenv("ARCHSTRAP_TEST_ENVFILE_REPO"))

	missing := filepath.Join(dir, "absent.env")
	require.NoError(t, LoadEnvFile(missing, false))
	assert.True(t, IsUserError(LoadEnvFile(missing, true), ErrCodeEnvFile))
}
