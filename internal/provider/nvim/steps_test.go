package nvim_test

import (
	"context"
	"errors"
	"testing"

	"github.com/felixgeelhaar/archstrap/internal/domain/provision"
	"github.com/felixgeelhaar/archstrap/internal/provider/nvim"
	"github.com/felixgeelhaar/archstrap/internal/testutil/mocks"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const starter = "https://github.com/nvim-lua/kickstart.nvim.git"

func runContext() provision.RunContext {
	return provision.NewRunContext(context.Background(), provision.ExecutionContext{
		Elevated: true,
		Target:   provision.TargetUser{Name: "alice", Home: "/home/alice"},
	})
}

func TestBootstrapStep_ID(t *testing.T) {
	t.Parallel()

	sys := mocks.NewSystem()
	step := nvim.NewBootstrapStep(starter, sys.FS, sys.Git)

	assert.Equal(t, "nvim:bootstrap", step.ID().String())
}

func TestBootstrapStep_Check_Installed(t *testing.T) {
	t.Parallel()

	sys := mocks.NewSystem()
	sys.FS.AddDir("/home/alice/.config/nvim")
	step := nvim.NewBootstrapStep(starter, sys.FS, sys.Git)

	status, err := step.Check(runContext())
	require.NoError(t, err)
	assert.Equal(t, provision.StatusSatisfied, status)
}

func TestBootstrapStep_Apply(t *testing.T) {
	t.Parallel()

	sys := mocks.NewSystem()
	step := nvim.NewBootstrapStep(starter, sys.FS, sys.Git)

	status, err := step.Check(runContext())
	require.NoError(t, err)
	assert.Equal(t, provision.StatusNeedsApply, status)

	require.NoError(t, step.Apply(runContext()))
	assert.Equal(t, []string{"git clone " + starter + " /home/alice/.config/nvim as alice"}, sys.Journal.Entries())

	status, err = step.Check(runContext())
	require.NoError(t, err)
	assert.Equal(t, provision.StatusSatisfied, status)
}

func TestBootstrapStep_NoStarter(t *testing.T) {
	t.Parallel()

	sys := mocks.NewSystem()
	step := nvim.NewBootstrapStep("", sys.FS, sys.Git)

	status, err := step.Check(runContext())
	require.NoError(t, err)
	assert.Equal(t, provision.StatusSkipped, status)
}

func TestBootstrapStep_CloneError(t *testing.T) {
	t.Parallel()

	sys := mocks.NewSystem()
	sys.Git.CloneErr = errors.New("git clone: exit status 128")
	step := nvim.NewBootstrapStep(starter, sys.FS, sys.Git)

	err := step.Apply(runContext())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "kickstart.nvim")
}
