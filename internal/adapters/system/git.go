package system

import (
	"context"

	"github.com/felixgeelhaar/archstrap/internal/ports"
	"github.com/felixgeelhaar/archstrap/internal/provider/commandutil"
	"github.com/felixgeelhaar/archstrap/internal/validation"
)

// Git clones repositories.
type Git struct {
	runner ports.CommandRunner
}

// NewGit creates a Git adapter.
func NewGit(runner ports.CommandRunner) *Git {
	return &Git{runner: runner}
}

// Clone clones url into dest as user. An empty user clones as the
// elevated identity.
func (g *Git) Clone(ctx context.Context, user, url, dest string) error {
	if err := validation.ValidateRepoURL(url); err != nil {
		return err
	}
	if err := validation.ValidatePath(dest); err != nil {
		return err
	}
	inv := ports.NewInvocation("git", "clone", "--depth", "1", url, dest)
	if user != "" {
		inv = inv.AsUser(user)
	}
	_, err := commandutil.Run(ctx, g.runner, inv)
	return err
}

var _ ports.VersionControl = (*Git)(nil)
