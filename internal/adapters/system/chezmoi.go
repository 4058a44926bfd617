package system

import (
	"context"
	"path/filepath"

	"github.com/felixgeelhaar/archstrap/internal/ports"
	"github.com/felixgeelhaar/archstrap/internal/provider/commandutil"
	"github.com/felixgeelhaar/archstrap/internal/validation"
)

// Chezmoi manages dotfiles with chezmoi.
type Chezmoi struct {
	runner ports.CommandRunner
}

// NewChezmoi creates a Chezmoi adapter.
func NewChezmoi(runner ports.CommandRunner) *Chezmoi {
	return &Chezmoi{runner: runner}
}

// SourceDir returns chezmoi's default source directory.
func (c *Chezmoi) SourceDir(home string) string {
	return filepath.Join(home, ".local", "share", "chezmoi")
}

// InitFromRemote clones repo into the source directory and applies it.
func (c *Chezmoi) InitFromRemote(ctx context.Context, user, repo string) error {
	if err := validation.ValidateRepoURL(repo); err != nil {
		return err
	}
	_, err := commandutil.Run(ctx, c.runner, ports.NewInvocation("chezmoi", "init", "--apply", repo).AsUser(user))
	return err
}

// InitEmpty creates an empty local source directory.
func (c *Chezmoi) InitEmpty(ctx context.Context, user string) error {
	_, err := commandutil.Run(ctx, c.runner, ports.NewInvocation("chezmoi", "init").AsUser(user))
	return err
}

var _ ports.DotfilesManager = (*Chezmoi)(nil)
