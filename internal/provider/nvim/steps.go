// Package nvim bootstraps a starter Neovim configuration for the target user.
package nvim

import (
	"fmt"

	"github.com/felixgeelhaar/archstrap/internal/domain/provision"
	"github.com/felixgeelhaar/archstrap/internal/ports"
)

const configDir = "~/.config/nvim"

// BootstrapStep clones a starter configuration into ~/.config/nvim.
type BootstrapStep struct {
	id   provision.StepID
	repo string
	fs   ports.FileSystem
	vcs  ports.VersionControl
}

// NewBootstrapStep creates a BootstrapStep cloning repo.
func NewBootstrapStep(repo string, fs ports.FileSystem, vcs ports.VersionControl) *BootstrapStep {
	return &BootstrapStep{
		id:   provision.MustNewStepID("nvim:bootstrap"),
		repo: repo,
		fs:   fs,
		vcs:  vcs,
	}
}

// ID returns the step identifier.
func (s *BootstrapStep) ID() provision.StepID {
	return s.id
}

// Description returns the progress label.
func (s *BootstrapStep) Description() string {
	return "Bootstrap Neovim configuration"
}

// Check is satisfied when any configuration exists, including one the
// dotfiles step just applied. Without a starter repository it skips.
func (s *BootstrapStep) Check(ctx provision.RunContext) (provision.StepStatus, error) {
	if s.fs.Exists(ports.HomePath(ctx.Target().Home, configDir)) {
		return provision.StatusSatisfied, nil
	}
	if s.repo == "" {
		return provision.StatusSkipped, nil
	}
	return provision.StatusNeedsApply, nil
}

// Apply clones the starter as the target user.
func (s *BootstrapStep) Apply(ctx provision.RunContext) error {
	dest := ports.HomePath(ctx.Target().Home, configDir)
	if err := s.vcs.Clone(ctx.Context(), ctx.Target().Name, s.repo, dest); err != nil {
		return fmt.Errorf("cloning %s: %w", s.repo, err)
	}
	return nil
}
