// Package dotfiles initializes the target user's chezmoi source.
package dotfiles

import (
	"fmt"

	"github.com/felixgeelhaar/archstrap/internal/domain/provision"
	"github.com/felixgeelhaar/archstrap/internal/ports"
)

// SyncStep applies a dotfiles repository, or starts an empty source when
// there is none or it cannot be fetched.
type SyncStep struct {
	id      provision.StepID
	repo    string
	manager ports.DotfilesManager
	fs      ports.FileSystem
}

// NewSyncStep creates a SyncStep. repo may be empty.
func NewSyncStep(repo string, manager ports.DotfilesManager, fs ports.FileSystem) *SyncStep {
	return &SyncStep{
		id:      provision.MustNewStepID("dotfiles:sync"),
		repo:    repo,
		manager: manager,
		fs:      fs,
	}
}

// ID returns the step identifier.
func (s *SyncStep) ID() provision.StepID {
	return s.id
}

// Description returns the progress label.
func (s *SyncStep) Description() string {
	if s.repo == "" {
		return "Initialize dotfiles"
	}
	return fmt.Sprintf("Apply dotfiles from %s", s.repo)
}

// Check is satisfied once the source directory exists.
func (s *SyncStep) Check(ctx provision.RunContext) (provision.StepStatus, error) {
	if s.fs.Exists(s.manager.SourceDir(ctx.Target().Home)) {
		return provision.StatusSatisfied, nil
	}
	return provision.StatusNeedsApply, nil
}

// Apply tries the remote first. A remote failure is a warning; only a
// failed local init fails the step.
func (s *SyncStep) Apply(ctx provision.RunContext) error {
	user := ctx.Target().Name

	if s.repo != "" {
		err := s.manager.InitFromRemote(ctx.Context(), user, s.repo)
		if err == nil {
			return nil
		}
		ctx.Logger().Warn(ctx.Context(), "dotfiles repository could not be applied, starting empty",
			ports.F("repo", s.repo), ports.F("error", err.Error()))
	}

	if err := s.manager.InitEmpty(ctx.Context(), user); err != nil {
		return fmt.Errorf("initializing empty dotfiles source: %w", err)
	}
	return nil
}
