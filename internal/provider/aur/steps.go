// Package aur bootstraps an AUR helper and installs packages through it.
package aur

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/felixgeelhaar/archstrap/internal/domain/provision"
	"github.com/felixgeelhaar/archstrap/internal/ports"
	"github.com/felixgeelhaar/archstrap/internal/provider/commandutil"
)

const scratchPattern = "archstrap-aur-*"

// HelperStep builds the AUR helper from source as the target user.
type HelperStep struct {
	id     provision.StepID
	helper string
	repo   string
	fs     ports.FileSystem
	runner ports.CommandRunner
	vcs    ports.VersionControl
	bins   ports.BinaryResolver
}

// NewHelperStep creates a HelperStep that builds helper from repo.
func NewHelperStep(helper, repo string, fs ports.FileSystem, runner ports.CommandRunner, vcs ports.VersionControl, bins ports.BinaryResolver) *HelperStep {
	return &HelperStep{
		id:     provision.MustNewStepID("aur:helper"),
		helper: helper,
		repo:   repo,
		fs:     fs,
		runner: runner,
		vcs:    vcs,
		bins:   bins,
	}
}

// ID returns the step identifier.
func (s *HelperStep) ID() provision.StepID {
	return s.id
}

// Description returns the progress label.
func (s *HelperStep) Description() string {
	return fmt.Sprintf("Build AUR helper %s", s.helper)
}

// Check is satisfied when the helper is on PATH.
func (s *HelperStep) Check(_ provision.RunContext) (provision.StepStatus, error) {
	if _, err := s.bins.LookPath(s.helper); err == nil {
		return provision.StatusSatisfied, nil
	}
	return provision.StatusNeedsApply, nil
}

// Apply clones and builds the helper in a scratch directory owned by the
// target user. The directory is removed however Apply returns.
func (s *HelperStep) Apply(ctx provision.RunContext) error {
	user := ctx.Target().Name

	dir, err := s.fs.MkdirTemp("", scratchPattern)
	if err != nil {
		return fmt.Errorf("creating build directory: %w", err)
	}
	defer func() {
		if rmErr := s.fs.RemoveAll(dir); rmErr != nil {
			ctx.Logger().Warn(ctx.Context(), "could not remove build directory",
				ports.F("dir", dir), ports.F("error", rmErr.Error()))
		}
	}()

	if _, err := commandutil.Run(ctx.Context(), s.runner, ports.NewInvocation("chown", user+":", dir)); err != nil {
		return err
	}

	buildDir := filepath.Join(dir, s.helper)
	if err := s.vcs.Clone(ctx.Context(), user, s.repo, buildDir); err != nil {
		return fmt.Errorf("cloning %s: %w", s.repo, err)
	}

	makepkg := ports.NewInvocation("makepkg", "-si", "--noconfirm").AsUser(user).InDir(buildDir)
	if _, err := commandutil.Run(ctx.Context(), s.runner, makepkg); err != nil {
		return err
	}
	return nil
}

// PackagesStep installs AUR packages with the helper.
type PackagesStep struct {
	id       provision.StepID
	packages []string
	helper   ports.AURHelper
	bins     ports.BinaryResolver
}

// NewPackagesStep creates a PackagesStep.
func NewPackagesStep(packages []string, helper ports.AURHelper, bins ports.BinaryResolver) *PackagesStep {
	return &PackagesStep{
		id:       provision.MustNewStepID("aur:packages"),
		packages: packages,
		helper:   helper,
		bins:     bins,
	}
}

// ID returns the step identifier.
func (s *PackagesStep) ID() provision.StepID {
	return s.id
}

// Description returns the progress label.
func (s *PackagesStep) Description() string {
	return "Install AUR packages"
}

// Check skips when the helper cannot be resolved rather than failing.
func (s *PackagesStep) Check(ctx provision.RunContext) (provision.StepStatus, error) {
	if len(s.packages) == 0 {
		return provision.StatusSatisfied, nil
	}
	if _, err := s.bins.LookPath(s.helper.Name()); err != nil {
		ctx.Logger().Warn(ctx.Context(), "AUR helper not found, skipping AUR packages",
			ports.F("helper", s.helper.Name()))
		return provision.StatusSkipped, nil
	}
	missing, err := s.helper.Missing(ctx.Context(), ctx.Target().Name, s.packages)
	if err != nil {
		return provision.StatusUnknown, fmt.Errorf("querying AUR packages: %w", err)
	}
	if len(missing) == 0 {
		return provision.StatusSatisfied, nil
	}
	ctx.Logger().Debug(ctx.Context(), "AUR packages missing", ports.F("missing", strings.Join(missing, " ")))
	return provision.StatusNeedsApply, nil
}

// Apply installs the missing packages as the target user.
func (s *PackagesStep) Apply(ctx provision.RunContext) error {
	user := ctx.Target().Name
	missing, err := s.helper.Missing(ctx.Context(), user, s.packages)
	if err != nil {
		return fmt.Errorf("querying AUR packages: %w", err)
	}
	if len(missing) == 0 {
		return nil
	}
	return s.helper.Install(ctx.Context(), user, missing)
}
