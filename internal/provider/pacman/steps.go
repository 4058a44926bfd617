// Package pacman provides the steps that install official repository
// package sets and enable the multilib repository.
package pacman

import (
	"fmt"
	"strings"

	"github.com/felixgeelhaar/archstrap/internal/domain/provision"
	"github.com/felixgeelhaar/archstrap/internal/ports"
	"github.com/felixgeelhaar/archstrap/internal/provider/commandutil"
	"github.com/felixgeelhaar/archstrap/internal/provider/textedit"
	"gopkg.in/ini.v1"
)

// ConfPath is pacman's main configuration file.
const ConfPath = "/etc/pacman.conf"

const multilibBlock = "[multilib]\nInclude = /etc/pacman.d/mirrorlist\n"

// SetOption configures a PackageSetStep.
type SetOption func(*PackageSetStep)

// WithDescription overrides the progress label.
func WithDescription(desc string) SetOption {
	return func(s *PackageSetStep) {
		s.description = desc
	}
}

// WhenEnabled makes the set skip itself when enabled is false.
func WhenEnabled(enabled bool) SetOption {
	return func(s *PackageSetStep) {
		s.enabled = enabled
	}
}

// PackageSetStep installs a named group of packages.
type PackageSetStep struct {
	id          provision.StepID
	name        string
	description string
	packages    []string
	enabled     bool
	pm          ports.PackageManager
}

// NewPackageSetStep creates a step with ID pacman:set:<name>.
func NewPackageSetStep(name string, packages []string, pm ports.PackageManager, opts ...SetOption) *PackageSetStep {
	s := &PackageSetStep{
		id:          provision.MustNewStepID(fmt.Sprintf("pacman:set:%s", name)),
		name:        name,
		description: fmt.Sprintf("Install %s packages", name),
		packages:    packages,
		enabled:     true,
		pm:          pm,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ID returns the step identifier.
func (s *PackageSetStep) ID() provision.StepID {
	return s.id
}

// Description returns the progress label.
func (s *PackageSetStep) Description() string {
	return s.description
}

// Packages returns the packages in the set.
func (s *PackageSetStep) Packages() []string {
	return s.packages
}

// Check is satisfied when every package in the set is installed.
func (s *PackageSetStep) Check(ctx provision.RunContext) (provision.StepStatus, error) {
	if !s.enabled {
		return provision.StatusSkipped, nil
	}
	if len(s.packages) == 0 {
		return provision.StatusSatisfied, nil
	}
	missing, err := s.pm.Missing(ctx.Context(), s.packages)
	if err != nil {
		return provision.StatusUnknown, fmt.Errorf("querying %s packages: %w", s.name, err)
	}
	if len(missing) == 0 {
		return provision.StatusSatisfied, nil
	}
	ctx.Logger().Debug(ctx.Context(), "packages missing",
		ports.F("set", s.name), ports.F("missing", strings.Join(missing, " ")))
	return provision.StatusNeedsApply, nil
}

// Apply installs only the packages that are missing.
func (s *PackageSetStep) Apply(ctx provision.RunContext) error {
	missing, err := s.pm.Missing(ctx.Context(), s.packages)
	if err != nil {
		return fmt.Errorf("querying %s packages: %w", s.name, err)
	}
	if len(missing) == 0 {
		return nil
	}
	return s.pm.Install(ctx.Context(), missing)
}

// MultilibStep enables the [multilib] repository by appending a managed
// section to pacman.conf and refreshing the databases.
type MultilibStep struct {
	id      provision.StepID
	enabled bool
	fs      ports.FileSystem
	runner  ports.CommandRunner
}

// NewMultilibStep creates a MultilibStep. It skips itself unless enabled.
func NewMultilibStep(enabled bool, fs ports.FileSystem, runner ports.CommandRunner) *MultilibStep {
	return &MultilibStep{
		id:      provision.MustNewStepID("pacman:multilib"),
		enabled: enabled,
		fs:      fs,
		runner:  runner,
	}
}

// ID returns the step identifier.
func (s *MultilibStep) ID() provision.StepID {
	return s.id
}

// Description returns the progress label.
func (s *MultilibStep) Description() string {
	return "Enable multilib repository"
}

// Check is satisfied when pacman.conf has an active [multilib] section.
func (s *MultilibStep) Check(_ provision.RunContext) (provision.StepStatus, error) {
	if !s.enabled {
		return provision.StatusSkipped, nil
	}
	data, err := s.fs.ReadFile(ConfPath)
	if err != nil {
		return provision.StatusUnknown, fmt.Errorf("reading %s: %w", ConfPath, err)
	}
	enabled, err := MultilibEnabled(data)
	if err != nil {
		return provision.StatusUnknown, err
	}
	if enabled {
		return provision.StatusSatisfied, nil
	}
	return provision.StatusNeedsApply, nil
}

// Apply adds the repository and syncs the package databases.
func (s *MultilibStep) Apply(ctx provision.RunContext) error {
	data, err := s.fs.ReadFile(ConfPath)
	if err != nil {
		return fmt.Errorf("reading %s: %w", ConfPath, err)
	}
	updated := textedit.WriteManagedBlock(string(data), "multilib", multilibBlock)
	if err := s.fs.WriteFile(ConfPath, []byte(updated), 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", ConfPath, err)
	}
	_, err = commandutil.Run(ctx.Context(), s.runner, ports.NewInvocation("pacman", "-Sy"))
	return err
}

// MultilibEnabled parses pacman.conf and reports whether an uncommented
// [multilib] section with an Include or Server line is present.
func MultilibEnabled(conf []byte) (bool, error) {
	cfg, err := ini.LoadSources(ini.LoadOptions{
		AllowBooleanKeys:        true,
		AllowShadows:            true,
		SkipUnrecognizableLines: true,
		IgnoreInlineComment:     true,
	}, conf)
	if err != nil {
		return false, fmt.Errorf("parsing %s: %w", ConfPath, err)
	}
	sec, err := cfg.GetSection("multilib")
	if err != nil {
		return false, nil
	}
	return sec.HasKey("Include") || sec.HasKey("Server"), nil
}
