// Package system provides the whole-system steps that run before any
// package set: a pre-run snapshot, mirror ranking and a full upgrade.
package system

import (
	"fmt"
	"strings"

	"github.com/felixgeelhaar/archstrap/internal/domain/provision"
	"github.com/felixgeelhaar/archstrap/internal/ports"
	"github.com/felixgeelhaar/archstrap/internal/provider/commandutil"
)

// MirrorlistPath is where pacman reads its mirror list from.
const MirrorlistPath = "/etc/pacman.d/mirrorlist"

const reflectorMarker = "generated by Reflector"

// SnapshotStep takes one snapper snapshot of the root config before changes.
type SnapshotStep struct {
	id          provision.StepID
	enabled     bool
	description string
	runner      ports.CommandRunner
	bins        ports.BinaryResolver
}

// NewSnapshotStep creates a SnapshotStep. runID tags the snapshot description.
func NewSnapshotStep(enabled bool, runID string, runner ports.CommandRunner, bins ports.BinaryResolver) *SnapshotStep {
	return &SnapshotStep{
		id:          provision.MustNewStepID("system:snapshot"),
		enabled:     enabled,
		description: "archstrap " + runID,
		runner:      runner,
		bins:        bins,
	}
}

// ID returns the step identifier.
func (s *SnapshotStep) ID() provision.StepID {
	return s.id
}

// Description returns the progress label.
func (s *SnapshotStep) Description() string {
	return "Snapshot root filesystem"
}

// Check skips when snapshots are disabled or snapper is not installed.
func (s *SnapshotStep) Check(ctx provision.RunContext) (provision.StepStatus, error) {
	if !s.enabled {
		return provision.StatusSkipped, nil
	}
	if _, err := s.bins.LookPath("snapper"); err != nil {
		ctx.Logger().Debug(ctx.Context(), "snapper not found", ports.F("error", err.Error()))
		return provision.StatusSkipped, nil
	}
	return provision.StatusNeedsApply, nil
}

// Apply creates the snapshot.
func (s *SnapshotStep) Apply(ctx provision.RunContext) error {
	inv := ports.NewInvocation("snapper", "-c", "root", "create",
		"--description", s.description,
		"--cleanup-algorithm", "number",
		"--print-number")
	result, err := commandutil.Run(ctx.Context(), s.runner, inv)
	if err != nil {
		return err
	}
	if n := strings.TrimSpace(result.Stdout); n != "" {
		ctx.Notify("snapshot #%s created (%s)", n, s.description)
	}
	return nil
}

// MirrorsStep ranks mirrors with reflector and saves the mirror list.
type MirrorsStep struct {
	id      provision.StepID
	enabled bool
	country string
	fs      ports.FileSystem
	runner  ports.CommandRunner
	bins    ports.BinaryResolver
}

// NewMirrorsStep creates a MirrorsStep. An empty country ranks worldwide.
func NewMirrorsStep(enabled bool, country string, fs ports.FileSystem, runner ports.CommandRunner, bins ports.BinaryResolver) *MirrorsStep {
	return &MirrorsStep{
		id:      provision.MustNewStepID("system:mirrors"),
		enabled: enabled,
		country: country,
		fs:      fs,
		runner:  runner,
		bins:    bins,
	}
}

// ID returns the step identifier.
func (s *MirrorsStep) ID() provision.StepID {
	return s.id
}

// Description returns the progress label.
func (s *MirrorsStep) Description() string {
	return "Rank pacman mirrors"
}

// Check is satisfied once the mirror list carries reflector's header.
func (s *MirrorsStep) Check(ctx provision.RunContext) (provision.StepStatus, error) {
	if !s.enabled {
		return provision.StatusSkipped, nil
	}
	if _, err := s.bins.LookPath("reflector"); err != nil {
		ctx.Logger().Debug(ctx.Context(), "reflector not found", ports.F("error", err.Error()))
		return provision.StatusSkipped, nil
	}
	data, err := s.fs.ReadFile(MirrorlistPath)
	if err == nil && strings.Contains(string(data), reflectorMarker) {
		return provision.StatusSatisfied, nil
	}
	return provision.StatusNeedsApply, nil
}

// Apply runs reflector.
func (s *MirrorsStep) Apply(ctx provision.RunContext) error {
	args := []string{"--latest", "20", "--protocol", "https", "--sort", "rate"}
	if s.country != "" {
		args = append(args, "--country", s.country)
	}
	args = append(args, "--save", MirrorlistPath)

	_, err := commandutil.Run(ctx.Context(), s.runner, ports.NewInvocation("reflector", args...))
	return err
}

// UpgradeStep brings the installed system up to date.
type UpgradeStep struct {
	id provision.StepID
	pm ports.PackageManager
}

// NewUpgradeStep creates an UpgradeStep.
func NewUpgradeStep(pm ports.PackageManager) *UpgradeStep {
	return &UpgradeStep{
		id: provision.MustNewStepID("system:upgrade"),
		pm: pm,
	}
}

// ID returns the step identifier.
func (s *UpgradeStep) ID() provision.StepID {
	return s.id
}

// Description returns the progress label.
func (s *UpgradeStep) Description() string {
	return "Upgrade system packages"
}

// Check needs apply while upgrades are pending.
func (s *UpgradeStep) Check(ctx provision.RunContext) (provision.StepStatus, error) {
	pending, err := s.pm.UpgradesPending(ctx.Context())
	if err != nil {
		return provision.StatusUnknown, fmt.Errorf("checking for upgrades: %w", err)
	}
	if pending {
		return provision.StatusNeedsApply, nil
	}
	return provision.StatusSatisfied, nil
}

// Apply upgrades the system.
func (s *UpgradeStep) Apply(ctx provision.RunContext) error {
	return s.pm.Upgrade(ctx.Context())
}
