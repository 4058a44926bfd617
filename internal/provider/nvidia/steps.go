// Package nvidia installs the proprietary NVIDIA driver and configures
// early kernel mode setting for it.
package nvidia

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/felixgeelhaar/archstrap/internal/domain/provision"
	"github.com/felixgeelhaar/archstrap/internal/ports"
	"github.com/felixgeelhaar/archstrap/internal/provider/commandutil"
	"github.com/felixgeelhaar/archstrap/internal/provider/textedit"
)

// Files the driver step edits.
const (
	MkinitcpioPath = "/etc/mkinitcpio.conf"
	ModprobePath   = "/etc/modprobe.d/nvidia.conf"
)

const (
	modulesKey   = "MODULES"
	blockSection = "nvidia"
)

// Config describes the driver setup.
type Config struct {
	// Force runs the step even when no NVIDIA device is detected.
	Force           bool
	Packages        []string
	Modules         []string
	ModprobeOptions []string
}

// DriverStep installs the driver packages, adds the modules to the
// initramfs and writes the modprobe options.
type DriverStep struct {
	id     provision.StepID
	cfg    Config
	pm     ports.PackageManager
	probe  ports.HardwareProbe
	fs     ports.FileSystem
	runner ports.CommandRunner
}

// NewDriverStep creates a DriverStep.
func NewDriverStep(cfg Config, pm ports.PackageManager, probe ports.HardwareProbe, fs ports.FileSystem, runner ports.CommandRunner) *DriverStep {
	return &DriverStep{
		id:     provision.MustNewStepID("nvidia:driver"),
		cfg:    cfg,
		pm:     pm,
		probe:  probe,
		fs:     fs,
		runner: runner,
	}
}

// ID returns the step identifier.
func (s *DriverStep) ID() provision.StepID {
	return s.id
}

// Description returns the progress label.
func (s *DriverStep) Description() string {
	return "Install NVIDIA driver"
}

// Check skips on machines without an NVIDIA GPU, then verifies packages,
// the MODULES line and the modprobe options.
func (s *DriverStep) Check(ctx provision.RunContext) (provision.StepStatus, error) {
	if !s.cfg.Force {
		found, err := s.probe.HasNVIDIA(ctx.Context())
		if err != nil {
			return provision.StatusUnknown, fmt.Errorf("detecting GPU: %w", err)
		}
		if !found {
			ctx.Logger().Info(ctx.Context(), "no NVIDIA device detected")
			return provision.StatusSkipped, nil
		}
	}

	if len(s.cfg.Packages) > 0 {
		missing, err := s.pm.Missing(ctx.Context(), s.cfg.Packages)
		if err != nil {
			return provision.StatusUnknown, fmt.Errorf("querying driver packages: %w", err)
		}
		if len(missing) > 0 {
			return provision.StatusNeedsApply, nil
		}
	}

	mkinitcpio, err := s.fs.ReadFile(MkinitcpioPath)
	if err != nil {
		return provision.StatusNeedsApply, nil
	}
	missingModules, err := textedit.MissingEntries(string(mkinitcpio), modulesKey, s.cfg.Modules)
	if err != nil {
		return provision.StatusUnknown, fmt.Errorf("parsing %s: %w", MkinitcpioPath, err)
	}
	if len(missingModules) > 0 {
		return provision.StatusNeedsApply, nil
	}

	if !s.modprobeConfigured() {
		return provision.StatusNeedsApply, nil
	}
	return provision.StatusSatisfied, nil
}

// Apply converges packages and configuration, regenerates the initramfs
// and asks the operator to reboot. It never reboots.
func (s *DriverStep) Apply(ctx provision.RunContext) error {
	if len(s.cfg.Packages) > 0 {
		missing, err := s.pm.Missing(ctx.Context(), s.cfg.Packages)
		if err != nil {
			return fmt.Errorf("querying driver packages: %w", err)
		}
		if len(missing) > 0 {
			if err := s.pm.Install(ctx.Context(), missing); err != nil {
				return err
			}
		}
	}

	data, err := s.fs.ReadFile(MkinitcpioPath)
	if err != nil {
		return fmt.Errorf("reading %s: %w", MkinitcpioPath, err)
	}
	current := string(data)
	merged, err := textedit.MergeArray(current, modulesKey, s.cfg.Modules)
	if err != nil {
		return fmt.Errorf("editing %s: %w", MkinitcpioPath, err)
	}
	if merged != current {
		if err := s.fs.WriteFile(MkinitcpioPath, []byte(merged), 0o644); err != nil {
			return fmt.Errorf("writing %s: %w", MkinitcpioPath, err)
		}
	}

	if !s.modprobeConfigured() {
		if err := s.writeModprobe(); err != nil {
			return err
		}
	}

	if _, err := commandutil.Run(ctx.Context(), s.runner, ports.NewInvocation("mkinitcpio", "-P")); err != nil {
		return err
	}

	ctx.Notify("reboot required to load the NVIDIA kernel modules")
	return nil
}

func (s *DriverStep) modprobeConfigured() bool {
	if len(s.cfg.ModprobeOptions) == 0 {
		return true
	}
	data, err := s.fs.ReadFile(ModprobePath)
	if err != nil {
		return false
	}
	lines := make(map[string]bool)
	for _, l := range strings.Split(string(data), "\n") {
		lines[strings.Join(strings.Fields(l), " ")] = true
	}
	for _, opt := range s.cfg.ModprobeOptions {
		if !lines[strings.Join(strings.Fields(opt), " ")] {
			return false
		}
	}
	return true
}

func (s *DriverStep) writeModprobe() error {
	existing, err := s.fs.ReadFile(ModprobePath)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("reading %s: %w", ModprobePath, err)
	}
	block := strings.Join(s.cfg.ModprobeOptions, "\n") + "\n"
	updated := textedit.WriteManagedBlock(string(existing), blockSection, block)
	if err := s.fs.MkdirAll("/etc/modprobe.d", 0o755); err != nil {
		return fmt.Errorf("creating /etc/modprobe.d: %w", err)
	}
	if err := s.fs.WriteFile(ModprobePath, []byte(updated), 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", ModprobePath, err)
	}
	return nil
}
