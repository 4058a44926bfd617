// Package services enables system units and user lingering.
package services

import (
	"fmt"
	"strings"

	"github.com/felixgeelhaar/archstrap/internal/domain/provision"
	"github.com/felixgeelhaar/archstrap/internal/ports"
)

// EnableStep enables a list of systemd units.
type EnableStep struct {
	id       provision.StepID
	services []string
	manager  ports.ServiceManager
}

// NewEnableStep creates an EnableStep.
func NewEnableStep(services []string, manager ports.ServiceManager) *EnableStep {
	return &EnableStep{
		id:       provision.MustNewStepID("services:enable"),
		services: services,
		manager:  manager,
	}
}

// ID returns the step identifier.
func (s *EnableStep) ID() provision.StepID {
	return s.id
}

// Description returns the progress label.
func (s *EnableStep) Description() string {
	return "Enable system services"
}

// Check is satisfied when every unit reports enabled.
func (s *EnableStep) Check(ctx provision.RunContext) (provision.StepStatus, error) {
	disabled, err := s.disabled(ctx)
	if err != nil {
		return provision.StatusUnknown, err
	}
	if len(disabled) == 0 {
		return provision.StatusSatisfied, nil
	}
	ctx.Logger().Debug(ctx.Context(), "services not enabled", ports.F("services", strings.Join(disabled, " ")))
	return provision.StatusNeedsApply, nil
}

// Apply enables the units that are not yet enabled.
func (s *EnableStep) Apply(ctx provision.RunContext) error {
	disabled, err := s.disabled(ctx)
	if err != nil {
		return err
	}
	for _, name := range disabled {
		if err := s.manager.Enable(ctx.Context(), name); err != nil {
			return fmt.Errorf("enabling %s: %w", name, err)
		}
	}
	return nil
}

func (s *EnableStep) disabled(ctx provision.RunContext) ([]string, error) {
	var out []string
	for _, name := range s.services {
		enabled, err := s.manager.IsEnabled(ctx.Context(), name)
		if err != nil {
			return nil, fmt.Errorf("checking %s: %w", name, err)
		}
		if !enabled {
			out = append(out, name)
		}
	}
	return out, nil
}

// LingerStep keeps the target user's systemd instance running without a
// login session.
type LingerStep struct {
	id       provision.StepID
	enabled  bool
	sessions ports.SessionManager
}

// NewLingerStep creates a LingerStep. It skips itself unless enabled.
func NewLingerStep(enabled bool, sessions ports.SessionManager) *LingerStep {
	return &LingerStep{
		id:       provision.MustNewStepID("services:linger"),
		enabled:  enabled,
		sessions: sessions,
	}
}

// ID returns the step identifier.
func (s *LingerStep) ID() provision.StepID {
	return s.id
}

// Description returns the progress label.
func (s *LingerStep) Description() string {
	return "Enable user lingering"
}

// Check reads the user's Linger property.
func (s *LingerStep) Check(ctx provision.RunContext) (provision.StepStatus, error) {
	if !s.enabled {
		return provision.StatusSkipped, nil
	}
	on, err := s.sessions.LingerEnabled(ctx.Context(), ctx.Target().Name)
	if err != nil {
		return provision.StatusUnknown, fmt.Errorf("reading linger state: %w", err)
	}
	if on {
		return provision.StatusSatisfied, nil
	}
	return provision.StatusNeedsApply, nil
}

// Apply enables lingering.
func (s *LingerStep) Apply(ctx provision.RunContext) error {
	return s.sessions.EnableLinger(ctx.Context(), ctx.Target().Name)
}
