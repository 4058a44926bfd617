package system

import (
	"context"
	"fmt"
	"strings"

	"github.com/felixgeelhaar/archstrap/internal/ports"
	"github.com/felixgeelhaar/archstrap/internal/provider/commandutil"
	"github.com/felixgeelhaar/archstrap/internal/validation"
)

// Systemctl manages system units.
type Systemctl struct {
	runner ports.CommandRunner
}

// NewSystemctl creates a Systemctl adapter.
func NewSystemctl(runner ports.CommandRunner) *Systemctl {
	return &Systemctl{runner: runner}
}

// IsEnabled reports whether is-enabled prints exactly "enabled".
// is-enabled exits non-zero for disabled units, so the exit code alone
// is not an error.
func (s *Systemctl) IsEnabled(ctx context.Context, service string) (bool, error) {
	inv := ports.NewInvocation("systemctl", "is-enabled", service)
	result, err := s.runner.Exec(ctx, inv)
	if err != nil {
		return false, fmt.Errorf("%s: %w", inv.String(), err)
	}
	return strings.TrimSpace(result.Stdout) == "enabled", nil
}

// Enable enables service so it starts at boot.
func (s *Systemctl) Enable(ctx context.Context, service string) error {
	if err := validation.ValidateServiceName(service); err != nil {
		return err
	}
	_, err := commandutil.Run(ctx, s.runner, ports.NewInvocation("systemctl", "enable", service))
	return err
}

// Loginctl manages logind user settings.
type Loginctl struct {
	runner ports.CommandRunner
}

// NewLoginctl creates a Loginctl adapter.
func NewLoginctl(runner ports.CommandRunner) *Loginctl {
	return &Loginctl{runner: runner}
}

// LingerEnabled reports whether user's manager survives logout.
// show-user fails for users without a session, which means no linger.
func (l *Loginctl) LingerEnabled(ctx context.Context, user string) (bool, error) {
	inv := ports.NewInvocation("loginctl", "show-user", user, "--property=Linger")
	result, err := l.runner.Exec(ctx, inv)
	if err != nil {
		return false, fmt.Errorf("%s: %w", inv.String(), err)
	}
	if !result.Success() {
		return false, nil
	}
	return strings.TrimSpace(result.Stdout) == "Linger=yes", nil
}

// EnableLinger turns on lingering for user.
func (l *Loginctl) EnableLinger(ctx context.Context, user string) error {
	if err := validation.ValidateUsername(user); err != nil {
		return err
	}
	_, err := commandutil.Run(ctx, l.runner, ports.NewInvocation("loginctl", "enable-linger", user))
	return err
}

var (
	_ ports.ServiceManager = (*Systemctl)(nil)
	_ ports.SessionManager = (*Loginctl)(nil)
)
