// Package shell provides the login shell step.
package shell

import (
	"fmt"

	"github.com/felixgeelhaar/archstrap/internal/domain/provision"
	"github.com/felixgeelhaar/archstrap/internal/ports"
)

// LoginShellStep sets the target user's login shell.
type LoginShellStep struct {
	id       provision.StepID
	shell    string
	accounts ports.AccountManager
}

// NewLoginShellStep creates a LoginShellStep for shell, e.g. /usr/bin/zsh.
func NewLoginShellStep(shell string, accounts ports.AccountManager) *LoginShellStep {
	return &LoginShellStep{
		id:       provision.MustNewStepID("shell:login"),
		shell:    shell,
		accounts: accounts,
	}
}

// ID returns the step identifier.
func (s *LoginShellStep) ID() provision.StepID {
	return s.id
}

// Description returns the progress label.
func (s *LoginShellStep) Description() string {
	return fmt.Sprintf("Set login shell to %s", s.shell)
}

// Check compares the account's current shell with the desired one.
func (s *LoginShellStep) Check(ctx provision.RunContext) (provision.StepStatus, error) {
	user := ctx.Target().Name
	current, err := s.accounts.LoginShell(ctx.Context(), user)
	if err != nil {
		return provision.StatusUnknown, fmt.Errorf("reading login shell for %s: %w", user, err)
	}
	if current == s.shell {
		return provision.StatusSatisfied, nil
	}
	ctx.Logger().Debug(ctx.Context(), "login shell differs",
		ports.F("user", user), ports.F("current", current), ports.F("want", s.shell))
	return provision.StatusNeedsApply, nil
}

// Apply changes the login shell.
func (s *LoginShellStep) Apply(ctx provision.RunContext) error {
	return s.accounts.SetLoginShell(ctx.Context(), ctx.Target().Name, s.shell)
}
