package system

import (
	"context"
	"fmt"
	"strings"

	"github.com/felixgeelhaar/archstrap/internal/ports"
	"github.com/felixgeelhaar/archstrap/internal/provider/commandutil"
	"github.com/felixgeelhaar/archstrap/internal/validation"
)

// Accounts reads the passwd database and changes login shells.
type Accounts struct {
	runner ports.CommandRunner
}

// NewAccounts creates an Accounts adapter.
func NewAccounts(runner ports.CommandRunner) *Accounts {
	return &Accounts{runner: runner}
}

// LoginShell returns field 7 of user's passwd entry. An empty answer (a
// simulated probe) yields an empty shell.
func (a *Accounts) LoginShell(ctx context.Context, user string) (string, error) {
	result, err := commandutil.Run(ctx, a.runner, ports.NewInvocation("getent", "passwd", user))
	if err != nil {
		return "", err
	}
	entry := strings.TrimSpace(result.Stdout)
	if entry == "" {
		return "", nil
	}
	fields := strings.Split(entry, ":")
	if len(fields) < 7 {
		return "", fmt.Errorf("malformed passwd entry for %s: %q", user, entry)
	}
	return fields[6], nil
}

// SetLoginShell changes user's login shell.
func (a *Accounts) SetLoginShell(ctx context.Context, user, shell string) error {
	if err := validation.ValidateUsername(user); err != nil {
		return err
	}
	if err := validation.ValidateShell(shell); err != nil {
		return err
	}
	_, err := commandutil.Run(ctx, a.runner, ports.NewInvocation("chsh", "-s", shell, user))
	return err
}

var _ ports.AccountManager = (*Accounts)(nil)
