package system

import (
	"context"

	"github.com/felixgeelhaar/archstrap/internal/ports"
	"github.com/felixgeelhaar/archstrap/internal/provider/commandutil"
	"github.com/felixgeelhaar/archstrap/internal/validation"
)

// AURHelper drives a pacman-compatible AUR helper such as yay or paru.
// It always runs as the target user; makepkg refuses to build as root.
type AURHelper struct {
	name   string
	runner ports.CommandRunner
}

// NewAURHelper creates an adapter for the helper binary name.
func NewAURHelper(name string, runner ports.CommandRunner) *AURHelper {
	if name == "" {
		name = "yay"
	}
	return &AURHelper{name: name, runner: runner}
}

// Name returns the helper binary name.
func (a *AURHelper) Name() string {
	return a.name
}

// Missing returns the names not installed, as seen by the helper.
func (a *AURHelper) Missing(ctx context.Context, user string, names []string) ([]string, error) {
	if len(names) == 0 {
		return nil, nil
	}
	inv := ports.NewInvocation(a.name, append([]string{"-Q"}, names...)...).AsUser(user)
	return queryMissing(ctx, a.runner, inv)
}

// Install builds and installs names as user.
func (a *AURHelper) Install(ctx context.Context, user string, names []string) error {
	if len(names) == 0 {
		return nil
	}
	if err := validation.ValidateUsername(user); err != nil {
		return err
	}
	if err := validation.ValidatePackageNames(names); err != nil {
		return err
	}
	args := append([]string{"-S", "--needed", "--noconfirm"}, names...)
	_, err := commandutil.Run(ctx, a.runner, ports.NewInvocation(a.name, args...).AsUser(user))
	return err
}

var _ ports.AURHelper = (*AURHelper)(nil)
