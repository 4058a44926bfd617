package system

import (
	"context"
	"fmt"
	"regexp"

	"github.com/felixgeelhaar/archstrap/internal/ports"
	"github.com/felixgeelhaar/archstrap/internal/provider/commandutil"
	"github.com/felixgeelhaar/archstrap/internal/validation"
)

// notFoundRegex matches "error: package 'foo' was not found" from pacman -Q.
var notFoundRegex = regexp.MustCompile(`package '([^']+)' was not found`)

// Pacman drives the system package manager.
type Pacman struct {
	runner ports.CommandRunner
}

// NewPacman creates a Pacman adapter.
func NewPacman(runner ports.CommandRunner) *Pacman {
	return &Pacman{runner: runner}
}

// Missing queries the local database and returns the names that are not
// installed, in input order.
func (p *Pacman) Missing(ctx context.Context, names []string) ([]string, error) {
	if len(names) == 0 {
		return nil, nil
	}
	return queryMissing(ctx, p.runner, ports.NewInvocation("pacman", append([]string{"-Q"}, names...)...))
}

// Install installs names, skipping those already up to date.
func (p *Pacman) Install(ctx context.Context, names []string) error {
	if len(names) == 0 {
		return nil
	}
	if err := validation.ValidatePackageNames(names); err != nil {
		return err
	}
	args := append([]string{"-S", "--needed", "--noconfirm"}, names...)
	_, err := commandutil.Run(ctx, p.runner, ports.NewInvocation("pacman", args...))
	return err
}

// UpgradesPending asks checkupdates, which syncs a private copy of the
// databases. It exits 2 when nothing is pending. Without checkupdates the
// upgrade is assumed to be needed.
func (p *Pacman) UpgradesPending(ctx context.Context) (bool, error) {
	inv := ports.NewInvocation("checkupdates")
	result, err := p.runner.Exec(ctx, inv)
	if err != nil {
		if commandutil.IsCommandNotFound(err) {
			return true, nil
		}
		return false, fmt.Errorf("%s: %w", inv.String(), err)
	}
	switch result.ExitCode {
	case 0:
		return true, nil
	case 2:
		return false, nil
	default:
		return true, nil
	}
}

// Upgrade synchronizes the package databases and upgrades the system.
func (p *Pacman) Upgrade(ctx context.Context) error {
	_, err := commandutil.Run(ctx, p.runner, ports.NewInvocation("pacman", "-Syu", "--noconfirm"))
	return err
}

// queryMissing runs a "-Q <names>" query and parses the not-found report.
// A non-zero exit without any not-found line is a real failure.
func queryMissing(ctx context.Context, runner ports.CommandRunner, inv ports.Invocation) ([]string, error) {
	result, err := runner.Exec(ctx, inv)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", inv.String(), err)
	}
	if result.Success() {
		return nil, nil
	}

	matches := notFoundRegex.FindAllStringSubmatch(result.Stderr, -1)
	if len(matches) == 0 {
		return nil, commandutil.NewExitError(inv, result)
	}

	missing := make([]string, 0, len(matches))
	for _, m := range matches {
		missing = append(missing, m[1])
	}
	return missing, nil
}

var _ ports.PackageManager = (*Pacman)(nil)
