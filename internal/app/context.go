package app

import (
	"errors"
	"fmt"
	"os"
	"os/user"
	"path/filepath"
	"strconv"

	"github.com/felixgeelhaar/archstrap/internal/domain/config"
	"github.com/felixgeelhaar/archstrap/internal/domain/provision"
	"github.com/felixgeelhaar/archstrap/internal/validation"
)

// ErrRootTarget is returned when the target user would be root.
var ErrRootTarget = errors.New("the target user must be an unprivileged account")

// Identity answers who the process runs as and resolves accounts.
type Identity interface {
	Euid() int
	Current() (*user.User, error)
	Lookup(name string) (*user.User, error)
}

type osIdentity struct{}

// SystemIdentity returns the Identity of the running process.
func SystemIdentity() Identity {
	return osIdentity{}
}

func (osIdentity) Euid() int                              { return os.Geteuid() }
func (osIdentity) Current() (*user.User, error)           { return user.Current() }
func (osIdentity) Lookup(name string) (*user.User, error) { return user.Lookup(name) }

// ResolveExecutionContext builds the ExecutionContext once, before any
// step runs. Without root privileges only a dry run is allowed.
//
// The target user is --user / ARCHSTRAP_USER, then SUDO_USER, then (for an
// unprivileged dry run) the invoking user. Simulated runs accept accounts
// that do not exist on the host.
func ResolveExecutionContext(opts config.Options, id Identity) (provision.ExecutionContext, error) {
	elevated := id.Euid() == 0
	if !elevated && !opts.DryRun {
		return provision.ExecutionContext{}, config.NewNotElevatedError()
	}

	name := opts.TargetUserName()
	if name == "" && !elevated {
		if cur, err := id.Current(); err == nil {
			name = cur.Username
		}
	}
	if name == "" {
		return provision.ExecutionContext{}, config.NewUserNotFoundError("", nil)
	}
	if name == "root" {
		return provision.ExecutionContext{}, config.NewUserNotFoundError(name, ErrRootTarget)
	}
	if err := validation.ValidateUsername(name); err != nil {
		return provision.ExecutionContext{}, config.NewUserNotFoundError(name, err)
	}

	target, err := lookupTarget(id, name)
	if err != nil {
		if !opts.Simulated || errors.Is(err, ErrRootTarget) {
			return provision.ExecutionContext{}, config.NewUserNotFoundError(name, err)
		}
		target = provision.TargetUser{Name: name, Home: filepath.Join("/home", name), UID: 1000, GID: 1000}
	}

	return provision.ExecutionContext{
		Elevated:   elevated,
		Target:     target,
		DryRun:     opts.DryRun,
		Unattended: opts.Unattended,
	}, nil
}

func lookupTarget(id Identity, name string) (provision.TargetUser, error) {
	u, err := id.Lookup(name)
	if err != nil {
		return provision.TargetUser{}, err
	}
	uid, err := strconv.Atoi(u.Uid)
	if err != nil {
		return provision.TargetUser{}, fmt.Errorf("uid %q: %w", u.Uid, err)
	}
	if uid == 0 {
		return provision.TargetUser{}, ErrRootTarget
	}
	gid, err := strconv.Atoi(u.Gid)
	if err != nil {
		return provision.TargetUser{}, fmt.Errorf("gid %q: %w", u.Gid, err)
	}
	return provision.TargetUser{Name: u.Username, Home: u.HomeDir, UID: uid, GID: gid}, nil
}
