// Package system provides shell-out implementations of the tool ports:
// pacman, the AUR helper, chezmoi, git, systemctl, loginctl, getent/chsh
// and lspci.
package system

import (
	"os/exec"

	"github.com/felixgeelhaar/archstrap/internal/ports"
)

// PathResolver looks binaries up on PATH.
type PathResolver struct{}

// NewPathResolver creates a PathResolver.
func NewPathResolver() PathResolver {
	return PathResolver{}
}

// LookPath returns the absolute path of name.
func (PathResolver) LookPath(name string) (string, error) {
	return exec.LookPath(name)
}

var _ ports.BinaryResolver = PathResolver{}
