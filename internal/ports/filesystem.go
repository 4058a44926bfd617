package ports

import (
	"os"
	"path/filepath"
	"strings"
)

// FileSystem provides the file operations steps rely on.
// Paths are absolute; steps resolve them against the target user's home.
type FileSystem interface {
	ReadFile(path string) ([]byte, error)
	WriteFile(path string, data []byte, perm os.FileMode) error
	Exists(path string) bool
	IsDir(path string) bool
	MkdirAll(path string, perm os.FileMode) error
	// MkdirTemp creates a new, uniquely named directory under dir
	// (or the system temp directory when dir is empty).
	MkdirTemp(dir, pattern string) (string, error)
	RemoveAll(path string) error
}

// BinaryResolver locates executables on the command search path.
type BinaryResolver interface {
	LookPath(name string) (string, error)
}

// HomePath joins a home-relative path onto home, accepting "~/" prefixes.
func HomePath(home, path string) string {
	if strings.HasPrefix(path, "~/") {
		return filepath.Join(home, path[2:])
	}
	if filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(home, path)
}
