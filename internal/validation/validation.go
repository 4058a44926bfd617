// Package validation checks operator-supplied values before they are placed
// on a command line.
package validation

import (
	"errors"
	"fmt"
	"path/filepath"
	"regexp"
	"strings"
)

// Common validation errors.
var (
	ErrEmptyInput         = errors.New("input cannot be empty")
	ErrInvalidPackageName = errors.New("invalid package name")
	ErrInvalidServiceName = errors.New("invalid service name")
	ErrInvalidUsername    = errors.New("invalid user name")
	ErrInvalidShell       = errors.New("invalid shell path")
	ErrInvalidModule      = errors.New("invalid kernel module name")
	ErrInvalidModprobe    = errors.New("invalid modprobe option")
	ErrInvalidRepoURL     = errors.New("invalid repository URL")
	ErrInvalidCountry     = errors.New("invalid mirror country")
	ErrPathTraversal      = errors.New("path traversal detected")
	ErrInvalidPath        = errors.New("invalid path")
	ErrCommandInjection   = errors.New("potential command injection detected")
)

var (
	// packageNameRegex follows pacman's naming rules.
	// Examples: "base-devel", "lib32-nvidia-utils", "gtk+", "python3.12"
	packageNameRegex = regexp.MustCompile(`^[a-zA-Z0-9@_+][a-zA-Z0-9@._+-]*$`)

	// serviceNameRegex matches systemd unit names with an optional unit suffix.
	// Examples: "sddm", "NetworkManager.service", "getty@tty1.service", "fstrim.timer"
	serviceNameRegex = regexp.MustCompile(`^[a-zA-Z0-9:_.\\@-]+$`)

	// usernameRegex follows useradd's default NAME_REGEX.
	usernameRegex = regexp.MustCompile(`^[a-z_][a-z0-9_-]*\$?$`)

	// moduleRegex matches kernel module names.
	// Examples: "nvidia", "nvidia_drm", "nvidia-uvm"
	moduleRegex = regexp.MustCompile(`^[a-zA-Z0-9_-]+$`)

	// modprobeOptionRegex matches "options <module> key=value..." lines.
	modprobeOptionRegex = regexp.MustCompile(`^options [a-zA-Z0-9_-]+( [a-zA-Z0-9_.-]+=[a-zA-Z0-9_.,:-]+)+$`)

	// countryRegex matches reflector country names and codes.
	// Examples: "DE", "Germany", "United States"
	countryRegex = regexp.MustCompile(`^[a-zA-Z][a-zA-Z ,]*$`)

	repoURLPatterns = []*regexp.Regexp{
		regexp.MustCompile(`^https://[a-zA-Z0-9.-]+(:[0-9]+)?/[a-zA-Z0-9_./~-]+$`),
		regexp.MustCompile(`^git@[a-zA-Z0-9.-]+:[a-zA-Z0-9_./-]+$`),
		regexp.MustCompile(`^ssh://[a-zA-Z0-9@.-]+(:[0-9]+)?/[a-zA-Z0-9_./-]+$`),
		regexp.MustCompile(`^file:///[a-zA-Z0-9_./-]+$`),
		regexp.MustCompile(`^/[a-zA-Z0-9_./-]+$`),
		// chezmoi shorthand: "user" or "user/repo" on GitHub
		regexp.MustCompile(`^[a-zA-Z0-9][a-zA-Z0-9-]*(/[a-zA-Z0-9_.-]+)?$`),
	}

	shellMetaChars = []string{";", "|", "&", "$", "`", "(", ")", "{", "}", "<", ">", "\n", "\r", "\\"}
)

// ValidatePackageName validates a repository or AUR package name.
func ValidatePackageName(name string) error {
	if name == "" {
		return ErrEmptyInput
	}
	if len(name) > 256 {
		return fmt.Errorf("%w: name too long (max 256 characters)", ErrInvalidPackageName)
	}
	if !packageNameRegex.MatchString(name) {
		return fmt.Errorf("%w: %q contains invalid characters", ErrInvalidPackageName, name)
	}
	return nil
}

// ValidatePackageNames validates every name, returning the first failure.
func ValidatePackageNames(names []string) error {
	for _, n := range names {
		if err := ValidatePackageName(n); err != nil {
			return err
		}
	}
	return nil
}

// ValidateServiceName validates a systemd unit name.
func ValidateServiceName(name string) error {
	if name == "" {
		return ErrEmptyInput
	}
	if len(name) > 255 || !serviceNameRegex.MatchString(name) || strings.HasPrefix(name, "-") {
		return fmt.Errorf("%w: %q", ErrInvalidServiceName, name)
	}
	return nil
}

// ValidateUsername validates a local account name.
func ValidateUsername(name string) error {
	if name == "" {
		return ErrEmptyInput
	}
	if len(name) > 32 || !usernameRegex.MatchString(name) {
		return fmt.Errorf("%w: %q", ErrInvalidUsername, name)
	}
	return nil
}

// ValidateShell validates a login shell path.
func ValidateShell(path string) error {
	if path == "" {
		return ErrEmptyInput
	}
	if !filepath.IsAbs(path) {
		return fmt.Errorf("%w: %q must be absolute", ErrInvalidShell, path)
	}
	if containsShellMeta(path) || strings.ContainsAny(path, " \t") {
		return fmt.Errorf("%w: %q contains shell metacharacters", ErrCommandInjection, path)
	}
	if containsPathTraversal(path) {
		return fmt.Errorf("%w: %q", ErrPathTraversal, path)
	}
	return nil
}

// ValidateKernelModule validates a kernel module name.
func ValidateKernelModule(name string) error {
	if name == "" {
		return ErrEmptyInput
	}
	if !moduleRegex.MatchString(name) {
		return fmt.Errorf("%w: %q", ErrInvalidModule, name)
	}
	return nil
}

// ValidateModprobeOption validates one modprobe.d options line.
func ValidateModprobeOption(line string) error {
	if line == "" {
		return ErrEmptyInput
	}
	if !modprobeOptionRegex.MatchString(line) {
		return fmt.Errorf("%w: %q (want \"options <module> key=value\")", ErrInvalidModprobe, line)
	}
	return nil
}

// ValidateCountry validates a mirror country filter.
func ValidateCountry(country string) error {
	if country == "" {
		return ErrEmptyInput
	}
	if len(country) > 64 || !countryRegex.MatchString(country) {
		return fmt.Errorf("%w: %q", ErrInvalidCountry, country)
	}
	return nil
}

// ValidateRepoURL validates a git or chezmoi repository reference.
func ValidateRepoURL(url string) error {
	if url == "" {
		return ErrEmptyInput
	}
	if len(url) > 2048 {
		return fmt.Errorf("%w: URL too long (max 2048 characters)", ErrInvalidRepoURL)
	}
	if strings.ContainsRune(url, '\x00') {
		return fmt.Errorf("%w: URL contains null byte", ErrInvalidRepoURL)
	}
	if containsShellMeta(url) || strings.ContainsAny(url, " !") {
		return fmt.Errorf("%w: %q contains invalid characters", ErrCommandInjection, url)
	}
	for _, pattern := range repoURLPatterns {
		if pattern.MatchString(url) {
			return nil
		}
	}
	return fmt.Errorf("%w: %q must be an HTTPS or SSH URL, a local path, or a GitHub user/repo", ErrInvalidRepoURL, url)
}

// ValidatePath rejects empty paths, null bytes and traversal sequences.
func ValidatePath(path string) error {
	if path == "" {
		return ErrEmptyInput
	}
	if strings.Contains(path, "\x00") {
		return fmt.Errorf("%w: path contains null byte", ErrInvalidPath)
	}
	if containsPathTraversal(path) {
		return fmt.Errorf("%w: %q contains traversal sequence", ErrPathTraversal, path)
	}
	return nil
}

func containsShellMeta(s string) bool {
	for _, char := range shellMetaChars {
		if strings.Contains(s, char) {
			return true
		}
	}
	return false
}

func containsPathTraversal(path string) bool {
	for _, seg := range strings.Split(path, "/") {
		if seg == ".." {
			return true
		}
	}
	return strings.Contains(path, "%2e%2e") || strings.Contains(path, "%2E%2E")
}
