package ports

import "context"

// PackageManager is the system package manager (pacman).
type PackageManager interface {
	// Missing returns the subset of names that are not installed.
	Missing(ctx context.Context, names []string) ([]string, error)
	// Install installs the named packages, skipping ones already present.
	Install(ctx context.Context, names []string) error
	// UpgradesPending reports whether the synced databases offer newer
	// versions of installed packages.
	UpgradesPending(ctx context.Context) (bool, error)
	// Upgrade refreshes the package index and upgrades the system.
	Upgrade(ctx context.Context) error
}

// AURHelper builds and installs community packages on behalf of a user.
type AURHelper interface {
	// Name returns the helper's binary name.
	Name() string
	Missing(ctx context.Context, user string, names []string) ([]string, error)
	Install(ctx context.Context, user string, names []string) error
}

// DotfilesManager tracks and applies a user's configuration files.
type DotfilesManager interface {
	// SourceDir returns the tool's state directory under home.
	SourceDir(home string) string
	// InitFromRemote initializes from repo and applies it.
	InitFromRemote(ctx context.Context, user, repo string) error
	// InitEmpty initializes an empty local source.
	InitEmpty(ctx context.Context, user string) error
}

// VersionControl clones repositories.
type VersionControl interface {
	Clone(ctx context.Context, user, url, dest string) error
}

// ServiceManager enables system services.
type ServiceManager interface {
	IsEnabled(ctx context.Context, service string) (bool, error)
	Enable(ctx context.Context, service string) error
}

// SessionManager controls persistent user sessions.
type SessionManager interface {
	LingerEnabled(ctx context.Context, user string) (bool, error)
	EnableLinger(ctx context.Context, user string) error
}

// AccountManager reads and changes account properties.
type AccountManager interface {
	LoginShell(ctx context.Context, user string) (string, error)
	SetLoginShell(ctx context.Context, user, shell string) error
}

// HardwareProbe answers questions about the installed hardware.
type HardwareProbe interface {
	HasNVIDIA(ctx context.Context) (bool, error)
}
