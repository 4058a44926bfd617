package mocks

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/felixgeelhaar/archstrap/internal/ports"
)

// ErrNotFound is returned by BinaryResolver for unknown binaries.
var ErrNotFound = errors.New("executable file not found in $PATH")

// Journal records every state-changing call made against the fakes.
type Journal struct {
	mu      sync.Mutex
	entries []string
}

// Record appends a formatted entry.
func (j *Journal) Record(format string, args ...interface{}) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.entries = append(j.entries, fmt.Sprintf(format, args...))
}

// Entries returns a copy of the recorded entries.
func (j *Journal) Entries() []string {
	j.mu.Lock()
	defer j.mu.Unlock()
	out := make([]string, len(j.entries))
	copy(out, j.entries)
	return out
}

// Len returns the number of recorded entries.
func (j *Journal) Len() int {
	j.mu.Lock()
	defer j.mu.Unlock()
	return len(j.entries)
}

// PackageManager is an in-memory ports.PackageManager.
type PackageManager struct {
	mu         sync.Mutex
	journal    *Journal
	installed  map[string]bool
	upToDate   bool
	InstallErr error
	UpgradeErr error
}

// Missing returns the names not marked installed.
func (p *PackageManager) Missing(_ context.Context, names []string) ([]string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	var missing []string
	for _, n := range names {
		if !p.installed[n] {
			missing = append(missing, n)
		}
	}
	return missing, nil
}

// Install marks names installed.
func (p *PackageManager) Install(_ context.Context, names []string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.InstallErr != nil {
		return p.InstallErr
	}
	p.journal.Record("pacman install %s", strings.Join(names, " "))
	for _, n := range names {
		p.installed[n] = true
	}
	return nil
}

// UpgradesPending is true until Upgrade succeeds or MarkUpToDate is called.
func (p *PackageManager) UpgradesPending(_ context.Context) (bool, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return !p.upToDate, nil
}

// Upgrade records a system upgrade.
func (p *PackageManager) Upgrade(_ context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.UpgradeErr != nil {
		return p.UpgradeErr
	}
	p.journal.Record("pacman upgrade")
	p.upToDate = true
	return nil
}

// MarkUpToDate clears pending upgrades without journaling.
func (p *PackageManager) MarkUpToDate() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.upToDate = true
}

// MarkInstalled marks names installed without journaling.
func (p *PackageManager) MarkInstalled(names ...string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, n := range names {
		p.installed[n] = true
	}
}

// IsInstalled reports whether name is installed.
func (p *PackageManager) IsInstalled(name string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.installed[name]
}

// AURHelper is an in-memory ports.AURHelper.
type AURHelper struct {
	mu         sync.Mutex
	journal    *Journal
	installed  map[string]bool
	InstallErr error
}

// Name returns "yay".
func (a *AURHelper) Name() string {
	return "yay"
}

// Missing returns the names not marked installed.
func (a *AURHelper) Missing(_ context.Context, _ string, names []string) ([]string, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	var missing []string
	for _, n := range names {
		if !a.installed[n] {
			missing = append(missing, n)
		}
	}
	return missing, nil
}

// Install marks names installed.
func (a *AURHelper) Install(_ context.Context, user string, names []string) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.InstallErr != nil {
		return a.InstallErr
	}
	a.journal.Record("yay install %s as %s", strings.Join(names, " "), user)
	for _, n := range names {
		a.installed[n] = true
	}
	return nil
}

// DotfilesManager is a ports.DotfilesManager backed by the fake filesystem.
type DotfilesManager struct {
	fs        *FileSystem
	journal   *Journal
	homes     map[string]string
	RemoteErr error
	LocalErr  error
}

// SourceDir returns home/.local/share/chezmoi.
func (d *DotfilesManager) SourceDir(home string) string {
	return filepath.Join(home, ".local", "share", "chezmoi")
}

// InitFromRemote creates the source directory unless RemoteErr is set.
func (d *DotfilesManager) InitFromRemote(_ context.Context, user, repo string) error {
	if d.RemoteErr != nil {
		return d.RemoteErr
	}
	d.journal.Record("chezmoi init --apply %s as %s", repo, user)
	return d.fs.MkdirAll(d.SourceDir(d.homes[user]), 0o755)
}

// InitEmpty creates the source directory unless LocalErr is set.
func (d *DotfilesManager) InitEmpty(_ context.Context, user string) error {
	if d.LocalErr != nil {
		return d.LocalErr
	}
	d.journal.Record("chezmoi init as %s", user)
	return d.fs.MkdirAll(d.SourceDir(d.homes[user]), 0o755)
}

// VersionControl clones by creating the destination directory.
type VersionControl struct {
	fs       *FileSystem
	journal  *Journal
	CloneErr error
}

// Clone creates dest in the fake filesystem.
func (v *VersionControl) Clone(_ context.Context, user, url, dest string) error {
	if v.CloneErr != nil {
		return v.CloneErr
	}
	v.journal.Record("git clone %s %s as %s", url, dest, user)
	return v.fs.MkdirAll(dest, 0o755)
}

// ServiceManager is an in-memory ports.ServiceManager.
type ServiceManager struct {
	mu      sync.Mutex
	journal *Journal
	enabled map[string]bool
}

// IsEnabled reports whether service was enabled.
func (s *ServiceManager) IsEnabled(_ context.Context, service string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.enabled[service], nil
}

// Enable marks service enabled.
func (s *ServiceManager) Enable(_ context.Context, service string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.journal.Record("systemctl enable %s", service)
	s.enabled[service] = true
	return nil
}

// Enabled returns the enabled services, sorted.
func (s *ServiceManager) Enabled() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, 0, len(s.enabled))
	for name := range s.enabled {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// SessionManager is an in-memory ports.SessionManager.
type SessionManager struct {
	mu      sync.Mutex
	journal *Journal
	linger  map[string]bool
}

// LingerEnabled reports whether linger was enabled for user.
func (s *SessionManager) LingerEnabled(_ context.Context, user string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.linger[user], nil
}

// EnableLinger marks linger enabled for user.
func (s *SessionManager) EnableLinger(_ context.Context, user string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.journal.Record("loginctl enable-linger %s", user)
	s.linger[user] = true
	return nil
}

// AccountManager is an in-memory ports.AccountManager.
type AccountManager struct {
	mu      sync.Mutex
	journal *Journal
	shells  map[string]string
	Calls   int
}

// LoginShell returns the recorded shell for user.
func (a *AccountManager) LoginShell(_ context.Context, user string) (string, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	shell, ok := a.shells[user]
	if !ok {
		return "", fmt.Errorf("user %s not found", user)
	}
	return shell, nil
}

// SetLoginShell records a new shell for user.
func (a *AccountManager) SetLoginShell(_ context.Context, user, shell string) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.Calls++
	a.journal.Record("chsh -s %s %s", shell, user)
	a.shells[user] = shell
	return nil
}

// SetShell sets user's shell without journaling.
func (a *AccountManager) SetShell(user, shell string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.shells[user] = shell
}

// HardwareProbe reports a configurable GPU.
type HardwareProbe struct {
	NVIDIA bool
}

// HasNVIDIA returns the configured answer.
func (h *HardwareProbe) HasNVIDIA(context.Context) (bool, error) {
	return h.NVIDIA, nil
}

// BinaryResolver resolves binaries from a fixed table.
type BinaryResolver struct {
	mu    sync.Mutex
	paths map[string]string
}

// Add registers name at path.
func (b *BinaryResolver) Add(name, path string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.paths[name] = path
}

// LookPath returns the registered path or ErrNotFound.
func (b *BinaryResolver) LookPath(name string) (string, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if p, ok := b.paths[name]; ok {
		return p, nil
	}
	return "", fmt.Errorf("%s: %w", name, ErrNotFound)
}

// System bundles fakes for every collaborator, sharing one filesystem and journal.
type System struct {
	Journal  *Journal
	FS       *FileSystem
	Pacman   *PackageManager
	AUR      *AURHelper
	Dotfiles *DotfilesManager
	Git      *VersionControl
	Services *ServiceManager
	Sessions *SessionManager
	Accounts *AccountManager
	Hardware *HardwareProbe
	Binaries *BinaryResolver
}

// NewSystem creates a fresh fake system with one user, alice, using bash.
func NewSystem() *System {
	journal := &Journal{}
	fs := NewFileSystem()
	fs.AddDir("/home/alice")
	return &System{
		Journal:  journal,
		FS:       fs,
		Pacman:   &PackageManager{journal: journal, installed: map[string]bool{}},
		AUR:      &AURHelper{journal: journal, installed: map[string]bool{}},
		Dotfiles: &DotfilesManager{fs: fs, journal: journal, homes: map[string]string{"alice": "/home/alice"}},
		Git:      &VersionControl{fs: fs, journal: journal},
		Services: &ServiceManager{journal: journal, enabled: map[string]bool{}},
		Sessions: &SessionManager{journal: journal, linger: map[string]bool{}},
		Accounts: &AccountManager{journal: journal, shells: map[string]string{"alice": "/bin/bash"}},
		Hardware: &HardwareProbe{},
		Binaries: &BinaryResolver{paths: map[string]string{}},
	}
}

var (
	_ ports.PackageManager  = (*PackageManager)(nil)
	_ ports.AURHelper       = (*AURHelper)(nil)
	_ ports.DotfilesManager = (*DotfilesManager)(nil)
	_ ports.VersionControl  = (*VersionControl)(nil)
	_ ports.ServiceManager  = (*ServiceManager)(nil)
	_ ports.SessionManager  = (*SessionManager)(nil)
	_ ports.AccountManager  = (*AccountManager)(nil)
	_ ports.HardwareProbe   = (*HardwareProbe)(nil)
	_ ports.BinaryResolver  = (*BinaryResolver)(nil)
)
