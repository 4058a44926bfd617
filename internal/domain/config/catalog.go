// Package config holds archstrap's catalog (what to install and configure),
// the runtime options resolved from flags and environment, and the
// user-facing error type.
package config

import (
	"fmt"
	"time"

	"github.com/felixgeelhaar/archstrap/internal/validation"
)

// Catalog is the data the provisioning steps act on.
type Catalog struct {
	Essentials []string        `yaml:"essentials" toml:"essentials"`
	Desktop    []string        `yaml:"desktop" toml:"desktop"`
	Gaming     GamingConfig    `yaml:"gaming" toml:"gaming"`
	AUR        AURConfig       `yaml:"aur" toml:"aur"`
	NVIDIA     NVIDIAConfig    `yaml:"nvidia" toml:"nvidia"`
	Shell      string          `yaml:"shell" toml:"shell"`
	Services   []string        `yaml:"services" toml:"services"`
	Linger     bool            `yaml:"linger" toml:"linger"`
	Dotfiles   DotfilesConfig  `yaml:"dotfiles" toml:"dotfiles"`
	Editor     EditorConfig    `yaml:"editor" toml:"editor"`
	Snapshot   SnapshotConfig  `yaml:"snapshot" toml:"snapshot"`
	Mirrors    MirrorsConfig   `yaml:"mirrors" toml:"mirrors"`
	Keepalive  KeepaliveConfig `yaml:"keepalive" toml:"keepalive"`
}

// GamingConfig is the optional gaming package set; it needs multilib.
type GamingConfig struct {
	Enabled  bool     `yaml:"enabled" toml:"enabled"`
	Packages []string `yaml:"packages" toml:"packages"`
}

// AURConfig names the helper and the packages built through it.
type AURConfig struct {
	Helper     string   `yaml:"helper" toml:"helper"`
	HelperRepo string   `yaml:"helper_repo" toml:"helper_repo"`
	Packages   []string `yaml:"packages" toml:"packages"`
}

// NVIDIAConfig drives the proprietary driver step.
type NVIDIAConfig struct {
	Force           bool     `yaml:"force" toml:"force"`
	Packages        []string `yaml:"packages" toml:"packages"`
	Modules         []string `yaml:"modules" toml:"modules"`
	ModprobeOptions []string `yaml:"modprobe_options" toml:"modprobe_options"`
}

// DotfilesConfig points at the chezmoi source repository.
type DotfilesConfig struct {
	Repo string `yaml:"repo" toml:"repo"`
}

// EditorConfig points at the starter editor configuration.
type EditorConfig struct {
	StarterRepo string `yaml:"starter_repo" toml:"starter_repo"`
}

// SnapshotConfig toggles the pre-run snapper snapshot.
type SnapshotConfig struct {
	Enabled bool `yaml:"enabled" toml:"enabled"`
}

// MirrorsConfig toggles reflector mirror ranking.
type MirrorsConfig struct {
	Enabled bool   `yaml:"enabled" toml:"enabled"`
	Country string `yaml:"country" toml:"country"`
}

// KeepaliveConfig sets the sudo refresh interval, e.g. "50s".
type KeepaliveConfig struct {
	Interval string `yaml:"interval" toml:"interval"`
}

// KeepaliveInterval returns the parsed interval. Validate guarantees it parses.
func (c *Catalog) KeepaliveInterval() time.Duration {
	d, err := time.ParseDuration(c.Keepalive.Interval)
	if err != nil || d <= 0 {
		return 50 * time.Second
	}
	return d
}

// AURHelper returns the configured helper name, defaulting to yay.
func (c *Catalog) AURHelper() string {
	if c.AUR.Helper == "" {
		return "yay"
	}
	return c.AUR.Helper
}

// Validate checks every value that ends up on a command line or in a
// system file. All problems are reported together.
func (c *Catalog) Validate() error {
	errs := NewErrorList()

	packageSets := []struct {
		field string
		names []string
	}{
		{"essentials", c.Essentials},
		{"desktop", c.Desktop},
		{"gaming.packages", c.Gaming.Packages},
		{"aur.packages", c.AUR.Packages},
		{"nvidia.packages", c.NVIDIA.Packages},
	}
	for _, set := range packageSets {
		for i, name := range set.names {
			if err := validation.ValidatePackageName(name); err != nil {
				errs.AddValidation(fmt.Sprintf("%s[%d]", set.field, i), err)
			}
		}
	}

	if c.Shell != "" {
		if err := validation.ValidateShell(c.Shell); err != nil {
			errs.AddValidation("shell", err)
		}
	}

	switch c.AURHelper() {
	case "yay", "paru":
	default:
		errs.AddValidation("aur.helper", fmt.Errorf("unsupported helper %q (want yay or paru)", c.AUR.Helper))
	}
	if c.AUR.HelperRepo != "" {
		if err := validation.ValidateRepoURL(c.AUR.HelperRepo); err != nil {
			errs.AddValidation("aur.helper_repo", err)
		}
	}

	for i, module := range c.NVIDIA.Modules {
		if err := validation.ValidateKernelModule(module); err != nil {
			errs.AddValidation(fmt.Sprintf("nvidia.modules[%d]", i), err)
		}
	}
	for i, opt := range c.NVIDIA.ModprobeOptions {
		if err := validation.ValidateModprobeOption(opt); err != nil {
			errs.AddValidation(fmt.Sprintf("nvidia.modprobe_options[%d]", i), err)
		}
	}

	for i, svc := range c.Services {
		if err := validation.ValidateServiceName(svc); err != nil {
			errs.AddValidation(fmt.Sprintf("services[%d]", i), err)
		}
	}

	if c.Dotfiles.Repo != "" {
		if err := validation.ValidateRepoURL(c.Dotfiles.Repo); err != nil {
			errs.AddValidation("dotfiles.repo", err)
		}
	}
	if c.Editor.StarterRepo != "" {
		if err := validation.ValidateRepoURL(c.Editor.StarterRepo); err != nil {
			errs.AddValidation("editor.starter_repo", err)
		}
	}

	if c.Mirrors.Country != "" {
		if err := validation.ValidateCountry(c.Mirrors.Country); err != nil {
			errs.AddValidation("mirrors.country", err)
		}
	}

	if c.Keepalive.Interval != "" {
		d, err := time.ParseDuration(c.Keepalive.Interval)
		switch {
		case err != nil:
			errs.AddValidation("keepalive.interval", err)
		case d < time.Second || d > 5*time.Minute:
			errs.AddValidation("keepalive.interval", fmt.Errorf("%s is outside 1s..5m; sudo's default timeout is 5m", d))
		}
	}

	return errs.AsError()
}
