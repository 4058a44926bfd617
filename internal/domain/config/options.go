package config

import (
	"errors"
	"io/fs"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// DefaultEnvFile is loaded when present and no --env-file is given.
const DefaultEnvFile = "/etc/archstrap.env"

// Environment variable names.
const (
	EnvSudoUser     = "SUDO_USER"
	EnvUser         = "ARCHSTRAP_USER"
	EnvDotfilesRepo = "ARCHSTRAP_DOTFILES_REPO"
	EnvUnattended   = "ARCHSTRAP_UNATTENDED"
	EnvDryRun       = "ARCHSTRAP_DRY_RUN"
	EnvTest         = "ARCHSTRAP_TEST"
	EnvCI           = "CI"
)

// Options are the runtime settings for one invocation. They come from the
// environment first; explicitly set flags override them.
type Options struct {
	User           string
	SudoUser       string
	DotfilesRepo   string
	DryRun         bool
	Unattended     bool
	Interactive    bool
	Verbose        bool
	ConfigPath     string
	EnvFile        string
	TranscriptPath string
	LogFormat      string

	// Simulated is set under test or CI. It forces DryRun and also makes
	// read-only probes synthetic.
	Simulated bool
}

// LoadEnvFile loads KEY=value pairs from path into the process environment
// without overriding variables that are already set. A missing file is only
// an error when it was named explicitly.
func LoadEnvFile(path string, explicit bool) error {
	if path == "" {
		path = DefaultEnvFile
	}
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) && !explicit {
			return nil
		}
		return NewEnvFileError(path, err)
	}
	if err := godotenv.Load(path); err != nil {
		return NewEnvFileError(path, err)
	}
	return nil
}

// FromEnv builds Options from the given lookup function, usually os.Getenv.
func FromEnv(getenv func(string) string) Options {
	opts := Options{
		User:         strings.TrimSpace(getenv(EnvUser)),
		SudoUser:     strings.TrimSpace(getenv(EnvSudoUser)),
		DotfilesRepo: strings.TrimSpace(getenv(EnvDotfilesRepo)),
		DryRun:       envBool(getenv(EnvDryRun)),
		Unattended:   envBool(getenv(EnvUnattended)),
		Simulated:    envBool(getenv(EnvTest)) || envBool(getenv(EnvCI)),
		LogFormat:    "text",
	}
	return opts.Normalize()
}

// Normalize applies the rules between settings: a simulated run is always
// a dry run.
func (o Options) Normalize() Options {
	if o.Simulated {
		o.DryRun = true
	}
	if o.LogFormat == "" {
		o.LogFormat = "text"
	}
	return o
}

// TargetUserName returns the explicitly requested user, falling back to the
// user who invoked sudo.
func (o Options) TargetUserName() string {
	if o.User != "" {
		return o.User
	}
	return o.SudoUser
}

// ApplyTo copies option-level overrides into the catalog.
func (o Options) ApplyTo(cat *Catalog) {
	if o.DotfilesRepo != "" {
		cat.Dotfiles.Repo = o.DotfilesRepo
	}
}

// envBool accepts the usual truthy spellings; anything else is false.
func envBool(v string) bool {
	v = strings.TrimSpace(strings.ToLower(v))
	if v == "yes" || v == "on" || v == "y" {
		return true
	}
	b, err := strconv.ParseBool(v)
	return err == nil && b
}
