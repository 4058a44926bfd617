package app

import (
	"fmt"

	"github.com/felixgeelhaar/archstrap/internal/domain/config"
	"github.com/felixgeelhaar/archstrap/internal/domain/execution"
	"github.com/felixgeelhaar/archstrap/internal/domain/provision"
	"github.com/felixgeelhaar/archstrap/internal/ports"
	"github.com/felixgeelhaar/archstrap/internal/provider/aur"
	"github.com/felixgeelhaar/archstrap/internal/provider/dotfiles"
	"github.com/felixgeelhaar/archstrap/internal/provider/nvidia"
	"github.com/felixgeelhaar/archstrap/internal/provider/nvim"
	"github.com/felixgeelhaar/archstrap/internal/provider/pacman"
	"github.com/felixgeelhaar/archstrap/internal/provider/services"
	"github.com/felixgeelhaar/archstrap/internal/provider/shell"
	"github.com/felixgeelhaar/archstrap/internal/provider/system"
)

// Dependencies are the collaborators the steps act through.
type Dependencies struct {
	Runner   ports.CommandRunner
	FS       ports.FileSystem
	Pacman   ports.PackageManager
	AUR      ports.AURHelper
	Dotfiles ports.DotfilesManager
	Git      ports.VersionControl
	Services ports.ServiceManager
	Sessions ports.SessionManager
	Accounts ports.AccountManager
	Hardware ports.HardwareProbe
	Binaries ports.BinaryResolver
}

type registration struct {
	step provision.Step
	opts []execution.EntryOption
}

// steps returns the provisioning steps in execution order with their
// registration policy.
func steps(cat *config.Catalog, deps Dependencies, runID string) []registration {
	optional := execution.ContinueOnFailure()
	confirmed := execution.RequireConfirmation()

	return []registration{
		{system.NewSnapshotStep(cat.Snapshot.Enabled, runID, deps.Runner, deps.Binaries), opts(optional)},
		{system.NewMirrorsStep(cat.Mirrors.Enabled, cat.Mirrors.Country, deps.FS, deps.Runner, deps.Binaries), opts(optional)},
		{system.NewUpgradeStep(deps.Pacman), nil},
		{pacman.NewPackageSetStep("essentials", cat.Essentials, deps.Pacman,
			pacman.WithDescription("Install essential packages")), nil},
		{shell.NewLoginShellStep(cat.Shell, deps.Accounts), nil},
		{aur.NewHelperStep(cat.AURHelper(), cat.AUR.HelperRepo, deps.FS, deps.Runner, deps.Git, deps.Binaries), nil},
		{pacman.NewPackageSetStep("desktop", cat.Desktop, deps.Pacman,
			pacman.WithDescription("Install desktop environment")), nil},
		{nvidia.NewDriverStep(nvidia.Config{
			Force:           cat.NVIDIA.Force,
			Packages:        cat.NVIDIA.Packages,
			Modules:         cat.NVIDIA.Modules,
			ModprobeOptions: cat.NVIDIA.ModprobeOptions,
		}, deps.Pacman, deps.Hardware, deps.FS, deps.Runner), opts(optional, confirmed)},
		{pacman.NewMultilibStep(cat.Gaming.Enabled, deps.FS, deps.Runner), opts(optional, confirmed)},
		{pacman.NewPackageSetStep("gaming", cat.Gaming.Packages, deps.Pacman,
			pacman.WhenEnabled(cat.Gaming.Enabled),
			pacman.WithDescription("Install gaming packages")), opts(optional, confirmed)},
		{aur.NewPackagesStep(cat.AUR.Packages, deps.AUR, deps.Binaries), opts(optional)},
		{services.NewEnableStep(cat.Services, deps.Services), nil},
		{services.NewLingerStep(cat.Linger, deps.Sessions), nil},
		{dotfiles.NewSyncStep(cat.Dotfiles.Repo, deps.Dotfiles, deps.FS), nil},
		{nvim.NewBootstrapStep(cat.Editor.StarterRepo, deps.FS, deps.Git), nil},
	}
}

func opts(o ...execution.EntryOption) []execution.EntryOption {
	return o
}

// BuildPipeline registers every step of the catalog on a new pipeline.
func BuildPipeline(cat *config.Catalog, deps Dependencies, runID string, popts ...execution.Option) (*execution.Pipeline, error) {
	p := execution.New(popts...)
	for _, r := range steps(cat, deps, runID) {
		if err := p.Register(r.step, r.opts...); err != nil {
			return nil, fmt.Errorf("building pipeline: %w", err)
		}
	}
	return p, nil
}
