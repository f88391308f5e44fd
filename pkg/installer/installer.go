// Package installer sequences the provisioning steps into named
// profiles. Sequencing is strictly linear; each step's failure policy
// is its own: prerequisite and initial-clone failures abort the run,
// optional installs log a warning and continue.
package installer

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"

	"github.com/alamin-mahamud/dotfiles/pkg/command"
	"github.com/alamin-mahamud/dotfiles/pkg/config"
	"github.com/alamin-mahamud/dotfiles/pkg/errors"
	"github.com/alamin-mahamud/dotfiles/pkg/fileops"
	"github.com/alamin-mahamud/dotfiles/pkg/gitrepo"
	"github.com/alamin-mahamud/dotfiles/pkg/logging"
	"github.com/alamin-mahamud/dotfiles/pkg/network"
	"github.com/alamin-mahamud/dotfiles/pkg/pkgmgr"
	"github.com/alamin-mahamud/dotfiles/pkg/sysinfo"
)

// Installer orchestrates the provisioning profiles
type Installer struct {
	cfg     *config.Config
	sys     sysinfo.Info
	runner  *command.Runner
	files   *fileops.Manager
	repos   *gitrepo.Syncer
	pkgs    *pkgmgr.Client // nil when no supported package manager exists
	log     zerolog.Logger
	logPath string
}

// New wires up an installer. A missing package manager is tolerated
// here; steps that need one degrade to warnings or fail as
// prerequisites when they run.
func New(cfg *config.Config, sys sysinfo.Info, logPath string) *Installer {
	runner := command.NewRunner()
	log := logging.GetLogger("installer")

	pkgs, err := pkgmgr.NewClient(runner)
	if err != nil {
		log.Warn().Err(err).Msg("No package manager detected, package installs will be skipped")
		pkgs = nil
	}

	return &Installer{
		cfg:     cfg,
		sys:     sys,
		runner:  runner,
		files:   fileops.NewManager(),
		repos:   gitrepo.NewSyncer(runner),
		pkgs:    pkgs,
		log:     log,
		logPath: logPath,
	}
}

// Full runs the complete installation
func (i *Installer) Full(ctx context.Context) error {
	if err := i.CheckPrerequisites(ctx); err != nil {
		return err
	}
	if err := i.SetupDirectories(); err != nil {
		return err
	}
	if err := i.SyncDotfiles(ctx); err != nil {
		return err
	}
	i.InstallSystemPackages(ctx)
	i.InstallShellEnvironment(ctx)
	i.InstallPythonEnvironment(ctx)
	if i.sys.Desktop {
		i.InstallDesktopEnvironment(ctx)
	}
	i.ShowCompletion()
	return nil
}

// ShellOnly installs the shell environment profile
func (i *Installer) ShellOnly(ctx context.Context) error {
	if err := i.CheckPrerequisites(ctx); err != nil {
		return err
	}
	if err := i.SetupDirectories(); err != nil {
		return err
	}
	if err := i.SyncDotfiles(ctx); err != nil {
		return err
	}
	i.InstallShellEnvironment(ctx)
	i.ShowCompletion()
	return nil
}

// PythonOnly installs the Python toolchain profile
func (i *Installer) PythonOnly(ctx context.Context) error {
	if err := i.CheckPrerequisites(ctx); err != nil {
		return err
	}
	i.InstallPythonEnvironment(ctx)
	i.ShowCompletion()
	return nil
}

// DesktopOnly installs the desktop profile
func (i *Installer) DesktopOnly(ctx context.Context) error {
	i.InstallDesktopEnvironment(ctx)
	i.ShowCompletion()
	return nil
}

// CheckPrerequisites verifies git, curl and connectivity, installing
// the missing tools when a package manager is available. Failures here
// are fatal for the run.
func (i *Installer) CheckPrerequisites(ctx context.Context) error {
	i.log.Info().Msg("Checking prerequisites")

	var missing []string
	for _, tool := range []string{"git", "curl"} {
		if !command.Exists(tool) {
			missing = append(missing, tool)
		}
	}

	if len(missing) > 0 {
		if i.pkgs == nil {
			return errors.Newf(errors.ErrPrerequisite,
				"required tools missing and no package manager available: %s",
				strings.Join(missing, ", "))
		}
		i.log.Info().Strs("tools", missing).Msg("Installing missing prerequisites")
		if err := i.pkgs.Update(ctx); err != nil {
			return errors.Wrap(err, errors.ErrPrerequisite, "failed to update package lists")
		}
		if err := i.pkgs.Install(ctx, missing...); err != nil {
			return errors.Wrap(err, errors.ErrPrerequisite, "failed to install prerequisites")
		}
	}

	if !network.CheckInternet(ctx) {
		return errors.New(errors.ErrPrerequisite, "internet connection required")
	}

	i.log.Info().Msg("Prerequisites satisfied")
	return nil
}

// SetupDirectories creates the base directory layout
func (i *Installer) SetupDirectories() error {
	i.log.Info().Msg("Setting up directories")

	home, err := os.UserHomeDir()
	if err != nil {
		return errors.Wrap(err, errors.ErrFileAccess, "cannot determine home directory")
	}

	for _, dir := range baseDirectories(home) {
		if err := i.files.EnsureDir(dir); err != nil {
			return err
		}
	}

	i.log.Info().Msg("Directories created")
	return nil
}

// SyncDotfiles clones or updates the dotfiles repository. An initial
// clone failure is fatal; a failed update of an existing clone is
// downgraded to a warning and the run continues with the local copy.
func (i *Installer) SyncDotfiles(ctx context.Context) error {
	root := i.cfg.GetPath("dotfiles.root", "")
	remote := i.cfg.GetString("dotfiles.remote", "")

	// A failed update still leaves a usable local clone behind; a
	// failed clone leaves nothing
	existing := i.repos.IsRepository(ctx, root)

	outcome, err := i.repos.SyncOrClone(ctx, root, remote)
	switch {
	case err != nil && !existing:
		return errors.Wrap(err, errors.ErrRepoSync, "failed to clone dotfiles repository")
	case err != nil:
		i.log.Warn().Err(err).Msg("Failed to update dotfiles repository, continuing with existing copy")
	case outcome == gitrepo.OutcomeConflicted:
		i.log.Warn().Str("path", root).
			Msg("Dotfiles update left conflicts, resolve them in the repository before re-running")
	}

	i.log.Info().Str("outcome", outcome.String()).Msg("Dotfiles repository ready")
	return nil
}

// InstallSystemPackages installs the per-manager base package set.
// Failures are warnings; the remaining steps do not depend on them.
func (i *Installer) InstallSystemPackages(ctx context.Context) {
	if i.pkgs == nil {
		i.log.Warn().Msg("Skipping system packages, no package manager")
		return
	}

	packages, ok := basePackages[i.pkgs.Manager().Name()]
	if !ok {
		return
	}

	i.log.Info().Msg("Installing system packages")
	if err := i.pkgs.Install(ctx, packages...); err != nil {
		i.log.Warn().Err(err).Msg("Failed to install system packages")
		return
	}
	i.log.Info().Msg("System packages installed")
}

// ShowCompletion prints the completion summary with follow-up steps
// and the session log location.
func (i *Installer) ShowCompletion() {
	i.log.Info().Msg("Installation complete")
	i.log.Info().Msg("Next steps:")
	i.log.Info().Msg("  1. Restart terminal or run: exec zsh")
	i.log.Info().Msg("  2. Configure Powerlevel10k: p10k configure")
	i.log.Info().Msg("  3. Install tmux plugins: <Ctrl-a> + I")
	i.log.Info().Str("logFile", i.logPath).Msg("Session log written")
}

// baseDirectories lists the directories every profile relies on
func baseDirectories(home string) []string {
	return []string{
		filepath.Join(home, "Work"),
		filepath.Join(home, ".config"),
		filepath.Join(home, ".local", "bin"),
		filepath.Join(home, ".local", "share", "fonts"),
	}
}

// basePackages maps a package manager to its essential system packages
var basePackages = map[string][]string{
	"apt": {
		"build-essential", "software-properties-common", "apt-transport-https",
		"ca-certificates", "gnupg", "lsb-release",
	},
	"dnf":    {"@development-tools", "dnf-plugins-core"},
	"pacman": {"base-devel"},
	"brew": {
		"coreutils", "findutils", "gnu-tar", "gnu-sed", "gawk", "gnutls",
		"gnu-indent", "gnu-getopt", "grep",
	},
}
