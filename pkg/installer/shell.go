package installer

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/alamin-mahamud/dotfiles/pkg/command"
	"github.com/alamin-mahamud/dotfiles/pkg/gitrepo"
)

// zshPlugin is one oh-my-zsh custom plugin
type zshPlugin struct {
	name string
	url  string
}

var zshPlugins = []zshPlugin{
	{"zsh-autosuggestions", "https://github.com/zsh-users/zsh-autosuggestions"},
	{"zsh-syntax-highlighting", "https://github.com/zsh-users/zsh-syntax-highlighting"},
	{"zsh-completions", "https://github.com/zsh-users/zsh-completions"},
	{"fzf-tab", "https://github.com/Aloxaf/fzf-tab"},
}

const (
	ohMyZshURL       = "https://github.com/ohmyzsh/ohmyzsh.git"
	powerlevel10kURL = "https://github.com/romkatv/powerlevel10k.git"
	tpmURL           = "https://github.com/tmux-plugins/tpm"
)

// InstallShellEnvironment installs the complete shell environment:
// zsh, oh-my-zsh, plugins, tmux, CLI tools and dotfile symlinks.
// Individual step failures are warnings; the sequence always runs to
// the end.
func (i *Installer) InstallShellEnvironment(ctx context.Context) {
	home, err := os.UserHomeDir()
	if err != nil {
		i.log.Warn().Err(err).Msg("Cannot determine home directory, skipping shell environment")
		return
	}

	i.installZsh(ctx)
	i.installOhMyZsh(ctx, home)
	i.installZshPlugins(ctx, home)
	i.installTmux(ctx, home)
	i.installCLITools(ctx)
	i.linkDotfiles(home)
}

// installZsh installs zsh and sets it as the default shell
func (i *Installer) installZsh(ctx context.Context) {
	shell := i.cfg.GetString("shell.default", "zsh")
	i.log.Info().Str("shell", shell).Msg("Installing shell")

	if !command.Exists(shell) {
		if i.pkgs == nil {
			i.log.Warn().Str("shell", shell).Msg("Shell missing and no package manager to install it")
			return
		}
		if err := i.pkgs.Install(ctx, shell); err != nil {
			i.log.Warn().Err(err).Str("shell", shell).Msg("Failed to install shell")
			return
		}
	}

	shellPath, err := exec.LookPath(shell)
	if err != nil {
		i.log.Warn().Str("shell", shell).Msg("Shell not found after installation")
		return
	}

	i.registerLoginShell(ctx, shellPath)

	if !strings.Contains(os.Getenv("SHELL"), shell) {
		if _, err := i.runner.Run(ctx, []string{"chsh", "-s", shellPath}); err != nil {
			i.log.Warn().Err(err).Msg("Could not change login shell")
		} else {
			i.log.Info().Str("shell", shellPath).Msg("Default shell changed")
		}
	}
}

// registerLoginShell appends the shell to /etc/shells if missing
func (i *Installer) registerLoginShell(ctx context.Context, shellPath string) {
	data, err := os.ReadFile("/etc/shells")
	if err != nil {
		i.log.Warn().Err(err).Msg("Could not read /etc/shells")
		return
	}
	if strings.Contains(string(data), shellPath) {
		return
	}
	_, err = i.runner.RunWith(ctx, []string{"sudo", "tee", "-a", "/etc/shells"},
		command.Opts{Check: true, Capture: true, Stdin: shellPath + "\n"})
	if err != nil {
		i.log.Warn().Err(err).Msg("Could not update /etc/shells")
	}
}

// installOhMyZsh clones or updates the oh-my-zsh framework
func (i *Installer) installOhMyZsh(ctx context.Context, home string) {
	i.syncOptionalRepo(ctx, "oh-my-zsh", filepath.Join(home, ".oh-my-zsh"), ohMyZshURL)
}

// installZshPlugins clones or updates the custom plugins and the
// Powerlevel10k theme
func (i *Installer) installZshPlugins(ctx context.Context, home string) {
	customDir := filepath.Join(home, ".oh-my-zsh", "custom")

	for _, plugin := range zshPlugins {
		dir := filepath.Join(customDir, "plugins", plugin.name)
		i.syncOptionalRepo(ctx, plugin.name, dir, plugin.url)
	}

	themeDir := filepath.Join(customDir, "themes", "powerlevel10k")
	i.syncOptionalRepo(ctx, "powerlevel10k", themeDir, powerlevel10kURL)
}

// installTmux installs tmux and the tmux plugin manager
func (i *Installer) installTmux(ctx context.Context, home string) {
	i.log.Info().Msg("Installing tmux")

	if !command.Exists("tmux") {
		if i.pkgs == nil {
			i.log.Warn().Msg("tmux missing and no package manager to install it")
		} else if err := i.pkgs.Install(ctx, "tmux"); err != nil {
			i.log.Warn().Err(err).Msg("Failed to install tmux")
		}
	}

	tpmDir := filepath.Join(home, ".tmux", "plugins", "tpm")
	i.syncOptionalRepo(ctx, "tpm", tpmDir, tpmURL)
}

// installCLITools installs the configured CLI tool list
func (i *Installer) installCLITools(ctx context.Context) {
	tools := i.cfg.GetStrings("tools", nil)
	if len(tools) == 0 {
		return
	}
	if i.pkgs == nil {
		i.log.Warn().Msg("Skipping CLI tools, no package manager")
		return
	}

	i.log.Info().Strs("tools", tools).Msg("Installing CLI tools")
	if err := i.pkgs.Install(ctx, tools...); err != nil {
		i.log.Warn().Err(err).Msg("Failed to install CLI tools")
		return
	}
	i.log.Info().Msg("CLI tools installed")
}

// linkDotfiles creates the dotfile symlinks, backing up anything in
// the way. Links whose source is missing from the repository are
// skipped.
func (i *Installer) linkDotfiles(home string) {
	root := i.cfg.GetPath("dotfiles.root", "")

	for _, link := range dotfileLinks(root, home) {
		if _, err := os.Stat(link.source); err != nil {
			i.log.Debug().Str("source", link.source).Msg("Dotfile source missing, skipping")
			continue
		}
		if err := i.files.Symlink(link.source, link.target, true); err != nil {
			i.log.Warn().Err(err).Str("target", link.target).Msg("Failed to link dotfile")
		}
	}
}

// link is a managed (source, target) symlink pair
type link struct {
	source string
	target string
}

// dotfileLinks maps repository files to their home-directory targets
func dotfileLinks(root, home string) []link {
	return []link{
		{filepath.Join(root, "zsh", ".zshrc"), filepath.Join(home, ".zshrc")},
		{filepath.Join(root, "tmux", ".tmux.conf"), filepath.Join(home, ".tmux.conf")},
		{filepath.Join(root, "git", ".gitconfig"), filepath.Join(home, ".gitconfig")},
	}
}

// syncOptionalRepo clones or updates a supporting repository, treating
// every failure as a warning
func (i *Installer) syncOptionalRepo(ctx context.Context, name, path, url string) {
	outcome, err := i.repos.SyncOrClone(ctx, path, url)
	switch {
	case err != nil:
		i.log.Warn().Err(err).Str("repo", name).Msg("Failed to sync repository")
	case outcome == gitrepo.OutcomeConflicted:
		i.log.Warn().Str("repo", name).Str("path", path).
			Msg("Stash reapply conflicted, resolve manually")
	default:
		i.log.Info().Str("repo", name).Str("outcome", outcome.String()).Msg("Repository ready")
	}
}
