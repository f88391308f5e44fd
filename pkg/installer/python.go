package installer

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"

	"github.com/alamin-mahamud/dotfiles/pkg/command"
)

const (
	pyenvURL           = "https://github.com/pyenv/pyenv.git"
	poetryInstallerURL = "https://install.python-poetry.org"
)

// pyenv needs these to compile Python from source on Debian-family hosts
var pythonBuildDeps = []string{
	"build-essential", "libssl-dev", "zlib1g-dev", "libbz2-dev",
	"libreadline-dev", "libsqlite3-dev", "wget", "curl", "llvm",
	"libncurses5-dev", "libncursesw5-dev", "xz-utils", "tk-dev",
	"libffi-dev", "liblzma-dev", "python3-openssl", "git",
}

// InstallPythonEnvironment installs the Python toolchain: pyenv,
// poetry and pipx. Failures are warnings.
func (i *Installer) InstallPythonEnvironment(ctx context.Context) {
	home, err := os.UserHomeDir()
	if err != nil {
		i.log.Warn().Err(err).Msg("Cannot determine home directory, skipping Python environment")
		return
	}

	i.installPyenv(ctx, home)
	i.installPoetry(ctx)
	i.installPipx(ctx)
}

// installPyenv clones or updates pyenv and installs build dependencies
func (i *Installer) installPyenv(ctx context.Context, home string) {
	i.syncOptionalRepo(ctx, "pyenv", filepath.Join(home, ".pyenv"), pyenvURL)

	if i.pkgs != nil && i.pkgs.Manager().Name() == "apt" {
		i.log.Info().Msg("Installing Python build dependencies")
		if err := i.pkgs.Install(ctx, pythonBuildDeps...); err != nil {
			i.log.Warn().Err(err).Msg("Failed to install Python build dependencies")
		}
	}
}

// installPoetry installs Poetry, preferring pipx over the official
// installer script
func (i *Installer) installPoetry(ctx context.Context) {
	i.log.Info().Msg("Installing Poetry")

	if command.Exists("poetry") {
		i.log.Info().Msg("Poetry already installed")
		return
	}

	if command.Exists("pipx") {
		if _, err := i.runner.Run(ctx, []string{"pipx", "install", "poetry"}); err != nil {
			i.log.Warn().Err(err).Msg("pipx install of Poetry failed")
			return
		}
		i.log.Info().Msg("Poetry installed via pipx")
		return
	}

	if err := i.installPoetryFromScript(ctx); err != nil {
		i.log.Warn().Err(err).Msg("Poetry installation failed")
		i.log.Info().Msg("Install manually with: curl -sSL https://install.python-poetry.org | python3 -")
	}
}

// installPoetryFromScript downloads and runs the official installer
func (i *Installer) installPoetryFromScript(ctx context.Context) error {
	tmp, err := os.CreateTemp("", "poetry-installer-*.py")
	if err != nil {
		return err
	}
	defer func() { _ = os.Remove(tmp.Name()) }()

	if err := downloadTo(ctx, poetryInstallerURL, tmp); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}

	_, err = i.runner.RunWith(ctx, []string{"python3", tmp.Name()}, command.Opts{
		Check:   true,
		Capture: true,
		Env:     []string{"POETRY_VENV_SYMLINKS=1"},
	})
	if err != nil {
		return err
	}

	i.log.Info().Msg("Poetry installed")
	return nil
}

// installPipx installs pipx for global Python applications
func (i *Installer) installPipx(ctx context.Context) {
	i.log.Info().Msg("Installing pipx")

	if !command.Exists("pipx") {
		steps := [][]string{
			{"python3", "-m", "pip", "install", "--user", "pipx"},
			{"python3", "-m", "pipx", "ensurepath"},
		}
		for _, argv := range steps {
			if _, err := i.runner.Run(ctx, argv); err != nil {
				i.log.Warn().Err(err).Msg("Failed to install pipx")
				return
			}
		}
	}

	i.log.Info().Msg("pipx installed")
}

// downloadTo streams the body of a GET request into w
func downloadTo(ctx context.Context, url string, w io.Writer) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("GET %s: unexpected status %s", url, resp.Status)
	}

	_, err = io.Copy(w, resp.Body)
	return err
}
