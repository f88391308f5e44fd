// Package pkgmgr abstracts the host package manager behind a closed
// set of supported managers, each carrying its install/update/search
// argv templates.
package pkgmgr

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/alamin-mahamud/dotfiles/pkg/command"
	"github.com/alamin-mahamud/dotfiles/pkg/errors"
	"github.com/alamin-mahamud/dotfiles/pkg/logging"
)

// Manager is one supported package manager. The set of managers is
// closed; callers hold one of the package-level values.
type Manager struct {
	name    string
	install []string
	update  []string
	search  []string
	// aliases maps generic tool names to this manager's package names
	aliases map[string]string
}

// Supported package managers, in detection priority order
var (
	Apt = &Manager{
		name:    "apt",
		install: []string{"sudo", "apt", "install", "-y"},
		update:  []string{"sudo", "apt", "update"},
		search:  []string{"apt", "search"},
		aliases: map[string]string{"fd": "fd-find"},
	}
	Dnf = &Manager{
		name:    "dnf",
		install: []string{"sudo", "dnf", "install", "-y"},
		update:  []string{"sudo", "dnf", "check-update"},
		search:  []string{"dnf", "search"},
	}
	Pacman = &Manager{
		name:    "pacman",
		install: []string{"sudo", "pacman", "-S", "--noconfirm"},
		update:  []string{"sudo", "pacman", "-Sy"},
		search:  []string{"pacman", "-Ss"},
	}
	Brew = &Manager{
		name:    "brew",
		install: []string{"brew", "install"},
		update:  []string{"brew", "update"},
		search:  []string{"brew", "search"},
	}
	Apk = &Manager{
		name:    "apk",
		install: []string{"sudo", "apk", "add"},
		update:  []string{"sudo", "apk", "update"},
		search:  []string{"apk", "search"},
	}
)

var priority = []*Manager{Apt, Dnf, Pacman, Brew, Apk}

// Name returns the manager's binary name
func (m *Manager) Name() string { return m.name }

// InstallArgs returns the full install argv for the given packages
func (m *Manager) InstallArgs(packages ...string) []string {
	return append(append([]string{}, m.install...), packages...)
}

// UpdateArgs returns the argv that refreshes package lists
func (m *Manager) UpdateArgs() []string {
	return append([]string{}, m.update...)
}

// SearchArgs returns the argv that searches for a package
func (m *Manager) SearchArgs(term string) []string {
	return append(append([]string{}, m.search...), term)
}

// Resolve maps a generic tool name to this manager's package name
func (m *Manager) Resolve(tool string) string {
	if pkg, ok := m.aliases[tool]; ok {
		return pkg
	}
	return tool
}

// Detect returns the first available manager from the priority list,
// or nil when none is installed.
func Detect() *Manager {
	for _, m := range priority {
		if command.Exists(m.name) {
			return m
		}
	}
	return nil
}

// Client binds a detected manager to a command runner
type Client struct {
	manager *Manager
	runner  *command.Runner
	log     zerolog.Logger
}

// NewClient detects the host package manager. A host without any
// supported manager returns a PREREQUISITE error.
func NewClient(runner *command.Runner) (*Client, error) {
	m := Detect()
	if m == nil {
		return nil, errors.New(errors.ErrPrerequisite, "no supported package manager found")
	}
	return &Client{manager: m, runner: runner, log: logging.GetLogger("pkgmgr")}, nil
}

// Manager returns the detected manager
func (c *Client) Manager() *Manager { return c.manager }

// Update refreshes the package lists
func (c *Client) Update(ctx context.Context) error {
	c.log.Info().Str("manager", c.manager.name).Msg("Updating package lists")
	_, err := c.runner.Run(ctx, c.manager.UpdateArgs())
	return err
}

// Install installs the given packages, resolving tool-name aliases
func (c *Client) Install(ctx context.Context, packages ...string) error {
	if len(packages) == 0 {
		return nil
	}
	resolved := make([]string, len(packages))
	for i, p := range packages {
		resolved[i] = c.manager.Resolve(p)
	}
	c.log.Info().Strs("packages", resolved).Str("manager", c.manager.name).Msg("Installing packages")
	_, err := c.runner.Run(ctx, c.manager.InstallArgs(resolved...))
	return err
}
