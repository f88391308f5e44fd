// Package config implements layered configuration: immutable built-in
// defaults merged with an optional user override file. Maps merge
// recursively, key by key; scalar and list values from the override
// replace the default wholesale.
package config

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/alamin-mahamud/dotfiles/pkg/errors"
)

// Defaults returns the built-in configuration tree. A fresh map is
// built on every call so callers can never mutate the compiled-in
// defaults through the returned value.
func Defaults() map[string]interface{} {
	return map[string]interface{}{
		"dotfiles": map[string]interface{}{
			"root":   "~/Work/.dotfiles",
			"remote": "https://github.com/alamin-mahamud/.dotfiles.git",
		},
		"backup_dir": "~/.dotfiles-backup",
		"shell": map[string]interface{}{
			"default": "zsh",
			"theme":   "powerlevel10k",
		},
		"tools": []string{
			"ripgrep", "fd", "bat", "eza", "fzf",
			"tmux", "neovim", "htop", "jq", "tldr",
		},
		"fonts": []string{
			"FiraCode", "JetBrainsMono", "Iosevka",
		},
	}
}

// Config holds the merged configuration tree
type Config struct {
	k *koanf.Koanf
}

// Load builds the merged configuration. An empty path or a path that
// does not exist yields defaults only. An unparseable override file is
// fatal here, not deferred to the first Get.
func Load(path string) (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(confmap.Provider(Defaults(), "."), nil); err != nil {
		return nil, errors.Wrap(err, errors.ErrConfigLoad, "failed to load default configuration")
	}

	if path != "" {
		if _, err := os.Stat(path); err == nil {
			if err := k.Load(file.Provider(path), parserFor(path)); err != nil {
				return nil, errors.Wrapf(err, errors.ErrConfigLoad,
					"failed to parse configuration file %s", path).
					WithDetail("path", path)
			}
		}
	}

	return &Config{k: k}, nil
}

// parserFor picks the parser by file extension. JSON is the documented
// format; YAML is accepted for convenience.
func parserFor(path string) koanf.Parser {
	switch filepath.Ext(path) {
	case ".yaml", ".yml":
		return yaml.Parser()
	default:
		return json.Parser()
	}
}

// Get returns the value at the dotted key, or fallback if the key is
// absent or an intermediate segment is not a mapping.
func (c *Config) Get(key string, fallback interface{}) interface{} {
	if !c.k.Exists(key) {
		return fallback
	}
	return c.k.Get(key)
}

// GetString returns the string value at the dotted key, or fallback
func (c *Config) GetString(key, fallback string) string {
	if !c.k.Exists(key) {
		return fallback
	}
	return c.k.String(key)
}

// GetStrings returns the string slice value at the dotted key, or fallback
func (c *Config) GetStrings(key string, fallback []string) []string {
	if !c.k.Exists(key) {
		return fallback
	}
	return c.k.Strings(key)
}

// GetBool returns the bool value at the dotted key, or fallback
func (c *Config) GetBool(key string, fallback bool) bool {
	if !c.k.Exists(key) {
		return fallback
	}
	return c.k.Bool(key)
}

// GetPath returns the string value at the dotted key with a leading ~
// expanded to the user's home directory.
func (c *Config) GetPath(key, fallback string) string {
	return ExpandHome(c.GetString(key, fallback))
}

// All returns the merged tree as a flat map of dotted keys, mainly for
// debug logging.
func (c *Config) All() map[string]interface{} {
	return c.k.All()
}

// ExpandHome expands the ~ prefix to the user's home directory.
// Paths that cannot be expanded are returned unchanged.
func ExpandHome(path string) string {
	if path == "~" || strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return path
		}
		if path == "~" {
			return home
		}
		return filepath.Join(home, path[2:])
	}
	return path
}
