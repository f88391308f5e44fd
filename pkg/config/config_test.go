package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alamin-mahamud/dotfiles/pkg/errors"
)

func writeConfig(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoadDefaultsOnly(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "zsh", cfg.GetString("shell.default", ""))
	assert.Equal(t, "powerlevel10k", cfg.GetString("shell.theme", ""))
	assert.Len(t, cfg.GetStrings("tools", nil), 10)
	assert.Equal(t, []string{"FiraCode", "JetBrainsMono", "Iosevka"}, cfg.GetStrings("fonts", nil))
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "no-such-file.json"))
	require.NoError(t, err)
	assert.Equal(t, "zsh", cfg.GetString("shell.default", ""))
}

func TestLoadMalformedFileIsFatal(t *testing.T) {
	path := writeConfig(t, "bad.json", `{"tools": [`)

	_, err := Load(path)
	require.Error(t, err)
	assert.True(t, errors.IsErrorCode(err, errors.ErrConfigLoad))
}

func TestOverrideScalarWins(t *testing.T) {
	path := writeConfig(t, "override.json", `{"shell": {"default": "fish"}}`)

	cfg, err := Load(path)
	require.NoError(t, err)

	// Overridden leaf wins, sibling keys from the defaults survive
	assert.Equal(t, "fish", cfg.GetString("shell.default", ""))
	assert.Equal(t, "powerlevel10k", cfg.GetString("shell.theme", ""))
}

func TestOverrideListReplacesWholesale(t *testing.T) {
	path := writeConfig(t, "override.json", `{"tools": ["ripgrep"]}`)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"ripgrep"}, cfg.GetStrings("tools", nil))
}

func TestOverrideYAML(t *testing.T) {
	path := writeConfig(t, "override.yaml", "shell:\n  default: bash\n")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "bash", cfg.GetString("shell.default", ""))
}

func TestGetFallbacks(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "fallback", cfg.GetString("no.such.key", "fallback"))
	assert.Equal(t, []string{"x"}, cfg.GetStrings("missing", []string{"x"}))
	assert.True(t, cfg.GetBool("missing.flag", true))
	// Intermediate segment exists but is a scalar, not a mapping
	assert.Equal(t, 42, cfg.Get("shell.default.nested", 42))
}

func TestDefaultsAreImmutable(t *testing.T) {
	d := Defaults()
	d["shell"].(map[string]interface{})["default"] = "mutated"

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "zsh", cfg.GetString("shell.default", ""))
}

func TestExpandHome(t *testing.T) {
	home, err := os.UserHomeDir()
	require.NoError(t, err)

	assert.Equal(t, home, ExpandHome("~"))
	assert.Equal(t, filepath.Join(home, "Work"), ExpandHome("~/Work"))
	assert.Equal(t, "/absolute/path", ExpandHome("/absolute/path"))
	assert.Equal(t, "relative", ExpandHome("relative"))
}

func TestGetPath(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	home, err := os.UserHomeDir()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(home, "Work", ".dotfiles"), cfg.GetPath("dotfiles.root", ""))
}
