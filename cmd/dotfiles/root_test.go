package main

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alamin-mahamud/dotfiles/pkg/errors"
)

// execute runs the root command with the given stdin and args,
// returning combined output
func execute(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetIn(strings.NewReader(stdin))
	rootCmd.SetArgs(args)
	// rootCmd is shared between tests; a prior --help run leaves the help
	// flag set, which would short-circuit Execute before Args validation.
	if f := rootCmd.Flags().Lookup("help"); f != nil {
		_ = f.Value.Set("false")
		f.Changed = false
	}
	err := rootCmd.Execute()
	return buf.String(), err
}

func sessionLogArg(t *testing.T) []string {
	t.Helper()
	return []string{"--log-file", filepath.Join(t.TempDir(), "session.log")}
}

func TestInteractiveMenuQuit(t *testing.T) {
	out, err := execute(t, "q\n", sessionLogArg(t)...)
	require.NoError(t, err)

	assert.Contains(t, out, "Dotfiles Installer")
	assert.Contains(t, out, "1) Full installation")
	assert.Contains(t, out, "2) Shell environment only")
	assert.Contains(t, out, "3) Python environment only")
	assert.Contains(t, out, "4) Desktop features only")
	assert.Contains(t, out, "q) Quit")
	assert.Contains(t, out, "Installation cancelled")
}

func TestInteractiveMenuShowsSystemSummary(t *testing.T) {
	out, err := execute(t, "Q\n", sessionLogArg(t)...)
	require.NoError(t, err)

	assert.Contains(t, out, "OS: ")
	assert.Contains(t, out, "Architecture: ")
	assert.Contains(t, out, "Environment: ")
}

func TestInteractiveMenuBoundedRetries(t *testing.T) {
	out, err := execute(t, "x\n9\nnope\n", sessionLogArg(t)...)
	require.Error(t, err)
	assert.True(t, errors.IsErrorCode(err, errors.ErrInvalidInput))
	assert.Contains(t, out, "Invalid choice")
}

func TestHelpListsInvocationForms(t *testing.T) {
	out, err := execute(t, "", "--help")
	require.NoError(t, err)

	assert.Contains(t, out, "--full")
	assert.Contains(t, out, "--shell")
	assert.Contains(t, out, "--python")
	assert.Contains(t, out, "--desktop")
	assert.Contains(t, out, "Interactive mode")
}

func TestUnknownFlagFails(t *testing.T) {
	_, err := execute(t, "", "--bogus")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown flag")
}

func TestPositionalArgumentsRejected(t *testing.T) {
	_, err := execute(t, "", "install-everything")
	require.Error(t, err)
}

func TestVersionCommand(t *testing.T) {
	out, err := execute(t, "", "version")
	require.NoError(t, err)
	assert.Contains(t, out, "dotfiles version")
}
