package command

import (
	"context"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alamin-mahamud/dotfiles/pkg/errors"
)

func TestRunCapturesOutput(t *testing.T) {
	r := NewRunner()

	res, err := r.Run(context.Background(), []string{"sh", "-c", "echo out; echo err >&2"})
	require.NoError(t, err)
	assert.Equal(t, "out\n", res.Stdout)
	assert.Equal(t, "err\n", res.Stderr)
	assert.Equal(t, 0, res.ExitCode)
}

func TestRunNonZeroExitFailsWithContext(t *testing.T) {
	r := NewRunner()

	res, err := r.Run(context.Background(), []string{"sh", "-c", "echo partial; exit 3"})
	require.Error(t, err)
	assert.True(t, errors.IsErrorCode(err, errors.ErrCommandFailed))

	details := errors.GetErrorDetails(err)
	assert.Equal(t, 3, details["exitCode"])
	assert.Equal(t, "partial\n", details["stdout"])
	assert.Equal(t, "partial\n", res.Stdout)
}

func TestRunCheckDisabled(t *testing.T) {
	r := NewRunner()

	opts := DefaultOpts()
	opts.Check = false
	res, err := r.RunWith(context.Background(), []string{"sh", "-c", "exit 7"}, opts)
	require.NoError(t, err)
	assert.Equal(t, 7, res.ExitCode)
}

func TestRunCommandNotFound(t *testing.T) {
	r := NewRunner()

	_, err := r.Run(context.Background(), []string{"definitely-not-a-real-command-xyz"})
	require.Error(t, err)
	assert.True(t, errors.IsErrorCode(err, errors.ErrCommandNotFound))
	assert.False(t, errors.IsErrorCode(err, errors.ErrCommandFailed))
}

func TestRunWorkingDirectory(t *testing.T) {
	r := NewRunner()
	dir := t.TempDir()

	opts := DefaultOpts()
	opts.Dir = dir
	res, err := r.RunWith(context.Background(), []string{"sh", "-c", "pwd"}, opts)
	require.NoError(t, err)

	resolved, err := filepath.EvalSymlinks(dir)
	require.NoError(t, err)
	assert.Equal(t, resolved, strings.TrimSpace(res.Stdout))
}

func TestRunStdin(t *testing.T) {
	r := NewRunner()

	opts := DefaultOpts()
	opts.Stdin = "hello\n"
	res, err := r.RunWith(context.Background(), []string{"cat"}, opts)
	require.NoError(t, err)
	assert.Equal(t, "hello\n", res.Stdout)
}

func TestRunExtraEnv(t *testing.T) {
	r := NewRunner()

	opts := DefaultOpts()
	opts.Env = []string{"DOTFILES_TEST_VALUE=42"}
	res, err := r.RunWith(context.Background(), []string{"sh", "-c", "echo $DOTFILES_TEST_VALUE"}, opts)
	require.NoError(t, err)
	assert.Equal(t, "42\n", res.Stdout)
}

func TestRunEmptyArgv(t *testing.T) {
	r := NewRunner()

	_, err := r.Run(context.Background(), nil)
	require.Error(t, err)
	assert.True(t, errors.IsErrorCode(err, errors.ErrInvalidInput))
}

func TestExists(t *testing.T) {
	assert.True(t, Exists("sh"))
	assert.False(t, Exists("definitely-not-a-real-command-xyz"))
}
