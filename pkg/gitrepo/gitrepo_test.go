package gitrepo

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alamin-mahamud/dotfiles/pkg/command"
	"github.com/alamin-mahamud/dotfiles/pkg/errors"
)

// git runs a git command in dir, failing the test on error
func git(t *testing.T, dir string, args ...string) string {
	t.Helper()
	argv := append([]string{"-C", dir}, args...)
	out, err := exec.Command("git", argv...).CombinedOutput()
	if err != nil {
		t.Fatalf("git %v: %v: %s", args, err, out)
	}
	return string(out)
}

// initRemote creates a local "remote" repository with one commit
func initRemote(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	out, err := exec.Command("git", "init", "-b", "main", dir).CombinedOutput()
	if err != nil {
		t.Fatalf("git init: %v: %s", err, out)
	}
	git(t, dir, "config", "user.email", "test@test.com")
	git(t, dir, "config", "user.name", "Test")
	commitFile(t, dir, "README.md", "hello\n", "Initial commit")
	return dir
}

// commitFile writes a file and commits it
func commitFile(t *testing.T, dir, name, content, msg string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0644))
	git(t, dir, "add", name)
	git(t, dir, "commit", "-m", msg)
}

// setIdentity configures the committer identity needed for stashing
func setIdentity(t *testing.T, dir string) {
	t.Helper()
	git(t, dir, "config", "user.email", "test@test.com")
	git(t, dir, "config", "user.name", "Test")
}

func head(t *testing.T, dir string) string {
	t.Helper()
	return strings.TrimSpace(git(t, dir, "rev-parse", "HEAD"))
}

func stashCount(t *testing.T, dir string) int {
	t.Helper()
	list := strings.TrimSpace(git(t, dir, "stash", "list"))
	if list == "" {
		return 0
	}
	return len(strings.Split(list, "\n"))
}

func TestSyncOrCloneFreshClone(t *testing.T) {
	remote := initRemote(t)
	local := filepath.Join(t.TempDir(), "repo")
	s := NewSyncer(command.NewRunner())

	outcome, err := s.SyncOrClone(context.Background(), local, remote)
	require.NoError(t, err)
	assert.Equal(t, OutcomeCloned, outcome)

	content, err := os.ReadFile(filepath.Join(local, "README.md"))
	require.NoError(t, err)
	assert.Equal(t, "hello\n", string(content))
}

func TestSyncOrCloneCloneFailureIsFatal(t *testing.T) {
	local := filepath.Join(t.TempDir(), "repo")
	s := NewSyncer(command.NewRunner())

	outcome, err := s.SyncOrClone(context.Background(), local, filepath.Join(t.TempDir(), "no-such-remote"))
	require.Error(t, err)
	assert.Equal(t, OutcomeFailed, outcome)
	assert.True(t, errors.IsErrorCode(err, errors.ErrRepoSync))
}

func TestSyncOrCloneIdempotent(t *testing.T) {
	remote := initRemote(t)
	local := filepath.Join(t.TempDir(), "repo")
	s := NewSyncer(command.NewRunner())
	ctx := context.Background()

	outcome, err := s.SyncOrClone(ctx, local, remote)
	require.NoError(t, err)
	require.Equal(t, OutcomeCloned, outcome)

	firstHead := head(t, local)

	for i := 0; i < 2; i++ {
		outcome, err = s.SyncOrClone(ctx, local, remote)
		require.NoError(t, err)
		assert.Equal(t, OutcomeSynced, outcome)
	}

	assert.Equal(t, firstHead, head(t, local))
	assert.Equal(t, 0, stashCount(t, local))
}

func TestSyncOrClonePullsRemoteChanges(t *testing.T) {
	remote := initRemote(t)
	local := filepath.Join(t.TempDir(), "repo")
	s := NewSyncer(command.NewRunner())
	ctx := context.Background()

	_, err := s.SyncOrClone(ctx, local, remote)
	require.NoError(t, err)

	commitFile(t, remote, "new.txt", "remote\n", "Remote commit")

	outcome, err := s.SyncOrClone(ctx, local, remote)
	require.NoError(t, err)
	assert.Equal(t, OutcomeSynced, outcome)
	assert.Equal(t, head(t, remote), head(t, local))
}

func TestSyncOrClonePullFailureReturnsError(t *testing.T) {
	remote := initRemote(t)
	local := filepath.Join(t.TempDir(), "repo")
	s := NewSyncer(command.NewRunner())
	ctx := context.Background()

	_, err := s.SyncOrClone(ctx, local, remote)
	require.NoError(t, err)

	// The remote disappears between runs; the caller decides whether
	// to continue with the local copy
	require.NoError(t, os.RemoveAll(remote))

	outcome, err := s.SyncOrClone(ctx, local, remote)
	require.Error(t, err)
	assert.Equal(t, OutcomeFailed, outcome)
	assert.True(t, errors.IsErrorCode(err, errors.ErrRepoSync))
}

func TestSyncOrCloneDirtyTreePreservesLocalEdits(t *testing.T) {
	remote := initRemote(t)
	local := filepath.Join(t.TempDir(), "repo")
	s := NewSyncer(command.NewRunner())
	ctx := context.Background()

	_, err := s.SyncOrClone(ctx, local, remote)
	require.NoError(t, err)
	setIdentity(t, local)

	// Uncommitted local edit plus a fresh remote commit touching
	// another file
	require.NoError(t, os.WriteFile(filepath.Join(local, "local.txt"), []byte("local edit\n"), 0644))
	git(t, local, "add", "local.txt")
	commitFile(t, remote, "remote.txt", "remote\n", "Remote commit")

	outcome, err := s.SyncOrClone(ctx, local, remote)
	require.NoError(t, err)
	assert.Equal(t, OutcomeDivergedResolved, outcome)

	// Both the remote commit and the local edit are present
	_, err = os.Stat(filepath.Join(local, "remote.txt"))
	assert.NoError(t, err)
	content, err := os.ReadFile(filepath.Join(local, "local.txt"))
	require.NoError(t, err)
	assert.Equal(t, "local edit\n", string(content))

	assert.Equal(t, 0, stashCount(t, local))
}

func TestSyncOrCloneConflictKeepsStash(t *testing.T) {
	remote := initRemote(t)
	local := filepath.Join(t.TempDir(), "repo")
	s := NewSyncer(command.NewRunner())
	ctx := context.Background()

	_, err := s.SyncOrClone(ctx, local, remote)
	require.NoError(t, err)
	setIdentity(t, local)

	// Both sides edit the same file
	require.NoError(t, os.WriteFile(filepath.Join(local, "README.md"), []byte("local version\n"), 0644))
	commitFile(t, remote, "README.md", "remote version\n", "Remote edit")

	outcome, err := s.SyncOrClone(ctx, local, remote)
	require.NoError(t, err)
	assert.Equal(t, OutcomeConflicted, outcome)

	// The stash entry survives for manual resolution
	assert.Equal(t, 1, stashCount(t, local))
}

func TestOutcomeString(t *testing.T) {
	assert.Equal(t, "cloned", OutcomeCloned.String())
	assert.Equal(t, "synced", OutcomeSynced.String())
	assert.Equal(t, "diverged-resolved", OutcomeDivergedResolved.String())
	assert.Equal(t, "conflicted", OutcomeConflicted.String())
	assert.Equal(t, "failed", OutcomeFailed.String())
}
