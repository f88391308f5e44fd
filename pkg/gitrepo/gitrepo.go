// Package gitrepo implements clone-or-update synchronization for
// tracked repositories, preserving uncommitted local edits across
// updates via stash, rebase pull, and reapply.
package gitrepo

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"

	"github.com/alamin-mahamud/dotfiles/pkg/command"
	"github.com/alamin-mahamud/dotfiles/pkg/errors"
	"github.com/alamin-mahamud/dotfiles/pkg/logging"
)

// Outcome describes the result of a SyncOrClone call
type Outcome int

const (
	// OutcomeFailed means the sync did not complete; the error return
	// carries the reason
	OutcomeFailed Outcome = iota
	// OutcomeCloned means the repository was freshly cloned
	OutcomeCloned
	// OutcomeSynced means the working tree was clean and remote changes
	// were pulled (or there was nothing to pull)
	OutcomeSynced
	// OutcomeDivergedResolved means local uncommitted edits were
	// stashed, the pull rebased, and the stash reapplied cleanly
	OutcomeDivergedResolved
	// OutcomeConflicted means the stash reapply hit conflicts; the
	// working tree needs manual resolution and the stash entry is kept
	OutcomeConflicted
)

// String returns a human-readable outcome name
func (o Outcome) String() string {
	switch o {
	case OutcomeCloned:
		return "cloned"
	case OutcomeSynced:
		return "synced"
	case OutcomeDivergedResolved:
		return "diverged-resolved"
	case OutcomeConflicted:
		return "conflicted"
	default:
		return "failed"
	}
}

// Syncer performs repository synchronization by shelling out to git
type Syncer struct {
	runner *command.Runner
	log    zerolog.Logger
}

// NewSyncer creates a repository syncer
func NewSyncer(runner *command.Runner) *Syncer {
	return &Syncer{runner: runner, log: logging.GetLogger("gitrepo")}
}

// SyncOrClone brings the repository at path up to date with remoteURL.
//
// A missing or non-repository path is freshly cloned; failure there is
// fatal for the repository and returned as a REPO_SYNC error. A clean
// working tree is pulled directly. A dirty tree is stashed under a
// recognizable label, pulled with rebase, and the stash reapplied;
// conflicts during reapply yield OutcomeConflicted with the stash entry
// preserved for manual resolution. Pull failures on an existing clone
// return OutcomeFailed with an error the caller may downgrade to a
// warning and continue with the local copy.
func (s *Syncer) SyncOrClone(ctx context.Context, path, remoteURL string) (Outcome, error) {
	if !s.IsRepository(ctx, path) {
		return s.clone(ctx, path, remoteURL)
	}

	status, err := s.git(ctx, path, "status", "--porcelain")
	if err != nil {
		return OutcomeFailed, errors.Wrapf(err, errors.ErrRepoSync,
			"failed to query status of %s", path)
	}

	if strings.TrimSpace(status) == "" {
		s.log.Info().Str("path", path).Msg("Updating repository")
		if _, err := s.git(ctx, path, "pull"); err != nil {
			return OutcomeFailed, errors.Wrapf(err, errors.ErrRepoSync,
				"failed to pull %s", path)
		}
		return OutcomeSynced, nil
	}

	return s.syncDirty(ctx, path)
}

// clone fetches remoteURL into path
func (s *Syncer) clone(ctx context.Context, path, remoteURL string) (Outcome, error) {
	s.log.Info().Str("path", path).Str("remote", remoteURL).Msg("Cloning repository")

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return OutcomeFailed, errors.Wrapf(err, errors.ErrRepoSync,
			"failed to create parent directory for %s", path)
	}

	if _, err := s.runner.Run(ctx, []string{"git", "clone", remoteURL, path}); err != nil {
		return OutcomeFailed, errors.Wrapf(err, errors.ErrRepoSync,
			"failed to clone %s", remoteURL).WithDetail("path", path)
	}
	return OutcomeCloned, nil
}

// syncDirty preserves uncommitted local edits across a rebase pull
func (s *Syncer) syncDirty(ctx context.Context, path string) (Outcome, error) {
	label := stashLabel(path)
	s.log.Warn().Str("path", path).Msg("Uncommitted changes detected, stashing before pull")

	if _, err := s.git(ctx, path, "stash", "push", "-m", label); err != nil {
		return OutcomeFailed, errors.Wrapf(err, errors.ErrRepoSync,
			"failed to stash local changes in %s", path)
	}

	if _, err := s.git(ctx, path, "pull", "--rebase"); err != nil {
		// Put the tree back the way we found it before reporting
		if _, popErr := s.git(ctx, path, "stash", "pop"); popErr != nil {
			s.log.Warn().Str("path", path).Str("label", label).
				Msg("Could not restore stash after failed pull, run 'git stash pop' manually")
		}
		return OutcomeFailed, errors.Wrapf(err, errors.ErrRepoSync,
			"failed to pull --rebase in %s", path)
	}

	list, err := s.git(ctx, path, "stash", "list")
	if err != nil || !strings.Contains(list, label) {
		// Nothing was stashed after all (e.g. only ignored files changed)
		return OutcomeSynced, nil
	}

	if _, err := s.git(ctx, path, "stash", "pop"); err != nil {
		// pop keeps the stash entry when the reapply conflicts
		s.log.Warn().Str("path", path).
			Msg("Conflicts while reapplying stashed changes, resolve manually then 'git stash drop'")
		return OutcomeConflicted, nil
	}

	s.log.Info().Str("path", path).Msg("Reapplied stashed changes")
	return OutcomeDivergedResolved, nil
}

// IsRepository reports whether path is a git working tree. Callers use
// this to tell a failed initial clone, which leaves them with nothing,
// from a failed update of a clone they can keep using.
func (s *Syncer) IsRepository(ctx context.Context, path string) bool {
	if _, err := os.Stat(path); err != nil {
		return false
	}
	_, err := s.git(ctx, path, "rev-parse", "--git-dir")
	return err == nil
}

// git runs a git subcommand inside dir and returns its stdout
func (s *Syncer) git(ctx context.Context, dir string, args ...string) (string, error) {
	argv := append([]string{"git"}, args...)
	res, err := s.runner.RunWith(ctx, argv, command.Opts{Check: true, Capture: true, Dir: dir})
	if err != nil {
		return res.Stdout, err
	}
	return res.Stdout, nil
}

// stashLabel builds the recognizable stash message for a repository
func stashLabel(path string) string {
	return fmt.Sprintf("dotfiles auto-stash: %s", filepath.Base(path))
}
