// Package fileops provides backup-before-mutate and symlink-with-backup
// primitives. Backups are timestamped sibling copies and are never
// pruned automatically.
package fileops

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"

	"github.com/alamin-mahamud/dotfiles/pkg/errors"
	"github.com/alamin-mahamud/dotfiles/pkg/logging"
)

const backupTimeFormat = "20060102_150405"

// Manager performs filesystem mutations with backups
type Manager struct {
	log zerolog.Logger
}

// NewManager creates a file manager
func NewManager() *Manager {
	return &Manager{log: logging.GetLogger("fileops")}
}

// Backup copies a file or directory to a sibling path named
// <name>.backup.<timestamp>, preserving permissions and modification
// times. A path that does not exist is returned unchanged with no
// backup taken. A dangling symlink is backed up as the link itself.
// An existing backup of the same name is never overwritten; a numeric
// suffix is appended instead.
func (m *Manager) Backup(path string) (string, error) {
	linfo, err := os.Lstat(path)
	if os.IsNotExist(err) {
		return path, nil
	}
	if err != nil {
		return "", errors.Wrapf(err, errors.ErrFileAccess, "cannot stat %s", path)
	}

	stamp := time.Now().Format(backupTimeFormat)
	backupPath := fmt.Sprintf("%s.backup.%s", path, stamp)
	for n := 1; ; n++ {
		if _, err := os.Lstat(backupPath); os.IsNotExist(err) {
			break
		}
		backupPath = fmt.Sprintf("%s.backup.%s.%d", path, stamp, n)
	}

	info, err := os.Stat(path)
	switch {
	case err != nil && linfo.Mode()&os.ModeSymlink != 0:
		// The link target is gone; there is no content to copy, so
		// preserve the link itself
		err = copyLink(path, backupPath)
	case err != nil:
		return "", errors.Wrapf(err, errors.ErrFileAccess, "cannot stat %s", path)
	case info.IsDir():
		err = copyTree(path, backupPath)
	default:
		err = copyFile(path, backupPath, info)
	}
	if err != nil {
		return "", errors.Wrapf(err, errors.ErrBackupCreate, "failed to back up %s", path).
			WithDetail("backupPath", backupPath)
	}

	m.log.Info().Str("path", path).Str("backup", backupPath).Msg("Backed up")
	return backupPath, nil
}

// Symlink creates target as a symlink to the resolved source path. An
// existing target is backed up first when backup is true, removed
// unconditionally otherwise. Parent directories of target are created
// as needed. A missing source is a reported error, not a silent no-op.
func (m *Manager) Symlink(source, target string, backup bool) error {
	resolved, err := resolve(source)
	if err != nil {
		return errors.Newf(errors.ErrFileNotFound, "symlink source %s does not exist", source)
	}

	if _, err := os.Lstat(target); err == nil {
		if backup {
			if _, err := m.Backup(target); err != nil {
				return err
			}
		}
		if err := os.RemoveAll(target); err != nil {
			return errors.Wrapf(err, errors.ErrFileAccess, "failed to remove existing %s", target)
		}
	}

	if err := m.EnsureDir(filepath.Dir(target)); err != nil {
		return err
	}

	if err := os.Symlink(resolved, target); err != nil {
		return errors.Wrapf(err, errors.ErrSymlinkCreate,
			"failed to create symlink %s -> %s", target, resolved)
	}

	m.log.Info().Str("target", target).Str("source", resolved).Msg("Created symlink")
	return nil
}

// EnsureDir recursively creates a directory. It succeeds silently if
// the directory already exists.
func (m *Manager) EnsureDir(path string) error {
	if err := os.MkdirAll(path, 0755); err != nil {
		return errors.Wrapf(err, errors.ErrDirCreate, "failed to create directory %s", path)
	}
	return nil
}

// resolve returns the absolute path of source with symlinks evaluated,
// or an error when source does not exist.
func resolve(source string) (string, error) {
	abs, err := filepath.Abs(source)
	if err != nil {
		return "", err
	}
	if _, err := os.Stat(abs); err != nil {
		return "", err
	}
	resolved, err := filepath.EvalSymlinks(abs)
	if err != nil {
		return "", err
	}
	return resolved, nil
}

// copyLink recreates a symlink at dst with src's link destination
func copyLink(src, dst string) error {
	dest, err := os.Readlink(src)
	if err != nil {
		return err
	}
	return os.Symlink(dest, dst)
}

// copyFile copies a single file preserving mode and modification time
func copyFile(src, dst string, info os.FileInfo) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer func() { _ = in.Close() }()

	out, err := os.OpenFile(dst, os.O_CREATE|os.O_EXCL|os.O_WRONLY, info.Mode().Perm())
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		_ = out.Close()
		return err
	}
	if err := out.Close(); err != nil {
		return err
	}
	return os.Chtimes(dst, time.Now(), info.ModTime())
}

// copyTree recursively copies a directory preserving modes and times.
// Symlinks inside the tree are recreated, not followed.
func copyTree(src, dst string) error {
	return filepath.Walk(src, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(src, path)
		if err != nil {
			return err
		}
		targetPath := filepath.Join(dst, rel)

		switch {
		case info.IsDir():
			if err := os.MkdirAll(targetPath, info.Mode().Perm()); err != nil {
				return err
			}
			return os.Chtimes(targetPath, time.Now(), info.ModTime())
		case info.Mode()&os.ModeSymlink != 0:
			return copyLink(path, targetPath)
		default:
			return copyFile(path, targetPath, info)
		}
	})
}
