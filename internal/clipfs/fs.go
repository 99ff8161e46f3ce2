// Package clipfs resolves and manages clipper's data directory.
package clipfs

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"
)

const (
	ConfigDir = ".config/clipper"

	HistoryDB       = "history.db"  // sqlite backend
	HistorySnapshot = "history.zst" // file backend
	LockFile        = "clipper.lock"
	LogFile         = "clipper.log"
)

// ClipFS is a filesystem rooted at the clipper data directory
type ClipFS struct {
	root string
}

// New creates a new ClipFS rooted at ~/.config/clipper/
func New() (*ClipFS, error) {
	return NewWithDataDir("")
}

// NewWithDataDir creates a new ClipFS with a custom data location
// If dataDir is empty, uses default ~/.config/clipper/
// If dataDir is absolute, uses it directly
// If dataDir is relative, treats it as a subdirectory of ~/.config/clipper/
func NewWithDataDir(dataDir string) (*ClipFS, error) {
	var root string

	if filepath.IsAbs(dataDir) {
		root = dataDir
	} else {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("failed to get home directory: %w", err)
		}
		root = filepath.Join(homeDir, ConfigDir, dataDir)
	}

	// Ensure the directory exists
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	return &ClipFS{root: root}, nil
}

// NewWithRoot creates a ClipFS with a custom root (for testing)
func NewWithRoot(root string) *ClipFS {
	return &ClipFS{root: root}
}

// Open implements fs.FS
func (cfs *ClipFS) Open(name string) (fs.File, error) {
	if !fs.ValidPath(name) {
		return nil, &fs.PathError{Op: "open", Path: name, Err: fs.ErrInvalid}
	}
	return os.Open(filepath.Join(cfs.root, name))
}

// ReadFile implements fs.ReadFileFS
func (cfs *ClipFS) ReadFile(name string) ([]byte, error) {
	if !fs.ValidPath(name) {
		return nil, &fs.PathError{Op: "readfile", Path: name, Err: fs.ErrInvalid}
	}
	return os.ReadFile(filepath.Join(cfs.root, name))
}

// ReadDir implements fs.ReadDirFS
func (cfs *ClipFS) ReadDir(name string) ([]fs.DirEntry, error) {
	if !fs.ValidPath(name) {
		return nil, &fs.PathError{Op: "readdir", Path: name, Err: fs.ErrInvalid}
	}
	return os.ReadDir(filepath.Join(cfs.root, name))
}

// WriteFile atomically replaces a file relative to the data directory.
// Data is written to a temporary sibling, synced, then renamed over name,
// so readers see either the old or the new content.
func (cfs *ClipFS) WriteFile(name string, data []byte, perm os.FileMode) error {
	if !fs.ValidPath(name) {
		return &fs.PathError{Op: "writefile", Path: name, Err: fs.ErrInvalid}
	}

	fullPath := filepath.Join(cfs.root, name)
	dir := filepath.Dir(fullPath)

	// Ensure parent directory exists
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(fullPath)+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath) // no-op after a successful rename

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write temp file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to sync temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close temp file: %w", err)
	}
	if err := os.Chmod(tmpPath, perm); err != nil {
		return fmt.Errorf("failed to set permissions: %w", err)
	}
	if err := os.Rename(tmpPath, fullPath); err != nil {
		return fmt.Errorf("failed to replace %s: %w", name, err)
	}
	return nil
}

// Remove removes a file relative to the data directory
func (cfs *ClipFS) Remove(name string) error {
	if !fs.ValidPath(name) {
		return &fs.PathError{Op: "remove", Path: name, Err: fs.ErrInvalid}
	}
	return os.Remove(filepath.Join(cfs.root, name))
}

// SetAside renames name to "<name>.corrupt-<timestamp>" and returns the new
// name, so a fresh file can take its place. A missing file returns
// fs.ErrNotExist.
func (cfs *ClipFS) SetAside(name string, now time.Time) (string, error) {
	if !fs.ValidPath(name) {
		return "", &fs.PathError{Op: "setaside", Path: name, Err: fs.ErrInvalid}
	}
	aside := fmt.Sprintf("%s.corrupt-%s", name, now.UTC().Format("20060102T150405Z"))
	if err := os.Rename(filepath.Join(cfs.root, name), filepath.Join(cfs.root, aside)); err != nil {
		return "", err
	}
	return aside, nil
}

// Path returns the absolute path of name inside the data directory.
func (cfs *ClipFS) Path(name string) string {
	return filepath.Join(cfs.root, name)
}

// Root returns the root directory path
func (cfs *ClipFS) Root() string {
	return cfs.root
}
