package storage

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
)

// Snapshot keys.
const (
	KeyTasks = "tasks"
	KeyTiers = "storyPointConfig"
)

var (
	// ErrNotFound is returned by Get when a key has never been written.
	ErrNotFound = errors.New("key not found")
	// ErrCorrupt is returned when a stored value cannot be decoded.
	ErrCorrupt = errors.New("corrupt stored value")
)

// KV is the key-value store the tracker persists its snapshots to.
type KV interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
	Close() error
}

// BaseDir returns the root data directory (~/.tasker).
func BaseDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("cannot determine home directory: %w", err)
	}
	return filepath.Join(home, ".tasker"), nil
}

var validKey = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)

// FileKV stores each key as <dir>/<key>.json.
type FileKV struct {
	dir string
}

// NewFileKV returns a file store rooted at dir. The directory is created on
// the first write.
func NewFileKV(dir string) *FileKV {
	return &FileKV{dir: dir}
}

func (s *FileKV) path(key string) (string, error) {
	if !validKey.MatchString(key) {
		return "", fmt.Errorf("invalid storage key %q", key)
	}
	return filepath.Join(s.dir, key+".json"), nil
}

// Get reads the value for key. Returns ErrNotFound if the file does not exist.
func (s *FileKV) Get(_ context.Context, key string) (string, error) {
	path, err := s.path(key)
	if err != nil {
		return "", err
	}
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("storage error reading %s: %w", path, err)
	}
	return string(data), nil
}

// Set atomically writes the value for key.
func (s *FileKV) Set(_ context.Context, key, value string) error {
	path, err := s.path(key)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(s.dir, 0o700); err != nil {
		return fmt.Errorf("storage error creating directories: %w", err)
	}

	// Atomic write: write to temp file then rename.
	tmpPath := path + ".tmp"
	if err := os.WriteFile(tmpPath, []byte(value), 0o600); err != nil {
		return fmt.Errorf("storage error writing temp file: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("storage error renaming temp file: %w", err)
	}
	return nil
}

// Quarantine moves the file for key aside to <file>.corrupt so a bad
// snapshot is kept for inspection but not read again.
func (s *FileKV) Quarantine(key string) (string, error) {
	path, err := s.path(key)
	if err != nil {
		return "", err
	}
	backupPath := path + ".corrupt"
	if err := os.Rename(path, backupPath); err != nil {
		return "", fmt.Errorf("storage error backing up %s: %w", path, err)
	}
	return backupPath, nil
}

// Close is a no-op for the file store.
func (s *FileKV) Close() error { return nil }

func ensureDir(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("storage error creating directories: %w", err)
	}
	return nil
}
