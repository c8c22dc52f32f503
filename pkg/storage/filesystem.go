package storage

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"
)

// LocalStorage keeps generated artifacts on disk below one root directory.
// Relative paths passed to its methods are resolved against that root.
type LocalStorage struct {
	root string
}

// NewLocalStorage creates the root directory when missing.
func NewLocalStorage(root string) (*LocalStorage, error) {
	if root == "" {
		root = "./exports"
	}
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("create storage root: %w", err)
	}
	return &LocalStorage{root: root}, nil
}

// Save writes data under the given relative path, creating intermediate
// directories as needed, and returns the relative path back.
func (s *LocalStorage) Save(relPath string, data []byte) (string, error) {
	target := s.abs(relPath)
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return "", fmt.Errorf("prepare storage directory: %w", err)
	}
	if err := os.WriteFile(target, data, 0o644); err != nil {
		return "", fmt.Errorf("write stored file: %w", err)
	}
	return relPath, nil
}

// Open returns a read handle for a stored file.
func (s *LocalStorage) Open(relPath string) (*os.File, error) {
	file, err := os.Open(s.abs(relPath))
	if err != nil {
		return nil, fmt.Errorf("open stored file: %w", err)
	}
	return file, nil
}

// CleanupOlderThan deletes files whose modification time predates now-ttl
// and reports the relative paths it removed.
func (s *LocalStorage) CleanupOlderThan(ttl time.Duration) ([]string, error) {
	cutoff := time.Now().Add(-ttl)
	var removed []string

	walk := func(path string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return err
		}
		info, err := d.Info()
		if err != nil {
			return err
		}
		if info.ModTime().After(cutoff) {
			return nil
		}
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			return err
		}
		rel, err := filepath.Rel(s.root, path)
		if err != nil {
			rel = path
		}
		removed = append(removed, rel)
		return nil
	}

	if err := filepath.WalkDir(s.root, walk); err != nil {
		return nil, fmt.Errorf("cleanup storage root: %w", err)
	}
	return removed, nil
}

func (s *LocalStorage) abs(relPath string) string {
	if filepath.IsAbs(relPath) {
		return relPath
	}
	return filepath.Join(s.root, relPath)
}
