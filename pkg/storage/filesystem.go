package storage

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"
)

const tempSuffix = ".partial"

// ErrOutsideRoot rejects names that would escape the storage directory.
var ErrOutsideRoot = errors.New("storage: path escapes base directory")

// ErrNotStored is returned by Read for names that were never saved or have
// been cleaned up.
var ErrNotStored = errors.New("storage: file not found")

// LocalStorage keeps generated report files under one directory, grouped
// into whatever subdirectories the caller names (reports use the day).
type LocalStorage struct {
	root string
	now  func() time.Time
}

// NewLocalStorage creates root if needed.
func NewLocalStorage(root string) (*LocalStorage, error) {
	if root == "" {
		root = "./reports"
	}
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("resolve report directory %q: %w", root, err)
	}
	if err := os.MkdirAll(abs, 0o755); err != nil {
		return nil, fmt.Errorf("create report directory %q: %w", abs, err)
	}
	return &LocalStorage{root: abs, now: time.Now}, nil
}

// Save writes data through a temporary file and a rename so readers never
// observe a half-written report. It returns name in slash form.
func (s *LocalStorage) Save(name string, data []byte) (string, error) {
	target, err := s.resolve(name)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return "", fmt.Errorf("save %s: %w", name, err)
	}
	tmp := target + tempSuffix
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return "", fmt.Errorf("save %s: %w", name, err)
	}
	if err := os.Rename(tmp, target); err != nil {
		_ = os.Remove(tmp)
		return "", fmt.Errorf("save %s: %w", name, err)
	}
	return filepath.ToSlash(filepath.Clean(name)), nil
}

// Read returns a stored file.
func (s *LocalStorage) Read(name string) ([]byte, error) {
	target, err := s.resolve(name)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(target)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, ErrNotStored
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", name, err)
	}
	return data, nil
}

// CleanupOlderThan deletes files last written more than ttl ago, including
// abandoned partial writes, and prunes directories left empty. It returns
// the removed names.
func (s *LocalStorage) CleanupOlderThan(ttl time.Duration) ([]string, error) {
	cutoff := s.now().Add(-ttl)
	var removed []string
	var dirs []string
	err := filepath.WalkDir(s.root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if path != s.root {
				dirs = append(dirs, path)
			}
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return err
		}
		if info.ModTime().After(cutoff) {
			return nil
		}
		if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return err
		}
		if rel, err := filepath.Rel(s.root, path); err == nil && !strings.HasSuffix(rel, tempSuffix) {
			removed = append(removed, filepath.ToSlash(rel))
		}
		return nil
	})
	if err != nil {
		return removed, fmt.Errorf("cleanup %s: %w", s.root, err)
	}
	// Deepest first; non-empty directories fail to remove and are kept.
	for i := len(dirs) - 1; i >= 0; i-- {
		_ = os.Remove(dirs[i])
	}
	return removed, nil
}

func (s *LocalStorage) resolve(name string) (string, error) {
	if name == "" || filepath.IsAbs(name) || strings.HasSuffix(name, tempSuffix) {
		return "", ErrOutsideRoot
	}
	target := filepath.Join(s.root, filepath.Clean(filepath.FromSlash(name)))
	if !strings.HasPrefix(target, s.root+string(os.PathSeparator)) {
		return "", ErrOutsideRoot
	}
	return target, nil
}
