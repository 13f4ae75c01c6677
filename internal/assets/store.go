// Package assets manages the directory of generated files served to clients
// and the per-request scratch directories used while producing them.
package assets

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

// ErrOutsideRoot is returned for paths that escape the store root.
var ErrOutsideRoot = errors.New("assets: path escapes store root")

const scratchDir = "tmp"

// Entry describes a stored file.
type Entry struct {
	Path    string // slash separated, relative to the store root
	Size    int64
	ModTime time.Time
}

// Age returns how long ago the entry was written.
func (e Entry) Age(now time.Time) time.Duration {
	return now.Sub(e.ModTime)
}

// Store is a directory of assets addressed by relative slash paths.
type Store struct {
	root string
}

// NewStore creates the root directory if needed.
func NewStore(root string) (*Store, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("assets: resolve root: %w", err)
	}
	if err := os.MkdirAll(abs, 0755); err != nil {
		return nil, fmt.Errorf("assets: create root: %w", err)
	}
	return &Store{root: abs}, nil
}

// Root returns the absolute store directory.
func (s *Store) Root() string {
	return s.root
}

// resolve maps a relative slash path to a filesystem path inside the root.
func (s *Store) resolve(rel string) (string, error) {
	clean := path.Clean("/" + filepath.ToSlash(rel))
	if clean == "/" {
		return "", fmt.Errorf("%w: %q", ErrOutsideRoot, rel)
	}
	full := filepath.Join(s.root, filepath.FromSlash(clean))
	if !strings.HasPrefix(full, s.root+string(filepath.Separator)) {
		return "", fmt.Errorf("%w: %q", ErrOutsideRoot, rel)
	}
	return full, nil
}

// Put writes data to rel, replacing any existing file, and returns the
// cleaned relative path.
func (s *Store) Put(rel string, data []byte) (string, error) {
	full, err := s.resolve(rel)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(filepath.Dir(full), 0755); err != nil {
		return "", fmt.Errorf("assets: create dir: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(full), ".put-*")
	if err != nil {
		return "", fmt.Errorf("assets: create temp: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return "", fmt.Errorf("assets: write: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return "", fmt.Errorf("assets: write: %w", err)
	}
	if err := os.Chmod(tmp.Name(), 0644); err != nil {
		return "", fmt.Errorf("assets: chmod: %w", err)
	}
	if err := os.Rename(tmp.Name(), full); err != nil {
		return "", fmt.Errorf("assets: rename: %w", err)
	}

	relPath, _ := filepath.Rel(s.root, full)
	return filepath.ToSlash(relPath), nil
}

// Read returns the content stored at rel.
func (s *Store) Read(rel string) ([]byte, error) {
	full, err := s.resolve(rel)
	if err != nil {
		return nil, err
	}
	return os.ReadFile(full)
}

// Delete removes rel. Deleting a missing file is not an error.
func (s *Store) Delete(rel string) error {
	full, err := s.resolve(rel)
	if err != nil {
		return err
	}
	if err := os.Remove(full); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("assets: delete: %w", err)
	}
	return nil
}

// List returns the regular files below prefix, oldest first. Scratch
// directories are skipped.
func (s *Store) List(prefix string) ([]Entry, error) {
	dir := s.root
	if prefix != "" {
		var err error
		if dir, err = s.resolve(prefix); err != nil {
			return nil, err
		}
	}

	var entries []Entry
	err := filepath.WalkDir(dir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return nil
			}
			return err
		}
		rel, _ := filepath.Rel(s.root, p)
		rel = filepath.ToSlash(rel)
		if d.IsDir() {
			if rel == scratchDir {
				return filepath.SkipDir
			}
			return nil
		}
		if !d.Type().IsRegular() || strings.HasPrefix(d.Name(), ".put-") {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			// removed while walking
			return nil
		}
		entries = append(entries, Entry{Path: rel, Size: info.Size(), ModTime: info.ModTime()})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("assets: list: %w", err)
	}

	sort.Slice(entries, func(i, j int) bool {
		return entries[i].ModTime.Before(entries[j].ModTime)
	})
	return entries, nil
}

// Sweep deletes files below prefix older than maxAge and returns their paths.
func (s *Store) Sweep(prefix string, maxAge time.Duration, now time.Time) ([]string, error) {
	entries, err := s.List(prefix)
	if err != nil {
		return nil, err
	}

	var removed []string
	var errs []error
	for _, e := range entries {
		if e.Age(now) <= maxAge {
			continue
		}
		if err := s.Delete(e.Path); err != nil {
			errs = append(errs, err)
			continue
		}
		removed = append(removed, e.Path)
	}
	return removed, errors.Join(errs...)
}

// Scratch creates a private directory for one request. release removes it
// with everything inside and is safe to call more than once.
func (s *Store) Scratch(prefix string) (dir string, release func() error, err error) {
	base := filepath.Join(s.root, scratchDir)
	if err := os.MkdirAll(base, 0755); err != nil {
		return "", nil, fmt.Errorf("assets: create scratch base: %w", err)
	}
	dir, err = os.MkdirTemp(base, prefix+"-*")
	if err != nil {
		return "", nil, fmt.Errorf("assets: create scratch: %w", err)
	}
	release = func() error {
		return os.RemoveAll(dir)
	}
	return dir, release, nil
}
