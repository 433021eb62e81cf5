package ingest

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"
)

// LocalFS is the filesystem the batch jobs read sources from and clean up.
type LocalFS struct {
	SkipHidden bool
	logger     *slog.Logger
}

func NewLocalFS(logger *slog.Logger) *LocalFS {
	if logger == nil {
		logger = slog.Default()
	}
	return &LocalFS{SkipHidden: true, logger: logger}
}

// DirExists reports whether dir exists and is a directory.
func (l *LocalFS) DirExists(dir string) (bool, error) {
	fi, err := os.Stat(dir)
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return fi.IsDir(), nil
}

// List returns the files under root whose extension is in exts, sorted.
// Only the top level is listed unless recursive is set.
func (l *LocalFS) List(root string, exts map[string]struct{}, recursive bool) ([]string, error) {
	if strings.TrimSpace(root) == "" {
		return nil, errors.New("root path is required")
	}
	var out []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			if path == root {
				return walkErr
			}
			l.logger.Warn("ingest.walk.failed", "path", path, "error", walkErr)
			return nil
		}
		if path == root {
			return nil
		}
		if d.IsDir() {
			if !recursive || (l.SkipHidden && IsHidden(path)) {
				return filepath.SkipDir
			}
			return nil
		}
		if l.SkipHidden && IsHidden(path) {
			return nil
		}
		if AllowedExt(filepath.Ext(path), exts) {
			out = append(out, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk: %w", err)
	}
	slices.Sort(out)
	return out, nil
}

// Remove deletes path; a file that is already gone is not an error.
func (l *LocalFS) Remove(path string) error {
	if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return nil
}

func (l *LocalFS) MkdirAll(dir string) error {
	return os.MkdirAll(dir, 0o755)
}
