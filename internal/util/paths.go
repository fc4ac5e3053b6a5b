package util

import (
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
)

// WalkFiles walks root recursively and returns the path of every regular file
// whose base name is accepted by keep. Symlinks to regular files count as
// files; symlinked directories are not followed. Directories are never
// filtered, and paths come back in traversal order. Unreadable entries below
// root are logged and skipped.
func WalkFiles(root string, keep func(name string) bool) ([]string, error) {
	info, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("search root does not exist: %s", root)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("search root is not a directory: %s", root)
	}

	var paths []string
	err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path == root {
				return err
			}
			slog.Warn("skipping unreadable path", "path", path, "error", err)
			if d != nil && d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if !isRegular(path, d) {
			return nil
		}
		if keep(d.Name()) {
			paths = append(paths, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walking %s: %w", root, err)
	}

	return paths, nil
}

func isRegular(path string, d fs.DirEntry) bool {
	if d.Type().IsRegular() {
		return true
	}
	if d.Type()&fs.ModeSymlink == 0 {
		return false
	}
	info, err := os.Stat(path)
	return err == nil && info.Mode().IsRegular()
}

// FindPathsWithSubstring returns every file under root whose name contains
// substring. A non-empty ext additionally requires the name to end with it,
// and a non-empty exclude drops names containing it.
func FindPathsWithSubstring(root, substring, ext, exclude string) ([]string, error) {
	return WalkFiles(root, func(name string) bool {
		if !strings.Contains(name, substring) {
			return false
		}
		if ext != "" && !strings.HasSuffix(name, ext) {
			return false
		}
		if exclude != "" && strings.Contains(name, exclude) {
			return false
		}
		return true
	})
}
