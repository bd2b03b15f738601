package walker

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

// FileInfo describes one regular file found under the root
type FileInfo struct {
	Path string // absolute path
	Size int64
}

// Walker enumerates the regular files under a depot's local directory
type Walker struct {
	root string
}

// New creates a walker rooted at root. It fails if root does not exist or is
// not a directory.
func New(root string) (*Walker, error) {
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("get absolute path: %w", err)
	}

	info, err := os.Stat(absRoot)
	if err != nil {
		return nil, fmt.Errorf("stat root: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("root is not a directory: %s", absRoot)
	}

	return &Walker{root: absRoot}, nil
}

// Root returns the absolute root directory being walked
func (w *Walker) Root() string {
	return w.root
}

// Walk returns every regular file under the root. The walk is all-or-nothing:
// any I/O error mid-walk fails the whole enumeration so the caller never
// dispatches a partial file set.
func (w *Walker) Walk() ([]FileInfo, error) {
	var files []FileInfo

	err := filepath.WalkDir(w.root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}

		if d.IsDir() {
			return nil
		}
		if !d.Type().IsRegular() {
			return nil
		}

		info, err := d.Info()
		if err != nil {
			return err
		}

		files = append(files, FileInfo{Path: path, Size: info.Size()})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk %s: %w", w.root, err)
	}

	return files, nil
}
