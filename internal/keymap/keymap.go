// Package keymap derives destination object keys from local file paths.
//
// The mapping is a pure function of (sourcePath, root, prefix,
// includeRootFolder): re-running a migration always derives the same key for
// the same file, which is what makes the destination existence check a
// reliable idempotence gate.
package keymap

import (
	"fmt"
	"path"
	"path/filepath"
	"strings"
)

// ObjectKey returns the destination key for sourcePath relative to root.
//
// With includeRootFolder set, the base name of root is inserted after the
// prefix, so migrating /depots/game keeps "game/" as a namespace inside the
// bucket; without it the bucket mirrors only the folder's contents. Separators
// are normalized to forward slashes regardless of host OS.
func ObjectKey(sourcePath, root, prefix string, includeRootFolder bool) (string, error) {
	rel, err := filepath.Rel(root, sourcePath)
	if err != nil {
		return "", fmt.Errorf("relativize %s: %w", sourcePath, err)
	}
	if rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("path %s is outside transfer root %s", sourcePath, root)
	}
	if rel == "." {
		return "", fmt.Errorf("path %s is the transfer root itself, not a file under it", sourcePath)
	}

	segments := make([]string, 0, 3)
	if prefix != "" {
		segments = append(segments, filepath.ToSlash(prefix))
	}
	if includeRootFolder {
		segments = append(segments, filepath.Base(root))
	}
	segments = append(segments, filepath.ToSlash(rel))

	return path.Join(segments...), nil
}
