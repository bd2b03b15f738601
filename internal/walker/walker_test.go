package walker

import (
	"os"
	"path/filepath"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestWalkFindsAllRegularFiles(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "a.txt"), "aa")
	writeFile(t, filepath.Join(root, "sub", "b.txt"), "bbb")
	writeFile(t, filepath.Join(root, "sub", "deep", "c.txt"), "c")
	require.NoError(t, os.MkdirAll(filepath.Join(root, "empty"), 0o755))

	w, err := New(root)
	require.NoError(t, err)

	files, err := w.Walk()
	require.NoError(t, err)
	require.Len(t, files, 3)

	// Walk order is filesystem-dependent; compare as a sorted set.
	var paths []string
	sizes := map[string]int64{}
	for _, f := range files {
		paths = append(paths, f.Path)
		sizes[filepath.Base(f.Path)] = f.Size
	}
	sort.Strings(paths)

	assert.Equal(t, []string{
		filepath.Join(root, "a.txt"),
		filepath.Join(root, "sub", "b.txt"),
		filepath.Join(root, "sub", "deep", "c.txt"),
	}, paths)
	assert.Equal(t, int64(2), sizes["a.txt"])
	assert.Equal(t, int64(3), sizes["b.txt"])
}

func TestWalkEmptyDirectory(t *testing.T) {
	w, err := New(t.TempDir())
	require.NoError(t, err)

	files, err := w.Walk()
	require.NoError(t, err)
	assert.Empty(t, files)
}

func TestNewMissingRoot(t *testing.T) {
	_, err := New(filepath.Join(t.TempDir(), "does-not-exist"))
	assert.Error(t, err)
}

func TestNewRootIsFile(t *testing.T) {
	root := t.TempDir()
	file := filepath.Join(root, "plain.txt")
	writeFile(t, file, "x")

	_, err := New(file)
	assert.Error(t, err)
}
