package keymap

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestObjectKey(t *testing.T) {
	root := filepath.Join("/depots", "game")

	tests := []struct {
		name              string
		sourcePath        string
		prefix            string
		includeRootFolder bool
		want              string
	}{
		{
			name:       "file at root",
			sourcePath: filepath.Join(root, "a.txt"),
			prefix:     "backup",
			want:       "backup/a.txt",
		},
		{
			name:       "nested file",
			sourcePath: filepath.Join(root, "sub", "b.txt"),
			prefix:     "backup",
			want:       "backup/sub/b.txt",
		},
		{
			name:       "no prefix",
			sourcePath: filepath.Join(root, "sub", "b.txt"),
			want:       "sub/b.txt",
		},
		{
			name:              "root folder name inserted after prefix",
			sourcePath:        filepath.Join(root, "sub", "b.txt"),
			prefix:            "backup",
			includeRootFolder: true,
			want:              "backup/game/sub/b.txt",
		},
		{
			name:              "root folder name without prefix",
			sourcePath:        filepath.Join(root, "a.txt"),
			includeRootFolder: true,
			want:              "game/a.txt",
		},
		{
			name:       "multi segment prefix",
			sourcePath: filepath.Join(root, "a.txt"),
			prefix:     "backups/2024",
			want:       "backups/2024/a.txt",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ObjectKey(tt.sourcePath, root, tt.prefix, tt.includeRootFolder)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestObjectKeyDeterministic(t *testing.T) {
	root := filepath.Join("/depots", "game")
	src := filepath.Join(root, "sub", "b.txt")

	first, err := ObjectKey(src, root, "backup", true)
	require.NoError(t, err)

	for i := 0; i < 10; i++ {
		again, err := ObjectKey(src, root, "backup", true)
		require.NoError(t, err)
		assert.Equal(t, first, again)
	}
}

func TestObjectKeyRecoversRelativePath(t *testing.T) {
	root := filepath.Join("/depots", "game")
	rel := filepath.Join("sub", "deep", "c.bin")

	key, err := ObjectKey(filepath.Join(root, rel), root, "backup", false)
	require.NoError(t, err)

	// Stripping the prefix and rejoining must recover the original
	// relative path.
	assert.Equal(t, rel, filepath.FromSlash(key[len("backup/"):]))
}

func TestObjectKeyRejectsPathOutsideRoot(t *testing.T) {
	root := filepath.Join("/depots", "game")

	_, err := ObjectKey(filepath.Join("/depots", "other", "a.txt"), root, "backup", false)
	assert.Error(t, err)

	_, err = ObjectKey("/depots", root, "backup", false)
	assert.Error(t, err)
}

func TestObjectKeyRejectsRootItself(t *testing.T) {
	root := filepath.Join("/depots", "game")

	_, err := ObjectKey(root, root, "backup", false)
	assert.Error(t, err, "the root is not a file under itself and must not map to the bare prefix")
}
