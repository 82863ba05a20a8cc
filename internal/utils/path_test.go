package utils

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolvePath(t *testing.T) {
	t.Run("empty path is an error", func(t *testing.T) {
		_, err := ResolvePath("")
		assert.Error(t, err)
	})

	t.Run("tilde expands to home", func(t *testing.T) {
		home, err := os.UserHomeDir()
		require.NoError(t, err)

		got, err := ResolvePath("~/project")
		require.NoError(t, err)
		assert.Equal(t, filepath.Join(home, "project"), got)
	})

	t.Run("relative path becomes absolute", func(t *testing.T) {
		got, err := ResolvePath("some/dir")
		require.NoError(t, err)
		assert.True(t, filepath.IsAbs(got))
	})
}

func TestNormPath(t *testing.T) {
	assert.Equal(t, "a/b/c.tex", NormPath(filepath.Join("a", "b", "c.tex")))
	assert.Equal(t, "a/c.tex", NormPath("a/./c.tex"))
}

func TestFileHash(t *testing.T) {
	path := filepath.Join(t.TempDir(), "f.txt")
	require.NoError(t, os.WriteFile(path, []byte("hello"), 0o644))

	fileHash, err := FileHash(path)
	require.NoError(t, err)
	assert.Equal(t, BytesHash([]byte("hello")), fileHash)
	assert.Len(t, fileHash, 32)

	_, err = FileHash(filepath.Join(t.TempDir(), "missing"))
	assert.Error(t, err)
}
