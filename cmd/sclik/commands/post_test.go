package commands

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestBuildContent(t *testing.T) {
	t.Run("plain message parts are joined with blank lines", func(t *testing.T) {
		content, err := buildContent([]string{"hello", "world"})
		require.NoError(t, err)
		require.Equal(t, "hello\n\nworld", content)
	})

	t.Run("file arguments are embedded as file blocks", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "notes.txt")
		require.NoError(t, os.WriteFile(path, []byte("line one\nline two\n"), 0o644))

		content, err := buildContent([]string{"sharing my notes", path})
		require.NoError(t, err)

		absPath, err := filepath.Abs(path)
		require.NoError(t, err)
		require.Equal(t, "sharing my notes\n\n>>> "+absPath+"\nline one\nline two", content)
	})

	t.Run("nonexistent path is treated as a message part", func(t *testing.T) {
		content, err := buildContent([]string{"no/such/file.txt"})
		require.NoError(t, err)
		require.Equal(t, "no/such/file.txt", content)
	})

	t.Run("empty input is rejected", func(t *testing.T) {
		_, err := buildContent(nil)
		require.Error(t, err)
	})
}
