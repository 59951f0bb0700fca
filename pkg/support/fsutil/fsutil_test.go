package fsutil

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReplaceTildeInDir(t *testing.T) {
	dir, err := ReplaceTildeInDir("/tmp/settings.txt")
	require.NoError(t, err)
	assert.Equal(t, "/tmp/settings.txt", dir)

	home, err := os.UserHomeDir()
	if err != nil || home == "" {
		t.Skip("no home directory available")
	}
	dir, err = ReplaceTildeInDir("~/settings.txt")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(home, "settings.txt"), dir)
}

func TestCreateFile(t *testing.T) {
	filePath := filepath.Join(t.TempDir(), "a", "b", "summary.csv")
	exists, err := FileExists(filePath)
	require.NoError(t, err)
	assert.False(t, exists)

	f, err := CreateFile(filePath, false)
	require.NoError(t, err)
	require.NoError(t, f.Close())
	assert.True(t, MustFileExists(filePath))

	_, err = CreateFile(filePath, false)
	require.Error(t, err)
	f, err = CreateFile(filePath, true)
	require.NoError(t, err)
	require.NoError(t, f.Close())
}
