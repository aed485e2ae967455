package hostio

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOSFileSystemRoundTrips(t *testing.T) {
	var fs FileSystem = OSFileSystem{}
	path := filepath.Join(t.TempDir(), "out.txt")

	assert.False(t, fs.Exists(path))
	require.NoError(t, fs.WriteFile(path, "hello"))
	assert.True(t, fs.Exists(path))

	content, err := fs.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "hello", content)

	require.NoError(t, fs.Delete(path))
	assert.False(t, fs.Exists(path))
}
