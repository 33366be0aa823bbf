package filesystem

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemorySymlinkSimulation(t *testing.T) {
	fs := NewMemory()

	require.NoError(t, fs.WriteFile("/dotfiles/zshrc", []byte("export EDITOR=vim\n"), 0644))
	require.NoError(t, fs.Symlink("/dotfiles/zshrc", "/home/user/.zshrc"))

	info, err := fs.Lstat("/home/user/.zshrc")
	require.NoError(t, err)
	assert.NotZero(t, info.Mode()&os.ModeSymlink, "simulated symlink should carry the symlink mode bit")

	target, err := fs.Readlink("/home/user/.zshrc")
	require.NoError(t, err)
	assert.Equal(t, "/dotfiles/zshrc", target)
}

func TestMemoryReadDir(t *testing.T) {
	fs := NewMemory()

	require.NoError(t, fs.MkdirAll("/src/nested", 0755))
	require.NoError(t, fs.WriteFile("/src/a.conf", []byte("a"), 0644))
	require.NoError(t, fs.WriteFile("/src/nested/b.conf", []byte("b"), 0644))

	entries, err := fs.ReadDir("/src")
	require.NoError(t, err)
	require.Len(t, entries, 2)

	names := []string{entries[0].Name(), entries[1].Name()}
	assert.Contains(t, names, "a.conf")
	assert.Contains(t, names, "nested")
}

func TestMemoryReadFileOnDirFails(t *testing.T) {
	fs := NewMemory()
	require.NoError(t, fs.MkdirAll("/somedir", 0755))

	_, err := fs.ReadFile("/somedir")
	assert.Error(t, err)
}

func TestOSRoundTrip(t *testing.T) {
	fs := NewOS()
	dir := t.TempDir()

	path := filepath.Join(dir, "sub", "file.txt")
	require.NoError(t, fs.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, fs.WriteFile(path, []byte("hello"), 0644))

	data, err := fs.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "hello", string(data))

	link := filepath.Join(dir, "link.txt")
	require.NoError(t, fs.Symlink(path, link))

	info, err := fs.Lstat(link)
	require.NoError(t, err)
	assert.NotZero(t, info.Mode()&os.ModeSymlink)

	target, err := fs.Readlink(link)
	require.NoError(t, err)
	assert.Equal(t, path, target)
}
