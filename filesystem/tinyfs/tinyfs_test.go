package tinyfs

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestMkfsCreatesRootDirectory(t *testing.T) {
	fsys := newTestFS(t)
	info, err := fsys.Stat("/")
	require.NoError(t, err)
	require.True(t, info.IsDir())
}

func TestMountReopensAnExistingImage(t *testing.T) {
	path := filepath.Join(t.TempDir(), "image.tfs")
	fsys, err := Mkfs(path)
	require.NoError(t, err)
	require.NoError(t, fsys.Mkdir("/a"))
	require.NoError(t, fsys.Close())

	reopened, err := Mount(path)
	require.NoError(t, err)
	defer reopened.Close()

	info, err := reopened.Stat("/a")
	require.NoError(t, err)
	require.True(t, info.IsDir())
}

func TestMountFailsOnMissingFile(t *testing.T) {
	_, err := Mount(filepath.Join(t.TempDir(), "does-not-exist.tfs"))
	require.Error(t, err)
}

func TestMkdirCreateRemoveLifecycle(t *testing.T) {
	fsys := newTestFS(t)

	require.NoError(t, fsys.Mkdir("/docs"))
	require.ErrorIs(t, fsys.Mkdir("/docs"), ErrExist)

	require.NoError(t, fsys.Create("/docs/readme.md"))
	entries, err := fsys.ReadDir("/docs")
	require.NoError(t, err)
	require.Len(t, entries, 1)
	require.Equal(t, "readme.md", entries[0].Name())

	require.ErrorIs(t, fsys.Rmdir("/docs"), ErrNotEmpty)
	require.NoError(t, fsys.Remove("/docs/readme.md"))
	require.NoError(t, fsys.Rmdir("/docs"))

	_, err = fsys.Stat("/docs")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestOpenFileRejectsDirectory(t *testing.T) {
	fsys := newTestFS(t)
	require.NoError(t, fsys.Mkdir("/d"))
	_, err := fsys.OpenFile("/d")
	require.ErrorIs(t, err, ErrIsDirectory)
}

func TestRemoveRejectsDirectory(t *testing.T) {
	fsys := newTestFS(t)
	require.NoError(t, fsys.Mkdir("/d"))
	require.ErrorIs(t, fsys.Remove("/d"), ErrIsDirectory)
}

// Scenario 4 of the end-to-end property suite: an 8192-byte write at offset
// 0 allocates exactly two direct blocks and leaves the rest unused.
func TestScenarioLargeWriteAllocatesExactlyTheBlocksNeeded(t *testing.T) {
	fsys := newTestFS(t)
	require.NoError(t, fsys.Create("/s4.bin"))
	f, err := fsys.OpenFile("/s4.bin")
	require.NoError(t, err)
	n, err := f.Write(make([]byte, 8192))
	require.NoError(t, err)
	require.Equal(t, 8192, n)

	in, err := fsys.resolve("/s4.bin")
	require.NoError(t, err)
	require.NotEqual(t, unusedPtr, in.direct[0])
	require.NotEqual(t, unusedPtr, in.direct[1])
	require.Equal(t, unusedPtr, in.direct[2])
}

// Scenario 5: writing 4096 bytes at offset 4096 then reading 100 bytes at
// offset 0 returns 0 bytes (the hole at block 0 is never materialized).
func TestScenarioReadOfUnwrittenLeadingHoleReturnsZero(t *testing.T) {
	fsys := newTestFS(t)
	require.NoError(t, fsys.Create("/s5.bin"))
	f, err := fsys.OpenFile("/s5.bin")
	require.NoError(t, err)
	_, err = f.Seek(BlockSize, 0)
	require.NoError(t, err)
	_, err = f.Write(make([]byte, BlockSize))
	require.NoError(t, err)

	in, err := fsys.resolve("/s5.bin")
	require.NoError(t, err)
	buf := make([]byte, 100)
	n, err := fsys.fileRead(in, 0, buf)
	require.NoError(t, err)
	require.Equal(t, 0, n)
}
