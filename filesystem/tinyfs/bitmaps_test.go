package tinyfs

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func newTestFS(t *testing.T) *Filesystem {
	t.Helper()
	path := filepath.Join(t.TempDir(), "image.tfs")
	fsys, err := Mkfs(path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = fsys.Close() })
	return fsys
}

func TestAllocatorInodeScanIsLowestClearBit(t *testing.T) {
	fsys := newTestFS(t)

	// ino 0 is the root, already allocated by Mkfs.
	a, err := fsys.alloc.allocInode()
	require.NoError(t, err)
	require.EqualValues(t, 1, a)

	b, err := fsys.alloc.allocInode()
	require.NoError(t, err)
	require.EqualValues(t, 2, b)

	require.NoError(t, fsys.alloc.freeInode(a))

	c, err := fsys.alloc.allocInode()
	require.NoError(t, err)
	require.EqualValues(t, 1, c, "freed bit should be reused before scanning further")
}

func TestAllocatorDataBlockScanIsLowestClearBit(t *testing.T) {
	fsys := newTestFS(t)

	a, err := fsys.alloc.allocDataBlock()
	require.NoError(t, err)
	require.EqualValues(t, 0, a)

	b, err := fsys.alloc.allocDataBlock()
	require.NoError(t, err)
	require.EqualValues(t, 1, b)

	require.NoError(t, fsys.alloc.freeDataBlock(a))

	c, err := fsys.alloc.allocDataBlock()
	require.NoError(t, err)
	require.EqualValues(t, 0, c)
}

func TestAllocatorExhaustion(t *testing.T) {
	fsys := newTestFS(t)
	fsys.alloc.sb.maxDnum = 2 // shrink for a fast test

	_, err := fsys.alloc.allocDataBlock()
	require.NoError(t, err)
	_, err = fsys.alloc.allocDataBlock()
	require.NoError(t, err)
	_, err = fsys.alloc.allocDataBlock()
	require.ErrorIs(t, err, ErrNoSpace)
}

func TestAllocatorPersistsAcrossRemount(t *testing.T) {
	path := filepath.Join(t.TempDir(), "image.tfs")
	fsys, err := Mkfs(path)
	require.NoError(t, err)

	_, err = fsys.alloc.allocInode()
	require.NoError(t, err)
	_, err = fsys.alloc.allocDataBlock()
	require.NoError(t, err)
	require.NoError(t, fsys.Close())

	reopened, err := Mount(path)
	require.NoError(t, err)
	defer reopened.Close()

	require.Equal(t, 2, reopened.alloc.inodePopcount()) // root + the one allocated above
	require.Equal(t, 1, reopened.alloc.dataPopcount())
}
