package tinyfs

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDirAddAndLookup(t *testing.T) {
	fsys := newTestFS(t)
	root, err := fsys.readInode(rootIno)
	require.NoError(t, err)

	ino, err := fsys.alloc.allocInode()
	require.NoError(t, err)
	child := newInode(ino, typeRegular, 0o644)
	require.NoError(t, fsys.writeInode(child))
	require.NoError(t, fsys.dirAdd(root, ino, "hello.txt"))

	root, err = fsys.readInode(rootIno)
	require.NoError(t, err)
	d, err := fsys.dirLookup(root, "hello.txt")
	require.NoError(t, err)
	require.NotNil(t, d)
	require.Equal(t, ino, d.ino)

	_, err = fsys.dirLookupRequired(root, "missing")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestDirAddRejectsDuplicateName(t *testing.T) {
	fsys := newTestFS(t)
	root, err := fsys.readInode(rootIno)
	require.NoError(t, err)

	ino1, _ := fsys.alloc.allocInode()
	require.NoError(t, fsys.writeInode(newInode(ino1, typeRegular, 0o644)))
	require.NoError(t, fsys.dirAdd(root, ino1, "dup"))

	root, _ = fsys.readInode(rootIno)
	ino2, _ := fsys.alloc.allocInode()
	require.NoError(t, fsys.writeInode(newInode(ino2, typeRegular, 0o644)))
	err = fsys.dirAdd(root, ino2, "dup")
	require.ErrorIs(t, err, ErrExist)
}

func TestDirAddSpillsToNewBlockWhenFull(t *testing.T) {
	fsys := newTestFS(t)

	perBlock := entriesPerBlock()
	for i := 0; i < perBlock+1; i++ {
		root, err := fsys.readInode(rootIno)
		require.NoError(t, err)
		ino, err := fsys.alloc.allocInode()
		require.NoError(t, err)
		require.NoError(t, fsys.writeInode(newInode(ino, typeRegular, 0o644)))
		require.NoError(t, fsys.dirAdd(root, ino, fmt.Sprintf("f%03d", i)))
	}

	root, err := fsys.readInode(rootIno)
	require.NoError(t, err)
	require.NotEqual(t, unusedPtr, root.direct[0])
	require.NotEqual(t, unusedPtr, root.direct[1], "entry %d should have spilled into a second block", perBlock)
}

func TestDirRemoveFreesInodeAndDataBlocks(t *testing.T) {
	fsys := newTestFS(t)
	root, err := fsys.readInode(rootIno)
	require.NoError(t, err)

	ino, err := fsys.alloc.allocInode()
	require.NoError(t, err)
	child := newInode(ino, typeRegular, 0o644)
	require.NoError(t, fsys.writeInode(child))
	require.NoError(t, fsys.dirAdd(root, ino, "removeme"))

	root, _ = fsys.readInode(rootIno)
	child, _ = fsys.readInode(ino)
	_, err = fsys.fileWrite(child, 0, []byte("some file content"))
	require.NoError(t, err)
	require.Equal(t, 2, fsys.alloc.dataPopcount()) // root's own block plus the file's block

	root, _ = fsys.readInode(rootIno)
	require.NoError(t, fsys.dirRemove(root, "removeme"))
	require.Equal(t, 1, fsys.alloc.dataPopcount(), "removing the file should free its data block")

	freedChild, err := fsys.readInode(ino)
	require.NoError(t, err)
	require.False(t, freedChild.valid)

	d, err := fsys.dirLookup(root, "removeme")
	require.NoError(t, err)
	require.Nil(t, d)

	reallocated, err := fsys.alloc.allocInode()
	require.NoError(t, err)
	require.Equal(t, ino, reallocated, "freed inode bit should be reusable")
}

func TestDirAddRejectsOversizedName(t *testing.T) {
	fsys := newTestFS(t)
	root, _ := fsys.readInode(rootIno)
	long := make([]byte, NameMax+1)
	for i := range long {
		long[i] = 'a'
	}
	err := fsys.dirAdd(root, 1, string(long))
	require.ErrorIs(t, err, ErrInvalidName)
}
