package tinyfs

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestResolveRoot(t *testing.T) {
	fsys := newTestFS(t)
	in, err := fsys.resolve("/")
	require.NoError(t, err)
	require.EqualValues(t, rootIno, in.ino)

	in, err = fsys.resolve("")
	require.NoError(t, err)
	require.EqualValues(t, rootIno, in.ino)
}

func TestResolveNestedPath(t *testing.T) {
	fsys := newTestFS(t)
	require.NoError(t, fsys.Mkdir("/a"))
	require.NoError(t, fsys.Mkdir("/a/b"))
	require.NoError(t, fsys.Create("/a/b/c.txt"))

	in, err := fsys.resolve("/a/b/c.txt")
	require.NoError(t, err)
	require.False(t, in.isDir())

	_, err = fsys.resolve("/a/missing")
	require.ErrorIs(t, err, ErrNotFound)

	_, err = fsys.resolve("/a/b/c.txt/oops")
	require.ErrorIs(t, err, ErrNotDirectory)
}

func TestResolveParent(t *testing.T) {
	fsys := newTestFS(t)
	require.NoError(t, fsys.Mkdir("/a"))

	parent, name, err := fsys.resolveParent("/a/new.txt")
	require.NoError(t, err)
	require.Equal(t, "new.txt", name)

	a, err := fsys.resolve("/a")
	require.NoError(t, err)
	require.Equal(t, a.ino, parent.ino)
}
