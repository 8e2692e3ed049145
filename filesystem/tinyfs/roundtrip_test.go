package tinyfs

import (
	"bytes"
	"io"
	"path/filepath"
	"sort"
	"testing"

	"github.com/rogpeppe/go-internal/dirhash"
	"github.com/stretchr/testify/require"
)

// snapshotTree walks an entire mounted image and returns its file contents
// keyed by full path, for comparison across an unmount/remount cycle.
func snapshotTree(t *testing.T, fsys *Filesystem, dir string) map[string][]byte {
	t.Helper()
	out := map[string][]byte{}
	entries, err := fsys.ReadDir(dir)
	require.NoError(t, err)
	for _, e := range entries {
		full := filepath.Join(dir, e.Name())
		if e.IsDir() {
			for k, v := range snapshotTree(t, fsys, full) {
				out[k] = v
			}
			continue
		}
		f, err := fsys.OpenFile(full)
		require.NoError(t, err)
		data, err := io.ReadAll(f)
		require.NoError(t, err)
		out[full] = data
	}
	return out
}

func treeHash(t *testing.T, tree map[string][]byte) string {
	t.Helper()
	names := make([]string, 0, len(tree))
	for k := range tree {
		names = append(names, k)
	}
	sort.Strings(names)
	h, err := dirhash.Hash1(names, func(name string) (io.ReadCloser, error) {
		return io.NopCloser(bytes.NewReader(tree[name])), nil
	})
	require.NoError(t, err)
	return h
}

func TestRoundTripSurvivesUnmountRemount(t *testing.T) {
	path := filepath.Join(t.TempDir(), "image.tfs")
	fsys, err := Mkfs(path)
	require.NoError(t, err)

	require.NoError(t, fsys.Mkdir("/a"))
	require.NoError(t, fsys.Mkdir("/a/b"))
	require.NoError(t, fsys.Create("/a/one.txt"))
	require.NoError(t, fsys.Create("/a/b/two.txt"))

	f1, err := fsys.OpenFile("/a/one.txt")
	require.NoError(t, err)
	_, err = f1.Write(bytes.Repeat([]byte("x"), BlockSize+17))
	require.NoError(t, err)

	f2, err := fsys.OpenFile("/a/b/two.txt")
	require.NoError(t, err)
	_, err = f2.Write([]byte("small payload"))
	require.NoError(t, err)

	before := treeHash(t, snapshotTree(t, fsys, "/"))
	require.NoError(t, fsys.Close())

	reopened, err := Mount(path)
	require.NoError(t, err)
	defer reopened.Close()

	after := treeHash(t, snapshotTree(t, reopened, "/"))
	require.Equal(t, before, after)
}
