package tinyfs

import (
	"bytes"
	"io"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFileWriteReadRoundTripWithinOneBlock(t *testing.T) {
	fsys := newTestFS(t)
	require.NoError(t, fsys.Create("/f.txt"))

	f, err := fsys.OpenFile("/f.txt")
	require.NoError(t, err)
	n, err := f.Write([]byte("hello, tinyfs"))
	require.NoError(t, err)
	require.Equal(t, 13, n)

	_, err = f.Seek(0, io.SeekStart)
	require.NoError(t, err)
	buf := make([]byte, 13)
	n, err = f.Read(buf)
	require.NoError(t, err)
	require.Equal(t, "hello, tinyfs", string(buf[:n]))
}

func TestFileWriteSpansMultipleBlocks(t *testing.T) {
	fsys := newTestFS(t)
	require.NoError(t, fsys.Create("/big.bin"))
	target, err := fsys.resolve("/big.bin")
	require.NoError(t, err)

	data := bytes.Repeat([]byte{0xAB}, BlockSize*2)
	n, err := fsys.fileWrite(target, 0, data)
	require.NoError(t, err)
	require.Equal(t, len(data), n)

	target, err = fsys.resolve("/big.bin")
	require.NoError(t, err)
	require.NotEqual(t, unusedPtr, target.direct[0])
	require.NotEqual(t, unusedPtr, target.direct[1])
	require.Equal(t, unusedPtr, target.direct[2])
	require.EqualValues(t, len(data), target.size)

	out := make([]byte, len(data))
	n, err = fsys.fileRead(target, 0, out)
	require.NoError(t, err)
	require.Equal(t, len(data), n)
	require.Equal(t, data, out)
}

func TestFileReadStopsAtHole(t *testing.T) {
	fsys := newTestFS(t)
	require.NoError(t, fsys.Create("/holey.bin"))
	target, err := fsys.resolve("/holey.bin")
	require.NoError(t, err)

	// Write a block's worth of data starting at offset BlockSize, leaving
	// block 0 an unallocated hole while size reflects the far write.
	_, err = fsys.fileWrite(target, BlockSize, bytes.Repeat([]byte{1}, BlockSize))
	require.NoError(t, err)

	target, err = fsys.resolve("/holey.bin")
	require.NoError(t, err)
	buf := make([]byte, 100)
	n, err := fsys.fileRead(target, 0, buf)
	require.NoError(t, err)
	require.Equal(t, 0, n, "a read entirely within a hole returns 0 bytes under the stop-at-hole policy")
}

func TestFileWriteUpdatesSizeAsMax(t *testing.T) {
	fsys := newTestFS(t)
	require.NoError(t, fsys.Create("/f.txt"))
	target, err := fsys.resolve("/f.txt")
	require.NoError(t, err)

	_, err = fsys.fileWrite(target, 0, bytes.Repeat([]byte{1}, 100))
	require.NoError(t, err)
	target, _ = fsys.resolve("/f.txt")
	require.EqualValues(t, 100, target.size)

	// Overwriting within the existing range must not shrink size.
	_, err = fsys.fileWrite(target, 10, []byte{9, 9})
	require.NoError(t, err)
	target, _ = fsys.resolve("/f.txt")
	require.EqualValues(t, 100, target.size)
}

func TestTruncateShrinkFreesBlocksAndGrowLeavesHole(t *testing.T) {
	fsys := newTestFS(t)
	require.NoError(t, fsys.Create("/t.bin"))
	target, err := fsys.resolve("/t.bin")
	require.NoError(t, err)

	_, err = fsys.fileWrite(target, 0, bytes.Repeat([]byte{1}, BlockSize*2))
	require.NoError(t, err)
	before := fsys.alloc.dataPopcount()

	require.NoError(t, fsys.Truncate("/t.bin", BlockSize/2))
	target, err = fsys.resolve("/t.bin")
	require.NoError(t, err)
	require.EqualValues(t, BlockSize/2, target.size)
	require.NotEqual(t, unusedPtr, target.direct[0])
	require.Equal(t, unusedPtr, target.direct[1])
	require.Equal(t, before-1, fsys.alloc.dataPopcount())

	require.NoError(t, fsys.Truncate("/t.bin", BlockSize*3))
	target, err = fsys.resolve("/t.bin")
	require.NoError(t, err)
	require.EqualValues(t, BlockSize*3, target.size)
	require.Equal(t, unusedPtr, target.direct[1], "growing must not allocate; the new range is a hole")
}

func TestFileWriteBeyondDirectPointerCapacityFails(t *testing.T) {
	fsys := newTestFS(t)
	require.NoError(t, fsys.Create("/huge.bin"))
	target, err := fsys.resolve("/huge.bin")
	require.NoError(t, err)

	_, err = fsys.fileWrite(target, int64(DirectPointers)*BlockSize, []byte{1})
	require.Error(t, err)
}
