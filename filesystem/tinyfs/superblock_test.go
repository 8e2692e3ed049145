package tinyfs

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSuperblockLayout(t *testing.T) {
	sb := newSuperblock()

	require.Equal(t, uint32(MaxInodes), sb.maxInum)
	require.Equal(t, uint32(MaxDataBlocks), sb.maxDnum)
	require.EqualValues(t, inodeBitmapBlock, sb.iBitmapBlk)
	require.EqualValues(t, dataBitmapBlock, sb.dBitmapBlk)
	require.EqualValues(t, inodeTableStart, sb.iStartBlk)

	wantInodeBlocks := (MaxInodes + int(inodesPerBlock()) - 1) / int(inodesPerBlock())
	require.EqualValues(t, inodeTableStart+wantInodeBlocks, sb.dStartBlk)
	require.NotEqual(t, [16]byte{}, sb.volumeUUID)
}

func TestSuperblockEncodeDecodeRoundTrip(t *testing.T) {
	sb := newSuperblock()
	buf := sb.encode()
	require.Len(t, buf, BlockSize)

	got, err := decodeSuperblock(buf)
	require.NoError(t, err)
	require.Equal(t, sb.maxInum, got.maxInum)
	require.Equal(t, sb.maxDnum, got.maxDnum)
	require.Equal(t, sb.iBitmapBlk, got.iBitmapBlk)
	require.Equal(t, sb.dBitmapBlk, got.dBitmapBlk)
	require.Equal(t, sb.iStartBlk, got.iStartBlk)
	require.Equal(t, sb.dStartBlk, got.dStartBlk)
	require.Equal(t, sb.volumeUUID, got.volumeUUID)
}

func TestSuperblockDecodeRejectsBadMagic(t *testing.T) {
	buf := make([]byte, BlockSize)
	_, err := decodeSuperblock(buf)
	require.ErrorIs(t, err, ErrCorrupt)
}
