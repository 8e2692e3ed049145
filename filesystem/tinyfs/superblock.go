package tinyfs

import (
	"encoding/binary"
	"fmt"

	"github.com/google/uuid"
)

// inodeSize is the fixed width of one on-disk inode record. It divides
// BlockSize evenly so the inode table has no partial inodes straddling a
// block boundary.
const inodeSize = 128

// direntSize is the fixed width of one on-disk directory-entry record:
// valid(1) + ino(4) + len(1) + name(NameMax+1).
const direntSize = 1 + 4 + 1 + (NameMax + 1)

// superblockSize is the portion of block 0 actually used; the rest of the
// block is zero padding.
const superblockSize = 4 + 4 + 4 + 4 + 4 + 4 + 4 + 16 // magic,maxInum,maxDnum,iBitmapBlk,dBitmapBlk,iStartBlk,dStartBlk,uuid

func init() {
	// Compile-time-equivalent layout sanity checks (spec §9 "size
	// assertions guarantee compile-time layout stability"). Go has no
	// static_assert, so these run once at package init instead.
	if inodeSize%4 != 0 {
		panic("tinyfs: inodeSize must be 4-byte aligned")
	}
	if BlockSize%inodeSize != 0 {
		panic("tinyfs: inodeSize must evenly divide BlockSize")
	}
	if superblockSize > BlockSize {
		panic("tinyfs: superblock record does not fit in one block")
	}
	if MaxInodes > BlockSize*8 {
		panic("tinyfs: MaxInodes exceeds what one bitmap block can address")
	}
	if MaxDataBlocks > BlockSize*8 {
		panic("tinyfs: MaxDataBlocks exceeds what one bitmap block can address")
	}
}

// superblock is the single metadata record at block index 0 (spec §3).
type superblock struct {
	maxInum    uint32
	maxDnum    uint32
	iBitmapBlk uint32
	dBitmapBlk uint32
	iStartBlk  uint32
	dStartBlk  uint32
	volumeUUID uuid.UUID
}

// inodesPerBlock is how many fixed-width inode records fit in one block.
func inodesPerBlock() uint32 {
	return BlockSize / inodeSize
}

// newSuperblock computes the fixed layout described in spec §3/§6 for the
// compile-time constants MaxInodes and MaxDataBlocks, and stamps a fresh
// volume UUID (grounded on go-diskfs/filesystem/ext4's use of
// github.com/google/uuid for its own volume identifier).
func newSuperblock() *superblock {
	iStart := uint32(inodeTableStart)
	inodeBlocks := (MaxInodes + int(inodesPerBlock()) - 1) / int(inodesPerBlock())
	dStart := iStart + uint32(inodeBlocks)
	return &superblock{
		maxInum:    MaxInodes,
		maxDnum:    MaxDataBlocks,
		iBitmapBlk: inodeBitmapBlock,
		dBitmapBlk: dataBitmapBlock,
		iStartBlk:  iStart,
		dStartBlk:  dStart,
		volumeUUID: uuid.New(),
	}
}

// totalBlocks is the number of blocks the whole image occupies: superblock
// + both bitmaps + inode table + data region.
func (sb *superblock) totalBlocks() int64 {
	return int64(sb.dStartBlk) + int64(sb.maxDnum)
}

// encode serializes the superblock into a full BlockSize buffer (zero
// padded after the record).
func (sb *superblock) encode() []byte {
	buf := make([]byte, BlockSize)
	binary.LittleEndian.PutUint32(buf[0:4], magic)
	binary.LittleEndian.PutUint32(buf[4:8], sb.maxInum)
	binary.LittleEndian.PutUint32(buf[8:12], sb.maxDnum)
	binary.LittleEndian.PutUint32(buf[12:16], sb.iBitmapBlk)
	binary.LittleEndian.PutUint32(buf[16:20], sb.dBitmapBlk)
	binary.LittleEndian.PutUint32(buf[20:24], sb.iStartBlk)
	binary.LittleEndian.PutUint32(buf[24:28], sb.dStartBlk)
	copy(buf[28:44], sb.volumeUUID[:])
	return buf
}

// decodeSuperblock parses a block previously produced by encode, validating
// the magic number.
func decodeSuperblock(buf []byte) (*superblock, error) {
	if len(buf) < superblockSize {
		return nil, fmt.Errorf("tinyfs: superblock buffer too short: %d bytes", len(buf))
	}
	got := binary.LittleEndian.Uint32(buf[0:4])
	if got != magic {
		return nil, fmt.Errorf("%w: bad magic %#x, expected %#x", ErrCorrupt, got, magic)
	}
	sb := &superblock{
		maxInum:    binary.LittleEndian.Uint32(buf[4:8]),
		maxDnum:    binary.LittleEndian.Uint32(buf[8:12]),
		iBitmapBlk: binary.LittleEndian.Uint32(buf[12:16]),
		dBitmapBlk: binary.LittleEndian.Uint32(buf[16:20]),
		iStartBlk:  binary.LittleEndian.Uint32(buf[20:24]),
		dStartBlk:  binary.LittleEndian.Uint32(buf[24:28]),
	}
	copy(sb.volumeUUID[:], buf[28:44])
	return sb, nil
}
