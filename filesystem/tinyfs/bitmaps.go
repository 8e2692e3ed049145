package tinyfs

import (
	"fmt"

	"github.com/tinyfs/go-tinyfs/device"
	"github.com/tinyfs/go-tinyfs/util/bitmap"
)

// allocator owns the in-memory mirrors of the inode and data-region
// bitmaps. Per spec §5 they are write-through: every Set/Clear is persisted
// to disk before the call returns, since there is exactly one writer.
type allocator struct {
	dev     *device.Device
	sb      *superblock
	inodeBM *bitmap.Bitmap
	dataBM  *bitmap.Bitmap
}

func loadAllocator(dev *device.Device, sb *superblock) (*allocator, error) {
	iBuf := make([]byte, BlockSize)
	if err := dev.ReadBlock(int64(sb.iBitmapBlk), iBuf); err != nil {
		return nil, fmt.Errorf("tinyfs: read inode bitmap: %w", err)
	}
	dBuf := make([]byte, BlockSize)
	if err := dev.ReadBlock(int64(sb.dBitmapBlk), dBuf); err != nil {
		return nil, fmt.Errorf("tinyfs: read data bitmap: %w", err)
	}
	return &allocator{
		dev:     dev,
		sb:      sb,
		inodeBM: bitmap.FromBytes(iBuf),
		dataBM:  bitmap.FromBytes(dBuf),
	}, nil
}

func (a *allocator) writeInodeBitmap() error {
	return a.dev.WriteBlock(int64(a.sb.iBitmapBlk), a.inodeBM.ToBytes())
}

func (a *allocator) writeDataBitmap() error {
	return a.dev.WriteBlock(int64(a.sb.dBitmapBlk), a.dataBM.ToBytes())
}

// allocInode scans the inode bitmap for the lowest clear bit in
// [0, maxInum), sets it, persists the bitmap block, and returns the index.
// Spec §4.3.
func (a *allocator) allocInode() (uint32, error) {
	loc := a.inodeBM.FirstFree(0)
	if loc < 0 || loc >= int(a.sb.maxInum) {
		return 0, ErrNoSpace
	}
	if err := a.inodeBM.Set(loc); err != nil {
		return 0, err
	}
	if err := a.writeInodeBitmap(); err != nil {
		return 0, err
	}
	return uint32(loc), nil
}

// freeInode clears the bit for ino and persists the bitmap.
func (a *allocator) freeInode(ino uint32) error {
	if err := a.inodeBM.Clear(int(ino)); err != nil {
		return err
	}
	return a.writeInodeBitmap()
}

// allocDataBlock scans the data-region bitmap for the lowest clear bit in
// [0, maxDnum), sets it, persists the bitmap block, and returns the
// data-region-relative index. Spec §4.3. The allocator does not zero the
// block; callers initialize what they need.
func (a *allocator) allocDataBlock() (uint32, error) {
	loc := a.dataBM.FirstFree(0)
	if loc < 0 || loc >= int(a.sb.maxDnum) {
		return 0, ErrNoSpace
	}
	if err := a.dataBM.Set(loc); err != nil {
		return 0, err
	}
	if err := a.writeDataBitmap(); err != nil {
		return 0, err
	}
	return uint32(loc), nil
}

// freeDataBlock clears the bit for block b and persists the bitmap.
func (a *allocator) freeDataBlock(b uint32) error {
	if err := a.dataBM.Clear(int(b)); err != nil {
		return err
	}
	return a.writeDataBitmap()
}

// dataBlockIndex converts a data-region-relative block number into an
// absolute device block index.
func (a *allocator) dataBlockIndex(relative int32) int64 {
	return int64(a.sb.dStartBlk) + int64(relative)
}

// inodePopcount and dataPopcount back the property tests in spec §8.
func (a *allocator) inodePopcount() int { return a.inodeBM.Popcount() }
func (a *allocator) dataPopcount() int  { return a.dataBM.Popcount() }

// freeInodeRuns and freeDataRuns report the free regions of each bitmap as
// contiguous runs, for fsck's fragmentation/free-space diagnostics.
func (a *allocator) freeInodeRuns() []bitmap.Contiguous { return a.inodeBM.FreeList() }
func (a *allocator) freeDataRuns() []bitmap.Contiguous  { return a.dataBM.FreeList() }

// inodeBitSet and dataBitSet report whether a single bit is set, for fsck's
// per-entry cross-check against what is actually reachable from the root.
func (a *allocator) inodeBitSet(ino uint32) (bool, error) { return a.inodeBM.IsSet(int(ino)) }
func (a *allocator) dataBitSet(rel int32) (bool, error)   { return a.dataBM.IsSet(int(rel)) }
