package tinyfs

// Fixed constants from spec §6. Multi-byte integers in the on-disk records
// are always encoded little-endian, whatever the host's byte order.
const (
	// BlockSize is the fixed size in bytes of every block on the device.
	BlockSize = 4096
	// MaxInodes is the total number of inodes the image can hold.
	MaxInodes = 1024
	// MaxDataBlocks is the total number of data blocks in the data region.
	MaxDataBlocks = 16384
	// DirectPointers is the fan-out of an inode's direct block pointer array.
	DirectPointers = 16
	// NameMax is the maximum length, in bytes, of a path component's name.
	// The on-disk name field is NameMax+1 bytes to hold the trailing NUL.
	NameMax = 207
	// magic identifies the on-disk format.
	magic uint32 = 0x5A415446

	// superblockBlock, inodeBitmapBlock and dataBitmapBlock are the fixed
	// block indices spec §3/§6 assigns to the superblock and the two
	// bitmaps.
	superblockBlock = 0
	inodeBitmapBlock = 1
	dataBitmapBlock  = 2
	inodeTableStart  = 3

	// rootIno is the inode number of the filesystem root, created by mkfs
	// and never destroyed (spec §3 "Lifecycle").
	rootIno = 0

	// unusedPtr is the sentinel value for an unused direct_ptr slot.
	unusedPtr int32 = -1
)

// fileType distinguishes directories from regular files in an inode record.
type fileType uint8

const (
	typeDirectory fileType = 0
	typeRegular   fileType = 1
)
