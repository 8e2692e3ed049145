package tinyfs

import (
	"encoding/binary"
	"fmt"
	"time"
)

// inode is the fixed-width on-disk inode record of spec §3. vstat is kept as
// two denormalized fields (mode, mtime) rather than a nested struct so
// encode/decode stay flat fixed-offset writes.
type inode struct {
	ino     uint32
	valid   bool
	ftype   fileType
	size    uint32
	link    uint32
	direct  [DirectPointers]int32
	mode    uint32
	mtimeNs int64
}

// newInode initializes a fresh inode record for a just-allocated inode
// number. Directories start with link=2 (for "." and ".." accounting, spec
// §3); files start with link=1.
func newInode(ino uint32, ft fileType, mode uint32) *inode {
	link := uint32(1)
	if ft == typeDirectory {
		link = 2
	}
	in := &inode{
		ino:     ino,
		valid:   true,
		ftype:   ft,
		link:    link,
		mode:    mode,
		mtimeNs: time.Now().UnixNano(),
	}
	for i := range in.direct {
		in.direct[i] = unusedPtr
	}
	return in
}

// isDir reports whether this inode names a directory.
func (in *inode) isDir() bool { return in.ftype == typeDirectory }

// encode serializes the inode into a fixed inodeSize buffer.
func (in *inode) encode() []byte {
	buf := make([]byte, inodeSize)
	binary.LittleEndian.PutUint32(buf[0:4], in.ino)
	if in.valid {
		buf[4] = 1
	}
	buf[5] = byte(in.ftype)
	binary.LittleEndian.PutUint32(buf[6:10], in.size)
	binary.LittleEndian.PutUint32(buf[10:14], in.link)
	off := 14
	for _, p := range in.direct {
		binary.LittleEndian.PutUint32(buf[off:off+4], uint32(p))
		off += 4
	}
	binary.LittleEndian.PutUint32(buf[off:off+4], in.mode)
	off += 4
	binary.LittleEndian.PutUint64(buf[off:off+8], uint64(in.mtimeNs))
	return buf
}

// decodeInode parses a fixed inodeSize buffer produced by encode.
func decodeInode(buf []byte) (*inode, error) {
	if len(buf) < inodeSize {
		return nil, fmt.Errorf("tinyfs: inode buffer too short: %d bytes", len(buf))
	}
	in := &inode{
		ino:   binary.LittleEndian.Uint32(buf[0:4]),
		valid: buf[4] == 1,
		ftype: fileType(buf[5]),
		size:  binary.LittleEndian.Uint32(buf[6:10]),
		link:  binary.LittleEndian.Uint32(buf[10:14]),
	}
	off := 14
	for i := range in.direct {
		in.direct[i] = int32(binary.LittleEndian.Uint32(buf[off : off+4]))
		off += 4
	}
	in.mode = binary.LittleEndian.Uint32(buf[off : off+4])
	off += 4
	in.mtimeNs = int64(binary.LittleEndian.Uint64(buf[off : off+8]))
	return in, nil
}

// readInode translates ino to (block, offset) in the inode table and reads
// it. Spec §4.4. An out-of-range ino is a programming fault, not a runtime
// error, and panics rather than returning one.
func (fs *Filesystem) readInode(ino uint32) (*inode, error) {
	if ino >= fs.sb.maxInum {
		panic(fmt.Sprintf("tinyfs: inode number %d out of range", ino))
	}
	perBlock := inodesPerBlock()
	block := int64(fs.sb.iStartBlk) + int64(ino/perBlock)
	buf := make([]byte, BlockSize)
	if err := fs.dev.ReadBlock(block, buf); err != nil {
		return nil, fmt.Errorf("tinyfs: read inode %d: %w", ino, err)
	}
	offset := (ino % perBlock) * inodeSize
	in, err := decodeInode(buf[offset : offset+inodeSize])
	if err != nil {
		return nil, err
	}
	if in.valid && in.ino != ino {
		panic(fmt.Sprintf("tinyfs: inode table corrupt: slot %d holds ino %d", ino, in.ino))
	}
	return in, nil
}

// writeInode performs the read-modify-write of the inode table block
// holding ino, since a whole block holds several sibling inodes. Spec §4.4.
func (fs *Filesystem) writeInode(in *inode) error {
	if in.ino >= fs.sb.maxInum {
		panic(fmt.Sprintf("tinyfs: inode number %d out of range", in.ino))
	}
	perBlock := inodesPerBlock()
	block := int64(fs.sb.iStartBlk) + int64(in.ino/perBlock)
	buf := make([]byte, BlockSize)
	if err := fs.dev.ReadBlock(block, buf); err != nil {
		return fmt.Errorf("tinyfs: write inode %d: %w", in.ino, err)
	}
	offset := (in.ino % perBlock) * inodeSize
	copy(buf[offset:offset+inodeSize], in.encode())
	if err := fs.dev.WriteBlock(block, buf); err != nil {
		return fmt.Errorf("tinyfs: write inode %d: %w", in.ino, err)
	}
	return nil
}
