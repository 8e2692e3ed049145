package tinyfs

import (
	"fmt"
)

// dirent is the fixed-width on-disk directory-entry record of spec §3.
type dirent struct {
	valid   bool // true = occupied, false = free slot
	ino     uint32
	nameLen uint8
	name    [NameMax + 1]byte
}

// entriesPerBlock is how many whole dirent records fit in one data block;
// any leftover bytes at the end of the block are never scanned, matching
// spec §4.5's "while the next entry fully fits".
func entriesPerBlock() int {
	return BlockSize / direntSize
}

func (d *dirent) nameString() string {
	return string(d.name[:d.nameLen])
}

func (d *dirent) encode() []byte {
	buf := make([]byte, direntSize)
	if d.valid {
		buf[0] = 1
	} else {
		buf[0] = 0xff // -1 as a byte, matches spec's "valid == -1" free marker
	}
	buf[1] = byte(d.ino)
	buf[2] = byte(d.ino >> 8)
	buf[3] = byte(d.ino >> 16)
	buf[4] = byte(d.ino >> 24)
	buf[5] = d.nameLen
	copy(buf[6:], d.name[:])
	return buf
}

func decodeDirent(buf []byte) *dirent {
	d := &dirent{
		valid:   buf[0] == 1,
		ino:     uint32(buf[1]) | uint32(buf[2])<<8 | uint32(buf[3])<<16 | uint32(buf[4])<<24,
		nameLen: buf[5],
	}
	copy(d.name[:], buf[6:6+len(d.name)])
	return d
}

func freeDirent() *dirent {
	return &dirent{valid: false}
}

// dirLookup scans dir's direct blocks in order for an occupied entry named
// name. It returns (nil, nil) if no such entry exists — callers that need a
// not-found error use dirLookupRequired. Spec §4.5.
func (fs *Filesystem) dirLookup(dir *inode, name string) (*dirent, error) {
	var found *dirent
	err := fs.scanDirectory(dir, func(_ int32, _ int, d *dirent) (bool, error) {
		if d.valid && d.nameString() == name {
			found = d
			return true, nil
		}
		return false, nil
	})
	return found, err
}

func (fs *Filesystem) dirLookupRequired(dir *inode, name string) (*dirent, error) {
	d, err := fs.dirLookup(dir, name)
	if err != nil {
		return nil, err
	}
	if d == nil {
		return nil, ErrNotFound
	}
	return d, nil
}

// scanDirectory walks every present direct block of dir in order and every
// record stride within it, invoking visit for each. visit returns (stop,
// err); when stop is true the scan ends early.
func (fs *Filesystem) scanDirectory(dir *inode, visit func(block int32, offset int, d *dirent) (bool, error)) error {
	perBlock := entriesPerBlock()
	buf := make([]byte, BlockSize)
	for _, rel := range dir.direct {
		if rel == unusedPtr {
			continue
		}
		if err := fs.dev.ReadBlock(fs.alloc.dataBlockIndex(rel), buf); err != nil {
			return fmt.Errorf("tinyfs: scan directory: %w", err)
		}
		for i := 0; i < perBlock; i++ {
			off := i * direntSize
			d := decodeDirent(buf[off : off+direntSize])
			stop, err := visit(rel, off, d)
			if err != nil {
				return err
			}
			if stop {
				return nil
			}
		}
	}
	return nil
}

// dirAdd inserts a new entry binding name to childIno in dir, per spec
// §4.5. Preconditions: name is non-empty, at most NameMax bytes, and not
// already present. It first looks for a free slot in an existing block; if
// none exists it allocates a fresh data block, fills it with free slots,
// installs it in the lowest free direct_ptr slot, and uses its first entry.
func (fs *Filesystem) dirAdd(dir *inode, childIno uint32, name string) error {
	if len(name) == 0 || len(name) > NameMax {
		return ErrInvalidName
	}
	existing, err := fs.dirLookup(dir, name)
	if err != nil {
		return err
	}
	if existing != nil {
		return ErrExist
	}

	placed := false
	perBlock := entriesPerBlock()
	buf := make([]byte, BlockSize)
	for _, rel := range dir.direct {
		if rel == unusedPtr {
			continue
		}
		if err := fs.dev.ReadBlock(fs.alloc.dataBlockIndex(rel), buf); err != nil {
			return fmt.Errorf("tinyfs: dir_add: %w", err)
		}
		for i := 0; i < perBlock && !placed; i++ {
			off := i * direntSize
			d := decodeDirent(buf[off : off+direntSize])
			if d.valid {
				continue
			}
			entry := newDirent(childIno, name)
			copy(buf[off:off+direntSize], entry.encode())
			if err := fs.dev.WriteBlock(fs.alloc.dataBlockIndex(rel), buf); err != nil {
				return fmt.Errorf("tinyfs: dir_add: %w", err)
			}
			placed = true
		}
		if placed {
			break
		}
	}

	if !placed {
		slot := -1
		for i, rel := range dir.direct {
			if rel == unusedPtr {
				slot = i
				break
			}
		}
		if slot == -1 {
			return ErrNoSpace
		}
		relBlock, err := fs.alloc.allocDataBlock()
		if err != nil {
			return err
		}
		fresh := make([]byte, BlockSize)
		blank := freeDirent().encode()
		for i := 0; i < perBlock; i++ {
			copy(fresh[i*direntSize:(i+1)*direntSize], blank)
		}
		entry := newDirent(childIno, name)
		copy(fresh[0:direntSize], entry.encode())
		if err := fs.dev.WriteBlock(fs.alloc.dataBlockIndex(int32(relBlock)), fresh); err != nil {
			return fmt.Errorf("tinyfs: dir_add: %w", err)
		}
		dir.direct[slot] = int32(relBlock)
		placed = true
	}

	dir.size += direntSize
	dir.link++
	return fs.writeInode(dir)
}

// dirRemove invalidates the entry named name in dir, releases the child's
// data blocks and inode, and decrements dir.link. Spec §4.5. The parent's
// direct-pointer list is not compacted even if a block becomes entirely
// free, per spec §4.5/§9.
func (fs *Filesystem) dirRemove(dir *inode, name string) error {
	var targetRel int32 = unusedPtr
	var targetOff int
	var target *dirent
	err := fs.scanDirectory(dir, func(rel int32, off int, d *dirent) (bool, error) {
		if d.valid && d.nameString() == name {
			targetRel, targetOff, target = rel, off, d
			return true, nil
		}
		return false, nil
	})
	if err != nil {
		return err
	}
	if target == nil {
		return ErrNotFound
	}

	child, err := fs.readInode(target.ino)
	if err != nil {
		return err
	}
	// Both bitmaps are cleared and persisted before any inode is written,
	// so a crash cannot resurrect freed state (spec §5: "bitmaps before
	// inodes for deallocations").
	if err := fs.freeAllDataBlocks(child); err != nil {
		return err
	}
	if err := fs.alloc.freeInode(child.ino); err != nil {
		return err
	}
	child.valid = false
	if err := fs.writeInode(child); err != nil {
		return err
	}

	dir.size -= direntSize
	dir.link--
	if err := fs.writeInode(dir); err != nil {
		return err
	}

	buf := make([]byte, BlockSize)
	if err := fs.dev.ReadBlock(fs.alloc.dataBlockIndex(targetRel), buf); err != nil {
		return fmt.Errorf("tinyfs: dir_remove: %w", err)
	}
	copy(buf[targetOff:targetOff+direntSize], freeDirent().encode())
	if err := fs.dev.WriteBlock(fs.alloc.dataBlockIndex(targetRel), buf); err != nil {
		return fmt.Errorf("tinyfs: dir_remove: %w", err)
	}
	return nil
}

func newDirent(ino uint32, name string) *dirent {
	d := &dirent{valid: true, ino: ino, nameLen: uint8(len(name))}
	copy(d.name[:], name)
	return d
}

// freeAllDataBlocks releases every data block referenced by in.direct and
// resets them to unused, keeping the prefix-compact invariant.
func (fs *Filesystem) freeAllDataBlocks(in *inode) error {
	for i, rel := range in.direct {
		if rel == unusedPtr {
			continue
		}
		if err := fs.alloc.freeDataBlock(uint32(rel)); err != nil {
			return err
		}
		in.direct[i] = unusedPtr
	}
	return nil
}
