// Package tinyfs implements the on-disk storage engine of spec.md: a tiny
// POSIX-like hierarchical namespace of directories and regular files backed
// by a single block device (see github.com/tinyfs/go-tinyfs/device, which
// holds the block-device abstraction). This package holds the rest of
// spec.md's subject — the superblock/bitmap/inode-table layout, directory and path-resolution
// algorithms, and file read/write, all living as methods on Filesystem so
// there is no module-level mutable state (spec §9 "Design Notes").
package tinyfs

import (
	"fmt"
	fs2 "io/fs"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/tinyfs/go-tinyfs/device"
	gofs "github.com/tinyfs/go-tinyfs/filesystem"
	"github.com/tinyfs/go-tinyfs/util/bitmap"
)

// Filesystem owns the device handle and both in-memory bitmap mirrors for
// one mounted image. All operations are methods on this value; per spec §5
// there is exactly one writer and no internal locking.
type Filesystem struct {
	dev   *device.Device
	sb    *superblock
	alloc *allocator
	log   *logrus.Entry
}

var _ gofs.FileSystem = (*Filesystem)(nil)

// Mkfs creates a brand-new image at path and initializes the superblock,
// both bitmaps, the inode table, and the root directory (ino 0, spec §3
// "Lifecycle"). It is the mkfs operation of spec §4/§6.
func Mkfs(path string) (*Filesystem, error) {
	sb := newSuperblock()
	dev, err := device.Init(path, BlockSize, sb.totalBlocks())
	if err != nil {
		return nil, fmt.Errorf("tinyfs: mkfs: %w", err)
	}
	log := logrus.WithFields(logrus.Fields{"component": "tinyfs", "op": "mkfs", "path": path})

	if err := dev.WriteBlock(superblockBlock, sb.encode()); err != nil {
		_ = dev.Close()
		return nil, fmt.Errorf("tinyfs: mkfs: write superblock: %w", err)
	}
	emptyBM := bitmap.NewBytes(BlockSize).ToBytes()
	if err := dev.WriteBlock(inodeBitmapBlock, emptyBM); err != nil {
		_ = dev.Close()
		return nil, fmt.Errorf("tinyfs: mkfs: write inode bitmap: %w", err)
	}
	if err := dev.WriteBlock(dataBitmapBlock, emptyBM); err != nil {
		_ = dev.Close()
		return nil, fmt.Errorf("tinyfs: mkfs: write data bitmap: %w", err)
	}

	fsys := &Filesystem{dev: dev, sb: sb, log: log}
	fsys.alloc, err = loadAllocator(dev, sb)
	if err != nil {
		_ = dev.Close()
		return nil, err
	}

	rootNum, err := fsys.alloc.allocInode()
	if err != nil || rootNum != rootIno {
		_ = dev.Close()
		return nil, fmt.Errorf("tinyfs: mkfs: root inode allocation returned %d, want %d", rootNum, rootIno)
	}
	root := newInode(rootIno, typeDirectory, 0o755)
	if err := fsys.writeInode(root); err != nil {
		_ = dev.Close()
		return nil, fmt.Errorf("tinyfs: mkfs: write root inode: %w", err)
	}
	log.Info("created filesystem image")
	return fsys, nil
}

// Mount opens an existing image at path. It is the init operation of spec
// §6 for an image that already exists: when the backing file is absent
// (dev_open's -1 case in spec §6) it returns an error and does not create
// an image. Only Mkfs creates new images.
func Mount(path string) (*Filesystem, error) {
	dev, err := device.Open(path, BlockSize)
	if err != nil {
		return nil, fmt.Errorf("tinyfs: mount: %w", err)
	}
	buf := make([]byte, BlockSize)
	if err := dev.ReadBlock(superblockBlock, buf); err != nil {
		_ = dev.Close()
		return nil, fmt.Errorf("tinyfs: mount: read superblock: %w", err)
	}
	sb, err := decodeSuperblock(buf)
	if err != nil {
		_ = dev.Close()
		return nil, fmt.Errorf("tinyfs: mount: %w", err)
	}
	alloc, err := loadAllocator(dev, sb)
	if err != nil {
		_ = dev.Close()
		return nil, err
	}
	log := logrus.WithFields(logrus.Fields{"component": "tinyfs", "op": "mount", "path": path})
	log.Debug("mounted filesystem image")
	return &Filesystem{dev: dev, sb: sb, alloc: alloc, log: log}, nil
}

// Close releases in-memory state and closes the device. This is the
// destroy operation of spec §6.
func (fs *Filesystem) Close() error {
	fs.log.Debug("unmounting filesystem image")
	return fs.dev.Close()
}

// Type returns the type of filesystem.
func (fs *Filesystem) Type() gofs.Type { return gofs.TypeTinyFS }

// Mkdir creates a directory at pathname. Spec §6 mkdir: -EEXIST on
// duplicate name, -ENOENT on a missing parent.
func (fs *Filesystem) Mkdir(pathname string) error {
	parent, name, err := fs.resolveParent(pathname)
	if err != nil {
		return err
	}
	ino, err := fs.alloc.allocInode()
	if err != nil {
		return err
	}
	child := newInode(ino, typeDirectory, 0o755)
	if err := fs.writeInode(child); err != nil {
		return err
	}
	if err := fs.dirAdd(parent, ino, name); err != nil {
		_ = fs.alloc.freeInode(ino)
		return err
	}
	fs.log.WithFields(logrus.Fields{"op": "mkdir", "path": pathname, "ino": ino}).Debug("created directory")
	return nil
}

// Rmdir removes an empty directory.
func (fs *Filesystem) Rmdir(pathname string) error {
	target, err := fs.resolve(pathname)
	if err != nil {
		return err
	}
	if !target.isDir() {
		return ErrNotDirectory
	}
	if target.size > 0 {
		return ErrNotEmpty
	}
	parent, name, err := fs.resolveParent(pathname)
	if err != nil {
		return err
	}
	if err := fs.dirRemove(parent, name); err != nil {
		return err
	}
	fs.log.WithFields(logrus.Fields{"op": "rmdir", "path": pathname}).Debug("removed directory")
	return nil
}

// Create creates an empty regular file. Spec §6 create.
func (fs *Filesystem) Create(pathname string) error {
	parent, name, err := fs.resolveParent(pathname)
	if err != nil {
		return err
	}
	ino, err := fs.alloc.allocInode()
	if err != nil {
		return err
	}
	child := newInode(ino, typeRegular, 0o644)
	if err := fs.writeInode(child); err != nil {
		return err
	}
	if err := fs.dirAdd(parent, ino, name); err != nil {
		_ = fs.alloc.freeInode(ino)
		return err
	}
	fs.log.WithFields(logrus.Fields{"op": "create", "path": pathname, "ino": ino}).Debug("created file")
	return nil
}

// ReadDir reads the contents of a directory. Spec §6 readdir.
func (fs *Filesystem) ReadDir(pathname string) ([]fs2.DirEntry, error) {
	dir, err := fs.resolve(pathname)
	if err != nil {
		return nil, err
	}
	if !dir.isDir() {
		return nil, ErrNotDirectory
	}
	var entries []fs2.DirEntry
	err = fs.scanDirectory(dir, func(_ int32, _ int, d *dirent) (bool, error) {
		if !d.valid {
			return false, nil
		}
		child, err := fs.readInode(d.ino)
		if err != nil {
			return true, err
		}
		entries = append(entries, dirEntry{name: d.nameString(), in: child})
		return false, nil
	})
	return entries, err
}

// OpenFile opens a handle to read or write to a regular file. Spec §6 open.
func (fs *Filesystem) OpenFile(pathname string) (gofs.File, error) {
	target, err := fs.resolve(pathname)
	if err != nil {
		return nil, err
	}
	if target.isDir() {
		return nil, ErrIsDirectory
	}
	return &File{fs: fs, ino: target}, nil
}

// Remove removes a regular file. Spec §6 unlink.
func (fs *Filesystem) Remove(pathname string) error {
	target, err := fs.resolve(pathname)
	if err != nil {
		return err
	}
	if target.isDir() {
		return ErrIsDirectory
	}
	parent, name, err := fs.resolveParent(pathname)
	if err != nil {
		return err
	}
	if err := fs.dirRemove(parent, name); err != nil {
		return err
	}
	fs.log.WithFields(logrus.Fields{"op": "unlink", "path": pathname}).Debug("removed file")
	return nil
}

// Truncate changes the size of a regular file (supplemented operation, see
// SPEC_FULL.md §3).
func (fs *Filesystem) Truncate(pathname string, size int64) error {
	target, err := fs.resolve(pathname)
	if err != nil {
		return err
	}
	if target.isDir() {
		return ErrIsDirectory
	}
	return fs.truncate(target, size)
}

// Stat returns file-status attributes for the named path. Spec §6 getattr.
func (fs *Filesystem) Stat(pathname string) (fs2.FileInfo, error) {
	target, err := fs.resolve(pathname)
	if err != nil {
		return nil, err
	}
	name := "/"
	if pathname != "/" && pathname != "" {
		comps := splitPath(pathname)
		if len(comps) > 0 {
			name = comps[len(comps)-1]
		}
	}
	return fileInfo{name: name, in: target}, nil
}

// fileInfo adapts an inode to fs2.FileInfo, matching the original's
// tfs_getattr mapping (SPEC_FULL.md §3): directories get nlink 2 and
// S_IFDIR, files get nlink 1 and S_IFREG.
type fileInfo struct {
	name string
	in   *inode
}

func (fi fileInfo) Name() string { return fi.name }
func (fi fileInfo) Size() int64  { return int64(fi.in.size) }
func (fi fileInfo) Mode() fs2.FileMode {
	m := fs2.FileMode(fi.in.mode & 0o777)
	if fi.in.isDir() {
		m |= fs2.ModeDir
	}
	return m
}
func (fi fileInfo) ModTime() time.Time { return time.Unix(0, fi.in.mtimeNs) }
func (fi fileInfo) IsDir() bool        { return fi.in.isDir() }
func (fi fileInfo) Sys() any           { return fi.in }

// Nlink returns st_nlink for FUSE getattr/stat consumers, using the
// tfs_getattr mapping: 2 for directories, 1 for regular files. The inode's
// own link field is advisory (spec §9) and is not reported here.
func (fi fileInfo) Nlink() uint32 {
	if fi.in.isDir() {
		return 2
	}
	return 1
}

// dirEntry adapts an inode + name to fs2.DirEntry for ReadDir results.
type dirEntry struct {
	name string
	in   *inode
}

func (d dirEntry) Name() string                { return d.name }
func (d dirEntry) IsDir() bool                 { return d.in.isDir() }
func (d dirEntry) Type() fs2.FileMode          { return fileInfo{in: d.in}.Mode().Type() }
func (d dirEntry) Info() (fs2.FileInfo, error) { return fileInfo{name: d.name, in: d.in}, nil }
