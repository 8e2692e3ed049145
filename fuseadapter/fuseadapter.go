//go:build fuse

// Package fuseadapter is a thin FUSE shim over the core storage engine in
// github.com/tinyfs/go-tinyfs/filesystem/tinyfs. It translates kernel
// upcalls into the core surface operations (all of them except Truncate,
// which no upcall here reaches) and does no storage logic of its own. Build with -tags fuse; the core package has no FUSE
// dependency at all.
package fuseadapter

import (
	"context"
	"io"
	"io/fs"
	"path"
	"syscall"

	"github.com/hanwen/go-fuse/v2/fuse"
	gofuse "github.com/hanwen/go-fuse/v2/fs"
	"github.com/sirupsen/logrus"

	tfsfs "github.com/tinyfs/go-tinyfs/filesystem"
	"github.com/tinyfs/go-tinyfs/filesystem/tinyfs"
)

// node is one directory or file entry in the mounted tree. The FUSE kernel
// cache owns the inode graph; node only remembers the tinyfs-internal path
// it represents and looks everything else up on demand.
type node struct {
	gofuse.Inode
	fsys *tinyfs.Filesystem
	path string
}

var (
	_ gofuse.NodeLookuper  = (*node)(nil)
	_ gofuse.NodeReaddirer = (*node)(nil)
	_ gofuse.NodeGetattrer = (*node)(nil)
	_ gofuse.NodeMkdirer   = (*node)(nil)
	_ gofuse.NodeRmdirer   = (*node)(nil)
	_ gofuse.NodeCreater   = (*node)(nil)
	_ gofuse.NodeUnlinker  = (*node)(nil)
	_ gofuse.NodeOpener    = (*node)(nil)
)

func childPath(parent, name string) string {
	return path.Join(parent, name)
}

func attrFromInfo(info fs.FileInfo, out *fuse.Attr) {
	out.Mode = uint32(info.Mode().Perm())
	if info.IsDir() {
		out.Mode |= syscall.S_IFDIR
	} else {
		out.Mode |= syscall.S_IFREG
	}
	out.Size = uint64(info.Size())
	out.Mtime = uint64(info.ModTime().Unix())
	if nl, ok := info.(interface{ Nlink() uint32 }); ok {
		out.Nlink = nl.Nlink()
	} else {
		out.Nlink = 1
	}
}

func errnoFor(err error) syscall.Errno {
	switch {
	case err == nil:
		return 0
	case err == tinyfs.ErrNotFound:
		return syscall.ENOENT
	case err == tinyfs.ErrExist:
		return syscall.EEXIST
	case err == tinyfs.ErrNoSpace:
		return syscall.ENOSPC
	case err == tinyfs.ErrNotDirectory:
		return syscall.ENOTDIR
	case err == tinyfs.ErrIsDirectory:
		return syscall.EISDIR
	case err == tinyfs.ErrNotEmpty:
		return syscall.ENOTEMPTY
	case err == tinyfs.ErrInvalidName:
		return syscall.EINVAL
	default:
		return syscall.EIO
	}
}

// Lookup resolves name within this directory (spec's lookup/getattr path).
func (n *node) Lookup(ctx context.Context, name string, out *fuse.EntryOut) (*gofuse.Inode, syscall.Errno) {
	childP := childPath(n.path, name)
	info, err := n.fsys.Stat(childP)
	if err != nil {
		return nil, errnoFor(err)
	}
	attrFromInfo(info, &out.Attr)
	mode := uint32(syscall.S_IFREG)
	if info.IsDir() {
		mode = syscall.S_IFDIR
	}
	child := &node{fsys: n.fsys, path: childP}
	return n.NewInode(ctx, child, gofuse.StableAttr{Mode: mode}), 0
}

// Readdir lists the directory's children (spec's readdir).
func (n *node) Readdir(ctx context.Context) (gofuse.DirStream, syscall.Errno) {
	entries, err := n.fsys.ReadDir(n.path)
	if err != nil {
		return nil, errnoFor(err)
	}
	list := make([]fuse.DirEntry, 0, len(entries))
	for _, e := range entries {
		mode := uint32(syscall.S_IFREG)
		if e.IsDir() {
			mode = syscall.S_IFDIR
		}
		list = append(list, fuse.DirEntry{Name: e.Name(), Mode: mode})
	}
	return gofuse.NewListDirStream(list), 0
}

// Getattr fills out stat attributes (spec's getattr).
func (n *node) Getattr(ctx context.Context, f gofuse.FileHandle, out *fuse.AttrOut) syscall.Errno {
	info, err := n.fsys.Stat(n.path)
	if err != nil {
		return errnoFor(err)
	}
	attrFromInfo(info, &out.Attr)
	return 0
}

// Mkdir creates a subdirectory (spec's mkdir).
func (n *node) Mkdir(ctx context.Context, name string, mode uint32, out *fuse.EntryOut) (*gofuse.Inode, syscall.Errno) {
	childP := childPath(n.path, name)
	if err := n.fsys.Mkdir(childP); err != nil {
		return nil, errnoFor(err)
	}
	info, err := n.fsys.Stat(childP)
	if err != nil {
		return nil, errnoFor(err)
	}
	attrFromInfo(info, &out.Attr)
	child := &node{fsys: n.fsys, path: childP}
	return n.NewInode(ctx, child, gofuse.StableAttr{Mode: syscall.S_IFDIR}), 0
}

// Rmdir removes an empty subdirectory (spec's rmdir).
func (n *node) Rmdir(ctx context.Context, name string) syscall.Errno {
	return errnoFor(n.fsys.Rmdir(childPath(n.path, name)))
}

// Create makes a new regular file and opens it in one step (spec's create +
// open).
func (n *node) Create(ctx context.Context, name string, flags, mode uint32, out *fuse.EntryOut) (*gofuse.Inode, gofuse.FileHandle, uint32, syscall.Errno) {
	childP := childPath(n.path, name)
	if err := n.fsys.Create(childP); err != nil {
		return nil, nil, 0, errnoFor(err)
	}
	info, err := n.fsys.Stat(childP)
	if err != nil {
		return nil, nil, 0, errnoFor(err)
	}
	attrFromInfo(info, &out.Attr)
	child := &node{fsys: n.fsys, path: childP}
	inode := n.NewInode(ctx, child, gofuse.StableAttr{Mode: syscall.S_IFREG})

	f, err := n.fsys.OpenFile(childP)
	if err != nil {
		return inode, nil, 0, errnoFor(err)
	}
	return inode, &handle{f: f}, 0, 0
}

// Unlink removes a regular file (spec's unlink).
func (n *node) Unlink(ctx context.Context, name string) syscall.Errno {
	return errnoFor(n.fsys.Remove(childPath(n.path, name)))
}

// Open opens an existing regular file for read/write (spec's open).
func (n *node) Open(ctx context.Context, flags uint32) (gofuse.FileHandle, uint32, syscall.Errno) {
	f, err := n.fsys.OpenFile(n.path)
	if err != nil {
		return nil, 0, errnoFor(err)
	}
	return &handle{f: f}, 0, 0
}

// handle adapts a tinyfs file to the go-fuse per-open-file-descriptor
// interfaces; it serializes every access behind Seek+Read/Write because the
// core File type is an io.ReadWriteSeeker, not a ReaderAt/WriterAt.
type handle struct {
	f tfsfs.File
}

var (
	_ gofuse.FileReader = (*handle)(nil)
	_ gofuse.FileWriter = (*handle)(nil)
)

func (h *handle) Read(ctx context.Context, dest []byte, off int64) (fuse.ReadResult, syscall.Errno) {
	if _, err := h.f.Seek(off, io.SeekStart); err != nil {
		return nil, syscall.EIO
	}
	n, err := h.f.Read(dest)
	if err != nil && err != io.EOF {
		return nil, syscall.EIO
	}
	return fuse.ReadResultData(dest[:n]), 0
}

func (h *handle) Write(ctx context.Context, data []byte, off int64) (uint32, syscall.Errno) {
	if _, err := h.f.Seek(off, io.SeekStart); err != nil {
		return 0, syscall.EIO
	}
	n, err := h.f.Write(data)
	if err != nil {
		return uint32(n), syscall.EIO
	}
	return uint32(n), 0
}

// Mount mounts fsys at mountpoint and returns once the mount is live. It does
// not manage the caller's goroutine tree; callers invoke Unmount (via the
// returned *fuse.Server) or send SIGINT to unmount.
func Mount(fsys *tinyfs.Filesystem, mountpoint string) (*fuse.Server, error) {
	root := &node{fsys: fsys, path: "/"}
	opts := &gofuse.Options{
		MountOptions: fuse.MountOptions{
			FsName: "tinyfs",
			Name:   "tinyfs",
		},
	}
	server, err := gofuse.Mount(mountpoint, root, opts)
	if err != nil {
		return nil, err
	}
	logrus.WithField("mountpoint", mountpoint).Info("tinyfs mounted")
	return server, nil
}
