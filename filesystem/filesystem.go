// Package filesystem provides the interface and shared errors common to
// namespace-style filesystem implementations in this module. The only
// implementation is filesystem/tinyfs.
package filesystem

import (
	"errors"
	"io"
	"io/fs"
)

var (
	// ErrNotSupported marks a capability spec.md's Non-goals explicitly exclude
	// (hard links across directories, symlinks, extended attributes, indirect
	// blocks).
	ErrNotSupported = errors.New("method not supported by this filesystem")
)

// FileSystem is a reference to a single mounted namespace.
type FileSystem interface {
	// Type returns the type of filesystem.
	Type() Type
	// Mkdir creates a directory. Returns an already-exists error if the
	// directory (or any other entry) already occupies that name.
	Mkdir(pathname string) error
	// Rmdir removes an empty directory.
	Rmdir(pathname string) error
	// Create creates an empty regular file.
	Create(pathname string) error
	// ReadDir reads the contents of a directory.
	ReadDir(pathname string) ([]fs.DirEntry, error)
	// OpenFile opens a handle to read or write to a regular file.
	OpenFile(pathname string) (File, error)
	// Remove removes a regular file.
	Remove(pathname string) error
	// Truncate changes the size of a regular file.
	Truncate(pathname string, size int64) error
	// Stat returns file-status attributes for the named path.
	Stat(pathname string) (fs.FileInfo, error)
}

// File is a handle to an open regular file.
type File interface {
	io.Reader
	io.Writer
	io.Seeker
	io.Closer
}

// Type represents the type of filesystem this is.
type Type int

const (
	// TypeTinyFS is the tiny user-space filesystem implemented in this module.
	TypeTinyFS Type = iota
)
