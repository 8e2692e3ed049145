package tinyfs

import "errors"

// Error kinds, per spec §7. All are sentinel errors comparable with
// errors.Is. Device I/O failures have no sentinel of their own: they are
// returned as the device error wrapped with %w, so the original cause is
// still inspectable.
var (
	// ErrNotFound is returned when a path component does not exist.
	ErrNotFound = errors.New("tinyfs: no such file or directory")
	// ErrExist is returned when an operation would create a duplicate name
	// in a directory.
	ErrExist = errors.New("tinyfs: file or directory already exists")
	// ErrNoSpace is returned when the inode bitmap or the data bitmap is
	// exhausted.
	ErrNoSpace = errors.New("tinyfs: no space left on device")
	// ErrNotDirectory is returned when a path component that must be a
	// directory is a regular file.
	ErrNotDirectory = errors.New("tinyfs: not a directory")
	// ErrIsDirectory is returned when an operation requiring a regular file
	// is given a directory.
	ErrIsDirectory = errors.New("tinyfs: is a directory")
	// ErrNotEmpty is returned by Rmdir when the directory still has live
	// entries.
	ErrNotEmpty = errors.New("tinyfs: directory not empty")
	// ErrInvalidName is returned for an empty name or one exceeding NameMax.
	ErrInvalidName = errors.New("tinyfs: invalid name")
	// ErrCorrupt marks an on-disk structure that fails its own invariants
	// (e.g. a superblock with the wrong magic number). An inode whose ino
	// does not match its table position is not reported with it: readInode
	// panics instead, treating that as a programming/data fault.
	ErrCorrupt = errors.New("tinyfs: corrupt on-disk structure")
)
