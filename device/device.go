// Package device implements the block-device primitives the storage engine
// is built on: dev_init, dev_open, dev_close, block_read and block_write,
// per spec §4.1 and §6. It is a thin wrapper around backend.Storage that
// adds the fixed block-size framing the rest of the module assumes.
package device

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/sirupsen/logrus"

	"github.com/tinyfs/go-tinyfs/backend"
	"github.com/tinyfs/go-tinyfs/backend/file"
)

// ErrWrongSize is returned by Open when the backing file's size is not an
// exact multiple of the block size, so it cannot hold a whole number of
// blocks.
var ErrWrongSize = errors.New("backing file size is not a multiple of the block size")

// Device is the block-device abstraction consumed by the core storage
// engine. Exactly one Device is open at a time per Filesystem, matching the
// single in-process, single-writer model of spec §5.
type Device struct {
	storage   backend.Storage
	writable  backend.WritableFile
	blockSize int
	blocks    int64
	log       *logrus.Entry
}

// Init creates the backing file sized to hold numBlocks blocks of blockSize
// bytes, and returns it open for read-write use. It fails if a file already
// exists at path; it never truncates an existing file. This is
// dev_init(path) in spec §4.1/§6: callers invoke it only when mkfs needs a
// fresh image.
func Init(path string, blockSize int, numBlocks int64) (*Device, error) {
	size := int64(blockSize) * numBlocks
	st, err := file.CreateFromPath(path, size)
	if err != nil {
		return nil, fmt.Errorf("device: init %s: %w", path, err)
	}
	return wrap(st, blockSize, numBlocks)
}

// Open opens an existing backing file for read-write block access. This is
// dev_open(path) in spec §4.1/§6; it returns a non-nil error when the file
// is absent, and creates nothing.
func Open(path string, blockSize int) (*Device, error) {
	st, err := file.OpenFromPath(path, false)
	if err != nil {
		return nil, err
	}
	info, err := st.Stat()
	if err != nil {
		_ = st.Close()
		return nil, err
	}
	size, err := sizeOf(st, info)
	if err != nil {
		_ = st.Close()
		return nil, err
	}
	if size%int64(blockSize) != 0 {
		_ = st.Close()
		return nil, ErrWrongSize
	}
	return wrap(st, blockSize, size/int64(blockSize))
}

func wrap(st backend.Storage, blockSize int, numBlocks int64) (*Device, error) {
	wf, err := st.Writable()
	if err != nil {
		_ = st.Close()
		return nil, fmt.Errorf("device: backing file not writable: %w", err)
	}
	return &Device{
		storage:   st,
		writable:  wf,
		blockSize: blockSize,
		blocks:    numBlocks,
		log:       logrus.WithField("component", "device"),
	}, nil
}

// sizeOf queries the real size of the backing storage: for a regular file
// that is fs.FileInfo.Size(); for a block-special device (DISKFILE pointed
// at /dev/... instead of a regular image file) the stat size is usually
// reported as 0, so the platform-specific probe in device_unix.go/
// device_other.go is used instead.
func sizeOf(st backend.Storage, info fs.FileInfo) (int64, error) {
	if info.Mode()&os.ModeDevice == 0 {
		return info.Size(), nil
	}
	osFile, err := st.Sys()
	if err != nil {
		return 0, fmt.Errorf("device: cannot size block device: %w", err)
	}
	return blockDeviceSize(osFile)
}

// BlockSize returns the fixed block size this device was opened with.
func (d *Device) BlockSize() int {
	return d.blockSize
}

// Blocks returns the total number of addressable blocks.
func (d *Device) Blocks() int64 {
	return d.blocks
}

// ReadBlock reads exactly BlockSize bytes for block index into buf. This is
// bio_read(idx, buf) in spec §6.
func (d *Device) ReadBlock(index int64, buf []byte) error {
	if err := d.checkRange(index, len(buf)); err != nil {
		return err
	}
	off := index * int64(d.blockSize)
	n, err := d.storage.ReadAt(buf[:d.blockSize], off)
	if err != nil {
		return fmt.Errorf("device: read block %d: %w", index, err)
	}
	if n != d.blockSize {
		return fmt.Errorf("device: short read of block %d: got %d of %d bytes", index, n, d.blockSize)
	}
	return nil
}

// WriteBlock writes exactly BlockSize bytes from buf to block index. This is
// bio_write(idx, buf) in spec §6; it is atomic with respect to the single
// block only, per spec §5.
func (d *Device) WriteBlock(index int64, buf []byte) error {
	if err := d.checkRange(index, len(buf)); err != nil {
		return err
	}
	off := index * int64(d.blockSize)
	n, err := d.writable.WriteAt(buf[:d.blockSize], off)
	if err != nil {
		return fmt.Errorf("device: write block %d: %w", index, err)
	}
	if n != d.blockSize {
		return fmt.Errorf("device: short write of block %d: wrote %d of %d bytes", index, n, d.blockSize)
	}
	return nil
}

func (d *Device) checkRange(index int64, bufLen int) error {
	if index < 0 || index >= d.blocks {
		return fmt.Errorf("device: block index %d out of range [0,%d)", index, d.blocks)
	}
	if bufLen < d.blockSize {
		return fmt.Errorf("device: buffer too small: %d < %d", bufLen, d.blockSize)
	}
	return nil
}

// Close flushes and closes the backing file. This is dev_close() in spec
// §4.1/§6.
func (d *Device) Close() error {
	d.log.Debug("closing backing file")
	return d.storage.Close()
}
