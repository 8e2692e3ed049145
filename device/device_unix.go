//go:build linux

package device

import (
	"fmt"
	"os"

	"golang.org/x/sys/unix"
)

// blockDeviceSize reports the size in bytes of a real block-special device
// via the BLKGETSIZE64 ioctl, since os.Stat on a device node reports 0. The
// technique — an ioctl against the raw fd behind an *os.File, split by build
// tag per platform — follows go-diskfs's own device-node probes (disk/
// disk_unix.go's BLKRRPART re-read, diskfs_darwin.go's DKIOCGETBLOCKSIZE
// sector-size probe); BLKGETSIZE64 itself is not a call go-diskfs makes.
func blockDeviceSize(f *os.File) (int64, error) {
	size, err := unix.IoctlGetUint64(int(f.Fd()), unix.BLKGETSIZE64)
	if err != nil {
		return 0, fmt.Errorf("BLKGETSIZE64 on %s: %w", f.Name(), err)
	}
	return int64(size), nil
}
