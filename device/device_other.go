//go:build !linux

package device

import (
	"errors"
	"os"
)

// blockDeviceSize is only implemented on Linux; on other platforms DISKFILE
// must be a regular image file rather than a raw block-special device.
func blockDeviceSize(f *os.File) (int64, error) {
	return 0, errors.New("device: raw block-special devices are not supported on this platform, use a regular image file")
}
