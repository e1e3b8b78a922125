//go:build !darwin && !linux

package diskimage

import (
	"errors"
	"runtime"
)

// errFreeSpaceUnsupported is returned on platforms without statfs support here.
var errFreeSpaceUnsupported = errors.New("free space check not supported on " + runtime.GOOS)

// FreeSpace is not implemented on this platform.
func FreeSpace(string) (uint64, error) {
	return 0, errFreeSpaceUnsupported
}
