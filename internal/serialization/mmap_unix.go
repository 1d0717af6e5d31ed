//go:build linux || darwin || freebsd

package serialization

import (
	"os"

	"golang.org/x/sys/unix"
)

// mapFile maps size bytes of f read-only into memory.
func mapFile(f *os.File, size int64) ([]byte, error) {
	return unix.Mmap(
		int(f.Fd()), //nolint:gosec // G115: file descriptor fits in int
		0,
		int(size), //nolint:gosec // G115: file size validated by caller
		unix.PROT_READ,
		unix.MAP_SHARED,
	)
}

// unmapFile releases a mapping returned by mapFile.
func unmapFile(data []byte) error {
	return unix.Munmap(data)
}
