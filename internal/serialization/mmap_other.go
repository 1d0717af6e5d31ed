//go:build !linux && !darwin && !freebsd

package serialization

import (
	"fmt"
	"io"
	"os"
)

// mapFile reads the whole file on platforms without a mapping syscall here.
func mapFile(f *os.File, size int64) ([]byte, error) {
	data := make([]byte, size)
	if _, err := io.ReadFull(io.NewSectionReader(f, 0, size), data); err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}
	return data, nil
}

// unmapFile is a no-op; the buffer is garbage collected.
func unmapFile(_ []byte) error {
	return nil
}
