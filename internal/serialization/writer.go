package serialization

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"os"
	"sync"

	"github.com/born-ml/tileflip/internal/tensor"
)

// encodeFixedHeader builds the 64-byte fixed header.
func encodeFixedHeader(flags uint32, headerSize, dataSize uint64, checksum [ChecksumSize]byte) []byte {
	fixed := make([]byte, FixedHeaderSize)

	// 0x00-0x03: Magic bytes "TFLP"
	copy(fixed[0:4], MagicBytes)
	// 0x04-0x07: Version
	binary.LittleEndian.PutUint32(fixed[4:8], uint32(FormatVersion))
	// 0x08-0x0B: Flags
	binary.LittleEndian.PutUint32(fixed[8:12], flags)
	// 0x0C-0x0F: Reserved (0)
	// 0x10-0x17: Header size
	binary.LittleEndian.PutUint64(fixed[16:24], headerSize)
	// 0x18-0x1F: Data size
	binary.LittleEndian.PutUint64(fixed[24:32], dataSize)
	// 0x20-0x3F: SHA-256 checksum
	copy(fixed[ChecksumOffset:ChecksumOffset+ChecksumSize], checksum[:])

	return fixed
}

// TileWriter writes the tiles of one array into a .tflp file, in any order
// and from any number of goroutines.
type TileWriter struct {
	mu         sync.RWMutex
	file       *os.File
	header     Header
	dataOffset int64
	dataSize   int64
	tileBytes  int
	numTiles   int
	closed     bool
}

// Create creates a .tflp file for header with a zero-filled data section.
// Call Close to compute the checksum; a file that was never closed fails
// checksum verification.
func Create(path string, header Header) (*TileWriter, error) {
	if header.FormatVersion == 0 {
		header.FormatVersion = FormatVersion
	}
	if err := ValidateHeader(&header, -1); err != nil {
		return nil, fmt.Errorf("invalid header: %w", err)
	}

	headerJSON, err := json.Marshal(header)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal header: %w", err)
	}
	if len(headerJSON) > MaxHeaderSize {
		return nil, ErrHeaderTooLarge
	}

	var flags uint32
	if len(header.Metadata) > 0 {
		flags |= FlagHasMetadata
	}
	if _, ok := header.Metadata[MetaFlipAxes]; ok {
		flags |= FlagFlipped
	}

	//nolint:gosec // G304: File path comes from user input, which is expected for array files
	file, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("failed to create file: %w", err)
	}

	w := &TileWriter{
		file:       file,
		header:     header,
		dataOffset: dataOffset(int64(len(headerJSON))),
		dataSize:   header.DataSize(),
		tileBytes:  header.TileBytes(),
		numTiles:   header.NumTiles(),
	}

	//nolint:gosec // G115: sizes are bounded by validation
	fixed := encodeFixedHeader(flags, uint64(len(headerJSON)), uint64(w.dataSize), [ChecksumSize]byte{})
	if _, err := file.Write(fixed); err != nil {
		_ = file.Close()
		return nil, fmt.Errorf("failed to write fixed header: %w", err)
	}
	if _, err := file.Write(headerJSON); err != nil {
		_ = file.Close()
		return nil, fmt.Errorf("failed to write header JSON: %w", err)
	}
	// Padding and the data section are zero-filled by extending the file.
	if err := file.Truncate(w.dataOffset + w.dataSize); err != nil {
		_ = file.Close()
		return nil, fmt.Errorf("failed to size data section: %w", err)
	}

	return w, nil
}

// Header returns the header the file was created with.
func (w *TileWriter) Header() Header {
	return w.header
}

// NumTiles returns the number of tiles in the file.
func (w *TileWriter) NumTiles() int {
	return w.numTiles
}

// TileBytes returns the byte size of one tile.
func (w *TileWriter) TileBytes() int {
	return w.tileBytes
}

// WriteTile writes data as tile i.
func (w *TileWriter) WriteTile(i int, data []byte) error {
	w.mu.RLock()
	defer w.mu.RUnlock()

	if w.closed {
		return ErrClosed
	}
	if i < 0 || i >= w.numTiles {
		return fmt.Errorf("%w: tile %d of %d", ErrOutOfBounds, i, w.numTiles)
	}
	if len(data) != w.tileBytes {
		return fmt.Errorf("tile %d has %d bytes, want %d", i, len(data), w.tileBytes)
	}

	off := w.dataOffset + int64(i)*int64(w.tileBytes)
	if _, err := w.file.WriteAt(data, off); err != nil {
		return fmt.Errorf("failed to write tile %d: %w", i, err)
	}
	return nil
}

// Close computes the data checksum, stores it in the fixed header and closes
// the file. Calling Close more than once is safe.
func (w *TileWriter) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return nil
	}
	w.closed = true

	sum, err := ComputeChecksumAt(w.file, w.dataOffset, w.dataSize)
	if err != nil {
		_ = w.file.Close()
		return fmt.Errorf("failed to compute checksum: %w", err)
	}
	if _, err := w.file.WriteAt(sum[:], ChecksumOffset); err != nil {
		_ = w.file.Close()
		return fmt.Errorf("failed to write checksum: %w", err)
	}
	return w.file.Close()
}

// WriteFile writes a complete tile-major data section to a new .tflp file.
func WriteFile(path string, header Header, data []byte) error {
	w, err := Create(path, header)
	if err != nil {
		return err
	}
	if int64(len(data)) != w.dataSize {
		_ = w.Close()
		return fmt.Errorf("%w: %d bytes of data, header needs %d", ErrOutOfBounds, len(data), w.dataSize)
	}
	for i := 0; i < w.numTiles; i++ {
		if err := w.WriteTile(i, data[i*w.tileBytes:(i+1)*w.tileBytes]); err != nil {
			_ = w.Close()
			return err
		}
	}
	return w.Close()
}

// WriteTensor writes a tiled tensor to a new .tflp file.
func WriteTensor(path string, raw *tensor.RawTensor, metadata map[string]string) error {
	if raw.Layout() != tensor.Tiled {
		return fmt.Errorf("%w: tensor layout is %s, want tiled", tensor.ErrPrecondition, raw.Layout())
	}
	header := NewHeader(raw.Shape(), raw.Tile(), raw.DType())
	header.Metadata = metadata
	return WriteFile(path, header, raw.Data())
}
