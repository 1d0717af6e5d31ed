package serialization

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"os"
	"sync"

	"github.com/born-ml/tileflip/internal/tensor"
)

// Reader provides memory-mapped, read-only access to a .tflp file.
// Tile views are valid only while the reader is open.
type Reader struct {
	mu         sync.RWMutex
	file       *os.File
	data       []byte // mapped region (read-only)
	size       int64
	header     Header
	version    uint32
	flags      uint32
	dataOffset int64
	dataSize   int64
	checksum   [ChecksumSize]byte
	tileBytes  int
	numTiles   int
	closed     bool
}

// Open memory-maps a .tflp file and parses its header.
//
// Important: Always call Close() when done to unmap the file (use defer).
func Open(path string) (*Reader, error) {
	//nolint:gosec // G304: File path comes from user input, which is expected for array files
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}

	stat, err := file.Stat()
	if err != nil {
		_ = file.Close()
		return nil, fmt.Errorf("failed to stat file: %w", err)
	}
	if stat.Size() < FixedHeaderSize {
		_ = file.Close()
		return nil, fmt.Errorf("file too small: %d bytes (minimum %d bytes required)", stat.Size(), FixedHeaderSize)
	}

	data, err := mapFile(file, stat.Size())
	if err != nil {
		_ = file.Close()
		return nil, fmt.Errorf("mmap failed: %w", err)
	}

	r := &Reader{
		file: file,
		data: data,
		size: stat.Size(),
	}
	if err := r.parseHeader(); err != nil {
		_ = r.Close()
		return nil, fmt.Errorf("failed to parse header: %w", err)
	}
	return r, nil
}

// parseHeader reads the fixed header and the JSON header from the mapped region.
func (r *Reader) parseHeader() error {
	if string(r.data[0:4]) != MagicBytes {
		return ErrInvalidMagic
	}

	r.version = binary.LittleEndian.Uint32(r.data[4:8])
	if r.version != FormatVersion {
		return fmt.Errorf("%w: got %d, expected %d", ErrUnsupportedVersion, r.version, FormatVersion)
	}
	r.flags = binary.LittleEndian.Uint32(r.data[8:12])

	headerSize := binary.LittleEndian.Uint64(r.data[16:24])
	if headerSize > MaxHeaderSize {
		return ErrHeaderTooLarge
	}
	dataSize := binary.LittleEndian.Uint64(r.data[24:32])
	if dataSize > uint64(r.size) {
		return fmt.Errorf("%w: data size %d exceeds file size %d", ErrOutOfBounds, dataSize, r.size)
	}
	r.dataSize = int64(dataSize)
	copy(r.checksum[:], r.data[ChecksumOffset:ChecksumOffset+ChecksumSize])

	//nolint:gosec // G115: headerSize is bounded by MaxHeaderSize
	headerEnd := int64(FixedHeaderSize) + int64(headerSize)
	if headerEnd > r.size {
		return fmt.Errorf("header extends beyond file: header_end=%d, file_size=%d", headerEnd, r.size)
	}
	if err := json.Unmarshal(r.data[FixedHeaderSize:headerEnd], &r.header); err != nil {
		return fmt.Errorf("failed to parse header JSON: %w", err)
	}

	//nolint:gosec // G115: headerSize is bounded by MaxHeaderSize
	r.dataOffset = dataOffset(int64(headerSize))
	if r.dataOffset+r.dataSize > r.size {
		return fmt.Errorf("%w: data section [%d,%d) beyond file size %d",
			ErrOutOfBounds, r.dataOffset, r.dataOffset+r.dataSize, r.size)
	}

	if err := ValidateHeader(&r.header, r.dataSize); err != nil {
		return fmt.Errorf("header validation failed: %w", err)
	}
	r.tileBytes = r.header.TileBytes()
	r.numTiles = r.header.NumTiles()
	return nil
}

// Close unmaps and closes the file.
func (r *Reader) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return nil
	}
	r.closed = true

	var err error
	if r.data != nil {
		err = unmapFile(r.data)
		r.data = nil
	}
	if closeErr := r.file.Close(); closeErr != nil && err == nil {
		err = closeErr
	}
	return err
}

// Header returns the file header.
func (r *Reader) Header() Header {
	return r.header
}

// Flags returns the flags bitfield.
func (r *Reader) Flags() uint32 {
	return r.flags
}

// Checksum returns the stored SHA-256 checksum.
func (r *Reader) Checksum() [ChecksumSize]byte {
	return r.checksum
}

// NumTiles returns the number of tiles in the file.
func (r *Reader) NumTiles() int {
	return r.numTiles
}

// TileBytes returns the byte size of one tile.
func (r *Reader) TileBytes() int {
	return r.tileBytes
}

// Tile returns a zero-copy view of tile i.
// WARNING: The data is read-only - writing to it will cause undefined behavior.
func (r *Reader) Tile(i int) ([]byte, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.tile(i)
}

// ReadTile copies tile i into dst.
func (r *Reader) ReadTile(i int, dst []byte) error {
	r.mu.RLock()
	defer r.mu.RUnlock()

	src, err := r.tile(i)
	if err != nil {
		return err
	}
	if len(dst) != len(src) {
		return fmt.Errorf("tile %d has %d bytes, buffer has %d", i, len(src), len(dst))
	}
	copy(dst, src)
	return nil
}

func (r *Reader) tile(i int) ([]byte, error) {
	if r.closed {
		return nil, ErrClosed
	}
	if i < 0 || i >= r.numTiles {
		return nil, fmt.Errorf("%w: tile %d of %d", ErrOutOfBounds, i, r.numTiles)
	}
	start := r.dataOffset + int64(i)*int64(r.tileBytes)
	return r.data[start : start+int64(r.tileBytes)], nil
}

// Data returns a zero-copy view of the whole data section.
func (r *Reader) Data() ([]byte, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.closed {
		return nil, ErrClosed
	}
	return r.data[r.dataOffset : r.dataOffset+r.dataSize], nil
}

// VerifyChecksum recomputes the data checksum and compares it to the stored one.
func (r *Reader) VerifyChecksum() error {
	data, err := r.Data()
	if err != nil {
		return err
	}
	return ValidateChecksum(ComputeChecksum(data), r.checksum)
}

// LoadTensor copies the file's data into a tiled RawTensor.
func (r *Reader) LoadTensor() (*tensor.RawTensor, error) {
	dtype, err := r.header.DataType()
	if err != nil {
		return nil, err
	}
	data, err := r.Data()
	if err != nil {
		return nil, err
	}
	return tensor.NewTiled(tensor.Shape(r.header.Shape), r.header.Tile, dtype, append([]byte(nil), data...))
}
