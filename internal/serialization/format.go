package serialization

import (
	"time"

	"github.com/born-ml/tileflip/internal/tensor"
)

// Format constants.
const (
	MagicBytes      = "TFLP"
	FormatVersion   = 1
	HeaderAlignment = 64   // Tile data starts on a 64-byte boundary
	FixedHeaderSize = 64   // Fixed header size (0x40 bytes)
	ChecksumSize    = 32   // SHA-256 checksum size
	ChecksumOffset  = 0x20 // Checksum offset in the fixed header
)

// Flags for the .tflp format.
const (
	FlagHasMetadata uint32 = 1 << 0 // bit 0: custom metadata included
	FlagFlipped     uint32 = 1 << 1 // bit 1: data is the output of a flip
)

// Well-known metadata keys.
const (
	MetaFlipAxes = "flip_axes" // Axes reversed to produce the data, e.g. "{2,3}"
	MetaSource   = "source"    // Path of the file the data was flipped from
)

// Header is the JSON header of a .tflp file.
type Header struct {
	FormatVersion int               `json:"format_version"`
	Shape         []int             `json:"shape"`
	Tile          tensor.TileShape  `json:"tile"`
	DType         string            `json:"dtype"`
	Layout        string            `json:"layout"`
	CreatedAt     time.Time         `json:"created_at"`
	Metadata      map[string]string `json:"metadata,omitempty"`
}

// NewHeader describes a tile-major array of the given shape, tile and type.
func NewHeader(shape tensor.Shape, tile tensor.TileShape, dtype tensor.DataType) Header {
	return Header{
		FormatVersion: FormatVersion,
		Shape:         []int(shape.Clone()),
		Tile:          tile,
		DType:         dtype.String(),
		Layout:        tensor.Tiled.String(),
		CreatedAt:     time.Now().UTC(),
	}
}

// DataType returns the header's element type.
func (h *Header) DataType() (tensor.DataType, error) {
	return tensor.ParseDataType(h.DType)
}

// TileBytes returns the byte size of one tile, or 0 for an unknown dtype.
func (h *Header) TileBytes() int {
	dt, err := h.DataType()
	if err != nil {
		return 0
	}
	return h.Tile.Volume() * dt.Size()
}

// NumTiles returns the tile count, or 0 for an invalid shape.
func (h *Header) NumTiles() int {
	n, err := tensor.NumTiles(tensor.Shape(h.Shape), h.Tile)
	if err != nil {
		return 0
	}
	return n
}

// DataSize returns the expected byte size of the data section.
func (h *Header) DataSize() int64 {
	return int64(h.NumTiles()) * int64(h.TileBytes())
}

// dataOffset returns where tile data starts for a JSON header of headerSize bytes.
func dataOffset(headerSize int64) int64 {
	end := int64(FixedHeaderSize) + headerSize
	return ((end + HeaderAlignment - 1) / HeaderAlignment) * HeaderAlignment
}
