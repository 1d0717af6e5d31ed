package serialization

import (
	"fmt"

	"github.com/born-ml/tileflip/internal/tensor"
)

// Validation limits for resource protection.
const (
	MaxHeaderSize   = 1024 * 1024 // 1MB - maximum JSON header size
	MaxRank         = 64
	MaxMetadataSize = 64 * 1024 // Total bytes of metadata keys and values
)

// ValidateHeader checks a header and, when dataSize >= 0, that the data
// section holds exactly the header's tiles.
func ValidateHeader(h *Header, dataSize int64) error {
	if h.FormatVersion != FormatVersion {
		return &ValidationError{
			Type:    "unsupported_version",
			Field:   "format_version",
			Details: fmt.Sprintf("got %d, want %d", h.FormatVersion, FormatVersion),
			Err:     ErrUnsupportedVersion,
		}
	}

	shape := tensor.Shape(h.Shape)
	if len(shape) > MaxRank {
		return &ValidationError{
			Type:    "invalid_shape",
			Field:   "shape",
			Details: fmt.Sprintf("rank %d exceeds %d", len(shape), MaxRank),
		}
	}
	if _, err := tensor.TiledGrid(shape, h.Tile); err != nil {
		return &ValidationError{Type: "invalid_shape", Field: "shape", Details: err.Error(), Err: err}
	}

	if _, err := h.DataType(); err != nil {
		return &ValidationError{Type: "invalid_dtype", Field: "dtype", Details: err.Error(), Err: err}
	}

	if h.Layout != tensor.Tiled.String() {
		return &ValidationError{
			Type:    "invalid_layout",
			Field:   "layout",
			Details: fmt.Sprintf("got %q, want %q", h.Layout, tensor.Tiled.String()),
		}
	}

	metaSize := 0
	for k, v := range h.Metadata {
		metaSize += len(k) + len(v)
	}
	if metaSize > MaxMetadataSize {
		return &ValidationError{
			Type:    "metadata_too_large",
			Field:   "metadata",
			Details: fmt.Sprintf("%d bytes, max %d", metaSize, MaxMetadataSize),
		}
	}

	if dataSize >= 0 && dataSize != h.DataSize() {
		return &ValidationError{
			Type: "data_size",
			Details: fmt.Sprintf("data section has %d bytes, %d tiles of %d bytes need %d",
				dataSize, h.NumTiles(), h.TileBytes(), h.DataSize()),
			Err: ErrOutOfBounds,
		}
	}
	return nil
}
