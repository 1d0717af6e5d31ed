// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package tensor

import (
	"github.com/born-ml/tileflip/internal/tensor"
)

// Shape is the extent of each axis, outermost first.
type Shape = tensor.Shape

// TileShape is the tile extent over the last two axes.
type TileShape = tensor.TileShape

// DataType identifies an element type.
type DataType = tensor.DataType

// DType is the constraint for element types.
type DType = tensor.DType

// Data types.
const (
	Float32 = tensor.Float32
	Float64 = tensor.Float64
	Int32   = tensor.Int32
	Int64   = tensor.Int64
	Uint8   = tensor.Uint8
	Bool    = tensor.Bool
	Uint32  = tensor.Uint32
	Float16 = tensor.Float16
)

// DefaultTile is the 32x32 device tile.
var DefaultTile = tensor.DefaultTile

// Errors. All wrap ErrPrecondition.
var (
	ErrPrecondition      = tensor.ErrPrecondition
	ErrInvalidShape      = tensor.ErrInvalidShape
	ErrDimensionMismatch = tensor.ErrDimensionMismatch
)

// ParseDataType converts a data type name, such as "uint32", to a DataType.
func ParseDataType(s string) (DataType, error) {
	return tensor.ParseDataType(s)
}

// TiledGrid returns the tile-grid shape of s.
func TiledGrid(s Shape, tile TileShape) (Shape, error) {
	return tensor.TiledGrid(s, tile)
}

// NumTiles returns the number of tiles covering s.
func NumTiles(s Shape, tile TileShape) (int, error) {
	return tensor.NumTiles(s, tile)
}

// TileVolume returns the element count of one tile.
func TileVolume(tile TileShape) int {
	return tensor.TileVolume(tile)
}

// Tilize converts a row-major buffer to tile-major order.
func Tilize(src []byte, shape Shape, tile TileShape, elemSize int) ([]byte, error) {
	return tensor.Tilize(src, shape, tile, elemSize)
}

// Untilize converts a tile-major buffer to row-major order.
func Untilize(src []byte, shape Shape, tile TileShape, elemSize int) ([]byte, error) {
	return tensor.Untilize(src, shape, tile, elemSize)
}
