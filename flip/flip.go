// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package flip

import (
	"github.com/born-ml/tileflip/internal/flip"
	"github.com/born-ml/tileflip/internal/tensor"
)

// AxisSet is a set of axis indices.
type AxisSet = flip.AxisSet

// Indexer maps row-major offsets to their flipped positions.
type Indexer = flip.Indexer

// Errors.
var (
	ErrInvalidAxis = flip.ErrInvalidAxis
	ErrBufferSize  = flip.ErrBufferSize
)

// NewAxisSet builds a set from axis indices.
func NewAxisSet(axes ...int) (AxisSet, error) {
	return flip.NewAxisSet(axes...)
}

// MustAxisSet is like NewAxisSet but panics on error.
func MustAxisSet(axes ...int) AxisSet {
	return flip.MustAxisSet(axes...)
}

// NewIndexer returns an element-granularity indexer over shape.
func NewIndexer(shape tensor.Shape, axes AxisSet) (*Indexer, error) {
	return flip.NewIndexer(shape, axes)
}

// NewTileIndexer returns an indexer over the tile grid of shape.
func NewTileIndexer(shape tensor.Shape, tile tensor.TileShape, axes AxisSet) (*Indexer, error) {
	return flip.NewTileIndexer(shape, tile, axes)
}

// Reference flips a row-major buffer element by element.
func Reference(src []byte, shape tensor.Shape, axes AxisSet, elemSize int) ([]byte, error) {
	return flip.Reference(src, shape, axes, elemSize)
}

// ReferenceTiles flips a tile-major buffer by whole tiles.
func ReferenceTiles(src []byte, shape tensor.Shape, tile tensor.TileShape, axes AxisSet, elemSize int) ([]byte, error) {
	return flip.ReferenceTiles(src, shape, tile, axes, elemSize)
}

// ReferenceTensor flips a tensor with the oracle matching its layout.
func ReferenceTensor(raw *tensor.RawTensor, axes AxisSet) (*tensor.RawTensor, error) {
	return flip.ReferenceTensor(raw, axes)
}

// Flip is the typed form of Reference.
func Flip[T tensor.DType](src []T, shape tensor.Shape, axes AxisSet) ([]T, error) {
	return flip.Flip(src, shape, axes)
}

// TileFlipIsExact reports whether a tiled flip equals the element flip.
func TileFlipIsExact(rank int, tile tensor.TileShape, axes AxisSet) bool {
	return flip.TileFlipIsExact(rank, tile, axes)
}
