// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package tensor

import (
	"github.com/born-ml/tileflip/internal/tensor"
)

// RawTensor is an array buffer with shape, element type and layout.
//
// RawTensor provides:
//   - Shape and type information via Shape(), DType(), Layout(), Tile()
//   - Raw byte access via Data()
//   - Layout conversion via ToTiled() and ToRowMajor()
//
// Example:
//
//	raw, _ := tensor.NewRaw(tensor.Shape{2, 64}, tensor.Uint32)
//	tiled, _ := raw.ToTiled(tensor.TileShape{Height: 1, Width: 32})
//	tiled.NumTiles() // 4
type RawTensor = tensor.RawTensor

// Layout is the byte order of a RawTensor.
type Layout = tensor.Layout

// Layouts.
const (
	RowMajor = tensor.RowMajor
	Tiled    = tensor.Tiled
)

// NewRaw allocates a zeroed row-major tensor.
func NewRaw(shape Shape, dtype DataType) (*RawTensor, error) {
	return tensor.NewRaw(shape, dtype)
}

// FromBytes wraps row-major data without copying.
func FromBytes(shape Shape, dtype DataType, data []byte) (*RawTensor, error) {
	return tensor.FromBytes(shape, dtype, data)
}

// FromSlice copies typed values into a new row-major tensor.
func FromSlice[T DType](shape Shape, values []T) (*RawTensor, error) {
	return tensor.FromSlice(shape, values)
}

// NewTiled wraps tile-major data without copying.
func NewTiled(shape Shape, tile TileShape, dtype DataType, data []byte) (*RawTensor, error) {
	return tensor.NewTiled(shape, tile, dtype, data)
}

// AsSlice views the tensor's data as a typed slice.
func AsSlice[T DType](r *RawTensor) []T {
	return tensor.AsSlice[T](r)
}
