// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package tensor provides the array descriptions used by tileflip.
//
// # Overview
//
// An array is a row-major byte buffer described by a Shape and a DataType.
// Tiled devices store the same array tile-major: the last two axes are cut
// into TileShape blocks, tiles are laid out in row-major tile-grid order and
// each tile's interior is row-major.
//
// # Basic Usage
//
//	raw, _ := tensor.FromSlice(tensor.Shape{1, 3, 96, 96}, values)
//	tiled, _ := raw.ToTiled(tensor.DefaultTile)
//	grid, _ := tensor.TiledGrid(raw.Shape(), tensor.DefaultTile) // (1, 3, 3, 3)
//
// # Supported Data Types
//
// The DType constraint covers:
//   - float16, float32, float64 (floating-point)
//   - int32, int64 (signed integers)
//   - uint8, uint32 (unsigned integers)
//   - bool (boolean masks)
//
// Only the element width matters to a flip; values are never inspected.
package tensor
