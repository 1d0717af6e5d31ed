// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package flip reverses the elements of an N-dimensional array along a chosen
// set of axes, on a single goroutine or tile by tile across a grid of workers.
//
// # Reference flip
//
// Reference and Flip move every element of a row-major buffer to its
// mirrored position. They are the correctness oracle for the tiled path:
//
//	out, _ := flip.Flip(values, tensor.Shape{1, 1, 4, 4}, flip.MustAxisSet(3))
//
// # Tiled flip
//
// An Executor splits the tiles of a tile-major array over the workers of a
// Grid, balanced so that worker loads differ by at most one tile. Each
// worker streams its contiguous tile range through two tile buffers, reading
// from the source location and writing each tile to its flipped position in
// the destination location through a Transport:
//
//	grid, _ := flip.NewGrid(flip.GridConfig{Rows: 8, Cols: 8})
//	store := flip.NewMemoryStore()
//	exec, _ := flip.NewExecutor(grid, store)
//	res, err := exec.Run(ctx, flip.Invocation{
//	    Shape: tensor.Shape{1, 3, 96, 96},
//	    Axes:  flip.MustAxisSet(2, 3),
//	    Tile:  tensor.DefaultTile,
//	    DType: tensor.Uint32,
//	    Src:   "input",
//	    Dst:   "output",
//	})
//
// Tile interiors are moved unchanged, so the tiled result equals the element
// flip only when TileFlipIsExact holds; otherwise ReferenceTiles is the
// oracle.
//
// # Errors
//
// Invalid inputs fail before any transfer with an error for which
// IsPrecondition reports true. Transport failures arrive as a *RunError
// holding one *TransportError per failed worker.
package flip
