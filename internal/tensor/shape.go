package tensor

import (
	"fmt"
	"math"
)

// Shape represents the dimensions of an array, one extent per axis.
type Shape []int

// Rank returns the number of axes.
func (s Shape) Rank() int {
	return len(s)
}

// NumElements returns the total number of elements in the array.
func (s Shape) NumElements() int {
	n := 1
	for _, dim := range s {
		n *= dim
	}
	return n
}

// Validate checks that the shape has at least one axis, all dimensions > 0,
// and a volume that fits in an int.
func (s Shape) Validate() error {
	if len(s) == 0 {
		return fmt.Errorf("%w: rank must be >= 1", ErrInvalidShape)
	}
	volume := 1
	for i, dim := range s {
		if dim <= 0 {
			return fmt.Errorf("%w: dimension at index %d is %d (must be > 0)", ErrInvalidShape, i, dim)
		}
		if volume > math.MaxInt/dim {
			return fmt.Errorf("%w: volume overflows int at index %d", ErrInvalidShape, i)
		}
		volume *= dim
	}
	return nil
}

// Equal checks if two shapes are equal.
func (s Shape) Equal(other Shape) bool {
	if len(s) != len(other) {
		return false
	}
	for i := range s {
		if s[i] != other[i] {
			return false
		}
	}
	return true
}

// Clone returns a copy of the shape.
func (s Shape) Clone() Shape {
	clone := make(Shape, len(s))
	copy(clone, s)
	return clone
}

// ComputeStrides calculates row-major strides for the shape.
// stride[last] = 1 and stride[i] = stride[i+1] * shape[i+1].
func (s Shape) ComputeStrides() []int {
	strides := make([]int, len(s))
	if len(s) == 0 {
		return strides
	}

	strides[len(s)-1] = 1
	for i := len(s) - 2; i >= 0; i-- {
		strides[i] = strides[i+1] * s[i+1]
	}
	return strides
}

// TileShape is the extent of one tile over the last two axes of an array.
// Every other axis is untiled (extent 1).
type TileShape struct {
	Height int `json:"height"`
	Width  int `json:"width"`
}

// DefaultTile is the 32x32 tile used by tiled device layouts.
var DefaultTile = TileShape{Height: 32, Width: 32}

// Volume returns the number of elements in one tile.
func (t TileShape) Volume() int {
	return t.Height * t.Width
}

// Validate checks that both tile extents are positive.
func (t TileShape) Validate() error {
	if t.Height <= 0 || t.Width <= 0 {
		return fmt.Errorf("%w: tile %s must have positive extents", ErrInvalidShape, t)
	}
	return nil
}

// String returns the tile as "HxW".
func (t TileShape) String() string {
	return fmt.Sprintf("%dx%d", t.Height, t.Width)
}

// TileVolume returns the product of tile height and width.
func TileVolume(tile TileShape) int {
	return tile.Volume()
}

// TiledGrid derives the tile-grid shape of s: the last two dimensions are
// divided by the tile height and width, every preceding dimension passes
// through unchanged.
//
// Rank-1 shapes are tiled over a leading unit axis, so only the width applies
// and the tile height must be 1.
//
// Examples:
//
//	(1, 3, 96, 96) / 32x32 → (1, 3, 3, 3)
//	(2, 64, 32)    / 32x32 → (2, 2, 1)
//	(1, 1, 30, 32) / 32x32 → ErrDimensionMismatch
func TiledGrid(s Shape, tile TileShape) (Shape, error) {
	if err := s.Validate(); err != nil {
		return nil, err
	}
	if err := tile.Validate(); err != nil {
		return nil, err
	}

	grid := s.Clone()
	rank := len(s)

	if s[rank-1]%tile.Width != 0 {
		return nil, fmt.Errorf("%w: axis %d has size %d, not a multiple of tile width %d",
			ErrDimensionMismatch, rank-1, s[rank-1], tile.Width)
	}
	grid[rank-1] = s[rank-1] / tile.Width

	if rank == 1 {
		if tile.Height != 1 {
			return nil, fmt.Errorf("%w: rank-1 shape %v needs tile height 1, got %d",
				ErrDimensionMismatch, s, tile.Height)
		}
		return grid, nil
	}

	if s[rank-2]%tile.Height != 0 {
		return nil, fmt.Errorf("%w: axis %d has size %d, not a multiple of tile height %d",
			ErrDimensionMismatch, rank-2, s[rank-2], tile.Height)
	}
	grid[rank-2] = s[rank-2] / tile.Height

	return grid, nil
}

// NumTiles returns the number of tiles covering s.
func NumTiles(s Shape, tile TileShape) (int, error) {
	grid, err := TiledGrid(s, tile)
	if err != nil {
		return 0, err
	}
	return grid.NumElements(), nil
}
