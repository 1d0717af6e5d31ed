package flip

import (
	"fmt"

	"github.com/born-ml/tileflip/internal/tensor"
)

// Indexer maps source linear offsets to destination linear offsets for a
// fixed shape and set of flipped axes. It is immutable and safe for
// concurrent use.
type Indexer struct {
	shape   tensor.Shape
	strides []int
	axes    AxisSet
	volume  int
}

// NewIndexer returns an element-granularity indexer over shape.
func NewIndexer(shape tensor.Shape, axes AxisSet) (*Indexer, error) {
	if err := shape.Validate(); err != nil {
		return nil, err
	}
	if shape.Rank() > MaxRank {
		return nil, fmt.Errorf("%w: rank %d exceeds %d", tensor.ErrInvalidShape, shape.Rank(), MaxRank)
	}
	if err := axes.Validate(shape.Rank()); err != nil {
		return nil, err
	}

	return &Indexer{
		shape:   shape.Clone(),
		strides: shape.ComputeStrides(),
		axes:    axes,
		volume:  shape.NumElements(),
	}, nil
}

// NewTileIndexer returns a tile-granularity indexer: offsets are tile
// indices over the tile grid of shape, and tile coordinates are flipped.
func NewTileIndexer(shape tensor.Shape, tile tensor.TileShape, axes AxisSet) (*Indexer, error) {
	grid, err := tensor.TiledGrid(shape, tile)
	if err != nil {
		return nil, err
	}
	return NewIndexer(grid, axes)
}

// Shape returns the shape the indexer addresses (the tile grid in tile mode).
func (ix *Indexer) Shape() tensor.Shape {
	return ix.shape
}

// Strides returns the row-major strides of Shape.
func (ix *Indexer) Strides() []int {
	return ix.strides
}

// Axes returns the flipped axes.
func (ix *Indexer) Axes() AxisSet {
	return ix.axes
}

// Volume returns the number of addressable offsets.
func (ix *Indexer) Volume() int {
	return ix.volume
}

// Map returns the destination offset for src. src must be in [0, Volume()).
func (ix *Indexer) Map(src int) int {
	if ix.axes == 0 {
		return src
	}

	remaining := src
	dst := 0
	for d, stride := range ix.strides {
		coord := remaining / stride
		remaining %= stride
		if ix.axes.Has(d) {
			coord = ix.shape[d] - 1 - coord
		}
		dst += coord * stride
	}
	return dst
}

// Coords decomposes offset into per-axis coordinates, axis 0 first.
func (ix *Indexer) Coords(offset int) []int {
	coords := make([]int, len(ix.strides))
	for d, stride := range ix.strides {
		coords[d] = offset / stride
		offset %= stride
	}
	return coords
}
