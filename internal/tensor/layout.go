package tensor

import "fmt"

// tileGeometry splits a shape into an outer batch of 2-D planes and the
// plane's rows and columns. Rank-1 shapes are a single row.
type tileGeometry struct {
	outer, rows, cols  int
	tileRows, tileCols int // Tiles along rows and cols of one plane
	tile               TileShape
}

func newTileGeometry(shape Shape, tile TileShape) (tileGeometry, error) {
	if _, err := TiledGrid(shape, tile); err != nil {
		return tileGeometry{}, err
	}

	rank := len(shape)
	g := tileGeometry{outer: 1, rows: 1, cols: shape[rank-1], tile: tile}
	if rank >= 2 {
		g.rows = shape[rank-2]
		g.outer = shape[:rank-2].NumElements()
	}
	g.tileRows = g.rows / tile.Height
	g.tileCols = g.cols / tile.Width
	return g, nil
}

// forEachSegment calls fn for every run of tile.Width contiguous elements,
// with the element offset in row-major order and in tile-major order.
func (g tileGeometry) forEachSegment(fn func(rowMajor, tileMajor int)) {
	tilesPerPlane := g.tileRows * g.tileCols
	tileVol := g.tile.Volume()

	for o := 0; o < g.outer; o++ {
		for r := 0; r < g.rows; r++ {
			tr, ir := r/g.tile.Height, r%g.tile.Height
			for tc := 0; tc < g.tileCols; tc++ {
				tileIdx := o*tilesPerPlane + tr*g.tileCols + tc
				rowMajor := (o*g.rows+r)*g.cols + tc*g.tile.Width
				tileMajor := tileIdx*tileVol + ir*g.tile.Width
				fn(rowMajor, tileMajor)
			}
		}
	}
}

// Tilize converts a row-major buffer into tile-major order.
//
// Tiles are laid out in row-major order of the tile grid (see TiledGrid);
// each tile's interior is row-major. Both extents of shape's last two axes
// must be multiples of the tile.
func Tilize(src []byte, shape Shape, tile TileShape, elemSize int) ([]byte, error) {
	return retile(src, shape, tile, elemSize, true)
}

// Untilize converts a tile-major buffer produced by Tilize back to row-major order.
func Untilize(src []byte, shape Shape, tile TileShape, elemSize int) ([]byte, error) {
	return retile(src, shape, tile, elemSize, false)
}

func retile(src []byte, shape Shape, tile TileShape, elemSize int, toTiles bool) ([]byte, error) {
	g, err := newTileGeometry(shape, tile)
	if err != nil {
		return nil, err
	}
	if want := shape.NumElements() * elemSize; len(src) != want {
		return nil, fmt.Errorf("%w: buffer has %d bytes, shape %v needs %d",
			ErrDimensionMismatch, len(src), shape, want)
	}

	dst := make([]byte, len(src))
	seg := tile.Width * elemSize
	g.forEachSegment(func(rowMajor, tileMajor int) {
		rm, tm := rowMajor*elemSize, tileMajor*elemSize
		if toTiles {
			copy(dst[tm:tm+seg], src[rm:rm+seg])
		} else {
			copy(dst[rm:rm+seg], src[tm:tm+seg])
		}
	})
	return dst, nil
}
