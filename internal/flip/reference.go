package flip

import (
	"fmt"

	"github.com/born-ml/tileflip/internal/tensor"
)

// Reference flips a row-major buffer element by element on one goroutine.
// It is the correctness oracle for the tiled path, not a performance path.
func Reference(src []byte, shape tensor.Shape, axes AxisSet, elemSize int) ([]byte, error) {
	ix, err := NewIndexer(shape, axes)
	if err != nil {
		return nil, err
	}
	return relocate(src, ix, elemSize)
}

// ReferenceTiles flips a tile-major buffer (see tensor.Tilize) by whole
// tiles on one goroutine. Tile interiors are copied unchanged.
func ReferenceTiles(src []byte, shape tensor.Shape, tile tensor.TileShape, axes AxisSet, elemSize int) ([]byte, error) {
	ix, err := NewTileIndexer(shape, tile, axes)
	if err != nil {
		return nil, err
	}
	return relocate(src, ix, tile.Volume()*elemSize)
}

// TileFlipIsExact reports whether flipping whole tiles of a rank-dimensional
// array reproduces the element flip. It does when no flipped axis is split
// across a tile, i.e. every flipped axis has tile extent 1.
func TileFlipIsExact(rank int, tile tensor.TileShape, axes AxisSet) bool {
	if tile.Width > 1 && axes.Has(rank-1) {
		return false
	}
	if rank >= 2 && tile.Height > 1 && axes.Has(rank-2) {
		return false
	}
	return true
}

// ReferenceTensor flips a RawTensor with the oracle matching its layout.
func ReferenceTensor(raw *tensor.RawTensor, axes AxisSet) (*tensor.RawTensor, error) {
	elemSize := raw.DType().Size()
	switch raw.Layout() {
	case tensor.RowMajor:
		data, err := Reference(raw.Data(), raw.Shape(), axes, elemSize)
		if err != nil {
			return nil, err
		}
		return tensor.FromBytes(raw.Shape(), raw.DType(), data)
	case tensor.Tiled:
		data, err := ReferenceTiles(raw.Data(), raw.Shape(), raw.Tile(), axes, elemSize)
		if err != nil {
			return nil, err
		}
		return tensor.NewTiled(raw.Shape(), raw.Tile(), raw.DType(), data)
	default:
		return nil, fmt.Errorf("unsupported layout %s", raw.Layout())
	}
}

// Flip is the typed form of Reference.
func Flip[T tensor.DType](src []T, shape tensor.Shape, axes AxisSet) ([]T, error) {
	ix, err := NewIndexer(shape, axes)
	if err != nil {
		return nil, err
	}
	if len(src) != ix.Volume() {
		return nil, fmt.Errorf("%w: %d elements for shape %v", ErrBufferSize, len(src), shape)
	}

	dst := make([]T, len(src))
	for i, v := range src {
		dst[ix.Map(i)] = v
	}
	return dst, nil
}

// relocate copies each unit-sized block i of src to block ix.Map(i) of dst.
func relocate(src []byte, ix *Indexer, unit int) ([]byte, error) {
	if len(src) != ix.Volume()*unit {
		return nil, fmt.Errorf("%w: %d bytes, want %d units of %d bytes",
			ErrBufferSize, len(src), ix.Volume(), unit)
	}

	dst := make([]byte, len(src))
	for i := 0; i < ix.Volume(); i++ {
		d := ix.Map(i)
		copy(dst[d*unit:(d+1)*unit], src[i*unit:(i+1)*unit])
	}
	return dst, nil
}
