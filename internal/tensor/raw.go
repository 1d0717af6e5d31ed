package tensor

import (
	"fmt"
	"unsafe"
)

// Layout describes how a RawTensor's elements are ordered in memory.
type Layout int

// Supported layouts.
const (
	// RowMajor stores elements in row-major ("C") order.
	RowMajor Layout = iota
	// Tiled stores whole tiles contiguously, tiles in row-major tile-grid
	// order and each tile's interior in row-major order.
	Tiled
)

// String returns a human-readable layout name.
func (l Layout) String() string {
	switch l {
	case RowMajor:
		return "row_major"
	case Tiled:
		return "tiled"
	default:
		return "unknown"
	}
}

// ParseLayout converts a name produced by String back to a Layout.
func ParseLayout(s string) (Layout, error) {
	switch s {
	case "row_major":
		return RowMajor, nil
	case "tiled":
		return Tiled, nil
	default:
		return 0, fmt.Errorf("%w: unknown layout %q", ErrPrecondition, s)
	}
}

// RawTensor is a byte-backed array with runtime type information.
type RawTensor struct {
	data   []byte
	shape  Shape
	stride []int
	dtype  DataType
	layout Layout
	tile   TileShape // Meaningful only for the Tiled layout
}

// NewRaw creates a zero-filled row-major RawTensor with the given shape and type.
func NewRaw(shape Shape, dtype DataType) (*RawTensor, error) {
	if err := shape.Validate(); err != nil {
		return nil, fmt.Errorf("invalid shape: %w", err)
	}

	return &RawTensor{
		data:   make([]byte, shape.NumElements()*dtype.Size()),
		shape:  shape.Clone(),
		stride: shape.ComputeStrides(),
		dtype:  dtype,
		layout: RowMajor,
	}, nil
}

// FromBytes wraps data as a row-major RawTensor without copying.
func FromBytes(shape Shape, dtype DataType, data []byte) (*RawTensor, error) {
	if err := shape.Validate(); err != nil {
		return nil, fmt.Errorf("invalid shape: %w", err)
	}
	if want := shape.NumElements() * dtype.Size(); len(data) != want {
		return nil, fmt.Errorf("%w: %d bytes for shape %v of %s, want %d",
			ErrDimensionMismatch, len(data), shape, dtype, want)
	}

	return &RawTensor{
		data:   data,
		shape:  shape.Clone(),
		stride: shape.ComputeStrides(),
		dtype:  dtype,
		layout: RowMajor,
	}, nil
}

// FromSlice copies values into a new row-major RawTensor.
func FromSlice[T DType](shape Shape, values []T) (*RawTensor, error) {
	var zero T
	raw, err := NewRaw(shape, inferDataType(zero))
	if err != nil {
		return nil, err
	}
	if len(values) != shape.NumElements() {
		return nil, fmt.Errorf("%w: %d values for shape %v (%d elements)",
			ErrDimensionMismatch, len(values), shape, shape.NumElements())
	}
	copy(AsSlice[T](raw), values)
	return raw, nil
}

// AsSlice interprets the tensor's data as []T.
// Panics if T does not match the tensor's dtype.
func AsSlice[T DType](r *RawTensor) []T {
	var zero T
	if dt := inferDataType(zero); dt != r.dtype {
		panic(fmt.Sprintf("tensor dtype is %s, not %s", r.dtype, dt))
	}
	//nolint:gosec // unsafe.Slice for zero-copy access, bounds checked by NumElements()
	return unsafe.Slice((*T)(unsafe.Pointer(&r.data[0])), r.NumElements())
}

// Shape returns the tensor's logical shape.
func (r *RawTensor) Shape() Shape {
	return r.shape
}

// Strides returns the row-major element strides of the logical shape.
func (r *RawTensor) Strides() []int {
	return r.stride
}

// DType returns the tensor's data type.
func (r *RawTensor) DType() DataType {
	return r.dtype
}

// Layout returns the tensor's memory layout.
func (r *RawTensor) Layout() Layout {
	return r.layout
}

// Tile returns the tile extent. Zero for row-major tensors.
func (r *RawTensor) Tile() TileShape {
	return r.tile
}

// NumElements returns the total number of elements.
func (r *RawTensor) NumElements() int {
	return r.shape.NumElements()
}

// ByteSize returns the total memory size in bytes.
func (r *RawTensor) ByteSize() int {
	return r.NumElements() * r.dtype.Size()
}

// Data returns the raw byte slice.
// WARNING: Direct access to underlying memory. Use with caution.
func (r *RawTensor) Data() []byte {
	return r.data
}

// TileBytes returns the byte size of one tile, or 0 for row-major tensors.
func (r *RawTensor) TileBytes() int {
	if r.layout != Tiled {
		return 0
	}
	return r.tile.Volume() * r.dtype.Size()
}

// NumTiles returns the number of tiles, or 0 for row-major tensors.
func (r *RawTensor) NumTiles() int {
	if r.layout != Tiled {
		return 0
	}
	return r.ByteSize() / r.TileBytes()
}

// ToTiled returns a copy of r in the Tiled layout.
func (r *RawTensor) ToTiled(tile TileShape) (*RawTensor, error) {
	if r.layout == Tiled {
		return nil, fmt.Errorf("tensor is already tiled (%s)", r.tile)
	}
	data, err := Tilize(r.data, r.shape, tile, r.dtype.Size())
	if err != nil {
		return nil, err
	}
	return &RawTensor{
		data:   data,
		shape:  r.shape.Clone(),
		stride: append([]int(nil), r.stride...),
		dtype:  r.dtype,
		layout: Tiled,
		tile:   tile,
	}, nil
}

// ToRowMajor returns a copy of r in the RowMajor layout.
func (r *RawTensor) ToRowMajor() (*RawTensor, error) {
	if r.layout == RowMajor {
		return nil, fmt.Errorf("tensor is already row-major")
	}
	data, err := Untilize(r.data, r.shape, r.tile, r.dtype.Size())
	if err != nil {
		return nil, err
	}
	return &RawTensor{
		data:   data,
		shape:  r.shape.Clone(),
		stride: append([]int(nil), r.stride...),
		dtype:  r.dtype,
		layout: RowMajor,
	}, nil
}

// NewTiled wraps tile-major data as a Tiled RawTensor without copying.
func NewTiled(shape Shape, tile TileShape, dtype DataType, data []byte) (*RawTensor, error) {
	if _, err := TiledGrid(shape, tile); err != nil {
		return nil, err
	}
	if want := shape.NumElements() * dtype.Size(); len(data) != want {
		return nil, fmt.Errorf("%w: %d bytes for tiled shape %v of %s, want %d",
			ErrDimensionMismatch, len(data), shape, dtype, want)
	}
	return &RawTensor{
		data:   data,
		shape:  shape.Clone(),
		stride: shape.ComputeStrides(),
		dtype:  dtype,
		layout: Tiled,
		tile:   tile,
	}, nil
}
