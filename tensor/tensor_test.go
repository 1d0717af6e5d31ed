// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package tensor_test

import (
	"errors"
	"testing"

	"github.com/born-ml/tileflip/tensor"
)

// TestRawTensorAPI verifies the RawTensor alias exposes the expected API.
func TestRawTensorAPI(t *testing.T) {
	raw, err := tensor.NewRaw(tensor.Shape{2, 64}, tensor.Uint32)
	if err != nil {
		t.Fatalf("NewRaw failed: %v", err)
	}

	if !raw.Shape().Equal(tensor.Shape{2, 64}) {
		t.Errorf("Shape() = %v, want [2 64]", raw.Shape())
	}
	if raw.DType() != tensor.Uint32 {
		t.Errorf("DType() = %v, want uint32", raw.DType())
	}
	if raw.Layout() != tensor.RowMajor {
		t.Errorf("Layout() = %v, want row_major", raw.Layout())
	}

	tiled, err := raw.ToTiled(tensor.TileShape{Height: 1, Width: 32})
	if err != nil {
		t.Fatalf("ToTiled failed: %v", err)
	}
	if tiled.NumTiles() != 4 {
		t.Errorf("NumTiles() = %d, want 4", tiled.NumTiles())
	}
}

func TestTiledGrid(t *testing.T) {
	grid, err := tensor.TiledGrid(tensor.Shape{1, 3, 96, 96}, tensor.DefaultTile)
	if err != nil {
		t.Fatalf("TiledGrid failed: %v", err)
	}
	if !grid.Equal(tensor.Shape{1, 3, 3, 3}) {
		t.Errorf("TiledGrid = %v, want [1 3 3 3]", grid)
	}

	_, err = tensor.TiledGrid(tensor.Shape{1, 1, 30, 32}, tensor.DefaultTile)
	if !errors.Is(err, tensor.ErrDimensionMismatch) || !errors.Is(err, tensor.ErrPrecondition) {
		t.Errorf("TiledGrid error = %v, want dimension mismatch", err)
	}
}

func TestTilizeRoundTrip(t *testing.T) {
	values := make([]uint32, 4*8)
	for i := range values {
		values[i] = uint32(i)
	}
	raw, err := tensor.FromSlice(tensor.Shape{4, 8}, values)
	if err != nil {
		t.Fatalf("FromSlice failed: %v", err)
	}

	tile := tensor.TileShape{Height: 2, Width: 4}
	tiles, err := tensor.Tilize(raw.Data(), raw.Shape(), tile, 4)
	if err != nil {
		t.Fatalf("Tilize failed: %v", err)
	}
	back, err := tensor.Untilize(tiles, raw.Shape(), tile, 4)
	if err != nil {
		t.Fatalf("Untilize failed: %v", err)
	}

	got, err := tensor.FromBytes(raw.Shape(), tensor.Uint32, back)
	if err != nil {
		t.Fatalf("FromBytes failed: %v", err)
	}
	for i, v := range tensor.AsSlice[uint32](got) {
		if v != uint32(i) {
			t.Fatalf("element %d = %d after round trip", i, v)
		}
	}
}
