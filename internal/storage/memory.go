package storage

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/born-ml/tileflip/internal/tensor"
)

// tileBuffer is a contiguous run of fixed-size tiles.
type tileBuffer struct {
	data      []byte
	tileBytes int
	numTiles  int
}

func (b *tileBuffer) span(tile, n int) (int, int, error) {
	if tile < 0 || tile >= b.numTiles {
		return 0, 0, fmt.Errorf("%w: tile %d of %d", ErrTileOutOfRange, tile, b.numTiles)
	}
	if n != b.tileBytes {
		return 0, 0, fmt.Errorf("%w: %d bytes, tiles are %d bytes", ErrTileSize, n, b.tileBytes)
	}
	start := tile * b.tileBytes
	return start, start + b.tileBytes, nil
}

// MemoryStats counts tile transfers.
type MemoryStats struct {
	Reads  uint64
	Writes uint64
}

// Memory is an in-process tile store keyed by location name.
//
// Concurrent reads and writes of distinct tiles are safe; concurrent writes
// of the same tile race as plain memory does.
type Memory struct {
	mu      sync.RWMutex
	buffers map[string]*tileBuffer

	reads  atomic.Uint64
	writes atomic.Uint64
}

// NewMemory creates an empty store.
func NewMemory() *Memory {
	return &Memory{buffers: make(map[string]*tileBuffer)}
}

// Allocate creates a zero-filled location of numTiles tiles.
func (m *Memory) Allocate(loc string, numTiles, tileBytes int) error {
	if numTiles < 0 || tileBytes <= 0 {
		return fmt.Errorf("%w: %d tiles of %d bytes", ErrTileSize, numTiles, tileBytes)
	}
	return m.put(loc, &tileBuffer{
		data:      make([]byte, numTiles*tileBytes),
		tileBytes: tileBytes,
		numTiles:  numTiles,
	})
}

// Store creates a location holding a copy of data, split into tileBytes tiles.
func (m *Memory) Store(loc string, tileBytes int, data []byte) error {
	if tileBytes <= 0 || len(data)%tileBytes != 0 {
		return fmt.Errorf("%w: %d bytes is not a multiple of %d", ErrTileSize, len(data), tileBytes)
	}
	return m.put(loc, &tileBuffer{
		data:      append([]byte(nil), data...),
		tileBytes: tileBytes,
		numTiles:  len(data) / tileBytes,
	})
}

// StoreTensor stores a tiled tensor's data at loc.
func (m *Memory) StoreTensor(loc string, raw *tensor.RawTensor) error {
	if raw.Layout() != tensor.Tiled {
		return fmt.Errorf("%w: tensor layout is %s, want tiled", tensor.ErrPrecondition, raw.Layout())
	}
	return m.Store(loc, raw.TileBytes(), raw.Data())
}

// Load returns a copy of the data at loc.
func (m *Memory) Load(loc string) ([]byte, error) {
	b, err := m.get(loc)
	if err != nil {
		return nil, err
	}
	return append([]byte(nil), b.data...), nil
}

// LoadTensor returns the data at loc as a tiled tensor.
func (m *Memory) LoadTensor(loc string, shape tensor.Shape, tile tensor.TileShape, dtype tensor.DataType) (*tensor.RawTensor, error) {
	data, err := m.Load(loc)
	if err != nil {
		return nil, err
	}
	return tensor.NewTiled(shape, tile, dtype, data)
}

// Delete removes loc.
func (m *Memory) Delete(loc string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.buffers, loc)
}

// ReadTile copies tile of loc into dst.
func (m *Memory) ReadTile(ctx context.Context, loc string, tile int, dst []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	b, err := m.get(loc)
	if err != nil {
		return err
	}
	start, end, err := b.span(tile, len(dst))
	if err != nil {
		return err
	}
	copy(dst, b.data[start:end])
	m.reads.Add(1)
	return nil
}

// WriteTile copies data into tile of loc.
func (m *Memory) WriteTile(ctx context.Context, loc string, tile int, data []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	b, err := m.get(loc)
	if err != nil {
		return err
	}
	start, end, err := b.span(tile, len(data))
	if err != nil {
		return err
	}
	copy(b.data[start:end], data)
	m.writes.Add(1)
	return nil
}

// Stats returns transfer counters since the store was created.
func (m *Memory) Stats() MemoryStats {
	return MemoryStats{Reads: m.reads.Load(), Writes: m.writes.Load()}
}

func (m *Memory) put(loc string, b *tileBuffer) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.buffers[loc]; ok {
		return fmt.Errorf("%w: %q", ErrLocationExists, loc)
	}
	m.buffers[loc] = b
	return nil
}

func (m *Memory) get(loc string) (*tileBuffer, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	b, ok := m.buffers[loc]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownLocation, loc)
	}
	return b, nil
}
