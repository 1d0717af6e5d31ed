package storage

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/born-ml/tileflip/internal/serialization"
)

// File is a tile store over .tflp containers. Sources are memory-mapped
// read-only; sinks are preallocated files written tile by tile.
type File struct {
	mu      sync.RWMutex
	sources map[string]*serialization.Reader
	sinks   map[string]*serialization.TileWriter
	closed  bool
}

// NewFile creates an empty file store.
func NewFile() *File {
	return &File{
		sources: make(map[string]*serialization.Reader),
		sinks:   make(map[string]*serialization.TileWriter),
	}
}

// OpenSource maps the .tflp file at path as the read-only location loc and
// returns its header.
func (f *File) OpenSource(loc, path string) (serialization.Header, error) {
	r, err := serialization.Open(path)
	if err != nil {
		return serialization.Header{}, err
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.claim(loc); err != nil {
		_ = r.Close()
		return serialization.Header{}, err
	}
	f.sources[loc] = r
	return r.Header(), nil
}

// CreateSink creates a .tflp file at path described by header as the
// writable location loc.
func (f *File) CreateSink(loc, path string, header serialization.Header) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.claim(loc); err != nil {
		return err
	}

	w, err := serialization.Create(path, header)
	if err != nil {
		return err
	}
	f.sinks[loc] = w
	return nil
}

// claim checks that loc is free. Callers hold f.mu.
func (f *File) claim(loc string) error {
	if f.closed {
		return ErrClosed
	}
	_, isSource := f.sources[loc]
	_, isSink := f.sinks[loc]
	if isSource || isSink {
		return fmt.Errorf("%w: %q", ErrLocationExists, loc)
	}
	return nil
}

// ReadTile copies tile of the source loc into dst.
func (f *File) ReadTile(ctx context.Context, loc string, tile int, dst []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	f.mu.RLock()
	defer f.mu.RUnlock()

	r, ok := f.sources[loc]
	if !ok {
		if _, isSink := f.sinks[loc]; isSink {
			return fmt.Errorf("%w: %q is a sink", ErrUnknownLocation, loc)
		}
		return fmt.Errorf("%w: %q", ErrUnknownLocation, loc)
	}
	if len(dst) != r.TileBytes() {
		return fmt.Errorf("%w: %d bytes, tiles are %d bytes", ErrTileSize, len(dst), r.TileBytes())
	}
	if tile < 0 || tile >= r.NumTiles() {
		return fmt.Errorf("%w: tile %d of %d", ErrTileOutOfRange, tile, r.NumTiles())
	}
	return r.ReadTile(tile, dst)
}

// WriteTile writes data as tile of the sink loc.
func (f *File) WriteTile(ctx context.Context, loc string, tile int, data []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	f.mu.RLock()
	defer f.mu.RUnlock()

	w, ok := f.sinks[loc]
	if !ok {
		if _, isSource := f.sources[loc]; isSource {
			return fmt.Errorf("%w: %q", ErrReadOnly, loc)
		}
		return fmt.Errorf("%w: %q", ErrUnknownLocation, loc)
	}
	if len(data) != w.TileBytes() {
		return fmt.Errorf("%w: %d bytes, tiles are %d bytes", ErrTileSize, len(data), w.TileBytes())
	}
	if tile < 0 || tile >= w.NumTiles() {
		return fmt.Errorf("%w: tile %d of %d", ErrTileOutOfRange, tile, w.NumTiles())
	}
	return w.WriteTile(tile, data)
}

// Close finalizes every sink (writing its checksum) and unmaps every source.
func (f *File) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.closed {
		return nil
	}
	f.closed = true

	var errs []error
	for loc, w := range f.sinks {
		if err := w.Close(); err != nil {
			errs = append(errs, fmt.Errorf("sink %q: %w", loc, err))
		}
	}
	for loc, r := range f.sources {
		if err := r.Close(); err != nil {
			errs = append(errs, fmt.Errorf("source %q: %w", loc, err))
		}
	}
	return errors.Join(errs...)
}
