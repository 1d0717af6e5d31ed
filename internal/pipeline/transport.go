package pipeline

import "context"

// Transport moves whole tiles between the executor and storage. Locations are
// opaque names the transport resolves (a buffer, a file, a device address).
//
// Implementations must allow concurrent calls for distinct tiles.
type Transport interface {
	// ReadTile copies tile of loc into dst. len(dst) is the tile size in bytes.
	ReadTile(ctx context.Context, loc string, tile int, dst []byte) error
	// WriteTile stores data as tile of loc.
	WriteTile(ctx context.Context, loc string, tile int, data []byte) error
}
