// Package pipeline moves the tiles of an array to their flipped positions
// across a grid of concurrent workers.
//
// Each invocation derives the tile grid, a tile-mode flip.Indexer and a
// parallel.Assignment once; they are read-only for the rest of the call.
// Every worker walks its own tile range in ascending order through a
// two-slot buffer: one goroutine reads source tiles into free slots while
// the worker writes filled slots to their destination tile. Destination
// tiles are disjoint across workers, so workers never synchronize.
//
// A transport failure stops only the worker that hit it. Failures are
// collected and returned together as a *RunError once every worker is done,
// and the destination is left partially written.
package pipeline
