// Package flip implements the axis-reversal bijection over row-major linear
// offsets and a single-threaded reference executor built on it.
//
// The same Indexer serves element and tile granularity: an element indexer
// is built over the array shape, a tile indexer over the tile-grid shape
// (see tensor.TiledGrid). For offset i the destination is found by
// decomposing i into coordinates axis 0 first, reversing each coordinate
// whose axis is in the AxisSet, and recomposing:
//
//	coord[d] = remaining / stride[d]; remaining %= stride[d]
//	if d in axes: coord[d] = shape[d] - 1 - coord[d]
//	dst += coord[d] * stride[d]
//
// The mapping is a permutation of [0, volume) and its own inverse.
package flip
