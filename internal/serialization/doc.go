// Package serialization provides the .tflp container for tiled arrays.
//
// A .tflp file stores one array in tile-major order:
//
//	Format Structure:
//	  [0x00: 4 bytes  Magic "TFLP"]
//	  [0x04: 4 bytes  Version (uint32 LE)]
//	  [0x08: 4 bytes  Flags (uint32 LE)]
//	  [0x0C: 4 bytes  Reserved]
//	  [0x10: 8 bytes  Header size (uint64 LE)]
//	  [0x18: 8 bytes  Data size (uint64 LE)]
//	  [0x20: 32 bytes SHA-256 of the data section]
//	  [0x40: Header: JSON metadata]
//	  [Tile data: raw bytes, 64-byte aligned]
//
// Tiles may be written in any order with TileWriter; the checksum is
// computed when the writer is closed. Reader memory-maps the file and
// returns zero-copy tile views.
//
// Example usage:
//
//	w, err := serialization.Create("out.tflp", header)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	for i := 0; i < header.NumTiles(); i++ {
//	    _ = w.WriteTile(i, tiles[i])
//	}
//	_ = w.Close()
//
//	r, err := serialization.Open("out.tflp")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer r.Close()
//	tile0, _ := r.Tile(0)
package serialization
