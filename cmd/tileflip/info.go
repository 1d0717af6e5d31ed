package main

import (
	"encoding/hex"
	"errors"
	"flag"
	"fmt"
	"io"
	"sort"

	"github.com/born-ml/tileflip/internal/serialization"
	"github.com/born-ml/tileflip/internal/tensor"
)

// infoCmd prints the header of a .tflp file.
func infoCmd(args []string, stdout, stderr io.Writer) error {
	fs := flag.NewFlagSet("info", flag.ContinueOnError)
	fs.SetOutput(stderr)
	verify := fs.Bool("verify", false, "verify the data checksum")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return errors.New("info needs a .tflp path")
	}
	path := fs.Arg(0)

	r, err := serialization.Open(path)
	if err != nil {
		return fmt.Errorf("open %s: %w", path, err)
	}
	defer func() { _ = r.Close() }()

	h := r.Header()
	grid, err := tensor.TiledGrid(tensor.Shape(h.Shape), h.Tile)
	if err != nil {
		return err
	}
	sum := r.Checksum()

	fmt.Fprintf(stdout, "file: %s\n", path)
	fmt.Fprintf(stdout, "format_version: %d\n", h.FormatVersion)
	fmt.Fprintf(stdout, "shape: %v\n", h.Shape)
	fmt.Fprintf(stdout, "dtype: %s\n", h.DType)
	fmt.Fprintf(stdout, "layout: %s\n", h.Layout)
	fmt.Fprintf(stdout, "tile: %s\n", h.Tile)
	fmt.Fprintf(stdout, "tile_grid: %v\n", []int(grid))
	fmt.Fprintf(stdout, "tiles: %d x %d bytes\n", r.NumTiles(), r.TileBytes())
	fmt.Fprintf(stdout, "created_at: %s\n", h.CreatedAt.Format("2006-01-02T15:04:05Z07:00"))
	fmt.Fprintf(stdout, "flipped: %t\n", r.Flags()&serialization.FlagFlipped != 0)
	fmt.Fprintf(stdout, "sha256: %s\n", hex.EncodeToString(sum[:]))

	keys := make([]string, 0, len(h.Metadata))
	for k := range h.Metadata {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Fprintf(stdout, "metadata.%s: %s\n", k, h.Metadata[k])
	}

	if *verify {
		if err := r.VerifyChecksum(); err != nil {
			return err
		}
		fmt.Fprintln(stdout, "checksum: ok")
	}
	return nil
}
