package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/born-ml/tileflip/internal/parallel"
	"github.com/born-ml/tileflip/internal/pipeline"
	"github.com/born-ml/tileflip/internal/serialization"
	"github.com/born-ml/tileflip/internal/storage"
	"github.com/born-ml/tileflip/internal/tensor"
)

// File store locations used by flip.
const (
	srcLoc = "src"
	dstLoc = "dst"
)

// flipCmd flips the tiles of one .tflp file into a new one.
func flipCmd(ctx context.Context, args []string, stdout, stderr io.Writer) (err error) {
	fs := flag.NewFlagSet("flip", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.Usage = func() {
		fmt.Fprintln(stderr, "usage: tileflip flip [flags] <input.tflp> <output.tflp>")
		fs.PrintDefaults()
	}

	var gf gridFlags
	gf.register(fs)
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 2 {
		fs.Usage()
		return errors.New("flip needs an input and an output path")
	}
	inPath, outPath := fs.Arg(0), fs.Arg(1)
	if filepath.Clean(inPath) == filepath.Clean(outPath) {
		return fmt.Errorf("%w: %s", pipeline.ErrInPlace, inPath)
	}

	cfg, err := gf.apply(fs)
	if err != nil {
		return err
	}
	axes, err := cfg.Axes()
	if err != nil {
		return err
	}
	grid, err := parallel.NewGrid(cfg.ParallelConfig())
	if err != nil {
		return err
	}

	// A failed run leaves a partial data section that Close would still
	// checksum, so the output is removed rather than finalized into a valid
	// looking file.
	store := storage.NewFile()
	created := false
	defer func() {
		if cerr := store.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("finalize %s: %w", outPath, cerr)
		}
		if err != nil && created {
			if rerr := os.Remove(outPath); rerr != nil && !errors.Is(rerr, os.ErrNotExist) {
				err = errors.Join(err, fmt.Errorf("remove partial %s: %w", outPath, rerr))
			}
		}
	}()

	src, err := store.OpenSource(srcLoc, inPath)
	if err != nil {
		return fmt.Errorf("open %s: %w", inPath, err)
	}
	if src.Layout != tensor.Tiled.String() {
		return fmt.Errorf("%w: %s has layout %s, want tiled", tensor.ErrPrecondition, inPath, src.Layout)
	}
	dt, err := src.DataType()
	if err != nil {
		return err
	}

	shape := tensor.Shape(src.Shape)
	dst := serialization.NewHeader(shape, src.Tile, dt)
	dst.Metadata = make(map[string]string, len(src.Metadata)+2)
	for k, v := range src.Metadata {
		dst.Metadata[k] = v
	}
	dst.Metadata[serialization.MetaFlipAxes] = axes.String()
	dst.Metadata[serialization.MetaSource] = inPath

	if err := store.CreateSink(dstLoc, outPath, dst); err != nil {
		return fmt.Errorf("create %s: %w", outPath, err)
	}
	created = true

	exec, err := pipeline.NewExecutor(grid, store, gf.executorOptions(gf.logger(stderr))...)
	if err != nil {
		return err
	}
	res, err := exec.Run(ctx, pipeline.Invocation{
		Shape: shape,
		Axes:  axes,
		Tile:  src.Tile,
		DType: dt,
		Src:   srcLoc,
		Dst:   dstLoc,
	})
	if err != nil {
		return err
	}

	fmt.Fprintf(stdout, "flipped %s -> %s: %d tiles, axes %s, %d workers, %s\n",
		inPath, outPath, res.Tiles, axes, res.Assignment.ActiveWorkers(), res.Elapsed)
	return nil
}
