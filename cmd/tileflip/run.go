package main

import (
	"bytes"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"strconv"

	"github.com/born-ml/tileflip/internal/config"
	"github.com/born-ml/tileflip/internal/flip"
	"github.com/born-ml/tileflip/internal/parallel"
	"github.com/born-ml/tileflip/internal/pipeline"
	"github.com/born-ml/tileflip/internal/serialization"
	"github.com/born-ml/tileflip/internal/storage"
	"github.com/born-ml/tileflip/internal/tensor"
)

// errMismatch reports a tiled result that differs from the reference.
var errMismatch = errors.New("tiled result does not match the reference")

// Memory store locations used by run.
const (
	inputLoc  = "input"
	outputLoc = "output"
)

// runCmd flips a random array through the in-memory store and checks the
// result against the single-threaded reference.
func runCmd(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	fs := flag.NewFlagSet("run", flag.ContinueOnError)
	fs.SetOutput(stderr)

	var (
		gf       gridFlags
		shape    intList
		tile     = fs.String("tile", "", "tile extent as HxW")
		dtype    = fs.String("dtype", "", "element type")
		seed     = fs.Int64("seed", 0, "random fill seed")
		save     = fs.String("save", "", "write the tiled input to this .tflp file")
		dump     = fs.Bool("print", false, "print input and output arrays")
		noVerify = fs.Bool("no-verify", false, "skip the reference comparison")
	)
	gf.register(fs)
	fs.Var(&shape, "shape", "comma-separated array shape")
	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg, err := gf.apply(fs)
	if err != nil {
		return err
	}
	fs.Visit(func(f *flag.Flag) {
		if err != nil {
			return
		}
		switch f.Name {
		case "shape":
			cfg.Shape = append([]int(nil), shape...)
		case "tile":
			cfg.Tile, err = parseTile(*tile)
		case "dtype":
			cfg.DType = *dtype
		case "seed":
			cfg.Seed = *seed
		case "no-verify":
			cfg.Verify = !*noVerify
		}
	})
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	logger := gf.logger(stderr)
	rep, err := runFlip(ctx, cfg, logger, *save, gf.executorOptions(logger)...)
	if rep != nil {
		rep.print(stdout, *dump)
	}
	return err
}

// report is the outcome of one run.
type report struct {
	cfg      *config.Config
	grid     *parallel.Grid
	result   *pipeline.Result
	input    *tensor.RawTensor
	output   *tensor.RawTensor
	oracle   string
	verified bool
	allClose bool
}

// runFlip generates the input described by cfg, flips it on the worker grid
// and, when cfg.Verify is set, compares the result with the reference.
func runFlip(ctx context.Context, cfg *config.Config, logger *slog.Logger, save string, opts ...pipeline.Option) (*report, error) {
	shape := cfg.TensorShape()
	axes, err := cfg.Axes()
	if err != nil {
		return nil, err
	}
	dt, err := cfg.DataType()
	if err != nil {
		return nil, err
	}
	grid, err := parallel.NewGrid(cfg.ParallelConfig())
	if err != nil {
		return nil, err
	}

	input, err := randomTensor(shape, dt, cfg.Seed)
	if err != nil {
		return nil, err
	}
	tiled, err := input.ToTiled(cfg.Tile)
	if err != nil {
		return nil, err
	}
	if save != "" {
		meta := map[string]string{"seed": strconv.FormatInt(cfg.Seed, 10)}
		if err := serialization.WriteTensor(save, tiled, meta); err != nil {
			return nil, fmt.Errorf("save input: %w", err)
		}
		logger.Info("input saved", slog.String("path", save))
	}

	mem := storage.NewMemory()
	if err := mem.StoreTensor(inputLoc, tiled); err != nil {
		return nil, err
	}
	if err := mem.Allocate(outputLoc, tiled.NumTiles(), tiled.TileBytes()); err != nil {
		return nil, err
	}

	exec, err := pipeline.NewExecutor(grid, mem, opts...)
	if err != nil {
		return nil, err
	}
	res, err := exec.Run(ctx, pipeline.Invocation{
		Shape: shape,
		Axes:  axes,
		Tile:  cfg.Tile,
		DType: dt,
		Src:   inputLoc,
		Dst:   outputLoc,
	})
	if err != nil {
		return nil, err
	}

	outTiled, err := mem.LoadTensor(outputLoc, shape, cfg.Tile, dt)
	if err != nil {
		return nil, err
	}
	output, err := outTiled.ToRowMajor()
	if err != nil {
		return nil, err
	}

	rep := &report{cfg: cfg, grid: grid, result: res, input: input, output: output}
	if !cfg.Verify {
		return rep, nil
	}

	// Whole-tile moves only match the element flip when no flipped axis is
	// split across a tile; otherwise compare tile by tile.
	rep.verified = true
	if flip.TileFlipIsExact(shape.Rank(), cfg.Tile, axes) {
		want, err := flip.ReferenceTensor(input, axes)
		if err != nil {
			return nil, err
		}
		rep.oracle = "element"
		rep.allClose = bytes.Equal(want.Data(), output.Data())
	} else {
		want, err := flip.ReferenceTensor(tiled, axes)
		if err != nil {
			return nil, err
		}
		rep.oracle = "tile"
		rep.allClose = bytes.Equal(want.Data(), outTiled.Data())
	}
	if !rep.allClose {
		return rep, errMismatch
	}
	return rep, nil
}

func (r *report) print(w io.Writer, dump bool) {
	a := r.result.Assignment
	fmt.Fprintf(w, "invocation: %s\n", r.result.ID)
	fmt.Fprintf(w, "input_shape: %v\n", r.cfg.Shape)
	fmt.Fprintf(w, "flip_axes: %v\n", r.cfg.FlipAxes)
	fmt.Fprintf(w, "tile: %s\n", r.cfg.Tile)
	fmt.Fprintf(w, "input_tile_shape: %v\n", []int(r.result.TileGrid))
	fmt.Fprintf(w, "input_tile_strides: %v\n", r.result.TileGrid.ComputeStrides())
	fmt.Fprintf(w, "core_grid: %s\n", r.grid)
	fmt.Fprintf(w, "num_cores: %d\n", a.ActiveWorkers())
	fmt.Fprintf(w, "core_group_1: %d\n", a.Group1)
	fmt.Fprintf(w, "core_group_2: %d\n", a.ActiveWorkers()-a.Group1)
	fmt.Fprintf(w, "num_tiles_per_core_group_1: %d\n", a.UnitsGroup1)
	fmt.Fprintf(w, "num_tiles_per_core_group_2: %d\n", a.UnitsGroup2)
	fmt.Fprintf(w, "elapsed: %s\n", r.result.Elapsed)
	if dump {
		fmt.Fprintln(w, "input:")
		pprint(w, r.input)
		fmt.Fprintln(w, "output:")
		pprint(w, r.output)
	}
	if r.verified {
		fmt.Fprintf(w, "oracle: %s\n", r.oracle)
		fmt.Fprintf(w, "all_close: %t\n", r.allClose)
	}
}
