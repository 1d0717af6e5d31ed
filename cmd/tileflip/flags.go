package main

import (
	"flag"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"

	"github.com/born-ml/tileflip/internal/config"
	"github.com/born-ml/tileflip/internal/pipeline"
	"github.com/born-ml/tileflip/internal/tensor"
)

// intList is a comma-separated list of ints, e.g. "1,3,96,96".
type intList []int

func (l *intList) String() string {
	parts := make([]string, len(*l))
	for i, v := range *l {
		parts[i] = strconv.Itoa(v)
	}
	return strings.Join(parts, ",")
}

func (l *intList) Set(s string) error {
	*l = (*l)[:0]
	if strings.TrimSpace(s) == "" {
		return nil
	}
	for _, part := range strings.Split(s, ",") {
		v, err := strconv.Atoi(strings.TrimSpace(part))
		if err != nil {
			return fmt.Errorf("invalid integer %q", part)
		}
		*l = append(*l, v)
	}
	return nil
}

// parsePair parses "AxB" into two positive ints.
func parsePair(s string) (int, int, error) {
	a, b, ok := strings.Cut(strings.ToLower(s), "x")
	if !ok {
		return 0, 0, fmt.Errorf("invalid extent %q, want AxB", s)
	}
	x, err := strconv.Atoi(a)
	if err != nil {
		return 0, 0, fmt.Errorf("invalid extent %q: %w", s, err)
	}
	y, err := strconv.Atoi(b)
	if err != nil {
		return 0, 0, fmt.Errorf("invalid extent %q: %w", s, err)
	}
	return x, y, nil
}

// gridFlags are the flags shared by commands that run the executor.
type gridFlags struct {
	configPath string
	axes       intList
	grid       string
	workers    int
	rowWise    bool
	sequential bool
	verbose    bool
}

func (g *gridFlags) register(fs *flag.FlagSet) {
	fs.StringVar(&g.configPath, "config", "", "JSON config file")
	fs.Var(&g.axes, "axes", "comma-separated axes to flip")
	fs.StringVar(&g.grid, "grid", "", "worker grid as COLSxROWS")
	fs.IntVar(&g.workers, "workers", 0, "maximum number of workers (0 = whole grid)")
	fs.BoolVar(&g.rowWise, "row-wise", false, "enumerate workers along rows")
	fs.BoolVar(&g.sequential, "sequential", false, "run workers one after another")
	fs.BoolVar(&g.verbose, "v", false, "log worker and tile events")
}

// apply loads the config file, if any, and overrides it with the flags set
// on fs.
func (g *gridFlags) apply(fs *flag.FlagSet) (*config.Config, error) {
	cfg := config.Default()
	if g.configPath != "" {
		var err error
		if cfg, err = config.Load(g.configPath); err != nil {
			return nil, err
		}
	}

	var err error
	fs.Visit(func(f *flag.Flag) {
		if err != nil {
			return
		}
		switch f.Name {
		case "axes":
			cfg.FlipAxes = append([]int(nil), g.axes...)
		case "grid":
			cfg.Grid.Cols, cfg.Grid.Rows, err = parsePair(g.grid)
		case "workers":
			cfg.MaxWorkers = g.workers
		case "row-wise":
			cfg.Grid.RowWise = g.rowWise
		}
	})
	return cfg, err
}

func (g *gridFlags) logger(stderr io.Writer) *slog.Logger {
	level := slog.LevelInfo
	if g.verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: level}))
}

// executorOptions returns the executor options selected by the flags.
func (g *gridFlags) executorOptions(logger *slog.Logger) []pipeline.Option {
	opts := []pipeline.Option{pipeline.WithObserver(pipeline.NewSlogObserver(logger))}
	if g.sequential {
		opts = append(opts, pipeline.WithSequentialWorkers())
	}
	return opts
}

// parseTile parses "HxW".
func parseTile(s string) (tensor.TileShape, error) {
	h, w, err := parsePair(s)
	if err != nil {
		return tensor.TileShape{}, err
	}
	return tensor.TileShape{Height: h, Width: w}, nil
}
