package parallel

import (
	"fmt"
	"runtime"

	"github.com/pkg/errors"

	"github.com/born-ml/tileflip/internal/tensor"
)

// Partitioning setup errors. Both wrap tensor.ErrPrecondition.
var (
	ErrNoWorkers     = fmt.Errorf("%w: no workers", tensor.ErrPrecondition)
	ErrNegativeUnits = fmt.Errorf("%w: negative unit count", tensor.ErrPrecondition)
)

// WorkerID identifies one worker of a grid.
//
// Index is the worker's position in the grid's enumeration order and is the
// order WorkPartitioner assigns ranges in. X and Y are its grid column and row.
type WorkerID struct {
	Index int
	X, Y  int
}

// String returns the worker as "#index(x,y)".
func (w WorkerID) String() string {
	return fmt.Sprintf("#%d(%d,%d)", w.Index, w.X, w.Y)
}

// WorkerGrid enumerates the workers available to an invocation.
// Enumeration order is authoritative and must be deterministic.
type WorkerGrid interface {
	// Workers returns at most MaxWorkers workers in enumeration order.
	Workers() []WorkerID
	// MaxWorkers is the capacity bound of the grid.
	MaxWorkers() int
}

// Config describes a rectangular worker grid.
type Config struct {
	Rows       int  `json:"rows"`        // Grid rows (Y extent).
	Cols       int  `json:"cols"`        // Grid columns (X extent).
	MaxWorkers int  `json:"max_workers"` // Capacity bound; 0 means Rows*Cols.
	RowWise    bool `json:"row_wise"`    // Enumerate along rows (X fastest) instead of down columns.
}

// DefaultConfig returns a single-row grid with one worker per CPU.
func DefaultConfig() Config {
	n := runtime.NumCPU()
	return Config{
		Rows:    1,
		Cols:    n,
		RowWise: true,
	}
}

// Grid is a rectangular WorkerGrid.
type Grid struct {
	cfg     Config
	workers []WorkerID
}

// Compile-time check that Grid implements WorkerGrid.
var _ WorkerGrid = (*Grid)(nil)

// NewGrid builds a grid from cfg.
//
// Column-wise enumeration walks Y fastest, matching the default core order
// of tiled accelerators:
//
//	3 cols x 2 rows, column-wise: (0,0) (0,1) (1,0) (1,1) (2,0) (2,1)
//	3 cols x 2 rows, row-wise:    (0,0) (1,0) (2,0) (0,1) (1,1) (2,1)
func NewGrid(cfg Config) (*Grid, error) {
	if cfg.Rows <= 0 || cfg.Cols <= 0 {
		return nil, errors.Wrapf(ErrNoWorkers, "grid %dx%d", cfg.Rows, cfg.Cols)
	}
	if cfg.MaxWorkers < 0 {
		return nil, errors.Wrapf(tensor.ErrPrecondition, "grid capacity %d must not be negative", cfg.MaxWorkers)
	}

	total := cfg.Rows * cfg.Cols
	if cfg.MaxWorkers == 0 || cfg.MaxWorkers > total {
		cfg.MaxWorkers = total
	}

	workers := make([]WorkerID, 0, cfg.MaxWorkers)
	outer, inner := cfg.Cols, cfg.Rows
	if cfg.RowWise {
		outer, inner = cfg.Rows, cfg.Cols
	}
	for o := 0; o < outer && len(workers) < cfg.MaxWorkers; o++ {
		for i := 0; i < inner && len(workers) < cfg.MaxWorkers; i++ {
			w := WorkerID{Index: len(workers), X: o, Y: i}
			if cfg.RowWise {
				w.X, w.Y = i, o
			}
			workers = append(workers, w)
		}
	}

	return &Grid{cfg: cfg, workers: workers}, nil
}

// Workers returns the grid's workers in enumeration order.
func (g *Grid) Workers() []WorkerID {
	return append([]WorkerID(nil), g.workers...)
}

// MaxWorkers returns the grid's capacity bound.
func (g *Grid) MaxWorkers() int {
	return g.cfg.MaxWorkers
}

// Rows returns the grid's row count.
func (g *Grid) Rows() int {
	return g.cfg.Rows
}

// Cols returns the grid's column count.
func (g *Grid) Cols() int {
	return g.cfg.Cols
}

// String returns the grid as "ColsxRows".
func (g *Grid) String() string {
	return fmt.Sprintf("%dx%d", g.cfg.Cols, g.cfg.Rows)
}
