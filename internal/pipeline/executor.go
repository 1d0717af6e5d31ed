package pipeline

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/born-ml/tileflip/internal/flip"
	"github.com/born-ml/tileflip/internal/parallel"
	"github.com/born-ml/tileflip/internal/tensor"
)

// Invocation holds the parameters of one tiled flip.
type Invocation struct {
	Shape tensor.Shape     // Logical element shape
	Axes  flip.AxisSet     // Axes to reverse
	Tile  tensor.TileShape // Tile extent over the last two axes
	DType tensor.DataType  // Element type; only its width matters
	Src   string           // Source location
	Dst   string           // Destination location
}

// TileBytes returns the byte size of one tile.
func (inv Invocation) TileBytes() int {
	return inv.Tile.Volume() * inv.DType.Size()
}

// Result summarizes a finished invocation.
type Result struct {
	ID         uuid.UUID
	TileGrid   tensor.Shape
	Tiles      int
	Assignment *parallel.Assignment
	Elapsed    time.Duration
}

// Executor runs tiled flips on a worker grid through a transport.
// It holds no per-invocation state and may run invocations concurrently.
type Executor struct {
	grid      parallel.WorkerGrid
	transport Transport
	observer  Observer
	fanOut    func(*parallel.Assignment, func(parallel.WorkerID, parallel.Range) error) []error
}

// Option configures an Executor.
type Option func(*Executor)

// WithObserver sets the observer receiving execution events.
func WithObserver(o Observer) Option {
	return func(e *Executor) {
		if o != nil {
			e.observer = o
		}
	}
}

// WithSequentialWorkers runs workers one after another in enumeration order
// instead of concurrently. Each worker still double-buffers its own range.
func WithSequentialWorkers() Option {
	return func(e *Executor) {
		e.fanOut = parallel.Sequential
	}
}

// NewExecutor creates an executor for grid and transport.
func NewExecutor(grid parallel.WorkerGrid, transport Transport, opts ...Option) (*Executor, error) {
	if grid == nil {
		return nil, ErrNoGrid
	}
	if transport == nil {
		return nil, ErrNoTransport
	}

	e := &Executor{
		grid:      grid,
		transport: transport,
		observer:  NopObserver{},
		fanOut:    parallel.Run,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

// plan is the immutable per-invocation state shared by all workers.
type plan struct {
	id        uuid.UUID
	inv       Invocation
	indexer   *flip.Indexer
	tileBytes int
}

// Plan validates inv and computes its tile grid and work assignment without
// moving any data.
func (e *Executor) Plan(inv Invocation) (*Result, error) {
	p, a, err := e.plan(inv)
	if err != nil {
		return nil, err
	}
	return &Result{
		ID:         p.id,
		TileGrid:   p.indexer.Shape(),
		Tiles:      p.indexer.Volume(),
		Assignment: a,
	}, nil
}

func (e *Executor) plan(inv Invocation) (*plan, *parallel.Assignment, error) {
	if inv.Src == inv.Dst {
		return nil, nil, fmt.Errorf("%w: %q", ErrInPlace, inv.Src)
	}

	ix, err := flip.NewTileIndexer(inv.Shape, inv.Tile, inv.Axes)
	if err != nil {
		return nil, nil, err
	}

	a, err := parallel.SplitGrid(e.grid, ix.Volume())
	if err != nil {
		return nil, nil, err
	}

	return &plan{
		id:        uuid.New(),
		inv:       inv,
		indexer:   ix,
		tileBytes: inv.TileBytes(),
	}, a, nil
}

// Run moves every tile of inv.Src to its flipped position in inv.Dst.
//
// Precondition errors are returned before any transfer starts. Transport
// failures are returned as a *RunError together with the Result once all
// workers have stopped; the destination is then partially written and the
// whole invocation may be re-run.
func (e *Executor) Run(ctx context.Context, inv Invocation) (*Result, error) {
	p, a, err := e.plan(inv)
	if err != nil {
		return nil, err
	}

	res := &Result{
		ID:         p.id,
		TileGrid:   p.indexer.Shape(),
		Tiles:      p.indexer.Volume(),
		Assignment: a,
	}
	event := InvocationEvent{
		ID:       p.id,
		Shape:    inv.Shape,
		TileGrid: res.TileGrid,
		Axes:     inv.Axes,
		Tiles:    res.Tiles,
		Workers:  a.ActiveWorkers(),
	}
	e.observer.InvocationStarted(event)

	start := time.Now()
	errs := e.fanOut(a, func(w parallel.WorkerID, r parallel.Range) error {
		return e.runWorker(ctx, p, w, r)
	})
	res.Elapsed = time.Since(start)

	err = newRunError(p.id, errs)
	event.Elapsed = res.Elapsed
	event.Err = err
	e.observer.InvocationFinished(event)

	return res, err
}

// runWorker streams the tiles of r through a double buffer: a reader
// goroutine fills free slots, this goroutine writes filled slots. The first
// failure cancels the worker's remaining transfers.
func (e *Executor) runWorker(ctx context.Context, p *plan, w parallel.WorkerID, r parallel.Range) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var (
		mu    sync.Mutex
		first error
	)
	fail := func(err error) {
		mu.Lock()
		if first == nil {
			first = err
		}
		mu.Unlock()
		cancel()
	}

	e.observer.WorkerStarted(WorkerEvent{ID: p.id, Worker: w, Range: r})
	start := time.Now()

	buf := newDoubleBuffer(p.tileBytes)
	go func() {
		defer buf.done()
		for t := r.Start; t < r.End; t++ {
			s, err := buf.acquire(ctx)
			if err != nil {
				fail(fmt.Errorf("worker %s stopped before tile %d: %w", w, t, err))
				return
			}
			s.src, s.dst = t, p.indexer.Map(t)
			if err := e.transport.ReadTile(ctx, p.inv.Src, s.src, s.data); err != nil {
				buf.release(s)
				fail(&TransportError{
					Worker: w, Direction: DirectionRead, Location: p.inv.Src,
					Tile: s.src, DstTile: s.dst, Err: err,
				})
				return
			}
			buf.push(s)
		}
	}()

	moved := 0
	failed := false
	for s := range buf.filled {
		if !failed {
			if err := e.transport.WriteTile(ctx, p.inv.Dst, s.dst, s.data); err != nil {
				fail(&TransportError{
					Worker: w, Direction: DirectionWrite, Location: p.inv.Dst,
					Tile: s.src, DstTile: s.dst, Err: err,
				})
				failed = true
			} else {
				moved++
				e.observer.TileMoved(TileEvent{ID: p.id, Worker: w, Src: s.src, Dst: s.dst})
			}
		}
		buf.release(s)
	}

	mu.Lock()
	err := first
	mu.Unlock()

	e.observer.WorkerFinished(WorkerEvent{
		ID: p.id, Worker: w, Range: r, Moved: moved, Elapsed: time.Since(start), Err: err,
	})
	return err
}
