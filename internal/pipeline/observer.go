package pipeline

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/born-ml/tileflip/internal/flip"
	"github.com/born-ml/tileflip/internal/parallel"
	"github.com/born-ml/tileflip/internal/tensor"
)

// InvocationEvent describes an invocation starting or finishing.
type InvocationEvent struct {
	ID       uuid.UUID
	Shape    tensor.Shape
	TileGrid tensor.Shape
	Axes     flip.AxisSet
	Tiles    int
	Workers  int
	Elapsed  time.Duration // Zero when starting
	Err      error
}

// WorkerEvent describes a worker starting or finishing its range.
type WorkerEvent struct {
	ID      uuid.UUID
	Worker  parallel.WorkerID
	Range   parallel.Range
	Moved   int
	Elapsed time.Duration
	Err     error
}

// TileEvent describes one tile written to its destination.
type TileEvent struct {
	ID     uuid.UUID
	Worker parallel.WorkerID
	Src    int
	Dst    int
}

// Observer receives execution events. Worker and tile events arrive from
// many goroutines at once, so implementations must be safe for concurrent use.
type Observer interface {
	InvocationStarted(InvocationEvent)
	WorkerStarted(WorkerEvent)
	TileMoved(TileEvent)
	WorkerFinished(WorkerEvent)
	InvocationFinished(InvocationEvent)
}

// NopObserver discards all events.
type NopObserver struct{}

// InvocationStarted implements Observer.
func (NopObserver) InvocationStarted(InvocationEvent) {}

// WorkerStarted implements Observer.
func (NopObserver) WorkerStarted(WorkerEvent) {}

// TileMoved implements Observer.
func (NopObserver) TileMoved(TileEvent) {}

// WorkerFinished implements Observer.
func (NopObserver) WorkerFinished(WorkerEvent) {}

// InvocationFinished implements Observer.
func (NopObserver) InvocationFinished(InvocationEvent) {}

// SlogObserver writes events to a structured logger. Invocations log at
// Info, workers and tiles at Debug, failures at Error.
type SlogObserver struct {
	logger *slog.Logger
}

// NewSlogObserver returns an observer logging to logger, or to
// slog.Default() when logger is nil.
func NewSlogObserver(logger *slog.Logger) *SlogObserver {
	if logger == nil {
		logger = slog.Default()
	}
	return &SlogObserver{logger: logger}
}

// InvocationStarted logs the start of an invocation at Info.
func (o *SlogObserver) InvocationStarted(e InvocationEvent) {
	o.logger.Info("flip started",
		slog.String("invocation", e.ID.String()),
		slog.Any("shape", []int(e.Shape)),
		slog.Any("tile_grid", []int(e.TileGrid)),
		slog.String("axes", e.Axes.String()),
		slog.Int("tiles", e.Tiles),
		slog.Int("workers", e.Workers))
}

// WorkerStarted logs a worker and its tile range at Debug.
func (o *SlogObserver) WorkerStarted(e WorkerEvent) {
	o.logger.Debug("worker started",
		slog.String("invocation", e.ID.String()),
		slog.String("worker", e.Worker.String()),
		slog.String("range", e.Range.String()))
}

// TileMoved logs one tile transfer at Debug.
func (o *SlogObserver) TileMoved(e TileEvent) {
	// Checked first: tile events are the hot path.
	if !o.logger.Enabled(context.Background(), slog.LevelDebug) {
		return
	}
	o.logger.Debug("tile moved",
		slog.String("invocation", e.ID.String()),
		slog.String("worker", e.Worker.String()),
		slog.Int("src", e.Src),
		slog.Int("dst", e.Dst))
}

// WorkerFinished logs a worker's result, at Error when it failed.
func (o *SlogObserver) WorkerFinished(e WorkerEvent) {
	attrs := []any{
		slog.String("invocation", e.ID.String()),
		slog.String("worker", e.Worker.String()),
		slog.String("range", e.Range.String()),
		slog.Int("moved", e.Moved),
		slog.Duration("elapsed", e.Elapsed),
	}
	if e.Err != nil {
		o.logger.Error("worker failed", append(attrs, slog.Any("error", e.Err))...)
		return
	}
	o.logger.Debug("worker finished", attrs...)
}

// InvocationFinished logs the end of an invocation, at Error when it failed.
func (o *SlogObserver) InvocationFinished(e InvocationEvent) {
	attrs := []any{
		slog.String("invocation", e.ID.String()),
		slog.Int("tiles", e.Tiles),
		slog.Duration("elapsed", e.Elapsed),
	}
	if e.Err != nil {
		o.logger.Error("flip failed", append(attrs, slog.Any("error", e.Err))...)
		return
	}
	o.logger.Info("flip finished", attrs...)
}
