// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package flip

import (
	"errors"
	"log/slog"

	"github.com/born-ml/tileflip/internal/parallel"
	"github.com/born-ml/tileflip/internal/pipeline"
	"github.com/born-ml/tileflip/internal/storage"
	"github.com/born-ml/tileflip/internal/tensor"
)

// Executor runs tiled flips on a worker grid.
type Executor = pipeline.Executor

// Invocation holds the parameters of one tiled flip.
type Invocation = pipeline.Invocation

// Result summarizes a finished invocation.
type Result = pipeline.Result

// Option configures an Executor.
type Option = pipeline.Option

// Transport moves whole tiles between locations and a worker.
type Transport = pipeline.Transport

// Observer receives execution events.
type Observer = pipeline.Observer

// NopObserver discards all events.
type NopObserver = pipeline.NopObserver

// RunError aggregates the worker failures of one invocation.
type RunError = pipeline.RunError

// TransportError reports one failed tile transfer.
type TransportError = pipeline.TransportError

// Grid is a rectangular worker grid.
type Grid = parallel.Grid

// GridConfig configures a Grid.
type GridConfig = parallel.Config

// WorkerID identifies one worker.
type WorkerID = parallel.WorkerID

// Assignment is a balanced split of tiles over workers.
type Assignment = parallel.Assignment

// MemoryStore is an in-process tile store.
type MemoryStore = storage.Memory

// FileStore is a tile store over .tflp files.
type FileStore = storage.File

// NewExecutor creates an executor for grid and transport.
func NewExecutor(grid *Grid, transport Transport, opts ...Option) (*Executor, error) {
	// A nil *Grid must reach the executor as a nil interface.
	if grid == nil {
		return pipeline.NewExecutor(nil, transport, opts...)
	}
	return pipeline.NewExecutor(grid, transport, opts...)
}

// WithObserver sets the observer receiving execution events.
func WithObserver(o Observer) Option {
	return pipeline.WithObserver(o)
}

// WithSequentialWorkers runs workers one after another.
func WithSequentialWorkers() Option {
	return pipeline.WithSequentialWorkers()
}

// WithLogger logs execution events to logger.
func WithLogger(logger *slog.Logger) Option {
	return pipeline.WithObserver(pipeline.NewSlogObserver(logger))
}

// NewGrid builds a worker grid.
func NewGrid(cfg GridConfig) (*Grid, error) {
	return parallel.NewGrid(cfg)
}

// Split divides totalUnits over numWorkers contiguous ranges.
func Split(totalUnits, numWorkers int) (*Assignment, error) {
	return parallel.Split(totalUnits, numWorkers)
}

// NewMemoryStore creates an empty in-process tile store.
func NewMemoryStore() *MemoryStore {
	return storage.NewMemory()
}

// NewFileStore creates an empty file-backed tile store.
func NewFileStore() *FileStore {
	return storage.NewFile()
}

// IsPrecondition reports whether err rejects the caller's inputs, as opposed
// to a failure while moving tiles.
func IsPrecondition(err error) bool {
	return errors.Is(err, tensor.ErrPrecondition)
}
