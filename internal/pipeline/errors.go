package pipeline

import (
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/born-ml/tileflip/internal/parallel"
	"github.com/born-ml/tileflip/internal/tensor"
)

// Executor setup errors. All wrap tensor.ErrPrecondition.
var (
	ErrNoTransport = fmt.Errorf("%w: executor requires a transport", tensor.ErrPrecondition)
	ErrNoGrid      = fmt.Errorf("%w: executor requires a worker grid", tensor.ErrPrecondition)
	ErrInPlace     = fmt.Errorf("%w: source and destination must differ", tensor.ErrPrecondition)
)

// Direction is the transfer a TransportError happened on.
type Direction string

// Transfer directions.
const (
	DirectionRead  Direction = "read"
	DirectionWrite Direction = "write"
)

// TransportError reports one failed tile transfer.
type TransportError struct {
	Worker    parallel.WorkerID
	Direction Direction
	Location  string
	Tile      int // Source tile index
	DstTile   int // Destination tile index
	Err       error
}

// Error implements the error interface.
func (e *TransportError) Error() string {
	tile := e.Tile
	if e.Direction == DirectionWrite {
		tile = e.DstTile
	}
	return fmt.Sprintf("worker %s: %s tile %d of %q (src %d -> dst %d): %v",
		e.Worker, e.Direction, tile, e.Location, e.Tile, e.DstTile, e.Err)
}

// Unwrap returns the transport's error.
func (e *TransportError) Unwrap() error {
	return e.Err
}

// RunError aggregates the failures of one invocation, one per failed worker,
// in worker enumeration order.
type RunError struct {
	Invocation uuid.UUID
	Failed     []error
}

// Error implements the error interface.
func (e *RunError) Error() string {
	msgs := make([]string, len(e.Failed))
	for i, err := range e.Failed {
		msgs[i] = err.Error()
	}
	return fmt.Sprintf("invocation %s: %d worker(s) failed: %s",
		e.Invocation, len(e.Failed), strings.Join(msgs, "; "))
}

// Unwrap exposes the per-worker errors to errors.Is and errors.As.
func (e *RunError) Unwrap() []error {
	return e.Failed
}

// TransportErrors returns the failures caused by the transport.
func (e *RunError) TransportErrors() []*TransportError {
	var out []*TransportError
	for _, err := range e.Failed {
		var te *TransportError
		if errors.As(err, &te) {
			out = append(out, te)
		}
	}
	return out
}

// newRunError collects the non-nil entries of errs, or returns nil.
func newRunError(id uuid.UUID, errs []error) error {
	var failed []error
	for _, err := range errs {
		if err != nil {
			failed = append(failed, err)
		}
	}
	if len(failed) == 0 {
		return nil
	}
	return &RunError{Invocation: id, Failed: failed}
}
